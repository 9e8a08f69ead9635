// internal/auth/permify.go

package auth

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	v1 "buf.build/gen/go/permifyco/permify/protocolbuffers/go/base/v1"
	permify_grpc "github.com/Permify/permify-go/grpc"
	"github.com/dangerclosesec/orgtodo/internal/audit"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/google/uuid"
)

type PermifyService struct {
	client        *permify_grpc.Client
	tenant        string
	schemaVersion string
	snapToken     string
	depth         int32
}

func WithTenant(tenant string) func(*PermifyService) {
	return func(s *PermifyService) {
		s.tenant = tenant
	}
}

// WithSchemaVersion sets the schema version for the Permify service
func WithSchemaVersion(schemaVersion string) func(*PermifyService) {
	return func(s *PermifyService) {
		s.schemaVersion = schemaVersion
	}
}

// WithSnapToken sets the snap token for the Permify service
func WithSnapToken(snapToken string) func(*PermifyService) {
	return func(s *PermifyService) {
		s.snapToken = snapToken
	}
}

// WithDepth sets the depth for the Permify service
func WithDepth(depth int32) func(*PermifyService) {
	return func(s *PermifyService) {
		s.depth = depth
	}
}

// NewPermifyService creates a new Permify service
func NewPermifyService(host string, options ...func(*PermifyService)) (*PermifyService, error) {
	client, err := permify_grpc.NewClient(
		permify_grpc.Config{
			Endpoint: host,
		},
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}

	service := &PermifyService{client: client, depth: 50}
	for _, o := range options {
		o(service)
	}

	if service.tenant == "" {
		service.tenant = "t1"
	}

	return service, nil
}

// WriteSchema stores schema for the tenant and returns the new schema version.
func (s *PermifyService) WriteSchema(ctx context.Context, schema string) (string, error) {
	resp, err := s.client.Schema.Write(ctx, &v1.SchemaWriteRequest{
		TenantId: s.tenant,
		Schema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("writing permify schema: %w", err)
	}
	return resp.SchemaVersion, nil
}

// CheckPermission checks if a subject has a permission on an entity
func (s *PermifyService) CheckPermission(ctx context.Context, entity model.Entity, permission string, subject model.Subject) (bool, error) {
	cr, err := s.client.Permission.Check(ctx, &v1.PermissionCheckRequest{
		TenantId: s.tenant,
		Metadata: &v1.PermissionCheckRequestMetadata{
			SnapToken:     s.snapToken,
			SchemaVersion: s.schemaVersion,
			Depth:         s.depth,
		},
		Entity: &v1.Entity{
			Type: entity.Type,
			Id:   entity.ID,
		},
		Permission: permission,
		Subject: &v1.Subject{
			Type: subject.Type,
			Id:   subject.ID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("checking permission: %w", err)
	}

	return cr.Can == v1.CheckResult_CHECK_RESULT_ALLOWED, nil
}

// LookupEntity returns the ids of entityType on which subject holds permission.
func (s *PermifyService) LookupEntity(ctx context.Context, entityType, permission string, subject model.Subject) ([]string, error) {
	resp, err := s.client.Permission.LookupEntity(ctx, &v1.PermissionLookupEntityRequest{
		TenantId: s.tenant,
		Metadata: &v1.PermissionLookupEntityRequestMetadata{
			SnapToken:     s.snapToken,
			SchemaVersion: s.schemaVersion,
			Depth:         s.depth,
		},
		EntityType: entityType,
		Permission: permission,
		Subject: &v1.Subject{
			Type: subject.Type,
			Id:   subject.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("looking up entities: %w", err)
	}
	return resp.EntityIds, nil
}

func (s *PermifyService) WriteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error {
	_, err := s.client.Data.WriteRelationships(ctx, &v1.RelationshipWriteRequest{
		TenantId: s.tenant,
		Metadata: &v1.RelationshipWriteRequestMetadata{
			SchemaVersion: s.schemaVersion,
		},
		Tuples: []*v1.Tuple{
			{
				Entity: &v1.Entity{
					Type: entity.Type,
					Id:   entity.ID,
				},
				Relation: relation,
				Subject: &v1.Subject{
					Type: subject.Type,
					Id:   subject.ID,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("writing relationship: %w", err)
	}

	return nil
}

func (s *PermifyService) DeleteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error {
	_, err := s.client.Data.DeleteRelationships(ctx, &v1.RelationshipDeleteRequest{
		TenantId: s.tenant,
		Filter: &v1.TupleFilter{
			Entity: &v1.EntityFilter{
				Type: entity.Type,
				Ids:  []string{entity.ID},
			},
			Relation: relation,
			Subject: &v1.SubjectFilter{
				Type: subject.Type,
				Ids:  []string{subject.ID},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}

	return nil
}

// DeleteEntity removes every relationship stored for entity.
func (s *PermifyService) DeleteEntity(ctx context.Context, entity model.Entity) error {
	_, err := s.client.Data.DeleteRelationships(ctx, &v1.RelationshipDeleteRequest{
		TenantId: s.tenant,
		Filter: &v1.TupleFilter{
			Entity: &v1.EntityFilter{
				Type: entity.Type,
				Ids:  []string{entity.ID},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting entity relationships: %w", err)
	}

	return nil
}

// PermissionStore is the subset of PermifyService used by PermifyAuthorizer.
type PermissionStore interface {
	CheckPermission(ctx context.Context, entity model.Entity, permission string, subject model.Subject) (bool, error)
	LookupEntity(ctx context.Context, entityType, permission string, subject model.Subject) ([]string, error)
	WriteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error
	DeleteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error
	DeleteEntity(ctx context.Context, entity model.Entity) error
}

var _ PermissionStore = (*PermifyService)(nil)

// PermifyAuthorizer delegates decisions to Permify. Every entity is checked
// through its organization, on which the schema defines the permissions.
type PermifyAuthorizer struct {
	store PermissionStore
	audit audit.Logger
}

var (
	_ Authorizer         = (*PermifyAuthorizer)(nil)
	_ RelationshipWriter = (*PermifyAuthorizer)(nil)
)

func NewPermifyAuthorizer(store PermissionStore, auditLogger audit.Logger) *PermifyAuthorizer {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &PermifyAuthorizer{store: store, audit: auditLogger}
}

func (a *PermifyAuthorizer) Authorize(ctx context.Context, p *model.Principal, action string, res Resource) error {
	if p == nil {
		return domain.ErrUnauthorized
	}

	extra := map[string]interface{}{"mode": "permify"}

	// There is no organization to check against before it exists.
	if res.Type == model.EntityOrganization && action == model.ActionCreate {
		return decide(ctx, a.audit, p, action, res, true, extra)
	}
	if res.OrganizationID == uuid.Nil {
		return decide(ctx, a.audit, p, action, res, false, extra)
	}

	org := model.Entity{Type: model.EntityOrganization, ID: res.OrganizationID.String()}
	allowed, err := a.store.CheckPermission(ctx, org, action, model.UserSubject(p))
	if err != nil {
		return err
	}
	return decide(ctx, a.audit, p, action, res, allowed, extra)
}

func (a *PermifyAuthorizer) ReadScope(ctx context.Context, p *model.Principal) (Scope, error) {
	if p == nil {
		return Scope{}, domain.ErrUnauthorized
	}
	ids, err := a.store.LookupEntity(ctx, model.EntityOrganization, model.ActionRead, model.UserSubject(p))
	if err != nil {
		return Scope{}, err
	}

	scope := Scope{OrganizationIDs: make([]uuid.UUID, 0, len(ids))}
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		scope.OrganizationIDs = append(scope.OrganizationIDs, id)
	}
	return scope, nil
}

func (a *PermifyAuthorizer) CreatorStatus() model.MemberStatus {
	return model.MemberStatusActive
}

func (a *PermifyAuthorizer) WriteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error {
	if err := a.store.WriteRelationship(ctx, entity, relation, subject); err != nil {
		return err
	}
	_ = a.audit.LogRelationCreate(ctx, entity, relation, subject)
	return nil
}

func (a *PermifyAuthorizer) DeleteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error {
	if err := a.store.DeleteRelationship(ctx, entity, relation, subject); err != nil {
		return err
	}
	_ = a.audit.LogRelationDelete(ctx, entity, relation, subject)
	return nil
}

func (a *PermifyAuthorizer) DeleteEntity(ctx context.Context, entity model.Entity) error {
	return a.store.DeleteEntity(ctx, entity)
}
