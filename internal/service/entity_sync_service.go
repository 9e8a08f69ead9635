// internal/service/entity_sync_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/google/uuid"
)

// EntitySyncService keeps the relationship store in line with memberships.
// A nil *EntitySyncService, or one without a writer, does nothing: only the
// permify authorizer stores relationships outside the database.
type EntitySyncService struct {
	relations auth.RelationshipWriter
	members   repository.MemberRepositoryIface
	logger    *slog.Logger
}

// NewEntitySyncService returns nil when authz does not keep relationships.
func NewEntitySyncService(authz auth.Authorizer, members repository.MemberRepositoryIface, logger *slog.Logger) *EntitySyncService {
	relations, ok := authz.(auth.RelationshipWriter)
	if !ok {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitySyncService{
		relations: relations,
		members:   members,
		logger:    logger,
	}
}

func organizationEntity(orgID uuid.UUID) model.Entity {
	return model.Entity{Type: model.EntityOrganization, ID: orgID.String()}
}

// EstablishCreator grants the creator of an organization both relations.
func (s *EntitySyncService) EstablishCreator(ctx context.Context, orgID uuid.UUID, principal *model.Principal) error {
	if s == nil {
		return nil
	}
	subject := model.UserSubject(principal)
	for _, relation := range []string{model.RelationAdmin, model.RelationMember} {
		if err := s.relations.WriteRelationship(ctx, organizationEntity(orgID), relation, subject); err != nil {
			return fmt.Errorf("establishing %s relationship: %w", relation, err)
		}
	}
	return nil
}

// SyncMembership writes the member relation for an ACTIVE membership, and the
// admin relation too when admin is set.
func (s *EntitySyncService) SyncMembership(ctx context.Context, member *model.OrganizationMember, admin bool) error {
	if s == nil || !member.IsActive() {
		return nil
	}
	subject := model.Subject{Type: model.EntityUser, ID: member.UserID}
	if err := s.relations.WriteRelationship(ctx, organizationEntity(member.OrganizationID), model.RelationMember, subject); err != nil {
		return fmt.Errorf("writing member relationship: %w", err)
	}
	if admin {
		if err := s.relations.WriteRelationship(ctx, organizationEntity(member.OrganizationID), model.RelationAdmin, subject); err != nil {
			return fmt.Errorf("writing admin relationship: %w", err)
		}
	}
	return nil
}

// RemoveMembership drops every relation the member held on its organization.
func (s *EntitySyncService) RemoveMembership(ctx context.Context, member *model.OrganizationMember) error {
	if s == nil {
		return nil
	}
	subject := model.Subject{Type: model.EntityUser, ID: member.UserID}
	for _, relation := range []string{model.RelationMember, model.RelationAdmin} {
		if err := s.relations.DeleteRelationship(ctx, organizationEntity(member.OrganizationID), relation, subject); err != nil {
			return fmt.Errorf("deleting %s relationship: %w", relation, err)
		}
	}
	return nil
}

// DeleteOrganization removes the organization entity with all its tuples.
func (s *EntitySyncService) DeleteOrganization(ctx context.Context, orgID uuid.UUID) error {
	if s == nil {
		return nil
	}
	return s.relations.DeleteEntity(ctx, organizationEntity(orgID))
}

// ResyncOrganization rewrites the member relation of every ACTIVE member.
// Admin relations are only written when a membership is created or accepted,
// since group claims are not stored.
func (s *EntitySyncService) ResyncOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	if s == nil {
		return 0, nil
	}
	members, err := s.members.FindByOrganization(ctx, orgID)
	if err != nil {
		return 0, fmt.Errorf("fetching organization members: %w", err)
	}

	synced := 0
	for _, member := range members {
		if !member.IsActive() {
			continue
		}
		if err := s.SyncMembership(ctx, member, false); err != nil {
			s.logger.Error("failed to sync member relationship",
				"org_id", orgID.String(),
				"user_id", member.UserID,
				"error", err,
			)
			continue
		}
		synced++
	}
	return synced, nil
}
