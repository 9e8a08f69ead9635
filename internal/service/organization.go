package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dangerclosesec/orgtodo/internal/audit"
	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type OrganizationService struct {
	repo       repository.OrganizationRepositoryIface
	members    repository.MemberRepositoryIface
	authz      auth.Authorizer
	deletion   *DeletionService
	cache      *CacheService
	entitySync *EntitySyncService
	audit      audit.Logger
	logger     *slog.Logger
	validate   *validator.Validate
}

func NewOrganizationService(
	repo repository.OrganizationRepositoryIface,
	members repository.MemberRepositoryIface,
	authz auth.Authorizer,
	deletion *DeletionService,
	cache *CacheService,
	entitySync *EntitySyncService,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *OrganizationService {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizationService{
		repo:       repo,
		members:    members,
		authz:      authz,
		deletion:   deletion,
		cache:      cache,
		entitySync: entitySync,
		audit:      auditLogger,
		logger:     logger,
		validate:   validator.New(),
	}
}

type CreateOrganizationInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

type UpdateOrganizationInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

func organizationCacheKey(id uuid.UUID) string {
	return "organization:" + id.String()
}

func organizationResource(id uuid.UUID) auth.Resource {
	return auth.Resource{Type: model.EntityOrganization, ID: id.String(), OrganizationID: id}
}

// Create stores the organization and the creator's membership in one
// transaction.
func (s *OrganizationService) Create(ctx context.Context, principal *model.Principal, input CreateOrganizationInput) (*model.Organization, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	if err := s.authz.Authorize(ctx, principal, model.ActionCreate, auth.Resource{Type: model.EntityOrganization}); err != nil {
		return nil, err
	}
	creatorEmail := model.NormalizeEmail(principal.Email)
	if creatorEmail == "" && s.authz.CreatorStatus() == model.MemberStatusActive {
		return nil, fmt.Errorf("%w: an email claim is required to own an organization", domain.ErrForbidden)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	org := &model.Organization{Name: input.Name}
	if err := s.repo.WithTx(tx).Create(ctx, org); err != nil {
		return nil, err
	}

	creator := &model.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         principal.UserID,
		Email:          creatorEmail,
		Status:         s.authz.CreatorStatus(),
	}
	if err := s.members.WithTx(tx).Create(ctx, creator); err != nil {
		return nil, fmt.Errorf("creating creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	if err := s.entitySync.EstablishCreator(ctx, org.ID, principal); err != nil {
		// The reconciler rewrites member relations; admin has to be retried by hand.
		s.logger.Error("failed to establish creator relationships", "org_id", org.ID.String(), "error", err)
	}

	_ = s.audit.LogEntityCreate(ctx, model.EntityOrganization, org.ID.String(), map[string]interface{}{
		"name":       org.Name,
		"created_by": principal.UserID,
	})
	_ = s.audit.LogEntityCreate(ctx, model.EntityMember, creator.ID.String(), map[string]interface{}{
		"organization_id": org.ID.String(),
		"status":          string(creator.Status),
	})

	return org, nil
}

func (s *OrganizationService) Get(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Organization, error) {
	if err := s.authz.Authorize(ctx, principal, model.ActionRead, organizationResource(id)); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *OrganizationService) find(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	if s.cache == nil {
		return s.repo.FindByID(ctx, id)
	}

	var org model.Organization
	err := s.cache.GetOrSet(ctx, organizationCacheKey(id), &org, func() (interface{}, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// List returns the organizations matching filter within the read scope.
func (s *OrganizationService) List(ctx context.Context, principal *model.Principal, filter *repository.Filter) ([]*model.Organization, error) {
	scope, err := s.authz.ReadScope(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scopeFilter(filter, scope, "id"))
}

func (s *OrganizationService) Update(ctx context.Context, principal *model.Principal, id uuid.UUID, input UpdateOrganizationInput) (*model.Organization, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	if err := s.authz.Authorize(ctx, principal, model.ActionUpdate, organizationResource(id)); err != nil {
		return nil, err
	}
	if s.deletion != nil {
		if err := s.deletion.Guard(ctx, id); err != nil {
			return nil, err
		}
	}

	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	org.Name = input.Name
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, organizationCacheKey(id)); err != nil {
			s.logger.Warn("failed to invalidate cached organization", "org_id", id.String(), "error", err)
		}
	}
	return org, nil
}

// Delete removes the organization together with its todos and members.
func (s *OrganizationService) Delete(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.DeletionJob, error) {
	if err := s.authz.Authorize(ctx, principal, model.ActionDelete, organizationResource(id)); err != nil {
		return nil, err
	}
	return s.deletion.Request(ctx, id, principal.UserID)
}

// Deletion returns the latest deletion job recorded for the organization.
// Deletion returns the latest deletion job of the organization. The
// requester may follow the job after the memberships granting access are gone.
func (s *OrganizationService) Deletion(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.DeletionJob, error) {
	authErr := s.authz.Authorize(ctx, principal, model.ActionRead, organizationResource(id))
	if authErr != nil && !errors.Is(authErr, domain.ErrForbidden) {
		return nil, authErr
	}

	job, err := s.deletion.Latest(ctx, id)
	if authErr != nil && (err != nil || job.RequestedBy != principal.UserID) {
		return nil, authErr
	}
	return job, err
}
