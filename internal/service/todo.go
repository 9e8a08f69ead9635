package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dangerclosesec/orgtodo/internal/audit"
	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/notify"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type TodoService struct {
	repo     repository.TodoRepositoryIface
	orgRepo  repository.OrganizationRepositoryIface
	authz    auth.Authorizer
	broker   notify.Broker
	audit    audit.Logger
	guard    deletionGuard
	logger   *slog.Logger
	validate *validator.Validate
}

func NewTodoService(
	repo repository.TodoRepositoryIface,
	orgRepo repository.OrganizationRepositoryIface,
	authz auth.Authorizer,
	broker notify.Broker,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *TodoService {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoService{
		repo:     repo,
		orgRepo:  orgRepo,
		authz:    authz,
		broker:   broker,
		audit:    auditLogger,
		logger:   logger,
		validate: validator.New(),
	}
}

// SetDeletionGuard makes Create fail with ErrDeletionInProgress while the
// target organization is being deleted.
func (s *TodoService) SetDeletionGuard(g deletionGuard) {
	s.guard = g
}

type CreateTodoInput struct {
	Content        string    `json:"content" validate:"required"`
	IsDone         bool      `json:"isDone"`
	OrganizationID uuid.UUID `json:"organizationID" validate:"required"`
}

// UpdateTodoInput carries the fields to change; nil fields are left alone.
type UpdateTodoInput struct {
	Content *string `json:"content,omitempty"`
	IsDone  *bool   `json:"isDone,omitempty"`
}

func todoResource(todo *model.Todo) auth.Resource {
	return auth.Resource{Type: model.EntityTodo, ID: todo.ID.String(), OrganizationID: todo.OrganizationID}
}

// Create adds a todo to an existing organization.
func (s *TodoService) Create(ctx context.Context, principal *model.Principal, input CreateTodoInput) (*model.Todo, error) {
	input.Content = strings.TrimSpace(input.Content)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	res := auth.Resource{Type: model.EntityTodo, OrganizationID: input.OrganizationID}
	if err := s.authz.Authorize(ctx, principal, model.ActionCreate, res); err != nil {
		return nil, err
	}

	if _, err := s.orgRepo.FindByID(ctx, input.OrganizationID); err != nil {
		return nil, err
	}
	if s.guard != nil {
		if err := s.guard.Guard(ctx, input.OrganizationID); err != nil {
			return nil, err
		}
	}

	todo := &model.Todo{
		Content:        input.Content,
		IsDone:         input.IsDone,
		OrganizationID: input.OrganizationID,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	_ = s.audit.LogEntityCreate(ctx, model.EntityTodo, todo.ID.String(), map[string]interface{}{
		"organization_id": todo.OrganizationID.String(),
	})
	s.publish(ctx, todo.OrganizationID)

	return todo, nil
}

// Get returns one todo, or ErrTodoNotFound when it is outside the read scope.
func (s *TodoService) Get(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, principal, model.ActionRead, todoResource(todo)); err != nil {
		return nil, err
	}
	return todo, nil
}

// List returns every todo matching filter that the principal may read.
func (s *TodoService) List(ctx context.Context, principal *model.Principal, filter *repository.Filter) ([]*model.Todo, error) {
	scope, err := s.authz.ReadScope(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scopeFilter(filter, scope, "organizationID"))
}

func (s *TodoService) Update(ctx context.Context, principal *model.Principal, id uuid.UUID, input UpdateTodoInput) (*model.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, principal, model.ActionUpdate, todoResource(todo)); err != nil {
		return nil, err
	}

	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content must not be empty", domain.ErrInvalidInput)
		}
		todo.Content = content
	}
	if input.IsDone != nil {
		todo.IsDone = *input.IsDone
	}

	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}

	s.publish(ctx, todo.OrganizationID)
	return todo, nil
}

// Toggle flips isDone and leaves every other field untouched.
func (s *TodoService) Toggle(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, principal, model.ActionUpdate, todoResource(todo)); err != nil {
		return nil, err
	}

	toggled, err := s.repo.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, toggled.OrganizationID)
	return toggled, nil
}

func (s *TodoService) Delete(ctx context.Context, principal *model.Principal, id uuid.UUID) error {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, principal, model.ActionDelete, todoResource(todo)); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.audit.LogEntityDelete(ctx, model.EntityTodo, id.String())
	s.publish(ctx, todo.OrganizationID)
	return nil
}

func (s *TodoService) publish(ctx context.Context, orgID uuid.UUID) {
	if s.broker == nil {
		return
	}
	if err := notify.PublishTodoChange(ctx, s.broker, orgID); err != nil {
		s.logger.Warn("failed to publish todo change", "org_id", orgID.String(), "error", err)
	}
}
