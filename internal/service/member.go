package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/orgtodo/internal/audit"
	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/email"
	"github.com/dangerclosesec/orgtodo/internal/email/mailer"
	"github.com/dangerclosesec/orgtodo/internal/lock"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type MemberService struct {
	repo       repository.MemberRepositoryIface
	orgRepo    repository.OrganizationRepositoryIface
	authz      auth.Authorizer
	locker     lock.Locker
	emailer    email.Sender
	entitySync *EntitySyncService
	guard      deletionGuard
	audit      audit.Logger
	logger     *slog.Logger
	baseURL    string
	validate   *validator.Validate
}

type MemberConfig struct {
	Repo       repository.MemberRepositoryIface
	OrgRepo    repository.OrganizationRepositoryIface
	Authz      auth.Authorizer
	Locker     lock.Locker
	Emailer    email.Sender
	EntitySync *EntitySyncService
	Audit      audit.Logger
	Logger     *slog.Logger
	// BaseURL prefixes the accept link in invitation emails.
	BaseURL string
}

func NewMemberService(cfg MemberConfig) *MemberService {
	if cfg.Locker == nil {
		cfg.Locker = lock.NewMemoryLocker()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NoOpLogger{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &MemberService{
		repo:       cfg.Repo,
		orgRepo:    cfg.OrgRepo,
		authz:      cfg.Authz,
		locker:     cfg.Locker,
		emailer:    cfg.Emailer,
		entitySync: cfg.EntitySync,
		audit:      cfg.Audit,
		logger:     cfg.Logger,
		baseURL:    cfg.BaseURL,
		validate:   validator.New(),
	}
}

func (s *MemberService) SetDeletionGuard(g deletionGuard) {
	s.guard = g
}

type AddMemberInput struct {
	OrganizationID uuid.UUID `json:"organizationID" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
}

func memberResource(m *model.OrganizationMember) auth.Resource {
	return auth.Resource{Type: model.EntityMember, ID: m.ID.String(), OrganizationID: m.OrganizationID}
}

// Add invites email into an organization. The membership starts PENDING with
// the email standing in for the user id until the invitee accepts.
func (s *MemberService) Add(ctx context.Context, principal *model.Principal, input AddMemberInput) (*model.OrganizationMember, error) {
	input.Email = model.NormalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	res := auth.Resource{Type: model.EntityMember, OrganizationID: input.OrganizationID}
	if err := s.authz.Authorize(ctx, principal, model.ActionCreate, res); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.FindByID(ctx, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	if s.guard != nil {
		if err := s.guard.Guard(ctx, org.ID); err != nil {
			return nil, err
		}
	}

	member, err := s.createPending(ctx, org.ID, input.Email)
	if err != nil {
		return nil, err
	}

	_ = s.audit.LogEntityCreate(ctx, model.EntityMember, member.ID.String(), map[string]interface{}{
		"organization_id": org.ID.String(),
		"status":          string(member.Status),
		"invited_by":      principal.UserID,
	})

	s.invite(principal, org, member)
	return member, nil
}

// createPending runs the duplicate pre-check and the insert under the
// membership lock. The lock is released before any email goes out.
func (s *MemberService) createPending(ctx context.Context, orgID uuid.UUID, email string) (*model.OrganizationMember, error) {
	release, err := s.locker.Lock(ctx, "member:"+orgID.String()+":"+email)
	if err != nil {
		return nil, fmt.Errorf("locking membership: %w", err)
	}
	defer release()

	existing, err := s.repo.FindByOrganizationAndEmail(ctx, orgID, email)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domain.ErrMemberAlreadyExists
	}

	member := &model.OrganizationMember{
		OrganizationID: orgID,
		UserID:         email,
		Email:          email,
		Status:         model.MemberStatusPending,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// invite sends the invitation email. Failures are logged: the membership
// exists either way and can be accepted from the memberships list.
func (s *MemberService) invite(principal *model.Principal, org *model.Organization, member *model.OrganizationMember) {
	if s.emailer == nil {
		return
	}
	link := fmt.Sprintf("%s/api/members/%s/accept", s.baseURL, member.ID.String())
	invitedBy := principal.Email
	if invitedBy == "" {
		invitedBy = principal.UserID
	}
	if err := mailer.SendMemberInvitation(s.emailer, member.Email, invitedBy, org.Name, link); err != nil {
		s.logger.Warn("failed to send invitation email",
			"member_id", member.ID.String(),
			"org_id", org.ID.String(),
			"error", err,
		)
	}
}

func (s *MemberService) Get(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.OrganizationMember, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, principal, model.ActionRead, memberResource(member)); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *MemberService) List(ctx context.Context, principal *model.Principal, filter *repository.Filter) ([]*model.OrganizationMember, error) {
	scope, err := s.authz.ReadScope(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scopeFilter(filter, scope, "organizationID"))
}

// Mine lists every membership addressed to the principal's email, pending
// invitations included.
func (s *MemberService) Mine(ctx context.Context, principal *model.Principal) ([]*model.OrganizationMember, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	email := model.NormalizeEmail(principal.Email)
	if email == "" {
		return []*model.OrganizationMember{}, nil
	}
	return s.repo.List(ctx, repository.Eq("email", email))
}

// Remove deletes a membership. Principals cannot remove their own.
func (s *MemberService) Remove(ctx context.Context, principal *model.Principal, id uuid.UUID) error {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, principal, model.ActionDelete, memberResource(member)); err != nil {
		return err
	}
	if isSelf(member, principal) {
		return domain.ErrCannotRemoveSelf
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.entitySync.RemoveMembership(ctx, member); err != nil {
		s.logger.Error("failed to remove member relationships", "member_id", id.String(), "error", err)
	}
	_ = s.audit.LogEntityDelete(ctx, model.EntityMember, id.String())
	return nil
}

func isSelf(member *model.OrganizationMember, principal *model.Principal) bool {
	if member.UserID == principal.UserID {
		return true
	}
	email := model.NormalizeEmail(principal.Email)
	return email != "" && member.Email == email
}

// Accept activates a pending membership. Only the invitee may accept, and
// the membership is bound to the accepting principal's user id.
func (s *MemberService) Accept(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.OrganizationMember, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}

	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(principal.Email)
	if email == "" || member.Email != email {
		return nil, domain.ErrForbidden
	}
	if member.Status != model.MemberStatusPending {
		return nil, domain.ErrMembershipNotPending
	}

	member.UserID = principal.UserID
	member.Status = model.MemberStatusActive
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}

	if err := s.entitySync.SyncMembership(ctx, member, principal.InGroup(model.GroupAdmin)); err != nil {
		s.logger.Error("failed to sync accepted membership", "member_id", id.String(), "error", err)
	}
	s.logger.Info("membership accepted",
		"member_id", id.String(),
		"org_id", member.OrganizationID.String(),
		"user_id", principal.UserID,
	)
	return member, nil
}
