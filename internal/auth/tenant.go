package auth

import (
	"context"
	"errors"

	"github.com/dangerclosesec/orgtodo/internal/audit"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/google/uuid"
)

// TenantAuthorizer scopes every check to the organization referenced by the
// row: the principal must hold an ACTIVE membership there before the group
// action matrix is consulted.
type TenantAuthorizer struct {
	group   *GroupAuthorizer
	members repository.MemberRepositoryIface
	audit   audit.Logger
}

var _ Authorizer = (*TenantAuthorizer)(nil)

func NewTenantAuthorizer(group *GroupAuthorizer, members repository.MemberRepositoryIface, auditLogger audit.Logger) *TenantAuthorizer {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &TenantAuthorizer{group: group, members: members, audit: auditLogger}
}

func (a *TenantAuthorizer) Authorize(ctx context.Context, p *model.Principal, action string, res Resource) error {
	if p == nil {
		return domain.ErrUnauthorized
	}

	extra := map[string]interface{}{"mode": "tenant", "groups": p.Groups}

	// Anyone may start a new tenant.
	if res.Type == model.EntityOrganization && action == model.ActionCreate {
		return decide(ctx, a.audit, p, action, res, true, extra)
	}

	if res.OrganizationID == uuid.Nil {
		return decide(ctx, a.audit, p, action, res, false, extra)
	}

	_, err := a.members.FindActive(ctx, res.OrganizationID, p.UserID, p.Email)
	if errors.Is(err, domain.ErrMemberNotFound) {
		extra["reason"] = "not an active member"
		return decide(ctx, a.audit, p, action, res, false, extra)
	}
	if err != nil {
		return err
	}

	allowed, err := a.group.Allowed(p, action, res.Type)
	if err != nil {
		return err
	}
	return decide(ctx, a.audit, p, action, res, allowed, extra)
}

func (a *TenantAuthorizer) ReadScope(ctx context.Context, p *model.Principal) (Scope, error) {
	if p == nil {
		return Scope{}, domain.ErrUnauthorized
	}
	ids, err := a.members.ActiveOrganizationIDs(ctx, p.UserID, p.Email)
	if err != nil {
		return Scope{}, err
	}
	return Scope{OrganizationIDs: ids}, nil
}

func (a *TenantAuthorizer) CreatorStatus() model.MemberStatus {
	return model.MemberStatusActive
}
