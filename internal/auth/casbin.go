package auth

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/dangerclosesec/orgtodo/internal/audit"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

// Policy subjects. Every principal is "authenticated"; each global group in
// the token adds "group:<name>".
const (
	SubjectAuthenticated = "authenticated"
	subjectGroupPrefix   = "group:"
)

// PolicyObjects are the entity types covered by the action matrix.
var PolicyObjects = []string{model.EntityTodo, model.EntityOrganization, model.EntityMember}

// NewEnforcer creates an enforcer persisted in the casbin_rule table and
// seeds the default policy.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("creating casbin adapter: %w", err)
	}
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, fmt.Errorf("seeding policy: %w", err)
	}
	return enforcer, nil
}

// NewMemoryEnforcer creates a seeded enforcer without persistence.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	var policies [][]string
	for _, obj := range PolicyObjects {
		policies = append(policies,
			// Any authenticated principal may read
			[]string{SubjectAuthenticated, obj, model.ActionRead},

			// Admin: full CRUD
			[]string{subjectGroupPrefix + model.GroupAdmin, obj, model.ActionCreate},
			[]string{subjectGroupPrefix + model.GroupAdmin, obj, model.ActionRead},
			[]string{subjectGroupPrefix + model.GroupAdmin, obj, model.ActionUpdate},
			[]string{subjectGroupPrefix + model.GroupAdmin, obj, model.ActionDelete},

			// Member: read only
			[]string{subjectGroupPrefix + model.GroupMember, obj, model.ActionRead},
		)
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

// policySubjects lists the casbin subjects held by the principal.
func policySubjects(p *model.Principal) []string {
	subjects := []string{SubjectAuthenticated}
	for _, g := range p.Groups {
		subjects = append(subjects, subjectGroupPrefix+g)
	}
	return subjects
}

// GroupAuthorizer applies the global group policy: the decision depends only
// on the groups claim, never on organization membership.
type GroupAuthorizer struct {
	enforcer *casbin.SyncedEnforcer
	audit    audit.Logger
}

var _ Authorizer = (*GroupAuthorizer)(nil)

func NewGroupAuthorizer(enforcer *casbin.SyncedEnforcer, auditLogger audit.Logger) *GroupAuthorizer {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &GroupAuthorizer{enforcer: enforcer, audit: auditLogger}
}

// Allowed evaluates the action matrix without auditing.
func (a *GroupAuthorizer) Allowed(p *model.Principal, action, objectType string) (bool, error) {
	for _, sub := range policySubjects(p) {
		ok, err := a.enforcer.Enforce(sub, objectType, action)
		if err != nil {
			return false, fmt.Errorf("enforcing policy: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a *GroupAuthorizer) Authorize(ctx context.Context, p *model.Principal, action string, res Resource) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	allowed, err := a.Allowed(p, action, res.Type)
	if err != nil {
		return err
	}
	return decide(ctx, a.audit, p, action, res, allowed, map[string]interface{}{"mode": "group", "groups": p.Groups})
}

// ReadScope is unrestricted: every authenticated principal may read every
// organization's rows.
func (a *GroupAuthorizer) ReadScope(ctx context.Context, p *model.Principal) (Scope, error) {
	if p == nil {
		return Scope{}, domain.ErrUnauthorized
	}
	return Scope{All: true}, nil
}

func (a *GroupAuthorizer) CreatorStatus() model.MemberStatus {
	return model.MemberStatusPending
}

// decide records the decision and converts a denial to ErrForbidden.
func decide(ctx context.Context, logger audit.Logger, p *model.Principal, action string, res Resource, allowed bool, extra map[string]interface{}) error {
	recordDecision(allowed, action, res.Type)
	_ = logger.LogPermissionCheck(ctx, model.UserSubject(p), action, res.Entity(), allowed, extra)
	if !allowed {
		return domain.ErrForbidden
	}
	return nil
}
