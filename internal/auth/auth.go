// internal/auth/auth.go

package auth

import (
	"context"

	"github.com/dangerclosesec/orgtodo/internal/metrics"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/google/uuid"
)

// Resource identifies the target of an authorization check.
type Resource struct {
	Type string
	// ID is empty for create and list checks.
	ID string
	// OrganizationID is the tenant the row belongs to. For organizations it
	// is the organization itself; uuid.Nil when creating one.
	OrganizationID uuid.UUID
}

// Entity converts the resource to the audit/relationship representation.
func (r Resource) Entity() model.Entity {
	id := r.ID
	if id == "" && r.OrganizationID != uuid.Nil {
		id = r.OrganizationID.String()
	}
	return model.Entity{Type: r.Type, ID: id}
}

// Scope describes which organizations' rows a principal may read.
type Scope struct {
	All             bool
	OrganizationIDs []uuid.UUID
}

// Allows reports whether rows of orgID are visible under the scope.
func (s Scope) Allows(orgID uuid.UUID) bool {
	if s.All {
		return true
	}
	for _, id := range s.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}

// Authorizer decides whether a principal may perform an action.
type Authorizer interface {
	// Authorize returns domain.ErrForbidden when the action is denied.
	Authorize(ctx context.Context, principal *model.Principal, action string, resource Resource) error
	// ReadScope returns the organizations whose rows the principal may list.
	ReadScope(ctx context.Context, principal *model.Principal) (Scope, error)
	// CreatorStatus is the status given to the membership created for the
	// principal that creates an organization.
	CreatorStatus() model.MemberStatus
}

// RelationshipWriter is implemented by authorizers that keep an external
// relationship store in sync with memberships.
type RelationshipWriter interface {
	WriteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error
	DeleteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error
	DeleteEntity(ctx context.Context, entity model.Entity) error
}

func recordDecision(allowed bool, action, entityType string) {
	metrics.Default().AuthzDecision(allowed, action, entityType)
}
