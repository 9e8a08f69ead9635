package model

// Entity types used by the authorizer, audit log and relationship sync.
const (
	EntityUser         = "user"
	EntityOrganization = "organization"
	EntityMember       = "organization_member"
	EntityTodo         = "todo"
)

// Actions checked against the authorization policy.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Relations written to the relationship store.
const (
	RelationAdmin        = "admin"
	RelationMember       = "member"
	RelationOrganization = "organization"
)

// Entity represents a permission entity
type Entity struct {
	Type string
	ID   string
}

// Subject represents a permission subject
type Subject struct {
	Type string
	ID   string
}

// UserSubject returns the subject for a principal.
func UserSubject(p *Principal) Subject {
	return Subject{Type: EntityUser, ID: p.UserID}
}
