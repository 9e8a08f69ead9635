package client

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Principal struct {
	UserID string   `json:"userID"`
	Email  string   `json:"email"`
	Groups []string `json:"groups"`
}

type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Membership statuses.
const (
	StatusPending = "PENDING"
	StatusActive  = "ACTIVE"
)

type Member struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationID"`
	UserID         string    `json:"userID"`
	Email          string    `json:"email"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Todo struct {
	ID             uuid.UUID `json:"id"`
	Content        string    `json:"content"`
	IsDone         bool      `json:"isDone"`
	OrganizationID uuid.UUID `json:"organizationID"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TodoUpdate changes the fields that are set.
type TodoUpdate struct {
	Content *string `json:"content,omitempty"`
	IsDone  *bool   `json:"isDone,omitempty"`
}

// Deletion job statuses.
const (
	DeletionPending   = "pending"
	DeletionFailed    = "failed"
	DeletionCompleted = "completed"
)

// DeletionJob reports the progress of an organization delete.
type DeletionJob struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationID"`
	RequestedBy    string    `json:"requestedBy"`
	Phase          string    `json:"phase"`
	Status         string    `json:"status"`
	LastError      string    `json:"lastError,omitempty"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (j *DeletionJob) Completed() bool {
	return j.Status == DeletionCompleted
}

// Filter selects records by field equality combined with and/or. Field
// names are the JSON names of the record, for example "organizationID".
type Filter struct {
	node interface{}
}

// Eq matches records whose field equals value.
func Eq(field string, value interface{}) *Filter {
	if id, ok := value.(uuid.UUID); ok {
		value = id.String()
	}
	return &Filter{node: map[string]interface{}{field: map[string]interface{}{"eq": value}}}
}

// And matches records matching every filter.
func And(filters ...*Filter) *Filter {
	return combine("and", filters)
}

// Or matches records matching any filter.
func Or(filters ...*Filter) *Filter {
	return combine("or", filters)
}

func combine(op string, filters []*Filter) *Filter {
	var nodes []interface{}
	for _, f := range filters {
		if f != nil {
			nodes = append(nodes, f.node)
		}
	}
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return &Filter{node: nodes[0]}
	}
	return &Filter{node: map[string]interface{}{op: nodes}}
}

func (f *Filter) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.node)
}
