package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthzAuditLog is one recorded authorization decision or entity change.
type AuthzAuditLog struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
	ActionType  string    `json:"action_type" gorm:"type:text;not null"`
	Result      *bool     `json:"result"`
	EntityType  string    `json:"entity_type" gorm:"type:text"`
	EntityID    string    `json:"entity_id" gorm:"type:text"`
	SubjectType string    `json:"subject_type" gorm:"type:text"`
	SubjectID   string    `json:"subject_id" gorm:"type:text"`
	Relation    string    `json:"relation" gorm:"type:text"`
	Permission  string    `json:"permission" gorm:"type:text"`
	Context     JSONMap   `json:"context" gorm:"type:jsonb"`
	RequestID   string    `json:"request_id" gorm:"type:text"`
	ClientIP    string    `json:"client_ip" gorm:"type:text"`
	UserAgent   string    `json:"user_agent" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for AuthzAuditLog
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}

func (l *AuthzAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return nil
}

// JSONMap represents a generic map stored as JSONB in the database
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion failed: failed to decode JSONB")
	}

	return json.Unmarshal(bytes, m)
}

// Constants for AuthzAuditLog action types
const (
	ActionPermissionCheck = "permission_check"
	ActionEntityCreate    = "entity_create"
	ActionEntityDelete    = "entity_delete"
	ActionRelationCreate  = "relation_create"
	ActionRelationDelete  = "relation_delete"
)
