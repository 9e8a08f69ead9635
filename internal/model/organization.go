// internal/model/organization.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberStatus string

const (
	MemberStatusPending MemberStatus = "PENDING"
	MemberStatusActive  MemberStatus = "ACTIVE"
)

// Valid reports whether s is one of the declared statuses.
func (s MemberStatus) Valid() bool {
	return s == MemberStatusPending || s == MemberStatusActive
}

type Organization struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Todos   []Todo               `json:"-" gorm:"foreignKey:OrganizationID"`
	Members []OrganizationMember `json:"-" gorm:"foreignKey:OrganizationID"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrganizationMember links a principal to an organization. UserID holds the
// invitee's email until the invitation is accepted.
type OrganizationMember struct {
	ID             uuid.UUID    `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID uuid.UUID    `json:"organizationID" gorm:"type:uuid;not null;index"`
	UserID         string       `json:"userID" gorm:"type:text;not null"`
	Email          string       `json:"email" gorm:"type:text;not null;index"`
	Status         MemberStatus `json:"status" gorm:"type:text;not null;default:PENDING"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	Organization *Organization `json:"-" gorm:"foreignKey:OrganizationID"`
}

func (m *OrganizationMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = MemberStatusPending
	}
	return nil
}

// IsActive reports whether the membership has been accepted.
func (m *OrganizationMember) IsActive() bool {
	return m.Status == MemberStatusActive
}
