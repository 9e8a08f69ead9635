package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Todo struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Content        string    `json:"content" gorm:"type:text;not null;default:''"`
	IsDone         bool      `json:"isDone" gorm:"not null;default:false"`
	OrganizationID uuid.UUID `json:"organizationID" gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Organization *Organization `json:"-" gorm:"foreignKey:OrganizationID"`
}

func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
