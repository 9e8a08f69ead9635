package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeletionPhase is the next step a DeletionJob has to perform.
type DeletionPhase string

const (
	PhaseTodos        DeletionPhase = "todos"
	PhaseMembers      DeletionPhase = "members"
	PhaseOrganization DeletionPhase = "organization"
	PhaseDone         DeletionPhase = "done"
)

// Next returns the phase that follows p.
func (p DeletionPhase) Next() DeletionPhase {
	switch p {
	case PhaseTodos:
		return PhaseMembers
	case PhaseMembers:
		return PhaseOrganization
	default:
		return PhaseDone
	}
}

type DeletionStatus string

const (
	DeletionPending   DeletionStatus = "pending"
	DeletionFailed    DeletionStatus = "failed"
	DeletionCompleted DeletionStatus = "completed"
)

// DeletionJob records the progress of a cascading organization delete so an
// interrupted run can be resumed.
type DeletionJob struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID uuid.UUID      `json:"organizationID" gorm:"type:uuid;not null"`
	RequestedBy    string         `json:"requestedBy" gorm:"type:text;not null"`
	Phase          DeletionPhase  `json:"phase" gorm:"type:text;not null"`
	Status         DeletionStatus `json:"status" gorm:"type:text;not null;index"`
	LastError      string         `json:"lastError,omitempty" gorm:"type:text;not null;default:''"`
	Attempts       int            `json:"attempts" gorm:"not null;default:0"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (DeletionJob) TableName() string {
	return "deletion_jobs"
}

func (j *DeletionJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Finished reports whether all phases have run.
func (j *DeletionJob) Finished() bool {
	return j.Status == DeletionCompleted || j.Phase == PhaseDone
}
