package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeletionJobRepositoryIface interface {
	Begin(ctx context.Context) (Transaction, error)
	WithTx(tx Transaction) DeletionJobRepositoryIface

	Create(ctx context.Context, job *model.DeletionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DeletionJob, error)
	FindLatestByOrganization(ctx context.Context, orgID uuid.UUID) (*model.DeletionJob, error)
	FindUnfinishedByOrganization(ctx context.Context, orgID uuid.UUID) (*model.DeletionJob, error)
	FindResumable(ctx context.Context, limit int) ([]*model.DeletionJob, error)
	Update(ctx context.Context, job *model.DeletionJob) error
}

type DeletionJobRepository struct {
	db *gorm.DB
}

func NewDeletionJobRepository(db *gorm.DB) *DeletionJobRepository {
	return &DeletionJobRepository{db: db}
}

func (r *DeletionJobRepository) Begin(ctx context.Context) (Transaction, error) {
	return begin(r.db.WithContext(ctx))
}

func (r *DeletionJobRepository) WithTx(tx Transaction) DeletionJobRepositoryIface {
	return &DeletionJobRepository{db: txDB(tx, r.db)}
}

func (r *DeletionJobRepository) Create(ctx context.Context, job *model.DeletionJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("creating deletion job: %w", err)
	}
	return nil
}

func (r *DeletionJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DeletionJob, error) {
	var job model.DeletionJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding deletion job: %w", err)
	}
	return &job, nil
}

func (r *DeletionJobRepository) FindLatestByOrganization(ctx context.Context, orgID uuid.UUID) (*model.DeletionJob, error) {
	var job model.DeletionJob
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding deletion job: %w", err)
	}
	return &job, nil
}

// FindUnfinishedByOrganization returns a pending or failed job for orgID.
func (r *DeletionJobRepository) FindUnfinishedByOrganization(ctx context.Context, orgID uuid.UUID) (*model.DeletionJob, error) {
	var job model.DeletionJob
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status <> ?", orgID, model.DeletionCompleted).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding unfinished deletion job: %w", err)
	}
	return &job, nil
}

// FindResumable returns pending and failed jobs, oldest first.
func (r *DeletionJobRepository) FindResumable(ctx context.Context, limit int) ([]*model.DeletionJob, error) {
	if limit <= 0 {
		limit = 100
	}

	var jobs []*model.DeletionJob
	err := r.db.WithContext(ctx).
		Where("status IN ?", []model.DeletionStatus{model.DeletionPending, model.DeletionFailed}).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("finding resumable deletion jobs: %w", err)
	}
	return jobs, nil
}

func (r *DeletionJobRepository) Update(ctx context.Context, job *model.DeletionJob) error {
	result := r.db.WithContext(ctx).Model(job).
		Select("phase", "status", "last_error", "attempts", "updated_at").
		Updates(job)
	if result.Error != nil {
		return fmt.Errorf("updating deletion job: %w", result.Error)
	}
	return nil
}
