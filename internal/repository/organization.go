// internal/repository/organization.go
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

type OrganizationRepositoryIface interface {
	Begin(ctx context.Context) (Transaction, error)
	WithTx(tx Transaction) OrganizationRepositoryIface

	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	FindAll(ctx context.Context) ([]*model.Organization, error)
	List(ctx context.Context, filter *Filter) ([]*model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Begin starts a new database transaction and returns a Transaction instance.
func (r *OrganizationRepository) Begin(ctx context.Context) (Transaction, error) {
	return begin(r.db.WithContext(ctx))
}

// WithTx returns a repository that runs its statements inside tx.
func (r *OrganizationRepository) WithTx(tx Transaction) OrganizationRepositoryIface {
	return &OrganizationRepository{db: txDB(tx, r.db)}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("creating organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

// FindAll returns all organizations
func (r *OrganizationRepository) FindAll(ctx context.Context) ([]*model.Organization, error) {
	return r.List(ctx, nil)
}

// List returns the organizations matching filter, oldest first.
func (r *OrganizationRepository) List(ctx context.Context, filter *Filter) ([]*model.Organization, error) {
	query, err := filter.apply(r.db.WithContext(ctx).Model(&model.Organization{}), OrganizationFields)
	if err != nil {
		return nil, err
	}

	var orgs []*model.Organization
	if err := query.Order("created_at ASC, id ASC").Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return orgs, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	result := r.db.WithContext(ctx).Model(org).Select("name", "updated_at").Updates(org)
	if result.Error != nil {
		return fmt.Errorf("updating organization: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// Delete removes the organization row only. Dependent rows are removed by
// the deletion job phases before this is called.
func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Organization{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting organization: %w", err)
	}
	return nil
}
