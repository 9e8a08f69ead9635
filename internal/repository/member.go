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

type MemberRepositoryIface interface {
	Begin(ctx context.Context) (Transaction, error)
	WithTx(tx Transaction) MemberRepositoryIface

	Create(ctx context.Context, member *model.OrganizationMember) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OrganizationMember, error)
	List(ctx context.Context, filter *Filter) ([]*model.OrganizationMember, error)
	FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.OrganizationMember, error)
	FindByOrganizationAndEmail(ctx context.Context, orgID uuid.UUID, email string) ([]*model.OrganizationMember, error)
	FindActive(ctx context.Context, orgID uuid.UUID, userID, email string) (*model.OrganizationMember, error)
	ActiveOrganizationIDs(ctx context.Context, userID, email string) ([]uuid.UUID, error)
	Update(ctx context.Context, member *model.OrganizationMember) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error)
}

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Begin(ctx context.Context) (Transaction, error) {
	return begin(r.db.WithContext(ctx))
}

func (r *MemberRepository) WithTx(tx Transaction) MemberRepositoryIface {
	return &MemberRepository{db: txDB(tx, r.db)}
}

func (r *MemberRepository) Create(ctx context.Context, member *model.OrganizationMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("creating organization member: %w", err)
	}
	return nil
}

func (r *MemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding organization member: %w", err)
	}
	return &member, nil
}

func (r *MemberRepository) List(ctx context.Context, filter *Filter) ([]*model.OrganizationMember, error) {
	query, err := filter.apply(r.db.WithContext(ctx).Model(&model.OrganizationMember{}), MemberFields)
	if err != nil {
		return nil, err
	}

	var members []*model.OrganizationMember
	if err := query.Order("created_at ASC, id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("listing organization members: %w", err)
	}
	return members, nil
}

func (r *MemberRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.OrganizationMember, error) {
	return r.List(ctx, Eq("organizationID", orgID))
}

// FindByOrganizationAndEmail is the duplicate pre-check used before adding a member.
func (r *MemberRepository) FindByOrganizationAndEmail(ctx context.Context, orgID uuid.UUID, email string) ([]*model.OrganizationMember, error) {
	return r.List(ctx, And(Eq("organizationID", orgID), Eq("email", email)))
}

// ownedBy matches memberships held by the principal. Rows with an empty
// email never match by email.
func ownedBy(userID, email string) func(*gorm.DB) *gorm.DB {
	email = model.NormalizeEmail(email)
	return func(db *gorm.DB) *gorm.DB {
		if email == "" {
			return db.Where("user_id = ?", userID)
		}
		return db.Where("(user_id = ? OR email = ?)", userID, email)
	}
}

// FindActive returns the principal's ACTIVE membership in orgID, matched by
// user id or email.
func (r *MemberRepository) FindActive(ctx context.Context, orgID uuid.UUID, userID, email string) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, model.MemberStatusActive).
		Scopes(ownedBy(userID, email)).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding active membership: %w", err)
	}
	return &member, nil
}

// ActiveOrganizationIDs lists the organizations in which the principal holds
// an ACTIVE membership.
func (r *MemberRepository) ActiveOrganizationIDs(ctx context.Context, userID, email string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.OrganizationMember{}).
		Distinct("organization_id").
		Where("status = ?", model.MemberStatusActive).
		Scopes(ownedBy(userID, email)).
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing active organizations: %w", err)
	}
	return ids, nil
}

func (r *MemberRepository) Update(ctx context.Context, member *model.OrganizationMember) error {
	result := r.db.WithContext(ctx).Model(member).Select("user_id", "status", "updated_at").Updates(member)
	if result.Error != nil {
		return fmt.Errorf("updating organization member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.OrganizationMember{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting organization member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) DeleteByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Delete(&model.OrganizationMember{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting organization members: %w", result.Error)
	}
	return result.RowsAffected, nil
}
