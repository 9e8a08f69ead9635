package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TodoRepositoryIface interface {
	Begin(ctx context.Context) (Transaction, error)
	WithTx(tx Transaction) TodoRepositoryIface

	Create(ctx context.Context, todo *model.Todo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Todo, error)
	List(ctx context.Context, filter *Filter) ([]*model.Todo, error)
	Update(ctx context.Context, todo *model.Todo) error
	Toggle(ctx context.Context, id uuid.UUID) (*model.Todo, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error)
}

type TodoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Begin(ctx context.Context) (Transaction, error) {
	return begin(r.db.WithContext(ctx))
}

func (r *TodoRepository) WithTx(tx Transaction) TodoRepositoryIface {
	return &TodoRepository{db: txDB(tx, r.db)}
}

func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	var todo model.Todo
	if err := r.db.WithContext(ctx).First(&todo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("finding todo: %w", err)
	}
	return &todo, nil
}

func (r *TodoRepository) List(ctx context.Context, filter *Filter) ([]*model.Todo, error) {
	query, err := filter.apply(r.db.WithContext(ctx).Model(&model.Todo{}), TodoFields)
	if err != nil {
		return nil, err
	}

	var todos []*model.Todo
	if err := query.Order("created_at ASC, id ASC").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

// Update writes content and isDone. The organization of a todo never changes.
func (r *TodoRepository) Update(ctx context.Context, todo *model.Todo) error {
	result := r.db.WithContext(ctx).Model(todo).Select("content", "is_done", "updated_at").Updates(todo)
	if result.Error != nil {
		return fmt.Errorf("updating todo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

// Toggle flips is_done in a single statement and returns the updated row.
func (r *TodoRepository) Toggle(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	var todo *model.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Todo{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"is_done":    gorm.Expr("NOT is_done"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("toggling todo: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrTodoNotFound
		}

		found, err := (&TodoRepository{db: tx}).FindByID(ctx, id)
		if err != nil {
			return err
		}
		todo = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Todo{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting todo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *TodoRepository) DeleteByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Delete(&model.Todo{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting organization todos: %w", result.Error)
	}
	return result.RowsAffected, nil
}
