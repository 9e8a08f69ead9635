// internal/repository/repository.go
package repository

import (
	"log/slog"

	"gorm.io/gorm"
)

// Transaction interface for handling DB transactions.
type Transaction interface {
	Commit() error
	Rollback() error
}

// gormTransaction is a wrapper for a GORM DB transaction.
type gormTransaction struct {
	tx   *gorm.DB
	done bool
}

// Commit finalizes the transaction.
func (t *gormTransaction) Commit() error {
	t.done = true
	return t.tx.Commit().Error
}

// Rollback reverts the transaction. It is a no-op after Commit so callers can
// defer it unconditionally.
func (t *gormTransaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	slog.Warn("Rolling back transaction")
	return t.tx.Rollback().Error
}

func begin(db *gorm.DB) (Transaction, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTransaction{tx: tx}, nil
}

// txDB returns the handle bound to tx, or fallback when tx was not created
// by this package.
func txDB(tx Transaction, fallback *gorm.DB) *gorm.DB {
	if gt, ok := tx.(*gormTransaction); ok {
		return gt.tx
	}
	return fallback
}
