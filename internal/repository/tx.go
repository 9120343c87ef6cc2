package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TxManager factors the begin / deferred-rollback / commit dance every
// transactional flow repeats.  The bounded wait on acquiring a pool
// connection (and, transitively, on row locks taken inside fn) comes
// from the deadline on ctx; when it expires the driver surfaces
// context.DeadlineExceeded instead of hanging.
type TxManager struct {
	db *sql.DB
}

// NewTxManager binds a manager to the given database handle.
func NewTxManager(db *sql.DB) *TxManager { return &TxManager{db: db} }

// WithinTx runs fn inside a transaction.  Any error from fn (or from
// commit) rolls the transaction back and is returned unchanged, so the
// caller never observes partially applied effects.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
