package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger groups the application and action repositories so a status
// change and its audit entry commit in the same transaction.
type Ledger interface {
	Applications() ApplicationRepository
	Actions() ActionRepository
	// InTx runs fn against a transaction-bound Ledger. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Ledger) error) error
}

type pgLedger struct {
	pool *pgxpool.Pool
	apps ApplicationRepository
	acts ActionRepository
}

// NewLedger returns a Postgres-backed Ledger over the pool.
func NewLedger(pool *pgxpool.Pool) Ledger {
	return &pgLedger{
		pool: pool,
		apps: NewApplicationRepository(pool),
		acts: NewActionRepository(pool),
	}
}

func (l *pgLedger) Applications() ApplicationRepository { return l.apps }
func (l *pgLedger) Actions() ActionRepository           { return l.acts }

func (l *pgLedger) InTx(ctx context.Context, fn func(Ledger) error) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	bound := &txLedger{
		apps: NewApplicationRepository(tx),
		acts: NewActionRepository(tx),
	}
	if err := fn(bound); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// txLedger is a Ledger bound to an open transaction. Nested InTx calls
// reuse the same transaction.
type txLedger struct {
	apps ApplicationRepository
	acts ActionRepository
}

func (l *txLedger) Applications() ApplicationRepository { return l.apps }
func (l *txLedger) Actions() ActionRepository           { return l.acts }

func (l *txLedger) InTx(ctx context.Context, fn func(Ledger) error) error {
	return fn(l)
}
