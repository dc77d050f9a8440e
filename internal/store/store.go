// Package store is the Postgres persistence layer: Rule, SessionDay, URL,
// Request and Document tables, plus the scoped-cursor transaction helper
// WithCursor. The DAOs issue single statements directly on the pool.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhansen/plenarycrawl/pkg/failure"
)

// Store owns the connection pool shared by every DAO. Construct once per
// process and hand the same *Store to all five workers.
type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// WithCursor opens a transaction, runs fn against it, and commits on
// return or rolls back if fn returns an error. This mirrors the original
// Python interface's @contextmanager cursor(): every statement inside the
// scope is part of one transaction that is committed exactly once, when
// the scope exits cleanly.
func (s *Store) WithCursor(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseConnection, Retryable: true}
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return &DatabaseError{Message: fmt.Sprintf("%v (rollback also failed: %v)", err, rbErr), Cause: ErrCauseQuery, Retryable: false}
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseCommit, Retryable: true}
	}
	return nil
}

var _ failure.ClassifiedError = (*DatabaseError)(nil)
