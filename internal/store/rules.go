package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type Rule struct {
	ID     int64
	Name   string
	Kind   string
	Active bool
}

type RuleStore struct {
	store *Store
}

func NewRuleStore(s *Store) *RuleStore {
	return &RuleStore{store: s}
}

// RegisterRule upserts a rule by name, idempotently. A second call with the
// same name and kind is a no-op; calling it again with a different kind
// updates kind in place (the registry is rebuilt from code on every boot).
func (r *RuleStore) RegisterRule(ctx context.Context, name, kind string) (int64, error) {
	var id int64
	err := r.store.pool.QueryRow(ctx, `
		INSERT INTO rules (name, kind, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind
		RETURNING id
	`, name, kind).Scan(&id)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return id, nil
}

func (r *RuleStore) SetActive(ctx context.Context, name string, active bool) error {
	tag, err := r.store.pool.Exec(ctx, `UPDATE rules SET active = $1 WHERE name = $2`, active, name)
	if err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	if tag.RowsAffected() == 0 {
		return &DatabaseError{Message: "no such rule: " + name, Cause: ErrCauseNotFound, Retryable: false}
	}
	return nil
}

func (r *RuleStore) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.store.pool.Query(ctx, `SELECT id, name, kind, active FROM rules ORDER BY name`)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *RuleStore) ActiveRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.store.pool.Query(ctx, `SELECT id, name, kind, active FROM rules WHERE active ORDER BY name`)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *RuleStore) GetByName(ctx context.Context, name string) (Rule, error) {
	var rule Rule
	err := r.store.pool.QueryRow(ctx, `SELECT id, name, kind, active FROM rules WHERE name = $1`, name).
		Scan(&rule.ID, &rule.Name, &rule.Kind, &rule.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, &DatabaseError{Message: "no such rule: " + name, Cause: ErrCauseNotFound, Retryable: false}
	}
	if err != nil {
		return Rule{}, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return rule, nil
}

func scanRules(rows pgx.Rows) ([]Rule, error) {
	var out []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Kind, &rule.Active); err != nil {
			return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return out, nil
}
