package store

import (
	"context"
	"time"
)

type SessionDay struct {
	ID   int64
	Date time.Time
	Term int
}

type SessionDayStore struct {
	store *Store
}

func NewSessionDayStore(s *Store) *SessionDayStore {
	return &SessionDayStore{store: s}
}

// UpsertDay creates a session day for date if none exists, returning its
// id either way. Idempotent: two probes racing on the same date both
// succeed and get the same id.
func (s *SessionDayStore) UpsertDay(ctx context.Context, date time.Time, term int) (int64, error) {
	var id int64
	err := s.store.pool.QueryRow(ctx, `
		INSERT INTO session_days (date, term)
		VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET term = session_days.term
		RETURNING id
	`, date, term).Scan(&id)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return id, nil
}

// CandidateDates returns up to limit dates the probe should (re)check for a
// given probe rule, newest first. It is the union of two disjoint sets:
//
//  1. dates in [startDate, today-offset] that have never had a probe URL
//     minted at all (brand new candidates), capped at limit-1 so backlog
//     from (2) below is never starved out entirely;
//  2. dates that already have a probe URL but no conclusive request yet
//     (neither a 200 confirming the session nor a 404 ruling it out),
//     capped at limit.
//
// The 1-slot skew toward (2) is deliberate: a date that already cost one
// HTTP round trip is cheaper to finish confirming than to mint fresh.
func (s *SessionDayStore) CandidateDates(ctx context.Context, probeRuleID int64, startDate, cutoff time.Time, limit int) ([]time.Time, error) {
	if limit < 1 {
		limit = 1
	}
	freshLimit := limit - 1
	if freshLimit < 0 {
		freshLimit = 0
	}

	rows, err := s.store.pool.Query(ctx, `
		WITH fresh AS (
			SELECT d::date AS date
			FROM generate_series($2::date, $3::date, interval '1 day') AS d
			LEFT JOIN session_days sd ON sd.date = d::date
			LEFT JOIN urls u ON u.date_id = sd.id AND u.rule_id = $1
			WHERE u.id IS NULL
			ORDER BY d DESC
			LIMIT $4
		),
		unresolved AS (
			SELECT sd.date AS date
			FROM session_days sd
			JOIN urls u ON u.date_id = sd.id AND u.rule_id = $1
			WHERE NOT EXISTS (
				SELECT 1 FROM requests r
				WHERE r.url_id = u.id AND r.status_code IN (200, 404)
			)
			ORDER BY sd.date DESC
			LIMIT $5
		)
		SELECT date FROM fresh
		UNION
		SELECT date FROM unresolved
		ORDER BY date DESC
		LIMIT $5
	`, probeRuleID, startDate, cutoff, freshLimit, limit)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return out, nil
}
