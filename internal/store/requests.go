package store

import (
	"context"
	"time"
)

type Request struct {
	ID           int64
	URLID        int64
	RequestedAt  time.Time
	RequestedURL string
	FinalURL     string
	StatusCode   int
	DocumentID   *int64
}

type RequestStore struct {
	store *Store
}

func NewRequestStore(s *Store) *RequestStore {
	return &RequestStore{store: s}
}

// LogRequest appends one row. The log is append-only: a URL re-probed
// twice produces two Request rows, and I5 (session confirmation) is
// derived by scanning for any 200 among them, never by overwriting state.
func (r *RequestStore) LogRequest(ctx context.Context, urlID int64, requestedAt time.Time, requestedURL, finalURL string, statusCode int, documentID *int64) (int64, error) {
	var id int64
	err := r.store.pool.QueryRow(ctx, `
		INSERT INTO requests (url_id, requested_at, requested_url, final_url, status_code, document_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, urlID, requestedAt, requestedURL, finalURL, statusCode, documentID).Scan(&id)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return id, nil
}

// StatusCountsSince returns a count of requests per HTTP status code
// logged at or after since. The rate regulator uses this to evaluate its
// throttle/unthrottle law over the trailing window.
func (r *RequestStore) StatusCountsSince(ctx context.Context, since time.Time) (map[int]int, error) {
	rows, err := r.store.pool.Query(ctx, `
		SELECT status_code, COUNT(*)
		FROM requests
		WHERE requested_at >= $1
		GROUP BY status_code
	`, since)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var code, n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
		counts[code] = n
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return counts, nil
}
