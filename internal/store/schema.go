package store

import "context"

// schemaStatements creates the five tables named in the data model if they
// do not already exist. Migration tooling is out of scope; this is the
// same "create on boot" approach the original dbinterface.py used.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rules (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS session_days (
		id BIGSERIAL PRIMARY KEY,
		date DATE NOT NULL UNIQUE,
		term INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS urls (
		id BIGSERIAL PRIMARY KEY,
		rule_id BIGINT NOT NULL REFERENCES rules(id),
		date_id BIGINT NOT NULL REFERENCES session_days(id),
		url TEXT NOT NULL,
		queued_for_download BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (rule_id, url)
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id BIGSERIAL PRIMARY KEY,
		url_id BIGINT NOT NULL REFERENCES urls(id),
		requested_at TIMESTAMPTZ NOT NULL,
		requested_url TEXT NOT NULL,
		final_url TEXT NOT NULL,
		status_code INT NOT NULL,
		document_id BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		url_id BIGINT NOT NULL REFERENCES urls(id),
		filename TEXT NOT NULL UNIQUE,
		filepath TEXT NOT NULL,
		content_hash TEXT,
		enqueued BOOLEAN NOT NULL DEFAULT FALSE,
		data JSONB,
		indexed BOOLEAN NOT NULL DEFAULT FALSE,
		downloaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_url_id ON requests(url_id)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_enqueued_data ON documents(enqueued) WHERE data IS NULL`,
}

// EnsureSchema runs every CREATE statement. Safe to call on every process
// start; CREATE TABLE IF NOT EXISTS makes it idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
	}
	return nil
}
