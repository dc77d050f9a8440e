package store

import (
	"context"
	"encoding/json"
	"time"
)

type Document struct {
	ID           int64
	URLID        int64
	Filename     string
	Filepath     string
	ContentHash  string
	Enqueued     bool
	Data         json.RawMessage
	Indexed      bool
	DownloadedAt time.Time
}

type DocumentStore struct {
	store *Store
}

func NewDocumentStore(s *Store) *DocumentStore {
	return &DocumentStore{store: s}
}

// InsertDocument records a freshly-downloaded file. filename must be a
// UUIDv4 string (I2); the caller mints it before calling in, since the id
// has to be known to name the file on disk first. enqueued starts false:
// it latches true only when PostprocessScheduler actually hands the row
// to a worker, via SetEnqueued.
func (d *DocumentStore) InsertDocument(ctx context.Context, urlID int64, filename, filepath, contentHash string) (int64, error) {
	var id int64
	err := d.store.pool.QueryRow(ctx, `
		INSERT INTO documents (url_id, filename, filepath, content_hash, enqueued, indexed)
		VALUES ($1, $2, $3, $4, FALSE, FALSE)
		RETURNING id
	`, urlID, filename, filepath, contentHash).Scan(&id)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return id, nil
}

// SetEnqueued flips the false→true latch PostprocessScheduler sets right
// before handing a document to the worker pool over documentQ, so a
// second scheduler pass never re-selects the same row while it's still
// in flight.
func (d *DocumentStore) SetEnqueued(ctx context.Context, documentID int64) error {
	_, err := d.store.pool.Exec(ctx, `UPDATE documents SET enqueued = TRUE WHERE id = $1`, documentID)
	if err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return nil
}

// PendingWork describes the minimal information a PostprocessWorker needs
// to process one document: where the file lives and which rule it belongs
// to, so the right extractData implementation is chosen.
type PendingWork struct {
	DocumentID int64
	Filepath   string
	RuleName   string
}

// SelectUnprocessed returns up to limit documents with enqueued=false and
// data still NULL, belonging to an active rule — the PostprocessScheduler's
// prefetch query. A row only leaves this set once SetEnqueued latches it,
// and only an active rule's documents are worth extracting.
func (d *DocumentStore) SelectUnprocessed(ctx context.Context, limit int) ([]PendingWork, error) {
	rows, err := d.store.pool.Query(ctx, `
		SELECT doc.id, doc.filepath, r.name
		FROM documents doc
		JOIN urls u ON u.id = doc.url_id
		JOIN rules r ON r.id = u.rule_id
		WHERE NOT doc.enqueued AND doc.data IS NULL AND r.active
		ORDER BY doc.downloaded_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()

	var out []PendingWork
	for rows.Next() {
		var w PendingWork
		if err := rows.Scan(&w.DocumentID, &w.Filepath, &w.RuleName); err != nil {
			return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return out, nil
}

// WriteExtraction stores the rule's extractData result and clears the
// enqueued flag: (enqueued=true, data=NULL) is transient by construction;
// this resolves it on success, ResetEnqueuedWhereDataNull at shutdown.
func (d *DocumentStore) WriteExtraction(ctx context.Context, documentID int64, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
	}
	_, execErr := d.store.pool.Exec(ctx, `
		UPDATE documents SET data = $2, enqueued = FALSE WHERE id = $1
	`, documentID, payload)
	if execErr != nil {
		return &DatabaseError{Message: execErr.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return nil
}

// MarkSkipped keeps enqueued set without writing data, for a rule whose
// ExtractData reports it has no extractor implemented: retrying this
// document would never succeed, so it stays out of SelectUnprocessed with
// data = NULL until the supervisor's ResetEnqueuedWhereDataNull clears
// the latch at shutdown.
func (d *DocumentStore) MarkSkipped(ctx context.Context, documentID int64) error {
	_, err := d.store.pool.Exec(ctx, `UPDATE documents SET enqueued = TRUE WHERE id = $1`, documentID)
	if err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return nil
}

// ResetEnqueuedWhereDataNull clears enqueued on any document left stuck
// mid-processing by an interrupted worker (data still NULL). The
// supervisor runs this once, after all workers have exited, so the next
// boot's PostprocessScheduler can pick the row back up.
func (d *DocumentStore) ResetEnqueuedWhereDataNull(ctx context.Context) (int64, error) {
	tag, err := d.store.pool.Exec(ctx, `
		UPDATE documents SET enqueued = FALSE WHERE enqueued AND data IS NULL
	`)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
	}
	return tag.RowsAffected(), nil
}

// ResetPostprocessingByRule clears both enqueued and data for every
// document belonging to ruleName, so `postprocessing reset --rule R`
// forces the whole rule to be reprocessed from scratch.
func (d *DocumentStore) ResetPostprocessingByRule(ctx context.Context, ruleName string) (int64, error) {
	tag, err := d.store.pool.Exec(ctx, `
		UPDATE documents doc
		SET enqueued = FALSE, data = NULL
		FROM urls u, rules r
		WHERE doc.url_id = u.id AND u.rule_id = r.id AND r.name = $1
	`, ruleName)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
	}
	return tag.RowsAffected(), nil
}

// SelectIndexed returns documents currently marked indexed, the set
// `indexing unindex` removes from the external index.
func (d *DocumentStore) SelectIndexed(ctx context.Context, limit int) ([]Document, error) {
	rows, err := d.store.pool.Query(ctx, `
		SELECT id, url_id, filename, filepath, content_hash, enqueued, data, indexed, downloaded_at
		FROM documents
		WHERE indexed
		ORDER BY downloaded_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.URLID, &doc.Filename, &doc.Filepath, &doc.ContentHash, &doc.Enqueued, &doc.Data, &doc.Indexed, &doc.DownloadedAt); err != nil {
			return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return out, nil
}

// SetIndexed flips the indexed flag, used by `indexing start` and
// `indexing unindex`.
func (d *DocumentStore) SetIndexed(ctx context.Context, documentID int64, indexed bool) error {
	_, err := d.store.pool.Exec(ctx, `UPDATE documents SET indexed = $2 WHERE id = $1`, documentID, indexed)
	if err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return nil
}

// SelectUnindexed returns documents with extracted data ready to ship to
// the external index but not yet marked indexed.
func (d *DocumentStore) SelectUnindexed(ctx context.Context, limit int) ([]Document, error) {
	rows, err := d.store.pool.Query(ctx, `
		SELECT id, url_id, filename, filepath, content_hash, enqueued, data, indexed, downloaded_at
		FROM documents
		WHERE NOT indexed AND data IS NOT NULL
		ORDER BY downloaded_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.URLID, &doc.Filename, &doc.Filepath, &doc.ContentHash, &doc.Enqueued, &doc.Data, &doc.Indexed, &doc.DownloadedAt); err != nil {
			return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return out, nil
}
