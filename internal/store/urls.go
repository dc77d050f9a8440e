package store

import (
	"context"
	"time"
)

type URL struct {
	ID     int64
	RuleID int64
	DateID int64
	URL    string
}

// MintCandidate names a (session day, rule) pair that is confirmed but has
// not yet had a URL minted for that rule.
type MintCandidate struct {
	DateID   int64
	Date     time.Time
	RuleID   int64
	RuleName string
	Term     int
}

type URLStore struct {
	store *Store
}

func NewURLStore(s *Store) *URLStore {
	return &URLStore{store: s}
}

// MintURL inserts the (ruleID, url) pair if it is not already present,
// enforcing I1 (URL uniqueness per rule) via a no-op ON CONFLICT DO UPDATE
// so RETURNING also yields the existing row. It always returns the row's
// id, whichever goroutine created it.
func (u *URLStore) MintURL(ctx context.Context, ruleID, dateID int64, url string) (int64, error) {
	var id int64
	err := u.store.pool.QueryRow(ctx, `
		INSERT INTO urls (rule_id, date_id, url)
		VALUES ($1, $2, $3)
		ON CONFLICT (rule_id, url) DO UPDATE SET url = EXCLUDED.url
		RETURNING id
	`, ruleID, dateID, url).Scan(&id)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return id, nil
}

// MarkQueuedForDownload latches queued_for_download true, set by URLMinter
// right after a candidate is successfully handed onto urlQ. This is the
// only signal MintableCandidates trusts for "already minted" — the urls
// row itself can predate the handoff, e.g. when the same rule is also the
// probe rule and its row was created by SessionDayProbe's HEAD.
func (u *URLStore) MarkQueuedForDownload(ctx context.Context, urlID int64) error {
	_, err := u.store.pool.Exec(ctx, `UPDATE urls SET queued_for_download = TRUE WHERE id = $1`, urlID)
	if err != nil {
		return &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return nil
}

// MintableCandidates returns up to limit (session day, rule) pairs where
// the session day is confirmed (some request against its probe URL
// returned 200) and the given rule has not yet been queued for download
// for that day, newest first. The probe rule is a candidate for its own
// document like any other active rule: SessionDayProbe already minted its
// URL row to issue the HEAD, but that is not the same as having been
// handed to the Downloader, so a urls row existing is not by itself
// grounds for exclusion — only queued_for_download is.
func (u *URLStore) MintableCandidates(ctx context.Context, probeRuleID int64, limit int) ([]MintCandidate, error) {
	rows, err := u.store.pool.Query(ctx, `
		SELECT sd.id, sd.date, sd.term, r.id, r.name
		FROM session_days sd
		CROSS JOIN rules r
		WHERE r.active
		  AND EXISTS (
			SELECT 1 FROM urls pu
			JOIN requests pr ON pr.url_id = pu.id AND pr.status_code = 200
			WHERE pu.date_id = sd.id AND pu.rule_id = $1
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM urls existing
			WHERE existing.date_id = sd.id
			  AND existing.rule_id = r.id
			  AND existing.queued_for_download
		  )
		ORDER BY sd.date DESC
		LIMIT $2
	`, probeRuleID, limit)
	if err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	defer rows.Close()

	var out []MintCandidate
	for rows.Next() {
		var c MintCandidate
		if err := rows.Scan(&c.DateID, &c.Date, &c.Term, &c.RuleID, &c.RuleName); err != nil {
			return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: true}
	}
	return out, nil
}

// DropUncrawledURLs deletes URL rows that were minted but never fetched
// (no Request row at all). The supervisor runs this once, after every
// worker has exited cleanly, so a URL mid-flight in a downloader is never
// deleted out from under it.
func (u *URLStore) DropUncrawledURLs(ctx context.Context) (int64, error) {
	tag, err := u.store.pool.Exec(ctx, `
		DELETE FROM urls
		WHERE id NOT IN (SELECT DISTINCT url_id FROM requests)
	`)
	if err != nil {
		return 0, &DatabaseError{Message: err.Error(), Cause: ErrCauseQuery, Retryable: false}
	}
	return tag.RowsAffected(), nil
}
