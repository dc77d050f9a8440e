package fetcher

import "time"

// HeadResult is the outcome of a HEAD probe: the SessionDayProbe only ever
// needs the final status and where redirects landed.
type HeadResult struct {
	StatusCode int
	FinalURL   string
	FetchedAt  time.Time
}

// GetResult is the outcome of a full GET: adds the response body the
// Downloader writes to disk.
type GetResult struct {
	StatusCode int
	FinalURL   string
	Body       []byte
	FetchedAt  time.Time
}
