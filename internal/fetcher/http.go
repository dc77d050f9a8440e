package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/pkg/failure"
	"github.com/dhansen/plenarycrawl/pkg/urlutil"
)

// HTTPFetcher is the only Fetcher implementation: a thin, retry-agnostic
// wrapper over *http.Client. Retries are the caller's concern (pkg/retry);
// this type's job is a single attempt, classified.
type HTTPFetcher struct {
	client   *http.Client
	recorder *metadata.Recorder
}

func NewHTTPFetcher(timeout time.Duration, recorder *metadata.Recorder) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		recorder: recorder,
	}
}

var _ Fetcher = (*HTTPFetcher)(nil)

func (h *HTTPFetcher) Head(ctx context.Context, url, userAgent string) (HeadResult, failure.ClassifiedError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return HeadResult{}, h.classify("Head", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return HeadResult{}, h.classify("Head", err)
	}
	defer resp.Body.Close()

	return HeadResult{
		StatusCode: resp.StatusCode,
		FinalURL:   canonicalURL(resp.Request.URL),
		FetchedAt:  time.Now(),
	}, nil
}

func (h *HTTPFetcher) Get(ctx context.Context, url, userAgent string) (GetResult, failure.ClassifiedError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GetResult{}, h.classify("Get", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return GetResult{}, h.classify("Get", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fetchErr := &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadBodyFailed}
		h.record(ctx, "Get", fetchErr, url)
		return GetResult{}, fetchErr
	}

	return GetResult{
		StatusCode: resp.StatusCode,
		FinalURL:   canonicalURL(resp.Request.URL),
		Body:       body,
		FetchedAt:  time.Now(),
	}, nil
}

// canonicalURL normalizes the final URL a redirect chain lands on before
// it is logged, so the same document reached via two equivalent spellings
// (differing case, default port, trailing slash) records one requests row
// shape instead of two.
func canonicalURL(u *url.URL) string {
	c := urlutil.Canonicalize(*u)
	return c.String()
}

func (h *HTTPFetcher) classify(op string, err error) *FetchError {
	var fetchErr *FetchError
	var netErr interface{ Timeout() bool }
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		fetchErr = &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseTimeout}
	default:
		fetchErr = &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseNetworkFailure}
	}
	h.record(context.Background(), op, fetchErr, "")
	return fetchErr
}

func (h *HTTPFetcher) record(ctx context.Context, op string, fetchErr *FetchError, url string) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordError(ctx, metadata.ErrorRecord{
		Component:  "fetcher",
		Operation:  op,
		Cause:      mapFetchErrorToMetadataCause(fetchErr),
		Message:    fetchErr.Error(),
		ObservedAt: time.Now(),
		Attrs:      []metadata.Attribute{metadata.NewAttr(metadata.AttrURL, url)},
	})
}
