package fetcher

import (
	"context"

	"github.com/dhansen/plenarycrawl/pkg/failure"
	"github.com/dhansen/plenarycrawl/pkg/retry"
)

// RetryingFetcher wraps another Fetcher and retries each single attempt
// through pkg/retry's exponential backoff, the same retry.RetryParam shape
// the original threaded through its Fetch signature directly. Keeping it as
// a decorator instead lets Fetcher's Head/Get contract stay exactly the
// two-argument shape the core's external-collaborator boundary specifies;
// retrying is this type's concern alone.
type RetryingFetcher struct {
	inner Fetcher
	param retry.RetryParam
}

func NewRetryingFetcher(inner Fetcher, param retry.RetryParam) *RetryingFetcher {
	return &RetryingFetcher{inner: inner, param: param}
}

var _ Fetcher = (*RetryingFetcher)(nil)

func (f *RetryingFetcher) Head(ctx context.Context, url, userAgent string) (HeadResult, failure.ClassifiedError) {
	result := retry.Retry(f.param, func() (HeadResult, failure.ClassifiedError) {
		return f.inner.Head(ctx, url, userAgent)
	})
	return result.Value(), result.Err()
}

func (f *RetryingFetcher) Get(ctx context.Context, url, userAgent string) (GetResult, failure.ClassifiedError) {
	result := retry.Retry(f.param, func() (GetResult, failure.ClassifiedError) {
		return f.inner.Get(ctx, url, userAgent)
	})
	return result.Value(), result.Err()
}
