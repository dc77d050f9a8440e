// Package fetcher is the HTTP boundary the core pipeline consumes through
// exactly two operations, per the external-collaborator contract: a HEAD
// for session probing and a GET for document download. Both take their own
// timeout and never decide retry policy themselves — that's pkg/retry's job,
// driven by the caller.
package fetcher

import (
	"context"

	"github.com/dhansen/plenarycrawl/pkg/failure"
)

type Fetcher interface {
	Head(ctx context.Context, url, userAgent string) (HeadResult, failure.ClassifiedError)
	Get(ctx context.Context, url, userAgent string) (GetResult, failure.ClassifiedError)
}
