package fetcher

import (
	"fmt"

	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout        FetchErrorCause = "timeout"
	ErrCauseNetworkFailure FetchErrorCause = "network issues"
	ErrCauseReadBodyFailed FetchErrorCause = "failed to read response body"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics to the
// canonical metadata.ErrorCause table. Observational only — never used to
// derive a control-flow decision.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure:
		return metadata.CauseTransportFailure
	default:
		return metadata.CauseUnknown
	}
}
