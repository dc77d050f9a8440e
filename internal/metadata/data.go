package metadata

import "time"

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, metrics, reporting).

Rules:
  - ErrorCause is for observability only.
  - It must never be used to derive retry, continuation, or abort decisions.
  - Any use of metadata.ErrorCause outside logging, metrics, or reporting is a
    design violation.
  - ErrorCause values MUST have stable, package-agnostic semantics.
  - Components MAY map their local errors to ErrorCause, but MUST NOT invent
    new meanings.

Non-goals:
  - ErrorCause does not encode severity (see pkg/failure.Severity for that).
  - ErrorCause does not imply retryability.
  - ErrorCause does not imply worker shutdown.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning: the failure does not map cleanly to any known category. Safe fallback.

# CauseTransportFailure

Meaning: failure in the network transport layer reaching a remote host.
Examples: TCP timeouts, DNS resolution failures, connection resets.

# CauseHTTPNonSuccess

Meaning: the remote host answered, but with a status outside the 2xx/3xx
range the caller treats as success (404, 429, 5xx).

# CauseExtractionFailure

Meaning: a document was fetched but its rule's extractData could not produce
a structured result from it (unexpected markup shape, missing table, etc.).

# CauseStorageFailure

Meaning: failure persisting a crawl artifact to the filesystem (disk full,
permission error, path collision).

# CauseDatabaseFailure

Meaning: failure reading from or writing to the backing Postgres store,
including a lost connection or a transaction that could not commit.

# CauseInvariantViolation

Meaning: a system-level data-model invariant was violated (duplicate URL for
a rule/url pair, Document row left enqueued with no terminal request, etc.).
*/
const (
	CauseUnknown = iota
	CauseTransportFailure
	CauseHTTPNonSuccess
	CauseExtractionFailure
	CauseStorageFailure
	CauseDatabaseFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseTransportFailure:
		return "transport_failure"
	case CauseHTTPNonSuccess:
		return "http_non_success"
	case CauseExtractionFailure:
		return "extraction_failure"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseDatabaseFailure:
		return "database_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// AttributeKey enumerates the structured-log fields a worker may attach to
// an event. Kept closed, like ErrorCause, so log shape stays stable across
// components.
type AttributeKey string

const (
	AttrRule         AttributeKey = "rule"
	AttrDate         AttributeKey = "date"
	AttrURL          AttributeKey = "url"
	AttrFinalURL     AttributeKey = "final_url"
	AttrHTTPStatus   AttributeKey = "http_status"
	AttrDocumentID   AttributeKey = "document_id"
	AttrFilename     AttributeKey = "filename"
	AttrQueueDepth   AttributeKey = "queue_depth"
	AttrInterval     AttributeKey = "interval"
	AttrToken        AttributeKey = "token"
	AttrRetryCount   AttributeKey = "retry_count"
	AttrWorker       AttributeKey = "worker"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{Key: key, Value: val}
}

// ErrorRecord is the observational shape handed to Recorder.RecordError. It
// is never inspected for control flow by its caller; the caller's own typed
// error already carried whatever decision it needed to make.
type ErrorRecord struct {
	Component  string
	Operation  string
	Cause      ErrorCause
	Message    string
	ObservedAt time.Time
	Attrs      []Attribute
}
