// Package rules is the external-collaborator boundary the core pipeline
// talks to through two methods only: URLFor(date) and ExtractData(path).
// Everything else here — the concrete URL templates, the HTML parsing — is
// swappable without touching the worker loops.
package rules

import "time"

// RuleKind is the closed tagged union replacing the original's
// decorator-registered class hierarchy: one URL-pattern family per value,
// each parameterized by language/format rather than subclassed.
type RuleKind string

const (
	KindProtocol       RuleKind = "protocol"
	KindWordProtocol   RuleKind = "word_protocol"
	KindAgenda         RuleKind = "agenda"
	KindDailyAgenda    RuleKind = "daily_agenda"
	KindVotingOverview RuleKind = "voting_overview"
	KindVotingNamed    RuleKind = "voting_named"
)

// Rule is the only contract the crawl pipeline depends on. The minter
// calls URLFor; the postprocess worker calls ExtractData.
type Rule interface {
	Name() string
	Language() string
	Format() string
	Kind() RuleKind
	URLFor(date time.Time) string
	ExtractData(filepath string) (map[string]any, error)
}

// ErrNotImplemented is returned by ExtractData when a rule has no
// structured extraction defined for its format (e.g. raw PDF protocols).
// The postprocess worker treats this distinctly from other errors: the
// document is logged and left with data = NULL rather than retried.
type ErrNotImplemented struct {
	RuleName string
}

func (e *ErrNotImplemented) Error() string {
	return "extractor not implemented for rule " + e.RuleName
}
