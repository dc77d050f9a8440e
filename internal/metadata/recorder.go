// Package metadata provides the observational-only logging discipline
// shared by every worker: structured events describing what happened, never
// consulted by any caller to decide what happens next.
package metadata

import (
	"context"
	"log/slog"
)

/*
Recorder wraps a *slog.Logger and gives every component the same small
vocabulary of events: state transitions and classified errors. Nothing
Recorder observes is allowed to feed back into retry, continuation, or
shutdown decisions — those are decided exclusively by the typed errors
components already return to their caller (pkg/failure.ClassifiedError).

Allowed attributes:
  - primitive values (strings, ints, durations)
  - timestamps
  - URLs and paths, as values only
  - identifiers (rule name, document id, token)
*/
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

func (r *Recorder) WithComponent(name string) *Recorder {
	return &Recorder{logger: r.logger.With("worker", name)}
}

// RecordEvent logs a state transition at Info level: token emitted, date
// checked, url minted, document downloaded, document processed.
func (r *Recorder) RecordEvent(ctx context.Context, operation string, attrs ...Attribute) {
	r.logger.LogAttrs(ctx, slog.LevelInfo, operation, toSlogAttrs(attrs)...)
}

// RecordDebug logs a fine-grained step (a single DAO statement, a single
// queue poll) at Debug level so it can be filtered out in production.
func (r *Recorder) RecordDebug(ctx context.Context, operation string, attrs ...Attribute) {
	r.logger.LogAttrs(ctx, slog.LevelDebug, operation, toSlogAttrs(attrs)...)
}

// RecordError logs a classified failure. It never returns a decision; the
// caller already made one before or after calling this.
func (r *Recorder) RecordError(ctx context.Context, rec ErrorRecord) {
	attrs := append([]slog.Attr{
		slog.String("cause", rec.Cause.String()),
		slog.Time("observed_at", rec.ObservedAt),
	}, toSlogAttrs(rec.Attrs)...)
	r.logger.LogAttrs(ctx, slog.LevelError, rec.Operation, attrs...)
}

func toSlogAttrs(attrs []Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.String(string(a.Key), a.Value))
	}
	return out
}
