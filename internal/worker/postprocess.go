package worker

import (
	"context"
	"errors"
	"time"

	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/internal/rules"
	"github.com/dhansen/plenarycrawl/internal/store"
	"github.com/dhansen/plenarycrawl/pkg/queue"
)

// PostprocessItem is what PostprocessScheduler hands the Worker pool.
type PostprocessItem struct {
	DocumentID int64
	Filepath   string
	RuleName   string
}

type PostprocessSchedulerConfig struct {
	PrefetchLimit int
	SleepOnEmpty  time.Duration
}

// PostprocessScheduler pulls unprocessed documents (enqueued=false,
// data=NULL, rule active) and hands them to the worker pool over
// documentQ, calling SetEnqueued before the handoff so a concurrent
// scheduler pass never double-queues the same row.
type PostprocessScheduler struct {
	Base

	docs       *store.DocumentStore
	documentQ  *queue.Queue[PostprocessItem]
	cfg        PostprocessSchedulerConfig
	recorder   *metadata.Recorder
}

func NewPostprocessScheduler(
	shutdown *ShutdownFlag,
	docs *store.DocumentStore,
	documentQ *queue.Queue[PostprocessItem],
	cfg PostprocessSchedulerConfig,
	recorder *metadata.Recorder,
) *PostprocessScheduler {
	return &PostprocessScheduler{
		Base:      NewBase("postprocess_scheduler", shutdown),
		docs:      docs,
		documentQ: documentQ,
		cfg:       cfg,
		recorder:  recorder.WithComponent("postprocess_scheduler"),
	}
}

func (s *PostprocessScheduler) Run(ctx context.Context) error {
	s.MarkReady()

	for {
		if s.Shutdown.IsSet() {
			return nil
		}

		pending, err := s.docs.SelectUnprocessed(ctx, s.cfg.PrefetchLimit)
		if err != nil {
			s.recorder.RecordError(ctx, metadata.ErrorRecord{
				Component: "postprocess_scheduler", Operation: "SelectUnprocessed",
				Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
			})
			sleepUnlessShutdown(ctx, s.Shutdown, s.cfg.SleepOnEmpty)
			continue
		}

		if len(pending) == 0 {
			sleepUnlessShutdown(ctx, s.Shutdown, s.cfg.SleepOnEmpty)
			continue
		}

		for _, w := range pending {
			if s.Shutdown.IsSet() {
				return nil
			}
			s.enqueueOne(ctx, w)
		}
	}
}

func (s *PostprocessScheduler) enqueueOne(ctx context.Context, w store.PendingWork) {
	if err := s.docs.SetEnqueued(ctx, w.DocumentID); err != nil {
		s.recorder.RecordError(ctx, metadata.ErrorRecord{
			Component: "postprocess_scheduler", Operation: "SetEnqueued",
			Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
		})
		return
	}

	item := PostprocessItem{DocumentID: w.DocumentID, Filepath: w.Filepath, RuleName: w.RuleName}
	for {
		if s.Shutdown.IsSet() {
			return
		}
		ok, err := s.documentQ.TryPut(ctx, item, DefaultPollingTimeout)
		if err != nil {
			return
		}
		if ok {
			return
		}
		// Queue full: retry without releasing the enqueued latch set by
		// SetEnqueued above — the row stays enqueued=true in the DB the
		// whole time, as the spec requires.
	}
}

// PostprocessWorkerConfig has no fields today but exists so construction
// sites don't need to change if tuning knobs are added later.
type PostprocessWorkerConfig struct{}

// PostprocessWorker pops {rule, document} records and applies the rule's
// extraction, one of M concurrent instances sharing documentQ.
type PostprocessWorker struct {
	Base

	documentQ *queue.Queue[PostprocessItem]
	docs      *store.DocumentStore
	registry  *rules.Registry
	recorder  *metadata.Recorder
}

func NewPostprocessWorker(
	name string,
	shutdown *ShutdownFlag,
	documentQ *queue.Queue[PostprocessItem],
	docs *store.DocumentStore,
	registry *rules.Registry,
	recorder *metadata.Recorder,
) *PostprocessWorker {
	return &PostprocessWorker{
		Base:      NewBase(name, shutdown),
		documentQ: documentQ,
		docs:      docs,
		registry:  registry,
		recorder:  recorder.WithComponent(name),
	}
}

func (w *PostprocessWorker) Run(ctx context.Context) error {
	w.MarkReady()

	for {
		if w.Shutdown.IsSet() {
			return nil
		}

		item, ok, err := w.documentQ.TryGet(ctx, DefaultPollingTimeout)
		if err != nil {
			return nil
		}
		if !ok {
			continue
		}

		w.processOne(ctx, item)
	}
}

func (w *PostprocessWorker) processOne(ctx context.Context, item PostprocessItem) {
	rule, ok := w.registry.Get(item.RuleName)
	if !ok {
		w.recorder.RecordError(ctx, metadata.ErrorRecord{
			Component: w.Name(), Operation: "processOne",
			Cause: metadata.CauseInvariantViolation, Message: "unknown rule: " + item.RuleName, ObservedAt: time.Now(),
		})
		return
	}

	data, err := rule.ExtractData(item.Filepath)
	if err != nil {
		var notImplemented *rules.ErrNotImplemented
		if errors.As(err, &notImplemented) {
			if markErr := w.docs.MarkSkipped(ctx, item.DocumentID); markErr != nil {
				w.recordDBError(ctx, "MarkSkipped", markErr)
			}
			w.recorder.RecordEvent(ctx, "document_extraction_skipped",
				metadata.NewAttr(metadata.AttrRule, item.RuleName))
			return
		}

		// Any other failure: leave enqueued=true, data=NULL. A restart's
		// cleanup pass is what re-surfaces this document, not a retry here.
		w.recorder.RecordError(ctx, metadata.ErrorRecord{
			Component: w.Name(), Operation: "ExtractData",
			Cause: metadata.CauseExtractionFailure, Message: err.Error(), ObservedAt: time.Now(),
			Attrs: []metadata.Attribute{metadata.NewAttr(metadata.AttrRule, item.RuleName)},
		})
		return
	}

	if err := w.docs.WriteExtraction(ctx, item.DocumentID, data); err != nil {
		w.recordDBError(ctx, "WriteExtraction", err)
		return
	}

	w.recorder.RecordEvent(ctx, "document_processed",
		metadata.NewAttr(metadata.AttrRule, item.RuleName))
}

func (w *PostprocessWorker) recordDBError(ctx context.Context, op string, err error) {
	w.recorder.RecordError(ctx, metadata.ErrorRecord{
		Component: w.Name(), Operation: op,
		Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
	})
}
