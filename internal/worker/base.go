// Package worker holds the five concrete long-running loop shapes named in
// the system overview — RateRegulator, SessionDayProbe, URLMinter,
// Downloader and the PostprocessScheduler/Worker pair — plus the small
// lifecycle type they all embed.
//
// The original kept a class hierarchy of worker base classes
// (TimerProcWorker driven by a fixed interval, QueueProcWorker driven by an
// input queue). Here that collapses to one struct, Base, composed into
// each concrete worker rather than subclassed: startup-complete signaling
// and shutdown polling are identical across all five: only what happens
// between polls differs.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dhansen/plenarycrawl/internal/fetcher"
	"github.com/dhansen/plenarycrawl/pkg/failure"
)

// DefaultPollingTimeout bounds how long any worker blocks on a single
// queue operation before re-checking its shutdown flag. Every worker's
// main loop must yield within this interval.
const DefaultPollingTimeout = 100 * time.Millisecond

// Base gives every worker the same two capabilities: a way to report that
// its setup finished (observed by the supervisor within T_start) and a way
// to observe the shared shutdown flag without blocking.
type Base struct {
	name    string
	ready   atomic.Bool
	Shutdown *ShutdownFlag
}

func NewBase(name string, shutdown *ShutdownFlag) Base {
	return Base{name: name, Shutdown: shutdown}
}

func (b *Base) Name() string {
	return b.name
}

// MarkReady flips the startup-complete flag. Call once, after every
// dependency the worker needs (store connections, rule registry) has been
// validated, never before.
func (b *Base) MarkReady() {
	b.ready.Store(true)
}

func (b *Base) Ready() bool {
	return b.ready.Load()
}

// ShutdownFlag is the single process-wide signal every worker polls at
// DefaultPollingTimeout granularity. Setting it is the supervisor's job
// alone.
type ShutdownFlag struct {
	ch chan struct{}
}

func NewShutdownFlag() *ShutdownFlag {
	return &ShutdownFlag{ch: make(chan struct{})}
}

func (s *ShutdownFlag) Set() {
	select {
	case <-s.ch:
		// already set
	default:
		close(s.ch)
	}
}

func (s *ShutdownFlag) Done() <-chan struct{} {
	return s.ch
}

func (s *ShutdownFlag) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Worker is what the supervisor starts and watches.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
	Ready() bool
}

// sleepUnlessShutdown sleeps for d, polling the shutdown flag at
// DefaultPollingTimeout granularity so an idle worker still reacts to
// shutdown promptly instead of oversleeping past it.
func sleepUnlessShutdown(ctx context.Context, shutdown *ShutdownFlag, d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if shutdown.IsSet() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(DefaultPollingTimeout):
		}
	}
}

// synthesizeFetchStatus maps a fetch failure onto the synthetic status
// codes recorded in place of a real HTTP response, shared by every worker
// that logs a Request against a failed Head/Get: 408 when the transport
// timed out, 460 for any other failure, so a timeout is distinguishable
// from a generic transport error downstream (shouldThrottle, reporting).
func synthesizeFetchStatus(fetchErr failure.ClassifiedError) int {
	if fe, ok := fetchErr.(*fetcher.FetchError); ok && fe.Cause == fetcher.ErrCauseTimeout {
		return 408
	}
	return 460
}
