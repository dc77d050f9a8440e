package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/pkg/queue"
)

// WindowStatusReader is the one thing the RateRegulator needs from the
// store: a count of requests per HTTP status code logged since a given
// instant.
type WindowStatusReader interface {
	StatusCountsSince(ctx context.Context, since time.Time) (map[int]int, error)
}

type RegulatorConfig struct {
	InitialInterval time.Duration // I0
	MinInterval     time.Duration // I_min
	Window          time.Duration // W, the status-sampling window
}

// RateRegulator is the sole producer onto tokenQ. Its main loop wakes at
// DefaultPollingTimeout granularity and does two independent things on
// their own schedules: emit a token when the current interval has
// elapsed, and re-evaluate the interval every Window according to the
// adaptive law — throttle (double, capped at I_min·2^16) on any
// 408/429/5xx observed in the last window, unthrottle (halve, floored at
// I_min) otherwise.
type RateRegulator struct {
	Base

	mu       sync.Mutex
	interval time.Duration
	minInterval time.Duration
	maxInterval time.Duration

	tokenQ   *queue.Queue[Token]
	window   WindowStatusReader
	windowW  time.Duration
	lastSeq  int
	lastCheck time.Time

	recorder *metadata.Recorder
}

func NewRateRegulator(
	shutdown *ShutdownFlag,
	tokenQ *queue.Queue[Token],
	window WindowStatusReader,
	cfg RegulatorConfig,
	recorder *metadata.Recorder,
) *RateRegulator {
	maxInterval := cfg.MinInterval
	for i := 0; i < 16; i++ {
		maxInterval *= 2
	}
	return &RateRegulator{
		Base:        NewBase("rate_regulator", shutdown),
		interval:    cfg.InitialInterval,
		minInterval: cfg.MinInterval,
		maxInterval: maxInterval,
		tokenQ:      tokenQ,
		window:      window,
		windowW:     cfg.Window,
		recorder:    recorder.WithComponent("rate_regulator"),
	}
}

func (r *RateRegulator) currentInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

func (r *RateRegulator) Run(ctx context.Context) error {
	r.lastCheck = time.Now()
	r.MarkReady()

	nextEmit := time.Now()
	nextWindow := time.Now().Add(r.windowW)
	ticker := time.NewTicker(DefaultPollingTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.Shutdown.Done():
			return nil
		case now := <-ticker.C:
			if !now.Before(nextEmit) {
				r.emitToken(ctx)
				nextEmit = now.Add(r.currentInterval())
			}
			if !now.Before(nextWindow) {
				r.adjustInterval(ctx, now)
				nextWindow = now.Add(r.windowW)
			}
		}
	}
}

func (r *RateRegulator) emitToken(ctx context.Context) {
	r.lastSeq++
	tok := Token{Seq: r.lastSeq}
	ok, err := r.tokenQ.TryPut(ctx, tok, DefaultPollingTimeout)
	if err != nil {
		return
	}
	if !ok {
		// Queue stayed full; the token is simply not minted this tick.
		return
	}
	r.recorder.RecordDebug(ctx, "token_emitted", metadata.NewAttr(metadata.AttrToken, intToA(tok.Seq)))
}

func (r *RateRegulator) adjustInterval(ctx context.Context, now time.Time) {
	counts, err := r.window.StatusCountsSince(ctx, r.lastCheck)
	r.lastCheck = now
	if err != nil {
		r.recorder.RecordError(ctx, metadata.ErrorRecord{
			Component: "rate_regulator", Operation: "adjustInterval",
			Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: now,
		})
		return
	}

	if shouldThrottle(counts) {
		r.throttle(ctx)
	} else {
		r.unthrottle(ctx)
	}
}

func shouldThrottle(counts map[int]int) bool {
	if counts[408] > 0 || counts[429] > 0 {
		return true
	}
	for code, n := range counts {
		if n > 0 && code >= 500 && code <= 599 {
			return true
		}
	}
	return false
}

func (r *RateRegulator) throttle(ctx context.Context) {
	drained := r.tokenQ.DrainAll()

	r.mu.Lock()
	r.interval *= 2
	if r.interval > r.maxInterval {
		r.interval = r.maxInterval
	}
	interval := r.interval
	r.mu.Unlock()

	r.recorder.RecordEvent(ctx, "throttled",
		metadata.NewAttr(metadata.AttrInterval, interval.String()),
		metadata.NewAttr(metadata.AttrQueueDepth, intToA(len(drained))),
	)
}

func (r *RateRegulator) unthrottle(ctx context.Context) {
	r.mu.Lock()
	r.interval /= 2
	if r.interval < r.minInterval {
		r.interval = r.minInterval
	}
	interval := r.interval
	r.mu.Unlock()

	r.recorder.RecordDebug(ctx, "unthrottled", metadata.NewAttr(metadata.AttrInterval, interval.String()))
}

func intToA(n int) string {
	return strconv.Itoa(n)
}
