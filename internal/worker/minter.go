package worker

import (
	"context"
	"time"

	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/internal/rules"
	"github.com/dhansen/plenarycrawl/internal/store"
	"github.com/dhansen/plenarycrawl/pkg/queue"
)

// MintedURL is what URLMinter hands the Downloader: enough to fetch and
// to log the request against the right row.
type MintedURL struct {
	URLID  int64
	RuleID int64
	URL    string
}

type URLMinterConfig struct {
	PrefetchLimit int
	SleepOnEmpty  time.Duration
}

// URLMinter materializes, for every (active rule, confirmed session date)
// pair not yet queued for download, the concrete URL and enqueues its id.
// It consumes no tokens: minting is bookkeeping, not an HTTP request.
type URLMinter struct {
	Base

	urls     *store.URLStore
	registry *rules.Registry
	probeID  int64
	urlQ     *queue.Queue[MintedURL]
	cfg      URLMinterConfig
	recorder *metadata.Recorder
}

func NewURLMinter(
	shutdown *ShutdownFlag,
	urls *store.URLStore,
	registry *rules.Registry,
	probeRuleID int64,
	urlQ *queue.Queue[MintedURL],
	cfg URLMinterConfig,
	recorder *metadata.Recorder,
) *URLMinter {
	return &URLMinter{
		Base:     NewBase("url_minter", shutdown),
		urls:     urls,
		registry: registry,
		probeID:  probeRuleID,
		urlQ:     urlQ,
		cfg:      cfg,
		recorder: recorder.WithComponent("url_minter"),
	}
}

func (m *URLMinter) Run(ctx context.Context) error {
	m.MarkReady()

	for {
		if m.Shutdown.IsSet() {
			return nil
		}

		candidates, err := m.urls.MintableCandidates(ctx, m.probeID, m.cfg.PrefetchLimit)
		if err != nil {
			m.recorder.RecordError(ctx, metadata.ErrorRecord{
				Component: "url_minter", Operation: "MintableCandidates",
				Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
			})
			sleepUnlessShutdown(ctx, m.Shutdown, m.cfg.SleepOnEmpty)
			continue
		}

		if len(candidates) == 0 {
			sleepUnlessShutdown(ctx, m.Shutdown, m.cfg.SleepOnEmpty)
			continue
		}

		for _, c := range candidates {
			if m.Shutdown.IsSet() {
				return nil
			}
			m.mintOne(ctx, c)
		}
	}
}

func (m *URLMinter) mintOne(ctx context.Context, c store.MintCandidate) {
	rule, ok := m.registry.Get(c.RuleName)
	if !ok {
		m.recorder.RecordError(ctx, metadata.ErrorRecord{
			Component: "url_minter", Operation: "mintOne",
			Cause: metadata.CauseInvariantViolation, Message: "unknown rule id", ObservedAt: time.Now(),
		})
		return
	}

	generatedURL := rule.URLFor(c.Date)
	urlID, err := m.urls.MintURL(ctx, c.RuleID, c.DateID, generatedURL)
	if err != nil {
		m.recorder.RecordError(ctx, metadata.ErrorRecord{
			Component: "url_minter", Operation: "MintURL",
			Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
		})
		return
	}

	minted := MintedURL{URLID: urlID, RuleID: c.RuleID, URL: generatedURL}
	for {
		if m.Shutdown.IsSet() {
			return
		}
		ok, err := m.urlQ.TryPut(ctx, minted, DefaultPollingTimeout)
		if err != nil {
			return
		}
		if ok {
			break
		}
	}

	if err := m.urls.MarkQueuedForDownload(ctx, urlID); err != nil {
		m.recorder.RecordError(ctx, metadata.ErrorRecord{
			Component: "url_minter", Operation: "MarkQueuedForDownload",
			Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
		})
		return
	}

	m.recorder.RecordEvent(ctx, "url_minted",
		metadata.NewAttr(metadata.AttrRule, rule.Name()),
		metadata.NewAttr(metadata.AttrURL, generatedURL),
	)
}
