// Package cmd is the cobra command tree: crawler, postprocessing, indexing,
// rules, download. Every subcommand builds its own app wiring from the
// loaded config rather than sharing a package-level singleton, the way the
// teacher's root.go built a fresh Config per invocation.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dhansen/plenarycrawl/internal/config"
	"github.com/dhansen/plenarycrawl/internal/fetcher"
	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/internal/rules"
	"github.com/dhansen/plenarycrawl/internal/store"
	"github.com/dhansen/plenarycrawl/pkg/retry"
	"github.com/dhansen/plenarycrawl/pkg/timeutil"
)

// app bundles every shared dependency a subcommand's RunE needs, built
// fresh from the loaded Config.
type app struct {
	cfg      *config.Config
	store    *store.Store
	rules    *rules.Registry
	urls     *store.URLStore
	days     *store.SessionDayStore
	reqs     *store.RequestStore
	docs     *store.DocumentStore
	ruleDB   *store.RuleStore
	fetch    fetcher.Fetcher
	recorder *metadata.Recorder
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.General.LogLevel)}))
	recorder := metadata.NewRecorder(logger)

	st, err := store.Open(ctx, cfg.General.DSN())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	registry := rules.NewRegistry(cfg.General.BaseURL)

	httpFetcher := fetcher.NewHTTPFetcher(cfg.Downloader.RequestTimeoutFactor, recorder)
	retryParam := retry.NewRetryParam(
		cfg.Downloader.RetryBaseDelay,
		cfg.Downloader.RetryJitter,
		1,
		cfg.Downloader.RetryAttempts,
		timeutil.NewBackoffParam(cfg.Downloader.RetryBaseDelay, 2.0, 30*time.Second),
	)

	a := &app{
		cfg:      cfg,
		store:    st,
		rules:    registry,
		urls:     store.NewURLStore(st),
		days:     store.NewSessionDayStore(st),
		reqs:     store.NewRequestStore(st),
		docs:     store.NewDocumentStore(st),
		ruleDB:   store.NewRuleStore(st),
		fetch:    fetcher.NewRetryingFetcher(httpFetcher, retryParam),
		recorder: recorder,
	}

	if err := a.syncRuleTable(ctx); err != nil {
		return nil, fmt.Errorf("sync rule table: %w", err)
	}
	return a, nil
}

// syncRuleTable registers every rule the in-code registry knows about,
// idempotently — the registry is rebuilt from source on every boot, and
// this keeps the database's bookkeeping table (used for --activate /
// --deactivate and for scoping postprocessing resets) in step with it.
func (a *app) syncRuleTable(ctx context.Context) error {
	for _, r := range a.rules.All() {
		if _, err := a.ruleDB.RegisterRule(ctx, r.Name(), string(r.Kind())); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) probeRuleID(ctx context.Context) (int64, error) {
	rule, err := a.ruleDB.GetByName(ctx, a.rules.ProbeRuleName())
	if err != nil {
		return 0, err
	}
	return rule.ID, nil
}

func (a *app) close() {
	a.store.Close()
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseDate parses a "2006-01-02" date flag, the one date format every
// subcommand accepts.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
