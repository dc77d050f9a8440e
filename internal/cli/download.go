package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dhansen/plenarycrawl/internal/fetcher"
	"github.com/dhansen/plenarycrawl/internal/rules"
	"github.com/dhansen/plenarycrawl/pkg/fileutil"
	"github.com/dhansen/plenarycrawl/pkg/hashutil"
	"github.com/dhansen/plenarycrawl/pkg/retry"
	"github.com/dhansen/plenarycrawl/pkg/timeutil"
)

var (
	downloadRule     string
	downloadBackfill bool
	downloadRefresh  bool
	downloadDate     string
	downloadRetry    int
	downloadSleep    time.Duration
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "One-shot probe-and-download runs outside the long-running pipeline.",
}

var downloadSessionsCmd = &cobra.Command{
	Use:   "sessions DIR",
	Short: "Probe session dates for one rule and download whatever confirms, into DIR.",
	Long: `download sessions probes candidate session dates against the probe
rule, mints --rule's URL for every date that confirms, and writes each
downloaded file into DIR. --backfill starts from the configured historical
start date instead of the recent-only window; --refresh doubles the number
of candidate dates fetched (unresolved dates are candidates either way);
-d restricts the run to exactly one date. Every date is probed again
before its download, whether or not an earlier probe confirmed it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownloadSessions,
}

func init() {
	downloadCmd.AddCommand(downloadSessionsCmd)
	downloadSessionsCmd.Flags().StringVar(&downloadRule, "rule", "", "rule name to download (defaults to the probe rule)")
	downloadSessionsCmd.Flags().BoolVar(&downloadBackfill, "backfill", false, "probe from the configured historical start date")
	downloadSessionsCmd.Flags().BoolVar(&downloadRefresh, "refresh", false, "double the number of candidate dates fetched")
	downloadSessionsCmd.Flags().StringVarP(&downloadDate, "date", "d", "", "restrict the run to a single date (YYYY-MM-DD)")
	downloadSessionsCmd.Flags().IntVar(&downloadRetry, "retry", 3, "max fetch attempts per URL")
	downloadSessionsCmd.Flags().DurationVar(&downloadSleep, "sleep", 500*time.Millisecond, "base delay between retry attempts")
}

func runDownloadSessions(c *cobra.Command, args []string) error {
	ctx := c.Context()
	dir := args[0]

	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	ruleName := downloadRule
	if ruleName == "" {
		ruleName = a.rules.ProbeRuleName()
	}
	rule, ok := a.rules.Get(ruleName)
	if !ok {
		return fmt.Errorf("unknown rule: %s", ruleName)
	}
	ruleRow, err := a.ruleDB.GetByName(ctx, ruleName)
	if err != nil {
		return fmt.Errorf("resolve rule %q: %w", ruleName, err)
	}
	probeID, err := a.probeRuleID(ctx)
	if err != nil {
		return fmt.Errorf("resolve probe rule: %w", err)
	}

	fetch := fetcher.NewRetryingFetcher(
		fetcher.NewHTTPFetcher(a.cfg.Downloader.RequestTimeoutFactor, a.recorder),
		retry.NewRetryParam(downloadSleep, downloadSleep/2, 1, downloadRetry,
			timeutil.NewBackoffParam(downloadSleep, 2.0, 30*time.Second)),
	)

	dates, err := resolveDownloadDates(ctx, a, probeID)
	if err != nil {
		return err
	}

	downloaded := 0
	for _, date := range dates {
		ok, err := downloadOneSession(ctx, a, rule, ruleRow.ID, probeID, date, dir, fetch)
		if err != nil {
			fmt.Fprintf(c.ErrOrStderr(), "date %s: %v\n", date.Format("2006-01-02"), err)
			continue
		}
		if ok {
			downloaded++
		}
	}

	fmt.Fprintf(c.OutOrStdout(), "downloaded %d document(s) for rule %s\n", downloaded, ruleName)
	return nil
}

// resolveDownloadDates picks the candidate session dates to probe: the
// single -d date, or CandidateDates over [now - offset, now] ([startdate,
// now] with --backfill), with the prefetch limit doubled by --refresh.
func resolveDownloadDates(ctx context.Context, a *app, probeID int64) ([]time.Time, error) {
	if downloadDate != "" {
		d, err := parseDate(downloadDate)
		if err != nil {
			return nil, fmt.Errorf("parse --date: %w", err)
		}
		return []time.Time{d}, nil
	}

	start := time.Now().Add(-a.cfg.SessionDayChecker.Offset)
	if downloadBackfill {
		s, err := parseDate(a.cfg.SessionDayChecker.StartDate)
		if err != nil {
			return nil, fmt.Errorf("parse sessiondaychecker.startdate: %w", err)
		}
		start = s
	}
	cutoff := time.Now()
	limit := a.cfg.SessionDayChecker.PrefetchLimit
	if downloadRefresh {
		limit *= 2
	}
	return a.days.CandidateDates(ctx, probeID, start, cutoff, limit)
}

// downloadOneSession probes date against the probe rule, then — only if
// that probe confirms — mints rule's URL for
// that date and downloads it into dir. It returns true if a new document
// was written.
func downloadOneSession(
	ctx context.Context,
	a *app,
	rule rules.Rule,
	ruleID, probeRuleID int64,
	date time.Time,
	dir string,
	fetch fetcher.Fetcher,
) (bool, error) {
	term := rules.TermForDate(date)
	dateID, err := a.days.UpsertDay(ctx, date, term)
	if err != nil {
		return false, fmt.Errorf("upsert session day: %w", err)
	}

	confirmed, err := a.probeUntilConfirmed(ctx, dateID, date, probeRuleID, fetch)
	if err != nil {
		return false, err
	}
	if !confirmed {
		return false, nil
	}

	targetURL := rule.URLFor(date)
	urlID, err := a.urls.MintURL(ctx, ruleID, dateID, targetURL)
	if err != nil {
		return false, fmt.Errorf("mint url: %w", err)
	}

	get, fetchErr := fetch.Get(ctx, targetURL, a.cfg.General.UserAgent)
	now := time.Now()
	status := 460
	finalURL := targetURL
	if fetchErr == nil {
		status = get.StatusCode
		finalURL = get.FinalURL
	}
	if status != 200 {
		_, _ = a.reqs.LogRequest(ctx, urlID, now, targetURL, finalURL, status, nil)
		return false, fmt.Errorf("GET %s: status %d", targetURL, status)
	}

	filename := uuid.NewString()
	contentHash, err := hashutil.HashBytes(get.Body, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return false, fmt.Errorf("hash body: %w", err)
	}
	path := filepath.Join(dir, filename+a.cfg.Downloader.Extension)

	if ferr := fileutil.EnsureDir(dir); ferr != nil {
		return false, ferr
	}
	if ferr := fileutil.WriteFile(path, get.Body); ferr != nil {
		return false, ferr
	}

	documentID, err := a.docs.InsertDocument(ctx, urlID, filename, path, contentHash)
	if err != nil {
		return false, fmt.Errorf("insert document: %w", err)
	}
	if _, err := a.reqs.LogRequest(ctx, urlID, time.Now(), targetURL, finalURL, status, &documentID); err != nil {
		return false, fmt.Errorf("log request: %w", err)
	}
	return true, nil
}

// probeUntilConfirmed HEADs the probe rule's URL for date, logs the
// request, and returns whether this HEAD returned 200. Earlier requests
// are not consulted: a date confirmed before is probed again.
func (a *app) probeUntilConfirmed(ctx context.Context, dateID int64, date time.Time, probeRuleID int64, fetch fetcher.Fetcher) (bool, error) {
	probeRule, ok := a.rules.Get(a.rules.ProbeRuleName())
	if !ok {
		return false, fmt.Errorf("probe rule %q not registered", a.rules.ProbeRuleName())
	}

	probeURL := probeRule.URLFor(date)
	urlID, err := a.urls.MintURL(ctx, probeRuleID, dateID, probeURL)
	if err != nil {
		return false, fmt.Errorf("mint probe url: %w", err)
	}

	head, fetchErr := fetch.Head(ctx, probeURL, a.cfg.General.UserAgent)
	now := time.Now()
	status := 460
	finalURL := probeURL
	if fetchErr == nil {
		status = head.StatusCode
		finalURL = head.FinalURL
	}
	if _, err := a.reqs.LogRequest(ctx, urlID, now, probeURL, finalURL, status, nil); err != nil {
		return false, fmt.Errorf("log probe request: %w", err)
	}
	return status == 200, nil
}
