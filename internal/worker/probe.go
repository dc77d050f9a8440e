package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/dhansen/plenarycrawl/internal/fetcher"
	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/internal/rules"
	"github.com/dhansen/plenarycrawl/internal/store"
	"github.com/dhansen/plenarycrawl/pkg/queue"
)

// SessionDayCandidateSource is the store surface SessionDayProbe needs.
type SessionDayCandidateSource interface {
	CandidateDates(ctx context.Context, probeRuleID int64, startDate, cutoff time.Time, limit int) ([]time.Time, error)
	UpsertDay(ctx context.Context, date time.Time, term int) (int64, error)
}

type SessionDayProbeConfig struct {
	StartDate     time.Time
	Offset        time.Duration
	PrefetchLimit int
	UserAgent     string
	SleepOnEmpty  time.Duration
}

// SessionDayProbe consumes one token and one candidate date per unit of
// work, HEADs the canonical probe URL for that date, and records the
// outcome. Confirmation (I5) is never written explicitly — it is derived
// later by any reader scanning Requests for a 200 against the probe URL.
type SessionDayProbe struct {
	Base

	tokenQ      *queue.Queue[Token]
	days        SessionDayCandidateSource
	urls        *store.URLStore
	requests    *store.RequestStore
	registry    *rules.Registry
	probeRuleID int64
	fetch       fetcher.Fetcher
	cfg         SessionDayProbeConfig
	recorder    *metadata.Recorder

	buffer []time.Time
}

func NewSessionDayProbe(
	shutdown *ShutdownFlag,
	tokenQ *queue.Queue[Token],
	days SessionDayCandidateSource,
	urls *store.URLStore,
	requests *store.RequestStore,
	registry *rules.Registry,
	probeRuleID int64,
	fetch fetcher.Fetcher,
	cfg SessionDayProbeConfig,
	recorder *metadata.Recorder,
) *SessionDayProbe {
	return &SessionDayProbe{
		Base:        NewBase("session_day_probe", shutdown),
		tokenQ:      tokenQ,
		days:        days,
		urls:        urls,
		requests:    requests,
		registry:    registry,
		probeRuleID: probeRuleID,
		fetch:       fetch,
		cfg:         cfg,
		recorder:    recorder.WithComponent("session_day_probe"),
	}
}

func (p *SessionDayProbe) probeRule() rules.Rule {
	rule, _ := p.registry.Get(p.registry.ProbeRuleName())
	return rule
}

func (p *SessionDayProbe) Run(ctx context.Context) error {
	p.MarkReady()

	for {
		if p.Shutdown.IsSet() {
			return nil
		}

		tok, ok, err := p.tokenQ.TryGet(ctx, DefaultPollingTimeout)
		if err != nil {
			return nil
		}
		if !ok {
			continue
		}

		date, hasDate := p.nextCandidate(ctx)
		if !hasDate {
			// No work available; don't silently burn the rate budget.
			p.tokenQ.TryPut(ctx, tok, DefaultPollingTimeout)
			sleepUnlessShutdown(ctx, p.Shutdown, p.cfg.SleepOnEmpty)
			continue
		}

		p.probeOne(ctx, date)
	}
}

func (p *SessionDayProbe) nextCandidate(ctx context.Context) (time.Time, bool) {
	if len(p.buffer) > 0 {
		d := p.buffer[0]
		p.buffer = p.buffer[1:]
		return d, true
	}

	cutoff := time.Now().Add(-p.cfg.Offset)
	dates, err := p.days.CandidateDates(ctx, p.probeRuleID, p.cfg.StartDate, cutoff, p.cfg.PrefetchLimit)
	if err != nil || len(dates) == 0 {
		return time.Time{}, false
	}
	p.buffer = dates
	d := p.buffer[0]
	p.buffer = p.buffer[1:]
	return d, true
}

func (p *SessionDayProbe) probeOne(ctx context.Context, date time.Time) {
	rule := p.probeRule()
	term := rules.TermForDate(date)
	probeURL := rule.URLFor(date)

	dateID, err := p.days.UpsertDay(ctx, date, term)
	if err != nil {
		p.recordDBError(ctx, "UpsertDay", err)
		return
	}

	urlID, err := p.urls.MintURL(ctx, p.probeRuleID, dateID, probeURL)
	if err != nil {
		p.recordDBError(ctx, "MintURL", err)
		return
	}

	head, fetchErr := p.fetch.Head(ctx, probeURL, p.cfg.UserAgent)
	now := time.Now()
	status, finalURL := head.StatusCode, head.FinalURL
	if fetchErr != nil {
		status, finalURL = synthesizeFetchStatus(fetchErr), probeURL
	}

	if _, err := p.requests.LogRequest(ctx, urlID, now, probeURL, finalURL, status, nil); err != nil {
		p.recordDBError(ctx, "LogRequest", err)
		return
	}

	p.recorder.RecordEvent(ctx, "date_checked",
		metadata.NewAttr(metadata.AttrDate, date.Format("2006-01-02")),
		metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(status)),
	)
}

func (p *SessionDayProbe) recordDBError(ctx context.Context, op string, err error) {
	p.recorder.RecordError(ctx, metadata.ErrorRecord{
		Component: "session_day_probe", Operation: op,
		Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
	})
}
