package store_test

import (
	"context"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dhansen/plenarycrawl/internal/store"
)

// setupStore starts a disposable Postgres container, applies the schema,
// and returns a ready Store. Skipped under -short since it needs Docker.
func setupStore(t *testing.T) *store.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed test in -short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("plenarycrawl"),
		postgres.WithUsername("plenarycrawl"),
		postgres.WithPassword("plenarycrawl"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	st, err := store.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(st.Close)

	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return st
}

func TestRuleStore_RegisterAndToggle(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	rules := store.NewRuleStore(st)

	id, err := rules.RegisterRule(ctx, "protocol_en_pdf", "protocol")
	if err != nil {
		t.Fatalf("RegisterRule: %v", err)
	}

	// Re-registering the same name/kind is a no-op that returns the same id.
	id2, err := rules.RegisterRule(ctx, "protocol_en_pdf", "protocol")
	if err != nil {
		t.Fatalf("RegisterRule (second call): %v", err)
	}
	if id != id2 {
		t.Errorf("expected stable id across re-registration, got %d then %d", id, id2)
	}

	if err := rules.SetActive(ctx, "protocol_en_pdf", false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	rule, err := rules.GetByName(ctx, "protocol_en_pdf")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if rule.Active {
		t.Error("expected rule to be inactive after SetActive(false)")
	}

	if err := rules.SetActive(ctx, "no_such_rule", true); err == nil {
		t.Error("expected an error activating an unregistered rule")
	}
}

func TestURLStore_MintURLIsIdempotent(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	rules := store.NewRuleStore(st)
	days := store.NewSessionDayStore(st)
	urls := store.NewURLStore(st)

	ruleID, err := rules.RegisterRule(ctx, "protocol_en_pdf", "protocol")
	if err != nil {
		t.Fatalf("RegisterRule: %v", err)
	}
	dateID, err := days.UpsertDay(ctx, time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC), 9)
	if err != nil {
		t.Fatalf("UpsertDay: %v", err)
	}

	url := "https://www.europarl.europa.eu/doceo/document/PV-9-2021-06-09_EN.pdf"
	id1, err := urls.MintURL(ctx, ruleID, dateID, url)
	if err != nil {
		t.Fatalf("MintURL: %v", err)
	}
	id2, err := urls.MintURL(ctx, ruleID, dateID, url)
	if err != nil {
		t.Fatalf("MintURL (second call): %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected MintURL to be idempotent per (rule, url), got %d then %d", id1, id2)
	}
}

func TestSessionDayStore_CandidateDatesIncludesFreshAndUnresolved(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	rules := store.NewRuleStore(st)
	days := store.NewSessionDayStore(st)
	urls := store.NewURLStore(st)
	reqs := store.NewRequestStore(st)

	probeID, err := rules.RegisterRule(ctx, "protocol_en_pdf", "protocol")
	if err != nil {
		t.Fatalf("RegisterRule: %v", err)
	}

	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(2021, 6, 10, 0, 0, 0, 0, time.UTC)

	// A date that has a probe URL but no conclusive request yet: unresolved.
	unresolvedDate := time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC)
	unresolvedDateID, err := days.UpsertDay(ctx, unresolvedDate, 9)
	if err != nil {
		t.Fatalf("UpsertDay: %v", err)
	}
	unresolvedURLID, err := urls.MintURL(ctx, probeID, unresolvedDateID, "https://example.org/pv-unresolved.pdf")
	if err != nil {
		t.Fatalf("MintURL: %v", err)
	}
	if _, err := reqs.LogRequest(ctx, unresolvedURLID, time.Now(), "https://example.org/pv-unresolved.pdf", "https://example.org/pv-unresolved.pdf", 500, nil); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}

	dates, err := days.CandidateDates(ctx, probeID, start, cutoff, 10)
	if err != nil {
		t.Fatalf("CandidateDates: %v", err)
	}
	if len(dates) == 0 {
		t.Fatal("expected at least the fresh dates in [start, cutoff]")
	}

	foundUnresolved := false
	for _, d := range dates {
		if d.Equal(unresolvedDate) {
			foundUnresolved = true
		}
	}
	if !foundUnresolved {
		t.Error("expected the unresolved date to appear among candidates")
	}
}

func TestDocumentStore_IndexLifecycle(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	rules := store.NewRuleStore(st)
	days := store.NewSessionDayStore(st)
	urls := store.NewURLStore(st)
	docs := store.NewDocumentStore(st)

	ruleID, err := rules.RegisterRule(ctx, "agenda_en_html", "agenda")
	if err != nil {
		t.Fatalf("RegisterRule: %v", err)
	}
	dateID, err := days.UpsertDay(ctx, time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC), 9)
	if err != nil {
		t.Fatalf("UpsertDay: %v", err)
	}
	urlID, err := urls.MintURL(ctx, ruleID, dateID, "https://example.org/agenda.html")
	if err != nil {
		t.Fatalf("MintURL: %v", err)
	}

	docID, err := docs.InsertDocument(ctx, urlID, "11111111-1111-1111-1111-111111111111", "/tmp/x.html", "deadbeef")
	if err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}

	unindexed, err := docs.SelectUnindexed(ctx, 10)
	if err != nil {
		t.Fatalf("SelectUnindexed: %v", err)
	}
	if len(unindexed) != 1 || unindexed[0].ID != docID {
		t.Fatalf("expected the new document to be unindexed, got %+v", unindexed)
	}

	if err := docs.SetIndexed(ctx, docID, true); err != nil {
		t.Fatalf("SetIndexed: %v", err)
	}

	indexed, err := docs.SelectIndexed(ctx, 10)
	if err != nil {
		t.Fatalf("SelectIndexed: %v", err)
	}
	if len(indexed) != 1 || indexed[0].ID != docID {
		t.Fatalf("expected the document to show up as indexed, got %+v", indexed)
	}

	stillUnindexed, err := docs.SelectUnindexed(ctx, 10)
	if err != nil {
		t.Fatalf("SelectUnindexed (after index): %v", err)
	}
	if len(stillUnindexed) != 0 {
		t.Errorf("expected no unindexed documents left, got %d", len(stillUnindexed))
	}
}
