package worker_test

import (
	"testing"

	"github.com/dhansen/plenarycrawl/internal/worker"
)

func TestShutdownFlag_SetIsIdempotentAndObservable(t *testing.T) {
	f := worker.NewShutdownFlag()
	if f.IsSet() {
		t.Fatal("expected a fresh flag to be unset")
	}

	f.Set()
	f.Set() // must not panic or block on a double close

	if !f.IsSet() {
		t.Error("expected IsSet to report true after Set")
	}
	select {
	case <-f.Done():
	default:
		t.Error("expected Done() to be closed after Set")
	}
}

func TestBase_ReadyStartsFalse(t *testing.T) {
	b := worker.NewBase("test_worker", worker.NewShutdownFlag())
	if b.Ready() {
		t.Fatal("expected a fresh Base to report not ready")
	}
	b.MarkReady()
	if !b.Ready() {
		t.Error("expected Ready() to be true after MarkReady")
	}
	if b.Name() != "test_worker" {
		t.Errorf("Name() = %q, want %q", b.Name(), "test_worker")
	}
}
