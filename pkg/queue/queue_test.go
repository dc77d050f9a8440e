package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/dhansen/plenarycrawl/pkg/queue"
)

func TestQueue_TryPutAndTryGet(t *testing.T) {
	q := queue.New[int](2)
	ctx := context.Background()

	ok, err := q.TryPut(ctx, 1, time.Second)
	if err != nil || !ok {
		t.Fatalf("TryPut = (%v, %v), want (true, nil)", ok, err)
	}

	v, ok, err := q.TryGet(ctx, time.Second)
	if err != nil || !ok || v != 1 {
		t.Fatalf("TryGet = (%d, %v, %v), want (1, true, nil)", v, ok, err)
	}
}

func TestQueue_TryPutTimesOutWhenFull(t *testing.T) {
	q := queue.New[int](1)
	ctx := context.Background()

	if ok, err := q.TryPut(ctx, 1, time.Second); err != nil || !ok {
		t.Fatalf("first TryPut = (%v, %v)", ok, err)
	}

	ok, err := q.TryPut(ctx, 2, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("TryPut on full queue returned error: %v", err)
	}
	if ok {
		t.Error("expected TryPut on a full queue to time out with ok=false")
	}
}

func TestQueue_TryGetTimesOutWhenEmpty(t *testing.T) {
	q := queue.New[int](1)
	ctx := context.Background()

	_, ok, err := q.TryGet(ctx, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("TryGet on empty queue returned error: %v", err)
	}
	if ok {
		t.Error("expected TryGet on an empty queue to time out with ok=false")
	}
}

func TestQueue_TryPutRespectsCancellation(t *testing.T) {
	q := queue.New[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.TryPut(ctx, 1, time.Second)
	if err == nil {
		t.Error("expected TryPut to return the context error once ctx is cancelled")
	}
}

func TestQueue_DrainAll(t *testing.T) {
	q := queue.New[int](4)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if ok, err := q.TryPut(ctx, i, time.Second); err != nil || !ok {
			t.Fatalf("TryPut(%d) = (%v, %v)", i, ok, err)
		}
	}

	drained := q.DrainAll()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained items, got %d", len(drained))
	}
	if q.Len() != 0 {
		t.Errorf("expected queue to be empty after DrainAll, got len %d", q.Len())
	}
}

func TestQueue_LenAndCap(t *testing.T) {
	q := queue.New[string](5)
	if q.Cap() != 5 {
		t.Errorf("Cap() = %d, want 5", q.Cap())
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	q.TryPut(context.Background(), "x", time.Second)
	if q.Len() != 1 {
		t.Errorf("Len() after one put = %d, want 1", q.Len())
	}
}

func TestQueue_NewWithNonPositiveCapacityDefaultsToOne(t *testing.T) {
	q := queue.New[int](0)
	if q.Cap() != 1 {
		t.Errorf("New(0).Cap() = %d, want 1", q.Cap())
	}
}
