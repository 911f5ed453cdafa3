package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestWAL(t *testing.T, maxSize int, interval time.Duration) *WAL {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	w, err := Open(path, maxSize, interval)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestRecordBuffersUntilFlush(t *testing.T) {
	w := newTestWAL(t, 10, time.Hour)

	w.Record(Event{Kind: "fill", OrderID: "o1", Symbol: "AAPL", SignedQty: 10, Price: 100, At: time.Now()})
	if w.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", w.Pending())
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if w.Pending() != 0 {
		t.Fatalf("expected buffer drained after Flush")
	}

	m := w.GetMetrics()
	if m.TotalWrites != 1 || m.TotalBatches != 1 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestRecordAutoFlushesAtMaxSize(t *testing.T) {
	w := newTestWAL(t, 2, time.Hour)

	w.Record(Event{Kind: "fill", OrderID: "o1", Symbol: "AAPL", Price: 100, At: time.Now()})
	w.Record(Event{Kind: "fill", OrderID: "o2", Symbol: "AAPL", Price: 101, At: time.Now()})

	// The second Record should have triggered an auto-flush.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && w.Pending() != 0 {
		time.Sleep(time.Millisecond)
	}
	if w.Pending() != 0 {
		t.Fatalf("expected auto-flush at maxSize, pending=%d", w.Pending())
	}
}

func TestCloseFlushesRemainingBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	w, err := Open(path, 100, time.Hour)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	w.Record(Event{Kind: "order_status", OrderID: "o1", Symbol: "AAPL", Status: "filled", At: time.Now()})

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
