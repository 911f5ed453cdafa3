// Package audit is an append-only fills/order-events log, batched to
// sqlite the way the teacher's persistence.BatchWriter batches database
// writes: buffered, flushed on size or interval, with atomic counters.
// It is explicitly not a restore path — nothing in this core reads the
// WAL back on startup (spec §1 non-goal: persistence across restarts).
package audit

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one audited record: either an order-lifecycle transition or
// a trade fill.
type Event struct {
	Kind      string // "order_status" or "fill"
	OrderID   string
	Symbol    string
	Status    string
	SignedQty int64
	Price     float64
	At        time.Time
}

// Metrics mirrors the teacher's BatchWriterMetrics shape: counters a
// caller can poll to watch the WAL's health.
type Metrics struct {
	TotalWrites   uint64
	TotalBatches  uint64
	TotalErrors   uint64
	LastBatchSize int
	LastFlushTime time.Time
}

// WAL is the batched append-only sink.
type WAL struct {
	db          *sql.DB
	buffer      []Event
	mu          sync.Mutex
	maxSize     int
	flushIntval time.Duration
	done        chan struct{}
	wg          sync.WaitGroup
	metrics     Metrics
}

// Open creates (if absent) the sqlite file at path, its events table,
// and starts a WAL with the given batch size and flush interval.
func Open(path string, maxSize int, interval time.Duration) (*WAL, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create table: %w", err)
	}

	if maxSize <= 0 {
		maxSize = 50
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	w := &WAL{
		db:          db,
		buffer:      make([]Event, 0, maxSize),
		maxSize:     maxSize,
		flushIntval: interval,
		done:        make(chan struct{}),
	}
	w.wg.Add(1)
	go w.backgroundFlush()
	return w, nil
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	status TEXT NOT NULL,
	signed_qty INTEGER NOT NULL,
	price REAL NOT NULL,
	at TEXT NOT NULL
)`

// Record appends an event to the buffer, flushing immediately once the
// buffer reaches maxSize.
func (w *WAL) Record(e Event) {
	w.mu.Lock()
	w.buffer = append(w.buffer, e)
	shouldFlush := len(w.buffer) >= w.maxSize
	w.mu.Unlock()

	if shouldFlush {
		w.Flush()
	}
}

// Flush writes every buffered event to sqlite in a single transaction.
func (w *WAL) Flush() error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}
	events := w.buffer
	w.buffer = make([]Event, 0, w.maxSize)
	w.mu.Unlock()

	return w.writeBatch(events)
}

func (w *WAL) writeBatch(events []Event) error {
	atomic.AddUint64(&w.metrics.TotalWrites, uint64(len(events)))
	atomic.AddUint64(&w.metrics.TotalBatches, 1)
	w.metrics.LastBatchSize = len(events)
	w.metrics.LastFlushTime = time.Now()

	tx, err := w.db.Begin()
	if err != nil {
		atomic.AddUint64(&w.metrics.TotalErrors, 1)
		log.Printf("audit: failed to begin transaction: %v", err)
		return err
	}

	for _, e := range events {
		_, err := tx.Exec(
			`INSERT INTO events (kind, order_id, symbol, status, signed_qty, price, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Kind, e.OrderID, e.Symbol, e.Status, e.SignedQty, e.Price, e.At.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			tx.Rollback()
			atomic.AddUint64(&w.metrics.TotalErrors, 1)
			log.Printf("audit: write failed, rolling back: %v", err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		atomic.AddUint64(&w.metrics.TotalErrors, 1)
		log.Printf("audit: commit failed: %v", err)
		return err
	}
	return nil
}

func (w *WAL) backgroundFlush() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.flushIntval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Flush(); err != nil {
				log.Printf("audit: background flush error: %v", err)
			}
		case <-w.done:
			if err := w.Flush(); err != nil {
				log.Printf("audit: final flush error: %v", err)
			}
			return
		}
	}
}

// Pending returns the number of buffered, not-yet-flushed events.
func (w *WAL) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}

// GetMetrics returns a snapshot of the WAL's write counters.
func (w *WAL) GetMetrics() Metrics {
	return Metrics{
		TotalWrites:   atomic.LoadUint64(&w.metrics.TotalWrites),
		TotalBatches:  atomic.LoadUint64(&w.metrics.TotalBatches),
		TotalErrors:   atomic.LoadUint64(&w.metrics.TotalErrors),
		LastBatchSize: w.metrics.LastBatchSize,
		LastFlushTime: w.metrics.LastFlushTime,
	}
}

// Close flushes any remaining buffer and closes the underlying
// database handle.
func (w *WAL) Close() error {
	close(w.done)
	w.wg.Wait()
	return w.db.Close()
}
