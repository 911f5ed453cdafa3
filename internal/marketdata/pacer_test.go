package marketdata

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPacerDispatchesInOrder(t *testing.T) {
	p := NewPacer(1.0)
	// Make Sleep a no-op so the test runs instantly regardless of rate.
	p.Sleep = func(context.Context, time.Duration) error { return nil }

	trades := []Trade{
		{Symbol: "AAPL", Price: 100, Timestamp: 1000},
		{Symbol: "AAPL", Price: 101, Timestamp: 2000},
		{Symbol: "AAPL", Price: 102, Timestamp: 3000},
	}

	var got []Trade
	err := p.Replay(context.Background(), trades, func(tr Trade) {
		got = append(got, tr)
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d trades, want 3", len(got))
	}
	for i, tr := range got {
		if tr.Price != trades[i].Price {
			t.Fatalf("got[%d] = %+v, want %+v", i, tr, trades[i])
		}
	}
}

func TestPacerStopsOnContextCancel(t *testing.T) {
	p := NewPacer(1.0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Even a single trade should short-circuit once ctx is already done,
	// because Replay checks ctx between the sleep and the dispatch.
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}

	dispatched := false
	err := p.Replay(ctx, []Trade{{Symbol: "AAPL", Price: 100, Timestamp: 1000}}, func(Trade) {
		dispatched = true
	})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if dispatched {
		t.Fatalf("expected no dispatch after cancellation")
	}
}

func TestPacerEmptyTradesNoop(t *testing.T) {
	p := NewPacer(1.0)
	if err := p.Replay(context.Background(), nil, func(Trade) { t.Fatalf("unexpected dispatch") }); err != nil {
		t.Fatalf("Replay: %v", err)
	}
}

func TestTradeJSONFieldNames(t *testing.T) {
	tr := Trade{
		Symbol:     "AAPL",
		TradeID:    "abc123",
		ExchangeID: 4,
		Price:      150.25,
		Size:       100,
		Timestamp:  1680000000000000000,
		Tape:       TapeC,
	}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"sym", "i", "x", "p", "s", "t", "z"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing abbreviated field %q in %s", key, b)
		}
	}
}

func TestParseTrades(t *testing.T) {
	msg := []byte(`[{"sym":"AAPL","i":"1","x":4,"p":150.25,"s":100,"t":1680000000000000000,"z":3}]`)
	trades := parseTrades(msg)
	if len(trades) != 1 {
		t.Fatalf("parseTrades returned %d, want 1", len(trades))
	}
	if trades[0].Symbol != "AAPL" || trades[0].Price != 150.25 {
		t.Fatalf("trade = %+v", trades[0])
	}
}
