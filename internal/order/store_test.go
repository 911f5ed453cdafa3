package order

import (
	"testing"
	"time"

	"github.com/Overmuse/acticks/internal/acerr"
	"github.com/Overmuse/acticks/internal/asset"
	"github.com/google/uuid"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testAsset() asset.Asset {
	return asset.Asset{
		ID:     uuid.New(),
		Symbol: "AAPL",
		Class:  asset.ClassUSEquity,
	}
}

func newStoreWithOrder(t *testing.T) (*Store, *Order) {
	t.Helper()
	s := NewStore(fixedClock(time.Unix(0, 0)))
	t.Cleanup(s.Close)

	o := FromIntent(Intent{
		Symbol: "AAPL",
		Qty:    10,
		Side:   Buy,
		Type:   MarketOrder(),
	}, testAsset(), time.Unix(0, 0))
	s.Insert(o)
	return s, o
}

func TestInsertAndGet(t *testing.T) {
	s, o := newStoreWithOrder(t)

	got, err := s.Get(o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != o.ID || got.Symbol != "AAPL" {
		t.Fatalf("got %+v", got)
	}
}

func TestGetByClientID(t *testing.T) {
	s, o := newStoreWithOrder(t)

	got, err := s.GetByClientID(o.ClientOrderID)
	if err != nil {
		t.Fatalf("GetByClientID: %v", err)
	}
	if got.ID != o.ID {
		t.Fatalf("got %v, want %v", got.ID, o.ID)
	}
}

func TestGetUnknownOrder(t *testing.T) {
	s := NewStore(nil)
	t.Cleanup(s.Close)

	_, err := s.Get(uuid.New())
	if !acerr.Is(err, acerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	s, o := newStoreWithOrder(t)

	if err := s.Cancel(o.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, _ := s.Get(o.ID)
	if got.Status != StatusCanceled {
		t.Fatalf("status = %v, want canceled", got.Status)
	}
	if got.CanceledAt == nil {
		t.Fatalf("CanceledAt not set")
	}
}

func TestCancelTerminalOrderIsUncancelable(t *testing.T) {
	s, o := newStoreWithOrder(t)

	if err := s.Cancel(o.ID); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	err := s.Cancel(o.ID)
	if !acerr.Is(err, acerr.Uncancelable) {
		t.Fatalf("expected Uncancelable on double cancel, got %v", err)
	}
}

func TestCancelAllSkipsTerminalOrders(t *testing.T) {
	s := NewStore(nil)
	t.Cleanup(s.Close)

	a := testAsset()
	live := FromIntent(Intent{Symbol: "AAPL", Qty: 1, Side: Buy, Type: MarketOrder()}, a, time.Now())
	done := FromIntent(Intent{Symbol: "AAPL", Qty: 1, Side: Buy, Type: MarketOrder()}, a, time.Now())
	s.Insert(live)
	s.Insert(done)
	if err := s.Cancel(done.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	n := s.CancelAll()
	if n != 1 {
		t.Fatalf("CancelAll canceled %d, want 1", n)
	}

	got, _ := s.Get(done.ID)
	if got.Status != StatusCanceled {
		t.Fatalf("terminal order status changed unexpectedly: %v", got.Status)
	}
}

func TestApplyFillFullQuantity(t *testing.T) {
	s, o := newStoreWithOrder(t)

	res, err := s.ApplyFill(o.ID, 10, 150.0)
	if err != nil {
		t.Fatalf("ApplyFill: %v", err)
	}
	if !res.BecameFilled {
		t.Fatalf("expected BecameFilled")
	}
	if res.Order.Status != StatusFilled {
		t.Fatalf("status = %v, want filled", res.Order.Status)
	}
	if res.Order.FilledAvgPrice == nil || *res.Order.FilledAvgPrice != 150.0 {
		t.Fatalf("FilledAvgPrice = %v, want 150", res.Order.FilledAvgPrice)
	}
}

func TestApplyFillPartialThenComplete(t *testing.T) {
	s, o := newStoreWithOrder(t)

	if _, err := s.ApplyFill(o.ID, 4, 100.0); err != nil {
		t.Fatalf("first ApplyFill: %v", err)
	}
	mid, _ := s.Get(o.ID)
	if mid.Status != StatusPartiallyFilled {
		t.Fatalf("status = %v, want partially_filled", mid.Status)
	}

	res, err := s.ApplyFill(o.ID, 6, 200.0)
	if err != nil {
		t.Fatalf("second ApplyFill: %v", err)
	}
	if !res.BecameFilled {
		t.Fatalf("expected BecameFilled on completing fill")
	}
	wantAvg := (100.0*4 + 200.0*6) / 10.0
	if *res.Order.FilledAvgPrice != wantAvg {
		t.Fatalf("FilledAvgPrice = %v, want %v", *res.Order.FilledAvgPrice, wantAvg)
	}
}

func TestApplyFillOnTerminalOrder(t *testing.T) {
	s, o := newStoreWithOrder(t)

	if err := s.Cancel(o.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	_, err := s.ApplyFill(o.ID, 10, 100.0)
	if !acerr.Is(err, acerr.Uncancelable) {
		t.Fatalf("expected Uncancelable, got %v", err)
	}
}

func TestOTOLegCreatedHeldAndReleased(t *testing.T) {
	s := NewStore(nil)
	t.Cleanup(s.Close)

	stopPrice := 90.0
	o := FromIntent(Intent{
		Symbol: "AAPL",
		Qty:    10,
		Side:   Buy,
		Type:   MarketOrder(),
		Class: Class{
			Kind:     ClassOTO,
			StopLoss: &StopLossSpec{StopPrice: stopPrice},
		},
	}, testAsset(), time.Now())

	if len(o.Legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(o.Legs))
	}
	leg := o.Legs[0]
	if leg.Status != StatusHeld {
		t.Fatalf("leg status = %v, want held", leg.Status)
	}
	if leg.Side != Sell {
		t.Fatalf("leg side = %v, want sell", leg.Side)
	}

	s.Insert(o)
	released, err := s.ReleaseLeg(leg.ID)
	if err != nil {
		t.Fatalf("ReleaseLeg: %v", err)
	}
	if released.Status != StatusNew {
		t.Fatalf("released status = %v, want new", released.Status)
	}
}

func TestListIncludesLegs(t *testing.T) {
	s := NewStore(nil)
	t.Cleanup(s.Close)

	stopPrice := 90.0
	o := FromIntent(Intent{
		Symbol: "AAPL",
		Qty:    10,
		Side:   Buy,
		Type:   MarketOrder(),
		Class:  Class{Kind: ClassOTO, StopLoss: &StopLossSpec{StopPrice: stopPrice}},
	}, testAsset(), time.Now())
	s.Insert(o)

	all := s.List()
	if len(all) != 2 {
		t.Fatalf("List() len = %d, want 2 (parent + leg)", len(all))
	}
}
