package asset

import (
	"testing"

	"github.com/Overmuse/acticks/internal/acerr"
	"github.com/google/uuid"
)

func newTestAsset(symbol string) Asset {
	return Asset{
		ID:           uuid.New(),
		Symbol:       symbol,
		Class:        ClassUSEquity,
		Venue:        VenueNASDAQ,
		Status:       StatusActive,
		Tradable:     true,
		Marginable:   true,
		Shortable:    true,
		EasyToBorrow: true,
	}
}

func TestRegistryBySymbol(t *testing.T) {
	aapl := newTestAsset("AAPL")
	r := NewRegistry([]Asset{aapl, newTestAsset("MSFT")})

	got, err := r.BySymbol("AAPL")
	if err != nil {
		t.Fatalf("BySymbol: %v", err)
	}
	if got.ID != aapl.ID {
		t.Fatalf("got id %v, want %v", got.ID, aapl.ID)
	}
}

func TestRegistryUnknownSymbol(t *testing.T) {
	r := NewRegistry([]Asset{newTestAsset("AAPL")})

	_, err := r.BySymbol("ZZZZ")
	if !acerr.Is(err, acerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRegistryDuplicateSymbolKeepsFirst(t *testing.T) {
	first := newTestAsset("AAPL")
	second := newTestAsset("AAPL")
	r := NewRegistry([]Asset{first, second})

	got, _ := r.BySymbol("AAPL")
	if got.ID != first.ID {
		t.Fatalf("expected first entry to win")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry([]Asset{newTestAsset("AAPL"), newTestAsset("MSFT")})
	if len(r.List()) != 2 {
		t.Fatalf("List() len = %d, want 2", len(r.List()))
	}
}
