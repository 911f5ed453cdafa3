// Package position implements the Position Store: the symbol→Position
// map, fill aggregation, and mark-to-market arithmetic of spec §4.3.
package position

import (
	"github.com/Overmuse/acticks/internal/acerr"
	"github.com/Overmuse/acticks/internal/asset"
	"github.com/Overmuse/acticks/internal/mailbox"
	"github.com/Overmuse/acticks/internal/money"
	"github.com/google/uuid"
)

// Side is the long/short orientation of a Position, derived from the
// sign of its quantity.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Position is a symbol's aggregated holding. Monetary fields marshal as
// decimal strings on the wire (spec §6); Qty is an int64 and marshals as
// a plain JSON number.
type Position struct {
	AssetID                uuid.UUID     `json:"asset_id"`
	Symbol                  string        `json:"symbol"`
	Exchange                asset.Venue   `json:"exchange"`
	AssetClass              asset.Class   `json:"asset_class"`
	AvgEntryPrice           money.Decimal `json:"avg_entry_price"`
	Qty                     int64         `json:"qty"`
	Side                    Side          `json:"side"`
	MarketValue             money.Decimal `json:"market_value"`
	CostBasis               money.Decimal `json:"cost_basis"`
	UnrealizedPL            money.Decimal `json:"unrealized_pl"`
	UnrealizedPLPC          money.Decimal `json:"unrealized_plpc"`
	UnrealizedIntradayPL    money.Decimal `json:"unrealized_intraday_pl"`
	UnrealizedIntradayPLPC  money.Decimal `json:"unrealized_intraday_plpc"`
	CurrentPrice            money.Decimal `json:"current_price"`
	LastdayPrice            money.Decimal `json:"lastday_price"`
	ChangeToday             money.Decimal `json:"change_today"`
}

// Fill is the subset of exchange.TradeFill the Position Store needs, so
// that this package does not depend on the exchange package.
type Fill struct {
	AssetID uuid.UUID
	Symbol  string
	Venue   asset.Venue
	Class   asset.Class
	Qty     int64 // signed: +buy, -sell
	Price   float64
}

// Store is the Position Store actor.
type Store struct {
	mb       *mailbox.Mailbox
	bySymbol map[string]*Position
}

// NewStore starts a Position Store actor.
func NewStore() *Store {
	return &Store{
		mb:       mailbox.New(64),
		bySymbol: make(map[string]*Position),
	}
}

// Close shuts the actor down.
func (s *Store) Close() { s.mb.Close() }

// ApplyFill folds a fill into the Position for fill.Symbol, per spec
// §4.3: adds qty × price to the cost basis, flips side on sign change,
// marks to the fill price, and removes the Position if the resulting
// quantity is zero. AvgEntryPrice is set by the opening fill only.
func (s *Store) ApplyFill(f Fill) {
	mailbox.Ask(s.mb, func() struct{} {
		pos, ok := s.bySymbol[f.Symbol]
		if !ok {
			pos = &Position{
				AssetID:       f.AssetID,
				Symbol:        f.Symbol,
				Exchange:      f.Venue,
				AssetClass:    f.Class,
				AvgEntryPrice: money.Decimal(f.Price),
				Qty:           f.Qty,
				Side:          sideOf(f.Qty),
				CostBasis:     money.Decimal(float64(f.Qty) * f.Price),
				CurrentPrice:  money.Decimal(f.Price),
				LastdayPrice:  money.Decimal(f.Price),
			}
			s.bySymbol[f.Symbol] = pos
			mark(pos, f.Price)
			return struct{}{}
		}

		newQty := pos.Qty + f.Qty
		newCostBasis := float64(pos.CostBasis) + float64(f.Qty)*f.Price
		pos.Qty = newQty
		pos.CostBasis = money.Decimal(newCostBasis)
		pos.Side = sideOf(newQty)
		mark(pos, f.Price)

		if newQty == 0 {
			delete(s.bySymbol, f.Symbol)
		}
		return struct{}{}
	})
}

// Mark re-evaluates the Position for symbol at price, leaving it
// untouched if no Position exists (a price tick for a symbol with no
// open position marks nothing).
func (s *Store) Mark(symbol string, price float64) {
	mailbox.Ask(s.mb, func() struct{} {
		if pos, ok := s.bySymbol[symbol]; ok {
			mark(pos, price)
		}
		return struct{}{}
	})
}

// Get returns a copy of the Position for symbol.
func (s *Store) Get(symbol string) (Position, error) {
	return mailbox.Ask(s.mb, func() getResult {
		pos, ok := s.bySymbol[symbol]
		if !ok {
			return getResult{err: acerr.NotFoundf("position %s", symbol)}
		}
		return getResult{pos: *pos}
	}).unwrap()
}

type getResult struct {
	pos Position
	err error
}

func (r getResult) unwrap() (Position, error) { return r.pos, r.err }

// List returns a snapshot of every open Position.
func (s *Store) List() []Position {
	return mailbox.Ask(s.mb, func() []Position {
		out := make([]Position, 0, len(s.bySymbol))
		for _, p := range s.bySymbol {
			out = append(out, *p)
		}
		return out
	})
}

// Forget removes the Position for symbol without submitting any order,
// and returns what it was. Spec §4.3's close(symbol) is realized one
// layer up, in the Coordinator (ClosePosition): it reads the Position
// via Get, builds the opposing OrderIntent, and submits it through the
// normal fill pipeline, which is what actually flattens the Position.
// Forget is a lower-level store primitive that drops a Position
// directly; Ledger.Reset does not call it, so resetting cash leaves
// positions in place.
func (s *Store) Forget(symbol string) (Position, error) {
	return mailbox.Ask(s.mb, func() getResult {
		pos, ok := s.bySymbol[symbol]
		if !ok {
			return getResult{err: acerr.NotFoundf("position %s", symbol)}
		}
		delete(s.bySymbol, symbol)
		return getResult{pos: *pos}
	}).unwrap()
}

// ForgetAll removes and returns every open Position.
func (s *Store) ForgetAll() []Position {
	return mailbox.Ask(s.mb, func() []Position {
		out := make([]Position, 0, len(s.bySymbol))
		for _, p := range s.bySymbol {
			out = append(out, *p)
		}
		s.bySymbol = make(map[string]*Position)
		return out
	})
}

func sideOf(qty int64) Side {
	if qty < 0 {
		return Short
	}
	return Long
}

// mark applies the mark-to-market formulas from spec §4.3, guarding
// every ratio against a zero denominator.
func mark(pos *Position, price float64) {
	qty := float64(pos.Qty)
	costBasis := float64(pos.CostBasis)
	lastday := float64(pos.LastdayPrice)

	pos.MarketValue = money.Decimal(qty * price)
	pos.CurrentPrice = money.Decimal(price)

	pos.ChangeToday = money.Decimal(safeDiv(price-lastday, lastday))
	pos.UnrealizedPL = money.Decimal(float64(pos.MarketValue) - costBasis)
	pos.UnrealizedPLPC = money.Decimal(safeDiv(float64(pos.UnrealizedPL), costBasis))
	pos.UnrealizedIntradayPL = money.Decimal(qty * (price - lastday))
	pos.UnrealizedIntradayPLPC = money.Decimal(safeDiv(float64(pos.UnrealizedIntradayPL), qty*lastday))
}

func safeDiv(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom
}
