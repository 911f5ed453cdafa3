// Package exchange implements the matching/queuing engine: a price book
// per symbol, a FIFO queue of resting orders, and the marketability
// predicate that governs when a resting order fills (spec §4.1).
package exchange

import (
	"time"

	"github.com/Overmuse/acticks/internal/acerr"
	"github.com/Overmuse/acticks/internal/mailbox"
	"github.com/Overmuse/acticks/internal/order"
	"github.com/google/uuid"
)

// MarketStatus is the exchange-wide trading session state.
type MarketStatus string

const (
	PreOpen     MarketStatus = "pre_open"
	Open        MarketStatus = "open"
	PostClose   MarketStatus = "post_close"
	Maintenance MarketStatus = "maintenance"
	Closed      MarketStatus = "closed"
)

// TradeFill is the atomic unit of execution the Exchange emits. SignedQty
// is positive for a buy, negative for a sell (spec §4.1).
type TradeFill struct {
	Time      time.Time
	Order     order.Order
	SignedQty int64
	Price     float64
}

// Exchange is the matching actor: one mailbox, one goroutine, processing
// transmit/price_tick messages in arrival order.
type Exchange struct {
	mb           *mailbox.Mailbox
	prices       map[string]float64
	resting      []*order.Order
	marketStatus MarketStatus
	now          func() time.Time
}

// New starts an Exchange actor in PreOpen.
func New(now func() time.Time) *Exchange {
	if now == nil {
		now = time.Now
	}
	return &Exchange{
		mb:           mailbox.New(128),
		prices:       make(map[string]float64),
		marketStatus: PreOpen,
		now:          now,
	}
}

// Close shuts the actor down.
func (e *Exchange) Close() { e.mb.Close() }

// SetMarketStatus transitions the trading session. There is no
// scheduler in this core driving PreOpen→Open→PostClose→Closed on a
// clock (spec §9 open question); callers (cmd/acticks at startup, or a
// test) drive it explicitly.
func (e *Exchange) SetMarketStatus(status MarketStatus) {
	mailbox.Ask(e.mb, func() struct{} {
		e.marketStatus = status
		return struct{}{}
	})
}

type transmitResult struct {
	fill *TradeFill
	err  error
}

// Transmit admits an order per the (market_status, extended_hours)
// table in spec §4.1. It returns a fill when the order executes
// immediately, nil when it is parked as resting, and an error when the
// order is rejected outright (Maintenance) or the symbol has no price
// yet (UninitializedPrice).
func (e *Exchange) Transmit(o *order.Order) (*TradeFill, error) {
	res := mailbox.Ask(e.mb, func() transmitResult {
		admitted := e.marketStatus == Open ||
			((e.marketStatus == PreOpen || e.marketStatus == PostClose) && o.ExtendedHours)

		if e.marketStatus == Maintenance {
			return transmitResult{err: acerr.Otherf("exchange is in maintenance")}
		}
		if !admitted {
			e.store(o)
			return transmitResult{}
		}

		price, ok := e.prices[o.Symbol]
		if !ok {
			return transmitResult{err: acerr.UninitializedPricef("no price for %s", o.Symbol)}
		}

		if o.Type.Kind == order.Market {
			return transmitResult{fill: e.execute(o, price)}
		}
		return transmitResult{fill: e.executeOrStore(o, price)}
	})
	return res.fill, res.err
}

// PriceTick upserts the current price for symbol, then removes and
// fills every resting order for that symbol now marketable at price,
// in their original FIFO submission order.
func (e *Exchange) PriceTick(symbol string, price float64) []TradeFill {
	return mailbox.Ask(e.mb, func() []TradeFill {
		e.prices[symbol] = price

		var fills []TradeFill
		remaining := e.resting[:0:0]
		for _, o := range e.resting {
			if o.Symbol == symbol && isMarketable(o, price) {
				fills = append(fills, *e.execute(o, price))
			} else {
				remaining = append(remaining, o)
			}
		}
		e.resting = remaining
		return fills
	})
}

// Price returns the last-ticked price for symbol, if any.
func (e *Exchange) Price(symbol string) (float64, bool) {
	return mailbox.Ask(e.mb, func() priceResult {
		p, ok := e.prices[symbol]
		return priceResult{p, ok}
	}).unwrap()
}

type priceResult struct {
	price float64
	ok    bool
}

func (r priceResult) unwrap() (float64, bool) { return r.price, r.ok }

// CancelResting removes an order from the resting queue, if present. It
// is how the Coordinator honors a cancel(id) against an order the
// Exchange is currently holding (spec §8 scenario 4: a cancel that
// arrives before any price tick must prevent a later tick from filling
// it).
func (e *Exchange) CancelResting(id uuid.UUID) bool {
	return mailbox.Ask(e.mb, func() bool {
		for i, o := range e.resting {
			if o.ID == id {
				e.resting = append(e.resting[:i], e.resting[i+1:]...)
				return true
			}
		}
		return false
	})
}

// Resting returns a snapshot of the resting-order queue, for tests and
// introspection.
func (e *Exchange) Resting() []order.Order {
	return mailbox.Ask(e.mb, func() []order.Order {
		out := make([]order.Order, len(e.resting))
		for i, o := range e.resting {
			out[i] = *o
		}
		return out
	})
}

func (e *Exchange) execute(o *order.Order, price float64) *TradeFill {
	signed := int64(o.Qty)
	if o.Side == order.Sell {
		signed = -signed
	}
	return &TradeFill{
		Time:      e.now(),
		Order:     *o,
		SignedQty: signed,
		Price:     price,
	}
}

func (e *Exchange) executeOrStore(o *order.Order, price float64) *TradeFill {
	if isMarketable(o, price) {
		return e.execute(o, price)
	}
	e.store(o)
	return nil
}

func (e *Exchange) store(o *order.Order) {
	e.resting = append(e.resting, o)
}

// isMarketable implements the single-source-of-truth predicate table
// from spec §4.1.
func isMarketable(o *order.Order, price float64) bool {
	switch o.Type.Kind {
	case order.Market:
		return true
	case order.Limit:
		if o.Side == order.Buy {
			return o.Type.LimitPrice >= price
		}
		return o.Type.LimitPrice <= price
	case order.Stop:
		if o.Side == order.Buy {
			return o.Type.StopPrice <= price
		}
		return o.Type.StopPrice >= price
	case order.StopLimit:
		if o.Side == order.Buy {
			return o.Type.LimitPrice >= price && price >= o.Type.StopPrice
		}
		return o.Type.LimitPrice <= price && price <= o.Type.StopPrice
	default:
		return false
	}
}
