// Package brokerage implements the Coordinator: the stateless glue that
// turns an OrderIntent into an Order, transmits it to the Exchange, and
// propagates the resulting fill through Order Store → Account Ledger →
// Position Store (spec §4.4).
package brokerage

import (
	"log"
	"time"

	"github.com/Overmuse/acticks/internal/account"
	"github.com/Overmuse/acticks/internal/acerr"
	"github.com/Overmuse/acticks/internal/asset"
	"github.com/Overmuse/acticks/internal/audit"
	"github.com/Overmuse/acticks/internal/exchange"
	"github.com/Overmuse/acticks/internal/order"
	"github.com/Overmuse/acticks/internal/position"
	"github.com/google/uuid"
)

// Coordinator is stateless: it holds only references to the four
// stores and the Asset Registry, looked up once at construction (spec
// §9: "the Coordinator holds no long-lived references to stores — it
// looks them up from a registry at each use"; here the registry is the
// struct itself, built once per process).
type Coordinator struct {
	Assets    *asset.Registry
	Orders    *order.Store
	Exchange  *exchange.Exchange
	Positions *position.Store
	Account   *account.Ledger
	Now       func() time.Time

	// WAL is the audit trail every fill and order-status transition is
	// recorded to. Nil disables auditing (tests that don't care about
	// the trail can pass nil).
	WAL *audit.WAL
}

// New builds a Coordinator over the given stores. wal may be nil.
func New(assets *asset.Registry, orders *order.Store, ex *exchange.Exchange, positions *position.Store, ledger *account.Ledger, now func() time.Time, wal *audit.WAL) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		Assets:    assets,
		Orders:    orders,
		Exchange:  ex,
		Positions: positions,
		Account:   ledger,
		Now:       now,
		WAL:       wal,
	}
}

// recordStatus audits o's current status. A no-op when no WAL is wired.
func (c *Coordinator) recordStatus(o order.Order) {
	if c.WAL == nil {
		return
	}
	c.WAL.Record(audit.Event{
		Kind:    "order_status",
		OrderID: o.ID.String(),
		Symbol:  o.Symbol,
		Status:  string(o.Status),
		At:      c.Now(),
	})
}

// recordFill audits a single TradeFill. A no-op when no WAL is wired.
func (c *Coordinator) recordFill(fill exchange.TradeFill) {
	if c.WAL == nil {
		return
	}
	c.WAL.Record(audit.Event{
		Kind:      "fill",
		OrderID:   fill.Order.ID.String(),
		Symbol:    fill.Order.Symbol,
		SignedQty: fill.SignedQty,
		Price:     fill.Price,
		At:        fill.Time,
	})
}

// Submit implements spec §4.4's submit(intent): it resolves the asset
// and constructs the Order synchronously, returns it to the caller, and
// continues the insert/transmit/propagate pipeline in a spawned
// goroutine (the only other suspension point besides the Coordinator
// itself, per spec §5).
func (c *Coordinator) Submit(intent order.Intent) (order.Order, error) {
	if intent.Qty == 0 {
		return order.Order{}, acerr.BadRequestf("qty must be non-zero")
	}

	a, err := c.Assets.BySymbol(intent.Symbol)
	if err != nil {
		return order.Order{}, err
	}

	now := c.Now()
	o := order.FromIntent(intent, a, now)
	result := *o

	go c.runSubmitPipeline(o)

	return result, nil
}

func (c *Coordinator) runSubmitPipeline(o *order.Order) {
	now := c.Now()
	o.SubmittedAt = &now
	o.UpdatedAt = &now

	c.Orders.Insert(o)
	c.recordStatus(*o)

	fill, err := c.Exchange.Transmit(o)
	if err != nil {
		log.Printf("brokerage: transmit failed for order %s: %v", o.ID, err)
		return
	}
	if fill != nil {
		c.propagate(*fill)
	}
}

// PriceTick forwards a market-data price update to the Exchange,
// propagates every resulting fill in FIFO order, and then marks the
// Position Store to the new price (spec §1: "forwarded to the Position
// Store to mark-to-market existing positions").
func (c *Coordinator) PriceTick(symbol string, price float64) {
	fills := c.Exchange.PriceTick(symbol, price)
	for _, f := range fills {
		c.propagate(f)
	}
	c.Positions.Mark(symbol, price)
}

// propagate is the strict Order → Account → Position sequence spec
// §4.4/§9 mandates: the Account reads the prior position's side before
// Position Store applies this fill, so Account must run first.
func (c *Coordinator) propagate(fill exchange.TradeFill) {
	result, err := c.Orders.ApplyFill(fill.Order.ID, uint32(absInt64(fill.SignedQty)), fill.Price)
	if err != nil {
		log.Printf("brokerage: order store apply_fill failed for %s: %v", fill.Order.ID, err)
		return
	}
	c.recordFill(fill)
	c.recordStatus(result.Order)

	c.Account.ApplyFill(account.Fill{
		Symbol: fill.Order.Symbol,
		Qty:    fill.SignedQty,
		Price:  fill.Price,
	})

	c.Positions.ApplyFill(position.Fill{
		AssetID: fill.Order.AssetID,
		Symbol:  fill.Order.Symbol,
		Class:   fill.Order.AssetClass,
		Qty:     fill.SignedQty,
		Price:   fill.Price,
	})

	if result.BecameFilled {
		c.releaseLegs(result.Order)
	}
}

// releaseLegs implements the OTO release rule (spec §4.2/§9): once a
// parent order reaches Filled, every Held leg it carries is released to
// New and transmitted to the Exchange, exactly like any other order.
func (c *Coordinator) releaseLegs(parent order.Order) {
	for _, leg := range parent.Legs {
		if leg.Status != order.StatusHeld {
			continue
		}
		released, err := c.Orders.ReleaseLeg(leg.ID)
		if err != nil {
			log.Printf("brokerage: release leg %s failed: %v", leg.ID, err)
			continue
		}
		c.recordStatus(released)

		legFill, err := c.Exchange.Transmit(leg)
		if err != nil {
			log.Printf("brokerage: transmit failed for leg %s: %v", leg.ID, err)
			continue
		}
		if legFill != nil {
			c.propagate(*legFill)
		}
	}
}

// Cancel cancels a single order and, if it was resting in the Exchange,
// removes it there too so a later price tick cannot fill it (spec §8
// scenario 4: the cancel race).
func (c *Coordinator) Cancel(id uuid.UUID) error {
	if err := c.Orders.Cancel(id); err != nil {
		return err
	}
	c.Exchange.CancelResting(id)
	return nil
}

// CancelAll sweeps every non-terminal order, best-effort, and removes
// any now-canceled orders still resting in the Exchange.
func (c *Coordinator) CancelAll() int {
	before := c.Orders.List()
	n := c.Orders.CancelAll()
	for _, o := range before {
		if !o.Status.Terminal() {
			c.Exchange.CancelResting(o.ID)
		}
	}
	return n
}

// ClosePosition builds the opposing closing intent for symbol and
// submits it through the normal pipeline (spec §4.3).
func (c *Coordinator) ClosePosition(symbol string) (order.Order, error) {
	pos, err := c.Positions.Get(symbol)
	if err != nil {
		return order.Order{}, err
	}
	side := order.Sell
	if pos.Side == position.Short {
		side = order.Buy
	}
	qty := pos.Qty
	if qty < 0 {
		qty = -qty
	}
	return c.Submit(order.Intent{
		Symbol: symbol,
		Qty:    uint32(qty),
		Side:   side,
		Type:   order.MarketOrder(),
	})
}

// CloseAllPositions closes every open position.
func (c *Coordinator) CloseAllPositions() ([]order.Order, error) {
	var orders []order.Order
	for _, pos := range c.Positions.List() {
		o, err := c.ClosePosition(pos.Symbol)
		if err != nil {
			return orders, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
