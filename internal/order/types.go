// Package order holds the Order/OrderIntent data model and the Order
// Store actor: the authoritative map of orders by id and client-order-id,
// and the lifecycle transitions defined in spec §4.2.
package order

import (
	"time"

	"github.com/Overmuse/acticks/internal/asset"
	"github.com/google/uuid"
)

// Side is the buy/sell direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Neg returns the opposite side, used when building an OTO child leg.
func (s Side) Neg() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// TimeInForce enumerates order durations.
type TimeInForce string

const (
	DAY TimeInForce = "day"
	GTC TimeInForce = "gtc"
	OPG TimeInForce = "opg"
	CLS TimeInForce = "cls"
	IOC TimeInForce = "ioc"
	FOK TimeInForce = "fok"
)

// TypeKind enumerates order types.
type TypeKind string

const (
	Market    TypeKind = "market"
	Limit     TypeKind = "limit"
	Stop      TypeKind = "stop"
	StopLimit TypeKind = "stop_limit"
)

// Type is the order-type tagged union: Market carries no price, Limit
// carries a limit price, Stop carries a stop price, StopLimit carries
// both.
type Type struct {
	Kind       TypeKind
	LimitPrice float64
	StopPrice  float64
}

func MarketOrder() Type                 { return Type{Kind: Market} }
func LimitOrder(limitPrice float64) Type { return Type{Kind: Limit, LimitPrice: limitPrice} }
func StopOrder(stopPrice float64) Type   { return Type{Kind: Stop, StopPrice: stopPrice} }
func StopLimitOrder(limitPrice, stopPrice float64) Type {
	return Type{Kind: StopLimit, LimitPrice: limitPrice, StopPrice: stopPrice}
}

// Status is an order's lifecycle state (spec §4.2).
type Status string

const (
	StatusNew             Status = "new"
	StatusAccepted        Status = "accepted"
	StatusPendingNew      Status = "pending_new"
	StatusHeld            Status = "held"
	StatusRejected        Status = "rejected"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
	StatusCanceled        Status = "canceled"
	StatusExpired         Status = "expired"
	StatusReplaced        Status = "replaced"
	StatusPendingCancel   Status = "pending_cancel"
	StatusPendingReplace  Status = "pending_replace"
)

// Terminal reports whether status is one of the absorbing terminal
// states: Filled, Canceled, Expired, Rejected, Replaced.
func (s Status) Terminal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusExpired, StatusRejected, StatusReplaced:
		return true
	default:
		return false
	}
}

// ClassKind enumerates order classes.
type ClassKind string

const (
	ClassSimple  ClassKind = "simple"
	ClassBracket ClassKind = "bracket"
	ClassOCO     ClassKind = "oco"
	ClassOTO     ClassKind = "oto"
)

// TakeProfitSpec is the take-profit leg of a bracket/OCO/OTO order.
type TakeProfitSpec struct {
	LimitPrice float64
}

// StopLossSpec is the stop-loss leg of a bracket/OCO/OTO order. LimitPrice
// is optional: absent means a plain stop, present means a stop-limit.
type StopLossSpec struct {
	StopPrice  float64
	LimitPrice *float64
}

// Class describes simple vs. multi-leg (bracket/OCO/OTO) order classes.
type Class struct {
	Kind       ClassKind
	TakeProfit *TakeProfitSpec
	StopLoss   *StopLossSpec
}

// Intent is the client-supplied, immutable-once-accepted request to open
// an order.
type Intent struct {
	Symbol        string
	Qty           uint32
	Side          Side
	Type          Type
	TimeInForce   TimeInForce
	ExtendedHours bool
	ClientOrderID *string
	Class         Class
}

// Order is the authoritative, mutable order record.
type Order struct {
	ID             uuid.UUID
	ClientOrderID  string
	AssetID        uuid.UUID
	Symbol         string
	AssetClass     asset.Class
	Qty            uint32
	FilledQty      uint32
	Type           Type
	Side           Side
	TimeInForce    TimeInForce
	ExtendedHours  bool
	FilledAvgPrice *float64
	Status         Status

	CreatedAt   time.Time
	UpdatedAt   *time.Time
	SubmittedAt *time.Time
	FilledAt    *time.Time
	ExpiredAt   *time.Time
	CanceledAt  *time.Time
	FailedAt    *time.Time
	ReplacedAt  *time.Time

	ReplacedBy *uuid.UUID
	Replaces   *uuid.UUID

	Legs []*Order
}

// FromIntent builds a new Order in state New from a client intent and
// the resolved Asset. If the intent carries an OTO class, the take-
// profit or stop-loss leg is constructed immediately in state Held, per
// spec §4.2 ("When a parent order is created, its legs are constructed
// immediately in state Held").
func FromIntent(in Intent, a asset.Asset, now time.Time) *Order {
	cid := uuid.NewString()
	if in.ClientOrderID != nil && *in.ClientOrderID != "" {
		cid = *in.ClientOrderID
	}

	o := &Order{
		ID:            uuid.New(),
		ClientOrderID: cid,
		AssetID:       a.ID,
		Symbol:        in.Symbol,
		AssetClass:    a.Class,
		Qty:           in.Qty,
		Type:          in.Type,
		Side:          in.Side,
		TimeInForce:   in.TimeInForce,
		ExtendedHours: in.ExtendedHours,
		Status:        StatusNew,
		CreatedAt:     now,
	}

	if leg := buildLeg(in, a, now); leg != nil {
		o.Legs = []*Order{leg}
	}
	return o
}

// buildLeg implements the OTO release-rule contract from spec §4.2: the
// leg is the opposing side of the parent, created Held, and released to
// the Exchange only once the parent reaches Filled. Bracket and OCO leg
// construction is left as the extension point spec §4.2/§9 documents
// (full inter-leg matching is out of scope for this core).
func buildLeg(in Intent, a asset.Asset, now time.Time) *Order {
	if in.Class.Kind != ClassOTO {
		return nil
	}
	var legType Type
	switch {
	case in.Class.TakeProfit != nil:
		legType = LimitOrder(in.Class.TakeProfit.LimitPrice)
	case in.Class.StopLoss != nil:
		if in.Class.StopLoss.LimitPrice != nil {
			legType = StopLimitOrder(*in.Class.StopLoss.LimitPrice, in.Class.StopLoss.StopPrice)
		} else {
			legType = StopOrder(in.Class.StopLoss.StopPrice)
		}
	default:
		return nil
	}
	return &Order{
		ID:            uuid.New(),
		ClientOrderID: uuid.NewString(),
		AssetID:       a.ID,
		Symbol:        in.Symbol,
		AssetClass:    a.Class,
		Qty:           in.Qty,
		Type:          legType,
		Side:          in.Side.Neg(),
		TimeInForce:   in.TimeInForce,
		Status:        StatusHeld,
		CreatedAt:     now,
	}
}
