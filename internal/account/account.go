// Package account implements the Account Ledger: the tier-derived
// margin account and its cash/margin arithmetic on each fill (spec
// §4.5).
package account

import (
	"github.com/Overmuse/acticks/internal/mailbox"
	"github.com/Overmuse/acticks/internal/money"
	"github.com/Overmuse/acticks/internal/position"
)

// Status is the account's operating status.
type Status string

const StatusActive Status = "ACTIVE"

// Account is the ledger snapshot described in spec §2/§4.5. Monetary
// fields marshal as decimal strings (spec §6).
type Account struct {
	ID       string        `json:"id"`
	Status   Status        `json:"status"`
	Currency string        `json:"currency"`
	Cash     money.Decimal `json:"cash"`

	LongMarketValue  money.Decimal `json:"long_market_value"`
	ShortMarketValue money.Decimal `json:"short_market_value"`
	PortfolioValue   money.Decimal `json:"portfolio_value"`
	Equity           money.Decimal `json:"equity"`
	LastEquity       money.Decimal `json:"last_equity"`

	Multiplier            int           `json:"multiplier"`
	BuyingPower           money.Decimal `json:"buying_power"`
	RegTBuyingPower       money.Decimal `json:"regt_buying_power"`
	DaytradingBuyingPower money.Decimal `json:"daytrading_buying_power"`

	InitialMargin     money.Decimal `json:"initial_margin"`
	MaintenanceMargin money.Decimal `json:"maintenance_margin"`
	SMA               money.Decimal `json:"sma"`
	DaytradeCount     int           `json:"daytrade_count"`

	PatternDayTrader     bool `json:"pattern_day_trader"`
	TradeSuspendedByUser bool `json:"trade_suspended_by_user"`
	TradingBlocked       bool `json:"trading_blocked"`
	TransfersBlocked     bool `json:"transfers_blocked"`
	AccountBlocked       bool `json:"account_blocked"`
	ShortingEnabled      bool `json:"shorting_enabled"`
}

// tier is a row of the derived-at-construction table in spec §4.5.
type tier struct {
	multiplier              int
	shortingEnabled         bool
	daytradingBuyingPowerOf func(cash float64) float64
	regtBuyingPowerOf       func(cash float64) float64
}

func tierFor(cash float64) tier {
	switch {
	case cash < 2000:
		return tier{
			multiplier:              1,
			shortingEnabled:         false,
			daytradingBuyingPowerOf: func(float64) float64 { return 0 },
			regtBuyingPowerOf:       func(c float64) float64 { return c },
		}
	case cash < 25000:
		return tier{
			multiplier:              2,
			shortingEnabled:         true,
			daytradingBuyingPowerOf: func(float64) float64 { return 0 },
			regtBuyingPowerOf:       func(c float64) float64 { return 2 * c },
		}
	default:
		return tier{
			multiplier:              4,
			shortingEnabled:         true,
			daytradingBuyingPowerOf: func(c float64) float64 { return 4 * c },
			regtBuyingPowerOf:       func(c float64) float64 { return 2 * c },
		}
	}
}

// New constructs an Account from initial cash, deriving the tier
// coefficients from the table in spec §4.5.
func New(cash float64) Account {
	t := tierFor(cash)
	return Account{
		ID:                    "account-1",
		Status:                StatusActive,
		Currency:              "USD",
		Cash:                  money.Decimal(cash),
		PortfolioValue:        money.Decimal(cash),
		Equity:                money.Decimal(cash),
		LastEquity:            money.Decimal(cash),
		Multiplier:            t.multiplier,
		BuyingPower:           money.Decimal(float64(t.multiplier) * cash),
		RegTBuyingPower:       money.Decimal(t.regtBuyingPowerOf(cash)),
		DaytradingBuyingPower: money.Decimal(t.daytradingBuyingPowerOf(cash)),
		ShortingEnabled:       t.shortingEnabled,
	}
}

// Fill is the subset of exchange.TradeFill the Account Ledger needs.
type Fill struct {
	Symbol string
	Qty    int64 // signed: +buy, -sell
	Price  float64
}

// Ledger is the Account Ledger actor. It holds a reference to the
// Position Store so that, per spec §9, it can read the prior position's
// side before updating its long/short market value — completing its own
// cash/margin transition synchronously first, then issuing the blocking
// query.
type Ledger struct {
	mb        *mailbox.Mailbox
	account   Account
	positions *position.Store
}

// NewLedger starts an Account Ledger actor against the given Position
// Store.
func NewLedger(initialCash float64, positions *position.Store) *Ledger {
	return &Ledger{
		mb:        mailbox.New(64),
		account:   New(initialCash),
		positions: positions,
	}
}

// Close shuts the actor down.
func (l *Ledger) Close() { l.mb.Close() }

// Get returns a copy of the current Account.
func (l *Ledger) Get() Account {
	return mailbox.Ask(l.mb, func() Account { return l.account })
}

// Reset recreates the Account from fresh cash, the testing affordance
// spec §2 mentions ("Account: recreated when cash is reset").
func (l *Ledger) Reset(cash float64) {
	mailbox.Ask(l.mb, func() struct{} {
		l.account = New(cash)
		return struct{}{}
	})
}

// ApplyFill folds a fill into cash, margin, and long/short market value
// per spec §4.5. The account's own cash/margin mutation completes
// synchronously before the handler issues its query to the Position
// Store for the prior position's side (spec §9's corrected ordering: a
// store handler completes its own local transition before awaiting
// another store).
func (l *Ledger) ApplyFill(f Fill) {
	mailbox.Ask(l.mb, func() struct{} {
		b := f.Price * float64(f.Qty)
		a := &l.account

		a.Cash = money.Decimal(float64(a.Cash) - b)
		a.InitialMargin = money.Decimal(float64(a.InitialMargin) + 0.5*absf(b))
		a.DaytradeCount++
		a.DaytradingBuyingPower = money.Decimal(maxf(float64(a.Equity)-float64(a.InitialMargin), 0) * float64(a.Multiplier))
		a.RegTBuyingPower = money.Decimal(float64(a.BuyingPower) / 2)

		prior, err := l.positions.Get(f.Symbol)
		long := f.Qty > 0
		if err == nil {
			long = prior.Side == position.Long
		}
		if long {
			a.LongMarketValue = money.Decimal(float64(a.LongMarketValue) + b)
		} else {
			a.ShortMarketValue = money.Decimal(float64(a.ShortMarketValue) + b)
		}
		return struct{}{}
	})
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
