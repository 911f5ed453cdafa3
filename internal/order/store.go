package order

import (
	"sort"
	"time"

	"github.com/Overmuse/acticks/internal/acerr"
	"github.com/Overmuse/acticks/internal/mailbox"
	"github.com/google/uuid"
)

// Store is the Order Store actor: the single owner of all Order state.
// Every public method hops through the mailbox, so handlers never run
// concurrently with each other (spec §5).
type Store struct {
	mb       *mailbox.Mailbox
	byID     map[uuid.UUID]*Order
	byClient map[string]*Order
	now      func() time.Time
}

// NewStore starts a new Order Store actor.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		mb:       mailbox.New(64),
		byID:     make(map[uuid.UUID]*Order),
		byClient: make(map[string]*Order),
		now:      now,
	}
}

// Close shuts the actor down. Intended for tests and graceful exit.
func (s *Store) Close() { s.mb.Close() }

// Insert records a newly-created order (and any Held legs it carries).
func (s *Store) Insert(o *Order) {
	mailbox.Ask(s.mb, func() struct{} {
		s.insert(o)
		return struct{}{}
	})
}

func (s *Store) insert(o *Order) {
	s.byID[o.ID] = o
	s.byClient[o.ClientOrderID] = o
	for _, leg := range o.Legs {
		s.byID[leg.ID] = leg
		s.byClient[leg.ClientOrderID] = leg
	}
}

// Get returns a copy of the order with the given id.
func (s *Store) Get(id uuid.UUID) (Order, error) {
	return mailbox.Ask(s.mb, func() orderResult {
		o, ok := s.byID[id]
		if !ok {
			return orderResult{err: acerr.NotFoundf("order %s", id)}
		}
		return orderResult{order: *o}
	}).unwrap()
}

// GetByClientID returns a copy of the order with the given client-order-id.
func (s *Store) GetByClientID(clientID string) (Order, error) {
	return mailbox.Ask(s.mb, func() orderResult {
		o, ok := s.byClient[clientID]
		if !ok {
			return orderResult{err: acerr.NotFoundf("order client_order_id %s", clientID)}
		}
		return orderResult{order: *o}
	}).unwrap()
}

// List returns a snapshot of every order, parents and legs alike, sorted
// by CreatedAt descending (newest first).
func (s *Store) List() []Order {
	return mailbox.Ask(s.mb, func() []Order {
		out := make([]Order, 0, len(s.byID))
		for _, o := range s.byID {
			out = append(out, *o)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return out
	})
}

type orderResult struct {
	order Order
	err   error
}

func (r orderResult) unwrap() (Order, error) { return r.order, r.err }

// Cancel moves a single order to Canceled, provided it is not already in
// a terminal state. A terminal order returns acerr.Uncancelable (spec
// §4.2: "canceling a terminal order is an error, not a no-op").
func (s *Store) Cancel(id uuid.UUID) error {
	return mailbox.Ask(s.mb, func() error {
		o, ok := s.byID[id]
		if !ok {
			return acerr.NotFoundf("order %s", id)
		}
		if o.Status.Terminal() {
			return acerr.Uncancelablef("order %s is already %s", id, o.Status)
		}
		s.transitionCanceled(o)
		return nil
	})
}

// CancelAll cancels every non-terminal order and reports how many were
// actually canceled. Unlike Cancel, it never errors on an
// already-terminal order: it simply skips it (spec §4.2: "CancelAll is a
// best-effort sweep, not a batch of Cancel calls").
func (s *Store) CancelAll() int {
	return mailbox.Ask(s.mb, func() int {
		n := 0
		for _, o := range s.byID {
			if o.Status.Terminal() {
				continue
			}
			s.transitionCanceled(o)
			n++
		}
		return n
	})
}

func (s *Store) transitionCanceled(o *Order) {
	now := s.now()
	o.Status = StatusCanceled
	o.CanceledAt = &now
	o.UpdatedAt = &now
}

// FillResult is returned by ApplyFill: the updated order plus whether
// this fill completed it.
type FillResult struct {
	Order         Order
	FilledQty     uint32
	FillPrice     float64
	BecameFilled  bool
	PriorStatus   Status
}

// ApplyFill records a fill against an order, updating FilledQty,
// FilledAvgPrice (quantity-weighted), and Status. A fill that completes
// the order's remaining quantity moves it to Filled; otherwise it moves
// to PartiallyFilled. Per spec §4.2 the Exchange only ever emits
// full-quantity fills in this core (partial fills are a documented
// extension point), so BecameFilled is always true on the single fill
// path, but the weighted-average math is written generally.
func (s *Store) ApplyFill(id uuid.UUID, qty uint32, price float64) (FillResult, error) {
	return mailbox.Ask(s.mb, func() fillOutcome {
		o, ok := s.byID[id]
		if !ok {
			return fillOutcome{err: acerr.NotFoundf("order %s", id)}
		}
		if o.Status.Terminal() {
			return fillOutcome{err: acerr.Uncancelablef("order %s is already %s", id, o.Status)}
		}

		prior := o.Status
		prevQty := o.FilledQty
		prevAvg := 0.0
		if o.FilledAvgPrice != nil {
			prevAvg = *o.FilledAvgPrice
		}

		newQty := prevQty + qty
		newAvg := (prevAvg*float64(prevQty) + price*float64(qty)) / float64(newQty)

		now := s.now()
		o.FilledQty = newQty
		o.FilledAvgPrice = &newAvg
		o.UpdatedAt = &now

		becameFilled := newQty >= o.Qty
		if becameFilled {
			o.Status = StatusFilled
			o.FilledAt = &now
		} else {
			o.Status = StatusPartiallyFilled
		}

		return fillOutcome{result: FillResult{
			Order:        *o,
			FilledQty:    qty,
			FillPrice:    price,
			BecameFilled: becameFilled,
			PriorStatus:  prior,
		}}
	}).unwrap()
}

type fillOutcome struct {
	result FillResult
	err    error
}

func (r fillOutcome) unwrap() (FillResult, error) { return r.result, r.err }

// ReleaseLeg moves a Held leg to New, the transition that happens once
// its parent OTO order reaches Filled (spec §4.2).
func (s *Store) ReleaseLeg(id uuid.UUID) (Order, error) {
	return mailbox.Ask(s.mb, func() orderResult {
		o, ok := s.byID[id]
		if !ok {
			return orderResult{err: acerr.NotFoundf("order %s", id)}
		}
		if o.Status != StatusHeld {
			return orderResult{err: acerr.BadRequestf("order %s is not held", id)}
		}
		now := s.now()
		o.Status = StatusNew
		o.UpdatedAt = &now
		return orderResult{order: *o}
	}).unwrap()
}
