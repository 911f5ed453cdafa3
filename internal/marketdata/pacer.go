package marketdata

import (
	"context"
	"time"
)

// Pacer replays a historical trade stream against wall-clock time,
// scaled by rate. It is the deterministic stand-in for the teacher's
// live websocket feed: instead of consuming network frames as they
// arrive, it schedules pre-fetched Trades according to spec §6's
// formula — `(trade.timestamp − simulated_epoch) / rate` nanoseconds
// relative to the actual epoch captured when the first trade is
// dispatched.
type Pacer struct {
	Rate float64
	Now  func() time.Time
	// Sleep is overridable for tests that want to assert scheduling
	// without actually waiting wall-clock time.
	Sleep func(context.Context, time.Duration) error
}

// NewPacer builds a Pacer at the given replay rate (synthetic seconds
// per wall-clock second). A rate of 1.0 replays at the original pace;
// higher values replay faster.
func NewPacer(rate float64) *Pacer {
	if rate <= 0 {
		rate = 1.0
	}
	return &Pacer{
		Rate:  rate,
		Now:   time.Now,
		Sleep: ctxSleep,
	}
}

// Replay dispatches trades, assumed sorted by non-decreasing Timestamp,
// to dispatch in order, pacing each by the spec §6 formula. It returns
// early if ctx is canceled.
func (p *Pacer) Replay(ctx context.Context, trades []Trade, dispatch func(Trade)) error {
	if len(trades) == 0 {
		return nil
	}

	actualEpoch := p.Now()
	simulatedEpoch := trades[0].Timestamp

	for _, tr := range trades {
		delta := float64(tr.Timestamp-simulatedEpoch) / p.Rate
		target := actualEpoch.Add(time.Duration(delta))

		if wait := target.Sub(p.Now()); wait > 0 {
			if err := p.Sleep(ctx, wait); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dispatch(tr)
	}
	return nil
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
