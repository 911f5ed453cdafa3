// Package marketdata provides the replayed trade stream: a Trade wire
// type, a Pacer that schedules historical trades against wall-clock
// time at a configurable rate, and a PolygonFeed that consumes the live
// websocket equivalent.
package marketdata

// Tape identifies the consolidated tape a trade was reported on.
type Tape uint8

const (
	TapeA Tape = 1
	TapeB Tape = 2
	TapeC Tape = 3
)

// Trade is a single market-data print, using Polygon's abbreviated
// field names (spec §6).
type Trade struct {
	Symbol     string `json:"sym"`
	TradeID    string `json:"i"`
	ExchangeID uint8  `json:"x"`
	Price      float64 `json:"p"`
	Size       uint32 `json:"s"`
	Conditions []uint8 `json:"c,omitempty"`
	Timestamp  int64  `json:"t"` // unix nanoseconds
	Tape       Tape   `json:"z"`
}
