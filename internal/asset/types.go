// Package asset holds the immutable Asset Registry: the symbol→asset
// metadata table constructed once at startup and read thereafter
// without locking.
package asset

import "github.com/google/uuid"

// Class enumerates asset classes. Only US equity is in scope.
type Class string

const ClassUSEquity Class = "us_equity"

func (c Class) MarshalJSON() ([]byte, error) {
	return []byte(`"` + string(c) + `"`), nil
}

// Venue enumerates listing venues.
type Venue string

const (
	VenueAMEX     Venue = "AMEX"
	VenueARCA     Venue = "ARCA"
	VenueBATS     Venue = "BATS"
	VenueNYSE     Venue = "NYSE"
	VenueNASDAQ   Venue = "NASDAQ"
	VenueNYSEARCA Venue = "NYSEARCA"
	VenueOTC      Venue = "OTC"
)

// Status is the asset's trading status.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Asset is the stable identity for a tradable instrument.
type Asset struct {
	ID           uuid.UUID `json:"id"`
	Symbol       string    `json:"symbol"`
	Class        Class     `json:"class"`
	Venue        Venue     `json:"exchange"`
	Status       Status    `json:"status"`
	Tradable     bool      `json:"tradable"`
	Marginable   bool      `json:"marginable"`
	Shortable    bool      `json:"shortable"`
	EasyToBorrow bool      `json:"easy_to_borrow"`
}
