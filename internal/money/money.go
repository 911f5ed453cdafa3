// Package money provides the decimal-string JSON encoding spec §6
// requires for monetary and quantity fields: a float64 that marshals as
// a quoted decimal string and unmarshals from either a quoted string or
// a bare JSON number.
package money

import (
	"strconv"
	"strings"
)

// Decimal is a float64 that round-trips through JSON as a decimal
// string, the wire format of the Position and Account monetary fields.
type Decimal float64

func (d Decimal) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(d), 'f', -1, 64)
	return []byte(`"` + s + `"`), nil
}

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) Float() float64 { return float64(d) }
