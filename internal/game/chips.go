package game

import (
	"math"
	"strconv"
)

// Chips is a chip amount in minor units (hundredths of a chip). Blinds may
// be fractional, so all arithmetic and comparisons happen in minor units;
// the wire format is a plain decimal number.
type Chips int64

// ChipsFromFloat converts a decimal chip amount to minor units.
func ChipsFromFloat(f float64) Chips {
	return Chips(math.Round(f * 100))
}

// Float returns the decimal chip amount.
func (c Chips) Float() float64 {
	return float64(c) / 100
}

// String formats the amount as a decimal, e.g. "0.5" or "100".
func (c Chips) String() string {
	return strconv.FormatFloat(c.Float(), 'f', -1, 64)
}

// MarshalJSON renders the amount as a JSON number.
func (c Chips) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON parses a JSON number into minor units.
func (c *Chips) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*c = ChipsFromFloat(f)
	return nil
}
