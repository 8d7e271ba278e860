package domain

import "math"

// Order is the read-only snapshot the order collaborator exposes.
// Total is in minor units of the store's base currency (USD cents).
type Order struct {
	ID        string `json:"id"`
	DisplayID int64  `json:"display_id"` // human-facing sequential number
	Total     int64  `json:"total"`
}

// ExpectedTiyin converts the order total to the gateway's minor unit at
// the given UZS-per-USD rate. The cents→dollars and UZS→tiyin scale
// factors cancel, so a single rounded multiplication is exact:
// $45.00 (4500 cents) at 12750 gives 57,375,000 tiyin.
func (o *Order) ExpectedTiyin(rate float64) int64 {
	return int64(math.Round(float64(o.Total) * rate))
}
