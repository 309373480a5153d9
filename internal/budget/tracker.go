// Package budget converts a monetary budget into a character cap and tracks
// consumption against it.
package budget

import (
	"fmt"
	"math"
)

// Defaults used by the generate command.
const (
	DefaultLimit                = 300.0
	DefaultCostPerThousandChars = 0.00025
)

// Tracker accumulates generated characters against a fixed cap. All
// comparisons use the integer cap computed at construction.
type Tracker struct {
	limit float64
	rate  float64
	cap   int64
	chars int64
}

// New creates a Tracker for limit currency units at rate per 1000 chars.
func New(limit, costPerThousandChars float64) (*Tracker, error) {
	if costPerThousandChars <= 0 || math.IsNaN(costPerThousandChars) || math.IsInf(costPerThousandChars, 0) {
		return nil, fmt.Errorf("cost per thousand chars must be positive, got %v", costPerThousandChars)
	}
	if limit < 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
		return nil, fmt.Errorf("budget must be a non-negative amount, got %v", limit)
	}
	return &Tracker{
		limit: limit,
		rate:  costPerThousandChars,
		cap:   charCap(limit, costPerThousandChars),
	}, nil
}

// charCap is floor(limit / rate * 1000). Quotients within 1e-6 of an
// integer snap to it first: 300/0.00025*1000 evaluates to 1199999999.9999998.
func charCap(limit, rate float64) int64 {
	v := limit / rate * 1000
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		v = r
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(v))
}

// Cap returns the maximum number of characters the budget pays for.
func (t *Tracker) Cap() int64 { return t.cap }

// Chars returns the characters recorded so far.
func (t *Tracker) Chars() int64 { return t.chars }

// Limit returns the configured budget.
func (t *Tracker) Limit() float64 { return t.limit }

// Rate returns the cost per 1000 characters.
func (t *Tracker) Rate() float64 { return t.rate }

// RemainingChars returns cap minus recorded characters. It is negative only
// if Restore was given more than the cap.
func (t *Tracker) RemainingChars() int64 {
	return t.cap - t.chars
}

// WouldExceed reports whether recording n more characters would pass the cap.
func (t *Tracker) WouldExceed(n int64) bool {
	return t.chars+n > t.cap
}

// Remains reports whether any budget is left.
func (t *Tracker) Remains() bool {
	return t.chars < t.cap
}

// Record adds n characters to the running total.
func (t *Tracker) Record(n int64) {
	t.chars += n
}

// Restore re-seeds the total from a persisted run state.
func (t *Tracker) Restore(chars int64) {
	t.chars = chars
}

// Cost returns the money spent on recorded characters.
func (t *Tracker) Cost() float64 {
	return t.CostOf(t.chars)
}

// CostOf returns the price of n characters at the tracker's rate.
func (t *Tracker) CostOf(n int64) float64 {
	return float64(n) / 1000 * t.rate
}

// Fraction returns how much of the cap is used, in [0, 1].
func (t *Tracker) Fraction() float64 {
	if t.cap == 0 {
		return 1
	}
	return min(float64(t.chars)/float64(t.cap), 1)
}
