// Package tax turns a taxable amount and nominal rate into a
// jurisdiction-aware component breakdown.
package tax

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/munim-pos/munim/internal/money"
)

// Component names. An intra-jurisdiction charge is split into two equal
// local components; a cross-jurisdiction charge is a single component.
const (
	ComponentLocalA     = "local-a"
	ComponentLocalB     = "local-b"
	ComponentInterstate = "interstate"
)

// Component is one named share of the tax charge.
type Component struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount money.Minor     `json:"amount"`
}

// Breakdown is the ordered set of components for one taxable line. The line
// total is defined as the sum of the independently rounded components, never
// a separately rounded aggregate.
type Breakdown struct {
	Components []Component `json:"components"`
}

// Total sums the rounded component amounts.
func (b Breakdown) Total() money.Minor {
	var total money.Minor
	for _, c := range b.Components {
		total += c.Amount
	}
	return total
}

// ErrInvalidRate indicates the nominal rate is outside the configured set.
var ErrInvalidRate = errors.New("tax: rate not in allowed set")
