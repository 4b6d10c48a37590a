package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/munim-pos/munim/internal/money"
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// Computer computes tax breakdowns for a tenant's home jurisdiction.
type Computer struct {
	home    string
	allowed []decimal.Decimal
}

// NewComputer builds a Computer. allowedRates is the closed set of nominal
// rates the tenant's ruleset permits (percentages, e.g. 0, 5, 12, 18, 28).
func NewComputer(homeJurisdiction string, allowedRates []decimal.Decimal) *Computer {
	return &Computer{home: homeJurisdiction, allowed: allowedRates}
}

// Home returns the configured home jurisdiction code.
func (c *Computer) Home() string {
	return c.home
}

// Compute splits the tax on a taxable minor-unit amount. A counterparty in
// the home jurisdiction yields two equal components at half the rate each; a
// counterparty elsewhere yields a single component at the full rate. Each
// component is rounded half-up independently.
func (c *Computer) Compute(taxable money.Minor, rate decimal.Decimal, counterpartyJurisdiction string) (Breakdown, error) {
	if !c.rateAllowed(rate) {
		return Breakdown{}, fmt.Errorf("%w: %s", ErrInvalidRate, rate.String())
	}
	if counterpartyJurisdiction == "" {
		counterpartyJurisdiction = c.home
	}
	base := money.Decimal(taxable)
	if counterpartyJurisdiction == c.home {
		half := rate.Div(two)
		amount := money.RoundHalfUp(base.Mul(half).Div(hundred))
		return Breakdown{Components: []Component{
			{Name: ComponentLocalA, Rate: half, Amount: amount},
			{Name: ComponentLocalB, Rate: half, Amount: amount},
		}}, nil
	}
	amount := money.RoundHalfUp(base.Mul(rate).Div(hundred))
	return Breakdown{Components: []Component{
		{Name: ComponentInterstate, Rate: rate, Amount: amount},
	}}, nil
}

func (c *Computer) rateAllowed(rate decimal.Decimal) bool {
	for _, r := range c.allowed {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}
