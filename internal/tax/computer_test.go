package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munim-pos/munim/internal/money"
)

func newTestComputer() *Computer {
	return NewComputer("KA", []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(5),
		decimal.NewFromInt(12),
		decimal.NewFromInt(18),
		decimal.NewFromInt(28),
	})
}

func TestComputeIntraJurisdictionSplitsHalfHalf(t *testing.T) {
	c := newTestComputer()

	breakdown, err := c.Compute(money.Minor(10000), decimal.NewFromInt(18), "KA")
	require.NoError(t, err)
	require.Len(t, breakdown.Components, 2)

	assert.Equal(t, ComponentLocalA, breakdown.Components[0].Name)
	assert.Equal(t, ComponentLocalB, breakdown.Components[1].Name)
	assert.Equal(t, money.Minor(900), breakdown.Components[0].Amount)
	assert.Equal(t, money.Minor(900), breakdown.Components[1].Amount)
	assert.Equal(t, money.Minor(1800), breakdown.Total())
	assert.True(t, breakdown.Components[0].Rate.Equal(decimal.NewFromInt(9)))
}

func TestComputeInterJurisdictionSingleComponent(t *testing.T) {
	c := newTestComputer()

	breakdown, err := c.Compute(money.Minor(10000), decimal.NewFromInt(18), "MH")
	require.NoError(t, err)
	require.Len(t, breakdown.Components, 1)

	assert.Equal(t, ComponentInterstate, breakdown.Components[0].Name)
	assert.Equal(t, money.Minor(1800), breakdown.Components[0].Amount)
	assert.True(t, breakdown.Components[0].Rate.Equal(decimal.NewFromInt(18)))
}

func TestComputeEmptyCounterpartyDefaultsToHome(t *testing.T) {
	c := newTestComputer()

	breakdown, err := c.Compute(money.Minor(10000), decimal.NewFromInt(18), "")
	require.NoError(t, err)
	assert.Len(t, breakdown.Components, 2)
}

func TestComputeRoundsComponentsIndependently(t *testing.T) {
	c := newTestComputer()

	// 5% of 900 is 45; the intra split is two components of 22.5 each,
	// which round half-up to 23 independently. The charge is the sum of the
	// rounded components: 46, one unit more than the interstate case.
	breakdown, err := c.Compute(money.Minor(900), decimal.NewFromInt(5), "KA")
	require.NoError(t, err)
	require.Len(t, breakdown.Components, 2)
	assert.Equal(t, money.Minor(23), breakdown.Components[0].Amount)
	assert.Equal(t, money.Minor(23), breakdown.Components[1].Amount)
	assert.Equal(t, money.Minor(46), breakdown.Total())

	inter, err := c.Compute(money.Minor(900), decimal.NewFromInt(5), "MH")
	require.NoError(t, err)
	assert.Equal(t, money.Minor(45), inter.Total())
}

func TestComputeZeroRate(t *testing.T) {
	c := newTestComputer()

	breakdown, err := c.Compute(money.Minor(10000), decimal.Zero, "KA")
	require.NoError(t, err)
	assert.Equal(t, money.Minor(0), breakdown.Total())
}

func TestComputeRejectsUnknownRate(t *testing.T) {
	c := newTestComputer()

	_, err := c.Compute(money.Minor(10000), decimal.NewFromInt(17), "KA")
	require.ErrorIs(t, err, ErrInvalidRate)
}
