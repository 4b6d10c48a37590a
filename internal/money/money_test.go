package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestParseMajor(t *testing.T) {
	m, err := ParseMajor("1234.50", currency.INR)
	require.NoError(t, err)
	assert.Equal(t, Minor(123450), m)

	m, err = ParseMajor("0.01", currency.INR)
	require.NoError(t, err)
	assert.Equal(t, Minor(1), m)

	_, err = ParseMajor("1.005", currency.INR)
	require.ErrorIs(t, err, ErrFractionalMinorUnit)

	_, err = ParseMajor("abc", currency.INR)
	require.Error(t, err)
}

func TestFormatMajor(t *testing.T) {
	assert.Equal(t, "1234.50", FormatMajor(Minor(123450), currency.INR))
	assert.Equal(t, "0.00", FormatMajor(Minor(0), currency.INR))
	assert.Equal(t, "-5.25", FormatMajor(Minor(-525), currency.INR))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, Minor(26), RoundHalfUp(decimal.RequireFromString("25.5")))
	assert.Equal(t, Minor(25), RoundHalfUp(decimal.RequireFromString("25.4")))
	assert.Equal(t, Minor(900), RoundHalfUp(decimal.RequireFromString("900")))
}
