package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munim-pos/munim/internal/money"
)

func validSale() Event {
	return Event{
		TenantID:       uuid.New(),
		Type:           TypeSale,
		Date:           time.Now(),
		ActorID:        1,
		IdempotencyKey: "key-1",
		Trade: &TradePayload{
			Settlement: SettlementCash,
			PartyName:  "Acme",
			TaxRate:    decimal.NewFromInt(18),
			Items:      []LineItem{{ItemID: 1, Qty: 2, UnitPrice: 5000}},
		},
	}
}

func TestValidateAcceptsWellFormedEvents(t *testing.T) {
	require.NoError(t, validSale().Validate())

	payment := Event{
		TenantID:       uuid.New(),
		Type:           TypePayment,
		Date:           time.Now(),
		IdempotencyKey: "key-2",
		Payment: &PaymentPayload{
			Direction:  PaymentIn,
			Settlement: SettlementBank,
			PartyName:  "Acme",
			Amount:     10000,
		},
	}
	require.NoError(t, payment.Validate())

	adjustment := Event{
		TenantID:       uuid.New(),
		Type:           TypeAdjustment,
		Date:           time.Now(),
		IdempotencyKey: "key-3",
		Adjustment:     &AdjustmentPayload{ItemID: 1, QtyDelta: -2, UnitCost: 100, Reason: "damage"},
	}
	require.NoError(t, adjustment.Validate())
}

func TestValidateRequiresIdempotencyKey(t *testing.T) {
	ev := validSale()
	ev.IdempotencyKey = ""
	require.ErrorIs(t, ev.Validate(), ErrMissingIdempotencyKey)
}

func TestValidateRejectsPayloadMismatch(t *testing.T) {
	ev := validSale()
	ev.Trade = nil
	ev.CashTxn = &CashTxnPayload{Kind: CashExpense, Amount: 100}
	require.ErrorIs(t, ev.Validate(), ErrPayloadMismatch)

	both := validSale()
	both.CashTxn = &CashTxnPayload{Kind: CashExpense, Amount: 100}
	require.ErrorIs(t, both.Validate(), ErrPayloadMismatch)
}

func TestValidateRejectsBadTradeLines(t *testing.T) {
	ev := validSale()
	ev.Trade.Items = nil
	require.Error(t, ev.Validate())

	ev = validSale()
	ev.Trade.Items[0].Qty = 0
	require.Error(t, ev.Validate())

	ev = validSale()
	ev.Trade.TaxRate = decimal.NewFromInt(-1)
	require.Error(t, ev.Validate())
}

func TestValidateRejectsZeroTotalTrade(t *testing.T) {
	ev := validSale()
	for i := range ev.Trade.Items {
		ev.Trade.Items[i].UnitPrice = 0
	}
	require.Error(t, ev.Validate())
}

func TestTaxableSumsLines(t *testing.T) {
	p := TradePayload{Items: []LineItem{
		{ItemID: 1, Qty: 3, UnitPrice: 100},
		{ItemID: 2, Qty: 1, UnitPrice: 250},
	}}
	assert.Equal(t, money.Minor(550), p.Taxable())
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, TypeSale.TaxBearing())
	assert.True(t, TypeReturnOut.TaxBearing())
	assert.False(t, TypePayment.TaxBearing())
	assert.False(t, TypeCashTxn.TaxBearing())

	assert.True(t, TypeAdjustment.StockAffecting())
	assert.False(t, TypeCashTxn.StockAffecting())
}
