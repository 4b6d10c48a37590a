package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munim-pos/munim/internal/event"
	"github.com/munim-pos/munim/internal/money"
	"github.com/munim-pos/munim/internal/tax"
)

func tradeEvent(t event.Type, settlement event.Settlement) event.Event {
	return event.Event{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		Type:           t,
		Date:           time.Now(),
		IdempotencyKey: "k",
		Trade: &event.TradePayload{
			Settlement: settlement,
			PartyName:  "Acme",
			TaxRate:    decimal.NewFromInt(18),
			Items:      []event.LineItem{{ItemID: 1, Qty: 2, UnitPrice: 5000}},
		},
	}
}

func intraBreakdown() tax.Breakdown {
	return tax.Breakdown{Components: []tax.Component{
		{Name: tax.ComponentLocalA, Rate: decimal.NewFromInt(9), Amount: 900},
		{Name: tax.ComponentLocalB, Rate: decimal.NewFromInt(9), Amount: 900},
	}}
}

func lineFor(t *testing.T, entry *JournalEntry, code string) JournalLine {
	t.Helper()
	for _, line := range entry.Lines {
		if line.AccountCode == code {
			return line
		}
	}
	t.Fatalf("no line for account %s", code)
	return JournalLine{}
}

func TestBuildCashSale(t *testing.T) {
	b := NewBuilder()
	ev := tradeEvent(event.TypeSale, event.SettlementCash)

	entry, err := b.Build(ev, intraBreakdown())
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NoError(t, entry.Validate())

	assert.Equal(t, money.Minor(11800), lineFor(t, entry, AccountCash).Debit)
	assert.Equal(t, money.Minor(10000), lineFor(t, entry, AccountSales).Credit)
	assert.Equal(t, money.Minor(900), lineFor(t, entry, AccountTaxDueLocalA).Credit)
	assert.Equal(t, money.Minor(900), lineFor(t, entry, AccountTaxDueLocalB).Credit)
}

func TestBuildCreditSaleDebitsDebtors(t *testing.T) {
	b := NewBuilder()
	ev := tradeEvent(event.TypeSale, event.SettlementCredit)

	entry, err := b.Build(ev, intraBreakdown())
	require.NoError(t, err)
	assert.Equal(t, money.Minor(11800), lineFor(t, entry, AccountDebtors).Debit)
}

func TestBuildPurchaseTakesInputTaxCredit(t *testing.T) {
	b := NewBuilder()
	ev := tradeEvent(event.TypePurchase, event.SettlementBank)

	entry, err := b.Build(ev, intraBreakdown())
	require.NoError(t, err)
	require.NoError(t, entry.Validate())

	assert.Equal(t, money.Minor(10000), lineFor(t, entry, AccountPurchases).Debit)
	assert.Equal(t, money.Minor(900), lineFor(t, entry, AccountInputTaxLocalA).Debit)
	assert.Equal(t, money.Minor(900), lineFor(t, entry, AccountInputTaxLocalB).Debit)
	assert.Equal(t, money.Minor(11800), lineFor(t, entry, AccountBank).Credit)
}

func TestBuildReturnsMirrorTheirTrades(t *testing.T) {
	b := NewBuilder()

	in, err := b.Build(tradeEvent(event.TypeReturnIn, event.SettlementCash), intraBreakdown())
	require.NoError(t, err)
	require.NoError(t, in.Validate())
	assert.Equal(t, money.Minor(10000), lineFor(t, in, AccountSalesReturns).Debit)
	assert.Equal(t, money.Minor(900), lineFor(t, in, AccountTaxDueLocalA).Debit)
	assert.Equal(t, money.Minor(11800), lineFor(t, in, AccountCash).Credit)

	out, err := b.Build(tradeEvent(event.TypeReturnOut, event.SettlementCredit), intraBreakdown())
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	assert.Equal(t, money.Minor(11800), lineFor(t, out, AccountCreditors).Debit)
	assert.Equal(t, money.Minor(10000), lineFor(t, out, AccountPurchaseReturns).Credit)
	assert.Equal(t, money.Minor(900), lineFor(t, out, AccountInputTaxLocalA).Credit)
}

func TestBuildPaymentDirections(t *testing.T) {
	b := NewBuilder()

	in := event.Event{
		ID: uuid.New(), TenantID: uuid.New(), Type: event.TypePayment,
		Date: time.Now(), IdempotencyKey: "k",
		Payment: &event.PaymentPayload{Direction: event.PaymentIn, Settlement: event.SettlementCash, PartyName: "Acme", Amount: 5000},
	}
	entry, err := b.Build(in, tax.Breakdown{})
	require.NoError(t, err)
	assert.Equal(t, money.Minor(5000), lineFor(t, entry, AccountCash).Debit)
	assert.Equal(t, money.Minor(5000), lineFor(t, entry, AccountDebtors).Credit)

	out := in
	out.Payment = &event.PaymentPayload{Direction: event.PaymentOut, Settlement: event.SettlementBank, PartyName: "Acme", Amount: 5000}
	entry, err = b.Build(out, tax.Breakdown{})
	require.NoError(t, err)
	assert.Equal(t, money.Minor(5000), lineFor(t, entry, AccountCreditors).Debit)
	assert.Equal(t, money.Minor(5000), lineFor(t, entry, AccountBank).Credit)
}

func TestBuildCashTxnKinds(t *testing.T) {
	b := NewBuilder()
	base := event.Event{
		ID: uuid.New(), TenantID: uuid.New(), Type: event.TypeCashTxn,
		Date: time.Now(), IdempotencyKey: "k",
	}

	cases := []struct {
		kind          event.CashTxnKind
		debit, credit string
	}{
		{event.CashDeposit, AccountBank, AccountCash},
		{event.CashWithdrawal, AccountCash, AccountBank},
		{event.CashExpense, AccountExpenses, AccountCash},
		{event.CashIncome, AccountCash, AccountOtherIncome},
	}
	for _, tc := range cases {
		ev := base
		ev.CashTxn = &event.CashTxnPayload{Kind: tc.kind, Amount: 2500}
		entry, err := b.Build(ev, tax.Breakdown{})
		require.NoError(t, err, string(tc.kind))
		assert.Equal(t, money.Minor(2500), lineFor(t, entry, tc.debit).Debit, string(tc.kind))
		assert.Equal(t, money.Minor(2500), lineFor(t, entry, tc.credit).Credit, string(tc.kind))
	}
}

func TestBuildAdjustment(t *testing.T) {
	b := NewBuilder()
	ev := event.Event{
		ID: uuid.New(), TenantID: uuid.New(), Type: event.TypeAdjustment,
		Date: time.Now(), IdempotencyKey: "k",
		Adjustment: &event.AdjustmentPayload{ItemID: 1, QtyDelta: -3, UnitCost: 200, Reason: "damage"},
	}
	entry, err := b.Build(ev, tax.Breakdown{})
	require.NoError(t, err)
	assert.Equal(t, money.Minor(600), lineFor(t, entry, AccountStockAdjustment).Debit)
	assert.Equal(t, money.Minor(600), lineFor(t, entry, AccountInventory).Credit)

	ev.Adjustment = &event.AdjustmentPayload{ItemID: 1, QtyDelta: 3, UnitCost: 200, Reason: "found"}
	entry, err = b.Build(ev, tax.Breakdown{})
	require.NoError(t, err)
	assert.Equal(t, money.Minor(600), lineFor(t, entry, AccountInventory).Debit)
}

func TestBuildZeroValueAdjustmentHasNoEntry(t *testing.T) {
	b := NewBuilder()
	ev := event.Event{
		ID: uuid.New(), TenantID: uuid.New(), Type: event.TypeAdjustment,
		Date: time.Now(), IdempotencyKey: "k",
		Adjustment: &event.AdjustmentPayload{ItemID: 1, QtyDelta: 5, UnitCost: 0, Reason: "recount"},
	}
	entry, err := b.Build(ev, tax.Breakdown{})
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestBuildUnknownTaxComponentIsInternalError(t *testing.T) {
	b := NewBuilder()
	ev := tradeEvent(event.TypeSale, event.SettlementCash)
	bad := tax.Breakdown{Components: []tax.Component{{Name: "mystery", Amount: 900}}}

	_, err := b.Build(ev, bad)
	require.ErrorIs(t, err, ErrInternalConsistency)
}

func TestValidateEnforcesDoubleEntry(t *testing.T) {
	entry := JournalEntry{Lines: []JournalLine{
		{AccountCode: AccountCash, Debit: 100},
		{AccountCode: AccountSales, Credit: 90},
	}}
	require.ErrorIs(t, entry.Validate(), ErrUnbalanced)

	entry.Lines[1].Credit = 100
	require.NoError(t, entry.Validate())

	oneSided := JournalEntry{Lines: []JournalLine{
		{AccountCode: AccountCash, Debit: 100, Credit: 100},
		{AccountCode: AccountSales, Credit: 100},
	}}
	require.Error(t, oneSided.Validate())
}
