package books

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munim-pos/munim/internal/event"
	"github.com/munim-pos/munim/internal/ledger"
	"github.com/munim-pos/munim/internal/money"
)

func entryWithTotal(total money.Minor) *ledger.JournalEntry {
	return &ledger.JournalEntry{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Date:     time.Now(),
		Lines: []ledger.JournalLine{
			{AccountCode: "1000", Debit: total},
			{AccountCode: "4000", Credit: total},
		},
	}
}

func tradeEvent(t event.Type, settlement event.Settlement) event.Event {
	return event.Event{
		ID:   uuid.New(),
		Type: t,
		Trade: &event.TradePayload{
			Settlement: settlement,
			PartyName:  "Acme",
			TaxRate:    decimal.NewFromInt(18),
			Items:      []event.LineItem{{ItemID: 1, Qty: 1, UnitPrice: 10000}},
		},
	}
}

func draftFor(t *testing.T, drafts []Draft, book Type) Draft {
	t.Helper()
	for _, d := range drafts {
		if d.Book == book {
			return d
		}
	}
	t.Fatalf("no draft for book %s", book)
	return Draft{}
}

func TestRouteCashSaleTouchesSalesAndCash(t *testing.T) {
	r := NewRouter()
	drafts := r.Route(entryWithTotal(11800), tradeEvent(event.TypeSale, event.SettlementCash))
	require.Len(t, drafts, 2)

	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookSales).Receipt)
	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookCash).Receipt)
}

func TestRouteCreditSaleTouchesSalesBookOnly(t *testing.T) {
	r := NewRouter()
	drafts := r.Route(entryWithTotal(11800), tradeEvent(event.TypeSale, event.SettlementCredit))
	require.Len(t, drafts, 1)

	assert.Equal(t, BookSales, drafts[0].Book)
	assert.Equal(t, money.Minor(11800), drafts[0].Receipt)
}

func TestRouteCashPurchasePaysOutOfCashBook(t *testing.T) {
	r := NewRouter()
	drafts := r.Route(entryWithTotal(11800), tradeEvent(event.TypePurchase, event.SettlementCash))
	require.Len(t, drafts, 2)

	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookPurchases).Receipt)
	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookCash).Payment)
}

func TestRouteSalesReturnRefundsCash(t *testing.T) {
	r := NewRouter()
	drafts := r.Route(entryWithTotal(11800), tradeEvent(event.TypeReturnIn, event.SettlementCash))
	require.Len(t, drafts, 2)

	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookSalesReturns).Receipt)
	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookCash).Payment)
}

func TestRouteCreditReturnTouchesReturnBookOnly(t *testing.T) {
	r := NewRouter()
	drafts := r.Route(entryWithTotal(11800), tradeEvent(event.TypeReturnIn, event.SettlementCredit))
	require.Len(t, drafts, 1)
	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookSalesReturns).Receipt)

	drafts = r.Route(entryWithTotal(11800), tradeEvent(event.TypeReturnOut, event.SettlementCredit))
	require.Len(t, drafts, 1)
	assert.Equal(t, money.Minor(11800), draftFor(t, drafts, BookPurchaseReturns).Receipt)
}

func TestRoutePayment(t *testing.T) {
	r := NewRouter()
	ev := event.Event{
		ID:   uuid.New(),
		Type: event.TypePayment,
		Payment: &event.PaymentPayload{
			Direction: event.PaymentIn, Settlement: event.SettlementBank,
			PartyName: "Acme", Amount: 5000,
		},
	}
	drafts := r.Route(entryWithTotal(5000), ev)
	require.Len(t, drafts, 2)
	assert.Equal(t, money.Minor(5000), draftFor(t, drafts, BookBank).Receipt)
	assert.Equal(t, money.Minor(5000), draftFor(t, drafts, BookBillsReceivable).Payment)

	ev.Payment.Direction = event.PaymentOut
	drafts = r.Route(entryWithTotal(5000), ev)
	assert.Equal(t, money.Minor(5000), draftFor(t, drafts, BookBank).Payment)
	assert.Equal(t, money.Minor(5000), draftFor(t, drafts, BookBillsPayable).Payment)
}

func TestRouteCashTxn(t *testing.T) {
	r := NewRouter()
	ev := event.Event{
		ID:      uuid.New(),
		Type:    event.TypeCashTxn,
		CashTxn: &event.CashTxnPayload{Kind: event.CashDeposit, Amount: 3000},
	}
	drafts := r.Route(entryWithTotal(3000), ev)
	require.Len(t, drafts, 2)
	assert.Equal(t, money.Minor(3000), draftFor(t, drafts, BookCash).Payment)
	assert.Equal(t, money.Minor(3000), draftFor(t, drafts, BookBank).Receipt)

	ev.CashTxn = &event.CashTxnPayload{Kind: event.CashExpense, Amount: 700, Memo: "stationery"}
	drafts = r.Route(entryWithTotal(700), ev)
	require.Len(t, drafts, 1)
	assert.Equal(t, "stationery", drafts[0].Particulars)
	assert.Equal(t, money.Minor(700), drafts[0].Payment)
}

func TestRouteNilEntryRoutesNowhere(t *testing.T) {
	r := NewRouter()
	assert.Nil(t, r.Route(nil, tradeEvent(event.TypeSale, event.SettlementCash)))
}

func TestTypeValid(t *testing.T) {
	for _, book := range All() {
		assert.True(t, book.Valid())
	}
	assert.False(t, Type("LEDGER").Valid())
}
