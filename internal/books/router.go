package books

import (
	"fmt"

	"github.com/munim-pos/munim/internal/event"
	"github.com/munim-pos/munim/internal/ledger"
	"github.com/munim-pos/munim/internal/money"
)

// Router decides which books a posted entry affects. Routing depends on the
// originating event, not just the ledger lines: a credit sale touches the
// sales book only, a cash sale the sales and cash books.
type Router struct{}

// NewRouter returns a Router.
func NewRouter() *Router {
	return &Router{}
}

// Route produces the drafts for the entry. A nil entry (no monetary effect)
// routes nowhere.
func (r *Router) Route(entry *ledger.JournalEntry, ev event.Event) []Draft {
	if entry == nil {
		return nil
	}
	total := entry.TotalDebit()
	switch ev.Type {
	case event.TypeSale:
		return tradeDrafts(BookSales, total, false, *ev.Trade)
	case event.TypePurchase:
		return tradeDrafts(BookPurchases, total, true, *ev.Trade)
	case event.TypeReturnIn:
		return tradeDrafts(BookSalesReturns, total, true, *ev.Trade)
	case event.TypeReturnOut:
		return tradeDrafts(BookPurchaseReturns, total, false, *ev.Trade)
	case event.TypePayment:
		return paymentDrafts(total, *ev.Payment)
	case event.TypeCashTxn:
		return cashTxnDrafts(*ev.CashTxn)
	default:
		return nil
	}
}

// tradeDrafts covers SALE, PURCHASE and both return types. moneyOut is true
// when settlement moves money out of the business (a purchase, or a sales
// return refund). Credit settlement touches the day book only; the bills
// books are maintained by PAYMENT events.
func tradeDrafts(dayBook Type, total money.Minor, moneyOut bool, p event.TradePayload) []Draft {
	particulars := tradeParticulars(p)
	drafts := []Draft{{Book: dayBook, Particulars: particulars, Receipt: total}}
	switch p.Settlement {
	case event.SettlementCash:
		drafts = append(drafts, settlementDraft(BookCash, particulars, total, moneyOut))
	case event.SettlementBank:
		drafts = append(drafts, settlementDraft(BookBank, particulars, total, moneyOut))
	}
	return drafts
}

func paymentDrafts(total money.Minor, p event.PaymentPayload) []Draft {
	settleBook := BookCash
	if p.Settlement == event.SettlementBank {
		settleBook = BookBank
	}
	if p.Direction == event.PaymentIn {
		return []Draft{
			{Book: settleBook, Particulars: "Received from " + p.PartyName, Receipt: total},
			{Book: BookBillsReceivable, Particulars: "Settled by " + p.PartyName, Payment: total},
		}
	}
	return []Draft{
		{Book: settleBook, Particulars: "Paid to " + p.PartyName, Payment: total},
		{Book: BookBillsPayable, Particulars: "Settled to " + p.PartyName, Payment: total},
	}
}

func cashTxnDrafts(p event.CashTxnPayload) []Draft {
	switch p.Kind {
	case event.CashDeposit:
		return []Draft{
			{Book: BookCash, Particulars: memoOr(p.Memo, "Deposit to bank"), Payment: p.Amount},
			{Book: BookBank, Particulars: memoOr(p.Memo, "Deposit from cash"), Receipt: p.Amount},
		}
	case event.CashWithdrawal:
		return []Draft{
			{Book: BookCash, Particulars: memoOr(p.Memo, "Withdrawal from bank"), Receipt: p.Amount},
			{Book: BookBank, Particulars: memoOr(p.Memo, "Withdrawal to cash"), Payment: p.Amount},
		}
	case event.CashExpense:
		return []Draft{{Book: BookCash, Particulars: memoOr(p.Memo, "Expense"), Payment: p.Amount}}
	default: // CashIncome
		return []Draft{{Book: BookCash, Particulars: memoOr(p.Memo, "Income"), Receipt: p.Amount}}
	}
}

func settlementDraft(book Type, particulars string, total money.Minor, out bool) Draft {
	if out {
		return Draft{Book: book, Particulars: particulars, Payment: total}
	}
	return Draft{Book: book, Particulars: particulars, Receipt: total}
}

func tradeParticulars(p event.TradePayload) string {
	if p.PartyName != "" {
		return p.PartyName
	}
	return fmt.Sprintf("%s settlement, %d items", p.Settlement, len(p.Items))
}

func memoOr(memo, fallback string) string {
	if memo != "" {
		return memo
	}
	return fallback
}
