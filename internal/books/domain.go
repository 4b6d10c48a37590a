// Package books fans posted journal entries out into subsidiary books: cash,
// bank, sales, purchases, the return books and bills receivable/payable.
// Each book is an independent append-only log with its own running balance.
package books

import (
	"time"

	"github.com/google/uuid"

	"github.com/munim-pos/munim/internal/money"
)

// Type enumerates the subsidiary books.
type Type string

const (
	BookCash            Type = "CASH"
	BookBank            Type = "BANK"
	BookSales           Type = "SALES"
	BookPurchases       Type = "PURCHASES"
	BookSalesReturns    Type = "SALES_RETURNS"
	BookPurchaseReturns Type = "PURCHASE_RETURNS"
	BookBillsReceivable Type = "BILLS_RECEIVABLE"
	BookBillsPayable    Type = "BILLS_PAYABLE"
)

// All lists every book type, in reporting order.
func All() []Type {
	return []Type{
		BookCash, BookBank, BookSales, BookPurchases,
		BookSalesReturns, BookPurchaseReturns,
		BookBillsReceivable, BookBillsPayable,
	}
}

// Valid reports whether t names a known book.
func (t Type) Valid() bool {
	for _, known := range All() {
		if t == known {
			return true
		}
	}
	return false
}

// Draft is a routed, not-yet-appended book row. The store computes the
// running balance at append time from the book's own prior balance:
// balance = previous + receipt - payment.
type Draft struct {
	Book        Type
	Particulars string
	Receipt     money.Minor
	Payment     money.Minor
}

// Entry is one appended subsidiary-book row.
type Entry struct {
	ID          int64       `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Book        Type        `json:"book"`
	Date        time.Time   `json:"date"`
	Particulars string      `json:"particulars"`
	VoucherNo   string      `json:"voucher_no"`
	EntryID     uuid.UUID   `json:"entry_id"`
	Receipt     money.Minor `json:"receipt"`
	Payment     money.Minor `json:"payment"`
	Balance     money.Minor `json:"balance"`
	At          time.Time   `json:"at"`
}

// Filter narrows book listings.
type Filter struct {
	From  time.Time
	To    time.Time
	Limit int
}
