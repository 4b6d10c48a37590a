// Package event defines the business events the posting engine accepts.
// An Event is a tagged union discriminated by Type; exactly one payload is
// set and carries only the fields that voucher type needs.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/munim-pos/munim/internal/money"
)

// Type enumerates voucher types.
type Type string

const (
	TypeSale       Type = "SALE"
	TypePurchase   Type = "PURCHASE"
	TypeReturnIn   Type = "RETURN_IN"
	TypeReturnOut  Type = "RETURN_OUT"
	TypePayment    Type = "PAYMENT"
	TypeCashTxn    Type = "CASH_TXN"
	TypeAdjustment Type = "ADJUSTMENT"
)

// Settlement describes how a trade event is settled.
type Settlement string

const (
	SettlementCash   Settlement = "CASH"
	SettlementBank   Settlement = "BANK"
	SettlementCredit Settlement = "CREDIT"
)

// PaymentDirection distinguishes receipts from payments.
type PaymentDirection string

const (
	PaymentIn  PaymentDirection = "IN"
	PaymentOut PaymentDirection = "OUT"
)

// CashTxnKind enumerates plain cash-book movements.
type CashTxnKind string

const (
	CashDeposit    CashTxnKind = "DEPOSIT"
	CashWithdrawal CashTxnKind = "WITHDRAWAL"
	CashExpense    CashTxnKind = "EXPENSE"
	CashIncome     CashTxnKind = "INCOME"
)

// LineItem is one traded item line.
type LineItem struct {
	ItemID    int64       `json:"item_id"`
	Qty       int64       `json:"qty"`
	UnitPrice money.Minor `json:"unit_price"`
}

// TradePayload carries the fields shared by sales, purchases and returns.
type TradePayload struct {
	Settlement        Settlement      `json:"settlement"`
	PartyName         string          `json:"party_name"`
	PartyJurisdiction string          `json:"party_jurisdiction"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Items             []LineItem      `json:"items"`
}

// Taxable returns the pre-tax amount of the trade.
func (p TradePayload) Taxable() money.Minor {
	var total money.Minor
	for _, item := range p.Items {
		total += money.Minor(item.Qty) * item.UnitPrice
	}
	return total
}

// PaymentPayload settles an outstanding bill.
type PaymentPayload struct {
	Direction  PaymentDirection `json:"direction"`
	Settlement Settlement       `json:"settlement"`
	PartyName  string           `json:"party_name"`
	Amount     money.Minor      `json:"amount"`
}

// CashTxnPayload moves money without a trade.
type CashTxnPayload struct {
	Kind   CashTxnKind `json:"kind"`
	Amount money.Minor `json:"amount"`
	Memo   string      `json:"memo"`
}

// AdjustmentPayload corrects stock outside of trade flow.
type AdjustmentPayload struct {
	ItemID   int64       `json:"item_id"`
	QtyDelta int64       `json:"qty_delta"`
	UnitCost money.Minor `json:"unit_cost"`
	Reason   string      `json:"reason"`
}

// Event is one business event submitted for posting.
type Event struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Type           Type      `json:"type"`
	Date           time.Time `json:"date"`
	ActorID        int64     `json:"actor_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	Narration      string    `json:"narration"`
	OverrideStock  bool      `json:"override_stock,omitempty"`

	Trade      *TradePayload      `json:"trade,omitempty"`
	Payment    *PaymentPayload    `json:"payment,omitempty"`
	CashTxn    *CashTxnPayload    `json:"cash_txn,omitempty"`
	Adjustment *AdjustmentPayload `json:"adjustment,omitempty"`
}
