package event

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrPayloadMismatch indicates the payload does not match the event type.
	ErrPayloadMismatch = errors.New("event: payload does not match event type")
	// ErrMissingIdempotencyKey indicates the caller supplied no key.
	ErrMissingIdempotencyKey = errors.New("event: idempotency key required")
)

// TaxBearing reports whether the event type carries a tax breakdown.
func (t Type) TaxBearing() bool {
	switch t {
	case TypeSale, TypePurchase, TypeReturnIn, TypeReturnOut:
		return true
	}
	return false
}

// StockAffecting reports whether the event type moves inventory.
func (t Type) StockAffecting() bool {
	switch t {
	case TypeSale, TypePurchase, TypeReturnIn, TypeReturnOut, TypeAdjustment:
		return true
	}
	return false
}

// Validate checks structural validity: exactly one payload, matching the
// discriminator, with well-formed fields. Stock and account checks happen
// later, inside the posting transaction.
func (e Event) Validate() error {
	if e.TenantID == uuid.Nil {
		return errors.New("event: tenant required")
	}
	if e.IdempotencyKey == "" {
		return ErrMissingIdempotencyKey
	}
	if e.Date.IsZero() {
		return errors.New("event: date required")
	}
	if n := e.payloadCount(); n != 1 {
		return fmt.Errorf("%w: %d payloads set", ErrPayloadMismatch, n)
	}
	switch e.Type {
	case TypeSale, TypePurchase, TypeReturnIn, TypeReturnOut:
		if e.Trade == nil {
			return ErrPayloadMismatch
		}
		return e.Trade.validate()
	case TypePayment:
		if e.Payment == nil {
			return ErrPayloadMismatch
		}
		return e.Payment.validate()
	case TypeCashTxn:
		if e.CashTxn == nil {
			return ErrPayloadMismatch
		}
		return e.CashTxn.validate()
	case TypeAdjustment:
		if e.Adjustment == nil {
			return ErrPayloadMismatch
		}
		return e.Adjustment.validate()
	default:
		return fmt.Errorf("event: unknown type %q", e.Type)
	}
}

func (e Event) payloadCount() int {
	n := 0
	if e.Trade != nil {
		n++
	}
	if e.Payment != nil {
		n++
	}
	if e.CashTxn != nil {
		n++
	}
	if e.Adjustment != nil {
		n++
	}
	return n
}

func (p TradePayload) validate() error {
	switch p.Settlement {
	case SettlementCash, SettlementBank, SettlementCredit:
	default:
		return fmt.Errorf("event: invalid settlement %q", p.Settlement)
	}
	if len(p.Items) == 0 {
		return errors.New("event: trade requires at least one item")
	}
	for i, item := range p.Items {
		if item.ItemID == 0 {
			return fmt.Errorf("event: item %d missing id", i)
		}
		if item.Qty <= 0 {
			return fmt.Errorf("event: item %d quantity must be positive", i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("event: item %d negative unit price", i)
		}
	}
	if p.TaxRate.IsNegative() {
		return errors.New("event: negative tax rate")
	}
	if p.Taxable() <= 0 {
		return errors.New("event: trade total must be positive")
	}
	return nil
}

func (p PaymentPayload) validate() error {
	if p.Direction != PaymentIn && p.Direction != PaymentOut {
		return fmt.Errorf("event: invalid payment direction %q", p.Direction)
	}
	if p.Settlement != SettlementCash && p.Settlement != SettlementBank {
		return fmt.Errorf("event: payment settlement must be CASH or BANK")
	}
	if p.Amount <= 0 {
		return errors.New("event: payment amount must be positive")
	}
	if p.PartyName == "" {
		return errors.New("event: payment party required")
	}
	return nil
}

func (p CashTxnPayload) validate() error {
	switch p.Kind {
	case CashDeposit, CashWithdrawal, CashExpense, CashIncome:
	default:
		return fmt.Errorf("event: invalid cash txn kind %q", p.Kind)
	}
	if p.Amount <= 0 {
		return errors.New("event: cash txn amount must be positive")
	}
	return nil
}

func (p AdjustmentPayload) validate() error {
	if p.ItemID == 0 {
		return errors.New("event: adjustment item required")
	}
	if p.QtyDelta == 0 {
		return errors.New("event: adjustment delta must be non-zero")
	}
	if p.UnitCost < 0 {
		return errors.New("event: adjustment negative unit cost")
	}
	return nil
}
