package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/munim-pos/munim/internal/event"
	"github.com/munim-pos/munim/internal/money"
	"github.com/munim-pos/munim/internal/tax"
)

// Builder maps a business event plus its tax breakdown onto a fixed account
// template, producing a balanced journal entry.
type Builder struct{}

// NewBuilder returns a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces the journal entry for the event. A nil entry with nil error
// means the event has no monetary effect (a zero-value stock adjustment).
// The result is re-validated; an unbalanced template is a bug and surfaces
// as ErrInternalConsistency.
func (b *Builder) Build(ev event.Event, breakdown tax.Breakdown) (*JournalEntry, error) {
	var lines []JournalLine
	var err error
	switch ev.Type {
	case event.TypeSale:
		lines, err = saleLines(*ev.Trade, breakdown)
	case event.TypePurchase:
		lines, err = purchaseLines(*ev.Trade, breakdown)
	case event.TypeReturnIn:
		lines, err = returnInLines(*ev.Trade, breakdown)
	case event.TypeReturnOut:
		lines, err = returnOutLines(*ev.Trade, breakdown)
	case event.TypePayment:
		lines = paymentLines(*ev.Payment)
	case event.TypeCashTxn:
		lines = cashTxnLines(*ev.CashTxn)
	case event.TypeAdjustment:
		lines = adjustmentLines(*ev.Adjustment)
	default:
		return nil, fmt.Errorf("ledger: no template for event type %q", ev.Type)
	}
	if err != nil {
		return nil, err
	}
	if lines == nil {
		return nil, nil
	}
	entry := &JournalEntry{
		ID:        uuid.New(),
		TenantID:  ev.TenantID,
		Date:      ev.Date,
		Voucher:   ev.Type,
		Narration: ev.Narration,
		RefID:     ev.ID.String(),
		Status:    EntryStatusPosted,
		Lines:     lines,
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalConsistency, err)
	}
	return entry, nil
}

func settlementAccount(s event.Settlement, creditAccount string) string {
	switch s {
	case event.SettlementCash:
		return AccountCash
	case event.SettlementBank:
		return AccountBank
	default:
		return creditAccount
	}
}

func saleLines(p event.TradePayload, breakdown tax.Breakdown) ([]JournalLine, error) {
	taxable := p.Taxable()
	total := taxable + breakdown.Total()
	lines := []JournalLine{
		{AccountCode: settlementAccount(p.Settlement, AccountDebtors), Debit: total},
		{AccountCode: AccountSales, Credit: taxable},
	}
	return appendTaxLines(lines, breakdown, taxDueAccounts, SideCredit)
}

func purchaseLines(p event.TradePayload, breakdown tax.Breakdown) ([]JournalLine, error) {
	taxable := p.Taxable()
	total := taxable + breakdown.Total()
	lines := []JournalLine{
		{AccountCode: AccountPurchases, Debit: taxable},
	}
	lines, err := appendTaxLines(lines, breakdown, inputTaxAccounts, SideDebit)
	if err != nil {
		return nil, err
	}
	return append(lines, JournalLine{AccountCode: settlementAccount(p.Settlement, AccountCreditors), Credit: total}), nil
}

func returnInLines(p event.TradePayload, breakdown tax.Breakdown) ([]JournalLine, error) {
	taxable := p.Taxable()
	total := taxable + breakdown.Total()
	lines := []JournalLine{
		{AccountCode: AccountSalesReturns, Debit: taxable},
	}
	lines, err := appendTaxLines(lines, breakdown, taxDueAccounts, SideDebit)
	if err != nil {
		return nil, err
	}
	return append(lines, JournalLine{AccountCode: settlementAccount(p.Settlement, AccountDebtors), Credit: total}), nil
}

func returnOutLines(p event.TradePayload, breakdown tax.Breakdown) ([]JournalLine, error) {
	taxable := p.Taxable()
	total := taxable + breakdown.Total()
	lines := []JournalLine{
		{AccountCode: settlementAccount(p.Settlement, AccountCreditors), Debit: total},
		{AccountCode: AccountPurchaseReturns, Credit: taxable},
	}
	return appendTaxLines(lines, breakdown, inputTaxAccounts, SideCredit)
}

func paymentLines(p event.PaymentPayload) []JournalLine {
	settle := settlementAccount(p.Settlement, "")
	if p.Direction == event.PaymentIn {
		return []JournalLine{
			{AccountCode: settle, Debit: p.Amount},
			{AccountCode: AccountDebtors, Credit: p.Amount},
		}
	}
	return []JournalLine{
		{AccountCode: AccountCreditors, Debit: p.Amount},
		{AccountCode: settle, Credit: p.Amount},
	}
}

func cashTxnLines(p event.CashTxnPayload) []JournalLine {
	switch p.Kind {
	case event.CashDeposit:
		return []JournalLine{
			{AccountCode: AccountBank, Debit: p.Amount},
			{AccountCode: AccountCash, Credit: p.Amount},
		}
	case event.CashWithdrawal:
		return []JournalLine{
			{AccountCode: AccountCash, Debit: p.Amount},
			{AccountCode: AccountBank, Credit: p.Amount},
		}
	case event.CashExpense:
		return []JournalLine{
			{AccountCode: AccountExpenses, Debit: p.Amount},
			{AccountCode: AccountCash, Credit: p.Amount},
		}
	default: // CashIncome
		return []JournalLine{
			{AccountCode: AccountCash, Debit: p.Amount},
			{AccountCode: AccountOtherIncome, Credit: p.Amount},
		}
	}
}

func adjustmentLines(p event.AdjustmentPayload) []JournalLine {
	qty := p.QtyDelta
	if qty < 0 {
		qty = -qty
	}
	value := money.Minor(qty) * p.UnitCost
	if value == 0 {
		return nil
	}
	if p.QtyDelta > 0 {
		return []JournalLine{
			{AccountCode: AccountInventory, Debit: value},
			{AccountCode: AccountStockAdjustment, Credit: value},
		}
	}
	return []JournalLine{
		{AccountCode: AccountStockAdjustment, Debit: value},
		{AccountCode: AccountInventory, Credit: value},
	}
}

func appendTaxLines(lines []JournalLine, breakdown tax.Breakdown, accounts map[string]string, side Side) ([]JournalLine, error) {
	for _, comp := range breakdown.Components {
		code, ok := accounts[comp.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no account for tax component %q", ErrInternalConsistency, comp.Name)
		}
		if comp.Amount == 0 {
			continue
		}
		line := JournalLine{AccountCode: code}
		if side == SideDebit {
			line.Debit = comp.Amount
		} else {
			line.Credit = comp.Amount
		}
		lines = append(lines, line)
	}
	return lines, nil
}
