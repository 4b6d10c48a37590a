// Package ledger holds the double-entry core: accounts, journal entries and
// the poster that applies balanced lines to running balances.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/munim-pos/munim/internal/event"
	"github.com/munim-pos/munim/internal/money"
)

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Side is a balance side.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// DefaultNormalSide returns the customary balance side for the type.
// Contra accounts (e.g. sales returns) store the opposite side explicitly.
func (t AccountType) DefaultNormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Account models one chart-of-accounts node with its running balance.
// Balances are mutated only by the Poster.
type Account struct {
	TenantID   uuid.UUID   `json:"tenant_id"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Type       AccountType `json:"type"`
	NormalSide Side        `json:"normal_side"`
	Balance    money.Minor `json:"balance"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// JournalLine stores a debit or credit amount for an account. Exactly one
// side is non-zero and both are non-negative.
type JournalLine struct {
	AccountCode string      `json:"account_code"`
	Debit       money.Minor `json:"debit"`
	Credit      money.Minor `json:"credit"`
}

// JournalEntry captures one posted voucher. Entries are immutable once
// posted; corrections are new contra entries referencing the original.
type JournalEntry struct {
	ID         uuid.UUID     `json:"id"`
	TenantID   uuid.UUID     `json:"tenant_id"`
	Number     int64         `json:"number"`
	Date       time.Time     `json:"date"`
	Voucher    event.Type    `json:"voucher"`
	VoucherNo  string        `json:"voucher_no"`
	Narration  string        `json:"narration"`
	RefID      string        `json:"ref_id,omitempty"`
	ReversalOf *uuid.UUID    `json:"reversal_of,omitempty"`
	Status     EntryStatus   `json:"status"`
	PostedAt   time.Time     `json:"posted_at"`
	Lines      []JournalLine `json:"lines"`
}

// Posting is one immutable ledger row carrying the post-application balance.
type Posting struct {
	ID           int64       `json:"id"`
	TenantID     uuid.UUID   `json:"tenant_id"`
	EntryID      uuid.UUID   `json:"entry_id"`
	AccountCode  string      `json:"account_code"`
	Debit        money.Minor `json:"debit"`
	Credit       money.Minor `json:"credit"`
	BalanceAfter money.Minor `json:"balance_after"`
	// BalanceBefore is derivable from BalanceAfter and the line; carried for
	// audit snapshots, not persisted.
	BalanceBefore money.Minor `json:"-"`
	At            time.Time   `json:"at"`
}

var (
	// ErrUnknownAccount indicates a line references an account not in the
	// tenant's chart.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrUnbalanced indicates debits and credits do not sum equal.
	ErrUnbalanced = errors.New("ledger: entry debits and credits differ")
	// ErrInternalConsistency indicates the builder produced an invalid
	// entry. This is a programming bug, never user input.
	ErrInternalConsistency = errors.New("ledger: internal consistency violation")
)

// Validate enforces the double-entry invariants on the entry.
func (e JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return fmt.Errorf("%w: fewer than two lines", ErrUnbalanced)
	}
	var debit, credit money.Minor
	for i, line := range e.Lines {
		if line.AccountCode == "" {
			return fmt.Errorf("ledger: line %d missing account", i)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("ledger: line %d negative amount", i)
		}
		if (line.Debit > 0) == (line.Credit > 0) {
			return fmt.Errorf("ledger: line %d must set exactly one side", i)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if debit != credit {
		return fmt.Errorf("%w: debit %d credit %d", ErrUnbalanced, debit, credit)
	}
	return nil
}

// TotalDebit sums the debit side.
func (e JournalEntry) TotalDebit() money.Minor {
	var total money.Minor
	for _, line := range e.Lines {
		total += line.Debit
	}
	return total
}
