// Package posting orchestrates the atomic unit that turns a business event
// into ledger postings, subsidiary-book rows, stock movements and audit
// records, all-or-nothing per tenant.
package posting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/munim-pos/munim/internal/books"
	"github.com/munim-pos/munim/internal/inventory"
	"github.com/munim-pos/munim/internal/ledger"
	"github.com/munim-pos/munim/internal/money"
	"github.com/munim-pos/munim/internal/shared"
)

// State is the terminal outcome of a posting unit. Intermediate phases never
// escape Submit, so only the committed outcomes are represented.
type State string

const (
	StatePosted   State = "POSTED"
	StateReversed State = "REVERSED"
)

// Result is the composite outcome of one posting.
type Result struct {
	State          State                `json:"state"`
	JournalEntry   *ledger.JournalEntry `json:"journal_entry,omitempty"`
	BookEntries    []books.Entry        `json:"book_entries,omitempty"`
	StockMovements []inventory.Movement `json:"stock_movements,omitempty"`
}

// ErrDuplicatePosting indicates a resubmission with a known idempotency key
// but a different payload.
var ErrDuplicatePosting = errors.New("posting: idempotency key reused with different payload")

// ErrAlreadyReversed indicates the entry has a reversal already.
var ErrAlreadyReversed = errors.New("posting: entry already reversed")

// Store provides tenant-scoped transactional access to all posting stores.
// WithTenantTx serializes units per tenant: only one may be in flight for a
// tenant at a time.
type Store interface {
	WithTenantTx(ctx context.Context, tenant uuid.UUID, fn func(context.Context, Tx) error) error

	AccountBalance(ctx context.Context, tenant uuid.UUID, code string, asOf time.Time) (money.Minor, error)
	BookEntries(ctx context.Context, tenant uuid.UUID, book books.Type, filter books.Filter) ([]books.Entry, error)
	ItemStock(ctx context.Context, tenant uuid.UUID, itemID int64) (int64, error)
}

// Tx is the write surface available inside one atomic posting unit. It is
// already scoped to the unit's tenant.
type Tx interface {
	ledger.TxStore
	inventory.TxStore

	NextEntryNumber(ctx context.Context) (int64, error)
	InsertJournalEntry(ctx context.Context, entry *ledger.JournalEntry) error
	GetJournalEntry(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error)
	MarkEntryReversed(ctx context.Context, entryID uuid.UUID) error

	GetBookBalance(ctx context.Context, book books.Type) (money.Minor, error)
	AppendBookEntry(ctx context.Context, entry books.Entry) (books.Entry, error)
	BookEntriesForEntry(ctx context.Context, entryID uuid.UUID) ([]books.Entry, error)

	MovementsForRef(ctx context.Context, refID string) ([]inventory.Movement, error)

	GetIdempotency(ctx context.Context, key string) (payloadHash string, result []byte, err error)
	SaveIdempotency(ctx context.Context, key, payloadHash string, result []byte) error

	AppendAudit(ctx context.Context, rec shared.AuditRecord) error
}

// Authorizer answers whether an actor may override the stock guard.
type Authorizer interface {
	AuthorizeStockOverride(ctx context.Context, actorID int64) error
}
