package posting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/munim-pos/munim/internal/books"
	"github.com/munim-pos/munim/internal/event"
	"github.com/munim-pos/munim/internal/inventory"
	"github.com/munim-pos/munim/internal/ledger"
	"github.com/munim-pos/munim/internal/shared"
	"github.com/munim-pos/munim/internal/tax"
)

// Coordinator drives the fixed posting pipeline: compute tax, build the
// journal, validate, then post ledger, books and inventory with audit inside
// one tenant-serialized transaction. Any failure rolls the whole unit back.
type Coordinator struct {
	store   Store
	tax     *tax.Computer
	builder *ledger.Builder
	poster  *ledger.Poster
	router  *books.Router
	mutator *inventory.Mutator
	authz   Authorizer
	cache   *Cache
	now     func() time.Time
}

// NewCoordinator wires the posting pipeline. cache may be nil.
func NewCoordinator(store Store, computer *tax.Computer, authz Authorizer, cache *Cache) *Coordinator {
	return &Coordinator{
		store:   store,
		tax:     computer,
		builder: ledger.NewBuilder(),
		poster:  ledger.NewPoster(),
		router:  books.NewRouter(),
		mutator: inventory.NewMutator(),
		authz:   authz,
		cache:   cache,
		now:     time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (c *Coordinator) WithNow(now func() time.Time) {
	if now != nil {
		c.now = now
		c.poster.WithNow(now)
		c.mutator.WithNow(now)
	}
}

// Submit posts one business event. Resubmitting the same idempotency key
// with an identical payload returns the original result without posting
// again; the same key with a different payload fails with
// ErrDuplicatePosting.
func (c *Coordinator) Submit(ctx context.Context, ev event.Event) (Result, error) {
	// Everything up to hashing happens before the first write.
	if err := ev.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if ev.OverrideStock {
		if c.authz == nil {
			return Result{}, fmt.Errorf("%w: no authorizer configured", shared.ErrPermission)
		}
		if err := c.authz.AuthorizeStockOverride(ctx, ev.ActorID); err != nil {
			return Result{}, err
		}
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	var breakdown tax.Breakdown
	if ev.Type.TaxBearing() {
		var err error
		breakdown, err = c.tax.Compute(ev.Trade.Taxable(), ev.Trade.TaxRate, ev.Trade.PartyJurisdiction)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	}

	entry, err := c.builder.Build(ev, breakdown)
	if err != nil {
		return Result{}, err
	}
	// The unit is now fully formed; all writes happen below in one
	// transaction.
	payloadHash := hashEvent(ev)

	var result Result
	var replayed bool
	err = c.store.WithTenantTx(ctx, ev.TenantID, func(ctx context.Context, tx Tx) error {
		storedHash, storedResult, err := tx.GetIdempotency(ctx, ev.IdempotencyKey)
		if err == nil {
			if storedHash != payloadHash {
				return ErrDuplicatePosting
			}
			replayed = true
			return json.Unmarshal(storedResult, &result)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		refID := ev.ID.String()
		if entry != nil {
			number, err := tx.NextEntryNumber(ctx)
			if err != nil {
				return err
			}
			entry.Number = number
			entry.VoucherNo = voucherNo(ev.Type, number)
			entry.PostedAt = c.now().UTC()
			refID = entry.ID.String()
		}

		plan, err := c.mutator.PlanChanges(ctx, tx, ev.TenantID, stockDeltas(ev, refID), ev.OverrideStock)
		if err != nil {
			return err
		}

		var postings []ledger.Posting
		var bookEntries []books.Entry
		if entry != nil {
			if err := tx.InsertJournalEntry(ctx, entry); err != nil {
				return err
			}
			postings, err = c.poster.Post(ctx, tx, entry)
			if err != nil {
				return err
			}
			bookEntries, err = c.appendBooks(ctx, tx, entry, c.router.Route(entry, ev))
			if err != nil {
				return err
			}
		}

		movements, err := c.mutator.Commit(ctx, tx, &plan)
		if err != nil {
			return err
		}

		if err := c.auditUnit(ctx, tx, ev, entry, postings, bookEntries, plan); err != nil {
			return err
		}

		result = Result{
			State:          StatePosted,
			JournalEntry:   entry,
			BookEntries:    bookEntries,
			StockMovements: movements,
		}
		payload, err := json.Marshal(result)
		if err != nil {
			return err
		}
		return tx.SaveIdempotency(ctx, ev.IdempotencyKey, payloadHash, payload)
	})
	if err != nil {
		return Result{}, err
	}
	if !replayed {
		c.invalidate(ctx, ev.TenantID, result)
	}
	return result, nil
}

// Reverse posts a brand-new compensating entry for a posted one. The
// original entry's lines are never edited; only its status flips to
// REVERSED so a second reversal is refused.
func (c *Coordinator) Reverse(ctx context.Context, tenant uuid.UUID, entryID uuid.UUID, actorID int64, reason string) (Result, error) {
	var result Result
	err := c.store.WithTenantTx(ctx, tenant, func(ctx context.Context, tx Tx) error {
		original, err := tx.GetJournalEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if original.Status != ledger.EntryStatusPosted {
			return ErrAlreadyReversed
		}

		number, err := tx.NextEntryNumber(ctx)
		if err != nil {
			return err
		}
		now := c.now().UTC()
		reversal := &ledger.JournalEntry{
			ID:         uuid.New(),
			TenantID:   tenant,
			Number:     number,
			Date:       now,
			Voucher:    original.Voucher,
			VoucherNo:  voucherNo(original.Voucher, number),
			Narration:  reversalNarration(reason, original.VoucherNo),
			RefID:      original.ID.String(),
			ReversalOf: &original.ID,
			Status:     ledger.EntryStatusPosted,
			PostedAt:   now,
			Lines:      reverseLines(original.Lines),
		}
		if err := tx.InsertJournalEntry(ctx, reversal); err != nil {
			return err
		}
		postings, err := c.poster.Post(ctx, tx, reversal)
		if err != nil {
			return err
		}

		originalBooks, err := tx.BookEntriesForEntry(ctx, original.ID)
		if err != nil {
			return err
		}
		bookEntries, err := c.appendBooks(ctx, tx, reversal, contraDrafts(originalBooks))
		if err != nil {
			return err
		}

		originalMoves, err := tx.MovementsForRef(ctx, original.ID.String())
		if err != nil {
			return err
		}
		plan, err := c.mutator.PlanChanges(ctx, tx, tenant, reverseDeltas(originalMoves, reversal.ID.String()), false)
		if err != nil {
			return err
		}
		movements, err := c.mutator.Commit(ctx, tx, &plan)
		if err != nil {
			return err
		}

		if err := tx.MarkEntryReversed(ctx, original.ID); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, shared.AuditRecord{
			ActorID:  actorID,
			Action:   "journal.reverse",
			Table:    "journal_entries",
			RecordID: original.ID.String(),
			OldValue: map[string]any{"status": string(ledger.EntryStatusPosted)},
			NewValue: map[string]any{"status": string(ledger.EntryStatusReversed), "reversal_id": reversal.ID.String(), "reason": reason},
			At:       now,
		}); err != nil {
			return err
		}
		if err := c.auditPostings(ctx, tx, actorID, reversal, postings, bookEntries, plan); err != nil {
			return err
		}

		result = Result{
			State:          StateReversed,
			JournalEntry:   reversal,
			BookEntries:    bookEntries,
			StockMovements: movements,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	c.invalidate(ctx, tenant, result)
	return result, nil
}

func (c *Coordinator) appendBooks(ctx context.Context, tx Tx, entry *ledger.JournalEntry, drafts []books.Draft) ([]books.Entry, error) {
	entries := make([]books.Entry, 0, len(drafts))
	at := c.now().UTC()
	for _, draft := range drafts {
		prior, err := tx.GetBookBalance(ctx, draft.Book)
		if err != nil {
			return nil, err
		}
		appended, err := tx.AppendBookEntry(ctx, books.Entry{
			TenantID:    entry.TenantID,
			Book:        draft.Book,
			Date:        entry.Date,
			Particulars: draft.Particulars,
			VoucherNo:   entry.VoucherNo,
			EntryID:     entry.ID,
			Receipt:     draft.Receipt,
			Payment:     draft.Payment,
			Balance:     prior + draft.Receipt - draft.Payment,
			At:          at,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, appended)
	}
	return entries, nil
}

// auditUnit writes the audit rows covering every mutation in the unit.
func (c *Coordinator) auditUnit(ctx context.Context, tx Tx, ev event.Event, entry *ledger.JournalEntry, postings []ledger.Posting, bookEntries []books.Entry, plan inventory.Plan) error {
	at := c.now().UTC()
	if entry != nil {
		if err := tx.AppendAudit(ctx, shared.AuditRecord{
			ActorID:  ev.ActorID,
			Action:   "journal.post",
			Table:    "journal_entries",
			RecordID: entry.ID.String(),
			NewValue: shared.Snapshot(entry),
			At:       at,
		}); err != nil {
			return err
		}
	}
	return c.auditPostings(ctx, tx, ev.ActorID, entry, postings, bookEntries, plan)
}

func (c *Coordinator) auditPostings(ctx context.Context, tx Tx, actorID int64, entry *ledger.JournalEntry, postings []ledger.Posting, bookEntries []books.Entry, plan inventory.Plan) error {
	at := c.now().UTC()
	for _, p := range postings {
		if err := tx.AppendAudit(ctx, shared.AuditRecord{
			ActorID:  actorID,
			Action:   "account.post",
			Table:    "accounts",
			RecordID: p.AccountCode,
			OldValue: map[string]any{"balance": int64(p.BalanceBefore)},
			NewValue: map[string]any{"balance": int64(p.BalanceAfter), "entry_id": p.EntryID.String()},
			At:       at,
		}); err != nil {
			return err
		}
	}
	for _, be := range bookEntries {
		if err := tx.AppendAudit(ctx, shared.AuditRecord{
			ActorID:  actorID,
			Action:   "book.append",
			Table:    "book_entries",
			RecordID: fmt.Sprintf("%s:%d", be.Book, be.ID),
			OldValue: map[string]any{"balance": int64(be.Balance - be.Receipt + be.Payment)},
			NewValue: shared.Snapshot(be),
			At:       at,
		}); err != nil {
			return err
		}
	}
	for _, change := range plan.Changes {
		rec := shared.AuditRecord{
			ActorID:  actorID,
			Action:   "stock.move",
			Table:    "inventory_items",
			RecordID: fmt.Sprintf("%d", change.Movement.ItemID),
			OldValue: map[string]any{"qty": change.Movement.PrevQty},
			NewValue: map[string]any{"qty": change.Movement.NewQty, "ref_id": change.Movement.RefID},
			At:       at,
		}
		if err := tx.AppendAudit(ctx, rec); err != nil {
			return err
		}
		if change.Movement.Override {
			// Negative stock permitted only under an authorized override;
			// the override itself must leave a trace.
			if err := tx.AppendAudit(ctx, shared.AuditRecord{
				ActorID:  actorID,
				Action:   "stock.override",
				Table:    "inventory_items",
				RecordID: fmt.Sprintf("%d", change.Movement.ItemID),
				OldValue: map[string]any{"qty": change.Movement.PrevQty},
				NewValue: map[string]any{"qty": change.Movement.NewQty},
				At:       at,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Coordinator) invalidate(ctx context.Context, tenant uuid.UUID, result Result) {
	if c.cache == nil {
		return
	}
	if result.JournalEntry != nil {
		for _, line := range result.JournalEntry.Lines {
			c.cache.InvalidateBalance(ctx, tenant, line.AccountCode)
		}
	}
	for _, m := range result.StockMovements {
		c.cache.InvalidateStock(ctx, tenant, m.ItemID)
	}
}

// stockDeltas maps the event onto inventory changes.
func stockDeltas(ev event.Event, refID string) []inventory.Delta {
	switch ev.Type {
	case event.TypeSale:
		return tradeDeltas(ev.Trade.Items, -1, inventory.MovementSale, refID)
	case event.TypePurchase:
		return tradeDeltas(ev.Trade.Items, 1, inventory.MovementPurchase, refID)
	case event.TypeReturnIn:
		return tradeDeltas(ev.Trade.Items, 1, inventory.MovementReturnIn, refID)
	case event.TypeReturnOut:
		return tradeDeltas(ev.Trade.Items, -1, inventory.MovementReturnOut, refID)
	case event.TypeAdjustment:
		return []inventory.Delta{{
			ItemID: ev.Adjustment.ItemID,
			Qty:    ev.Adjustment.QtyDelta,
			Type:   inventory.MovementAdjustment,
			RefID:  refID,
		}}
	default:
		return nil
	}
}

func tradeDeltas(items []event.LineItem, sign int64, typ inventory.MovementType, refID string) []inventory.Delta {
	deltas := make([]inventory.Delta, 0, len(items))
	for _, item := range items {
		deltas = append(deltas, inventory.Delta{
			ItemID: item.ItemID,
			Qty:    sign * item.Qty,
			Type:   typ,
			RefID:  refID,
		})
	}
	return deltas
}

func reverseLines(lines []ledger.JournalLine) []ledger.JournalLine {
	out := make([]ledger.JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, ledger.JournalLine{
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
		})
	}
	return out
}

func contraDrafts(entries []books.Entry) []books.Draft {
	out := make([]books.Draft, 0, len(entries))
	for _, e := range entries {
		out = append(out, books.Draft{
			Book:        e.Book,
			Particulars: "Reversal: " + e.Particulars,
			Receipt:     e.Payment,
			Payment:     e.Receipt,
		})
	}
	return out
}

func reverseDeltas(movements []inventory.Movement, refID string) []inventory.Delta {
	out := make([]inventory.Delta, 0, len(movements))
	for _, m := range movements {
		out = append(out, inventory.Delta{
			ItemID: m.ItemID,
			Qty:    -m.QtyDelta,
			Type:   inventory.MovementReversal,
			RefID:  refID,
		})
	}
	return out
}

func reversalNarration(reason, voucherNo string) string {
	if reason != "" {
		return reason
	}
	return "Reversal of " + voucherNo
}

var voucherPrefixes = map[event.Type]string{
	event.TypeSale:       "SAL",
	event.TypePurchase:   "PUR",
	event.TypeReturnIn:   "SRN",
	event.TypeReturnOut:  "PRN",
	event.TypePayment:    "PAY",
	event.TypeCashTxn:    "CSH",
	event.TypeAdjustment: "ADJ",
}

func voucherNo(t event.Type, number int64) string {
	prefix, ok := voucherPrefixes[t]
	if !ok {
		prefix = "JRN"
	}
	return fmt.Sprintf("%s-%06d", prefix, number)
}

// hashEvent fingerprints the caller-visible payload. The server-assigned
// event id is excluded so a retry without it still matches.
func hashEvent(ev event.Event) string {
	ev.ID = uuid.Nil
	payload, _ := json.Marshal(ev)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
