package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/munim-pos/munim/internal/books"
	"github.com/munim-pos/munim/internal/inventory"
	"github.com/munim-pos/munim/internal/ledger"
	"github.com/munim-pos/munim/internal/money"
	"github.com/munim-pos/munim/internal/platform/db"
	"github.com/munim-pos/munim/internal/shared"
)

// PgStore is the Postgres-backed Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewStore builds a PgStore.
func NewStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// WithTenantTx runs fn inside a RepeatableRead transaction holding the
// tenant's advisory lock, so at most one posting unit per tenant is in
// flight. Readers are unaffected and observe committed snapshots only.
func (s *PgStore) WithTenantTx(ctx context.Context, tenant uuid.UUID, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, shared.TenantLockID(tenant)); err != nil {
			return fmt.Errorf("%w: acquire tenant lock: %v", shared.ErrStorage, err)
		}
		return fn(ctx, &pgTx{tx: tx, tenant: tenant})
	})
}

// AccountBalance reads the current balance, or the balance as of a moment by
// replaying nothing: the last posting row at or before asOf already carries
// it.
func (s *PgStore) AccountBalance(ctx context.Context, tenant uuid.UUID, code string, asOf time.Time) (money.Minor, error) {
	var balance int64
	err := s.pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE tenant_id=$1 AND code=$2`, tenant, code).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ledger.ErrUnknownAccount, code)
		}
		return 0, err
	}
	if asOf.IsZero() {
		return money.Minor(balance), nil
	}
	err = s.pool.QueryRow(ctx, `SELECT balance_after FROM ledger_postings
WHERE tenant_id=$1 AND account_code=$2 AND at<=$3 ORDER BY at DESC, id DESC LIMIT 1`, tenant, code, asOf).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return money.Minor(balance), nil
}

// BookEntries lists one subsidiary book in append order.
func (s *PgStore) BookEntries(ctx context.Context, tenant uuid.UUID, book books.Type, filter books.Filter) ([]books.Entry, error) {
	query := `SELECT id, tenant_id, book, date, particulars, voucher_no, entry_id, receipt, payment, balance, at
FROM book_entries WHERE tenant_id=$1 AND book=$2`
	args := []any{tenant, book}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []books.Entry
	for rows.Next() {
		var e books.Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Book, &e.Date, &e.Particulars, &e.VoucherNo, &e.EntryID, &e.Receipt, &e.Payment, &e.Balance, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ItemStock reads the current quantity.
func (s *PgStore) ItemStock(ctx context.Context, tenant uuid.UUID, itemID int64) (int64, error) {
	var qty int64
	err := s.pool.QueryRow(ctx, `SELECT qty FROM inventory_items WHERE tenant_id=$1 AND id=$2`, tenant, itemID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: id %d", inventory.ErrUnknownItem, itemID)
		}
		return 0, err
	}
	return qty, nil
}

type pgTx struct {
	tx     pgx.Tx
	tenant uuid.UUID
}

func (t *pgTx) GetAccountForUpdate(ctx context.Context, code string) (ledger.Account, error) {
	var a ledger.Account
	err := t.tx.QueryRow(ctx, `SELECT tenant_id, code, name, type, normal_side, balance, created_at, updated_at
FROM accounts WHERE tenant_id=$1 AND code=$2 FOR UPDATE`, t.tenant, code).
		Scan(&a.TenantID, &a.Code, &a.Name, &a.Type, &a.NormalSide, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrUnknownAccount
		}
		return ledger.Account{}, err
	}
	return a, nil
}

func (t *pgTx) UpdateAccountBalance(ctx context.Context, code string, balance money.Minor) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE accounts SET balance=$3, updated_at=NOW() WHERE tenant_id=$1 AND code=$2`, t.tenant, code, int64(balance))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrUnknownAccount
	}
	return nil
}

func (t *pgTx) AppendPosting(ctx context.Context, p ledger.Posting) (ledger.Posting, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO ledger_postings (tenant_id, entry_id, account_code, debit, credit, balance_after, at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		t.tenant, p.EntryID, p.AccountCode, int64(p.Debit), int64(p.Credit), int64(p.BalanceAfter), p.At).Scan(&p.ID)
	if err != nil {
		return ledger.Posting{}, err
	}
	return p, nil
}

func (t *pgTx) NextEntryNumber(ctx context.Context) (int64, error) {
	// Safe under the tenant advisory lock: postings for one tenant are
	// serialized, so max+1 cannot race.
	var next int64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(number),0)+1 FROM journal_entries WHERE tenant_id=$1`, t.tenant).Scan(&next)
	return next, err
}

func (t *pgTx) InsertJournalEntry(ctx context.Context, entry *ledger.JournalEntry) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO journal_entries (id, tenant_id, number, date, voucher, voucher_no, narration, ref_id, reversal_of, status, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		entry.ID, entry.TenantID, entry.Number, entry.Date, entry.Voucher, entry.VoucherNo, entry.Narration, entry.RefID, entry.ReversalOf, entry.Status, entry.PostedAt)
	if err != nil {
		return err
	}
	for i, line := range entry.Lines {
		if _, err := t.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, line_no, account_code, debit, credit)
VALUES ($1,$2,$3,$4,$5)`, entry.ID, i+1, line.AccountCode, int64(line.Debit), int64(line.Credit)); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) GetJournalEntry(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	err := t.tx.QueryRow(ctx, `SELECT id, tenant_id, number, date, voucher, voucher_no, narration, ref_id, reversal_of, status, posted_at
FROM journal_entries WHERE tenant_id=$1 AND id=$2`, t.tenant, entryID).
		Scan(&e.ID, &e.TenantID, &e.Number, &e.Date, &e.Voucher, &e.VoucherNo, &e.Narration, &e.RefID, &e.ReversalOf, &e.Status, &e.PostedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.JournalEntry{}, shared.ErrNotFound
		}
		return ledger.JournalEntry{}, err
	}
	rows, err := t.tx.Query(ctx, `SELECT account_code, debit, credit FROM journal_lines WHERE entry_id=$1 ORDER BY line_no ASC`, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line ledger.JournalLine
		if err := rows.Scan(&line.AccountCode, &line.Debit, &line.Credit); err != nil {
			return ledger.JournalEntry{}, err
		}
		e.Lines = append(e.Lines, line)
	}
	return e, rows.Err()
}

func (t *pgTx) MarkEntryReversed(ctx context.Context, entryID uuid.UUID) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE journal_entries SET status=$3 WHERE tenant_id=$1 AND id=$2 AND status=$4`,
		t.tenant, entryID, ledger.EntryStatusReversed, ledger.EntryStatusPosted)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyReversed
	}
	return nil
}

func (t *pgTx) GetBookBalance(ctx context.Context, book books.Type) (money.Minor, error) {
	var balance int64
	err := t.tx.QueryRow(ctx, `SELECT balance FROM book_entries WHERE tenant_id=$1 AND book=$2 ORDER BY id DESC LIMIT 1`, t.tenant, book).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return money.Minor(balance), nil
}

func (t *pgTx) AppendBookEntry(ctx context.Context, entry books.Entry) (books.Entry, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO book_entries (tenant_id, book, date, particulars, voucher_no, entry_id, receipt, payment, balance, at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		t.tenant, entry.Book, entry.Date, entry.Particulars, entry.VoucherNo, entry.EntryID,
		int64(entry.Receipt), int64(entry.Payment), int64(entry.Balance), entry.At).Scan(&entry.ID)
	if err != nil {
		return books.Entry{}, err
	}
	return entry, nil
}

func (t *pgTx) BookEntriesForEntry(ctx context.Context, entryID uuid.UUID) ([]books.Entry, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, tenant_id, book, date, particulars, voucher_no, entry_id, receipt, payment, balance, at
FROM book_entries WHERE tenant_id=$1 AND entry_id=$2 ORDER BY id ASC`, t.tenant, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []books.Entry
	for rows.Next() {
		var e books.Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Book, &e.Date, &e.Particulars, &e.VoucherNo, &e.EntryID, &e.Receipt, &e.Payment, &e.Balance, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (t *pgTx) GetItemForUpdate(ctx context.Context, itemID int64) (inventory.Item, error) {
	var item inventory.Item
	err := t.tx.QueryRow(ctx, `SELECT id, tenant_id, sku, name, qty, cost_price, selling_price, min_stock, created_at, updated_at
FROM inventory_items WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, t.tenant, itemID).
		Scan(&item.ID, &item.TenantID, &item.SKU, &item.Name, &item.Qty, &item.CostPrice, &item.SellingPrice, &item.MinStock, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Item{}, inventory.ErrUnknownItem
		}
		return inventory.Item{}, err
	}
	return item, nil
}

func (t *pgTx) UpdateItemQty(ctx context.Context, itemID int64, qty int64) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE inventory_items SET qty=$3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, t.tenant, itemID, qty)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return inventory.ErrUnknownItem
	}
	return nil
}

func (t *pgTx) AppendMovement(ctx context.Context, m inventory.Movement) (inventory.Movement, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO stock_movements (tenant_id, item_id, type, qty_delta, prev_qty, new_qty, ref_id, override, at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		t.tenant, m.ItemID, m.Type, m.QtyDelta, m.PrevQty, m.NewQty, m.RefID, m.Override, m.At).Scan(&m.ID)
	if err != nil {
		return inventory.Movement{}, err
	}
	return m, nil
}

func (t *pgTx) MovementsForRef(ctx context.Context, refID string) ([]inventory.Movement, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, tenant_id, item_id, type, qty_delta, prev_qty, new_qty, ref_id, override, at
FROM stock_movements WHERE tenant_id=$1 AND ref_id=$2 ORDER BY id ASC`, t.tenant, refID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []inventory.Movement
	for rows.Next() {
		var m inventory.Movement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ItemID, &m.Type, &m.QtyDelta, &m.PrevQty, &m.NewQty, &m.RefID, &m.Override, &m.At); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (t *pgTx) GetIdempotency(ctx context.Context, key string) (string, []byte, error) {
	var hash string
	var result []byte
	err := t.tx.QueryRow(ctx, `SELECT payload_hash, result FROM idempotency_keys WHERE tenant_id=$1 AND key=$2`, t.tenant, key).Scan(&hash, &result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, shared.ErrNotFound
		}
		return "", nil, err
	}
	return hash, result, nil
}

func (t *pgTx) SaveIdempotency(ctx context.Context, key, payloadHash string, result []byte) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO idempotency_keys (tenant_id, key, payload_hash, result, created_at)
VALUES ($1,$2,$3,$4,NOW())`, t.tenant, key, payloadHash, result)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePosting
		}
		return err
	}
	return nil
}

func (t *pgTx) AppendAudit(ctx context.Context, rec shared.AuditRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	oldJSON, newJSON, err := rec.MarshalValues()
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO audit_logs (tenant_id, actor_id, action, table_name, record_id, old_value, new_value, at)
VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8, NOW()))`,
		t.tenant, rec.ActorID, rec.Action, rec.Table, rec.RecordID, oldJSON, newJSON, nullTime(rec.At))
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
