package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/munim-pos/munim/internal/money"
)

// TxStore exposes the account operations the poster needs inside the posting
// transaction.
type TxStore interface {
	GetAccountForUpdate(ctx context.Context, code string) (Account, error)
	UpdateAccountBalance(ctx context.Context, code string, balance money.Minor) error
	AppendPosting(ctx context.Context, p Posting) (Posting, error)
}

// Poster applies journal lines to per-account running balances. Each applied
// line appends one immutable posting row carrying the balance after
// application; prior rows are never touched.
type Poster struct {
	now func() time.Time
}

// NewPoster returns a Poster.
func NewPoster() *Poster {
	return &Poster{now: time.Now}
}

// WithNow overrides the clock, for tests.
func (p *Poster) WithNow(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// Post applies every line of the entry. The account's balance moves toward
// its normal side: a debit increases a debit-normal account and decreases a
// credit-normal one, and symmetrically for credits.
func (p *Poster) Post(ctx context.Context, tx TxStore, entry *JournalEntry) ([]Posting, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	at := p.now().UTC()
	postings := make([]Posting, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		account, err := tx.GetAccountForUpdate(ctx, line.AccountCode)
		if err != nil {
			if errors.Is(err, ErrUnknownAccount) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, line.AccountCode)
			}
			return nil, err
		}
		delta := line.Debit - line.Credit
		if account.NormalSide == SideCredit {
			delta = line.Credit - line.Debit
		}
		newBalance := account.Balance + delta
		if err := tx.UpdateAccountBalance(ctx, account.Code, newBalance); err != nil {
			return nil, err
		}
		posting, err := tx.AppendPosting(ctx, Posting{
			TenantID:      entry.TenantID,
			EntryID:       entry.ID,
			AccountCode:   account.Code,
			Debit:         line.Debit,
			Credit:        line.Credit,
			BalanceAfter:  newBalance,
			BalanceBefore: account.Balance,
			At:            at,
		})
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}
	return postings, nil
}
