package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/munim-pos/munim/internal/books"
	"github.com/munim-pos/munim/internal/money"
	"github.com/munim-pos/munim/internal/shared"
)

// Queries serves the read side. Reads observe snapshot isolation from the
// store; the cache only short-circuits the hot current-balance paths.
type Queries struct {
	store Store
	cache *Cache
}

// NewQueries builds a query service. cache may be nil.
func NewQueries(store Store, cache *Cache) *Queries {
	return &Queries{store: store, cache: cache}
}

// AccountBalance returns the account balance. A zero asOf means "now" and
// may be served from cache; historical asOf always hits the store.
func (q *Queries) AccountBalance(ctx context.Context, tenant uuid.UUID, code string, asOf time.Time) (money.Minor, error) {
	if asOf.IsZero() {
		if balance, ok := q.cache.GetBalance(ctx, tenant, code); ok {
			return balance, nil
		}
	}
	balance, err := q.store.AccountBalance(ctx, tenant, code, asOf)
	if err != nil {
		return 0, err
	}
	if asOf.IsZero() {
		q.cache.SetBalance(ctx, tenant, code, balance)
	}
	return balance, nil
}

// BookEntries lists a subsidiary book.
func (q *Queries) BookEntries(ctx context.Context, tenant uuid.UUID, book books.Type, filter books.Filter) ([]books.Entry, error) {
	if !book.Valid() {
		return nil, fmt.Errorf("%w: unknown book type %q", shared.ErrValidation, book)
	}
	return q.store.BookEntries(ctx, tenant, book, filter)
}

// ItemStock returns the current quantity for an item.
func (q *Queries) ItemStock(ctx context.Context, tenant uuid.UUID, itemID int64) (int64, error) {
	if qty, ok := q.cache.GetStock(ctx, tenant, itemID); ok {
		return qty, nil
	}
	qty, err := q.store.ItemStock(ctx, tenant, itemID)
	if err != nil {
		return 0, err
	}
	q.cache.SetStock(ctx, tenant, itemID, qty)
	return qty, nil
}
