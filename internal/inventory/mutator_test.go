package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItemStore struct {
	items     map[int64]*Item
	movements []Movement
	nextID    int64

	getErr error
}

func newFakeItemStore(items ...Item) *fakeItemStore {
	s := &fakeItemStore{items: make(map[int64]*Item), nextID: 1}
	for i := range items {
		item := items[i]
		s.items[item.ID] = &item
	}
	return s
}

func (s *fakeItemStore) GetItemForUpdate(ctx context.Context, itemID int64) (Item, error) {
	if s.getErr != nil {
		return Item{}, s.getErr
	}
	item, ok := s.items[itemID]
	if !ok {
		return Item{}, ErrUnknownItem
	}
	return *item, nil
}

func (s *fakeItemStore) UpdateItemQty(ctx context.Context, itemID int64, qty int64) error {
	item, ok := s.items[itemID]
	if !ok {
		return ErrUnknownItem
	}
	item.Qty = qty
	return nil
}

func (s *fakeItemStore) AppendMovement(ctx context.Context, m Movement) (Movement, error) {
	m.ID = s.nextID
	s.nextID++
	s.movements = append(s.movements, m)
	return m, nil
}

func TestPlanAndCommitSale(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore(Item{ID: 1, TenantID: tenant, SKU: "NB-A4", Qty: 5})
	m := NewMutator()

	plan, err := m.PlanChanges(context.Background(), store, tenant,
		[]Delta{{ItemID: 1, Qty: -3, Type: MovementSale, RefID: "ref-1"}}, false)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)

	movements, err := m.Commit(context.Background(), store, &plan)
	require.NoError(t, err)
	require.Len(t, movements, 1)

	assert.Equal(t, int64(2), store.items[1].Qty)
	assert.Equal(t, int64(5), movements[0].PrevQty)
	assert.Equal(t, int64(2), movements[0].NewQty)
	assert.Equal(t, int64(-3), movements[0].QtyDelta)
	assert.Equal(t, "ref-1", movements[0].RefID)
	assert.False(t, movements[0].Override)
}

func TestPlanRejectsInsufficientStock(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore(Item{ID: 1, TenantID: tenant, Qty: 2})
	m := NewMutator()

	_, err := m.PlanChanges(context.Background(), store, tenant,
		[]Delta{{ItemID: 1, Qty: -5, Type: MovementSale, RefID: "ref-1"}}, false)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing was written.
	assert.Equal(t, int64(2), store.items[1].Qty)
	assert.Empty(t, store.movements)
}

func TestPlanOverrideAllowsNegativeAndMarksMovement(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore(Item{ID: 1, TenantID: tenant, Qty: 2})
	m := NewMutator()

	plan, err := m.PlanChanges(context.Background(), store, tenant,
		[]Delta{{ItemID: 1, Qty: -5, Type: MovementSale, RefID: "ref-1"}}, true)
	require.NoError(t, err)

	movements, err := m.Commit(context.Background(), store, &plan)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), store.items[1].Qty)
	assert.True(t, movements[0].Override)
}

func TestPlanOverrideOnlyFlagsNegativeOutcomes(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore(Item{ID: 1, TenantID: tenant, Qty: 10})
	m := NewMutator()

	plan, err := m.PlanChanges(context.Background(), store, tenant,
		[]Delta{{ItemID: 1, Qty: -4, Type: MovementSale, RefID: "ref-1"}}, true)
	require.NoError(t, err)

	movements, err := m.Commit(context.Background(), store, &plan)
	require.NoError(t, err)
	assert.False(t, movements[0].Override)
}

func TestPlanSkipsZeroDeltas(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore(Item{ID: 1, TenantID: tenant, Qty: 5})
	m := NewMutator()

	plan, err := m.PlanChanges(context.Background(), store, tenant,
		[]Delta{{ItemID: 1, Qty: 0, Type: MovementAdjustment, RefID: "ref-1"}}, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Changes)
}

func TestPlanUnknownItem(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore()
	m := NewMutator()

	_, err := m.PlanChanges(context.Background(), store, tenant,
		[]Delta{{ItemID: 42, Qty: 1, Type: MovementPurchase, RefID: "ref-1"}}, false)
	require.ErrorIs(t, err, ErrUnknownItem)
}

func TestPlanPassesThroughStorageErrors(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore()
	store.getErr = errors.New("connection reset")
	m := NewMutator()

	_, err := m.PlanChanges(context.Background(), store, tenant,
		[]Delta{{ItemID: 1, Qty: 1, Type: MovementPurchase, RefID: "ref-1"}}, false)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnknownItem)
}

func TestMultipleItemsAllOrNothingAtPlanTime(t *testing.T) {
	tenant := uuid.New()
	store := newFakeItemStore(
		Item{ID: 1, TenantID: tenant, Qty: 5},
		Item{ID: 2, TenantID: tenant, Qty: 1},
	)
	m := NewMutator()

	_, err := m.PlanChanges(context.Background(), store, tenant, []Delta{
		{ItemID: 1, Qty: -2, Type: MovementSale, RefID: "ref-1"},
		{ItemID: 2, Qty: -3, Type: MovementSale, RefID: "ref-1"},
	}, false)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(5), store.items[1].Qty)
	assert.Equal(t, int64(1), store.items[2].Qty)
}
