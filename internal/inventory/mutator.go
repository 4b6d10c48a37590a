package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TxStore exposes the item operations the mutator needs inside the posting
// transaction.
type TxStore interface {
	GetItemForUpdate(ctx context.Context, itemID int64) (Item, error)
	UpdateItemQty(ctx context.Context, itemID int64, qty int64) error
	AppendMovement(ctx context.Context, m Movement) (Movement, error)
}

// PlannedChange pairs an item's before state with its planned movement.
type PlannedChange struct {
	Before   Item
	Movement Movement
}

// Plan captures validated stock changes prior to any write. Planning locks
// the item rows, so the checked quantities hold until commit.
type Plan struct {
	Changes  []PlannedChange
	Override bool
}

// Mutator validates and applies stock deltas.
type Mutator struct {
	now func() time.Time
}

// NewMutator returns a Mutator.
func NewMutator() *Mutator {
	return &Mutator{now: time.Now}
}

// WithNow overrides the clock, for tests.
func (m *Mutator) WithNow(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// PlanChanges locks every touched item and verifies the resulting
// quantities. Without an override, a delta that would drive quantity
// negative fails with ErrInsufficientStock and nothing is written.
func (m *Mutator) PlanChanges(ctx context.Context, tx TxStore, tenant uuid.UUID, deltas []Delta, override bool) (Plan, error) {
	plan := Plan{Override: override}
	at := m.now().UTC()
	for _, delta := range deltas {
		if delta.Qty == 0 {
			continue
		}
		item, err := tx.GetItemForUpdate(ctx, delta.ItemID)
		if err != nil {
			if errors.Is(err, ErrUnknownItem) {
				return Plan{}, fmt.Errorf("%w: id %d", ErrUnknownItem, delta.ItemID)
			}
			return Plan{}, err
		}
		newQty := item.Qty + delta.Qty
		if newQty < 0 && !override {
			return Plan{}, fmt.Errorf("%w: item %d has %d, need %d", ErrInsufficientStock, item.ID, item.Qty, -delta.Qty)
		}
		plan.Changes = append(plan.Changes, PlannedChange{
			Before: item,
			Movement: Movement{
				TenantID: tenant,
				ItemID:   item.ID,
				Type:     delta.Type,
				QtyDelta: delta.Qty,
				PrevQty:  item.Qty,
				NewQty:   newQty,
				RefID:    delta.RefID,
				Override: newQty < 0,
				At:       at,
			},
		})
	}
	return plan, nil
}

// Commit applies a previously validated plan: updates each quantity and
// appends one movement row per change. Movements record successes only.
func (m *Mutator) Commit(ctx context.Context, tx TxStore, plan *Plan) ([]Movement, error) {
	movements := make([]Movement, 0, len(plan.Changes))
	for i, change := range plan.Changes {
		if err := tx.UpdateItemQty(ctx, change.Movement.ItemID, change.Movement.NewQty); err != nil {
			return nil, err
		}
		inserted, err := tx.AppendMovement(ctx, change.Movement)
		if err != nil {
			return nil, err
		}
		plan.Changes[i].Movement = inserted
		movements = append(movements, inserted)
	}
	return movements, nil
}
