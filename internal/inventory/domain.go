// Package inventory applies stock deltas under the non-negative-stock
// invariant and keeps the append-only movement trail.
package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/munim-pos/munim/internal/money"
)

// MovementType enumerates stock movement causes.
type MovementType string

const (
	MovementSale       MovementType = "SALE"
	MovementPurchase   MovementType = "PURCHASE"
	MovementReturnIn   MovementType = "RETURN_IN"
	MovementReturnOut  MovementType = "RETURN_OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementReversal   MovementType = "REVERSAL"
)

// Item models one stocked product. Qty never goes negative except under an
// authorized override.
type Item struct {
	ID           int64       `json:"id"`
	TenantID     uuid.UUID   `json:"tenant_id"`
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	Qty          int64       `json:"qty"`
	CostPrice    money.Minor `json:"cost_price"`
	SellingPrice money.Minor `json:"selling_price"`
	MinStock     int64       `json:"min_stock"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Movement is one append-only stock mutation record.
type Movement struct {
	ID       int64        `json:"id"`
	TenantID uuid.UUID    `json:"tenant_id"`
	ItemID   int64        `json:"item_id"`
	Type     MovementType `json:"type"`
	QtyDelta int64        `json:"qty_delta"`
	PrevQty  int64        `json:"prev_qty"`
	NewQty   int64        `json:"new_qty"`
	RefID    string       `json:"ref_id"`
	Override bool         `json:"override,omitempty"`
	At       time.Time    `json:"at"`
}

// Delta is one requested stock change.
type Delta struct {
	ItemID int64
	Qty    int64
	Type   MovementType
	RefID  string
}

var (
	// ErrInsufficientStock indicates the delta would take quantity below
	// zero without an authorized override.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrUnknownItem indicates the referenced item does not exist.
	ErrUnknownItem = errors.New("inventory: unknown item")
)
