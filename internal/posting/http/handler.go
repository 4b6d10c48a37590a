// Package postinghttp exposes the posting engine over JSON endpoints.
package postinghttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/munim-pos/munim/internal/books"
	"github.com/munim-pos/munim/internal/event"
	"github.com/munim-pos/munim/internal/inventory"
	"github.com/munim-pos/munim/internal/ledger"
	"github.com/munim-pos/munim/internal/money"
	"github.com/munim-pos/munim/internal/observability"
	"github.com/munim-pos/munim/internal/platform/httpx"
	"github.com/munim-pos/munim/internal/posting"
	"github.com/munim-pos/munim/internal/shared"
)

// Handler manages posting endpoints. Amounts cross this boundary either as
// raw minor units or as major-unit decimal strings in the configured
// currency.
type Handler struct {
	logger      *slog.Logger
	coordinator *posting.Coordinator
	queries     *posting.Queries
	metrics     *observability.Metrics
	currency    currency.Unit
	validate    *validator.Validate
}

// NewHandler builds Handler instance. metrics may be nil.
func NewHandler(logger *slog.Logger, coordinator *posting.Coordinator, queries *posting.Queries, metrics *observability.Metrics, cur currency.Unit) *Handler {
	return &Handler{
		logger:      logger,
		coordinator: coordinator,
		queries:     queries,
		metrics:     metrics,
		currency:    cur,
		validate:    validator.New(),
	}
}

// MountRoutes registers posting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/postings", h.submit)
	r.Post("/postings/{id}/reverse", h.reverse)
	r.Get("/accounts/{code}/balance", h.accountBalance)
	r.Get("/books/{type}/entries", h.bookEntries)
	r.Get("/items/{id}/stock", h.itemStock)
}

type lineItemReq struct {
	ItemID         int64  `json:"item_id" validate:"required,gt=0"`
	Qty            int64  `json:"qty" validate:"required,gt=0"`
	UnitPrice      int64  `json:"unit_price" validate:"gte=0"`
	UnitPriceMajor string `json:"unit_price_major,omitempty"`
}

type tradeReq struct {
	Settlement        string          `json:"settlement" validate:"required,oneof=CASH BANK CREDIT"`
	PartyName         string          `json:"party_name"`
	PartyJurisdiction string          `json:"party_jurisdiction"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Items             []lineItemReq   `json:"items" validate:"required,min=1,dive"`
}

type paymentReq struct {
	Direction   string `json:"direction" validate:"required,oneof=IN OUT"`
	Settlement  string `json:"settlement" validate:"required,oneof=CASH BANK"`
	PartyName   string `json:"party_name" validate:"required"`
	Amount      int64  `json:"amount" validate:"gte=0"`
	AmountMajor string `json:"amount_major,omitempty"`
}

type cashTxnReq struct {
	Kind        string `json:"kind" validate:"required,oneof=DEPOSIT WITHDRAWAL EXPENSE INCOME"`
	Amount      int64  `json:"amount" validate:"gte=0"`
	AmountMajor string `json:"amount_major,omitempty"`
	Memo        string `json:"memo"`
}

type adjustmentReq struct {
	ItemID        int64  `json:"item_id" validate:"required,gt=0"`
	QtyDelta      int64  `json:"qty_delta" validate:"required"`
	UnitCost      int64  `json:"unit_cost" validate:"gte=0"`
	UnitCostMajor string `json:"unit_cost_major,omitempty"`
	Reason        string `json:"reason" validate:"required"`
}

type submitReq struct {
	Type           string         `json:"type" validate:"required"`
	Date           time.Time      `json:"date" validate:"required"`
	IdempotencyKey string         `json:"idempotency_key" validate:"required"`
	Narration      string         `json:"narration"`
	OverrideStock  bool           `json:"override_stock"`
	Trade          *tradeReq      `json:"trade,omitempty"`
	Payment        *paymentReq    `json:"payment,omitempty"`
	CashTxn        *cashTxnReq    `json:"cash_txn,omitempty"`
	Adjustment     *adjustmentReq `json:"adjustment,omitempty"`
}

type reverseReq struct {
	Reason string `json:"reason"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
		return
	}

	var req submitReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ev, err := h.buildEvent(actor, req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid amount", err.Error())
		return
	}

	result, err := h.coordinator.Submit(r.Context(), ev)
	if err != nil {
		h.writeError(w, r, "submit posting failed", err)
		return
	}
	overrode := false
	for _, m := range result.StockMovements {
		if m.Override {
			overrode = true
		}
	}
	h.metrics.ObservePosting(string(ev.Type), overrode)
	httpx.JSON(w, http.StatusCreated, result)
}

// buildEvent maps the request onto the domain event, resolving each amount
// from its major-unit decimal string when one is supplied.
func (h *Handler) buildEvent(actor shared.Actor, req submitReq) (event.Event, error) {
	ev := event.Event{
		TenantID:       actor.TenantID,
		Type:           event.Type(req.Type),
		Date:           req.Date,
		ActorID:        actor.ID,
		IdempotencyKey: req.IdempotencyKey,
		Narration:      req.Narration,
		OverrideStock:  req.OverrideStock,
	}
	if req.Trade != nil {
		items := make([]event.LineItem, 0, len(req.Trade.Items))
		for _, item := range req.Trade.Items {
			price, err := h.amount(item.UnitPriceMajor, item.UnitPrice)
			if err != nil {
				return event.Event{}, err
			}
			items = append(items, event.LineItem{
				ItemID:    item.ItemID,
				Qty:       item.Qty,
				UnitPrice: price,
			})
		}
		ev.Trade = &event.TradePayload{
			Settlement:        event.Settlement(req.Trade.Settlement),
			PartyName:         req.Trade.PartyName,
			PartyJurisdiction: req.Trade.PartyJurisdiction,
			TaxRate:           req.Trade.TaxRate,
			Items:             items,
		}
	}
	if req.Payment != nil {
		amount, err := h.amount(req.Payment.AmountMajor, req.Payment.Amount)
		if err != nil {
			return event.Event{}, err
		}
		ev.Payment = &event.PaymentPayload{
			Direction:  event.PaymentDirection(req.Payment.Direction),
			Settlement: event.Settlement(req.Payment.Settlement),
			PartyName:  req.Payment.PartyName,
			Amount:     amount,
		}
	}
	if req.CashTxn != nil {
		amount, err := h.amount(req.CashTxn.AmountMajor, req.CashTxn.Amount)
		if err != nil {
			return event.Event{}, err
		}
		ev.CashTxn = &event.CashTxnPayload{
			Kind:   event.CashTxnKind(req.CashTxn.Kind),
			Amount: amount,
			Memo:   req.CashTxn.Memo,
		}
	}
	if req.Adjustment != nil {
		cost, err := h.amount(req.Adjustment.UnitCostMajor, req.Adjustment.UnitCost)
		if err != nil {
			return event.Event{}, err
		}
		ev.Adjustment = &event.AdjustmentPayload{
			ItemID:   req.Adjustment.ItemID,
			QtyDelta: req.Adjustment.QtyDelta,
			UnitCost: cost,
			Reason:   req.Adjustment.Reason,
		}
	}
	return ev, nil
}

// amount prefers the major-unit string over the raw minor value.
func (h *Handler) amount(major string, minor int64) (money.Minor, error) {
	if major == "" {
		return money.Minor(minor), nil
	}
	return money.ParseMajor(major, h.currency)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
		return
	}

	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid entry ID", err.Error())
		return
	}
	// The reason body is optional.
	var req reverseReq
	_ = httpx.DecodeJSON(r, &req)

	result, err := h.coordinator.Reverse(r.Context(), actor.TenantID, entryID, actor.ID, req.Reason)
	if err != nil {
		h.writeError(w, r, "reverse posting failed", err)
		return
	}
	h.metrics.ObserveReversal()
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
		return
	}

	code := chi.URLParam(r, "code")
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid as_of", "expected RFC3339 timestamp")
			return
		}
		asOf = parsed
	}

	balance, err := h.queries.AccountBalance(r.Context(), actor.TenantID, code, asOf)
	if err != nil {
		h.writeError(w, r, "account balance failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"account_code":  code,
		"balance":       int64(balance),
		"balance_major": money.FormatMajor(balance, h.currency),
	})
}

func (h *Handler) bookEntries(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
		return
	}

	book := books.Type(chi.URLParam(r, "type"))
	filter := books.Filter{}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.To = parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	entries, err := h.queries.BookEntries(r.Context(), actor.TenantID, book, filter)
	if err != nil {
		h.writeError(w, r, "book entries failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"book":    book,
		"entries": entries,
	})
}

func (h *Handler) itemStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid item ID", err.Error())
		return
	}

	qty, err := h.queries.ItemStock(r.Context(), actor.TenantID, itemID)
	if err != nil {
		h.writeError(w, r, "item stock failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"item_id": itemID,
		"qty":     qty,
	})
}

// writeError maps domain errors onto problem responses. Unmapped errors are
// logged and reported as a generic 500 so internals never leak.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, shared.ErrPermission):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, inventory.ErrUnknownItem), errors.Is(err, ledger.ErrUnknownAccount):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown reference", err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient stock", err.Error())
	case errors.Is(err, posting.ErrDuplicatePosting):
		httpx.Problem(w, http.StatusConflict, "Duplicate posting", err.Error())
	case errors.Is(err, posting.ErrAlreadyReversed):
		httpx.Problem(w, http.StatusConflict, "Already reversed", err.Error())
	case errors.Is(err, shared.ErrStorage):
		h.logger.Error(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Storage unavailable", "try again later")
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal error", "posting could not be completed")
	}
}
