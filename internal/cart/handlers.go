package cart

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/aigov-api/internal/catalog"
	"github.com/noah-isme/aigov-api/internal/common"
	"github.com/noah-isme/aigov-api/internal/events"
	"github.com/noah-isme/aigov-api/internal/obs"
	"github.com/noah-isme/aigov-api/internal/pricing"
)

// Emitter publishes cart domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Handler wires session carts to HTTP.
type Handler struct {
	Carts    *Registry
	Catalog  catalog.Provider
	Events   Emitter
	Currency string

	validate *validator.Validate
}

// NewHandler constructs a Handler with a shared validator.
func NewHandler(carts *Registry, provider catalog.Provider, emitter Emitter, currency string) *Handler {
	return &Handler{
		Carts:    carts,
		Catalog:  provider,
		Events:   emitter,
		Currency: currency,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// LineView renders a line with display prices.
type LineView struct {
	Line
	UnitPriceDisplay string        `json:"unitPriceDisplay"`
	Subtotal         pricing.Money `json:"subtotal"`
	SubtotalDisplay  string        `json:"subtotalDisplay"`
}

// SnapshotView is the HTTP representation of a cart snapshot.
type SnapshotView struct {
	Lines        []LineView    `json:"lines"`
	Total        pricing.Money `json:"total"`
	TotalDisplay string        `json:"totalDisplay"`
	LineCount    int           `json:"lineCount"`
	Currency     string        `json:"currency"`
}

// NewSnapshotView formats snap for output in currency.
func NewSnapshotView(snap Snapshot, currency string) SnapshotView {
	lines := make([]LineView, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, LineView{
			Line:             l,
			UnitPriceDisplay: pricing.Format(l.UnitPrice),
			Subtotal:         l.Subtotal(),
			SubtotalDisplay:  pricing.Format(l.Subtotal()),
		})
	}
	return SnapshotView{
		Lines:        lines,
		Total:        snap.Total,
		TotalDisplay: pricing.Format(snap.Total),
		LineCount:    snap.LineCount,
		Currency:     currency,
	}
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	store, _, release, ok := h.store(w, r)
	if !ok {
		return
	}
	defer release()
	h.writeSnapshot(w, http.StatusOK, store)
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	store, userID, release, ok := h.store(w, r)
	if !ok {
		return
	}
	defer release()
	store.Clear()
	h.record(r.Context(), "clear", true, events.TopicCartCleared, userID, nil)
	h.writeSnapshot(w, http.StatusOK, store)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, userID, release, ok := h.store(w, r)
	if !ok {
		return
	}
	defer release()
	var req addItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "productId is required", map[string]string{"field": "productId"})
		return
	}
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	product, found := h.Catalog.Get(req.ProductID)
	if !found {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	added := store.AddItem(product)
	h.record(r.Context(), "add", added, events.TopicCartItemAdded, userID, map[string]any{
		"productId": product.ID,
		"name":      product.Name,
	})
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	h.writeSnapshot(w, status, store)
}

// Item handles GET /api/v1/cart/items/{id}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	store, _, release, ok := h.store(w, r)
	if !ok {
		return
	}
	defer release()
	id := chi.URLParam(r, "id")
	common.Data(w, http.StatusOK, map[string]any{
		"id":       id,
		"inCart":   store.IsInCart(id),
		"quantity": store.ItemQuantity(id),
	})
}

// UpdateQuantity handles PATCH /api/v1/cart/items/{id}.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	store, userID, release, ok := h.store(w, r)
	if !ok {
		return
	}
	defer release()
	var req updateQuantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "quantity is required", map[string]string{"field": "quantity"})
		return
	}
	id := chi.URLParam(r, "id")
	from, err := store.setQuantity(id, *req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.record(r.Context(), "update", from > 0 && from != *req.Quantity, events.TopicCartQuantityChanged, userID, map[string]any{
		"productId": id,
		"from":      from,
		"to":        *req.Quantity,
	})
	h.writeSnapshot(w, http.StatusOK, store)
}

// Increment handles POST /api/v1/cart/items/{id}/increment.
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "increment", 1)
}

// Decrement handles POST /api/v1/cart/items/{id}/decrement.
func (h *Handler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "decrement", -1)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, op string, delta int) {
	store, userID, release, ok := h.store(w, r)
	if !ok {
		return
	}
	defer release()
	id := chi.URLParam(r, "id")
	from, to, changed := store.step(id, delta)
	h.record(r.Context(), op, changed, events.TopicCartQuantityChanged, userID, map[string]any{
		"productId": id,
		"from":      from,
		"to":        to,
	})
	h.writeSnapshot(w, http.StatusOK, store)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, userID, release, ok := h.store(w, r)
	if !ok {
		return
	}
	defer release()
	id := chi.URLParam(r, "id")
	removed := store.RemoveItem(id)
	h.record(r.Context(), "remove", removed, events.TopicCartItemRemoved, userID, map[string]any{
		"productId": id,
	})
	h.writeSnapshot(w, http.StatusOK, store)
}

// store acquires the caller's cart; release must be called once the
// response is written.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, string, func(), bool) {
	if h.Carts == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart registry not configured", nil)
		return nil, "", nil, false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return nil, "", nil, false
	}
	store, release := h.Carts.Acquire(userID)
	return store, userID, release, true
}

// record counts the mutation and, when state changed, emits its event.
// Event delivery failures never fail the request.
func (h *Handler) record(ctx context.Context, op string, applied bool, topic, userID string, payload map[string]any) {
	if !applied {
		obs.RecordCartMutation(op, "noop")
		return
	}
	obs.RecordCartMutation(op, "applied")
	if h.Events == nil {
		return
	}
	var body any
	if payload != nil {
		body = payload
	}
	_, _ = h.Events.Emit(ctx, topic, userID, body)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, status int, store *Store) {
	common.Data(w, status, NewSnapshotView(store.Snapshot(), h.Currency))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidQuantity) {
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), map[string]string{"field": "quantity"})
		return
	}
	if common.WriteAppError(w, err) {
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
