package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"satchel/apperr"
	"satchel/cart"
	"satchel/catalog"
	"satchel/coupons"
	"satchel/session"
	"satchel/stock"
	"satchel/utils"

	"github.com/julienschmidt/httprouter"
)

var sessions session.Storer = session.NewStore()

var deps = cart.Deps{
	Products: catalog.Finder{},
	Stock:    stock.Holder{},
	Coupons:  coupons.Checker{},
}

// resolveSession loads or creates the request's cart session. On failure it
// has already written the error response.
func resolveSession(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session.Handler, bool) {
	h, err := session.Resolve(ctx, r, sessions)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return nil, false
	}
	return h, true
}

// finish runs the one end-of-request commit and writes the contract headers.
func finish(ctx context.Context, w http.ResponseWriter, h *session.Handler) bool {
	if h.NeedsCommit() {
		if err := h.Commit(ctx); err != nil {
			utils.RespondWithAppError(w, err)
			return false
		}
	}
	h.WriteHeaders(w)
	return true
}

// GetCart returns the validated cart, or the canonical empty shape.
func GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}
	c := h.Cart()

	if err := c.Validate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if err := c.Calculate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, c.Format(h.CartKey(), c.CrossSells(ctx, deps)))
}

// AddItem adds a product to the cart by ID or SKU.
func AddItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req cart.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_payload", "Invalid JSON payload."))
		return
	}

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}

	item, err := h.Cart().Add(ctx, deps, req)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	// notices carry in-flight adjustments, e.g. a capped quantity
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"item":    item,
		"notices": h.Cart().Notices(),
	})
}

// UpdateItem sets a line item's quantity; zero removes it.
func UpdateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_payload", "Invalid JSON payload."))
		return
	}

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}

	item, err := h.Cart().UpdateQuantity(ctx, deps, ps.ByName("item_key"), req.Quantity)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, item)
}

// RemoveItem moves a line item to removed items, from where it can be
// restored.
func RemoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}

	item, err := h.Cart().Remove(ctx, deps, ps.ByName("item_key"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Item removed from cart.",
		"item":    item,
	})
}

// RestoreItem moves a removed line item back into active contents.
func RestoreItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}

	item, err := h.Cart().Restore(ctx, deps, ps.ByName("item_key"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, item)
}

// CalculateTotals forces a full recalculation without a content change.
// ?return=true also returns the fresh totals.
func CalculateTotals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}
	c := h.Cart()

	if err := c.Validate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if err := c.Calculate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	if r.URL.Query().Get("return") == "true" {
		utils.RespondWithJSON(w, http.StatusOK, c.Totals())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Cart totals recalculated."})
}

// CountItems returns the item count, or a descriptive message when the cart
// is empty unless ?plain=true asks for the bare number.
func CountItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}
	c := h.Cart()

	// the count honors the same read-time checks as any cart-bearing read
	if err := c.Validate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	count := c.Count()
	if r.URL.Query().Get("plain") == "true" {
		utils.RespondWithJSON(w, http.StatusOK, count)
		return
	}
	if count == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "There are no items in the cart."})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"item_count": count})
}

// ClearCart destroys the session's contents and releases its stock holds.
func ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}

	if err := stock.ReleaseForCart(ctx, h.CartKey()); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if err := h.Destroy(ctx); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	h.WriteHeaders(w)

	utils.RespondWithJSON(w, http.StatusOK, h.Cart().Format(h.CartKey(), nil))
}

// SetItemPrice forces a line item's price. Only honored when the request
// carries the shared secret in X-Cart-Price-Salt and a secret is configured;
// otherwise the capability simply does not exist.
func SetItemPrice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	salt := os.Getenv("PRICE_OVERRIDE_SALT")
	given := r.Header.Get("X-Cart-Price-Salt")
	if salt == "" || subtle.ConstantTimeCompare([]byte(salt), []byte(given)) != 1 {
		utils.RespondWithAppError(w, apperr.Forbidden("price_override_denied", "Price overrides are not permitted."))
		return
	}

	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_payload", "Invalid JSON payload."))
		return
	}

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}
	c := h.Cart()

	if err := c.SetPriceOverride(ps.ByName("item_key"), req.Price); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if err := c.Calculate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, c.Format(h.CartKey(), nil))
}
