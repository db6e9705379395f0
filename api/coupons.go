package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"satchel/apperr"
	"satchel/utils"

	"github.com/julienschmidt/httprouter"
)

// ApplyCoupon validates a coupon against the current subtotal and attaches
// it to the cart.
func ApplyCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_payload", "Invalid JSON payload."))
		return
	}
	code := strings.TrimSpace(strings.ToLower(req.Code))
	if code == "" {
		utils.RespondWithAppError(w, apperr.BadRequest("coupon_code_required", "A coupon code is required."))
		return
	}

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}
	c := h.Cart()

	if err := c.ApplyCoupon(ctx, deps, code); err != nil {
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

// RemoveCoupon detaches a coupon from the cart.
func RemoveCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}
	c := h.Cart()

	if err := c.RemoveCoupon(ps.ByName("code")); err != nil {
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
