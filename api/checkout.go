package api

import (
	"context"
	"net/http"
	"time"

	"satchel/apperr"
	"satchel/models"
	"satchel/stock"
	"satchel/utils"

	"github.com/julienschmidt/httprouter"
)

const holdTTL = 60 * time.Minute

// InitiateCheckout validates the cart one last time and places stock holds
// for its managed-stock items so a slow payment flow cannot be undercut by
// another shopper draining the shelf.
func InitiateCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h, ok := resolveSession(ctx, w, r)
	if !ok {
		return
	}
	c := h.Cart()

	if c.IsEmpty() {
		utils.RespondWithAppError(w, apperr.BadRequest("cart_empty", "Cannot check out an empty cart."))
		return
	}

	if err := c.Validate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if err := c.Calculate(ctx, deps); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	// refresh holds rather than stacking them
	if err := stock.ReleaseForCart(ctx, h.CartKey()); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	var managed []models.CartItem
	for _, item := range c.Format(h.CartKey(), nil).Items {
		id := item.ProductID
		if item.VariationID != "" {
			id = item.VariationID
		}
		product, err := deps.Products.ProductByID(ctx, id)
		if err != nil {
			utils.RespondWithAppError(w, err)
			return
		}
		if product != nil && product.ManageStock && !product.BackordersAllowed {
			hold := item
			hold.ProductID = product.ProductID
			managed = append(managed, hold)
		}
	}

	holds, err := stock.PlaceHolds(ctx, h.CartKey(), managed, holdTTL)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if !finish(ctx, w, h) {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Checkout initiated.",
		"holds":   holds,
		"totals":  c.Totals(),
	})
}
