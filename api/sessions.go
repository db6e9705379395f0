package api

import (
	"context"
	"net/http"
	"time"

	"satchel/apperr"
	"satchel/cart"
	"satchel/session"
	"satchel/utils"

	"github.com/julienschmidt/httprouter"
)

// GetSession exposes a stored cart session by key: its expiry thresholds,
// source, hash and deserialized contents. Admin-facing.
func GetSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	key := ps.ByName("cart_key")
	sess, err := sessions.Get(ctx, key)
	if err == session.ErrNotFound {
		utils.RespondWithAppError(w, apperr.NotFound("session_not_found", "No cart session matches that key."))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	c := cart.Deserialize(sess.CartValue)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"cart_key":    sess.CartKey,
		"created_at":  sess.CreatedAt,
		"expiring_at": sess.ExpiringAt,
		"expires_at":  sess.ExpiresAt,
		"source":      sess.Source,
		"hash":        sess.Hash,
		"item_count":  c.Count(),
		"cart":        c.Format(sess.CartKey, nil),
	})
}

// DeleteSession removes a stored cart session. Idempotent.
func DeleteSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := sessions.Delete(ctx, ps.ByName("cart_key")); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Cart session deleted."})
}
