package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"satchel/cart"
	"satchel/globals"
	"satchel/models"
	"satchel/utils"

	"github.com/google/uuid"
)

const (
	// Soon-to-expire threshold; crossing it triggers proactive renewal so a
	// cart that is merely being read is never lost.
	ExpiringAfter = 6 * 24 * time.Hour
	// Hard expiry; past this the row is eligible for the cleanup sweep.
	ExpiresAfter = 7 * 24 * time.Hour
)

// CartKeyHeader carries the cart key on requests and responses.
const CartKeyHeader = "X-Cart-Key"

// Storer is the session persistence the handler works against. *Store is
// the production implementation.
type Storer interface {
	Get(ctx context.Context, key string) (*models.CartSession, error)
	Put(ctx context.Context, sess *models.CartSession) error
	Delete(ctx context.Context, key string) error
}

// Handler is the request-scoped session handle: it resolves which cart
// session applies to the request, keeps it fresh, and batches all in-request
// changes into one Commit write.
type Handler struct {
	store            Storer
	session          *models.CartSession
	cart             *cart.Cart
	fresh            bool
	requestedInvalid bool
}

// RequestedKey reads the caller's cart key: explicit query parameter first,
// then the dedicated header.
func RequestedKey(r *http.Request) string {
	if k := strings.TrimSpace(r.URL.Query().Get("cart_key")); k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get(CartKeyHeader))
}

// GenerateKey creates a high-entropy guest cart key.
func GenerateKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + utils.GenerateRandomString(10)
}

// RenewWindow computes fresh expiry thresholds from now. The new values are
// always strictly ahead of any thresholds that triggered the renewal.
func RenewWindow(now time.Time) (expiringAt, expiresAt int64) {
	return now.Add(ExpiringAfter).Unix(), now.Add(ExpiresAfter).Unix()
}

// Resolve determines the cart session for this request: loads the requested
// session, claims a guest cart for a logged-in customer, renews expiry, or
// starts a fresh session when nothing valid was asked for.
func Resolve(ctx context.Context, r *http.Request, store Storer) (*Handler, error) {
	h := &Handler{store: store}
	now := time.Now()

	requested := RequestedKey(r)
	userID, _ := r.Context().Value(globals.UserIDKey).(string)

	if requested != "" {
		sess, err := store.Get(ctx, requested)
		switch err {
		case nil:
			h.session = sess
		case ErrNotFound:
			// not an error: caller proceeds as if starting fresh
			h.requestedInvalid = true
		default:
			return nil, err
		}
	}

	if userID != "" {
		if h.session != nil && h.session.CartKey != userID {
			if err := h.claimGuestCart(ctx, userID, now); err != nil {
				return nil, err
			}
		}
		if h.session == nil {
			sess, err := store.Get(ctx, userID)
			if err == nil {
				h.session = sess
			} else if err != ErrNotFound {
				return nil, err
			}
		}
	}

	if h.session == nil {
		key := userID
		if key == "" {
			key = GenerateKey()
		}
		expiring, expires := RenewWindow(now)
		h.session = &models.CartSession{
			CartKey:    key,
			CreatedAt:  now.Unix(),
			ExpiringAt: expiring,
			ExpiresAt:  expires,
			Source:     models.SourceRestAPI,
		}
		h.fresh = true
	} else if now.Unix() >= h.session.ExpiringAt {
		// renew immediately, independent of any content change
		h.session.ExpiringAt, h.session.ExpiresAt = RenewWindow(now)
		if err := store.Put(ctx, h.session); err != nil {
			return nil, err
		}
	}

	h.cart = cart.Deserialize(h.session.CartValue)
	if h.requestedInvalid {
		h.cart.AddNotice("cart_invalid",
			"The requested cart could not be found; a new cart was started.", "notice")
	}
	return h, nil
}

// claimGuestCart re-keys a guest session to the logged-in customer's stable
// ID, merging into any cart already saved under it. The merged session is
// saved under the new key before the guest row is deleted so no moment
// exists where the shopper's cart is unreachable.
func (h *Handler) claimGuestCart(ctx context.Context, userID string, now time.Time) error {
	guest := h.session
	guestKey := guest.CartKey

	existing, err := h.store.Get(ctx, userID)
	if err != nil && err != ErrNotFound {
		return err
	}

	if existing != nil {
		userCart := cart.Deserialize(existing.CartValue)
		userCart.Merge(cart.Deserialize(guest.CartValue))
		existing.CartValue = userCart.Serialize()
		existing.ExpiringAt, existing.ExpiresAt = RenewWindow(now)
		h.session = existing
	} else {
		guest.CartKey = userID
		guest.ExpiringAt, guest.ExpiresAt = RenewWindow(now)
		h.session = guest
	}
	h.session.Source = models.SourceRestAPI

	if err := h.store.Put(ctx, h.session); err != nil {
		return err
	}
	return h.store.Delete(ctx, guestKey)
}

func (h *Handler) Cart() *cart.Cart {
	return h.cart
}

func (h *Handler) Session() *models.CartSession {
	return h.session
}

func (h *Handler) CartKey() string {
	return h.session.CartKey
}

// Commit is the single end-of-request persistence write. Handlers call it
// once after all mutations; a storage failure surfaces rather than silently
// dropping the in-memory changes.
func (h *Handler) Commit(ctx context.Context) error {
	h.session.CartValue = h.cart.Serialize()
	h.session.Hash = h.cart.Hash()
	return h.store.Put(ctx, h.session)
}

// NeedsCommit reports whether anything this request did must be persisted.
// A fresh session with an untouched empty cart leaves no row behind.
func (h *Handler) NeedsCommit() bool {
	if h.cart.Dirty() {
		return true
	}
	return h.fresh && !h.cart.IsEmpty()
}

// Destroy removes the session row entirely. Terminal.
func (h *Handler) Destroy(ctx context.Context) error {
	h.cart.Clear()
	return h.store.Delete(ctx, h.session.CartKey)
}

// WriteHeaders attaches the resolved cart key and both expiry thresholds so
// stateless clients can cache the key without inspecting the body.
func (h *Handler) WriteHeaders(w http.ResponseWriter) {
	w.Header().Set(CartKeyHeader, h.session.CartKey)
	w.Header().Set("X-Cart-Expiring", timestamp(h.session.ExpiringAt))
	w.Header().Set("X-Cart-Expires", timestamp(h.session.ExpiresAt))
}

func timestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
