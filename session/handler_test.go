package session

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"satchel/cart"
	"satchel/globals"
	"satchel/models"
)

// fakeStore keeps sessions in memory and records the mutation order.
type fakeStore struct {
	rows map[string]*models.CartSession
	ops  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*models.CartSession)}
}

func (s *fakeStore) Get(_ context.Context, key string) (*models.CartSession, error) {
	sess, ok := s.rows[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeStore) Put(_ context.Context, sess *models.CartSession) error {
	cp := *sess
	s.rows[sess.CartKey] = &cp
	s.ops = append(s.ops, "put "+sess.CartKey)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.rows, key)
	s.ops = append(s.ops, "delete "+key)
	return nil
}

func seedSession(store *fakeStore, key string, c *cart.Cart) {
	expiring, expires := RenewWindow(time.Now())
	store.rows[key] = &models.CartSession{
		CartKey:    key,
		CartValue:  c.Serialize(),
		CreatedAt:  time.Now().Unix(),
		ExpiringAt: expiring,
		ExpiresAt:  expires,
		Source:     models.SourceRestAPI,
	}
}

func cartWithItem(key, productID string, qty float64) *cart.Cart {
	c := cart.New()
	c.Items[key] = &models.CartItem{ItemKey: key, ProductID: productID, Quantity: qty}
	return c
}

func TestResolveClaimsGuestCartOnLogin(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedSession(store, "guestkey", cartWithItem("k1", "a", 2))

	r := httptest.NewRequest("GET", "/api/cart?cart_key=guestkey", nil)
	r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, "u1"))

	h, err := Resolve(ctx, r, store)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if h.CartKey() != "u1" {
		t.Fatalf("expected session re-keyed to u1, got %q", h.CartKey())
	}
	if got := h.Cart().Items["k1"].Quantity; got != 2 {
		t.Fatalf("guest contents lost in claim: %g", got)
	}
	if _, ok := store.rows["u1"]; !ok {
		t.Fatal("claimed session not saved under the user key")
	}
	if _, err := store.Get(ctx, "guestkey"); err != ErrNotFound {
		t.Fatalf("guest key still resolves after claim: %v", err)
	}
	// the claimed session must be saved before the guest row goes away
	if len(store.ops) < 2 || store.ops[0] != "put u1" || store.ops[1] != "delete guestkey" {
		t.Fatalf("wrong claim write order: %v", store.ops)
	}
}

func TestResolveMergesIntoExistingUserCart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedSession(store, "guestkey", cartWithItem("k1", "a", 2))

	user := cartWithItem("k1", "a", 1)
	user.Items["k2"] = &models.CartItem{ItemKey: "k2", ProductID: "b", Quantity: 1}
	seedSession(store, "u1", user)

	r := httptest.NewRequest("GET", "/api/cart?cart_key=guestkey", nil)
	r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, "u1"))

	h, err := Resolve(ctx, r, store)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	c := h.Cart()
	if len(c.Items) != 2 {
		t.Fatalf("expected two items after merge, got %d", len(c.Items))
	}
	if got := c.Items["k1"].Quantity; got != 3 {
		t.Fatalf("expected summed quantity 3, got %g", got)
	}
	if _, ok := store.rows["guestkey"]; ok {
		t.Fatal("guest row survived the claim")
	}
}

func TestResolveRenewsOnPureRead(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	now := time.Now()
	store.rows["stalekey"] = &models.CartSession{
		CartKey:    "stalekey",
		CartValue:  cartWithItem("k1", "a", 1).Serialize(),
		CreatedAt:  now.Add(-6 * 24 * time.Hour).Unix(),
		ExpiringAt: now.Add(-time.Hour).Unix(),
		ExpiresAt:  now.Add(24 * time.Hour).Unix(),
		Source:     models.SourceRestAPI,
	}

	r := httptest.NewRequest("GET", "/api/cart?cart_key=stalekey", nil)
	h, err := Resolve(ctx, r, store)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if h.Session().ExpiringAt <= now.Unix() {
		t.Fatal("expiring threshold not renewed")
	}
	// renewal persists immediately, before any commit
	if len(store.ops) == 0 || store.ops[0] != "put stalekey" {
		t.Fatalf("renewal not written through: %v", store.ops)
	}
	if store.rows["stalekey"].ExpiringAt != h.Session().ExpiringAt {
		t.Fatal("stored row does not carry the renewed threshold")
	}
	if h.NeedsCommit() {
		t.Fatal("a pure read must not need a commit")
	}
}

func TestResolveUnknownKeyStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	r := httptest.NewRequest("GET", "/api/cart?cart_key=neverexisted", nil)
	h, err := Resolve(ctx, r, store)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if h.CartKey() == "neverexisted" {
		t.Fatal("unknown key must not be adopted")
	}
	if len(h.CartKey()) != 42 {
		t.Fatalf("expected a generated guest key, got %q", h.CartKey())
	}

	found := false
	for _, n := range h.Cart().Notices() {
		if n.Code == "cart_invalid" {
			found = true
		}
	}
	if !found {
		t.Fatal("missing notice about the unknown cart key")
	}

	if h.NeedsCommit() {
		t.Fatal("untouched fresh cart must not need a commit")
	}
	if len(store.ops) != 0 {
		t.Fatalf("fresh resolve wrote to the store: %v", store.ops)
	}
}

func TestResolveUserWithoutSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	r := httptest.NewRequest("GET", "/api/cart", nil)
	r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, "u1"))

	h, err := Resolve(ctx, r, store)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if h.CartKey() != "u1" {
		t.Fatalf("expected the user ID as cart key, got %q", h.CartKey())
	}
}

func TestRequestedKeyQueryBeatsHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/cart?cart_key=fromquery", nil)
	r.Header.Set(CartKeyHeader, "fromheader")

	if got := RequestedKey(r); got != "fromquery" {
		t.Fatalf("expected query parameter to win, got %q", got)
	}
}

func TestRequestedKeyHeaderFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/cart", nil)
	r.Header.Set(CartKeyHeader, " fromheader ")

	if got := RequestedKey(r); got != "fromheader" {
		t.Fatalf("expected trimmed header value, got %q", got)
	}
}

func TestRequestedKeyAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/cart", nil)
	if got := RequestedKey(r); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestGenerateKeyShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := GenerateKey()
		if len(key) != 42 {
			t.Fatalf("expected 42-char key, got %d: %q", len(key), key)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %q", key)
		}
		seen[key] = true
	}
}

func TestRenewWindowOrderingAndMonotonicity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expiring, expires := RenewWindow(now)
	if expiring <= now.Unix() {
		t.Fatal("expiring threshold not ahead of now")
	}
	if expires <= expiring {
		t.Fatal("hard expiry not after the expiring threshold")
	}
	if expires-expiring != int64((ExpiresAfter-ExpiringAfter)/time.Second) {
		t.Fatalf("threshold gap drifted: %d", expires-expiring)
	}

	laterExpiring, laterExpires := RenewWindow(now.Add(time.Hour))
	if laterExpiring <= expiring || laterExpires <= expires {
		t.Fatal("renewal from a later instant produced earlier thresholds")
	}
}
