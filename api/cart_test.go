package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"satchel/apperr"
	"satchel/cart"
	"satchel/models"
	"satchel/session"
)

type fakeFinder map[string]*models.Product

func (f fakeFinder) ProductByID(_ context.Context, id string) (*models.Product, error) {
	return f[id], nil
}

func (f fakeFinder) ProductBySKU(_ context.Context, sku string) (*models.Product, error) {
	for _, p := range f {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

type fakeStock map[string]float64

func (f fakeStock) Held(_ context.Context, productID string) (float64, error) {
	return f[productID], nil
}

type fakeCoupons map[string]float64

func (f fakeCoupons) Validate(_ context.Context, code string, subtotal float64) (float64, error) {
	pct, ok := f[code]
	if !ok {
		return 0, apperr.Forbidden("coupon_expired", "coupon is no longer valid")
	}
	return subtotal * pct / 100, nil
}

type fakeStore struct {
	rows map[string]*models.CartSession
}

func (s *fakeStore) Get(_ context.Context, key string) (*models.CartSession, error) {
	sess, ok := s.rows[key]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeStore) Put(_ context.Context, sess *models.CartSession) error {
	cp := *sess
	s.rows[sess.CartKey] = &cp
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.rows, key)
	return nil
}

// useFakes swaps the package collaborators for in-memory fakes for the
// duration of one test.
func useFakes(t *testing.T, products fakeFinder) *fakeStore {
	t.Helper()
	store := &fakeStore{rows: make(map[string]*models.CartSession)}
	prevSessions, prevDeps := sessions, deps
	sessions = store
	deps = cart.Deps{Products: products, Stock: fakeStock{}, Coupons: fakeCoupons{}}
	t.Cleanup(func() {
		sessions = prevSessions
		deps = prevDeps
	})
	return store
}

func seedSession(store *fakeStore, key string, c *cart.Cart) {
	expiring, expires := session.RenewWindow(time.Now())
	store.rows[key] = &models.CartSession{
		CartKey:    key,
		CartValue:  c.Serialize(),
		CreatedAt:  time.Now().Unix(),
		ExpiringAt: expiring,
		ExpiresAt:  expires,
		Source:     models.SourceRestAPI,
	}
}

func TestAddItemReportsCappedQuantity(t *testing.T) {
	store := useFakes(t, fakeFinder{
		"a": {
			ProductID:        "a",
			Name:             "Single",
			Type:             models.ProductSimple,
			Status:           models.StatusPublish,
			Price:            10,
			InStock:          true,
			SoldIndividually: true,
		},
	})

	r := httptest.NewRequest("POST", "/api/cart/add", strings.NewReader(`{"id":"a","quantity":3}`))
	w := httptest.NewRecorder()
	AddItem(w, r, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Item    models.CartItem `json:"item"`
		Notices []models.Notice `json:"notices"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Item.Quantity != 1 {
		t.Fatalf("expected quantity capped to 1, got %g", resp.Item.Quantity)
	}

	found := false
	for _, n := range resp.Notices {
		if n.Code == "quantity_capped" {
			found = true
		}
	}
	if !found {
		t.Fatalf("capped-quantity notice missing from response: %+v", resp.Notices)
	}

	key := w.Header().Get(session.CartKeyHeader)
	if key == "" {
		t.Fatal("cart key header missing")
	}
	if _, ok := store.rows[key]; !ok {
		t.Fatal("cart not persisted under the returned key")
	}
}

func TestCountItemsPrunesVanishedProducts(t *testing.T) {
	store := useFakes(t, fakeFinder{})

	c := cart.New()
	c.Items["k1"] = &models.CartItem{ItemKey: "k1", ProductID: "ghost", Quantity: 2}
	seedSession(store, "countkey", c)

	r := httptest.NewRequest("GET", "/api/cart/count", nil)
	r.Header.Set(session.CartKeyHeader, "countkey")
	w := httptest.NewRecorder()
	CountItems(w, r, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp["message"]; !ok {
		t.Fatalf("expected the empty-cart message, got %v", resp)
	}

	// the pruning is committed, not just reported
	stored := cart.Deserialize(store.rows["countkey"].CartValue)
	if !stored.IsEmpty() {
		t.Fatal("vanished product still active in the stored cart")
	}
	if _, ok := stored.Removed["k1"]; !ok {
		t.Fatal("pruned item is not restorable in the stored cart")
	}
}

func TestCountItemsPlain(t *testing.T) {
	store := useFakes(t, fakeFinder{
		"a": {
			ProductID: "a",
			Name:      "A",
			Type:      models.ProductSimple,
			Status:    models.StatusPublish,
			Price:     10,
			InStock:   true,
		},
	})

	c := cart.New()
	c.Items["k1"] = &models.CartItem{ItemKey: "k1", ProductID: "a", Quantity: 3}
	seedSession(store, "plainkey", c)

	r := httptest.NewRequest("GET", "/api/cart/count?plain=true", nil)
	r.Header.Set(session.CartKeyHeader, "plainkey")
	w := httptest.NewRecorder()
	CountItems(w, r, nil)

	if got := strings.TrimSpace(w.Body.String()); got != "3" {
		t.Fatalf("expected bare count 3, got %q", got)
	}
}
