package cart

import (
	"context"
	"testing"

	"satchel/models"
)

func noticeCodes(c *Cart) map[string]int {
	codes := make(map[string]int)
	for _, n := range c.Notices() {
		codes[n.Code]++
	}
	return codes
}

func TestValidateRemovesVanishedProduct(t *testing.T) {
	ctx := context.Background()
	products := fakeFinder{"a": simpleProduct("a", 10, 100)}
	deps := testDeps(products)
	c := New()

	item, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	delete(products, "a")
	if err := c.Validate(ctx, deps); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if _, ok := c.Items[item.ItemKey]; ok {
		t.Fatal("item for a vanished product survived validation")
	}
	if _, ok := c.Removed[item.ItemKey]; !ok {
		t.Fatal("removed item is not restorable")
	}
	if noticeCodes(c)["item_removed"] != 1 {
		t.Fatalf("expected one item_removed notice, got %v", noticeCodes(c))
	}
}

func TestValidateRemovesUnpurchasableProduct(t *testing.T) {
	ctx := context.Background()
	p := simpleProduct("a", 10, 100)
	products := fakeFinder{"a": p}
	deps := testDeps(products)
	c := New()

	item, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	p.Status = models.StatusDraft
	if err := c.Validate(ctx, deps); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, ok := c.Items[item.ItemKey]; ok {
		t.Fatal("unpurchasable item survived validation")
	}
}

func TestValidateStockWarnsWithoutRemoving(t *testing.T) {
	ctx := context.Background()
	p := simpleProduct("a", 10, 5)
	products := fakeFinder{"a": p}
	deps := testDeps(products)
	c := New()

	item, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 3})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// stock dips below what the cart holds after the add
	p.StockQuantity = 1
	if err := c.Validate(ctx, deps); err != nil {
		t.Fatalf("validate: %v", err)
	}

	got, ok := c.Items[item.ItemKey]
	if !ok {
		t.Fatal("stock warning must not remove the item")
	}
	if got.Quantity != 3 {
		t.Fatalf("stock warning must not adjust quantity, got %g", got.Quantity)
	}
	if noticeCodes(c)["insufficient_stock"] != 1 {
		t.Fatalf("expected exactly one insufficient_stock notice, got %v", noticeCodes(c))
	}
}

func TestValidateOutOfStockWarnsWithoutRemoving(t *testing.T) {
	ctx := context.Background()
	p := simpleProduct("a", 10, 5)
	products := fakeFinder{"a": p}
	deps := testDeps(products)
	c := New()

	if _, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	p.InStock = false
	if err := c.Validate(ctx, deps); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if noticeCodes(c)["item_out_of_stock"] != 1 {
		t.Fatalf("expected one item_out_of_stock notice, got %v", noticeCodes(c))
	}
	if len(c.Items) != 1 {
		t.Fatal("out-of-stock warning must not remove the item")
	}
}

func TestValidateDropsInvalidCoupon(t *testing.T) {
	ctx := context.Background()
	deps := Deps{
		Products: fakeFinder{"a": simpleProduct("a", 100, 10)},
		Stock:    fakeStock{},
		Coupons:  fakeCoupons{"ten": 10},
	}
	c := New()

	if _, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.ApplyCoupon(ctx, deps, "ten"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// the coupon is retired between requests
	deps.Coupons = fakeCoupons{}
	if err := c.Validate(ctx, deps); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if len(c.Coupons) != 0 {
		t.Fatalf("invalid coupon kept: %v", c.Coupons)
	}
	if noticeCodes(c)["coupon_removed"] != 1 {
		t.Fatalf("expected one coupon_removed notice, got %v", noticeCodes(c))
	}
}

func TestValidateKeepsValidCoupon(t *testing.T) {
	ctx := context.Background()
	deps := Deps{
		Products: fakeFinder{"a": simpleProduct("a", 100, 10)},
		Stock:    fakeStock{},
		Coupons:  fakeCoupons{"ten": 10},
	}
	c := New()

	if _, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.ApplyCoupon(ctx, deps, "ten"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := c.Validate(ctx, deps); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(c.Coupons) != 1 {
		t.Fatalf("valid coupon dropped: %v", c.Coupons)
	}
}

func TestApplyCouponTwice(t *testing.T) {
	ctx := context.Background()
	deps := Deps{
		Products: fakeFinder{"a": simpleProduct("a", 100, 10)},
		Stock:    fakeStock{},
		Coupons:  fakeCoupons{"ten": 10},
	}
	c := New()

	if _, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.ApplyCoupon(ctx, deps, "ten"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	err := c.ApplyCoupon(ctx, deps, "ten")
	if code := errCode(t, err); code != "coupon_already_applied" {
		t.Fatalf("expected coupon_already_applied, got %s", code)
	}
}

func TestRemoveCouponNotApplied(t *testing.T) {
	c := New()
	err := c.RemoveCoupon("ghost")
	if code := errCode(t, err); code != "coupon_not_applied" {
		t.Fatalf("expected coupon_not_applied, got %s", code)
	}
}

func TestCouponDiscountAffectsTotal(t *testing.T) {
	t.Setenv("TAX_RATE", "")
	t.Setenv("SHIPPING_FLAT_RATE", "")

	ctx := context.Background()
	deps := Deps{
		Products: fakeFinder{"a": simpleProduct("a", 100, 10)},
		Stock:    fakeStock{},
		Coupons:  fakeCoupons{"ten": 10},
	}
	c := New()

	if _, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.ApplyCoupon(ctx, deps, "ten"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := c.Calculate(ctx, deps); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	totals := c.Totals()
	if totals.Subtotal != 200 || totals.Discount != 20 || totals.Total != 180 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.FmtTotal != "180.00" {
		t.Fatalf("unexpected formatted total: %s", totals.FmtTotal)
	}
}

func TestFormatEmptyCartShape(t *testing.T) {
	c := New()
	resp := c.Format("abc123", nil)

	if resp.Items == nil || resp.RemovedItems == nil || resp.Coupons == nil ||
		resp.Fees == nil || resp.CrossSells == nil || resp.Notices == nil {
		t.Fatal("empty cart response has nil collections")
	}
	if len(resp.Items) != 0 || resp.ItemCount != 0 {
		t.Fatal("empty cart response not empty")
	}
	if resp.CartKey != "abc123" {
		t.Fatalf("cart key missing from response: %q", resp.CartKey)
	}
}

func TestFormatOrdersItemsByKey(t *testing.T) {
	ctx := context.Background()
	deps := testDeps(fakeFinder{
		"a": simpleProduct("a", 10, 100),
		"b": simpleProduct("b", 5, 100),
		"c": simpleProduct("c", 7, 100),
	})
	c := New()
	for _, id := range []string{"c", "a", "b"} {
		if _, err := c.Add(ctx, deps, AddRequest{ID: id, Quantity: 1}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	resp := c.Format("k", nil)
	for i := 1; i < len(resp.Items); i++ {
		if resp.Items[i-1].ItemKey > resp.Items[i].ItemKey {
			t.Fatalf("items out of order at %d: %s > %s", i, resp.Items[i-1].ItemKey, resp.Items[i].ItemKey)
		}
	}
}

func TestCrossSellsExcludeCartContents(t *testing.T) {
	ctx := context.Background()
	a := simpleProduct("a", 10, 100)
	a.CrossSellIDs = []string{"b", "x", "y"}
	b := simpleProduct("b", 5, 100)
	b.CrossSellIDs = []string{"x"}
	deps := testDeps(fakeFinder{"a": a, "b": b})
	c := New()

	if _, err := c.Add(ctx, deps, AddRequest{ID: "a", Quantity: 1}); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := c.Add(ctx, deps, AddRequest{ID: "b", Quantity: 1}); err != nil {
		t.Fatalf("add b: %v", err)
	}

	got := c.CrossSells(ctx, deps)
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("expected [x y], got %v", got)
	}
}
