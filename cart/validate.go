package cart

import (
	"context"
	"fmt"

	"satchel/models"
)

// Validate runs the fixed, ordered read-time checks over the cart before it
// is serialized for any response. Order matters: later checks assume
// earlier ones already pruned invalid entries. Findings are queued as
// user-visible notices, never silently applied.
func (c *Cart) Validate(ctx context.Context, deps Deps) error {
	if err := c.validateItems(ctx, deps); err != nil {
		return err
	}
	if err := c.validateStock(ctx, deps); err != nil {
		return err
	}
	return c.validateCoupons(ctx, deps)
}

// validateItems removes line items whose product is gone, trashed or no
// longer purchasable. Removed entries stay restorable.
func (c *Cart) validateItems(ctx context.Context, deps Deps) error {
	for key, item := range c.Items {
		product, err := c.purchaseProduct(ctx, deps, item)
		if err != nil {
			return err
		}
		if product != nil && product.Status != models.StatusTrash && product.Purchasable() {
			continue
		}

		delete(c.Items, key)
		delete(c.PriceOverrides, key)
		c.Removed[key] = item
		c.markDirty()

		name := item.Name
		if name == "" && product != nil {
			name = product.Name
		}
		if name == "" {
			name = item.ProductID
		}
		c.AddNotice("item_removed",
			fmt.Sprintf("%q was removed from your cart because it can no longer be purchased.", name),
			"error")
	}
	return nil
}

// validateStock warns about shortfalls but never removes items: a transient
// stock dip should not silently lose part of a shopper's cart.
func (c *Cart) validateStock(ctx context.Context, deps Deps) error {
	for _, item := range c.Items {
		product, err := c.purchaseProduct(ctx, deps, item)
		if err != nil {
			return err
		}
		if product == nil {
			continue
		}

		if !product.InStock {
			c.AddNotice("item_out_of_stock",
				fmt.Sprintf("%q is currently out of stock and may not be purchasable at checkout.", product.Name),
				"notice")
			continue
		}
		if !product.ManageStock || product.BackordersAllowed {
			continue
		}

		held, err := deps.Stock.Held(ctx, product.ProductID)
		if err != nil {
			return err
		}
		required := c.requiredQuantity(item)
		if required+held > product.StockQuantity {
			c.AddNotice("insufficient_stock",
				fmt.Sprintf("Only %g of %q can be fulfilled right now; your cart asks for %g.",
					product.StockQuantity-held, product.Name, required),
				"notice")
		}
	}
	return nil
}

// validateCoupons re-validates every applied coupon and drops the invalid
// ones with a removal message.
func (c *Cart) validateCoupons(ctx context.Context, deps Deps) error {
	if len(c.Coupons) == 0 {
		return nil
	}

	subtotal, err := c.rawSubtotal(ctx, deps)
	if err != nil {
		return err
	}

	kept := c.Coupons[:0]
	for _, code := range c.Coupons {
		if _, err := deps.Coupons.Validate(ctx, code, subtotal); err != nil {
			c.AddNotice("coupon_removed",
				fmt.Sprintf("Coupon %q is no longer valid and was removed from your cart.", code),
				"error")
			c.markDirty()
			continue
		}
		kept = append(kept, code)
	}
	c.Coupons = kept
	return nil
}

// requiredQuantity totals this cart's demand for the product behind a line
// item, across all matching line items.
func (c *Cart) requiredQuantity(item *models.CartItem) float64 {
	var total float64
	for _, other := range c.Items {
		if other.ProductID == item.ProductID && other.VariationID == item.VariationID {
			total += other.Quantity
		}
	}
	return total
}

// purchaseProduct resolves the product a line item is actually buying: the
// variation when one is set, the product itself otherwise. Missing products
// come back nil, not as an error.
func (c *Cart) purchaseProduct(ctx context.Context, deps Deps, item *models.CartItem) (*models.Product, error) {
	id := item.ProductID
	if item.VariationID != "" {
		id = item.VariationID
	}
	return deps.Products.ProductByID(ctx, id)
}
