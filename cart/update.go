package cart

import (
	"context"
	"fmt"

	"satchel/apperr"
	"satchel/models"
)

// UpdateQuantity sets a line item to a new absolute quantity. Zero is an
// implicit remove. The stock sufficiency check runs against the new total
// for the product, not just this line item.
func (c *Cart) UpdateQuantity(ctx context.Context, deps Deps, itemKey string, qty float64) (*models.CartItem, error) {
	item, ok := c.Items[itemKey]
	if !ok {
		return nil, apperr.NotFound("item_not_found",
			fmt.Sprintf("No cart item matches key %q.", itemKey))
	}
	if qty < 0 {
		return nil, apperr.BadRequest("invalid_quantity", "Quantity must be zero or a positive value.")
	}
	if qty == 0 {
		return c.Remove(ctx, deps, itemKey)
	}

	product, parent, err := c.lineProducts(ctx, deps, item)
	if err != nil {
		return nil, err
	}

	soldIndividually := product.SoldIndividually || (parent != nil && parent.SoldIndividually)
	if soldIndividually && qty > 1 {
		return nil, apperr.Forbidden("sold_individually",
			fmt.Sprintf("Only one %q may be purchased per order.", displayName(product, parent)))
	}

	if err := checkQuantityBounds(product, parent, qty); err != nil {
		return nil, err
	}

	// Re-run the stock check against the delta relative to what this line
	// item already holds; other line items of the same product still count.
	if qty > item.Quantity {
		if err := c.checkStock(ctx, deps, product, parent, qty-item.Quantity); err != nil {
			return nil, err
		}
	}

	item.Quantity = qty
	c.markDirty()
	if err := c.Calculate(ctx, deps); err != nil {
		return nil, err
	}
	return item, nil
}

// Remove moves a line item out of active contents into removed items, from
// where it can still be restored. Its price override does not survive.
func (c *Cart) Remove(ctx context.Context, deps Deps, itemKey string) (*models.CartItem, error) {
	if len(c.Items) == 0 {
		return nil, apperr.NotFound("cart_empty", "The cart has no items to remove.")
	}
	item, ok := c.Items[itemKey]
	if !ok {
		return nil, apperr.NotFound("item_not_found",
			fmt.Sprintf("No cart item matches key %q.", itemKey))
	}

	delete(c.Items, itemKey)
	delete(c.PriceOverrides, itemKey)
	c.Removed[itemKey] = item

	c.markDirty()
	if err := c.Calculate(ctx, deps); err != nil {
		return nil, err
	}
	return item, nil
}

// Restore moves a previously removed line item back into active contents.
func (c *Cart) Restore(ctx context.Context, deps Deps, itemKey string) (*models.CartItem, error) {
	item, ok := c.Removed[itemKey]
	if !ok {
		return nil, apperr.NotFound("item_not_restorable",
			fmt.Sprintf("No removed cart item matches key %q.", itemKey))
	}

	delete(c.Removed, itemKey)
	c.Items[itemKey] = item

	c.markDirty()
	if err := c.Calculate(ctx, deps); err != nil {
		return nil, err
	}
	return item, nil
}

// lineProducts resolves the purchasable product for a line item plus its
// variable parent when the item is a variation.
func (c *Cart) lineProducts(ctx context.Context, deps Deps, item *models.CartItem) (*models.Product, *models.Product, error) {
	if item.VariationID != "" {
		variation, err := deps.Products.ProductByID(ctx, item.VariationID)
		if err != nil {
			return nil, nil, err
		}
		if variation == nil {
			return nil, nil, apperr.NotFound("product_not_found", "The product for this cart item no longer exists.")
		}
		parent, err := deps.Products.ProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, nil, err
		}
		return variation, parent, nil
	}

	product, err := deps.Products.ProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, apperr.NotFound("product_not_found", "The product for this cart item no longer exists.")
	}
	return product, nil, nil
}
