package cart

import (
	"context"
	"fmt"

	"satchel/apperr"
	"satchel/models"
)

// AddRequest is the add-to-cart payload. ID takes a product ID, falling
// back to a SKU lookup when no product carries that ID.
type AddRequest struct {
	ID        string            `json:"id"`
	Quantity  float64           `json:"quantity"`
	Variation map[string]string `json:"variation,omitempty"`
	ItemData  map[string]any    `json:"item_data,omitempty"`
}

// Add resolves the product, dispatches to the type-specific handler and
// inserts or merges the line item. Every path ends in a full recalculation.
func (c *Cart) Add(ctx context.Context, deps Deps, req AddRequest) (*models.CartItem, error) {
	if req.ID == "" {
		return nil, apperr.BadRequest("product_id_required", "A product ID or SKU is required.")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, apperr.BadRequest("invalid_quantity", "Quantity must be a positive value.")
	}

	product, err := resolveProduct(ctx, deps, req.ID)
	if err != nil {
		return nil, err
	}

	// Closed dispatch over product types; each handler validates then adds.
	switch product.Type {
	case models.ProductSimple:
		return c.addSimple(ctx, deps, product, req)
	case models.ProductVariable:
		return c.addVariable(ctx, deps, product, req)
	case models.ProductVariation:
		return c.addVariationDirect(ctx, deps, product, req)
	case models.ProductGrouped:
		return nil, apperr.BadRequest("grouped_product",
			fmt.Sprintf("%q is a grouped product. Add the products within the group individually.", product.Name))
	case models.ProductExternal:
		return nil, apperr.BadRequest("external_product",
			fmt.Sprintf("%q must be purchased on an external site and cannot be added to this cart.", product.Name))
	default:
		return nil, apperr.BadRequest("unsupported_product_type",
			fmt.Sprintf("Products of type %q cannot be added to the cart.", product.Type))
	}
}

func (c *Cart) addSimple(ctx context.Context, deps Deps, product *models.Product, req AddRequest) (*models.CartItem, error) {
	return c.insertItem(ctx, deps, product, nil, nil, req)
}

// addVariable resolves a concrete variation from the posted attributes and
// adds it under the variable parent.
func (c *Cart) addVariable(ctx context.Context, deps Deps, parent *models.Product, req AddRequest) (*models.CartItem, error) {
	variation, attrs, err := resolveVariation(ctx, deps, parent, req.Variation)
	if err != nil {
		return nil, err
	}
	return c.insertItem(ctx, deps, variation, parent, attrs, req)
}

// addVariationDirect handles a variation product added by its own ID. The
// posted attributes must not contradict the variation's pinned values.
func (c *Cart) addVariationDirect(ctx context.Context, deps Deps, variation *models.Product, req AddRequest) (*models.CartItem, error) {
	if variation.ParentID == "" {
		return nil, apperr.BadRequest("orphan_variation",
			fmt.Sprintf("%q has no parent product and cannot be added.", variation.Name))
	}
	parent, err := deps.Products.ProductByID(ctx, variation.ParentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, apperr.NotFound("product_not_found", "The parent of the requested variation no longer exists.")
	}

	attrs, err := mergeVariationAttrs(parent, variation, req.Variation)
	if err != nil {
		return nil, err
	}
	return c.insertItem(ctx, deps, variation, parent, attrs, req)
}

// insertItem runs every pre-insert check and then merges into an existing
// line item (item key collision) or creates a new one.
func (c *Cart) insertItem(ctx context.Context, deps Deps, product, parent *models.Product, attrs map[string]string, req AddRequest) (*models.CartItem, error) {
	if !product.Purchasable() {
		return nil, apperr.Forbidden("product_not_purchasable",
			fmt.Sprintf("%q cannot be purchased at this time.", displayName(product, parent)))
	}

	soldIndividually := product.SoldIndividually || (parent != nil && parent.SoldIndividually)
	if soldIndividually {
		for _, item := range c.Items {
			if sameProduct(item, product, parent) {
				return nil, apperr.Forbidden("sold_individually",
					fmt.Sprintf("Only one %q may be purchased per order.", displayName(product, parent)))
			}
		}
		if req.Quantity > 1 {
			req.Quantity = 1
			c.AddNotice("quantity_capped",
				fmt.Sprintf("%q is limited to one per order; quantity was reduced to 1.", displayName(product, parent)),
				"notice")
		}
	}

	if err := checkQuantityBounds(product, parent, req.Quantity); err != nil {
		return nil, err
	}
	if err := c.checkStock(ctx, deps, product, parent, req.Quantity); err != nil {
		return nil, err
	}

	productID, variationID := lineIdentity(product, parent)
	key := ItemKey(productID, variationID, attrs, req.ItemData)

	item, exists := c.Items[key]
	if exists {
		newQty := item.Quantity + req.Quantity
		if err := checkQuantityBounds(product, parent, newQty); err != nil {
			return nil, err
		}
		item.Quantity = newQty
	} else {
		item = &models.CartItem{
			ItemKey:     key,
			ProductID:   productID,
			VariationID: variationID,
			Quantity:    req.Quantity,
			Variation:   attrs,
			ItemData:    req.ItemData,
		}
		c.Items[key] = item
	}

	c.markDirty()
	if err := c.Calculate(ctx, deps); err != nil {
		return nil, err
	}
	return item, nil
}

// checkStock is the combined availability check: in-stock status, raw
// sufficiency for the requested quantity, and requested + already-in-cart +
// held-by-unpaid-orders against the managed stock level.
func (c *Cart) checkStock(ctx context.Context, deps Deps, product, parent *models.Product, requested float64) error {
	if !product.InStock {
		return apperr.Forbidden("product_out_of_stock",
			fmt.Sprintf("%q is out of stock.", displayName(product, parent)))
	}
	if !product.ManageStock || product.BackordersAllowed {
		return nil
	}
	if requested > product.StockQuantity {
		return apperr.Forbidden("insufficient_stock",
			fmt.Sprintf("Not enough %q in stock. Only %g remaining.", displayName(product, parent), product.StockQuantity))
	}

	inCart := c.quantityOf(product, parent)
	held, err := deps.Stock.Held(ctx, product.ProductID)
	if err != nil {
		return err
	}
	if inCart+requested+held > product.StockQuantity {
		available := product.StockQuantity - held - inCart
		if available < 0 {
			available = 0
		}
		return apperr.Forbidden("insufficient_stock",
			fmt.Sprintf("Not enough %q in stock. You can add at most %g more.", displayName(product, parent), available))
	}
	return nil
}

// quantityOf totals the quantity of a product across all matching line items.
func (c *Cart) quantityOf(product, parent *models.Product) float64 {
	productID, variationID := lineIdentity(product, parent)
	var total float64
	for _, item := range c.Items {
		if item.ProductID == productID && item.VariationID == variationID {
			total += item.Quantity
		}
	}
	return total
}

func checkQuantityBounds(product, parent *models.Product, qty float64) error {
	min := product.MinQuantity
	if min == 0 && parent != nil {
		min = parent.MinQuantity
	}
	if min == 0 {
		min = 1
	}
	max := product.MaxQuantity
	if max == 0 && parent != nil {
		max = parent.MaxQuantity
	}

	if qty < min {
		return apperr.BadRequest("quantity_below_minimum",
			fmt.Sprintf("%q requires a minimum quantity of %g.", displayName(product, parent), min))
	}
	if max > 0 && qty > max {
		return apperr.BadRequest("quantity_above_maximum",
			fmt.Sprintf("%q allows a maximum quantity of %g.", displayName(product, parent), max))
	}
	return nil
}

// lineIdentity maps a purchasable product to the (product_id, variation_id)
// pair stored on a line item. Variations record their parent as the product.
func lineIdentity(product, parent *models.Product) (string, string) {
	if product.Type == models.ProductVariation && parent != nil {
		return parent.ProductID, product.ProductID
	}
	return product.ProductID, ""
}

func sameProduct(item *models.CartItem, product, parent *models.Product) bool {
	productID, _ := lineIdentity(product, parent)
	return item.ProductID == productID
}

func displayName(product, parent *models.Product) string {
	if product.Name != "" {
		return product.Name
	}
	if parent != nil {
		return parent.Name
	}
	return product.ProductID
}

func resolveProduct(ctx context.Context, deps Deps, id string) (*models.Product, error) {
	product, err := deps.Products.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		product, err = deps.Products.ProductBySKU(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if product == nil {
		return nil, apperr.NotFound("product_not_found",
			fmt.Sprintf("No product matches ID or SKU %q.", id))
	}
	return product, nil
}
