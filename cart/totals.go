package cart

import (
	"context"
	"os"
	"strconv"

	"satchel/models"
	"satchel/utils"
)

// Calculate performs the single combined totals pass: line subtotals and
// taxes, coupon discounts, fees, shipping and the grand total. Partial
// recalculation is never exposed; every mutation ends here.
func (c *Cart) Calculate(ctx context.Context, deps Deps) error {
	var subtotal float64

	lines := make(map[string]float64, len(c.Items))
	for key, item := range c.Items {
		product, err := c.purchaseProduct(ctx, deps, item)
		if err != nil {
			return err
		}
		if product == nil {
			// validation handles removal; an unresolvable item contributes nothing
			continue
		}

		price := product.Price
		if override, ok := c.PriceOverrides[key]; ok {
			price = override
		}
		line := price * item.Quantity
		lines[key] = line
		subtotal += line

		c.refreshItemFields(item, product, price, line)
	}

	discount, err := c.couponDiscount(ctx, deps, subtotal)
	if err != nil {
		return err
	}

	var feeTotal float64
	for _, fee := range c.Fees {
		feeTotal += fee.Amount
	}

	var shipping float64
	if len(c.Items) > 0 {
		shipping = envRate("SHIPPING_FLAT_RATE")
	}

	taxable := subtotal - discount
	if taxable < 0 {
		taxable = 0
	}
	tax := taxable * envRate("TAX_RATE") / 100

	total := subtotal - discount + feeTotal + shipping + tax
	if total < 0 {
		total = 0
	}

	c.totals = models.Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		FeeTotal:    feeTotal,
		Shipping:    shipping,
		Tax:         tax,
		Total:       total,
		FmtSubtotal: utils.FormatMoney(subtotal),
		FmtDiscount: utils.FormatMoney(discount),
		FmtFeeTotal: utils.FormatMoney(feeTotal),
		FmtShipping: utils.FormatMoney(shipping),
		FmtTax:      utils.FormatMoney(tax),
		FmtTotal:    utils.FormatMoney(total),
	}

	c.applyLineTotals(lines, subtotal, discount)
	return nil
}

// couponDiscount sums the discounts of currently applied coupons. Invalid
// coupons contribute nothing here; the validation pipeline removes them.
func (c *Cart) couponDiscount(ctx context.Context, deps Deps, subtotal float64) (float64, error) {
	var discount float64
	for _, code := range c.Coupons {
		d, err := deps.Coupons.Validate(ctx, code, subtotal)
		if err != nil {
			continue
		}
		discount += d
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}

// rawSubtotal prices the cart without discounts, used for coupon min-spend
// checks before the full totals pass.
func (c *Cart) rawSubtotal(ctx context.Context, deps Deps) (float64, error) {
	var subtotal float64
	for key, item := range c.Items {
		product, err := c.purchaseProduct(ctx, deps, item)
		if err != nil {
			return 0, err
		}
		if product == nil {
			continue
		}
		price := product.Price
		if override, ok := c.PriceOverrides[key]; ok {
			price = override
		}
		subtotal += price * item.Quantity
	}
	return subtotal, nil
}

// refreshItemFields repopulates the derived, read-time fields on a line item.
func (c *Cart) refreshItemFields(item *models.CartItem, product *models.Product, price, line float64) {
	item.Name = product.Name
	item.SKU = product.SKU
	item.Thumbnail = product.Thumbnail
	item.Price = utils.FormatMoney(price)
	item.Subtotal = utils.FormatMoney(line)
	item.Backordered = product.ManageStock && product.BackordersAllowed &&
		c.requiredQuantity(item) > product.StockQuantity
}

// applyLineTotals distributes the cart-level discount and tax across line
// items proportionally to their share of the subtotal.
func (c *Cart) applyLineTotals(lines map[string]float64, subtotal, discount float64) {
	rate := envRate("TAX_RATE") / 100
	for key, line := range lines {
		item := c.Items[key]
		if item == nil {
			continue
		}
		share := 0.0
		if subtotal > 0 {
			share = line / subtotal
		}
		lineDiscount := discount * share
		lineTotal := line - lineDiscount
		lineTax := lineTotal * rate

		item.SubtotalTax = utils.FormatMoney(line * rate)
		item.Total = utils.FormatMoney(lineTotal)
		item.Tax = utils.FormatMoney(lineTax)
	}
}

func envRate(name string) float64 {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
