package cart

import (
	"context"
	"fmt"

	"satchel/apperr"
)

// ApplyCoupon validates the coupon against the current subtotal and
// attaches it. The validation pipeline re-checks it on every later read.
func (c *Cart) ApplyCoupon(ctx context.Context, deps Deps, code string) error {
	for _, have := range c.Coupons {
		if have == code {
			return apperr.BadRequest("coupon_already_applied",
				fmt.Sprintf("Coupon %q is already applied to the cart.", code))
		}
	}

	subtotal, err := c.rawSubtotal(ctx, deps)
	if err != nil {
		return err
	}
	if _, err := deps.Coupons.Validate(ctx, code, subtotal); err != nil {
		return err
	}

	c.Coupons = append(c.Coupons, code)
	c.markDirty()
	return nil
}

func (c *Cart) RemoveCoupon(code string) error {
	for i, have := range c.Coupons {
		if have == code {
			c.Coupons = append(c.Coupons[:i], c.Coupons[i+1:]...)
			c.markDirty()
			return nil
		}
	}
	return apperr.NotFound("coupon_not_applied",
		fmt.Sprintf("Coupon %q is not applied to the cart.", code))
}
