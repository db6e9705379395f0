package cart

import (
	"context"

	"satchel/models"
)

// ProductFinder looks products up in the catalog. A nil product with a nil
// error means "no such product"; errors are infrastructure failures only.
type ProductFinder interface {
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	ProductBySKU(ctx context.Context, sku string) (*models.Product, error)
}

// StockHolder reports quantity reserved by other pending, unpaid orders.
type StockHolder interface {
	Held(ctx context.Context, productID string) (float64, error)
}

// CouponValidator re-checks a coupon and returns the absolute discount it
// grants on the given subtotal. A typed error describes why it is invalid.
type CouponValidator interface {
	Validate(ctx context.Context, code string, subtotal float64) (float64, error)
}

// Deps are the external collaborators threaded through validation and
// mutation instead of being reached for ambiently.
type Deps struct {
	Products ProductFinder
	Stock    StockHolder
	Coupons  CouponValidator
}
