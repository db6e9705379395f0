package models

// CartSession is one shopper's cart in persistent storage. At most one
// active row exists per cart key.
type CartSession struct {
	CartKey    string `json:"cart_key" bson:"cart_key"`
	CartValue  string `json:"cart_value" bson:"cart_value"` // serialized cart contents
	CreatedAt  int64  `json:"created_at" bson:"created_at"`
	ExpiringAt int64  `json:"expiring_at" bson:"expiring_at"` // renewal trigger
	ExpiresAt  int64  `json:"expires_at" bson:"expires_at"`   // deletion eligible
	Source     string `json:"source" bson:"source"`
	Hash       string `json:"hash" bson:"hash"`
}

const (
	SourceNative  = "native"
	SourceRestAPI = "rest_api"
)

// CartItem is one product entry in a cart. The fields after ItemData are
// derived at read time and never persisted as truth.
type CartItem struct {
	ItemKey     string            `json:"item_key" bson:"item_key"`
	ProductID   string            `json:"product_id" bson:"product_id"`
	VariationID string            `json:"variation_id,omitempty" bson:"variation_id,omitempty"`
	Quantity    float64           `json:"quantity" bson:"quantity"`
	Variation   map[string]string `json:"variation,omitempty" bson:"variation,omitempty"`
	ItemData    map[string]any    `json:"item_data,omitempty" bson:"item_data,omitempty"`

	Name        string `json:"name,omitempty" bson:"-"`
	SKU         string `json:"sku,omitempty" bson:"-"`
	Price       string `json:"price,omitempty" bson:"-"`
	Subtotal    string `json:"subtotal,omitempty" bson:"-"`
	SubtotalTax string `json:"subtotal_tax,omitempty" bson:"-"`
	Total       string `json:"total,omitempty" bson:"-"`
	Tax         string `json:"tax,omitempty" bson:"-"`
	Thumbnail   string `json:"thumbnail,omitempty" bson:"-"`
	Backordered bool   `json:"backordered,omitempty" bson:"-"`
}

// Fee is an extra charge attached to the cart as a whole.
type Fee struct {
	Name   string  `json:"name" bson:"name"`
	Amount float64 `json:"amount" bson:"amount"`
}

// Notice is a user-visible message queued during validation and drained on
// response. Kind is one of "notice", "error", "success".
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Totals is always computed as one combined step so callers never observe
// a partially recalculated cart.
type Totals struct {
	Subtotal    float64 `json:"-"`
	Discount    float64 `json:"-"`
	FeeTotal    float64 `json:"-"`
	Shipping    float64 `json:"-"`
	Tax         float64 `json:"-"`
	Total       float64 `json:"-"`
	FmtSubtotal string  `json:"subtotal"`
	FmtDiscount string  `json:"discount_total"`
	FmtFeeTotal string  `json:"fee_total"`
	FmtShipping string  `json:"shipping_total"`
	FmtTax      string  `json:"total_tax"`
	FmtTotal    string  `json:"total"`
}
