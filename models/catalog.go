package models

import "time"

type ProductType string

const (
	ProductSimple    ProductType = "simple"
	ProductVariable  ProductType = "variable"
	ProductVariation ProductType = "variation"
	ProductGrouped   ProductType = "grouped"
	ProductExternal  ProductType = "external"
)

const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusTrash   = "trash"
)

// Product is a catalog entry. Variation products carry a ParentID pointing
// at their variable parent; an empty value in VariationAttrs means the
// variation accepts any value for that attribute.
type Product struct {
	ProductID   string      `json:"product_id" bson:"product_id"`
	SKU         string      `json:"sku,omitempty" bson:"sku,omitempty"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Type        ProductType `json:"type" bson:"type"`
	Status      string      `json:"status" bson:"status"`
	ParentID    string      `json:"parent_id,omitempty" bson:"parent_id,omitempty"`

	Price        float64 `json:"price" bson:"price"`
	RegularPrice float64 `json:"regular_price,omitempty" bson:"regular_price,omitempty"`
	SalePrice    float64 `json:"sale_price,omitempty" bson:"sale_price,omitempty"`

	ManageStock       bool    `json:"manage_stock" bson:"manage_stock"`
	StockQuantity     float64 `json:"stock_quantity,omitempty" bson:"stock_quantity,omitempty"`
	InStock           bool    `json:"in_stock" bson:"in_stock"`
	BackordersAllowed bool    `json:"backorders_allowed,omitempty" bson:"backorders_allowed,omitempty"`

	SoldIndividually bool    `json:"sold_individually,omitempty" bson:"sold_individually,omitempty"`
	MinQuantity      float64 `json:"min_quantity,omitempty" bson:"min_quantity,omitempty"`
	MaxQuantity      float64 `json:"max_quantity,omitempty" bson:"max_quantity,omitempty"` // 0 = unbounded

	// Declared attributes on a variable product: name -> allowed values.
	Attributes map[string][]string `json:"attributes,omitempty" bson:"attributes,omitempty"`
	// Attribute values pinned by a variation product; "" accepts any value.
	VariationAttrs map[string]string `json:"variation_attrs,omitempty" bson:"variation_attrs,omitempty"`
	// Child variation product IDs of a variable product.
	Variations []string `json:"variations,omitempty" bson:"variations,omitempty"`
	// Child product IDs of a grouped product.
	GroupedIDs []string `json:"grouped_ids,omitempty" bson:"grouped_ids,omitempty"`

	ExternalURL  string   `json:"external_url,omitempty" bson:"external_url,omitempty"`
	CrossSellIDs []string `json:"cross_sell_ids,omitempty" bson:"cross_sell_ids,omitempty"`
	Images       []string `json:"images,omitempty" bson:"images,omitempty"`
	Thumbnail    string   `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Purchasable reports whether the product can go into a cart at all.
func (p *Product) Purchasable() bool {
	if p.Status != StatusPublish {
		return false
	}
	if p.Type == ProductExternal || p.Type == ProductGrouped || p.Type == ProductVariable {
		// variable parents resolve to a variation before purchase
		return p.Type == ProductVariable
	}
	return p.Price > 0
}

// Coupon is re-validated on every cart read; any failure removes it.
type Coupon struct {
	Code       string    `json:"code" bson:"code"`
	Discount   float64   `json:"discount" bson:"discount"` // percent, e.g. 10 means 10%
	ExpiresAt  time.Time `json:"expiresAt" bson:"expiresAt"`
	Active     bool      `json:"active" bson:"active"`
	MinSpend   float64   `json:"min_spend,omitempty" bson:"min_spend,omitempty"`
	UsageLimit int64     `json:"usage_limit,omitempty" bson:"usage_limit,omitempty"` // 0 = unlimited
	UsageCount int64     `json:"usage_count,omitempty" bson:"usage_count,omitempty"`
}

// StockHold reserves quantity for a not-yet-paid order. Held stock is
// subtracted from availability during sufficiency checks.
type StockHold struct {
	HoldID    string    `json:"hold_id" bson:"hold_id"`
	CartKey   string    `json:"cart_key" bson:"cart_key"`
	ProductID string    `json:"product_id" bson:"product_id"`
	Quantity  float64   `json:"quantity" bson:"quantity"`
	Status    string    `json:"status" bson:"status"` // "pending" until paid or released
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
