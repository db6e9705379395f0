package cart

import (
	"context"
	"sort"

	"satchel/models"
	"satchel/utils"
)

// Response is the wire shape of a cart. Collections are always present and
// empty rather than null so an empty cart has one canonical representation.
type Response struct {
	CartKey      string            `json:"cart_key"`
	Currency     string            `json:"currency"`
	ItemCount    float64           `json:"item_count"`
	Items        []models.CartItem `json:"items"`
	RemovedItems []models.CartItem `json:"removed_items"`
	Coupons      []string          `json:"coupons"`
	Fees         []models.Fee      `json:"fees"`
	CrossSells   []string          `json:"cross_sells"`
	Totals       models.Totals     `json:"totals"`
	Notices      []models.Notice   `json:"notices"`
	Hash         string            `json:"hash"`
}

// Format shapes the post-validation cart into the response contract.
// Items are ordered by item key so identical carts serialize identically.
func (c *Cart) Format(cartKey string, crossSells []string) Response {
	if crossSells == nil {
		crossSells = []string{}
	}
	resp := Response{
		CartKey:      cartKey,
		Currency:     utils.CurrencyCode(),
		ItemCount:    c.Count(),
		Items:        sortedItems(c.Items),
		RemovedItems: sortedItems(c.Removed),
		Coupons:      append([]string{}, c.Coupons...),
		Fees:         append([]models.Fee{}, c.Fees...),
		CrossSells:   crossSells,
		Totals:       c.totals,
		Notices:      c.Notices(),
		Hash:         c.Hash(),
	}
	if resp.Notices == nil {
		resp.Notices = []models.Notice{}
	}
	return resp
}

// CrossSells gathers cross-sell suggestions from the products in the cart,
// excluding anything already in it.
func (c *Cart) CrossSells(ctx context.Context, deps Deps) []string {
	inCart := make(map[string]bool, len(c.Items))
	for _, item := range c.Items {
		inCart[item.ProductID] = true
		if item.VariationID != "" {
			inCart[item.VariationID] = true
		}
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, item := range c.Items {
		product, err := c.purchaseProduct(ctx, deps, item)
		if err != nil || product == nil {
			continue
		}
		for _, id := range product.CrossSellIDs {
			if inCart[id] || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedItems(items map[string]*models.CartItem) []models.CartItem {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.CartItem, 0, len(keys))
	for _, k := range keys {
		out = append(out, *items[k])
	}
	return out
}
