package cart

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"satchel/apperr"
	"satchel/models"
	"satchel/utils"
)

// Cart is the live, request-scoped cart object. It is deserialized from the
// session blob at the start of a request, mutated in memory, and written
// back exactly once when the session handler commits.
type Cart struct {
	Items          map[string]*models.CartItem
	Removed        map[string]*models.CartItem
	Coupons        []string
	Fees           []models.Fee
	PriceOverrides map[string]float64

	notices []models.Notice
	totals  models.Totals
	dirty   bool
}

// persisted is the on-disk shape of a cart. Notices and totals are never
// persisted: notices are per-request, totals are recomputed on read.
type persisted struct {
	Items          map[string]*models.CartItem `json:"items"`
	Removed        map[string]*models.CartItem `json:"removed_items,omitempty"`
	Coupons        []string                    `json:"coupons,omitempty"`
	Fees           []models.Fee                `json:"fees,omitempty"`
	PriceOverrides map[string]float64          `json:"price_overrides,omitempty"`
}

func New() *Cart {
	return &Cart{
		Items:          make(map[string]*models.CartItem),
		Removed:        make(map[string]*models.CartItem),
		Coupons:        []string{},
		Fees:           []models.Fee{},
		PriceOverrides: make(map[string]float64),
	}
}

// Deserialize builds a cart from a stored session blob. A broken or empty
// blob yields a fresh cart rather than an error; the shopper starts over.
func Deserialize(blob string) *Cart {
	c := New()
	if blob == "" {
		return c
	}
	var p persisted
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		log.Printf("cart blob unreadable, starting fresh: %v", err)
		return c
	}
	if p.Items != nil {
		c.Items = p.Items
	}
	if p.Removed != nil {
		c.Removed = p.Removed
	}
	if p.Coupons != nil {
		c.Coupons = p.Coupons
	}
	if p.Fees != nil {
		c.Fees = p.Fees
	}
	if p.PriceOverrides != nil {
		c.PriceOverrides = p.PriceOverrides
	}
	return c
}

func (c *Cart) Serialize() string {
	b, err := json.Marshal(persisted{
		Items:          c.Items,
		Removed:        c.Removed,
		Coupons:        c.Coupons,
		Fees:           c.Fees,
		PriceOverrides: c.PriceOverrides,
	})
	if err != nil {
		log.Printf("cart serialize failed: %v", err)
		return "{}"
	}
	return string(b)
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Count sums the quantities of active line items.
func (c *Cart) Count() float64 {
	var n float64
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Dirty() bool {
	return c.dirty
}

func (c *Cart) markDirty() {
	c.dirty = true
}

func (c *Cart) Totals() models.Totals {
	return c.totals
}

// Clear empties the cart entirely: items, removed items, coupons, fees and
// price overrides. Terminal for the session's contents.
func (c *Cart) Clear() {
	c.Items = make(map[string]*models.CartItem)
	c.Removed = make(map[string]*models.CartItem)
	c.Coupons = []string{}
	c.Fees = []models.Fee{}
	c.PriceOverrides = make(map[string]float64)
	c.totals = models.Totals{}
	c.markDirty()
}

// Merge absorbs another cart's contents, summing quantities on item key
// collision. Used when a guest cart is claimed by a registered customer who
// already has a saved cart.
func (c *Cart) Merge(other *Cart) {
	if other == nil {
		return
	}
	for key, item := range other.Items {
		if existing, ok := c.Items[key]; ok {
			existing.Quantity += item.Quantity
		} else {
			c.Items[key] = item
		}
		c.markDirty()
	}
	for key, item := range other.Removed {
		if _, ok := c.Removed[key]; !ok {
			c.Removed[key] = item
			c.markDirty()
		}
	}
	for _, code := range other.Coupons {
		found := false
		for _, have := range c.Coupons {
			if have == code {
				found = true
				break
			}
		}
		if !found {
			c.Coupons = append(c.Coupons, code)
			c.markDirty()
		}
	}
	for key, price := range other.PriceOverrides {
		if _, ok := c.PriceOverrides[key]; !ok {
			c.PriceOverrides[key] = price
			c.markDirty()
		}
	}
}

// SetPriceOverride forces a line item's unit price until the item is
// removed or the cart cleared. Callers gate this behind the shared-secret
// header check; the cart itself only records the value.
func (c *Cart) SetPriceOverride(itemKey string, price float64) error {
	if _, ok := c.Items[itemKey]; !ok {
		return apperr.NotFound("item_not_found",
			fmt.Sprintf("No cart item matches key %q.", itemKey))
	}
	if price < 0 {
		return apperr.BadRequest("invalid_price", "Price override must be zero or a positive value.")
	}
	c.PriceOverrides[itemKey] = price
	c.markDirty()
	return nil
}

// --- Notices ---

func (c *Cart) AddNotice(code, message, kind string) {
	c.notices = append(c.notices, models.Notice{Code: code, Message: message, Kind: kind})
}

func (c *Cart) Notices() []models.Notice {
	out := make([]models.Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// --- Staleness fingerprint ---

// Hash fingerprints items and the grand total so API clients can detect a
// stale read after a concurrent write elsewhere. It does not prevent the
// race; writes remain last-write-wins.
func (c *Cart) Hash() string {
	keys := make([]string, 0, len(c.Items))
	for k := range c.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(c.Items[k].Quantity, 'f', -1, 64))
		b.WriteByte(';')
	}
	b.WriteString(utils.FormatMoney(c.totals.Total))
	return utils.EncrypIt(b.String())
}
