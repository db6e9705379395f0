package cart

import (
	"encoding/json"
	"sort"
	"strings"

	"satchel/utils"
)

// ItemKey derives the deterministic identifier for a line item from the
// product, its variation and any custom item data. Identical configurations
// collapse to the same key; any distinguishing data produces a distinct key.
func ItemKey(productID, variationID string, variation map[string]string, itemData map[string]any) string {
	var b strings.Builder
	b.WriteString(productID)
	b.WriteByte('|')
	b.WriteString(variationID)
	b.WriteByte('|')

	attrs := make([]string, 0, len(variation))
	for k := range variation {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)
	for _, k := range attrs {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(variation[k])
		b.WriteByte(';')
	}

	if len(itemData) > 0 {
		// json.Marshal writes map keys in sorted order, so this is stable.
		if data, err := json.Marshal(itemData); err == nil {
			b.WriteByte('|')
			b.Write(data)
		}
	}
	return utils.EncrypIt(b.String())
}
