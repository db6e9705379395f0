package cart

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"satchel/apperr"
	"satchel/models"
)

// resolveVariation finds the one variation of a variable product matching
// the posted attribute values. A variation attribute with an empty pinned
// value accepts any posted value. No match or more than one match is a hard
// validation error, never a silent default.
func resolveVariation(ctx context.Context, deps Deps, parent *models.Product, posted map[string]string) (*models.Product, map[string]string, error) {
	if err := checkPostedAttrs(parent, posted); err != nil {
		return nil, nil, err
	}

	var matches []*models.Product
	for _, vid := range parent.Variations {
		v, err := deps.Products.ProductByID(ctx, vid)
		if err != nil {
			return nil, nil, err
		}
		if v == nil || v.Status == models.StatusTrash {
			continue
		}
		if variationMatches(v.VariationAttrs, posted) {
			matches = append(matches, v)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil, apperr.BadRequest("no_matching_variation",
			fmt.Sprintf("No variation of %q matches the given attributes.", parent.Name))
	case 1:
		attrs, err := mergeVariationAttrs(parent, matches[0], posted)
		if err != nil {
			return nil, nil, err
		}
		return matches[0], attrs, nil
	default:
		return nil, nil, apperr.BadRequest("ambiguous_variation",
			fmt.Sprintf("The given attributes match more than one variation of %q; specify all attributes.", parent.Name))
	}
}

// checkPostedAttrs requires every attribute the parent declares and rejects
// values outside a constrained attribute's allowed set.
func checkPostedAttrs(parent *models.Product, posted map[string]string) error {
	var missing []string
	for attr, allowed := range parent.Attributes {
		value, ok := posted[attr]
		if !ok || value == "" {
			missing = append(missing, attr)
			continue
		}
		if len(allowed) > 0 && !contains(allowed, value) {
			return apperr.BadRequest("invalid_variation_attribute",
				fmt.Sprintf("%q is not a valid value for attribute %q.", value, attr))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperr.BadRequest("missing_variation_attributes",
			fmt.Sprintf("Missing variation attributes: %s.", strings.Join(missing, ", ")))
	}
	return nil
}

// variationMatches reports whether the posted attributes satisfy the
// variation's pinned values. Unpinned attributes accept any value.
func variationMatches(pinned, posted map[string]string) bool {
	for attr, want := range pinned {
		if want == "" {
			continue
		}
		if posted[attr] != want {
			return false
		}
	}
	return true
}

// mergeVariationAttrs builds the line item's final attribute map: pinned
// values win, posted values fill the "any value" attributes. A posted value
// contradicting a pinned one is a validation error.
func mergeVariationAttrs(parent, variation *models.Product, posted map[string]string) (map[string]string, error) {
	attrs := make(map[string]string, len(variation.VariationAttrs))
	for attr, pinned := range variation.VariationAttrs {
		if pinned != "" {
			if got, ok := posted[attr]; ok && got != pinned {
				return nil, apperr.BadRequest("invalid_variation_attribute",
					fmt.Sprintf("Attribute %q of this variation is fixed to %q.", attr, pinned))
			}
			attrs[attr] = pinned
			continue
		}
		got := posted[attr]
		if got == "" {
			return nil, apperr.BadRequest("missing_variation_attributes",
				fmt.Sprintf("Attribute %q requires a value.", attr))
		}
		if allowed, ok := parent.Attributes[attr]; ok && len(allowed) > 0 && !contains(allowed, got) {
			return nil, apperr.BadRequest("invalid_variation_attribute",
				fmt.Sprintf("%q is not a valid value for attribute %q.", got, attr))
		}
		attrs[attr] = got
	}
	return attrs, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
