package cart

import "testing"

func TestItemKeyDeterministic(t *testing.T) {
	a := ItemKey("p1", "v1", map[string]string{"color": "red"}, map[string]any{"note": "hi"})
	b := ItemKey("p1", "v1", map[string]string{"color": "red"}, map[string]any{"note": "hi"})
	if a != b {
		t.Fatalf("same configuration produced different keys: %s vs %s", a, b)
	}
}

func TestItemKeyAttributeOrderIndependent(t *testing.T) {
	a := ItemKey("p1", "v1", map[string]string{"color": "red", "size": "large"}, nil)
	b := ItemKey("p1", "v1", map[string]string{"size": "large", "color": "red"}, nil)
	if a != b {
		t.Fatalf("attribute order changed the key: %s vs %s", a, b)
	}
}

func TestItemKeyDistinguishes(t *testing.T) {
	base := ItemKey("p1", "", nil, nil)

	cases := map[string]string{
		"product":   ItemKey("p2", "", nil, nil),
		"variation": ItemKey("p1", "v1", nil, nil),
		"attrs":     ItemKey("p1", "", map[string]string{"color": "red"}, nil),
		"item data": ItemKey("p1", "", nil, map[string]any{"engraving": "x"}),
	}
	for name, key := range cases {
		if key == base {
			t.Fatalf("differing %s produced the same key", name)
		}
	}
}

func TestItemKeyEmptyDataMatchesNil(t *testing.T) {
	a := ItemKey("p1", "", nil, nil)
	b := ItemKey("p1", "", map[string]string{}, map[string]any{})
	if a != b {
		t.Fatalf("empty maps changed the key: %s vs %s", a, b)
	}
}
