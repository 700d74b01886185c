package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func artNode(name string, x, y, w, h int) map[string]any {
	return map[string]any{
		"type":   "image",
		"name":   name,
		"x":      float64(x),
		"y":      float64(y),
		"width":  float64(w),
		"height": float64(h),
	}
}

func docWith(children ...any) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"type":     "group",
			"children": children,
		},
	}
}

func TestResolveArtBounds(t *testing.T) {
	tests := []struct {
		name     string
		doc      map[string]any
		expected Bounds
		ok       bool
	}{
		{
			name:     "finds art node",
			doc:      docWith(artNode("Art", 100, 150, 1200, 900)),
			expected: Bounds{X: 100, Y: 150, Width: 1200, Height: 900},
			ok:       true,
		},
		{
			name: "finds nested art node",
			doc: docWith(map[string]any{
				"type":     "group",
				"children": []any{artNode("Art", 10, 20, 30, 40)},
			}),
			expected: Bounds{X: 10, Y: 20, Width: 30, Height: 40},
			ok:       true,
		},
		{
			name: "first match in document order wins",
			doc: docWith(
				artNode("Art", 1, 1, 10, 10),
				artNode("Art", 2, 2, 20, 20),
			),
			expected: Bounds{X: 1, Y: 1, Width: 10, Height: 10},
			ok:       true,
		},
		{
			name: "absent art node",
			doc: docWith(map[string]any{
				"type": "text",
				"name": "Title",
			}),
			ok: false,
		},
		{
			name: "zero size is treated as absent",
			doc:  docWith(artNode("Art", 5, 5, 0, 0)),
			ok:   false,
		},
		{
			name: "image node with other name ignored",
			doc:  docWith(artNode("Ninja Class", 0, 0, 100, 100)),
			ok:   false,
		},
		{
			name: "empty document",
			doc:  map[string]any{},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := ResolveArtBounds(tt.doc)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && b != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, b)
			}
		})
	}
}

func TestResolveArtBoundsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.json")
	content := `{"data":{"type":"group","children":[{"type":"image","name":"Art","x":100,"y":100,"width":50,"height":50}]}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	b, ok, err := ResolveArtBoundsFile(path)
	if err != nil {
		t.Fatalf("ResolveArtBoundsFile failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected bounds to be found")
	}
	if (b != Bounds{X: 100, Y: 100, Width: 50, Height: 50}) {
		t.Errorf("Unexpected bounds: %+v", b)
	}

	if _, _, err := ResolveArtBoundsFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ResolveArtBoundsFile(bad); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}
