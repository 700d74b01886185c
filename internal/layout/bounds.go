// Package layout extracts artwork placement geometry from card JSON
// layout trees.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// Bounds is the artwork placement rectangle in the card's canvas
// coordinate space.
type Bounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ResolveArtBounds walks the card document's layout tree and returns
// the rectangle of the first image node named "Art", in document order.
// ok is false when no such node exists or the node carries no usable
// geometry; callers skip the overlay in that case, it is not an error.
func ResolveArtBounds(doc map[string]any) (Bounds, bool) {
	data, _ := doc["data"].(map[string]any)
	if data == nil {
		return Bounds{}, false
	}
	node := findArtNode(data)
	if node == nil {
		return Bounds{}, false
	}
	b := Bounds{
		X:      intField(node, "x"),
		Y:      intField(node, "y"),
		Width:  intField(node, "width"),
		Height: intField(node, "height"),
	}
	if b.Width <= 0 || b.Height <= 0 {
		return Bounds{}, false
	}
	return b, true
}

// ResolveArtBoundsFile reads a card JSON file and resolves its art
// bounds. A parse failure is an error; a missing art node is not.
func ResolveArtBoundsFile(path string) (Bounds, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Bounds{}, false, fmt.Errorf("failed to read card JSON %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Bounds{}, false, fmt.Errorf("failed to parse card JSON %s: %w", path, err)
	}
	b, ok := ResolveArtBounds(doc)
	return b, ok, nil
}

// findArtNode returns the first matching node in document order. When a
// template carries more than one art-layer candidate, the first one
// wins; ambiguous authoring is the template author's concern.
func findArtNode(node map[string]any) map[string]any {
	if node["type"] == "image" && node["name"] == "Art" {
		return node
	}
	children, _ := node["children"].([]any)
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if found := findArtNode(child); found != nil {
			return found
		}
	}
	return nil
}

func intField(node map[string]any, key string) int {
	switch v := node[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	}
	return 0
}
