package card

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is a parsed CardConjurer card document. The layout tree under
// "data" is owned by the external rendering tool; it is kept as an
// untyped tree so unknown node kinds and extra fields pass through
// untouched.
type Document map[string]any

// LoadTemplate reads a card template JSON file.
func LoadTemplate(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	return doc, nil
}

// Synthesize produces a card document for rec by deep-copying the
// template and rewriting its text, art, and class frame nodes.
func Synthesize(template Document, rec Record) (Document, error) {
	doc, err := deepCopy(template)
	if err != nil {
		return nil, err
	}

	data, ok := doc["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("template has no data tree")
	}

	updateField(data, "text", "Title", rec.CardName)
	updateField(data, "text", "Type", rec.CardType)
	updateField(data, "text", "Rules", rec.RulesText)
	updateField(data, "text", "Cost", rec.Cost)
	updateField(data, "text", "Left Stat", rec.Power)
	updateField(data, "text", "Right Stat", rec.Defense)

	artist := rec.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}
	year := rec.Year
	if year == "" {
		year = "2024"
	}
	updateField(data, "text", "Collector Info", fmt.Sprintf("%s © %s Legend Story Studios", artist, year))

	if rec.ArtPath != "" {
		updateField(data, "image", "Art", rec.ArtPath)
	}
	if rec.ClassType != "" {
		updateClassFrame(data, rec.ClassType)
	}

	return doc, nil
}

// WriteFile saves the card document under dir as <SafeName>.json and
// returns the written path.
func WriteFile(doc Document, dir string, rec Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create card output directory: %w", err)
	}
	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal card %q: %w", rec.CardName, err)
	}
	path := filepath.Join(dir, rec.SafeName()+".json")
	if err := os.WriteFile(path, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write card file: %w", err)
	}
	return path, nil
}

// updateField rewrites the first node (document order) matching the
// given type and name. Text nodes get their "text" value replaced,
// image nodes their "src".
func updateField(node map[string]any, nodeType, name, value string) bool {
	if node["type"] == nodeType && node["name"] == name {
		switch nodeType {
		case "text":
			node["text"] = value
		case "image":
			node["src"] = value
		}
		return true
	}
	children, _ := node["children"].([]any)
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if updateField(child, nodeType, name, value) {
			return true
		}
	}
	return false
}

// updateClassFrame rewrites the class frame image node, identified by
// an image node whose name contains "Class".
func updateClassFrame(node map[string]any, classType string) bool {
	name, _ := node["name"].(string)
	if node["type"] == "image" && strings.Contains(name, "Class") {
		lower := strings.ToLower(classType)
		node["src"] = fmt.Sprintf("fab/frame/classes/%s.png", lower)
		node["thumb"] = fmt.Sprintf("fab/frame/classes/thumb-%s.png", lower)
		node["name"] = titleCase(classType) + " Class"
		return true
	}
	children, _ := node["children"].([]any)
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if updateClassFrame(child, classType) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func deepCopy(doc Document) (Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to copy template: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to copy template: %w", err)
	}
	return out, nil
}
