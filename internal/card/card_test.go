package card

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name",
			input:    "Shadow Strike",
			expected: "Shadow_Strike",
		},
		{
			name:     "keeps dashes and underscores",
			input:    "Blade-Dancer_II",
			expected: "Blade-Dancer_II",
		},
		{
			name:     "drops punctuation",
			input:    "Ninja's \"Edge\"!?",
			expected: "Ninjas_Edge",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  Quiet Step  ",
			expected: "Quiet_Step",
		},
		{
			name:     "collapses interior whitespace runs",
			input:    "Shadow  Strike",
			expected: "Shadow_Strike",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SafeName(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := (Record{CardName: "Shadow Strike"}).Validate(); err != nil {
		t.Errorf("Expected valid record, got %v", err)
	}

	err := (Record{}).Validate()
	if err == nil {
		t.Fatal("Expected error for empty card_name")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError, got %T", err)
	}
}

func TestValidateBatchDuplicates(t *testing.T) {
	records := []Record{
		{CardName: "Shadow Strike"},
		{CardName: "Iron Wall"},
		{CardName: "Shadow  Strike"}, // sanitizes to the same key
		{CardName: ""},
	}

	errs := ValidateBatch(records)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 invalid records, got %d: %v", len(errs), errs)
	}
	if _, ok := errs[2]; !ok {
		t.Error("Expected duplicate error at index 2")
	}
	if _, ok := errs[3]; !ok {
		t.Error("Expected validation error at index 3")
	}
}

func TestValidateBatchAllValid(t *testing.T) {
	records := []Record{
		{CardName: "Shadow Strike"},
		{CardName: "Iron Wall"},
	}
	if errs := ValidateBatch(records); errs != nil {
		t.Errorf("Expected no errors, got %v", errs)
	}
}

func sampleTemplate() Document {
	return Document{
		"data": map[string]any{
			"type": "group",
			"children": []any{
				map[string]any{"type": "text", "name": "Title", "text": ""},
				map[string]any{"type": "text", "name": "Type", "text": ""},
				map[string]any{
					"type": "group",
					"children": []any{
						map[string]any{"type": "text", "name": "Rules", "text": ""},
						map[string]any{"type": "text", "name": "Cost", "text": ""},
						map[string]any{"type": "text", "name": "Left Stat", "text": ""},
						map[string]any{"type": "text", "name": "Right Stat", "text": ""},
						map[string]any{"type": "text", "name": "Collector Info", "text": ""},
						map[string]any{"type": "image", "name": "Art", "src": "placeholder.png"},
						map[string]any{"type": "image", "name": "Ninja Class", "src": "fab/frame/classes/ninja.png"},
					},
				},
			},
		},
	}
}

func findNode(node map[string]any, nodeType, name string) map[string]any {
	if node["type"] == nodeType && node["name"] == name {
		return node
	}
	children, _ := node["children"].([]any)
	for _, c := range children {
		if child, ok := c.(map[string]any); ok {
			if found := findNode(child, nodeType, name); found != nil {
				return found
			}
		}
	}
	return nil
}

func TestSynthesize(t *testing.T) {
	rec := Record{
		CardName:  "Shadow Strike",
		CardType:  "Action - Attack",
		RulesText: "Deal 3 damage.",
		Cost:      "2",
		Power:     "5",
		Defense:   "3",
		ArtPath:   "art/shadow.png",
		ClassType: "warrior",
		Artist:    "A. Painter",
		Year:      "2025",
	}

	doc, err := Synthesize(sampleTemplate(), rec)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	data := doc["data"].(map[string]any)
	checks := map[string]string{
		"Title":      "Shadow Strike",
		"Type":       "Action - Attack",
		"Rules":      "Deal 3 damage.",
		"Cost":       "2",
		"Left Stat":  "5",
		"Right Stat": "3",
	}
	for name, want := range checks {
		node := findNode(data, "text", name)
		if node == nil {
			t.Fatalf("Missing text node %q", name)
		}
		if node["text"] != want {
			t.Errorf("Node %q: expected %q, got %v", name, want, node["text"])
		}
	}

	collector := findNode(data, "text", "Collector Info")
	if collector["text"] != "A. Painter © 2025 Legend Story Studios" {
		t.Errorf("Unexpected collector info: %v", collector["text"])
	}

	art := findNode(data, "image", "Art")
	if art["src"] != "art/shadow.png" {
		t.Errorf("Expected art src rewritten, got %v", art["src"])
	}

	frame := findNode(data, "image", "Warrior Class")
	if frame == nil {
		t.Fatal("Expected class frame renamed to Warrior Class")
	}
	if frame["src"] != "fab/frame/classes/warrior.png" {
		t.Errorf("Unexpected class frame src: %v", frame["src"])
	}
	if frame["thumb"] != "fab/frame/classes/thumb-warrior.png" {
		t.Errorf("Unexpected class frame thumb: %v", frame["thumb"])
	}
}

func TestSynthesizeDoesNotMutateTemplate(t *testing.T) {
	template := sampleTemplate()
	rec := Record{CardName: "Shadow Strike", ClassType: "wizard"}

	if _, err := Synthesize(template, rec); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	title := findNode(template["data"].(map[string]any), "text", "Title")
	if title["text"] != "" {
		t.Errorf("Template was mutated: %v", title["text"])
	}
}

func TestSynthesizeDefaultsCollectorInfo(t *testing.T) {
	doc, err := Synthesize(sampleTemplate(), Record{CardName: "Anon"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	collector := findNode(doc["data"].(map[string]any), "text", "Collector Info")
	if collector["text"] != "Unknown Artist © 2024 Legend Story Studios" {
		t.Errorf("Unexpected default collector info: %v", collector["text"])
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	rec := Record{CardName: "Shadow Strike"}
	doc, err := Synthesize(sampleTemplate(), rec)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	path, err := WriteFile(doc, filepath.Join(dir, "json"), rec)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if filepath.Base(path) != "Shadow_Strike.json" {
		t.Errorf("Unexpected file name: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read written card: %v", err)
	}
	var round Document
	if err := json.Unmarshal(raw, &round); err != nil {
		t.Fatalf("Written card is not valid JSON: %v", err)
	}
}

func TestReadBatch(t *testing.T) {
	dir := t.TempDir()

	arrayPath := filepath.Join(dir, "cards.json")
	arrayJSON := `[
		{"card_name": "Shadow Strike", "card_type": "Action"},
		{"card_name": "Iron Wall", "card_type": "Action"}
	]`
	if err := os.WriteFile(arrayPath, []byte(arrayJSON), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadBatch(arrayPath)
	if err != nil {
		t.Fatalf("ReadBatch failed: %v", err)
	}
	if len(records) != 2 || records[0].CardName != "Shadow Strike" {
		t.Errorf("Unexpected records: %+v", records)
	}

	singlePath := filepath.Join(dir, "card.json")
	if err := os.WriteFile(singlePath, []byte(`{"card_name": "Iron Wall"}`), 0644); err != nil {
		t.Fatal(err)
	}
	records, err = ReadBatch(singlePath)
	if err != nil {
		t.Fatalf("ReadBatch failed for single record: %v", err)
	}
	if len(records) != 1 || records[0].CardName != "Iron Wall" {
		t.Errorf("Unexpected records: %+v", records)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBatch(badPath); err == nil {
		t.Error("Expected error for malformed cards file")
	}

	if _, err := ReadBatch(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing cards file")
	}
}
