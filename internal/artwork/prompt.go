package artwork

import (
	"strings"

	"github.com/michaelwuwar/CardGener/internal/card"
)

// classStyles maps a card's class to the style phrase opening its
// prompt. Classes outside this table contribute no style phrase.
var classStyles = map[string]string{
	"ninja":    "stealthy ninja, shadowy figure, dark atmosphere",
	"warrior":  "brave warrior, armored fighter, epic battlefield",
	"wizard":   "mystical wizard, magical energy, arcane symbols",
	"ranger":   "skilled ranger, nature background, bow and arrow",
	"guardian": "protective guardian, shield and armor, defensive stance",
}

// BuildPrompt synthesizes the image prompt for a card. The result is
// deterministic: the same record always yields the same prompt.
func BuildPrompt(rec card.Record) string {
	var parts []string

	if style, ok := classStyles[strings.ToLower(rec.ClassType)]; ok {
		parts = append(parts, style)
	}

	if rec.CardName != "" {
		parts = append(parts, "themed around "+rec.CardName)
	}

	rules := strings.ToLower(rec.RulesText)
	switch {
	case strings.Contains(rules, "damage"):
		parts = append(parts, "dynamic action scene")
	case strings.Contains(rules, "defense"), strings.Contains(rules, "prevent"):
		parts = append(parts, "defensive posture")
	}

	parts = append(parts, "fantasy card game art", "high quality", "detailed illustration")

	return strings.Join(parts, ", ")
}
