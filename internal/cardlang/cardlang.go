// Package cardlang turns a natural-language card description into a
// structured card record using Gemini.
package cardlang

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/michaelwuwar/CardGener/internal/card"
)

const defaultModel = "gemini-2.0-flash"

const parsePrompt = `Extract a card definition from the description below.
Respond with a single JSON object and nothing else, using exactly these keys:
{
  "card_name": "string, the card's name",
  "card_type": "string, one of: Action, Equipment, Hero, Weapon",
  "rules_text": "string, the card's rules text",
  "cost": "string, resource cost, digits only, empty if none",
  "power": "string, attack value, digits only, empty if none",
  "defense": "string, defense value, digits only, empty if none",
  "class_type": "string, one of: Ninja, Warrior, Wizard, Ranger, Guardian, empty if unclear"
}

Description:
%s`

// Parser converts free-form card descriptions into records.
type Parser struct {
	model string
}

// New returns a Parser using the default Gemini model.
func New() *Parser {
	return &Parser{model: defaultModel}
}

// WithModel overrides the Gemini model name.
func (p *Parser) WithModel(model string) *Parser {
	p.model = model
	return p
}

// Parse sends the description to Gemini and decodes the structured
// reply into a card record.
func (p *Parser) Parse(ctx context.Context, description string) (card.Record, error) {
	if strings.TrimSpace(description) == "" {
		return card.Record{}, fmt.Errorf("empty card description")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return card.Record{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return card.Record{}, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(parsePrompt, description)))
	if err != nil {
		return card.Record{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return card.Record{}, err
	}

	rec, err := decodeRecord(text)
	if err != nil {
		return card.Record{}, err
	}

	slog.Debug("parsed card description", "card", rec.CardName, "type", rec.CardType)
	return rec, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("unexpected response format from Gemini")
}

// decodeRecord parses the model's JSON reply, tolerating markdown code
// fences around it.
func decodeRecord(response string) (card.Record, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var rec card.Record
	if err := json.Unmarshal([]byte(response), &rec); err != nil {
		return card.Record{}, fmt.Errorf("failed to parse model response: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return card.Record{}, fmt.Errorf("model produced invalid card: %w", err)
	}
	return rec, nil
}
