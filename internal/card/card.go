// Package card defines the normalized card record consumed by every
// pipeline stage, plus the template-driven JSON synthesis that turns a
// record into a CardConjurer document.
package card

import (
	"fmt"
	"strings"
)

// Record holds the normalized fields describing one card. Records are
// constructed once per input row (or AI-supplied object) and treated as
// immutable by every downstream stage.
type Record struct {
	CardName  string `json:"card_name"`
	CardType  string `json:"card_type"`
	RulesText string `json:"rules_text"`
	Cost      string `json:"cost"`
	Power     string `json:"power"`
	Defense   string `json:"defense"`
	ArtPath   string `json:"art_path,omitempty"`
	ClassType string `json:"class_type"`
	Artist    string `json:"artist,omitempty"`
	Year      string `json:"year,omitempty"`

	// Extra carries dynamically added fields from upstream schema
	// extensions. The pipeline tolerates them without inspecting them.
	Extra map[string]string `json:"extra,omitempty"`
}

// ValidationError reports a malformed record. Cards failing validation
// never enter any pipeline stage.
type ValidationError struct {
	CardName string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.CardName == "" {
		return fmt.Sprintf("invalid card: %s", e.Reason)
	}
	return fmt.Sprintf("invalid card %q: %s", e.CardName, e.Reason)
}

// Validate checks the per-record invariants.
func (r Record) Validate() error {
	if strings.TrimSpace(r.CardName) == "" {
		return &ValidationError{Reason: "card_name is required"}
	}
	if r.SafeName() == "" {
		return &ValidationError{CardName: r.CardName, Reason: "card_name contains no usable characters"}
	}
	return nil
}

// ValidateBatch checks each record and the batch-wide uniqueness of
// card names. It returns one error per offending record, indexed by
// the record's position in the batch.
func ValidateBatch(records []Record) map[int]error {
	errs := make(map[int]error)
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			errs[i] = err
			continue
		}
		key := rec.SafeName()
		if first, dup := seen[key]; dup {
			errs[i] = &ValidationError{
				CardName: rec.CardName,
				Reason:   fmt.Sprintf("duplicate card name (also at index %d)", first),
			}
			continue
		}
		seen[key] = i
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SafeName returns the filesystem-safe file naming key for the card:
// alphanumerics, dashes and underscores are kept, spaces become
// underscores, everything else is dropped.
func (r Record) SafeName() string {
	return SafeName(r.CardName)
}

// SafeName sanitizes an arbitrary card name for use as a file name.
// Whitespace runs collapse to a single underscore so names differing
// only in spacing map to the same key.
func SafeName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ', c == '-', c == '_':
			b.WriteRune(c)
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}
