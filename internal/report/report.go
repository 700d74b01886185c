// Package report tracks per-card, per-stage outcomes across a pipeline
// run and serializes the consolidated result.
package report

import (
	"fmt"
	"time"
)

// RunStatus is the run-level outcome.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusPartial RunStatus = "partial"
	StatusError   RunStatus = "error"
)

// StageStatus is a per-card, per-stage terminal state.
type StageStatus string

const (
	StageSkipped StageStatus = "skipped"
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
)

// StageResult is the terminal record of one stage for one card.
type StageResult struct {
	Status StageStatus `yaml:"status"`
	Path   string      `yaml:"path,omitempty"`
	// Reason is the human-readable failure reason; always set when
	// Status is failed.
	Reason string `yaml:"reason,omitempty"`
}

// CardResult aggregates one card's journey through the run.
type CardResult struct {
	CardName string      `yaml:"card_name"`
	JSON     StageResult `yaml:"json"`
	Artwork  StageResult `yaml:"artwork"`
	Render   StageResult `yaml:"render"`
	Overlay  StageResult `yaml:"overlay"`
	// Stitched is true when the card's image made it into a sheet.
	Stitched bool `yaml:"stitched"`
}

// Failed reports whether any attempted stage failed for the card.
func (c CardResult) Failed() bool {
	for _, s := range []StageResult{c.JSON, c.Artwork, c.Render, c.Overlay} {
		if s.Status == StageFailed {
			return true
		}
	}
	return false
}

// Report is the consolidated run outcome. It is created at
// orchestration start, mutated by stage completions, and finalized at
// run end. It is an explicit value threaded through the orchestrator,
// never ambient state.
type Report struct {
	RunID     string    `yaml:"run_id"`
	Provider  string    `yaml:"provider,omitempty"`
	Status    RunStatus `yaml:"status"`
	Message   string    `yaml:"message"`
	StartedAt time.Time `yaml:"started_at"`
	EndedAt   time.Time `yaml:"ended_at"`

	Total     int `yaml:"total"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`

	Cards []*CardResult `yaml:"cards"`
	// Sheets lists the stitched page files produced by the run.
	Sheets []string `yaml:"sheets,omitempty"`

	index map[string]*CardResult
}

// New creates a report covering the named cards, every stage skipped
// until a stage completion records otherwise.
func New(runID string, cardNames []string) *Report {
	r := &Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Total:     len(cardNames),
		index:     make(map[string]*CardResult, len(cardNames)),
	}
	for _, name := range cardNames {
		c := &CardResult{
			CardName: name,
			JSON:     StageResult{Status: StageSkipped},
			Artwork:  StageResult{Status: StageSkipped},
			Render:   StageResult{Status: StageSkipped},
			Overlay:  StageResult{Status: StageSkipped},
		}
		r.Cards = append(r.Cards, c)
		r.index[name] = c
	}
	return r
}

// Card returns the entry for a card name, creating one for names the
// run discovers late (for example JSON files already on disk).
func (r *Report) Card(name string) *CardResult {
	if c, ok := r.index[name]; ok {
		return c
	}
	c := &CardResult{
		CardName: name,
		JSON:     StageResult{Status: StageSkipped},
		Artwork:  StageResult{Status: StageSkipped},
		Render:   StageResult{Status: StageSkipped},
		Overlay:  StageResult{Status: StageSkipped},
	}
	r.Cards = append(r.Cards, c)
	if r.index == nil {
		r.index = make(map[string]*CardResult)
	}
	r.index[name] = c
	r.Total = len(r.Cards)
	return c
}

// Stage records a stage completion for a card.
func (r *Report) Stage(cardName, stage string, result StageResult) {
	c := r.Card(cardName)
	switch stage {
	case "json":
		c.JSON = result
	case "artwork":
		c.Artwork = result
	case "render":
		c.Render = result
	case "overlay":
		c.Overlay = result
	}
}

// MarkStitched flags a card as included in the stitched sheets.
func (r *Report) MarkStitched(cardName string) {
	r.Card(cardName).Stitched = true
}

// Finalize computes counts and the run-level status. Every failed card
// carries a reason; a run with no failures is success, with some is
// partial, with nothing but failures is error.
func (r *Report) Finalize() {
	r.EndedAt = time.Now().UTC()
	r.Total = len(r.Cards)
	r.Succeeded = 0
	r.Failed = 0
	for _, c := range r.Cards {
		if c.Failed() {
			r.Failed++
		} else {
			r.Succeeded++
		}
	}

	switch {
	case r.Total == 0:
		r.Status = StatusError
		r.Message = "no cards to process"
	case r.Failed == 0:
		r.Status = StatusSuccess
		r.Message = fmt.Sprintf("processed %d/%d cards", r.Succeeded, r.Total)
	case r.Succeeded == 0:
		r.Status = StatusError
		r.Message = fmt.Sprintf("all %d cards failed", r.Total)
	default:
		r.Status = StatusPartial
		r.Message = fmt.Sprintf("processed %d/%d cards, %d failed", r.Succeeded, r.Total, r.Failed)
	}
}
