package artwork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/michaelwuwar/CardGener/internal/card"
)

const (
	// maxAttempts bounds retries for transient provider failures.
	maxAttempts = 3
	// retryBackoff is the linear backoff unit: attempt n waits n*backoff.
	retryBackoff = 2 * time.Second
	// defaultRequestDelay is the self-imposed minimum delay between
	// consecutive provider requests.
	defaultRequestDelay = 2 * time.Second
)

// Options configures a batch generation run.
type Options struct {
	OutputDir string
	Width     int
	Height    int
	// Overwrite permits replacing an existing image file. Without it an
	// existing file fails that card rather than being clobbered.
	Overwrite bool
	// RequestDelay overrides the minimum delay between provider
	// requests; zero means the default.
	RequestDelay time.Duration
}

// Result is the outcome of artwork generation for one card.
type Result struct {
	Card card.Record
	Path string
	Err  error
}

// Generator produces card artwork through a provider.
type Generator struct {
	provider Provider
	sleep    func(time.Duration)
}

func NewGenerator(provider Provider) *Generator {
	return &Generator{provider: provider, sleep: time.Sleep}
}

// Generate produces the artwork for a single card and writes it under
// opts.OutputDir as <SafeName>.png.
func (g *Generator) Generate(ctx context.Context, rec card.Record, opts Options) (string, error) {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}

	outPath := filepath.Join(opts.OutputDir, rec.SafeName()+".png")
	if !opts.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return "", fmt.Errorf("artwork already exists at %s (use overwrite to replace)", outPath)
		}
	}

	prompt := BuildPrompt(rec)
	slog.Info("Generating artwork", "card", rec.CardName, "provider", g.provider.Name(), "prompt", prompt)

	data, err := g.generateWithRetry(ctx, prompt, width, height)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artwork directory: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artwork file: %w", err)
	}
	return outPath, nil
}

// GenerateBatch runs Generate over the batch in input order, recording
// per-card outcomes. A failed card never stops the batch; cancellation
// is observed between cards only.
func (g *Generator) GenerateBatch(ctx context.Context, records []card.Record, opts Options) []Result {
	delay := opts.RequestDelay
	if delay <= 0 {
		delay = defaultRequestDelay
	}

	results := make([]Result, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Card: rec, Err: fmt.Errorf("run canceled: %w", err)})
			continue
		}

		path, err := g.Generate(ctx, rec, opts)
		if err != nil {
			slog.Warn("Artwork generation failed", "card", rec.CardName, "error", err)
		} else {
			slog.Info("Artwork saved", "card", rec.CardName, "path", path)
		}
		results = append(results, Result{Card: rec, Path: path, Err: err})

		if i < len(records)-1 {
			g.sleep(delay)
		}
	}
	return results
}

// generateWithRetry retries transient failures with linear backoff.
// Permanent failures (provider 4xx, invalid prompt) return immediately.
func (g *Generator) generateWithRetry(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := g.provider.Generate(ctx, prompt, width, height)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var genErr *GenerationError
		if !errors.As(err, &genErr) || !genErr.Transient {
			return nil, err
		}
		if attempt < maxAttempts {
			wait := time.Duration(attempt) * retryBackoff
			slog.Warn("Transient provider failure, retrying",
				"provider", g.provider.Name(), "attempt", attempt, "wait", wait, "error", err)
			g.sleep(wait)
		}
	}
	return nil, lastErr
}
