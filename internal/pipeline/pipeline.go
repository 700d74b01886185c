// Package pipeline sequences the production stages over a batch of
// cards: JSON synthesis, artwork generation, browser rendering, art
// overlay, and sheet stitching. Stages run strictly in order; within a
// stage the whole batch is processed before the next stage begins.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/michaelwuwar/CardGener/internal/artwork"
	"github.com/michaelwuwar/CardGener/internal/card"
	"github.com/michaelwuwar/CardGener/internal/layout"
	"github.com/michaelwuwar/CardGener/internal/overlay"
	"github.com/michaelwuwar/CardGener/internal/render"
	"github.com/michaelwuwar/CardGener/internal/report"
	"github.com/michaelwuwar/CardGener/internal/stitch"
)

// Options selects which stages run and how.
type Options struct {
	// BaseDir is the root under which each run creates its own
	// directory tree.
	BaseDir string
	// TemplateDir holds one CardConjurer template JSON per card type.
	TemplateDir string

	SkipArtwork bool
	SkipRender  bool
	SkipOverlay bool
	SkipStitch  bool

	Provider string
	Artwork  artwork.Options
	Stitch   stitch.Options

	ToolURL  string
	Headless bool
	// CompletionTimeout and DownloadTimeout bound the render stage's
	// per-card waits; zero means the automator defaults.
	CompletionTimeout time.Duration
	DownloadTimeout   time.Duration
}

// ArtworkGenerator is the artwork stage contract.
type ArtworkGenerator interface {
	GenerateBatch(ctx context.Context, records []card.Record, opts artwork.Options) []artwork.Result
}

// Renderer turns a directory of card JSON files into rendered images.
type Renderer interface {
	RenderDir(ctx context.Context, jsonDir, outDir string) ([]*render.Job, error)
}

// Runner orchestrates one pipeline run. The zero value is not usable;
// construct with NewRunner.
type Runner struct {
	artwork  ArtworkGenerator
	renderer Renderer
}

// NewRunner wires the default stage implementations for the named
// artwork provider and render tool.
func NewRunner(opts Options) (*Runner, error) {
	provider, err := artwork.New(opts.Provider)
	if err != nil {
		return nil, err
	}
	return &Runner{
		artwork: artwork.NewGenerator(provider),
		renderer: &browserRenderer{
			toolURL:           opts.ToolURL,
			headless:          opts.Headless,
			completionTimeout: opts.CompletionTimeout,
			downloadTimeout:   opts.DownloadTimeout,
		},
	}, nil
}

// NewRunnerWith builds a runner from explicit stage implementations.
func NewRunnerWith(gen ArtworkGenerator, renderer Renderer) *Runner {
	return &Runner{artwork: gen, renderer: renderer}
}

// dirs is the per-run directory layout.
type dirs struct {
	run      string
	json     string
	artwork  string
	rendered string
	final    string
	sheets   string
}

func makeDirs(baseDir, runID string) (dirs, error) {
	d := dirs{run: filepath.Join(baseDir, "run-"+runID)}
	d.json = filepath.Join(d.run, "json")
	d.artwork = filepath.Join(d.run, "artwork")
	d.rendered = filepath.Join(d.run, "rendered")
	d.final = filepath.Join(d.run, "final")
	d.sheets = filepath.Join(d.run, "sheets")
	for _, dir := range []string{d.json, d.artwork, d.rendered, d.final, d.sheets} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return dirs{}, fmt.Errorf("failed to create run directory %s: %w", dir, err)
		}
	}
	return d, nil
}

// Run executes the selected stages over the batch and returns the run
// report. A non-nil error means the run could not proceed at all;
// per-card failures are recorded in the report instead.
func (r *Runner) Run(ctx context.Context, records []card.Record, opts Options) (*report.Report, error) {
	runID := uuid.NewString()
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.CardName
	}
	rep := report.New(runID, names)
	rep.Provider = opts.Provider

	batchErrs := card.ValidateBatch(records)
	valid := make([]card.Record, 0, len(records))
	for i, rec := range records {
		if err, ok := batchErrs[i]; ok {
			rep.Stage(rec.CardName, "json", report.StageResult{
				Status: report.StageFailed,
				Reason: err.Error(),
			})
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		rep.Finalize()
		return rep, fmt.Errorf("no valid cards in batch")
	}

	d, err := makeDirs(opts.BaseDir, runID)
	if err != nil {
		return nil, err
	}
	slog.Info("Starting pipeline run", "run", runID, "cards", len(valid), "dir", d.run)

	synthesized := r.synthesizeStage(valid, opts.TemplateDir, d, rep)

	artPaths := map[string]string{}
	if !opts.SkipArtwork {
		artPaths = r.artworkStage(ctx, synthesized, opts, d, rep)
	}

	renderPaths := map[string]string{}
	if !opts.SkipRender {
		renderPaths = r.renderStage(ctx, synthesized, d, rep)
	}

	finalPaths := renderPaths
	if !opts.SkipRender && !opts.SkipOverlay {
		finalPaths = r.overlayStage(synthesized, artPaths, renderPaths, d, rep)
	}

	if !opts.SkipRender && !opts.SkipStitch {
		if err := r.stitchStage(synthesized, finalPaths, opts.Stitch, d, rep); err != nil {
			rep.Finalize()
			return rep, err
		}
	}

	rep.Finalize()
	slog.Info("Pipeline run finished", "run", runID, "status", rep.Status, "message", rep.Message)
	return rep, nil
}

// synthesizeStage writes one CardConjurer JSON per valid card and
// returns the cards whose document was written.
func (r *Runner) synthesizeStage(records []card.Record, templateDir string, d dirs, rep *report.Report) []card.Record {
	var ok []card.Record
	for _, rec := range records {
		path, err := synthesizeCard(rec, templateDir, d.json)
		if err != nil {
			rep.Stage(rec.CardName, "json", report.StageResult{
				Status: report.StageFailed,
				Reason: err.Error(),
			})
			slog.Warn("Card JSON synthesis failed", "card", rec.CardName, "error", err)
			continue
		}
		rep.Stage(rec.CardName, "json", report.StageResult{Status: report.StageSuccess, Path: path})
		ok = append(ok, rec)
	}
	return ok
}

func synthesizeCard(rec card.Record, templateDir, jsonDir string) (string, error) {
	templatePath := filepath.Join(templateDir, templateName(rec.CardType))
	tmpl, err := card.LoadTemplate(templatePath)
	if err != nil {
		return "", err
	}
	doc, err := card.Synthesize(tmpl, rec)
	if err != nil {
		return "", err
	}
	return card.WriteFile(doc, jsonDir, rec)
}

// artworkStage generates artwork for every synthesized card and
// returns the art paths keyed by safe name.
func (r *Runner) artworkStage(ctx context.Context, records []card.Record, opts Options, d dirs, rep *report.Report) map[string]string {
	artOpts := opts.Artwork
	artOpts.OutputDir = d.artwork

	paths := make(map[string]string)
	for _, res := range r.artwork.GenerateBatch(ctx, records, artOpts) {
		if res.Err != nil {
			rep.Stage(res.Card.CardName, "artwork", report.StageResult{
				Status: report.StageFailed,
				Reason: res.Err.Error(),
			})
			continue
		}
		rep.Stage(res.Card.CardName, "artwork", report.StageResult{Status: report.StageSuccess, Path: res.Path})
		paths[res.Card.SafeName()] = res.Path
	}
	return paths
}

// renderStage drives the browser over every synthesized card JSON and
// returns the rendered image paths keyed by safe name.
func (r *Runner) renderStage(ctx context.Context, records []card.Record, d dirs, rep *report.Report) map[string]string {
	bySafe := make(map[string]card.Record, len(records))
	for _, rec := range records {
		bySafe[rec.SafeName()] = rec
	}

	jobs, err := r.renderer.RenderDir(ctx, d.json, d.rendered)
	if err != nil {
		for _, rec := range records {
			rep.Stage(rec.CardName, "render", report.StageResult{
				Status: report.StageFailed,
				Reason: err.Error(),
			})
		}
		return nil
	}

	paths := make(map[string]string)
	for _, job := range jobs {
		rec, ok := bySafe[job.CardName]
		if !ok {
			continue
		}
		if job.Err != nil {
			rep.Stage(rec.CardName, "render", report.StageResult{
				Status: report.StageFailed,
				Reason: job.Err.Error(),
			})
			continue
		}
		rep.Stage(rec.CardName, "render", report.StageResult{Status: report.StageSuccess, Path: job.OutputPath})
		paths[job.CardName] = job.OutputPath
	}
	return paths
}

// overlayStage composites generated artwork onto rendered cards. Cards
// without artwork, or whose layout declares no art region, keep their
// rendered image and the overlay stage stays skipped for them. Returns
// the per-card image to carry forward, keyed by safe name.
func (r *Runner) overlayStage(records []card.Record, artPaths, renderPaths map[string]string, d dirs, rep *report.Report) map[string]string {
	finals := make(map[string]string, len(renderPaths))
	for _, rec := range records {
		safe := rec.SafeName()
		rendered, ok := renderPaths[safe]
		if !ok {
			continue
		}
		artPath, hasArt := artPaths[safe]
		if !hasArt {
			finals[safe] = rendered
			continue
		}

		bounds, hasBounds, err := layout.ResolveArtBoundsFile(filepath.Join(d.json, safe+".json"))
		if err != nil {
			rep.Stage(rec.CardName, "overlay", report.StageResult{
				Status: report.StageFailed,
				Reason: err.Error(),
			})
			finals[safe] = rendered
			continue
		}
		if !hasBounds {
			slog.Debug("Card layout has no art region, skipping overlay", "card", rec.CardName)
			finals[safe] = rendered
			continue
		}

		outPath := filepath.Join(d.final, safe+".png")
		if err := overlay.Composite(rendered, artPath, outPath, bounds, hasBounds); err != nil {
			rep.Stage(rec.CardName, "overlay", report.StageResult{
				Status: report.StageFailed,
				Reason: err.Error(),
			})
			finals[safe] = rendered
			continue
		}
		rep.Stage(rec.CardName, "overlay", report.StageResult{Status: report.StageSuccess, Path: outPath})
		finals[safe] = outPath
	}
	return finals
}

// stitchStage assembles every successfully rendered card into sheets.
// A stitch configuration problem aborts the run.
func (r *Runner) stitchStage(records []card.Record, finalPaths map[string]string, opts stitch.Options, d dirs, rep *report.Report) error {
	var paths []string
	var included []card.Record
	for _, rec := range records {
		if p, ok := finalPaths[rec.SafeName()]; ok {
			paths = append(paths, p)
			included = append(included, rec)
		}
	}
	if len(paths) == 0 {
		slog.Warn("No rendered cards to stitch")
		return nil
	}

	sheets, err := stitch.Stitch(paths, d.sheets, opts)
	if err != nil {
		return fmt.Errorf("failed to stitch sheets: %w", err)
	}
	rep.Sheets = sheets
	for _, rec := range included {
		rep.MarkStitched(rec.CardName)
	}
	return nil
}

func templateName(cardType string) string {
	name := strings.ToLower(strings.TrimSpace(cardType))
	if name == "" {
		name = "action"
	}
	return name + ".json"
}
