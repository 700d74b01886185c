package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelwuwar/CardGener/internal/artwork"
	"github.com/michaelwuwar/CardGener/internal/card"
	"github.com/michaelwuwar/CardGener/internal/config"
	"github.com/michaelwuwar/CardGener/internal/pipeline"
	"github.com/michaelwuwar/CardGener/internal/report"
	"github.com/michaelwuwar/CardGener/internal/stitch"
)

func newRunCmd() *cobra.Command {
	var (
		cardsFile   string
		configFile  string
		provider    string
		tts         bool
		preset      string
		skipArtwork bool
		skipRender  bool
		skipOverlay bool
		skipStitch  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full card production pipeline",
		Long: `Runs every pipeline stage over a batch of cards: JSON synthesis,
artwork generation, browser rendering, artwork overlay, and sheet
stitching. Each run writes into its own directory under the configured
base directory and produces a YAML report.

A failing card never aborts the batch; its failure is recorded in the
report and the remaining cards continue.`,
		Example: `  # Full pipeline with defaults
  cardgener run --cards cards.json

  # Tabletop Simulator sheets, artwork already on disk
  cardgener run --cards cards.json --skip-artwork --tts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			if provider != "" {
				cfg.Artwork.Provider = provider
			}
			if tts {
				cfg.Stitch.TTS = true
			}
			if preset != "" {
				cfg.Stitch.Preset = preset
			}

			records, err := card.ReadBatch(cardsFile)
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				BaseDir:     cfg.Paths.BaseDir,
				TemplateDir: cfg.Paths.TemplateSet,
				SkipArtwork: skipArtwork,
				SkipRender:  skipRender,
				SkipOverlay: skipOverlay,
				SkipStitch:  skipStitch,
				Provider:    cfg.Artwork.Provider,
				Artwork: artwork.Options{
					Width:        cfg.Artwork.Width,
					Height:       cfg.Artwork.Height,
					Overwrite:    cfg.Artwork.Overwrite,
					RequestDelay: time.Duration(cfg.Artwork.RequestDelay) * time.Second,
				},
				Stitch: stitch.Options{
					Rows:    cfg.Stitch.Rows,
					Cols:    cfg.Stitch.Cols,
					Spacing: cfg.Stitch.Spacing,
					TTS:     cfg.Stitch.TTS,
					Preset:  cfg.Stitch.Preset,
				},
				ToolURL:           cfg.Render.ToolURL,
				Headless:          cfg.Render.Headless,
				CompletionTimeout: time.Duration(cfg.Render.CompletionTimeout) * time.Second,
				DownloadTimeout:   time.Duration(cfg.Render.DownloadTimeout) * time.Second,
			}

			runner, err := pipeline.NewRunner(opts)
			if err != nil {
				return err
			}

			rep, runErr := runner.Run(cmd.Context(), records, opts)
			if rep != nil {
				fmt.Fprintln(cmd.OutOrStdout(), report.Table(rep))
				if path, err := report.SaveYAML(cfg.Paths.ReportDir, rep); err != nil {
					slog.Error("Failed to save run report", "error", err)
				} else {
					slog.Info("Run report saved", "path", path)
				}
			}
			if runErr != nil {
				return runErr
			}
			if rep.Status == report.StatusError {
				return fmt.Errorf("%s", rep.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cardsFile, "cards", "", "JSON file with card records")
	cmd.Flags().StringVar(&configFile, "config", "", "TOML config file (default cardgener.toml if present)")
	cmd.Flags().StringVar(&provider, "provider", "", "override the configured artwork provider")
	cmd.Flags().BoolVar(&tts, "tts", false, "stitch sheets in Tabletop Simulator layout")
	cmd.Flags().StringVar(&preset, "preset", "", "override the configured stitch resolution preset")
	cmd.Flags().BoolVar(&skipArtwork, "skip-artwork", false, "skip artwork generation")
	cmd.Flags().BoolVar(&skipRender, "skip-render", false, "skip browser rendering")
	cmd.Flags().BoolVar(&skipOverlay, "skip-overlay", false, "skip artwork overlay")
	cmd.Flags().BoolVar(&skipStitch, "skip-stitch", false, "skip sheet stitching")
	if err := cmd.MarkFlagRequired("cards"); err != nil {
		slog.Error("Failed to mark flag required", "error", err)
	}

	return cmd
}
