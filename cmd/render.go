package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelwuwar/CardGener/internal/layout"
	"github.com/michaelwuwar/CardGener/internal/overlay"
	"github.com/michaelwuwar/CardGener/internal/render"
)

func newRenderCmd() *cobra.Command {
	var (
		jsonDir           string
		outputDir         string
		finalDir          string
		artworkDir        string
		toolURL           string
		headless          bool
		completionTimeout int
		downloadTimeout   int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render card JSON files through the browser-based card tool",
		Long: `Drives the card rendering web tool over every card JSON file in a
directory: import, render, and download, one card at a time.

With --artwork the downloaded cards additionally get their generated
artwork composited into the art region declared by each card's JSON.`,
		Example: `  # Render every card JSON in json/ into rendered/
  cardgener render --json json/ --output rendered/

  # Render and composite previously generated artwork
  cardgener render --json json/ --output rendered/ --artwork artwork/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := render.JobsFromDir(jsonDir)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return fmt.Errorf("no card JSON files in %s", jsonDir)
			}

			downloadDir, err := os.MkdirTemp("", "cardgener-download-")
			if err != nil {
				return fmt.Errorf("failed to create download directory: %w", err)
			}
			defer os.RemoveAll(downloadDir)

			driver := render.NewBrowser(downloadDir, headless)
			if toolURL != "" {
				driver.URL = toolURL
			}
			automator := render.NewAutomator(driver, outputDir)
			automator.CompletionTimeout = time.Duration(completionTimeout) * time.Second
			automator.DownloadTimeout = time.Duration(downloadTimeout) * time.Second

			if err := automator.RunBatch(cmd.Context(), jobs); err != nil {
				return err
			}

			failed := 0
			for _, job := range jobs {
				if job.Err != nil {
					failed++
					continue
				}
				if artworkDir == "" {
					continue
				}
				if err := compositeJob(job, artworkDir, finalDir); err != nil {
					slog.Error("Overlay failed", "card", job.CardName, "error", err)
				}
			}
			if failed == len(jobs) {
				return fmt.Errorf("all %d render jobs failed", failed)
			}
			if failed > 0 {
				slog.Warn("Render batch finished with failures", "failed", failed, "total", len(jobs))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonDir, "json", "json", "directory of card JSON files")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "rendered", "rendered image output directory")
	cmd.Flags().StringVar(&finalDir, "final", "final", "composited image output directory (with --artwork)")
	cmd.Flags().StringVar(&artworkDir, "artwork", "", "artwork directory to composite onto rendered cards")
	cmd.Flags().StringVar(&toolURL, "tool-url", "", "override the rendering tool URL")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	cmd.Flags().IntVar(&completionTimeout, "completion-timeout", 30, "seconds to wait for a render to complete")
	cmd.Flags().IntVar(&downloadTimeout, "download-timeout", 15, "seconds to wait for a download to appear")

	return cmd
}

// compositeJob overlays the card's artwork, when present, onto its
// rendered image. Cards without artwork or without an art region pass
// through untouched.
func compositeJob(job *render.Job, artworkDir, finalDir string) error {
	artPath := filepath.Join(artworkDir, job.CardName+".png")
	if _, err := os.Stat(artPath); err != nil {
		slog.Debug("No artwork for card, skipping overlay", "card", job.CardName)
		return nil
	}
	bounds, hasBounds, err := layout.ResolveArtBoundsFile(job.JSONPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(finalDir, 0755); err != nil {
		return fmt.Errorf("failed to create final directory: %w", err)
	}
	outPath := filepath.Join(finalDir, job.CardName+".png")
	if err := overlay.Composite(job.OutputPath, artPath, outPath, bounds, hasBounds); err != nil {
		return err
	}
	slog.Info("Artwork composited", "card", job.CardName, "path", outPath)
	return nil
}
