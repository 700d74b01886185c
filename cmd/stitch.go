package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/michaelwuwar/CardGener/internal/stitch"
)

func newStitchCmd() *cobra.Command {
	var (
		inputDir   string
		outputDir  string
		rows       int
		cols       int
		spacing    int
		cellWidth  int
		cellHeight int
		tts        bool
		preset     string
	)

	cmd := &cobra.Command{
		Use:   "stitch",
		Short: "Assemble card images into print sheets",
		Long: `Stitches every card image in a directory into one or more sheet
images, paginating when the grid fills up.

Tabletop Simulator mode (--tts) fixes the grid at 10 columns by 7 rows,
70 cards per sheet, which is the layout TTS expects for deck imports.`,
		Example: `  # Default 10-column grid
  cardgener stitch --input final/ --output sheets/

  # Tabletop Simulator deck sheets
  cardgener stitch --input final/ --output sheets/ --tts

  # Fixed 3x3 grid scaled to 1080p
  cardgener stitch --input final/ --output sheets/ --rows 3 --cols 3 --preset 1080p`,
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := stitch.CollectImages(inputDir)
			if err != nil {
				return err
			}
			if len(images) == 0 {
				return fmt.Errorf("no images found in %s", inputDir)
			}

			sheets, err := stitch.Stitch(images, outputDir, stitch.Options{
				Rows:       rows,
				Cols:       cols,
				Spacing:    spacing,
				CellWidth:  cellWidth,
				CellHeight: cellHeight,
				TTS:        tts,
				Preset:     preset,
			})
			if err != nil {
				return err
			}
			slog.Info("Sheets assembled", "images", len(images), "sheets", len(sheets))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "final", "directory of card images")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "sheets", "sheet output directory")
	cmd.Flags().IntVar(&rows, "rows", 0, "grid rows (0 computes from image count)")
	cmd.Flags().IntVar(&cols, "cols", 0, "grid columns (0 means 10)")
	cmd.Flags().IntVar(&spacing, "spacing", 0, "pixels between cells")
	cmd.Flags().IntVar(&cellWidth, "cell-width", 0, "cell width in pixels (0 means 1500)")
	cmd.Flags().IntVar(&cellHeight, "cell-height", 0, "cell height in pixels (0 means 2100)")
	cmd.Flags().BoolVar(&tts, "tts", false, "Tabletop Simulator layout (10x7, 70 per sheet)")
	cmd.Flags().StringVar(&preset, "preset", "", "output resolution preset (4k, 2k, 1080p, 720p)")

	return cmd
}
