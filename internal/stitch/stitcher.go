// Package stitch packs card images into grid sheet images for print
// and tabletop-simulator import.
package stitch

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// DefaultCols is the column count when none is given.
	DefaultCols = 10
	// DefaultCellWidth and DefaultCellHeight are the per-cell card
	// dimensions in pixels.
	DefaultCellWidth  = 1500
	DefaultCellHeight = 2100

	// TTS deck sheets are fixed at 10 columns by 7 rows, 70 cards per
	// sheet, the tabletop-simulator standard import format.
	ttsCols = 10
	ttsRows = 7
)

// presetHeights maps output-resolution presets to the target canvas
// height; the scale factor is applied uniformly after assembly.
var presetHeights = map[string]int{
	"4k":    2160,
	"2k":    1440,
	"1080p": 1080,
	"720p":  720,
}

// ConfigError reports an invalid grid configuration. Config errors are
// fatal for the run, unlike per-card stage failures.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "invalid stitch configuration: " + e.Message
}

// Options configures a stitch run.
type Options struct {
	// Rows and Cols define the grid. Zero Cols defaults to DefaultCols;
	// zero Rows is computed to fit all images. Both are ignored in TTS
	// mode, which fixes the grid at 10x7.
	Rows    int
	Cols    int
	Spacing int
	// CellWidth and CellHeight are per-cell dimensions; zero means the
	// defaults. Images are contain-resized into the cell, never cropped.
	CellWidth  int
	CellHeight int
	// TTS fixes the grid at 10x7 and paginates every 70 images.
	TTS bool
	// Preset is an optional output-resolution preset (4k, 2k, 1080p,
	// 720p) applied to the assembled page canvas.
	Preset string
	// Background fills spacing and blank cells; zero value means white.
	Background color.NRGBA
}

// PageCount returns how many pages n images occupy under opts.
func (o Options) PageCount(n int) int {
	rows, cols, _ := o.grid(n)
	capacity := rows * cols
	if capacity <= 0 || n == 0 {
		return 0
	}
	return (n + capacity - 1) / capacity
}

func (o Options) grid(n int) (rows, cols int, err error) {
	if o.TTS {
		return ttsRows, ttsCols, nil
	}
	cols = o.Cols
	if cols == 0 {
		cols = DefaultCols
	}
	if cols < 0 {
		return 0, 0, &ConfigError{Message: fmt.Sprintf("cols must be positive, got %d", cols)}
	}
	rows = o.Rows
	if rows == 0 {
		if n == 0 {
			return 0, 0, &ConfigError{Message: "no images to fit and no row count given"}
		}
		rows = (n + cols - 1) / cols
	}
	if rows < 0 {
		return 0, 0, &ConfigError{Message: fmt.Sprintf("rows must be positive, got %d", rows)}
	}
	return rows, cols, nil
}

func (o Options) cell() (w, h int) {
	w, h = o.CellWidth, o.CellHeight
	if w <= 0 {
		w = DefaultCellWidth
	}
	if h <= 0 {
		h = DefaultCellHeight
	}
	return w, h
}

func (o Options) background() color.NRGBA {
	if o.Background == (color.NRGBA{}) {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return o.Background
}

// Stitch assembles the images into one or more page files under
// outputDir, named deck_sheet_<page>.png with 1-based page numbers, and
// returns the page paths in order.
func Stitch(imagePaths []string, outputDir string, opts Options) ([]string, error) {
	if len(imagePaths) == 0 {
		return nil, &ConfigError{Message: "no input images"}
	}
	rows, cols, err := opts.grid(len(imagePaths))
	if err != nil {
		return nil, err
	}
	if opts.Preset != "" {
		if _, ok := presetHeights[strings.ToLower(opts.Preset)]; !ok {
			return nil, &ConfigError{Message: fmt.Sprintf("unknown resolution preset %q", opts.Preset)}
		}
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stitch output directory: %w", err)
	}

	capacity := rows * cols
	pageCount := (len(imagePaths) + capacity - 1) / capacity
	slog.Info("Stitching images", "images", len(imagePaths), "grid", fmt.Sprintf("%dx%d", rows, cols), "pages", pageCount)

	var outputs []string
	for page := 0; page < pageCount; page++ {
		start := page * capacity
		end := start + capacity
		if end > len(imagePaths) {
			end = len(imagePaths)
		}

		canvas, err := stitchPage(imagePaths[start:end], rows, cols, opts)
		if err != nil {
			return nil, err
		}

		outPath := filepath.Join(outputDir, fmt.Sprintf("deck_sheet_%d.png", page+1))
		if err := imaging.Save(canvas, outPath); err != nil {
			return nil, fmt.Errorf("failed to save page %d: %w", page+1, err)
		}
		slog.Info("Stitched page", "page", page+1, "images", end-start, "path", outPath)
		outputs = append(outputs, outPath)
	}
	return outputs, nil
}

// stitchPage assembles one page canvas. Cells without an image stay
// background-filled.
func stitchPage(imagePaths []string, rows, cols int, opts Options) (image.Image, error) {
	cellW, cellH := opts.cell()
	spacing := opts.Spacing

	canvasW := cols*cellW + (cols-1)*spacing
	canvasH := rows*cellH + (rows-1)*spacing
	canvas := imaging.New(canvasW, canvasH, opts.background())

	for idx, path := range imagePaths {
		row := idx / cols
		col := idx % cols
		x := col * (cellW + spacing)
		y := row * (cellH + spacing)

		img, err := imaging.Open(path)
		if err != nil {
			slog.Warn("Skipping unreadable image", "path", path, "error", err)
			continue
		}
		fitted := imaging.Fit(img, cellW, cellH, imaging.Lanczos)
		// Center contain-resized images inside their cell.
		offX := x + (cellW-fitted.Bounds().Dx())/2
		offY := y + (cellH-fitted.Bounds().Dy())/2
		canvas = imaging.Paste(canvas, fitted, image.Pt(offX, offY))
	}

	if opts.Preset != "" {
		target := presetHeights[strings.ToLower(opts.Preset)]
		if canvasH != target {
			scaledW := canvasW * target / canvasH
			canvas = imaging.Resize(canvas, scaledW, target, imaging.Lanczos)
		}
	}
	return canvas, nil
}

// CollectImages lists the image files in dir sorted by name, the input
// order stitching preserves.
func CollectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".bmp", ".gif":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
