package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/michaelwuwar/CardGener/internal/render"
)

// browserRenderer runs the render stage against a real browser
// session, downloading into a temporary directory before the automator
// relocates each image.
type browserRenderer struct {
	toolURL  string
	headless bool
	// zero timeouts fall back to the automator defaults.
	completionTimeout time.Duration
	downloadTimeout   time.Duration
}

func (b *browserRenderer) RenderDir(ctx context.Context, jsonDir, outDir string) ([]*render.Job, error) {
	jobs, err := render.JobsFromDir(jsonDir)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	downloadDir, err := os.MkdirTemp("", "cardgener-download-")
	if err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	defer os.RemoveAll(downloadDir)

	driver := render.NewBrowser(downloadDir, b.headless)
	if b.toolURL != "" {
		driver.URL = b.toolURL
	}
	automator := render.NewAutomator(driver, outDir)
	if b.completionTimeout > 0 {
		automator.CompletionTimeout = b.completionTimeout
	}
	if b.downloadTimeout > 0 {
		automator.DownloadTimeout = b.downloadTimeout
	}
	if err := automator.RunBatch(ctx, jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
