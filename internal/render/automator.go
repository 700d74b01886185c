package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/michaelwuwar/CardGener/internal/card"
)

const (
	// defaultCompletionTimeout bounds the wait for the tool's render
	// complete signal.
	defaultCompletionTimeout = 30 * time.Second
	// defaultDownloadTimeout bounds the wait for the exported file to
	// appear in the download directory.
	defaultDownloadTimeout = 15 * time.Second

	downloadPollInterval = 500 * time.Millisecond
	// interJobDelay spaces consecutive jobs to avoid racing the tool.
	interJobDelay = time.Second
)

// Automator runs render jobs sequentially over one shared driver
// session. The session is exclusively owned by the automator for the
// duration of a batch.
type Automator struct {
	driver    Driver
	outputDir string

	CompletionTimeout time.Duration
	DownloadTimeout   time.Duration

	sleep func(time.Duration)
}

func NewAutomator(driver Driver, outputDir string) *Automator {
	return &Automator{
		driver:            driver,
		outputDir:         outputDir,
		CompletionTimeout: defaultCompletionTimeout,
		DownloadTimeout:   defaultDownloadTimeout,
		sleep:             time.Sleep,
	}
}

// JobsFromDir builds pending jobs for every card JSON file in dir,
// sorted by name.
func JobsFromDir(dir string) ([]*Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read card JSON directory %s: %w", dir, err)
	}
	var jobs []*Job
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		jobs = append(jobs, &Job{
			CardName: strings.TrimSuffix(e.Name(), ".json"),
			JSONPath: filepath.Join(dir, e.Name()),
			Status:   StatusPending,
		})
	}
	return jobs, nil
}

// RunBatch processes jobs in order over one session. A failing job is
// recorded and the batch advances; only a session that cannot be
// started fails the batch as a whole. Cancellation is observed between
// jobs, never mid-operation.
func (a *Automator) RunBatch(ctx context.Context, jobs []*Job) error {
	if err := os.MkdirAll(a.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create render output directory: %w", err)
	}
	if err := a.driver.Start(ctx); err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer func() {
		if err := a.driver.Close(); err != nil {
			slog.Warn("Failed to close browser session", "error", err)
		}
	}()

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			job.fail(fmt.Errorf("run canceled: %w", err))
			continue
		}

		a.runJob(ctx, job)
		if job.Err != nil {
			slog.Warn("Render job failed", "card", job.CardName, "error", job.Err)
		} else {
			slog.Info("Render job downloaded", "card", job.CardName, "path", job.OutputPath)
		}

		if i < len(jobs)-1 {
			a.sleep(interJobDelay)
		}
	}
	return nil
}

// runJob walks one job through importing, rendering, and download.
func (a *Automator) runJob(ctx context.Context, job *Job) {
	job.Status = StatusImporting
	slog.Info("Importing card", "card", job.CardName, "json", job.JSONPath)

	if err := a.driver.ImportDocument(ctx, job.JSONPath); err != nil {
		job.fail(err)
		return
	}
	if err := a.driver.TriggerRender(ctx); err != nil {
		job.fail(err)
		return
	}
	if err := a.driver.AwaitCompletion(ctx, a.CompletionTimeout); err != nil {
		job.fail(err)
		return
	}

	job.Status = StatusRendering
	since := time.Now().Add(-time.Second)
	if err := a.driver.TriggerDownload(ctx); err != nil {
		job.fail(err)
		return
	}

	downloaded, err := a.awaitDownload(ctx, since)
	if err != nil {
		job.fail(err)
		return
	}

	dest := filepath.Join(a.outputDir, card.SafeName(job.CardName)+filepath.Ext(downloaded))
	if err := relocate(downloaded, dest); err != nil {
		job.fail(err)
		return
	}

	job.Status = StatusDownloaded
	job.OutputPath = dest
}

// awaitDownload polls the driver's download directory for an image file
// newer than since.
func (a *Automator) awaitDownload(ctx context.Context, since time.Time) (string, error) {
	deadline := time.Now().Add(a.DownloadTimeout)
	for {
		if path := newestImage(a.driver.DownloadDir(), since); path != "" {
			return path, nil
		}
		if time.Now().After(deadline) {
			return "", &TimeoutError{Operation: "download", Wait: a.DownloadTimeout}
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("canceled waiting for download: %w", ctx.Err())
		case <-time.After(downloadPollInterval):
		}
	}
}

// newestImage returns the most recently modified image file in dir with
// a modification time at or after since, or "".
func newestImage(dir string, since time.Time) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".bmp", ".gif":
		default:
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(since) {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, e.Name())
			newestTime = info.ModTime()
		}
	}
	return newest
}

// relocate moves the downloaded file into place, replacing any stale
// file of the same name. Rename can fail across filesystems, in which
// case the bytes are copied.
func relocate(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read downloaded file: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("failed to move downloaded file: %w", err)
	}
	return os.Remove(src)
}
