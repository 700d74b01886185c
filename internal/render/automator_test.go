package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeDriver simulates the browser session. failOn marks card names
// whose jobs should fail, keyed to the failing operation.
type fakeDriver struct {
	downloadDir string
	failAwait   map[string]bool
	failImport  map[string]bool

	current   string
	started   bool
	closed    bool
	downloads int
}

func (f *fakeDriver) Start(context.Context) error {
	f.started = true
	return nil
}

func (f *fakeDriver) ImportDocument(_ context.Context, jsonPath string) error {
	name := filepath.Base(jsonPath)
	f.current = name[:len(name)-len(".json")]
	if f.failImport[f.current] {
		return &InteractionError{Operation: "import", Message: "upload input not found"}
	}
	return nil
}

func (f *fakeDriver) TriggerRender(context.Context) error { return nil }

func (f *fakeDriver) AwaitCompletion(_ context.Context, timeout time.Duration) error {
	if f.failAwait[f.current] {
		return &TimeoutError{Operation: "render complete signal", Wait: timeout}
	}
	return nil
}

func (f *fakeDriver) TriggerDownload(context.Context) error {
	f.downloads++
	// Simulate the browser dropping a file with a tool-chosen name.
	path := filepath.Join(f.downloadDir, "card-export.png")
	return os.WriteFile(path, []byte("rendered:"+f.current), 0644)
}

func (f *fakeDriver) DownloadDir() string { return f.downloadDir }

func (f *fakeDriver) Close() error {
	f.closed = true
	return nil
}

func newTestAutomator(t *testing.T, driver *fakeDriver) (*Automator, string) {
	t.Helper()
	outDir := t.TempDir()
	a := NewAutomator(driver, outDir)
	a.DownloadTimeout = 2 * time.Second
	a.sleep = func(time.Duration) {}
	return a, outDir
}

func jobsFor(names ...string) []*Job {
	jobs := make([]*Job, 0, len(names))
	for _, n := range names {
		jobs = append(jobs, &Job{CardName: n, JSONPath: n + ".json", Status: StatusPending})
	}
	return jobs
}

func TestRunBatchAllSucceed(t *testing.T) {
	driver := &fakeDriver{downloadDir: t.TempDir()}
	a, outDir := newTestAutomator(t, driver)

	jobs := jobsFor("Shadow_Strike", "Iron_Wall")
	if err := a.RunBatch(context.Background(), jobs); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	for _, job := range jobs {
		if job.Status != StatusDownloaded {
			t.Errorf("Job %s: expected downloaded, got %s (%v)", job.CardName, job.Status, job.Err)
		}
		if filepath.Dir(job.OutputPath) != outDir {
			t.Errorf("Job %s: output not relocated to run directory: %s", job.CardName, job.OutputPath)
		}
	}

	data, err := os.ReadFile(filepath.Join(outDir, "Shadow_Strike.png"))
	if err != nil {
		t.Fatalf("Relocated file missing: %v", err)
	}
	if string(data) != "rendered:Shadow_Strike" {
		t.Errorf("Wrong file relocated: %q", data)
	}

	if !driver.closed {
		t.Error("Session not closed after batch")
	}
}

func TestRunBatchFailureDoesNotAbortBatch(t *testing.T) {
	driver := &fakeDriver{
		downloadDir: t.TempDir(),
		failAwait:   map[string]bool{"Second": true},
	}
	a, _ := newTestAutomator(t, driver)

	jobs := jobsFor("First", "Second", "Third")
	if err := a.RunBatch(context.Background(), jobs); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	if len(jobs) != 3 {
		t.Fatalf("Job list mutated: %d entries", len(jobs))
	}
	if jobs[0].Status != StatusDownloaded || jobs[2].Status != StatusDownloaded {
		t.Errorf("Healthy jobs affected by the failure: %s, %s", jobs[0].Status, jobs[2].Status)
	}
	if jobs[1].Status != StatusFailed {
		t.Fatalf("Expected second job failed, got %s", jobs[1].Status)
	}
	var terr *TimeoutError
	if !errors.As(jobs[1].Err, &terr) {
		t.Errorf("Expected TimeoutError, got %T: %v", jobs[1].Err, jobs[1].Err)
	}
	if jobs[1].Err.Error() == "" {
		t.Error("Failed job carries no reason")
	}
}

func TestRunBatchInteractionError(t *testing.T) {
	driver := &fakeDriver{
		downloadDir: t.TempDir(),
		failImport:  map[string]bool{"Broken": true},
	}
	a, _ := newTestAutomator(t, driver)

	jobs := jobsFor("Broken")
	if err := a.RunBatch(context.Background(), jobs); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	if jobs[0].Status != StatusFailed {
		t.Fatalf("Expected failed, got %s", jobs[0].Status)
	}
	var ierr *InteractionError
	if !errors.As(jobs[0].Err, &ierr) {
		t.Errorf("Expected InteractionError, got %T", jobs[0].Err)
	}
	if driver.downloads != 0 {
		t.Error("Download triggered after import failure")
	}
}

func TestRunBatchObservesCancellationBetweenJobs(t *testing.T) {
	driver := &fakeDriver{downloadDir: t.TempDir()}
	a, _ := newTestAutomator(t, driver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := jobsFor("First", "Second")
	if err := a.RunBatch(ctx, jobs); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	for _, job := range jobs {
		if job.Status != StatusFailed {
			t.Errorf("Job %s: expected failed after cancellation, got %s", job.CardName, job.Status)
		}
	}
}

func TestRunBatchDownloadTimeout(t *testing.T) {
	driver := &silentDriver{downloadDir: t.TempDir()}
	outDir := t.TempDir()
	a := NewAutomator(driver, outDir)
	a.DownloadTimeout = 100 * time.Millisecond
	a.sleep = func(time.Duration) {}

	jobs := jobsFor("Ghost")
	if err := a.RunBatch(context.Background(), jobs); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if jobs[0].Status != StatusFailed {
		t.Fatalf("Expected failed, got %s", jobs[0].Status)
	}
	var terr *TimeoutError
	if !errors.As(jobs[0].Err, &terr) {
		t.Errorf("Expected TimeoutError, got %T: %v", jobs[0].Err, jobs[0].Err)
	}
}

// silentDriver never produces a download.
type silentDriver struct {
	downloadDir string
}

func (s *silentDriver) Start(context.Context) error                          { return nil }
func (s *silentDriver) ImportDocument(context.Context, string) error         { return nil }
func (s *silentDriver) TriggerRender(context.Context) error                  { return nil }
func (s *silentDriver) AwaitCompletion(context.Context, time.Duration) error { return nil }
func (s *silentDriver) TriggerDownload(context.Context) error                { return nil }
func (s *silentDriver) DownloadDir() string                                  { return s.downloadDir }
func (s *silentDriver) Close() error                                         { return nil }

func TestJobsFromDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := JobsFromDir(dir)
	if err != nil {
		t.Fatalf("JobsFromDir failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].CardName != "a" || jobs[1].CardName != "b" {
		t.Errorf("Jobs not sorted by name: %s, %s", jobs[0].CardName, jobs[1].CardName)
	}
	for _, job := range jobs {
		if job.Status != StatusPending {
			t.Errorf("New job not pending: %s", job.Status)
		}
	}
}
