package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// DefaultToolURL is the external rendering tool's card editor.
const DefaultToolURL = "https://cardconjurer.com/creator/"

const (
	uploadSelector    = `drag-drop-upload input[type="file"]`
	fileInputFallback = `input[type="file"]`
)

// Browser drives the rendering tool through a Chrome DevTools session.
// It is the only place element selectors and page structure live; when
// the externally owned tool changes, this adapter is what breaks.
type Browser struct {
	URL         string
	Headless    bool
	downloadDir string

	ctx         context.Context
	cancelChain []context.CancelFunc
}

// NewBrowser creates an unstarted session that downloads into
// downloadDir.
func NewBrowser(downloadDir string, headless bool) *Browser {
	return &Browser{
		URL:         DefaultToolURL,
		Headless:    headless,
		downloadDir: downloadDir,
	}
}

func (b *Browser) DownloadDir() string { return b.downloadDir }

// Start launches Chrome, navigates to the tool, and waits for its
// upload component to appear.
func (b *Browser) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.Headless),
		chromedp.Flag("disable-gpu", b.Headless),
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	b.ctx = taskCtx
	b.cancelChain = []context.CancelFunc{taskCancel, allocCancel}

	absDownload, err := filepath.Abs(b.downloadDir)
	if err != nil {
		return fmt.Errorf("failed to resolve download directory: %w", err)
	}

	slog.Info("Starting browser session", "url", b.URL, "headless", b.Headless)
	err = chromedp.Run(taskCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(absDownload),
		chromedp.Navigate(b.URL),
		chromedp.WaitVisible(fileInputFallback, chromedp.ByQuery),
	)
	if err != nil {
		return &InteractionError{Operation: "start", Message: "rendering tool did not load", Err: err}
	}
	return nil
}

// ImportDocument uploads a card JSON through the tool's drag-drop
// upload component and nudges the component with a change event, the
// same trick a human drop would trigger.
func (b *Browser) ImportDocument(ctx context.Context, jsonPath string) error {
	abs, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve card JSON path: %w", err)
	}

	runCtx, cancel := b.opContext(ctx)
	defer cancel()

	err = chromedp.Run(runCtx,
		chromedp.SetUploadFiles(uploadSelector, []string{abs}, chromedp.ByQuery),
	)
	if err != nil {
		// Older versions of the tool expose a bare file input.
		err = chromedp.Run(runCtx,
			chromedp.SetUploadFiles(fileInputFallback, []string{abs}, chromedp.ByQuery),
		)
	}
	if err != nil {
		return &InteractionError{Operation: "import", Message: "file upload input not found", Err: err}
	}

	var dispatched bool
	err = chromedp.Run(runCtx, chromedp.Evaluate(`(() => {
		const input = document.querySelector('input[type="file"]');
		if (!input) return false;
		input.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, &dispatched))
	if err != nil || !dispatched {
		return &InteractionError{Operation: "import", Message: "could not signal the upload component", Err: err}
	}
	return nil
}

// TriggerRender clicks the tool's load/confirm button when one is
// present. Some versions of the tool render immediately on upload, so a
// missing button is not an error.
func (b *Browser) TriggerRender(ctx context.Context) error {
	runCtx, cancel := b.opContext(ctx)
	defer cancel()

	var clicked bool
	err := chromedp.Run(runCtx, chromedp.Evaluate(clickButtonJS("Load", "OK", "Confirm"), &clicked))
	if err != nil {
		return &InteractionError{Operation: "render", Message: "could not drive the page", Err: err}
	}
	if !clicked {
		slog.Debug("No confirm button found, assuming auto-render")
	}
	return nil
}

// AwaitCompletion polls for the tool's render surface to carry pixels.
func (b *Browser) AwaitCompletion(ctx context.Context, timeout time.Duration) error {
	runCtx, cancel := context.WithTimeout(b.sessionContext(ctx), timeout+5*time.Second)
	defer cancel()

	var done bool
	err := chromedp.Run(runCtx, chromedp.Poll(
		`(() => { const c = document.querySelector('canvas'); return !!c && c.width > 0 && c.height > 0; })()`,
		&done,
		chromedp.WithPollingTimeout(timeout),
	))
	if err != nil {
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return &TimeoutError{Operation: "render complete signal", Wait: timeout}
		}
		return &InteractionError{Operation: "await", Message: "render completion poll failed", Err: err}
	}
	return nil
}

// TriggerDownload clicks the tool's export button.
func (b *Browser) TriggerDownload(ctx context.Context) error {
	runCtx, cancel := b.opContext(ctx)
	defer cancel()

	var clicked bool
	err := chromedp.Run(runCtx, chromedp.Evaluate(clickButtonJS("Save Image", "Download", "Export"), &clicked))
	if err != nil {
		return &InteractionError{Operation: "download", Message: "could not drive the page", Err: err}
	}
	if !clicked {
		return &InteractionError{Operation: "download", Message: "download button not found"}
	}
	return nil
}

func (b *Browser) Close() error {
	for _, cancel := range b.cancelChain {
		cancel()
	}
	b.cancelChain = nil
	return nil
}

// opContext bounds a single UI interaction.
func (b *Browser) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.sessionContext(ctx), 15*time.Second)
}

// sessionContext prefers the long-lived chromedp session context;
// cancellation of the caller's ctx is honored between operations by the
// automator, not mid-flight.
func (b *Browser) sessionContext(_ context.Context) context.Context {
	return b.ctx
}

// clickButtonJS builds a script clicking the first button whose text
// contains any of the given labels.
func clickButtonJS(labels ...string) string {
	list := ""
	for i, l := range labels {
		if i > 0 {
			list += ","
		}
		list += fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf(`(() => {
		const labels = [%s];
		const buttons = Array.from(document.querySelectorAll('button'));
		const target = buttons.find(b => labels.some(l => b.textContent.includes(l)));
		if (!target) return false;
		target.click();
		return true;
	})()`, list)
}
