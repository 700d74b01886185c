package render

import (
	"context"
	"time"
)

// Driver is the capability contract the automator needs from a browser
// session driving the external rendering tool. It isolates the fragile
// UI interaction surface: the rest of the pipeline never depends on
// element selectors or page structure.
type Driver interface {
	// Start opens the session and navigates to the rendering tool.
	Start(ctx context.Context) error
	// ImportDocument uploads one card JSON into the tool.
	ImportDocument(ctx context.Context, jsonPath string) error
	// TriggerRender fires the tool's internal render action.
	TriggerRender(ctx context.Context) error
	// AwaitCompletion blocks until the tool signals the render is done,
	// returning a TimeoutError when the signal is not observed in time.
	AwaitCompletion(ctx context.Context, timeout time.Duration) error
	// TriggerDownload fires the tool's export action; the file lands in
	// DownloadDir.
	TriggerDownload(ctx context.Context) error
	// DownloadDir is where the browser session writes downloads.
	DownloadDir() string
	// Close tears the session down.
	Close() error
}
