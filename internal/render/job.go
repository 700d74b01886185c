// Package render drives the external card-rendering web tool through
// its import, render, and export cycle, one card at a time over a
// shared browser session.
package render

import (
	"fmt"
	"time"
)

// Status tracks a render job through its lifecycle. failed is an
// absorbing state reachable from any non-terminal state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusImporting  Status = "importing"
	StatusRendering  Status = "rendering"
	StatusDownloaded Status = "downloaded"
	StatusFailed     Status = "failed"
)

// Job is the per-card unit of work tracked through the rendering state
// machine. One job exists per card per run; jobs are not persisted.
type Job struct {
	CardName string
	JSONPath string
	Status   Status
	// OutputPath is set once the rendered image has been relocated to
	// the run's output directory.
	OutputPath string
	Err        error
}

// fail moves the job to its absorbing state.
func (j *Job) fail(err error) {
	j.Status = StatusFailed
	j.Err = err
}

// TimeoutError reports that the remote tool did not signal completion
// within the bounded wait. This often means the tool's interface
// changed, which is outside this system's control.
type TimeoutError struct {
	Operation string
	Wait      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("render timeout: %s not observed within %s", e.Operation, e.Wait)
}

// InteractionError reports that an expected UI element was not found or
// did not respond, signaling the remote tool's interface likely changed.
type InteractionError struct {
	Operation string
	Message   string
	Err       error
}

func (e *InteractionError) Error() string {
	msg := fmt.Sprintf("render interaction failed: %s: %s", e.Operation, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InteractionError) Unwrap() error { return e.Err }
