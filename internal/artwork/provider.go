// Package artwork turns card records into prompts, calls an image
// generation provider, and writes per-card artwork files.
package artwork

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider is the capability an image generation backend must offer.
// Implementations either answer immediately or submit a job and poll
// internally until the image is ready or their wait bound expires.
type Provider interface {
	// Name identifies the provider in logs and reports.
	Name() string
	// Generate produces image bytes for the prompt at the requested
	// dimensions.
	Generate(ctx context.Context, prompt string, width, height int) ([]byte, error)
}

// GenerationError reports a failed or timed-out provider call.
type GenerationError struct {
	Provider string
	Status   int
	Message  string
	// Transient marks failures worth retrying: network errors and
	// provider 5xx responses. Rejected requests (4xx) are permanent.
	Transient bool
	Err       error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("artwork generation failed (%s)", e.Provider)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// statusError builds a GenerationError from an HTTP status, classifying
// 5xx and 429 as transient.
func statusError(provider string, status int, body string) *GenerationError {
	return &GenerationError{
		Provider:  provider,
		Status:    status,
		Message:   body,
		Transient: status >= 500 || status == http.StatusTooManyRequests,
	}
}

// networkError wraps a transport-level failure, always transient.
func networkError(provider string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Transient: true, Err: err}
}

// timeoutError reports that a polling provider exhausted its wait bound.
func timeoutError(provider string, waited time.Duration) *GenerationError {
	return &GenerationError{
		Provider: provider,
		Message:  fmt.Sprintf("timed out after %s waiting for image", waited),
	}
}

// New returns the provider registered under the given identifier.
func New(name string) (Provider, error) {
	switch name {
	case "", "pollinations":
		return NewPollinations(), nil
	case "stability":
		return NewStability(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}
