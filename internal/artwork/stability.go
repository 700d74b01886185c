package artwork

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	stabilityBase = "https://api.stability.ai"

	stabilityPollInterval = 2 * time.Second
	stabilityMaxWait      = 120 * time.Second
)

// Stability is the polling provider: a submission returns a job id,
// which is then polled at a fixed interval until the image is ready or
// the wait bound expires.
type Stability struct {
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxWait      time.Duration

	apiKey func() string
}

// NewStability creates the provider. The API key is read from
// STABILITY_API_KEY at call time so tests and late .env loading work.
func NewStability() *Stability {
	return &Stability{
		BaseURL:      stabilityBase,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		PollInterval: stabilityPollInterval,
		MaxWait:      stabilityMaxWait,
		apiKey:       func() string { return os.Getenv("STABILITY_API_KEY") },
	}
}

func (s *Stability) Name() string { return "stability" }

// Generate submits a generation job and polls it to completion.
func (s *Stability) Generate(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	key := s.apiKey()
	if key == "" {
		return nil, &GenerationError{Provider: s.Name(), Message: "STABILITY_API_KEY not set"}
	}

	jobID, err := s.submit(ctx, key, prompt, width, height)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(s.MaxWait)
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, &GenerationError{Provider: s.Name(), Message: "canceled while polling", Err: ctx.Err()}
		case <-ticker.C:
		}

		data, done, err := s.poll(ctx, key, jobID)
		if err != nil {
			return nil, err
		}
		if done {
			return data, nil
		}
		if time.Now().After(deadline) {
			return nil, timeoutError(s.Name(), s.MaxWait)
		}
	}
}

func (s *Stability) submit(ctx context.Context, key, prompt string, width, height int) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"prompt":        prompt,
		"width":         width,
		"height":        height,
		"output_format": "png",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/v2beta/stable-image/generate/core", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", networkError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", statusError(s.Name(), resp.StatusCode, string(body))
	}

	var submitResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", &GenerationError{Provider: s.Name(), Message: "failed to decode submit response", Err: err}
	}
	if submitResp.ID == "" {
		return "", &GenerationError{Provider: s.Name(), Message: "submit response carried no job id"}
	}
	return submitResp.ID, nil
}

// poll checks a job once. done is true only when image bytes are
// returned; a 202 means the job is still rendering.
func (s *Stability) poll(ctx context.Context, key, jobID string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.BaseURL+"/v2beta/results/"+jobID, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, false, networkError(s.Name(), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil, false, nil
	case http.StatusOK:
		var result struct {
			Image string `json:"image"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, false, &GenerationError{Provider: s.Name(), Message: "failed to decode poll response", Err: err}
		}
		data, err := base64.StdEncoding.DecodeString(result.Image)
		if err != nil {
			return nil, false, &GenerationError{Provider: s.Name(), Message: "poll response carried invalid image data", Err: err}
		}
		return data, true, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, false, statusError(s.Name(), resp.StatusCode, string(body))
	}
}
