package artwork

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const pollinationsBase = "https://image.pollinations.ai/prompt/"

// Pollinations is the free, keyless provider. It answers a single GET
// with the finished image bytes.
type Pollinations struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewPollinations creates the provider with its default endpoint and a
// generous timeout; image synthesis routinely takes tens of seconds.
func NewPollinations() *Pollinations {
	return &Pollinations{
		BaseURL: pollinationsBase,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *Pollinations) Name() string { return "pollinations" }

// Generate fetches an image for the prompt.
func (p *Pollinations) Generate(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	endpoint := p.BaseURL + url.PathEscape(prompt)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("width", fmt.Sprintf("%d", width))
	q.Set("height", fmt.Sprintf("%d", height))
	q.Set("nologo", "true")
	req.URL.RawQuery = q.Encode()

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, networkError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, statusError(p.Name(), resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(p.Name(), err)
	}
	if len(data) == 0 {
		return nil, &GenerationError{Provider: p.Name(), Message: "empty image response"}
	}
	return data, nil
}
