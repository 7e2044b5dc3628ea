package song

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator produces song audio from a mood description.
type Generator interface {
	Generate(ctx context.Context, activity, adjective1, adjective2 string) ([]byte, error)
}

// HTTPGenerator calls the remote AI song service.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

// NewHTTPGenerator constructs a generator for the given endpoint.
func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// maxSongBytes caps how much audio a single response may carry.
const maxSongBytes = 64 << 20

// Generate posts the mood description and returns the audio bytes.
func (g *HTTPGenerator) Generate(ctx context.Context, activity, adjective1, adjective2 string) ([]byte, error) {
	payload := map[string]any{
		"activity":   activity,
		"adjectives": []string{adjective1, adjective2},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call song service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("song service returned status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxSongBytes))
	if err != nil {
		return nil, fmt.Errorf("read song payload: %w", err)
	}
	return audio, nil
}
