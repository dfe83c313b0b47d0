package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"AEOAuditor/internal/ports"
)

// Client talks to an external entity-recognition service. The service
// receives {"text": ...} on POST {endpoint}/entities and answers with
// {"entities": [...]}, each element in whatever shape its model emits.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.EntityRecognizer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Recognize returns the raw entity elements; the sanitizer interprets them.
func (c *Client) Recognize(ctx context.Context, text string) ([]any, error) {
	var resp struct {
		Entities []json.RawMessage `json:"entities"`
	}
	if err := c.post(ctx, "/entities", map[string]any{"text": text}, &resp); err != nil {
		return nil, err
	}

	out := make([]any, 0, len(resp.Entities))
	for _, raw := range resp.Entities {
		out = append(out, raw)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}

// FallbackRecognizer prefers the primary recognizer and switches to the
// secondary one when the primary errors.
type FallbackRecognizer struct {
	primary   ports.EntityRecognizer
	secondary ports.EntityRecognizer
	logger    *slog.Logger
}

var _ ports.EntityRecognizer = (*FallbackRecognizer)(nil)

// NewFallbackRecognizer chains two recognizers.
func NewFallbackRecognizer(primary, secondary ports.EntityRecognizer, logger *slog.Logger) *FallbackRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackRecognizer{primary: primary, secondary: secondary, logger: logger.With("component", "ner")}
}

// Recognize implements ports.EntityRecognizer.
func (f *FallbackRecognizer) Recognize(ctx context.Context, text string) ([]any, error) {
	out, err := f.primary.Recognize(ctx, text)
	if err == nil {
		return out, nil
	}
	f.logger.Warn("remote entity recognition failed, using local recognizer", "err", err)
	return f.secondary.Recognize(ctx, text)
}
