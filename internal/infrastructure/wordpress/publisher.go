// Package wordpress publishes recommended schema onto WordPress posts via
// the REST API.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"AEOAuditor/internal/config"
	"AEOAuditor/internal/ports"
)

// Publisher appends a JSON-LD script block to a post's raw content.
type Publisher struct {
	baseURL     string
	username    string
	appPassword string
	client      *http.Client
}

var _ ports.SchemaPublisher = (*Publisher)(nil)

// NewPublisher targets {SiteURL}/wp-json/wp/v2.
func NewPublisher(cfg config.WordPressConfig) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Publisher{
		baseURL:     strings.TrimRight(cfg.SiteURL, "/") + "/wp-json/wp/v2",
		username:    cfg.Username,
		appPassword: cfg.AppPassword,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Configured reports whether site and credentials are set.
func (p *Publisher) Configured() bool {
	return p != nil && p.baseURL != "/wp-json/wp/v2" && p.username != "" && p.appPassword != ""
}

type post struct {
	Content struct {
		Raw string `json:"raw"`
	} `json:"content"`
}

// PublishSchema reads the post in edit context and writes it back with the
// schema script appended.
func (p *Publisher) PublishSchema(ctx context.Context, postID int, schema map[string]any) error {
	if !p.Configured() {
		return fmt.Errorf("wordpress publisher misconfigured")
	}
	if postID <= 0 {
		return fmt.Errorf("invalid post id %d", postID)
	}
	if len(schema) == 0 {
		return fmt.Errorf("empty schema")
	}

	script, err := ScriptBlock(schema)
	if err != nil {
		return err
	}

	var current post
	if err := p.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d?context=edit", postID), nil, &current); err != nil {
		return fmt.Errorf("load post %d: %w", postID, err)
	}

	update := map[string]string{"content": current.Content.Raw + script}
	if err := p.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d", postID), update, nil); err != nil {
		return fmt.Errorf("update post %d: %w", postID, err)
	}
	return nil
}

// ScriptBlock renders schema as an indented ld+json script element.
func ScriptBlock(schema map[string]any) (string, error) {
	body, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return "\n<script type=\"application/ld+json\">\n" + string(body) + "\n</script>", nil
}

func (p *Publisher) do(ctx context.Context, method, path string, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(p.username, p.appPassword)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("wordpress returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
