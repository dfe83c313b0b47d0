// Package dataforseo queries the DataForSEO LLM-mentions API for live
// brand visibility in AI answer engines.
package dataforseo

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
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

// statusOK is the API-level success code; HTTP 200 alone does not mean the task ran.
const statusOK = 20000

// Monitor implements ports.MentionMonitor against the live endpoint.
type Monitor struct {
	cfg    config.DataForSEOConfig
	client *http.Client
}

var _ ports.MentionMonitor = (*Monitor)(nil)

func NewMonitor(cfg config.DataForSEOConfig) *Monitor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Monitor{
		cfg: cfg,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Configured reports whether an endpoint and credentials are set.
func (m *Monitor) Configured() bool {
	return m != nil && m.cfg.Endpoint != "" && m.cfg.Login != "" && m.cfg.Password != ""
}

type target struct {
	Keyword     string   `json:"keyword"`
	MatchType   string   `json:"match_type"`
	SearchScope []string `json:"search_scope"`
}

type task struct {
	Target       []target `json:"target"`
	Platform     string   `json:"platform"`
	LocationName string   `json:"location_name"`
	LanguageName string   `json:"language_name"`
}

type response struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []struct {
			TotalCount int              `json:"total_count"`
			Items      []map[string]any `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// CheckMentions searches answers and sources for partial matches of brand.
// An empty platform falls back to the configured one.
func (m *Monitor) CheckMentions(ctx context.Context, brand, platform string) (domain.MentionReport, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return domain.MentionReport{}, fmt.Errorf("brand is required")
	}
	if !m.Configured() {
		return domain.MentionReport{}, fmt.Errorf("dataforseo monitor misconfigured")
	}
	if platform == "" {
		platform = m.cfg.Platform
	}

	payload := []task{{
		Target: []target{{
			Keyword:     brand,
			MatchType:   "partial_match",
			SearchScope: []string{"answer", "sources"},
		}},
		Platform:     platform,
		LocationName: m.cfg.LocationName,
		LanguageName: m.cfg.LanguageName,
	}}
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.MentionReport{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return domain.MentionReport{}, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(m.cfg.Login, m.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return domain.MentionReport{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.MentionReport{}, fmt.Errorf("dataforseo returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.MentionReport{}, fmt.Errorf("decode response: %w", err)
	}
	if out.StatusCode != statusOK {
		return domain.MentionReport{}, fmt.Errorf("dataforseo status %d: %s", out.StatusCode, out.StatusMessage)
	}
	if len(out.Tasks) == 0 {
		return domain.MentionReport{}, fmt.Errorf("dataforseo returned no tasks")
	}
	t := out.Tasks[0]
	if t.StatusCode != 0 && t.StatusCode != statusOK {
		return domain.MentionReport{}, fmt.Errorf("dataforseo task status %d: %s", t.StatusCode, t.StatusMessage)
	}

	report := domain.MentionReport{Brand: brand, Platform: platform, Items: []map[string]any{}}
	if len(t.Result) == 0 {
		return report, nil
	}
	result := t.Result[0]
	report.TotalMentions = result.TotalCount
	if result.Items != nil {
		report.Items = result.Items
	}
	if len(result.Items) > 0 {
		report.AISearchVolume = intField(result.Items[0], "ai_search_volume")
	}
	return report, nil
}

func intField(item map[string]any, key string) int {
	if v, ok := item[key].(float64); ok {
		return int(v)
	}
	return 0
}
