package dataforseo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AEOAuditor/internal/config"
)

func testConfig(endpoint string) config.DataForSEOConfig {
	return config.DataForSEOConfig{
		Endpoint:     endpoint,
		Login:        "login",
		Password:     "secret",
		Platform:     "google",
		LocationName: "United States",
		LanguageName: "English",
	}
}

func TestCheckMentionsParsesResult(t *testing.T) {
	t.Parallel()

	var got []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "login" || pass != "secret" {
			t.Errorf("missing basic auth")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{
			"status_code": 20000,
			"status_message": "Ok.",
			"tasks": [{
				"status_code": 20000,
				"result": [{
					"total_count": 12,
					"items": [
						{"question": "best crm", "ai_search_volume": 880},
						{"question": "crm for startups", "ai_search_volume": 90}
					]
				}]
			}]
		}`))
	}))
	defer srv.Close()

	report, err := NewMonitor(testConfig(srv.URL)).CheckMentions(context.Background(), " Globex ", "")
	if err != nil {
		t.Fatalf("CheckMentions returned error: %v", err)
	}
	if report.Brand != "Globex" || report.Platform != "google" {
		t.Fatalf("unexpected identity: %+v", report)
	}
	if report.TotalMentions != 12 || report.AISearchVolume != 880 || len(report.Items) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	if len(got) != 1 {
		t.Fatalf("expected one task in payload, got %d", len(got))
	}
	task := got[0]
	if task["platform"] != "google" || task["location_name"] != "United States" || task["language_name"] != "English" {
		t.Fatalf("unexpected task: %v", task)
	}
	targets := task["target"].([]any)
	first := targets[0].(map[string]any)
	if first["keyword"] != "Globex" || first["match_type"] != "partial_match" {
		t.Fatalf("unexpected target: %v", first)
	}
}

func TestCheckMentionsAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status_code": 40100, "status_message": "You are not authorized."}`))
	}))
	defer srv.Close()

	_, err := NewMonitor(testConfig(srv.URL)).CheckMentions(context.Background(), "Globex", "chat_gpt")
	if err == nil || !strings.Contains(err.Error(), "not authorized") {
		t.Fatalf("expected status message in error, got %v", err)
	}
}

func TestCheckMentionsEmptyResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status_code": 20000, "tasks": [{"status_code": 20000, "result": null}]}`))
	}))
	defer srv.Close()

	report, err := NewMonitor(testConfig(srv.URL)).CheckMentions(context.Background(), "Globex", "chat_gpt")
	if err != nil {
		t.Fatalf("CheckMentions returned error: %v", err)
	}
	if report.Platform != "chat_gpt" || report.TotalMentions != 0 || report.Items == nil {
		t.Fatalf("unexpected empty report: %+v", report)
	}
}

func TestCheckMentionsValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewMonitor(testConfig("http://unused")).CheckMentions(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for blank brand")
	}
	if _, err := NewMonitor(config.DataForSEOConfig{}).CheckMentions(context.Background(), "Globex", ""); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
