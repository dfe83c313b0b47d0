package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AEOAuditor/internal/config"
)

func TestPublishSchemaAppendsScript(t *testing.T) {
	t.Parallel()

	var (
		user, pass string
		updated    map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/wp-json/wp/v2/posts/7":
			if r.URL.Query().Get("context") != "edit" {
				t.Errorf("raw content needs edit context")
			}
			_, _ = w.Write([]byte(`{"id":7,"content":{"raw":"<p>Existing body</p>"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/wp-json/wp/v2/posts/7":
			_ = json.NewDecoder(r.Body).Decode(&updated)
			_, _ = w.Write([]byte(`{"id":7}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	pub := NewPublisher(config.WordPressConfig{SiteURL: srv.URL + "/", Username: "editor", AppPassword: "abcd efgh"})
	schema := map[string]any{"@context": "https://schema.org", "@type": "WebPage"}
	if err := pub.PublishSchema(context.Background(), 7, schema); err != nil {
		t.Fatalf("PublishSchema returned error: %v", err)
	}

	if user != "editor" || pass != "abcd efgh" {
		t.Fatalf("basic auth not sent: %q/%q", user, pass)
	}
	content := updated["content"]
	if !strings.HasPrefix(content, "<p>Existing body</p>\n<script type=\"application/ld+json\">") {
		t.Fatalf("schema should be appended to the existing body: %q", content)
	}
	if !strings.Contains(content, `"@type": "WebPage"`) || !strings.HasSuffix(content, "</script>") {
		t.Fatalf("unexpected script block: %q", content)
	}
}

func TestPublishSchemaErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"rest_not_logged_in"}`))
	}))
	defer srv.Close()

	schema := map[string]any{"@type": "WebPage"}
	pub := NewPublisher(config.WordPressConfig{SiteURL: srv.URL, Username: "u", AppPassword: "p"})

	err := pub.PublishSchema(context.Background(), 3, schema)
	if err == nil || !strings.Contains(err.Error(), "rest_not_logged_in") {
		t.Fatalf("expected auth error with body, got %v", err)
	}
	if err := pub.PublishSchema(context.Background(), 0, schema); err == nil {
		t.Fatalf("expected error for invalid post id")
	}
	if err := pub.PublishSchema(context.Background(), 3, nil); err == nil {
		t.Fatalf("expected error for empty schema")
	}
	if err := NewPublisher(config.WordPressConfig{}).PublishSchema(context.Background(), 3, schema); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
