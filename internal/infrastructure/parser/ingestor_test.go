package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
)

const articlePage = `<!doctype html>
<html><head>
<title>Plain title</title>
<meta property="og:title" content="  AEO   explained ">
<script>var tracking = "should never appear";</script>
</head>
<body>
<header><h1>Site header</h1></header>
<nav><ul><li>Home</li><li>Pricing</li></ul></nav>
<article>
  <h1>What is answer engine optimization?</h1>
  <p>Answer engine optimization is the practice of shaping content so AI assistants can quote it directly.</p>
  <ul><li><p>Short declarative sentences help.</p></li></ul>
  <table>
    <tr><th>Engine</th><th>Share</th></tr>
    <tr><td>Alpha</td><td>42%</td></tr>
  </table>
</article>
<aside>Subscribe to our newsletter</aside>
<footer>Copyright</footer>
</body></html>`

func newTestIngestor(client *http.Client) *Ingestor {
	return NewIngestor(config.IngestConfig{Timeout: 5 * time.Second, UserAgents: []string{"TestAgent/1.0"}}, client)
}

func TestFetchExtractsReadableText(t *testing.T) {
	t.Parallel()

	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	result, err := newTestIngestor(srv.Client()).Fetch(context.Background(), srv.URL+"/post")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if result.Title != "AEO explained" {
		t.Fatalf("expected og:title, got %q", result.Title)
	}
	if result.SourceURL != srv.URL+"/post" {
		t.Fatalf("unexpected source url %q", result.SourceURL)
	}
	for _, banned := range []string{"tracking", "Site header", "Pricing", "newsletter", "Copyright"} {
		if strings.Contains(result.CleanText, banned) {
			t.Fatalf("boilerplate %q leaked into text:\n%s", banned, result.CleanText)
		}
	}
	for _, want := range []string{"Answer engine optimization is the practice", "Engine | Share", "Alpha | 42%"} {
		if !strings.Contains(result.CleanText, want) {
			t.Fatalf("expected %q in text:\n%s", want, result.CleanText)
		}
	}
	if strings.Count(result.CleanText, "Short declarative sentences help.") != 1 {
		t.Fatalf("nested blocks should be rendered once:\n%s", result.CleanText)
	}
	if !strings.Contains(result.RawMarkup, `<aside>`) {
		t.Fatalf("raw markup must be preserved")
	}

	if gotHeaders.Get("User-Agent") != "TestAgent/1.0" {
		t.Fatalf("unexpected user agent %q", gotHeaders.Get("User-Agent"))
	}
	if gotHeaders.Get("Accept-Language") == "" || gotHeaders.Get("DNT") != "1" {
		t.Fatalf("expected browser headers, got %v", gotHeaders)
	}
}

func TestFetchClassifiesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    domain.FetchErrorKind
	}{
		{
			name:    "forbidden",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) },
			want:    domain.FetchAccessForbidden,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			want:    domain.FetchHTTPError,
		},
		{
			name: "thin page",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html><body><p>Too short.</p></body></html>`))
			},
			want: domain.FetchExtractionTooThin,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := newTestIngestor(srv.Client()).Fetch(context.Background(), srv.URL)
			var fetchErr *domain.FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %v", err)
			}
			if fetchErr.Kind != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, fetchErr.Kind)
			}
		})
	}
}

func TestFetchConnectionFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestIngestor(nil).Fetch(context.Background(), addr)
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != domain.FetchConnectionFailed {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}

	_, err = newTestIngestor(nil).Fetch(context.Background(), "example.com/no-scheme")
	if !errors.As(err, &fetchErr) || fetchErr.Kind != domain.FetchConnectionFailed {
		t.Fatalf("expected CONNECTION_FAILED for relative url, got %v", err)
	}
}

func TestPoliteDelayUsesJitterWindow(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(config.IngestConfig{JitterMin: 500 * time.Millisecond, JitterMax: 2 * time.Second}, nil)
	var slept []time.Duration
	ing.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	for range 20 {
		if err := ing.politeDelay(context.Background()); err != nil {
			t.Fatalf("politeDelay returned error: %v", err)
		}
	}
	for _, d := range slept {
		if d < 500*time.Millisecond || d >= 2*time.Second {
			t.Fatalf("delay %s outside jitter window", d)
		}
	}
	if len(slept) != 20 {
		t.Fatalf("expected 20 delays, got %d", len(slept))
	}
}

func TestExtractTitleFallbacks(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`<meta name="twitter:title" content="Tweet title"><title>Doc</title>`: "Tweet title",
		`<title> Doc  title </title><h1>Heading</h1>`:                         "Doc title",
		`<body><h1>Only heading</h1></body>`:                                  "Only heading",
		`<body><p>nothing</p></body>`:                                         noTitle,
	}
	for markup, want := range cases {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			t.Fatalf("new document: %v", err)
		}
		if got := extractTitle(doc); got != want {
			t.Fatalf("extractTitle(%q) = %q, want %q", markup, got, want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"example.com":                 "https://example.com",
		"  http://example.com/a?b=1 ": "http://example.com/a?b=1",
		"https://example.com/path":    "https://example.com/path",
	}
	for in, want := range cases {
		got, err := NormalizeURL(in)
		if err != nil {
			t.Fatalf("NormalizeURL(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}

	for _, bad := range []string{"", "ftp://example.com", "https://"} {
		if _, err := NormalizeURL(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
