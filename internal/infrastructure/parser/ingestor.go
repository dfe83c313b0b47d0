package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

const (
	noTitle      = "No Title Found"
	maxBodyBytes = 8 << 20

	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
)

// Elements that never carry article prose.
const boilerplateSelector = "script, style, noscript, iframe, svg, template, nav, header, footer, aside, form, " +
	"[role=navigation], [role=banner], [role=contentinfo], .cookie-banner, .advertisement, .sidebar, .menu"

// Blocks kept as readable text; tables are flattened row by row.
const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, dd, dt, figcaption, table"

// Ingestor fetches one page and extracts its readable text.
type Ingestor struct {
	client     *http.Client
	cfg        config.IngestConfig
	limiter    *rate.Limiter
	sleep      func(context.Context, time.Duration) error
	userAgents []string
	referers   []string
}

var _ ports.ContentFetcher = (*Ingestor)(nil)

// NewIngestor wires an HTTP client; nil builds a traced client with cfg.Timeout.
func NewIngestor(cfg config.IngestConfig, client *http.Client) *Ingestor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 100
	}
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	ing := &Ingestor{
		client:     client,
		cfg:        cfg,
		sleep:      sleepContext,
		userAgents: cfg.UserAgents,
		referers:   cfg.Referers,
	}
	if len(ing.userAgents) == 0 {
		ing.userAgents = config.Default().Ingest.UserAgents
	}
	if cfg.RequestsPerSecond > 0 {
		ing.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return ing
}

// Fetch performs a single GET. Every failure is a *domain.FetchError.
func (i *Ingestor) Fetch(ctx context.Context, rawURL string) (domain.FetchResult, error) {
	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return domain.FetchResult{}, &domain.FetchError{
			Kind:    domain.FetchConnectionFailed,
			Message: fmt.Sprintf("invalid absolute url %q", rawURL),
			Err:     err,
		}
	}

	if err := i.politeDelay(ctx); err != nil {
		return domain.FetchResult{}, &domain.FetchError{Kind: domain.FetchConnectionFailed, Message: "fetch cancelled", Err: err}
	}

	body, err := i.fetchMarkup(ctx, target.String())
	if err != nil {
		return domain.FetchResult{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.FetchResult{}, &domain.FetchError{Kind: domain.FetchExtractionTooThin, Message: "unparseable markup", Err: err}
	}

	title := extractTitle(doc)
	text := extractText(doc)
	if utf8.RuneCountInString(text) < i.cfg.MinTextLength {
		return domain.FetchResult{}, &domain.FetchError{
			Kind:    domain.FetchExtractionTooThin,
			Message: fmt.Sprintf("only %d characters of readable text", utf8.RuneCountInString(text)),
		}
	}

	return domain.FetchResult{
		Title:     title,
		CleanText: text,
		RawMarkup: string(body),
		SourceURL: target.String(),
	}, nil
}

func (i *Ingestor) fetchMarkup(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchConnectionFailed, Message: "build request", Err: err}
	}
	i.browserHeaders(req)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchConnectionFailed, Message: "request page", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, &domain.FetchError{Kind: domain.FetchAccessForbidden, Message: fmt.Sprintf("%s blocked the request (%s)", req.URL.Host, resp.Status)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &domain.FetchError{Kind: domain.FetchHTTPError, Message: fmt.Sprintf("server returned %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchConnectionFailed, Message: "read body", Err: err}
	}
	return body, nil
}

func (i *Ingestor) browserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", pick(i.userAgents))
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	if ref := pick(i.referers); ref != "" {
		req.Header.Set("Referer", ref)
	}
}

func (i *Ingestor) politeDelay(ctx context.Context) error {
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if i.cfg.JitterMax <= 0 || i.cfg.JitterMax < i.cfg.JitterMin {
		return nil
	}
	delay := i.cfg.JitterMin
	if span := i.cfg.JitterMax - i.cfg.JitterMin; span > 0 {
		delay += rand.N(span)
	}
	return i.sleep(ctx, delay)
}

func extractTitle(doc *goquery.Document) string {
	candidates := []string{
		attr(doc.Find(`meta[property="og:title"]`).First(), "content"),
		attr(doc.Find(`meta[name="twitter:title"]`).First(), "content"),
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	}
	for _, c := range candidates {
		if c = collapse(c); c != "" {
			return c
		}
	}
	return noTitle
}

func extractText(doc *goquery.Document) string {
	doc.Find(boilerplateSelector).Remove()

	var blocks []string
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		// Nested blocks are rendered by their outermost ancestor.
		if sel.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		var text string
		if goquery.NodeName(sel) == "table" {
			text = flattenTable(sel)
		} else {
			text = collapse(sel.Text())
		}
		if text != "" {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return collapse(doc.Find("body").Text())
	}
	return strings.Join(blocks, "\n")
}

func flattenTable(table *goquery.Selection) string {
	var rows []string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			if v := collapse(cell.Text()); v != "" {
				cells = append(cells, v)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	})
	return strings.Join(rows, "\n")
}

// NormalizeURL prefixes https:// onto bare hosts and rejects anything that is
// not an absolute http(s) URL afterwards.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return parsed.String(), nil
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return v
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func pick(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[rand.IntN(len(values))]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
