// Package citation checks whether an answer-engine response mentions a brand
// and links to its domain.
package citation

import (
	"net/url"
	"regexp"
	"strings"

	"AEOAuditor/internal/domain"
)

var linkPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// Monitor matches one brand name and one web domain.
type Monitor struct {
	Brand  string
	Domain string
}

// Check classifies answer. Brand matching is case-insensitive on word
// boundaries; a link counts when its host is Domain or a subdomain of it.
func (m Monitor) Check(answer string, links []string) domain.CitationResult {
	mentioned := m.mentions(answer)
	sourced := false
	for _, link := range links {
		if m.linksToDomain(link) {
			sourced = true
			break
		}
	}

	status := domain.CitationNotFound
	switch {
	case mentioned && sourced:
		status = domain.CitationFull
	case mentioned:
		status = domain.CitationMentionOnly
	case sourced:
		status = domain.CitationSourceOnly
	}

	return domain.CitationResult{
		Status: status,
		Cited:  sourced,
		Links:  links,
		Answer: answer,
	}
}

// ExtractLinks returns every http(s) URL in text, trailing punctuation trimmed.
func ExtractLinks(text string) []string {
	matches := linkPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!?")
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (m Monitor) mentions(answer string) bool {
	brand := strings.TrimSpace(m.Brand)
	if brand == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(brand) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(answer)
}

func (m Monitor) linksToDomain(link string) bool {
	want := normalizeHost(m.Domain)
	if want == "" {
		return false
	}
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	host := normalizeHost(parsed.Hostname())
	return host == want || strings.HasSuffix(host, "."+want)
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "https://")
	h = strings.TrimPrefix(h, "http://")
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	return strings.TrimPrefix(h, "www.")
}
