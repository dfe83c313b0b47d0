package entities

import (
	"encoding/json"
	"reflect"
	"testing"

	"AEOAuditor/internal/domain"
)

func TestSanitizeMixedShapes(t *testing.T) {
	t.Parallel()

	s := NewSanitizer(nil)
	raw := []any{
		"Acme Corp",
		[]any{"acme corp", float64(2)},
		[]any{"Nairobi", "GPE"},
		map[string]any{"name": "John Smith", "label": "PER", "count": 3},
		json.RawMessage(`{"text":"Café Nero","category":"ORGANIZATION"}`),
		"Cafe Nero",
		"pdf",
		"x",
		"   ",
		42,
		nil,
		[]any{17, "ORG"},
		map[string]any{"name": "Widget", "label": "ANIMAL"},
		map[string]any{"name": "Widget", "count": -1},
		json.RawMessage(`{broken`),
	}

	got := s.Sanitize(raw)
	want := []domain.EntityMention{
		{Name: "Acme Corp", Category: domain.CategoryOrganization, OccurrenceCount: 3},
		{Name: "Nairobi", Category: domain.CategoryLocation, OccurrenceCount: 1},
		{Name: "John Smith", Category: domain.CategoryPerson, OccurrenceCount: 3},
		{Name: "Café Nero", Category: domain.CategoryOrganization, OccurrenceCount: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected sanitize output:\n got  %+v\n want %+v", got, want)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewSanitizer(nil)
	first := s.Sanitize([]any{"OpenAI", "openai", "DOI", "Kenya", []string{"Data Act", "LAW"}})
	second := s.SanitizeMentions(first)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("sanitize is not idempotent:\n first  %+v\n second %+v", first, second)
	}
}

func TestSanitizeRejectsStopList(t *testing.T) {
	t.Parallel()

	s := NewSanitizer(nil)
	for _, name := range []string{"PDF", "url", "Doi", "isbn", "Http", "HTTPS", "Wikipedia"} {
		if out := s.Sanitize([]any{name}); len(out) != 0 {
			t.Fatalf("expected %q to be filtered, got %+v", name, out)
		}
	}
}

func TestSanitizeNoDuplicateKeys(t *testing.T) {
	t.Parallel()

	s := NewSanitizer(nil)
	out := s.Sanitize([]any{"München", "MÜNCHEN", "munchen", "Muenchen", "GitHub", "github", "GITHUB"})
	seen := map[string]bool{}
	for _, m := range out {
		k := Key(m.Name)
		if seen[k] {
			t.Fatalf("duplicate key %q in %+v", k, out)
		}
		seen[k] = true
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 unique entities, got %+v", out)
	}
	if out[0].Name != "München" || out[0].OccurrenceCount != 3 {
		t.Fatalf("expected first spelling to win with summed count, got %+v", out[0])
	}
}

func TestParseMentionDefaults(t *testing.T) {
	t.Parallel()

	m, ok := ParseMention("  Silicon   Valley ")
	if !ok {
		t.Fatalf("expected bare string to parse")
	}
	if m.Name != "Silicon Valley" || m.Category != domain.CategoryOrganization || m.OccurrenceCount != 1 {
		t.Fatalf("unexpected mention: %+v", m)
	}

	if _, ok := ParseMention([]any{"Acme", 2.5}); ok {
		t.Fatalf("fractional counts should be rejected")
	}
	if _, ok := ParseMention([]any{"Acme", "ORG", "PER"}); ok {
		t.Fatalf("two labels should be rejected")
	}
}
