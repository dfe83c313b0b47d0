package nlp

import (
	"context"
	"testing"

	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/lexicon"
)

func TestSegmentSkipsEmptySentences(t *testing.T) {
	t.Parallel()

	sents := Segment("First sentence here. Second one follows!  ...  ")
	if len(sents) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %+v", len(sents), sents)
	}
	if got := sents[0].WordCount(); got != 3 {
		t.Fatalf("expected 3 words in first sentence, got %d", got)
	}
	if words := sents[1].Words(); words[0] != "Second" {
		t.Fatalf("unexpected words: %v", words)
	}
}

func TestTokenizeKeepsNumbersWhole(t *testing.T) {
	t.Parallel()

	var numeric []string
	for _, tok := range Tokenize("Revenue grew 3.5 percent to 1,200 units.") {
		if tok.Kind == KindWord && IsNumeric(tok.Text) {
			numeric = append(numeric, tok.Text)
		}
	}
	if len(numeric) != 2 || numeric[0] != "3.5" || numeric[1] != "1,200" {
		t.Fatalf("unexpected numeric tokens: %v", numeric)
	}
}

func TestRecognizerCategories(t *testing.T) {
	t.Parallel()

	rec := NewRecognizer(lexicon.Default())
	text := "Analysts at Acme Corp met officials in Nairobi. " +
		"They discussed the Data Protection Act with John Smith. " +
		"Later the team toured Jomo Kenyatta Airport and tried the new iPhone."

	got := map[string]domain.EntityCategory{}
	for _, m := range rec.Extract(Segment(text)) {
		got[m.Name] = m.Category
	}

	want := map[string]domain.EntityCategory{
		"Acme Corp":             domain.CategoryOrganization,
		"Nairobi":               domain.CategoryLocation,
		"Data Protection Act":   domain.CategoryLaw,
		"John Smith":            domain.CategoryPerson,
		"Jomo Kenyatta Airport": domain.CategoryFacility,
		"iPhone":                domain.CategoryProduct,
	}
	for name, category := range want {
		if got[name] != category {
			t.Fatalf("entity %q: expected %s, got %q (all: %v)", name, category, got[name], got)
		}
	}
	if _, ok := got["Later"]; ok {
		t.Fatalf("sentence-initial word should not be an entity")
	}
}

func TestRecognizerCountsAndRanks(t *testing.T) {
	t.Parallel()

	rec := NewRecognizer(nil)
	text := "we asked Globex about pricing. then Initech replied. " +
		"later Globex answered again, and Globex's team followed up."

	mentions := rec.Extract(Segment(text))
	if len(mentions) != 2 {
		t.Fatalf("expected 2 entities, got %+v", mentions)
	}
	if mentions[0].Name != "Globex" || mentions[0].OccurrenceCount != 3 {
		t.Fatalf("expected Globex x3 first, got %+v", mentions[0])
	}
	if mentions[1].Name != "Initech" || mentions[1].OccurrenceCount != 1 {
		t.Fatalf("unexpected second entity: %+v", mentions[1])
	}
}

func TestRecognizeHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRecognizer(nil).Recognize(ctx, "Acme Corp"); err == nil {
		t.Fatalf("expected context error")
	}

	out, err := NewRecognizer(nil).Recognize(context.Background(), "we like Acme Corp a lot.")
	if err != nil {
		t.Fatalf("Recognize returned error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one raw entity, got %d", len(out))
	}
	if _, ok := out[0].(domain.EntityMention); !ok {
		t.Fatalf("expected EntityMention payload, got %T", out[0])
	}
}
