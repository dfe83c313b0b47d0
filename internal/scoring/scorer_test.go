package scoring

import (
	"context"
	"strings"
	"testing"

	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/lexicon"
	"AEOAuditor/internal/logging"
)

type panickingRecognizer struct{}

func (panickingRecognizer) Recognize(context.Context, string) ([]any, error) {
	panic("model exploded")
}

type fixedRecognizer struct {
	out []any
}

func (f fixedRecognizer) Recognize(context.Context, string) ([]any, error) {
	return f.out, nil
}

func newTestScorer(t *testing.T, cfg config.ScoringConfig) *Scorer {
	t.Helper()
	return New(lexicon.Default(), nil, cfg, logging.Discard())
}

func TestAnalyzeInsufficientContent(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t, config.ScoringConfig{})
	for _, text := range []string{"", "   ", "Too short to judge.", strings.Repeat("a", 79)} {
		got := scorer.Analyze(context.Background(), text)
		if got.Status != domain.AnalysisInsufficient {
			t.Fatalf("expected INSUFFICIENT_CONTENT for %q, got %s", text, got.Status)
		}
		if got.Score() != 0 || got.Breakdown != (domain.ScoreBreakdown{}) || len(got.Entities) != 0 {
			t.Fatalf("expected zero result for %q, got %+v", text, got)
		}
	}
}

func TestIntentMatchTiers(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t, config.ScoringConfig{})
	cases := map[string]int{
		"AEO is the practice of optimizing content for AI answer engines.":   intentStrong,
		"What is answer engine optimization? A short guide.":                 intentStrong,
		"Our services include audits, rewrites and monitoring for brands.":   intentSoft,
		"Welcome to our blog. Scroll down for today's updates and news.":     intentNone,
		strings.Repeat("filler words here ", 20) + " this sentence is late.": intentNone,
	}
	for text, want := range cases {
		if got := scorer.IntentMatch(text); got != want {
			t.Fatalf("IntentMatch(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestReadabilityTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		avg       float64
		sentences int
		want      int
	}{
		{0, 0, 0},
		{14, 3, readabilityTop},
		{22, 3, readabilityTop},
		{18.5, 1, readabilityTop},
		{10, 2, readabilityMiddle},
		{13.9, 2, readabilityMiddle},
		{22.5, 2, readabilityMiddle},
		{28, 2, readabilityMiddle},
		{9.9, 2, readabilityLow},
		{28.1, 2, readabilityLow},
	}
	for _, tc := range cases {
		if got := Readability(tc.avg, tc.sentences); got != tc.want {
			t.Fatalf("Readability(%v, %d) = %d, want %d", tc.avg, tc.sentences, got, tc.want)
		}
	}
}

func TestAuthorityIsCapped(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t, config.ScoringConfig{})
	text := "According to research data from a certified expert, the official trusted authority ran a study."
	got := scorer.Authority(text, true, []domain.EntityMention{{Name: "Acme", Category: domain.CategoryOrganization, OccurrenceCount: 1}})
	if got != authorityCap {
		t.Fatalf("expected capped authority %d, got %d", authorityCap, got)
	}

	if got := scorer.Authority("nothing to see here", false, nil); got != 0 {
		t.Fatalf("expected zero authority, got %d", got)
	}
	if got := scorer.Authority("our research shows", true, nil); got != markerPoints+numericPoints {
		t.Fatalf("unexpected authority for marker+number: %d", got)
	}
	if got := scorer.Authority("Our researchers used public datasets reviewed by experts.", false, nil); got != 3*markerPoints {
		t.Fatalf("inflected markers should count, got %d", got)
	}
}

func TestReadabilityCountsPunctuation(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t, config.ScoringConfig{})
	text := strings.Repeat("The tool checks every page and writes a short report for each team. ", 6)

	got := scorer.Analyze(context.Background(), text)
	if got.Status != domain.AnalysisSuccess {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.AvgSentenceLength != 14 {
		t.Fatalf("13 words plus a period should average 14 tokens, got %v", got.AvgSentenceLength)
	}
	if got.Breakdown.Readability != readabilityTop {
		t.Fatalf("expected top readability tier, got %d", got.Breakdown.Readability)
	}
}

func TestAnalyzeRecoversFromPanics(t *testing.T) {
	t.Parallel()

	scorer := New(nil, panickingRecognizer{}, config.ScoringConfig{}, logging.Discard())
	got := scorer.Analyze(context.Background(), strings.Repeat("This is a perfectly normal sentence for testing. ", 5))
	if got.Status != domain.AnalysisFailed {
		t.Fatalf("expected ANALYSIS_FAILURE, got %s", got.Status)
	}
	if got.Score() != 0 || got.Err == "" {
		t.Fatalf("expected zero score with error message, got %+v", got)
	}
}

func TestAnalyzeRanksAndFiltersEntities(t *testing.T) {
	t.Parallel()

	raw := []any{
		"Globex",
		[]any{"Initech", "ORG"},
		"Globex",
		"AB",
		"2024",
		[]any{"Mars", "ANIMAL"},
		map[string]any{"name": "Jane Doe", "label": "PERSON", "count": 2},
	}
	scorer := New(nil, fixedRecognizer{out: raw}, config.ScoringConfig{TopEntities: 2}, logging.Discard())
	got := scorer.Analyze(context.Background(), strings.Repeat("This sentence exists only to pass the minimum length. ", 3))

	if got.Status != domain.AnalysisSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", got.Status, got.Err)
	}
	if len(got.Entities) != 2 {
		t.Fatalf("expected top 2 entities, got %+v", got.Entities)
	}
	if got.Entities[0].Name != "Globex" || got.Entities[0].OccurrenceCount != 2 {
		t.Fatalf("unexpected first entity: %+v", got.Entities[0])
	}
	if got.Entities[1].Name != "Jane Doe" {
		t.Fatalf("unexpected second entity: %+v", got.Entities[1])
	}
	// Globex, Initech, Jane Doe survive the filters.
	if got.Breakdown.EntityDensity != 3*entityPoints {
		t.Fatalf("unexpected entity density: %d", got.Breakdown.EntityDensity)
	}
}

func TestAnalyzeScoreWithinBounds(t *testing.T) {
	t.Parallel()

	text := "AEO is the practice of optimizing content so that answer engines from Google and OpenAI can quote it directly. " +
		"According to research published by Stanford University in 2024, pages with clear definitions were cited 40 percent more often. " +
		"Experts at Acme Corp in Nairobi recommend short declarative sentences with concrete data and named sources. " +
		"A certified editor should review each page for official facts before it goes live on the site."

	for _, enhanced := range []bool{false, true} {
		scorer := newTestScorer(t, config.ScoringConfig{Enhanced: enhanced})
		got := scorer.Analyze(context.Background(), text)
		if got.Status != domain.AnalysisSuccess {
			t.Fatalf("expected SUCCESS, got %s (%s)", got.Status, got.Err)
		}
		score := got.Score()
		if score <= 0 || score > domain.MaxScore {
			t.Fatalf("score out of range: %d", score)
		}
		b := got.Breakdown
		sum := b.Readability + b.IntentMatch + b.Authority + b.EntityDensity + b.Rhythm + b.EntityRatio
		if score != min(sum, domain.MaxScore) {
			t.Fatalf("score %d != min(sum %d, 100)", score, sum)
		}
		if b.IntentMatch != intentStrong {
			t.Fatalf("expected strong intent, got %d", b.IntentMatch)
		}
		if !enhanced && (b.Rhythm != 0 || b.EntityRatio != 0) {
			t.Fatalf("enhanced sub-scores must stay zero: %+v", b)
		}
		if enhanced && b.Rhythm == 0 {
			t.Fatalf("expected rhythm bonus for varied sentences: %+v", b)
		}
	}
}

func TestEnhancedHelpers(t *testing.T) {
	t.Parallel()

	if got := Rhythm([]int{10, 10, 10}); got != 0 {
		t.Fatalf("uniform rhythm should score 0, got %d", got)
	}
	if got := Rhythm([]int{5, 20}); got != rhythmTop {
		t.Fatalf("stddev 7.5 should score top, got %d", got)
	}
	if got := Rhythm([]int{10, 12}); got != rhythmLow {
		t.Fatalf("stddev 1 should score low, got %d", got)
	}

	ents := []domain.EntityMention{{Name: "Acme", OccurrenceCount: 5}}
	if got := EntityRatio(ents, 100); got != ratioTop {
		t.Fatalf("ratio 0.05 should score top, got %d", got)
	}
	if got := EntityRatio(ents, 10); got != ratioLow {
		t.Fatalf("ratio 0.5 should score low, got %d", got)
	}
	if got := EntityRatio(nil, 0); got != 0 {
		t.Fatalf("no tokens should score 0, got %d", got)
	}
}
