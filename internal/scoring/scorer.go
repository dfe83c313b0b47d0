// Package scoring computes the heuristic answer-engine visibility score of a
// page's clean text.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/entities"
	"AEOAuditor/internal/lexicon"
	"AEOAuditor/internal/nlp"
	"AEOAuditor/internal/ports"
)

// Sub-score tiers.
const (
	readabilityTop    = 30
	readabilityMiddle = 22
	readabilityLow    = 12

	intentStrong = 25
	intentSoft   = 15
	intentNone   = 5

	markerPoints  = 4
	numericPoints = 8
	orgPoints     = 6
	authorityCap  = 25

	entityPoints     = 4
	entityDensityCap = 20

	rhythmTop    = 5
	rhythmLow    = 2
	ratioTop     = 8
	ratioLow     = 4
	minEntityLen = 3
)

var allowedCategories = map[domain.EntityCategory]bool{
	domain.CategoryOrganization: true,
	domain.CategoryPerson:       true,
	domain.CategoryLocation:     true,
	domain.CategoryProduct:      true,
	domain.CategoryLaw:          true,
	domain.CategoryFacility:     true,
}

// Scorer is safe for concurrent use; the lexicon is read-only.
type Scorer struct {
	lex        *lexicon.Lexicon
	recognizer ports.EntityRecognizer
	cfg        config.ScoringConfig
	logger     *slog.Logger
}

var _ ports.Analyzer = (*Scorer)(nil)

// New builds a scorer. A nil recognizer selects the local lexicon recognizer.
func New(lex *lexicon.Lexicon, recognizer ports.EntityRecognizer, cfg config.ScoringConfig, logger *slog.Logger) *Scorer {
	if lex == nil {
		lex = lexicon.Default()
	}
	if recognizer == nil {
		recognizer = nlp.NewRecognizer(lex)
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 80
	}
	if cfg.TopEntities <= 0 {
		cfg.TopEntities = domain.EntityCloudLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{lex: lex, recognizer: recognizer, cfg: cfg, logger: logger.With("component", "scorer")}
}

// Analyze scores text. Short input yields INSUFFICIENT_CONTENT and a panic
// anywhere in the analysis yields ANALYSIS_FAILURE; both carry a zero score.
func (s *Scorer) Analyze(ctx context.Context, text string) (result domain.Analysis) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < s.cfg.MinTextLength {
		return domain.Analysis{Status: domain.AnalysisInsufficient}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis panicked", "panic", r)
			result = domain.Analysis{Status: domain.AnalysisFailed, Err: fmt.Sprint(r)}
		}
	}()

	sentences := nlp.Segment(trimmed)
	// Readability counts punctuation as tokens; rhythm and ratio count words.
	tokenLengths := make([]int, len(sentences))
	lengths := make([]int, len(sentences))
	wordTokens := 0
	hasNumber := false
	for i, sent := range sentences {
		tokenLengths[i] = len(sent.Tokens)
		lengths[i] = sent.WordCount()
		wordTokens += lengths[i]
		for _, w := range sent.Words() {
			if nlp.IsNumeric(w) {
				hasNumber = true
			}
		}
	}

	raw, err := s.recognizer.Recognize(ctx, trimmed)
	if err != nil {
		s.logger.Error("entity recognition failed", "err", err)
		return domain.Analysis{Status: domain.AnalysisFailed, Err: err.Error()}
	}
	ranked := rankEntities(raw)

	avg := mean(tokenLengths)
	breakdown := domain.ScoreBreakdown{
		Readability:   Readability(avg, len(sentences)),
		IntentMatch:   s.IntentMatch(trimmed),
		Authority:     s.Authority(trimmed, hasNumber, ranked),
		EntityDensity: EntityDensity(len(ranked)),
	}
	if s.cfg.Enhanced {
		breakdown.Rhythm = Rhythm(lengths)
		breakdown.EntityRatio = EntityRatio(ranked, wordTokens)
	}

	top := ranked
	if len(top) > s.cfg.TopEntities {
		top = top[:s.cfg.TopEntities]
	}

	return domain.Analysis{
		Status:            domain.AnalysisSuccess,
		Breakdown:         breakdown,
		Entities:          top,
		AvgSentenceLength: avg,
	}
}

// Readability rewards mean sentence lengths, in tokens, typical of
// extractable declarative prose.
func Readability(avgTokens float64, sentences int) int {
	if sentences == 0 {
		return 0
	}
	switch {
	case avgTokens >= 14 && avgTokens <= 22:
		return readabilityTop
	case avgTokens >= 10 && avgTokens < 14, avgTokens > 22 && avgTokens <= 28:
		return readabilityMiddle
	default:
		return readabilityLow
	}
}

// IntentMatch looks for a definitional opening in the lead of the text.
func (s *Scorer) IntentMatch(text string) int {
	lead := strings.ToLower(leadOf(text, s.lex.LeadChars))
	for _, re := range s.lex.StrongIntent {
		if re.MatchString(lead) {
			return intentStrong
		}
	}
	for _, re := range s.lex.SoftIntent {
		if re.MatchString(lead) {
			return intentSoft
		}
	}
	return intentNone
}

// Authority counts trust vocabulary, numbers and organization mentions.
func (s *Scorer) Authority(text string, hasNumber bool, ents []domain.EntityMention) int {
	lower := strings.ToLower(text)
	score := 0
	for _, re := range s.lex.AuthorityMarkers {
		if re.MatchString(lower) {
			score += markerPoints
		}
	}
	if hasNumber {
		score += numericPoints
	}
	for _, e := range ents {
		if e.Category == domain.CategoryOrganization {
			score += orgPoints
			break
		}
	}
	return min(score, authorityCap)
}

// EntityDensity scores unique entity count.
func EntityDensity(unique int) int {
	return min(unique*entityPoints, entityDensityCap)
}

// Rhythm rewards varied sentence lengths.
func Rhythm(lengths []int) int {
	sd := stddev(lengths)
	switch {
	case sd >= 3 && sd <= 10:
		return rhythmTop
	case sd > 0:
		return rhythmLow
	default:
		return 0
	}
}

// EntityRatio rewards a moderate share of entity mentions among word tokens.
func EntityRatio(ents []domain.EntityMention, wordTokens int) int {
	if wordTokens == 0 {
		return 0
	}
	mentions := 0
	for _, e := range ents {
		mentions += e.OccurrenceCount
	}
	ratio := float64(mentions) / float64(wordTokens)
	switch {
	case ratio >= 0.02 && ratio <= 0.10:
		return ratioTop
	case ratio > 0:
		return ratioLow
	default:
		return 0
	}
}

// rankEntities merges the recognizer output by exact name, drops disallowed
// or noisy names and orders by frequency, then first appearance.
func rankEntities(raw []any) []domain.EntityMention {
	var out []domain.EntityMention
	index := map[string]int{}

	for _, item := range raw {
		m, ok := entities.ParseMention(item)
		if !ok || !allowedCategories[m.Category] {
			continue
		}
		if utf8.RuneCountInString(m.Name) < minEntityLen || nlp.IsNumeric(strings.ReplaceAll(m.Name, " ", "")) {
			continue
		}
		if i, seen := index[m.Name]; seen {
			out[i].OccurrenceCount += m.OccurrenceCount
			continue
		}
		index[m.Name] = len(out)
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurrenceCount > out[j].OccurrenceCount
	})
	return out
}

func leadOf(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return float64(total) / float64(len(values))
}

func stddev(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var acc float64
	for _, v := range values {
		d := float64(v) - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)))
}
