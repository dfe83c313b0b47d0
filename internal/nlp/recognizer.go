package nlp

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/lexicon"
	"AEOAuditor/internal/ports"
)

// Recognizer is a rule-based named entity recognizer. Candidate names are
// runs of capitalized words; the lexicon decides their category.
type Recognizer struct {
	lex *lexicon.Lexicon
}

var _ ports.EntityRecognizer = (*Recognizer)(nil)

// NewRecognizer wires the shared lexicon.
func NewRecognizer(lex *lexicon.Lexicon) *Recognizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Recognizer{lex: lex}
}

// Recognize implements ports.EntityRecognizer.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mentions := r.Extract(Segment(text))
	out := make([]any, len(mentions))
	for i, m := range mentions {
		out[i] = m
	}
	return out, nil
}

type candidate struct {
	words    []string
	category domain.EntityCategory
	initial  bool // single word opening a sentence
	known    bool // matched a gazetteer or a category cue
	order    int
}

// Extract returns entity mentions ranked by frequency, ties by first appearance.
func (r *Recognizer) Extract(sents []Sentence) []domain.EntityMention {
	var found []candidate
	order := 0

	for _, sent := range sents {
		for _, run := range r.runs(sent.Tokens) {
			c, ok := r.classify(run.words, run.atStart)
			if !ok {
				continue
			}
			c.order = order
			order++
			found = append(found, c)
		}
	}

	// Sentence-initial single words only count when seen elsewhere mid-sentence.
	midSentence := map[string]bool{}
	for _, c := range found {
		if !c.initial {
			midSentence[strings.Join(c.words, " ")] = true
		}
	}

	type tally struct {
		mention domain.EntityMention
		first   int
	}
	counts := map[string]*tally{}
	var names []string
	for _, c := range found {
		name := strings.Join(c.words, " ")
		if c.initial && !c.known && !midSentence[name] {
			continue
		}
		t, ok := counts[name]
		if !ok {
			t = &tally{mention: domain.EntityMention{Name: name, Category: c.category}, first: c.order}
			counts[name] = t
			names = append(names, name)
		}
		t.mention.OccurrenceCount++
	}

	out := make([]domain.EntityMention, 0, len(names))
	firsts := make(map[string]int, len(names))
	for _, name := range names {
		out = append(out, counts[name].mention)
		firsts[name] = counts[name].first
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurrenceCount != out[j].OccurrenceCount {
			return out[i].OccurrenceCount > out[j].OccurrenceCount
		}
		return firsts[out[i].Name] < firsts[out[j].Name]
	})
	return out
}

type wordRun struct {
	words   []string
	atStart bool
}

func (r *Recognizer) runs(tokens []Token) []wordRun {
	var (
		out       []wordRun
		current   []string
		start     bool
		wordIndex int
	)

	flush := func() {
		if len(current) > 0 {
			out = append(out, wordRun{words: current, atStart: start})
		}
		current = nil
	}

	for i, tok := range tokens {
		if tok.Kind != KindWord {
			// "Dr." keeps the run open so the title stays attached.
			if tok.Text == "." && len(current) > 0 && r.lex.PersonTitles.Has(current[len(current)-1]) {
				continue
			}
			flush()
			continue
		}

		switch {
		case isProperWord(tok.Text):
			if len(current) == 0 {
				start = wordIndex == 0
			}
			current = append(current, tok.Text)
		case len(current) > 0 && r.lex.Connectors.Has(strings.ToLower(tok.Text)) && nextIsProper(tokens, i):
			current = append(current, tok.Text)
		default:
			flush()
		}
		wordIndex++
	}
	flush()

	return out
}

func nextIsProper(tokens []Token, i int) bool {
	if i+1 >= len(tokens) {
		return false
	}
	next := tokens[i+1]
	return next.Kind == KindWord && isProperWord(next.Text)
}

func (r *Recognizer) classify(words []string, atStart bool) (candidate, bool) {
	// Drop function words that open sentences ("The", "Our") and trailing connectors.
	for len(words) > 0 && r.lex.SentenceOpeners.Has(words[0]) {
		words = words[1:]
		atStart = false
	}
	for len(words) > 0 && r.lex.Connectors.Has(strings.ToLower(words[len(words)-1])) {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return candidate{}, false
	}

	words = append([]string(nil), words...)
	words[len(words)-1] = stripPossessive(words[len(words)-1])

	titled := false
	if r.lex.PersonTitles.Has(words[0]) && len(words) > 1 {
		words = words[1:]
		titled = true
	}

	c := candidate{words: words, initial: atStart && len(words) == 1, known: true}
	name := strings.Join(words, " ")
	last := words[len(words)-1]

	switch {
	case titled:
		c.category = domain.CategoryPerson
	case r.anyWord(words, r.lex.LawKeywords):
		c.category = domain.CategoryLaw
	case r.lex.FacilitySuffixes.Has(last) && len(words) > 1:
		c.category = domain.CategoryFacility
	case r.lex.OrgSuffixes.Has(last) && len(words) > 1:
		c.category = domain.CategoryOrganization
	case r.lex.Places.Has(name) || (r.lex.LocationSuffixes.Has(last) && len(words) > 1):
		c.category = domain.CategoryLocation
	case r.lex.GivenNames.Has(words[0]) && len(words) >= 2 && len(words) <= 3:
		c.category = domain.CategoryPerson
	case r.lex.ProductSuffixes.Has(last) && len(words) > 1, hasInnerCapital(name):
		c.category = domain.CategoryProduct
	case isAcronym(name):
		c.category = domain.CategoryOrganization
	default:
		c.category = domain.CategoryOrganization
		c.known = false
	}

	return c, true
}

func (r *Recognizer) anyWord(words []string, set lexicon.Set) bool {
	for _, w := range words {
		if set.Has(w) {
			return true
		}
	}
	return false
}

// isProperWord accepts Capitalized, ACRONYM and camelCase brand words.
func isProperWord(w string) bool {
	first, _ := utf8.DecodeRuneInString(w)
	if unicode.IsUpper(first) {
		return true
	}
	return hasInnerCapital(w)
}

func hasInnerCapital(w string) bool {
	sawLower := false
	for _, r := range w {
		if unicode.IsLower(r) {
			sawLower = true
			continue
		}
		if unicode.IsUpper(r) && sawLower {
			return true
		}
		if unicode.IsSpace(r) {
			sawLower = false
		}
	}
	return false
}

func isAcronym(w string) bool {
	n := utf8.RuneCountInString(w)
	if n < 2 || n > 6 {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func stripPossessive(w string) string {
	for _, suffix := range []string{"'s", "’s", "'", "’"} {
		if strings.HasSuffix(w, suffix) && len(w) > len(suffix) {
			return strings.TrimSuffix(w, suffix)
		}
	}
	return w
}
