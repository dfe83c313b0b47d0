// Package entities normalizes raw recognizer output into clean, unique
// EntityMention lists.
package entities

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/lexicon"
)

// Sanitizer filters stop-listed noise and merges duplicate spellings.
type Sanitizer struct {
	stop lexicon.Set
}

// NewSanitizer binds the stop-list of the given lexicon.
func NewSanitizer(lex *lexicon.Lexicon) *Sanitizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Sanitizer{stop: lex.StopEntities}
}

// Sanitize keeps first-seen order. Duplicates (case and accent insensitive)
// fold into the first spelling and category with their counts summed.
// Malformed elements are skipped.
func (s *Sanitizer) Sanitize(raw []any) []domain.EntityMention {
	out := make([]domain.EntityMention, 0, len(raw))
	index := make(map[string]int, len(raw))

	for _, item := range raw {
		mention, ok := ParseMention(item)
		if !ok || s.rejected(mention.Name) {
			continue
		}
		k := Key(mention.Name)
		if i, seen := index[k]; seen {
			out[i].OccurrenceCount += mention.OccurrenceCount
			continue
		}
		index[k] = len(out)
		out = append(out, mention)
	}

	return out
}

// SanitizeMentions is Sanitize for already typed input.
func (s *Sanitizer) SanitizeMentions(mentions []domain.EntityMention) []domain.EntityMention {
	raw := make([]any, len(mentions))
	for i, m := range mentions {
		raw[i] = m
	}
	return s.Sanitize(raw)
}

func (s *Sanitizer) rejected(name string) bool {
	if len([]rune(name)) <= 1 {
		return true
	}
	return s.stop.Has(strings.ToUpper(name))
}

// Key is the dedupe key: case-folded with diacritics removed.
func Key(name string) string {
	fold := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
		cases.Fold(),
	)
	out, _, err := transform.String(fold, name)
	if err != nil {
		return strings.ToLower(name)
	}
	return out
}

// ParseMention accepts a typed mention, a bare name, a [name, count] or
// [name, category(, count)] pair, an object with name/text, label/category
// and count keys, or the JSON encoding of any of those.
func ParseMention(item any) (domain.EntityMention, bool) {
	switch v := item.(type) {
	case domain.EntityMention:
		return build(v.Name, string(v.Category), float64(v.OccurrenceCount))
	case *domain.EntityMention:
		if v == nil {
			return domain.EntityMention{}, false
		}
		return ParseMention(*v)
	case string:
		return build(v, "", 1)
	case []string:
		parts := make([]any, len(v))
		for i, p := range v {
			parts[i] = p
		}
		return parsePair(parts)
	case []any:
		return parsePair(v)
	case map[string]any:
		return parseObject(v)
	case json.RawMessage:
		return parseJSON(v)
	case []byte:
		return parseJSON(v)
	}
	return domain.EntityMention{}, false
}

func parseJSON(raw []byte) (domain.EntityMention, bool) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.EntityMention{}, false
	}
	return ParseMention(decoded)
}

func parsePair(parts []any) (domain.EntityMention, bool) {
	if len(parts) < 1 || len(parts) > 3 {
		return domain.EntityMention{}, false
	}
	name, ok := parts[0].(string)
	if !ok {
		return domain.EntityMention{}, false
	}

	var (
		label string
		count = 1.0
	)
	for _, p := range parts[1:] {
		switch x := p.(type) {
		case string:
			if label != "" {
				return domain.EntityMention{}, false
			}
			label = x
		default:
			n, ok := number(x)
			if !ok {
				return domain.EntityMention{}, false
			}
			count = n
		}
	}
	return build(name, label, count)
}

func parseObject(obj map[string]any) (domain.EntityMention, bool) {
	name, ok := firstString(obj, "name", "text", "entity")
	if !ok {
		return domain.EntityMention{}, false
	}
	label, _ := firstString(obj, "category", "label", "entity_group", "type")

	count := 1.0
	for _, key := range []string{"occurrence_count", "count"} {
		if raw, present := obj[key]; present {
			n, ok := number(raw)
			if !ok {
				return domain.EntityMention{}, false
			}
			count = n
			break
		}
	}
	return build(name, label, count)
}

func firstString(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := obj[k].(string); ok {
			return v, true
		}
	}
	return "", false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func build(name, label string, count float64) (domain.EntityMention, bool) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return domain.EntityMention{}, false
	}
	if count < 1 || count != math.Trunc(count) || count > math.MaxInt32 {
		return domain.EntityMention{}, false
	}

	category := domain.CategoryOrganization
	if strings.TrimSpace(label) != "" {
		parsed, err := domain.ParseCategory(label)
		if err != nil {
			return domain.EntityMention{}, false
		}
		category = parsed
	}

	return domain.EntityMention{Name: name, Category: category, OccurrenceCount: int(count)}, true
}
