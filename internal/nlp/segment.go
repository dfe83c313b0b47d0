// Package nlp provides the light-weight linguistic primitives the scorer
// needs: UAX #29 sentence and word segmentation and a lexicon-driven named
// entity recognizer.
package nlp

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
)

// TokenKind separates words from punctuation; whitespace is dropped.
type TokenKind int

const (
	KindWord TokenKind = iota
	KindPunct
)

// Token is one non-space segment of a sentence.
type Token struct {
	Text string
	Kind TokenKind
}

// Sentence is a segmented sentence with its tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// WordCount counts word tokens only.
func (s Sentence) WordCount() int {
	n := 0
	for _, tok := range s.Tokens {
		if tok.Kind == KindWord {
			n++
		}
	}
	return n
}

// Words returns the word tokens in order.
func (s Sentence) Words() []string {
	out := make([]string, 0, len(s.Tokens))
	for _, tok := range s.Tokens {
		if tok.Kind == KindWord {
			out = append(out, tok.Text)
		}
	}
	return out
}

// Segment splits text into sentences that contain at least one word.
func Segment(text string) []Sentence {
	var out []Sentence

	iter := sentences.FromString(text)
	for iter.Next() {
		raw := strings.TrimSpace(iter.Value())
		if raw == "" {
			continue
		}
		tokens := Tokenize(raw)
		sentence := Sentence{Text: raw, Tokens: tokens}
		if sentence.WordCount() == 0 {
			continue
		}
		out = append(out, sentence)
	}

	return out
}

// Tokenize splits text into word and punctuation tokens.
func Tokenize(text string) []Token {
	var tokens []Token

	iter := words.FromString(text)
	for iter.Next() {
		seg := iter.Value()
		switch {
		case strings.TrimSpace(seg) == "":
			continue
		case IsWord(seg):
			tokens = append(tokens, Token{Text: seg, Kind: KindWord})
		default:
			tokens = append(tokens, Token{Text: seg, Kind: KindPunct})
		}
	}

	return tokens
}

// IsWord reports whether a segment carries a letter or digit.
func IsWord(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// IsNumeric reports whether a token is a number such as 42, 3.5 or 1,200.
func IsNumeric(seg string) bool {
	digits := 0
	for _, r := range seg {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || r == '%':
		default:
			return false
		}
	}
	return digits > 0
}
