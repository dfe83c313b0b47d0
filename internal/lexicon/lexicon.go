// Package lexicon holds the fixed vocabularies used by scoring, entity
// recognition and sanitization. A Lexicon is loaded once at startup and is
// read-only afterwards; share it by pointer.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var embedded []byte

type fileFormat struct {
	StopEntities     []string `yaml:"stopEntities"`
	AuthorityMarkers []string `yaml:"authorityMarkers"`
	Intent           struct {
		LeadChars int      `yaml:"leadChars"`
		Strong    []string `yaml:"strong"`
		Soft      []string `yaml:"soft"`
	} `yaml:"intent"`
	Categories struct {
		Organization struct {
			Suffixes []string `yaml:"suffixes"`
		} `yaml:"organization"`
		Law struct {
			Keywords []string `yaml:"keywords"`
		} `yaml:"law"`
		Facility struct {
			Suffixes []string `yaml:"suffixes"`
		} `yaml:"facility"`
		Location struct {
			Suffixes []string `yaml:"suffixes"`
			Places   []string `yaml:"places"`
		} `yaml:"location"`
		Person struct {
			Titles     []string `yaml:"titles"`
			GivenNames []string `yaml:"givenNames"`
		} `yaml:"person"`
		Product struct {
			Suffixes []string `yaml:"suffixes"`
		} `yaml:"product"`
	} `yaml:"categories"`
	SentenceOpeners []string `yaml:"sentenceOpeners"`
	Connectors      []string `yaml:"connectors"`
}

// Set is a case-sensitive string membership table.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func newSet(values []string, normalize func(string) string) Set {
	set := make(Set, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if normalize != nil {
			v = normalize(v)
		}
		set[v] = struct{}{}
	}
	return set
}

// Lexicon is the compiled, immutable vocabulary.
type Lexicon struct {
	StopEntities     Set
	AuthorityMarkers []*regexp.Regexp
	LeadChars        int
	StrongIntent     []*regexp.Regexp
	SoftIntent       []*regexp.Regexp

	OrgSuffixes      Set
	LawKeywords      Set
	FacilitySuffixes Set
	LocationSuffixes Set
	Places           Set
	PersonTitles     Set
	GivenNames       Set
	ProductSuffixes  Set

	SentenceOpeners Set
	Connectors      Set
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns the embedded lexicon, compiled once per process.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		defaultLex, defaultErr = Parse(embedded)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("lexicon: embedded vocabulary is invalid: %v", defaultErr))
	}
	return defaultLex
}

// Load reads an override file; an empty path yields the embedded default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse compiles a YAML vocabulary document.
func Parse(raw []byte) (*Lexicon, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	markers := make([]*regexp.Regexp, 0, len(f.AuthorityMarkers))
	for _, m := range f.AuthorityMarkers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		markers = append(markers, regexp.MustCompile(regexp.QuoteMeta(m)))
	}

	strong, err := compileAll(f.Intent.Strong)
	if err != nil {
		return nil, fmt.Errorf("strong intent: %w", err)
	}
	soft, err := compileAll(f.Intent.Soft)
	if err != nil {
		return nil, fmt.Errorf("soft intent: %w", err)
	}

	lead := f.Intent.LeadChars
	if lead <= 0 {
		lead = 220
	}

	return &Lexicon{
		StopEntities:     newSet(f.StopEntities, strings.ToUpper),
		AuthorityMarkers: markers,
		LeadChars:        lead,
		StrongIntent:     strong,
		SoftIntent:       soft,
		OrgSuffixes:      newSet(f.Categories.Organization.Suffixes, nil),
		LawKeywords:      newSet(f.Categories.Law.Keywords, nil),
		FacilitySuffixes: newSet(f.Categories.Facility.Suffixes, nil),
		LocationSuffixes: newSet(f.Categories.Location.Suffixes, nil),
		Places:           newSet(f.Categories.Location.Places, nil),
		PersonTitles:     newSet(f.Categories.Person.Titles, nil),
		GivenNames:       newSet(f.Categories.Person.GivenNames, nil),
		ProductSuffixes:  newSet(f.Categories.Product.Suffixes, nil),
		SentenceOpeners:  newSet(f.SentenceOpeners, nil),
		Connectors:       newSet(f.Connectors, strings.ToLower),
	}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
