package domain

import (
	"fmt"
	"strings"
)

// EntityCategory restricts recognized entities to the kinds answer engines key on.
type EntityCategory string

const (
	CategoryOrganization EntityCategory = "ORGANIZATION"
	CategoryPerson       EntityCategory = "PERSON"
	CategoryLocation     EntityCategory = "LOCATION"
	CategoryProduct      EntityCategory = "PRODUCT"
	CategoryLaw          EntityCategory = "LAW"
	CategoryFacility     EntityCategory = "FACILITY"
)

// ParseCategory maps our names and common NER labels (ORG, GPE, FAC...) onto a category.
func ParseCategory(label string) (EntityCategory, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "ORGANIZATION", "ORG", "NORP":
		return CategoryOrganization, nil
	case "PERSON", "PER":
		return CategoryPerson, nil
	case "LOCATION", "LOC", "GPE":
		return CategoryLocation, nil
	case "PRODUCT":
		return CategoryProduct, nil
	case "LAW":
		return CategoryLaw, nil
	case "FACILITY", "FAC":
		return CategoryFacility, nil
	}
	return "", fmt.Errorf("unsupported entity category %q", label)
}

// EntityMention is a recognized named entity with its frequency.
type EntityMention struct {
	Name            string         `json:"name"`
	Category        EntityCategory `json:"category"`
	OccurrenceCount int            `json:"occurrence_count"`
}

// AnalysisStatus tells "nothing to judge" apart from "judged poorly".
type AnalysisStatus string

const (
	AnalysisSuccess      AnalysisStatus = "SUCCESS"
	AnalysisInsufficient AnalysisStatus = "INSUFFICIENT_CONTENT"
	AnalysisFailed       AnalysisStatus = "ANALYSIS_FAILURE"
)

// ScoreBreakdown holds the named sub-scores. Rhythm and EntityRatio stay zero
// unless the enhanced scorer is enabled.
type ScoreBreakdown struct {
	Readability    int `json:"readability"`
	IntentMatch    int `json:"intent_match"`
	Authority      int `json:"authority"`
	EntityDensity  int `json:"entity_density"`
	Rhythm         int `json:"rhythm,omitempty"`
	EntityRatio    int `json:"entity_ratio,omitempty"`
	AuthorityBonus int `json:"authority_bonus"`
}

// Base is the capped linguistic score before the markup bonus.
func (b ScoreBreakdown) Base() int {
	return capScore(b.Readability + b.IntentMatch + b.Authority + b.EntityDensity + b.Rhythm + b.EntityRatio)
}

// Total is min(sum of sub-scores + authority bonus, 100).
func (b ScoreBreakdown) Total() int {
	return capScore(b.Base() + b.AuthorityBonus)
}

func capScore(v int) int {
	if v > MaxScore {
		return MaxScore
	}
	if v < 0 {
		return 0
	}
	return v
}

// Analysis is the scorer output for one text.
type Analysis struct {
	Status            AnalysisStatus
	Breakdown         ScoreBreakdown
	Entities          []EntityMention
	AvgSentenceLength float64
	Err               string
}

// Score returns the base score, zero unless the analysis succeeded.
func (a Analysis) Score() int {
	if a.Status != AnalysisSuccess {
		return 0
	}
	return a.Breakdown.Base()
}
