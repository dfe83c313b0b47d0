package domain

import "time"

// HistoryLimit caps the persisted audit history; the oldest entries go first.
const HistoryLimit = 50

// Record field caps.
const (
	TopEntitiesLimit  = 5
	EntityCloudLimit  = 20
	MaxAuthorityBonus = 40
	MaxScore          = 100
)

// FetchResult is the ingestor output for a single page.
type FetchResult struct {
	Title     string
	CleanText string
	RawMarkup string
	SourceURL string
}

// AuthoritySignals captures trust markers found in raw markup.
type AuthoritySignals struct {
	HasByline      bool `json:"has_byline"`
	HasProfileLink bool `json:"has_profile_link"`
	HasBioLink     bool `json:"has_bio_link"`
	BonusPoints    int  `json:"bonus_points"`
}

// TrustLevel is the user-facing authority label.
type TrustLevel string

const (
	TrustLow      TrustLevel = "LOW"
	TrustVerified TrustLevel = "VERIFIED"
)

// TrustLevelFor labels a page VERIFIED only when it carries a byline.
func TrustLevelFor(signals AuthoritySignals) TrustLevel {
	if signals.HasByline {
		return TrustVerified
	}
	return TrustLow
}

// AuditRecord is the persisted unit of one audit run.
type AuditRecord struct {
	Metadata     RecordMetadata `json:"metadata"`
	BasicMetrics BasicMetrics   `json:"basic_metrics"`
	ProFeatures  ProFeatures    `json:"pro_features"`
}

// RecordMetadata identifies the audited page.
type RecordMetadata struct {
	AuditID   string    `json:"audit_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// BasicMetrics is the free tier of the record.
type BasicMetrics struct {
	AEOScore         int             `json:"aeo_score"`
	AuthorityBonus   int             `json:"authority_bonus"`
	TrustSignalLevel TrustLevel      `json:"trust_signal_level"`
	AnalysisStatus   AnalysisStatus  `json:"analysis_status"`
	ScoreBreakdown   ScoreBreakdown  `json:"score_breakdown"`
	TopEntities      []EntityMention `json:"top_entities"`
}

// ProFeatures carries the remediation artifacts.
type ProFeatures struct {
	SuggestedSnippet  string          `json:"suggested_snippet"`
	RecommendedSchema map[string]any  `json:"recommended_schema"`
	FullEntityCloud   []EntityMention `json:"full_entity_cloud"`
}

// GapReport compares one page against a competitor page.
type GapReport struct {
	MyURL           string      `json:"my_url"`
	CompetitorURL   string      `json:"competitor_url"`
	MyScore         int         `json:"my_score"`
	CompetitorScore int         `json:"competitor_score"`
	MissingEntities []string    `json:"missing_entities"`
	SharedEntities  []string    `json:"shared_entities"`
	ThreatLevel     ThreatLevel `json:"threat_level"`
}

// ThreatLevel rates how much a competitor outranks the audited page.
type ThreatLevel string

const (
	ThreatLow  ThreatLevel = "LOW"
	ThreatHigh ThreatLevel = "HIGH"
)

// CitationStatus describes how an answer-engine response references a brand.
type CitationStatus string

const (
	CitationFull        CitationStatus = "FULL_CITATION"
	CitationMentionOnly CitationStatus = "MENTION_ONLY"
	CitationSourceOnly  CitationStatus = "SOURCE_ONLY"
	CitationNotFound    CitationStatus = "NOT_FOUND"
)

// CitationResult is the outcome of checking one response.
type CitationResult struct {
	Query  string         `json:"query,omitempty"`
	Status CitationStatus `json:"status"`
	Cited  bool           `json:"cited"`
	Links  []string       `json:"links,omitempty"`
	Answer string         `json:"answer,omitempty"`
}

// MentionReport is a live count of brand mentions in one AI answer engine.
type MentionReport struct {
	Brand          string           `json:"brand"`
	Platform       string           `json:"platform"`
	TotalMentions  int              `json:"total_mentions"`
	AISearchVolume int              `json:"ai_search_volume"`
	Items          []map[string]any `json:"items"`
}
