package usecase

import (
	"time"

	"AEOAuditor/internal/domain"
)

// RecordInput gathers every upstream artifact of one run.
type RecordInput struct {
	AuditID  string
	URL      string
	Fetch    domain.FetchResult
	Signals  domain.AuthoritySignals
	Analysis domain.Analysis
	Entities []domain.EntityMention
	Snippet  string
	Schema   map[string]any
	At       time.Time
}

// BuildRecord assembles the persisted record. A failed analysis yields a
// zero score whatever the markup bonus.
func BuildRecord(in RecordInput) domain.AuditRecord {
	breakdown := in.Analysis.Breakdown
	score := 0
	if in.Analysis.Status == domain.AnalysisSuccess {
		breakdown.AuthorityBonus = in.Signals.BonusPoints
		score = breakdown.Total()
	} else {
		breakdown = domain.ScoreBreakdown{}
	}

	return domain.AuditRecord{
		Metadata: domain.RecordMetadata{
			AuditID:   in.AuditID,
			URL:       in.URL,
			Title:     in.Fetch.Title,
			Timestamp: in.At.UTC().Truncate(time.Second),
		},
		BasicMetrics: domain.BasicMetrics{
			AEOScore:         score,
			AuthorityBonus:   in.Signals.BonusPoints,
			TrustSignalLevel: domain.TrustLevelFor(in.Signals),
			AnalysisStatus:   in.Analysis.Status,
			ScoreBreakdown:   breakdown,
			TopEntities:      head(in.Entities, domain.TopEntitiesLimit),
		},
		ProFeatures: domain.ProFeatures{
			SuggestedSnippet:  in.Snippet,
			RecommendedSchema: in.Schema,
			FullEntityCloud:   head(in.Entities, domain.EntityCloudLimit),
		},
	}
}

// head copies at most n leading entities so the record shares no backing array.
func head(entities []domain.EntityMention, n int) []domain.EntityMention {
	if len(entities) < n {
		n = len(entities)
	}
	out := make([]domain.EntityMention, n)
	copy(out, entities[:n])
	return out
}
