package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"AEOAuditor/internal/authority"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/entities"
	"AEOAuditor/internal/ports"
)

// Comparator scores two pages side by side without persisting anything.
type Comparator struct {
	fetcher   ports.ContentFetcher
	analyzer  ports.Analyzer
	sanitizer *entities.Sanitizer
	logger    *slog.Logger
}

// NewComparator wires the same collaborators the pipeline uses.
func NewComparator(fetcher ports.ContentFetcher, analyzer ports.Analyzer, sanitizer *entities.Sanitizer, logger *slog.Logger) *Comparator {
	if sanitizer == nil {
		sanitizer = entities.NewSanitizer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{fetcher: fetcher, analyzer: analyzer, sanitizer: sanitizer, logger: logger.With("component", "comparator")}
}

type pageScore struct {
	score    int
	entities []domain.EntityMention
}

// Compare reports the entities the competitor covers that mine lacks. Scores
// follow the record formula (base plus markup bonus, capped at 100).
func (c *Comparator) Compare(ctx context.Context, mine, competitor string) (domain.GapReport, error) {
	var mineScore, theirScore pageScore

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mineScore, err = c.scorePage(gctx, mine)
		return err
	})
	g.Go(func() (err error) {
		theirScore, err = c.scorePage(gctx, competitor)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.GapReport{}, err
	}

	have := make(map[string]bool, len(mineScore.entities))
	for _, e := range mineScore.entities {
		have[entities.Key(e.Name)] = true
	}

	report := domain.GapReport{
		MyURL:           mine,
		CompetitorURL:   competitor,
		MyScore:         mineScore.score,
		CompetitorScore: theirScore.score,
		MissingEntities: []string{},
		SharedEntities:  []string{},
		ThreatLevel:     domain.ThreatLow,
	}
	for _, e := range theirScore.entities {
		if have[entities.Key(e.Name)] {
			report.SharedEntities = append(report.SharedEntities, e.Name)
		} else {
			report.MissingEntities = append(report.MissingEntities, e.Name)
		}
	}
	if theirScore.score > mineScore.score {
		report.ThreatLevel = domain.ThreatHigh
	}

	c.logger.Info("gap analysis", "mine", mine, "competitor", competitor,
		"my_score", report.MyScore, "competitor_score", report.CompetitorScore, "missing", len(report.MissingEntities))
	return report, nil
}

func (c *Comparator) scorePage(ctx context.Context, url string) (pageScore, error) {
	fetched, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		reason := "fetch failed"
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			reason = string(fetchErr.Kind)
		}
		return pageScore{}, &domain.AuditError{Kind: domain.KindFetchFailure, Reason: fmt.Sprintf("%s: %s", url, reason), Err: err}
	}

	analysis := c.analyzer.Analyze(ctx, fetched.CleanText)
	if analysis.Status == domain.AnalysisInsufficient {
		return pageScore{}, &domain.AuditError{Kind: domain.KindInsufficientContent, Reason: url}
	}

	record := BuildRecord(RecordInput{
		URL:      url,
		Fetch:    fetched,
		Signals:  authority.Validate(fetched.RawMarkup),
		Analysis: analysis,
	})
	return pageScore{
		score:    record.BasicMetrics.AEOScore,
		entities: head(c.sanitizer.SanitizeMentions(analysis.Entities), domain.EntityCloudLimit),
	}, nil
}
