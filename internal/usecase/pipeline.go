package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"AEOAuditor/internal/authority"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/entities"
	"AEOAuditor/internal/infrastructure/metrics"
	"AEOAuditor/internal/ports"
	"AEOAuditor/internal/remediation"
)

const tracerName = "AEOAuditor/internal/usecase"

// PipelineDeps wires all driven adapters into the audit pipeline.
type PipelineDeps struct {
	Fetcher   ports.ContentFetcher
	Analyzer  ports.Analyzer
	Sanitizer *entities.Sanitizer
	Snippets  ports.SnippetGenerator
	Store     ports.RecordStore
	Notifier  ports.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Pipeline runs one audit from fetch to persistence.
type Pipeline struct {
	fetcher   ports.ContentFetcher
	analyzer  ports.Analyzer
	sanitizer *entities.Sanitizer
	snippets  ports.SnippetGenerator
	store     ports.RecordStore
	notifier  ports.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		fetcher:   deps.Fetcher,
		analyzer:  deps.Analyzer,
		sanitizer: deps.Sanitizer,
		snippets:  deps.Snippets,
		store:     deps.Store,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		tracer:    otel.Tracer(tracerName),
		now:       deps.Now,
		newID:     deps.NewID,
	}
	if p.sanitizer == nil {
		p.sanitizer = entities.NewSanitizer(nil)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p
}

// RunAudit returns (nil, err) for FETCH_FAILURE and INSUFFICIENT_CONTENT.
// A PERSISTENCE_FAILURE comes back together with the computed record. Every
// other outcome, including analysis and remediation failures, yields a
// persisted record and a nil error.
func (p *Pipeline) RunAudit(ctx context.Context, url string) (record *domain.AuditRecord, err error) {
	ctx, span := p.tracer.Start(ctx, "audit.run", trace.WithAttributes(attribute.String("audit.url", url)))
	defer func() {
		if err != nil {
			kind := string(domain.KindOf(err))
			if kind == "" {
				kind = "error"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, kind)
			p.metrics.AuditFinished(kind)
		} else {
			p.metrics.AuditFinished("ok")
		}
		span.End()
	}()

	if p.fetcher == nil || p.analyzer == nil {
		return nil, errors.New("pipeline is missing its fetcher or analyzer")
	}

	logger := p.logger.With("url", url)

	fetched, err := p.fetch(ctx, url)
	if err != nil {
		logger.Warn("fetch failed", "err", err)
		return nil, err
	}

	signals := authority.Validate(fetched.RawMarkup)

	analysis := p.analyze(ctx, fetched.CleanText)
	switch analysis.Status {
	case domain.AnalysisInsufficient:
		logger.Warn("content too short to score", "chars", len(fetched.CleanText))
		return nil, &domain.AuditError{Kind: domain.KindInsufficientContent, Reason: "extracted text is below the scoring threshold"}
	case domain.AnalysisFailed:
		logger.Error("analysis failed, recording zero score", "err", analysis.Err)
	}

	mentions := p.sanitizer.SanitizeMentions(analysis.Entities)
	snippet := p.remediate(ctx, fetched.CleanText)
	if remediation.IsError(snippet) {
		logger.Warn("remediation failed", "kind", domain.KindRemediationFailure, "snippet", snippet)
	}

	built := BuildRecord(RecordInput{
		AuditID:  p.newID(),
		URL:      url,
		Fetch:    fetched,
		Signals:  signals,
		Analysis: analysis,
		Entities: mentions,
		Snippet:  snippet,
		Schema:   remediation.AboutSchema(head(mentions, domain.EntityCloudLimit)),
		At:       p.now(),
	})
	record = &built
	span.SetAttributes(
		attribute.Int("audit.score", built.BasicMetrics.AEOScore),
		attribute.String("audit.status", string(built.BasicMetrics.AnalysisStatus)),
	)
	p.metrics.ObserveScore(built.BasicMetrics.AEOScore)

	if err := p.persist(ctx, built); err != nil {
		logger.Error("persist audit", "err", err)
		return record, err
	}

	p.notify(ctx, built)
	logger.Info("audit complete",
		"score", built.BasicMetrics.AEOScore,
		"trust", built.BasicMetrics.TrustSignalLevel,
		"entities", len(built.ProFeatures.FullEntityCloud),
	)
	return record, nil
}

func (p *Pipeline) fetch(ctx context.Context, url string) (domain.FetchResult, error) {
	ctx, span := p.tracer.Start(ctx, "audit.fetch")
	defer span.End()
	defer p.observe("fetch", time.Now())

	result, err := p.fetcher.Fetch(ctx, url)
	if err == nil {
		return result, nil
	}

	kind := string(domain.FetchConnectionFailed)
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		kind = string(fetchErr.Kind)
	}
	p.metrics.FetchFailed(kind)
	span.SetAttributes(attribute.String("fetch.error_kind", kind))

	return domain.FetchResult{}, &domain.AuditError{Kind: domain.KindFetchFailure, Reason: kind, Err: err}
}

func (p *Pipeline) analyze(ctx context.Context, text string) domain.Analysis {
	ctx, span := p.tracer.Start(ctx, "audit.analyze")
	defer span.End()
	defer p.observe("analyze", time.Now())

	analysis := p.analyzer.Analyze(ctx, text)
	span.SetAttributes(attribute.String("analysis.status", string(analysis.Status)))
	return analysis
}

func (p *Pipeline) remediate(ctx context.Context, text string) string {
	if p.snippets == nil {
		return remediation.ErrorPrefix + " snippet generator is not configured"
	}
	ctx, span := p.tracer.Start(ctx, "audit.remediate")
	defer span.End()
	defer p.observe("remediate", time.Now())

	return p.snippets.GenerateSnippet(ctx, text)
}

// persist writes both slots even when the first write fails.
func (p *Pipeline) persist(ctx context.Context, record domain.AuditRecord) error {
	if p.store == nil {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "audit.persist")
	defer span.End()
	defer p.observe("persist", time.Now())

	var errs []error
	if err := p.store.SaveLatest(ctx, record); err != nil {
		errs = append(errs, fmt.Errorf("save latest: %w", err))
	}
	if err := p.store.AppendHistory(ctx, record); err != nil {
		errs = append(errs, fmt.Errorf("append history: %w", err))
	}
	if len(errs) == 0 {
		return nil
	}
	return &domain.AuditError{Kind: domain.KindPersistenceFailure, Reason: "record computed but not saved", Err: errors.Join(errs...)}
}

func (p *Pipeline) notify(ctx context.Context, record domain.AuditRecord) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(record)); err != nil {
		p.logger.Warn("publish digest", "err", err)
	}
}

func (p *Pipeline) observe(stage string, started time.Time) {
	p.metrics.ObserveStage(stage, time.Since(started))
}
