package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"AEOAuditor/internal/citation"
	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/entities"
	"AEOAuditor/internal/infrastructure/dataforseo"
	"AEOAuditor/internal/infrastructure/httpapi"
	"AEOAuditor/internal/infrastructure/llm"
	"AEOAuditor/internal/infrastructure/metrics"
	"AEOAuditor/internal/infrastructure/ml"
	"AEOAuditor/internal/infrastructure/parser"
	"AEOAuditor/internal/infrastructure/scheduler"
	"AEOAuditor/internal/infrastructure/storage"
	"AEOAuditor/internal/infrastructure/telegram"
	"AEOAuditor/internal/infrastructure/wordpress"
	"AEOAuditor/internal/lexicon"
	"AEOAuditor/internal/logging"
	"AEOAuditor/internal/nlp"
	"AEOAuditor/internal/ports"
	"AEOAuditor/internal/remediation"
	"AEOAuditor/internal/scoring"
	"AEOAuditor/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	store      ports.RecordStore
	closeStore func() error
	metrics    *metrics.Metrics
	pipeline   *usecase.Pipeline
	comparator *usecase.Comparator
	simulator  *usecase.Simulator
	scheduler  *usecase.Scheduler
	deployer   *usecase.Deployer
	mentions   ports.MentionMonitor
}

// New builds every adapter from cfg. The caller owns Close.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	lex, err := lexicon.Load(cfg.Scoring.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	var recognizer ports.EntityRecognizer = nlp.NewRecognizer(lex)
	if cfg.NER.InferenceURL != "" {
		recognizer = ml.NewFallbackRecognizer(
			ml.NewClient(cfg.NER.InferenceURL, cfg.NER.APIKey),
			recognizer,
			baseLogger.With("component", "ner"),
		)
	}

	analyzer := scoring.New(lex, recognizer, cfg.Scoring, baseLogger)
	sanitizer := entities.NewSanitizer(lex)
	fetcher := parser.NewIngestor(cfg.Ingest, nil)

	var rewriter ports.Rewriter
	if chat := llm.NewChatClient(cfg.LLM); chat.Configured() {
		rewriter = chat
	} else {
		baseLogger.Warn("generative service not configured; snippets will carry an error marker")
	}
	snippets := remediation.NewSnippetGenerator(rewriter, remediation.SnippetConfig{
		MaxSourceChars: cfg.LLM.MaxSourceChars,
		MaxAttempts:    cfg.LLM.MaxAttempts,
		RetryDelay:     cfg.LLM.RetryDelay,
	}, baseLogger)

	store, closeStore, err := storage.Open(ctx, cfg.Storage, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); tg.Configured() {
		notifier = tg
	}

	var publisher ports.SchemaPublisher
	if wp := wordpress.NewPublisher(cfg.Deploy.WordPress); wp.Configured() {
		publisher = wp
	}
	var mentions ports.MentionMonitor
	if dfs := dataforseo.NewMonitor(cfg.Mentions.DataForSEO); dfs.Configured() {
		mentions = dfs
	}

	m := metrics.New()
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:   fetcher,
		Analyzer:  analyzer,
		Sanitizer: sanitizer,
		Snippets:  snippets,
		Store:     store,
		Notifier:  notifier,
		Metrics:   m,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		store:      store,
		closeStore: closeStore,
		metrics:    m,
		pipeline:   pipeline,
		comparator: usecase.NewComparator(fetcher, analyzer, sanitizer, baseLogger),
		simulator:  usecase.NewSimulator(rewriter),
		scheduler: usecase.NewScheduler(
			scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location()),
			pipeline,
			cfg.Scheduler.Targets,
			baseLogger,
		),
		deployer: usecase.NewDeployer(publisher, baseLogger),
		mentions: mentions,
	}, nil
}

// Audit runs one pipeline pass.
func (a *Application) Audit(ctx context.Context, url string) (*domain.AuditRecord, error) {
	return a.pipeline.RunAudit(ctx, url)
}

// Compare runs a gap analysis; nothing is persisted.
func (a *Application) Compare(ctx context.Context, mine, competitor string) (domain.GapReport, error) {
	return a.comparator.Compare(ctx, mine, competitor)
}

// Simulate asks the answer-engine stand-in one query and checks citation.
func (a *Application) Simulate(ctx context.Context, brand, site, query string) (domain.CitationResult, error) {
	return a.simulator.Simulate(ctx, citation.Monitor{Brand: brand, Domain: site}, query)
}

// Deploy publishes the record's recommended schema onto a WordPress post.
func (a *Application) Deploy(ctx context.Context, record *domain.AuditRecord, postID int) error {
	return a.deployer.Deploy(ctx, record, postID)
}

// Mentions reports live brand mentions on an AI platform.
func (a *Application) Mentions(ctx context.Context, brand, platform string) (domain.MentionReport, error) {
	if a.mentions == nil {
		return domain.MentionReport{}, errors.New("mention monitor is not configured")
	}
	return a.mentions.CheckMentions(ctx, brand, platform)
}

// Watch re-audits the configured targets on schedule until ctx is done.
func (a *Application) Watch(ctx context.Context) error {
	if len(a.cfg.Scheduler.Targets) == 0 {
		return errors.New("no scheduler targets configured")
	}
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching targets", "cron", a.cfg.Scheduler.CronExpression, "targets", len(a.cfg.Scheduler.Targets))

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Serve runs the HTTP API, plus the scheduler when targets are configured,
// until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	server := httpapi.NewServer(a.cfg.Server.Addr, httpapi.Deps{
		Auditor:   a.pipeline,
		Comparer:  a.comparator,
		Simulator: a.simulator,
		Mentions:  a.mentions,
		Store:     a.store,
		Metrics:   a.metrics.Handler(),
		Logger:    a.logger,
	})

	if len(a.cfg.Scheduler.Targets) > 0 {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(server.Shutdown(shutdownCtx), a.scheduler.Stop(shutdownCtx))
}

// Close releases the record store.
func (a *Application) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}
