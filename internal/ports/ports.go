package ports

import (
	"context"
	"time"

	"AEOAuditor/internal/domain"
)

// ContentFetcher retrieves a single page and extracts its readable text.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (domain.FetchResult, error)
}

// EntityRecognizer finds named entities in clean text. Implementations may
// return heterogeneous raw shapes; the sanitizer normalizes them.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]any, error)
}

// Analyzer scores clean text; it never fails, outcomes travel in Analysis.Status.
type Analyzer interface {
	Analyze(ctx context.Context, text string) domain.Analysis
}

// SnippetGenerator rewrites source text into a direct-answer snippet. Failures
// come back as an error-marked string.
type SnippetGenerator interface {
	GenerateSnippet(ctx context.Context, text string) string
}

// Rewriter is the generative-text collaborator (LLM chat completion).
type Rewriter interface {
	Rewrite(ctx context.Context, prompt string) (string, error)
}

// RecordStore persists the latest record and the bounded history log.
type RecordStore interface {
	SaveLatest(ctx context.Context, record domain.AuditRecord) error
	AppendHistory(ctx context.Context, record domain.AuditRecord) error
	Latest(ctx context.Context) (*domain.AuditRecord, error)
	History(ctx context.Context) ([]domain.AuditRecord, error)
}

// Notifier streams audit summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring audits execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// SchemaPublisher pushes structured-data markup onto a published page.
type SchemaPublisher interface {
	PublishSchema(ctx context.Context, postID int, schema map[string]any) error
}

// MentionMonitor reports live brand mentions in an AI answer engine.
type MentionMonitor interface {
	CheckMentions(ctx context.Context, brand, platform string) (domain.MentionReport, error)
}
