// Package remediation produces the fix artifacts attached to an audit: a
// rewritten direct-answer snippet and schema.org markup.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"

	"AEOAuditor/internal/ports"
)

// ErrorPrefix marks a snippet the generative service failed to produce.
const ErrorPrefix = "[ERROR]"

const instructionTemplate = `Rewrite the following content into a single direct answer of 45 to 60 words.
Rules:
- Open with a one-sentence definition of the main subject.
- Keep every named entity, number and date from the source.
- No marketing fluff, no filler phrases, no questions.
- Do not invent facts that are not in the source.
Return only the rewritten paragraph.

Content:
%s`

// SnippetConfig bounds the rewrite call.
type SnippetConfig struct {
	MaxSourceChars int
	MaxAttempts    int
	RetryDelay     time.Duration
}

// SnippetGenerator wraps a Rewriter with truncation, a fixed prompt and retries.
type SnippetGenerator struct {
	rewriter ports.Rewriter
	cfg      SnippetConfig
	logger   *slog.Logger
}

var _ ports.SnippetGenerator = (*SnippetGenerator)(nil)

// NewSnippetGenerator accepts a nil rewriter; every snippet is then an error marker.
func NewSnippetGenerator(rewriter ports.Rewriter, cfg SnippetConfig, logger *slog.Logger) *SnippetGenerator {
	if cfg.MaxSourceChars <= 0 {
		cfg.MaxSourceChars = 2000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnippetGenerator{rewriter: rewriter, cfg: cfg, logger: logger.With("component", "remediation")}
}

// Prompt renders the instruction template around the truncated source.
func (g *SnippetGenerator) Prompt(text string) string {
	return fmt.Sprintf(instructionTemplate, truncate(strings.TrimSpace(text), g.cfg.MaxSourceChars))
}

// GenerateSnippet never returns an error: failures come back as a string
// starting with ErrorPrefix so the record can still be persisted.
func (g *SnippetGenerator) GenerateSnippet(ctx context.Context, text string) string {
	if g.rewriter == nil {
		return ErrorPrefix + " generative service is not configured"
	}

	prompt := g.Prompt(text)
	var snippet string
	attempt := 0

	op := func() error {
		attempt++
		out, err := g.rewriter.Rewrite(ctx, prompt)
		if err != nil {
			g.logger.Warn("rewrite attempt failed", "attempt", attempt, "err", err)
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return errors.New("empty rewrite")
		}
		snippet = out
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.cfg.RetryDelay), uint64(g.cfg.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		g.logger.Error("snippet generation gave up", "attempts", attempt, "err", err)
		return fmt.Sprintf("%s snippet generation failed after %d attempts: %v", ErrorPrefix, attempt, err)
	}
	return snippet
}

// IsError reports whether a snippet is an error marker.
func IsError(snippet string) bool {
	return strings.HasPrefix(snippet, ErrorPrefix)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
