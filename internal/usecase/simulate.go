package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"AEOAuditor/internal/citation"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

const simulationPrompt = "Act as an AI answer engine such as Perplexity. Provide a concise answer to: %q. " +
	"Include 3 source links at the end, each as a full https URL."

// Simulator asks the generative collaborator to answer a query the way an
// answer engine would, then checks whether the brand was cited.
type Simulator struct {
	rewriter ports.Rewriter
}

// NewSimulator wires the chat client.
func NewSimulator(rewriter ports.Rewriter) *Simulator {
	return &Simulator{rewriter: rewriter}
}

// Simulate runs one query through the simulated engine.
func (s *Simulator) Simulate(ctx context.Context, monitor citation.Monitor, query string) (domain.CitationResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.CitationResult{}, errors.New("empty query")
	}
	if s.rewriter == nil {
		return domain.CitationResult{}, errors.New("generative service is not configured")
	}

	answer, err := s.rewriter.Rewrite(ctx, fmt.Sprintf(simulationPrompt, query))
	if err != nil {
		return domain.CitationResult{}, fmt.Errorf("simulate %q: %w", query, err)
	}

	result := monitor.Check(answer, citation.ExtractLinks(answer))
	result.Query = query
	return result, nil
}
