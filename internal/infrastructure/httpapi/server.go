// Package httpapi exposes audits, history and gap analysis over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"AEOAuditor/internal/citation"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/infrastructure/parser"
	"AEOAuditor/internal/ports"
	"AEOAuditor/internal/remediation"
)

const maxBodyBytes = 1 << 20

// Auditor runs one audit.
type Auditor interface {
	RunAudit(ctx context.Context, url string) (*domain.AuditRecord, error)
}

// Comparer produces a gap report for two pages.
type Comparer interface {
	Compare(ctx context.Context, mine, competitor string) (domain.GapReport, error)
}

// Simulator asks the answer-engine stand-in one query.
type Simulator interface {
	Simulate(ctx context.Context, monitor citation.Monitor, query string) (domain.CitationResult, error)
}

// Deps lists the collaborators; any of them may be nil, which disables the routes that need it.
type Deps struct {
	Auditor   Auditor
	Comparer  Comparer
	Simulator Simulator
	Mentions  ports.MentionMonitor
	Store     ports.RecordStore
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Server is the HTTP front of the auditor.
type Server struct {
	deps   Deps
	router *mux.Router
	server *http.Server
	logger *slog.Logger
}

// NewServer registers routes and prepares the listener on addr.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
		logger: logger.With("component", "httpapi"),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(s.router, "aeoauditor"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/latest", s.handleLatest).Methods(http.MethodGet)
	s.router.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/api/audits", s.handleAudit).Methods(http.MethodPost)
	s.router.HandleFunc("/api/compare", s.handleCompare).Methods(http.MethodPost)
	s.router.HandleFunc("/api/simulate", s.handleSimulate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/mentions", s.handleMentions).Methods(http.MethodPost)
	s.router.HandleFunc("/api/schema/faq", s.handleFAQSchema).Methods(http.MethodPost)
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler without the listener, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		respondError(w, http.StatusServiceUnavailable, "record store is not configured")
		return
	}
	record, err := s.deps.Store.Latest(r.Context())
	if err != nil {
		s.logger.Error("load latest", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to load latest record")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "no audit has been recorded yet")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		respondError(w, http.StatusServiceUnavailable, "record store is not configured")
		return
	}
	history, err := s.deps.Store.History(r.Context())
	if err != nil {
		s.logger.Error("load history", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if history == nil {
		history = []domain.AuditRecord{}
	}
	respondJSON(w, http.StatusOK, history)
}

type auditRequest struct {
	URL        string `json:"url"`
	Competitor string `json:"competitor,omitempty"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auditor == nil {
		respondError(w, http.StatusServiceUnavailable, "auditor is not configured")
		return
	}
	var req auditRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := parser.NormalizeURL(req.URL)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.deps.Auditor.RunAudit(r.Context(), target)
	if err != nil {
		s.respondAuditError(w, record, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if s.deps.Comparer == nil {
		respondError(w, http.StatusServiceUnavailable, "comparator is not configured")
		return
	}
	var req auditRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mine, err := parser.NormalizeURL(req.URL)
	if err != nil {
		respondError(w, http.StatusBadRequest, "url: "+err.Error())
		return
	}
	competitor, err := parser.NormalizeURL(req.Competitor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "competitor: "+err.Error())
		return
	}

	report, err := s.deps.Comparer.Compare(r.Context(), mine, competitor)
	if err != nil {
		s.respondAuditError(w, nil, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type simulateRequest struct {
	Query  string `json:"query"`
	Brand  string `json:"brand"`
	Domain string `json:"domain"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Simulator == nil {
		respondError(w, http.StatusServiceUnavailable, "simulator is not configured")
		return
	}
	var req simulateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Brand) == "" && strings.TrimSpace(req.Domain) == "" {
		respondError(w, http.StatusBadRequest, "brand or domain is required")
		return
	}

	result, err := s.deps.Simulator.Simulate(r.Context(), citation.Monitor{Brand: req.Brand, Domain: req.Domain}, req.Query)
	if err != nil {
		s.logger.Warn("simulate", "query", req.Query, "err", err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type mentionsRequest struct {
	Brand    string `json:"brand"`
	Platform string `json:"platform"`
}

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Mentions == nil {
		respondError(w, http.StatusServiceUnavailable, "mention monitor is not configured")
		return
	}
	var req mentionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Brand) == "" {
		respondError(w, http.StatusBadRequest, "brand is required")
		return
	}

	report, err := s.deps.Mentions.CheckMentions(r.Context(), req.Brand, req.Platform)
	if err != nil {
		s.logger.Warn("mentions", "brand", req.Brand, "err", err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type faqRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (s *Server) handleFAQSchema(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		respondError(w, http.StatusBadRequest, "question and answer are required")
		return
	}
	respondJSON(w, http.StatusOK, remediation.FAQSchema(req.Question, req.Answer))
}

func (s *Server) respondAuditError(w http.ResponseWriter, record *domain.AuditRecord, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindFetchFailure:
		status = http.StatusBadGateway
	case domain.KindInsufficientContent:
		status = http.StatusUnprocessableEntity
	}
	s.logger.Warn("audit request failed", "kind", domain.KindOf(err), "err", err)

	body := map[string]any{"error": err.Error(), "kind": domain.KindOf(err)}
	if record != nil {
		body["record"] = record
	}
	respondJSON(w, status, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
