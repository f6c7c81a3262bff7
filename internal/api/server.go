package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/auth"
	"github.com/regworks/companies-register/internal/bulk"
	"github.com/regworks/companies-register/internal/config"
	"github.com/regworks/companies-register/internal/metrics"
	"github.com/regworks/companies-register/internal/middleware"
	"github.com/regworks/companies-register/internal/repository"
	"github.com/regworks/companies-register/internal/workflow"
)

// Server wires the workflow engine and its collaborators to HTTP.
type Server struct {
	engine     *workflow.Engine
	aggregator *bulk.Aggregator
	companies  repository.CompanyRepository
	workflows  repository.WorkflowRepository
	audits     repository.AuditLogRepository
	metrics    *metrics.Metrics
	cfg        config.Config
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

// NewServer creates the API server.
func NewServer(
	engine *workflow.Engine,
	aggregator *bulk.Aggregator,
	companies repository.CompanyRepository,
	workflows repository.WorkflowRepository,
	audits repository.AuditLogRepository,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:     engine,
		aggregator: aggregator,
		companies:  companies,
		workflows:  workflows,
		audits:     audits,
		metrics:    m,
		cfg:        cfg,
		gatherer:   gatherer,
		logger:     logger,
	}
}

// Handler assembles the route table with CORS, logging and identity
// resolution applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /companies", s.handleCreateCompany)
	mux.HandleFunc("GET /companies", s.handleListCompanies)
	mux.HandleFunc("GET /companies/{id}", s.handleGetCompany)
	mux.HandleFunc("GET /companies/{id}/audit", s.handleAuditTrail)

	mux.HandleFunc("POST /companies/{id}/changes", s.handleSubmitChange)
	mux.HandleFunc("GET /companies/{id}/changes", s.handleListChanges)
	mux.HandleFunc("POST /companies/{id}/changes/bulk", s.handleBulkChanges)
	mux.HandleFunc("POST /companies/{id}/changes/upload", s.handleBulkUpload)

	mux.HandleFunc("GET /changes/{id}", s.handleGetChange)
	mux.HandleFunc("POST /changes/{id}/approve", s.handleApproveChange)
	mux.HandleFunc("POST /changes/{id}/reject", s.handleRejectChange)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := auth.Middleware([]byte(s.cfg.Auth.JWTSecret), s.cfg.Auth.Issuer, s.logger)(mux)
	handler = middleware.Logging(s.logger)(handler)
	return corsHandler.Handler(handler)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// writeWorkflowError maps the engine error taxonomy onto HTTP statuses and
// renders the failure shape. Every error kind is per-request: none is fatal.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), BuildFailure(err.Error()))
}

func statusForError(err error) int {
	var validationErr *workflow.ValidationError
	var stateErr *workflow.StateError
	var authErr *workflow.AuthorizationError
	var execErr *workflow.ExecutionError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.As(err, &authErr):
		return http.StatusForbidden
	case errors.As(err, &execErr):
		return http.StatusBadGateway
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrNotPending):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
