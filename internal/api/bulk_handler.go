package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/auth"
	"github.com/regworks/companies-register/internal/bulk"
	"github.com/regworks/companies-register/internal/domain"
)

type bulkChangesRequest struct {
	Requests []submitChangeRequest `json:"requests"`
}

func (s *Server) handleBulkChanges(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body bulkChangesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure("invalid request body: "+err.Error()))
		return
	}

	requestedBy := ""
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		requestedBy = identity.Subject
	}

	requests := make([]domain.ChangeRequest, 0, len(body.Requests))
	for _, item := range body.Requests {
		req := domain.ChangeRequest{
			CompanyID:     companyID,
			Kind:          domain.ChangeKind(item.Kind),
			Subtype:       item.Subtype,
			ProposedValue: item.ProposedValue,
			RequestedBy:   requestedBy,
		}
		if item.EffectiveDate != nil {
			req.EffectiveDate = *item.EffectiveDate
		}
		requests = append(requests, req)
	}

	s.runBulk(w, r, companyID, requests, nil)
}

func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(s.cfg.Bulk.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure(fmt.Sprintf("invalid form data: %v", err)))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure(fmt.Sprintf("file required: %v", err)))
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure(fmt.Sprintf("failed to read file: %v", err)))
		return
	}

	requestedBy := ""
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		requestedBy = identity.Subject
	}

	requests, rowErrors, err := bulk.ParseUpload(header.Filename, payload, requestedBy)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure(err.Error()))
		return
	}

	s.runBulk(w, r, companyID, requests, rowErrors)
}

// runBulk executes the batch, persists the produced workflows, and renders
// the bulk shape. Top-level errors gathered before aggregation (malformed
// upload rows) are folded into the result.
func (s *Server) runBulk(w http.ResponseWriter, r *http.Request, companyID uuid.UUID, requests []domain.ChangeRequest, preErrors []string) {
	start := time.Now()
	result := s.aggregator.Run(r.Context(), companyID, requests)
	if len(preErrors) > 0 {
		result = domain.NewBulkUpdateResult(result.CompanyID, result.Workflows, append(preErrors, result.Errors...))
	}

	for _, wf := range result.Workflows {
		if err := s.workflows.Create(r.Context(), wf); err != nil {
			s.logger.Error("failed to persist bulk workflow",
				zap.String("workflow_id", wf.ID.String()),
				zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordBulk(len(requests)+len(preErrors), time.Since(start))
	}

	writeJSON(w, http.StatusOK, BuildBulk(result))
}
