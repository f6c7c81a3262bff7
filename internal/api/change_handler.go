package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/auth"
	"github.com/regworks/companies-register/internal/domain"
	"github.com/regworks/companies-register/internal/workflow"
)

type submitChangeRequest struct {
	Kind          string         `json:"kind"`
	Subtype       string         `json:"subtype"`
	ProposedValue map[string]any `json:"proposedValue"`
	EffectiveDate *time.Time     `json:"effectiveDate"`
}

func (s *Server) handleSubmitChange(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body submitChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure("invalid request body: "+err.Error()))
		return
	}

	req := domain.ChangeRequest{
		CompanyID:     companyID,
		Kind:          domain.ChangeKind(body.Kind),
		Subtype:       body.Subtype,
		ProposedValue: body.ProposedValue,
	}
	if body.EffectiveDate != nil {
		req.EffectiveDate = *body.EffectiveDate
	}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		req.RequestedBy = identity.Subject
	}

	// The pre-commit check path validates without entering the register.
	if r.URL.Query().Get("dryRun") == "1" {
		wf, err := s.engine.Check(r.Context(), req)
		if err != nil {
			s.writeWorkflowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, BuildValidation(wf))
		return
	}

	wf, err := s.engine.Submit(r.Context(), req)
	if err != nil {
		var execErr *workflow.ExecutionError
		if errors.As(err, &execErr) && wf.ID != uuid.Nil {
			// Auto-approval could not complete the write but the workflow
			// exists and stays pending. Persist it so a later explicit
			// approval can retry, and surface the failure alongside it.
			if persistErr := s.workflows.Create(r.Context(), wf); persistErr != nil {
				s.logger.Error("failed to persist pending workflow after execution failure",
					zap.String("workflow_id", wf.ID.String()),
					zap.Error(persistErr))
				s.writeWorkflowError(w, persistErr)
				return
			}
			writeJSON(w, http.StatusBadGateway, BuildExecutionFailure(wf, err.Error()))
			return
		}
		s.writeWorkflowError(w, err)
		return
	}

	if persistErr := s.workflows.Create(r.Context(), wf); persistErr != nil {
		s.logger.Error("failed to persist workflow",
			zap.String("workflow_id", wf.ID.String()),
			zap.Error(persistErr))
		s.writeWorkflowError(w, persistErr)
		return
	}

	if wf.HasValidationErrors() {
		writeJSON(w, http.StatusUnprocessableEntity, BuildValidation(wf))
		return
	}
	writeJSON(w, http.StatusCreated, BuildSuccess(wf))
}

func (s *Server) handleGetChange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	wf, err := s.workflows.GetByID(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildSuccess(wf))
}

func (s *Server) handleListChanges(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit, offset := pagination(r, 50)
	status := domain.WorkflowStatus(r.URL.Query().Get("status"))
	workflows, err := s.workflows.ListByCompany(r.Context(), companyID, status, limit, offset)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": workflows})
}

func (s *Server) handleApproveChange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	identity, authenticated := auth.IdentityFromContext(r.Context())
	if !authenticated {
		writeJSON(w, http.StatusUnauthorized, BuildFailure("authentication required"))
		return
	}

	wf, err := s.workflows.GetByID(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	approved, err := s.engine.Approve(r.Context(), wf, identity.Subject)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	if err := s.workflows.MarkApproved(r.Context(), approved); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildSuccess(approved))
}

type rejectChangeRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleRejectChange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	identity, authenticated := auth.IdentityFromContext(r.Context())
	if !authenticated {
		writeJSON(w, http.StatusUnauthorized, BuildFailure("authentication required"))
		return
	}

	var body rejectChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure("invalid request body: "+err.Error()))
		return
	}

	wf, err := s.workflows.GetByID(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	rejected, err := s.engine.Reject(r.Context(), wf, identity.Subject, body.Reason)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	if err := s.workflows.MarkRejected(r.Context(), rejected); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildSuccess(rejected))
}
