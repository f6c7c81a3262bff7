package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/regworks/companies-register/internal/domain"
)

type createCompanyRequest struct {
	CompanyNumber string `json:"companyNumber"`
	NZBN          string `json:"nzbn"`
	Name          string `json:"name"`
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure("invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.CompanyNumber) == "" || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, BuildFailure("companyNumber and name are required"))
		return
	}

	company := domain.NewCompany(strings.TrimSpace(req.CompanyNumber), strings.TrimSpace(req.NZBN), strings.TrimSpace(req.Name))
	created, err := s.companies.Create(r.Context(), company)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	company, err := s.companies.GetByID(r.Context(), id)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)
	companies, total, err := s.companies.List(r.Context(), limit, offset)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"companies":  companies,
		"totalCount": total,
	})
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit, offset := pagination(r, 100)
	entries, err := s.audits.ListByCompany(r.Context(), id, limit, offset)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, BuildFailure("invalid "+name+": "+err.Error()))
		return uuid.Nil, false
	}
	return id, true
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
