package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/regworks/companies-register/internal/repository"
	"github.com/regworks/companies-register/internal/workflow"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &workflow.ValidationError{Reason: "bad"}, http.StatusBadRequest},
		{"state", &workflow.StateError{Op: "approve"}, http.StatusConflict},
		{"authorization", &workflow.AuthorizationError{Actor: "x"}, http.StatusForbidden},
		{"execution", &workflow.ExecutionError{Err: errors.New("down")}, http.StatusBadGateway},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"not pending", repository.ErrNotPending, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.want {
				t.Fatalf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
