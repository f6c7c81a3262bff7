package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleRequest() ChangeRequest {
	return ChangeRequest{
		CompanyID: uuid.New(),
		Kind:      ChangeKindAddress,
		Subtype:   "REGISTERED",
		ProposedValue: map[string]any{
			"line1":    "1 Willis Street",
			"city":     "Wellington",
			"postCode": "6011",
		},
		RequestedBy: "applicant-001",
	}
}

func TestNewChangeWorkflowInitialStatus(t *testing.T) {
	now := time.Now()

	pending := NewChangeWorkflow(sampleRequest(), nil, ValidationSuccess(), now)
	if pending.Status != WorkflowPendingApproval {
		t.Fatalf("expected PENDING_APPROVAL, got %s", pending.Status)
	}
	if pending.ID == uuid.Nil {
		t.Fatalf("expected workflow to get an id")
	}
	if !pending.RequestedAt.Equal(now) {
		t.Fatalf("expected RequestedAt %v, got %v", now, pending.RequestedAt)
	}

	failed := NewChangeWorkflow(sampleRequest(), nil, ValidationFailure("invalid postcode"), now)
	if failed.Status != WorkflowValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED, got %s", failed.Status)
	}
	if !failed.HasValidationErrors() {
		t.Fatalf("expected validation errors to be reported")
	}
}

func TestWorkflowStatusPredicatesExclusive(t *testing.T) {
	now := time.Now()
	base := NewChangeWorkflow(sampleRequest(), nil, ValidationSuccess(), now)

	cases := []struct {
		name     string
		workflow ChangeWorkflow
		pending  bool
		approved bool
		rejected bool
	}{
		{"pending", base, true, false, false},
		{"approved", base.WithApproval("registrar-001", now, map[string]any{"line1": "1 Willis Street"}), false, true, false},
		{"rejected", base.WithRejection("authority-001", now, "address unverifiable"), false, false, true},
		{"validation failed", NewChangeWorkflow(sampleRequest(), nil, ValidationFailure("nope"), now), false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.workflow.IsPending() != tc.pending {
				t.Fatalf("IsPending = %v, want %v", tc.workflow.IsPending(), tc.pending)
			}
			if tc.workflow.IsApproved() != tc.approved {
				t.Fatalf("IsApproved = %v, want %v", tc.workflow.IsApproved(), tc.approved)
			}
			if tc.workflow.IsRejected() != tc.rejected {
				t.Fatalf("IsRejected = %v, want %v", tc.workflow.IsRejected(), tc.rejected)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	if WorkflowPendingApproval.Terminal() {
		t.Fatalf("PENDING_APPROVAL must not be terminal")
	}
	for _, status := range []WorkflowStatus{WorkflowValidationFailed, WorkflowApproved, WorkflowRejected} {
		if !status.Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
}

func TestWithApprovalDoesNotMutateSource(t *testing.T) {
	now := time.Now()
	pending := NewChangeWorkflow(sampleRequest(), nil, ValidationSuccess(), now)

	executed := map[string]any{"line1": "1 Willis Street", "countryCode": "NZ"}
	approved := pending.WithApproval("registrar-001", now, executed)

	if pending.Status != WorkflowPendingApproval {
		t.Fatalf("source workflow changed state to %s", pending.Status)
	}
	if approved.ApprovedBy != "registrar-001" || approved.ApprovedAt == nil {
		t.Fatalf("approval metadata missing: %+v", approved)
	}

	executed["line1"] = "mutated"
	if approved.ExecutedValue["line1"] != "1 Willis Street" {
		t.Fatalf("executed value shares storage with the caller map")
	}
}

func TestWithRejectionLeavesExecutedValueNil(t *testing.T) {
	now := time.Now()
	pending := NewChangeWorkflow(sampleRequest(), nil, ValidationSuccess(), now)

	rejected := pending.WithRejection("authority-001", now, "does not match NZ Post records")
	if rejected.ExecutedValue != nil {
		t.Fatalf("rejected workflow must never carry an executed value")
	}
	if rejected.RejectionReason == "" || rejected.RejectedAt == nil {
		t.Fatalf("rejection metadata missing: %+v", rejected)
	}
	if pending.Status != WorkflowPendingApproval {
		t.Fatalf("source workflow changed state to %s", pending.Status)
	}
}

func TestNewChangeWorkflowCopiesProposedValue(t *testing.T) {
	req := sampleRequest()
	wf := NewChangeWorkflow(req, nil, ValidationSuccess(), time.Now())

	req.ProposedValue["line1"] = "mutated"
	if wf.ProposedValue["line1"] != "1 Willis Street" {
		t.Fatalf("workflow shares proposed value storage with the request")
	}
}
