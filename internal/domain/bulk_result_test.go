package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func workflowWithStatus(t *testing.T, status WorkflowStatus) ChangeWorkflow {
	t.Helper()
	now := time.Now()
	switch status {
	case WorkflowValidationFailed:
		return NewChangeWorkflow(sampleRequest(), nil, ValidationFailure("bad input"), now)
	case WorkflowApproved:
		return NewChangeWorkflow(sampleRequest(), nil, ValidationSuccess(), now).
			WithApproval("registrar-001", now, map[string]any{"line1": "1 Willis Street"})
	case WorkflowRejected:
		return NewChangeWorkflow(sampleRequest(), nil, ValidationSuccess(), now).
			WithRejection("authority-001", now, "no")
	default:
		return NewChangeWorkflow(sampleRequest(), nil, ValidationSuccess(), now)
	}
}

func TestBulkStatusPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		statuses []WorkflowStatus
		errors   []string
		want     BulkStatus
	}{
		{"all approved", []WorkflowStatus{WorkflowApproved, WorkflowApproved}, nil, BulkCompleted},
		{"all rejected settles", []WorkflowStatus{WorkflowRejected}, nil, BulkCompleted},
		{"any pending wins over approved", []WorkflowStatus{WorkflowApproved, WorkflowPendingApproval}, nil, BulkPendingApproval},
		{"pending with failures still pending", []WorkflowStatus{WorkflowValidationFailed, WorkflowPendingApproval}, nil, BulkPendingApproval},
		{"partial failure completes", []WorkflowStatus{WorkflowValidationFailed, WorkflowApproved}, nil, BulkCompleted},
		{"all failed", []WorkflowStatus{WorkflowValidationFailed, WorkflowValidationFailed}, nil, BulkValidationFailed},
		{"only top-level errors", nil, []string{"request 1: unknown change kind"}, BulkValidationFailed},
		{"empty batch", nil, nil, BulkCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			workflows := make([]ChangeWorkflow, 0, len(tc.statuses))
			for _, status := range tc.statuses {
				workflows = append(workflows, workflowWithStatus(t, status))
			}
			result := NewBulkUpdateResult(uuid.New(), workflows, tc.errors)
			if result.Status != tc.want {
				t.Fatalf("status = %s, want %s", result.Status, tc.want)
			}
		})
	}
}

func TestBulkCountsDerivedFromWorkflows(t *testing.T) {
	workflows := []ChangeWorkflow{
		workflowWithStatus(t, WorkflowApproved),
		workflowWithStatus(t, WorkflowApproved),
		workflowWithStatus(t, WorkflowPendingApproval),
		workflowWithStatus(t, WorkflowValidationFailed),
		workflowWithStatus(t, WorkflowRejected),
	}
	result := NewBulkUpdateResult(uuid.New(), workflows, []string{"request 6: no value"})

	if got := result.SuccessCount(); got != 2 {
		t.Fatalf("SuccessCount = %d, want 2", got)
	}
	if got := result.PendingCount(); got != 1 {
		t.Fatalf("PendingCount = %d, want 1", got)
	}
	if got := result.FailedCount(); got != 1 {
		t.Fatalf("FailedCount = %d, want 1", got)
	}
	if got := result.RejectedCount(); got != 1 {
		t.Fatalf("RejectedCount = %d, want 1", got)
	}

	summary := result.Summary()
	if summary.TotalRequests != 6 {
		t.Fatalf("TotalRequests = %d, want 6 (5 workflows + 1 top-level error)", summary.TotalRequests)
	}
	if summary.SuccessfulUpdates != 2 || summary.PendingApproval != 1 || summary.ValidationFailures != 1 || summary.Rejected != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	want := 2.0 / 6.0
	if summary.SuccessRate != want {
		t.Fatalf("SuccessRate = %f, want %f", summary.SuccessRate, want)
	}
	if !summary.HasErrors {
		t.Fatalf("expected HasErrors for a batch with failures")
	}
}

func TestBulkSummaryEmptyBatch(t *testing.T) {
	summary := NewBulkUpdateResult(uuid.New(), nil, nil).Summary()
	if summary.TotalRequests != 0 {
		t.Fatalf("TotalRequests = %d, want 0", summary.TotalRequests)
	}
	if summary.SuccessRate != 0.0 {
		t.Fatalf("SuccessRate = %f, want 0.0", summary.SuccessRate)
	}
	if summary.HasErrors {
		t.Fatalf("empty batch must not report errors")
	}
}

func TestBulkResultPreservesWorkflowOrder(t *testing.T) {
	first := workflowWithStatus(t, WorkflowApproved)
	second := workflowWithStatus(t, WorkflowPendingApproval)
	third := workflowWithStatus(t, WorkflowValidationFailed)

	result := NewBulkUpdateResult(uuid.New(), []ChangeWorkflow{first, second, third}, nil)
	if result.Workflows[0].ID != first.ID || result.Workflows[1].ID != second.ID || result.Workflows[2].ID != third.ID {
		t.Fatalf("workflow order does not match input order")
	}
}
