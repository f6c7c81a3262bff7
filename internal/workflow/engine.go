package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/domain"
)

// Validator runs business-rule validation for one proposed change. Lookup
// failures inside the validator surface as validation errors in the result,
// never as errors escaping to the engine.
type Validator interface {
	Validate(ctx context.Context, req domain.ChangeRequest, current map[string]any) domain.ValidationResult
}

// CapabilityChecker answers role-capability questions. Implementations must
// return false for unknown or unauthenticated actors rather than erroring.
type CapabilityChecker interface {
	CanAutoApprove(actor string, kind domain.ChangeKind) bool
	CanApprove(actor string, kind domain.ChangeKind) bool
}

// Store is the persistence collaborator the engine executes against.
// CurrentValue resolves the register value a request addresses; the boolean is
// false when no value exists yet. ApplyChange writes the proposed value
// through to the register and returns the executed (possibly normalized)
// value. It must be safe to call at most once per approved workflow.
type Store interface {
	CurrentValue(ctx context.Context, wf domain.ChangeRequest) (map[string]any, bool, error)
	ApplyChange(ctx context.Context, wf domain.ChangeWorkflow) (map[string]any, error)
}

// StateReader reports the persisted status of a workflow. The engine re-reads
// it under the record lock before resolving a pending workflow, so a decision
// made on a stale in-memory snapshot cannot replay execution. The boolean is
// false when the workflow has no persisted row yet.
type StateReader interface {
	Status(ctx context.Context, id uuid.UUID) (domain.WorkflowStatus, bool, error)
}

// AuditSink records workflow transitions. Recording is best effort: a sink
// failure is logged, never surfaced to the caller.
type AuditSink interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// MetricsRecorder counts workflow outcomes. May be nil.
type MetricsRecorder interface {
	RecordSubmission(status domain.WorkflowStatus)
	RecordApproval(auto bool)
	RecordRejection()
}

// Engine orchestrates the lifecycle of change workflows: it builds a workflow
// from a request, decides its initial status from validation and the actor's
// capabilities, and executes approved workflows against the store.
//
// Calls addressing the same register record are serialized through a keyed
// lock; calls on different records run fully in parallel. Execution and the
// APPROVED transition are atomic from the caller's view: a failed write
// surfaces as *ExecutionError and leaves the workflow PENDING_APPROVAL.
type Engine struct {
	validator    Validator
	capabilities CapabilityChecker
	store        Store
	states       StateReader
	audit        AuditSink
	metrics      MetricsRecorder
	locks        *KeyedLock
	execTimeout  time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithExecutionTimeout bounds the store write performed on approval. A
// timeout surfaces as *ExecutionError with the workflow still pending.
func WithExecutionTimeout(d time.Duration) Option {
	return func(e *Engine) { e.execTimeout = d }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStateReader attaches the persisted-status source consulted before a
// pending workflow is resolved. Without one the engine trusts the caller's
// snapshot.
func WithStateReader(states StateReader) Option {
	return func(e *Engine) { e.states = states }
}

// NewEngine creates a workflow engine.
func NewEngine(validator Validator, capabilities CapabilityChecker, store Store, audit AuditSink, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := &Engine{
		validator:    validator,
		capabilities: capabilities,
		store:        store,
		audit:        audit,
		locks:        NewKeyedLock(),
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Submit validates a change request and constructs its workflow. An invalid
// proposed value yields a VALIDATION_FAILED workflow (terminal, no approval
// path). A valid request from an actor holding the auto-approve capability is
// executed immediately and returned APPROVED; the caller never observes an
// approved workflow without an executed value. Otherwise the workflow is
// returned PENDING_APPROVAL.
func (e *Engine) Submit(ctx context.Context, req domain.ChangeRequest) (domain.ChangeWorkflow, error) {
	if err := req.CheckShape(); err != nil {
		return domain.ChangeWorkflow{}, &ValidationError{Reason: err.Error()}
	}

	release := e.locks.Acquire(req.TargetKey())
	defer release()

	current, exists, err := e.store.CurrentValue(ctx, req)
	if err != nil {
		// Treat a failed register lookup like any other external-lookup
		// failure during validation: the request fails validation instead of
		// the engine erroring out.
		e.logger.Warn("current value lookup failed",
			zap.String("company_id", req.CompanyID.String()),
			zap.String("kind", string(req.Kind)),
			zap.Error(err))
		return e.finishSubmit(ctx, domain.NewChangeWorkflow(req, nil,
			domain.ValidationFailure(fmt.Sprintf("unable to resolve current register value: %v", err)), e.now())), nil
	}
	if !exists {
		current = nil
	}

	validation := e.validator.Validate(ctx, req, current)
	wf := domain.NewChangeWorkflow(req, current, validation, e.now())
	wf = e.finishSubmit(ctx, wf)
	if wf.Status == domain.WorkflowValidationFailed {
		return wf, nil
	}

	if req.RequestedBy != "" && e.capabilities.CanAutoApprove(req.RequestedBy, req.Kind) {
		approved, err := e.execute(ctx, wf, req.RequestedBy, true)
		if err != nil {
			// Auto-approval could not complete; the workflow stays pending so
			// a later explicit approval can retry the write.
			return wf, err
		}
		return approved, nil
	}

	return wf, nil
}

func (e *Engine) finishSubmit(ctx context.Context, wf domain.ChangeWorkflow) domain.ChangeWorkflow {
	action := domain.AuditSubmitted
	detail := ""
	if wf.Status == domain.WorkflowValidationFailed {
		action = domain.AuditValidationFailed
		detail = strings.Join(wf.Validation.Errors, "; ")
	}
	e.recordAudit(ctx, wf, action, wf.RequestedBy, detail)
	if e.metrics != nil {
		e.metrics.RecordSubmission(wf.Status)
	}
	return wf
}

// Check runs shape and business-rule validation only, returning the would-be
// workflow without entering it into the register. Nothing is executed,
// audited or counted: the pre-commit check path has no observable effect.
func (e *Engine) Check(ctx context.Context, req domain.ChangeRequest) (domain.ChangeWorkflow, error) {
	if err := req.CheckShape(); err != nil {
		return domain.ChangeWorkflow{}, &ValidationError{Reason: err.Error()}
	}

	current, exists, err := e.store.CurrentValue(ctx, req)
	if err != nil {
		return domain.NewChangeWorkflow(req, nil,
			domain.ValidationFailure(fmt.Sprintf("unable to resolve current register value: %v", err)), e.now()), nil
	}
	if !exists {
		current = nil
	}

	validation := e.validator.Validate(ctx, req, current)
	return domain.NewChangeWorkflow(req, current, validation, e.now()), nil
}

// Approve resolves a pending workflow by executing it. It fails with
// *StateError when the workflow is not pending, and with *AuthorizationError
// when the approver lacks the approval capability. The workflow transitions
// to APPROVED only after the store confirms the write.
//
// The pending check runs twice: once against the caller's snapshot, and again
// against persisted state under the record lock, so two callers racing on the
// same workflow cannot both execute it.
func (e *Engine) Approve(ctx context.Context, wf domain.ChangeWorkflow, approver string) (domain.ChangeWorkflow, error) {
	if !wf.IsPending() {
		return wf, &StateError{Op: "approve", Status: wf.Status}
	}
	if !e.capabilities.CanApprove(approver, wf.Kind) {
		return wf, &AuthorizationError{Actor: approver, Capability: "approve:" + string(wf.Kind)}
	}

	release := e.locks.Acquire(targetKey(wf))
	defer release()

	if err := e.confirmPending(ctx, wf, "approve"); err != nil {
		return wf, err
	}

	return e.execute(ctx, wf, approver, false)
}

// Reject resolves a pending workflow without executing it. The reason must be
// non-empty; ExecutedValue stays nil permanently.
func (e *Engine) Reject(ctx context.Context, wf domain.ChangeWorkflow, actor, reason string) (domain.ChangeWorkflow, error) {
	if !wf.IsPending() {
		return wf, &StateError{Op: "reject", Status: wf.Status}
	}
	if strings.TrimSpace(reason) == "" {
		return wf, &ValidationError{Reason: "rejection reason is required"}
	}
	if !e.capabilities.CanApprove(actor, wf.Kind) {
		return wf, &AuthorizationError{Actor: actor, Capability: "approve:" + string(wf.Kind)}
	}
	if err := e.confirmPending(ctx, wf, "reject"); err != nil {
		return wf, err
	}

	rejected := wf.WithRejection(actor, e.now(), reason)
	e.recordAudit(ctx, rejected, domain.AuditRejected, actor, reason)
	if e.metrics != nil {
		e.metrics.RecordRejection()
	}
	return rejected, nil
}

// confirmPending re-reads the persisted status of the workflow. A workflow
// another caller resolved since the snapshot was loaded is refused with
// *StateError instead of being executed a second time. A workflow with no
// persisted row yet (the auto-approve path on submission) passes.
func (e *Engine) confirmPending(ctx context.Context, wf domain.ChangeWorkflow, op string) error {
	if e.states == nil {
		return nil
	}
	status, found, err := e.states.Status(ctx, wf.ID)
	if err != nil {
		return &ExecutionError{Err: fmt.Errorf("failed to confirm workflow status: %w", err)}
	}
	if found && status != domain.WorkflowPendingApproval {
		return &StateError{Op: op, Status: status}
	}
	return nil
}

// execute writes the change through the store and, only on success, produces
// the APPROVED successor. Once the write has begun it runs to completion or
// fails atomically; the engine never marks a workflow approved without a
// confirmed write.
func (e *Engine) execute(ctx context.Context, wf domain.ChangeWorkflow, approver string, auto bool) (domain.ChangeWorkflow, error) {
	execCtx := ctx
	if e.execTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.execTimeout)
		defer cancel()
	}

	executed, err := e.store.ApplyChange(execCtx, wf)
	if err != nil {
		e.logger.Error("change execution failed",
			zap.String("workflow_id", wf.ID.String()),
			zap.String("company_id", wf.CompanyID.String()),
			zap.Error(err))
		return wf, &ExecutionError{Err: err}
	}

	approved := wf.WithApproval(approver, e.now(), executed)
	action := domain.AuditApproved
	if auto {
		action = domain.AuditAutoApproved
	}
	e.recordAudit(ctx, approved, action, approver, "")
	if e.metrics != nil {
		e.metrics.RecordApproval(auto)
	}
	return approved, nil
}

func (e *Engine) recordAudit(ctx context.Context, wf domain.ChangeWorkflow, action domain.AuditAction, actor, detail string) {
	if e.audit == nil {
		return
	}
	entry := domain.NewAuditEntry(wf, action, actor, detail, e.now())
	if err := e.audit.Record(ctx, entry); err != nil {
		e.logger.Warn("audit record failed",
			zap.String("workflow_id", wf.ID.String()),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

func targetKey(wf domain.ChangeWorkflow) string {
	return wf.CompanyID.String() + "/" + string(wf.Kind) + "/" + wf.Subtype
}
