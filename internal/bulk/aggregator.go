package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/domain"
	"github.com/regworks/companies-register/internal/workflow"
)

const defaultWorkers = 4

// Submitter is the slice of the workflow engine the aggregator drives.
type Submitter interface {
	Submit(ctx context.Context, req domain.ChangeRequest) (domain.ChangeWorkflow, error)
}

// Aggregator runs a batch of change requests through the workflow engine and
// folds the per-item outcomes into one BulkUpdateResult. A single request's
// failure never aborts its siblings: failures are collected, not propagated.
type Aggregator struct {
	engine  Submitter
	workers int
	logger  *zap.Logger
}

// NewAggregator creates an aggregator with bounded worker concurrency.
func NewAggregator(engine Submitter, workers int, logger *zap.Logger) *Aggregator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{engine: engine, workers: workers, logger: logger}
}

// itemOutcome captures one request's result keyed back to its input position.
type itemOutcome struct {
	workflow domain.ChangeWorkflow
	produced bool
	errText  string
}

// Run processes every request independently and returns the aggregate result.
// Requests addressing different register records run concurrently under the
// worker bound; requests addressing the same record are processed in request
// order. Workflow order in the result always matches request order. Requests
// that cannot be turned into a workflow at all are recorded as top-level
// error strings.
func (a *Aggregator) Run(ctx context.Context, companyID uuid.UUID, requests []domain.ChangeRequest) domain.BulkUpdateResult {
	if len(requests) == 0 {
		return domain.NewBulkUpdateResult(companyID, nil, nil)
	}

	// Stamp the batch target onto requests that left it blank, working on a
	// copy so the caller's slice stays untouched. Then group by addressed
	// register record so same-record requests keep request order.
	items := make([]domain.ChangeRequest, len(requests))
	copy(items, requests)
	outcomes := make([]itemOutcome, len(items))
	groupKeys := make([]string, 0, len(items))
	groups := make(map[string][]int)
	for idx := range items {
		if items[idx].CompanyID == uuid.Nil {
			items[idx].CompanyID = companyID
		}
		key := items[idx].TargetKey()
		if _, seen := groups[key]; !seen {
			groupKeys = append(groupKeys, key)
		}
		groups[key] = append(groups[key], idx)
	}

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for _, key := range groupKeys {
		indices := groups[key]
		wg.Add(1)
		go func(indices []int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			for _, idx := range indices {
				outcomes[idx] = a.submitOne(ctx, idx, items[idx])
			}
		}(indices)
	}
	wg.Wait()

	workflows := make([]domain.ChangeWorkflow, 0, len(items))
	topErrors := make([]string, 0)
	for _, outcome := range outcomes {
		if outcome.produced {
			workflows = append(workflows, outcome.workflow)
		}
		if outcome.errText != "" {
			topErrors = append(topErrors, outcome.errText)
		}
	}

	return domain.NewBulkUpdateResult(companyID, workflows, topErrors)
}

func (a *Aggregator) submitOne(ctx context.Context, idx int, req domain.ChangeRequest) itemOutcome {
	wf, err := a.engine.Submit(ctx, req)
	if err == nil {
		return itemOutcome{workflow: wf, produced: true}
	}

	var validationErr *workflow.ValidationError
	if errors.As(err, &validationErr) {
		// Malformed input never produced a workflow; report it at the top
		// level in place of a workflow entry.
		return itemOutcome{errText: fmt.Sprintf("request %d: %s", idx+1, validationErr.Reason)}
	}

	var execErr *workflow.ExecutionError
	if errors.As(err, &execErr) && wf.ID != uuid.Nil {
		// Auto-approval write failed but the workflow exists and stays
		// pending; surface it as a pending item so the batch is not settled.
		a.logger.Warn("bulk item execution failed, kept pending",
			zap.Int("request_index", idx),
			zap.String("workflow_id", wf.ID.String()),
			zap.Error(err))
		return itemOutcome{workflow: wf, produced: true}
	}

	a.logger.Warn("bulk item failed",
		zap.Int("request_index", idx),
		zap.Error(err))
	return itemOutcome{errText: fmt.Sprintf("request %d: %v", idx+1, err)}
}
