package automation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/events"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/logging"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// Execute runs the actions of workflowID for a firing of triggerID. Actions
// run in order and every outcome is recorded; a failing action does not
// stop the ones after it. A panic fails the whole execution.
func (e *Engine) Execute(ctx context.Context, workflowID, triggerID string) (*models.WorkflowExecution, error) {
	wf, ok := e.Get(workflowID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrWorkflowNotFound, workflowID)
	}

	started := e.sched.Now()
	exec := &models.WorkflowExecution{
		ID:         uuid.NewString(),
		WorkflowID: wf.ID,
		TriggerID:  triggerID,
		Status:     models.ExecutionPending,
		StartedAt:  started,
		Results:    make([]models.ActionResult, 0, len(wf.Actions)),
	}

	exec.Status = models.ExecutionExecuting
	var pc panics.Catcher
	pc.Try(func() {
		for _, action := range wf.Actions {
			exec.Results = append(exec.Results, e.runAction(ctx, wf, action))
		}
	})

	ended := e.sched.Now()
	exec.EndedAt = &ended
	if r := pc.Recovered(); r != nil {
		exec.Status = models.ExecutionFailed
		exec.Error = r.AsError().Error()
	} else {
		exec.Status = models.ExecutionCompleted
	}

	e.finish(exec)

	logging.LogExecution(e.logger, exec.WorkflowID, exec.ID, string(exec.Status), len(exec.Results), ended.Sub(started))
	if exec.Status == models.ExecutionFailed {
		e.emit(events.WorkflowFailed{Execution: *exec, Error: exec.Error})
	} else {
		e.emit(events.WorkflowExecuted{Execution: *exec})
	}
	if e.recorder != nil {
		if err := e.recorder.SaveExecution(ctx, exec); err != nil {
			l := logging.WithWorkflow(e.logger, exec.WorkflowID)
			l.Error().Err(err).Msg("Failed to record execution")
		}
	}
	return exec, nil
}

// finish updates the workflow counters and appends exec to the history.
func (e *Engine) finish(exec *models.WorkflowExecution) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if wf, ok := e.workflows[exec.WorkflowID]; ok {
		wf.ExecutionCount++
		n := float64(wf.ExecutionCount)
		wf.SuccessRate = (wf.SuccessRate*(n-1) + exec.SuccessFraction()) / n
		at := *exec.EndedAt
		wf.LastExecuted = &at
		for i := range wf.Triggers {
			if wf.Triggers[i].ID == exec.TriggerID {
				fired := exec.StartedAt
				wf.Triggers[i].LastFired = &fired
			}
		}
	}

	e.executions = append(e.executions, *exec)
	if limit := e.cfg.HistoryLimit; limit > 0 && len(e.executions) > limit {
		e.executions = append(e.executions[:0:0], e.executions[len(e.executions)-limit:]...)
	}
}

// runAction executes one action and reports its outcome.
func (e *Engine) runAction(ctx context.Context, wf *models.AutomationWorkflow, action models.WorkflowAction) models.ActionResult {
	result := models.ActionResult{ActionID: action.ID, Kind: action.Kind, Status: models.ExecutionCompleted}
	p := action.Params

	switch action.Kind {
	case models.ActionPlaceOrder:
		orderType := p.OrderType
		if orderType == "" {
			orderType = models.OrderTypeMarket
		}
		e.limiter.Take()
		order, err := e.broker.PlaceOrder(ctx, models.OrderRequest{
			AccountID:   p.AccountID,
			Symbol:      p.Symbol,
			Side:        p.Side,
			Type:        orderType,
			Quantity:    p.Quantity,
			LimitPrice:  p.LimitPrice,
			StopPrice:   p.StopPrice,
			TimeInForce: p.TimeInForce,
			Metadata:    map[string]string{"workflow_id": wf.ID, "action_id": action.ID},
		})
		if err != nil {
			result.Status = models.ExecutionFailed
			result.Error = err.Error()
			break
		}
		result.Result = "order " + order.ID + " placed"

	case models.ActionSendNotification:
		e.emit(events.Notification{
			WorkflowID: wf.ID,
			ActionID:   action.ID,
			Channel:    p.Channel,
			Message:    p.Message,
			Timestamp:  e.sched.Now(),
		})
		result.Result = "notification sent"

	case models.ActionClosePosition, models.ActionAdjustRisk, models.ActionRebalancePortfolio:
		result.Result = "no-op"

	default:
		result.Status = models.ExecutionFailed
		result.Error = fmt.Sprintf("unknown action kind %q", action.Kind)
	}
	return result
}

func (e *Engine) emit(ev events.Event) {
	if e.bus != nil {
		e.bus.Emit(ev)
	}
}
