package automation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// Load creates every workflow in wfs, stopping at the first invalid one.
func (e *Engine) Load(wfs []models.AutomationWorkflow) error {
	for _, wf := range wfs {
		if _, err := e.Create(wf); err != nil {
			return fmt.Errorf("loading workflow %q: %w", wf.Name, err)
		}
	}
	return nil
}

// Create validates wf, assigns missing ids and adds it to the engine.
func (e *Engine) Create(wf models.AutomationWorkflow) (*models.AutomationWorkflow, error) {
	if err := validateWorkflow(wf); err != nil {
		return nil, err
	}

	created := wf.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	assignIDs(created)
	now := e.sched.Now()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.ExecutionCount = 0
	created.SuccessRate = 0
	created.LastExecuted = nil

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.workflows[created.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate id %s", errors.ErrInvalidWorkflow, created.ID)
	}
	e.workflows[created.ID] = created
	e.order = append(e.order, created.ID)
	return created.Clone(), nil
}

// Update replaces the definition of workflow wf.ID, keeping its counters.
func (e *Engine) Update(wf models.AutomationWorkflow) (*models.AutomationWorkflow, error) {
	if err := validateWorkflow(wf); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.workflows[wf.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrWorkflowNotFound, wf.ID)
	}
	next := wf.Clone()
	assignIDs(next)
	current.Name = next.Name
	current.Description = next.Description
	current.Active = next.Active
	current.Triggers = next.Triggers
	current.Actions = next.Actions
	current.UpdatedAt = e.sched.Now()
	return current.Clone(), nil
}

// SetActive enables or disables a workflow.
func (e *Engine) SetActive(id string, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wf, ok := e.workflows[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrWorkflowNotFound, id)
	}
	wf.Active = active
	wf.UpdatedAt = e.sched.Now()
	return nil
}

// Delete removes a workflow. Its execution history is kept.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.workflows[id]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrWorkflowNotFound, id)
	}
	delete(e.workflows, id)
	for i, wid := range e.order {
		if wid == id {
			e.order = append(e.order[:i:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of one workflow.
func (e *Engine) Get(id string) (*models.AutomationWorkflow, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	wf, ok := e.workflows[id]
	if !ok {
		return nil, false
	}
	return wf.Clone(), true
}

// All returns copies of every workflow in creation order.
func (e *Engine) All() []*models.AutomationWorkflow {
	return e.filter(func(*models.AutomationWorkflow) bool { return true })
}

// Active returns copies of the active workflows in creation order.
func (e *Engine) Active() []*models.AutomationWorkflow {
	return e.filter(func(wf *models.AutomationWorkflow) bool { return wf.Active })
}

func (e *Engine) filter(keep func(*models.AutomationWorkflow) bool) []*models.AutomationWorkflow {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.AutomationWorkflow, 0, len(e.order))
	for _, id := range e.order {
		if wf := e.workflows[id]; keep(wf) {
			out = append(out, wf.Clone())
		}
	}
	return out
}

// Executions returns the execution history of workflowID, oldest first. An
// empty workflowID returns every execution.
func (e *Engine) Executions(workflowID string) []models.WorkflowExecution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.WorkflowExecution, 0)
	for _, exec := range e.executions {
		if workflowID == "" || exec.WorkflowID == workflowID {
			out = append(out, exec)
		}
	}
	return out
}

// Metrics aggregates workflow and execution statistics. "Today" is the
// scheduler's current UTC date.
func (e *Engine) Metrics() models.WorkflowMetrics {
	now := e.sched.Now().UTC()
	y, m, d := now.Date()

	e.mu.RLock()
	defer e.mu.RUnlock()

	var metrics models.WorkflowMetrics
	metrics.TotalWorkflows = len(e.workflows)
	for _, wf := range e.workflows {
		if wf.Active {
			metrics.ActiveWorkflows++
		}
	}

	var fractions float64
	for i := range e.executions {
		exec := &e.executions[i]
		metrics.TotalExecutions++
		fractions += exec.SuccessFraction()
		if exec.Status == models.ExecutionFailed {
			metrics.FailedExecutions++
		}
		if ey, em, ed := exec.StartedAt.UTC().Date(); ey == y && em == m && ed == d {
			metrics.TriggersToday++
			metrics.ActionsToday += len(exec.Results)
		}
	}
	if metrics.TotalExecutions > 0 {
		metrics.SuccessRate = fractions / float64(metrics.TotalExecutions)
	}
	return metrics
}

// validateWorkflow checks names and kinds, reporting every violation.
func validateWorkflow(wf models.AutomationWorkflow) error {
	v := errors.NewValidationErrors(errors.ErrInvalidWorkflow)
	if wf.Name == "" {
		v.Add("name", wf.Name, "is required")
	}
	for i, t := range wf.Triggers {
		switch t.Kind {
		case models.TriggerPriceAlert, models.TriggerPortfolioThreshold,
			models.TriggerTechnicalIndicator, models.TriggerTimeBased, models.TriggerRiskEvent:
		default:
			v.Add(fmt.Sprintf("triggers[%d].kind", i), t.Kind, "unknown trigger kind")
		}
	}
	for i, a := range wf.Actions {
		switch a.Kind {
		case models.ActionPlaceOrder, models.ActionSendNotification, models.ActionClosePosition,
			models.ActionAdjustRisk, models.ActionRebalancePortfolio:
		default:
			v.Add(fmt.Sprintf("actions[%d].kind", i), a.Kind, "unknown action kind")
		}
	}
	return v.Err()
}

func assignIDs(wf *models.AutomationWorkflow) {
	for i := range wf.Triggers {
		if wf.Triggers[i].ID == "" {
			wf.Triggers[i].ID = uuid.NewString()
		}
	}
	for i := range wf.Actions {
		if wf.Actions[i].ID == "" {
			wf.Actions[i].ID = uuid.NewString()
		}
	}
}
