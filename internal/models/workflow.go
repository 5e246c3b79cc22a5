package models

import "time"

// TriggerKind is the kind of condition a workflow trigger evaluates.
type TriggerKind string

const (
	TriggerPriceAlert         TriggerKind = "price_alert"
	TriggerTechnicalIndicator TriggerKind = "technical_indicator"
	TriggerTimeBased          TriggerKind = "time_based"
	TriggerPortfolioThreshold TriggerKind = "portfolio_threshold"
	TriggerRiskEvent          TriggerKind = "risk_event"
)

// Comparison is the comparison operator of a trigger condition.
type Comparison string

const (
	CompareAbove  Comparison = "above"
	CompareBelow  Comparison = "below"
	CompareEquals Comparison = "equals"
)

// PortfolioMetric selects what a portfolio threshold trigger measures.
type PortfolioMetric string

const (
	MetricUnrealizedLoss   PortfolioMetric = "unrealized_loss"
	MetricUnrealizedProfit PortfolioMetric = "unrealized_profit"
	MetricTotalPnL         PortfolioMetric = "total_pnl"
)

// TriggerCondition holds the parameters of a trigger.
type TriggerCondition struct {
	Symbol          string          `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Price           float64         `json:"price,omitempty" yaml:"price,omitempty"`
	Comparison      Comparison      `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	Indicator       string          `json:"indicator,omitempty" yaml:"indicator,omitempty"`
	IndicatorValue  float64         `json:"indicatorValue,omitempty" yaml:"indicator_value,omitempty"`
	PortfolioMetric PortfolioMetric `json:"portfolioMetric,omitempty" yaml:"portfolio_metric,omitempty"`
	ThresholdValue  float64         `json:"thresholdValue,omitempty" yaml:"threshold_value,omitempty"`
	AccountID       string          `json:"accountId,omitempty" yaml:"account_id,omitempty"`
	Schedule        string          `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	RiskEvent       string          `json:"riskEvent,omitempty" yaml:"risk_event,omitempty"`
}

// WorkflowTrigger is a condition evaluated against market or portfolio state.
type WorkflowTrigger struct {
	ID        string           `json:"id" yaml:"id"`
	Kind      TriggerKind      `json:"kind" yaml:"kind"`
	Condition TriggerCondition `json:"condition" yaml:"condition"`
	Active    bool             `json:"active" yaml:"active"`
	LastFired *time.Time       `json:"lastFired,omitempty" yaml:"-"`
}

// ActionKind is the kind of effect a workflow action produces.
type ActionKind string

const (
	ActionPlaceOrder         ActionKind = "place_order"
	ActionClosePosition      ActionKind = "close_position"
	ActionSendNotification   ActionKind = "send_notification"
	ActionAdjustRisk         ActionKind = "adjust_risk"
	ActionRebalancePortfolio ActionKind = "rebalance_portfolio"
)

// ActionParams holds the parameters of an action.
type ActionParams struct {
	Symbol      string      `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Side        OrderSide   `json:"side,omitempty" yaml:"side,omitempty"`
	OrderType   OrderType   `json:"orderType,omitempty" yaml:"order_type,omitempty"`
	Quantity    float64     `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	LimitPrice  float64     `json:"limitPrice,omitempty" yaml:"limit_price,omitempty"`
	StopPrice   float64     `json:"stopPrice,omitempty" yaml:"stop_price,omitempty"`
	TimeInForce TimeInForce `json:"timeInForce,omitempty" yaml:"time_in_force,omitempty"`
	AccountID   string      `json:"accountId,omitempty" yaml:"account_id,omitempty"`
	Message     string      `json:"message,omitempty" yaml:"message,omitempty"`
	Channel     string      `json:"channel,omitempty" yaml:"channel,omitempty"`
	Percentage  float64     `json:"percentage,omitempty" yaml:"percentage,omitempty"`
}

// WorkflowAction is an effect executed when a trigger fires.
type WorkflowAction struct {
	ID     string       `json:"id" yaml:"id"`
	Kind   ActionKind   `json:"kind" yaml:"kind"`
	Params ActionParams `json:"params" yaml:"params"`
}

// AutomationWorkflow bundles triggers and actions.
type AutomationWorkflow struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Description    string            `json:"description" yaml:"description"`
	Active         bool              `json:"active" yaml:"active"`
	Triggers       []WorkflowTrigger `json:"triggers" yaml:"triggers"`
	Actions        []WorkflowAction  `json:"actions" yaml:"actions"`
	ExecutionCount int               `json:"executionCount" yaml:"-"`
	SuccessRate    float64           `json:"successRate" yaml:"-"`
	LastExecuted   *time.Time        `json:"lastExecuted,omitempty" yaml:"-"`
	CreatedAt      time.Time         `json:"createdAt" yaml:"-"`
	UpdatedAt      time.Time         `json:"updatedAt" yaml:"-"`
}

// Clone returns a deep copy of the workflow.
func (w *AutomationWorkflow) Clone() *AutomationWorkflow {
	c := *w
	c.Triggers = make([]WorkflowTrigger, len(w.Triggers))
	for i, t := range w.Triggers {
		if t.LastFired != nil {
			lf := *t.LastFired
			t.LastFired = &lf
		}
		c.Triggers[i] = t
	}
	c.Actions = append([]WorkflowAction(nil), w.Actions...)
	if w.LastExecuted != nil {
		le := *w.LastExecuted
		c.LastExecuted = &le
	}
	return &c
}

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionExecuting ExecutionStatus = "executing"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ActionResult is the recorded outcome of one action in an execution.
type ActionResult struct {
	ActionID string          `json:"actionId"`
	Kind     ActionKind      `json:"kind"`
	Status   ExecutionStatus `json:"status"`
	Result   string          `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// WorkflowExecution is one run of a workflow's actions for one trigger firing.
type WorkflowExecution struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflowId"`
	TriggerID  string          `json:"triggerId"`
	Status     ExecutionStatus `json:"status"`
	StartedAt  time.Time       `json:"startedAt"`
	EndedAt    *time.Time      `json:"endedAt,omitempty"`
	Results    []ActionResult  `json:"results"`
	Error      string          `json:"error,omitempty"`
}

// SuccessFraction is completed actions over total actions, 1 for an empty run.
func (e *WorkflowExecution) SuccessFraction() float64 {
	if len(e.Results) == 0 {
		if e.Status == ExecutionFailed {
			return 0
		}
		return 1
	}
	ok := 0
	for _, r := range e.Results {
		if r.Status == ExecutionCompleted {
			ok++
		}
	}
	return float64(ok) / float64(len(e.Results))
}

// WorkflowMetrics aggregates automation statistics.
type WorkflowMetrics struct {
	TotalWorkflows   int     `json:"totalWorkflows"`
	ActiveWorkflows  int     `json:"activeWorkflows"`
	TotalExecutions  int     `json:"totalExecutions"`
	SuccessRate      float64 `json:"successRate"`
	TriggersToday    int     `json:"triggersToday"`
	ActionsToday     int     `json:"actionsToday"`
	FailedExecutions int     `json:"failedExecutions"`
}
