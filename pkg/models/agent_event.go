// Package models provides the shared domain types for the Shipyard AI core.
package models

// Agent lifecycle event names as emitted on the SSE stream.
const (
	EventRunStart     = "agent.run.start"
	EventPlan         = "agent.plan"
	EventStepStart    = "agent.step.start"
	EventWaitApproval = "agent.step.wait_approval"
	EventStepResult   = "agent.step.result"
	EventRunFinish    = "agent.run.finish"
	EventRunSummary   = "agent.run.summary"
)

// RunStatus is the terminal outcome of an agent run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// PlanStep is one planned action inside an agent run.
type PlanStep struct {
	StepID      string `json:"stepId"`
	Description string `json:"description"`
	ToolName    string `json:"toolName,omitempty"`
}

// AgentEvent is the tagged union carried as the payload of agent SSE events
// and persisted as system-role transcript entries. Type selects which of the
// optional fields are meaningful.
type AgentEvent struct {
	Type              string     `json:"type"`
	RunID             string     `json:"runId"`
	Goal              string     `json:"goal,omitempty"`
	Steps             []PlanStep `json:"steps,omitempty"`
	StepID            string     `json:"stepId,omitempty"`
	Description       string     `json:"description,omitempty"`
	ToolName          string     `json:"toolName,omitempty"`
	ExecutionID       string     `json:"executionId,omitempty"`
	ParametersPreview string     `json:"parametersPreview,omitempty"`
	Success           *bool      `json:"success,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	Status            RunStatus  `json:"status,omitempty"`
}

// RunStartEvent builds the agent.run.start payload.
func RunStartEvent(runID, goal string) AgentEvent {
	return AgentEvent{Type: EventRunStart, RunID: runID, Goal: goal}
}

// PlanEvent builds the agent.plan payload with the remaining steps.
func PlanEvent(runID string, steps []PlanStep) AgentEvent {
	return AgentEvent{Type: EventPlan, RunID: runID, Steps: steps}
}

// StepStartEvent builds the agent.step.start payload.
func StepStartEvent(runID string, step PlanStep) AgentEvent {
	return AgentEvent{
		Type:        EventStepStart,
		RunID:       runID,
		StepID:      step.StepID,
		Description: step.Description,
		ToolName:    step.ToolName,
	}
}

// WaitApprovalEvent builds the agent.step.wait_approval payload.
func WaitApprovalEvent(runID, stepID, executionID, toolName, preview string) AgentEvent {
	return AgentEvent{
		Type:              EventWaitApproval,
		RunID:             runID,
		StepID:            stepID,
		ExecutionID:       executionID,
		ToolName:          toolName,
		ParametersPreview: preview,
	}
}

// StepResultEvent builds the agent.step.result payload.
func StepResultEvent(runID, stepID string, success bool, summary string) AgentEvent {
	return AgentEvent{
		Type:    EventStepResult,
		RunID:   runID,
		StepID:  stepID,
		Success: &success,
		Summary: summary,
	}
}

// RunFinishEvent builds the agent.run.finish payload.
func RunFinishEvent(runID string, status RunStatus) AgentEvent {
	return AgentEvent{Type: EventRunFinish, RunID: runID, Status: status}
}

// RunSummaryEvent builds the optional trailing agent.run.summary payload.
func RunSummaryEvent(runID, summary string) AgentEvent {
	return AgentEvent{Type: EventRunSummary, RunID: runID, Summary: summary}
}
