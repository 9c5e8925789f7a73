package models

import (
	"encoding/json"
	"time"
)

// RiskLevel classifies how dangerous a tool invocation is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Error identifiers returned in ToolResult.Error for classified failures.
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION"
)

// ToolCall is a single tool invocation proposed by the language model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// SuggestedStep describes a follow-up tool call a failed tool proposes as
// remediation, consumed by the agent loop and the UI.
type SuggestedStep struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// ToolResult is the uniform result envelope every tool returns.
// Invariant: Success=true implies Error is empty.
type ToolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	// SuggestedNextSteps carries remediation proposals (e.g. the bind-mount
	// allowlist update flow). Serialized inside Data for transport but kept
	// addressable here for the agent loop.
	SuggestedNextSteps []SuggestedStep `json:"suggestedNextSteps,omitempty"`
}

// OK builds a successful result with a human-readable message and payload.
func OK(message string, data any) *ToolResult {
	return &ToolResult{Success: true, Message: message, Data: data}
}

// Fail builds a failed result with a message and an error identifier or detail.
func Fail(message, errDetail string) *ToolResult {
	return &ToolResult{Success: false, Message: message, Error: errDetail}
}

// Unauthorized builds the canonical access-control failure result.
func Unauthorized(message string) *ToolResult {
	return &ToolResult{Success: false, Message: message, Error: ErrCodeUnauthorized}
}

// NotFound builds the canonical entity-absent failure result.
func NotFound(message string) *ToolResult {
	return &ToolResult{Success: false, Message: message, Error: ErrCodeNotFound}
}

// ExecutionStatus is the lifecycle state of a persisted tool execution.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending_approval"
	ExecutionApproved  ExecutionStatus = "approved"
	ExecutionRejected  ExecutionStatus = "rejected"
	ExecutionExecuting ExecutionStatus = "executing"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionRejected || s == ExecutionCompleted || s == ExecutionFailed
}

// ToolExecution is the persistent record of an approval-gated invocation.
type ToolExecution struct {
	ID             string          `json:"executionId"`
	ConversationID string          `json:"conversationId"`
	ToolCallID     string          `json:"toolCallId"`
	ToolName       string          `json:"toolName"`
	Arguments      json.RawMessage `json:"arguments,omitempty"`
	Status         ExecutionStatus `json:"status"`
	Result         *ToolResult     `json:"result,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
