// Package chat drives the single-turn conversation stream: it persists the
// transcript, relays model deltas, dispatches auto-approve tools inline and
// parks approval-gated calls as pending executions.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/haasonsaas/shipyard/internal/conversations"
	"github.com/haasonsaas/shipyard/internal/llm"
	"github.com/haasonsaas/shipyard/internal/metrics"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

// Stream event names.
const (
	EventDelta       = "delta"
	EventToolCall    = "tool-call"
	EventToolResult  = "tool-result"
	EventDone        = "done"
	EventError       = "error"
	EventStreamError = "stream-error"
)

// EventSink receives the typed stream events. The SSE emitter satisfies it.
type EventSink interface {
	Emit(name string, payload any) error
}

// ProviderFactory builds a streaming provider from a model binding.
type ProviderFactory func(ai *models.AI) (llm.Provider, error)

// Service is the chat streaming pipeline.
type Service struct {
	store     conversations.Store
	registry  *tool.Registry
	providers ProviderFactory
	logger    *slog.Logger
}

// NewService wires the pipeline. providers defaults to llm.New.
func NewService(store conversations.Store, registry *tool.Registry, providers ProviderFactory) *Service {
	if providers == nil {
		providers = llm.New
	}
	return &Service{
		store:     store,
		registry:  registry,
		providers: providers,
		logger:    slog.Default().With("component", "chat"),
	}
}

// StreamInput is one chat turn.
type StreamInput struct {
	ConversationID string
	Message        string
	AIID           string
	ToolContext    tool.Context
}

// Stream runs one chat turn, emitting events to the sink until done/error.
// A cancelled ctx (client disconnect) seals the assistant message with its
// partial content.
func (s *Service) Stream(ctx context.Context, in StreamInput, sink EventSink) error {
	start := time.Now()
	defer func() {
		metrics.StreamDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	}()

	conv, err := s.resolveConversation(ctx, in)
	if err != nil {
		sink.Emit(EventError, map[string]string{"message": err.Error()})
		return err
	}

	if _, err := s.store.AppendMessage(ctx, &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        in.Message,
		Status:         models.MessageSent,
	}); err != nil {
		sink.Emit(EventError, map[string]string{"message": "failed to persist message"})
		return err
	}

	assistant, err := s.store.AppendMessage(ctx, &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Status:         models.MessageSending,
	})
	if err != nil {
		sink.Emit(EventError, map[string]string{"message": "failed to start assistant message"})
		return err
	}

	ai, err := s.store.GetAI(ctx, conv.AIID)
	if err != nil {
		s.sealAssistant(assistant, models.MessageError)
		sink.Emit(EventError, map[string]string{"message": "unknown model binding"})
		return err
	}
	provider, err := s.providers(ai)
	if err != nil {
		s.sealAssistant(assistant, models.MessageError)
		sink.Emit(EventError, map[string]string{"message": err.Error()})
		return err
	}

	transcript, err := s.store.Messages(ctx, conv.ID)
	if err != nil {
		s.sealAssistant(assistant, models.MessageError)
		sink.Emit(EventError, map[string]string{"message": "failed to load transcript"})
		return err
	}
	// Drop the empty assistant placeholder from the prompt.
	prompt := make([]*models.Message, 0, len(transcript))
	for _, m := range transcript {
		if m.ID == assistant.ID {
			continue
		}
		prompt = append(prompt, m)
	}

	chunks, err := provider.Stream(ctx, &llm.Request{
		Model:    ai.Model,
		System:   systemPrompt,
		Messages: prompt,
		Tools:    s.toolSpecs(),
	})
	if err != nil {
		s.sealAssistant(assistant, models.MessageError)
		sink.Emit(EventStreamError, map[string]string{"message": err.Error()})
		return err
	}

	var content strings.Builder
	for chunk := range chunks {
		select {
		case <-ctx.Done():
			// Client went away: keep the partial content, never leave the
			// message in sending.
			assistant.Content = content.String()
			s.sealAssistant(assistant, models.MessageSent)
			return ctx.Err()
		default:
		}

		switch {
		case chunk.Err != nil:
			assistant.Content = content.String()
			s.sealAssistant(assistant, models.MessageError)
			sink.Emit(EventStreamError, map[string]string{"message": chunk.Err.Error()})
			return chunk.Err

		case chunk.Text != "":
			content.WriteString(chunk.Text)
			assistant.Content = content.String()
			if err := s.store.UpdateMessage(ctx, assistant); err != nil {
				s.logger.Warn("persist delta failed", "error", err)
			}
			sink.Emit(EventDelta, map[string]string{"delta": chunk.Text})

		case chunk.ToolCall != nil:
			assistant.ToolCalls = append(assistant.ToolCalls, *chunk.ToolCall)
			if err := s.store.UpdateMessage(ctx, assistant); err != nil {
				s.logger.Warn("persist tool call failed", "error", err)
			}
			if err := s.handleToolCall(ctx, conv, chunk.ToolCall, in.ToolContext, sink); err != nil {
				s.logger.Warn("tool call handling failed", "tool", chunk.ToolCall.Name, "error", err)
			}
		}
	}

	assistant.Content = content.String()
	s.sealAssistant(assistant, models.MessageSent)
	sink.Emit(EventDone, map[string]any{"conversationId": conv.ID})
	return nil
}

func (s *Service) resolveConversation(ctx context.Context, in StreamInput) (*models.Conversation, error) {
	if in.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, in.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("conversation not found")
		}
		if conv.OwnerUserID != in.ToolContext.UserID {
			return nil, fmt.Errorf("conversation not found")
		}
		return conv, nil
	}
	return s.store.CreateConversation(ctx, &models.Conversation{
		OwnerUserID:    in.ToolContext.UserID,
		OrganizationID: in.ToolContext.OrganizationID,
		ProjectID:      in.ToolContext.ProjectID,
		ServerID:       in.ToolContext.ServerID,
		AIID:           in.AIID,
	})
}

func (s *Service) handleToolCall(ctx context.Context, conv *models.Conversation, call *models.ToolCall, tc tool.Context, sink EventSink) error {
	sink.Emit(EventToolCall, map[string]any{
		"toolCallId": call.ID,
		"name":       call.Name,
		"arguments":  string(call.Arguments),
	})

	// Only calls that pass schema validation are parked for approval; invalid
	// or unknown calls fall through to Execute for the canonical failure
	// result instead of asking the user to approve something that cannot run.
	gated := false
	if def, known := s.registry.Get(call.Name); known && def.RequiresApproval {
		_, problems := def.Params.Validate(call.Arguments)
		gated = len(problems) == 0
	}

	if gated {
		exec, err := s.store.CreateExecution(ctx, &models.ToolExecution{
			ConversationID: conv.ID,
			ToolCallID:     call.ID,
			ToolName:       call.Name,
			Arguments:      call.Arguments,
			Status:         models.ExecutionPending,
		})
		if err != nil {
			return fmt.Errorf("create execution: %w", err)
		}
		sink.Emit(EventToolResult, map[string]any{
			"toolCallId":  call.ID,
			"status":      string(models.ExecutionPending),
			"executionId": exec.ID,
		})
		return nil
	}

	result := s.registry.Execute(ctx, call.Name, call.Arguments, tc)
	sink.Emit(EventToolResult, toolResultPayload(call.ID, result))

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.store.AppendMessage(ctx, &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleTool,
		Content:        string(resultJSON),
		ToolCallID:     call.ID,
		Status:         models.MessageSent,
	})
	return err
}

func (s *Service) sealAssistant(assistant *models.Message, status models.MessageStatus) {
	assistant.Status = status
	// Sealing runs on cancelled request contexts too.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.UpdateMessage(ctx, assistant); err != nil {
		s.logger.Error("seal assistant message failed", "message", assistant.ID, "error", err)
	}
}

func (s *Service) toolSpecs() []llm.ToolSpec {
	defs := s.registry.All()
	specs := make([]llm.ToolSpec, 0, len(defs))
	for _, def := range defs {
		specs = append(specs, llm.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Params.Doc(),
		})
	}
	return specs
}

func toolResultPayload(toolCallID string, result *models.ToolResult) map[string]any {
	payload := map[string]any{
		"toolCallId": toolCallID,
		"success":    result.Success,
	}
	if result.Message != "" {
		payload["message"] = result.Message
	}
	if result.Data != nil {
		payload["data"] = result.Data
	}
	if result.Error != "" {
		payload["error"] = result.Error
	}
	if len(result.SuggestedNextSteps) > 0 {
		payload["suggestedNextSteps"] = result.SuggestedNextSteps
	}
	return payload
}

// Approve records an approval decision. Deciding an already-decided
// execution is a no-op that returns the settled row.
func (s *Service) Approve(ctx context.Context, executionID string, approved bool) (*models.ToolExecution, error) {
	to := models.ExecutionApproved
	decision := "approved"
	if !approved {
		to = models.ExecutionRejected
		decision = "rejected"
	}
	exec, applied, err := s.store.TransitionExecution(ctx, executionID, models.ExecutionPending, to, nil)
	if err != nil {
		return nil, err
	}
	if applied {
		metrics.Approvals.WithLabelValues(decision).Inc()
	}
	return exec, nil
}

// ErrNotApproved marks an execute attempt on an undecided or rejected row.
var ErrNotApproved = errors.New("execution is not approved")

// ExecuteApproved invokes the tool behind an approved execution exactly
// once. Replays return the cached result.
func (s *Service) ExecuteApproved(ctx context.Context, executionID string, tc tool.Context) (*models.ToolResult, error) {
	exec, applied, err := s.store.TransitionExecution(ctx, executionID, models.ExecutionApproved, models.ExecutionExecuting, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		switch exec.Status {
		case models.ExecutionCompleted, models.ExecutionFailed:
			// Replay: hand back the stored result without re-running.
			if exec.Result != nil {
				return exec.Result, nil
			}
			return models.Fail("Execution finished without a result", models.ErrCodeBadRequest), nil
		case models.ExecutionExecuting:
			return models.Fail("Execution is already in progress", models.ErrCodeBadRequest), nil
		default:
			return nil, ErrNotApproved
		}
	}

	result := s.registry.Execute(ctx, exec.ToolName, exec.Arguments, tc)
	final := models.ExecutionCompleted
	if !result.Success {
		final = models.ExecutionFailed
	}
	if _, _, err := s.store.TransitionExecution(ctx, executionID, models.ExecutionExecuting, final, result); err != nil {
		s.logger.Error("persist execution result failed", "execution", executionID, "error", err)
	}

	if resultJSON, err := json.Marshal(result); err == nil {
		_, appendErr := s.store.AppendMessage(ctx, &models.Message{
			ConversationID: exec.ConversationID,
			Role:           models.RoleTool,
			Content:        string(resultJSON),
			ToolCallID:     exec.ToolCallID,
			Status:         models.MessageSent,
		})
		if appendErr != nil {
			s.logger.Warn("append tool message failed", "execution", executionID, "error", appendErr)
		}
	}
	return result, nil
}

// Executions returns status rows for the given ids; unknown ids are skipped.
func (s *Service) Executions(ctx context.Context, executionIDs []string) ([]*models.ToolExecution, error) {
	return s.store.ListExecutions(ctx, executionIDs)
}

const systemPrompt = "You are an infrastructure assistant. Use the available tools to " +
	"inspect and manage projects, applications, databases and servers. Never invent " +
	"confirm values; ask the user to supply them for destructive operations."
