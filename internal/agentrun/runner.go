// Package agentrun drives the goal-directed agent loop: plan, execute steps,
// pause for approvals, re-plan once after a failure, and finish with a
// terminal status.
package agentrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/shipyard/internal/conversations"
	"github.com/haasonsaas/shipyard/internal/llm"
	"github.com/haasonsaas/shipyard/internal/metrics"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

// DefaultRunTimeout bounds a whole run, approval pauses included.
const DefaultRunTimeout = 10 * time.Minute

const parametersPreviewLimit = 300

// EventSink receives the lifecycle events. The SSE emitter satisfies it.
type EventSink interface {
	Emit(name string, payload any) error
}

// ProviderFactory builds a streaming provider from a model binding.
type ProviderFactory func(ai *models.AI) (llm.Provider, error)

// Runner executes agent runs.
type Runner struct {
	store      conversations.Store
	registry   *tool.Registry
	providers  ProviderFactory
	waiter     *conversations.Waiter
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewRunner wires the loop. providers defaults to llm.New.
func NewRunner(store conversations.Store, registry *tool.Registry, providers ProviderFactory, runTimeout time.Duration) *Runner {
	if providers == nil {
		providers = llm.New
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	return &Runner{
		store:      store,
		registry:   registry,
		providers:  providers,
		waiter:     conversations.NewWaiter(store),
		runTimeout: runTimeout,
		logger:     slog.Default().With("component", "agent_runner"),
	}
}

// RunInput starts one agent run.
type RunInput struct {
	ConversationID string
	Goal           string
	AIID           string
	ToolContext    tool.Context
}

type step struct {
	models.PlanStep
	params map[string]any
}

// Run executes the loop, emitting events until agent.run.finish. Every event
// is also persisted as a system-role transcript entry.
func (r *Runner) Run(ctx context.Context, in RunInput, sink EventSink) error {
	start := time.Now()
	defer func() {
		metrics.StreamDuration.WithLabelValues("agent").Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	runID := uuid.NewString()
	conv, err := r.resolveConversation(ctx, in)
	if err != nil {
		sink.Emit("error", map[string]string{"message": err.Error()})
		return err
	}

	emit := func(ev models.AgentEvent) {
		sink.Emit(ev.Type, ev)
		r.persistEvent(conv.ID, ev)
	}

	emit(models.RunStartEvent(runID, in.Goal))

	planner, err := r.planner(ctx, conv.AIID)
	if err != nil {
		sink.Emit("error", map[string]string{"message": err.Error()})
		return err
	}

	steps, err := r.plan(ctx, planner, in.Goal)
	if err != nil {
		emit(models.RunFinishEvent(runID, models.RunFailed))
		return err
	}
	emit(models.PlanEvent(runID, planSteps(steps)))

	replanned := false
	succeeded := 0
	failed := 0

	for i := 0; i < len(steps); i++ {
		if ctx.Err() != nil {
			emit(models.RunFinishEvent(runID, abortStatus(ctx)))
			return ctx.Err()
		}
		st := steps[i]
		emit(models.StepStartEvent(runID, st.PlanStep))

		ok, summary := r.runStep(ctx, conv, runID, st, in.ToolContext, emit)
		emit(models.StepResultEvent(runID, st.StepID, ok, summary))

		if ok {
			succeeded++
			continue
		}
		failed++

		if ctx.Err() != nil {
			emit(models.RunFinishEvent(runID, abortStatus(ctx)))
			return ctx.Err()
		}

		// One corrective re-plan per run, carrying the failure context.
		if !replanned && i < len(steps) {
			replanned = true
			remaining, err := r.replan(ctx, planner, in.Goal, st, summary)
			if err != nil {
				r.logger.Warn("re-plan failed", "run", runID, "error", err)
				break
			}
			steps = remaining
			emit(models.PlanEvent(runID, planSteps(steps)))
			i = -1
			failed = 0
			succeeded = 0
			continue
		}
		break
	}

	status := models.RunCompleted
	if failed > 0 {
		status = models.RunFailed
	}
	emit(models.RunFinishEvent(runID, status))
	emit(models.RunSummaryEvent(runID, fmt.Sprintf("%d of %d steps succeeded", succeeded, succeeded+failed)))
	return nil
}

func (r *Runner) runStep(ctx context.Context, conv *models.Conversation, runID string, st step, tc tool.Context, emit func(models.AgentEvent)) (bool, string) {
	if st.ToolName == "" {
		// Informational step, nothing to execute.
		return true, st.Description
	}

	def, known := r.registry.Get(st.ToolName)
	if !known {
		return false, "unknown tool: " + st.ToolName
	}

	args, err := json.Marshal(st.params)
	if err != nil {
		return false, "invalid parameters: " + err.Error()
	}
	if _, problems := def.Params.Validate(args); len(problems) > 0 {
		return false, "invalid parameters: " + problems[0]
	}

	if r.registry.RequiresApproval(st.ToolName) {
		exec, err := r.store.CreateExecution(ctx, &models.ToolExecution{
			ConversationID: conv.ID,
			ToolName:       st.ToolName,
			Arguments:      args,
			Status:         models.ExecutionPending,
		})
		if err != nil {
			return false, "failed to create execution: " + err.Error()
		}
		emit(models.WaitApprovalEvent(runID, st.StepID, exec.ID, st.ToolName, preview(args)))

		decided, err := r.waiter.WaitDecision(ctx, exec.ID)
		if err != nil {
			return false, "approval wait aborted: " + err.Error()
		}
		if decided.Status != models.ExecutionApproved {
			return false, "rejected by user"
		}

		if _, applied, err := r.store.TransitionExecution(ctx, exec.ID, models.ExecutionApproved, models.ExecutionExecuting, nil); err != nil || !applied {
			return false, "execution already claimed"
		}
		result := r.registry.Execute(ctx, st.ToolName, args, tc)
		final := models.ExecutionCompleted
		if !result.Success {
			final = models.ExecutionFailed
		}
		if _, _, err := r.store.TransitionExecution(ctx, exec.ID, models.ExecutionExecuting, final, result); err != nil {
			r.logger.Error("persist step result failed", "execution", exec.ID, "error", err)
		}
		return result.Success, resultSummary(result)
	}

	result := r.registry.Execute(ctx, st.ToolName, args, tc)
	return result.Success, resultSummary(result)
}

func (r *Runner) resolveConversation(ctx context.Context, in RunInput) (*models.Conversation, error) {
	if in.ConversationID != "" {
		conv, err := r.store.GetConversation(ctx, in.ConversationID)
		if err != nil || conv.OwnerUserID != in.ToolContext.UserID {
			return nil, fmt.Errorf("conversation not found")
		}
		return conv, nil
	}
	return r.store.CreateConversation(ctx, &models.Conversation{
		OwnerUserID:    in.ToolContext.UserID,
		OrganizationID: in.ToolContext.OrganizationID,
		ProjectID:      in.ToolContext.ProjectID,
		ServerID:       in.ToolContext.ServerID,
		AIID:           in.AIID,
	})
}

func (r *Runner) planner(ctx context.Context, aiID string) (*llm.Planner, error) {
	ai, err := r.store.GetAI(ctx, aiID)
	if err != nil {
		return nil, fmt.Errorf("unknown model binding")
	}
	provider, err := r.providers(ai)
	if err != nil {
		return nil, err
	}
	return llm.NewPlanner(provider, ai.Model), nil
}

func (r *Runner) plan(ctx context.Context, planner *llm.Planner, goal string) ([]step, error) {
	plan, err := planner.Plan(ctx, goal, r.toolSpecs())
	if err != nil {
		return nil, err
	}
	return numberSteps(plan.Steps, 1), nil
}

func (r *Runner) replan(ctx context.Context, planner *llm.Planner, goal string, failedStep step, failure string) ([]step, error) {
	prompt := fmt.Sprintf(
		"%s\n\nThe previous attempt failed at step %q (%s): %s. Produce a corrected plan for the remaining work.",
		goal, failedStep.StepID, failedStep.Description, failure)
	plan, err := planner.Plan(ctx, prompt, r.toolSpecs())
	if err != nil {
		return nil, err
	}
	return numberSteps(plan.Steps, 1), nil
}

func (r *Runner) persistEvent(conversationID string, ev models.AgentEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.store.AppendMessage(ctx, &models.Message{
		ConversationID: conversationID,
		Role:           models.RoleSystem,
		Content:        string(raw),
		Status:         models.MessageSent,
	}); err != nil {
		r.logger.Warn("persist agent event failed", "conversation", conversationID, "error", err)
	}
}

func (r *Runner) toolSpecs() []llm.ToolSpec {
	defs := r.registry.All()
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

func numberSteps(planned []llm.PlanStep, startAt int) []step {
	steps := make([]step, 0, len(planned))
	for i, ps := range planned {
		steps = append(steps, step{
			PlanStep: models.PlanStep{
				StepID:      fmt.Sprintf("s%d", startAt+i),
				Description: ps.Description,
				ToolName:    ps.Tool,
			},
			params: ps.Params,
		})
	}
	return steps
}

func planSteps(steps []step) []models.PlanStep {
	out := make([]models.PlanStep, len(steps))
	for i, st := range steps {
		out[i] = st.PlanStep
	}
	return out
}

// abortStatus maps an aborted run context to its terminal status: the run
// timeout expiring is a failure, anything else is a client cancellation.
func abortStatus(ctx context.Context) models.RunStatus {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.RunFailed
	}
	return models.RunCancelled
}

func preview(args []byte) string {
	s := string(args)
	if len(s) > parametersPreviewLimit {
		s = s[:parametersPreviewLimit] + "…"
	}
	return s
}

func resultSummary(result *models.ToolResult) string {
	if result.Message != "" {
		return result.Message
	}
	if result.Error != "" {
		return result.Error
	}
	if result.Success {
		return "step completed"
	}
	return "step failed"
}
