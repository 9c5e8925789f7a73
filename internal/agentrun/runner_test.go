package agentrun

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/haasonsaas/shipyard/internal/conversations"
	"github.com/haasonsaas/shipyard/internal/llm"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

type recordedEvent struct {
	Name    string
	Payload models.AgentEvent
}

type recordingSink struct {
	mu      sync.Mutex
	events  []recordedEvent
	arrived chan recordedEvent
}

func newRecordingSink() *recordingSink {
	return &recordingSink{arrived: make(chan recordedEvent, 64)}
}

func (s *recordingSink) Emit(name string, payload any) error {
	var ev models.AgentEvent
	if raw, err := json.Marshal(payload); err == nil {
		json.Unmarshal(raw, &ev)
	}
	rec := recordedEvent{Name: name, Payload: ev}
	s.mu.Lock()
	s.events = append(s.events, rec)
	s.mu.Unlock()
	s.arrived <- rec
	return nil
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Name
	}
	return out
}

func (s *recordingSink) waitFor(t *testing.T, name string) recordedEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-s.arrived:
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("event %s never arrived; saw %v", name, s.names())
		}
	}
}

func planTurn(steps ...llm.PlanStep) llm.Turn {
	plan := llm.Plan{Goal: "goal", Steps: steps}
	raw, _ := json.Marshal(plan)
	return llm.TextTurn(string(raw))
}

func newTestRunner(t *testing.T, turns ...llm.Turn) (*Runner, *conversations.MemoryStore, *int, *int) {
	t.Helper()
	store := conversations.NewMemoryStore()
	store.SeedAI(&models.AI{ID: "A", OrganizationID: "org-1", Provider: "openai", Model: "gpt-4o", Enabled: true})

	reg := tool.NewRegistry()
	creates, deploys := 0, 0
	reg.MustRegister(&tool.Def{
		Name:             "postgres_create",
		Description:      "Create a Postgres database.",
		Category:         tool.CategoryPostgres,
		Risk:             models.RiskMedium,
		RequiresApproval: true,
		Params: tool.NewSchema(map[string]*tool.Field{
			"name": tool.String("Database name."),
		}),
		Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
			creates++
			return models.OK("database created", nil), nil
		},
	})
	reg.MustRegister(&tool.Def{
		Name:        "application_deploy_status",
		Description: "Check deploy status.",
		Category:    tool.CategoryApplication,
		Risk:        models.RiskLow,
		Params:      tool.NewSchema(nil),
		Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
			deploys++
			return models.OK("deployed", nil), nil
		},
	})

	provider := llm.NewScriptedProvider(turns...)
	runner := NewRunner(store, reg, func(ai *models.AI) (llm.Provider, error) { return provider, nil }, time.Minute)
	return runner, store, &creates, &deploys
}

// Event order for a plan whose first step pauses for approval:
// run.start, plan, step.start, wait_approval, step.result, step.start,
// step.result, run.finish(completed).
func TestRunApprovalPauseAndResume(t *testing.T) {
	runner, store, creates, deploys := newTestRunner(t, planTurn(
		llm.PlanStep{Description: "create database", Tool: "postgres_create", Params: map[string]any{"name": "appdb"}},
		llm.PlanStep{Description: "verify deploy", Tool: "application_deploy_status"},
	))

	sink := newRecordingSink()
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(context.Background(), RunInput{
			Goal:        "Add a Postgres and deploy app X",
			AIID:        "A",
			ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
		}, sink)
	}()

	wait := sink.waitFor(t, models.EventWaitApproval)
	if wait.Payload.ToolName != "postgres_create" || wait.Payload.ExecutionID == "" {
		t.Fatalf("wait_approval payload = %+v", wait.Payload)
	}
	if *creates != 0 {
		t.Fatal("tool ran before approval")
	}

	// Out-of-band approval wakes the suspended run.
	if _, applied, err := store.TransitionExecution(context.Background(), wait.Payload.ExecutionID,
		models.ExecutionPending, models.ExecutionApproved, nil); err != nil || !applied {
		t.Fatalf("approve: applied=%v err=%v", applied, err)
	}

	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if *creates != 1 || *deploys != 1 {
		t.Errorf("creates=%d deploys=%d", *creates, *deploys)
	}

	names := sink.names()
	want := []string{
		models.EventRunStart,
		models.EventPlan,
		models.EventStepStart,
		models.EventWaitApproval,
		models.EventStepResult,
		models.EventStepStart,
		models.EventStepResult,
		models.EventRunFinish,
		models.EventRunSummary,
	}
	if len(names) != len(want) {
		t.Fatalf("events = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}

	s := sink.events[len(sink.events)-2]
	if s.Payload.Status != models.RunCompleted {
		t.Errorf("finish status = %s", s.Payload.Status)
	}
}

func TestRunRejectionFailsStep(t *testing.T) {
	runner, store, creates, _ := newTestRunner(t,
		planTurn(llm.PlanStep{Description: "create database", Tool: "postgres_create", Params: map[string]any{"name": "appdb"}}),
		// Re-plan reply after the rejected step.
		planTurn(llm.PlanStep{Description: "check status instead", Tool: "application_deploy_status"}),
	)

	sink := newRecordingSink()
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(context.Background(), RunInput{
			Goal:        "Add a Postgres",
			AIID:        "A",
			ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
		}, sink)
	}()

	wait := sink.waitFor(t, models.EventWaitApproval)
	if _, _, err := store.TransitionExecution(context.Background(), wait.Payload.ExecutionID,
		models.ExecutionPending, models.ExecutionRejected, nil); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if *creates != 0 {
		t.Error("rejected step must not run the tool")
	}

	var rejectedResult *models.AgentEvent
	planCount := 0
	for i := range sink.events {
		ev := sink.events[i]
		if ev.Name == models.EventStepResult && rejectedResult == nil {
			rejectedResult = &sink.events[i].Payload
		}
		if ev.Name == models.EventPlan {
			planCount++
		}
	}
	if rejectedResult == nil || rejectedResult.Success == nil || *rejectedResult.Success {
		t.Fatalf("first step result = %+v", rejectedResult)
	}
	if rejectedResult.Summary != "rejected by user" {
		t.Errorf("summary = %q", rejectedResult.Summary)
	}
	// One corrective re-plan after the failure.
	if planCount != 2 {
		t.Errorf("plan events = %d", planCount)
	}
}

func TestRunInvalidParamsFailWithoutExecuting(t *testing.T) {
	runner, _, creates, _ := newTestRunner(t,
		planTurn(llm.PlanStep{Description: "create database", Tool: "postgres_create", Params: map[string]any{}}),
		planTurn(llm.PlanStep{Description: "retry", Tool: "postgres_create", Params: map[string]any{}}),
	)

	sink := newRecordingSink()
	if err := runner.Run(context.Background(), RunInput{
		Goal:        "Add a Postgres",
		AIID:        "A",
		ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
	}, sink); err != nil {
		t.Fatal(err)
	}
	if *creates != 0 {
		t.Error("invalid params must not reach the tool")
	}
	finish := sink.waitFor(t, models.EventRunFinish)
	if finish.Payload.Status != models.RunFailed {
		t.Errorf("status = %s", finish.Payload.Status)
	}
}

// Run-timeout expiry is a failure; cancelled is reserved for client aborts.
func TestRunTimeoutFinishesFailed(t *testing.T) {
	runner, _, creates, _ := newTestRunner(t, planTurn(
		llm.PlanStep{Description: "create database", Tool: "postgres_create", Params: map[string]any{"name": "appdb"}},
	))
	runner.runTimeout = 150 * time.Millisecond

	sink := newRecordingSink()
	err := runner.Run(context.Background(), RunInput{
		Goal:        "Add a Postgres",
		AIID:        "A",
		ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
	}, sink)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if *creates != 0 {
		t.Error("tool ran without approval")
	}
	finish := sink.waitFor(t, models.EventRunFinish)
	if finish.Payload.Status != models.RunFailed {
		t.Errorf("finish status = %s", finish.Payload.Status)
	}
}

func TestRunClientCancelFinishesCancelled(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, planTurn(
		llm.PlanStep{Description: "create database", Tool: "postgres_create", Params: map[string]any{"name": "appdb"}},
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := newRecordingSink()
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, RunInput{
			Goal:        "Add a Postgres",
			AIID:        "A",
			ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
		}, sink)
	}()

	sink.waitFor(t, models.EventWaitApproval)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	finish := sink.waitFor(t, models.EventRunFinish)
	if finish.Payload.Status != models.RunCancelled {
		t.Errorf("finish status = %s", finish.Payload.Status)
	}
}

func TestRunPersistsEventsAsSystemMessages(t *testing.T) {
	runner, store, _, _ := newTestRunner(t, planTurn(
		llm.PlanStep{Description: "check", Tool: "application_deploy_status"},
	))

	sink := newRecordingSink()
	if err := runner.Run(context.Background(), RunInput{
		Goal:        "check deploy",
		AIID:        "A",
		ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
	}, sink); err != nil {
		t.Fatal(err)
	}

	convs, _ := store.ListConversations(context.Background(), "u-1")
	if len(convs) != 1 {
		t.Fatalf("conversations = %d", len(convs))
	}
	msgs, _ := store.Messages(context.Background(), convs[0].ID)
	if len(msgs) == 0 {
		t.Fatal("no transcript entries")
	}
	var seenStart bool
	for _, m := range msgs {
		if m.Role != models.RoleSystem {
			t.Errorf("unexpected role %s", m.Role)
		}
		var ev models.AgentEvent
		if err := json.Unmarshal([]byte(m.Content), &ev); err != nil {
			t.Fatalf("bad event payload %q: %v", m.Content, err)
		}
		if ev.Type == models.EventRunStart {
			seenStart = true
		}
	}
	if !seenStart {
		t.Error("run.start not persisted")
	}
}
