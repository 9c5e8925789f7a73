package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/haasonsaas/shipyard/internal/conversations"
	"github.com/haasonsaas/shipyard/internal/llm"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

type recordedEvent struct {
	Name    string
	Payload map[string]any
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *recordingSink) Emit(name string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	s.mu.Lock()
	s.events = append(s.events, recordedEvent{Name: name, Payload: decoded})
	s.mu.Unlock()
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

func (s *recordingSink) byName(name string) []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedEvent
	for _, ev := range s.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// countingStore counts execution rows created through the store.
type countingStore struct {
	conversations.Store
	mu      sync.Mutex
	created int
}

func (c *countingStore) CreateExecution(ctx context.Context, e *models.ToolExecution) (*models.ToolExecution, error) {
	c.mu.Lock()
	c.created++
	c.mu.Unlock()
	return c.Store.CreateExecution(ctx, e)
}

func newTestService(t *testing.T, turns ...llm.Turn) (*Service, *countingStore, *tool.Registry, *int) {
	t.Helper()
	mem := conversations.NewMemoryStore()
	mem.SeedAI(&models.AI{ID: "A", OrganizationID: "org-1", Provider: "openai", Model: "gpt-4o", Enabled: true})
	store := &countingStore{Store: mem}

	reg := tool.NewRegistry()
	deploys := 0
	reg.MustRegister(&tool.Def{
		Name:        "project_list",
		Description: "List projects.",
		Category:    tool.CategoryProject,
		Risk:        models.RiskLow,
		Params:      tool.NewSchema(nil),
		Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
			return models.OK("2 projects", []map[string]string{{"name": "web"}, {"name": "api"}}), nil
		},
	})
	reg.MustRegister(&tool.Def{
		Name:             "application_deploy",
		Description:      "Deploy an application.",
		Category:         tool.CategoryApplication,
		Risk:             models.RiskMedium,
		RequiresApproval: true,
		Params: tool.NewSchema(map[string]*tool.Field{
			"applicationId": tool.String("Application to deploy."),
		}),
		Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
			deploys++
			return models.OK("deploying", map[string]string{"applicationId": args.StringOr("applicationId", ""), "status": "deploying"}), nil
		},
	})

	provider := llm.NewScriptedProvider(turns...)
	svc := NewService(store, reg, func(ai *models.AI) (llm.Provider, error) { return provider, nil })
	return svc, store, reg, &deploys
}

// A single auto-approve tool call streams tool-call, tool-result, done and
// creates no execution row.
func TestStreamAutoApproveTool(t *testing.T) {
	svc, store, _, _ := newTestService(t, llm.Turn{Chunks: []*llm.Chunk{
		{ToolCall: &models.ToolCall{ID: "tc-1", Name: "project_list", Arguments: []byte(`{}`)}},
		{Done: true},
	}})

	sink := &recordingSink{}
	err := svc.Stream(context.Background(), StreamInput{
		Message:     "list my projects",
		AIID:        "A",
		ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
	}, sink)
	if err != nil {
		t.Fatal(err)
	}

	names := sink.names()
	want := []string{EventToolCall, EventToolResult, EventDone}
	if len(names) != len(want) {
		t.Fatalf("events = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
	results := sink.byName(EventToolResult)
	if success, _ := results[0].Payload["success"].(bool); !success {
		t.Errorf("tool-result payload = %v", results[0].Payload)
	}
	if store.created != 0 {
		t.Errorf("auto-approve call created %d execution rows", store.created)
	}
}

// Deltas stream in order and the persisted assistant content equals their
// concatenation after done.
func TestStreamDeltaOrdering(t *testing.T) {
	svc, store, _, _ := newTestService(t, llm.TextTurn("Hel", "lo ", "there"))

	sink := &recordingSink{}
	if err := svc.Stream(context.Background(), StreamInput{
		Message:     "hi",
		AIID:        "A",
		ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
	}, sink); err != nil {
		t.Fatal(err)
	}

	var rebuilt string
	for _, ev := range sink.byName(EventDelta) {
		rebuilt += ev.Payload["delta"].(string)
	}
	if rebuilt != "Hello there" {
		t.Errorf("rebuilt = %q", rebuilt)
	}

	done := sink.byName(EventDone)
	if len(done) != 1 {
		t.Fatalf("expected one done event")
	}
	convID := done[0].Payload["conversationId"].(string)
	msgs, err := store.Messages(context.Background(), convID)
	if err != nil {
		t.Fatal(err)
	}
	assistant := msgs[len(msgs)-1]
	if assistant.Role != models.RoleAssistant || assistant.Content != "Hello there" {
		t.Errorf("assistant message = %+v", assistant)
	}
	if assistant.Status != models.MessageSent {
		t.Errorf("assistant status = %s", assistant.Status)
	}
}

// An approval-gated call parks a pending execution; approve + execute runs
// the tool exactly once and replays the cached result afterwards.
func TestStreamApprovalFlow(t *testing.T) {
	svc, store, _, deploys := newTestService(t, llm.Turn{Chunks: []*llm.Chunk{
		{ToolCall: &models.ToolCall{ID: "tc-1", Name: "application_deploy", Arguments: []byte(`{"applicationId":"a-1"}`)}},
		{Done: true},
	}})
	ctx := context.Background()
	tc := tool.Context{UserID: "u-1", OrganizationID: "org-1"}

	sink := &recordingSink{}
	if err := svc.Stream(ctx, StreamInput{Message: "deploy app a-1", AIID: "A", ToolContext: tc}, sink); err != nil {
		t.Fatal(err)
	}

	results := sink.byName(EventToolResult)
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
	if status, _ := results[0].Payload["status"].(string); status != "pending_approval" {
		t.Fatalf("payload = %v", results[0].Payload)
	}
	execID, _ := results[0].Payload["executionId"].(string)
	if execID == "" {
		t.Fatal("missing executionId")
	}
	if *deploys != 0 {
		t.Fatal("tool must not run before approval")
	}

	exec, err := svc.Approve(ctx, execID, true)
	if err != nil || exec.Status != models.ExecutionApproved {
		t.Fatalf("approve: %v %v", exec, err)
	}
	// Second approval is a no-op returning the settled state.
	again, err := svc.Approve(ctx, execID, true)
	if err != nil || again.Status != models.ExecutionApproved {
		t.Fatalf("re-approve: %v %v", again, err)
	}

	result, err := svc.ExecuteApproved(ctx, execID, tc)
	if err != nil || !result.Success {
		t.Fatalf("execute: %v %v", result, err)
	}
	if *deploys != 1 {
		t.Fatalf("deploys = %d", *deploys)
	}

	replay, err := svc.ExecuteApproved(ctx, execID, tc)
	if err != nil {
		t.Fatal(err)
	}
	if !replay.Success {
		t.Errorf("replay result = %+v", replay)
	}
	if *deploys != 1 {
		t.Errorf("replay re-triggered the tool: deploys = %d", *deploys)
	}

	rows, _ := svc.Executions(ctx, []string{execID})
	if len(rows) != 1 || rows[0].Status != models.ExecutionCompleted {
		t.Errorf("rows = %+v", rows)
	}
	_ = store
}

// A gated call whose arguments fail schema validation is never parked for
// approval; it fails immediately like any direct call.
func TestStreamInvalidGatedCallFailsWithoutExecution(t *testing.T) {
	svc, store, _, deploys := newTestService(t, llm.Turn{Chunks: []*llm.Chunk{
		{ToolCall: &models.ToolCall{ID: "tc-1", Name: "application_deploy", Arguments: []byte(`{"bogus":42}`)}},
		{Done: true},
	}})

	sink := &recordingSink{}
	if err := svc.Stream(context.Background(), StreamInput{
		Message:     "deploy something",
		AIID:        "A",
		ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
	}, sink); err != nil {
		t.Fatal(err)
	}

	if store.created != 0 {
		t.Errorf("invalid call created %d execution rows", store.created)
	}
	if *deploys != 0 {
		t.Error("invalid call must not run the tool")
	}

	results := sink.byName(EventToolResult)
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
	if success, _ := results[0].Payload["success"].(bool); success {
		t.Fatalf("payload = %v", results[0].Payload)
	}
	if msg, _ := results[0].Payload["message"].(string); msg != "Invalid parameters" {
		t.Errorf("message = %q", msg)
	}
}

func TestExecuteUndecidedFails(t *testing.T) {
	svc, store, _, deploys := newTestService(t)
	ctx := context.Background()
	conv, _ := store.CreateConversation(ctx, &models.Conversation{OwnerUserID: "u-1", OrganizationID: "org-1", AIID: "A"})
	exec, _ := store.CreateExecution(ctx, &models.ToolExecution{
		ConversationID: conv.ID,
		ToolName:       "application_deploy",
		Arguments:      []byte(`{"applicationId":"a-1"}`),
	})

	if _, err := svc.ExecuteApproved(ctx, exec.ID, tool.Context{UserID: "u-1"}); err != ErrNotApproved {
		t.Fatalf("err = %v", err)
	}
	if *deploys != 0 {
		t.Error("undecided execution must not run")
	}
}

func TestStreamErrorSealsAssistant(t *testing.T) {
	svc, store, _, _ := newTestService(t, llm.Turn{Chunks: []*llm.Chunk{
		{Text: "partial"},
		{Err: context.DeadlineExceeded, Done: true},
	}})

	sink := &recordingSink{}
	err := svc.Stream(context.Background(), StreamInput{
		Message:     "hi",
		AIID:        "A",
		ToolContext: tool.Context{UserID: "u-1", OrganizationID: "org-1"},
	}, sink)
	if err == nil {
		t.Fatal("expected stream error")
	}
	if len(sink.byName(EventStreamError)) != 1 {
		t.Errorf("events = %v", sink.names())
	}

	convs, _ := store.ListConversations(context.Background(), "u-1")
	msgs, _ := store.Messages(context.Background(), convs[0].ID)
	assistant := msgs[len(msgs)-1]
	if assistant.Status == models.MessageSending {
		t.Error("assistant message left in sending")
	}
}
