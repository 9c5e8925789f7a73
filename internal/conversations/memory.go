package conversations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/shipyard/pkg/models"
)

// MemoryStore is the in-process Store used in self-hosted single-node mode
// and in tests. It wakes approval waiters directly on status writes.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	messages      map[string][]*models.Message
	executions    map[string]*models.ToolExecution
	ais           map[string]*models.AI
	seq           int64

	// watchers holds one broadcast channel per execution, closed and
	// replaced whenever its status is written.
	watchers map[string]chan struct{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]*models.Message),
		executions:    make(map[string]*models.ToolExecution),
		ais:           make(map[string]*models.AI),
		watchers:      make(map[string]chan struct{}),
	}
}

// SeedAI inserts a model binding.
func (s *MemoryStore) SeedAI(ai *models.AI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ais[ai.ID] = ai
}

func (s *MemoryStore) CreateConversation(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.conversations[c.ID] = &cp
	return c, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListConversations(ctx context.Context, ownerUserID string) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Conversation
	for _, c := range s.conversations {
		if c.OwnerUserID == ownerUserID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	for id, e := range s.executions {
		if e.ConversationID == conversationID {
			delete(s.executions, id)
		}
	}
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[m.ConversationID]; !ok {
		return nil, ErrNotFound
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = models.MessageSent
	}
	s.seq++
	// Monotonic timestamps keep strict append order even within one tick.
	m.CreatedAt = time.Now().UTC().Add(time.Duration(s.seq) * time.Nanosecond)
	cp := *m
	cp.ToolCalls = append([]models.ToolCall(nil), m.ToolCalls...)
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], &cp)
	return m, nil
}

func (s *MemoryStore) UpdateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.messages[m.ConversationID] {
		if existing.ID == m.ID {
			existing.Content = m.Content
			existing.Status = m.Status
			existing.ToolCalls = append([]models.ToolCall(nil), m.ToolCalls...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Messages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	msgs := s.messages[conversationID]
	out := make([]*models.Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateExecution(ctx context.Context, e *models.ToolExecution) (*models.ToolExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.ExecutionPending
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	s.executions[e.ID] = &cp
	return e, nil
}

func (s *MemoryStore) GetExecution(ctx context.Context, executionID string) (*models.ToolExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[executionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) ListExecutions(ctx context.Context, executionIDs []string) ([]*models.ToolExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ToolExecution, 0, len(executionIDs))
	for _, id := range executionIDs {
		if e, ok := s.executions[id]; ok {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) TransitionExecution(ctx context.Context, executionID string, from, to models.ExecutionStatus, result *models.ToolResult) (*models.ToolExecution, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[executionID]
	if !ok {
		return nil, false, ErrNotFound
	}
	if e.Status != from {
		cp := *e
		return &cp, false, nil
	}
	e.Status = to
	e.UpdatedAt = time.Now().UTC()
	if result != nil {
		e.Result = result
	}
	s.notifyLocked(executionID)
	cp := *e
	return &cp, true, nil
}

func (s *MemoryStore) ListAIs(ctx context.Context, orgID string) ([]*models.AI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AI
	for _, ai := range s.ais {
		if ai.OrganizationID == orgID {
			cp := *ai
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetAI(ctx context.Context, aiID string) (*models.AI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ai, ok := s.ais[aiID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ai
	return &cp, nil
}

func (s *MemoryStore) Close() error { return nil }

// AwaitChange implements ChangeNotifier: it blocks until the execution's
// status is next written.
func (s *MemoryStore) AwaitChange(ctx context.Context, executionID string) error {
	s.mu.Lock()
	ch, ok := s.watchers[executionID]
	if !ok {
		ch = make(chan struct{})
		s.watchers[executionID] = ch
	}
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemoryStore) notifyLocked(executionID string) {
	if ch, ok := s.watchers[executionID]; ok {
		close(ch)
		delete(s.watchers, executionID)
	}
}
