package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/haasonsaas/shipyard/internal/agentrun"
	"github.com/haasonsaas/shipyard/internal/auth"
	"github.com/haasonsaas/shipyard/internal/chat"
	"github.com/haasonsaas/shipyard/internal/conversations"
	"github.com/haasonsaas/shipyard/internal/sse"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, into any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}

type streamRequest struct {
	ConversationID string `json:"conversationId"`
	AIID           string `json:"aiId"`
	Message        string `json:"message"`
	Goal           string `json:"goal"`
	ProjectID      string `json:"projectId"`
	ServerID       string `json:"serverId"`
}

func (s *Server) toolContext(sess *auth.Session, req streamRequest) tool.Context {
	return tool.Context{
		UserID:         sess.UserID,
		OrganizationID: sess.OrganizationID,
		ProjectID:      req.ProjectID,
		ServerID:       req.ServerID,
	}
}

// ownConversation loads a conversation and checks it belongs to the session's
// organization. An empty id is fine; the pipeline creates one.
func (s *Server) ownConversation(r *http.Request, sess *auth.Session, conversationID string) (int, error) {
	if conversationID == "" {
		return 0, nil
	}
	conv, err := s.store.GetConversation(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, conversations.ErrNotFound) {
			return http.StatusNotFound, errors.New("conversation not found")
		}
		return http.StatusInternalServerError, err
	}
	if conv.OrganizationID != sess.OrganizationID {
		return http.StatusNotFound, errors.New("conversation not found")
	}
	return 0, nil
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req streamRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if status, err := s.ownConversation(r, sess, req.ConversationID); err != nil {
		writeError(w, status, err.Error())
		return
	}

	emitter, err := sse.NewEmitter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	go emitter.KeepAlive(r.Context(), s.cfg.HeartbeatInterval)

	_ = s.chat.Stream(r.Context(), chat.StreamInput{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		AIID:           req.AIID,
		ToolContext:    s.toolContext(sess, req),
	}, emitter)
}

func (s *Server) handleAgentStream(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req streamRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	goal := req.Goal
	if goal == "" {
		goal = req.Message
	}
	if goal == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}
	if status, err := s.ownConversation(r, sess, req.ConversationID); err != nil {
		writeError(w, status, err.Error())
		return
	}

	emitter, err := sse.NewEmitter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	go emitter.KeepAlive(r.Context(), s.cfg.HeartbeatInterval)

	_ = s.runner.Run(r.Context(), agentrun.RunInput{
		ConversationID: req.ConversationID,
		Goal:           goal,
		AIID:           req.AIID,
		ToolContext:    s.toolContext(sess, req),
	}, emitter)
}

// ownExecution resolves an execution through its conversation and checks
// organization ownership.
func (s *Server) ownExecution(r *http.Request, sess *auth.Session, executionID string) (*models.ToolExecution, int, error) {
	exec, err := s.store.GetExecution(r.Context(), executionID)
	if err != nil {
		if errors.Is(err, conversations.ErrNotFound) {
			return nil, http.StatusNotFound, errors.New("execution not found")
		}
		return nil, http.StatusInternalServerError, err
	}
	conv, err := s.store.GetConversation(r.Context(), exec.ConversationID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if conv.OrganizationID != sess.OrganizationID {
		return nil, http.StatusNotFound, errors.New("execution not found")
	}
	return exec, 0, nil
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		ExecutionID string `json:"executionId"`
		Approved    bool   `json:"approved"`
	}
	if err := decode(r, &req); err != nil || req.ExecutionID == "" {
		writeError(w, http.StatusBadRequest, "executionId is required")
		return
	}
	if _, status, err := s.ownExecution(r, sess, req.ExecutionID); err != nil {
		writeError(w, status, err.Error())
		return
	}

	exec, err := s.chat.Approve(r.Context(), req.ExecutionID, req.Approved)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		ExecutionID string `json:"executionId"`
		ProjectID   string `json:"projectId"`
		ServerID    string `json:"serverId"`
	}
	if err := decode(r, &req); err != nil || req.ExecutionID == "" {
		writeError(w, http.StatusBadRequest, "executionId is required")
		return
	}
	if _, status, err := s.ownExecution(r, sess, req.ExecutionID); err != nil {
		writeError(w, status, err.Error())
		return
	}

	tc := tool.Context{
		UserID:         sess.UserID,
		OrganizationID: sess.OrganizationID,
		ProjectID:      req.ProjectID,
		ServerID:       req.ServerID,
	}
	result, err := s.chat.ExecuteApproved(r.Context(), req.ExecutionID, tc)
	if err != nil {
		if errors.Is(err, chat.ErrNotApproved) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		ExecutionIDs []string `json:"executionIds"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	execs, err := s.chat.Executions(r.Context(), req.ExecutionIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	owned := make([]*models.ToolExecution, 0, len(execs))
	for _, exec := range execs {
		conv, err := s.store.GetConversation(r.Context(), exec.ConversationID)
		if err != nil || conv.OrganizationID != sess.OrganizationID {
			continue
		}
		owned = append(owned, exec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"executions": owned})
}

func (s *Server) handleConversationCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		AIID      string `json:"aiId"`
		ProjectID string `json:"projectId"`
		ServerID  string `json:"serverId"`
	}
	if err := decode(r, &req); err != nil || req.AIID == "" {
		writeError(w, http.StatusBadRequest, "aiId is required")
		return
	}

	ai, err := s.store.GetAI(r.Context(), req.AIID)
	if err != nil || ai.OrganizationID != sess.OrganizationID {
		writeError(w, http.StatusNotFound, "model binding not found")
		return
	}

	conv, err := s.store.CreateConversation(r.Context(), &models.Conversation{
		OwnerUserID:    sess.UserID,
		OrganizationID: sess.OrganizationID,
		ProjectID:      req.ProjectID,
		ServerID:       req.ServerID,
		AIID:           req.AIID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleConversationList(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	convs, err := s.store.ListConversations(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	conversationID := r.PathValue("conversationID")
	if status, err := s.ownConversation(r, sess, conversationID); err != nil {
		writeError(w, status, err.Error())
		return
	}
	msgs, err := s.store.Messages(r.Context(), conversationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleAIGetAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ais, err := s.store.ListAIs(r.Context(), sess.OrganizationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	masked := make([]models.AIMasked, 0, len(ais))
	for _, ai := range ais {
		masked = append(masked, ai.Masked())
	}
	writeJSON(w, http.StatusOK, map[string]any{"ais": masked})
}
