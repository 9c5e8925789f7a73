package models

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// MessageStatus tracks delivery state of a message.
type MessageStatus string

const (
	MessageSending MessageStatus = "sending"
	MessageSent    MessageStatus = "sent"
	MessageError   MessageStatus = "error"
)

// Conversation is an append-only chat transcript owned by a user.
type Conversation struct {
	ID             string    `json:"conversationId"`
	OwnerUserID    string    `json:"ownerUserId"`
	OrganizationID string    `json:"organizationId"`
	ProjectID      string    `json:"projectId,omitempty"`
	ServerID       string    `json:"serverId,omitempty"`
	AIID           string    `json:"aiId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Message is one entry in a conversation transcript.
// Ordering is strictly by CreatedAt plus append order.
type Message struct {
	ID             string        `json:"messageId"`
	ConversationID string        `json:"conversationId"`
	Role           Role          `json:"role"`
	Content        string        `json:"content"`
	ToolCalls      []ToolCall    `json:"toolCalls,omitempty"`
	// ToolCallID links a tool-role message back to the call it answers.
	ToolCallID string `json:"toolCallId,omitempty"`
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// AI is a configured language-model binding selectable per conversation.
type AI struct {
	ID             string `json:"aiId"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	APIURL         string `json:"apiUrl,omitempty"`
	APIKey         string `json:"-"`
	Enabled        bool   `json:"enabled"`
}

// AIMasked is the tool/API-facing projection of an AI binding.
type AIMasked struct {
	ID             string `json:"aiId"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	APIURL         string `json:"apiUrl,omitempty"`
	APIKeyMasked   bool   `json:"apiKeyMasked"`
	APIKeyPresent  bool   `json:"apiKeyPresent"`
	Enabled        bool   `json:"enabled"`
}

// Masked converts an AI binding into its secret-free projection.
func (a *AI) Masked() AIMasked {
	return AIMasked{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		Name:           a.Name,
		Provider:       a.Provider,
		Model:          a.Model,
		APIURL:         a.APIURL,
		APIKeyMasked:   true,
		APIKeyPresent:  a.APIKey != "",
		Enabled:        a.Enabled,
	}
}
