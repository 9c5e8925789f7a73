// Package llm abstracts the streaming language-model providers behind one
// chunk-channel interface.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/shipyard/pkg/models"
)

// ToolSpec is the schema-bearing tool description advertised to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Request is a single completion request over a transcript.
type Request struct {
	Model     string
	System    string
	Messages  []*models.Message
	Tools     []ToolSpec
	MaxTokens int
}

// Chunk is one increment of a streamed completion. Exactly one of Text,
// ToolCall, Done or Err is meaningful per chunk; Done/Err terminate the
// stream.
type Chunk struct {
	Text     string
	ToolCall *models.ToolCall
	Done     bool
	Err      error
}

// Provider streams completions. The returned channel is closed by the
// provider after the terminal chunk.
type Provider interface {
	Stream(ctx context.Context, req *Request) (<-chan *Chunk, error)
}

// New selects a provider implementation from a configured binding.
func New(ai *models.AI) (Provider, error) {
	switch strings.ToLower(ai.Provider) {
	case "openai", "azure", "openai-compatible", "ollama":
		return NewOpenAIProvider(ai.APIKey, ai.APIURL), nil
	case "anthropic":
		return NewAnthropicProvider(ai.APIKey, ai.APIURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", ai.Provider)
	}
}
