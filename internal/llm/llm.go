package llm

import (
	"context"
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one backend call.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// ChatRequest is a single-turn "complete chat" call.
type ChatRequest struct {
	System      string
	User        string
	Temperature float32
	// JSONResponse asks the backend to answer with a JSON object.
	JSONResponse bool
	MaxTokens    int
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   TokenUsage
}

// ModelClient is the language-model backend: one request, one response, no streaming.
type ModelClient interface {
	CompleteChat(ctx context.Context, req ChatRequest) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
