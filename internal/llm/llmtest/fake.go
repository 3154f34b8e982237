// Package llmtest provides a scripted ModelClient for deterministic tests.
package llmtest

import (
	"context"
	"sync"
	"time"

	"care-meal-planner/internal/llm"
)

// FakeClient answers every call with the configured response, error or delay.
type FakeClient struct {
	Response string
	Err      error
	// Delay is applied before answering; it ignores context cancellation so
	// callers can observe a late result being discarded.
	Delay time.Duration
	Usage llm.TokenUsage

	mu       sync.Mutex
	calls    int
	requests []llm.ChatRequest
}

// CompleteChat implements llm.ModelClient.
func (f *FakeClient) CompleteChat(_ context.Context, req llm.ChatRequest) (llm.ContentResponse, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	if f.Err != nil {
		return llm.ContentResponse{}, f.Err
	}
	return llm.ContentResponse{Content: f.Response, Usage: f.Usage}, nil
}

// Calls returns how many times CompleteChat was invoked.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastRequest returns the most recent request, if any.
func (f *FakeClient) LastRequest() (llm.ChatRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return llm.ChatRequest{}, false
	}
	return f.requests[len(f.requests)-1], true
}
