package planner

import (
	"context"
	"fmt"
	"time"

	"care-meal-planner/internal/llm"
)

// Invocation is the raw outcome of a successful model call.
type Invocation struct {
	Content string
	Meta    llm.AgentMeta
}

type invokeResult struct {
	resp llm.ContentResponse
	err  error
}

// Invoke issues exactly one request to client and races it against timeout.
// When the timer wins, ErrModelTimeout is returned and the late response is
// dropped; the request itself is left running. There is no retry.
func Invoke(ctx context.Context, client llm.ModelClient, req llm.ChatRequest, timeout time.Duration) (Invocation, error) {
	start := time.Now()
	// Buffered so the sender never blocks once nobody is listening.
	done := make(chan invokeResult, 1)
	go func() {
		resp, err := client.CompleteChat(ctx, req)
		done <- invokeResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return Invocation{}, fmt.Errorf("%w: %v", ErrModelFailed, res.err)
		}
		return Invocation{
			Content: res.resp.Content,
			Meta: llm.AgentMeta{
				AgentName: "MealPlanner",
				Usage:     res.resp.Usage,
				Latency:   time.Since(start),
			},
		}, nil
	case <-timer.C:
		return Invocation{}, fmt.Errorf("%w after %s", ErrModelTimeout, timeout)
	case <-ctx.Done():
		return Invocation{}, fmt.Errorf("%w: %v", ErrModelFailed, ctx.Err())
	}
}

// TokenBudget returns base + numDays*perDay, capped at limit.
func TokenBudget(numDays, base, perDay, limit int) int {
	budget := base + numDays*perDay
	if limit > 0 && budget > limit {
		return limit
	}
	return budget
}
