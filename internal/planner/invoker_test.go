package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"care-meal-planner/internal/llm"
	"care-meal-planner/internal/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke(t *testing.T) {
	req := llm.ChatRequest{System: "s", User: "u", JSONResponse: true, MaxTokens: 100}

	t.Run("Success", func(t *testing.T) {
		client := &llmtest.FakeClient{Response: `{"days": []}`, Usage: llm.TokenUsage{TotalTokens: 42, Model: "fake"}}
		inv, err := Invoke(context.Background(), client, req, time.Second)
		require.NoError(t, err)
		assert.Equal(t, `{"days": []}`, inv.Content)
		assert.Equal(t, 42, inv.Meta.Usage.TotalTokens)
		assert.Equal(t, 1, client.Calls())
	})

	t.Run("BackendError", func(t *testing.T) {
		client := &llmtest.FakeClient{Err: errors.New("503 service unavailable")}
		_, err := Invoke(context.Background(), client, req, time.Second)
		assert.True(t, errors.Is(err, ErrModelFailed))
		assert.Contains(t, err.Error(), "503")
		assert.Equal(t, 1, client.Calls())
	})

	t.Run("TimeoutDiscardsLateResult", func(t *testing.T) {
		client := &llmtest.FakeClient{Response: `{"days": []}`, Delay: 300 * time.Millisecond}
		start := time.Now()
		_, err := Invoke(context.Background(), client, req, 20*time.Millisecond)
		assert.True(t, errors.Is(err, ErrModelTimeout))
		assert.Less(t, time.Since(start), 250*time.Millisecond)

		// The late answer arrives into the buffered channel without blocking
		// and there is no second attempt.
		time.Sleep(350 * time.Millisecond)
		assert.Equal(t, 1, client.Calls())
	})

	t.Run("CallerCancellation", func(t *testing.T) {
		client := &llmtest.FakeClient{Response: "{}", Delay: 300 * time.Millisecond}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Invoke(ctx, client, req, time.Second)
		assert.True(t, errors.Is(err, ErrModelFailed))
	})
}

func TestTokenBudget(t *testing.T) {
	assert.Equal(t, 2200, TokenBudget(1, 800, 1400, 16000))
	assert.Equal(t, 10600, TokenBudget(7, 800, 1400, 16000))
	assert.Equal(t, 16000, TokenBudget(14, 800, 1400, 16000))
	assert.Equal(t, 20400, TokenBudget(14, 800, 1400, 0))
}
