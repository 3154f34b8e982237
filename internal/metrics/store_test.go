package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"care-meal-planner/internal/database"
	"care-meal-planner/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewStore(db.SQL)
	s.now = func() time.Time { return now }
	return s
}

func TestStore_DailyUsage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	usage := llm.TokenUsage{PromptTokens: 1000, CompletionTokens: 4000, Model: "llama-3.3-70b-versatile"}
	require.NoError(t, s.RecordMeta(ctx, llm.AgentMeta{AgentName: "MealPlanner", Usage: usage, Latency: 12 * time.Second}, "model"))
	require.NoError(t, s.RecordMeta(ctx, llm.AgentMeta{}, "fallback"))
	require.NoError(t, s.Record(ctx, ExecutionMetric{
		AgentName:    "MealPlanner",
		Source:       "model",
		PromptTokens: 500,
		Timestamp:    now.AddDate(0, 0, -1),
	}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "MealPlanner", Timestamp: now.AddDate(0, 0, -30)}))

	days, err := s.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, DailyUsage{Date: "2026-03-10", TotalPrompt: 1000, TotalCompletion: 4000, TotalExecution: 2, Fallbacks: 1}, days[0])
	assert.Equal(t, DailyUsage{Date: "2026-03-09", TotalPrompt: 500, TotalExecution: 1}, days[1])
}

func TestStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	for _, age := range []int{0, 10, 40, 90} {
		require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "MealPlanner", Timestamp: now.AddDate(0, 0, -age)}))
	}

	n, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	days, err := s.GetDailyUsage(ctx, 365)
	require.NoError(t, err)
	assert.Len(t, days, 2)
}

func TestMapUsage(t *testing.T) {
	m := MapUsage("MealPlanner", "model", llm.TokenUsage{PromptTokens: 3, CompletionTokens: 4, Model: "m"}, 1500*time.Millisecond)
	assert.Equal(t, ExecutionMetric{AgentName: "MealPlanner", Model: "m", Source: "model", PromptTokens: 3, CompletionTokens: 4, LatencyMS: 1500}, m)
}
