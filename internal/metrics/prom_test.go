package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"care-meal-planner/internal/llm"
	"care-meal-planner/internal/planner"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()

	c.ObserveResult(&planner.Result{Source: planner.SourceModel, Meta: llm.AgentMeta{Latency: 8 * time.Second}})
	c.ObserveResult(&planner.Result{Source: planner.SourceFallback, FallbackKind: "timeout"})
	c.ObserveResult(&planner.Result{Source: planner.SourceFallback, FallbackKind: "timeout"})
	c.ObserveRateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues("model")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.generations.WithLabelValues("fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited))
	assert.Equal(t, 1, testutil.CollectAndCount(c.modelLatency))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mealplan_generations_total{source="fallback"} 2`)
	assert.Contains(t, string(body), "go_goroutines")
}
