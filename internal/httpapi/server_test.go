package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"care-meal-planner/internal/app"
	"care-meal-planner/internal/metrics"
	"care-meal-planner/internal/patient"
	"care-meal-planner/internal/planner"
	"care-meal-planner/internal/ratelimit"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

type fakeGenerator struct {
	err  error
	last app.GenerateRequest
}

func (f *fakeGenerator) GenerateForPatient(_ context.Context, req app.GenerateRequest) (*app.GenerateResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &app.GenerateResponse{
		RequestID:     "req-1",
		PlanID:        7,
		Plan:          planner.BuildFallbackPlan(planner.DayNames(2)),
		PromptSummary: "Alter: 85",
		Source:        planner.SourceFallback,
	}, nil
}

type fakeProgress map[string]planner.Stage

func (f fakeProgress) Get(_ context.Context, userID string) (planner.Stage, bool, error) {
	s, ok := f[userID]
	return s, ok, nil
}

type fakePlans []planner.StoredPlan

func (f fakePlans) ListRecentByPatient(_ context.Context, patientID string, limit int) ([]planner.StoredPlan, error) {
	var out []planner.StoredPlan
	for _, p := range f {
		if p.PatientID == patientID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeHealth struct{ status string }

func (f fakeHealth) Check(context.Context) metrics.SysHealth {
	return metrics.SysHealth{Status: f.status, Goroutines: 3}
}

func newTestServer(t *testing.T, gen *fakeGenerator) http.Handler {
	t.Helper()
	s, err := NewServer(Config{
		Generator: gen,
		Plans: fakePlans{
			{ID: 1, PatientID: "room-12", Source: planner.SourceModel, PlanData: []byte(`{"days":[]}`)},
			{ID: 2, PatientID: "room-12", Source: planner.SourceFallback, PlanData: []byte(`{"days":[]}`)},
		},
		Progress:  fakeProgress{"nurse-1": planner.StageFallback},
		Health:    fakeHealth{status: "ok"},
		Metrics:   metrics.NewCollector().Handler(),
		JWTSecret: testSecret,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return s.Handler()
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validToken(t *testing.T) string {
	return signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "nurse-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{}
	h := newTestServer(t, gen)

	rec := do(t, h, http.MethodPost, "/v1/patients/room-12/meal-plans", validToken(t),
		`{"notes":"weiche Kost","numDays":2,"fixedMealTypes":["breakfast"],"fast":true,"timeoutMs":1500}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, app.GenerateRequest{
		UserID:         "nurse-1",
		PatientID:      "room-12",
		Notes:          "weiche Kost",
		NumDays:        2,
		FixedMealTypes: []planner.MealType{planner.MealBreakfast},
		Fast:           true,
		Timeout:        1500 * time.Millisecond,
	}, gen.last)

	var reply struct {
		PlanID        int64             `json:"planId"`
		Source        string            `json:"source"`
		PromptSummary string            `json:"promptSummary"`
		Plan          *planner.MealPlan `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, int64(7), reply.PlanID)
	assert.Equal(t, "fallback", reply.Source)
	assert.Len(t, reply.Plan.Days, 2)
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: numDays must be between 1 and 14", planner.ErrInvalidOptions), http.StatusBadRequest},
		{fmt.Errorf("failed to load patient x: %w", patient.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("user nurse-1: %w", ratelimit.ErrLimited), http.StatusTooManyRequests},
		{planner.ErrFallbackInvalid, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.want), func(t *testing.T) {
			h := newTestServer(t, &fakeGenerator{err: tt.err})
			rec := do(t, h, http.MethodPost, "/v1/patients/x/meal-plans", validToken(t), `{}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	t.Run("BadBody", func(t *testing.T) {
		h := newTestServer(t, &fakeGenerator{})
		rec := do(t, h, http.MethodPost, "/v1/patients/x/meal-plans", validToken(t), `{"numDays":"seven"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, h, http.MethodPost, "/v1/patients/x/meal-plans", validToken(t), `{"servings":2}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("TimeoutOutOfRange", func(t *testing.T) {
		for _, body := range []string{
			`{"timeoutMs":9223372036854775807}`,
			`{"timeoutMs":600001}`,
			`{"timeoutMs":-1}`,
		} {
			gen := &fakeGenerator{}
			rec := do(t, newTestServer(t, gen), http.MethodPost, "/v1/patients/x/meal-plans", validToken(t), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Contains(t, rec.Body.String(), "timeoutMs")
			assert.Empty(t, gen.last.PatientID)
		}

		gen := &fakeGenerator{}
		rec := do(t, newTestServer(t, gen), http.MethodPost, "/v1/patients/x/meal-plans", validToken(t), `{"timeoutMs":600000}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 10*time.Minute, gen.last.Timeout)
	})
}

func TestAuth(t *testing.T) {
	h := newTestServer(t, &fakeGenerator{})
	path := "/v1/patients/room-12/meal-plans"

	tests := map[string]string{
		"Missing":     "",
		"Garbage":     "not-a-jwt",
		"WrongSecret": signToken(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "nurse-1"}),
		"WrongAlg":    signToken(t, testSecret, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "nurse-1"}),
		"NoSubject":   signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"iat": time.Now().Unix()}),
		"Expired": signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "nurse-1",
			"exp": time.Now().Add(-time.Minute).Unix(),
		}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, path, token, `{}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestListPlans(t *testing.T) {
	h := newTestServer(t, &fakeGenerator{})

	rec := do(t, h, http.MethodGet, "/v1/patients/room-12/meal-plans?limit=1", validToken(t), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reply struct {
		Plans []struct {
			PlanID int64           `json:"planId"`
			Plan   json.RawMessage `json:"plan"`
		} `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Len(t, reply.Plans, 1)
	assert.Equal(t, int64(1), reply.Plans[0].PlanID)
	assert.JSONEq(t, `{"days":[]}`, string(reply.Plans[0].Plan))

	rec = do(t, h, http.MethodGet, "/v1/patients/room-12/meal-plans?limit=0", validToken(t), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgress(t *testing.T) {
	h := newTestServer(t, &fakeGenerator{})

	rec := do(t, h, http.MethodGet, "/v1/progress", validToken(t), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stage":"model slow, using fallback"}`, rec.Body.String())

	other := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "nurse-2"})
	rec = do(t, h, http.MethodGet, "/v1/progress", other, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, &fakeGenerator{})

	rec := do(t, h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	s, err := NewServer(Config{Generator: &fakeGenerator{}, Health: fakeHealth{status: "degraded"}, JWTSecret: testSecret})
	require.NoError(t, err)
	rec = do(t, s.Handler(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(Config{JWTSecret: testSecret})
	assert.Error(t, err)
	_, err = NewServer(Config{Generator: &fakeGenerator{}})
	assert.Error(t, err)
}
