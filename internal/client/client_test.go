package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() domain.WorkoutLogPayload {
	return domain.WorkoutLogPayload{
		StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Exercises: []domain.ExerciseLogEntry{{
			ExerciseID:  "bench",
			RestSeconds: 90,
			Sets:        []domain.SetLogEntry{{SetNumber: 1, Weight: 60, Reps: 8, Done: true}},
		}},
	}
}

func TestCreateWorkoutLogSendsKeyAndToken(t *testing.T) {
	var gotKey, gotAuth string
	var gotPayload domain.WorkoutLogPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/workout-logs", r.URL.Path)
		gotKey = r.Header.Get(IdempotencyKeyHeader)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.WorkoutLog{ID: "log-1", IdempotencyKey: gotKey})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Token: "device-token"})
	res := c.CreateWorkoutLog(context.Background(), "01HZX", samplePayload())

	require.True(t, res.IsOK(), "unexpected result: %v", res.Err)
	assert.Equal(t, "log-1", res.Value.ID)
	assert.Equal(t, "01HZX", gotKey)
	assert.Equal(t, "Bearer device-token", gotAuth)
	assert.Equal(t, "bench", gotPayload.Exercises[0].ExerciseID)
}

func TestCreateWorkoutLogStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   domain.ResultKind
	}{
		{"created", http.StatusCreated, domain.ResultOK},
		{"replayed", http.StatusOK, domain.ResultOK},
		{"bad request", http.StatusBadRequest, domain.ResultPermanentError},
		{"unauthorized", http.StatusUnauthorized, domain.ResultPermanentError},
		{"unprocessable", http.StatusUnprocessableEntity, domain.ResultPermanentError},
		{"not found", http.StatusNotFound, domain.ResultNotFound},
		{"request timeout", http.StatusRequestTimeout, domain.ResultTransientError},
		{"too many requests", http.StatusTooManyRequests, domain.ResultTransientError},
		{"server error", http.StatusInternalServerError, domain.ResultTransientError},
		{"bad gateway", http.StatusBadGateway, domain.ResultTransientError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"boom"}`))
			}))
			defer srv.Close()

			res := NewClient(Config{BaseURL: srv.URL}).CreateWorkoutLog(context.Background(), "k", samplePayload())
			assert.Equal(t, tt.want, res.Kind)
			if tt.want != domain.ResultOK {
				require.Error(t, res.Err)
				var apiErr *APIError
				if assert.ErrorAs(t, res.Err, &apiErr) {
					assert.Equal(t, "boom", apiErr.Message)
				}
			}
		})
	}
}

func TestCreateWorkoutLogTransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := NewClient(Config{BaseURL: url}).CreateWorkoutLog(context.Background(), "k", samplePayload())
	assert.Equal(t, domain.ResultTransientError, res.Kind)
}

func TestCreateWorkoutLogRequiresKey(t *testing.T) {
	res := NewClient(Config{BaseURL: "http://127.0.0.1:1"}).CreateWorkoutLog(context.Background(), "", samplePayload())
	assert.Equal(t, domain.ResultPermanentError, res.Kind)
	assert.ErrorIs(t, res.Err, domain.ErrMissingIdempotencyKey)
}

func TestGetTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/templates/tpl-1" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"workout template not found"}`))
			return
		}
		json.NewEncoder(w).Encode(domain.WorkoutTemplate{
			ID:        "tpl-1",
			Name:      "Push Day",
			Exercises: []domain.TemplateExercise{{ExerciseID: "bench", TargetSets: 4}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	res := c.GetTemplate(context.Background(), "tpl-1")
	require.True(t, res.IsOK())
	assert.Equal(t, "Push Day", res.Value.Name)

	missing := c.GetTemplate(context.Background(), "nope")
	assert.Equal(t, domain.ResultNotFound, missing.Kind)
	assert.ErrorIs(t, missing.Err, domain.ErrNotFound)
}

func TestHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	assert.NoError(t, c.Health(context.Background()))

	healthy.Store(false)
	assert.Error(t, c.Health(context.Background()))
}
