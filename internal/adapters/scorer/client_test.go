package scorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

func testJob() *model.Job {
	return &model.Job{
		ID:          "job-1",
		Title:       "Weekly cleaning",
		ServiceType: model.ServiceTypeCleaning,
		Location:    "Lekki",
		Status:      model.JobStatusOpen,
	}
}

func testPool() []*model.Worker {
	pic := "https://cdn.example.com/w2.jpg"
	return []*model.Worker{
		{ID: "w1", FullName: "Ada Obi", Skills: []model.ServiceType{model.ServiceTypeCleaning}, Rating: 4.8},
		{ID: "w2", FullName: "Bola Ade", Skills: []model.ServiceType{model.ServiceTypeCleaning}, Rating: 4.5, ProfilePictureURL: &pic},
	}
}

func newTestClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Retries = 0
	cfg.Backoff = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := NewClient(cfg, nil, nil)
	require.NoError(t, err)
	return client
}

func TestClientRank_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/rank", r.URL.Path)

		var req rankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "job-1", req.Job.ID)
		assert.Len(t, req.Candidates, 2)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"ranking": []map[string]any{
					{"worker_id": "w2", "score": 0.91, "justification": "closest match"},
					{"worker_id": "w1", "score": 0.74, "justification": "strong rating"},
				},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	results, err := client.Rank(context.Background(), testJob(), testPool())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "w2", results[0].WorkerID)
	assert.Equal(t, "Bola Ade", results[0].WorkerName)
	assert.Equal(t, "https://cdn.example.com/w2.jpg", results[0].ProfilePictureURL)
	assert.InDelta(t, 0.91, results[0].Score, 1e-9)
	assert.Equal(t, "closest match", results[0].Justification)
}

func TestClientRank_UnknownWorkerDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"ranking": []map[string]any{
					{"worker_id": "ghost", "score": 0.99},
					{"worker_id": "w1", "score": 0.5},
				},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	results, err := client.Rank(context.Background(), testJob(), testPool())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "w1", results[0].WorkerID)
}

func TestClientRank_EmptyPoolSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	results, err := client.Rank(context.Background(), testJob(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestClientRank_ServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Rank(context.Background(), testJob(), testPool())
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
}

func TestClientRank_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"ranking": []map[string]any{{"worker_id": "w1", "score": 0.6}},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.Retries = 2
	})
	results, err := client.Rank(context.Background(), testJob(), testPool())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientRank_CircuitOpensAfterThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.CircuitFailureThreshold = 2
		cfg.CircuitReset = time.Minute
	})

	ctx := context.Background()
	_, err := client.Rank(ctx, testJob(), testPool())
	require.Error(t, err)
	_, err = client.Rank(ctx, testJob(), testPool())
	require.Error(t, err)

	// threshold reached; next call must short-circuit without a request
	_, err = client.Rank(ctx, testJob(), testPool())
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.Contains(t, err.Error(), "circuit open")
}

func TestClientRank_MissingRankingIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Rank(context.Background(), testJob(), testPool())
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"}, nil, nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.BaseURL = "http://scoring.internal"
	cfg.ResultExpr = "data.["
	_, err = NewClient(cfg, nil, nil)
	assert.Error(t, err)
}
