// Package scorer provides the HTTP client for the external candidate-scoring
// service. The service is AI-backed and slow relative to the database, so the
// client carries its own timeout, retry, and circuit-breaker policy; every
// failure surfaces as an upstream error the matcher can translate for callers.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

// Config holds configuration for the scoring client.
type Config struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
	Retries int           `json:"retries"`
	Backoff time.Duration `json:"backoff"`

	// CircuitFailureThreshold is the consecutive-failure count that opens the
	// circuit; CircuitReset is how long it stays open before a half-open probe.
	CircuitFailureThreshold int           `json:"circuit_failure_threshold"`
	CircuitReset            time.Duration `json:"circuit_reset"`

	// ResultExpr is the JMESPath expression that extracts the ranking array
	// from the scoring service's response envelope.
	ResultExpr string `json:"result_expr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:                 10 * time.Second,
		Retries:                 2,
		Backoff:                 500 * time.Millisecond,
		CircuitFailureThreshold: 5,
		CircuitReset:            30 * time.Second,
		ResultExpr:              "data.ranking",
	}
}

// Client calls the scoring service over HTTP. It implements core.ScoringService.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
}

var _ core.ScoringService = (*Client)(nil)

// NewClient creates a scoring client. A nil httpClient gets a default one
// with the configured timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid scoring base url: %w", err)
	}
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.CircuitFailureThreshold <= 0 {
		cfg.CircuitFailureThreshold = def.CircuitFailureThreshold
	}
	if cfg.CircuitReset <= 0 {
		cfg.CircuitReset = def.CircuitReset
	}
	if cfg.ResultExpr == "" {
		cfg.ResultExpr = def.ResultExpr
	}
	if _, err := jmespath.Compile(cfg.ResultExpr); err != nil {
		return nil, fmt.Errorf("invalid result expression %q: %w", cfg.ResultExpr, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		client: httpClient,
		logger: logger.With("component", "scorer_client"),
	}, nil
}

// rankRequest is the wire payload sent to the scoring service.
type rankRequest struct {
	Job        rankJob         `json:"job"`
	Candidates []rankCandidate `json:"candidates"`
}

type rankJob struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	ServiceType model.ServiceType `json:"service_type"`
	Location    string            `json:"location"`
	Frequency   string            `json:"frequency"`
}

type rankCandidate struct {
	WorkerID    string              `json:"worker_id"`
	Skills      []model.ServiceType `json:"skills"`
	Rating      float64             `json:"rating"`
	ReviewCount int                 `json:"review_count"`
}

// rankedWorker is one element of the extracted ranking array.
type rankedWorker struct {
	WorkerID      string  `json:"worker_id"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}
	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}
	// half-open: reset failures and allow a probe request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

// Rank scores the candidate pool against the job. Candidates the service does
// not recognize are dropped; candidates it returns are enriched from the pool.
func (c *Client) Rank(ctx context.Context, job *model.Job, pool []*model.Worker) ([]model.MatchResult, error) {
	if len(pool) == 0 {
		return nil, nil
	}
	if c.isCircuitOpen() {
		return nil, apperrors.Upstream("scoring service circuit open")
	}

	payload := rankRequest{
		Job: rankJob{
			ID:          job.ID,
			Title:       job.Title,
			ServiceType: job.ServiceType,
			Location:    job.Location,
			Frequency:   job.Frequency,
		},
		Candidates: make([]rankCandidate, 0, len(pool)),
	}
	for _, w := range pool {
		payload.Candidates = append(payload.Candidates, rankCandidate{
			WorkerID:    w.ID,
			Skills:      w.Skills,
			Rating:      w.Rating,
			ReviewCount: w.ReviewCount,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal rank request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeUpstream, "scoring request canceled")
			case <-time.After(c.cfg.Backoff * time.Duration(attempt)):
			}
			if c.isCircuitOpen() {
				return nil, apperrors.Upstream("scoring service circuit open")
			}
		}

		ranked, reqErr := c.doRank(ctx, body)
		if reqErr == nil {
			atomic.StoreInt32(&c.failures, 0)
			return c.toMatchResults(ranked, pool), nil
		}
		lastErr = reqErr
		c.recordFailure()
		c.logger.Warn("scoring request failed",
			"job_id", job.ID,
			"attempt", attempt+1,
			"error", reqErr,
		)
	}

	return nil, apperrors.Wrapf(lastErr, apperrors.ErrCodeUpstream,
		"scoring service failed after %d attempts", c.cfg.Retries+1)
}

func (c *Client) doRank(ctx context.Context, body []byte) ([]rankedWorker, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	u := base.ResolveReference(&url.URL{Path: "/v1/rank"})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rank endpoint returned status %d", resp.StatusCode)
	}

	var envelope any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode rank response: %w", err)
	}

	extracted, err := jmespath.Search(c.cfg.ResultExpr, envelope)
	if err != nil {
		return nil, fmt.Errorf("extract ranking (%s): %w", c.cfg.ResultExpr, err)
	}
	if extracted == nil {
		return nil, fmt.Errorf("rank response has no ranking at %s", c.cfg.ResultExpr)
	}

	// round-trip through JSON to get typed elements out of the extracted value
	raw, err := json.Marshal(extracted)
	if err != nil {
		return nil, fmt.Errorf("remarshal ranking: %w", err)
	}
	var ranked []rankedWorker
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return nil, fmt.Errorf("unmarshal ranking: %w", err)
	}
	return ranked, nil
}

func (c *Client) toMatchResults(ranked []rankedWorker, pool []*model.Worker) []model.MatchResult {
	byID := make(map[string]*model.Worker, len(pool))
	for _, w := range pool {
		byID[w.ID] = w
	}

	results := make([]model.MatchResult, 0, len(ranked))
	for _, r := range ranked {
		w, ok := byID[r.WorkerID]
		if !ok {
			c.logger.Warn("scoring service returned unknown worker", "worker_id", r.WorkerID)
			continue
		}
		result := model.MatchResult{
			WorkerID:      r.WorkerID,
			WorkerName:    w.FullName,
			Score:         r.Score,
			Justification: r.Justification,
		}
		if w.ProfilePictureURL != nil {
			result.ProfilePictureURL = *w.ProfilePictureURL
		}
		results = append(results, result)
	}
	return results
}
