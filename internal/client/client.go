package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
)

// IdempotencyKeyHeader carries the write queue entry id on every submission attempt
const IdempotencyKeyHeader = "Idempotency-Key"

// Config holds ingest API client configuration
type Config struct {
	BaseURL string        // e.g. http://localhost:8080
	Token   string        // Device bearer token
	Timeout time.Duration // Per-request timeout, 0 means 15s
}

// Client is the ingest API client used by the sync agent
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logrus.Entry
}

// APIError is a non-2xx response from the ingest API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ingest API error: status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new ingest API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logrus.WithField("component", "ingest_client"),
	}
}

var (
	_ domain.WorkoutLogSubmitter = (*Client)(nil)
	_ domain.TemplateSource      = (*Client)(nil)
)

// CreateWorkoutLog submits a finished workout. Replays with the same key return the stored log.
func (c *Client) CreateWorkoutLog(ctx context.Context, idempotencyKey string, payload domain.WorkoutLogPayload) domain.Result[*domain.WorkoutLog] {
	if idempotencyKey == "" {
		return domain.Permanent[*domain.WorkoutLog](domain.ErrMissingIdempotencyKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Permanent[*domain.WorkoutLog](fmt.Errorf("failed to marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/workout-logs", bytes.NewReader(body))
	if err != nil {
		return domain.Permanent[*domain.WorkoutLog](fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyKeyHeader, idempotencyKey)

	var log domain.WorkoutLog
	res := do(c, req, &log)
	if !res.IsOK() {
		c.log.WithFields(logrus.Fields{
			"idempotency_key": idempotencyKey,
			"result":          res.Kind.String(),
		}).Warnf("workout log submission failed: %v", res.Err)
		return domain.Result[*domain.WorkoutLog]{Kind: res.Kind, Err: res.Err}
	}
	return domain.Ok(&log)
}

// GetTemplate fetches a workout template by id
func (c *Client) GetTemplate(ctx context.Context, id string) domain.Result[*domain.WorkoutTemplate] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v1/templates/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.Permanent[*domain.WorkoutTemplate](fmt.Errorf("failed to create request: %w", err))
	}

	var tmpl domain.WorkoutTemplate
	res := do(c, req, &tmpl)
	if !res.IsOK() {
		if res.Kind == domain.ResultNotFound {
			return domain.NotFound[*domain.WorkoutTemplate]()
		}
		return domain.Result[*domain.WorkoutTemplate]{Kind: res.Kind, Err: res.Err}
	}
	return domain.Ok(&tmpl)
}

// Health returns nil when the ingest API answers its health check
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	res := do[struct{}](c, req, nil)
	return res.Error()
}

// do executes req and maps the outcome onto a Result kind.
// 2xx is Ok, 404 is NotFound, 408/425/429/5xx and transport errors are Transient,
// every other 4xx is Permanent.
func do[T any](c *Client, req *http.Request, out *T) domain.Result[*T] {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Transient[*T](fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Transient[*T](fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return domain.Permanent[*T](fmt.Errorf("failed to parse response: %w", err))
			}
		}
		return domain.Ok(out)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Result[*T]{Kind: domain.ResultNotFound, Err: errors.Join(domain.ErrNotFound, apiErr)}
	case isRetryableStatus(resp.StatusCode):
		return domain.Transient[*T](apiErr)
	default:
		return domain.Permanent[*T](apiErr)
	}
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}

// errorMessage extracts the {"error": "..."} body the API returns, falling back to the raw body
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
