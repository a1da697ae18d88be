// Package superstaq implements a client for the Superstaq REST API.
package superstaq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetrySeconds caps the total time spent retrying a request.
	DefaultMaxRetrySeconds = 60

	clientName    = "client-superstaq"
	clientVersion = "0.1.0"
)

// APIError is a terminal error returned by the API (4xx). Requests that
// fail with an APIError are not retried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("superstaq API error (status %d): %s", e.StatusCode, e.Message)
}

// Client for the Superstaq API
type Client struct {
	baseURL         string
	apiVersion      string
	apiKey          string
	client          *http.Client
	maxRetrySeconds int
	log             zerolog.Logger
}

// NewClient creates a new Superstaq API client
func NewClient(baseURL, apiVersion, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiVersion: apiVersion,
		apiKey:     apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetrySeconds: DefaultMaxRetrySeconds,
		log:             log.With().Str("client", "superstaq").Logger(),
	}
}

// SetMaxRetrySeconds overrides the retry budget (mainly for tests).
func (c *Client) SetMaxRetrySeconds(seconds int) {
	c.maxRetrySeconds = seconds
}

// CreateJob submits serialized circuits for execution on a target.
func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (*CreateJobResponse, error) {
	if req.Repetitions <= 0 {
		return nil, fmt.Errorf("repetitions must be positive, got %d", req.Repetitions)
	}
	if req.Target == "" {
		return nil, fmt.Errorf("target is required")
	}

	var resp CreateJobResponse
	if err := c.post(ctx, "/jobs", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.JobIDs) == 0 {
		return nil, fmt.Errorf("job submission returned no job IDs")
	}

	return &resp, nil
}

// GetJob fetches the current state of a single job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*JobResult, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	var result JobResult
	if err := c.get(ctx, "/job/"+jobID, &result); err != nil {
		return nil, err
	}
	if result.JobID == "" {
		result.JobID = jobID
	}

	return &result, nil
}

// GetBalance fetches the account balance in dollars.
func (c *Client) GetBalance(ctx context.Context) (*BalanceResponse, error) {
	var resp BalanceResponse
	if err := c.get(ctx, "/balance", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTargets lists the targets available to this account.
func (c *Client) GetTargets(ctx context.Context) (*TargetsResponse, error) {
	var resp struct {
		SuperstaqTargets TargetsResponse `json:"superstaq_targets"`
	}
	if err := c.get(ctx, "/targets", &resp); err != nil {
		return nil, err
	}
	return &resp.SuperstaqTargets, nil
}

// GetTargetInfo fetches metadata for a single target.
func (c *Client) GetTargetInfo(ctx context.Context, target string) (*TargetInfo, error) {
	if target == "" {
		return nil, fmt.Errorf("target is required")
	}

	var resp TargetInfo
	if err := c.get(ctx, "/target_info/"+target, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post makes a POST request to the API with retries
func (c *Client) post(ctx context.Context, endpoint string, request interface{}, out interface{}) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(endpoint), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

// get makes a GET request to the API with retries
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(endpoint), nil)
	}, out)
}

func (c *Client) apiURL(endpoint string) string {
	return c.baseURL + "/" + c.apiVersion + endpoint
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Name", clientName)
	req.Header.Set("X-Client-Version", clientVersion)
}

// doWithRetry executes a request, retrying transient failures with a
// doubling delay until the retry budget is exhausted. 4xx responses are
// terminal and returned as *APIError immediately.
func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error), out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("no Superstaq API key configured (set SUPERSTAQ_API_KEY)")
	}

	delay := time.Second
	deadline := time.Now().Add(time.Duration(c.maxRetrySeconds) * time.Second)

	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := build()
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req)

		lastErr = c.doOnce(req, out)
		if lastErr == nil {
			return nil
		}

		// Terminal API errors are not retried
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) {
			return lastErr
		}

		if time.Now().Add(delay).After(deadline) {
			return fmt.Errorf("request failed after %d attempts: %w", attempt+1, lastErr)
		}

		c.log.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Dur("wait", delay).
			Msg("Request failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// doOnce executes a single request and decodes the response.
func (c *Client) doOnce(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = string(body)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}

	default:
		return fmt.Errorf("server error (status %d)", resp.StatusCode)
	}
}
