package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/golfclub/internal/dependencies/random"
)

// CodeConflictRetry is the API error code for a lost optimistic write
const CodeConflictRetry = "CONFLICT_RETRY"

const (
	defaultRetries = 3
	retryBase      = 50 * time.Millisecond
)

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	httpClient *http.Client
	random     random.Random
	retries    int
	sleep      func(time.Duration)
}

// NewClient creates a new API client. Requests rejected with CONFLICT_RETRY
// are resent up to retries times with jittered exponential backoff.
func NewClient(baseURL string, rnd random.Random, retries int) *Client {
	if rnd == nil {
		rnd = random.New()
	}
	if retries < 0 {
		retries = defaultRetries
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		random:  rnd,
		retries: retries,
		sleep:   time.Sleep,
	}
}

// APIError represents an error response from the API
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// IsConflictRetry reports whether err is a CONFLICT_RETRY rejection
func IsConflictRetry(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeConflictRetry
}

// Do performs an HTTP request, retrying lost optimistic writes
func (c *Client) Do(method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = data
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = c.do(method, path, payload, result)
		if !IsConflictRetry(err) || attempt >= c.retries {
			return err
		}
		c.sleep(c.backoff(attempt))
	}
}

// backoff doubles per attempt plus up to one base interval of jitter
func (c *Client) backoff(attempt int) time.Duration {
	jitter := time.Duration(c.random.Intn(int(retryBase/time.Millisecond))) * time.Millisecond
	return retryBase<<attempt + jitter
}

func (c *Client) do(method, path string, payload []byte, result any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			errResp.Error.Status = resp.StatusCode
			return &errResp.Error
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// Put performs a PUT request
func (c *Client) Put(path string, body, result any) error {
	return c.Do(http.MethodPut, path, body, result)
}

// Patch performs a PATCH request
func (c *Client) Patch(path string, body, result any) error {
	return c.Do(http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(path string, result any) error {
	return c.Do(http.MethodDelete, path, nil, result)
}
