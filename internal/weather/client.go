package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// Document is the decoded provider response. The transformer, not the
// client, decides which parts of it become columns.
type Document map[string]any

// APIError is the provider's error payload, embedded in an HTTP 200 body
// alongside "success": false.
type APIError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error %d (%s): %s", e.Code, e.Type, e.Info)
}

// FetchError wraps any failure to obtain a usable current-conditions
// document: transport errors, non-2xx statuses, undecodable bodies and
// API-level errors. Fatal to the run, never retried.
type FetchError struct {
	Query string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch current conditions for %q: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches current conditions from the Weatherstack API.
//
// One request per run, no retries. The circuit breaker does not re-issue
// requests; it only fast-fails scheduled runs while the provider is down.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewClient(httpClient *http.Client, apiKey, baseURL string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherstack",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		circuit:    cb,
	}
}

// Current performs one GET against the current-conditions endpoint and
// returns the decoded document. A body carrying "success": false is an
// API-level failure even when the HTTP status is 200.
func (c *Client) Current(ctx context.Context, query string) (Document, error) {
	values := url.Values{}
	values.Set("access_key", c.apiKey)
	values.Set("query", query)

	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Query: query, Err: err}
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		var doc Document
		if decodeErr := json.NewDecoder(resp.Body).Decode(&doc); decodeErr != nil {
			return nil, fmt.Errorf("decode response body: %w", decodeErr)
		}
		return doc, nil
	})
	if err != nil {
		return nil, &FetchError{Query: query, Err: err}
	}

	doc, ok := result.(Document)
	if !ok {
		return nil, &FetchError{Query: query, Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}

	if apiErr := apiError(doc); apiErr != nil {
		return nil, &FetchError{Query: query, Err: apiErr}
	}

	if _, ok := doc["current"]; !ok {
		return nil, &FetchError{Query: query, Err: fmt.Errorf("response missing current section")}
	}

	return doc, nil
}

// apiError detects the provider's in-band error envelope.
func apiError(doc Document) *APIError {
	success, ok := doc["success"].(bool)
	if !ok || success {
		return nil
	}

	apiErr := &APIError{}
	if raw, ok := doc["error"].(map[string]any); ok {
		if code, ok := raw["code"].(float64); ok {
			apiErr.Code = int(code)
		}
		if typ, ok := raw["type"].(string); ok {
			apiErr.Type = typ
		}
		if info, ok := raw["info"].(string); ok {
			apiErr.Info = info
		}
	}
	return apiErr
}
