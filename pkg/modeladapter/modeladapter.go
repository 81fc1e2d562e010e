package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/germanamz/azllm/pkg/modeladapter/usage"
)

// Completion is the result of a single completion call.
type Completion struct {
	Text         string
	FinishReason string
	Usage        usage.TokenCount
}

// Completer sends a prompt to a completion model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// UsageReporter provides token usage information from a completer.
// Completers that embed ModelAdapter implement this interface automatically.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
	ModelMaxTokens() int
}

// Auth holds authentication settings for a model API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// ModelAdapter holds shared state for completion clients. Embed it in
// concrete provider structs to get HTTP helpers, auth, custom headers and
// usage tracking. Concrete types should define their own Complete method to
// shadow the default stub.
type ModelAdapter struct {
	Name        string            // Model identifier (e.g. "text-davinci-003").
	Temperature float64           // Sampling temperature.
	MaxTokens   int               // Maximum tokens in the response.
	Auth        Auth              // Authentication settings.
	BaseURL     string            // API base URL (no trailing slash).
	Client      *http.Client      // HTTP client; falls back to a cached default.
	Timeout     time.Duration     // Timeout of the default client (default 10m).
	Headers     map[string]string // Extra headers applied to every request.
	Query       url.Values        // Extra query parameters applied to every request.
	Usage       usage.Tracker     // Token usage tracker.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates a ModelAdapter with the given settings.
// A nil client falls back to a default client at call time.
func New(baseURL string, auth Auth, client *http.Client) ModelAdapter {
	return ModelAdapter{
		Auth:    auth,
		BaseURL: baseURL,
		Client:  client,
	}
}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

// ModelMaxTokens returns the maximum tokens the model will generate per response.
func (a *ModelAdapter) ModelMaxTokens() int { return a.MaxTokens }

// Complete is a stub that returns an error. Concrete providers that embed
// ModelAdapter should define their own Complete method to shadow this one.
func (a *ModelAdapter) Complete(_ context.Context, _ string) (Completion, error) {
	return Completion{}, errors.New("adapter: Complete not implemented")
}

func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		timeout := a.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Minute
		}
		a.defaultClient = &http.Client{Timeout: timeout}
	})

	return a.defaultClient
}

// NewRequest builds an *http.Request with the base URL, query parameters,
// auth and custom headers already applied. The path may carry its own query
// string; adapter-level parameters are merged into it.
func (a *ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(a.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	if len(a.Query) > 0 {
		q := u.Query()
		for k, vs := range a.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	a.applyAuth(req.Header)

	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (a *ModelAdapter) applyAuth(h http.Header) {
	if a.Auth.Key == "" {
		return
	}

	header := a.Auth.Header
	if header == "" {
		header = "Authorization"
	}

	value := a.Auth.Key
	if header == "Authorization" {
		scheme := a.Auth.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}

		value = scheme + " " + value
	} else if a.Auth.Scheme != "" {
		value = a.Auth.Scheme + " " + value
	}

	h.Set(header, value)
}

// Do sends the request using the configured HTTP client.
func (a *ModelAdapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
}

// PostJSON marshals payload as JSON, sends a POST to the given path,
// checks for a 2xx status, and unmarshals the response body into dest.
// Non-2xx responses are returned as *RateLimitError, *AuthError or *APIError.
// If dest is nil the response body is discarded after the status check.
func (a *ModelAdapter) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return newStatusError(resp, respBody)
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
