package modeladapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// APIError is returned for any non-2xx response that is not covered by a more
// specific error type.
type APIError struct {
	StatusCode int
	Code       string // Error code from the response envelope, if any.
	Message    string // Error message from the response envelope, or the raw body.
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("unexpected status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// AuthError is returned when the API rejects the credentials (HTTP 401 or 403).
type AuthError struct {
	APIError
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.APIError.Error()
}

// Unwrap exposes the embedded APIError to errors.As.
func (e *AuthError) Unwrap() error { return &e.APIError }

// RateLimitError is returned when the API responds with HTTP 429 (Too Many Requests).
// It carries an optional RetryAfter duration parsed from the Retry-After header.
// Adapters never retry on their own.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("rate limited: %s", e.Body)
}

// ParseRetryAfter parses the Retry-After header value as either seconds (integer)
// or an HTTP-date (RFC 7231). Returns zero if unparseable or if the date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// errorEnvelope is the {"error": {...}} body returned by OpenAI-compatible APIs.
type errorEnvelope struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// newStatusError classifies a failed response into one of the typed errors.
func newStatusError(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       string(body),
		}
	}

	apiErr := APIError{StatusCode: resp.StatusCode, Message: string(body)}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		apiErr.Code = decodeCode(env.Error.Code)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{APIError: apiErr}
	}

	return &apiErr
}

// decodeCode accepts both string and numeric error codes; Azure uses both.
func decodeCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}
