package azure_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/germanamz/azllm/pkg/modeladapter"
	"github.com/germanamz/azllm/pkg/providers/azure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newTestServer(t *testing.T, handler http.HandlerFunc, mutate func(*azure.Options)) *azure.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := azure.Options{
		Endpoint:   srv.URL + "/",
		APIKey:     "test-key",
		Deployment: "davinci-prod",
		Client:     srv.Client(),
	}
	if mutate != nil {
		mutate(&opts)
	}

	a, err := azure.New(opts)
	require.NoError(t, err)

	return a
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func completionResponse(text string) map[string]any {
	return map[string]any{
		"id": "cmpl-1",
		"choices": []map[string]any{
			{"text": text, "index": 0, "finish_reason": "stop"},
		},
		"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 3},
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		opts    azure.Options
		missing string
	}{
		{"all", azure.Options{}, "endpoint, api key, deployment name"},
		{"deployment", azure.Options{Endpoint: "https://x", APIKey: "k"}, "deployment name"},
		{"key", azure.Options{Endpoint: "https://x", Deployment: "d"}, "api key"},
		{"endpoint", azure.Options{APIKey: "k", Deployment: "d"}, "endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := azure.New(tt.opts)
			require.ErrorIs(t, err, azure.ErrMissingCredentials)
			assert.True(t, strings.HasSuffix(err.Error(), ": "+tt.missing), err.Error())
		})
	}
}

func TestNew_InvalidMaxTokens(t *testing.T) {
	_, err := azure.New(azure.Options{Endpoint: "https://x", APIKey: "k", Deployment: "d", MaxTokens: -2})
	assert.EqualError(t, err, "azure: invalid max tokens -2")
}

func TestNew_UnknownModel(t *testing.T) {
	_, err := azure.New(azure.Options{Endpoint: "https://x", APIKey: "k", Deployment: "d", Model: "no-such-model"})
	assert.ErrorContains(t, err, "unknown model")
}

func TestNew_Defaults(t *testing.T) {
	a, err := azure.New(azure.Options{Endpoint: "https://res.openai.azure.com/", APIKey: "k", Deployment: "d"})
	require.NoError(t, err)

	assert.Equal(t, "https://res.openai.azure.com", a.BaseURL)
	assert.Equal(t, "text-davinci-003", a.Name)
	assert.Equal(t, 256, a.MaxTokens)
	assert.Equal(t, azure.DefaultAPIVersion, a.Query.Get("api-version"))
	assert.Equal(t, "p50k_base", a.Tokens().Encoding())
}

func TestComplete_SimpleText(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/davinci-prod/completions", r.URL.Path)
		assert.Equal(t, "2022-12-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		req := readBody(t, r)
		assert.Equal(t, "Say hello", req["prompt"])
		assert.InDelta(t, 256, req["max_tokens"], 0)
		assert.InDelta(t, azure.DefaultTemperature, req["temperature"], 1e-9)

		writeJSON(t, w, completionResponse("\n\nHello!"))
	}, nil)

	out, err := a.Complete(context.Background(), "Say hello")
	require.NoError(t, err)

	assert.Equal(t, "\n\nHello!", out.Text)
	assert.Equal(t, "stop", out.FinishReason)
	assert.Equal(t, 1, out.Usage.PromptTokens)
	assert.Equal(t, 3, out.Usage.CompletionTokens)

	last, ok := a.Usage.Last()
	require.True(t, ok)
	assert.Equal(t, out.Usage, last)
}

func TestComplete_TemperatureAndVersion(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023-05-15", r.URL.Query().Get("api-version"))

		req := readBody(t, r)
		assert.InDelta(t, 0.2, req["temperature"], 1e-9)
		assert.InDelta(t, 32, req["max_tokens"], 0)

		writeJSON(t, w, completionResponse("ok"))
	}, func(o *azure.Options) {
		o.APIVersion = "2023-05-15"
		o.Temperature = ptr(0.2)
		o.MaxTokens = 32
	})

	_, err := a.Complete(context.Background(), "x")
	require.NoError(t, err)
}

func TestComplete_ZeroTemperatureIsSent(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		require.Contains(t, req, "temperature")
		assert.InDelta(t, 0, req["temperature"], 0)

		writeJSON(t, w, completionResponse("ok"))
	}, func(o *azure.Options) {
		o.Temperature = ptr(0.0)
	})

	_, err := a.Complete(context.Background(), "hi")
	require.NoError(t, err)
}

func TestComplete_FillContext(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		// "hello world" is two tokens of a 4097 token window.
		assert.InDelta(t, 4095, req["max_tokens"], 0)

		writeJSON(t, w, completionResponse("ok"))
	}, func(o *azure.Options) {
		o.MaxTokens = azure.FillContext
	})

	_, err := a.Complete(context.Background(), "hello world")
	require.NoError(t, err)
}

func TestComplete_FillContextOverflow(t *testing.T) {
	called := false
	a := newTestServer(t, func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}, func(o *azure.Options) {
		o.MaxTokens = azure.FillContext
	})

	_, err := a.Complete(context.Background(), strings.Repeat("hello ", 5000))
	assert.ErrorContains(t, err, "exceeds the 4097 token context window")
	assert.False(t, called)
}

func TestComplete_EmptyChoices(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"choices": []any{}})
	}, nil)

	_, err := a.Complete(context.Background(), "x")
	assert.EqualError(t, err, "azure: empty choices in response")
}

func TestComplete_AuthError(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"401","message":"Access denied due to invalid subscription key or wrong API endpoint."}}`))
	}, nil)

	_, err := a.Complete(context.Background(), "x")

	var authErr *modeladapter.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, 0, a.Usage.Count())
}

func TestComplete_ContextCanceled(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, completionResponse("late"))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Complete(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
