// Package azure provides a Completer implementation for the Azure OpenAI
// Completions API.
package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/germanamz/azllm/pkg/modeladapter"
	"github.com/germanamz/azllm/pkg/modeladapter/usage"
	"github.com/germanamz/azllm/pkg/tokens"
)

// DefaultAPIVersion is used when Options.APIVersion is empty.
const DefaultAPIVersion = "2022-12-01"

// FillContext as MaxTokens sizes each completion to whatever the prompt
// leaves of the model's context window.
const FillContext = -1

// DefaultTemperature is sent when Options.Temperature is nil.
const DefaultTemperature = 0.7

const defaultMaxTokens = 256

// ErrMissingCredentials is returned by New when a required setting is empty.
var ErrMissingCredentials = errors.New("azure: missing credentials")

var _ modeladapter.Completer = (*Adapter)(nil)

// Options configures an Adapter.
type Options struct {
	Endpoint    string // Resource endpoint, e.g. "https://my-res.openai.azure.com".
	APIKey      string
	Deployment  string // Deployment name the model is served under.
	APIVersion  string
	Model       string // Model behind the deployment; selects the tokenizer.
	MaxTokens   int      // 0 = 256, FillContext = remaining context window.
	Temperature *float64 // nil = DefaultTemperature; 0 is sent as-is.
	Client      *http.Client
}

// Adapter implements modeladapter.Completer for one Azure OpenAI deployment.
type Adapter struct {
	modeladapter.ModelAdapter

	Deployment string
	counter    *tokens.Counter
}

// New creates an Adapter bound to opts.Deployment. Endpoint, API key and
// deployment name are required.
func New(opts Options) (*Adapter, error) {
	var missing []string
	if opts.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if opts.APIKey == "" {
		missing = append(missing, "api key")
	}
	if opts.Deployment == "" {
		missing = append(missing, "deployment name")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if opts.MaxTokens < FillContext {
		return nil, fmt.Errorf("azure: invalid max tokens %d", opts.MaxTokens)
	}

	if opts.Model == "" {
		opts.Model = tokens.DefaultModel
	}
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}

	counter, err := tokens.New(opts.Model)
	if err != nil {
		return nil, fmt.Errorf("azure: %w", err)
	}

	a := &Adapter{
		Deployment: opts.Deployment,
		counter:    counter,
	}
	a.BaseURL = strings.TrimRight(opts.Endpoint, "/")
	a.Auth = modeladapter.Auth{Key: opts.APIKey, Header: "api-key"}
	a.Client = opts.Client
	a.Query = url.Values{"api-version": {opts.APIVersion}}
	a.Name = opts.Model
	a.Temperature = DefaultTemperature
	if opts.Temperature != nil {
		a.Temperature = *opts.Temperature
	}
	a.MaxTokens = opts.MaxTokens
	if a.MaxTokens == 0 {
		a.MaxTokens = defaultMaxTokens
	}

	return a, nil
}

// Tokens returns the counter matching the deployment's model.
func (a *Adapter) Tokens() *tokens.Counter { return a.counter }

// Complete sends prompt to the deployment and returns the first choice.
func (a *Adapter) Complete(ctx context.Context, prompt string) (modeladapter.Completion, error) {
	maxTokens, err := a.maxTokensFor(prompt)
	if err != nil {
		return modeladapter.Completion{}, err
	}

	req := apiRequest{
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: a.Temperature,
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, a.completionsPath(), req, &resp); err != nil {
		return modeladapter.Completion{}, fmt.Errorf("azure: %w", err)
	}

	tc := usage.TokenCount{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	a.Usage.Add(tc)

	if len(resp.Choices) == 0 {
		return modeladapter.Completion{}, fmt.Errorf("azure: empty choices in response")
	}

	return modeladapter.Completion{
		Text:         resp.Choices[0].Text,
		FinishReason: resp.Choices[0].FinishReason,
		Usage:        tc,
	}, nil
}

func (a *Adapter) completionsPath() string {
	return "/openai/deployments/" + url.PathEscape(a.Deployment) + "/completions"
}

func (a *Adapter) maxTokensFor(prompt string) (int, error) {
	if a.MaxTokens != FillContext {
		return a.MaxTokens, nil
	}

	left, err := a.counter.Remaining(prompt)
	if err != nil {
		return 0, fmt.Errorf("azure: %w", err)
	}
	if left <= 0 {
		return 0, fmt.Errorf("azure: prompt exceeds the %d token context window of %s",
			tokens.ContextWindow(a.Name), a.Name)
	}

	return left, nil
}

// --- wire types ---

type apiRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type apiResponse struct {
	ID      string      `json:"id"`
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
