package engine

import (
	"fmt"
	"sync"

	"github.com/germanamz/azllm/pkg/modeladapter"
	"github.com/germanamz/azllm/pkg/providers/azure"
)

// ProviderFactory creates a Completer from a Config.
type ProviderFactory func(cfg Config) (modeladapter.Completer, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factoryMu.Lock()
		defer factoryMu.Unlock()

		factories["azure"] = newAzure
	})
}

// RegisterProvider registers a custom provider factory under the given kind.
// It can be called before New to extend the engine with additional providers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newAzure(cfg Config) (modeladapter.Completer, error) {
	a, err := azure.New(azure.Options{
		Endpoint:    cfg.Endpoint,
		APIKey:      cfg.APIKey,
		Deployment:  cfg.DeploymentName,
		APIVersion:  cfg.APIVersion,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Client:      cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		a.Timeout = cfg.Timeout
	}

	return a, nil
}

// buildCompleter creates a Completer using the registered factory for cfg.Kind.
func buildCompleter(cfg Config) (modeladapter.Completer, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = DefaultKind
	}

	factory, ok := getFactory(kind)
	if !ok {
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}

	return factory(cfg)
}
