package ai

import (
	"slices"
	"sync"
	"time"
)

// RuntimeConfig carries the settings shared by every runtime factory.
// Fields a provider does not use are ignored.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	APIKey      string
	// BaseURL overrides the endpoint of OpenAI-compatible runtimes.
	BaseURL string
	// Host is the Ollama daemon address.
	Host string
}

// RuntimeFactory builds a Runtime from cfg.
type RuntimeFactory func(cfg RuntimeConfig) Runtime

var (
	registryMu sync.RWMutex
	registry   = map[string]RuntimeFactory{}
	// order keeps registration order for help text and validation.
	order []string
)

// RegisterRuntime adds or replaces the factory for name.
func RegisterRuntime(name string, f RuntimeFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, seen := registry[name]; !seen {
		order = append(order, name)
	}
	registry[name] = f
}

// GetRuntime builds the runtime registered under name.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, bool) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(cfg), true
}

// Providers lists registered provider names in registration order.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Clone(order)
}

func init() {
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) Runtime {
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, c.BaseURL)
	})
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) Runtime {
		cl := NewOpenAIClient(c.APIKey, c.HTTPTimeout)
		if c.BaseURL != "" {
			cl.baseURL = c.BaseURL
		}
		return cl
	})
	RegisterRuntime(ProviderGemini, func(c RuntimeConfig) Runtime {
		return NewGeminiClient(c.APIKey)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) Runtime {
		return NewOllamaClient(c.Host, c.HTTPTimeout)
	})
}
