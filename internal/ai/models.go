package ai

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"
)

// ModelInfo is the catalog entry used for dry-run cost estimates and
// context-window warnings. Prices are USD per 1K tokens and only indicative.
type ModelInfo struct {
	Name          string  `json:"name,omitempty"`
	Provider      string  `json:"provider"`
	ContextTokens int     `json:"context_tokens"`
	InputPerK     float64 `json:"input_per_k"`
	OutputPerK    float64 `json:"output_per_k"`
	// JSONMode is true when the model honours a JSON response format.
	JSONMode bool `json:"json_mode"`
}

var (
	catalogMu sync.RWMutex
	catalog   = map[string]ModelInfo{
		"openai/gpt-4o-mini":          {Provider: ProviderOpenRouter, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006, JSONMode: true},
		"openai/gpt-4o":               {Provider: ProviderOpenRouter, ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01, JSONMode: true},
		"openai/gpt-4.1-mini":         {Provider: ProviderOpenRouter, ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016, JSONMode: true},
		"anthropic/claude-3.5-sonnet": {Provider: ProviderOpenRouter, ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015},
		"deepseek/deepseek-chat":      {Provider: ProviderOpenRouter, ContextTokens: 64000, InputPerK: 0.00027, OutputPerK: 0.0011, JSONMode: true},
		"gpt-4o-mini":                 {Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006, JSONMode: true},
		"gpt-4.1-mini":                {Provider: ProviderOpenAI, ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016, JSONMode: true},
		"gemini-2.0-flash":            {Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.0001, OutputPerK: 0.0004, JSONMode: true},
		"gemini-2.5-flash":            {Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.0003, OutputPerK: 0.0025, JSONMode: true},
		"llama3.1:8b":                 {Provider: ProviderOllama, ContextTokens: 8192, JSONMode: true},
		"mistral-nemo:latest":         {Provider: ProviderOllama, ContextTokens: 8192, JSONMode: true},
		"qwen2.5:7b":                  {Provider: ProviderOllama, ContextTokens: 32768, JSONMode: true},
	}
)

var defaultModels = map[string]string{
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-2.0-flash",
	ProviderOllama:     "llama3.1:8b",
}

// DefaultModel returns the model used when neither the draft nor config names
// one. Unknown providers get the OpenRouter default.
func DefaultModel(provider string) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderOpenRouter]
}

// LookupModel returns the catalog entry for name.
func LookupModel(name string) (ModelInfo, bool) {
	catalogMu.RLock()
	mi, ok := catalog[name]
	catalogMu.RUnlock()
	if ok {
		mi.Name = name
	}
	return mi, ok
}

// EstimateCostUSD prices a call against the catalog; ok is false for unknown models.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	return float64(promptTokens)/1000*mi.InputPerK + float64(completionTokens)/1000*mi.OutputPerK, true
}

// DecodeCatalog reads a JSON object keyed by model name, for example
//
//	{"gpt-4o-mini": {"provider": "openai", "context_tokens": 128000, "input_per_k": 0.00015}}
func DecodeCatalog(r io.Reader) (map[string]ModelInfo, error) {
	var m map[string]ModelInfo
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for name, mi := range m {
		if !slices.Contains(Providers(), mi.Provider) {
			return nil, fmt.Errorf("model %q: unknown provider %q", name, mi.Provider)
		}
		if mi.ContextTokens < 0 || mi.InputPerK < 0 || mi.OutputPerK < 0 {
			return nil, fmt.Errorf("model %q: negative limits or prices", name)
		}
	}
	return m, nil
}

// LoadCatalogFile decodes the catalog stored at path. A missing file is
// reported with an error satisfying os.IsNotExist.
func LoadCatalogFile(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCatalog(f)
}

// MergeCatalog adds or replaces entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	for k, v := range m {
		v.Name = ""
		catalog[k] = v
	}
}

// Catalog returns every entry sorted by provider then name.
func Catalog() []ModelInfo {
	catalogMu.RLock()
	out := make([]ModelInfo, 0, len(catalog))
	for k, v := range catalog {
		v.Name = k
		out = append(out, v)
	}
	catalogMu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}
