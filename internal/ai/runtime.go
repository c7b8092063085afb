package ai

import "context"

// Runtime is a minimal interface implemented by completion backends such as
// OpenRouter, OpenAI, Gemini and local Ollama. Implementations make exactly
// one attempt per call.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
)
