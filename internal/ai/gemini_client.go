package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient adapts the Gemini API to the Runtime interface. The SDK client
// is created on first use so a missing key surfaces as a ConfigError from
// Generate rather than from construction.
type GeminiClient struct {
	apiKey string

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGeminiClient returns a runtime for the Gemini API.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey}
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.client, c.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return c.client, c.err
}

// Generate sends one GenerateContent call. System messages become the system
// instruction; the remaining messages are joined into the user content.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, &ConfigError{Key: "GEMINI_API_KEY"}
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	client, err := c.sdk(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	var system, user []string
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		user = append(user, m.Content)
	}
	if len(user) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == JSONObject.Type {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.Seed != nil {
		cfg.Seed = genai.Ptr(int32(*req.Seed))
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(strings.Join(user, "\n\n")), cfg)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	choice := Choice{Message: Message{Role: "assistant", Content: resp.Text()}}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		choice.FinishReason = FinishLength
	}
	out := &GenerateResponse{
		ID:        resp.ResponseID,
		RequestID: resp.ResponseID,
		Choices:   []Choice{choice},
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// mapGeminiError converts SDK API errors into the package's typed errors.
func mapGeminiError(err error) error {
	var gerr genai.APIError
	if !errors.As(err, &gerr) {
		return &UnreachableError{Host: "generativelanguage.googleapis.com", Err: err}
	}
	apiErr := &APIError{StatusCode: gerr.Code, Code: gerr.Status, Message: gerr.Message}
	return classifyAPIError(apiErr, http.Header{})
}
