package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/KaramelBytes/rams-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/rams-cli/internal/config"
	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/rams"
)

func TestSelectModelPrecedence(t *testing.T) {
	cfg := &cfgpkg.Global{DefaultProvider: "openrouter", DefaultModel: "cfg-model"}
	d := &draft.Draft{Config: &draft.Config{Model: "draft-model"}}

	if got := selectModel(d, cfg, "cli-model", ai.ProviderOpenRouter); got != "cli-model" {
		t.Fatalf("expected CLI model, got %q", got)
	}
	if got := selectModel(d, cfg, "", ai.ProviderOpenRouter); got != "draft-model" {
		t.Fatalf("expected draft model, got %q", got)
	}
	d.Config.Model = ""
	if got := selectModel(d, cfg, "", ai.ProviderOpenRouter); got != "cfg-model" {
		t.Fatalf("expected config model, got %q", got)
	}
	if got := selectModel(d, cfg, "", ai.ProviderGemini); got != ai.DefaultModel(ai.ProviderGemini) {
		t.Fatalf("config model must not leak to another provider, got %q", got)
	}
	cfg.DefaultModel = ""
	if got := selectModel(d, cfg, "", ai.ProviderOpenRouter); got != "openai/gpt-4o-mini" {
		t.Fatalf("expected fallback model, got %q", got)
	}
}

func TestResolveProviderPrecedence(t *testing.T) {
	cfg := &cfgpkg.Global{DefaultProvider: "gemini"}
	d := &draft.Draft{Config: &draft.Config{Provider: "openai"}}

	if got := resolveProvider("ollama", d, cfg); got != ai.ProviderOllama {
		t.Fatalf("expected flag provider, got %q", got)
	}
	if got := resolveProvider("", d, cfg); got != ai.ProviderOpenAI {
		t.Fatalf("expected draft provider, got %q", got)
	}
	if got := resolveProvider("", nil, cfg); got != ai.ProviderGemini {
		t.Fatalf("expected config provider, got %q", got)
	}
	if got := resolveProvider("", nil, nil); got != ai.ProviderOpenRouter {
		t.Fatalf("expected default provider, got %q", got)
	}
	if got := resolveProvider("local", nil, nil); got != ai.ProviderOllama {
		t.Fatalf("expected local alias to map to ollama, got %q", got)
	}
}

func TestEnforceBudget(t *testing.T) {
	if err := enforceBudget(0.0, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := enforceBudget(2.0, 1.0); err == nil {
		t.Fatal("expected error when cost exceeds budget")
	}
}

func TestBuildRuntimeDefaults(t *testing.T) {
	cfg := &cfgpkg.Global{DefaultProvider: "local", OllamaHost: "http://example"}
	client, provider, err := buildRuntime(cfg, runtimeOptions{})
	if err != nil {
		t.Fatalf("buildRuntime error: %v", err)
	}
	if provider != ai.ProviderOllama {
		t.Fatalf("expected ollama provider, got %q", provider)
	}
	if client == nil {
		t.Fatal("expected runtime client")
	}
}

func TestBuildRuntimeUnknownProvider(t *testing.T) {
	if _, _, err := buildRuntime(&cfgpkg.Global{}, runtimeOptions{Provider: "anthropic"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestExplainErrorHints(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ai.ConfigError{Key: "OPENROUTER_API_KEY"}, "rams config set api_key"},
		{&ai.UnreachableError{Host: "http://127.0.0.1:11434", Err: errors.New("refused")}, "Ollama not reachable"},
		{&ai.ModelNotFoundError{APIError: &ai.APIError{StatusCode: 404}}, "ollama pull llama3.1:8b"},
		{&rams.GenerationError{Stage: rams.StageNormalize, Err: rams.ErrMalformedJSON}, "usable JSON"},
		{&rams.GenerationError{Stage: rams.StageNormalize, Err: fmt.Errorf("%w: %w", rams.ErrTruncated, rams.ErrMalformedJSON)}, "raise --max-tokens"},
		{errors.New("boom"), "generation failed"},
	}
	for _, c := range cases {
		got := explainError(c.err, ai.ProviderOllama, "llama3.1:8b")
		if !strings.Contains(got.Error(), c.want) {
			t.Fatalf("hint for %T: expected %q in %q", c.err, c.want, got)
		}
		if !errors.Is(got, c.err) {
			t.Fatalf("hint for %T must wrap the original error", c.err)
		}
	}
}

func TestFormatAndWriteOutputFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	cause := &rams.GenerationError{Stage: rams.StageComplete, Err: &ai.ServerError{APIError: &ai.APIError{StatusCode: 502}}}
	out := rams.Outcome{
		Document: rams.NewTemplateStore(nil).Base(),
		Source:   rams.SourceTemplate,
		Reason:   cause.Error(),
		Cause:    cause,
		Model:    "openai/gpt-4o-mini",
	}
	if err := formatAndWriteOutput(out, outputOptions{Draft: "d", Provider: ai.ProviderOpenRouter, Writer: buf}); err != nil {
		t.Fatalf("formatAndWriteOutput error: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "⚠ Warning: using the template document") {
		t.Fatalf("expected fallback warning, got %q", got)
	}
	if !strings.Contains(got, "retry later") {
		t.Fatalf("expected server error hint, got %q", got)
	}
}

func TestFormatAndWriteOutputJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	out := rams.Outcome{Document: rams.NewTemplateStore(nil).Base(), Source: rams.SourceModel, RequestID: "req_1"}
	if err := formatAndWriteOutput(out, outputOptions{JSON: true, Draft: "d", Provider: "openai", Writer: buf}); err != nil {
		t.Fatalf("formatAndWriteOutput error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	for k, want := range map[string]string{"draft": "d", "provider": "openai", "source": "model", "request_id": "req_1"} {
		if fmt.Sprint(got[k]) != want {
			t.Fatalf("%s: expected %q, got %v", k, want, got[k])
		}
	}
	if _, ok := got["document"].(map[string]any); !ok {
		t.Fatalf("expected document object, got %T", got["document"])
	}
}
