package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/rams-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/rams-cli/internal/config"
	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

type runtimeOptions struct {
	Provider   string
	OllamaHost string
}

// resolveProvider applies flag > draft > config precedence.
func resolveProvider(flag string, d *draft.Draft, cfg *cfgpkg.Global) string {
	name := strings.ToLower(strings.TrimSpace(flag))
	if name == "" && d != nil && d.Config != nil {
		name = d.Config.Provider
	}
	if name == "" && cfg != nil {
		name = strings.ToLower(cfg.DefaultProvider)
	}
	switch name {
	case "":
		return ai.ProviderOpenRouter
	case "local":
		return ai.ProviderOllama
	case "google":
		return ai.ProviderGemini
	}
	return name
}

func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	providerName := resolveProvider(opts.Provider, nil, cfg)

	httpTimeout := 60 * time.Second
	if cfg != nil && cfg.HTTPTimeoutSec > 0 {
		httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	}
	rc := ai.RuntimeConfig{HTTPTimeout: httpTimeout}
	if cfg != nil {
		rc.APIKey = cfg.ProviderKey(providerName)
		rc.BaseURL = cfg.BaseURL
	} else {
		rc.APIKey = (&cfgpkg.Global{}).ProviderKey(providerName)
	}

	if providerName == ai.ProviderOllama {
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" && cfg != nil && cfg.OllamaHost != "" {
			host = cfg.OllamaHost
		}
		if host == "" {
			host = "http://127.0.0.1:11434"
		}
		rc.Host = host
		if cfg != nil && cfg.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.OllamaTimeoutSec) * time.Second
		}
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (use %s)", providerName, strings.Join(ai.Providers(), ", "))
	}
	return client, providerName, nil
}

// selectModel applies flag > draft > config precedence. The configured
// default model only applies to the configured default provider.
func selectModel(d *draft.Draft, cfg *cfgpkg.Global, explicit, provider string) string {
	if explicit != "" {
		return explicit
	}
	if d != nil && d.Config != nil && d.Config.Model != "" {
		return d.Config.Model
	}
	if cfg != nil && cfg.DefaultModel != "" {
		if cfg.DefaultProvider == "" || strings.EqualFold(cfg.DefaultProvider, provider) {
			return cfg.DefaultModel
		}
	}
	return ai.DefaultModel(provider)
}

func enforceBudget(estCost, limit float64) error {
	if limit > 0 && estCost > 0 && estCost > limit {
		return fmt.Errorf("✗ Estimated cost ~$%.4f exceeds budget limit ~$%.4f", estCost, limit)
	}
	return nil
}

// explainError turns runtime failures into actionable hints.
func explainError(err error, providerName, model string) error {
	var (
		cfgErr  *ai.ConfigError
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Errorf("%s is missing: export it or run 'rams config set %s <value>': %w", cfgErr.Key, configKeyFor(providerName), err)
	case errors.As(err, &unreach):
		if providerName == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Ensure Ollama is running (see https://ollama.com) and host is correct. You can set RAMS_OLLAMA_HOST or config 'ollama_host'. Detail: %w", unreach.Host, err)
		}
		return fmt.Errorf("endpoint unreachable. Check your network and provider settings: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: check the %s credential (~/.rams/config.yaml): %w", providerName, err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, please retry: %w", err)
	case errors.As(err, &nfErr):
		if providerName == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s' or choose another model. %w", model, model, err)
		}
		return fmt.Errorf("model not found (%s). Verify the model name or list known models via 'rams models show': %w", model, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request invalid. Try another model or fewer attachments: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	case errors.Is(err, rams.ErrTruncated):
		return fmt.Errorf("the model ran out of tokens before finishing the document; raise --max-tokens or config max_tokens: %w", err)
	case errors.Is(err, rams.ErrMalformedJSON), errors.Is(err, rams.ErrEmptyResponse):
		return fmt.Errorf("model did not return a usable JSON document; try a model with JSON mode or --strict: %w", err)
	case errors.Is(err, rams.ErrMissingTitle):
		return fmt.Errorf("model returned no project title; set one with 'rams answer title <value>': %w", err)
	default:
		return fmt.Errorf("generation failed: %w", err)
	}
}

func configKeyFor(providerName string) string {
	if providerName == ai.ProviderGemini {
		return "gemini_api_key"
	}
	return "api_key"
}

type outputOptions struct {
	JSON     bool
	Quiet    bool
	Draft    string
	Provider string
	Writer   io.Writer
}

// formatAndWriteOutput reports a finished generation.
func formatAndWriteOutput(out rams.Outcome, opts outputOptions) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	if opts.JSON {
		b, err := utils.PrettyJSON(struct {
			Draft    string `json:"draft"`
			Provider string `json:"provider"`
			rams.Outcome
		}{opts.Draft, opts.Provider, out})
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(w, string(b))
		return nil
	}
	if opts.Quiet {
		return nil
	}

	if out.RequestID != "" {
		fmt.Fprintf(w, "Request ID: %s\n", out.RequestID)
	}
	if out.Source == rams.SourceModel {
		fmt.Fprintf(w, "✓ Document generated by %s (%d prompt / %d completion tokens, %s)\n",
			out.Model, out.Usage.PromptTokens, out.Usage.CompletionTokens, out.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "⚠ Warning: using the template document (%s)\n", out.Reason)
		if out.Cause != nil {
			fmt.Fprintf(w, "  hint: %v\n", explainError(out.Cause, opts.Provider, out.Model))
		}
	}
	if len(out.Repairs) > 0 {
		fmt.Fprintf(w, "Repairs (%d):\n", len(out.Repairs))
		for _, r := range out.Repairs {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
	fmt.Fprintf(w, "  %d activities, %d hazards, %d risk rows\n",
		len(out.Document.Activities), len(out.Document.HazardRegister), len(out.Document.RiskAssessment))
	return nil
}
