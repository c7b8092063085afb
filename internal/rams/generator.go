package rams

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/rams-cli/internal/ai"
)

// DefaultTemperature keeps completions close to deterministic.
const DefaultTemperature = 0.2

// Source says where a generated document came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceTemplate Source = "template"
)

// Outcome is the result of one generation cycle. Document is always complete
// and renderable whichever Source produced it.
type Outcome struct {
	Document  Document      `json:"document"`
	Source    Source        `json:"source"`
	Reason    string        `json:"reason,omitempty"`
	Repairs   []string      `json:"repairs,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Model     string        `json:"model,omitempty"`
	Usage     ai.Usage      `json:"usage"`
	Duration  time.Duration `json:"duration_ns"`
	Prompt    Prompt        `json:"-"`
	// Cause is the fallback error, a *GenerationError, when Source is template.
	Cause error `json:"-"`
}

// Generator runs the prompt, completion and normalize stages. Any failure
// after the prompt is built degrades to the template document; only missing
// configuration and caller cancellation are returned as errors.
type Generator struct {
	Runtime     ai.Runtime
	Templates   *TemplateStore
	Model       string
	Temperature float64
	Seed        *int
	Locale      string
	Strict      bool
	Policy      ListPolicy
	MaxTokens   int
	Logger      *zap.Logger
}

// Generate produces a document for answers.
func (g *Generator) Generate(ctx context.Context, a Answers) (Outcome, error) {
	start := time.Now()
	templates := g.Templates
	if templates == nil {
		templates = NewTemplateStore(nil)
	}
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if g.Runtime == nil {
		return Outcome{}, &ai.ConfigError{Key: "default_provider"}
	}

	base := templates.Base()
	prompt := BuildPrompt(a, base, PromptOptions{Locale: g.Locale, Strict: g.Strict})
	out := Outcome{Model: g.Model, Prompt: prompt}

	resp, err := g.Runtime.Generate(ctx, ai.GenerateRequest{
		Model: g.Model,
		Messages: []ai.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens:      g.MaxTokens,
		Temperature:    g.Temperature,
		Seed:           g.Seed,
		ResponseFormat: ai.JSONObject,
	})
	if err != nil {
		if ai.IsConfigError(err) {
			return Outcome{}, err
		}
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return fallback(log, out, base, &GenerationError{Stage: StageComplete, Err: err}, start), nil
	}
	out.RequestID = resp.RequestID
	out.Usage = resp.Usage

	doc, rep, err := Normalize(resp.Content(), base, NormalizeOptions{Now: templates.Now, Policy: g.Policy})
	out.Repairs = rep.Repairs
	if err != nil {
		if resp.Truncated() {
			err = fmt.Errorf("%w: %w", ErrTruncated, err)
		}
		return fallback(log, out, base, &GenerationError{Stage: StageNormalize, Err: err}, start), nil
	}
	for _, r := range rep.Repairs {
		log.Debug("normalizer repair", zap.String("repair", r), zap.String("request_id", out.RequestID))
	}

	out.Document = doc
	out.Source = SourceModel
	out.Duration = time.Since(start)
	return out, nil
}

func fallback(log *zap.Logger, out Outcome, base Document, cause error, start time.Time) Outcome {
	log.Warn("generation fell back to template",
		zap.String("reason", cause.Error()),
		zap.String("kind", string(ai.KindOf(cause))),
		zap.String("model", out.Model),
		zap.String("request_id", out.RequestID),
	)
	out.Document = base
	out.Source = SourceTemplate
	out.Reason = cause.Error()
	out.Cause = cause
	out.Duration = time.Since(start)
	return out
}
