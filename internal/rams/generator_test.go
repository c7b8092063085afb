package rams

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/rams-cli/internal/ai"
)

type stubRuntime struct {
	content string
	finish  string
	err     error
	got     ai.GenerateRequest
}

func (s *stubRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResponse{
		Choices:   []ai.Choice{{Message: ai.Message{Role: "assistant", Content: s.content}, FinishReason: s.finish}},
		Usage:     ai.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		RequestID: "req_1",
	}, nil
}

func newGenerator(rt ai.Runtime, log *zap.Logger) *Generator {
	seed := 11
	return &Generator{
		Runtime:     rt,
		Templates:   NewTemplateStore(fixedNow),
		Model:       "test-model",
		Temperature: DefaultTemperature,
		Seed:        &seed,
		Logger:      log,
	}
}

func TestGenerateFromModel(t *testing.T) {
	rt := &stubRuntime{content: `{"project": {"title": "Boiler swap"}, "activities": ["Isolate"]}`}
	out, err := newGenerator(rt, nil).Generate(context.Background(), Answers{Title: "Boiler swap"})
	require.NoError(t, err)

	assert.Equal(t, SourceModel, out.Source)
	assert.Empty(t, out.Reason)
	assert.Equal(t, "Boiler swap", out.Document.Project.Title)
	assert.Equal(t, "req_1", out.RequestID)
	assert.Equal(t, 150, out.Usage.TotalTokens)

	assert.Equal(t, ai.JSONObject, rt.got.ResponseFormat)
	assert.Equal(t, DefaultTemperature, rt.got.Temperature)
	require.NotNil(t, rt.got.Seed)
	assert.Equal(t, 11, *rt.got.Seed)
	require.Len(t, rt.got.Messages, 2)
	assert.Equal(t, out.Prompt.System, rt.got.Messages[0].Content)
}

func TestGenerateFallsBackOnRuntimeError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rt := &stubRuntime{err: &ai.ServerError{APIError: &ai.APIError{StatusCode: 502}}}

	out, err := newGenerator(rt, zap.New(core)).Generate(context.Background(), Answers{})
	require.NoError(t, err)

	assert.Equal(t, SourceTemplate, out.Source)
	assert.Contains(t, out.Reason, "complete:")
	var se *ai.ServerError
	assert.True(t, errors.As(out.Cause, &se))
	if diff := cmp.Diff(NewTemplateStore(fixedNow).Base(), out.Document); diff != "" {
		t.Fatalf("fallback document differs from template:\n%s", diff)
	}
	require.Equal(t, 1, logs.FilterMessage("generation fell back to template").Len())
}

func TestGenerateFallsBackOnMalformedResponse(t *testing.T) {
	out, err := newGenerator(&stubRuntime{content: "Sure! Here is your RAMS:"}, nil).Generate(context.Background(), Answers{})
	require.NoError(t, err)
	assert.Equal(t, SourceTemplate, out.Source)
	assert.Contains(t, out.Reason, "normalize:")
	assert.Equal(t, "req_1", out.RequestID)
}

func TestGenerateReportsTruncation(t *testing.T) {
	rt := &stubRuntime{content: `{"project": {"title": "Boiler`, finish: ai.FinishLength}
	out, err := newGenerator(rt, nil).Generate(context.Background(), Answers{})
	require.NoError(t, err)
	assert.Equal(t, SourceTemplate, out.Source)
	assert.ErrorIs(t, out.Cause, ErrTruncated)
	assert.ErrorIs(t, out.Cause, ErrMalformedJSON)
}

func TestGenerateReturnsConfigError(t *testing.T) {
	rt := &stubRuntime{err: &ai.ConfigError{Key: "OPENROUTER_API_KEY"}}
	_, err := newGenerator(rt, nil).Generate(context.Background(), Answers{})
	var ce *ai.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "OPENROUTER_API_KEY", ce.Key)

	_, err = newGenerator(nil, nil).Generate(context.Background(), Answers{})
	assert.True(t, ai.IsConfigError(err))
}

func TestGenerateReturnsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGenerator(&stubRuntime{err: context.Canceled}, nil).Generate(ctx, Answers{})
	assert.ErrorIs(t, err, context.Canceled)
}
