package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rams-cli/internal/ai"
	"github.com/KaramelBytes/rams-cli/internal/history"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/render"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

type stubGenerator struct {
	got   rams.Answers
	err   error
	cause error
}

func (g *stubGenerator) Generate(_ context.Context, a rams.Answers) (rams.Outcome, error) {
	g.got = a
	if g.err != nil {
		return rams.Outcome{}, g.err
	}
	doc := rams.NewTemplateStore(fixedNow).Base()
	if g.cause != nil {
		return rams.Outcome{Document: doc, Source: rams.SourceTemplate, Reason: g.cause.Error(), Cause: g.cause}, nil
	}
	doc.Project.Title = a.Title
	return rams.Outcome{Document: doc, Source: rams.SourceModel, Model: "m", RequestID: "req_1"}, nil
}

type memRecorder struct{ entries []history.Entry }

func (m *memRecorder) Record(_ context.Context, e history.Entry) (history.Entry, error) {
	m.entries = append(m.entries, e)
	return e, nil
}

func newTestServer(gen Generator, rec Recorder, cfg Config) *Server {
	return New(gen, rams.NewTemplateStore(fixedNow), rec, cfg, nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(nil, nil, Config{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestTemplate(t *testing.T) {
	rec := do(t, newTestServer(nil, nil, Config{}), http.MethodGet, "/api/template", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc rams.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2024-03-01", doc.Project.Date)
	assert.NotEmpty(t, doc.RiskAssessment)
}

func TestGenerateRecordsHistory(t *testing.T) {
	gen, hist := &stubGenerator{}, &memRecorder{}
	s := newTestServer(gen, hist, Config{Provider: "openrouter"})
	rec := do(t, s, http.MethodPost, "/api/generate", `{"title":"Boiler swap","activities":["Isolate"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rams.SourceModel, resp.Source)
	assert.Equal(t, "Boiler swap", resp.Document.Project.Title)
	assert.Equal(t, []string{"Isolate"}, gen.got.Activities)

	require.Len(t, hist.entries, 1)
	assert.Equal(t, "api", hist.entries[0].Draft)
	assert.Equal(t, "openrouter", hist.entries[0].Provider)
}

func TestGenerateConfigErrorIs503(t *testing.T) {
	s := newTestServer(&stubGenerator{err: &ai.ConfigError{Key: "OPENROUTER_API_KEY"}}, nil, Config{})
	rec := do(t, s, http.MethodPost, "/api/generate", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "OPENROUTER_API_KEY")

	rec = do(t, newTestServer(&stubGenerator{err: errors.New("boom")}, nil, Config{}), http.MethodPost, "/api/generate", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGenerateReportsFailureKind(t *testing.T) {
	cause := &rams.GenerationError{Stage: rams.StageComplete, Err: &ai.RateLimitError{APIError: &ai.APIError{StatusCode: 429}}}
	rec := do(t, newTestServer(&stubGenerator{cause: cause}, nil, Config{}), http.MethodPost, "/api/generate", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rams.SourceTemplate, resp.Source)
	assert.Equal(t, ai.KindRateLimit, resp.Failure)
	assert.True(t, resp.Retryable)
}

func TestGenerateBadBody(t *testing.T) {
	rec := do(t, newTestServer(&stubGenerator{}, nil, Config{}), http.MethodPost, "/api/generate", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRateLimited(t *testing.T) {
	s := newTestServer(&stubGenerator{}, nil, Config{RatePerMin: 1, Burst: 1})
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/generate", `{"title":"a"}`).Code)

	rec := do(t, s, http.MethodPost, "/api/generate", `{"title":"b"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// other routes are not throttled
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/template", "").Code)
}

func TestNormalize(t *testing.T) {
	s := newTestServer(nil, nil, Config{})
	rec := do(t, s, http.MethodPost, "/api/normalize", "```json\n{\"project\":{\"title\":\"Roof\"},\"extra\":1}\n```")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rams.SourceModel, resp.Source)
	assert.Equal(t, "Roof", resp.Document.Project.Title)
	assert.Contains(t, resp.Repairs, "extra: unknown key ignored")

	rec = do(t, s, http.MethodPost, "/api/normalize", "not json")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rams.SourceTemplate, resp.Source)
	assert.NotEmpty(t, resp.Reason)
	assert.Equal(t, "Pipework Installation", resp.Document.Project.Title)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/normalize?policy=merge", "{}").Code)
}

func TestRenderAndPreview(t *testing.T) {
	s := newTestServer(nil, nil, Config{Layout: render.LayoutCards})
	body, err := json.Marshal(rams.NewTemplateStore(fixedNow).Base())
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/api/render?layout=classic", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pipework-installation.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/render?layout=poster", string(body)).Code)

	rec = do(t, s, http.MethodPost, "/api/preview", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "## Risk assessment")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "boiler-swap-block-c.pdf", Filename("Boiler swap / Block C"))
	assert.Equal(t, "rams.pdf", Filename("  "))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := New(nil, nil, nil, Config{Addr: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
