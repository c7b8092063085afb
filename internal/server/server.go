// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/rams-cli/internal/ai"
	"github.com/KaramelBytes/rams-cli/internal/history"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/render"
)

const maxBody = 1 << 20

// Generator runs one generation cycle.
type Generator interface {
	Generate(ctx context.Context, a rams.Answers) (rams.Outcome, error)
}

// Recorder stores finished generations.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Config controls the HTTP surface.
type Config struct {
	Addr       string
	RatePerMin int
	Burst      int
	Layout     render.Layout
	Policy     rams.ListPolicy
	Provider   string
}

type Server struct {
	router    chi.Router
	gen       Generator
	templates *rams.TemplateStore
	history   Recorder
	limiter   *rate.Limiter
	cfg       Config
	log       *zap.Logger
}

// New builds the server. hist and log may be nil.
func New(gen Generator, templates *rams.TemplateStore, hist Recorder, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if templates == nil {
		templates = rams.NewTemplateStore(nil)
	}
	limit := rate.Inf
	if cfg.RatePerMin > 0 {
		limit = rate.Limit(float64(cfg.RatePerMin) / 60)
	}
	s := &Server{
		router:    chi.NewRouter(),
		gen:       gen,
		templates: templates,
		history:   hist,
		limiter:   rate.NewLimiter(limit, max(1, cfg.Burst)),
		cfg:       cfg,
		log:       log,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID, middleware.Recoverer, s.logRequests)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/template", s.handleTemplate)
		r.With(s.throttle).Post("/generate", s.handleGenerate)
		r.Post("/normalize", s.handleNormalize)
		r.Post("/render", s.handleRender)
		r.Post("/preview", s.handlePreview)
	})
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("api listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := s.limiter.Reserve()
		if !res.OK() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		if d := res.Delay(); d > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(d.Seconds())+1))
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.templates.Base())
}

// generateResponse is the wire form of a rams.Outcome.
type generateResponse struct {
	Document  rams.Document `json:"document"`
	Source    rams.Source   `json:"source"`
	Reason    string        `json:"reason,omitempty"`
	Failure   ai.Kind       `json:"failure_kind,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
	Repairs   []string      `json:"repairs"`
	RequestID string        `json:"request_id,omitempty"`
	Model     string        `json:"model,omitempty"`
	Usage     *ai.Usage     `json:"usage,omitempty"`
	Duration  string        `json:"duration,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var a rams.Answers
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.gen == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no generator configured"))
		return
	}
	out, err := s.gen.Generate(r.Context(), a)
	if err != nil {
		switch {
		case ai.IsConfigError(err):
			writeError(w, http.StatusServiceUnavailable, err)
		case r.Context().Err() != nil:
			// client went away
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	if s.history != nil {
		if _, err := s.history.Record(r.Context(), history.FromOutcome("api", s.cfg.Provider, out)); err != nil {
			s.log.Warn("history record failed", zap.Error(err))
		}
	}
	usage := out.Usage
	writeJSON(w, http.StatusOK, generateResponse{
		Document:  out.Document,
		Source:    out.Source,
		Reason:    out.Reason,
		Failure:   ai.KindOf(out.Cause),
		Retryable: ai.Temporary(out.Cause),
		Repairs:   nonNil(out.Repairs),
		RequestID: out.RequestID,
		Model:     out.Model,
		Usage:     &usage,
		Duration:  out.Duration.String(),
	})
}

// handleNormalize repairs a raw completion onto the template. Failures fall
// back to the template and are reported in the body, not the status.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	policy := s.cfg.Policy
	if p := r.URL.Query().Get("policy"); p != "" {
		if policy, err = rams.ParseListPolicy(p); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	base := s.templates.Base()
	doc, rep, err := rams.Normalize(string(body), base, rams.NormalizeOptions{Now: s.templates.Now, Policy: policy})
	resp := generateResponse{Document: doc, Source: rams.SourceModel, Repairs: nonNil(rep.Repairs)}
	if err != nil {
		resp.Source = rams.SourceTemplate
		resp.Reason = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	layout := s.cfg.Layout
	if q := r.URL.Query().Get("layout"); q != "" {
		l, err := render.ParseLayout(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		layout = l
	}
	var doc rams.Document
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := render.RenderBytes(doc, layout)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", Filename(doc.Project.Title)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var doc rams.Document
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, render.Markdown(doc))
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives a download name from a document title.
func Filename(title string) string {
	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "rams"
	}
	return slug + ".pdf"
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
