// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the curriculum pipeline over HTTP: a small HTML
// form at / and a JSON API under /api/curricula.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/archive"
	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/internal/outline"
	"github.com/pdiddy/curriculum-engine/internal/pipeline"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxTopicLength bounds the topic accepted from clients, in runes.
const maxTopicLength = 200

// Runner runs one pipeline.
type Runner interface {
	Invoke(ctx context.Context, topic string) types.PipelineState
}

// Archive stores finished runs. *archive.Store implements it.
type Archive interface {
	Save(ctx context.Context, st types.PipelineState) (archive.Run, error)
	Get(ctx context.Context, id string) (archive.Run, error)
	List(ctx context.Context, opts archive.ListOptions) ([]archive.Summary, error)
}

var errArchiveDisabled = errors.New("archive is disabled")

// Server serves the UI and API.
type Server struct {
	runner Runner
	store  Archive
	log    *zap.Logger
	page   *template.Template
	router chi.Router
}

// New builds a Server. store may be nil, in which case runs are not saved
// and the history endpoints return 503.
func New(runner Runner, store Archive, log *zap.Logger) *Server {
	s := &Server{
		runner: runner,
		store:  store,
		log:    logging.Named(log, "server"),
		page:   template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.handleIndex)

	r.Route("/api/curricula", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/export", s.handleExport)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	<-errc
	return nil
}

// curriculumResponse is the API view of a run.
type curriculumResponse struct {
	ID          string          `json:"id,omitempty"`
	Topic       string          `json:"topic"`
	Stage       types.Stage     `json:"stage"`
	NeedsReview bool            `json:"needs_review"`
	Research    string          `json:"research"`
	Result      pipeline.Result `json:"result"`
	Outline     outline.Report  `json:"outline"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

func newResponse(id string, st types.PipelineState) curriculumResponse {
	return curriculumResponse{
		ID:          id,
		Topic:       st.Topic,
		Stage:       st.Stage,
		NeedsReview: st.NeedsReview,
		Research:    st.ResearchData.Summary,
		Result:      pipeline.ResultOf(st),
		Outline:     outline.Inspect(st.Draft()),
	}
}

// run invokes the pipeline and archives the result when a store is set.
// The archive ID is empty when the run was not saved.
func (s *Server) run(ctx context.Context, topic string) (string, types.PipelineState) {
	st := s.runner.Invoke(ctx, topic)
	if s.store == nil {
		return "", st
	}
	saved, err := s.store.Save(ctx, st)
	if err != nil {
		s.log.Error("saving run failed", zap.String("topic", topic), zap.Error(err))
		return "", st
	}
	return saved.ID, st
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	} else {
		req.Topic = r.FormValue("topic")
	}

	topic, err := normalizeTopic(req.Topic)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, st := s.run(r.Context(), topic)
	writeJSON(w, http.StatusOK, newResponse(id, st))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}
	opts := archive.ListOptions{Query: r.URL.Query().Get("q")}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", l))
			return
		}
		opts.Limit = n
	}

	runs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.log.Error("listing runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// loadRun resolves the {id} parameter, writing the error response itself
// when it returns false.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (archive.Run, bool) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return archive.Run{}, false
	}
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, archive.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return archive.Run{}, false
	case err != nil:
		s.log.Error("loading run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return archive.Run{}, false
	}
	return run, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	resp := newResponse(run.ID, run.State)
	resp.CreatedAt = &run.CreatedAt
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := archive.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s.%s"`, Slug(run.State.Topic), format.Ext()))
	if err := archive.Export(w, run, format); err != nil {
		s.log.Error("export failed", zap.String("id", run.ID), zap.Error(err))
	}
}

// indexData feeds templates/index.html.
type indexData struct {
	Topic    string
	Error    string
	ID       string
	Response *curriculumResponse
	Warnings []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{}
	if raw := r.URL.Query().Get("topic"); raw != "" {
		topic, err := normalizeTopic(raw)
		if err != nil {
			data.Topic, data.Error = raw, err.Error()
		} else {
			id, st := s.run(r.Context(), topic)
			resp := newResponse(id, st)
			data.Topic, data.ID, data.Response = topic, id, &resp
			data.Warnings = resp.Outline.Warnings()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error("rendering page failed", zap.Error(err))
	}
}

// requestLogger logs each request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func normalizeTopic(s string) (string, error) {
	topic := strings.Join(strings.Fields(s), " ")
	if topic == "" {
		return "", errors.New("topic is required")
	}
	if utf8.RuneCountInString(topic) > maxTopicLength {
		return "", fmt.Errorf("topic exceeds %d characters", maxTopicLength)
	}
	return topic, nil
}

// Slug turns a topic into a file name stem: lowercase ASCII letters and
// digits joined by hyphens.
func Slug(topic string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(topic) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "curriculum"
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
