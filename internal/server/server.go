package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/scrapesynth/internal/database"
	"github.com/nao1215/scrapesynth/internal/model"
	"github.com/nao1215/scrapesynth/internal/synth"
)

// maxRequestBody bounds the JSON request body.
const maxRequestBody = 1 << 20

// shutdownTimeout is how long in-flight requests get after the context ends.
const shutdownTimeout = 10 * time.Second

// Runner executes synthesis requests.
type Runner interface {
	Run(ctx context.Context, req synth.Request) (*synth.Result, error)
}

// HistoryReader reads stored runs.
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]database.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*database.Run, error)
}

// Server serves the HTTP API.
type Server struct {
	runner  Runner
	history HistoryReader
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistory enables the /api/runs routes.
func WithHistory(h HistoryReader) Option {
	return func(s *Server) {
		s.history = h
	}
}

// New creates a Server backed by runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{runner: runner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.health)
	r.Post("/api/scrape", s.scrape)
	if s.history != nil {
		r.Get("/api/runs", s.listRuns)
		r.Get("/api/runs/{id}", s.getRun)
	}
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scrapeRequest is the POST /api/scrape body.
type scrapeRequest struct {
	URL            string   `json:"url"`
	URLs           []string `json:"urls"`
	Prompt         string   `json:"prompt"`
	APIKey         string   `json:"apiKey"`
	GameMode       bool     `json:"gameMode"`
	TimeTravel     bool     `json:"timeTravel"`
	TimeTravelYear int      `json:"timeTravelYear"`
}

// sources returns urls when non-empty, else url.
func (r scrapeRequest) sources() []string {
	if len(r.URLs) > 0 {
		return r.URLs
	}
	if r.URL != "" {
		return []string{r.URL}
	}
	return nil
}

// scrapeResponse is the success body. Result is the unsplit reply.
type scrapeResponse struct {
	Result       string `json:"result"`
	LeadingText  string `json:"leadingText"`
	Chart        any    `json:"chart,omitempty"`
	TrailingText string `json:"trailingText"`
	RunID        string `json:"runId"`
	Model        string `json:"model"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	var body scrapeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	res, err := s.runner.Run(r.Context(), synth.Request{
		Sources:     body.sources(),
		Instruction: body.Prompt,
		Credential:  body.APIKey,
		Modes: model.ModeFlags{
			GameMode:   body.GameMode,
			TimeTravel: body.TimeTravel,
			TargetYear: body.TimeTravelYear,
		},
	})
	if err != nil {
		status := http.StatusInternalServerError
		if synth.IsInputError(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, scrapeResponse{
		Result:       res.RawText,
		LeadingText:  res.Synthesis.LeadingText,
		Chart:        res.Synthesis.StructuredPayload,
		TrailingText: res.Synthesis.TrailingText,
		RunID:        res.RunID,
		Model:        res.Model,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []database.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.history.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("failed to get run", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to get run"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
