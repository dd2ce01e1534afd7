// Package server exposes the composition engine over HTTP.
//
// Render requests are accepted asynchronously: the handler validates input,
// answers 202, and the run proceeds in the background. Callers learn the
// outcome through their postback target or by polling the status endpoint.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cmwn/skramble/pkg/errors"
	"github.com/cmwn/skramble/pkg/ledger"
	"github.com/cmwn/skramble/pkg/pipeline"
)

// Server handles render submissions and status queries.
type Server struct {
	runner *pipeline.Runner
	ledger ledger.Ledger
	logger *log.Logger

	// inflight tracks background runs so Shutdown can wait for them.
	inflight sync.WaitGroup
}

// New creates a server around a pipeline runner.
func New(runner *pipeline.Runner, ldg ledger.Ledger, logger *log.Logger) *Server {
	if ldg == nil {
		ldg = ledger.Noop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, ledger: ldg, logger: logger}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/v1/skribbles", func(api chi.Router) {
		api.Post("/{skribble_id}/render", s.handleRender)
		api.Get("/{skribble_id}", s.handleStatus)
	})
	return r
}

// ListenAndServe blocks serving HTTP until ctx is canceled, then drains
// in-flight runs.
func (s *Server) ListenAndServe(ctx context.Context, bind string) error {
	srv := &http.Server{
		Addr:              bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "bind", bind)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.inflight.Wait()
	return err
}

type renderRequest struct {
	SkribbleURL string `json:"skribble_url"`
	PostbackURL string `json:"post_back"`
	Preview     bool   `json:"preview"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	skribbleID := chi.URLParam(r, "skribble_id")

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "request body is not valid JSON")
		return
	}

	opts := pipeline.Options{
		SkribbleID:  skribbleID,
		SkribbleURL: req.SkribbleURL,
		PostbackURL: req.PostbackURL,
		Preview:     req.Preview,
		Logger:      s.logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, http.StatusBadRequest, errors.GetCode(err), errors.UserMessage(err))
		return
	}

	// The run outlives the request; it reports through the postback target.
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if _, err := s.runner.Execute(context.Background(), opts); err != nil {
			s.logger.Error("background run failed", "skribble_id", opts.SkribbleID, "err", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"skribble_id": skribbleID,
		"status":      ledger.StatusProcessing,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	skribbleID := chi.URLParam(r, "skribble_id")

	rec, err := s.ledger.Get(r.Context(), skribbleID)
	if err == ledger.ErrNotFound {
		writeError(w, http.StatusNotFound, errors.ErrCodeInvalidInput, "no run recorded for "+skribbleID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "loading run status")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// requestID tags every request with a correlation id for log stitching.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		s.logger.Debug("request", "id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errors.Code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    string(code),
		"message": message,
	})
}
