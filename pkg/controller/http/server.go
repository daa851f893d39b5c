package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/usecase"
	"github.com/pitch-lab/pitchcoach/pkg/utils/errutil"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
	"github.com/pitch-lab/pitchcoach/pkg/utils/safe"
)

type Server struct {
	router  *chi.Mux
	usecase *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}

	s := &Server{
		router:  chi.NewRouter(),
		usecase: uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.listProfiles)
			r.Get("/{profileID}", s.getProfile)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.startSession)
			r.Get("/{sessionID}", s.getSession)
			r.Post("/{sessionID}/turns", s.submitTurn)
		})
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// statusOf maps domain errors to HTTP status codes. Anything unrecognized
// is an internal error.
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrProfileNotFound),
		errors.Is(err, usecase.ErrSessionNotFound),
		errors.Is(err, interfaces.ErrEntityNotFound),
		errors.Is(err, interfaces.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrSessionBusy),
		errors.Is(err, interfaces.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}
