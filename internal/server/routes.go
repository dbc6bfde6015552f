package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/format"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

type queryRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type translateResponse struct {
	OK bool `json:"ok"`
	*engine.Result
	Tree          string `json:"tree"`
	OptimizedTree string `json:"optimized_tree"`
	Plan          string `json:"plan"`
	OptimizedPlan string `json:"optimized_plan"`
	Cached        bool   `json:"cached"`
}

type catalogResponse struct {
	Configured bool                     `json:"configured"`
	Tables     map[string][]core.Column `json:"tables"`
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/translate", s.handleTranslate)
		r.Post("/validate", s.handleValidate)
		r.Get("/catalog", s.handleCatalog)
	})
	return r
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	query, ok := s.readQuery(w, r)
	if !ok {
		return
	}

	eng, key := s.current(query)
	if s.cache != nil {
		if v, hit := s.cache.Get(key); hit {
			resp := *v.(*translateResponse)
			resp.Cached = true
			writeJSON(w, http.StatusOK, &resp)
			return
		}
	}

	res, err := eng.Process(r.Context(), query)
	if err != nil {
		if engine.IsQueryError(err) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Message: err.Error(),
				Kind:    engine.ErrorKind(err),
			})
			return
		}
		s.logger.Error("translation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: err.Error()})
		return
	}

	resp := &translateResponse{
		OK:            true,
		Result:        res,
		Tree:          format.Tree(res.Tree),
		OptimizedTree: format.Tree(res.Optimized),
		Plan:          format.Plan(res.Tree),
		OptimizedPlan: format.Plan(res.Optimized),
	}
	if s.cache != nil {
		s.cache.Add(key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	query, ok := s.readQuery(w, r)
	if !ok {
		return
	}

	resp := errorResponse{OK: true}
	if err := s.Engine().Validate(query); err != nil {
		resp = errorResponse{Message: err.Error(), Kind: engine.ErrorKind(err)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	resp := catalogResponse{Tables: map[string][]core.Column{}}
	if cat, ok := s.Engine().Catalog().(core.MapCatalog); ok {
		resp.Configured = true
		for name, cols := range cat {
			resp.Tables[name] = cols
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// readQuery decodes the request body, answering 400 itself when it is
// unusable.
func (s *Server) readQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		msg := "invalid request body: " + err.Error()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msg})
		return "", false
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "query is required"})
		return "", false
	}
	return query, true
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
