package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// APIError é o corpo JSON de erro da API.
type APIError struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Handler struct {
	reg *Registry
	log logrus.FieldLogger
}

func NewHandler(reg *Registry, log logrus.FieldLogger) *Handler {
	return &Handler{reg: reg, log: log}
}

// Routes monta o roteador:
//
//	GET  /health
//	GET  /api/scores?category=&search=
//	GET  /api/scores/{scoreID}
//	GET  /api/scores/{scoreID}/validate
//	GET  /api/categories
//	POST /api/{scoreID}/calculate
//	POST /{scoreID}
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/scores", h.listScores)
		r.Get("/scores/{scoreID}", h.getScore)
		r.Get("/scores/{scoreID}/validate", h.validate)
		r.Get("/categories", h.categories)
		r.Post("/{scoreID}/calculate", h.calculate)
	})
	r.Post("/{scoreID}", h.calculate)
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"scores": len(h.reg.List()),
	})
}

func (h *Handler) listScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var scores []Metadata
	switch {
	case q.Get("search") != "":
		scores = h.reg.Search(q.Get("search"))
	case q.Get("category") != "":
		scores = h.reg.ByCategory(q.Get("category"))
	default:
		scores = h.reg.List()
	}

	out := make([]Summary, 0, len(scores))
	for _, m := range scores {
		out = append(out, m.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": out, "total": len(out)})
}

func (h *Handler) getScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scoreID")
	meta, ok := h.reg.Get(id)
	if !ok {
		notFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scoreID")
	if _, ok := h.reg.Get(id); !ok {
		notFound(w, id)
		return
	}

	available := h.reg.HasCalculator(id)
	status := "no_calculator"
	if available {
		status = "ready"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score_id":             id,
		"score_exists":         true,
		"calculator_available": available,
		"status":               status,
	})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats := h.reg.Categories()
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats, "total": len(cats)})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scoreID")

	var params Params
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&params); err != nil || params == nil {
		writeJSON(w, http.StatusUnprocessableEntity, APIError{
			Error:   "ValidationError",
			Message: fmt.Sprintf("Invalid parameters for %s", id),
			Details: map[string]any{"error": "request body must be a JSON object"},
		})
		return
	}

	res, err := h.reg.Calculate(id, params)
	var verr *ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, ErrScoreNotFound):
		notFound(w, id)
	case errors.Is(err, ErrNotImplemented):
		writeJSON(w, http.StatusNotImplemented, APIError{
			Error:   "CalculatorNotImplemented",
			Message: fmt.Sprintf("Calculator for '%s' not yet implemented", id),
			Details: map[string]any{"score_id": id},
		})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, APIError{
			Error:   "ValidationError",
			Message: fmt.Sprintf("Invalid parameters for %s", id),
			Details: map[string]any{"error": verr.Error()},
		})
	default:
		h.log.WithFields(logrus.Fields{
			"score_id":   id,
			"request_id": middleware.GetReqID(r.Context()),
		}).WithError(err).Error("calculation failed")
		writeJSON(w, http.StatusInternalServerError, APIError{
			Error:   "InternalServerError",
			Message: "Internal error in calculation",
			Details: map[string]any{"error": err.Error()},
		})
	}
}

func notFound(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusNotFound, APIError{
		Error:   "ScoreNotFound",
		Message: fmt.Sprintf("Score '%s' not found", id),
		Details: map[string]any{"score_id": id},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
