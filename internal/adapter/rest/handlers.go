package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simaogato/wealthflow-projection/internal/adapter/dto"
	"github.com/simaogato/wealthflow-projection/internal/domain"
)

const maxRequestBytes = 1 << 20

// POST /api/simulations
func (s *Server) handleRunSimulation(w http.ResponseWriter, r *http.Request) {
	var body dto.SimulationRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, err := body.ToDomain()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.projection.RunProjection(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, dto.FromResult(result))
}

// GET /api/instruments?q=
func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := s.catalog.ListInstruments(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"instruments": dto.FromInstruments(instruments),
	})
}

// GET /api/instruments/{id}
func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	inst, err := s.catalog.GetInstrument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, dto.FromInstrument(inst))
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain errors to HTTP status codes
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error().Err(err).Msg("Request failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
