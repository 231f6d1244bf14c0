package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/goodtune/focuswatch/internal/timer"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		State:  s.ctrl.Status().State,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	status, err := s.ctrl.Toggle(r.Context())
	if err != nil {
		if errors.Is(err, timer.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Failed to toggle timer")
		writeError(w, http.StatusInternalServerError, "Failed to toggle timer")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ctrl.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Session was not saved: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days := DefaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxStatsDays {
			writeError(w, http.StatusBadRequest, "days must be an integer between 1 and "+strconv.Itoa(MaxStatsDays))
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, s.snapshots.Snapshot(days))
}

func (s *Server) handleClearStats(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.ClearStats(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear stats")
		writeError(w, http.StatusInternalServerError, "Failed to clear stats")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPersist(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.ctrl.Persist(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read persistence preference")
		writeError(w, http.StatusInternalServerError, "Failed to read setting")
		return
	}
	writeJSON(w, http.StatusOK, PersistSetting{Enabled: enabled})
}

func (s *Server) handleSetPersist(w http.ResponseWriter, r *http.Request) {
	var req PersistSetting
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.ctrl.SetPersist(r.Context(), req.Enabled); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update persistence preference")
		writeError(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}
	writeJSON(w, http.StatusOK, req)
}
