package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vbonduro/photoshelf/internal/docstore"
	"github.com/vbonduro/photoshelf/internal/service"
)

// Error bodies returned to clients.
const (
	msgInvalidJSON      = "Invalid JSON data"
	msgMissingFields    = "Missing required fields"
	msgWriteFailed      = "Failed to save data"
	msgCorrupted        = "Corrupted data file"
	msgDirectory        = "Could not create data directory"
	msgMethodNotAllowed = "Method not allowed"
	msgBodyTooLarge     = "Request body too large"
	serverErrorPrefix   = "Server error: "
)

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Load(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrCorruptedStore) {
			s.logger.Error("stored document is corrupted", "error", err)
			writeError(w, http.StatusInternalServerError, msgCorrupted)
			return
		}
		s.logger.Error("load failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, serverErrorPrefix+err.Error())
		return
	}

	h := w.Header()
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(w, http.StatusInternalServerError, serverErrorPrefix+err.Error())
		return
	}

	result, err := s.service.Save(r.Context(), body)
	if err != nil {
		status, msg := saveErrorResponse(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("save failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		} else {
			s.logger.Debug("save rejected", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// saveErrorResponse maps a Save error to its status and client message.
func saveErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidJSON):
		return http.StatusBadRequest, msgInvalidJSON
	case errors.Is(err, service.ErrMissingFields):
		return http.StatusBadRequest, msgMissingFields
	case errors.Is(err, docstore.ErrDirectoryUnavailable):
		return http.StatusInternalServerError, msgDirectory
	case errors.Is(err, service.ErrWriteFailed):
		return http.StatusInternalServerError, msgWriteFailed
	default:
		return http.StatusInternalServerError, serverErrorPrefix + err.Error()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
