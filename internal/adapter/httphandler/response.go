package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/foodex/internal/core/domain"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "err", err)
	}
}

// writeError maps domain errors to the response status,
// unknown errors are reported as unavailable service.
func writeError(w http.ResponseWriter, op string, err error) {
	log := slog.With("op", op)

	status, msg := http.StatusServiceUnavailable, "service unavailable"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	}

	if status == http.StatusServiceUnavailable {
		log.Error("request failed", "err", err)
	} else {
		log.Warn("request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON data: %w", domain.ErrInvalidArgument, err)
	}
	return nil
}
