// Package rest holds the JSON plumbing shared by the HTTP handlers.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/monargent/monargent/internal/domainerr"
	log "github.com/sirupsen/logrus"
)

type ErrorDTO struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// StatusOf maps a domain error kind to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domainerr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domainerr.ErrInvalidOperation):
		return http.StatusConflict
	case errors.Is(err, domainerr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	} else {
		log.Debugf("request rejected: %v", err)
	}
	WriteJSON(w, status, ErrorDTO{Error: domainerr.KindOf(err), Details: err.Error()})
}

// Decode reads a JSON body into v and validates it.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domainerr.Validation("malformed request body: %v", err)
	}
	return Validate(v)
}
