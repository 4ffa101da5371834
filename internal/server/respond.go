package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kombinator/garant/internal/auth"
	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondError maps the application error taxonomy to HTTP status codes in
// one place; handlers just return sentinel-wrapped errors.
func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, mapErr(err), errorResponse{Error: err.Error()})
}

func unmarshalStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func mapErr(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAuthRequired), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, common.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrPersistence):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
