package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kombinator/garant/internal/auth"
	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/entity"
)

// AuthHandler exposes sign-up, sign-in and sign-out.
type AuthHandler struct {
	auth   *auth.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/signin", h.SignIn)
	r.Post("/auth/signout", h.SignOut)
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, fmt.Errorf("%w: invalid JSON body", common.ErrValidation))
		return
	}

	user, token, err := h.auth.SignUp(r.Context(), payload.Email, payload.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, fmt.Errorf("%w: invalid JSON body", common.ErrValidation))
		return
	}

	user, token, err := h.auth.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, common.ErrAuthRequired)
		return
	}
	if err := h.auth.SignOut(r.Context(), token); err != nil {
		h.logger.Warn("sign-out failed", zap.Error(err))
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
