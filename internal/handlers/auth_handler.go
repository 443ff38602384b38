package handlers

import (
	"net/http"

	"familybudget/internal/logger"
	"familybudget/internal/models"
	"familybudget/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	responder
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, log *logger.Logger, devMode bool) *AuthHandler {
	return &AuthHandler{
		responder:   responder{log: log, devMode: devMode},
		authService: authService,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string               `json:"token"`
	Family models.FamilySummary `json:"family"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	res, err := h.authService.Register(r.Context(), req.Name, req.Password, req.Email)
	if err != nil {
		h.respondServiceError(w, r, "registration failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: res.Token, Family: res.Family.Summary()})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	res, err := h.authService.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		h.respondServiceError(w, r, "login failed", err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: res.Token, Family: res.Family.Summary()})
}
