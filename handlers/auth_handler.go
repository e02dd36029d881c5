package handlers

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"dost-atlas/middleware"
	"dost-atlas/models"
	"dost-atlas/utils/errors"
)

const minPasswordLen = 8

// AuthService registers operators and issues their tokens.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, models.User, error)
}

type AuthHandler struct {
	users AuthService
}

func NewAuthHandler(users AuthService) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		middleware.WriteError(w, badRequest("Username, email and password are required"))
		return
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		middleware.WriteError(w, badRequest("Email address is invalid"))
		return
	}
	if len(input.Password) < minPasswordLen {
		middleware.WriteError(w, badRequest("Password must be at least 8 characters"))
		return
	}

	userID, err := h.users.Register(r.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "REGISTRATION_ERROR", "Failed to register user", http.StatusInternalServerError))
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "userID": userID})
}

func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	token, user, err := h.users.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "LOGIN_ERROR", "Failed to login user", http.StatusUnauthorized))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "token": token, "user": user})
}
