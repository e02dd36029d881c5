package handlers

import (
	"context"
	"net/http"

	"dost-atlas/middleware"
	"dost-atlas/models"
	"dost-atlas/utils/errors"
)

type UserLookup interface {
	GetUser(ctx context.Context, publicID string) (models.User, error)
}

type UserHandler struct {
	users UserLookup
}

func NewUserHandler(users UserLookup) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the operator behind the bearer token.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeItem(w, http.StatusOK, "", user)
}
