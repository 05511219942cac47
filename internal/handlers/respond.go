package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/middleware"
	"github.com/vidshare/backend/internal/models"
)

const msgInternal = "Something went wrong"

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, messageResponse{Message: message})
}

// requirePrincipal fetches the user attached by the auth gate, answering 401
// when the route was mounted without it.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondMessage(r.Context(), w, http.StatusUnauthorized, middleware.UnauthenticatedMessage)
		return models.User{}, false
	}
	return user, true
}
