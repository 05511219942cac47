package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
)

// UnauthenticatedMessage is the body message returned for every rejected request.
const UnauthenticatedMessage = "Please authenticate."

type principalKey struct{}

// TokenParser verifies bearer tokens and extracts their claims.
type TokenParser interface {
	Parse(token string) (models.SessionClaims, error)
}

// UserLookup resolves the user named by a verified token.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// WithPrincipal stores the authenticated user on the context.
func WithPrincipal(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFromContext returns the authenticated user attached by Authenticate.
func PrincipalFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(principalKey{}).(models.User)
	return user, ok
}

// Authenticate rejects requests that do not carry a valid session cookie and
// attaches the resolved user as the request principal otherwise.
func Authenticate(cookieName string, tokens TokenParser, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			cookie, err := r.Cookie(cookieName)
			if err != nil || strings.TrimSpace(cookie.Value) == "" {
				logger.Warn("auth gate missing session cookie")
				rejectUnauthenticated(w)
				return
			}

			claims, err := tokens.Parse(cookie.Value)
			if err != nil {
				logger.Warn("auth gate rejected token", "error", err, "expired", errors.Is(err, auth.ErrTokenExpired))
				rejectUnauthenticated(w)
				return
			}

			user, err := users.FindByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					logger.Warn("auth gate principal no longer exists", "userId", claims.UserID)
				} else {
					logger.Error("auth gate principal lookup failed", "userId", claims.UserID, "error", err)
				}
				rejectUnauthenticated(w)
				return
			}

			ctx = logging.WithUser(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, user)))
		})
	}
}

func rejectUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": UnauthenticatedMessage})
}
