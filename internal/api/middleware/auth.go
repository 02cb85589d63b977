package middleware

import (
	"context"
	"errors"
	"net/http"

	"kaab_hub/internal/common"
	"kaab_hub/internal/common/security"
	"kaab_hub/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserCtxKey   contextKey = "user"
	LoggerCtxKey contextKey = "logger"
)

// UserFinder loads the account a verified token points at.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticator requires a token already verified by jwtauth.Verifier and puts
// the matching user in the request context. Any failure is a 401.
func Authenticator(users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			switch {
			case errors.Is(err, jwtauth.ErrNoTokenFound):
				common.RespondWithError(w, http.StatusUnauthorized, "Please authenticate")
				return
			case err != nil:
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			case token == nil:
				common.RespondWithError(w, http.StatusUnauthorized, "Please authenticate")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, common.ErrNotFound) {
					LoggerFromContext(r.Context()).WithError(err).Error("Failed to load authenticated user")
				}
				common.RespondWithError(w, http.StatusUnauthorized, "Please authenticate")
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user stored by Authenticator.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}
