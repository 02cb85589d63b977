package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"kaab_hub/internal/api/middleware"
	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Middleware wraps a route group, e.g. the authenticator.
type Middleware = func(http.Handler) http.Handler

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.BadRequest("Request body is required")
		}
		return common.BadRequest("Invalid request payload")
	}
	return nil
}

// uuidParam reads a UUID path parameter. A malformed value cannot name a stored
// row, so it is reported as not found before any query runs.
func uuidParam(r *http.Request, key string) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return "", common.ErrNotFound
	}
	return id.String(), nil
}

// respondError writes err for the client and logs anything that maps to a 5xx.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
		middleware.LoggerFromContext(r.Context()).WithError(err).Error("request failed")
	}
	common.RespondWithAppError(w, err)
}

// currentUser is only valid behind the authenticator.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Please authenticate")
		return nil, false
	}
	return user, true
}
