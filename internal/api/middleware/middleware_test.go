package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kaab_hub/internal/common"
	"kaab_hub/internal/common/security"
	"kaab_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usersByID map[string]*model.User

func (u usersByID) FindByID(_ context.Context, id string) (*model.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, common.ErrNotFound
}

func newProtected(t *testing.T, tokens *security.TokenManager) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(tokens.JWTAuth()))
	r.Use(Authenticator(usersByID{"u1": {ID: "u1", Name: "Amina"}}))
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"name": user.Name})
	})
	return r
}

func TestAuthenticator(t *testing.T) {
	tokens := security.NewTokenManager([]byte("secret"), time.Hour)
	expired := security.NewTokenManager([]byte("secret"), -time.Hour)
	other := security.NewTokenManager([]byte("other-secret"), time.Hour)
	h := newProtected(t, tokens)

	valid, err := tokens.GenerateToken("u1")
	require.NoError(t, err)
	stale, err := expired.GenerateToken("u1")
	require.NoError(t, err)
	forged, err := other.GenerateToken("u1")
	require.NoError(t, err)
	unknown, err := tokens.GenerateToken("ghost")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"expired token", "Bearer " + stale, http.StatusUnauthorized},
		{"wrong signature", "Bearer " + forged, http.StatusUnauthorized},
		{"unknown user", "Bearer " + unknown, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Amina", body["name"])
			} else {
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logrus.NewEntry(l)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		LoggerFromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, done map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &done))
	assert.NotEmpty(t, inner["request_id"])
	assert.Equal(t, inner["request_id"], done["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), done["status"])
	assert.Equal(t, "warning", done["level"])
	assert.Equal(t, "/boom", done["path"])
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, LoggerFromContext(context.Background()))
}
