package service

import (
	"context"
	"testing"
	"time"

	"kaab_hub/internal/common"
	"kaab_hub/internal/common/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(store *memStore) *AuthService {
	return NewAuthService(memUserRepo{store}, security.NewTokenManager([]byte("test-secret"), time.Hour))
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Name: "Amina", Email: " Amina@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "amina@example.com", res.User.Email)
	assert.Empty(t, res.User.HashedPassword)
	assert.True(t, res.User.NotificationPreferences.AnswerNotifications)

	login, err := svc.Login(ctx, LoginRequest{Email: "AMINA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "B", Email: "a@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.Equal(t, 400, common.HTTPStatusFromError(err))
	assert.Equal(t, "Email already registered", common.PublicMessage(err))
	assert.Len(t, store.users, 1)
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(newMemStore())
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Email: "a@example.com", Password: "123"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	for _, req := range []LoginRequest{
		{Email: "a@example.com", Password: "wrong-pass"},
		{Email: "nobody@example.com", Password: "secret1"},
	} {
		_, err := svc.Login(ctx, req)
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		assert.Equal(t, "Invalid credentials", common.PublicMessage(err))
	}
}
