package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"kaab_hub/internal/common"
	"kaab_hub/internal/common/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawUpdate(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return raw
}

type fakePictures struct {
	key  string
	body string
	err  error
}

func (f *fakePictures) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.key, f.body = key, string(b)
	return "https://cdn.test/" + key, nil
}

func TestUpdateProfile(t *testing.T) {
	store := newMemStore()
	store.addUser("u1", "Old")
	svc := NewUserService(memUserRepo{store}, memQuestionRepo{store}, memAnswerRepo{store}, nil)
	ctx := context.Background()

	u, err := svc.UpdateProfile(ctx, "u1", rawUpdate(t, `{"name":" New ","bio":"hi","year":2}`))
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "New", store.users["u1"].Name)
	require.NotNil(t, store.users["u1"].Year)
	assert.Equal(t, 2, *store.users["u1"].Year)

	_, err = svc.UpdateProfile(ctx, "u1", rawUpdate(t, `{"name":"X","reputation":1000}`))
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.Equal(t, "Invalid updates", common.PublicMessage(err))
	assert.Equal(t, "New", store.users["u1"].Name)
	assert.Zero(t, store.users["u1"].Reputation)

	_, err = svc.UpdateProfile(ctx, "u1", rawUpdate(t, `{"name":""}`))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestProfile_PrivacyAppliesToOthers(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("u1", "Owner")
	owner.University = "SIMAD"
	store.addQuestion("q1", "u1")
	store.addAnswer("a1", "q1", "u1")
	svc := NewUserService(memUserRepo{store}, memQuestionRepo{store}, memAnswerRepo{store}, nil)
	ctx := context.Background()

	own, err := svc.Profile(ctx, "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", own.User.Email)
	assert.Len(t, own.QuestionsAsked, 1)
	assert.Len(t, own.AnswersProvided, 1)

	other, err := svc.Profile(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Empty(t, other.User.Email)
	assert.Equal(t, "SIMAD", other.User.University)
}

func TestChangePassword(t *testing.T) {
	store := newMemStore()
	u := store.addUser("u1", "A")
	hash, err := security.HashPassword("old-pass")
	require.NoError(t, err)
	u.HashedPassword = hash
	svc := NewUserService(memUserRepo{store}, memQuestionRepo{store}, memAnswerRepo{store}, nil)
	ctx := context.Background()

	err = svc.ChangePassword(ctx, "u1", ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "new-pass"})
	assert.Equal(t, "Current password is incorrect", common.PublicMessage(err))

	require.NoError(t, svc.ChangePassword(ctx, "u1", ChangePasswordRequest{CurrentPassword: "old-pass", NewPassword: "new-pass"}))
	assert.True(t, security.CheckPasswordHash("new-pass", store.users["u1"].HashedPassword))
}

func TestUploadProfilePicture(t *testing.T) {
	store := newMemStore()
	store.addUser("u1", "A")
	ctx := context.Background()

	disabled := NewUserService(memUserRepo{store}, memQuestionRepo{store}, memAnswerRepo{store}, nil)
	_, err := disabled.UploadProfilePicture(ctx, "u1", PictureUpload{Body: strings.NewReader("x"), ContentType: "image/png"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)

	pics := &fakePictures{}
	svc := NewUserService(memUserRepo{store}, memQuestionRepo{store}, memAnswerRepo{store}, pics)

	_, err = svc.UploadProfilePicture(ctx, "u1", PictureUpload{Body: strings.NewReader("x"), ContentType: "text/plain"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	u, err := svc.UploadProfilePicture(ctx, "u1", PictureUpload{
		Body: strings.NewReader("png-bytes"), Size: 9, ContentType: "image/png", Filename: "Me.PNG",
	})
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", pics.body)
	assert.True(t, strings.HasSuffix(pics.key, ".png"))
	assert.Equal(t, "https://cdn.test/"+pics.key, u.ProfilePicture)

	pics.err = errors.New("bucket gone")
	_, err = svc.UploadProfilePicture(ctx, "u1", PictureUpload{Body: strings.NewReader("x"), ContentType: "image/png"})
	assert.Equal(t, 500, common.HTTPStatusFromError(err))
}
