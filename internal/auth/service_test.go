package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/murliorganic/backend-store/internal/common"
	"github.com/murliorganic/backend-store/internal/repo"
)

type fakeUserStore struct {
	byEmail map[string]repo.User
	byID    map[string]repo.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: map[string]repo.User{},
		byID:    map[string]repo.User{},
	}
}

func (f *fakeUserStore) Create(_ context.Context, email, passwordHash string) (repo.User, error) {
	if _, exists := f.byEmail[email]; exists {
		return repo.User{}, repo.ErrDuplicateEmail
	}
	user := repo.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	f.byEmail[email] = user
	f.byID[user.ID.Hex()] = user
	return user, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (repo.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (repo.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return user, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore) {
	t.Helper()
	store := newFakeUserStore()
	svc, err := NewService(Config{
		Store:          store,
		Secret:         "test-secret-which-is-long-enough",
		AccessTokenTTL: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Shopper@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", user.Email)
	assert.NotEmpty(t, user.ID)

	result, err := svc.Login(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
	assert.True(t, result.AccessExpiry.After(time.Now()))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "shopper@example.com", "another-pass")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: "s3cret-pass"},
		{name: "malformed email", email: "not-an-email", password: "s3cret-pass"},
		{name: "short password", email: "shopper@example.com", password: "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.email, tc.password)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "shopper@example.com", "wrong-pass")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)

	_, err = svc.Login(ctx, "unknown@example.com", "s3cret-pass")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)

	subject, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, subject)
}

func TestAccessTokenExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(16 * time.Minute) })
	_, err = svc.ParseAccessToken(result.AccessToken)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestParseAccessTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestService(t)
	other, err := NewService(Config{
		Store:  newFakeUserStore(),
		Secret: "a-completely-different-secret",
	})
	require.NoError(t, err)

	token, _, err := other.signAccessToken("some-user-id")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)
	for _, token := range []string{"", "   ", "not.a.token", "aaaa.bbbb"} {
		_, err := svc.ParseAccessToken(token)
		require.Error(t, err)
	}
}

func TestMe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)

	got, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.Me(ctx, primitive.NewObjectID().Hex())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestStoredPasswordIsHashed(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "s3cret-pass")
	require.NoError(t, err)

	saved := store.byEmail["shopper@example.com"]
	assert.NotEqual(t, "s3cret-pass", saved.PasswordHash)
	ok, err := argon2id.ComparePasswordAndHash("s3cret-pass", saved.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(Config{Store: newFakeUserStore(), Secret: "  "})
	require.Error(t, err)

	_, err = NewService(Config{Secret: "some-secret"})
	require.Error(t, err)
}
