package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carddemo/carddemo-api/internal/auth"
	"github.com/carddemo/carddemo-api/internal/models"
	pkgauth "github.com/carddemo/carddemo-api/pkg/auth"
)

type fakeUserRepo struct {
	byUsername map[string]*models.User
	byID       map[int64]*models.User
	err        error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{
		byUsername: make(map[string]*models.User),
		byID:       make(map[int64]*models.User),
	}
	for _, u := range users {
		r.byUsername[u.Username] = u
		r.byID[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byUsername[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func newAuthService(t *testing.T, repo UserRepository) (*AuthService, *auth.TokenManager) {
	t.Helper()
	tm := auth.NewTokenManager("auth-service-test-secret", 30*time.Minute)
	svc := NewAuthService(repo, testRetryer(), tm, 30*time.Minute, testLogger(), testAuditLogger())
	return svc, tm
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword(password, pkgauth.DefaultBcryptCost)
	require.NoError(t, err)
	return &models.User{
		ID:             1,
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: hash,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
}

func TestLoginSuccess(t *testing.T) {
	user := activeUser(t, "correct horse")
	svc, tm := newAuthService(t, newFakeUserRepo(user))

	resp, err := svc.Login(context.Background(), "alice", "correct horse", "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int((30 * time.Minute).Seconds()), resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)

	claims, err := tm.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	user := activeUser(t, "correct horse")
	inactive := activeUser(t, "correct horse")
	inactive.ID = 2
	inactive.Username = "bob"
	inactive.IsActive = false

	svc, _ := newAuthService(t, newFakeUserRepo(user, inactive))

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "correct horse"},
		{"wrong password", "alice", "battery staple"},
		{"inactive user", "bob", "correct horse"},
		{"empty username", "", "correct horse"},
		{"empty password", "alice", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.username, tc.password, "10.0.0.1")
			assert.ErrorIs(t, err, models.ErrUnauthorized)
		})
	}
}

func TestLoginStoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.err = errors.New("connection refused")
	svc, _ := newAuthService(t, repo)

	_, err := svc.Login(context.Background(), "alice", "pw", "10.0.0.1")
	assert.ErrorIs(t, err, models.ErrDatabase)
}

func TestResolveUser(t *testing.T) {
	user := activeUser(t, "correct horse")
	svc, tm := newAuthService(t, newFakeUserRepo(user))

	token, err := tm.Issue(user, 0)
	require.NoError(t, err)
	claims, err := tm.Validate(token)
	require.NoError(t, err)

	resp, err := svc.ResolveUser(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, "alice", resp.Username)
}

func TestResolveUserDeletedAccount(t *testing.T) {
	user := activeUser(t, "correct horse")
	svc, tm := newAuthService(t, newFakeUserRepo())

	token, err := tm.Issue(user, 0)
	require.NoError(t, err)
	claims, err := tm.Validate(token)
	require.NoError(t, err)

	_, err = svc.ResolveUser(context.Background(), claims)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
