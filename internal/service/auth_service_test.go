package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/labwatch/labwatch-api/internal/models"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
)

type mockAuthRepo struct {
	users map[string]*models.User
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthService(t *testing.T, users ...*models.User) *AuthService {
	t.Helper()
	repo := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "test",
	})
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "64f1a2b3c4d5e6f708192a3b",
		Username:     "alice",
		PasswordHash: string(hash),
		IsActive:     true,
		Level:        models.LevelAdmin,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	user := activeUser(t)
	svc := newAuthService(t, user)

	got, token, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.LevelAdmin, claims.Level)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t, activeUser(t))

	_, _, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newAuthService(t)

	_, _, err := svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.IsActive = false
	svc := newAuthService(t, user)

	_, _, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "hunter2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginMissingFields(t *testing.T) {
	svc := newAuthService(t)

	_, _, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	user := activeUser(t)
	issuing := newAuthService(t, user)
	_, token, err := issuing.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	verifying := NewAuthService(&mockAuthRepo{}, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "different-secret",
		Expiration: time.Hour,
	})
	_, err = verifying.ValidateToken(token)
	require.Error(t, err)
}

func TestMeLoadsFreshUser(t *testing.T) {
	user := activeUser(t)
	svc := newAuthService(t, user)

	got, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.Me(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
