package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cronoplan/cronoplan-api/internal/models"
	appErrors "github.com/cronoplan/cronoplan-api/pkg/errors"
)

type authRepoStub struct {
	user       *models.User
	lastLogins int
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogins++
	return nil
}

func newAuthFixture(t *testing.T, password string, active bool) (*AuthService, *authRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &authRepoStub{user: &models.User{
		ID:           "student-1",
		Email:        "aluno@example.com",
		FullName:     "Aluno Teste",
		PasswordHash: string(hash),
		Active:       active,
	}}
	service := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "cronoplan-api",
	})
	return service, repo
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	service, repo := newAuthFixture(t, "senha123", true)

	resp, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "aluno@example.com",
		Password: "senha123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "student-1", resp.User.ID)
	assert.Equal(t, 1, repo.lastLogins)

	claims, err := service.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.UserID)
	assert.Equal(t, "aluno@example.com", claims.Email)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	service, _ := newAuthFixture(t, "senha123", true)

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "aluno@example.com",
		Password: "errada",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	service, _ := newAuthFixture(t, "senha123", true)

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "outro@example.com",
		Password: "senha123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	service, _ := newAuthFixture(t, "senha123", false)

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "aluno@example.com",
		Password: "senha123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	service, _ := newAuthFixture(t, "senha123", true)

	_, err := service.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
