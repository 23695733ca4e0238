package services

import (
	"testing"
	"time"

	"github.com/kasirpos/backend/internal/config"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(db, &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	resp, err := svc.Register(&dto.RegisterRequest{
		Name: "Budi", Email: "budi@example.com", Password: "rahasia123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.False(t, resp.User.EmailVerified)

	_, err = svc.Register(&dto.RegisterRequest{
		Name: "Budi 2", Email: "budi@example.com", Password: "rahasia123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(&dto.LoginRequest{Email: "budi@example.com", Password: "salah"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(&dto.LoginRequest{Email: "budi@example.com", Password: "rahasia123"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
}

func TestVerifyEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&dto.RegisterRequest{
		Name: "Budi", Email: "budi@example.com", Password: "rahasia123",
	})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "budi@example.com").Error)
	require.NotEmpty(t, user.VerificationToken)

	require.NoError(t, svc.VerifyEmail(user.VerificationToken))

	require.NoError(t, db.First(&user, "email = ?", "budi@example.com").Error)
	assert.True(t, user.EmailVerified)
	assert.Empty(t, user.VerificationToken)

	// Token is single-use.
	assert.ErrorIs(t, svc.VerifyEmail(user.VerificationToken), ErrVerificationNotFound)
	assert.ErrorIs(t, svc.VerifyEmail("nope"), ErrVerificationNotFound)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	registered, err := svc.Register(&dto.RegisterRequest{
		Name: "Budi", Email: "budi@example.com", Password: "rahasia123",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The old token is revoked by the rotation.
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	registered, err := svc.Register(&dto.RegisterRequest{
		Name: "Budi", Email: "budi@example.com", Password: "rahasia123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(&dto.LogoutRequest{RefreshToken: registered.RefreshToken}))

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
