package service

import (
	"testing"
	"time"

	"curanet/config"
	"curanet/internal/auth"
	"curanet/internal/domain"
	"curanet/internal/models"
	"curanet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthService(t *testing.T) (*AuthService, *config.Config) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	cfg := &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "access",
			RefreshSecret: "refresh",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "curanet-test",
		},
	}
	return NewAuthService(cfg, repository.NewUserRepository(db)), cfg
}

func TestRegisterAndLogin(t *testing.T) {
	svc, cfg := newAuthService(t)

	u, access, refresh, err := svc.Register("Ann", "ann@example.com", "s3cret-pass", domain.RolePatient)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	claims, err := auth.ParseAccessToken(&cfg.JWT, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RolePatient, claims.Role)

	_, _, _, err = svc.Login("ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	got, _, _, err := svc.Login("ann@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegisterRejectsDuplicateEmailAndBadRole(t *testing.T) {
	svc, _ := newAuthService(t)
	_, _, _, err := svc.Register("Ann", "ann@example.com", "s3cret-pass", domain.RolePatient)
	require.NoError(t, err)

	_, _, _, err = svc.Register("Ann2", "ann@example.com", "other-pass", domain.RoleDoctor)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, _, _, err = svc.Register("Eve", "eve@example.com", "pass-word", "SUPERUSER")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	svc, cfg := newAuthService(t)
	u, _, refresh, err := svc.Register("Ann", "ann@example.com", "s3cret-pass", domain.RoleDoctor)
	require.NoError(t, err)

	got, access, _, err := svc.Refresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	claims, err := auth.ParseAccessToken(&cfg.JWT, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, _, err = svc.Refresh("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
