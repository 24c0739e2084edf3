package service

import (
	"errors"
	"testing"
	"time"

	"github.com/loyaltyclub-next/internal/config"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := openClubTestDB(t, "auth_service")
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("auto migrate admin failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "admin-jwt-secret-key-for-tests-0123456789"
	cfg.JWT.ExpireHours = 24
	adminRepo := repository.NewAdminRepository(db)
	return NewAuthService(cfg, adminRepo), db
}

func createTestAdmin(t *testing.T, svc *AuthService, db *gorm.DB, username, password string) *models.Admin {
	t.Helper()
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin
}

func TestAuthServiceLogin(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, db, "ops", "correct-password")

	got, token, expiresAt, err := svc.Login("ops", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got.ID != admin.ID {
		t.Fatalf("expected admin %d, got %d", admin.ID, got.ID)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("unexpected token/expiry: %q %v", token, expiresAt)
	}
	if got.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "ops" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthServiceLoginRejected(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	createTestAdmin(t, svc, db, "ops", "correct-password")

	if _, _, _, err := svc.Login("ops", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown admin, got %v", err)
	}
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, db, "ops", "correct-password")

	if err := svc.ChangePassword(admin.ID, "wrong", "new-password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "correct-password", "short"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}
	if err := svc.ChangePassword(9999, "x", "new-password-1"); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}

	if err := svc.ChangePassword(admin.ID, "correct-password", "new-password-1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, _, _, err := svc.Login("ops", "new-password-1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, _, err := svc.Login("ops", "correct-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
}
