package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storebill/internal/domain"
	"storebill/internal/repos"
	"storebill/internal/services"
)

func newAuth(t *testing.T, ttl time.Duration) (*services.AuthService, *fixture) {
	t.Helper()
	f := newFixture(t)
	if err := repos.SeedAdmin(f.db, "admin123"); err != nil {
		t.Fatal(err)
	}
	return services.NewAuthService(repos.NewUserRepo(f.db), "test-secret", ttl), f
}

func TestAuth_SeededAdminIsHashed(t *testing.T) {
	_, f := newAuth(t, time.Hour)
	var h string
	if err := f.db.Get(&h, `SELECT password_hash FROM users WHERE username = 'admin'`); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(h, "admin123") || !strings.HasPrefix(h, "$2") {
		t.Fatalf("unexpected hash format: %s", h)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("admin123")); err != nil {
		t.Fatalf("seed hash does not validate: %v", err)
	}
	// seeding again is a no-op
	if err := repos.SeedAdmin(f.db, "other"); err != nil {
		t.Fatal(err)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM users`); n != 1 {
		t.Fatalf("want 1 user, got %d", n)
	}
}

func TestAuth_LoginIssuesParsableToken(t *testing.T) {
	auth, _ := newAuth(t, time.Hour)
	ctx := context.Background()

	if _, _, err := auth.Login(ctx, "admin", "wrong"); !errors.Is(err, domain.ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody", "admin123"); !errors.Is(err, domain.ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials for unknown user, got %v", err)
	}

	u, tok, err := auth.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := auth.ParseToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != u.ID || claims.Username != "admin" || claims.Role != domain.RoleAdmin {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	other := services.NewAuthService(auth.Users, "different-secret", time.Hour)
	if _, err := other.ParseToken(tok); err == nil {
		t.Fatal("token accepted under a different secret")
	}
}

func TestAuth_ExpiredTokenRejected(t *testing.T) {
	auth, _ := newAuth(t, time.Hour)
	auth.TTL = -time.Minute
	u, err := auth.CurrentUser(context.Background(), mustAdminID(t, auth))
	if err != nil {
		t.Fatal(err)
	}
	tok, err := auth.Issue(u)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.ParseToken(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func mustAdminID(t *testing.T, auth *services.AuthService) string {
	t.Helper()
	u, err := auth.Users.ByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatal(err)
	}
	return u.ID
}

func TestAuth_Register(t *testing.T) {
	auth, _ := newAuth(t, time.Hour)
	ctx := context.Background()

	u, err := auth.Register(ctx, services.RegisterInput{Username: "cashier1", Name: "Cashier", Password: "s3cret!"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("want role USER, got %s", u.Role)
	}
	if _, err := auth.Register(ctx, services.RegisterInput{Username: "cashier1", Name: "Again", Password: "s3cret!"}); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("want ErrDuplicateUsername, got %v", err)
	}
	if _, err := auth.Register(ctx, services.RegisterInput{Username: "x", Name: "Short", Password: "s3cret!"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "cashier1", "s3cret!"); err != nil {
		t.Fatalf("registered user cannot log in: %v", err)
	}
}
