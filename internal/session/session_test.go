package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func newContext(t *testing.T) (*Context, *Store) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx, err := Open(store, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return ctx, store
}

func TestOpenWithoutFileIsEmpty(t *testing.T) {
	ctx, _ := newContext(t)

	if ctx.Token() != "" {
		t.Fatalf("expected empty token")
	}
	if _, err := ctx.Require(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestBeginPersistsAndEndClears(t *testing.T) {
	ctx, store := newContext(t)

	if err := ctx.Begin(Session{Token: " abc ", Role: RoleCandidate, Email: "jan@example.nl"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if ctx.Token() != "abc" {
		t.Fatalf("expected trimmed token, got %q", ctx.Token())
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("expected session file: %v", err)
	}
	if info.Mode().Perm() != fileMode {
		t.Fatalf("expected mode %o, got %o", fileMode, info.Mode().Perm())
	}

	reopened, err := Open(store, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s, ok := reopened.Current(); !ok || s.Email != "jan@example.nl" || s.Role != RoleCandidate {
		t.Fatalf("unexpected reopened session: %+v", s)
	}

	if err := ctx.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if ctx.Token() != "" {
		t.Fatalf("expected token to be cleared")
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected session file to be removed, got %v", err)
	}

	// Ending twice is harmless.
	if err := ctx.End(); err != nil {
		t.Fatalf("second end: %v", err)
	}
}

func TestBeginRejectsEmptyToken(t *testing.T) {
	ctx, store := newContext(t)

	if err := ctx.Begin(Session{Token: "  "}); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected nothing persisted, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	ctx, _ := newContext(t)
	if err := ctx.Begin(Session{Token: "t", Role: RoleEmployer}); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if _, err := ctx.Require(RoleCandidate); err == nil {
		t.Fatalf("expected role mismatch error")
	}
	if s, err := ctx.Require(RoleCandidate, RoleEmployer); err != nil || s.Role != RoleEmployer {
		t.Fatalf("expected employer session, got %+v, %v", s, err)
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if role, err := ParseRole(" Candidate "); err != nil || role != RoleCandidate {
		t.Fatalf("expected candidate, got %q, %v", role, err)
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Inspect(signed)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Subject != "42" || !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Expired(exp.Add(-time.Minute)) {
		t.Fatalf("expected token to be valid before expiry")
	}
	if !claims.Expired(exp) {
		t.Fatalf("expected token to be expired at expiry")
	}

	if _, err := Inspect("not-a-token"); !errors.Is(err, ErrTokenUnreadable) {
		t.Fatalf("expected ErrTokenUnreadable, got %v", err)
	}
	if (Claims{}).Expired(time.Now()) {
		t.Fatalf("claims without expiry never expire")
	}
}
