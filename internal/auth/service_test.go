package auth

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// runAuthTest drives the same scenario against every embeddable backend.
func runAuthTest(t *testing.T, fn func(t *testing.T, svc Service)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		fn(t, NewManager())
	})
	t.Run("sqlite", func(t *testing.T) {
		svc, err := NewSQLiteManager(filepath.Join(t.TempDir(), "auth.db"), 0)
		if err != nil {
			t.Fatalf("open sqlite manager: %v", err)
		}
		defer svc.Close()
		fn(t, svc)
	})
}

func TestRegisterLoginResolve(t *testing.T) {
	runAuthTest(t, func(t *testing.T, svc Service) {
		userID, token, err := svc.Register("alice_01", "secret12")
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if userID == "" || token == "" {
			t.Fatalf("expected user id and token, got (%q, %q)", userID, token)
		}

		resolvedID, username, ok := svc.ResolveSession(token)
		if !ok {
			t.Fatalf("expected valid session")
		}
		if resolvedID != userID {
			t.Fatalf("expected user %q, got %q", userID, resolvedID)
		}
		if username != "alice_01" {
			t.Fatalf("expected username alice_01, got %s", username)
		}

		loginID, loginToken, err := svc.Login("alice_01", "secret12")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if loginID != userID {
			t.Fatalf("expected same user id after login")
		}
		if loginToken == "" || loginToken == token {
			t.Fatalf("expected a fresh login token")
		}
	})
}

func TestRegisterValidation(t *testing.T) {
	runAuthTest(t, func(t *testing.T, svc Service) {
		if _, _, err := svc.Register("ab", "secret12"); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("short username: expected ErrInvalidUsername, got %v", err)
		}
		if _, _, err := svc.Register("bad name!", "secret12"); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("bad characters: expected ErrInvalidUsername, got %v", err)
		}
		if _, _, err := svc.Register("alice_01", "short"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("short password: expected ErrInvalidPassword, got %v", err)
		}
	})
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	runAuthTest(t, func(t *testing.T, svc Service) {
		if _, _, err := svc.Register("alice_01", "secret12"); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if _, _, err := svc.Register("Alice_01", "secret12"); !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
	})
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	runAuthTest(t, func(t *testing.T, svc Service) {
		if _, _, err := svc.Register("alice_01", "secret12"); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if _, _, err := svc.Login("alice_01", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if _, _, err := svc.Login("nobody_here", "secret12"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
		}
	})
}

func TestGuestAccounts(t *testing.T) {
	runAuthTest(t, func(t *testing.T, svc Service) {
		userID, token, err := svc.Guest()
		if err != nil {
			t.Fatalf("guest failed: %v", err)
		}
		resolvedID, username, ok := svc.ResolveSession(token)
		if !ok || resolvedID != userID {
			t.Fatalf("guest session did not resolve: (%q, %v)", resolvedID, ok)
		}
		if !strings.HasPrefix(username, "guest_") {
			t.Fatalf("guest username = %q", username)
		}

		// guests have no password to log back in with
		if _, _, err := svc.Login(username, "anything-goes"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for guest login, got %v", err)
		}
	})
}

func TestLogoutInvalidatesSession(t *testing.T) {
	runAuthTest(t, func(t *testing.T, svc Service) {
		_, token, err := svc.Register("alice_01", "secret12")
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		svc.Logout(token)
		if _, _, ok := svc.ResolveSession(token); ok {
			t.Fatalf("expected logged out token to be invalid")
		}
	})
}

func TestExpiredSessionsAreRejected(t *testing.T) {
	m := NewManager()
	m.sessionTTL = -time.Hour

	_, token, err := m.Register("alice_01", "secret12")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, ok := m.ResolveSession(token); ok {
		t.Fatalf("expected expired session to be invalid")
	}
}
