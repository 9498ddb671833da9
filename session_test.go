package sitekit

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-please-rotate"

func newTestSession(t *testing.T) (*SessionStore, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	return NewSessionStore(storage, testSecret, nil), storage
}

func TestLoginSuccess(t *testing.T) {
	s, storage := newTestSession(t)

	user, err := s.Login("admin", "admin123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "admin" || user.Role != RoleAdmin {
		t.Errorf("user = %+v", user)
	}
	if !s.IsAuthenticated() {
		t.Error("IsAuthenticated should be true after login")
	}
	if s.Token() == "" {
		t.Error("Token should be set after login")
	}

	// Token and user data must be persisted.
	if _, ok, _ := storage.Get(keyAuthToken); !ok {
		t.Error("auth token not persisted")
	}
	if _, ok, _ := storage.Get(keyUserData); !ok {
		t.Error("user data not persisted")
	}
}

func TestLoginFailure(t *testing.T) {
	s, _ := newTestSession(t)

	cases := []struct{ username, password string }{
		{"admin", "wrong"},
		{"nobody", "admin123"},
		{"", ""},
	}
	for _, tc := range cases {
		_, err := s.Login(tc.username, tc.password)
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("Login(%q, %q): expected *AuthError, got %v", tc.username, tc.password, err)
		}
		if authErr.Message != "Неверный логин или пароль" {
			t.Errorf("message = %q", authErr.Message)
		}
		if s.IsAuthenticated() {
			t.Error("failed login must not authenticate")
		}
	}
}

func TestLogout(t *testing.T) {
	s, storage := newTestSession(t)
	if _, err := s.Login("editor", "editor123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	s.Logout()
	if s.IsAuthenticated() {
		t.Error("still authenticated after logout")
	}
	if _, ok, _ := storage.Get(keyAuthToken); ok {
		t.Error("auth token should be cleared")
	}

	// Logging out while anonymous is a no-op.
	s.Logout()
}

func TestSessionRestore(t *testing.T) {
	storage := NewMemoryStorage()
	first := NewSessionStore(storage, testSecret, nil)
	if _, err := first.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// A fresh store over the same storage resumes the session.
	second := NewSessionStore(storage, testSecret, nil)
	if !second.IsAuthenticated() {
		t.Fatal("session not restored")
	}
	if got := second.Current().User.Username; got != "admin" {
		t.Errorf("restored user = %q", got)
	}
}

func TestSessionRestoreRejectsTamperedToken(t *testing.T) {
	storage := NewMemoryStorage()
	first := NewSessionStore(storage, testSecret, nil)
	if _, err := first.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Token signed with a different secret must not restore.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "admin"})
	tokenString, err := forged.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.Set(keyAuthToken, []byte(tokenString)); err != nil {
		t.Fatal(err)
	}

	second := NewSessionStore(storage, testSecret, nil)
	if second.IsAuthenticated() {
		t.Error("tampered token must not restore a session")
	}
	if _, ok, _ := storage.Get(keyAuthToken); ok {
		t.Error("invalid token should be cleared from storage")
	}
}

func TestSessionRestoreGarbageToken(t *testing.T) {
	storage := NewMemoryStorage()
	if err := storage.Set(keyAuthToken, []byte("not-a-jwt")); err != nil {
		t.Fatal(err)
	}
	s := NewSessionStore(storage, testSecret, nil)
	if s.IsAuthenticated() {
		t.Error("garbage token must not restore a session")
	}
}

func TestHasPermission(t *testing.T) {
	s, _ := newTestSession(t)

	if s.HasPermission(RoleEditor) {
		t.Error("anonymous has no permissions")
	}

	if _, err := s.Login("editor", "editor123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !s.HasPermission(RoleEditor) {
		t.Error("editor should have editor permission")
	}
	if s.HasPermission(RoleAdmin) {
		t.Error("editor must not have admin permission")
	}
	s.Logout()

	if _, err := s.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !s.HasPermission(RoleEditor) || !s.HasPermission(RoleAdmin) {
		t.Error("admin should satisfy both roles")
	}
}

func TestUpdateProfile(t *testing.T) {
	s, _ := newTestSession(t)

	if _, err := s.UpdateProfile(ProfileUpdate{Name: "X"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	if _, err := s.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	before := s.Current().User.Email

	user, err := s.UpdateProfile(ProfileUpdate{Name: "Новое имя"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.Name != "Новое имя" {
		t.Errorf("Name = %q", user.Name)
	}
	// Empty fields stay unchanged.
	if user.Email != before {
		t.Errorf("Email changed: %q -> %q", before, user.Email)
	}
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestSession(t)

	var events []bool
	unsubscribe := s.Subscribe(func(state SessionState) {
		events = append(events, state.IsAuthenticated)
	})

	if _, err := s.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	s.Logout()

	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("events = %v, want [true false]", events)
	}

	unsubscribe()
	if _, err := s.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if len(events) != 2 {
		t.Error("unsubscribed callback still fired")
	}
}

func TestSubscribeRemovesExactlyOne(t *testing.T) {
	s, _ := newTestSession(t)

	count := func(n *int) func(SessionState) {
		return func(SessionState) { *n++ }
	}
	var a, b int
	unsubA := s.Subscribe(count(&a))
	s.Subscribe(count(&b))

	unsubA()
	unsubA() // second call is a no-op

	if _, err := s.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if a != 0 || b != 1 {
		t.Errorf("a=%d b=%d, want 0 and 1", a, b)
	}
}

func TestSubscriberMayReenterStore(t *testing.T) {
	s, _ := newTestSession(t)

	var seen SessionState
	s.Subscribe(func(SessionState) {
		// Callbacks run outside the store lock, so reads are safe here.
		seen = s.Current()
	})
	if _, err := s.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !seen.IsAuthenticated {
		t.Error("subscriber should observe the new state")
	}
}

func TestVerify(t *testing.T) {
	s, _ := newTestSession(t)
	if s.Verify("") {
		t.Error("empty token must not verify")
	}

	if _, err := s.Login("admin", "admin123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	token := s.Token()
	if !s.Verify(token) {
		t.Error("current token should verify")
	}

	s.Logout()
	if s.Verify(token) {
		t.Error("token must not verify after logout")
	}
}
