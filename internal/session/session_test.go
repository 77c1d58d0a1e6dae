package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"puzzle-helper/internal/store"
)

// fakeProvider is an in-memory identity provider for tests.
type fakeProvider struct {
	signUpCalls  int
	signInErr    error
	signOutErr   error
	currentErr   error
	issuedTokens Tokens
	identity     Identity
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) error {
	f.signUpCalls++
	return nil
}

func (f *fakeProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	return nil
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	if f.signInErr != nil {
		return Tokens{}, f.signInErr
	}
	return f.issuedTokens, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	return f.signOutErr
}

func (f *fakeProvider) CurrentUser(ctx context.Context, accessToken string) (Identity, error) {
	if f.currentErr != nil {
		return Identity{}, f.currentErr
	}
	return f.identity, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnonymousModeResolvesToFallback(t *testing.T) {
	s := New(nil, newTestStore(t), "anonymous", discard())

	if !s.Loading() {
		t.Fatal("session should start in the loading state")
	}

	s.Resolve(t.Context())

	if s.Loading() {
		t.Error("session should be resolved")
	}
	if u := s.User(); u == nil || u.UserID != "anonymous" {
		t.Errorf("expected fallback identity, got %+v", u)
	}
	if s.UserID() != "anonymous" {
		t.Errorf("UserID() = %q", s.UserID())
	}

	token, err := s.IDToken(t.Context())
	if err != nil || token != "" {
		t.Errorf("anonymous mode should yield an empty token, got %q, %v", token, err)
	}
}

func TestResolveWithoutPersistedSession(t *testing.T) {
	p := &fakeProvider{identity: Identity{UserID: "u-1", Email: "u@example.com"}}
	s := New(p, newTestStore(t), "anonymous", discard())

	s.Resolve(t.Context())

	if s.User() != nil {
		t.Errorf("expected no user without a persisted session, got %+v", s.User())
	}
	// Fallback owner id still applies for unauthenticated calls.
	if s.UserID() != "anonymous" {
		t.Errorf("UserID() = %q", s.UserID())
	}
}

func TestLoginPersistsSession(t *testing.T) {
	p := &fakeProvider{
		identity:     Identity{UserID: "u-1", Email: "u@example.com"},
		issuedTokens: Tokens{IDToken: "id-tok", AccessToken: "acc-tok", RefreshToken: "ref-tok"},
	}
	db := newTestStore(t)
	s := New(p, db, "anonymous", discard())

	if err := s.Login(t.Context(), "u@example.com", "Passw0rd"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if u := s.User(); u == nil || u.UserID != "u-1" {
		t.Errorf("expected signed-in identity, got %+v", u)
	}

	token, err := s.IDToken(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if token != "id-tok" {
		t.Errorf("IDToken() = %q, want id-tok", token)
	}

	// A second session store over the same database picks the session up,
	// which is what makes sign-in survive across invocations.
	s2 := New(p, db, "anonymous", discard())
	s2.Resolve(t.Context())
	if u := s2.User(); u == nil || u.UserID != "u-1" {
		t.Errorf("persisted session did not resolve, got %+v", u)
	}
}

func TestLoginFailureLeavesUserUnchanged(t *testing.T) {
	p := &fakeProvider{signInErr: errors.New("wrong password")}
	s := New(p, newTestStore(t), "anonymous", discard())
	s.Resolve(t.Context())

	err := s.Login(t.Context(), "u@example.com", "wrong")
	if err == nil {
		t.Fatal("expected an error")
	}
	if s.User() != nil {
		t.Errorf("failed login must not set a user, got %+v", s.User())
	}
}

func TestLoginRejectsBadEmail(t *testing.T) {
	p := &fakeProvider{}
	s := New(p, newTestStore(t), "anonymous", discard())

	if err := s.Login(t.Context(), "not-an-email", "Passw0rd"); err == nil {
		t.Fatal("expected an error for an invalid email")
	}
}

func TestRegisterEnforcesPasswordPolicy(t *testing.T) {
	p := &fakeProvider{}
	s := New(p, newTestStore(t), "anonymous", discard())

	for _, pw := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		if err := s.Register(t.Context(), "u@example.com", pw); err == nil {
			t.Errorf("password %q should have been rejected", pw)
		}
	}
	if p.signUpCalls != 0 {
		t.Errorf("provider must not be called for rejected passwords, got %d calls", p.signUpCalls)
	}

	if err := s.Register(t.Context(), "u@example.com", "Passw0rd"); err != nil {
		t.Errorf("valid registration failed: %v", err)
	}
	if p.signUpCalls != 1 {
		t.Errorf("expected one SignUp call, got %d", p.signUpCalls)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	p := &fakeProvider{
		identity:     Identity{UserID: "u-1"},
		issuedTokens: Tokens{IDToken: "id-tok", AccessToken: "acc-tok"},
	}
	db := newTestStore(t)
	s := New(p, db, "anonymous", discard())

	if err := s.Login(t.Context(), "u@example.com", "Passw0rd"); err != nil {
		t.Fatal(err)
	}
	if err := s.Logout(t.Context()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if s.User() != nil {
		t.Error("user should be nil after logout")
	}
	if token, _ := s.IDToken(t.Context()); token != "" {
		t.Errorf("token should be gone after logout, got %q", token)
	}
}

func TestLogoutSurvivesProviderFailure(t *testing.T) {
	p := &fakeProvider{
		identity:     Identity{UserID: "u-1"},
		issuedTokens: Tokens{AccessToken: "acc-tok"},
		signOutErr:   errors.New("provider unreachable"),
	}
	db := newTestStore(t)
	s := New(p, db, "anonymous", discard())

	if err := s.Login(t.Context(), "u@example.com", "Passw0rd"); err != nil {
		t.Fatal(err)
	}

	// The provider call fails but the local session is still cleared.
	if err := s.Logout(t.Context()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if s.User() != nil {
		t.Error("user should be nil after logout")
	}
}

func TestAuthOperationsWithoutProvider(t *testing.T) {
	s := New(nil, newTestStore(t), "anonymous", discard())

	if err := s.Login(t.Context(), "u@example.com", "Passw0rd"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Login: expected ErrNotConfigured, got %v", err)
	}
	if err := s.Register(t.Context(), "u@example.com", "Passw0rd"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Register: expected ErrNotConfigured, got %v", err)
	}
	if err := s.Logout(t.Context()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Logout: expected ErrNotConfigured, got %v", err)
	}
}
