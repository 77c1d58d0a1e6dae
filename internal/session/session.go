package session

// Package session holds the client's view of the currently authenticated
// identity. At most one identity is live per process; it starts out unknown
// (loading) and resolves to a concrete identity or to nil after asking the
// identity provider. Tokens are persisted in the local store so a signed-in
// session survives across invocations.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"puzzle-helper/internal/store"
	"puzzle-helper/internal/validate"
)

// ErrNotConfigured is returned by auth operations when no identity provider
// is configured and the client runs in anonymous mode.
var ErrNotConfigured = errors.New("identity provider not configured")

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	UserID string
	Email  string
}

// Tokens is one set of credentials issued by the identity provider.
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// Provider is the identity provider behind the session store. The concrete
// implementation lives in internal/auth (Cognito).
type Provider interface {
	SignUp(ctx context.Context, email, password string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (Identity, error)
}

// Store tracks the live identity. With a nil provider it runs in anonymous
// mode and resolves to the fixed fallback user id.
type Store struct {
	provider       Provider
	db             *store.Store
	logger         *slog.Logger
	fallbackUserID string

	mu      sync.Mutex
	user    *Identity
	loading bool
}

// New creates a session store in the unresolved state; call Resolve before
// making any routing decision.
func New(provider Provider, db *store.Store, fallbackUserID string, logger *slog.Logger) *Store {
	return &Store{
		provider:       provider,
		db:             db,
		logger:         logger,
		fallbackUserID: fallbackUserID,
		loading:        true,
	}
}

// Resolve queries the identity provider for an existing session. A failure or
// a missing persisted session resolves to "no user" without surfacing an
// error; first runs are expected to be unauthenticated.
func (s *Store) Resolve(ctx context.Context) {
	defer s.setLoading(false)

	if s.provider == nil {
		s.setUser(&Identity{UserID: s.fallbackUserID})
		return
	}

	rec, err := s.db.LoadSession()
	if err != nil {
		s.logger.Warn("Session: failed to load persisted session", "error", err)
		s.setUser(nil)
		return
	}
	if rec == nil {
		s.setUser(nil)
		return
	}

	ident, err := s.provider.CurrentUser(ctx, rec.AccessToken)
	if err != nil {
		s.logger.Info("Session: persisted session no longer valid", "error", err)
		s.setUser(nil)
		return
	}
	s.setUser(&ident)
}

// User returns the current identity, or nil when nobody is signed in.
func (s *Store) User() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Loading reports whether the initial identity query is still outstanding.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Login signs the user in, persists the issued tokens and re-resolves the
// identity. On failure the current user is left unchanged.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if s.provider == nil {
		return ErrNotConfigured
	}
	if err := validate.Email(email); err != nil {
		return err
	}

	tokens, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	ident, err := s.provider.CurrentUser(ctx, tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	rec := store.SessionRecord{
		UserID:       ident.UserID,
		Email:        ident.Email,
		IDToken:      tokens.IDToken,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
	if err := s.db.SaveSession(rec); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.setUser(&ident)
	return nil
}

// Register creates a new account. The account is not usable until
// ConfirmRegistration is called with the code delivered by email.
func (s *Store) Register(ctx context.Context, email, password string) error {
	if s.provider == nil {
		return ErrNotConfigured
	}
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := validate.Password(password); err != nil {
		return err
	}
	if err := s.provider.SignUp(ctx, email, password); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// ConfirmRegistration finalizes a registration with the emailed code.
func (s *Store) ConfirmRegistration(ctx context.Context, email, code string) error {
	if s.provider == nil {
		return ErrNotConfigured
	}
	if err := s.provider.ConfirmSignUp(ctx, email, code); err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	return nil
}

// Logout clears the provider session and the persisted tokens. A provider
// failure is logged but does not keep the local session alive.
func (s *Store) Logout(ctx context.Context) error {
	if s.provider == nil {
		return ErrNotConfigured
	}

	rec, err := s.db.LoadSession()
	if err == nil && rec != nil && rec.AccessToken != "" {
		if err := s.provider.SignOut(ctx, rec.AccessToken); err != nil {
			s.logger.Warn("Session: provider sign-out failed", "error", err)
		}
	}

	if err := s.db.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.setUser(nil)
	return nil
}

// IDToken returns the current bearer token, or an empty string when
// unavailable. The token is read fresh from the store on every call; callers
// must not cache it.
func (s *Store) IDToken(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", nil
	}
	rec, err := s.db.LoadSession()
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.IDToken, nil
}

// UserID returns the owner id to use for API calls: the signed-in identity
// when present, the configured fallback otherwise.
func (s *Store) UserID() string {
	if u := s.User(); u != nil {
		return u.UserID
	}
	return s.fallbackUserID
}

func (s *Store) setUser(u *Identity) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
