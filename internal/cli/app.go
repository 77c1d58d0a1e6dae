package cli

// Package cli assembles the cobra command tree. Commands that map to the web
// app's protected routes (list, create, show, upload, browse, watch) run the
// session through the route guard first; /login and /register map to the
// auth commands.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"puzzle-helper/internal/api"
	"puzzle-helper/internal/config"
	"puzzle-helper/internal/guard"
	"puzzle-helper/internal/session"
	"puzzle-helper/internal/store"
)

// App carries the wired-up dependencies shared by all commands.
type App struct {
	CfgPath string
	Cfg     *config.Config
	Logger  *slog.Logger
	Store   *store.Store
	Session *session.Store
	API     *api.Client
	Out     io.Writer
}

// RequireUser resolves the session and applies the route guard. It returns
// the signed-in identity, or an error telling the user to log in.
func (a *App) RequireUser(ctx context.Context) (*session.Identity, error) {
	a.Session.Resolve(ctx)

	switch guard.Decide(a.Session.User(), a.Session.Loading()) {
	case guard.OutcomeAllow:
		return a.Session.User(), nil
	case guard.OutcomeRedirect:
		return nil, fmt.Errorf("not signed in: run 'pzl login <email>' first")
	default:
		return nil, errors.New("session is still resolving, try again")
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}
