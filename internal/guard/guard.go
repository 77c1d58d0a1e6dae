// Package guard decides whether a protected view may render. It is a pure
// function of the session state and performs no fetching of its own.
package guard

import (
	"puzzle-helper/internal/session"
)

// LoginRoute is where unauthenticated requests for protected views are sent.
const LoginRoute = "/login"

// Outcome is the routing decision for a protected view.
type Outcome int

const (
	// OutcomeLoading means the session is still resolving; render a neutral
	// placeholder and make no routing decision yet.
	OutcomeLoading Outcome = iota
	// OutcomeRedirect means nobody is signed in; redirect to LoginRoute.
	OutcomeRedirect
	// OutcomeAllow means the requested content may render.
	OutcomeAllow
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeAllow:
		return "allow"
	}
	return "unknown"
}

// Decide maps the session state to a routing outcome.
func Decide(user *session.Identity, loading bool) Outcome {
	if loading {
		return OutcomeLoading
	}
	if user == nil {
		return OutcomeRedirect
	}
	return OutcomeAllow
}
