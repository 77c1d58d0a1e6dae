package guard

import (
	"testing"

	"puzzle-helper/internal/session"
)

func TestDecide(t *testing.T) {
	user := &session.Identity{UserID: "u-1", Email: "u@example.com"}

	cases := []struct {
		name    string
		user    *session.Identity
		loading bool
		want    Outcome
	}{
		{"still resolving", nil, true, OutcomeLoading},
		{"resolving with stale user", user, true, OutcomeLoading},
		{"nobody signed in", nil, false, OutcomeRedirect},
		{"signed in", user, false, OutcomeAllow},
	}

	for _, tc := range cases {
		if got := Decide(tc.user, tc.loading); got != tc.want {
			t.Errorf("%s: Decide() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeRedirect.String() != "redirect" {
		t.Errorf("got %q", OutcomeRedirect.String())
	}
	if Outcome(99).String() != "unknown" {
		t.Errorf("got %q", Outcome(99).String())
	}
}
