// Package guard decides whether navigation into a route subtree is admitted.
//
// The decision is a pure function over the current session snapshot; the
// routing layer performs the actual redirect.
package guard

import (
	"github.com/pilotdeck/pilotdeck/internal/session"
)

// Class partitions the routing surface.
type Class int

const (
	// RoutePublic is reachable regardless of session state.
	RoutePublic Class = iota
	// RouteProtected requires an authenticated session.
	RouteProtected
	// RouteAuthOnly is for login/register flows and repels signed-in users.
	RouteAuthOnly
)

// Well-known routes.
const (
	LoginRoute   = "/auth/login"
	LandingRoute = "/admin/dashboard"
)

// Decision is the guard verdict for a navigation attempt.
type Decision struct {
	Admit      bool
	RedirectTo string
}

// Decide evaluates the guard against a session snapshot. It is synchronous
// and consults only in-memory state; token freshness is enforced at
// rehydration and by the network layer's 401 handling.
func Decide(st session.State, class Class) Decision {
	switch class {
	case RouteProtected:
		if !st.Authenticated {
			return Decision{RedirectTo: LoginRoute}
		}
	case RouteAuthOnly:
		if st.Authenticated {
			return Decision{RedirectTo: LandingRoute}
		}
	}
	return Decision{Admit: true}
}

// DecideRole admits only sessions whose user holds the given role. It
// implies RouteProtected.
func DecideRole(st session.State, role session.Role) Decision {
	if d := Decide(st, RouteProtected); !d.Admit {
		return d
	}
	if st.CurrentRole() != role {
		return Decision{RedirectTo: LandingRoute}
	}
	return Decision{Admit: true}
}
