// Package navigation decides which surface a client sees for a given session
// state.  It holds no state of its own: the route is always a pure function
// of the most recent state.
package navigation

import (
	"context"

	"stockroom/sessionstate"
)

// Route is the path of a UI surface.
type Route string

const (
	// RouteSplash is the blocking splash surface shown while the session
	// state is still resolving.  No other surface is reachable from it.
	RouteSplash Route = "/splash"
	// RouteHome is the protected dashboard surface.
	RouteHome Route = "/"
	// RouteLogin is the sign-in surface.
	RouteLogin Route = "/log-in"
	// RouteSignup is the account-creation surface.  It is reached from the
	// login surface, never selected directly by the policy.
	RouteSignup Route = "/sign-up"
)

// StartRoute maps a session state to the surface the client must be on.
//
// An authentication failure routes to the login surface exactly like Idle
// does; the failure message is only visible to a surface that renders it.
// Clients land on the returned route with their history cleared, so the back
// gesture can never cross the authenticated/unauthenticated boundary.
func StartRoute(s sessionstate.State) Route {
	switch s.Phase {
	case sessionstate.Loading:
		return RouteSplash
	case sessionstate.Authenticated:
		return RouteHome
	}
	return RouteLogin
}

// Protected reports whether a surface requires a bound identity.
func Protected(r Route) bool {
	return r == RouteHome
}

// Watch follows a session state subscription and emits the start route for
// every transition, dropping consecutive duplicates.  The returned channel
// closes when ctx is done.
func Watch(ctx context.Context, states <-chan sessionstate.State) <-chan Route {
	routes := make(chan Route, 1)

	go func() {
		defer close(routes)

		var last Route
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-states:
				r := StartRoute(s)
				if r == last {
					continue
				}
				last = r

				// Conflate rather than block, same as the state machine's
				// publisher: a slow reader sees the latest route.
				select {
				case <-routes:
				default:
				}
				routes <- r
			}
		}
	}()

	return routes
}
