package navigation

import (
	"context"
	"testing"

	"stockroom/sessionstate"
)

func TestStartRoute(t *testing.T) {
	testCases := []struct {
		name  string
		state sessionstate.State
		want  Route
	}{
		{name: "loading", state: sessionstate.State{Phase: sessionstate.Loading}, want: RouteSplash},
		{name: "authenticated", state: sessionstate.State{Phase: sessionstate.Authenticated}, want: RouteHome},
		{name: "idle", state: sessionstate.State{Phase: sessionstate.Idle}, want: RouteLogin},
		{name: "failed", state: sessionstate.State{Phase: sessionstate.Failed, Message: "Login failed"}, want: RouteLogin},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StartRoute(tc.state); got != tc.want {
				t.Errorf("StartRoute(%v) = %q, want %q", tc.state.Phase, got, tc.want)
			}
		})
	}
}

func TestFailedRoutesLikeIdle(t *testing.T) {
	idle := StartRoute(sessionstate.State{Phase: sessionstate.Idle})
	failed := StartRoute(sessionstate.State{Phase: sessionstate.Failed, Message: "nope"})

	if idle != failed {
		t.Errorf("Idle routes to %q but Failed routes to %q; they must land on the same surface", idle, failed)
	}
}

func TestProtected(t *testing.T) {
	if !Protected(RouteHome) {
		t.Errorf("Expected the home route to be protected")
	}
	for _, r := range []Route{RouteSplash, RouteLogin, RouteSignup} {
		if Protected(r) {
			t.Errorf("Expected route %q not to be protected", r)
		}
	}
}

func TestWatchEmitsRoutePerTransition(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := make(chan sessionstate.State, 1)
	routes := Watch(ctx, states)

	states <- sessionstate.State{Phase: sessionstate.Authenticated}
	if got := <-routes; got != RouteHome {
		t.Errorf("After transition to Authenticated, got route %q, want %q", got, RouteHome)
	}

	states <- sessionstate.State{Phase: sessionstate.Idle}
	if got := <-routes; got != RouteLogin {
		t.Errorf("After transition to Idle, got route %q, want %q", got, RouteLogin)
	}
}
