// Package sessionstate tracks the authentication status of one client
// session and publishes it to observers.  It is the single source of truth
// the navigation policy and the UI surfaces read.
package sessionstate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"stockroom/identity"
)

// Phase is the authentication phase of the session.
type Phase int

const (
	// Loading means the initial probe or a provider round trip is in
	// progress.
	Loading Phase = iota
	// Authenticated means a valid identity is bound.
	Authenticated
	// Idle means no identity is bound: logged out or never logged in.
	Idle
	// Failed means the last authentication attempt failed.  The state
	// carries a human-readable message.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "Loading"
	case Authenticated:
		return "Authenticated"
	case Idle:
		return "Idle"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// State is the published session state.  Message is set only when Phase is
// Failed.
type State struct {
	Phase   Phase
	Message string
}

const blankCredentialsMessage = "Email or Password can't be empty"

// Machine derives the session state from an identity provider.  It is the
// only writer of the state; any number of observers subscribe to it.
type Machine struct {
	provider identity.Provider

	// callMu serializes Login and Signup, so at most one provider round trip
	// is ever outstanding.
	callMu sync.Mutex

	mu    sync.Mutex
	state State
	subs  []chan State
}

// New returns a machine in the Loading state.  Callers normally follow up
// with CheckSessionState to resolve the initial probe.
func New(provider identity.Provider) *Machine {
	return &Machine{
		provider: provider,
		state:    State{Phase: Loading},
	}
}

// Current returns the most recently published state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer.  The returned channel immediately carries
// the current state, then every later transition.  Observers that fall
// behind see the latest state rather than the full history.
func (m *Machine) Subscribe() <-chan State {
	ch := make(chan State, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	ch <- m.state
	m.subs = append(m.subs, ch)

	return ch
}

// publish transitions to next and notifies every subscriber before
// returning.
func (m *Machine) publish(next State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = next
	for _, ch := range m.subs {
		// Conflate rather than block: replace a pending, unread state.
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

// CheckSessionState probes the provider for a bound identity and resolves to
// Authenticated or Idle.  A missing identity is not an error, and neither is
// a failed probe: this operation never produces a Failed state.
func (m *Machine) CheckSessionState(ctx context.Context) {
	m.publish(State{Phase: Loading})

	id, err := m.provider.Current(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Treating session as signed out because the identity probe failed", slog.Any("err", err))
		m.publish(State{Phase: Idle})
		return
	}

	if id != nil {
		m.publish(State{Phase: Authenticated})
	} else {
		m.publish(State{Phase: Idle})
	}
}

// Login signs in with an email and password.  Blank credentials fail
// immediately, without contacting the provider.
func (m *Machine) Login(ctx context.Context, email, password string) {
	m.authenticate(ctx, email, password, m.provider.SignIn, "Login failed")
}

// Signup creates an account with an email and password.  Blank credentials
// fail immediately, without contacting the provider.
func (m *Machine) Signup(ctx context.Context, email, password string) {
	m.authenticate(ctx, email, password, m.provider.SignUp, "Signup failed")
}

func (m *Machine) authenticate(ctx context.Context, email, password string, call func(context.Context, string, string) (*identity.Identity, error), defaultMessage string) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		m.publish(State{Phase: Failed, Message: blankCredentialsMessage})
		return
	}

	m.callMu.Lock()
	defer m.callMu.Unlock()

	m.publish(State{Phase: Loading})

	if _, err := call(ctx, email, password); err != nil {
		m.publish(State{Phase: Failed, Message: failureMessage(err, defaultMessage)})
		return
	}

	m.publish(State{Phase: Authenticated})
}

// failureMessage surfaces the provider's own reason when it is fit for the
// user, and falls back to the operation's default otherwise.
func failureMessage(err error, defaultMessage string) string {
	var authErr *identity.AuthError
	if errors.As(err, &authErr) && authErr.Reason != "" {
		return authErr.Reason
	}
	return defaultMessage
}

// Signout clears the bound identity and resolves to Idle.  It always
// succeeds from the caller's perspective.
func (m *Machine) Signout(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		slog.WarnContext(ctx, "Error while signing out; session is treated as signed out anyway", slog.Any("err", err))
	}

	m.publish(State{Phase: Idle})
}
