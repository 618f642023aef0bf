package sessionstate

import (
	"context"
	"errors"
	"testing"

	"stockroom/identity"
)

// fakeProvider implements identity.Provider with scripted results.
type fakeProvider struct {
	bound *identity.Identity

	signInErr error
	signUpErr error

	signInCalls int
	signUpCalls int
}

func (p *fakeProvider) Current(ctx context.Context) (*identity.Identity, error) {
	return p.bound, nil
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	p.signInCalls++
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	p.bound = &identity.Identity{UserID: "U1", Email: email}
	return p.bound, nil
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	p.signUpCalls++
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	p.bound = &identity.Identity{UserID: "U1", Email: email}
	return p.bound, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.bound = nil
	return nil
}

func TestBlankCredentialsFailWithoutProviderCall(t *testing.T) {
	testCases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "blank email", email: "", password: "hunter2"},
		{name: "blank password", email: "user@example.com", password: ""},
		{name: "both blank", email: "", password: ""},
		{name: "whitespace only", email: "   ", password: "hunter2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{}
			m := New(provider)

			m.Login(context.Background(), tc.email, tc.password)

			got := m.Current()
			if got.Phase != Failed {
				t.Errorf("After login with blank credentials, got phase %v, want %v", got.Phase, Failed)
			}
			if got.Message != "Email or Password can't be empty" {
				t.Errorf("After login with blank credentials, got message %q, want %q", got.Message, "Email or Password can't be empty")
			}
			if provider.signInCalls != 0 {
				t.Errorf("Login with blank credentials contacted the provider %d time(s), want 0", provider.signInCalls)
			}

			m.Signup(context.Background(), tc.email, tc.password)
			if provider.signUpCalls != 0 {
				t.Errorf("Signup with blank credentials contacted the provider %d time(s), want 0", provider.signUpCalls)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	provider := &fakeProvider{}
	m := New(provider)

	m.Login(context.Background(), "user@example.com", "hunter2")

	if got := m.Current().Phase; got != Authenticated {
		t.Errorf("After successful login, got phase %v, want %v", got, Authenticated)
	}
}

func TestLoginFailureSurfacesProviderReason(t *testing.T) {
	provider := &fakeProvider{signInErr: &identity.AuthError{Reason: "unknown user or wrong password"}}
	m := New(provider)

	m.Login(context.Background(), "user@example.com", "wrong")

	got := m.Current()
	if got.Phase != Failed {
		t.Errorf("After failed login, got phase %v, want %v", got.Phase, Failed)
	}
	if got.Message != "unknown user or wrong password" {
		t.Errorf("After failed login, got message %q, want the provider's reason", got.Message)
	}
}

func TestLoginFailureDefaultsMessageForTransportErrors(t *testing.T) {
	provider := &fakeProvider{signInErr: errors.New("rpc deadline exceeded")}
	m := New(provider)

	m.Login(context.Background(), "user@example.com", "hunter2")

	got := m.Current()
	if got.Message != "Login failed" {
		t.Errorf("After transport failure, got message %q, want %q", got.Message, "Login failed")
	}
}

func TestSignupFailureDefaultsMessage(t *testing.T) {
	provider := &fakeProvider{signUpErr: errors.New("rpc deadline exceeded")}
	m := New(provider)

	m.Signup(context.Background(), "user@example.com", "hunter2")

	got := m.Current()
	if got.Phase != Failed {
		t.Errorf("After failed signup, got phase %v, want %v", got.Phase, Failed)
	}
	if got.Message != "Signup failed" {
		t.Errorf("After failed signup, got message %q, want %q", got.Message, "Signup failed")
	}
}

func TestSignoutAlwaysYieldsIdle(t *testing.T) {
	priors := []func(m *Machine){
		func(m *Machine) {},
		func(m *Machine) { m.Login(context.Background(), "user@example.com", "hunter2") },
		func(m *Machine) { m.Login(context.Background(), "", "") },
		func(m *Machine) { m.CheckSessionState(context.Background()) },
	}

	for i, prior := range priors {
		provider := &fakeProvider{}
		m := New(provider)
		prior(m)

		m.Signout(context.Background())

		if got := m.Current().Phase; got != Idle {
			t.Errorf("Case %d: after signout, got phase %v, want %v", i, got, Idle)
		}
	}
}

func TestCheckSessionState(t *testing.T) {
	provider := &fakeProvider{}
	m := New(provider)

	m.CheckSessionState(context.Background())
	if got := m.Current().Phase; got != Idle {
		t.Errorf("With no bound identity, got phase %v, want %v", got, Idle)
	}

	provider.bound = &identity.Identity{UserID: "U1", Email: "user@example.com"}
	m.CheckSessionState(context.Background())
	if got := m.Current().Phase; got != Authenticated {
		t.Errorf("With a bound identity, got phase %v, want %v", got, Authenticated)
	}
}

func TestSubscribeReplaysLatestState(t *testing.T) {
	provider := &fakeProvider{}
	m := New(provider)

	m.Login(context.Background(), "user@example.com", "hunter2")

	ch := m.Subscribe()
	select {
	case got := <-ch:
		if got.Phase != Authenticated {
			t.Errorf("New subscriber got phase %v, want %v", got.Phase, Authenticated)
		}
	default:
		t.Errorf("New subscriber got no replayed state")
	}
}

func TestSubscribeConflatesWhenBehind(t *testing.T) {
	provider := &fakeProvider{}
	m := New(provider)

	ch := m.Subscribe()

	// Several transitions without the subscriber reading: only the latest
	// must be pending.
	m.Login(context.Background(), "user@example.com", "hunter2")
	m.Signout(context.Background())

	select {
	case got := <-ch:
		if got.Phase != Idle {
			t.Errorf("Lagging subscriber got phase %v, want the latest phase %v", got.Phase, Idle)
		}
	default:
		t.Errorf("Lagging subscriber got no state")
	}
}
