// Package identity exposes the identity provider as a capability interface,
// so that the session state machine and the product layer can be handed a
// provider explicitly instead of reaching for a global.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockroom/dblayer"
)

// Identity is the opaque handle for an authenticated user.
type Identity struct {
	UserID string
	Email  string
}

// Provider is the identity provider capability.
//
// Current returns (nil, nil) when no identity is bound; a missing identity is
// not an error.  SignIn and SignUp bind the returned identity on success.
type Provider interface {
	Current(ctx context.Context) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
}

// AuthError is a sign-in or sign-up failure whose reason is fit to show to
// the user.  Any other error from a Provider is a transport or store problem
// and must not be surfaced verbatim.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

// Binding implements Provider over the database layer, carrying the session
// cookie for one client.  A web handler creates one Binding per request from
// the request's cookie; bindings are cheap.
type Binding struct {
	db *dblayer.DB

	mu      sync.Mutex
	cookie  string
	expires time.Time
}

var _ Provider = (*Binding)(nil)

// Bind creates a Binding resuming the session identified by cookie.  An
// empty cookie binds no identity.
func Bind(db *dblayer.DB, cookie string) *Binding {
	return &Binding{db: db, cookie: cookie}
}

func (b *Binding) Current(ctx context.Context) (*Identity, error) {
	b.mu.Lock()
	cookie := b.cookie
	b.mu.Unlock()

	if cookie == "" {
		return nil, nil
	}

	user, err := b.db.UserFromSessionCookie(ctx, cookie)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

func (b *Binding) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	session, err := b.db.SessionFromPassword(ctx, email, password)
	if err != nil {
		return nil, asAuthError(err)
	}

	b.bind(session.Cookie, session.Expires)

	return &Identity{UserID: session.UserID, Email: email}, nil
}

func (b *Binding) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	session, err := b.db.CreateUser(ctx, email, password)
	if err != nil {
		return nil, asAuthError(err)
	}

	b.bind(session.Cookie, session.Expires)

	return &Identity{UserID: session.UserID, Email: email}, nil
}

// SignInWithGoogle binds an identity from a Google federation token.
func (b *Binding) SignInWithGoogle(ctx context.Context, idToken string) (*Identity, error) {
	session, err := b.db.SessionFromGoogleFederation(ctx, idToken)
	if err != nil {
		return nil, asAuthError(err)
	}

	user, err := b.db.UserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	b.bind(session.Cookie, session.Expires)

	return &Identity{UserID: session.UserID, Email: user.Email}, nil
}

// SignOut clears the bound identity.  The session record is deleted on a
// best-effort basis; the binding is cleared even if that fails.
func (b *Binding) SignOut(ctx context.Context) error {
	b.mu.Lock()
	cookie := b.cookie
	b.cookie = ""
	b.expires = time.Time{}
	b.mu.Unlock()

	if cookie == "" {
		return nil
	}

	if err := b.db.DeleteSession(ctx, cookie); err != nil {
		return err
	}

	return nil
}

// Cookie returns the bound session cookie and its expiry, for the web layer
// to set on the response.
func (b *Binding) Cookie() (string, time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cookie, b.expires, b.cookie != ""
}

func (b *Binding) bind(cookie string, expires time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cookie = cookie
	b.expires = expires
}

func asAuthError(err error) error {
	switch {
	case errors.Is(err, dblayer.ErrEmailMustNotBeEmpty),
		errors.Is(err, dblayer.ErrPasswordMustNotBeEmpty),
		errors.Is(err, dblayer.ErrUnknownUserOrWrongPassword),
		errors.Is(err, dblayer.ErrUserAlreadyExists):
		return &AuthError{Reason: err.Error()}
	}
	return err
}
