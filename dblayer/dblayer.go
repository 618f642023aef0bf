// Package dblayer packages up most actual document store accesses.
package dblayer

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockroom/dbtypes"
	"stockroom/docstore"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

const (
	usersCollection    = "Users"
	sessionsCollection = "Sessions"
	productsCollection = "Products"
)

const sessionLifetime = 18 * time.Hour

type DB struct {
	store               docstore.Store
	googleOAuthClientID string
}

func New(store docstore.Store, googleOAuthClientID string) *DB {
	return &DB{
		store:               store,
		googleOAuthClientID: googleOAuthClientID,
	}
}

var (
	ErrEmailMustNotBeEmpty        = errors.New("email must not be empty")
	ErrPasswordMustNotBeEmpty     = errors.New("password must not be empty")
	ErrUnknownUserOrWrongPassword = errors.New("unknown user or wrong password")
	ErrUserAlreadyExists          = errors.New("a user with that email already exists")
	ErrGoogleFederationDisabled   = errors.New("google federation is not configured")
	ErrProductMissingOwner        = errors.New("product has no owner")
)

// userByEmail returns the user with the given email, or (nil, nil) when no
// such user is registered.
func (db *DB) userByEmail(ctx context.Context, email string) (*dbtypes.User, error) {
	snaps, err := db.store.Query(ctx, usersCollection, docstore.Where{Path: "email", Op: "==", Value: email})
	if err != nil {
		return nil, fmt.Errorf("while looking up user with email %q: %w", email, err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	// We only consider a single user.
	user := &dbtypes.User{}
	if err := snaps[0].DataTo(user); err != nil {
		return nil, fmt.Errorf("while unmarshaling user %q: %w", email, err)
	}

	return user, nil
}

// CreateUser registers a new user with a password and immediately opens a
// session for them, mirroring the sign-up-then-signed-in flow of the UI.
func (db *DB) CreateUser(ctx context.Context, email, password string) (*dbtypes.Session, error) {
	if email == "" {
		return nil, ErrEmailMustNotBeEmpty
	}

	if password == "" {
		return nil, ErrPasswordMustNotBeEmpty
	}

	existing, err := db.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 0)
	if err != nil {
		return nil, fmt.Errorf("while hashing password: %w", err)
	}

	user := &dbtypes.User{
		ID:           db.store.NewID(usersCollection),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := db.store.Set(ctx, usersCollection, user.ID, user); err != nil {
		return nil, fmt.Errorf("while creating user: %w", err)
	}

	return db.newSession(ctx, user)
}

// SessionFromPassword runs the password-based login process for a given user,
// returning a session or an error.
func (db *DB) SessionFromPassword(ctx context.Context, email, password string) (*dbtypes.Session, error) {
	if email == "" {
		return nil, ErrEmailMustNotBeEmpty
	}

	if password == "" {
		return nil, ErrPasswordMustNotBeEmpty
	}

	user, err := db.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnknownUserOrWrongPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnknownUserOrWrongPassword
	}

	return db.newSession(ctx, user)
}

// SessionFromGoogleFederation signs in a user based on a Google identity token
// returned from the "Sign in with Google" process.
func (db *DB) SessionFromGoogleFederation(ctx context.Context, idToken string) (*dbtypes.Session, error) {
	if db.googleOAuthClientID == "" {
		// idtoken.Validate skips the audience check when the audience is
		// empty, which would accept a token minted for any OAuth client.
		return nil, ErrGoogleFederationDisabled
	}

	payload, err := idtoken.Validate(ctx, idToken, db.googleOAuthClientID)
	if err != nil {
		return nil, fmt.Errorf("while validating ID token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)

	user, err := db.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// TODO: Autocreate user?  Populate display name and profile picture?
	if user == nil {
		return nil, ErrUnknownUserOrWrongPassword
	}

	// Now we've found the user.  We know they authenticated successfully with
	// Google, so it's time to create their session.
	return db.newSession(ctx, user)
}

func (db *DB) newSession(ctx context.Context, user *dbtypes.User) (*dbtypes.Session, error) {
	sessionCookieBytes := make([]byte, 32)
	if _, err := rand.Read(sessionCookieBytes); err != nil {
		return nil, fmt.Errorf("while generating session cookie: %w", err)
	}

	session := &dbtypes.Session{
		Cookie:  base64.StdEncoding.EncodeToString(sessionCookieBytes),
		UserID:  user.ID,
		Expires: time.Now().Add(sessionLifetime),
	}

	id := db.store.NewID(sessionsCollection)
	if err := db.store.Set(ctx, sessionsCollection, id, session); err != nil {
		return nil, fmt.Errorf("while storing session cookie: %w", err)
	}

	return session, nil
}

// DeleteSession deletes a session by its cookie.
func (db *DB) DeleteSession(ctx context.Context, cookie string) error {
	snaps, err := db.store.Query(ctx, sessionsCollection, docstore.Where{Path: "cookie", Op: "==", Value: cookie})
	if err != nil {
		return fmt.Errorf("while looking up session: %w", err)
	}

	for _, snap := range snaps {
		if err := db.store.Delete(ctx, sessionsCollection, snap.ID); err != nil {
			return fmt.Errorf("while deleting session: %w", err)
		}
	}

	return nil
}

// UserFromSessionCookie looks up a session from its cookie, and then returns
// the corresponding user.  A missing or expired session yields (nil, nil);
// the user is simply not logged in.
func (db *DB) UserFromSessionCookie(ctx context.Context, cookie string) (*dbtypes.User, error) {
	snaps, err := db.store.Query(ctx, sessionsCollection, docstore.Where{Path: "cookie", Op: "==", Value: cookie})
	if err != nil {
		return nil, fmt.Errorf("while looking up session: %w", err)
	}
	if len(snaps) == 0 {
		// Session object must have been cleaned up due to expiration; user is not logged in.
		slog.InfoContext(ctx, "No logged-in user because there was no session object corresponding to the cookie in the database.")
		return nil, nil
	}

	session := &dbtypes.Session{}
	if err := snaps[0].DataTo(session); err != nil {
		return nil, fmt.Errorf("while unmarshaling session: %w", err)
	}

	if session.Expires.Before(time.Now()) {
		// Session object is expired; user is not logged in.
		slog.InfoContext(ctx, "No logged-in user because the session object in the database was expired.")
		return nil, nil
	}

	return db.UserByID(ctx, session.UserID)
}

func (db *DB) UserByID(ctx context.Context, id string) (*dbtypes.User, error) {
	snap, err := db.store.Get(ctx, usersCollection, id)
	if err != nil {
		return nil, fmt.Errorf("while retrieving user %s: %w", id, err)
	}
	if snap == nil {
		return nil, nil
	}

	user := &dbtypes.User{}
	if err := snap.DataTo(user); err != nil {
		return nil, fmt.Errorf("while unmarshaling user %s: %w", id, err)
	}

	return user, nil
}

// InsertProduct stores a new product record.  The store assigns the id, and
// the assigned id is set on the passed record before return.
func (db *DB) InsertProduct(ctx context.Context, product *dbtypes.Product) error {
	if product.OwnerID == "" {
		return ErrProductMissingOwner
	}

	product.ID = db.store.NewID(productsCollection)
	if err := db.store.Set(ctx, productsCollection, product.ID, product); err != nil {
		return fmt.Errorf("while creating product: %w", err)
	}

	return nil
}

// GetProductByID returns the product with the given id, or (nil, nil) when no
// such record exists.
func (db *DB) GetProductByID(ctx context.Context, id string) (*dbtypes.Product, error) {
	snap, err := db.store.Get(ctx, productsCollection, id)
	if err != nil {
		return nil, fmt.Errorf("while retrieving product %s: %w", id, err)
	}
	if snap == nil {
		return nil, nil
	}

	product := &dbtypes.Product{}
	if err := snap.DataTo(product); err != nil {
		return nil, fmt.Errorf("while unmarshaling product %s: %w", id, err)
	}

	return product, nil
}

// ListProductsForOwner returns every product owned by the given user.  Result
// order is not guaranteed.
func (db *DB) ListProductsForOwner(ctx context.Context, ownerID string) ([]*dbtypes.Product, error) {
	snaps, err := db.store.Query(ctx, productsCollection, docstore.Where{Path: "ownerId", Op: "==", Value: ownerID})
	if err != nil {
		return nil, fmt.Errorf("while iterating products owned by user %s: %w", ownerID, err)
	}

	var products []*dbtypes.Product
	for _, snap := range snaps {
		product := &dbtypes.Product{}
		if err := snap.DataTo(product); err != nil {
			return nil, fmt.Errorf("while unmarshaling product %s: %w", snap.ID, err)
		}
		products = append(products, product)
	}

	return products, nil
}

// UpdateProduct overwrites the full record at product.ID.  Writing to an id
// that does not exist creates the record there, matching the overwrite
// semantics of the store itself.
func (db *DB) UpdateProduct(ctx context.Context, product *dbtypes.Product) error {
	if err := db.store.Set(ctx, productsCollection, product.ID, product); err != nil {
		return fmt.Errorf("while updating product %s: %w", product.ID, err)
	}
	return nil
}

func (db *DB) DeleteProduct(ctx context.Context, product *dbtypes.Product) error {
	if err := db.store.Delete(ctx, productsCollection, product.ID); err != nil {
		return fmt.Errorf("while deleting product %s: %w", product.ID, err)
	}
	return nil
}

// DeleteAllProductsForOwner fetches the owner's full product set and deletes
// the records one at a time.  The batch is not atomic and has no rollback: a
// record whose delete fails stays in place while the rest of the batch is
// still attempted, and the accumulated errors are returned.
func (db *DB) DeleteAllProductsForOwner(ctx context.Context, ownerID string) error {
	products, err := db.ListProductsForOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	var errs []error
	for _, product := range products {
		if err := db.DeleteProduct(ctx, product); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// AllProducts returns every product in the store, across all owners.  The
// low-stock poller uses it; UI surfaces never do.
func (db *DB) AllProducts(ctx context.Context) ([]*dbtypes.Product, error) {
	snaps, err := db.store.Query(ctx, productsCollection)
	if err != nil {
		return nil, fmt.Errorf("while iterating products: %w", err)
	}

	var products []*dbtypes.Product
	for _, snap := range snaps {
		product := &dbtypes.Product{}
		if err := snap.DataTo(product); err != nil {
			return nil, fmt.Errorf("while unmarshaling product %s: %w", snap.ID, err)
		}
		products = append(products, product)
	}

	return products, nil
}
