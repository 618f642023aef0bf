// Package inventory is the product CRUD surface the UI talks to.  Every read
// and write is scoped to the identity bound in the injected provider.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"stockroom/dblayer"
	"stockroom/dbtypes"
	"stockroom/identity"
)

var (
	ErrNotSignedIn = errors.New("no user is signed in")
	ErrWrongOwner  = errors.New("product is owned by a different user")
)

type Repository struct {
	db       *dblayer.DB
	provider identity.Provider
}

func NewRepository(db *dblayer.DB, provider identity.Provider) *Repository {
	return &Repository{
		db:       db,
		provider: provider,
	}
}

// Insert stores a new product under the current identity.  The store assigns
// the id and sets it on the passed record.  An OwnerID already present on the
// record must match the current identity; an empty one is filled in.
func (r *Repository) Insert(ctx context.Context, product *dbtypes.Product) error {
	id, err := r.provider.Current(ctx)
	if err != nil {
		return fmt.Errorf("while resolving current identity: %w", err)
	}
	if id == nil {
		return ErrNotSignedIn
	}

	if product.OwnerID == "" {
		product.OwnerID = id.UserID
	}
	if product.OwnerID != id.UserID {
		return ErrWrongOwner
	}

	return r.db.InsertProduct(ctx, product)
}

// GetByID returns the product with the given id, or (nil, nil) when no such
// record exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*dbtypes.Product, error) {
	return r.db.GetProductByID(ctx, id)
}

// ListForCurrentOwner returns every product owned by the current identity.
// When no identity is bound it returns an empty list, not an error.
func (r *Repository) ListForCurrentOwner(ctx context.Context) ([]*dbtypes.Product, error) {
	id, err := r.provider.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("while resolving current identity: %w", err)
	}
	if id == nil {
		return nil, nil
	}

	return r.db.ListProductsForOwner(ctx, id.UserID)
}

// Update overwrites the full record at product.ID.  An id that does not exist
// gets a record created at it; the store's write has overwrite semantics.
func (r *Repository) Update(ctx context.Context, product *dbtypes.Product) error {
	id, err := r.provider.Current(ctx)
	if err != nil {
		return fmt.Errorf("while resolving current identity: %w", err)
	}
	if id == nil {
		return ErrNotSignedIn
	}
	if product.OwnerID != id.UserID {
		return ErrWrongOwner
	}

	return r.db.UpdateProduct(ctx, product)
}

func (r *Repository) Delete(ctx context.Context, product *dbtypes.Product) error {
	id, err := r.provider.Current(ctx)
	if err != nil {
		return fmt.Errorf("while resolving current identity: %w", err)
	}
	if id == nil {
		return ErrNotSignedIn
	}
	if product.OwnerID != id.UserID {
		return ErrWrongOwner
	}

	return r.db.DeleteProduct(ctx, product)
}

// DeleteAll deletes every product owned by the current identity, one record
// at a time.  The batch is not atomic: a record whose delete fails stays in
// place while the rest of the batch is still attempted.
func (r *Repository) DeleteAll(ctx context.Context) error {
	id, err := r.provider.Current(ctx)
	if err != nil {
		return fmt.Errorf("while resolving current identity: %w", err)
	}
	if id == nil {
		return ErrNotSignedIn
	}

	return r.db.DeleteAllProductsForOwner(ctx, id.UserID)
}
