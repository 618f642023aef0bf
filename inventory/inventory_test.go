package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stockroom/dblayer"
	"stockroom/dbtypes"
	"stockroom/docstore"
	"stockroom/identity"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// signUp creates a user and returns a repository bound to their session.
func signUp(t *testing.T, db *dblayer.DB, email string) *Repository {
	t.Helper()

	session, err := db.CreateUser(context.Background(), email, "hunter2")
	if err != nil {
		t.Fatalf("Error while creating user %q: %v", email, err)
	}

	return NewRepository(db, identity.Bind(db, session.Cookie))
}

func TestInsertThenGetByIDRoundTrips(t *testing.T) {
	ctx := context.Background()
	db := dblayer.New(docstore.NewMemory(), "")
	repo := signUp(t, db, "u1@example.com")

	in := &dbtypes.Product{
		Name:     "Cola",
		Price:    1.50,
		Quantity: 10,
		Category: dbtypes.CategoryCarbonated,
	}
	if err := repo.Insert(ctx, in); err != nil {
		t.Fatalf("Error while inserting product: %v", err)
	}
	if in.ID == "" {
		t.Fatalf("Insert left the id empty")
	}

	got, err := repo.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("Error while retrieving product: %v", err)
	}

	if diff := cmp.Diff(in, got, cmpopts.IgnoreFields(dbtypes.Product{}, "ID")); diff != "" {
		t.Errorf("Round-tripped product differs (-want +got):\n%s", diff)
	}
}

func TestListScopedToOwner(t *testing.T) {
	ctx := context.Background()
	db := dblayer.New(docstore.NewMemory(), "")

	u1 := signUp(t, db, "u1@example.com")
	u2 := signUp(t, db, "u2@example.com")

	if err := u1.Insert(ctx, &dbtypes.Product{
		Name:     "Cola",
		Price:    1.50,
		Quantity: 10,
		Category: dbtypes.CategoryCarbonated,
	}); err != nil {
		t.Fatalf("Error while inserting product: %v", err)
	}

	u1Products, err := u1.ListForCurrentOwner(ctx)
	if err != nil {
		t.Fatalf("Error while listing products for u1: %v", err)
	}
	if len(u1Products) != 1 {
		t.Fatalf("u1 sees %d product(s), want 1", len(u1Products))
	}
	if u1Products[0].Name != "Cola" {
		t.Errorf("u1 sees product %q, want %q", u1Products[0].Name, "Cola")
	}

	u2Products, err := u2.ListForCurrentOwner(ctx)
	if err != nil {
		t.Fatalf("Error while listing products for u2: %v", err)
	}
	if len(u2Products) != 0 {
		t.Errorf("u2 sees %d product(s), want 0", len(u2Products))
	}
}

func TestListWithNoIdentityIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	db := dblayer.New(docstore.NewMemory(), "")

	repo := NewRepository(db, identity.Bind(db, ""))

	products, err := repo.ListForCurrentOwner(ctx)
	if err != nil {
		t.Fatalf("Listing with no identity returned an error: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("Listing with no identity returned %d product(s), want 0", len(products))
	}
}

func TestInsertWithNoIdentityFails(t *testing.T) {
	ctx := context.Background()
	db := dblayer.New(docstore.NewMemory(), "")

	repo := NewRepository(db, identity.Bind(db, ""))

	err := repo.Insert(ctx, &dbtypes.Product{Name: "Cola", Category: dbtypes.CategoryCarbonated})
	if !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("Insert with no identity returned %v, want %v", err, ErrNotSignedIn)
	}
}

func TestInsertRejectsForeignOwner(t *testing.T) {
	ctx := context.Background()
	db := dblayer.New(docstore.NewMemory(), "")
	repo := signUp(t, db, "u1@example.com")

	err := repo.Insert(ctx, &dbtypes.Product{
		Name:     "Cola",
		Category: dbtypes.CategoryCarbonated,
		OwnerID:  "someone-else",
	})
	if !errors.Is(err, ErrWrongOwner) {
		t.Errorf("Insert with a foreign owner returned %v, want %v", err, ErrWrongOwner)
	}
}

func TestUpdateOverwritesFullRecord(t *testing.T) {
	ctx := context.Background()
	db := dblayer.New(docstore.NewMemory(), "")
	repo := signUp(t, db, "u1@example.com")

	product := &dbtypes.Product{
		Name:     "Cola",
		Price:    1.50,
		Quantity: 10,
		Category: dbtypes.CategoryCarbonated,
	}
	if err := repo.Insert(ctx, product); err != nil {
		t.Fatalf("Error while inserting product: %v", err)
	}

	product.Name = "Diet Cola"
	product.Quantity = 4
	if err := repo.Update(ctx, product); err != nil {
		t.Fatalf("Error while updating product: %v", err)
	}

	got, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("Error while retrieving product: %v", err)
	}
	if diff := cmp.Diff(product, got); diff != "" {
		t.Errorf("Updated product differs (-want +got):\n%s", diff)
	}
}

func TestDeleteAllIsNotAtomic(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	db := dblayer.New(store, "")
	repo := signUp(t, db, "u1@example.com")

	for i := 0; i < 3; i++ {
		if err := repo.Insert(ctx, &dbtypes.Product{
			Name:     fmt.Sprintf("Product %d", i),
			Category: dbtypes.CategoryJuice,
		}); err != nil {
			t.Fatalf("Error while inserting product: %v", err)
		}
	}

	// Fail the second product deletion.  Session records delete through the
	// same hook, so only count product deletes.
	deletes := 0
	store.DeleteHook = func(collection, id string) error {
		if collection != "Products" {
			return nil
		}
		deletes++
		if deletes == 2 {
			return errors.New("injected failure")
		}
		return nil
	}

	if err := repo.DeleteAll(ctx); err == nil {
		t.Fatalf("DeleteAll with an injected failure returned no error")
	}

	store.DeleteHook = nil

	remaining, err := repo.ListForCurrentOwner(ctx)
	if err != nil {
		t.Fatalf("Error while listing products: %v", err)
	}

	// The batch keeps going past the failure and has no rollback: exactly
	// the record whose delete failed remains.
	if len(remaining) != 1 {
		t.Errorf("After a mid-batch failure, %d product(s) remain, want 1", len(remaining))
	}
}

func TestDeleteAllRemovesOnlyCurrentOwnersRecords(t *testing.T) {
	ctx := context.Background()
	db := dblayer.New(docstore.NewMemory(), "")

	u1 := signUp(t, db, "u1@example.com")
	u2 := signUp(t, db, "u2@example.com")

	if err := u1.Insert(ctx, &dbtypes.Product{Name: "Cola", Category: dbtypes.CategoryCarbonated}); err != nil {
		t.Fatalf("Error while inserting product: %v", err)
	}
	if err := u2.Insert(ctx, &dbtypes.Product{Name: "Cider", Category: dbtypes.CategoryAlcohol}); err != nil {
		t.Fatalf("Error while inserting product: %v", err)
	}

	if err := u1.DeleteAll(ctx); err != nil {
		t.Fatalf("Error while deleting all products: %v", err)
	}

	u1Products, err := u1.ListForCurrentOwner(ctx)
	if err != nil {
		t.Fatalf("Error while listing products for u1: %v", err)
	}
	if len(u1Products) != 0 {
		t.Errorf("u1 still sees %d product(s) after delete-all, want 0", len(u1Products))
	}

	u2Products, err := u2.ListForCurrentOwner(ctx)
	if err != nil {
		t.Fatalf("Error while listing products for u2: %v", err)
	}
	if len(u2Products) != 1 {
		t.Errorf("u2 sees %d product(s) after u1's delete-all, want 1", len(u2Products))
	}
}
