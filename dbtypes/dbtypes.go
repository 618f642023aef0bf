package dbtypes

import "time"

// User represents a person registered and interacting with the application.
type User struct {
	ID           string `firestore:"id" json:"id"`
	Email        string `firestore:"email" json:"email"`
	PasswordHash string `firestore:"passwordHash" json:"passwordHash"`
}

// Session represents a log-in session for a User.
type Session struct {
	Cookie  string    `firestore:"cookie" json:"cookie"`
	UserID  string    `firestore:"userId" json:"userId"`
	Expires time.Time `firestore:"expires" json:"expires"`
}

// Product is a single inventory record.
//
// ID is assigned by the store on creation, and is empty before the record is
// persisted.  OwnerID always names the user who created the record; queries
// are scoped to it, so records are never visible across owners.
type Product struct {
	ID       string  `firestore:"id" json:"id"`
	Name     string  `firestore:"name" json:"name"`
	Price    float64 `firestore:"price" json:"price"`
	Quantity int64   `firestore:"quantity" json:"quantity"`
	Category string  `firestore:"category" json:"category"`
	OwnerID  string  `firestore:"ownerId" json:"ownerId"`
}

// The fixed set of product categories.  CategoryAll is a filter-only
// pseudo-value; it is never stored on a record.
const (
	CategoryCarbonated = "Carbonated"
	CategoryJuice      = "Juice"
	CategoryAlcohol    = "Alcohol"
	CategoryAll        = "All"
)

// Categories lists the categories a record may carry, in display order.
func Categories() []string {
	return []string{CategoryCarbonated, CategoryJuice, CategoryAlcohol}
}

// ValidCategory reports whether c may be stored on a Product.
func ValidCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
