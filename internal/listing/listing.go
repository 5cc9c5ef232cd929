// Package listing holds the canonical catalog of marketplace listings and
// the stores that keep it.
package listing

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("listing not found")
	ErrDuplicateID  = errors.New("listing id already exists")
	ErrInvalidDraft = errors.New("invalid listing draft")
)

type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	SellerName  string    `json:"seller_name"`
	SellerEmail string    `json:"seller_email"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft is what a seller supplies. Identity, seller and timestamp fields are
// assigned by the access layer.
type Draft struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
}

// Validate reports the first problem with d, wrapped in ErrInvalidDraft.
func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return errors.Join(ErrInvalidDraft, errors.New("title is required"))
	case strings.TrimSpace(d.Description) == "":
		return errors.Join(ErrInvalidDraft, errors.New("description is required"))
	case strings.TrimSpace(d.Category) == "":
		return errors.Join(ErrInvalidDraft, errors.New("category is required"))
	case math.IsNaN(d.Price) || math.IsInf(d.Price, 0) || d.Price < 0:
		return errors.Join(ErrInvalidDraft, errors.New("price must be a non-negative number"))
	}
	return nil
}

// PlaceholderImage mirrors the seeded picsum URLs: the title with all
// whitespace removed is the seed.
func PlaceholderImage(title string) string {
	return "https://picsum.photos/seed/" + strings.Join(strings.Fields(title), "") + "/600/400"
}

// Store is the ordered catalog. Snapshot returns listings newest insertion
// first; ids are unique for the lifetime of the store.
type Store interface {
	InsertFront(ctx context.Context, l Listing) error
	Snapshot(ctx context.Context) ([]Listing, error)
	Get(ctx context.Context, id string) (Listing, bool, error)
	Remove(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
