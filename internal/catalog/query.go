// Package catalog derives the displayed view of the listing catalog from a
// search term, a category filter and a sort key. Everything here is pure.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"CampusMart/internal/listing"
)

// AllCategories is the "no filter" sentinel and always the first category.
const AllCategories = "All"

var ErrUnknownSort = errors.New("unknown sort key")

type SortKey int

const (
	SortNewest SortKey = iota
	SortOldest
	SortPriceAsc
	SortPriceDesc
)

var sortNames = [...]string{
	SortNewest:    "newest",
	SortOldest:    "oldest",
	SortPriceAsc:  "price-asc",
	SortPriceDesc: "price-desc",
}

func (k SortKey) String() string {
	if k < 0 || int(k) >= len(sortNames) {
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
	return sortNames[k]
}

// ParseSortKey accepts the names produced by String; "" means newest.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortNewest, nil
	}
	for k, name := range sortNames {
		if name == s {
			return SortKey(k), nil
		}
	}
	return SortNewest, fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

func SortKeys() []SortKey {
	return []SortKey{SortNewest, SortOldest, SortPriceAsc, SortPriceDesc}
}

// Query is the transient browse state. The zero value shows everything,
// newest first. Search is matched literally, whitespace included.
type Query struct {
	Search   string
	Category string
	Sort     SortKey
}

func (q Query) category() string {
	if q.Category == "" {
		return AllCategories
	}
	return q.Category
}

// Categories lists AllCategories followed by every distinct category in
// first-seen order.
func Categories(ls []listing.Listing) []string {
	out := []string{AllCategories}
	seen := make(map[string]struct{}, len(ls))
	for _, l := range ls {
		if _, ok := seen[l.Category]; ok {
			continue
		}
		seen[l.Category] = struct{}{}
		out = append(out, l.Category)
	}
	return out
}

func Matches(l listing.Listing, q Query) bool {
	if c := q.category(); c != AllCategories && l.Category != c {
		return false
	}
	if q.Search == "" {
		return true
	}
	term := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(l.Title), term) ||
		strings.Contains(strings.ToLower(l.Description), term)
}

// Apply filters ls by q and sorts the survivors by q.Sort, breaking ties
// by ascending id. The result never aliases ls.
func Apply(ls []listing.Listing, q Query) []listing.Listing {
	out := make([]listing.Listing, 0, len(ls))
	for _, l := range ls {
		if Matches(l, q) {
			out = append(out, l)
		}
	}

	less := lessFor(q.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID < b.ID
	})
	return out
}

func lessFor(k SortKey) func(a, b listing.Listing) bool {
	switch k {
	case SortOldest:
		return func(a, b listing.Listing) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceAsc:
		return func(a, b listing.Listing) bool { return a.Price < b.Price }
	case SortPriceDesc:
		return func(a, b listing.Listing) bool { return a.Price > b.Price }
	default:
		return func(a, b listing.Listing) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}

// Owned returns the listings whose seller email equals email exactly.
func Owned(ls []listing.Listing, email string) []listing.Listing {
	out := make([]listing.Listing, 0)
	for _, l := range ls {
		if l.SellerEmail == email {
			out = append(out, l)
		}
	}
	return out
}
