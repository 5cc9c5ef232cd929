package access

import (
	"context"
	"errors"

	"CampusMart/internal/auth"
	"CampusMart/internal/listing"
)

var (
	ErrInvalidDomain  = auth.ErrInvalidDomain
	ErrInvalidName    = errors.New("name is required")
	ErrInvalidListing = listing.ErrInvalidDraft
	ErrNotFound       = listing.ErrNotFound

	ErrFetchFailed  = errors.New("fetch listings failed")
	ErrCreateFailed = errors.New("create listing failed")
	ErrRemoveFailed = errors.New("remove listing failed")

	ErrTimeout      = errors.New("request timed out")
	ErrUnavailable  = errors.New("marketplace unavailable")
	ErrForbidden    = errors.New("not the seller of this listing")
	ErrUnauthorized = errors.New("login required")
)

// IsTimeout reports whether err came from a deadline or cancellation.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// wrapOp tags err with the operation's failure kind. Context errors
// additionally carry ErrTimeout.
func wrapOp(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(kind, ErrTimeout, err)
	}
	return errors.Join(kind, err)
}
