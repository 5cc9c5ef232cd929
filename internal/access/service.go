// Package access is the marketplace backend boundary: it wraps a listing
// store with simulated network latency, assigns server-owned fields and
// performs the login domain check.
package access

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CampusMart/internal/auth"
	"CampusMart/internal/listing"
	"CampusMart/pkg/kit"
)

type Options struct {
	Clock   Clock
	Latency Latency
	Gate    auth.DomainGate
	Log     *zap.Logger
	// NewID defaults to random UUIDs.
	NewID func() string
}

type Service struct {
	store   listing.Store
	clock   Clock
	latency Latency
	gate    auth.DomainGate
	log     *zap.Logger
	newID   func() string
}

func NewService(store listing.Store, opts Options) *Service {
	s := &Service{
		store:   store,
		clock:   opts.Clock,
		latency: opts.Latency,
		gate:    opts.Gate,
		log:     kit.OrNop(opts.Log),
		newID:   opts.NewID,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *Service) Gate() auth.DomainGate { return s.gate }

func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// FetchListings returns every listing, newest first by creation time.
func (s *Service) FetchListings(ctx context.Context) ([]listing.Listing, error) {
	if err := s.clock.Sleep(ctx, s.latency.Fetch); err != nil {
		return nil, s.fail("fetch listings", wrapOp(ErrFetchFailed, err))
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, s.fail("fetch listings", wrapOp(ErrFetchFailed, err))
	}

	sort.SliceStable(snap, func(i, j int) bool {
		return snap[i].CreatedAt.After(snap[j].CreatedAt)
	})

	s.log.Debug("listings fetched", zap.Int("count", len(snap)))
	return snap, nil
}

// GetListing looks up one listing without simulated latency.
func (s *Service) GetListing(ctx context.Context, id string) (listing.Listing, error) {
	l, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return listing.Listing{}, s.fail("get listing", wrapOp(ErrFetchFailed, err), zap.String("id", id))
	}
	if !ok {
		return listing.Listing{}, ErrNotFound
	}
	return l, nil
}

// CreateListing stores d as a new listing sold by seller. The id, seller
// fields and creation time are always assigned here.
func (s *Service) CreateListing(ctx context.Context, d listing.Draft, seller auth.User) (listing.Listing, error) {
	if strings.TrimSpace(seller.Email) == "" {
		return listing.Listing{}, ErrUnauthorized
	}
	if err := d.Validate(); err != nil {
		return listing.Listing{}, err
	}

	if err := s.clock.Sleep(ctx, s.latency.Create); err != nil {
		return listing.Listing{}, s.fail("create listing", wrapOp(ErrCreateFailed, err))
	}

	l := listing.Listing{
		ID:          s.newID(),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Price:       d.Price,
		Category:    strings.TrimSpace(d.Category),
		ImageURL:    strings.TrimSpace(d.ImageURL),
		SellerName:  seller.Name,
		SellerEmail: seller.Email,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if l.ImageURL == "" {
		l.ImageURL = listing.PlaceholderImage(l.Title)
	}

	if err := s.store.InsertFront(ctx, l); err != nil {
		return listing.Listing{}, s.fail("create listing", wrapOp(ErrCreateFailed, err), zap.String("id", l.ID))
	}

	s.log.Info("listing created",
		zap.String("id", l.ID),
		zap.String("category", l.Category),
		zap.String("seller", l.SellerEmail),
	)
	return l, nil
}

// Login admits any address under the required domain. It is a format
// gate: there are no credentials and no account registry.
func (s *Service) Login(ctx context.Context, email, name string) (auth.User, error) {
	if err := s.clock.Sleep(ctx, s.latency.Login); err != nil {
		return auth.User{}, s.fail("login", wrapOp(ErrUnavailable, err))
	}

	if err := s.gate.Check(email); err != nil {
		s.log.Info("login rejected", zap.String("email", email), zap.String("reason", err.Error()))
		return auth.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return auth.User{}, ErrInvalidName
	}

	u := auth.User{
		ID:    s.newID(),
		Name:  name,
		Email: strings.TrimSpace(email),
	}
	s.log.Info("login", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return u, nil
}

// RemoveListing deletes a listing owned by actor.
func (s *Service) RemoveListing(ctx context.Context, id string, actor auth.User) error {
	if strings.TrimSpace(actor.Email) == "" {
		return ErrUnauthorized
	}

	if err := s.clock.Sleep(ctx, s.latency.Remove); err != nil {
		return s.fail("remove listing", wrapOp(ErrRemoveFailed, err), zap.String("id", id))
	}

	l, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return s.fail("remove listing", wrapOp(ErrRemoveFailed, err), zap.String("id", id))
	}
	if !ok {
		return ErrNotFound
	}
	if !auth.SameEmail(l.SellerEmail, actor.Email) {
		return ErrForbidden
	}

	if err := s.store.Remove(ctx, id); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return ErrNotFound
		}
		return s.fail("remove listing", wrapOp(ErrRemoveFailed, err), zap.String("id", id))
	}

	s.log.Info("listing removed", zap.String("id", id), zap.String("seller", actor.Email))
	return nil
}

func (s *Service) fail(op string, err error, fields ...zap.Field) error {
	s.log.Warn(op+" failed", append(fields, zap.Error(err))...)
	return err
}
