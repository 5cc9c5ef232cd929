// Package session is the view-model behind the marketplace screens. It owns
// the logged-in user, the current view, the loaded catalog and the state of
// every backend request, and it hands the catalog to the query engine.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"CampusMart/internal/access"
	"CampusMart/internal/auth"
	"CampusMart/internal/catalog"
	"CampusMart/internal/listing"
	"CampusMart/pkg/kit"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrNoSelection   = errors.New("no listing selected")
	ErrSuperseded    = errors.New("request superseded by a newer one")
)

const (
	msgFetchFailed   = "Failed to load listings. Please try again later."
	msgCreateFailed  = "Failed to create listing."
	msgInvalidDraft  = "Please fill in all fields."
	msgLoginRequired = "You must be logged in to create a listing."
	msgLoginFailed   = "An error occurred during login."
	msgNameRequired  = "Please enter your name."
	msgRemoveFailed  = "Failed to remove listing."
	msgNotFound      = "Listing not found."
	msgNotSeller     = "You can only remove your own listings."
)

// Backend is the access layer contract the controller drives. Both the
// in-process access.Service and the HTTP client satisfy it.
type Backend interface {
	FetchListings(ctx context.Context) ([]listing.Listing, error)
	CreateListing(ctx context.Context, d listing.Draft, seller auth.User) (listing.Listing, error)
	Login(ctx context.Context, email, name string) (auth.User, error)
	RemoveListing(ctx context.Context, id string, actor auth.User) error
}

type Options struct {
	Log *zap.Logger
	// EmailDomain only shapes the invalid-domain message.
	EmailDomain string
}

type Controller struct {
	backend Backend
	log     *zap.Logger
	domain  string

	mu        sync.Mutex
	user      *auth.User
	view      View
	listings  []listing.Listing
	version   uint64
	query     catalog.Query
	draft     *listing.Draft
	errMsg    string
	reqs      [opCount]slot
	nextToken uint64

	memo catalog.Memo
}

func New(backend Backend, opts Options) *Controller {
	return &Controller{
		backend: backend,
		log:     kit.OrNop(opts.Log),
		domain:  auth.NewDomainGate(opts.EmailDomain).Suffix(),
		view:    Browse{},
	}
}

// State is a copy of everything a screen needs.
type State struct {
	User     *auth.User
	View     View
	Listings []listing.Listing
	Query    catalog.Query
	// Draft is the create form content kept until a create succeeds.
	Draft    *listing.Draft
	Error    string
	Requests [opCount]Request
}

func (s State) LoggedIn() bool { return s.User != nil }

// Loading is true while the catalog fetch or a create is in flight.
func (s State) Loading() bool {
	return s.Requests[OpFetch].Status == Pending || s.Requests[OpCreate].Status == Pending
}

func (s State) Request(op Op) Request { return s.Requests[op] }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		View:     c.view,
		Listings: append([]listing.Listing(nil), c.listings...),
		Query:    c.query,
		Error:    c.errMsg,
	}
	if c.user != nil {
		u := *c.user
		st.User = &u
	}
	if c.draft != nil {
		d := *c.draft
		st.Draft = &d
	}
	for i := range c.reqs {
		st.Requests[i] = c.reqs[i].req
	}
	return st
}

// LoadListings replaces the local catalog with a fresh fetch. Starting a
// new load cancels and discards any load still in flight.
func (c *Controller) LoadListings(ctx context.Context) error {
	c.mu.Lock()
	ctx, token := c.begin(ctx, OpFetch)
	c.mu.Unlock()

	ls, err := c.backend.FetchListings(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finish(OpFetch, token, err) {
		c.log.Debug("stale fetch dropped", zap.Uint64("token", token))
		return ErrSuperseded
	}
	if err != nil {
		c.errMsg = msgFetchFailed
		c.log.Warn("load listings failed", zap.Error(err))
		return err
	}

	c.setListings(ls)
	return nil
}

func (c *Controller) Login(ctx context.Context, email, name string) error {
	c.mu.Lock()
	ctx, token := c.begin(ctx, OpLogin)
	c.mu.Unlock()

	u, err := c.backend.Login(ctx, email, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finish(OpLogin, token, err) {
		return ErrSuperseded
	}
	if err != nil {
		switch {
		case errors.Is(err, access.ErrInvalidDomain):
			c.errMsg = "Please use a valid " + c.domain + " email address."
		case errors.Is(err, access.ErrInvalidName):
			c.errMsg = msgNameRequired
		default:
			c.errMsg = msgLoginFailed
		}
		return err
	}

	c.user = &u
	c.view = Browse{}
	return nil
}

// Logout forgets the user and abandons every user-bound request. A
// backend holding its own session (the HTTP client) is told to drop it.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abandon(OpCreate)
	c.abandon(OpRemove)
	c.abandon(OpLogin)

	if lo, ok := c.backend.(interface{ Logout() }); ok {
		lo.Logout()
	}

	c.user = nil
	c.draft = nil
	c.errMsg = ""
	c.view = Browse{}
}

// Navigate switches views. Create and Dashboard need a session and fall
// back to Login without one. Detail can only be re-entered, never opened
// without a listing; use SelectListing for that.
func (c *Controller) Navigate(k Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch k {
	case KindBrowse:
		c.view = Browse{}
	case KindLogin:
		c.view = Login{}
	case KindDetail:
		if _, ok := c.view.(Detail); !ok {
			return ErrNoSelection
		}
	case KindCreate:
		c.view = c.guarded(Create{})
	case KindDashboard:
		c.view = c.guarded(Dashboard{})
	default:
		return errors.New("unknown view " + k.String())
	}
	return nil
}

func (c *Controller) guarded(v View) View {
	if c.user == nil {
		return Login{}
	}
	return v
}

func (c *Controller) SelectListing(l listing.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = Detail{Listing: l}
}

// Back leaves the detail view for the browse page.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = Browse{}
}

// CreateListing publishes d as the current user. The draft stays in State
// until the create succeeds so a failed attempt can be retried as is.
func (c *Controller) CreateListing(ctx context.Context, d listing.Draft) error {
	c.mu.Lock()
	if c.user == nil {
		c.errMsg = msgLoginRequired
		c.view = Login{}
		c.mu.Unlock()
		return ErrLoginRequired
	}
	seller := *c.user
	draft := d
	c.draft = &draft
	ctx, token := c.begin(ctx, OpCreate)
	c.mu.Unlock()

	l, err := c.backend.CreateListing(ctx, d, seller)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finish(OpCreate, token, err) {
		return ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, access.ErrInvalidListing) {
			c.errMsg = msgInvalidDraft
		} else {
			c.errMsg = msgCreateFailed
			c.log.Warn("create listing failed", zap.Error(err))
		}
		return err
	}

	next := make([]listing.Listing, 0, len(c.listings)+1)
	next = append(next, l)
	c.setListings(append(next, c.listings...))
	c.draft = nil
	c.view = Dashboard{}
	return nil
}

// RemoveListing deletes one of the current user's listings.
func (c *Controller) RemoveListing(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.user == nil {
		c.errMsg = msgLoginRequired
		c.view = Login{}
		c.mu.Unlock()
		return ErrLoginRequired
	}
	actor := *c.user
	ctx, token := c.begin(ctx, OpRemove)
	c.mu.Unlock()

	err := c.backend.RemoveListing(ctx, id, actor)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finish(OpRemove, token, err) {
		return ErrSuperseded
	}
	switch {
	case err == nil, errors.Is(err, access.ErrNotFound):
		c.dropListing(id)
		if err != nil {
			c.errMsg = msgNotFound
		}
	case errors.Is(err, access.ErrForbidden):
		c.errMsg = msgNotSeller
	default:
		c.errMsg = msgRemoveFailed
		c.log.Warn("remove listing failed", zap.Error(err), zap.String("id", id))
	}
	return err
}

func (c *Controller) SetQuery(q catalog.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// Browse returns the catalog filtered and sorted by the current query.
func (c *Controller) Browse() catalog.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memo.View(c.version, c.listings, c.query)
}

// MyListings returns the current user's listings in catalog order, or nil
// without a session.
func (c *Controller) MyListings() []listing.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == nil {
		return nil
	}
	return catalog.Owned(c.listings, c.user.Email)
}

// ContactSeller returns a mailto URI for the seller of the listing on
// screen.
func (c *Controller) ContactSeller() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == nil {
		return "", ErrLoginRequired
	}
	d, ok := c.view.(Detail)
	if !ok {
		return "", ErrNoSelection
	}

	u := url.URL{
		Scheme:   "mailto",
		Opaque:   d.Listing.SellerEmail,
		RawQuery: "subject=" + strings.ReplaceAll(url.QueryEscape("CampusMart: "+d.Listing.Title), "+", "%20"),
	}
	return u.String(), nil
}

// setListings installs ls as the catalog. Caller holds c.mu.
func (c *Controller) setListings(ls []listing.Listing) {
	c.listings = ls
	c.version++
}

// dropListing removes id locally and leaves a detail view showing it.
// Caller holds c.mu.
func (c *Controller) dropListing(id string) {
	next := make([]listing.Listing, 0, len(c.listings))
	for _, l := range c.listings {
		if l.ID != id {
			next = append(next, l)
		}
	}
	c.setListings(next)

	if d, ok := c.view.(Detail); ok && d.Listing.ID == id {
		c.view = Browse{}
	}
}
