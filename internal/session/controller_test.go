package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CampusMart/internal/access"
	"CampusMart/internal/auth"
	"CampusMart/internal/catalog"
	"CampusMart/internal/listing"
)

func newBackend(store listing.Store) *access.Service {
	return access.NewService(store, access.Options{Gate: auth.NewDomainGate("@davv.ac.in")})
}

func ids(ls []listing.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

// scripted holds every fetch until the test releases it, and lets a create
// block the same way.
type scripted struct {
	Backend

	mu       sync.Mutex
	started  chan int
	releases []chan []listing.Listing
	ctxs     []context.Context

	createGate chan struct{}
}

func newScripted(inner Backend) *scripted {
	return &scripted{Backend: inner, started: make(chan int, 8)}
}

func (s *scripted) FetchListings(ctx context.Context) ([]listing.Listing, error) {
	ch := make(chan []listing.Listing, 1)
	s.mu.Lock()
	n := len(s.releases)
	s.releases = append(s.releases, ch)
	s.ctxs = append(s.ctxs, ctx)
	s.mu.Unlock()

	s.started <- n
	return <-ch, nil
}

func (s *scripted) release(n int, ls []listing.Listing) {
	s.mu.Lock()
	ch := s.releases[n]
	s.mu.Unlock()
	ch <- ls
}

func (s *scripted) CreateListing(ctx context.Context, d listing.Draft, u auth.User) (listing.Listing, error) {
	if s.createGate != nil {
		s.started <- -1
		<-s.createGate
	}
	return s.Backend.CreateListing(ctx, d, u)
}

func loggedIn(t *testing.T, c *Controller, email, name string) {
	t.Helper()
	require.NoError(t, c.Login(context.Background(), email, name))
}

func TestController_InitialState(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})
	st := c.State()

	assert.Equal(t, Browse{}, st.View)
	assert.False(t, st.LoggedIn())
	assert.Empty(t, st.Listings)
	assert.False(t, st.Loading())
	for op := OpFetch; op < opCount; op++ {
		assert.Equal(t, Idle, st.Request(op).Status, op.String())
	}
}

func TestController_LoadAndBrowse(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})
	require.NoError(t, c.LoadListings(context.Background()))

	st := c.State()
	assert.Equal(t, Succeeded, st.Request(OpFetch).Status)
	assert.Len(t, st.Listings, 5)

	v := c.Browse()
	assert.Equal(t, []string{"All", "Books & Supplies", "Electronics", "Hostel Essentials"}, v.Categories)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(v.Listings))

	c.SetQuery(catalog.Query{Category: "Books & Supplies", Sort: catalog.SortNewest})
	assert.Equal(t, []string{"1", "2", "5"}, ids(c.Browse().Listings))

	c.SetQuery(catalog.Query{Search: "calc", Sort: catalog.SortPriceDesc})
	assert.Equal(t, []string{"3"}, ids(c.Browse().Listings))
}

func TestController_LoadFailure(t *testing.T) {
	c := New(newBackend(failingStore{listing.NewMemStore()}), Options{})

	err := c.LoadListings(context.Background())
	assert.ErrorIs(t, err, access.ErrFetchFailed)

	st := c.State()
	assert.Equal(t, Failed, st.Request(OpFetch).Status)
	assert.Equal(t, msgFetchFailed, st.Error)
}

func TestController_StaleFetchIsDiscarded(t *testing.T) {
	b := newScripted(newBackend(listing.NewStore()))
	c := New(b, Options{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- c.LoadListings(ctx) }()
	require.Equal(t, 0, <-b.started)
	assert.True(t, c.State().Loading())

	second := make(chan error, 1)
	go func() { second <- c.LoadListings(ctx) }()
	require.Equal(t, 1, <-b.started)

	b.mu.Lock()
	firstCtx := b.ctxs[0]
	b.mu.Unlock()
	assert.Error(t, firstCtx.Err(), "superseded fetch must be cancelled")

	newer := []listing.Listing{{ID: "new"}}
	b.release(1, newer)
	require.NoError(t, <-second)

	b.release(0, []listing.Listing{{ID: "old"}})
	assert.ErrorIs(t, <-first, ErrSuperseded)

	st := c.State()
	assert.Equal(t, []string{"new"}, ids(st.Listings))
	assert.Equal(t, Succeeded, st.Request(OpFetch).Status)
	assert.False(t, st.Loading())
}

func TestController_Login(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{EmailDomain: "davv.ac.in"})
	ctx := context.Background()
	require.NoError(t, c.Navigate(KindLogin))

	err := c.Login(ctx, "x@notdavv.edu", "X")
	assert.ErrorIs(t, err, access.ErrInvalidDomain)
	st := c.State()
	assert.Equal(t, "Please use a valid @davv.ac.in email address.", st.Error)
	assert.Nil(t, st.User)
	assert.Equal(t, Login{}, st.View)

	require.NoError(t, c.Login(ctx, "x@davv.ac.in", "X"))
	st = c.State()
	require.NotNil(t, st.User)
	assert.Equal(t, "x@davv.ac.in", st.User.Email)
	assert.Equal(t, Browse{}, st.View)
	assert.Empty(t, st.Error, "a new attempt clears the previous error")
}

func TestController_NavigationGuards(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})

	require.NoError(t, c.Navigate(KindCreate))
	assert.Equal(t, Login{}, c.State().View)
	require.NoError(t, c.Navigate(KindDashboard))
	assert.Equal(t, Login{}, c.State().View)

	loggedIn(t, c, "a@davv.ac.in", "Asha")
	require.NoError(t, c.Navigate(KindCreate))
	assert.Equal(t, Create{}, c.State().View)
	require.NoError(t, c.Navigate(KindDashboard))
	assert.Equal(t, Dashboard{}, c.State().View)
}

func TestController_DetailNeedsSelection(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})
	require.NoError(t, c.LoadListings(context.Background()))

	assert.ErrorIs(t, c.Navigate(KindDetail), ErrNoSelection)
	assert.Equal(t, Browse{}, c.State().View)

	l := c.Browse().Listings[2]
	c.SelectListing(l)
	assert.Equal(t, Detail{Listing: l}, c.State().View)
	require.NoError(t, c.Navigate(KindDetail))
	assert.Equal(t, Detail{Listing: l}, c.State().View)

	c.Back()
	assert.Equal(t, Browse{}, c.State().View)
	assert.ErrorIs(t, c.Navigate(KindDetail), ErrNoSelection)
}

func TestController_CreateRequiresSession(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})

	err := c.CreateListing(context.Background(), listing.Draft{Title: "x", Description: "y", Category: "Other"})
	assert.ErrorIs(t, err, ErrLoginRequired)

	st := c.State()
	assert.Equal(t, Login{}, st.View)
	assert.Equal(t, msgLoginRequired, st.Error)
}

func TestController_CreateListing(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})
	ctx := context.Background()
	require.NoError(t, c.LoadListings(ctx))
	loggedIn(t, c, "a@davv.ac.in", "Asha")

	d := listing.Draft{Title: "Test Lamp", Description: "desk lamp", Price: 100, Category: "Other"}
	require.NoError(t, c.CreateListing(ctx, d))

	st := c.State()
	assert.Equal(t, Dashboard{}, st.View)
	assert.Nil(t, st.Draft)
	require.Len(t, st.Listings, 6)
	assert.Equal(t, "Test Lamp", st.Listings[0].Title)
	assert.Equal(t, "a@davv.ac.in", st.Listings[0].SellerEmail)

	mine := c.MyListings()
	require.Len(t, mine, 1)
	assert.Equal(t, st.Listings[0].ID, mine[0].ID)

	assert.Contains(t, c.Browse().Categories, "Other")
}

func TestController_CreateFailureKeepsDraft(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})
	ctx := context.Background()
	loggedIn(t, c, "a@davv.ac.in", "Asha")
	require.NoError(t, c.Navigate(KindCreate))

	bad := listing.Draft{Title: "Lamp", Price: 10}
	assert.ErrorIs(t, c.CreateListing(ctx, bad), access.ErrInvalidListing)

	st := c.State()
	assert.Equal(t, msgInvalidDraft, st.Error)
	require.NotNil(t, st.Draft)
	assert.Equal(t, bad, *st.Draft)
	assert.Equal(t, Create{}, st.View)
	assert.Equal(t, Failed, st.Request(OpCreate).Status)
}

func TestController_CreateBackendFailure(t *testing.T) {
	c := New(newBackend(failingStore{listing.NewMemStore()}), Options{})
	ctx := context.Background()
	loggedIn(t, c, "a@davv.ac.in", "Asha")

	d := listing.Draft{Title: "Lamp", Description: "d", Category: "Other"}
	assert.ErrorIs(t, c.CreateListing(ctx, d), access.ErrCreateFailed)
	assert.Equal(t, msgCreateFailed, c.State().Error)
	assert.Equal(t, d, *c.State().Draft)
}

func TestController_LogoutAbandonsCreate(t *testing.T) {
	b := newScripted(newBackend(listing.NewStore()))
	b.createGate = make(chan struct{})
	c := New(b, Options{})
	loggedIn(t, c, "a@davv.ac.in", "Asha")

	done := make(chan error, 1)
	go func() {
		done <- c.CreateListing(context.Background(), listing.Draft{Title: "x", Description: "y", Category: "Other"})
	}()
	<-b.started
	assert.True(t, c.State().Loading())

	c.Logout()
	close(b.createGate)

	err := <-done
	assert.True(t, errors.Is(err, ErrSuperseded) || access.IsTimeout(err), "got %v", err)

	st := c.State()
	assert.Nil(t, st.User)
	assert.Nil(t, st.Draft)
	assert.Equal(t, Browse{}, st.View)
	assert.Empty(t, st.Listings)
	assert.Equal(t, Idle, st.Request(OpCreate).Status)
}

func TestController_RemoveListing(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})
	ctx := context.Background()
	require.NoError(t, c.LoadListings(ctx))

	assert.ErrorIs(t, c.RemoveListing(ctx, "1"), ErrLoginRequired)

	loggedIn(t, c, "rohan@davv.ac.in", "Rohan Sharma")
	c.SelectListing(c.State().Listings[0])

	require.NoError(t, c.RemoveListing(ctx, "1"))
	st := c.State()
	assert.Equal(t, []string{"2", "3", "4", "5"}, ids(st.Listings))
	assert.Equal(t, Browse{}, st.View, "detail of a removed listing closes")

	assert.ErrorIs(t, c.RemoveListing(ctx, "2"), access.ErrForbidden)
	assert.Equal(t, msgNotSeller, c.State().Error)
	assert.Len(t, c.State().Listings, 4)

	assert.ErrorIs(t, c.RemoveListing(ctx, "1"), access.ErrNotFound)
	assert.Equal(t, msgNotFound, c.State().Error)
}

func TestController_ContactSeller(t *testing.T) {
	c := New(newBackend(listing.NewStore()), Options{})
	require.NoError(t, c.LoadListings(context.Background()))

	_, err := c.ContactSeller()
	assert.ErrorIs(t, err, ErrLoginRequired)

	loggedIn(t, c, "a@davv.ac.in", "Asha")
	_, err = c.ContactSeller()
	assert.ErrorIs(t, err, ErrNoSelection)

	c.SelectListing(c.State().Listings[3])
	uri, err := c.ContactSeller()
	require.NoError(t, err)
	assert.Equal(t, "mailto:priya@davv.ac.in?subject=CampusMart%3A%20Hostel%20Room%20Cooler", uri)
}

func TestParseKind(t *testing.T) {
	for k := KindBrowse; k <= KindDashboard; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.Equal(t, k, viewFor(k).Kind())
	}
	_, err := ParseKind("settings")
	assert.Error(t, err)
}

func viewFor(k Kind) View {
	switch k {
	case KindLogin:
		return Login{}
	case KindDetail:
		return Detail{}
	case KindCreate:
		return Create{}
	case KindDashboard:
		return Dashboard{}
	}
	return Browse{}
}

type failingStore struct{ listing.Store }

var errStore = errors.New("store down")

func (failingStore) Snapshot(context.Context) ([]listing.Listing, error) { return nil, errStore }

func (failingStore) InsertFront(context.Context, listing.Listing) error { return errStore }
