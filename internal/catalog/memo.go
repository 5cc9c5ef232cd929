package catalog

import (
	"sync"

	"CampusMart/internal/listing"
)

// View is what a browse page renders.
type View struct {
	Categories []string
	Listings   []listing.Listing
}

// Memo remembers the last computed View. Callers identify a listing
// sequence by a version number they bump whenever the sequence changes;
// categories depend on the version only, listings on version and query.
type Memo struct {
	mu sync.Mutex

	catsVersion uint64
	cats        []string
	catsOK      bool

	viewVersion uint64
	viewQuery   Query
	view        []listing.Listing
	viewOK      bool
}

func (m *Memo) View(version uint64, ls []listing.Listing, q Query) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.catsOK || m.catsVersion != version {
		m.cats = Categories(ls)
		m.catsVersion = version
		m.catsOK = true
	}
	if !m.viewOK || m.viewVersion != version || m.viewQuery != q {
		m.view = Apply(ls, q)
		m.viewVersion = version
		m.viewQuery = q
		m.viewOK = true
	}

	v := View{
		Categories: make([]string, len(m.cats)),
		Listings:   make([]listing.Listing, len(m.view)),
	}
	copy(v.Categories, m.cats)
	copy(v.Listings, m.view)
	return v
}
