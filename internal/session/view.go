package session

import (
	"fmt"
	"strings"

	"CampusMart/internal/listing"
)

// Kind names a view for navigation requests.
type Kind int

const (
	KindBrowse Kind = iota
	KindLogin
	KindDetail
	KindCreate
	KindDashboard
)

var kindNames = [...]string{
	KindBrowse:    "browse",
	KindLogin:     "login",
	KindDetail:    "detail",
	KindCreate:    "create",
	KindDashboard: "dashboard",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return KindBrowse, fmt.Errorf("unknown view %q", s)
}

// View is the closed set of screens. Only this package can add members, and
// a Detail always carries the listing it shows.
type View interface {
	Kind() Kind
	isView()
}

type (
	Login     struct{}
	Browse    struct{}
	Create    struct{}
	Dashboard struct{}
	Detail    struct{ Listing listing.Listing }
)

func (Login) Kind() Kind     { return KindLogin }
func (Browse) Kind() Kind    { return KindBrowse }
func (Create) Kind() Kind    { return KindCreate }
func (Dashboard) Kind() Kind { return KindDashboard }
func (Detail) Kind() Kind    { return KindDetail }

func (Login) isView()     {}
func (Browse) isView()    {}
func (Create) isView()    {}
func (Dashboard) isView() {}
func (Detail) isView()    {}
