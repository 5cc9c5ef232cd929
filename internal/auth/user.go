package auth

import (
	"errors"
	"strings"
)

const DefaultEmailDomain = "@davv.ac.in"

var ErrInvalidDomain = errors.New("email domain not allowed")

// User is a session identity. It carries no credentials.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) IsZero() bool { return u.ID == "" && u.Email == "" }

// DomainGate is the institutional email format check. It is not an
// authentication mechanism.
type DomainGate struct {
	suffix string
}

// NewDomainGate normalizes suffix to lower case with a leading "@", so
// "davv.ac.in" and "@DAVV.ac.in" behave the same.
func NewDomainGate(suffix string) DomainGate {
	suffix = strings.ToLower(strings.TrimSpace(suffix))
	if suffix == "" {
		suffix = DefaultEmailDomain
	}
	if !strings.HasPrefix(suffix, "@") {
		suffix = "@" + suffix
	}
	return DomainGate{suffix: suffix}
}

func (g DomainGate) Suffix() string {
	if g.suffix == "" {
		return DefaultEmailDomain
	}
	return g.suffix
}

// Check returns ErrInvalidDomain unless email has a non-empty local part
// followed by the required suffix. Comparison ignores case and surrounding
// whitespace.
func (g DomainGate) Check(email string) error {
	e := NormalizeEmail(email)
	suffix := g.Suffix()
	if !strings.HasSuffix(e, suffix) || len(e) == len(suffix) {
		return ErrInvalidDomain
	}
	return nil
}

func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// SameEmail compares two addresses the way the gate does.
func SameEmail(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
