// Package market serves the access layer over HTTP and provides the client
// that talks to it.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CampusMart/internal/access"
	"CampusMart/internal/auth"
	"CampusMart/internal/catalog"
	"CampusMart/internal/listing"
	"CampusMart/pkg/kit"
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultTokenTTL       = 24 * time.Hour
	readyTimeout          = 1 * time.Second
)

type Server struct {
	Access *access.Service
	Tokens *auth.TokenMaker
	Log    *zap.Logger

	TokenTTL time.Duration
	// Timeout bounds every access layer call, simulated latency included.
	Timeout time.Duration

	metrics *kit.Metrics
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Access.Ping(ctx); err != nil {
		s.log().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type loginReq struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginResp struct {
	AccessToken string    `json:"access_token"`
	User        auth.User `json:"user"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	ctx, cancel := s.callCtx(r)
	defer cancel()

	u, err := s.Access.Login(ctx, req.Email, req.Name)
	switch {
	case err == nil:
	case errors.Is(err, access.ErrInvalidDomain):
		s.metrics.Event("login", "rejected")
		kit.WriteError(w, r, http.StatusForbidden, "invalid email domain",
			map[string]any{"required_suffix": s.Access.Gate().Suffix()})
		return
	case errors.Is(err, access.ErrInvalidName):
		s.metrics.Event("login", "rejected")
		kit.WriteError(w, r, http.StatusBadRequest, "name required", nil)
		return
	default:
		s.metrics.Event("login", "error")
		s.writeAccessError(w, r, "login", err)
		return
	}

	tok, err := s.Tokens.New(u, s.tokenTTL())
	if err != nil {
		s.log().Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.metrics.Event("login", "ok")
	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, User: u})
}

func (s *Server) whoami(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

// list serves the browse page: the whole catalog run through the query
// engine with the q, category and sort parameters.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	sortKey, err := catalog.ParseSortKey(qs.Get("sort"))
	if err != nil {
		names := make([]string, 0, 4)
		for _, k := range catalog.SortKeys() {
			names = append(names, k.String())
		}
		kit.WriteError(w, r, http.StatusBadRequest, "unknown sort", map[string]any{"allowed": names})
		return
	}

	ls, ok := s.fetch(w, r)
	if !ok {
		return
	}

	q := catalog.Query{Search: qs.Get("q"), Category: qs.Get("category"), Sort: sortKey}
	kit.WriteJSON(w, http.StatusOK, catalog.Apply(ls, q))
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.fetch(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, catalog.Categories(ls))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := s.callCtx(r)
	defer cancel()

	l, err := s.Access.GetListing(ctx, id)
	if err != nil {
		s.writeAccessError(w, r, "get listing", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, l)
}

type createReq struct {
	listing.Draft

	// Server-owned fields. Clients may send a whole listing; these are
	// decoded and dropped.
	ID          string          `json:"id"`
	SellerName  string          `json:"seller_name"`
	SellerEmail string          `json:"seller_email"`
	CreatedAt   json.RawMessage `json:"created_at"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	ctx, cancel := s.callCtx(r)
	defer cancel()

	l, err := s.Access.CreateListing(ctx, req.Draft, u)
	if err != nil {
		s.metrics.Event("listing_create", "error")
		s.writeAccessError(w, r, "create listing", err)
		return
	}

	s.metrics.Event("listing_create", "ok")
	kit.WriteJSON(w, http.StatusCreated, l)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := s.callCtx(r)
	defer cancel()

	if err := s.Access.RemoveListing(ctx, id, u); err != nil {
		s.metrics.Event("listing_remove", "error")
		s.writeAccessError(w, r, "remove listing", err)
		return
	}

	s.metrics.Event("listing_remove", "ok")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) mine(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	ls, ok := s.fetch(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, catalog.Owned(ls, u.Email))
}

// fetch loads the catalog or writes the error response.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) ([]listing.Listing, bool) {
	ctx, cancel := s.callCtx(r)
	defer cancel()

	ls, err := s.Access.FetchListings(ctx)
	if err != nil {
		s.writeAccessError(w, r, "fetch listings", err)
		return nil, false
	}
	return ls, true
}

func (s *Server) writeAccessError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case access.IsTimeout(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	case errors.Is(err, access.ErrInvalidListing):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid listing", map[string]any{"cause": err.Error()})
	case errors.Is(err, access.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
	case errors.Is(err, access.ErrForbidden):
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, access.ErrUnauthorized):
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
	default:
		s.log().Error(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) callCtx(r *http.Request) (context.Context, context.CancelFunc) {
	d := s.Timeout
	if d <= 0 {
		d = defaultRequestTimeout
	}
	return context.WithTimeout(r.Context(), d)
}

func (s *Server) tokenTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return defaultTokenTTL
	}
	return s.TokenTTL
}

func (s *Server) log() *zap.Logger { return kit.OrNop(s.Log) }
