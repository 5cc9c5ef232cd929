package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"CampusMart/internal/access"
	"CampusMart/internal/auth"
	"CampusMart/internal/listing"
	"CampusMart/pkg/kit"
)

const clientTimeout = 10 * time.Second

// Client is the access layer reached over HTTP. It keeps the token from
// the last successful Login and sends it on user-bound calls; the seller
// and actor arguments are implied by that token.
type Client struct {
	BaseURL string
	Client  *http.Client

	mu    sync.Mutex
	token string
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) FetchListings(ctx context.Context) ([]listing.Listing, error) {
	var ls []listing.Listing
	if err := c.call(ctx, http.MethodGet, "/listings", nil, false, &ls, access.ErrFetchFailed); err != nil {
		return nil, err
	}
	if ls == nil {
		ls = []listing.Listing{}
	}
	return ls, nil
}

func (c *Client) CreateListing(ctx context.Context, d listing.Draft, _ auth.User) (listing.Listing, error) {
	var l listing.Listing
	if err := c.call(ctx, http.MethodPost, "/listings", d, true, &l, access.ErrCreateFailed); err != nil {
		return listing.Listing{}, err
	}
	return l, nil
}

func (c *Client) Login(ctx context.Context, email, name string) (auth.User, error) {
	var resp loginResp
	if err := c.call(ctx, http.MethodPost, "/auth/login", loginReq{Email: email, Name: name}, false, &resp, access.ErrUnavailable); err != nil {
		return auth.User{}, err
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.mu.Unlock()
	return resp.User, nil
}

func (c *Client) RemoveListing(ctx context.Context, id string, _ auth.User) error {
	return c.call(ctx, http.MethodDelete, "/listings/"+url.PathEscape(id), nil, true, nil, access.ErrRemoveFailed)
}

func (c *Client) Logout() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// call performs one round trip. Failures come back as access sentinels;
// kind tags anything without a more specific meaning.
func (c *Client) call(ctx context.Context, method, path string, in any, authed bool, out any, kind error) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		tok := c.Token()
		if tok == "" {
			return access.ErrUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return transportError(kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp, kind)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(kind, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func transportError(kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(kind, access.ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.Join(kind, access.ErrTimeout, err)
	}
	return errors.Join(kind, access.ErrUnavailable, err)
}

func statusError(resp *http.Response, kind error) error {
	var env kit.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, kit.MaxBodyBytes)).Decode(&env)
	cause := fmt.Errorf("status=%d: %s", resp.StatusCode, env.Error)

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		switch env.Error {
		case "name required":
			sentinel = access.ErrInvalidName
		case "invalid listing":
			sentinel = access.ErrInvalidListing
		default:
			return errors.Join(kind, cause)
		}
	case http.StatusUnauthorized:
		sentinel = access.ErrUnauthorized
	case http.StatusForbidden:
		if env.Error == "invalid email domain" {
			sentinel = access.ErrInvalidDomain
		} else {
			sentinel = access.ErrForbidden
		}
	case http.StatusNotFound:
		sentinel = access.ErrNotFound
	case http.StatusGatewayTimeout:
		return errors.Join(kind, access.ErrTimeout, cause)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return errors.Join(kind, access.ErrUnavailable, cause)
	default:
		return errors.Join(kind, cause)
	}
	return errors.Join(sentinel, cause)
}
