// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package review is a thin client for a Helix Swarm-like review service:
// looking up, creating, and updating a review by changelist number. It is
// an external collaborator, never consulted by the Rebase Engine itself —
// only by the upload/review CLI commands.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/minhkhoango/p4-stack-go/pkg/version"
)

const apiVersion = "v11"

// PropertyLookup is the slice of the VCS adapter this package needs to
// resolve the Swarm URL and the interactive auth credential, kept narrow
// so this package doesn't pull in the whole rebase.Adapter surface.
type PropertyLookup interface {
	Property(ctx context.Context, name string) (string, error)
	Ticket(ctx context.Context, host string) (string, error)
	User() string
}

// Auth selects how requests are authenticated against the review service.
type Auth struct {
	// User/Ticket: interactive mode, reusing the P4 session ticket as a
	// basic-auth credential the way `p4 login` session reuse works.
	User   string
	Ticket string

	// JWTSecret: service-account mode. When set, a short-lived HS256 JWT
	// is minted per request instead of using User/Ticket, for headless
	// CI use that shouldn't depend on an interactive P4 ticket.
	JWTSecret string
}

// Client talks to the review service's REST API.
type Client struct {
	baseURL string
	auth    Auth
	http    *retryablehttp.Client
}

// Error is a failure returned by the review service.
type Error struct {
	Op         string
	StatusCode int
	Messages   []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("review service %s failed (status %d): %v", e.Op, e.StatusCode, e.Messages)
}

// IsErrUnauthorized reports whether err is a 401 from the review service,
// mirroring SwarmAuthError.
func IsErrUnauthorized(err error) bool {
	e, ok := err.(*Error)
	return ok && e.StatusCode == http.StatusUnauthorized
}

// NewClient resolves the Swarm base URL (configURL if set, else `p4
// property -n P4.Swarm.URL`) and builds an interactively-authenticated
// client reusing the current P4 session ticket.
func NewClient(ctx context.Context, adapter PropertyLookup, configURL string) (*Client, error) {
	base := configURL
	if base == "" {
		prop, err := adapter.Property(ctx, "P4.Swarm.URL")
		if err != nil {
			return nil, err
		}
		if prop == "" {
			return nil, fmt.Errorf("could not determine swarm URL: set swarm.url in the config file or P4.Swarm.URL on the server")
		}
		base = prop
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid swarm URL %q: %w", base, err)
	}
	ticket, err := adapter.Ticket(ctx, u.Host)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: trimTrailingSlash(base),
		auth:    Auth{User: adapter.User(), Ticket: ticket},
		http:    newHTTPClient(),
	}, nil
}

// NewServiceAccountClient builds a headless client authenticating with a
// minted JWT rather than an interactive P4 ticket, for CI use.
func NewServiceAccountClient(baseURL, jwtSecret string) *Client {
	return &Client{
		baseURL: trimTrailingSlash(baseURL),
		auth:    Auth{JWTSecret: jwtSecret},
		http:    newHTTPClient(),
	}
}

func newHTTPClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.Logger = nil
	return c
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

type reviewEntry struct {
	ID      int   `json:"id"`
	Type    string `json:"type"`
	Changes []int `json:"changes"`
}

type getReviewsResponse struct {
	Error    *string `json:"error"`
	Messages []string `json:"messages"`
	Data     struct {
		Reviews []reviewEntry `json:"reviews"`
	} `json:"data"`
}

type postReviewResponse struct {
	Error    *string  `json:"error"`
	Messages []string `json:"messages"`
	Data     struct {
		Review []reviewEntry `json:"review"`
	} `json:"data"`
}

// GetReviewID looks up the review already associated with cl, by
// scanning the authenticated user's reviews for one whose changes[0]
// (the local CL, per the [local_cl, swarm_shelf_cl] pairing) matches.
// Returns (0, false, nil) when no review exists yet.
func (c *Client) GetReviewID(ctx context.Context, cl int) (int, bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/reviews", url.Values{
		"author": {c.auth.User},
	}, nil)
	if err != nil {
		return 0, false, err
	}
	var out getReviewsResponse
	if err := c.do(req, "get_review_id", &out); err != nil {
		return 0, false, err
	}
	for _, r := range out.Data.Reviews {
		if len(r.Changes) > 0 && r.Changes[0] == cl {
			return r.ID, true, nil
		}
	}
	return 0, false, nil
}

// CreateReview creates a new review for cl and returns its ID.
func (c *Client) CreateReview(ctx context.Context, cl int, description string) (int, error) {
	form := url.Values{
		"change":      {strconv.Itoa(cl)},
		"description": {description},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/reviews", nil, form)
	if err != nil {
		return 0, err
	}
	var out postReviewResponse
	if err := c.do(req, "create_review", &out); err != nil {
		return 0, err
	}
	if len(out.Data.Review) == 0 {
		return 0, &Error{Op: "create_review", Messages: []string{"empty review entry in response"}}
	}
	return out.Data.Review[0].ID, nil
}

// UpdateReviewDescription keeps a review's description in sync with its
// CL's description, e.g. after a Depends-On: tag edit or a rebase.
func (c *Client) UpdateReviewDescription(ctx context.Context, reviewID int, description string) error {
	form := url.Values{"description": {description}}
	// The PATCH endpoint lives on v9, not the v11 base this client
	// otherwise talks to.
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/api/v9/reviews/%d", c.baseURL, reviewID), formBody(form))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", version.GetUserAgent())
	if err := c.authenticate(req); err != nil {
		return err
	}
	var out map[string]any
	return c.do(mustRetryable(req), "update_review", &out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, form url.Values) (*http.Request, error) {
	u := c.baseURL + "/api/" + apiVersion + path
	var body io.Reader
	if form != nil {
		body = formBody(form)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("User-Agent", version.GetUserAgent())
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	if err := c.authenticate(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Client) authenticate(req *http.Request) error {
	if c.auth.JWTSecret != "" {
		token, err := c.mintJWT()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
	req.SetBasicAuth(c.auth.User, c.auth.Ticket)
	return nil
}

func (c *Client) mintJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   c.auth.User,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.auth.JWTSecret))
}

func (c *Client) do(req *http.Request, op string, out any) error {
	return c.doRetryable(mustRetryable(req), op, out)
}

func (c *Client) doRetryable(req *retryablehttp.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("review service %s: %w", op, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("review service %s: read response: %w", op, err)
	}
	if resp.StatusCode >= 400 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Messages: []string{string(data)}}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func formBody(form url.Values) io.Reader {
	return bytes.NewBufferString(form.Encode())
}

func mustRetryable(req *http.Request) *retryablehttp.Request {
	r, err := retryablehttp.FromRequest(req)
	if err != nil {
		// req's body, if any, is already a bytes.Buffer-backed reader
		// built in this package, which FromRequest always accepts.
		panic(err)
	}
	return r
}
