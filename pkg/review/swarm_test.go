// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePropertyLookup struct {
	swarmURL string
	ticket   string
	user     string
}

func (f *fakePropertyLookup) Property(ctx context.Context, name string) (string, error) {
	if name == "P4.Swarm.URL" {
		return f.swarmURL, nil
	}
	return "", nil
}

func (f *fakePropertyLookup) Ticket(ctx context.Context, host string) (string, error) {
	return f.ticket, nil
}

func (f *fakePropertyLookup) User() string { return f.user }

func TestNewClientPrefersConfigURLOverProperty(t *testing.T) {
	adapter := &fakePropertyLookup{swarmURL: "https://from-property.example.com", ticket: "tkt", user: "alice"}
	c, err := NewClient(context.Background(), adapter, "https://from-config.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://from-config.example.com", c.baseURL)
	assert.Equal(t, "alice", c.auth.User)
	assert.Equal(t, "tkt", c.auth.Ticket)
}

func TestNewClientFallsBackToSwarmProperty(t *testing.T) {
	adapter := &fakePropertyLookup{swarmURL: "https://from-property.example.com", ticket: "tkt", user: "alice"}
	c, err := NewClient(context.Background(), adapter, "")
	require.NoError(t, err)
	assert.Equal(t, "https://from-property.example.com", c.baseURL)
}

func TestNewClientFailsWithNoSwarmURLAnywhere(t *testing.T) {
	adapter := &fakePropertyLookup{user: "alice"}
	_, err := NewClient(context.Background(), adapter, "")
	assert.Error(t, err)
}

func TestGetReviewIDFindsMatchByFirstChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v11/reviews", r.URL.Path)
		assert.Equal(t, "svc", r.URL.Query().Get("author"))
		fmt.Fprint(w, `{"data":{"reviews":[{"id":7,"type":"review","changes":[101,102]},{"id":8,"type":"review","changes":[200]}]}}`)
	}))
	defer srv.Close()

	c := NewServiceAccountClient(srv.URL, "")
	c.auth.User = "svc"
	id, found, err := c.GetReviewID(context.Background(), 101)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, id)
}

func TestGetReviewIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"reviews":[]}}`)
	}))
	defer srv.Close()

	c := NewServiceAccountClient(srv.URL, "")
	_, found, err := c.GetReviewID(context.Background(), 101)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateReviewReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "101", r.PostForm.Get("change"))
		fmt.Fprint(w, `{"data":{"review":[{"id":9,"type":"review","changes":[101]}]}}`)
	}))
	defer srv.Close()

	c := NewServiceAccountClient(srv.URL, "")
	id, err := c.CreateReview(context.Background(), 101, "fix the bug")
	require.NoError(t, err)
	assert.Equal(t, 9, id)
}

func TestUpdateReviewDescriptionHitsV9Endpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v9/reviews/9", r.URL.Path)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewServiceAccountClient(srv.URL, "")
	err := c.UpdateReviewDescription(context.Background(), 9, "new description")
	require.NoError(t, err)
}

func TestErrorSurfacesUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no ticket", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewServiceAccountClient(srv.URL, "")
	_, _, err := c.GetReviewID(context.Background(), 101)
	require.Error(t, err)
	assert.True(t, IsErrUnauthorized(err))
}

func TestServiceAccountClientAuthenticatesWithBearerJWT(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.Regexp(t, `^Bearer `, auth)
		fmt.Fprint(w, `{"data":{"reviews":[]}}`)
	}))
	defer srv.Close()

	c := NewServiceAccountClient(srv.URL, "test-secret")
	_, _, err := c.GetReviewID(context.Background(), 101)
	require.NoError(t, err)
}

func TestInteractiveClientSendsBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "tkt", pass)
		fmt.Fprint(w, `{"data":{"reviews":[]}}`)
	}))
	defer srv.Close()

	adapter := &fakePropertyLookup{swarmURL: srv.URL, ticket: "tkt", user: "alice"}
	c, err := NewClient(context.Background(), adapter, "")
	require.NoError(t, err)
	_, _, err = c.GetReviewID(context.Background(), 101)
	require.NoError(t, err)
}

func TestTrimTrailingSlash(t *testing.T) {
	assert.Equal(t, "https://example.com", trimTrailingSlash("https://example.com///"))
}
