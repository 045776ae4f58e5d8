package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach-engine/internal/domain"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_FirstEmail(t *testing.T) {
	var gotDomain, gotKey string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/domain-search", r.URL.Path)
		gotDomain = r.URL.Query().Get("domain")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"domain":"acmelabs.com","emails":[{"value":"jane@acmelabs.com"},{"value":"bob@acmelabs.com"}]}}`))
	})

	c := New(Config{BaseURL: srv.URL, APIKey: "k1"}, nil, nil)
	email, err := c.Resolve(context.Background(), domain.Lead{Company: "Acme Labs"})
	require.NoError(t, err)

	assert.Equal(t, "jane@acmelabs.com", email)
	assert.Equal(t, "acmelabs.com", gotDomain)
	assert.Equal(t, "k1", gotKey)
}

func TestResolve_NoEmails(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"emails":[]}}`))
	})
	c := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil)
	email, err := c.Resolve(context.Background(), domain.Lead{Company: "Acme"})
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestResolve_Failures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"errors":[{"id":"authentication_failed"}]}`, http.StatusUnauthorized)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, h)
			c := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil)
			email, err := c.Resolve(context.Background(), domain.Lead{Company: "Acme"})
			assert.Error(t, err)
			assert.Empty(t, email)
		})
	}
}

func TestResolve_SkipsWithoutCompanyOrKey(t *testing.T) {
	var hits int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	c := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil)
	email, err := c.Resolve(context.Background(), domain.Lead{})
	require.NoError(t, err)
	assert.Empty(t, email)

	noKey := New(Config{BaseURL: srv.URL}, nil, nil)
	_, err = noKey.Resolve(context.Background(), domain.Lead{Company: "Acme"})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	assert.Zero(t, atomic.LoadInt32(&hits))
}

type fixedDomain string

func (f fixedDomain) Domain(context.Context, string) string { return string(f) }

func TestResolve_UsesDomainSource(t *testing.T) {
	var got string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("domain")
		_, _ = w.Write([]byte(`{"data":{"emails":[{"value":"a@acme.io"}]}}`))
	})

	c := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil, fixedDomain("acme.io"))
	email, err := c.Resolve(context.Background(), domain.Lead{Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme.io", got)
	assert.Equal(t, "a@acme.io", email)
}
