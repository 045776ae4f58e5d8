package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/store"
)

type stubResolver struct {
	name  string
	email string
	err   error
	calls int
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Resolve(context.Context, domain.Lead) (string, error) {
	s.calls++
	return s.email, s.err
}

func TestIsValidEmail(t *testing.T) {
	tests := map[string]bool{
		"jane@acme.com":           true,
		"jane.doe+x@mail.acme.io": true,
		"":                        false,
		"jane@acme":               false,
		"not an email":            false,
		"jane@@acme.com":          false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsValidEmail(in), in)
	}
}

func TestChain_FirstHitWins(t *testing.T) {
	first := &stubResolver{name: "hunter", email: "a@acme.com"}
	second := &stubResolver{name: "github", email: "b@acme.com"}

	got := NewChain(nil, first, second).Resolve(context.Background(), domain.Lead{Name: "A"})
	assert.Equal(t, "a@acme.com", got)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
}

func TestChain_FallsThroughErrorsAndGarbage(t *testing.T) {
	failing := &stubResolver{name: "hunter", err: errors.New("boom")}
	garbage := &stubResolver{name: "mangled", email: "not-an-email"}
	good := &stubResolver{name: "github", email: " c@acme.com "}

	core, logs := observer.New(zap.DebugLevel)
	got := NewChain(zap.New(core), failing, garbage, good).Resolve(context.Background(), domain.Lead{})
	assert.Equal(t, "c@acme.com", got)

	assert.Equal(t, 1, logs.FilterMessage("lookup failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("discarding malformed email").Len())
}

func TestChain_NothingFound(t *testing.T) {
	assert.Empty(t, NewChain(nil).Resolve(context.Background(), domain.Lead{}))
	assert.Empty(t, NewChain(nil, &stubResolver{name: "x"}).Resolve(context.Background(), domain.Lead{}))

	var nilChain *Chain
	assert.Empty(t, nilChain.Resolve(context.Background(), domain.Lead{}))
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	r := &stubResolver{name: "hunter", email: "a@acme.com"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, NewChain(nil, r).Resolve(ctx, domain.Lead{}))
	assert.Zero(t, r.calls)
}

func TestGuessDomain(t *testing.T) {
	assert.Equal(t, "acmelabs.com", GuessDomain("Acme Labs"))
	assert.Equal(t, "stripe.com", GuessDomain("  Stripe "))
	assert.Empty(t, GuessDomain("   "))
}

const ddgPage = `<html><body>
<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.linkedin.com%2Fcompany%2Facme">LinkedIn</a>
<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.acme.io%2Fabout">Acme</a>
<a class="result__a" href="https://other.example.com/">Other</a>
</body></html>`

func TestDomainFinder_SearchAndCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Contains(t, r.URL.Query().Get("q"), "Acme official website")
		_, _ = w.Write([]byte(ddgPage))
	}))
	t.Cleanup(srv.Close)

	db, err := store.Open(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := NewDomainFinder(db.Pool, nil, zaptest.NewLogger(t))
	f.SearchURL = srv.URL

	ctx := context.Background()
	assert.Equal(t, "acme.io", f.Domain(ctx, "Acme, Inc."))
	assert.Equal(t, "acme.io", f.Domain(ctx, "Acme, Inc."))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	cached, ok, err := store.GetCompanyDomain(ctx, db.Pool, "Acme, Inc.")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "acme.io", cached.Domain)
	assert.Equal(t, store.DomainFromSearch, cached.Source)

	// a fresh finder reads the store before searching
	f2 := NewDomainFinder(db.Pool, nil, nil)
	f2.SearchURL = srv.URL
	assert.Equal(t, "acme.io", f2.Domain(ctx, "Acme, Inc."))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestDomainFinder_FallsBackToGuess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	f := NewDomainFinder(nil, nil, nil)
	f.SearchURL = srv.URL
	assert.Equal(t, "globex.com", f.Domain(context.Background(), "Globex"))
}

func TestDomainFinder_CachesGuessOnEmptyResults(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`<html><body><a class="result__a" href="https://www.linkedin.com/company/initech">LinkedIn</a></body></html>`))
	}))
	t.Cleanup(srv.Close)

	db, err := store.Open(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	f := NewDomainFinder(db.Pool, nil, nil)
	f.SearchURL = srv.URL
	assert.Equal(t, "initech.com", f.Domain(ctx, "Initech"))

	cached, ok, err := store.GetCompanyDomain(ctx, db.Pool, "Initech")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "initech.com", cached.Domain)
	assert.Equal(t, store.DomainGuessed, cached.Source)

	// a fresh guess is trusted by the next run
	f2 := NewDomainFinder(db.Pool, nil, nil)
	f2.SearchURL = srv.URL
	assert.Equal(t, "initech.com", f2.Domain(ctx, "Initech"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestDomainFinder_SearchErrorsAreNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	db, err := store.Open(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	f := NewDomainFinder(db.Pool, nil, nil)
	f.SearchURL = srv.URL
	assert.Equal(t, "globex.com", f.Domain(ctx, "Globex"))

	_, ok, err := store.GetCompanyDomain(ctx, db.Pool, "Globex")
	require.NoError(t, err)
	assert.False(t, ok)
}
