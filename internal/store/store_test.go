package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestCompanyDomains(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, ok, err := GetCompanyDomain(ctx, db.Pool, "Acme Corp")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, UpsertCompanyDomain(ctx, db.Pool, CompanyDomain{Company: "Acme  Corp", Domain: " ACME.io "}))
	cd, ok, err := GetCompanyDomain(ctx, db.Pool, "acme corp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "acme.io", cd.Domain)
	assert.Equal(t, DomainFromSearch, cd.Source)
	assert.WithinDuration(t, time.Now(), cd.LookedUpAt, time.Minute)

	require.NoError(t, UpsertCompanyDomain(ctx, db.Pool, CompanyDomain{Company: "Acme Corp", Domain: "acmecorp.com", Source: DomainGuessed}))
	cd, ok, err = GetCompanyDomain(ctx, db.Pool, "Acme Corp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "acmecorp.com", cd.Domain)
	assert.Equal(t, DomainGuessed, cd.Source)

	// blanks are ignored
	require.NoError(t, UpsertCompanyDomain(ctx, db.Pool, CompanyDomain{Domain: "x.com"}))
}

func TestCompanyDomain_Stale(t *testing.T) {
	now := time.Now()
	guess := CompanyDomain{Domain: "acme.com", Source: DomainGuessed, LookedUpAt: now.Add(-48 * time.Hour)}
	assert.True(t, guess.Stale(now, 24*time.Hour))
	assert.False(t, guess.Stale(now, 72*time.Hour))

	hit := CompanyDomain{Domain: "acme.io", Source: DomainFromSearch, LookedUpAt: now.Add(-365 * 24 * time.Hour)}
	assert.False(t, hit.Stale(now, 24*time.Hour))
}

func TestOpen_CreatesDataDir(t *testing.T) {
	path := DefaultPath(filepath.Join(t.TempDir(), "nested", "data"))
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, path, db.Path)
	assert.Equal(t, FileName, filepath.Base(path))
	assert.FileExists(t, path)
}

func TestLeadKey(t *testing.T) {
	a := domain.Lead{Name: "Jane Doe", Company: "Acme", LinkedInURL: "https://linkedin.com/in/jane/?trk=x"}
	b := domain.Lead{Name: "J. Doe", Company: "Other", LinkedInURL: "https://www.linkedin.com/in/jane"}
	assert.Equal(t, LeadKey(a), LeadKey(b))

	c := domain.Lead{Name: "Jane  Doe", Company: "ACME"}
	d := domain.Lead{Name: "jane doe", Company: "acme"}
	assert.Equal(t, LeadKey(c), LeadKey(d))
	assert.NotEqual(t, LeadKey(a), LeadKey(c))

	// placeholders and non-LinkedIn URLs fall back to name and company
	e := domain.Lead{Name: "Jane Doe", Company: "Acme", LinkedInURL: "N/A"}
	f := domain.Lead{Name: "Bob Roe", Company: "Globex", LinkedInURL: "N/A"}
	assert.NotEqual(t, LeadKey(e), LeadKey(f))
	assert.Equal(t, LeadKey(c), LeadKey(e))
	assert.Equal(t, LeadKey(c), LeadKey(domain.Lead{Name: "Jane Doe", Company: "Acme", LinkedInURL: "https://janedoe.dev"}))
}

func TestLedger_PlaceholderProfileURLs(t *testing.T) {
	db := openTestDB(t)
	lg := NewLedger(db.Pool)
	ctx := context.Background()

	leads := []domain.Lead{
		{Name: "Jane Doe", Company: "Acme", Title: "CTO", LinkedInURL: "N/A"},
		{Name: "Bob Roe", Company: "Globex", Title: "VP Engineering", LinkedInURL: "N/A"},
	}
	for _, l := range leads {
		seen, err := lg.Seen(ctx, l)
		require.NoError(t, err)
		assert.False(t, seen, l.Name)
		require.NoError(t, lg.Record(ctx, "run-1", l))
	}

	n, err := lg.CountRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLedger(t *testing.T) {
	db := openTestDB(t)
	lg := NewLedger(db.Pool)
	ctx := context.Background()

	l := domain.Lead{Name: "Jane Doe", Company: "Acme", Title: "CTO", LinkedInURL: "https://linkedin.com/in/jane"}

	seen, err := lg.Seen(ctx, l)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, lg.Record(ctx, "run-1", l))
	require.NoError(t, lg.Record(ctx, "run-2", l)) // ignored

	seen, err = lg.Seen(ctx, l)
	require.NoError(t, err)
	assert.True(t, seen)

	n, err := lg.CountRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = lg.CountRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
