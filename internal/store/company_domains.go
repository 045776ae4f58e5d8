package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreach-engine/internal/util"
)

// Where a cached company domain came from.
const (
	DomainFromSearch = "ddg"
	DomainGuessed    = "guess"
)

// CompanyDomain is a cached company -> mail domain mapping.
type CompanyDomain struct {
	Company    string
	Domain     string
	Source     string
	LookedUpAt time.Time
}

// Stale reports whether a guessed domain is old enough to search again.
// Search hits never go stale.
func (cd CompanyDomain) Stale(now time.Time, guessTTL time.Duration) bool {
	return cd.Source == DomainGuessed && now.Sub(cd.LookedUpAt) >= guessTTL
}

// GetCompanyDomain returns the cached mapping for company, if any.
func GetCompanyDomain(ctx context.Context, db *sql.DB, company string) (CompanyDomain, bool, error) {
	key := util.NormalizeKey(company)
	if key == "" {
		return CompanyDomain{}, false, nil
	}

	var (
		cd         = CompanyDomain{Company: key}
		lookedUpAt string
	)
	err := db.QueryRowContext(ctx,
		`SELECT domain, source, looked_up_at FROM company_domains WHERE company = ? LIMIT 1;`,
		key,
	).Scan(&cd.Domain, &cd.Source, &lookedUpAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CompanyDomain{}, false, nil
	}
	if err != nil {
		return CompanyDomain{}, false, fmt.Errorf("company domain lookup: %w", err)
	}

	cd.Domain = strings.TrimSpace(cd.Domain)
	if t, err := time.Parse(time.RFC3339, lookedUpAt); err == nil {
		cd.LookedUpAt = t
	}
	return cd, cd.Domain != "", nil
}

// UpsertCompanyDomain caches cd, stamping it with the current time. Blank
// companies or domains are ignored.
func UpsertCompanyDomain(ctx context.Context, db *sql.DB, cd CompanyDomain) error {
	company := util.NormalizeKey(cd.Company)
	domain := strings.ToLower(strings.TrimSpace(cd.Domain))
	if company == "" || domain == "" {
		return nil
	}
	source := cd.Source
	if source == "" {
		source = DomainFromSearch
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO company_domains(company, domain, source, looked_up_at)
VALUES(?,?,?,?)
ON CONFLICT(company) DO UPDATE SET
  domain = excluded.domain,
  source = excluded.source,
  looked_up_at = excluded.looked_up_at;
`, company, domain, source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("company domain upsert: %w", err)
	}
	return nil
}
