package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/util"
)

// LeadKey identifies a lead across runs: the canonical LinkedIn profile URL
// when there is one, else a hash of name and company. Placeholders such as
// "N/A" are not profile URLs.
func LeadKey(l domain.Lead) string {
	if u := util.CanonicalizeURL(l.LinkedInURL); strings.Contains(util.HostFromURL(u), "linkedin.com") {
		return "li:" + strings.ToLower(u)
	}
	return "nc:" + util.HashString(util.NormalizeKey(l.Name)+"|"+util.NormalizeKey(l.Company))
}

// Ledger remembers which leads were already appended to the sink.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (lg *Ledger) Seen(ctx context.Context, l domain.Lead) (bool, error) {
	var one int
	err := lg.db.QueryRowContext(ctx,
		`SELECT 1 FROM leads WHERE lead_key = ? LIMIT 1;`, LeadKey(l),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return true, nil
}

func (lg *Ledger) Record(ctx context.Context, runID string, l domain.Lead) error {
	_, err := lg.db.ExecContext(ctx, `
INSERT OR IGNORE INTO leads(lead_key, name, company, title, linkedin_url, email, run_id, appended_at)
VALUES(?,?,?,?,?,?,?,?);`,
		LeadKey(l),
		l.Name,
		l.Company,
		l.Title,
		l.LinkedInURL,
		l.Email,
		runID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}

// CountRun returns how many leads a run appended.
func (lg *Ledger) CountRun(ctx context.Context, runID string) (int, error) {
	var n int
	err := lg.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE run_id = ?;`, runID).Scan(&n)
	return n, err
}
