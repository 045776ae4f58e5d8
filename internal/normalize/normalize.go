// Package normalize turns loosely-headed export rows into clean lead fields.
package normalize

import (
	"strings"

	"outreach-engine/internal/domain"
)

// Aliases maps each logical field to the column names exports have used for it, in priority order.
var Aliases = struct {
	Name, Company, Title, LinkedIn, GitHub []string
	PrimaryCompany, SecondCompany          []string
}{
	Name:           []string{"fullName", "name", "Name", "full_name"},
	Company:        []string{"company", "companyName", "Company", "employer"},
	Title:          []string{"jobTitle", "title", "Title", "position"},
	LinkedIn:       []string{"profileUrl", "linkedin", "LinkedIn", "url"},
	GitHub:         []string{"github", "githubUsername", "githubUrl", "GitHub"},
	PrimaryCompany: []string{"company"},
	SecondCompany:  []string{"company2"},
}

var sentinels = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
}

// Extract returns the first usable value among candidates.
// Empty, whitespace-only and nan/none/null (any case) values are skipped.
func Extract(row domain.Row, candidates []string) (string, bool) {
	for _, col := range candidates {
		raw, ok := row.Get(col)
		if !ok {
			continue
		}
		v := strings.TrimSpace(raw)
		if v == "" || sentinels[strings.ToLower(v)] {
			continue
		}
		return v, true
	}
	return "", false
}

// BuildLead resolves every logical field of row. It never fails; missing
// fields come back empty and are judged by the filter stage.
func BuildLead(row domain.Row) domain.Lead {
	name, _ := Extract(row, Aliases.Name)
	company, _ := Extract(row, Aliases.Company)
	title, _ := Extract(row, Aliases.Title)
	linkedin, _ := Extract(row, Aliases.LinkedIn)
	gh, _ := Extract(row, Aliases.GitHub)

	return domain.Lead{
		Name:        name,
		Company:     company,
		Title:       title,
		LinkedInURL: linkedin,
		Companies:   Companies(row),
		GitHub:      GitHubHandle(gh),
		RowIndex:    row.Index,
		Source:      row.Source,
	}
}

// Companies builds the work-history list from the primary and secondary
// company columns, dropping URLs and duplicates.
func Companies(row domain.Row) []string {
	var out []string

	if c, ok := Extract(row, Aliases.PrimaryCompany); ok && !strings.HasPrefix(c, "http") {
		out = append(out, c)
	}
	if c, ok := Extract(row, Aliases.SecondCompany); ok && !strings.HasPrefix(c, "http") && !contains(out, c) {
		out = append(out, c)
	}
	return out
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
