// Package message renders the outreach note sent to each lead.
package message

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	FallbackFirstName = "there"
	FallbackCompanies = "your background"
	MaxCompanies      = 3
)

// DefaultTemplate is the stock outreach copy; %[1]s is the first name, %[2]s the company clause.
const DefaultTemplate = "%[1]s! Really inspiring background leading + recruiting top eng talent (%[2]s). " +
	"I'm a first-time founder hiring a VP Eng + scaling (building an AI fashion discovery platform $ by Bloomberg Beta, 1517, etc). " +
	"Would love to learn from you—totally get if now's not a good time!"

// Data is what a custom template sees.
type Data struct {
	FirstName string
	Companies string
}

type Templater struct {
	tmpl *template.Template
}

// New returns the stock templater when text is empty, otherwise parses text
// as a text/template over Data.
func New(text string) (Templater, error) {
	if strings.TrimSpace(text) == "" {
		return Templater{}, nil
	}
	t, err := template.New("message").Option("missingkey=error").Parse(text)
	if err != nil {
		return Templater{}, fmt.Errorf("parse message template: %w", err)
	}
	return Templater{tmpl: t}, nil
}

func (t Templater) Render(name string, companies []string) string {
	d := Data{FirstName: FirstName(name), Companies: CompanyClause(companies)}

	if t.tmpl != nil {
		var b strings.Builder
		if err := t.tmpl.Execute(&b, d); err == nil {
			return b.String()
		}
	}
	return fmt.Sprintf(DefaultTemplate, d.FirstName, d.Companies)
}

// Render uses the stock template.
func Render(name string, companies []string) string {
	return Templater{}.Render(name, companies)
}

func FirstName(name string) string {
	f := strings.Fields(name)
	if len(f) == 0 {
		return FallbackFirstName
	}
	return f[0]
}

func CompanyClause(companies []string) string {
	if len(companies) == 0 {
		return FallbackCompanies
	}
	if len(companies) > MaxCompanies {
		companies = companies[:MaxCompanies]
	}
	return strings.Join(companies, ", ")
}
