package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus hard errors and soft warnings.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string, lower bool) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			if lower {
				x = key
			}
			ys = append(ys, x)
		}
		return ys
	}

	out.Filters.TitleKeywords = trimList(out.Filters.TitleKeywords, true)
	out.Input.IMAP.SubjectAny = trimList(out.Input.IMAP.SubjectAny, false)
	out.Logging.Level = strings.ToLower(strings.TrimSpace(out.Logging.Level))
	out.Logging.Format = strings.ToLower(strings.TrimSpace(out.Logging.Format))

	if out.Input.IMAP.Enabled && out.Input.IMAP.Mailbox == "" {
		out.Input.IMAP.Mailbox = "INBOX"
	}

	if err := Validate(out); err != nil {
		res.addErr("%v", err)
	}

	if out.Filters.VPCatchAll {
		res.addWarn("filters.vp_catch_all is on; any title containing \"vp\" (e.g. \"VP of Marketing\") will match.")
	}
	if !out.Features.HunterLookup && !out.Features.GitHubMining {
		res.addWarn("no email lookup enabled; every row gets %q.", out.Sink.EmailPlaceholder)
	}
	if out.Features.DomainSearch && !out.Features.HunterLookup {
		res.addWarn("features.domain_search has no effect without features.hunter_lookup.")
	}
	if out.Lookup.RequestsPerSecond > 10 {
		res.addWarn("lookup.requests_per_second is high (%.1f) and may trip API rate limits.", out.Lookup.RequestsPerSecond)
	}
	if out.Input.IMAP.Enabled && len(out.Input.IMAP.SubjectAny) == 0 {
		res.addWarn("input.imap.subject_any is empty; any unseen message with a CSV attachment is used.")
	}

	return out, res
}
