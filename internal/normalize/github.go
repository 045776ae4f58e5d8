package normalize

import (
	"net/url"
	"strings"
)

// GitHubHandle accepts "octocat", "@octocat" or "https://github.com/octocat/..." and returns "octocat".
func GitHubHandle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	low := strings.ToLower(s)
	if strings.Contains(low, "github.com") {
		if !strings.Contains(low, "://") {
			s = "https://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			return ""
		}
		return parts[0]
	}

	s = strings.TrimPrefix(s, "@")
	if strings.ContainsAny(s, " /") {
		return ""
	}
	return s
}
