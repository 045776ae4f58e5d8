package util

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalizeURL lowercases scheme/host, drops fragments and tracking params.
// LinkedIn URLs lose their whole query and trailing slash so the same profile
// exported twice maps to one key.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if strings.Contains(u.Host, "linkedin.com") {
		u.Host = "www.linkedin.com"
		u.Scheme = "https"
		u.RawQuery = ""
		u.Path = strings.TrimRight(u.Path, "/")
		return u.String()
	}

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "trk" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func HostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
