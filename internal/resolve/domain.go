package resolve

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"outreach-engine/internal/logging"
	"outreach-engine/internal/store"
	"outreach-engine/internal/util"
)

// DomainSource maps a company name to the web domain its staff mail from.
type DomainSource interface {
	Domain(ctx context.Context, company string) string
}

// GuessDomain is the naive guess: "Acme Labs" -> "acmelabs.com".
func GuessDomain(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(company, " ", "")) + ".com"
}

// Guesser is a DomainSource that only guesses.
type Guesser struct{}

func (Guesser) Domain(_ context.Context, company string) string { return GuessDomain(company) }

var domainBlocklist = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"crunchbase.com",
	"wikipedia.org",
	"bloomberg.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"github.com",
	"youtube.com",
	"builtin.com",
	"levels.fyi",
	"greenhouse.io",
	"lever.co",
}

const (
	ddgSearchURL  = "https://duckduckgo.com/html/"
	searchService = "ddg"
)

// guessRetryAfter is how long a cached guess is trusted before the company
// is searched again.
const guessRetryAfter = 7 * 24 * time.Hour

// DomainFinder searches DuckDuckGo for the company's site and caches the
// result in the store. Misses fall back to GuessDomain; guesses are cached
// too but searched again once older than guessRetryAfter.
type DomainFinder struct {
	DB        *sql.DB // optional cache
	SearchURL string
	HC        *http.Client
	Limiter   *util.LookupLimiter
	Log       *zap.Logger

	run map[string]string // per-process cache
}

func NewDomainFinder(db *sql.DB, limiter *util.LookupLimiter, log *zap.Logger) *DomainFinder {
	return &DomainFinder{
		DB:        db,
		SearchURL: ddgSearchURL,
		HC:        &http.Client{Timeout: 12 * time.Second},
		Limiter:   limiter,
		Log:       logging.OrNop(log),
		run:       map[string]string{},
	}
}

func (f *DomainFinder) Domain(ctx context.Context, company string) string {
	key := util.NormalizeKey(company)
	if key == "" {
		return ""
	}
	if f.run == nil {
		f.run = map[string]string{}
	}
	if d, ok := f.run[key]; ok {
		return d
	}
	d := f.lookup(ctx, company)
	f.run[key] = d
	return d
}

func (f *DomainFinder) lookup(ctx context.Context, company string) string {
	if f.DB != nil {
		cd, ok, err := store.GetCompanyDomain(ctx, f.DB, company)
		switch {
		case err != nil:
			f.Log.Warn("domain cache read failed", zap.String("company", company), zap.Error(err))
		case ok && !cd.Stale(time.Now(), guessRetryAfter):
			return cd.Domain
		}
	}

	found, err := f.search(ctx, company)
	if err != nil {
		// transient failures are not cached
		f.Log.Debug("domain search failed", zap.String("company", company), zap.Error(err))
		return GuessDomain(company)
	}

	rec := store.CompanyDomain{Company: company, Domain: found, Source: store.DomainFromSearch}
	if found == "" {
		rec.Domain, rec.Source = GuessDomain(company), store.DomainGuessed
	}
	if f.DB != nil {
		if err := store.UpsertCompanyDomain(ctx, f.DB, rec); err != nil {
			f.Log.Warn("domain cache write failed", zap.String("company", company), zap.Error(err))
		}
	}
	return rec.Domain
}

func (f *DomainFinder) search(ctx context.Context, company string) (string, error) {
	q := sanitizeCompanyForSearch(company)
	if q == "" {
		return "", nil
	}
	u := f.SearchURL + "?q=" + url.QueryEscape(q+" official website")

	if err := f.Limiter.Wait(ctx, searchService); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	hc := f.HC
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("domain search status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse search html: %w", err)
	}

	var best string

	// DDG HTML results: <a class="result__a" href="...">
	doc.Find("a.result__a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}

		host := util.HostFromURL(decodeDDGRedirect(href))
		if host == "" {
			return true
		}

		host = strings.ToLower(strings.TrimPrefix(host, "www."))
		if isBlockedDomain(host) {
			return true
		}

		best = host
		return false // stop at first good domain
	})

	return best, nil
}

func decodeDDGRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	// DDG sometimes uses /l/?uddg=<urlencoded>
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	return href
}

func isBlockedDomain(host string) bool {
	for _, b := range domainBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

func sanitizeCompanyForSearch(s string) string {
	s = strings.TrimSpace(s)
	// remove common suffixes that confuse search
	r := strings.NewReplacer(
		", Inc.", "", " Inc.", "", " Inc", "",
		", LLC", "", " LLC", "",
		", Ltd.", "", " Ltd.", "", " Ltd", "",
	)
	s = r.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
