// Package hunter looks up company email addresses via the Hunter.io domain-search API.
package hunter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/resolve"
	"outreach-engine/internal/util"
)

const DefaultBaseURL = "https://api.hunter.io"

var ErrNoAPIKey = errors.New("hunter api key is not set")

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	cfg     Config
	hc      *http.Client
	limiter *util.LookupLimiter
	domains resolve.DomainSource
}

// New builds a client. domains may be nil, in which case the naive guess is used.
func New(cfg Config, limiter *util.LookupLimiter, domains resolve.DomainSource) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if domains == nil {
		domains = resolve.Guesser{}
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		domains: domains,
	}
}

func (c *Client) Name() string { return "hunter" }

type domainSearchResponse struct {
	Data struct {
		Domain string `json:"domain"`
		Emails []struct {
			Value      string `json:"value"`
			Type       string `json:"type"`
			Confidence int    `json:"confidence"`
		} `json:"emails"`
	} `json:"data"`
}

// Resolve searches the lead's company domain and returns the first address Hunter knows.
func (c *Client) Resolve(ctx context.Context, lead domain.Lead) (string, error) {
	if strings.TrimSpace(lead.Company) == "" {
		return "", nil
	}
	d := c.domains.Domain(ctx, lead.Company)
	if d == "" {
		return "", nil
	}
	return c.DomainSearch(ctx, d)
}

func (c *Client) DomainSearch(ctx context.Context, domainName string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("domain", domainName)
	q.Set("api_key", c.cfg.APIKey)
	apiURL := strings.TrimRight(c.cfg.BaseURL, "/") + "/v2/domain-search?" + q.Encode()

	if err := c.limiter.Wait(ctx, c.Name()); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "outreach-engine/1.0")

	res, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("hunter domain-search %s: %w", domainName, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return "", fmt.Errorf("hunter domain-search %s: status %d: %s", domainName, res.StatusCode, strings.TrimSpace(string(b)))
	}

	var body domainSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("hunter decode %s: %w", domainName, err)
	}
	if len(body.Data.Emails) == 0 {
		return "", nil
	}
	return strings.TrimSpace(body.Data.Emails[0].Value), nil
}
