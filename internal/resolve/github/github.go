// Package github mines a GitHub user's profile and commit patches for an email address.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/logging"
	"outreach-engine/internal/util"
)

var ErrNoToken = errors.New("github token is not set")

var fromRe = regexp.MustCompile(`From:.*<(.+?)>`)

type Config struct {
	BaseURL string // API root, e.g. https://api.github.com/
	Token   string
	Timeout time.Duration
	// MaxCommitsPerRepo caps how many patches are fetched per repository. Zero means no cap.
	MaxCommitsPerRepo int
}

type Miner struct {
	cfg     Config
	client  *gh.Client
	limiter *util.LookupLimiter
	log     *zap.Logger
}

func New(cfg Config, limiter *util.LookupLimiter, log *zap.Logger) (*Miner, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	client := gh.NewClient(&http.Client{Timeout: cfg.Timeout})
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Miner{cfg: cfg, client: client, limiter: limiter, log: logging.OrNop(log)}, nil
}

func (m *Miner) Name() string { return "github" }

// Resolve looks up the lead's GitHub handle. Leads without one are skipped.
func (m *Miner) Resolve(ctx context.Context, lead domain.Lead) (string, error) {
	if strings.TrimSpace(lead.GitHub) == "" {
		return "", nil
	}
	return m.FindEmail(ctx, lead.GitHub)
}

// FindEmail returns the public profile email if there is one, otherwise the
// first author address found in the user's commit patches, oldest first.
func (m *Miner) FindEmail(ctx context.Context, username string) (string, error) {
	if m.cfg.Token == "" {
		return "", ErrNoToken
	}

	if err := m.wait(ctx); err != nil {
		return "", err
	}
	user, _, err := m.client.Users.Get(ctx, username)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", username, err)
	}
	if email := strings.TrimSpace(user.GetEmail()); email != "" {
		return email, nil
	}

	login := user.GetLogin()
	if login == "" {
		login = username
	}

	repos, err := m.listRepos(ctx, login)
	if err != nil {
		return "", err
	}

	for _, repo := range repos {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		owner := repo.GetOwner().GetLogin()
		if owner == "" {
			owner = login
		}
		email, err := m.mineRepo(ctx, owner, repo.GetName())
		if err != nil {
			m.log.Debug("skipping repo",
				zap.String("repo", owner+"/"+repo.GetName()),
				zap.Error(err))
			continue
		}
		if email != "" {
			return email, nil
		}
	}
	return "", nil
}

func (m *Miner) listRepos(ctx context.Context, login string) ([]*gh.Repository, error) {
	opts := &gh.RepositoryListByUserOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	var all []*gh.Repository
	for {
		if err := m.wait(ctx); err != nil {
			return nil, err
		}
		page, resp, err := m.client.Repositories.ListByUser(ctx, login, opts)
		if err != nil {
			return nil, fmt.Errorf("list repos %s: %w", login, err)
		}
		all = append(all, page...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// mineRepo walks commit pages from the last one backwards so the oldest
// commit is checked first.
func (m *Miner) mineRepo(ctx context.Context, owner, repo string) (string, error) {
	opts := &gh.CommitsListOptions{ListOptions: gh.ListOptions{PerPage: 100, Page: 1}}

	if err := m.wait(ctx); err != nil {
		return "", err
	}
	first, resp, err := m.client.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return "", fmt.Errorf("list commits: %w", err)
	}

	last := 1
	if resp != nil && resp.LastPage > 1 {
		last = resp.LastPage
	}

	fetched := 0
	for p := last; p >= 1; p-- {
		commits := first
		if p != 1 {
			opts.Page = p
			if err := m.wait(ctx); err != nil {
				return "", err
			}
			commits, _, err = m.client.Repositories.ListCommits(ctx, owner, repo, opts)
			if err != nil {
				return "", fmt.Errorf("list commits page %d: %w", p, err)
			}
		}

		for i := len(commits) - 1; i >= 0; i-- {
			if m.cfg.MaxCommitsPerRepo > 0 && fetched >= m.cfg.MaxCommitsPerRepo {
				return "", nil
			}
			sha := commits[i].GetSHA()
			if sha == "" {
				continue
			}
			if err := m.wait(ctx); err != nil {
				return "", err
			}
			patch, _, err := m.client.Repositories.GetCommitRaw(ctx, owner, repo, sha, gh.RawOptions{Type: gh.Patch})
			if err != nil {
				return "", fmt.Errorf("get patch %s: %w", sha, err)
			}
			fetched++
			if email := AuthorFromPatch(patch); email != "" {
				return email, nil
			}
		}
	}
	return "", nil
}

// AuthorFromPatch extracts the address from the first "From: Name <addr>" line.
func AuthorFromPatch(patch string) string {
	if match := fromRe.FindStringSubmatch(patch); len(match) == 2 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

func (m *Miner) wait(ctx context.Context) error {
	return m.limiter.Wait(ctx, m.Name())
}
