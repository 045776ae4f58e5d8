package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"outreach-engine/internal/config"
	"outreach-engine/internal/filter"
	"outreach-engine/internal/logging"
	"outreach-engine/internal/message"
	"outreach-engine/internal/resolve"
	ghminer "outreach-engine/internal/resolve/github"
	"outreach-engine/internal/resolve/hunter"
	"outreach-engine/internal/secrets"
	"outreach-engine/internal/sink"
	"outreach-engine/internal/source"
	"outreach-engine/internal/store"
	"outreach-engine/internal/util"
)

// Deps are the process-level collaborators New cannot build from config alone.
type Deps struct {
	DB     *store.DB                // nil disables the ledger and the domain cache
	Secret func(name string) string // defaults to secrets.Lookup
	Sink   sink.Sink                // nil builds the Google Sheets sink
	Log    *zap.Logger
}

// New assembles a Runner from cfg, enabling optional steps by feature flag.
func New(cfg config.Config, deps Deps) (*Runner, error) {
	log := logging.OrNop(deps.Log)
	secret := deps.Secret
	if secret == nil {
		secret = secrets.Lookup
	}

	tmpl, err := message.New(cfg.Message.Template)
	if err != nil {
		return nil, err
	}

	out := deps.Sink
	if out == nil {
		out = sink.NewSheets(sink.SheetsConfig{
			CredentialsFile: dataPath(cfg.App.DataDir, cfg.Sink.CredentialsFile),
			SpreadsheetID:   cfg.Sink.SpreadsheetID,
			SpreadsheetName: cfg.Sink.SpreadsheetName,
			Worksheet:       cfg.Sink.Worksheet,
		}, log.Named("sheets"))
	}

	chain, err := buildResolvers(cfg, deps.DB, secret, log)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		Classifier:       filter.FromConfig(cfg),
		Templater:        tmpl,
		Sink:             out,
		EmailPlaceholder: cfg.Sink.EmailPlaceholder,
		Log:              log,
	}
	if chain != nil {
		d.Resolver = chain
	}
	if cfg.Features.Ledger {
		if deps.DB == nil {
			log.Warn("ledger enabled but no database; duplicates will not be detected")
		} else {
			d.Ledger = store.NewLedger(deps.DB.Pool)
		}
	}

	r := &Runner{
		Sources: buildSources(cfg, secret, log),
		Driver:  d,
		Log:     log,
	}
	if cfg.Features.JSONExport {
		r.ExportPath = dataPath(cfg.App.DataDir, cfg.Export.Path)
	}
	return r, nil
}

func buildSources(cfg config.Config, secret func(string) string, log *zap.Logger) []source.Source {
	var out []source.Source
	if cfg.Input.CSVPath != "" {
		out = append(out, source.CSVFile{Path: dataPath(cfg.App.DataDir, cfg.Input.CSVPath)})
	}
	if cfg.Input.IMAP.Enabled {
		out = append(out, &source.Mailbox{
			Cfg:      cfg.Input.IMAP,
			Password: secret(secrets.IMAPAccount(cfg)),
			Log:      log.Named("imap"),
		})
	}
	return out
}

// buildResolvers returns nil when no lookup is enabled or usable.
func buildResolvers(cfg config.Config, db *store.DB, secret func(string) string, log *zap.Logger) (*resolve.Chain, error) {
	limiter := util.NewLookupLimiter(cfg.Lookup.RequestsPerSecond, cfg.Lookup.Burst)
	timeout := time.Duration(cfg.Lookup.TimeoutSeconds) * time.Second

	var rs []resolve.Resolver

	if cfg.Features.HunterLookup {
		key := secret(secrets.HunterAPIKey)
		if key == "" {
			log.Warn("hunter lookup enabled but no api key; skipping", zap.String("secret", secrets.HunterAPIKey))
		} else {
			var domains resolve.DomainSource = resolve.Guesser{}
			if cfg.Features.DomainSearch {
				f := resolve.NewDomainFinder(nil, limiter, log.Named("domains"))
				if db != nil {
					f.DB = db.Pool
				}
				domains = f
			}
			rs = append(rs, hunter.New(hunter.Config{
				BaseURL: cfg.Lookup.HunterBaseURL,
				APIKey:  key,
				Timeout: timeout,
			}, limiter, domains))
		}
	}

	if cfg.Features.GitHubMining {
		token := secret(secrets.GitHubToken)
		if token == "" {
			log.Warn("github mining enabled but no token; skipping", zap.String("secret", secrets.GitHubToken))
		} else {
			m, err := ghminer.New(ghminer.Config{
				BaseURL:           cfg.Lookup.GitHubBaseURL,
				Token:             token,
				Timeout:           timeout,
				MaxCommitsPerRepo: cfg.Lookup.GitHubMaxCommitsPerRepo,
			}, limiter, log.Named("github"))
			if err != nil {
				return nil, fmt.Errorf("github miner: %w", err)
			}
			rs = append(rs, m)
		}
	}

	if len(rs) == 0 {
		return nil, nil
	}
	return resolve.NewChain(log.Named("resolve"), rs...), nil
}

func dataPath(dataDir, p string) string {
	if p == "" || filepath.IsAbs(p) || dataDir == "" {
		return p
	}
	return filepath.Join(dataDir, p)
}
