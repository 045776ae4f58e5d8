// internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTitleKeywords are the target engineering-leadership roles.
var DefaultTitleKeywords = []string{
	"vp of engineering",
	"vp engineering",
	"vice president of engineering",
	"engineering manager",
	"cto",
	"director of engineering",
}

type IMAP struct {
	Enabled    bool     `yaml:"enabled"`
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	Username   string   `yaml:"username"`
	Mailbox    string   `yaml:"mailbox"`
	SubjectAny []string `yaml:"subject_any"`
	MarkSeen   bool     `yaml:"mark_seen"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console | json
	} `yaml:"logging"`

	Input struct {
		CSVPath string `yaml:"csv_path"`
		IMAP    IMAP   `yaml:"imap"`
	} `yaml:"input"`

	Filters struct {
		TitleKeywords []string `yaml:"title_keywords"`
		VPCatchAll    bool     `yaml:"vp_catch_all"`
	} `yaml:"filters"`

	Message struct {
		Template string `yaml:"template"`
	} `yaml:"message"`

	Features struct {
		HunterLookup bool `yaml:"hunter_lookup"`
		GitHubMining bool `yaml:"github_mining"`
		JSONExport   bool `yaml:"json_export"`
		Ledger       bool `yaml:"ledger"`
		DomainSearch bool `yaml:"domain_search"`
	} `yaml:"features"`

	Lookup struct {
		HunterBaseURL     string  `yaml:"hunter_base_url"`
		GitHubBaseURL     string  `yaml:"github_base_url"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		// 0 walks every commit, which can be slow on large repositories.
		GitHubMaxCommitsPerRepo int `yaml:"github_max_commits_per_repo"`
	} `yaml:"lookup"`

	Sink struct {
		CredentialsFile  string `yaml:"credentials_file"`
		SpreadsheetID    string `yaml:"spreadsheet_id"`
		SpreadsheetName  string `yaml:"spreadsheet_name"`
		Worksheet        string `yaml:"worksheet"`
		EmailPlaceholder string `yaml:"email_placeholder"`
	} `yaml:"sink"`

	Export struct {
		Path string `yaml:"path"`
	} `yaml:"export"`

	Watch struct {
		IntervalMinutes int `yaml:"interval_minutes"`
	} `yaml:"watch"`
}

// Default is a working setup for a local CSV export and the "VP Eng Leads" sheet.
func Default() Config {
	var cfg Config
	cfg.App.DataDir = "."
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	cfg.Input.CSVPath = "phantombuster_output.csv"
	cfg.Input.IMAP.Port = 993
	cfg.Input.IMAP.Mailbox = "INBOX"
	cfg.Input.IMAP.MarkSeen = true

	cfg.Filters.TitleKeywords = append([]string(nil), DefaultTitleKeywords...)
	cfg.Filters.VPCatchAll = true

	cfg.Features.HunterLookup = true
	cfg.Features.GitHubMining = true
	cfg.Features.Ledger = true

	cfg.Lookup.HunterBaseURL = "https://api.hunter.io"
	cfg.Lookup.GitHubBaseURL = "https://api.github.com/"
	cfg.Lookup.RequestsPerSecond = 2
	cfg.Lookup.Burst = 2
	cfg.Lookup.TimeoutSeconds = 20

	cfg.Sink.CredentialsFile = "credentials.json"
	cfg.Sink.SpreadsheetName = "VP Eng Leads"
	cfg.Sink.EmailPlaceholder = "Not found"

	cfg.Export.Path = "processed_results.json"
	cfg.Watch.IntervalMinutes = 30
	return cfg
}

// Load reads path on top of Default(), so keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	OverlayEnv(&cfg)
	return cfg, nil
}
