package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Input.CSVPath) == "" && !cfg.Input.IMAP.Enabled {
		errs = append(errs, "input.csv_path is required unless input.imap.enabled=true")
	}
	if cfg.Input.IMAP.Enabled {
		if strings.TrimSpace(cfg.Input.IMAP.Host) == "" {
			errs = append(errs, "input.imap.host is required when input.imap.enabled=true")
		}
		if strings.TrimSpace(cfg.Input.IMAP.Username) == "" {
			errs = append(errs, "input.imap.username is required when input.imap.enabled=true")
		}
		if cfg.Input.IMAP.Port < 0 || cfg.Input.IMAP.Port > 65535 {
			errs = append(errs, "input.imap.port must be 0..65535")
		}
	}

	for i, k := range cfg.Filters.TitleKeywords {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Sprintf("filters.title_keywords[%d] cannot be empty", i))
		}
	}
	if len(cfg.Filters.TitleKeywords) == 0 && !cfg.Filters.VPCatchAll {
		errs = append(errs, "filters.title_keywords is empty and vp_catch_all is off; nothing can match")
	}

	if strings.TrimSpace(cfg.Sink.SpreadsheetID) == "" && strings.TrimSpace(cfg.Sink.SpreadsheetName) == "" {
		errs = append(errs, "sink.spreadsheet_id or sink.spreadsheet_name is required")
	}
	if strings.TrimSpace(cfg.Sink.CredentialsFile) == "" {
		errs = append(errs, "sink.credentials_file is required")
	}

	if cfg.Features.JSONExport && strings.TrimSpace(cfg.Export.Path) == "" {
		errs = append(errs, "export.path is required when features.json_export=true")
	}
	if cfg.Lookup.RequestsPerSecond <= 0 {
		errs = append(errs, "lookup.requests_per_second must be > 0")
	}
	if cfg.Lookup.TimeoutSeconds <= 0 {
		errs = append(errs, "lookup.timeout_seconds must be > 0")
	}
	if cfg.Lookup.GitHubMaxCommitsPerRepo < 0 {
		errs = append(errs, "lookup.github_max_commits_per_repo must be >= 0")
	}
	if cfg.Watch.IntervalMinutes < 0 {
		errs = append(errs, "watch.interval_minutes must be >= 0")
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, "logging.format must be console or json")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
