// config/overlay.go
package config

import (
	"os"
	"strings"
)

// OverlayEnv lets a few deployment-specific values come from the environment.
func OverlayEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.App.DataDir, "OUTREACH_DATA_DIR")
	set(&cfg.Input.CSVPath, "OUTREACH_CSV_PATH")
	set(&cfg.Sink.SpreadsheetID, "OUTREACH_SPREADSHEET_ID")
	set(&cfg.Sink.CredentialsFile, "OUTREACH_CREDENTIALS_FILE")
	set(&cfg.Logging.Level, "LOG_LEVEL")
}
