package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"outreach-engine/internal/domain"
)

// WriteJSON writes leads as an indented JSON array, replacing path atomically.
func WriteJSON(path string, leads []domain.Lead) error {
	if leads == nil {
		leads = []domain.Lead{}
	}
	b, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
