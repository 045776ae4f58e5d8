package config

import (
	"errors"
	"os"
	"path/filepath"
)

// EnsureUserConfig returns <dataDir>/config.yml, writing the defaults there first if it is missing.
func EnsureUserConfig(dataDir string) (path string, created bool, err error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err = os.Stat(userPath)
	if err == nil {
		return userPath, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", false, err
	}

	if err := SaveAtomic(userPath, Default()); err != nil {
		return "", false, err
	}
	return userPath, true, nil
}
