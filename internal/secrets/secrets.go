package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"outreach-engine/internal/config"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "outreach"

	HunterAPIKey = "hunter_api_key"
	GitHubToken  = "github_token"
)

// ErrNotFound means neither the keychain nor the environment had the secret.
var ErrNotFound = errors.New("secret not found")

// envFallback lists the variables checked when the keychain has nothing.
var envFallback = map[string]string{
	HunterAPIKey: "HUNTER_API_KEY",
	GitHubToken:  "GITHUB_TOKEN",
}

// Get reads name from the keychain first, then from its environment variable.
func Get(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secret name is empty")
	}

	if v, err := keyring.Get(KeyringService, name); err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if env, ok := envFallback[name]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s: %w (set it in keychain or via env)", name, ErrNotFound)
}

// Lookup is Get without the error, for optional credentials.
func Lookup(name string) string {
	v, _ := Get(name)
	return v
}

func Set(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("secret name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, name, value)
}

func Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("secret name is empty")
	}
	return keyring.Delete(KeyringService, name)
}

// IMAPAccount is the keychain entry holding the mailbox password.
func IMAPAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"imap:%s@%s",
		cfg.Input.IMAP.Username,
		cfg.Input.IMAP.Host,
	)
}
