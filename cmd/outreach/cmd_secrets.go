package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"outreach-engine/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Store or remove credentials in the OS keychain",
	Long: `Names:
  hunter_api_key  Hunter.io API key
  github_token    GitHub personal access token
  imap            password for input.imap.username@input.imap.host`,
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <name> [value]",
	Short: "Store a secret (reads the value from stdin when omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSecretsSet,
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretsDelete,
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)
}

// keychainAccount maps a user-facing secret name to its keychain account.
func keychainAccount(name string) (string, error) {
	switch name {
	case secrets.HunterAPIKey, secrets.GitHubToken:
		return name, nil
	case "imap":
		cfg, _, err := loadConfig()
		if err != nil {
			return "", err
		}
		if cfg.Input.IMAP.Username == "" || cfg.Input.IMAP.Host == "" {
			return "", errors.New("set input.imap.username and input.imap.host before storing the imap password")
		}
		return secrets.IMAPAccount(cfg), nil
	default:
		return "", fmt.Errorf("unknown secret %q (want %s, %s or imap)", name, secrets.HunterAPIKey, secrets.GitHubToken)
	}
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	account, err := keychainAccount(args[0])
	if err != nil {
		return err
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read secret from stdin: %w", err)
		}
		value = line
	}
	value = strings.TrimSpace(value)

	if err := secrets.Set(account, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
	return nil
}

func runSecretsDelete(cmd *cobra.Command, args []string) error {
	account, err := keychainAccount(args[0])
	if err != nil {
		return err
	}
	if err := secrets.Delete(account); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}
