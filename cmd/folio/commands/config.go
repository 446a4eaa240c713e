package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/lawrencechen/folio/pkg/folio/assistant"
)

// newConfigCmd creates the `folio config` command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage backend configuration",
		Long: `Manage the folio configuration file.

Examples:
  folio config init
  folio config show
  folio config hash-password`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigHashPasswordCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		RunE: func(_ *cobra.Command, _ []string) error {
			const path = "config.yaml"
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			data, err := yaml.Marshal(assistant.DefaultConfig())
			if err != nil {
				return fmt.Errorf("marshaling default config: %w", err)
			}
			header := "# folio configuration.\n" +
				"# Secrets come from the environment: FOLIO_API_KEY, FOLIO_MAIL_API_KEY,\n" +
				"# FOLIO_ADMIN_PASSWORD_HASH (or a .env file next to this one).\n"
			if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Printf("Configuration written to ./%s\n", path)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			// Never echo resolved secrets.
			if cfg.API.APIKey != "" {
				cfg.API.APIKey = "***"
			}
			if cfg.Mail.APIKey != "" {
				cfg.Mail.APIKey = "***"
			}
			if cfg.Server.AdminPasswordHash != "" {
				cfg.Server.AdminPasswordHash = "***"
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

// newConfigHashPasswordCmd generates the bcrypt hash for the admin inbox.
func newConfigHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Generate the bcrypt hash for the admin password",
		Long: `Reads a password from stdin and prints its bcrypt hash. Put the hash
in server.admin_password_hash or the FOLIO_ADMIN_PASSWORD_HASH env var.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprint(os.Stderr, "Password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}
