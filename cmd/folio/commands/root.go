// Package commands implements the folio CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Folio - portfolio assistant backend",
		Long: `Folio is the backend for a personal-portfolio site: an LLM-backed
conversational assistant with /message and /meeting flows, file ingestion,
and a token-budgeted prompt.

Examples:
  folio serve
  folio chat
  folio config init`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newConfigCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logs")

	return rootCmd
}
