// Package commands implements the rftp command line.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information, set by main from ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "rftp",
	Short: "rftp - FTP control channel server",
	Long: `rftp serves the FTP control channel: greeting, USER/PASS login and the
session command loop, confined to a single root directory.

Use "rftp [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: ./rftp.yaml or /etc/rftp/rftp.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(usersCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
