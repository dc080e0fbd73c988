// Package cli implements roomctl, the operator command line for the room
// redesign service.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "roomctl",
	Short: "roomctl: operate the artistry room redesign service",
	Long: `roomctl runs the upgrade reasoner and material catalog locally, submits
redesign jobs to a running API and manages stored provider credentials.

The API address defaults to $ARTISTRY_API_URL or http://localhost:8080.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("format", "text", "output format: text or json")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reasonCmd)
	rootCmd.AddCommand(materialsCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(credentialsCmd)
}
