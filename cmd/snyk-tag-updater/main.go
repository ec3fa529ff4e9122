// Command snyk-tag-updater enumerates a Snyk account hierarchy and
// interactively merges tags into selected projects.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/ui"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/logging"
)

// Set by goreleaser ldflags.
var version = "dev"

var (
	console *ui.UI

	flagYes      bool
	flagVerbose  bool
	flagLogLevel string
	flagLogJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "snyk-tag-updater",
	Short: "Browse the Snyk hierarchy and update project tags",
	Long: `snyk-tag-updater walks a Snyk group's organizations, targets, and
projects over the REST API, renders and exports the hierarchy, and
interactively merges a key/value tag into selected projects.

The Snyk API token is read from SNYK_API_TOKEN.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(flagLogLevel),
			Pretty: !flagLogJSON,
		})
		console = ui.New()
		console.Verbose = flagVerbose
	},
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Answer prompts with their defaults and confirm actions")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit logs as JSON instead of console output")

	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the optional response cache, e.g. localhost:6379")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Listen address for the optional Prometheus endpoint")
	_ = viper.BindPFlag("redis_addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
	_ = viper.BindPFlag("metrics_addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
}
