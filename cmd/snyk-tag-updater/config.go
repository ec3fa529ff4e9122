package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage snyk-tag-updater configuration.

Running bare 'snyk-tag-updater config' is the same as 'config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

const configTemplate = `# snyk-tag-updater configuration
# The API token is NOT stored here; set SNYK_API_TOKEN in the environment.

base_url: https://api.snyk.io/rest
api_version: "2024-10-15"
page_limit: 100

# Rate limiting
max_retries: 3
retry_after_default: 60s
update_delay: 1s

# Default project filters; empty disables a filter.
target_runtime: net6.0
origins: azure-repos

# Tag prompt defaults
default_tag_key: Testing
default_tag_value: DefaultTest

# Optional Redis response cache for list endpoints, e.g. localhost:6379
redis_addr: ""
cache_ttl: 5m

# Optional Prometheus listener, e.g. localhost:9090
metrics_addr: ""
`

func configInitRun() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return err
	}

	console.Success("Config file written to %s", path)
	return nil
}

func configShowRun() error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrMissingToken) {
		// The effective config still renders without a token.
		console.Warning("%v", err)
	} else if err != nil {
		return err
	}

	shown := *cfg
	if shown.Token != "" {
		shown.Token = "****"
	}

	out, err := yaml.Marshal(shown)
	if err != nil {
		return err
	}

	console.Print("%s", string(out))
	return nil
}
