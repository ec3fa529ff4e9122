package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/config"
	"github.com/1B05H1N/snyk-projects-tag-updater/internal/hierarchy"
	"github.com/1B05H1N/snyk-projects-tag-updater/internal/prompt"
	"github.com/1B05H1N/snyk-projects-tag-updater/internal/report"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/cache"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/client"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

// setup loads the configuration and wires the API client. The missing-token
// case is the only globally fatal error in the tool.
func setup(ctx context.Context) (*config.Config, *snyk.API, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	httpClient, err := client.New(client.Config{
		Token:             cfg.Token,
		BaseURL:           cfg.BaseURL,
		UserAgent:         "snyk-tag-updater/" + version,
		MaxRetries:        cfg.MaxRetries,
		RetryAfterDefault: cfg.RetryAfterDefault,
		CacheTTL:          cfg.CacheTTL,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			console.Warning("Redis %s unavailable, running without response cache: %v", cfg.RedisAddr, err)
		} else {
			httpClient.SetCache(cache.NewManager(redisClient))
			log.Info().Str("addr", cfg.RedisAddr).Msg("Response cache enabled")
		}
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	api := snyk.NewAPI(httpClient, snyk.Config{
		Version:   cfg.APIVersion,
		PageLimit: cfg.PageLimit,
	})

	return cfg, api, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn().Err(err).Msg("Metrics listener stopped")
	}
}

// newPrompter picks the decision provider for this run.
func newPrompter() prompt.Prompter {
	if flagYes {
		return prompt.NewAuto()
	}
	return prompt.NewConsole()
}

// fetchHierarchy asks about the default project filters, then fetches the
// tree and project index.
func fetchHierarchy(ctx context.Context, cfg *config.Config, api *snyk.API, p prompt.Prompter) (*hierarchy.Tree, *hierarchy.Index, error) {
	var filter *snyk.ProjectFilter
	if p.Confirm("\nApply default project filters? (y/n, default y): ", true) {
		filter = &snyk.ProjectFilter{
			TargetRuntime: cfg.TargetRuntime,
			Origins:       cfg.Origins,
		}
	}

	return hierarchy.NewFetcher(api).Fetch(ctx, filter)
}

// displayTree prints the JSON dump, the nested listing, and the summary,
// separated the way the interactive flow always has.
func displayTree(tree *hierarchy.Tree) error {
	dump, err := report.BuildJSON(tree)
	if err != nil {
		return fmt.Errorf("render hierarchy: %w", err)
	}

	console.Print("\nFinal JSON structure:\n\n%s\n", string(dump))
	console.Divider()

	console.Print("Well formatted output:\n\n%s\n", report.BuildText(tree))
	console.Divider()

	console.Print("Summary:\n\n%s\n", report.BuildSummary(tree))
	console.Divider()

	table := console.Table([]string{"Organization", "Projects", "Targets"})
	for _, org := range tree.Group.Orgs {
		table.Append([]string{org.Name, fmt.Sprintf("%d", len(org.Projects)), fmt.Sprintf("%d", len(org.Targets))})
	}
	if err := table.Render(); err != nil {
		return err
	}
	console.Print("\n")

	return nil
}

// exportPrompts offers the optional file outputs: listing, JSON dump, and
// summary. Write failures are reported and the flow continues.
func exportPrompts(tree *hierarchy.Tree, p prompt.Prompter) {
	if p.Confirm("Write output to file? (y/n): ", false) {
		format := p.Ask("Which format? (txt/json/both): ", "txt")
		if format == "txt" || format == "both" {
			name := p.Ask("Enter TXT filename (default: output.txt): ", "output.txt")
			if err := os.WriteFile(name, []byte(report.BuildText(tree)+"\n"), 0o644); err != nil {
				console.Error("Error writing TXT file: %v", err)
			} else {
				console.Success("TXT output written to %s", name)
			}
		}
		if format == "json" || format == "both" {
			name := p.Ask("Enter JSON filename (default: output.json): ", "output.json")
			dump, err := report.BuildJSON(tree)
			if err == nil {
				err = os.WriteFile(name, dump, 0o644)
			}
			if err != nil {
				console.Error("Error writing JSON file: %v", err)
			} else {
				console.Success("JSON output written to %s", name)
			}
		}
	}

	if p.Confirm("Write summary to file? (y/n): ", false) {
		name := p.Ask("Enter summary filename (default: summary.txt): ", "summary.txt")
		if err := os.WriteFile(name, []byte(report.BuildSummary(tree)+"\n"), 0o644); err != nil {
			console.Error("Error writing summary file: %v", err)
		} else {
			console.Success("Summary written to %s", name)
		}
	}
}
