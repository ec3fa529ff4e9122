package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/hierarchy"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and display the Snyk hierarchy without updating anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func fetchRun(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, api, err := setup(ctx)
	if err != nil {
		return err
	}

	p := newPrompter()

	tree, _, err := fetchHierarchy(ctx, cfg, api, p)
	if err != nil {
		if errors.Is(err, hierarchy.ErrNoGroups) || errors.Is(err, hierarchy.ErrNoOrgs) {
			console.Warning("%v", err)
			return nil
		}
		return err
	}

	if err := displayTree(tree); err != nil {
		return err
	}

	exportPrompts(tree, p)
	return nil
}
