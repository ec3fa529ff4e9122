package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/config"
	"github.com/1B05H1N/snyk-projects-tag-updater/internal/hierarchy"
	"github.com/1B05H1N/snyk-projects-tag-updater/internal/prompt"
	"github.com/1B05H1N/snyk-projects-tag-updater/internal/tagger"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch the hierarchy and interactively update project tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func updateRun(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, api, err := setup(ctx)
	if err != nil {
		return err
	}

	p := newPrompter()

	tree, index, err := fetchHierarchy(ctx, cfg, api, p)
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

	updateLogs := runUpdateLoop(ctx, cfg, api, p, tree, index)

	if len(updateLogs) > 0 {
		console.Print("\nChanges Made:\n")
		for _, line := range updateLogs {
			console.Print("%s\n", line)
		}
	} else {
		console.Print("\nNo changes were made.\n")
	}

	return nil
}

// runUpdateLoop drives the interactive tag update section: project listing,
// selection, and the per-project update state machine with a fixed delay
// between consecutive updates.
func runUpdateLoop(ctx context.Context, cfg *config.Config, api *snyk.API, p prompt.Prompter, tree *hierarchy.Tree, index *hierarchy.Index) []string {
	console.Print("\nInteractive Tag Update\n")
	console.Print("-----------------------\n\n")

	for i, projectID := range index.IDs() {
		entry, _ := index.Get(projectID)
		console.Print("%d: %s : %s\n", i+1, projectID, projectName(entry.Project))
	}

	if !p.Confirm("\nUpdate tags for filtered projects? (y/n): ", false) {
		console.Print("\nNo projects were updated.\n")
		return nil
	}

	projectIDs := selectProjects(p, tree, index)
	if len(projectIDs) == 0 {
		console.Print("\nNo valid project IDs selected. Exiting update section.\n")
		return nil
	}

	updater := tagger.NewUpdater(api, p, console, cfg.DefaultTagKey, cfg.DefaultTagValue)

	var updateLogs []string
	for _, projectID := range projectIDs {
		entry, ok := index.Get(projectID)
		if !ok {
			continue
		}

		logLine, err := updater.UpdateProject(ctx, entry.OrgID, entry.Project)
		if err == nil && logLine != "" {
			updateLogs = append(updateLogs, logLine)
		}

		// Conservative client-side throttle between update cycles,
		// independent of 429 backoff.
		select {
		case <-ctx.Done():
			return updateLogs
		case <-time.After(cfg.UpdateDelay):
		}
	}

	return updateLogs
}

// selectProjects resolves the operator's selection to project ids: all
// filtered projects, or a numbered subset within one organization.
func selectProjects(p prompt.Prompter, tree *hierarchy.Tree, index *hierarchy.Index) []string {
	if p.Confirm("Update ALL filtered projects? (y/n): ", false) {
		return index.IDs()
	}

	var orgsWithProjects []hierarchy.Org
	for _, org := range tree.Group.Orgs {
		if len(org.Projects) > 0 {
			orgsWithProjects = append(orgsWithProjects, org)
		}
	}
	if len(orgsWithProjects) == 0 {
		console.Print("No organizations with filtered projects available\n")
		return nil
	}

	console.Print("\nSelect an organization by number:\n")
	for i, org := range orgsWithProjects {
		console.Print("%d: %s (ID: %s)\n", i+1, org.Name, org.ID)
	}

	orgNumber, err := strconv.Atoi(strings.TrimSpace(p.Ask("Enter organization number: ", "")))
	if err != nil || orgNumber < 1 || orgNumber > len(orgsWithProjects) {
		console.Print("Invalid organization number\n")
		return nil
	}
	selectedOrg := orgsWithProjects[orgNumber-1]

	orgProjectIDs := index.IDsForOrg(selectedOrg.ID)
	if len(orgProjectIDs) == 0 {
		console.Print("No projects in selected organization\n")
		return nil
	}

	console.Print("\nSelect projects to update by number (comma separated) or type 'all':\n")
	for i, projectID := range orgProjectIDs {
		entry, _ := index.Get(projectID)
		console.Print("%d: %s : %s\n", i+1, projectID, projectName(entry.Project))
	}

	selection := strings.ToLower(strings.TrimSpace(p.Ask("Enter your selection: ", "")))
	if selection == "all" {
		return orgProjectIDs
	}

	var projectIDs []string
	for _, number := range parseSelection(selection) {
		if number < 1 || number > len(orgProjectIDs) {
			console.Print("Project number %d is out of range\n", number)
			continue
		}
		projectIDs = append(projectIDs, orgProjectIDs[number-1])
	}
	return projectIDs
}

// parseSelection extracts the numeric entries of a comma-separated
// selection, ignoring anything non-numeric.
func parseSelection(input string) []int {
	var numbers []int
	for _, field := range strings.Split(input, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		number, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		numbers = append(numbers, number)
	}
	return numbers
}

func projectName(project snyk.Resource) string {
	if project.Attributes.Name == "" {
		return "Unknown"
	}
	return project.Attributes.Name
}
