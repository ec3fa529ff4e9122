// Package report renders the fetched hierarchy as human-readable listings,
// count summaries, and JSON. All builders are pure: deterministic for the
// same tree, no network or mutation side effects.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/hierarchy"
)

// BuildText returns a nested human-readable listing of the hierarchy.
func BuildText(tree *hierarchy.Tree) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("Group: %s (ID: %s)\n", orDefault(tree.Group.Name, "Unknown"), orDefault(tree.Group.ID, "N/A")))
	for _, org := range tree.Group.Orgs {
		lines = append(lines, fmt.Sprintf("  Organization: %s (ID: %s)", orDefault(org.Name, "Unknown"), orDefault(org.ID, "N/A")))
		lines = append(lines, fmt.Sprintf("    Targets in Org: %d\n", len(org.Targets)))
		for _, proj := range org.Projects {
			lines = append(lines, fmt.Sprintf("    Project: %s (ID: %s, Status: %s) - Targets: %d",
				orDefault(proj.Name, "Unknown"), orDefault(proj.ID, "N/A"), orDefault(proj.Status, "N/A"), len(proj.Targets)))
			if len(proj.Targets) > 0 {
				for _, tgt := range proj.Targets {
					lines = append(lines, fmt.Sprintf("      Target: %s (ID: %s, URL: %s)",
						orDefault(tgt.DisplayName, "Unknown"), orDefault(tgt.ID, "N/A"), orDefault(tgt.URL, "N/A")))
				}
			} else {
				lines = append(lines, "      Target: None")
			}
			lines = append(lines, "")
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// BuildSummary returns a count-oriented summary of the hierarchy.
func BuildSummary(tree *hierarchy.Tree) string {
	var lines []string

	lines = append(lines, "Summary:")
	lines = append(lines, fmt.Sprintf("Total Organizations: %d", len(tree.Group.Orgs)))
	for _, org := range tree.Group.Orgs {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Organization: %s (ID: %s)", orDefault(org.Name, "Unknown"), orDefault(org.ID, "N/A")))
		lines = append(lines, fmt.Sprintf("  Total Projects: %d", len(org.Projects)))
		lines = append(lines, fmt.Sprintf("  Total Targets in Org: %d", len(org.Targets)))
		for _, proj := range org.Projects {
			lines = append(lines, fmt.Sprintf("  Project: %s (ID: %s) - Targets: %d",
				orDefault(proj.Name, "Unknown"), orDefault(proj.ID, "N/A"), len(proj.Targets)))
		}
	}

	return strings.Join(lines, "\n")
}

// BuildJSON returns the indented JSON dump of the hierarchy.
func BuildJSON(tree *hierarchy.Tree) ([]byte, error) {
	return json.MarshalIndent(tree, "", "  ")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
