package hierarchy

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

// Errors reported when the account holds nothing to work on.
var (
	ErrNoGroups = errors.New("no groups found")
	ErrNoOrgs   = errors.New("no organizations found in the group")
)

// Fetcher builds the hierarchy tree from the Snyk API.
type Fetcher struct {
	api    *snyk.API
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(api *snyk.API) *Fetcher {
	return &Fetcher{
		api:    api,
		logger: log.With().Str("component", "hierarchy").Logger(),
	}
}

// Fetch retrieves the hierarchy of the first group the token can see
// (single-tenant assumption) and indexes every fetched project for the
// update loop. A nil filter lists projects unfiltered.
func (f *Fetcher) Fetch(ctx context.Context, filter *snyk.ProjectFilter) (*Tree, *Index, error) {
	groups := f.api.Groups(ctx)
	if len(groups) == 0 {
		return nil, nil, ErrNoGroups
	}

	group := groups[0]
	tree := &Tree{
		Group: Group{
			ID:   group.ID,
			Name: attributeOr(group.Attributes.Name, "Unknown"),
		},
	}

	f.logger.Info().
		Str("group_id", group.ID).
		Str("group_name", tree.Group.Name).
		Int("groups_visible", len(groups)).
		Msg("Using first group")

	orgs := f.api.OrgsForGroup(ctx, group.ID)
	if len(orgs) == 0 {
		return nil, nil, ErrNoOrgs
	}

	index := NewIndex()
	for _, org := range orgs {
		tree.Group.Orgs = append(tree.Group.Orgs, f.fetchOrg(ctx, org, filter, index))
	}

	return tree, index, nil
}

// fetchOrg retrieves one organization's targets and projects and resolves
// project target relationships against the target index.
func (f *Fetcher) fetchOrg(ctx context.Context, org snyk.Resource, filter *snyk.ProjectFilter, index *Index) Org {
	entry := Org{
		ID:       org.ID,
		Name:     attributeOr(org.Attributes.Name, "Unknown"),
		Projects: []Project{},
		Targets:  []Target{},
	}

	targets := f.api.TargetsForOrg(ctx, org.ID)
	targetsByID := make(map[string]Target, len(targets))
	for _, t := range targets {
		record := Target{
			ID:          t.ID,
			DisplayName: attributeOr(t.Attributes.DisplayName, "N/A"),
			URL:         attributeOr(t.Attributes.URL, "N/A"),
		}
		if _, seen := targetsByID[t.ID]; !seen {
			entry.Targets = append(entry.Targets, record)
		}
		targetsByID[t.ID] = record
	}

	projects := f.api.Projects(ctx, org.ID, filter)
	for _, project := range projects {
		node := Project{
			ID:      project.ID,
			Name:    attributeOr(project.Attributes.Name, "Unknown"),
			Status:  attributeOr(project.Attributes.Status, "Unknown"),
			Targets: []Target{},
		}

		for _, ref := range projectTargetRefs(project) {
			if resolved, ok := targetsByID[ref.ID]; ok {
				node.Targets = append(node.Targets, resolved)
				continue
			}
			// Unresolved target ids get a placeholder instead of
			// failing the whole fetch.
			node.Targets = append(node.Targets, Target{
				ID:          ref.ID,
				DisplayName: "Not found",
				URL:         "",
			})
		}

		entry.Projects = append(entry.Projects, node)
		index.Add(org.ID, project)
	}

	f.logger.Debug().
		Str("org_id", org.ID).
		Int("targets", len(entry.Targets)).
		Int("projects", len(entry.Projects)).
		Msg("Fetched organization")

	return entry
}

// projectTargetRefs extracts the target references of a project. The API
// serves either a plural targets relationship or a singular target one
// (whose data may still be an array); the plural form wins when both exist.
func projectTargetRefs(project snyk.Resource) []snyk.Identifier {
	if rel, ok := project.Relationships["targets"]; ok {
		return rel.Identifiers()
	}
	if rel, ok := project.Relationships["target"]; ok {
		return rel.Identifiers()
	}
	return nil
}

func attributeOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
