// Package hierarchy fetches the Snyk organizational hierarchy (group, orgs,
// targets, projects) into an in-memory tree for display and export. The tree
// is a transient projection of the API, never authoritative state.
package hierarchy

import (
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

// Tree is the root of the fetched hierarchy.
type Tree struct {
	Group Group `json:"group"`
}

// Group is the top-level tenant scope.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Orgs []Org  `json:"orgs"`
}

// Org is a sub-scope holding targets and filtered projects.
type Org struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Projects []Project `json:"projects"`
	Targets  []Target  `json:"targets"`
}

// Target is an import source a project is scanned from.
type Target struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// Project is a scanned artifact with its resolved targets.
type Project struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Targets []Target `json:"targets"`
}

// Entry pairs a fetched project resource with its organization, for the
// tag update loop.
type Entry struct {
	OrgID   string
	Project snyk.Resource
}

// Index is an insertion-ordered lookup of fetched projects by id.
type Index struct {
	order []string
	byID  map[string]Entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]Entry)}
}

// Add records a project entry. A duplicate id overwrites in place and keeps
// its original position.
func (i *Index) Add(orgID string, project snyk.Resource) {
	if _, exists := i.byID[project.ID]; !exists {
		i.order = append(i.order, project.ID)
	}
	i.byID[project.ID] = Entry{OrgID: orgID, Project: project}
}

// Get returns the entry for a project id.
func (i *Index) Get(projectID string) (Entry, bool) {
	entry, ok := i.byID[projectID]
	return entry, ok
}

// IDs returns all project ids in insertion order.
func (i *Index) IDs() []string {
	return i.order
}

// IDsForOrg returns the project ids of one organization in insertion order.
func (i *Index) IDsForOrg(orgID string) []string {
	var ids []string
	for _, id := range i.order {
		if i.byID[id].OrgID == orgID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of indexed projects.
func (i *Index) Len() int {
	return len(i.order)
}
