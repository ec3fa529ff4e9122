package tagger

import (
	"errors"
	"fmt"

	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

// Abort conditions when a minimal, API-compliant patch cannot be built.
var (
	ErrMissingTarget   = errors.New("missing target relationship")
	ErrMissingImporter = errors.New("missing importer relationship")
)

// BuildPatch constructs a PATCH body from a full project resource: the
// merged tag list plus resource identity. When the resource carries
// relationships, the organization, target, and importer blocks are rebuilt
// with explicit type discriminators and related links.
//
// A resource whose relationships section lacks a target or importer entry
// cannot be patched safely; those yield ErrMissingTarget/ErrMissingImporter.
func BuildPatch(full *snyk.Resource, orgID string, tags []snyk.Tag) (*snyk.PatchDocument, error) {
	resourceType := full.Type
	if resourceType == "" {
		resourceType = "project"
	}

	doc := &snyk.PatchDocument{
		Data: snyk.PatchResource{
			Attributes: snyk.PatchAttributes{Tags: tags},
			Type:       resourceType,
			ID:         full.ID,
		},
	}

	if len(full.Relationships) == 0 {
		return doc, nil
	}

	orgData := full.Relationships["organization"].DataMap()
	if orgData == nil {
		orgData = map[string]any{"id": orgID}
	}
	orgData["type"] = "org"

	targetData := full.Relationships["target"].DataMap()
	if targetData == nil {
		return nil, fmt.Errorf("project %s: %w", full.ID, ErrMissingTarget)
	}
	targetData["type"] = "target"

	importerData := full.Relationships["importer"].DataMap()
	if importerData == nil {
		return nil, fmt.Errorf("project %s: %w", full.ID, ErrMissingImporter)
	}
	importerData["type"] = "user"

	doc.Data.Relationships = map[string]snyk.PatchRelationship{
		"organization": {
			Data:  orgData,
			Links: snyk.RelatedLink{Related: fmt.Sprintf("/rest/orgs/%v", orgData["id"])},
		},
		"target": {
			Data:  targetData,
			Links: snyk.RelatedLink{Related: fmt.Sprintf("/rest/orgs/%s/targets/%v", orgID, targetData["id"])},
		},
		// The importer related link is served without the /rest prefix.
		"importer": {
			Data:  importerData,
			Links: snyk.RelatedLink{Related: fmt.Sprintf("/orgs/%s/users/%v", orgID, importerData["id"])},
		},
	}

	return doc, nil
}
