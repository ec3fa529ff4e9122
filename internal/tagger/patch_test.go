package tagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

func fullProject(t *testing.T) *snyk.Resource {
	t.Helper()

	body := `{
		"id": "p1",
		"type": "project",
		"attributes": {"name": "frontend", "tags": [{"key": "team", "value": "web"}]},
		"relationships": {
			"organization": {"data": {"id": "o1", "type": "org"}},
			"target": {"data": {"id": "t1", "type": "target"}},
			"importer": {"data": {"id": "u1", "type": "user"}}
		}
	}`

	var res snyk.Resource
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	return &res
}

func TestBuildPatch(t *testing.T) {
	tags := []snyk.Tag{{Key: "Testing", Value: "DefaultTest"}}

	doc, err := BuildPatch(fullProject(t), "o1", tags)
	require.NoError(t, err)

	assert.Equal(t, "project", doc.Data.Type)
	assert.Equal(t, "p1", doc.Data.ID)
	assert.Equal(t, tags, doc.Data.Attributes.Tags)

	org := doc.Data.Relationships["organization"]
	assert.Equal(t, "org", org.Data["type"])
	assert.Equal(t, "o1", org.Data["id"])
	assert.Equal(t, "/rest/orgs/o1", org.Links.Related)

	target := doc.Data.Relationships["target"]
	assert.Equal(t, "target", target.Data["type"])
	assert.Equal(t, "/rest/orgs/o1/targets/t1", target.Links.Related)

	importer := doc.Data.Relationships["importer"]
	assert.Equal(t, "user", importer.Data["type"])
	assert.Equal(t, "/orgs/o1/users/u1", importer.Links.Related,
		"importer related link has no /rest prefix")
}

func TestBuildPatch_ForcesRelationshipTypes(t *testing.T) {
	project := fullProject(t)
	// Wrong discriminators in the fetched resource must be corrected.
	project.Relationships["organization"] = snyk.Relationship{
		Data: json.RawMessage(`{"id": "o1", "type": "organization"}`),
	}
	project.Relationships["importer"] = snyk.Relationship{
		Data: json.RawMessage(`{"id": "u1"}`),
	}

	doc, err := BuildPatch(project, "o1", nil)
	require.NoError(t, err)

	assert.Equal(t, "org", doc.Data.Relationships["organization"].Data["type"])
	assert.Equal(t, "user", doc.Data.Relationships["importer"].Data["type"])
}

func TestBuildPatch_MissingOrganizationFallsBackToOrgID(t *testing.T) {
	project := fullProject(t)
	delete(project.Relationships, "organization")

	doc, err := BuildPatch(project, "org-from-walk", nil)
	require.NoError(t, err)

	org := doc.Data.Relationships["organization"]
	assert.Equal(t, "org-from-walk", org.Data["id"])
	assert.Equal(t, "org", org.Data["type"])
	assert.Equal(t, "/rest/orgs/org-from-walk", org.Links.Related)
}

func TestBuildPatch_MissingTarget(t *testing.T) {
	project := fullProject(t)
	delete(project.Relationships, "target")

	doc, err := BuildPatch(project, "o1", nil)

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrMissingTarget)
}

func TestBuildPatch_MissingImporter(t *testing.T) {
	project := fullProject(t)
	delete(project.Relationships, "importer")

	doc, err := BuildPatch(project, "o1", nil)

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrMissingImporter)
}

func TestBuildPatch_NoRelationshipsYieldsBareDocument(t *testing.T) {
	project := &snyk.Resource{ID: "p9", Type: "project"}

	doc, err := BuildPatch(project, "o1", []snyk.Tag{{Key: "a", Value: "b"}})
	require.NoError(t, err)

	assert.Equal(t, "p9", doc.Data.ID)
	assert.Nil(t, doc.Data.Relationships)
}

func TestBuildPatch_DefaultsResourceType(t *testing.T) {
	project := &snyk.Resource{ID: "p9"}

	doc, err := BuildPatch(project, "o1", nil)
	require.NoError(t, err)

	assert.Equal(t, "project", doc.Data.Type)
}
