// Package snyk provides typed access to the Snyk REST API resources and
// operations used by the tag updater: groups, organizations, targets, and
// projects.
package snyk

import (
	"encoding/json"
)

// Tag is a key/value label attached to a project.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attributes carries the resource attributes this tool reads. Attributes of
// other resource kinds are ignored on decode.
type Attributes struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	URL         string `json:"url,omitempty"`
	Status      string `json:"status,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
}

// Identifier is a typed reference to a resource.
type Identifier struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// RelationshipLinks carries the links block of a relationship.
type RelationshipLinks struct {
	Related string `json:"related,omitempty"`
}

// Relationship references one or more related resources. Data is kept raw
// because the API serves both a single identifier object and an array,
// depending on endpoint and relationship name.
type Relationship struct {
	Data  json.RawMessage    `json:"data,omitempty"`
	Links *RelationshipLinks `json:"links,omitempty"`
}

// Identifiers returns the referenced identifiers, handling both the single
// object and array shapes. Returns nil when data is absent or malformed.
func (r Relationship) Identifiers() []Identifier {
	if len(r.Data) == 0 {
		return nil
	}

	var many []Identifier
	if err := json.Unmarshal(r.Data, &many); err == nil {
		return many
	}

	var one Identifier
	if err := json.Unmarshal(r.Data, &one); err == nil && one.ID != "" {
		return []Identifier{one}
	}

	return nil
}

// DataMap returns the single identifier object as a generic map, preserving
// fields beyond id and type so a rebuilt PATCH body carries them through.
// Returns nil when data is absent or not a single object.
func (r Relationship) DataMap() map[string]any {
	if len(r.Data) == 0 {
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(r.Data, &m); err != nil {
		return nil
	}
	return m
}

// Resource is a JSON:API resource object.
type Resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    Attributes              `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// document is the JSON:API envelope of a single-resource response.
type document struct {
	Data *Resource `json:"data"`
}
