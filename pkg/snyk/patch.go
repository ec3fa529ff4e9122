package snyk

// PatchDocument is the body of a project PATCH request. It carries only the
// updated tag list plus the resource identity and the relationship blocks
// the API requires on update.
type PatchDocument struct {
	Data PatchResource `json:"data"`
}

// PatchResource is the data member of a PatchDocument.
type PatchResource struct {
	Attributes    PatchAttributes              `json:"attributes"`
	Type          string                       `json:"type"`
	ID            string                       `json:"id"`
	Relationships map[string]PatchRelationship `json:"relationships,omitempty"`
}

// PatchAttributes restricts the patched attributes to the tag list.
type PatchAttributes struct {
	Tags []Tag `json:"tags"`
}

// PatchRelationship is a rebuilt relationship block with an explicit type
// discriminator and a related link. Data is a generic map so fields beyond
// id and type survive the round trip.
type PatchRelationship struct {
	Data  map[string]any `json:"data"`
	Links RelatedLink    `json:"links"`
}

// RelatedLink is the links member of a rebuilt relationship.
type RelatedLink struct {
	Related string `json:"related"`
}
