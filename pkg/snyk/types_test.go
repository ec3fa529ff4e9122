package snyk

import (
	"encoding/json"
	"testing"
)

func TestRelationshipIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected []Identifier
	}{
		{
			name:     "single object",
			data:     `{"id": "t1", "type": "target"}`,
			expected: []Identifier{{ID: "t1", Type: "target"}},
		},
		{
			name:     "array",
			data:     `[{"id": "t1", "type": "target"}, {"id": "t2", "type": "target"}]`,
			expected: []Identifier{{ID: "t1", Type: "target"}, {ID: "t2", Type: "target"}},
		},
		{
			name:     "empty array",
			data:     `[]`,
			expected: []Identifier{},
		},
		{
			name:     "absent",
			data:     "",
			expected: nil,
		},
		{
			name:     "null",
			data:     "null",
			expected: nil,
		},
		{
			name:     "object without id",
			data:     `{"type": "target"}`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := Relationship{}
			if tt.data != "" {
				rel.Data = json.RawMessage(tt.data)
			}

			got := rel.Identifiers()

			if len(got) != len(tt.expected) {
				t.Fatalf("Identifiers() = %v, want %v", got, tt.expected)
			}
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("Identifiers()[%d] = %v, want %v", i, got[i], tt.expected[i])
				}
			}
			if tt.expected == nil && got != nil {
				t.Errorf("Identifiers() = %v, want nil", got)
			}
		})
	}
}

// Fields beyond id and type must survive the round trip into a PATCH body.
func TestRelationshipDataMap(t *testing.T) {
	rel := Relationship{
		Data: json.RawMessage(`{"id": "o1", "type": "org", "meta": {"count": 3}}`),
	}

	m := rel.DataMap()
	if m == nil {
		t.Fatal("DataMap() = nil")
	}
	if m["id"] != "o1" || m["type"] != "org" {
		t.Errorf("DataMap() = %v, want id and type preserved", m)
	}
	if _, ok := m["meta"]; !ok {
		t.Error("DataMap() dropped the meta field")
	}

	if got := (Relationship{Data: json.RawMessage(`[{"id": "x"}]`)}).DataMap(); got != nil {
		t.Errorf("DataMap() on array = %v, want nil", got)
	}
	if got := (Relationship{}).DataMap(); got != nil {
		t.Errorf("DataMap() on absent data = %v, want nil", got)
	}
}

func TestResourceDecode(t *testing.T) {
	body := `{
		"id": "p1",
		"type": "project",
		"attributes": {
			"name": "frontend",
			"status": "active",
			"tags": [{"key": "team", "value": "web"}]
		},
		"relationships": {
			"organization": {
				"data": {"id": "o1", "type": "org"},
				"links": {"related": "/rest/orgs/o1"}
			},
			"target": {
				"data": {"id": "t1", "type": "target"}
			}
		}
	}`

	var res Resource
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if res.ID != "p1" || res.Type != "project" {
		t.Errorf("identity = %s/%s, want p1/project", res.ID, res.Type)
	}
	if res.Attributes.Name != "frontend" || res.Attributes.Status != "active" {
		t.Errorf("attributes = %+v", res.Attributes)
	}
	if len(res.Attributes.Tags) != 1 || res.Attributes.Tags[0] != (Tag{Key: "team", Value: "web"}) {
		t.Errorf("tags = %v", res.Attributes.Tags)
	}

	org := res.Relationships["organization"]
	if org.Links == nil || org.Links.Related != "/rest/orgs/o1" {
		t.Errorf("organization links = %+v", org.Links)
	}

	targets := res.Relationships["target"].Identifiers()
	if len(targets) != 1 || targets[0].ID != "t1" {
		t.Errorf("target identifiers = %v", targets)
	}
}
