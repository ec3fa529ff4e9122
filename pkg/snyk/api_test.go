package snyk

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/testutil"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/client"
)

func newTestAPI(t *testing.T, mock *testutil.MockSnyk) *API {
	t.Helper()

	cfg := client.DefaultConfig("test-token")
	cfg.BaseURL = mock.URL()

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	return NewAPI(c, Config{})
}

func TestGroups(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	mock.SetCollection("/groups",
		testutil.Resource("g1", "group", map[string]any{"name": "Engineering"}, nil),
		testutil.Resource("g2", "group", map[string]any{"name": "Security"}, nil),
	)

	groups := newTestAPI(t, mock).Groups(context.Background())

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].ID != "g1" || groups[0].Attributes.Name != "Engineering" {
		t.Errorf("groups[0] = %+v", groups[0])
	}
}

func TestGroups_Paginated(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	records := make([]any, 0, 5)
	for _, id := range []string{"g1", "g2", "g3", "g4", "g5"} {
		records = append(records, testutil.Resource(id, "group", map[string]any{"name": id}, nil))
	}
	mock.SetPagedCollection("/groups", 2, records...)

	groups := newTestAPI(t, mock).Groups(context.Background())

	if len(groups) != 5 {
		t.Fatalf("got %d groups across pages, want 5", len(groups))
	}
	for i, id := range []string{"g1", "g2", "g3", "g4", "g5"} {
		if groups[i].ID != id {
			t.Errorf("groups[%d].ID = %q, want %q (page order)", i, groups[i].ID, id)
		}
	}
	// 5 records at page size 2 is three page fetches.
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

// A rate-limited listing retries transparently: the caller sees the full
// collection once the 429s clear.
func TestGroups_RateLimited(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	mock.SetRateLimitSequence("/groups", 2, "1", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: testutil.CollectionPage([]any{
			testutil.Resource("g1", "group", map[string]any{"name": "Engineering"}, nil),
		}, ""),
	})

	cfg := client.DefaultConfig("test-token")
	cfg.BaseURL = mock.URL()
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	c.SetSleepFunc(func(context.Context, time.Duration) error { return nil })

	groups := NewAPI(c, Config{}).Groups(context.Background())

	if len(groups) != 1 || groups[0].ID != "g1" {
		t.Fatalf("groups = %v, want g1 after retries", groups)
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("server saw %d requests, want 3 (two 429s then success)", got)
	}
}

func TestProjects_FilterParams(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	var query map[string]string
	mock.SetHandler("/orgs/o1/projects", func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"version":        r.URL.Query().Get("version"),
			"limit":          r.URL.Query().Get("limit"),
			"target_runtime": r.URL.Query().Get("target_runtime"),
			"origins":        r.URL.Query().Get("origins"),
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data": []}`))
	})

	api := newTestAPI(t, mock)

	api.Projects(context.Background(), "o1", &ProjectFilter{
		TargetRuntime: "net6.0",
		Origins:       "azure-repos",
	})

	if query["version"] != DefaultAPIVersion {
		t.Errorf("version = %q, want %q", query["version"], DefaultAPIVersion)
	}
	if query["limit"] != "100" {
		t.Errorf("limit = %q, want 100", query["limit"])
	}
	if query["target_runtime"] != "net6.0" {
		t.Errorf("target_runtime = %q, want net6.0", query["target_runtime"])
	}
	if query["origins"] != "azure-repos" {
		t.Errorf("origins = %q, want azure-repos", query["origins"])
	}

	// Unfiltered: the filter params must not be sent at all.
	api.Projects(context.Background(), "o1", nil)
	if query["target_runtime"] != "" || query["origins"] != "" {
		t.Errorf("unfiltered request sent filter params: %v", query)
	}
}

func TestProjectByID(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	mock.SetResponse("GET /orgs/o1/projects/p1", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: testutil.SingleResource(testutil.Resource("p1", "project",
			map[string]any{"name": "frontend", "tags": []map[string]any{{"key": "env", "value": "prod"}}},
			map[string]any{"target": map[string]any{"data": map[string]any{"id": "t1", "type": "target"}}},
		)),
	})

	project, err := newTestAPI(t, mock).ProjectByID(context.Background(), "o1", "p1")
	if err != nil {
		t.Fatalf("ProjectByID() error: %v", err)
	}

	if project.ID != "p1" || project.Attributes.Name != "frontend" {
		t.Errorf("project = %+v", project)
	}
	if len(project.Attributes.Tags) != 1 {
		t.Errorf("tags = %v, want one", project.Attributes.Tags)
	}
	if len(project.Relationships["target"].Identifiers()) != 1 {
		t.Error("target relationship lost on decode")
	}
}

func TestProjectByID_Errors(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	mock.SetResponse("GET /orgs/o1/projects/missing", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"errors": [{"detail": "Project not found"}]}`,
	})
	mock.SetResponse("GET /orgs/o1/projects/empty", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": null}`,
	})

	api := newTestAPI(t, mock)

	if _, err := api.ProjectByID(context.Background(), "o1", "missing"); err == nil {
		t.Error("Expected error for 404, got nil")
	}
	if _, err := api.ProjectByID(context.Background(), "o1", "empty"); err == nil {
		t.Error("Expected error for null data, got nil")
	}
}

func TestPatchProject(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	mock.SetResponse("PATCH /orgs/o1/projects/p1", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": {"id": "p1", "type": "project"}}`,
	})

	doc := &PatchDocument{
		Data: PatchResource{
			Type: "project",
			ID:   "p1",
			Attributes: PatchAttributes{
				Tags: []Tag{{Key: "Testing", Value: "DefaultTest"}},
			},
		},
	}

	if err := newTestAPI(t, mock).PatchProject(context.Background(), "o1", "p1", doc); err != nil {
		t.Fatalf("PatchProject() error: %v", err)
	}

	if mock.GetPatchCount() != 1 {
		t.Fatalf("PatchCount = %d, want 1", mock.GetPatchCount())
	}

	var sent PatchDocument
	if err := json.Unmarshal(mock.LastPatchBody, &sent); err != nil {
		t.Fatalf("unmarshal sent body: %v", err)
	}
	if sent.Data.ID != "p1" || sent.Data.Type != "project" {
		t.Errorf("sent data = %+v", sent.Data)
	}
	if len(sent.Data.Attributes.Tags) != 1 || sent.Data.Attributes.Tags[0].Key != "Testing" {
		t.Errorf("sent tags = %v", sent.Data.Attributes.Tags)
	}
}

func TestDecodeResources_SkipsBadRecords(t *testing.T) {
	mock := testutil.NewMockSnyk()
	defer mock.Close()

	mock.SetResponse("/groups", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": [{"id": "g1", "type": "group"}, "not-an-object", {"id": "g2", "type": "group"}]}`,
	})

	groups := newTestAPI(t, mock).Groups(context.Background())

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 (bad record skipped)", len(groups))
	}
	if groups[0].ID != "g1" || groups[1].ID != "g2" {
		t.Errorf("groups = %v", groups)
	}
}
