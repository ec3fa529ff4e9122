package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"
)

// fakeFetcher serves canned page bodies keyed by request path and records
// every call it receives.
type fakeFetcher struct {
	pages map[string]string
	calls []fetchCall
}

type fetchCall struct {
	path   string
	params url.Values
}

func (f *fakeFetcher) GetJSON(_ context.Context, path string, params url.Values, v any) error {
	f.calls = append(f.calls, fetchCall{path: path, params: params})

	body, ok := f.pages[path]
	if !ok {
		return fmt.Errorf("no page for %s", path)
	}
	return json.Unmarshal([]byte(body), v)
}

func ids(t *testing.T, records []json.RawMessage) []string {
	t.Helper()

	var out []string
	for _, r := range records {
		var rec struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r, &rec); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		out = append(out, rec.ID)
	}
	return out
}

func TestFetchAll_ConcatenatesPagesInOrder(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"/orgs": `{"data": [{"id": "a"}, {"id": "b"}],
			"links": {"next": "/rest/orgs?starting_after=b"}}`,
		"/orgs?starting_after=b": `{"data": [{"id": "c"}],
			"links": {"next": {"href": "/rest/orgs?starting_after=c"}}}`,
		"/orgs?starting_after=c": `{"data": [{"id": "d"}], "links": {}}`,
	}}

	got := ids(t, FetchAll(context.Background(), f, "/orgs", nil))

	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFetchAll_StripsRestPrefixFromNextLinks(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"/groups": `{"data": [{"id": "g1"}],
			"links": {"next": "/rest/groups?starting_after=g1"}}`,
		"/groups?starting_after=g1": `{"data": [], "links": {}}`,
	}}

	FetchAll(context.Background(), f, "/groups", nil)

	if len(f.calls) != 2 {
		t.Fatalf("made %d calls, want 2", len(f.calls))
	}
	if f.calls[1].path != "/groups?starting_after=g1" {
		t.Errorf("second path = %q, want /rest prefix stripped", f.calls[1].path)
	}
}

func TestFetchAll_ParamsOnlyOnFirstRequest(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"/orgs/o1/projects": `{"data": [{"id": "p1"}],
			"links": {"next": "/rest/orgs/o1/projects?version=2024-10-15&starting_after=p1"}}`,
		"/orgs/o1/projects?version=2024-10-15&starting_after=p1": `{"data": [], "links": {}}`,
	}}

	params := url.Values{"version": []string{"2024-10-15"}}
	FetchAll(context.Background(), f, "/orgs/o1/projects", params)

	if len(f.calls) != 2 {
		t.Fatalf("made %d calls, want 2", len(f.calls))
	}
	if f.calls[0].params == nil {
		t.Error("first call lost its params")
	}
	if f.calls[1].params != nil {
		t.Errorf("second call params = %v, want nil (cursor already encodes state)", f.calls[1].params)
	}
}

func TestFetchAll_StopsOnMissingOrMalformedNext(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no links object", body: `{"data": [{"id": "x"}]}`},
		{name: "null next", body: `{"data": [{"id": "x"}], "links": {"next": null}}`},
		{name: "empty string next", body: `{"data": [{"id": "x"}], "links": {"next": ""}}`},
		{name: "numeric next", body: `{"data": [{"id": "x"}], "links": {"next": 42}}`},
		{name: "object without href", body: `{"data": [{"id": "x"}], "links": {"next": {"rel": "next"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{pages: map[string]string{"/orgs": tt.body}}

			got := FetchAll(context.Background(), f, "/orgs", nil)

			if len(f.calls) != 1 {
				t.Errorf("made %d calls, want 1", len(f.calls))
			}
			if len(got) != 1 {
				t.Errorf("got %d records, want 1", len(got))
			}
		})
	}
}

func TestFetchAll_PartialResultsOnMidWalkError(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"/orgs": `{"data": [{"id": "a"}, {"id": "b"}],
			"links": {"next": "/rest/orgs?starting_after=b"}}`,
		// Second page intentionally absent: the fetcher errors.
	}}

	got := ids(t, FetchAll(context.Background(), f, "/orgs", nil))

	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want the first page only", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFetchAll_FirstPageError(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}

	got := FetchAll(context.Background(), f, "/orgs", nil)

	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "string link", raw: `"/rest/orgs?starting_after=x"`, expected: "/rest/orgs?starting_after=x"},
		{name: "href object", raw: `{"href": "/rest/orgs?starting_after=x"}`, expected: "/rest/orgs?starting_after=x"},
		{name: "empty", raw: "", expected: ""},
		{name: "null", raw: "null", expected: ""},
		{name: "array", raw: `["a"]`, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.raw != "" {
				raw = json.RawMessage(tt.raw)
			}
			if got := nextLink(raw); got != tt.expected {
				t.Errorf("nextLink(%s) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

var errSentinel = errors.New("sentinel")

type errFetcher struct{}

func (errFetcher) GetJSON(context.Context, string, url.Values, any) error {
	return errSentinel
}

func TestFetchAll_NeverPropagatesErrors(t *testing.T) {
	got := FetchAll(context.Background(), errFetcher{}, "/groups", nil)
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
