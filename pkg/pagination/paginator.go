// Package pagination provides cursor-based fetching of paginated Snyk REST
// collections.
//
// The Snyk REST API paginates with a links.next cursor rather than page
// numbers: each page carries the URL of the next one until exhausted. The
// paginator follows that chain sequentially and concatenates every page's
// data array. A failed page fetch terminates the walk and returns whatever
// was accumulated, favoring forward progress over completeness.
package pagination

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// restPathPrefix is stripped from next-links, which Snyk returns relative to
// the API host rather than the /rest base the client resolves against.
const restPathPrefix = "/rest"

// Fetcher is the interface the Snyk client implements for single-page fetching.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, params url.Values, v any) error
}

// page is the JSON:API envelope of a single collection page.
type page struct {
	Data  []json.RawMessage `json:"data"`
	Links pageLinks         `json:"links"`
}

type pageLinks struct {
	Next json.RawMessage `json:"next"`
}

// FetchAll walks a paginated collection starting at path and returns the
// concatenation of every page's data array in page order.
//
// Query parameters apply to the first request only; next-links already
// encode the cursor state. Errors truncate the walk: the records collected
// so far are returned and the failure is logged, not propagated.
func FetchAll(ctx context.Context, f Fetcher, path string, params url.Values) []json.RawMessage {
	var results []json.RawMessage
	pages := 0

	for path != "" {
		var p page
		if err := f.GetJSON(ctx, path, params, &p); err != nil {
			log.Warn().
				Err(err).
				Str("endpoint", path).
				Int("pages", pages).
				Int("records", len(results)).
				Msg("Pagination fetch error - returning partial results")
			break
		}

		results = append(results, p.Data...)
		pages++

		next := nextLink(p.Links.Next)
		if next == "" {
			log.Debug().
				Int("pages", pages).
				Int("records", len(results)).
				Msg("Pagination complete")
			break
		}

		path = resolveNext(next)
		params = nil
	}

	return results
}

// nextLink extracts the next URL from a links.next value, which may be a
// plain string or a JSON:API link object with an href field. Any other shape
// stops pagination.
func nextLink(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Href string `json:"href"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Href
	}

	return ""
}

// resolveNext normalizes a next-link for the client: host-relative links
// lose the /rest prefix (the client's base URL carries it), absolute URLs
// pass through untouched.
func resolveNext(next string) string {
	if strings.HasPrefix(next, restPathPrefix) {
		next = next[len(restPathPrefix):]
	}
	return next
}
