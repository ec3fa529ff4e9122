package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key represents a unique identifier for a cached Snyk response.
type Key struct {
	// Endpoint is the REST endpoint path (e.g., "/orgs/{id}/targets").
	Endpoint string

	// QueryParams are the query parameters of the request.
	QueryParams url.Values
}

// KeyForURL builds a Key from a fully-resolved request URL.
func KeyForURL(fullURL string) Key {
	u, err := url.Parse(fullURL)
	if err != nil {
		return Key{Endpoint: fullURL}
	}
	return Key{
		Endpoint:    u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: snyk:endpoint:query1=val1:query2=val2
//
// Example:
//
//	snyk:orgs/abc/projects:limit=100:version=2024-10-15
func (k Key) String() string {
	parts := []string{"snyk"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
