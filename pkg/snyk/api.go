package snyk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/client"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/pagination"
)

// API version and pagination defaults.
const (
	DefaultAPIVersion = "2024-10-15"
	DefaultPageLimit  = 100
)

// Config holds API-level settings.
type Config struct {
	// Version is the Snyk REST API version sent with every request.
	Version string

	// PageLimit is the page size requested on collection endpoints.
	PageLimit int
}

// ProjectFilter narrows a project listing server-side. Empty fields are
// not sent.
type ProjectFilter struct {
	TargetRuntime string
	Origins       string
}

// API exposes the Snyk REST operations used by the tag updater.
type API struct {
	http    *client.Client
	logger  zerolog.Logger
	version string
	limit   int
}

// NewAPI creates an API bound to an HTTP client.
func NewAPI(httpClient *client.Client, cfg Config) *API {
	if cfg.Version == "" {
		cfg.Version = DefaultAPIVersion
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultPageLimit
	}
	return &API{
		http:    httpClient,
		logger:  log.With().Str("component", "snyk-api").Logger(),
		version: cfg.Version,
		limit:   cfg.PageLimit,
	}
}

// listParams returns the default pagination parameters for a collection
// request.
func (a *API) listParams() url.Values {
	params := url.Values{}
	params.Set("version", a.version)
	params.Set("limit", strconv.Itoa(a.limit))
	return params
}

// decodeResources unmarshals raw collection records, skipping records that
// do not decode.
func (a *API) decodeResources(raw []json.RawMessage) []Resource {
	resources := make([]Resource, 0, len(raw))
	for _, record := range raw {
		var res Resource
		if err := json.Unmarshal(record, &res); err != nil {
			a.logger.Warn().Err(err).Msg("Skipping undecodable resource record")
			continue
		}
		resources = append(resources, res)
	}
	return resources
}

// Groups retrieves all groups visible to the token.
func (a *API) Groups(ctx context.Context) []Resource {
	raw := pagination.FetchAll(ctx, a.http, "/groups", a.listParams())
	return a.decodeResources(raw)
}

// OrgsForGroup retrieves the organizations of a group.
func (a *API) OrgsForGroup(ctx context.Context, groupID string) []Resource {
	path := fmt.Sprintf("/groups/%s/orgs", groupID)
	raw := pagination.FetchAll(ctx, a.http, path, a.listParams())
	return a.decodeResources(raw)
}

// TargetsForOrg retrieves all targets of an organization.
func (a *API) TargetsForOrg(ctx context.Context, orgID string) []Resource {
	path := fmt.Sprintf("/orgs/%s/targets", orgID)
	raw := pagination.FetchAll(ctx, a.http, path, a.listParams())
	return a.decodeResources(raw)
}

// Projects retrieves the projects of an organization, optionally filtered
// server-side by target runtime and origin.
func (a *API) Projects(ctx context.Context, orgID string, filter *ProjectFilter) []Resource {
	path := fmt.Sprintf("/orgs/%s/projects", orgID)

	params := a.listParams()
	if filter != nil {
		if filter.TargetRuntime != "" {
			params.Set("target_runtime", filter.TargetRuntime)
		}
		if filter.Origins != "" {
			params.Set("origins", filter.Origins)
		}
	}

	raw := pagination.FetchAll(ctx, a.http, path, params)
	return a.decodeResources(raw)
}

// ProjectByID retrieves the full project resource. The list endpoints serve
// summary records; a safe PATCH needs the complete attribute and
// relationship set, so this always bypasses the response cache.
func (a *API) ProjectByID(ctx context.Context, orgID, projectID string) (*Resource, error) {
	path := fmt.Sprintf("/orgs/%s/projects/%s", orgID, projectID)

	params := url.Values{}
	params.Set("version", a.version)

	var doc document
	if err := a.http.GetJSONFresh(ctx, path, params, &doc); err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("get project %s: empty response", projectID)
	}
	return doc.Data, nil
}

// PatchProject sends a project PATCH.
func (a *API) PatchProject(ctx context.Context, orgID, projectID string, doc *PatchDocument) error {
	path := fmt.Sprintf("/orgs/%s/projects/%s", orgID, projectID)

	params := url.Values{}
	params.Set("version", a.version)

	resp, err := a.http.Patch(ctx, path, params, doc)
	if err != nil {
		return fmt.Errorf("patch project %s: %w", projectID, err)
	}
	resp.Body.Close()
	return nil
}

// PatchURL returns the full PATCH request URL for operator confirmation.
func (a *API) PatchURL(orgID, projectID string) string {
	return fmt.Sprintf("%s/orgs/%s/projects/%s?version=%s",
		a.http.BaseURL(), orgID, projectID, a.version)
}
