package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1B05H1N/snyk-projects-tag-updater/internal/prompt"
	"github.com/1B05H1N/snyk-projects-tag-updater/internal/ui"
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

// Per-project abort conditions. The update loop logs these and moves on to
// the next selected project.
var (
	// ErrDeclined means the operator declined the PATCH; nothing was sent.
	ErrDeclined = errors.New("patch cancelled by user")

	// ErrUnconfirmed means the PATCH was accepted but the re-fetch did not
	// show the tag, so no success is reported. Distinguishes "request
	// accepted" from "change observed".
	ErrUnconfirmed = errors.New("update not confirmed")
)

// Updater merges a tag into one project at a time:
// fetch the full resource, prompt for the tag, build the patch, confirm,
// send, then verify by re-fetching.
type Updater struct {
	api      *snyk.API
	prompter prompt.Prompter
	console  *ui.UI
	logger   zerolog.Logger

	defaultKey   string
	defaultValue string
}

// NewUpdater creates an Updater. defaultKey/defaultValue seed the tag
// prompts.
func NewUpdater(api *snyk.API, prompter prompt.Prompter, console *ui.UI, defaultKey, defaultValue string) *Updater {
	if defaultKey == "" {
		defaultKey = "Testing"
	}
	if defaultValue == "" {
		defaultValue = "DefaultTest"
	}
	return &Updater{
		api:          api,
		prompter:     prompter,
		console:      console,
		logger:       log.With().Str("component", "tagger").Logger(),
		defaultKey:   defaultKey,
		defaultValue: defaultValue,
	}
}

// UpdateProject runs the update state machine for one project and returns
// the success log line. An empty line with a non-nil error means the update
// was aborted or unconfirmed; nothing partial is assumed.
func (u *Updater) UpdateProject(ctx context.Context, orgID string, project snyk.Resource) (string, error) {
	// FETCH: the list record is a summary; a safe PATCH needs the full
	// attribute and relationship set.
	full, err := u.api.ProjectByID(ctx, orgID, project.ID)
	if err != nil {
		u.logger.Warn().Err(err).Str("project_id", project.ID).Msg("Could not fetch full project")
		return "", err
	}

	// PROMPT
	key := u.prompter.Ask(fmt.Sprintf("\nEnter tag key to update (default '%s'): ", u.defaultKey), u.defaultKey)
	value := u.prompter.Ask(fmt.Sprintf("Enter value for tag '%s' (default '%s'): ", key, u.defaultValue), u.defaultValue)

	// BUILD_PATCH
	tags := MergeTag(full.Attributes.Tags, key, value)
	doc, err := BuildPatch(full, orgID, tags)
	if err != nil {
		u.console.Warning("Project %s: %v; cannot update", project.ID, err)
		return "", err
	}

	// CONFIRM: show the fully-formed request before sending anything.
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render patch body: %w", err)
	}

	u.console.Print("\n--- Patch Request Details ---\n\n")
	u.console.Print("URL: %s\n\n", u.api.PatchURL(orgID, project.ID))
	u.console.Print("Headers:\n  Authorization: Token ****\n  Content-Type: application/vnd.api+json\n  Accept: application/vnd.api+json\n\n")
	u.console.Print("Payload:\n%s\n\n", string(body))

	if !u.prompter.Confirm("Proceed with this PATCH request? (y/n): ", false) {
		u.console.Warning("Patch request cancelled by user")
		return "", ErrDeclined
	}

	// PATCH
	if err := u.api.PatchProject(ctx, orgID, project.ID, doc); err != nil {
		u.console.Error("Error updating project %s: %v", project.ID, err)
		return "", err
	}
	u.console.Info("Patch request sent for project %s", project.ID)

	// VERIFY: success is only reported once the change is observed.
	updated, err := u.api.ProjectByID(ctx, orgID, project.ID)
	if err != nil {
		u.console.Warning("Update not confirmed for project %s: %v", project.ID, err)
		return "", fmt.Errorf("%w: %v", ErrUnconfirmed, err)
	}

	if !HasTag(updated.Attributes.Tags, key, value) {
		u.console.Warning("Update not confirmed for project %s", project.ID)
		return "", ErrUnconfirmed
	}

	name := updated.Attributes.Name
	if name == "" {
		name = "Unknown"
	}
	logLine := fmt.Sprintf("Org: %s - Project: %s updated with %s tag: %s", orgID, name, key, value)
	u.console.Success("%s", logLine)

	u.logger.Info().
		Str("org_id", orgID).
		Str("project_id", project.ID).
		Str("tag_key", key).
		Str("tag_value", value).
		Msg("Project tag updated")

	return logLine, nil
}
