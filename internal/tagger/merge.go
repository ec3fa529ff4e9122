// Package tagger merges a key/value tag into selected projects through a
// read-modify-write PATCH against the Snyk API, with operator confirmation
// before sending and re-fetch verification after.
package tagger

import (
	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/snyk"
)

// MergeTag returns a copy of tags with {key, value} merged in: the first tag
// with a matching key is overwritten in place, otherwise the tag is appended.
// Insertion order is preserved, so the managed key ends up unique even when
// the input list is not.
func MergeTag(tags []snyk.Tag, key, value string) []snyk.Tag {
	merged := make([]snyk.Tag, len(tags))
	copy(merged, tags)

	for i := range merged {
		if merged[i].Key == key {
			merged[i].Value = value
			return merged
		}
	}

	return append(merged, snyk.Tag{Key: key, Value: value})
}

// HasTag reports whether tags contains an exact {key, value} pair.
func HasTag(tags []snyk.Tag, key, value string) bool {
	for _, tag := range tags {
		if tag.Key == key && tag.Value == value {
			return true
		}
	}
	return false
}
