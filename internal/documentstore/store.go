// Package documentstore defines the backend-neutral contract the migrator uses
// to enumerate a collection and merge fields into its documents.
package documentstore

import (
	"context"
	"fmt"
	"strings"
)

// Backend names a supported document database implementation.
type Backend string

// Supported backends.
const (
	BackendFirestore Backend = "firestore"
	BackendMongo     Backend = "mongo"
	BackendMemory    Backend = "memory"
)

const (
	unsupportedBackendTemplateConstant = "unsupported document store backend: %q"
)

// ParseBackend normalizes a configured backend name.
func ParseBackend(value string) (Backend, error) {
	candidate := Backend(strings.ToLower(strings.TrimSpace(value)))
	switch candidate {
	case BackendFirestore, BackendMongo, BackendMemory:
		return candidate, nil
	default:
		return "", fmt.Errorf(unsupportedBackendTemplateConstant, value)
	}
}

// DocumentReference addresses a single document captured in a collection snapshot.
type DocumentReference struct {
	// ID is the printable document identifier.
	ID string
	// Key is the backend-native key used for writes. Nil means the document is addressed by ID.
	Key any
}

// Store enumerates collections and merge-writes fields into documents.
type Store interface {
	// Snapshot returns every document reference in the collection, fully materialized, in backend order.
	Snapshot(executionContext context.Context, collection string) ([]DocumentReference, error)
	// MergeFields sets the provided fields on the document, preserving every field not named.
	MergeFields(executionContext context.Context, collection string, reference DocumentReference, fields map[string]any) error
	// Close releases the backend client.
	Close() error
}
