// Package testsupport provides document store and service doubles for migrate tests.
package testsupport

import (
	"context"
	"errors"

	"github.com/temirov/onboarding-migrator/internal/documentstore"
	migrate "github.com/temirov/onboarding-migrator/internal/migrate"
)

var errStoreNotConfigured = errors.New("delegate store not configured")

// FaultyStore wraps a store, records calls, and injects failures.
type FaultyStore struct {
	Delegate documentstore.Store
	// SnapshotError is returned instead of delegating Snapshot.
	SnapshotError error
	// FailWriteAt makes the n-th MergeFields call (1-based) return WriteError. Zero disables.
	FailWriteAt int
	WriteError  error
	// AfterSnapshot runs once the snapshot has been taken, before it is returned.
	AfterSnapshot func()

	SnapshotCalls    int
	AttemptedWrites  []string
	WrittenFieldSets []map[string]any
	Closed           bool
}

// Snapshot delegates and then runs AfterSnapshot.
func (store *FaultyStore) Snapshot(executionContext context.Context, collection string) ([]documentstore.DocumentReference, error) {
	store.SnapshotCalls++
	if store.SnapshotError != nil {
		return nil, store.SnapshotError
	}
	if store.Delegate == nil {
		return nil, errStoreNotConfigured
	}
	references, snapshotError := store.Delegate.Snapshot(executionContext, collection)
	if snapshotError == nil && store.AfterSnapshot != nil {
		store.AfterSnapshot()
	}
	return references, snapshotError
}

// MergeFields records the attempt and either fails or delegates.
func (store *FaultyStore) MergeFields(executionContext context.Context, collection string, reference documentstore.DocumentReference, fields map[string]any) error {
	store.AttemptedWrites = append(store.AttemptedWrites, reference.ID)
	store.WrittenFieldSets = append(store.WrittenFieldSets, fields)
	if store.FailWriteAt > 0 && len(store.AttemptedWrites) == store.FailWriteAt {
		return store.WriteError
	}
	if store.Delegate == nil {
		return errStoreNotConfigured
	}
	return store.Delegate.MergeFields(executionContext, collection, reference, fields)
}

// Close marks the store closed and closes the delegate.
func (store *FaultyStore) Close() error {
	store.Closed = true
	if store.Delegate == nil {
		return nil
	}
	return store.Delegate.Close()
}

// ServiceStub records the options it was executed with and returns a configured outcome.
type ServiceStub struct {
	Result          migrate.MigrationResult
	Error           error
	ReceivedOptions []migrate.MigrationOptions
}

// Execute records the options and returns the configured outcome.
func (service *ServiceStub) Execute(_ context.Context, options migrate.MigrationOptions) (migrate.MigrationResult, error) {
	service.ReceivedOptions = append(service.ReceivedOptions, options)
	return service.Result, service.Error
}
