// Package firestore implements documentstore.Store against Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	cloudfirestore "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/temirov/onboarding-migrator/internal/documentstore"
)

const (
	// EmulatorHostEnvironmentVariable points the client at a local Firestore emulator.
	EmulatorHostEnvironmentVariable = "FIRESTORE_EMULATOR_HOST"

	emulatorDefaultProjectIDConstant       = "demo-onboarding"
	clientCreationErrorTemplateConstant    = "unable to create Firestore client for project %s: %w"
	documentIterationErrorTemplateConstant = "unable to list documents in %s: %w"
	documentWriteErrorTemplateConstant     = "unable to merge fields into %s/%s: %w"
)

// Configuration selects the Firestore project, database, and credential file.
type Configuration struct {
	ProjectID       string
	DatabaseID      string
	CredentialsFile string
}

// Store is a documentstore.Store backed by a single Firestore client.
type Store struct {
	client *cloudfirestore.Client
}

var _ documentstore.Store = (*Store)(nil)

// Open authenticates with the service account file and creates the Firestore client.
//
// When FIRESTORE_EMULATOR_HOST is set the client library connects without
// authentication, so the credential file is only consulted for the project ID.
func Open(executionContext context.Context, configuration Configuration) (*Store, error) {
	projectID := strings.TrimSpace(configuration.ProjectID)
	databaseID := strings.TrimSpace(configuration.DatabaseID)
	if len(databaseID) == 0 {
		databaseID = cloudfirestore.DefaultDatabaseID
	}

	var clientOptions []option.ClientOption
	if len(os.Getenv(EmulatorHostEnvironmentVariable)) > 0 {
		if len(projectID) == 0 {
			if account, loadError := LoadServiceAccount(configuration.CredentialsFile); loadError == nil {
				projectID = account.ProjectID
			} else {
				projectID = emulatorDefaultProjectIDConstant
			}
		}
	} else {
		account, loadError := LoadServiceAccount(configuration.CredentialsFile)
		if loadError != nil {
			return nil, loadError
		}
		if len(projectID) == 0 {
			projectID = account.ProjectID
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(configuration.CredentialsFile))
	}

	client, clientError := cloudfirestore.NewClientWithDatabase(executionContext, projectID, databaseID, clientOptions...)
	if clientError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplateConstant, projectID, clientError)
	}

	return &Store{client: client}, nil
}

// Snapshot drains the collection's document iterator before returning.
func (store *Store) Snapshot(executionContext context.Context, collection string) ([]documentstore.DocumentReference, error) {
	documentIterator := store.client.Collection(collection).Documents(executionContext)
	defer documentIterator.Stop()

	var references []documentstore.DocumentReference
	for {
		documentSnapshot, nextError := documentIterator.Next()
		if errors.Is(nextError, iterator.Done) {
			break
		}
		if nextError != nil {
			return nil, fmt.Errorf(documentIterationErrorTemplateConstant, collection, nextError)
		}
		references = append(references, documentstore.DocumentReference{ID: documentSnapshot.Ref.ID})
	}

	return references, nil
}

// MergeFields issues a Set with MergeAll, which creates the document if it no longer exists.
func (store *Store) MergeFields(executionContext context.Context, collection string, reference documentstore.DocumentReference, fields map[string]any) error {
	_, writeError := store.client.Collection(collection).Doc(reference.ID).Set(executionContext, fields, cloudfirestore.MergeAll)
	if writeError != nil {
		return fmt.Errorf(documentWriteErrorTemplateConstant, collection, reference.ID, writeError)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (store *Store) Close() error {
	return store.client.Close()
}
