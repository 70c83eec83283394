package migrate

import (
	"context"
	"errors"
	"io/fs"

	"github.com/temirov/onboarding-migrator/internal/documentstore"
	firestorestore "github.com/temirov/onboarding-migrator/internal/documentstore/firestore"
	"github.com/temirov/onboarding-migrator/internal/documentstore/memory"
	mongostore "github.com/temirov/onboarding-migrator/internal/documentstore/mongo"
	pathutils "github.com/temirov/onboarding-migrator/internal/utils/path"
)

var migrateCredentialPathResolver = pathutils.NewCredentialPathResolver()

// StoreOptions selects and configures the document store backend.
type StoreOptions struct {
	Backend         string
	CredentialsFile string
	ProjectID       string
	DatabaseID      string
	MongoURI        string
	MongoDatabase   string
	MemoryFixture   string
}

// StoreProvider opens the document store used for a run.
type StoreProvider func(executionContext context.Context, options StoreOptions) (documentstore.Store, error)

// OpenStore constructs the configured backend. Every failure is reported as an *InitializationError.
func OpenStore(executionContext context.Context, options StoreOptions) (documentstore.Store, error) {
	backend, backendError := documentstore.ParseBackend(options.Backend)
	if backendError != nil {
		return nil, &InitializationError{Stage: InitializationStageBackend, Cause: backendError}
	}

	switch backend {
	case documentstore.BackendMongo:
		store, openError := mongostore.Open(executionContext, mongostore.Configuration{
			URI:      options.MongoURI,
			Database: options.MongoDatabase,
		})
		if openError != nil {
			return nil, &InitializationError{Stage: InitializationStageClient, Cause: openError}
		}
		return store, nil
	case documentstore.BackendMemory:
		return openMemory(options)
	default:
		return openFirestore(executionContext, options)
	}
}

func openMemory(options StoreOptions) (documentstore.Store, error) {
	store, openError := memory.NewStore()
	if openError != nil {
		return nil, &InitializationError{Stage: InitializationStageClient, Cause: openError}
	}
	if len(options.MemoryFixture) == 0 {
		return store, nil
	}

	fixturePath, resolveError := migrateCredentialPathResolver.Resolve(options.MemoryFixture)
	if resolveError != nil {
		return nil, &InitializationError{Stage: InitializationStageFixture, Cause: resolveError}
	}
	if loadError := store.LoadFixture(fixturePath); loadError != nil {
		return nil, &InitializationError{Stage: InitializationStageFixture, Cause: loadError}
	}
	return store, nil
}

func openFirestore(executionContext context.Context, options StoreOptions) (documentstore.Store, error) {
	credentialFilePath, resolveError := migrateCredentialPathResolver.Resolve(options.CredentialsFile)
	if resolveError != nil {
		return nil, &InitializationError{Stage: InitializationStageCredentials, Cause: resolveError}
	}

	store, openError := firestorestore.Open(executionContext, firestorestore.Configuration{
		ProjectID:       options.ProjectID,
		DatabaseID:      options.DatabaseID,
		CredentialsFile: credentialFilePath,
	})
	if openError != nil {
		stage := InitializationStageClient
		if errors.Is(openError, fs.ErrNotExist) || errors.Is(openError, fs.ErrPermission) || errors.Is(openError, firestorestore.ErrInvalidCredential) {
			stage = InitializationStageCredentials
		}
		return nil, &InitializationError{Stage: stage, Cause: openError}
	}
	return store, nil
}
