// Package memory implements documentstore.Store on top of hashicorp/go-memdb.
//
// A store can be seeded from a YAML or JSON fixture, which makes it usable for
// rehearsing a migration locally as well as for migrator tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"
	"gopkg.in/yaml.v3"

	"github.com/temirov/onboarding-migrator/internal/documentstore"
)

const (
	documentsTableNameConstant           = "documents"
	identifierIndexNameConstant          = "id"
	collectionIndexNameConstant          = "collection"
	collectionFieldNameConstant          = "Collection"
	identifierFieldNameConstant          = "ID"
	storeClosedMessageConstant           = "memory store closed"
	emptyFixturePathMessageConstant      = "fixture path is empty"
	insertErrorTemplateConstant          = "unable to insert document %s/%s: %w"
	lookupErrorTemplateConstant          = "unable to find document %s/%s: %w"
	snapshotErrorTemplateConstant        = "unable to list collection %s: %w"
	schemaErrorTemplateConstant          = "unable to create in-memory database: %w"
	fixtureReadErrorTemplateConstant     = "unable to read fixture %s: %w"
	fixtureParseErrorTemplateConstant    = "unable to parse fixture %s: %w"
	fixtureDocumentErrorTemplateConstant = "unable to seed fixture %s: %w"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New(storeClosedMessageConstant)
	// ErrEmptyFixturePath is returned by LoadFixture when no path is given.
	ErrEmptyFixturePath = errors.New(emptyFixturePathMessageConstant)
)

var databaseSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		documentsTableNameConstant: {
			Name: documentsTableNameConstant,
			Indexes: map[string]*memdb.IndexSchema{
				identifierIndexNameConstant: {
					Name:   identifierIndexNameConstant,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: collectionFieldNameConstant},
							&memdb.StringFieldIndex{Field: identifierFieldNameConstant},
						},
					},
				},
				collectionIndexNameConstant: {
					Name:    collectionIndexNameConstant,
					Indexer: &memdb.StringFieldIndex{Field: collectionFieldNameConstant},
				},
			},
		},
	},
}

type documentRecord struct {
	Collection string
	ID         string
	Fields     map[string]any
}

// Fixture maps collection names to document IDs to document fields.
type Fixture map[string]map[string]map[string]any

var _ documentstore.Store = (*Store)(nil)

// Store keeps documents in an in-memory database. It is safe for concurrent use.
type Store struct {
	database *memdb.MemDB
	closed   atomic.Bool
}

// NewStore creates an empty store.
func NewStore() (*Store, error) {
	database, schemaError := memdb.NewMemDB(databaseSchema)
	if schemaError != nil {
		return nil, fmt.Errorf(schemaErrorTemplateConstant, schemaError)
	}
	return &Store{database: database}, nil
}

// LoadFixture seeds the store from a YAML or JSON file shaped like Fixture.
func (store *Store) LoadFixture(fixturePath string) error {
	trimmedPath := strings.TrimSpace(fixturePath)
	if len(trimmedPath) == 0 {
		return ErrEmptyFixturePath
	}

	fixtureContent, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return fmt.Errorf(fixtureReadErrorTemplateConstant, trimmedPath, readError)
	}

	var fixture Fixture
	if parseError := yaml.Unmarshal(fixtureContent, &fixture); parseError != nil {
		return fmt.Errorf(fixtureParseErrorTemplateConstant, trimmedPath, parseError)
	}

	if seedError := store.Seed(fixture); seedError != nil {
		return fmt.Errorf(fixtureDocumentErrorTemplateConstant, trimmedPath, seedError)
	}
	return nil
}

// Seed stores every document of the fixture, replacing existing documents with the same ID.
func (store *Store) Seed(fixture Fixture) error {
	collections := make([]string, 0, len(fixture))
	for collection := range fixture {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	for _, collection := range collections {
		for documentID, fields := range fixture[collection] {
			if putError := store.Put(collection, documentID, fields); putError != nil {
				return putError
			}
		}
	}
	return nil
}

// Put replaces the document with the given fields, creating it when absent.
func (store *Store) Put(collection string, documentID string, fields map[string]any) error {
	if store.closed.Load() {
		return ErrClosed
	}

	transaction := store.database.Txn(true)
	defer transaction.Abort()

	record := &documentRecord{Collection: collection, ID: documentID, Fields: maps.Clone(fields)}
	if record.Fields == nil {
		record.Fields = map[string]any{}
	}
	if insertError := transaction.Insert(documentsTableNameConstant, record); insertError != nil {
		return fmt.Errorf(insertErrorTemplateConstant, collection, documentID, insertError)
	}
	transaction.Commit()
	return nil
}

// Document returns a copy of the document's fields.
func (store *Store) Document(collection string, documentID string) (map[string]any, bool, error) {
	if store.closed.Load() {
		return nil, false, ErrClosed
	}

	transaction := store.database.Txn(false)
	defer transaction.Abort()

	rawRecord, lookupError := transaction.First(documentsTableNameConstant, identifierIndexNameConstant, collection, documentID)
	if lookupError != nil {
		return nil, false, fmt.Errorf(lookupErrorTemplateConstant, collection, documentID, lookupError)
	}
	if rawRecord == nil {
		return nil, false, nil
	}
	return maps.Clone(rawRecord.(*documentRecord).Fields), true, nil
}

// Snapshot returns references to every document in the collection ordered by ID.
func (store *Store) Snapshot(_ context.Context, collection string) ([]documentstore.DocumentReference, error) {
	if store.closed.Load() {
		return nil, ErrClosed
	}

	transaction := store.database.Txn(false)
	defer transaction.Abort()

	recordIterator, lookupError := transaction.Get(documentsTableNameConstant, collectionIndexNameConstant, collection)
	if lookupError != nil {
		return nil, fmt.Errorf(snapshotErrorTemplateConstant, collection, lookupError)
	}

	var references []documentstore.DocumentReference
	for rawRecord := recordIterator.Next(); rawRecord != nil; rawRecord = recordIterator.Next() {
		record := rawRecord.(*documentRecord)
		references = append(references, documentstore.DocumentReference{ID: record.ID})
	}
	return references, nil
}

// MergeFields overlays fields onto the stored document, creating it when absent.
func (store *Store) MergeFields(_ context.Context, collection string, reference documentstore.DocumentReference, fields map[string]any) error {
	if store.closed.Load() {
		return ErrClosed
	}

	transaction := store.database.Txn(true)
	defer transaction.Abort()

	rawRecord, lookupError := transaction.First(documentsTableNameConstant, identifierIndexNameConstant, collection, reference.ID)
	if lookupError != nil {
		return fmt.Errorf(lookupErrorTemplateConstant, collection, reference.ID, lookupError)
	}

	mergedFields := map[string]any{}
	if rawRecord != nil {
		// Records are immutable once inserted; merge into a copy.
		maps.Copy(mergedFields, rawRecord.(*documentRecord).Fields)
	}
	maps.Copy(mergedFields, fields)

	record := &documentRecord{Collection: collection, ID: reference.ID, Fields: mergedFields}
	if insertError := transaction.Insert(documentsTableNameConstant, record); insertError != nil {
		return fmt.Errorf(insertErrorTemplateConstant, collection, reference.ID, insertError)
	}
	transaction.Commit()
	return nil
}

// Close marks the store closed. Stored documents are discarded with the store.
func (store *Store) Close() error {
	store.closed.Store(true)
	return nil
}
