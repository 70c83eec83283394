// Package mongo implements documentstore.Store against MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/temirov/onboarding-migrator/internal/documentstore"
)

const (
	defaultConnectTimeoutConstant = 10 * time.Second

	identifierFieldNameConstant = "_id"
	setOperatorConstant         = "$set"

	connectErrorTemplateConstant   = "unable to connect to MongoDB: %w"
	pingErrorTemplateConstant      = "unable to reach MongoDB: %w"
	findErrorTemplateConstant      = "unable to list documents in %s: %w"
	decodeErrorTemplateConstant    = "unable to decode document ids in %s: %w"
	updateErrorTemplateConstant    = "unable to merge fields into %s/%s: %w"
	missingURIMessageConstant      = "MongoDB connection URI is empty"
	missingDatabaseMessageConstant = "MongoDB database name is empty"
)

var (
	// ErrMissingURI is returned by Open when no connection URI is configured.
	ErrMissingURI = errors.New(missingURIMessageConstant)
	// ErrMissingDatabase is returned by Open when no database name is configured.
	ErrMissingDatabase = errors.New(missingDatabaseMessageConstant)
)

// Configuration selects the MongoDB deployment and database.
type Configuration struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Store is a documentstore.Store backed by one MongoDB database.
type Store struct {
	client         *mongo.Client
	database       *mongo.Database
	connectTimeout time.Duration
}

var _ documentstore.Store = (*Store)(nil)

type identifierRow struct {
	ID any `bson:"_id"`
}

// Open connects to MongoDB and verifies the deployment responds to a ping.
func Open(executionContext context.Context, configuration Configuration) (*Store, error) {
	connectionURI := strings.TrimSpace(configuration.URI)
	if len(connectionURI) == 0 {
		return nil, ErrMissingURI
	}
	databaseName := strings.TrimSpace(configuration.Database)
	if len(databaseName) == 0 {
		return nil, ErrMissingDatabase
	}

	connectTimeout := configuration.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeoutConstant
	}

	client, connectError := mongo.Connect(options.Client().ApplyURI(connectionURI).SetConnectTimeout(connectTimeout))
	if connectError != nil {
		return nil, fmt.Errorf(connectErrorTemplateConstant, connectError)
	}

	pingContext, cancelPing := context.WithTimeout(executionContext, connectTimeout)
	defer cancelPing()
	if pingError := client.Ping(pingContext, nil); pingError != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf(pingErrorTemplateConstant, pingError)
	}

	return &Store{
		client:         client,
		database:       client.Database(databaseName),
		connectTimeout: connectTimeout,
	}, nil
}

// Snapshot reads every _id in the collection, sorted ascending, before returning.
func (store *Store) Snapshot(executionContext context.Context, collection string) ([]documentstore.DocumentReference, error) {
	findOptions := options.Find().
		SetProjection(bson.D{{Key: identifierFieldNameConstant, Value: 1}}).
		SetSort(bson.D{{Key: identifierFieldNameConstant, Value: 1}})

	cursor, findError := store.database.Collection(collection).Find(executionContext, bson.D{}, findOptions)
	if findError != nil {
		return nil, fmt.Errorf(findErrorTemplateConstant, collection, findError)
	}

	var rows []identifierRow
	if decodeError := cursor.All(executionContext, &rows); decodeError != nil {
		return nil, fmt.Errorf(decodeErrorTemplateConstant, collection, decodeError)
	}

	references := make([]documentstore.DocumentReference, 0, len(rows))
	for _, row := range rows {
		references = append(references, documentstore.DocumentReference{
			ID:  FormatDocumentID(row.ID),
			Key: row.ID,
		})
	}
	return references, nil
}

// MergeFields applies $set with upsert, matching the document by its native _id.
func (store *Store) MergeFields(executionContext context.Context, collection string, reference documentstore.DocumentReference, fields map[string]any) error {
	var documentKey any = reference.ID
	if reference.Key != nil {
		documentKey = reference.Key
	}

	_, updateError := store.database.Collection(collection).UpdateOne(
		executionContext,
		bson.D{{Key: identifierFieldNameConstant, Value: documentKey}},
		bson.D{{Key: setOperatorConstant, Value: bson.M(fields)}},
		options.UpdateOne().SetUpsert(true),
	)
	if updateError != nil {
		return fmt.Errorf(updateErrorTemplateConstant, collection, reference.ID, updateError)
	}
	return nil
}

// Close disconnects the client.
func (store *Store) Close() error {
	disconnectContext, cancelDisconnect := context.WithTimeout(context.Background(), store.connectTimeout)
	defer cancelDisconnect()
	return store.client.Disconnect(disconnectContext)
}

// FormatDocumentID renders a native _id value the way operators see it in the shell.
func FormatDocumentID(documentID any) string {
	switch typedDocumentID := documentID.(type) {
	case bson.ObjectID:
		return typedDocumentID.Hex()
	case string:
		return typedDocumentID
	case nil:
		return ""
	default:
		return fmt.Sprint(typedDocumentID)
	}
}
