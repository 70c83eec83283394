package migrate

import (
	"strings"

	"github.com/temirov/onboarding-migrator/internal/documentstore"
)

const (
	defaultBackendConstant         = string(documentstore.BackendFirestore)
	defaultCollectionConstant      = "users"
	defaultFieldNameConstant       = "hasCompletedOnboarding"
	defaultCredentialsFileConstant = "./serviceAccountKey.json"
	defaultDatabaseIDConstant      = "(default)"

	configurationKeyBackend         = "backend"
	configurationKeyCollection      = "collection"
	configurationKeyField           = "field"
	configurationKeyCredentialsFile = "credentials_file"
	configurationKeyProjectID       = "project_id"
	configurationKeyDatabaseID      = "database_id"
	configurationKeyMongoURI        = "mongo_uri"
	configurationKeyMongoDatabase   = "mongo_database"
	configurationKeyDryRun          = "dry_run"
	configurationKeyMemoryFixture   = "memory_fixture"
	configurationKeySeparator       = "."
)

// CommandConfiguration captures persisted configuration for the onboarding backfill.
type CommandConfiguration struct {
	Backend         string `mapstructure:"backend"`
	Collection      string `mapstructure:"collection"`
	FieldName       string `mapstructure:"field"`
	CredentialsFile string `mapstructure:"credentials_file"`
	ProjectID       string `mapstructure:"project_id"`
	DatabaseID      string `mapstructure:"database_id"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	DryRun          bool   `mapstructure:"dry_run"`
	MemoryFixture   string `mapstructure:"memory_fixture"`
}

// DefaultCommandConfiguration targets hasCompletedOnboarding in the users collection.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Backend:         defaultBackendConstant,
		Collection:      defaultCollectionConstant,
		FieldName:       defaultFieldNameConstant,
		CredentialsFile: defaultCredentialsFileConstant,
		DatabaseID:      defaultDatabaseIDConstant,
	}
}

// DefaultConfigurationValues exposes defaults as flat Viper keys beneath the provided prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	values := map[string]any{
		configurationKeyBackend:         defaults.Backend,
		configurationKeyCollection:      defaults.Collection,
		configurationKeyField:           defaults.FieldName,
		configurationKeyCredentialsFile: defaults.CredentialsFile,
		configurationKeyProjectID:       defaults.ProjectID,
		configurationKeyDatabaseID:      defaults.DatabaseID,
		configurationKeyMongoURI:        defaults.MongoURI,
		configurationKeyMongoDatabase:   defaults.MongoDatabase,
		configurationKeyDryRun:          defaults.DryRun,
		configurationKeyMemoryFixture:   defaults.MemoryFixture,
	}

	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return values
	}

	prefixed := make(map[string]any, len(values))
	for key, value := range values {
		prefixed[trimmedPrefix+configurationKeySeparator+key] = value
	}
	return prefixed
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.Backend = valueOrDefault(configuration.Backend, defaults.Backend)
	sanitized.Collection = valueOrDefault(configuration.Collection, defaults.Collection)
	sanitized.FieldName = valueOrDefault(configuration.FieldName, defaults.FieldName)
	sanitized.CredentialsFile = valueOrDefault(configuration.CredentialsFile, defaults.CredentialsFile)
	sanitized.DatabaseID = valueOrDefault(configuration.DatabaseID, defaults.DatabaseID)
	sanitized.ProjectID = strings.TrimSpace(configuration.ProjectID)
	sanitized.MongoURI = strings.TrimSpace(configuration.MongoURI)
	sanitized.MongoDatabase = strings.TrimSpace(configuration.MongoDatabase)
	sanitized.MemoryFixture = strings.TrimSpace(configuration.MemoryFixture)

	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
