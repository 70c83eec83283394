package migrate

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/onboarding-migrator/internal/utils"
)

const (
	commandUseConstant                  = "users-onboarding"
	commandShortDescriptionConstant     = "Mark every user as having completed onboarding"
	commandLongDescriptionConstant      = "users-onboarding snapshots the users collection and merge-writes hasCompletedOnboarding=true into every document, one write at a time. Existing fields are preserved and re-running is safe."
	credentialsFlagNameConstant         = "credentials"
	credentialsFlagUsageConstant        = "Path to the service account key file"
	projectFlagNameConstant             = "project"
	projectFlagUsageConstant            = "Firestore project ID (defaults to the credential's project_id)"
	databaseFlagNameConstant            = "database"
	databaseFlagUsageConstant           = "Firestore database ID"
	collectionFlagNameConstant          = "collection"
	collectionFlagUsageConstant         = "Collection to backfill"
	fieldFlagNameConstant               = "field"
	fieldFlagUsageConstant              = "Boolean field set to true on every document"
	backendFlagNameConstant             = "backend"
	backendFlagUsageConstant            = "Document store backend (firestore, mongo, or memory)"
	mongoURIFlagNameConstant            = "mongo-uri"
	mongoURIFlagUsageConstant           = "MongoDB connection URI (mongo backend)"
	mongoDatabaseFlagNameConstant       = "mongo-database"
	mongoDatabaseFlagUsageConstant      = "MongoDB database name (mongo backend)"
	memoryFixtureFlagNameConstant       = "memory-fixture"
	memoryFixtureFlagUsageConstant      = "YAML or JSON file seeding the memory backend (collection -> document ID -> fields)"
	dryRunFlagNameConstant              = "dry-run"
	dryRunFlagUsageConstant             = "List the documents that would be updated without writing"
	migrationStartedMessageConstant     = "Onboarding backfill started"
	migrationCompletedMessageConstant   = "Onboarding backfill completed"
	migrationFailedMessageConstant      = "Onboarding backfill failed"
	initializationFailedMessageConstant = "Document store initialization failed"
	storeCloseFailedMessageConstant     = "Document store close failed"
	logFieldRunIDConstant               = "run_id"
	logFieldBackendConstant             = "backend"
	logFieldDryRunConstant              = "dry_run"
	logFieldStageConstant               = "stage"
	logFieldConfigFileConstant          = "config_file"
	logFieldLogLevelConstant            = "log_level"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs a migration executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (MigrationExecutor, error)

type commandOptions struct {
	storeOptions     StoreOptions
	migrationOptions MigrationOptions
}

// CommandBuilder assembles the users-onboarding Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	StoreProvider         StoreProvider
	ServiceProvider       ServiceProvider
}

// Build constructs the users-onboarding command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(credentialsFlagNameConstant, defaults.CredentialsFile, credentialsFlagUsageConstant)
	command.Flags().String(projectFlagNameConstant, defaults.ProjectID, projectFlagUsageConstant)
	command.Flags().String(databaseFlagNameConstant, defaults.DatabaseID, databaseFlagUsageConstant)
	command.Flags().String(collectionFlagNameConstant, defaults.Collection, collectionFlagUsageConstant)
	command.Flags().String(fieldFlagNameConstant, defaults.FieldName, fieldFlagUsageConstant)
	command.Flags().String(backendFlagNameConstant, defaults.Backend, backendFlagUsageConstant)
	command.Flags().String(mongoURIFlagNameConstant, defaults.MongoURI, mongoURIFlagUsageConstant)
	command.Flags().String(mongoDatabaseFlagNameConstant, defaults.MongoDatabase, mongoDatabaseFlagUsageConstant)
	command.Flags().String(memoryFixtureFlagNameConstant, defaults.MemoryFixture, memoryFixtureFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, defaults.DryRun, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command)

	logger := builder.resolveLogger().With(builder.runFields(command, options)...)

	logger.Info(
		migrationStartedMessageConstant,
		zap.String(logFieldCollectionConstant, options.migrationOptions.Collection),
		zap.String(logFieldFieldNameConstant, options.migrationOptions.FieldName),
		zap.Bool(logFieldDryRunConstant, options.migrationOptions.DryRun),
	)

	store, storeError := builder.resolveStoreProvider()(command.Context(), options.storeOptions)
	if storeError != nil {
		var initializationError *InitializationError
		if !errors.As(storeError, &initializationError) {
			initializationError = &InitializationError{Stage: InitializationStageClient, Cause: storeError}
		}
		logger.Error(
			initializationFailedMessageConstant,
			zap.String(logFieldStageConstant, string(initializationError.Stage)),
			zap.Error(initializationError.Cause),
		)
		return initializationError
	}
	defer func() {
		if closeError := store.Close(); closeError != nil {
			logger.Warn(storeCloseFailedMessageConstant, zap.Error(closeError))
		}
	}()

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger: logger,
		Store:  store,
		Output: command.OutOrStdout(),
	})
	if serviceError != nil {
		return serviceError
	}

	result, executionError := service.Execute(command.Context(), options.migrationOptions)
	if executionError != nil {
		logger.Error(
			migrationFailedMessageConstant,
			zap.Int(logFieldSnapshotSizeConstant, result.SnapshotSize),
			zap.Int(logFieldUpdatedCountConstant, result.UpdatedCount),
			zap.Error(executionError),
		)
		return executionError
	}

	logger.Info(
		migrationCompletedMessageConstant,
		zap.Int(logFieldSnapshotSizeConstant, result.SnapshotSize),
		zap.Int(logFieldUpdatedCountConstant, result.UpdatedCount),
		zap.Bool(logFieldDryRunConstant, result.DryRun),
	)

	return nil
}

func (builder *CommandBuilder) runFields(command *cobra.Command, options commandOptions) []zap.Field {
	runFields := []zap.Field{
		zap.String(logFieldRunIDConstant, uuid.NewString()),
		zap.String(logFieldBackendConstant, options.storeOptions.Backend),
	}

	contextAccessor := utils.NewCommandContextAccessor()
	executionContext := command.Context()
	if configurationFilePath, found := contextAccessor.ConfigurationFilePath(executionContext); found && len(configurationFilePath) > 0 {
		runFields = append(runFields, zap.String(logFieldConfigFileConstant, configurationFilePath))
	}
	if logLevel, found := contextAccessor.LogLevel(executionContext); found && len(logLevel) > 0 {
		runFields = append(runFields, zap.String(logFieldLogLevelConstant, logLevel))
	}

	return runFields
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) commandOptions {
	configuration := builder.resolveConfiguration()

	if command != nil {
		flagSet := command.Flags()
		overrideString := func(flagName string, target *string) {
			if !flagSet.Changed(flagName) {
				return
			}
			if flagValue, flagError := flagSet.GetString(flagName); flagError == nil {
				*target = flagValue
			}
		}
		overrideString(credentialsFlagNameConstant, &configuration.CredentialsFile)
		overrideString(projectFlagNameConstant, &configuration.ProjectID)
		overrideString(databaseFlagNameConstant, &configuration.DatabaseID)
		overrideString(collectionFlagNameConstant, &configuration.Collection)
		overrideString(fieldFlagNameConstant, &configuration.FieldName)
		overrideString(backendFlagNameConstant, &configuration.Backend)
		overrideString(mongoURIFlagNameConstant, &configuration.MongoURI)
		overrideString(mongoDatabaseFlagNameConstant, &configuration.MongoDatabase)
		overrideString(memoryFixtureFlagNameConstant, &configuration.MemoryFixture)

		if flagSet.Changed(dryRunFlagNameConstant) {
			if dryRunValue, flagError := flagSet.GetBool(dryRunFlagNameConstant); flagError == nil {
				configuration.DryRun = dryRunValue
			}
		}

		configuration = configuration.Sanitize()
	}

	return commandOptions{
		storeOptions: StoreOptions{
			Backend:         strings.ToLower(configuration.Backend),
			CredentialsFile: configuration.CredentialsFile,
			ProjectID:       configuration.ProjectID,
			DatabaseID:      configuration.DatabaseID,
			MongoURI:        configuration.MongoURI,
			MongoDatabase:   configuration.MongoDatabase,
			MemoryFixture:   configuration.MemoryFixture,
		},
		migrationOptions: MigrationOptions{
			Collection: configuration.Collection,
			FieldName:  configuration.FieldName,
			DryRun:     configuration.DryRun,
		},
	}
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveStoreProvider() StoreProvider {
	if builder.StoreProvider != nil {
		return builder.StoreProvider
	}
	return OpenStore
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (MigrationExecutor, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}
