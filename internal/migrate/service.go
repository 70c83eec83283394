package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/onboarding-migrator/internal/documentstore"
	"github.com/temirov/onboarding-migrator/internal/utils"
)

const (
	updatedDocumentLineTemplateConstant  = "Updated user: %s"
	completionLineTemplateConstant       = "Done! Updated %d users."
	dryRunDocumentLineTemplateConstant   = "Would update user: %s"
	dryRunCompletionLineTemplateConstant = "Dry run: %d users would be updated."
	storeMissingMessageConstant          = "document store not configured"
	emptyValueMessageConstant            = "must not be empty"
	collectionOptionNameConstant         = "collection"
	fieldOptionNameConstant              = "field"
	consoleWriteErrorTemplateConstant    = "unable to write progress: %w"
	snapshotFetchedMessageConstant       = "Collection snapshot fetched"
	documentUpdatedMessageConstant       = "Document updated"
	documentUpdateFailedMessageConstant  = "Document update failed"
	dryRunPlannedMessageConstant         = "Dry run planned"
	logFieldCollectionConstant           = "collection"
	logFieldFieldNameConstant            = "field"
	logFieldSnapshotSizeConstant         = "snapshot_size"
	logFieldDocumentIDConstant           = "document_id"
	logFieldUpdatedCountConstant         = "updated_count"
	logFieldDocumentPositionConstant     = "position"
)

var errStoreMissing = errors.New(storeMissingMessageConstant)

// MigrationExecutor runs a single backfill.
type MigrationExecutor interface {
	Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error)
}

// ServiceDependencies describes required collaborators for the backfill.
type ServiceDependencies struct {
	Logger *zap.Logger
	Store  documentstore.Store
	Output io.Writer
}

// MigrationOptions configures one backfill run.
type MigrationOptions struct {
	Collection string
	FieldName  string
	DryRun     bool
}

// MigrationResult captures the observable outcomes of a run, including partial progress on failure.
type MigrationResult struct {
	SnapshotSize       int
	UpdatedCount       int
	UpdatedDocumentIDs []string
	DryRun             bool
}

// Service performs the backfill against an explicitly supplied store.
type Service struct {
	logger *zap.Logger
	store  documentstore.Store
	output *utils.FlushingWriter
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Store == nil {
		return nil, errStoreMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger: logger,
		store:  dependencies.Store,
		output: utils.NewFlushingWriter(dependencies.Output),
	}, nil
}

// Execute fetches the collection snapshot once and merge-writes the field into each
// document in snapshot order. Writes are sequential; the first failure ends the run and
// the summary line is only printed when every write succeeded.
func (service *Service) Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error) {
	if validationError := service.validateOptions(options); validationError != nil {
		return MigrationResult{}, validationError
	}

	references, snapshotError := service.store.Snapshot(executionContext, options.Collection)
	if snapshotError != nil {
		return MigrationResult{}, &OperationError{Operation: OperationFetch, Collection: options.Collection, Cause: snapshotError}
	}

	service.logger.Info(
		snapshotFetchedMessageConstant,
		zap.String(logFieldCollectionConstant, options.Collection),
		zap.Int(logFieldSnapshotSizeConstant, len(references)),
	)

	result := MigrationResult{SnapshotSize: len(references), DryRun: options.DryRun}

	if options.DryRun {
		return service.reportDryRun(options, references, result)
	}

	for referenceIndex, reference := range references {
		fields := map[string]any{options.FieldName: true}
		if writeError := service.store.MergeFields(executionContext, options.Collection, reference, fields); writeError != nil {
			service.logger.Error(
				documentUpdateFailedMessageConstant,
				zap.String(logFieldCollectionConstant, options.Collection),
				zap.String(logFieldDocumentIDConstant, reference.ID),
				zap.Int(logFieldDocumentPositionConstant, referenceIndex+1),
				zap.Int(logFieldUpdatedCountConstant, result.UpdatedCount),
				zap.Error(writeError),
			)
			return result, &OperationError{
				Operation:  OperationWrite,
				Collection: options.Collection,
				DocumentID: reference.ID,
				Cause:      writeError,
			}
		}

		result.UpdatedCount++
		result.UpdatedDocumentIDs = append(result.UpdatedDocumentIDs, reference.ID)

		service.logger.Debug(
			documentUpdatedMessageConstant,
			zap.String(logFieldDocumentIDConstant, reference.ID),
			zap.String(logFieldFieldNameConstant, options.FieldName),
		)

		if outputError := service.output.WriteLine(updatedDocumentLineTemplateConstant, reference.ID); outputError != nil {
			return result, fmt.Errorf(consoleWriteErrorTemplateConstant, outputError)
		}
	}

	if outputError := service.output.WriteLine(completionLineTemplateConstant, result.UpdatedCount); outputError != nil {
		return result, fmt.Errorf(consoleWriteErrorTemplateConstant, outputError)
	}

	return result, nil
}

func (service *Service) reportDryRun(options MigrationOptions, references []documentstore.DocumentReference, result MigrationResult) (MigrationResult, error) {
	for _, reference := range references {
		if outputError := service.output.WriteLine(dryRunDocumentLineTemplateConstant, reference.ID); outputError != nil {
			return result, fmt.Errorf(consoleWriteErrorTemplateConstant, outputError)
		}
	}

	service.logger.Info(
		dryRunPlannedMessageConstant,
		zap.String(logFieldCollectionConstant, options.Collection),
		zap.String(logFieldFieldNameConstant, options.FieldName),
		zap.Int(logFieldSnapshotSizeConstant, len(references)),
	)

	if outputError := service.output.WriteLine(dryRunCompletionLineTemplateConstant, len(references)); outputError != nil {
		return result, fmt.Errorf(consoleWriteErrorTemplateConstant, outputError)
	}

	return result, nil
}

func (service *Service) validateOptions(options MigrationOptions) error {
	if len(strings.TrimSpace(options.Collection)) == 0 {
		return InvalidInputError{FieldName: collectionOptionNameConstant, Message: emptyValueMessageConstant}
	}
	if len(strings.TrimSpace(options.FieldName)) == 0 {
		return InvalidInputError{FieldName: fieldOptionNameConstant, Message: emptyValueMessageConstant}
	}
	return nil
}
