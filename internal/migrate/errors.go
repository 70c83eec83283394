package migrate

import "fmt"

const (
	initializationErrorTemplateConstant = "initialization failed (%s): %v"
	fetchErrorTemplateConstant          = "%s %s failed: %v"
	writeErrorTemplateConstant          = "%s %s/%s failed: %v"
	invalidInputErrorTemplateConstant   = "%s: %s"
)

// InitializationStage names the setup step that failed before any document was touched.
type InitializationStage string

// Initialization stages.
const (
	InitializationStageCredentials InitializationStage = "credentials"
	InitializationStageBackend     InitializationStage = "backend"
	InitializationStageClient      InitializationStage = "client"
	InitializationStageFixture     InitializationStage = "fixture"
)

// InitializationError reports a failure to load credentials or construct the database client.
// No fetch or write has been issued when it is returned.
type InitializationError struct {
	Stage InitializationStage
	Cause error
}

// Error describes the failed stage.
func (initializationError *InitializationError) Error() string {
	return fmt.Sprintf(initializationErrorTemplateConstant, initializationError.Stage, initializationError.Cause)
}

// Unwrap exposes the underlying cause.
func (initializationError *InitializationError) Unwrap() error {
	return initializationError.Cause
}

// Operation names the network call that failed mid-run.
type Operation string

// Operations issued by the migration.
const (
	OperationFetch Operation = "fetch"
	OperationWrite Operation = "write"
)

// OperationError reports a failed fetch or write. Documents written before the failure stay written.
type OperationError struct {
	Operation  Operation
	Collection string
	DocumentID string
	Cause      error
}

// Error describes the failed call.
func (operationError *OperationError) Error() string {
	if operationError.Operation == OperationWrite {
		return fmt.Sprintf(writeErrorTemplateConstant, operationError.Operation, operationError.Collection, operationError.DocumentID, operationError.Cause)
	}
	return fmt.Sprintf(fetchErrorTemplateConstant, operationError.Operation, operationError.Collection, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError *OperationError) Unwrap() error {
	return operationError.Cause
}

// InvalidInputError describes migration option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}
