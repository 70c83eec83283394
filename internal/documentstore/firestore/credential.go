package firestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	serviceAccountTypeConstant             = "service_account"
	credentialReadErrorTemplateConstant    = "unable to read credential file %s: %w"
	credentialParseErrorTemplateConstant   = "credential file %s is not valid JSON: %w"
	credentialTypeErrorTemplateConstant    = "credential file %s has type %q, expected %q"
	credentialFieldMissingTemplateConstant = "credential file %s is missing %s"
	projectIDFieldNameConstant             = "project_id"
	clientEmailFieldNameConstant           = "client_email"
	privateKeyFieldNameConstant            = "private_key"
)

// ErrInvalidCredential marks credential files that exist but cannot authenticate a service account.
var ErrInvalidCredential = errors.New("invalid service account credential")

// ServiceAccount holds the service account fields the migrator relies on.
// The file itself is handed to the Google client libraries unchanged.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// LoadServiceAccount reads and validates a service account key file.
func LoadServiceAccount(credentialFilePath string) (ServiceAccount, error) {
	contents, readError := os.ReadFile(credentialFilePath)
	if readError != nil {
		return ServiceAccount{}, fmt.Errorf(credentialReadErrorTemplateConstant, credentialFilePath, readError)
	}

	var account ServiceAccount
	if parseError := json.Unmarshal(contents, &account); parseError != nil {
		return ServiceAccount{}, fmt.Errorf(credentialParseErrorTemplateConstant, credentialFilePath, errors.Join(ErrInvalidCredential, parseError))
	}

	if account.Type != serviceAccountTypeConstant {
		return ServiceAccount{}, fmt.Errorf("%w: "+credentialTypeErrorTemplateConstant, ErrInvalidCredential, credentialFilePath, account.Type, serviceAccountTypeConstant)
	}

	requiredFields := []struct {
		name  string
		value string
	}{
		{name: projectIDFieldNameConstant, value: account.ProjectID},
		{name: clientEmailFieldNameConstant, value: account.ClientEmail},
		{name: privateKeyFieldNameConstant, value: account.PrivateKey},
	}
	for _, requiredField := range requiredFields {
		if len(strings.TrimSpace(requiredField.value)) == 0 {
			return ServiceAccount{}, fmt.Errorf("%w: "+credentialFieldMissingTemplateConstant, ErrInvalidCredential, credentialFilePath, requiredField.name)
		}
	}

	return account, nil
}
