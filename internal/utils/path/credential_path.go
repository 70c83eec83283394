// Package pathutils resolves filesystem locations supplied through flags and configuration.
package pathutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	emptyCredentialPathMessageConstant = "credential file path is empty"
)

// ErrEmptyCredentialPath indicates that no credential file location was configured.
var ErrEmptyCredentialPath = errors.New(emptyCredentialPathMessageConstant)

// WorkingDirectoryProvider resolves the directory relative paths are anchored to.
type WorkingDirectoryProvider func() (string, error)

// CredentialPathResolver turns a configured credential location into a clean absolute path.
type CredentialPathResolver struct {
	homeExpander             *HomeExpander
	workingDirectoryProvider WorkingDirectoryProvider
}

// NewCredentialPathResolver constructs a resolver using the operating system lookups.
func NewCredentialPathResolver() *CredentialPathResolver {
	return NewCredentialPathResolverWithProviders(nil, nil)
}

// NewCredentialPathResolverWithProviders constructs a resolver with custom home and working directory providers.
func NewCredentialPathResolverWithProviders(homeExpander *HomeExpander, workingDirectoryProvider WorkingDirectoryProvider) *CredentialPathResolver {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &CredentialPathResolver{
		homeExpander:             homeExpander,
		workingDirectoryProvider: workingDirectoryProvider,
	}
}

// Resolve expands the home shortcut and anchors relative paths to the working directory.
func (resolver *CredentialPathResolver) Resolve(configuredPath string) (string, error) {
	trimmedPath := strings.TrimSpace(configuredPath)
	if len(trimmedPath) == 0 {
		return "", ErrEmptyCredentialPath
	}

	expandedPath := resolver.homeExpander.Expand(trimmedPath)
	if filepath.IsAbs(expandedPath) {
		return filepath.Clean(expandedPath), nil
	}

	workingDirectory, workingDirectoryError := resolver.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}

	return filepath.Join(workingDirectory, expandedPath), nil
}
