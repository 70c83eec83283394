package pathutils_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/onboarding-migrator/internal/utils/path"
)

const (
	testHomeDirectoryConstant    = "/home/operator"
	testWorkingDirectoryConstant = "/srv/migrations"
)

func TestCredentialPathResolverResolve(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		configuredPath        string
		workingDirectoryError error
		expectedPath          string
		expectedError         error
		expectAnyError        bool
	}{
		{
			name:           "relative_path_anchored_to_working_directory",
			configuredPath: "./serviceAccountKey.json",
			expectedPath:   "/srv/migrations/serviceAccountKey.json",
		},
		{
			name:           "home_shortcut_expanded",
			configuredPath: "~/keys/serviceAccountKey.json",
			expectedPath:   "/home/operator/keys/serviceAccountKey.json",
		},
		{
			name:           "absolute_path_cleaned",
			configuredPath: "  /etc/keys/../keys/serviceAccountKey.json ",
			expectedPath:   "/etc/keys/serviceAccountKey.json",
		},
		{
			name:           "named_user_shortcut_left_relative",
			configuredPath: "~other/key.json",
			expectedPath:   "/srv/migrations/~other/key.json",
		},
		{
			name:           "empty_path_rejected",
			configuredPath: "   ",
			expectedError:  pathutils.ErrEmptyCredentialPath,
		},
		{
			name:                  "working_directory_failure_surfaces",
			configuredPath:        "serviceAccountKey.json",
			workingDirectoryError: errors.New("getwd failed"),
			expectAnyError:        true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			homeExpander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
				return testHomeDirectoryConstant, nil
			})
			resolver := pathutils.NewCredentialPathResolverWithProviders(homeExpander, func() (string, error) {
				if testCase.workingDirectoryError != nil {
					return "", testCase.workingDirectoryError
				}
				return testWorkingDirectoryConstant, nil
			})

			resolvedPath, resolveError := resolver.Resolve(testCase.configuredPath)
			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(testInstance, resolveError, testCase.expectedError)
			case testCase.expectAnyError:
				require.Error(testInstance, resolveError)
			default:
				require.NoError(testInstance, resolveError)
				require.Equal(testInstance, testCase.expectedPath, resolvedPath)
			}
		})
	}
}
