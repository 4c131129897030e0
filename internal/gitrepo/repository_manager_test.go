package gitrepo_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfresh/internal/execshell"
	"github.com/temirov/gitfresh/internal/gitrepo"
)

const (
	testRepositoryRootConstant = "/workspace/project"
)

type scriptedGitExecutor struct {
	responses       map[string]execshell.ExecutionResult
	failures        map[string]error
	recordedDetails []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	commandKey := strings.Join(details.Arguments, " ")
	if failure, exists := executor.failures[commandKey]; exists {
		return execshell.ExecutionResult{}, failure
	}
	return executor.responses[commandKey], nil
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
	require.Nil(testInstance, manager)
}

func TestRepositoryManagerHasCommits(testInstance *testing.T) {
	const revParseCommand = "rev-parse --verify --quiet HEAD"

	testCases := []struct {
		name          string
		failure       error
		expectCommits bool
		expectError   bool
	}{
		{name: "head_resolves", expectCommits: true},
		{name: "unborn_head", failure: execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 1}}},
		{name: "execution_failure", failure: execshell.CommandExecutionError{Cause: errors.New("git missing")}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{failures: map[string]error{}}
			if testCase.failure != nil {
				executor.failures[revParseCommand] = testCase.failure
			}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			hasCommits, queryError := manager.HasCommits(context.Background(), testRepositoryRootConstant)
			if testCase.expectError {
				require.Error(testInstance, queryError)
				return
			}
			require.NoError(testInstance, queryError)
			require.Equal(testInstance, testCase.expectCommits, hasCommits)
			require.Equal(testInstance, testRepositoryRootConstant, executor.recordedDetails[0].WorkingDirectory)
		})
	}
}

func TestRepositoryManagerListsTrackedAndIgnoredPaths(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"ls-files -z": {StandardOutput: "README.md\x00src/main.go\x00dir with space/file\nname.txt\x00"},
			"ls-files -z --others --ignored --exclude-standard --directory": {StandardOutput: "build/\x00debug.log\x00"},
			"ls-files -z --cached --ignored --exclude-standard":             {StandardOutput: "debug.log\x00vendor/keep.txt\x00"},
		},
	}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	trackedPaths, trackedError := manager.ListTrackedPaths(context.Background(), testRepositoryRootConstant)
	require.NoError(testInstance, trackedError)
	require.Equal(testInstance, []string{"README.md", "src/main.go", "dir with space/file\nname.txt"}, trackedPaths)

	ignoredPaths, ignoredError := manager.ListIgnoredPaths(context.Background(), testRepositoryRootConstant)
	require.NoError(testInstance, ignoredError)
	require.Equal(testInstance, []string{"build", "debug.log", "vendor/keep.txt"}, ignoredPaths)
}

func TestRepositoryManagerLastCommitTime(testInstance *testing.T) {
	testCases := []struct {
		name             string
		relativePath     string
		expectedCommand  string
		output           string
		expectFound      bool
		expectedUnixTime int64
		expectError      error
	}{
		{
			name:             "file_with_history",
			relativePath:     "src/main.go",
			expectedCommand:  "log -1 --format=%ct -- src/main.go",
			output:           "1714564800\n",
			expectFound:      true,
			expectedUnixTime: 1714564800,
		},
		{
			name:            "path_without_history",
			relativePath:    "notes.txt",
			expectedCommand: "log -1 --format=%ct -- notes.txt",
			output:          "",
		},
		{
			name:             "repository_root",
			relativePath:     "",
			expectedCommand:  "log -1 --format=%ct",
			output:           "1700000000",
			expectFound:      true,
			expectedUnixTime: 1700000000,
		},
		{
			name:            "malformed_output",
			relativePath:    "src",
			expectedCommand: "log -1 --format=%ct -- src",
			output:          "yesterday",
			expectError:     gitrepo.ErrMalformedCommitTimestamp,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{
				responses: map[string]execshell.ExecutionResult{
					testCase.expectedCommand: {StandardOutput: testCase.output},
				},
			}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			commitTime, found, queryError := manager.LastCommitTime(context.Background(), testRepositoryRootConstant, testCase.relativePath)
			require.Len(testInstance, executor.recordedDetails, 1)
			require.Equal(testInstance, testCase.expectedCommand, strings.Join(executor.recordedDetails[0].Arguments, " "))
			require.Equal(testInstance, "1", executor.recordedDetails[0].EnvironmentVariables["GIT_LITERAL_PATHSPECS"])

			if testCase.expectError != nil {
				require.ErrorIs(testInstance, queryError, testCase.expectError)
				return
			}
			require.NoError(testInstance, queryError)
			require.Equal(testInstance, testCase.expectFound, found)
			if testCase.expectFound {
				require.True(testInstance, commitTime.Equal(time.Unix(testCase.expectedUnixTime, 0)))
			}
		})
	}
}
