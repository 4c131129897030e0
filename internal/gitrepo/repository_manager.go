package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/gitfresh/internal/execshell"
	"github.com/temirov/gitfresh/internal/repos/shared"
)

const (
	gitRevParseSubcommandConstant         = "rev-parse"
	gitVerifyFlagConstant                 = "--verify"
	gitQuietFlagConstant                  = "--quiet"
	gitHeadReferenceConstant              = "HEAD"
	gitLSFilesSubcommandConstant          = "ls-files"
	gitNullTerminatedFlagConstant         = "-z"
	gitCachedFlagConstant                 = "--cached"
	gitOthersFlagConstant                 = "--others"
	gitIgnoredFlagConstant                = "--ignored"
	gitExcludeStandardFlagConstant        = "--exclude-standard"
	gitDirectoryFlagConstant              = "--directory"
	gitLogSubcommandConstant              = "log"
	gitSingleCommitFlagConstant           = "-1"
	gitCommitTimestampFormatFlagConstant  = "--format=%ct"
	gitPathspecSeparatorConstant          = "--"
	gitLiteralPathspecsVariableConstant   = "GIT_LITERAL_PATHSPECS"
	gitTerminalPromptVariableConstant     = "GIT_TERMINAL_PROMPT"
	gitOptionalLocksVariableConstant      = "GIT_OPTIONAL_LOCKS"
	enabledEnvironmentValueConstant       = "1"
	disabledEnvironmentValueConstant      = "0"
	nullSeparatorConstant                 = "\x00"
	directoryListingSuffixConstant        = "/"
	commitTimestampParseErrorTemplate     = "%w: %q"
	repositoryQueryErrorTemplateConstant  = "%s in %s: %w"
	hasCommitsOperationNameConstant       = "check commits"
	listTrackedOperationNameConstant      = "list tracked paths"
	listIgnoredOperationNameConstant      = "list ignored paths"
	lastCommitTimeOperationNameConstant   = "read last commit time"
	repositoryRootPathspecConstant        = "."
	relativePathSeparatorTrimCharacterSet = "/"
)

var (
	// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
	ErrGitExecutorNotConfigured = errors.New("git executor not configured")
	// ErrMalformedCommitTimestamp indicates git printed something other than a unix timestamp.
	ErrMalformedCommitTimestamp = errors.New("malformed commit timestamp")
)

// RepositoryManager answers version control queries by running git in the repository root.
type RepositoryManager struct {
	executor shared.GitExecutor
}

// NewRepositoryManager constructs a manager backed by the provided executor.
func NewRepositoryManager(executor shared.GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// HasCommits reports whether HEAD resolves to a commit. An unborn HEAD yields false without an error.
func (manager *RepositoryManager) HasCommits(executionContext context.Context, repositoryRoot string) (bool, error) {
	_, executionError := manager.runGit(executionContext, repositoryRoot, []string{gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, gitHeadReferenceConstant})
	if executionError == nil {
		return true, nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		return false, nil
	}
	return false, fmt.Errorf(repositoryQueryErrorTemplateConstant, hasCommitsOperationNameConstant, repositoryRoot, executionError)
}

// ListTrackedPaths returns the paths recorded in the index, relative to the repository root with forward slashes.
func (manager *RepositoryManager) ListTrackedPaths(executionContext context.Context, repositoryRoot string) ([]string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryRoot, []string{gitLSFilesSubcommandConstant, gitNullTerminatedFlagConstant})
	if executionError != nil {
		return nil, fmt.Errorf(repositoryQueryErrorTemplateConstant, listTrackedOperationNameConstant, repositoryRoot, executionError)
	}
	return splitNullSeparated(executionResult.StandardOutput), nil
}

// ListIgnoredPaths returns paths matched by the repository ignore rules.
// Untracked ignored directories are collapsed to the directory itself; tracked files matching an ignore rule are listed individually.
func (manager *RepositoryManager) ListIgnoredPaths(executionContext context.Context, repositoryRoot string) ([]string, error) {
	untrackedResult, untrackedError := manager.runGit(executionContext, repositoryRoot, []string{
		gitLSFilesSubcommandConstant, gitNullTerminatedFlagConstant, gitOthersFlagConstant, gitIgnoredFlagConstant, gitExcludeStandardFlagConstant, gitDirectoryFlagConstant,
	})
	if untrackedError != nil {
		return nil, fmt.Errorf(repositoryQueryErrorTemplateConstant, listIgnoredOperationNameConstant, repositoryRoot, untrackedError)
	}

	trackedResult, trackedError := manager.runGit(executionContext, repositoryRoot, []string{
		gitLSFilesSubcommandConstant, gitNullTerminatedFlagConstant, gitCachedFlagConstant, gitIgnoredFlagConstant, gitExcludeStandardFlagConstant,
	})
	if trackedError != nil {
		return nil, fmt.Errorf(repositoryQueryErrorTemplateConstant, listIgnoredOperationNameConstant, repositoryRoot, trackedError)
	}

	seenPaths := make(map[string]struct{})
	ignoredPaths := make([]string, 0)
	for _, listedPath := range append(splitNullSeparated(untrackedResult.StandardOutput), splitNullSeparated(trackedResult.StandardOutput)...) {
		normalizedPath := strings.TrimSuffix(listedPath, directoryListingSuffixConstant)
		if len(normalizedPath) == 0 {
			continue
		}
		if _, seen := seenPaths[normalizedPath]; seen {
			continue
		}
		seenPaths[normalizedPath] = struct{}{}
		ignoredPaths = append(ignoredPaths, normalizedPath)
	}
	return ignoredPaths, nil
}

// LastCommitTime returns the committer time of the newest commit touching relativePath.
// An empty relative path addresses the whole repository. Directories cover their entire subtree.
func (manager *RepositoryManager) LastCommitTime(executionContext context.Context, repositoryRoot string, relativePath string) (time.Time, bool, error) {
	arguments := []string{gitLogSubcommandConstant, gitSingleCommitFlagConstant, gitCommitTimestampFormatFlagConstant}
	trimmedPath := strings.Trim(relativePath, relativePathSeparatorTrimCharacterSet)
	if len(trimmedPath) > 0 && trimmedPath != repositoryRootPathspecConstant {
		arguments = append(arguments, gitPathspecSeparatorConstant, trimmedPath)
	}

	executionResult, executionError := manager.runGit(executionContext, repositoryRoot, arguments)
	if executionError != nil {
		return time.Time{}, false, fmt.Errorf(repositoryQueryErrorTemplateConstant, lastCommitTimeOperationNameConstant, repositoryRoot, executionError)
	}

	timestampText := strings.TrimSpace(executionResult.StandardOutput)
	if len(timestampText) == 0 {
		return time.Time{}, false, nil
	}

	unixSeconds, parseError := strconv.ParseInt(timestampText, 10, 64)
	if parseError != nil {
		return time.Time{}, false, fmt.Errorf(commitTimestampParseErrorTemplate, ErrMalformedCommitTimestamp, timestampText)
	}
	return time.Unix(unixSeconds, 0), true, nil
}

func (manager *RepositoryManager) runGit(executionContext context.Context, repositoryRoot string, arguments []string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryRoot,
		EnvironmentVariables: map[string]string{
			gitLiteralPathspecsVariableConstant: enabledEnvironmentValueConstant,
			gitTerminalPromptVariableConstant:   disabledEnvironmentValueConstant,
			gitOptionalLocksVariableConstant:    disabledEnvironmentValueConstant,
		},
	})
}

func splitNullSeparated(output string) []string {
	entries := strings.Split(output, nullSeparatorConstant)
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if len(entry) == 0 {
			continue
		}
		paths = append(paths, entry)
	}
	return paths
}
