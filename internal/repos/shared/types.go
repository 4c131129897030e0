package shared

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"strings"
	"time"

	"github.com/temirov/gitfresh/internal/execshell"
)

const (
	repositoryPathEmptyMessageConstant         = "repository path is empty"
	repositoryPathControlCharacterTemplateText = "repository path %q contains control characters"
)

// ErrInvalidRepositoryPath indicates a repository root that cannot be used.
var ErrInvalidRepositoryPath = errors.New("invalid repository path")

// RepositoryRef identifies a discovered repository by the directory containing its metadata.
type RepositoryRef struct {
	RootPath string
}

// NewRepositoryRef validates and normalizes a repository root path.
func NewRepositoryRef(rootPath string) (RepositoryRef, error) {
	trimmedPath := strings.TrimSpace(rootPath)
	if len(trimmedPath) == 0 {
		return RepositoryRef{}, fmt.Errorf("%w: %s", ErrInvalidRepositoryPath, repositoryPathEmptyMessageConstant)
	}
	if strings.ContainsAny(trimmedPath, "\n\r\x00") {
		return RepositoryRef{}, fmt.Errorf("%w: "+repositoryPathControlCharacterTemplateText, ErrInvalidRepositoryPath, trimmedPath)
	}
	return RepositoryRef{RootPath: trimmedPath}, nil
}

// String returns the repository root path.
func (reference RepositoryRef) String() string {
	return reference.RootPath
}

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem exposes filesystem operations required by discovery, scanning, and report persistence.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	Rename(oldPath string, newPath string) error
	Remove(path string) error
	Abs(path string) (string, error)
	EvalSymlinks(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// VersionControl answers the repository queries a freshness scan depends on.
type VersionControl interface {
	HasCommits(executionContext context.Context, repositoryRoot string) (bool, error)
	ListTrackedPaths(executionContext context.Context, repositoryRoot string) ([]string, error)
	ListIgnoredPaths(executionContext context.Context, repositoryRoot string) ([]string, error)
	// LastCommitTime reports the commit time of the newest commit touching relativePath.
	// The boolean is false when the path has no history.
	LastCommitTime(executionContext context.Context, repositoryRoot string, relativePath string) (time.Time, bool, error)
}

// RepositoryDiscoverer locates repositories beneath a base directory.
type RepositoryDiscoverer interface {
	Discover(baseDirectory string) (iter.Seq[RepositoryRef], error)
}

// ScanEventObserver receives per-target progress notifications during a scan.
type ScanEventObserver interface {
	TargetStarted(targetRoot string, mode string)
	TargetCompleted(targetRoot string, mode string, entryCount int)
	TargetSkipped(targetRoot string, reason string)
}
