package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/gitfresh/internal/gitrepo"
	"github.com/temirov/gitfresh/internal/repos/shared"
)

const (
	gitMetadataDirectoryNameConstant = ".git"
	notADirectoryErrorTemplate       = "%w: %s"
	directoryLogFieldNameConstant    = "directory"
	unreadableDirectoryLogMessage    = "Skipping unreadable directory during repository discovery"
)

// ErrNotADirectory indicates the discovery base is missing or is not a directory.
var ErrNotADirectory = errors.New("not a directory")

// FilesystemRepositoryDiscoverer locates git repositories on disk.
type FilesystemRepositoryDiscoverer struct {
	fileSystem     shared.FileSystem
	rootInspector  *gitrepo.RootInspector
	followSymlinks bool
	logger         *zap.Logger
}

// NewFilesystemRepositoryDiscoverer constructs a discoverer reading directories through the provided filesystem.
func NewFilesystemRepositoryDiscoverer(fileSystem shared.FileSystem, logger *zap.Logger, followSymlinks bool) *FilesystemRepositoryDiscoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemRepositoryDiscoverer{
		fileSystem:     fileSystem,
		rootInspector:  gitrepo.NewRootInspector(fileSystem),
		followSymlinks: followSymlinks,
		logger:         logger,
	}
}

// Discover returns the repositories beneath baseDirectory in lexicographic walk order.
// When the base itself is a repository it is the only result. Repositories are never descended into,
// so nested repositories are not reported. Each iteration of the returned sequence walks the tree afresh.
func (discoverer *FilesystemRepositoryDiscoverer) Discover(baseDirectory string) (iter.Seq[shared.RepositoryRef], error) {
	absoluteBase, absoluteError := discoverer.fileSystem.Abs(baseDirectory)
	if absoluteError != nil {
		return nil, fmt.Errorf(notADirectoryErrorTemplate, ErrNotADirectory, baseDirectory)
	}

	baseInfo, statError := discoverer.fileSystem.Stat(absoluteBase)
	if statError != nil || !baseInfo.IsDir() {
		return nil, fmt.Errorf(notADirectoryErrorTemplate, ErrNotADirectory, absoluteBase)
	}

	return func(yield func(shared.RepositoryRef) bool) {
		walker := &repositoryWalker{discoverer: discoverer, visitedDirectories: make(map[string]struct{})}
		walker.walk(absoluteBase, yield)
	}, nil
}

type repositoryWalker struct {
	discoverer         *FilesystemRepositoryDiscoverer
	visitedDirectories map[string]struct{}
}

// walk returns false once the consumer stops the iteration.
func (walker *repositoryWalker) walk(directoryPath string, yield func(shared.RepositoryRef) bool) bool {
	directoryIdentity, resolveError := walker.discoverer.fileSystem.EvalSymlinks(directoryPath)
	if resolveError != nil {
		directoryIdentity = directoryPath
	}
	if _, visited := walker.visitedDirectories[directoryIdentity]; visited {
		return true
	}
	walker.visitedDirectories[directoryIdentity] = struct{}{}

	if walker.discoverer.rootInspector.IsRepositoryRoot(directoryPath) {
		repositoryReference, referenceError := shared.NewRepositoryRef(directoryPath)
		if referenceError != nil {
			return true
		}
		return yield(repositoryReference)
	}

	directoryEntries, readError := walker.discoverer.fileSystem.ReadDir(directoryPath)
	if readError != nil {
		walker.discoverer.logger.Debug(unreadableDirectoryLogMessage, zap.String(directoryLogFieldNameConstant, directoryPath), zap.Error(readError))
		return true
	}

	for _, directoryEntry := range directoryEntries {
		if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
			continue
		}
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		if !walker.isTraversableDirectory(childPath, directoryEntry) {
			continue
		}
		if !walker.walk(childPath, yield) {
			return false
		}
	}
	return true
}

func (walker *repositoryWalker) isTraversableDirectory(childPath string, directoryEntry fs.DirEntry) bool {
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		return directoryEntry.IsDir()
	}
	if !walker.discoverer.followSymlinks {
		return false
	}
	targetInfo, statError := walker.discoverer.fileSystem.Stat(childPath)
	if statError != nil {
		return false
	}
	return targetInfo.IsDir()
}
