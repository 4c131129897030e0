package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/gitfresh/internal/execshell"
	"github.com/temirov/gitfresh/internal/gitrepo"
	"github.com/temirov/gitfresh/internal/repos/discovery"
	"github.com/temirov/gitfresh/internal/repos/filesystem"
	"github.com/temirov/gitfresh/internal/repos/shared"
	"github.com/temirov/gitfresh/internal/ui"
)

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveRepositoryDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveRepositoryDiscoverer(existing shared.RepositoryDiscoverer, fileSystem shared.FileSystem, logger *zap.Logger, followSymlinks bool) shared.RepositoryDiscoverer {
	if existing != nil {
		return existing
	}
	return discovery.NewFilesystemRepositoryDiscoverer(ResolveFileSystem(fileSystem), logger, followSymlinks)
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default notifying additionalObservers.
// Human-readable logging narrates each git query through the console event logger.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, humanReadableLogging bool, additionalObservers ...execshell.CommandEventObserver) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	eventObservers := append([]execshell.CommandEventObserver{}, additionalObservers...)
	if humanReadableLogging {
		eventObservers = append(eventObservers, ui.NewConsoleCommandEventLogger(logger))
	}

	shellExecutor, creationError := execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), execshell.CombineCommandEventObservers(eventObservers...))
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveVersionControl returns the provided collaborator or a git-backed repository manager.
func ResolveVersionControl(existing shared.VersionControl, executor shared.GitExecutor) (shared.VersionControl, error) {
	if existing != nil {
		return existing, nil
	}
	repositoryManager, creationError := gitrepo.NewRepositoryManager(executor)
	if creationError != nil {
		return nil, creationError
	}
	return repositoryManager, nil
}
