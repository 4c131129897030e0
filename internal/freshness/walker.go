package freshness

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/gitfresh/internal/repos/shared"
)

const (
	unreadableDirectoryReasonConstant = "directory could not be read: "
)

// targetWalker enumerates the paths beneath one scan target. Each walk owns its visited set.
type targetWalker struct {
	fileSystem     shared.FileSystem
	classifier     *Classifier
	followSymlinks bool
}

func newTargetWalker(fileSystem shared.FileSystem, classifier *Classifier, followSymlinks bool) *targetWalker {
	return &targetWalker{fileSystem: fileSystem, classifier: classifier, followSymlinks: followSymlinks}
}

// collectCandidates lists every non-excluded path within the depth limit in lexicographic pre-order.
// An unreadable root is returned as an error; unreadable subdirectories are reported as skipped paths.
func (walker *targetWalker) collectCandidates(rootPath string) ([]Candidate, []SkippedPath, error) {
	rootEntries, readError := walker.fileSystem.ReadDir(rootPath)
	if readError != nil {
		return nil, nil, readError
	}

	visitedDirectories := map[string]struct{}{walker.directoryIdentity(rootPath): {}}
	candidates := make([]Candidate, 0)
	skippedPaths := make([]SkippedPath, 0)

	var visit func(directoryPath string, relativeDirectory string, directoryEntries []fs.DirEntry)
	visit = func(directoryPath string, relativeDirectory string, directoryEntries []fs.DirEntry) {
		for _, directoryEntry := range directoryEntries {
			entryName := directoryEntry.Name()
			if walker.classifier.IsExcludedName(entryName) {
				continue
			}

			relativePath := joinRelativePath(relativeDirectory, entryName)
			entryDepth := relativePathDepth(relativePath)
			if !walker.classifier.WithinDepth(entryDepth) {
				continue
			}

			absolutePath := filepath.Join(directoryPath, entryName)
			entryKind := EntryKindFile
			if walker.isDirectoryTarget(absolutePath, directoryEntry) {
				entryKind = EntryKindDirectory
			}
			candidates = append(candidates, Candidate{
				Name:         entryName,
				RelativePath: relativePath,
				AbsolutePath: absolutePath,
				Kind:         entryKind,
				Depth:        entryDepth,
			})

			if !walker.isTraversableDirectory(absolutePath, directoryEntry) || !walker.classifier.DescendsBelow(entryDepth) {
				continue
			}

			identity := walker.directoryIdentity(absolutePath)
			if _, visited := visitedDirectories[identity]; visited {
				continue
			}
			visitedDirectories[identity] = struct{}{}

			childEntries, childReadError := walker.fileSystem.ReadDir(absolutePath)
			if childReadError != nil {
				skippedPaths = append(skippedPaths, SkippedPath{RelativePath: relativePath, Reason: unreadableDirectoryReasonConstant + childReadError.Error()})
				continue
			}
			visit(absolutePath, relativePath, childEntries)
		}
	}

	visit(rootPath, "", rootEntries)
	return candidates, skippedPaths, nil
}

// aggregateDirectoryTimes computes, for every directory beneath rootPath that holds at least one
// non-excluded file, the newest modification time among all files in its subtree.
// Depth limits and report filters do not apply to this walk.
func (walker *targetWalker) aggregateDirectoryTimes(rootPath string) map[string]time.Time {
	directoryTimes := make(map[string]time.Time)
	visitedDirectories := map[string]struct{}{walker.directoryIdentity(rootPath): {}}

	var visit func(directoryPath string, relativeDirectory string) (time.Time, bool)
	visit = func(directoryPath string, relativeDirectory string) (time.Time, bool) {
		directoryEntries, readError := walker.fileSystem.ReadDir(directoryPath)
		if readError != nil {
			return time.Time{}, false
		}

		var newestTime time.Time
		found := false
		for _, directoryEntry := range directoryEntries {
			entryName := directoryEntry.Name()
			if walker.classifier.IsExcludedName(entryName) {
				continue
			}
			absolutePath := filepath.Join(directoryPath, entryName)
			relativePath := joinRelativePath(relativeDirectory, entryName)

			var entryTime time.Time
			if walker.isTraversableDirectory(absolutePath, directoryEntry) {
				identity := walker.directoryIdentity(absolutePath)
				if _, visited := visitedDirectories[identity]; visited {
					continue
				}
				visitedDirectories[identity] = struct{}{}

				subtreeTime, subtreeHasFiles := visit(absolutePath, relativePath)
				if !subtreeHasFiles {
					continue
				}
				directoryTimes[relativePath] = subtreeTime
				entryTime = subtreeTime
			} else {
				if walker.isDirectoryTarget(absolutePath, directoryEntry) {
					continue
				}
				modificationTime, statError := walker.fileModificationTime(absolutePath)
				if statError != nil {
					continue
				}
				entryTime = modificationTime
			}

			if !found || entryTime.After(newestTime) {
				newestTime = entryTime
				found = true
			}
		}
		return newestTime, found
	}

	visit(rootPath, "")
	return directoryTimes
}

// fileModificationTime follows symbolic links and falls back to the link itself when its target is missing.
func (walker *targetWalker) fileModificationTime(absolutePath string) (time.Time, error) {
	fileInfo, statError := walker.fileSystem.Stat(absolutePath)
	if statError == nil {
		return fileInfo.ModTime(), nil
	}
	linkInfo, lstatError := walker.fileSystem.Lstat(absolutePath)
	if lstatError != nil {
		return time.Time{}, statError
	}
	return linkInfo.ModTime(), nil
}

// isTraversableDirectory reports whether the walk descends into the entry. Linked directories
// are entered only when symlinks are followed.
func (walker *targetWalker) isTraversableDirectory(absolutePath string, directoryEntry fs.DirEntry) bool {
	if directoryEntry.Type()&fs.ModeSymlink != 0 && !walker.followSymlinks {
		return false
	}
	return walker.isDirectoryTarget(absolutePath, directoryEntry)
}

// isDirectoryTarget reports whether the entry, or the target of a symbolic link, is a directory.
func (walker *targetWalker) isDirectoryTarget(absolutePath string, directoryEntry fs.DirEntry) bool {
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		return directoryEntry.IsDir()
	}
	targetInfo, statError := walker.fileSystem.Stat(absolutePath)
	if statError != nil {
		return false
	}
	return targetInfo.IsDir()
}

func (walker *targetWalker) directoryIdentity(directoryPath string) string {
	resolvedPath, resolveError := walker.fileSystem.EvalSymlinks(directoryPath)
	if resolveError != nil {
		return directoryPath
	}
	return resolvedPath
}

func joinRelativePath(relativeDirectory string, name string) string {
	if len(relativeDirectory) == 0 {
		return name
	}
	return path.Join(relativeDirectory, name)
}

func relativePathDepth(relativePath string) int {
	depth := 0
	for _, segment := range strings.Split(relativePath, relativePathSeparatorConstant) {
		if len(segment) > 0 {
			depth++
		}
	}
	if depth == 0 {
		return 1
	}
	return depth
}
