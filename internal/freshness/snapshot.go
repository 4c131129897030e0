package freshness

import (
	"path"
	"strings"
)

const (
	relativePathSeparatorConstant = "/"
	currentDirectoryPathConstant  = "."
)

// TrackingSnapshot captures which paths of a repository are tracked and ignored.
// It is built once per repository before any path is classified.
type TrackingSnapshot struct {
	trackedFiles        map[string]struct{}
	ignoredPaths        map[string]struct{}
	eligibleDirectories map[string]struct{}
}

// NewTrackingSnapshot indexes tracked and ignored paths, both relative to the repository root.
// Ignored entries may name directories, which then cover their whole subtree.
func NewTrackingSnapshot(trackedPaths []string, ignoredPaths []string) *TrackingSnapshot {
	snapshot := &TrackingSnapshot{
		trackedFiles:        make(map[string]struct{}, len(trackedPaths)),
		ignoredPaths:        make(map[string]struct{}, len(ignoredPaths)),
		eligibleDirectories: make(map[string]struct{}),
	}

	for _, ignoredPath := range ignoredPaths {
		if normalizedPath := normalizeRelativePath(ignoredPath); len(normalizedPath) > 0 {
			snapshot.ignoredPaths[normalizedPath] = struct{}{}
		}
	}

	for _, trackedPath := range trackedPaths {
		normalizedPath := normalizeRelativePath(trackedPath)
		if len(normalizedPath) == 0 {
			continue
		}
		snapshot.trackedFiles[normalizedPath] = struct{}{}
		if snapshot.IsIgnored(normalizedPath) {
			continue
		}
		for parentPath := path.Dir(normalizedPath); parentPath != currentDirectoryPathConstant; parentPath = path.Dir(parentPath) {
			if _, recorded := snapshot.eligibleDirectories[parentPath]; recorded {
				break
			}
			snapshot.eligibleDirectories[parentPath] = struct{}{}
		}
	}
	return snapshot
}

// IsTracked reports whether the file is recorded in the index.
func (snapshot *TrackingSnapshot) IsTracked(relativePath string) bool {
	_, tracked := snapshot.trackedFiles[normalizeRelativePath(relativePath)]
	return tracked
}

// IsIgnored reports whether the path or one of its ancestors matches an ignore rule.
func (snapshot *TrackingSnapshot) IsIgnored(relativePath string) bool {
	for candidatePath := normalizeRelativePath(relativePath); len(candidatePath) > 0 && candidatePath != currentDirectoryPathConstant; candidatePath = path.Dir(candidatePath) {
		if _, ignored := snapshot.ignoredPaths[candidatePath]; ignored {
			return true
		}
	}
	return false
}

// ContainsEligibleFiles reports whether the directory transitively holds a tracked, non-ignored file.
func (snapshot *TrackingSnapshot) ContainsEligibleFiles(relativeDirectoryPath string) bool {
	_, eligible := snapshot.eligibleDirectories[normalizeRelativePath(relativeDirectoryPath)]
	return eligible
}

func normalizeRelativePath(relativePath string) string {
	trimmedPath := strings.Trim(relativePath, relativePathSeparatorConstant)
	if len(trimmedPath) == 0 {
		return ""
	}
	return path.Clean(trimmedPath)
}
