package freshness

import (
	"context"
	"time"

	"github.com/temirov/gitfresh/internal/repos/shared"
)

const (
	noCommitHistoryReasonConstant = "no commit history"
	historyQueryFailedPrefix      = "history query failed: "
	metadataUnavailablePrefix     = "metadata unavailable: "
)

// Resolver assigns freshness timestamps to eligible candidates.
type Resolver struct {
	versionControl shared.VersionControl
	fileSystem     shared.FileSystem
}

// NewResolver constructs a resolver using the provided collaborators.
func NewResolver(versionControl shared.VersionControl, fileSystem shared.FileSystem) *Resolver {
	return &Resolver{versionControl: versionControl, fileSystem: fileSystem}
}

// ResolveFromHistory timestamps candidates with the last commit touching them. Directories cover their whole subtree.
// Candidates without history or whose query fails are reported as skipped. Only cancellation aborts resolution.
func (resolver *Resolver) ResolveFromHistory(executionContext context.Context, repositoryRoot string, candidates []EligibleCandidate) ([]PathEntry, []SkippedPath, error) {
	entries := make([]PathEntry, 0, len(candidates))
	skippedPaths := make([]SkippedPath, 0)

	for _, candidate := range candidates {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, nil, contextError
		}

		commitTime, found, queryError := resolver.versionControl.LastCommitTime(executionContext, repositoryRoot, candidate.RelativePath)
		if queryError != nil {
			if contextError := executionContext.Err(); contextError != nil {
				return nil, nil, contextError
			}
			skippedPaths = append(skippedPaths, SkippedPath{Repository: repositoryRoot, RelativePath: candidate.RelativePath, Reason: historyQueryFailedPrefix + queryError.Error()})
			continue
		}
		if !found {
			skippedPaths = append(skippedPaths, SkippedPath{Repository: repositoryRoot, RelativePath: candidate.RelativePath, Reason: noCommitHistoryReasonConstant})
			continue
		}
		entries = append(entries, newPathEntry(candidate, commitTime, repositoryRoot))
	}
	return entries, skippedPaths, nil
}

// ResolveFromFilesystem timestamps files with their modification time and directories with the newest
// file modification time in their subtree, falling back to the directory's own time when it holds no files.
func (resolver *Resolver) ResolveFromFilesystem(targetRoot string, candidates []EligibleCandidate, directoryTimes map[string]time.Time) ([]PathEntry, []SkippedPath) {
	entries := make([]PathEntry, 0, len(candidates))
	skippedPaths := make([]SkippedPath, 0)

	for _, candidate := range candidates {
		if candidate.Kind == EntryKindDirectory {
			if aggregatedTime, aggregated := directoryTimes[candidate.RelativePath]; aggregated {
				entries = append(entries, newPathEntry(candidate, aggregatedTime, targetRoot))
				continue
			}
		}

		fileInfo, statError := resolver.fileSystem.Stat(candidate.AbsolutePath)
		if statError != nil {
			fileInfo, statError = resolver.fileSystem.Lstat(candidate.AbsolutePath)
		}
		if statError != nil {
			skippedPaths = append(skippedPaths, SkippedPath{Repository: targetRoot, RelativePath: candidate.RelativePath, Reason: metadataUnavailablePrefix + statError.Error()})
			continue
		}
		entries = append(entries, newPathEntry(candidate, fileInfo.ModTime(), targetRoot))
	}
	return entries, skippedPaths
}

func newPathEntry(candidate EligibleCandidate, lastChanged time.Time, targetRoot string) PathEntry {
	return PathEntry{
		Name:           candidate.Name,
		RelativePath:   candidate.RelativePath,
		AbsolutePath:   candidate.AbsolutePath,
		Kind:           candidate.Kind,
		Depth:          candidate.Depth,
		LastChanged:    NormalizeTimestamp(lastChanged),
		MatchedPattern: candidate.MatchedPattern,
		Repository:     targetRoot,
	}
}
