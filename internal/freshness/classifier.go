package freshness

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	extensionSeparatorConstant  = "."
	invalidPatternErrorTemplate = "%w: %q"
)

const (
	// GitReportBaseNameConstant names the default report when any repository was scanned from history.
	GitReportBaseNameConstant = "_git_stats"
	// FileReportBaseNameConstant names the default report when only filesystem metadata was used.
	FileReportBaseNameConstant = "_file_stats"
)

// DefaultReportFileNames are the report names written by default; they are never reported themselves.
var DefaultReportFileNames = []string{
	GitReportBaseNameConstant + ".json",
	FileReportBaseNameConstant + ".json",
	GitReportBaseNameConstant + ".yaml",
	FileReportBaseNameConstant + ".yaml",
}

var builtInExclusionPatterns = []string{
	".DS_Store",
	"Icon\r",
	".Trashes",
	".Spotlight-V100",
	".fseventsd",
	".git",
	"node_modules",
	"venv",
	".venv",
	"__pycache__",
	".idea",
	"*.pyc",
	"*.pyo",
	"*.swp",
}

// ClassifierOptions configures which candidates are eligible for the report.
type ClassifierOptions struct {
	Extensions      []string
	Patterns        []string
	ExcludePatterns []string
	ExcludeNames    []string
	MaxDepth        int
	TypeFilter      TypeFilter
}

// Candidate is a path encountered while walking a scan target.
type Candidate struct {
	Name         string
	RelativePath string
	AbsolutePath string
	Kind         EntryKind
	Depth        int
}

// Classification is the verdict for a single candidate.
type Classification struct {
	Eligible       bool
	MatchedPattern string
}

// Classifier decides report eligibility from names, depth, filters and, in git mode, a tracking snapshot.
type Classifier struct {
	exclusionPatterns []string
	extensions        map[string]struct{}
	patterns          []string
	maxDepth          int
	typeFilter        TypeFilter
}

// NewClassifier validates the glob patterns and builds a classifier.
func NewClassifier(options ClassifierOptions) (*Classifier, error) {
	exclusionPatterns := append(append([]string{}, builtInExclusionPatterns...), DefaultReportFileNames...)
	for _, excludePattern := range options.ExcludePatterns {
		trimmedPattern := strings.TrimSpace(excludePattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		if !doublestar.ValidatePattern(trimmedPattern) {
			return nil, fmt.Errorf(invalidPatternErrorTemplate, ErrInvalidPattern, trimmedPattern)
		}
		exclusionPatterns = append(exclusionPatterns, trimmedPattern)
	}

	for _, excludeName := range options.ExcludeNames {
		if trimmedName := strings.TrimSpace(excludeName); len(trimmedName) > 0 {
			exclusionPatterns = append(exclusionPatterns, trimmedName)
		}
	}

	patterns := make([]string, 0, len(options.Patterns))
	for _, pattern := range options.Patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		if !doublestar.ValidatePattern(trimmedPattern) {
			return nil, fmt.Errorf(invalidPatternErrorTemplate, ErrInvalidPattern, trimmedPattern)
		}
		patterns = append(patterns, trimmedPattern)
	}

	extensions := make(map[string]struct{}, len(options.Extensions))
	for _, extension := range options.Extensions {
		normalizedExtension := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extension), extensionSeparatorConstant))
		if len(normalizedExtension) == 0 {
			continue
		}
		extensions[normalizedExtension] = struct{}{}
	}

	typeFilter := options.TypeFilter
	if len(typeFilter) == 0 {
		typeFilter = TypeFilterBoth
	}

	return &Classifier{
		exclusionPatterns: exclusionPatterns,
		extensions:        extensions,
		patterns:          patterns,
		maxDepth:          options.MaxDepth,
		typeFilter:        typeFilter,
	}, nil
}

// IsExcludedName reports whether a single path segment equals or matches an entry of the exclusion set.
func (classifier *Classifier) IsExcludedName(name string) bool {
	for _, exclusionPattern := range classifier.exclusionPatterns {
		if name == exclusionPattern {
			return true
		}
		if matched, _ := doublestar.Match(exclusionPattern, name); matched {
			return true
		}
	}
	return false
}

// IsExcludedPath reports whether any segment of a slash-separated relative path is excluded.
func (classifier *Classifier) IsExcludedPath(relativePath string) bool {
	for _, segment := range strings.Split(relativePath, relativePathSeparatorConstant) {
		if len(segment) == 0 {
			continue
		}
		if classifier.IsExcludedName(segment) {
			return true
		}
	}
	return false
}

// WithinDepth reports whether depth respects the configured limit. A limit of zero or less is unbounded.
func (classifier *Classifier) WithinDepth(depth int) bool {
	return classifier.maxDepth <= 0 || depth <= classifier.maxDepth
}

// DescendsBelow reports whether children of an entry at depth can still be within the limit.
func (classifier *Classifier) DescendsBelow(depth int) bool {
	return classifier.maxDepth <= 0 || depth < classifier.maxDepth
}

// Classify applies exclusion, depth, tracking, extension, glob, and type rules in that order.
// A nil snapshot means the candidate belongs to a file-mode target.
func (classifier *Classifier) Classify(candidate Candidate, snapshot *TrackingSnapshot) Classification {
	if classifier.IsExcludedPath(candidate.RelativePath) || !classifier.WithinDepth(candidate.Depth) {
		return Classification{}
	}

	if snapshot != nil && !classifier.isTrackedAndVisible(candidate, snapshot) {
		return Classification{}
	}

	if candidate.Kind == EntryKindFile && !classifier.matchesExtension(candidate.Name) {
		return Classification{}
	}

	matchedPattern, matched := classifier.matchPattern(candidate)
	if !matched {
		return Classification{}
	}

	if !classifier.allowsKind(candidate.Kind) {
		return Classification{}
	}
	return Classification{Eligible: true, MatchedPattern: matchedPattern}
}

func (classifier *Classifier) isTrackedAndVisible(candidate Candidate, snapshot *TrackingSnapshot) bool {
	if candidate.Kind == EntryKindDirectory {
		return snapshot.ContainsEligibleFiles(candidate.RelativePath)
	}
	return snapshot.IsTracked(candidate.RelativePath) && !snapshot.IsIgnored(candidate.RelativePath)
}

func (classifier *Classifier) matchesExtension(name string) bool {
	if len(classifier.extensions) == 0 {
		return true
	}
	separatorIndex := strings.LastIndex(name, extensionSeparatorConstant)
	if separatorIndex < 0 {
		return false
	}
	_, matched := classifier.extensions[strings.ToLower(name[separatorIndex+1:])]
	return matched
}

// matchPattern returns the first pattern matching the base name or the relative path.
func (classifier *Classifier) matchPattern(candidate Candidate) (string, bool) {
	if len(classifier.patterns) == 0 {
		return "", true
	}
	for _, pattern := range classifier.patterns {
		if matched, _ := doublestar.Match(pattern, candidate.Name); matched {
			return pattern, true
		}
		if matched, _ := doublestar.Match(pattern, candidate.RelativePath); matched {
			return pattern, true
		}
	}
	return "", false
}

func (classifier *Classifier) allowsKind(kind EntryKind) bool {
	switch classifier.typeFilter {
	case TypeFilterFiles:
		return kind == EntryKindFile
	case TypeFilterDirectories:
		return kind == EntryKindDirectory
	default:
		return true
	}
}

// EligibleCandidate is a candidate accepted by the classifier, ready for timestamp resolution.
type EligibleCandidate struct {
	Candidate
	MatchedPattern string
}
