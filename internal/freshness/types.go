package freshness

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/temirov/gitfresh/internal/report"
	"github.com/temirov/gitfresh/internal/repos/shared"
)

// EntryKind distinguishes files from directories.
type EntryKind string

// Supported entry kinds.
const (
	EntryKindFile      EntryKind = "file"
	EntryKindDirectory EntryKind = "directory"
)

// Mode selects where freshness timestamps come from.
type Mode string

// Supported scan modes.
const (
	ModeAuto Mode = "auto"
	ModeGit  Mode = "git"
	ModeFile Mode = "file"
)

// TypeFilter restricts the kinds of entries reported.
type TypeFilter string

// Supported type filters.
const (
	TypeFilterFiles       TypeFilter = "files"
	TypeFilterDirectories TypeFilter = "dirs"
	TypeFilterBoth        TypeFilter = "both"
)

var (
	// ErrUnsupportedMode indicates a mode other than auto, git, or file.
	ErrUnsupportedMode = errors.New("unsupported scan mode")
	// ErrUnsupportedTypeFilter indicates a type filter other than files, dirs, or both.
	ErrUnsupportedTypeFilter = errors.New("unsupported type filter")
	// ErrInvalidPattern indicates a glob pattern that cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
	// ErrServiceDependencyMissing indicates the service was constructed without a required collaborator.
	ErrServiceDependencyMissing = errors.New("freshness service dependency missing")
)

// PathEntry is one file or directory with its freshness timestamp.
type PathEntry struct {
	Name           string
	RelativePath   string
	AbsolutePath   string
	Kind           EntryKind
	Depth          int
	LastChanged    time.Time
	MatchedPattern string
	Repository     string
	Rank           int
}

// Record projects the entry into its persisted form.
func (entry PathEntry) Record() report.Record {
	return report.Record{
		Rank:           entry.Rank,
		Basename:       entry.Name,
		UpdatedAt:      FormatTimestamp(entry.LastChanged),
		Type:           string(entry.Kind),
		RelativePath:   filepath.FromSlash(entry.RelativePath),
		Path:           entry.AbsolutePath,
		Depth:          entry.Depth,
		Repository:     entry.Repository,
		MatchedPattern: entry.MatchedPattern,
	}
}

// ScanConfig holds the options of a single scan.
type ScanConfig struct {
	BaseDirectory   string
	Extensions      []string
	MaxDepth        int
	Patterns        []string
	TypeFilter      TypeFilter
	Mode            Mode
	Since           string
	SortBy          string
	ExcludePatterns []string
	ExcludeNames    []string
	FollowSymlinks  bool
	Concurrency     int
}

// SkippedPath records a candidate that could not be timestamped.
type SkippedPath struct {
	Repository   string
	RelativePath string
	Reason       string
}

// SkippedRepository records a repository that contributed no entries because it failed.
type SkippedRepository struct {
	RootPath string
	Reason   string
}

// ScanResult is the ranked union of all scanned targets.
type ScanResult struct {
	ScanID              string
	BaseDirectory       string
	StartedAt           time.Time
	Duration            time.Duration
	Entries             []PathEntry
	Repositories        []shared.RepositoryRef
	SkippedRepositories []SkippedRepository
	SkippedPaths        []SkippedPath
	GitModeUsed         bool
}

// Records projects every entry into its persisted form, preserving rank order.
func (result ScanResult) Records() []report.Record {
	records := make([]report.Record, 0, len(result.Entries))
	for _, entry := range result.Entries {
		records = append(records, entry.Record())
	}
	return records
}
