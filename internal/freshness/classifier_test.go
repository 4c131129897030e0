package freshness_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfresh/internal/freshness"
)

func TestClassifierClassify(testInstance *testing.T) {
	snapshot := freshness.NewTrackingSnapshot(
		[]string{"src/main.go", "src/util.go", "README.md", "build/generated.go"},
		[]string{"build/"},
	)

	testCases := []struct {
		name                   string
		options                freshness.ClassifierOptions
		candidate              freshness.Candidate
		snapshot               *freshness.TrackingSnapshot
		expectedEligible       bool
		expectedMatchedPattern string
	}{
		{
			name:             "file_mode_accepts_plain_file",
			candidate:        freshness.Candidate{Name: "notes.txt", RelativePath: "notes.txt", Kind: freshness.EntryKindFile, Depth: 1},
			expectedEligible: true,
		},
		{
			name:      "built_in_exclusion_in_ancestor",
			candidate: freshness.Candidate{Name: "index.js", RelativePath: "node_modules/pkg/index.js", Kind: freshness.EntryKindFile, Depth: 3},
		},
		{
			name:      "built_in_glob_exclusion",
			candidate: freshness.Candidate{Name: "module.pyc", RelativePath: "module.pyc", Kind: freshness.EntryKindFile, Depth: 1},
		},
		{
			name:      "default_report_is_excluded",
			candidate: freshness.Candidate{Name: "_git_stats.json", RelativePath: "_git_stats.json", Kind: freshness.EntryKindFile, Depth: 1},
		},
		{
			name:      "user_exclusion_glob",
			options:   freshness.ClassifierOptions{ExcludePatterns: []string{"*.log"}},
			candidate: freshness.Candidate{Name: "debug.log", RelativePath: "logs/debug.log", Kind: freshness.EntryKindFile, Depth: 2},
		},
		{
			name:      "literal_exclude_name",
			options:   freshness.ClassifierOptions{ExcludeNames: []string{"report[1].json"}},
			candidate: freshness.Candidate{Name: "report[1].json", RelativePath: "report[1].json", Kind: freshness.EntryKindFile, Depth: 1},
		},
		{
			name:      "beyond_depth_limit",
			options:   freshness.ClassifierOptions{MaxDepth: 1},
			candidate: freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
		},
		{
			name:             "at_depth_limit",
			options:          freshness.ClassifierOptions{MaxDepth: 2},
			candidate:        freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
			expectedEligible: true,
		},
		{
			name:             "extension_match_is_case_insensitive",
			options:          freshness.ClassifierOptions{Extensions: []string{".GO"}},
			candidate:        freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
			expectedEligible: true,
		},
		{
			name:      "extension_mismatch",
			options:   freshness.ClassifierOptions{Extensions: []string{"py"}},
			candidate: freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
		},
		{
			name:             "extension_filter_ignores_directories",
			options:          freshness.ClassifierOptions{Extensions: []string{"py"}},
			candidate:        freshness.Candidate{Name: "src", RelativePath: "src", Kind: freshness.EntryKindDirectory, Depth: 1},
			expectedEligible: true,
		},
		{
			name:                   "pattern_matches_base_name",
			options:                freshness.ClassifierOptions{Patterns: []string{"*.md", "*.go"}},
			candidate:              freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
			expectedEligible:       true,
			expectedMatchedPattern: "*.go",
		},
		{
			name:                   "pattern_matches_relative_path",
			options:                freshness.ClassifierOptions{Patterns: []string{"src/**"}},
			candidate:              freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
			expectedEligible:       true,
			expectedMatchedPattern: "src/**",
		},
		{
			name:      "pattern_mismatch",
			options:   freshness.ClassifierOptions{Patterns: []string{"*.md"}},
			candidate: freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
		},
		{
			name:      "files_only_rejects_directory",
			options:   freshness.ClassifierOptions{TypeFilter: freshness.TypeFilterFiles},
			candidate: freshness.Candidate{Name: "src", RelativePath: "src", Kind: freshness.EntryKindDirectory, Depth: 1},
		},
		{
			name:      "dirs_only_rejects_file",
			options:   freshness.ClassifierOptions{TypeFilter: freshness.TypeFilterDirectories},
			candidate: freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
		},
		{
			name:             "git_mode_accepts_tracked_file",
			candidate:        freshness.Candidate{Name: "main.go", RelativePath: "src/main.go", Kind: freshness.EntryKindFile, Depth: 2},
			snapshot:         snapshot,
			expectedEligible: true,
		},
		{
			name:      "git_mode_rejects_untracked_file",
			candidate: freshness.Candidate{Name: "scratch.go", RelativePath: "src/scratch.go", Kind: freshness.EntryKindFile, Depth: 2},
			snapshot:  snapshot,
		},
		{
			name:      "git_mode_rejects_file_under_ignored_directory",
			candidate: freshness.Candidate{Name: "generated.go", RelativePath: "build/generated.go", Kind: freshness.EntryKindFile, Depth: 2},
			snapshot:  snapshot,
		},
		{
			name:             "git_mode_accepts_directory_with_tracked_files",
			candidate:        freshness.Candidate{Name: "src", RelativePath: "src", Kind: freshness.EntryKindDirectory, Depth: 1},
			snapshot:         snapshot,
			expectedEligible: true,
		},
		{
			name:      "git_mode_rejects_directory_with_only_ignored_files",
			candidate: freshness.Candidate{Name: "build", RelativePath: "build", Kind: freshness.EntryKindDirectory, Depth: 1},
			snapshot:  snapshot,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classifier, classifierError := freshness.NewClassifier(testCase.options)
			require.NoError(testInstance, classifierError)

			classification := classifier.Classify(testCase.candidate, testCase.snapshot)
			require.Equal(testInstance, testCase.expectedEligible, classification.Eligible)
			require.Equal(testInstance, testCase.expectedMatchedPattern, classification.MatchedPattern)
		})
	}
}

func TestNewClassifierRejectsInvalidPatterns(testInstance *testing.T) {
	testCases := []struct {
		name    string
		options freshness.ClassifierOptions
	}{
		{name: "include_pattern", options: freshness.ClassifierOptions{Patterns: []string{"[unterminated"}}},
		{name: "exclude_pattern", options: freshness.ClassifierOptions{ExcludePatterns: []string{"logs/[z"}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, classifierError := freshness.NewClassifier(testCase.options)
			require.ErrorIs(testInstance, classifierError, freshness.ErrInvalidPattern)
		})
	}
}

func TestClassifierDepthHelpers(testInstance *testing.T) {
	unbounded, unboundedError := freshness.NewClassifier(freshness.ClassifierOptions{})
	require.NoError(testInstance, unboundedError)
	require.True(testInstance, unbounded.WithinDepth(50))
	require.True(testInstance, unbounded.DescendsBelow(50))

	bounded, boundedError := freshness.NewClassifier(freshness.ClassifierOptions{MaxDepth: 2})
	require.NoError(testInstance, boundedError)
	require.True(testInstance, bounded.WithinDepth(2))
	require.False(testInstance, bounded.WithinDepth(3))
	require.True(testInstance, bounded.DescendsBelow(1))
	require.False(testInstance, bounded.DescendsBelow(2))
}
