package freshness_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfresh/internal/freshness"
)

func TestTrackingSnapshot(testInstance *testing.T) {
	snapshot := freshness.NewTrackingSnapshot(
		[]string{"cmd/app/main.go", "docs/guide.md", "vendor/lib/lib.go", "/top.txt"},
		[]string{"vendor/", "docs/draft.md"},
	)

	testCases := []struct {
		name             string
		relativePath     string
		expectedTracked  bool
		expectedIgnored  bool
		expectedEligible bool
	}{
		{name: "tracked_file", relativePath: "cmd/app/main.go", expectedTracked: true},
		{name: "leading_separator_is_normalized", relativePath: "top.txt", expectedTracked: true},
		{name: "untracked_file", relativePath: "cmd/app/scratch.go"},
		{name: "explicitly_ignored_file", relativePath: "docs/draft.md", expectedIgnored: true},
		{name: "file_under_ignored_directory", relativePath: "vendor/lib/lib.go", expectedTracked: true, expectedIgnored: true},
		{name: "nested_directory_with_tracked_file", relativePath: "cmd/app", expectedEligible: true},
		{name: "parent_directory_with_tracked_file", relativePath: "cmd/", expectedEligible: true},
		{name: "ignored_directory", relativePath: "vendor", expectedIgnored: true},
		{name: "ignored_subdirectory", relativePath: "vendor/lib", expectedIgnored: true},
		{name: "unknown_directory", relativePath: "scripts"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedTracked, snapshot.IsTracked(testCase.relativePath))
			require.Equal(testInstance, testCase.expectedIgnored, snapshot.IsIgnored(testCase.relativePath))
			require.Equal(testInstance, testCase.expectedEligible, snapshot.ContainsEligibleFiles(testCase.relativePath))
		})
	}
}
