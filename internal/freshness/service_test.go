package freshness_test

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitfresh/internal/freshness"
	"github.com/temirov/gitfresh/internal/repos/discovery"
	"github.com/temirov/gitfresh/internal/repos/filesystem"
	"github.com/temirov/gitfresh/internal/repos/shared"
)

type stubRepositoryDiscoverer struct {
	repositoryRoots []string
	invocations     int
}

func (discoverer *stubRepositoryDiscoverer) Discover(string) (iter.Seq[shared.RepositoryRef], error) {
	discoverer.invocations++
	repositories := make([]shared.RepositoryRef, 0, len(discoverer.repositoryRoots))
	for _, repositoryRoot := range discoverer.repositoryRoots {
		repositories = append(repositories, shared.RepositoryRef{RootPath: repositoryRoot})
	}
	return slices.Values(repositories), nil
}

type stubVersionControl struct {
	repositoriesWithoutCommits map[string]bool
	trackedPaths               map[string][]string
	ignoredPaths               map[string][]string
	commitTimes                map[string]map[string]time.Time
	failingPaths               map[string]bool
	trackedListingFailures     map[string]bool
	ignoredListingFailures     map[string]bool
}

func (versionControl *stubVersionControl) HasCommits(_ context.Context, repositoryRoot string) (bool, error) {
	return !versionControl.repositoriesWithoutCommits[repositoryRoot], nil
}

func (versionControl *stubVersionControl) ListTrackedPaths(_ context.Context, repositoryRoot string) ([]string, error) {
	if versionControl.trackedListingFailures[repositoryRoot] {
		return nil, errors.New("ls-files failed")
	}
	return versionControl.trackedPaths[repositoryRoot], nil
}

func (versionControl *stubVersionControl) ListIgnoredPaths(_ context.Context, repositoryRoot string) ([]string, error) {
	if versionControl.ignoredListingFailures[repositoryRoot] {
		return nil, errors.New("ignored listing failed")
	}
	return versionControl.ignoredPaths[repositoryRoot], nil
}

func (versionControl *stubVersionControl) LastCommitTime(_ context.Context, repositoryRoot string, relativePath string) (time.Time, bool, error) {
	if versionControl.failingPaths[relativePath] {
		return time.Time{}, false, errors.New("history unavailable")
	}
	commitTime, found := versionControl.commitTimes[repositoryRoot][relativePath]
	return commitTime, found, nil
}

type recordingScanEventObserver struct {
	startedTargets   []string
	completedTargets []string
	skippedTargets   []string
}

func (observer *recordingScanEventObserver) TargetStarted(targetRoot string, mode string) {
	observer.startedTargets = append(observer.startedTargets, filepath.Base(targetRoot)+":"+mode)
}

func (observer *recordingScanEventObserver) TargetCompleted(targetRoot string, mode string, _ int) {
	observer.completedTargets = append(observer.completedTargets, filepath.Base(targetRoot)+":"+mode)
}

func (observer *recordingScanEventObserver) TargetSkipped(targetRoot string, _ string) {
	observer.skippedTargets = append(observer.skippedTargets, filepath.Base(targetRoot))
}

type serviceFixture struct {
	baseDirectory  string
	alphaRoot      string
	betaRoot       string
	discoverer     *stubRepositoryDiscoverer
	versionControl *stubVersionControl
}

var (
	alphaReadmeCommitTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	betaSourceCommitTime  = time.Date(2024, 3, 3, 12, 0, 0, 0, time.Local)
	betaMainCommitTime    = time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local)
)

func writeFixtureFile(testInstance *testing.T, absolutePath string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(filepath.Base(absolutePath)), 0o644))
}

func newServiceFixture(testInstance *testing.T) serviceFixture {
	testInstance.Helper()
	baseDirectory := testInstance.TempDir()
	alphaRoot := filepath.Join(baseDirectory, "alpha")
	betaRoot := filepath.Join(baseDirectory, "beta")

	writeFixtureFile(testInstance, filepath.Join(alphaRoot, "README.md"))
	writeFixtureFile(testInstance, filepath.Join(alphaRoot, "scratch.txt"))
	writeFixtureFile(testInstance, filepath.Join(betaRoot, "main.go"))
	writeFixtureFile(testInstance, filepath.Join(betaRoot, "scratch.txt"))
	writeFixtureFile(testInstance, filepath.Join(betaRoot, "src", "lib.go"))
	writeFixtureFile(testInstance, filepath.Join(betaRoot, "build", "out.bin"))

	return serviceFixture{
		baseDirectory: baseDirectory,
		alphaRoot:     alphaRoot,
		betaRoot:      betaRoot,
		discoverer:    &stubRepositoryDiscoverer{repositoryRoots: []string{alphaRoot, betaRoot}},
		versionControl: &stubVersionControl{
			repositoriesWithoutCommits: map[string]bool{},
			trackedPaths: map[string][]string{
				alphaRoot: {"README.md"},
				betaRoot:  {"main.go", "src/lib.go", "build/out.bin"},
			},
			ignoredPaths: map[string][]string{
				betaRoot: {"build/"},
			},
			commitTimes: map[string]map[string]time.Time{
				alphaRoot: {"README.md": alphaReadmeCommitTime},
				betaRoot: {
					"main.go":       betaMainCommitTime,
					"src":           betaSourceCommitTime,
					"src/lib.go":    betaSourceCommitTime,
					"build/out.bin": betaMainCommitTime,
				},
			},
			failingPaths:           map[string]bool{},
			trackedListingFailures: map[string]bool{},
			ignoredListingFailures: map[string]bool{},
		},
	}
}

func (fixture serviceFixture) newService(testInstance *testing.T, observer shared.ScanEventObserver) *freshness.Service {
	testInstance.Helper()
	service, serviceError := freshness.NewService(freshness.Dependencies{
		Discoverer:     fixture.discoverer,
		VersionControl: fixture.versionControl,
		FileSystem:     filesystem.OSFileSystem{},
		EventObserver:  observer,
		Logger:         zap.NewNop(),
	})
	require.NoError(testInstance, serviceError)
	return service
}

type entrySummary struct {
	repository   string
	relativePath string
	rank         int
}

func summarizeEntries(entries []freshness.PathEntry) []entrySummary {
	summaries := make([]entrySummary, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, entrySummary{repository: filepath.Base(entry.Repository), relativePath: entry.RelativePath, rank: entry.Rank})
	}
	return summaries
}

func TestServiceRanksRepositoriesTogether(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	observer := &recordingScanEventObserver{}
	service := fixture.newService(testInstance, observer)

	scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: fixture.baseDirectory, Concurrency: 2})
	require.NoError(testInstance, scanError)

	require.True(testInstance, scanResult.GitModeUsed)
	require.NotEmpty(testInstance, scanResult.ScanID)
	require.Len(testInstance, scanResult.Repositories, 2)
	require.Empty(testInstance, scanResult.SkippedRepositories)
	require.Equal(testInstance, []entrySummary{
		{repository: "beta", relativePath: "main.go", rank: 1},
		{repository: "beta", relativePath: "src", rank: 2},
		{repository: "beta", relativePath: "src/lib.go", rank: 3},
		{repository: "alpha", relativePath: "README.md", rank: 4},
	}, summarizeEntries(scanResult.Entries))
	require.Equal(testInstance, formatLocalTimestamp(betaMainCommitTime), freshness.FormatTimestamp(scanResult.Entries[0].LastChanged))

	require.ElementsMatch(testInstance, []string{"alpha:git", "beta:git"}, observer.startedTargets)
	require.ElementsMatch(testInstance, []string{"alpha:git", "beta:git"}, observer.completedTargets)
	require.Empty(testInstance, observer.skippedTargets)
}

type steppingClock struct {
	readings []time.Time
}

func (clock *steppingClock) Now() time.Time {
	current := clock.readings[0]
	if len(clock.readings) > 1 {
		clock.readings = clock.readings[1:]
	}
	return current
}

func TestServiceRecordsScanTiming(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	scanStart := time.Date(2024, 9, 1, 8, 0, 0, 0, time.Local)
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)

	service, serviceError := freshness.NewService(freshness.Dependencies{
		Discoverer:     fixture.discoverer,
		VersionControl: fixture.versionControl,
		FileSystem:     filesystem.OSFileSystem{},
		Clock:          &steppingClock{readings: []time.Time{scanStart, scanStart.Add(1500 * time.Millisecond)}},
		Logger:         zap.New(observedCore),
	})
	require.NoError(testInstance, serviceError)

	scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: fixture.baseDirectory})
	require.NoError(testInstance, scanError)
	require.True(testInstance, scanStart.Equal(scanResult.StartedAt))
	require.Equal(testInstance, 1500*time.Millisecond, scanResult.Duration)

	completedEntries := observedLogs.FilterMessage("Freshness scan completed").All()
	require.Len(testInstance, completedEntries, 1)
	require.Equal(testInstance, 1500*time.Millisecond, completedEntries[0].ContextMap()["duration"])
}

func TestServiceAppliesFiltersAcrossRepositories(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	service := fixture.newService(testInstance, nil)

	scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{
		BaseDirectory: fixture.baseDirectory,
		TypeFilter:    freshness.TypeFilterFiles,
		Since:         "2024-03-02",
		SortBy:        "name",
	})
	require.NoError(testInstance, scanError)
	require.Equal(testInstance, []entrySummary{
		{repository: "beta", relativePath: "src/lib.go", rank: 1},
		{repository: "beta", relativePath: "main.go", rank: 2},
	}, summarizeEntries(scanResult.Entries))
}

func TestServiceMeasuresDepthFromRepositoryRoot(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	service := fixture.newService(testInstance, nil)

	scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: fixture.baseDirectory, MaxDepth: 1})
	require.NoError(testInstance, scanError)
	require.Equal(testInstance, []entrySummary{
		{repository: "beta", relativePath: "main.go", rank: 1},
		{repository: "beta", relativePath: "src", rank: 2},
		{repository: "alpha", relativePath: "README.md", rank: 3},
	}, summarizeEntries(scanResult.Entries))
	for _, entry := range scanResult.Entries {
		require.Equal(testInstance, 1, entry.Depth)
	}
}

func TestServiceHandlesRepositoriesWithoutCommits(testInstance *testing.T) {
	testCases := []struct {
		name                    string
		mode                    freshness.Mode
		expectedSkippedRoots    []string
		expectAlphaEntries      bool
		expectedStartedTargets  []string
		expectedGitModeUsedFlag bool
	}{
		{
			name:                    "git_mode_skips_repository",
			mode:                    freshness.ModeGit,
			expectedSkippedRoots:    []string{"alpha"},
			expectedStartedTargets:  []string{"beta:git"},
			expectedGitModeUsedFlag: true,
		},
		{
			name:                    "auto_mode_degrades_to_filesystem",
			mode:                    freshness.ModeAuto,
			expectedSkippedRoots:    []string{},
			expectAlphaEntries:      true,
			expectedStartedTargets:  []string{"alpha:file", "beta:git"},
			expectedGitModeUsedFlag: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newServiceFixture(testInstance)
			fixture.versionControl.repositoriesWithoutCommits[fixture.alphaRoot] = true
			observer := &recordingScanEventObserver{}
			service := fixture.newService(testInstance, observer)

			scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: fixture.baseDirectory, Mode: testCase.mode})
			require.NoError(testInstance, scanError)

			skippedRoots := make([]string, 0, len(scanResult.SkippedRepositories))
			for _, skippedRepository := range scanResult.SkippedRepositories {
				skippedRoots = append(skippedRoots, filepath.Base(skippedRepository.RootPath))
				require.NotEmpty(testInstance, skippedRepository.Reason)
			}
			require.Equal(testInstance, testCase.expectedSkippedRoots, skippedRoots)
			require.ElementsMatch(testInstance, testCase.expectedStartedTargets, observer.startedTargets)
			require.Equal(testInstance, testCase.expectedGitModeUsedFlag, scanResult.GitModeUsed)

			alphaPaths := make([]string, 0)
			for _, entry := range scanResult.Entries {
				if entry.Repository == fixture.alphaRoot {
					alphaPaths = append(alphaPaths, entry.RelativePath)
				}
			}
			if testCase.expectAlphaEntries {
				require.ElementsMatch(testInstance, []string{"README.md", "scratch.txt"}, alphaPaths)
				return
			}
			require.Empty(testInstance, alphaPaths)
		})
	}
}

func TestServiceSkipsRepositoriesWithFailedTrackingSnapshot(testInstance *testing.T) {
	testCases := []struct {
		name                string
		mode                freshness.Mode
		failTrackedListing  bool
		failIgnoredListing  bool
		expectedSkipped     []string
		expectedAlphaPaths  []string
		expectedReasonToken string
	}{
		{
			name:                "git_mode_tracked_listing_failure",
			mode:                freshness.ModeGit,
			failTrackedListing:  true,
			expectedSkipped:     []string{"alpha"},
			expectedAlphaPaths:  []string{},
			expectedReasonToken: "ls-files failed",
		},
		{
			name:                "git_mode_ignored_listing_failure",
			mode:                freshness.ModeGit,
			failIgnoredListing:  true,
			expectedSkipped:     []string{"alpha"},
			expectedAlphaPaths:  []string{},
			expectedReasonToken: "ignored listing failed",
		},
		{
			name:               "auto_mode_tracked_listing_failure",
			mode:               freshness.ModeAuto,
			failTrackedListing: true,
			expectedSkipped:    []string{},
			expectedAlphaPaths: []string{"README.md", "scratch.txt"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newServiceFixture(testInstance)
			fixture.versionControl.trackedListingFailures[fixture.alphaRoot] = testCase.failTrackedListing
			fixture.versionControl.ignoredListingFailures[fixture.alphaRoot] = testCase.failIgnoredListing
			observer := &recordingScanEventObserver{}
			service := fixture.newService(testInstance, observer)

			scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: fixture.baseDirectory, Mode: testCase.mode})
			require.NoError(testInstance, scanError)

			skippedRoots := make([]string, 0, len(scanResult.SkippedRepositories))
			for _, skippedRepository := range scanResult.SkippedRepositories {
				skippedRoots = append(skippedRoots, filepath.Base(skippedRepository.RootPath))
				require.Contains(testInstance, skippedRepository.Reason, testCase.expectedReasonToken)
			}
			require.Equal(testInstance, testCase.expectedSkipped, skippedRoots)
			require.ElementsMatch(testInstance, testCase.expectedSkipped, observer.skippedTargets)

			alphaPaths := make([]string, 0)
			betaPaths := make([]string, 0)
			for _, entry := range scanResult.Entries {
				switch entry.Repository {
				case fixture.alphaRoot:
					alphaPaths = append(alphaPaths, entry.RelativePath)
				case fixture.betaRoot:
					betaPaths = append(betaPaths, entry.RelativePath)
				}
			}
			require.ElementsMatch(testInstance, testCase.expectedAlphaPaths, alphaPaths)
			require.ElementsMatch(testInstance, []string{"main.go", "src", "src/lib.go"}, betaPaths)
		})
	}
}

func TestServiceScansBaseDirectoryWithoutRepositories(testInstance *testing.T) {
	baseDirectory := testInstance.TempDir()
	fileTime := time.Date(2024, 7, 4, 15, 0, 0, 0, time.Local)
	notesPath := filepath.Join(baseDirectory, "notes", "todo.txt")
	writeFixtureFile(testInstance, notesPath)
	require.NoError(testInstance, os.Chtimes(notesPath, fileTime, fileTime))

	testCases := []struct {
		name       string
		mode       freshness.Mode
		discoverer *stubRepositoryDiscoverer
	}{
		{name: "auto_mode_falls_back", mode: freshness.ModeAuto, discoverer: &stubRepositoryDiscoverer{}},
		{name: "file_mode_ignores_repositories", mode: freshness.ModeFile, discoverer: &stubRepositoryDiscoverer{repositoryRoots: []string{filepath.Join(baseDirectory, "notes")}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service, serviceError := freshness.NewService(freshness.Dependencies{
				Discoverer:     testCase.discoverer,
				VersionControl: &stubVersionControl{},
				FileSystem:     filesystem.OSFileSystem{},
			})
			require.NoError(testInstance, serviceError)

			scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: baseDirectory, Mode: testCase.mode})
			require.NoError(testInstance, scanError)
			require.False(testInstance, scanResult.GitModeUsed)
			require.Empty(testInstance, scanResult.Repositories)
			require.Len(testInstance, scanResult.Entries, 2)
			for _, entry := range scanResult.Entries {
				require.Equal(testInstance, baseDirectory, entry.Repository)
				require.Equal(testInstance, formatLocalTimestamp(fileTime), freshness.FormatTimestamp(entry.LastChanged))
			}
		})
	}
}

func TestServiceRecordsPathsWithoutHistory(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	delete(fixture.versionControl.commitTimes[fixture.betaRoot], "src")
	fixture.versionControl.failingPaths["main.go"] = true
	service := fixture.newService(testInstance, nil)

	scanResult, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: fixture.baseDirectory})
	require.NoError(testInstance, scanError)

	skippedPaths := make([]string, 0, len(scanResult.SkippedPaths))
	for _, skippedPath := range scanResult.SkippedPaths {
		require.Equal(testInstance, fixture.betaRoot, skippedPath.Repository)
		skippedPaths = append(skippedPaths, skippedPath.RelativePath)
	}
	require.ElementsMatch(testInstance, []string{"main.go", "src"}, skippedPaths)
	require.Equal(testInstance, []entrySummary{
		{repository: "beta", relativePath: "src/lib.go", rank: 1},
		{repository: "alpha", relativePath: "README.md", rank: 2},
	}, summarizeEntries(scanResult.Entries))
}

func TestServiceRejectsInvalidOptions(testInstance *testing.T) {
	testCases := []struct {
		name          string
		config        freshness.ScanConfig
		expectedError error
	}{
		{name: "mode", config: freshness.ScanConfig{Mode: "svn"}, expectedError: freshness.ErrUnsupportedMode},
		{name: "type", config: freshness.ScanConfig{TypeFilter: "links"}, expectedError: freshness.ErrUnsupportedTypeFilter},
		{name: "sort", config: freshness.ScanConfig{SortBy: "-size"}, expectedError: freshness.ErrInvalidSortKey},
		{name: "since", config: freshness.ScanConfig{Since: "yesterday"}, expectedError: freshness.ErrInvalidDateFormat},
		{name: "pattern", config: freshness.ScanConfig{Patterns: []string{"[abc"}}, expectedError: freshness.ErrInvalidPattern},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newServiceFixture(testInstance)
			service := fixture.newService(testInstance, nil)

			testCase.config.BaseDirectory = fixture.baseDirectory
			_, scanError := service.Scan(context.Background(), testCase.config)
			require.ErrorIs(testInstance, scanError, testCase.expectedError)
			require.Zero(testInstance, fixture.discoverer.invocations)
		})
	}
}

func TestServiceFileModeRequiresDirectory(testInstance *testing.T) {
	filePath := filepath.Join(testInstance.TempDir(), "plain.txt")
	writeFixtureFile(testInstance, filePath)

	service, serviceError := freshness.NewService(freshness.Dependencies{
		Discoverer:     &stubRepositoryDiscoverer{},
		VersionControl: &stubVersionControl{},
		FileSystem:     filesystem.OSFileSystem{},
	})
	require.NoError(testInstance, serviceError)

	_, scanError := service.Scan(context.Background(), freshness.ScanConfig{BaseDirectory: filePath, Mode: freshness.ModeFile})
	require.ErrorIs(testInstance, scanError, discovery.ErrNotADirectory)
}

func TestServiceStopsOnCancellation(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance)
	service := fixture.newService(testInstance, nil)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, scanError := service.Scan(cancelledContext, freshness.ScanConfig{BaseDirectory: fixture.baseDirectory, Mode: freshness.ModeGit})
	require.ErrorIs(testInstance, scanError, context.Canceled)
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name         string
		dependencies freshness.Dependencies
	}{
		{name: "discoverer", dependencies: freshness.Dependencies{VersionControl: &stubVersionControl{}, FileSystem: filesystem.OSFileSystem{}}},
		{name: "version_control", dependencies: freshness.Dependencies{Discoverer: &stubRepositoryDiscoverer{}, FileSystem: filesystem.OSFileSystem{}}},
		{name: "filesystem", dependencies: freshness.Dependencies{Discoverer: &stubRepositoryDiscoverer{}, VersionControl: &stubVersionControl{}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, serviceError := freshness.NewService(testCase.dependencies)
			require.ErrorIs(testInstance, serviceError, freshness.ErrServiceDependencyMissing)
		})
	}
}

func formatLocalTimestamp(timestamp time.Time) string {
	return timestamp.Local().Format(freshness.TimestampLayoutConstant)
}
