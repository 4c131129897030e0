package freshness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitfresh/internal/repos/discovery"
	"github.com/temirov/gitfresh/internal/repos/shared"
)

const (
	discovererDependencyNameConstant     = "repository discoverer"
	versionControlDependencyNameConstant = "version control"
	fileSystemDependencyNameConstant     = "filesystem"
	missingDependencyErrorTemplate       = "%w: %s"
	unsupportedValueErrorTemplate        = "%w: %q"
	notADirectoryErrorTemplate           = "%w: %s"
	repositoryWithoutCommitsReason       = "repository has no commits"
	trackingSnapshotFailedPrefix         = "tracking snapshot failed: "
	targetUnreadablePrefix               = "target unreadable: "
	scanIDLogFieldNameConstant           = "scan_id"
	baseDirectoryLogFieldNameConstant    = "base_directory"
	targetLogFieldNameConstant           = "target"
	modeLogFieldNameConstant             = "mode"
	reasonLogFieldNameConstant           = "reason"
	entryCountLogFieldNameConstant       = "entries"
	repositoryCountLogFieldNameConstant  = "repositories"
	skippedCountLogFieldNameConstant     = "skipped_repositories"
	durationLogFieldNameConstant         = "duration"
	scanStartedLogMessage                = "Freshness scan started"
	scanCompletedLogMessage              = "Freshness scan completed"
	noRepositoriesLogMessage             = "No repositories found; scanning base directory from filesystem metadata"
	repositoryDegradedLogMessage         = "Repository history unavailable; using filesystem metadata"
	repositorySkippedLogMessage          = "Repository skipped"
	minimumConcurrencyConstant           = 1
)

var errRepositoryWithoutCommits = errors.New(repositoryWithoutCommitsReason)

// Dependencies supplies the collaborators used by Service.
type Dependencies struct {
	Discoverer     shared.RepositoryDiscoverer
	VersionControl shared.VersionControl
	FileSystem     shared.FileSystem
	EventObserver  shared.ScanEventObserver
	Clock          shared.Clock
	Logger         *zap.Logger
}

// Service discovers repositories, scans each of them, and ranks the combined entries.
type Service struct {
	discoverer     shared.RepositoryDiscoverer
	versionControl shared.VersionControl
	fileSystem     shared.FileSystem
	eventObserver  shared.ScanEventObserver
	clock          shared.Clock
	logger         *zap.Logger
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Discoverer == nil {
		return nil, fmt.Errorf(missingDependencyErrorTemplate, ErrServiceDependencyMissing, discovererDependencyNameConstant)
	}
	if dependencies.VersionControl == nil {
		return nil, fmt.Errorf(missingDependencyErrorTemplate, ErrServiceDependencyMissing, versionControlDependencyNameConstant)
	}
	if dependencies.FileSystem == nil {
		return nil, fmt.Errorf(missingDependencyErrorTemplate, ErrServiceDependencyMissing, fileSystemDependencyNameConstant)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	eventObserver := dependencies.EventObserver
	if eventObserver == nil {
		eventObserver = noopScanEventObserver{}
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}

	return &Service{
		discoverer:     dependencies.Discoverer,
		versionControl: dependencies.VersionControl,
		fileSystem:     dependencies.FileSystem,
		eventObserver:  eventObserver,
		clock:          clock,
		logger:         logger,
	}, nil
}

type scanTarget struct {
	rootPath     string
	isRepository bool
}

type targetOutcome struct {
	entries           []PathEntry
	skippedPaths      []SkippedPath
	skippedRepository *SkippedRepository
	usedHistory       bool
}

type scanPlan struct {
	baseDirectory string
	mode          Mode
	classifier    *Classifier
	rankOptions   RankOptions
	config        ScanConfig
}

// Scan runs a complete freshness scan. Invalid options and an unusable base directory fail before any scanning.
// Failures of individual repositories are recorded in the result; cancellation aborts the scan.
func (service *Service) Scan(executionContext context.Context, config ScanConfig) (ScanResult, error) {
	plan, planError := service.prepare(config)
	if planError != nil {
		return ScanResult{}, planError
	}

	startedAt := service.clock.Now()
	scanID := uuid.NewString()
	scanLogger := service.logger.With(zap.String(scanIDLogFieldNameConstant, scanID), zap.String(baseDirectoryLogFieldNameConstant, plan.baseDirectory))
	scanLogger.Info(scanStartedLogMessage, zap.String(modeLogFieldNameConstant, string(plan.mode)))

	targets, repositories, targetsError := service.planTargets(plan)
	if targetsError != nil {
		return ScanResult{}, targetsError
	}
	if len(repositories) == 0 && plan.mode != ModeFile {
		scanLogger.Info(noRepositoriesLogMessage)
	}

	outcomes := make([]targetOutcome, len(targets))
	scanGroup, groupContext := errgroup.WithContext(executionContext)
	scanGroup.SetLimit(max(plan.config.Concurrency, minimumConcurrencyConstant))
	for targetIndex, target := range targets {
		scanGroup.Go(func() error {
			outcome, scanError := service.scanTarget(groupContext, plan, target, scanLogger)
			if scanError != nil {
				return scanError
			}
			outcomes[targetIndex] = outcome
			return nil
		})
	}
	if waitError := scanGroup.Wait(); waitError != nil {
		return ScanResult{}, waitError
	}

	result := ScanResult{
		ScanID:              scanID,
		BaseDirectory:       plan.baseDirectory,
		StartedAt:           startedAt,
		Repositories:        repositories,
		SkippedRepositories: make([]SkippedRepository, 0),
		SkippedPaths:        make([]SkippedPath, 0),
	}
	combinedEntries := make([]PathEntry, 0)
	for _, outcome := range outcomes {
		combinedEntries = append(combinedEntries, outcome.entries...)
		result.SkippedPaths = append(result.SkippedPaths, outcome.skippedPaths...)
		if outcome.skippedRepository != nil {
			result.SkippedRepositories = append(result.SkippedRepositories, *outcome.skippedRepository)
		}
		result.GitModeUsed = result.GitModeUsed || outcome.usedHistory
	}
	result.Entries = RankEntries(combinedEntries, plan.rankOptions)
	result.Duration = service.clock.Now().Sub(startedAt)

	scanLogger.Info(scanCompletedLogMessage,
		zap.Int(entryCountLogFieldNameConstant, len(result.Entries)),
		zap.Int(repositoryCountLogFieldNameConstant, len(result.Repositories)),
		zap.Int(skippedCountLogFieldNameConstant, len(result.SkippedRepositories)),
		zap.Duration(durationLogFieldNameConstant, result.Duration),
	)
	return result, nil
}

func (service *Service) prepare(config ScanConfig) (scanPlan, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(string(config.Mode))))
	if len(mode) == 0 {
		mode = ModeAuto
	}
	switch mode {
	case ModeAuto, ModeGit, ModeFile:
	default:
		return scanPlan{}, fmt.Errorf(unsupportedValueErrorTemplate, ErrUnsupportedMode, config.Mode)
	}

	typeFilter := TypeFilter(strings.ToLower(strings.TrimSpace(string(config.TypeFilter))))
	if len(typeFilter) == 0 {
		typeFilter = TypeFilterBoth
	}
	switch typeFilter {
	case TypeFilterFiles, TypeFilterDirectories, TypeFilterBoth:
	default:
		return scanPlan{}, fmt.Errorf(unsupportedValueErrorTemplate, ErrUnsupportedTypeFilter, config.TypeFilter)
	}

	rankOptions, rankError := newRankOptions(config.Since, config.SortBy)
	if rankError != nil {
		return scanPlan{}, rankError
	}

	classifier, classifierError := NewClassifier(ClassifierOptions{
		Extensions:      config.Extensions,
		Patterns:        config.Patterns,
		ExcludePatterns: config.ExcludePatterns,
		ExcludeNames:    config.ExcludeNames,
		MaxDepth:        config.MaxDepth,
		TypeFilter:      typeFilter,
	})
	if classifierError != nil {
		return scanPlan{}, classifierError
	}

	baseDirectory, absoluteError := service.fileSystem.Abs(config.BaseDirectory)
	if absoluteError != nil {
		return scanPlan{}, absoluteError
	}

	return scanPlan{baseDirectory: baseDirectory, mode: mode, classifier: classifier, rankOptions: rankOptions, config: config}, nil
}

// planTargets returns one target per discovered repository, or the base directory when there are none or file mode was requested.
func (service *Service) planTargets(plan scanPlan) ([]scanTarget, []shared.RepositoryRef, error) {
	baseTarget := []scanTarget{{rootPath: plan.baseDirectory}}
	repositories := make([]shared.RepositoryRef, 0)

	if plan.mode == ModeFile {
		baseInfo, statError := service.fileSystem.Stat(plan.baseDirectory)
		if statError != nil || !baseInfo.IsDir() {
			return nil, nil, fmt.Errorf(notADirectoryErrorTemplate, discovery.ErrNotADirectory, plan.baseDirectory)
		}
		return baseTarget, repositories, nil
	}

	repositorySequence, discoveryError := service.discoverer.Discover(plan.baseDirectory)
	if discoveryError != nil {
		return nil, nil, discoveryError
	}

	targets := make([]scanTarget, 0)
	for repository := range repositorySequence {
		repositories = append(repositories, repository)
		targets = append(targets, scanTarget{rootPath: repository.RootPath, isRepository: true})
	}
	if len(targets) == 0 {
		return baseTarget, repositories, nil
	}
	return targets, repositories, nil
}

// scanTarget classifies and resolves one target. Only cancellation is returned as an error.
func (service *Service) scanTarget(executionContext context.Context, plan scanPlan, target scanTarget, scanLogger *zap.Logger) (targetOutcome, error) {
	targetLogger := scanLogger.With(zap.String(targetLogFieldNameConstant, target.rootPath))

	var snapshot *TrackingSnapshot
	if target.isRepository {
		repositorySnapshot, snapshotError := service.buildSnapshot(executionContext, target.rootPath)
		if snapshotError != nil {
			if contextError := executionContext.Err(); contextError != nil {
				return targetOutcome{}, contextError
			}
			reason := describeSnapshotFailure(snapshotError)
			if plan.mode == ModeGit {
				return service.skipTarget(target, reason, targetLogger), nil
			}
			targetLogger.Info(repositoryDegradedLogMessage, zap.String(reasonLogFieldNameConstant, reason))
		}
		snapshot = repositorySnapshot
	}

	targetMode := ModeFile
	if snapshot != nil {
		targetMode = ModeGit
	}
	service.eventObserver.TargetStarted(target.rootPath, string(targetMode))

	walker := newTargetWalker(service.fileSystem, plan.classifier, plan.config.FollowSymlinks)
	candidates, walkSkippedPaths, walkError := walker.collectCandidates(target.rootPath)
	if walkError != nil {
		return service.skipTarget(target, targetUnreadablePrefix+walkError.Error(), targetLogger), nil
	}

	eligibleCandidates := make([]EligibleCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		classification := plan.classifier.Classify(candidate, snapshot)
		if !classification.Eligible {
			continue
		}
		eligibleCandidates = append(eligibleCandidates, EligibleCandidate{Candidate: candidate, MatchedPattern: classification.MatchedPattern})
	}

	for skippedIndex := range walkSkippedPaths {
		walkSkippedPaths[skippedIndex].Repository = target.rootPath
	}

	resolver := NewResolver(service.versionControl, service.fileSystem)
	outcome := targetOutcome{usedHistory: snapshot != nil}
	if snapshot != nil {
		entries, skippedPaths, resolveError := resolver.ResolveFromHistory(executionContext, target.rootPath, eligibleCandidates)
		if resolveError != nil {
			return targetOutcome{}, resolveError
		}
		outcome.entries = entries
		outcome.skippedPaths = append(walkSkippedPaths, skippedPaths...)
	} else {
		directoryTimes := walker.aggregateDirectoryTimes(target.rootPath)
		entries, skippedPaths := resolver.ResolveFromFilesystem(target.rootPath, eligibleCandidates, directoryTimes)
		outcome.entries = entries
		outcome.skippedPaths = append(walkSkippedPaths, skippedPaths...)
	}

	service.eventObserver.TargetCompleted(target.rootPath, string(targetMode), len(outcome.entries))
	return outcome, nil
}

func (service *Service) buildSnapshot(executionContext context.Context, repositoryRoot string) (*TrackingSnapshot, error) {
	hasCommits, commitsError := service.versionControl.HasCommits(executionContext, repositoryRoot)
	if commitsError != nil {
		return nil, commitsError
	}
	if !hasCommits {
		return nil, errRepositoryWithoutCommits
	}

	trackedPaths, trackedError := service.versionControl.ListTrackedPaths(executionContext, repositoryRoot)
	if trackedError != nil {
		return nil, trackedError
	}
	ignoredPaths, ignoredError := service.versionControl.ListIgnoredPaths(executionContext, repositoryRoot)
	if ignoredError != nil {
		return nil, ignoredError
	}
	return NewTrackingSnapshot(trackedPaths, ignoredPaths), nil
}

func (service *Service) skipTarget(target scanTarget, reason string, targetLogger *zap.Logger) targetOutcome {
	targetLogger.Warn(repositorySkippedLogMessage, zap.String(reasonLogFieldNameConstant, reason))
	service.eventObserver.TargetSkipped(target.rootPath, reason)
	return targetOutcome{skippedRepository: &SkippedRepository{RootPath: target.rootPath, Reason: reason}}
}

func describeSnapshotFailure(snapshotError error) string {
	if errors.Is(snapshotError, errRepositoryWithoutCommits) {
		return repositoryWithoutCommitsReason
	}
	return trackingSnapshotFailedPrefix + snapshotError.Error()
}

type noopScanEventObserver struct{}

func (noopScanEventObserver) TargetStarted(string, string)        {}
func (noopScanEventObserver) TargetCompleted(string, string, int) {}
func (noopScanEventObserver) TargetSkipped(string, string)        {}
