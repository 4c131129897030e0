package freshness

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitfresh/internal/execshell"
	"github.com/temirov/gitfresh/internal/report"
	"github.com/temirov/gitfresh/internal/repos/dependencies"
	"github.com/temirov/gitfresh/internal/repos/shared"
	"github.com/temirov/gitfresh/internal/ui"
	"github.com/temirov/gitfresh/internal/utils/flags"
	pathutils "github.com/temirov/gitfresh/internal/utils/path"
)

const (
	commandUseConstant              = "freshness [base_dir]"
	commandShortDescriptionConstant = "Rank files and directories by their most recent change"
	commandLongDescriptionConstant  = "freshness discovers git repositories beneath base_dir, timestamps every tracked file and directory with its last commit (or its modification time outside of git), and prints a ranked report that is also saved as JSON or YAML."
	commandAliasConstant            = "stats"

	extensionsFlagNameConstant      = "extensions"
	extensionsFlagShorthandConstant = "e"
	extensionsFlagUsageConstant     = "Comma-separated file extensions to include (leading dot optional)"
	depthFlagNameConstant           = "depth"
	depthFlagShorthandConstant      = "d"
	depthFlagUsageConstant          = "Maximum depth below each scanned root (0 for unlimited)"
	modeFlagNameConstant            = "mode"
	modeFlagUsageConstant           = "Timestamp source for scanned paths."
	typeFlagNameConstant            = "type"
	typeFlagUsageConstant           = "Entry kinds to report."
	patternFlagNameConstant         = "pattern"
	patternFlagShorthandConstant    = "p"
	patternFlagUsageConstant        = "Comma-separated glob patterns matched against names and relative paths"
	sinceFlagNameConstant           = "since"
	sinceFlagUsageConstant          = "Only report entries changed on or after this date (YYYY-MM-DD)"
	sortFlagNameConstant            = "sort"
	sortFlagUsageConstant           = "Sort key (updated, name, path, depth); prefix with - for descending"
	excludeFlagNameConstant         = "exclude"
	excludeFlagUsageConstant        = "Comma-separated names or globs to exclude in addition to the built-in set"
	followSymlinksFlagNameConstant  = "follow-symlinks"
	followSymlinksFlagUsageConstant = "Traverse symbolic links to directories"
	concurrencyFlagNameConstant     = "concurrency"
	concurrencyFlagUsageConstant    = "Number of repositories scanned in parallel"
	outputFlagNameConstant          = "output"
	outputFlagShorthandConstant     = "o"
	outputFlagUsageConstant         = "Report destination (defaults to _git_stats or _file_stats in base_dir)"
	formatFlagNameConstant          = "format"
	formatFlagUsageConstant         = "Report format."
	noSaveFlagNameConstant          = "no-save"
	noSaveFlagUsageConstant         = "Print the report without saving it"

	summaryTemplateConstant           = "%d entries from %d repositories (%d skipped)\n"
	noEntriesMessageConstant          = "No matching entries found.\n"
	skippedRepositoryTemplateConstant = "Skipped repository %s: %s\n"
	reportSavedTemplateConstant       = "Report saved to: %s\n"
	outputDestinationLogFieldConstant = "destination"
	reportSavedLogMessageConstant     = "Freshness report saved"
	gitUsageLogMessageConstant        = "Git usage for freshness scan"
	gitCommandsLogFieldConstant       = "git_commands"
	gitNonZeroExitsLogFieldConstant   = "git_non_zero_exits"
	gitFailuresLogFieldConstant       = "git_failures"
	skippedPathsLogFieldConstant      = "skipped_paths"
)

var reportFormatChoices = []string{string(report.FormatJSON), string(report.FormatYAML)}

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the freshness command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	Discoverer                   shared.RepositoryDiscoverer
	GitExecutor                  shared.GitExecutor
	VersionControl               shared.VersionControl
	FileSystem                   shared.FileSystem
	ScanEventObserver            shared.ScanEventObserver
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the freshness command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Aliases: []string{commandAliasConstant},
		Args:    cobra.MaximumNArgs(1),
		RunE:    builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().StringP(extensionsFlagNameConstant, extensionsFlagShorthandConstant, "", extensionsFlagUsageConstant)
	command.Flags().IntP(depthFlagNameConstant, depthFlagShorthandConstant, defaults.Depth, depthFlagUsageConstant)
	command.Flags().String(modeFlagNameConstant, defaults.Mode, flags.FormatChoiceUsage(defaults.Mode, ModeChoices, modeFlagUsageConstant))
	command.Flags().String(typeFlagNameConstant, defaults.Type, flags.FormatChoiceUsage(defaults.Type, TypeFilterChoices, typeFlagUsageConstant))
	command.Flags().StringP(patternFlagNameConstant, patternFlagShorthandConstant, "", patternFlagUsageConstant)
	command.Flags().String(sinceFlagNameConstant, "", sinceFlagUsageConstant)
	command.Flags().String(sortFlagNameConstant, defaults.Sort, sortFlagUsageConstant)
	command.Flags().String(excludeFlagNameConstant, "", excludeFlagUsageConstant)
	command.Flags().Bool(followSymlinksFlagNameConstant, defaults.FollowSymlinks, followSymlinksFlagUsageConstant)
	command.Flags().Int(concurrencyFlagNameConstant, defaults.Concurrency, concurrencyFlagUsageConstant)
	command.Flags().StringP(outputFlagNameConstant, outputFlagShorthandConstant, "", outputFlagUsageConstant)
	command.Flags().String(formatFlagNameConstant, "", flags.FormatChoiceUsage(string(report.FormatJSON), reportFormatChoices, formatFlagUsageConstant))
	command.Flags().Bool(noSaveFlagNameConstant, false, noSaveFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, flagError := builder.applyFlagOverrides(command, builder.resolveConfiguration())
	if flagError != nil {
		return flagError
	}
	if len(arguments) > 0 && len(strings.TrimSpace(arguments[0])) > 0 {
		configuration.BaseDirectory = strings.TrimSpace(arguments[0])
	}

	homeExpander := builder.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}
	configuration.BaseDirectory = homeExpander.Expand(configuration.BaseDirectory)
	configuration.Output = homeExpander.Expand(configuration.Output)

	scanConfig := configuration.ScanConfig()
	if len(configuration.Output) > 0 {
		scanConfig.ExcludeNames = append(scanConfig.ExcludeNames, filepath.Base(configuration.Output))
	}

	logger := builder.resolveLogger()
	humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()

	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	commandCounter := &execshell.CommandCounter{}
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging, commandCounter)
	if executorError != nil {
		return executorError
	}
	versionControl, versionControlError := dependencies.ResolveVersionControl(builder.VersionControl, gitExecutor)
	if versionControlError != nil {
		return versionControlError
	}

	scanEventObserver := builder.ScanEventObserver
	if scanEventObserver == nil && humanReadableLogging {
		scanEventObserver = ui.NewConsoleScanEventLogger(logger)
	}

	service, serviceError := NewService(Dependencies{
		Discoverer:     dependencies.ResolveRepositoryDiscoverer(builder.Discoverer, fileSystem, logger, configuration.FollowSymlinks),
		VersionControl: versionControl,
		FileSystem:     fileSystem,
		EventObserver:  scanEventObserver,
		Logger:         logger,
	})
	if serviceError != nil {
		return serviceError
	}

	reportFormat, formatError := report.ParseFormat(configuration.Format, configuration.Output)
	if formatError != nil {
		return formatError
	}

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}
	scanResult, scanError := service.Scan(executionContext, scanConfig)
	if scanError != nil {
		return scanError
	}
	logger.Debug(gitUsageLogMessageConstant,
		zap.Int64(gitCommandsLogFieldConstant, commandCounter.Started()),
		zap.Int64(gitNonZeroExitsLogFieldConstant, commandCounter.NonZeroExits()),
		zap.Int64(gitFailuresLogFieldConstant, commandCounter.Failures()),
		zap.Int(skippedPathsLogFieldConstant, len(scanResult.SkippedPaths)),
	)

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	records := scanResult.Records()
	if len(records) == 0 {
		reporter.Printf(noEntriesMessageConstant)
	}
	report.TableRenderer{IncludeRepository: len(scanResult.Repositories) > 1}.Render(command.OutOrStdout(), records)
	for _, skippedRepository := range scanResult.SkippedRepositories {
		reporter.Printf(skippedRepositoryTemplateConstant, skippedRepository.RootPath, skippedRepository.Reason)
	}
	reporter.Printf(summaryTemplateConstant, len(records), len(scanResult.Repositories), len(scanResult.SkippedRepositories))

	if !configuration.Save {
		return nil
	}

	destinationPath := resolveReportDestination(configuration.Output, scanResult, reportFormat)
	if writeError := report.NewWriter(fileSystem).Write(destinationPath, reportFormat, records); writeError != nil {
		return writeError
	}
	logger.Debug(reportSavedLogMessageConstant, zap.String(outputDestinationLogFieldConstant, destinationPath))
	reporter.Printf(reportSavedTemplateConstant, destinationPath)
	return nil
}

// applyFlagOverrides replaces configuration values with flags the user set explicitly.
func (builder *CommandBuilder) applyFlagOverrides(command *cobra.Command, configuration CommandConfiguration) (CommandConfiguration, error) {
	commandFlags := command.Flags()

	stringOverrides := []struct {
		flagName string
		apply    func(value string)
	}{
		{flagName: extensionsFlagNameConstant, apply: func(value string) { configuration.Extensions = splitListValues([]string{value}) }},
		{flagName: modeFlagNameConstant, apply: func(value string) { configuration.Mode = flags.NormalizeChoice(value, string(ModeAuto)) }},
		{flagName: typeFlagNameConstant, apply: func(value string) { configuration.Type = flags.NormalizeChoice(value, string(TypeFilterBoth)) }},
		{flagName: patternFlagNameConstant, apply: func(value string) { configuration.Patterns = splitListValues([]string{value}) }},
		{flagName: sinceFlagNameConstant, apply: func(value string) { configuration.Since = strings.TrimSpace(value) }},
		{flagName: sortFlagNameConstant, apply: func(value string) { configuration.Sort = strings.TrimSpace(value) }},
		{flagName: excludeFlagNameConstant, apply: func(value string) {
			configuration.Exclude = append(configuration.Exclude, splitListValues([]string{value})...)
		}},
		{flagName: outputFlagNameConstant, apply: func(value string) { configuration.Output = strings.TrimSpace(value) }},
		{flagName: formatFlagNameConstant, apply: func(value string) { configuration.Format = flags.NormalizeChoice(value, "") }},
	}
	for _, override := range stringOverrides {
		if !commandFlags.Changed(override.flagName) {
			continue
		}
		flagValue, flagError := commandFlags.GetString(override.flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		override.apply(flagValue)
	}

	if commandFlags.Changed(depthFlagNameConstant) {
		depthValue, depthError := commandFlags.GetInt(depthFlagNameConstant)
		if depthError != nil {
			return CommandConfiguration{}, depthError
		}
		configuration.Depth = depthValue
	}
	if commandFlags.Changed(concurrencyFlagNameConstant) {
		concurrencyValue, concurrencyError := commandFlags.GetInt(concurrencyFlagNameConstant)
		if concurrencyError != nil {
			return CommandConfiguration{}, concurrencyError
		}
		configuration.Concurrency = max(concurrencyValue, minimumConcurrencyConstant)
	}
	if commandFlags.Changed(followSymlinksFlagNameConstant) {
		followValue, followError := commandFlags.GetBool(followSymlinksFlagNameConstant)
		if followError != nil {
			return CommandConfiguration{}, followError
		}
		configuration.FollowSymlinks = followValue
	}
	if commandFlags.Changed(noSaveFlagNameConstant) {
		noSaveValue, noSaveError := commandFlags.GetBool(noSaveFlagNameConstant)
		if noSaveError != nil {
			return CommandConfiguration{}, noSaveError
		}
		configuration.Save = !noSaveValue
	}
	return configuration, nil
}

// resolveReportDestination honours an explicit output path, otherwise names the report after the timestamp source.
func resolveReportDestination(output string, scanResult ScanResult, reportFormat report.Format) string {
	if len(output) > 0 {
		if filepath.IsAbs(output) {
			return output
		}
		absoluteOutput, absoluteError := filepath.Abs(output)
		if absoluteError != nil {
			return output
		}
		return absoluteOutput
	}

	reportBaseName := FileReportBaseNameConstant
	if scanResult.GitModeUsed {
		reportBaseName = GitReportBaseNameConstant
	}
	return filepath.Join(scanResult.BaseDirectory, reportBaseName+"."+string(reportFormat))
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
