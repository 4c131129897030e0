package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	repositoryRootPathLabelConstant         = "repository root"
	pathspecSeparatorArgumentConstant       = "--"
)

const (
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitVerifyFlagConstant             = "--verify"
	gitLSFilesSubcommandNameConstant  = "ls-files"
	gitIgnoredFlagConstant            = "--ignored"
	gitOthersFlagConstant             = "--others"
	gitLogSubcommandNameConstant      = "log"
)

const (
	gitCommitPresenceStartTemplateConstant            = "Checking for commits in %s"
	gitCommitPresenceSuccessTemplateConstant          = "%s has commits"
	gitCommitPresenceFailureTemplateConstant          = "No commits found in %s (exit code %d%s)"
	gitCommitPresenceExecutionFailureTemplateConstant = "Unable to check commits in %s: %s"
	gitTrackedListingStartTemplateConstant            = "Listing tracked files in %s"
	gitTrackedListingSuccessTemplateConstant          = "Listed tracked files in %s"
	gitTrackedListingFailureTemplateConstant          = "Failed to list tracked files in %s (exit code %d%s)"
	gitTrackedListingExecutionFailureTemplateConstant = "Unable to list tracked files in %s: %s"
	gitIgnoredListingStartTemplateConstant            = "Listing ignored %s files in %s"
	gitIgnoredListingSuccessTemplateConstant          = "Listed ignored %s files in %s"
	gitIgnoredListingFailureTemplateConstant          = "Failed to list ignored %s files in %s (exit code %d%s)"
	gitIgnoredListingExecutionFailureTemplateConstant = "Unable to list ignored %s files in %s: %s"
	gitIgnoredUntrackedLabelConstant                  = "untracked"
	gitIgnoredTrackedLabelConstant                    = "tracked"
	gitLastCommitStartTemplateConstant                = "Reading last commit of %s in %s"
	gitLastCommitSuccessTemplateConstant              = "Read last commit of %s in %s"
	gitLastCommitFailureTemplateConstant              = "Failed to read last commit of %s in %s (exit code %d%s)"
	gitLastCommitExecutionFailureTemplateConstant     = "Unable to read last commit of %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitRevParseSubcommandNameConstant:
		if !containsArgument(arguments, gitVerifyFlagConstant) {
			break
		}
		return formatter.selectTemplate(stage, result, failure,
			stageTemplates{
				start:            gitCommitPresenceStartTemplateConstant,
				success:          gitCommitPresenceSuccessTemplateConstant,
				failure:          gitCommitPresenceFailureTemplateConstant,
				executionFailure: gitCommitPresenceExecutionFailureTemplateConstant,
			},
			workingDirectory)
	case gitLSFilesSubcommandNameConstant:
		if !containsArgument(arguments, gitIgnoredFlagConstant) {
			return formatter.selectTemplate(stage, result, failure,
				stageTemplates{
					start:            gitTrackedListingStartTemplateConstant,
					success:          gitTrackedListingSuccessTemplateConstant,
					failure:          gitTrackedListingFailureTemplateConstant,
					executionFailure: gitTrackedListingExecutionFailureTemplateConstant,
				},
				workingDirectory)
		}
		ignoredLabel := gitIgnoredTrackedLabelConstant
		if containsArgument(arguments, gitOthersFlagConstant) {
			ignoredLabel = gitIgnoredUntrackedLabelConstant
		}
		return formatter.selectTemplate(stage, result, failure,
			stageTemplates{
				start:            gitIgnoredListingStartTemplateConstant,
				success:          gitIgnoredListingSuccessTemplateConstant,
				failure:          gitIgnoredListingFailureTemplateConstant,
				executionFailure: gitIgnoredListingExecutionFailureTemplateConstant,
			},
			ignoredLabel, workingDirectory)
	case gitLogSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure,
			stageTemplates{
				start:            gitLastCommitStartTemplateConstant,
				success:          gitLastCommitSuccessTemplateConstant,
				failure:          gitLastCommitFailureTemplateConstant,
				executionFailure: gitLastCommitExecutionFailureTemplateConstant,
			},
			extractPathspec(arguments), workingDirectory)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

func (formatter CommandMessageFormatter) selectTemplate(stage messageStage, result ExecutionResult, failure error, templates stageTemplates, subjects ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, append(subjects, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))...)
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, append(subjects, formatter.describeFailure(failure))...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

// extractPathspec returns the arguments following "--", or the repository root label when none were given.
func extractPathspec(arguments []string) string {
	for index, argument := range arguments {
		if argument != pathspecSeparatorArgumentConstant {
			continue
		}
		pathspecs := arguments[index+1:]
		if len(pathspecs) == 0 {
			break
		}
		return strings.Join(pathspecs, commandArgumentsJoinSeparatorConstant)
	}
	return repositoryRootPathLabelConstant
}
