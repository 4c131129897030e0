package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandName identifies an external executable supported by the shell executor.
type CommandName string

// CommandGit is the git executable.
const CommandGit CommandName = "git"

const (
	commandFailedErrorTemplateConstant    = "%s exited with code %d%s"
	commandExecutionErrorTemplateConstant = "%s could not be executed: %v"
	commandStandardErrorSuffixConstant    = ": %s"
	commandLogFieldNameConstant           = "command"
	argumentsLogFieldNameConstant         = "arguments"
	workingDirectoryLogFieldNameConstant  = "working_directory"
	exitCodeLogFieldNameConstant          = "exit_code"
	durationLogFieldNameConstant          = "duration"
)

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New("shell executor logger not configured")
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New("shell executor command runner not configured")
)

// CommandDetails describes the invocation parameters of a command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of a finished command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran but returned a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := ""
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(commandStandardErrorSuffixConstant, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Name, failure.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a command that could not be started or was interrupted.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutor runs commands through a CommandRunner and logs their lifecycle.
type ShellExecutor struct {
	logger        *zap.Logger
	runner        CommandRunner
	eventObserver CommandEventObserver
}

// NewShellExecutor constructs an executor that only reports through the structured logger.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	return NewShellExecutorWithObserver(logger, runner, nil)
}

// NewShellExecutorWithObserver constructs an executor that also notifies the provided observer.
func NewShellExecutorWithObserver(logger *zap.Logger, runner CommandRunner, eventObserver CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner, eventObserver: CombineCommandEventObservers(eventObserver)}, nil
}

// Execute runs the command and converts non-zero exit codes into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandFields := []zap.Field{
		zap.String(commandLogFieldNameConstant, string(command.Name)),
		zap.Strings(argumentsLogFieldNameConstant, command.Details.Arguments),
		zap.String(workingDirectoryLogFieldNameConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug("Executing command", commandFields...)
	executor.eventObserver.CommandStarted(command)

	startedAt := time.Now()
	executionResult, runError := executor.runner.Run(executionContext, command)
	elapsed := time.Since(startedAt)

	if runError != nil {
		executor.logger.Debug("Command execution failed", append(commandFields, zap.Duration(durationLogFieldNameConstant, elapsed), zap.Error(runError))...)
		executor.eventObserver.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	completionFields := append(commandFields, zap.Int(exitCodeLogFieldNameConstant, executionResult.ExitCode), zap.Duration(durationLogFieldNameConstant, elapsed))
	executor.eventObserver.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Debug("Command exited with non-zero status", completionFields...)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug("Command completed", completionFields...)
	return executionResult, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}
