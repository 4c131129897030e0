package execshell

import "sync/atomic"

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports failures that produced no execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// CombineCommandEventObservers fans events out to every non-nil observer in order.
func CombineCommandEventObservers(observers ...CommandEventObserver) CommandEventObserver {
	combined := make(commandEventFanout, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			combined = append(combined, observer)
		}
	}
	switch len(combined) {
	case 0:
		return noopCommandEventObserver{}
	case 1:
		return combined[0]
	default:
		return combined
	}
}

type commandEventFanout []CommandEventObserver

func (fanout commandEventFanout) CommandStarted(command ShellCommand) {
	for _, observer := range fanout {
		observer.CommandStarted(command)
	}
}

func (fanout commandEventFanout) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range fanout {
		observer.CommandCompleted(command, result)
	}
}

func (fanout commandEventFanout) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range fanout {
		observer.CommandExecutionFailed(command, failure)
	}
}

// CommandCounter tallies executions. It is safe for concurrent use by parallel repository scans.
type CommandCounter struct {
	started      atomic.Int64
	nonZeroExits atomic.Int64
	failures     atomic.Int64
}

// CommandStarted counts a started command.
func (counter *CommandCounter) CommandStarted(ShellCommand) {
	counter.started.Add(1)
}

// CommandCompleted counts commands that exited with a non-zero status.
func (counter *CommandCounter) CommandCompleted(_ ShellCommand, result ExecutionResult) {
	if result.ExitCode != 0 {
		counter.nonZeroExits.Add(1)
	}
}

// CommandExecutionFailed counts commands that could not be run.
func (counter *CommandCounter) CommandExecutionFailed(ShellCommand, error) {
	counter.failures.Add(1)
}

// Started returns the number of commands started so far.
func (counter *CommandCounter) Started() int64 {
	return counter.started.Load()
}

// NonZeroExits returns the number of commands that exited unsuccessfully.
func (counter *CommandCounter) NonZeroExits() int64 {
	return counter.nonZeroExits.Load()
}

// Failures returns the number of commands that could not be run.
func (counter *CommandCounter) Failures() int64 {
	return counter.failures.Load()
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
