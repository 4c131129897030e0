// Package execshell runs external tools with structured logging.
//
// ShellExecutor wraps a CommandRunner, converts non-zero exits into typed
// errors, and notifies a CommandEventObserver so the console can narrate
// the git queries issued during a freshness scan. OSCommandRunner is the
// os/exec backed runner used outside of tests.
package execshell
