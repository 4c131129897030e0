// Package pathutils resolves user-supplied directory paths from flags and configuration.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
	environmentReferenceConstant    = "$"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves an environment variable by name.
type EnvironmentLookup func(name string) (string, bool)

// HomeExpander converts home shortcuts and environment references in paths read from flags or configuration files.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewHomeExpander constructs a HomeExpander using the operating system lookups.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom home directory provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider, environmentLookup: os.LookupEnv}
}

// WithEnvironmentLookup replaces the environment lookup used for $NAME references.
func (expander *HomeExpander) WithEnvironmentLookup(lookup EnvironmentLookup) *HomeExpander {
	if expander != nil && lookup != nil {
		expander.environmentLookup = lookup
	}
	return expander
}

// Expand trims the path, substitutes $NAME and ${NAME} references, and resolves a leading tilde.
// Unset variables are left in place so the resulting error names the original input.
func (expander *HomeExpander) Expand(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if expander == nil || len(trimmedPath) == 0 {
		return trimmedPath
	}

	expandedPath := expander.expandEnvironment(trimmedPath)
	if !strings.HasPrefix(expandedPath, tildeSymbolConstant) {
		return expandedPath
	}

	resolvedHomeDirectory := expander.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return expandedPath
	}

	switch {
	case expandedPath == tildeSymbolConstant:
		return resolvedHomeDirectory
	case strings.HasPrefix(expandedPath, tildeForwardSlashPrefixConstant):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(expandedPath, tildeForwardSlashPrefixConstant))
	case strings.HasPrefix(expandedPath, tildeWithPathSeparatorPrefix):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(expandedPath, tildeWithPathSeparatorPrefix))
	default:
		return expandedPath
	}
}

func (expander *HomeExpander) expandEnvironment(candidatePath string) string {
	if !strings.Contains(candidatePath, environmentReferenceConstant) || expander.environmentLookup == nil {
		return candidatePath
	}
	return os.Expand(candidatePath, func(variableName string) string {
		if value, exists := expander.environmentLookup(variableName); exists {
			return value
		}
		return environmentReferenceConstant + "{" + variableName + "}"
	})
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
