package freshness

import (
	"strings"

	"github.com/temirov/gitfresh/internal/utils/flags"
)

const (
	configurationBaseDirectoryKeyConstant  = "base_dir"
	configurationExtensionsKeyConstant     = "extensions"
	configurationDepthKeyConstant          = "depth"
	configurationModeKeyConstant           = "mode"
	configurationTypeKeyConstant           = "type"
	configurationPatternsKeyConstant       = "patterns"
	configurationSinceKeyConstant          = "since"
	configurationSortKeyConstant           = "sort"
	configurationExcludeKeyConstant        = "exclude"
	configurationFollowSymlinksKeyConstant = "follow_symlinks"
	configurationConcurrencyKeyConstant    = "concurrency"
	configurationOutputKeyConstant         = "output"
	configurationFormatKeyConstant         = "format"
	configurationSaveKeyConstant           = "save"
	configurationKeySeparatorConstant      = "."
	listSeparatorConstant                  = ","
	defaultBaseDirectoryConstant           = "."
)

// ModeChoices lists the accepted scan modes.
var ModeChoices = []string{string(ModeAuto), string(ModeGit), string(ModeFile)}

// TypeFilterChoices lists the accepted type filters.
var TypeFilterChoices = []string{string(TypeFilterFiles), string(TypeFilterDirectories), string(TypeFilterBoth)}

// CommandConfiguration captures configuration values for the freshness command.
type CommandConfiguration struct {
	BaseDirectory  string   `mapstructure:"base_dir"`
	Extensions     []string `mapstructure:"extensions"`
	Depth          int      `mapstructure:"depth"`
	Mode           string   `mapstructure:"mode"`
	Type           string   `mapstructure:"type"`
	Patterns       []string `mapstructure:"patterns"`
	Since          string   `mapstructure:"since"`
	Sort           string   `mapstructure:"sort"`
	Exclude        []string `mapstructure:"exclude"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks"`
	Concurrency    int      `mapstructure:"concurrency"`
	Output         string   `mapstructure:"output"`
	Format         string   `mapstructure:"format"`
	Save           bool     `mapstructure:"save"`
}

// DefaultCommandConfiguration provides baseline configuration values for the freshness command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		BaseDirectory: defaultBaseDirectoryConstant,
		Depth:         0,
		Mode:          string(ModeAuto),
		Type:          string(TypeFilterBoth),
		Sort:          DefaultSortOrderConstant,
		Concurrency:   minimumConcurrencyConstant,
		Save:          true,
	}
}

// DefaultConfigurationValues returns the defaults keyed for a configuration loader under rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := strings.TrimSpace(rootKey)
	if len(prefix) > 0 {
		prefix += configurationKeySeparatorConstant
	}
	return map[string]any{
		prefix + configurationBaseDirectoryKeyConstant:  defaults.BaseDirectory,
		prefix + configurationExtensionsKeyConstant:     []string{},
		prefix + configurationDepthKeyConstant:          defaults.Depth,
		prefix + configurationModeKeyConstant:           defaults.Mode,
		prefix + configurationTypeKeyConstant:           defaults.Type,
		prefix + configurationPatternsKeyConstant:       []string{},
		prefix + configurationSinceKeyConstant:          defaults.Since,
		prefix + configurationSortKeyConstant:           defaults.Sort,
		prefix + configurationExcludeKeyConstant:        []string{},
		prefix + configurationFollowSymlinksKeyConstant: defaults.FollowSymlinks,
		prefix + configurationConcurrencyKeyConstant:    defaults.Concurrency,
		prefix + configurationOutputKeyConstant:         defaults.Output,
		prefix + configurationFormatKeyConstant:         defaults.Format,
		prefix + configurationSaveKeyConstant:           defaults.Save,
	}
}

// Sanitize trims values, splits comma-separated list items, and normalizes enumerated choices.
// Unknown choices are preserved so the scan can reject them with a precise error.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.BaseDirectory = strings.TrimSpace(configuration.BaseDirectory)
	if len(sanitized.BaseDirectory) == 0 {
		sanitized.BaseDirectory = defaultBaseDirectoryConstant
	}
	sanitized.Extensions = splitListValues(configuration.Extensions)
	sanitized.Patterns = splitListValues(configuration.Patterns)
	sanitized.Exclude = splitListValues(configuration.Exclude)
	sanitized.Mode = flags.NormalizeChoice(configuration.Mode, string(ModeAuto))
	sanitized.Type = flags.NormalizeChoice(configuration.Type, string(TypeFilterBoth))
	sanitized.Since = strings.TrimSpace(configuration.Since)
	sanitized.Sort = strings.TrimSpace(configuration.Sort)
	if len(sanitized.Sort) == 0 {
		sanitized.Sort = DefaultSortOrderConstant
	}
	if sanitized.Concurrency < minimumConcurrencyConstant {
		sanitized.Concurrency = minimumConcurrencyConstant
	}
	sanitized.Output = strings.TrimSpace(configuration.Output)
	sanitized.Format = flags.NormalizeChoice(configuration.Format, "")

	return sanitized
}

// ScanConfig converts the configuration into scan options.
func (configuration CommandConfiguration) ScanConfig() ScanConfig {
	return ScanConfig{
		BaseDirectory:   configuration.BaseDirectory,
		Extensions:      configuration.Extensions,
		MaxDepth:        configuration.Depth,
		Patterns:        configuration.Patterns,
		TypeFilter:      TypeFilter(configuration.Type),
		Mode:            Mode(configuration.Mode),
		Since:           configuration.Since,
		SortBy:          configuration.Sort,
		ExcludePatterns: configuration.Exclude,
		FollowSymlinks:  configuration.FollowSymlinks,
		Concurrency:     configuration.Concurrency,
	}
}

func splitListValues(rawValues []string) []string {
	values := make([]string, 0, len(rawValues))
	for _, rawValue := range rawValues {
		for _, item := range strings.Split(rawValue, listSeparatorConstant) {
			trimmedItem := strings.TrimSpace(item)
			if len(trimmedItem) == 0 {
				continue
			}
			values = append(values, trimmedItem)
		}
	}
	return values
}
