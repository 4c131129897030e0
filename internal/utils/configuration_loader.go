package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	listValueSeparatorConstant                      = ","
	embeddedConfigurationSourceConstant             = "embedded"
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	configurationFileMissingErrorTemplateConstant   = "%w: %s"
)

// ErrConfigurationFileNotFound indicates an explicitly requested configuration file does not exist.
var ErrConfigurationFileNotFound = errors.New("configuration file not found")

// ConfigurationLoaderOptions describes where configuration is read from.
type ConfigurationLoaderOptions struct {
	Name              string
	Type              string
	EnvironmentPrefix string
	SearchPaths       []string
	// EmbeddedDefaults is merged before any file on disk. EmbeddedType falls back to Type.
	EmbeddedDefaults []byte
	EmbeddedType     string
}

// ConfigurationLoader layers embedded defaults, a configuration file and environment variables through viper.
type ConfigurationLoader struct {
	options                ConfigurationLoaderOptions
	environmentKeyReplacer *strings.Replacer
}

// LoadedConfiguration reports which layers contributed to a load.
type LoadedConfiguration struct {
	ConfigFileUsed string
	// Sources lists contributing layers in merge order.
	Sources []string
}

// NewConfigurationLoader copies the options so later mutation by the caller has no effect.
func NewConfigurationLoader(options ConfigurationLoaderOptions) *ConfigurationLoader {
	options.SearchPaths = normalizeSearchPaths(options.SearchPaths)
	options.EmbeddedDefaults = bytes.Clone(options.EmbeddedDefaults)
	options.EmbeddedType = strings.TrimSpace(options.EmbeddedType)
	if len(options.EmbeddedType) == 0 {
		options.EmbeddedType = options.Type
	}

	return &ConfigurationLoader{
		options:                options,
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
	}
}

// SearchPaths returns the directories searched for a configuration file, in search order.
func (loader *ConfigurationLoader) SearchPaths() []string {
	return append([]string(nil), loader.options.SearchPaths...)
}

// LoadConfiguration decodes defaults, embedded configuration, the configuration file and environment
// overrides into targetConfiguration. An empty configurationFilePath searches the configured paths.
// Comma-separated strings decode into slice fields.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := loader.newViperInstance(defaultValues)
	loadedConfiguration := LoadedConfiguration{Sources: make([]string, 0, 2)}

	if len(loader.options.EmbeddedDefaults) > 0 {
		if mergeError := loader.mergeEmbeddedDefaults(viperInstance); mergeError != nil {
			return LoadedConfiguration{}, mergeError
		}
		loadedConfiguration.Sources = append(loadedConfiguration.Sources, embeddedConfigurationSourceConstant)
	}

	fileFound, fileError := loader.mergeConfigurationFile(viperInstance, strings.TrimSpace(configurationFilePath))
	if fileError != nil {
		return LoadedConfiguration{}, fileError
	}
	if fileFound {
		loadedConfiguration.ConfigFileUsed = viperInstance.ConfigFileUsed()
		loadedConfiguration.Sources = append(loadedConfiguration.Sources, loadedConfiguration.ConfigFileUsed)
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
	))
	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, decodeHook); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}
	return loadedConfiguration, nil
}

func (loader *ConfigurationLoader) newViperInstance(defaultValues map[string]any) *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.options.Name)
	viperInstance.SetConfigType(loader.options.Type)
	for _, searchPath := range loader.options.SearchPaths {
		viperInstance.AddConfigPath(searchPath)
	}
	viperInstance.SetEnvPrefix(loader.options.EnvironmentPrefix)
	viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	viperInstance.AutomaticEnv()
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}
	return viperInstance
}

func (loader *ConfigurationLoader) mergeEmbeddedDefaults(viperInstance *viper.Viper) error {
	viperInstance.SetConfigType(loader.options.EmbeddedType)
	defer viperInstance.SetConfigType(loader.options.Type)
	if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.options.EmbeddedDefaults)); mergeError != nil {
		return fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}
	return nil
}

// mergeConfigurationFile reports false when no file was found on the search paths.
// A missing explicit file is an error.
func (loader *ConfigurationLoader) mergeConfigurationFile(viperInstance *viper.Viper, configurationFilePath string) (bool, error) {
	explicitFile := len(configurationFilePath) > 0
	if explicitFile {
		if _, statError := os.Stat(configurationFilePath); errors.Is(statError, fs.ErrNotExist) {
			return false, fmt.Errorf(configurationFileMissingErrorTemplateConstant, ErrConfigurationFileNotFound, configurationFilePath)
		}
		viperInstance.SetConfigFile(configurationFilePath)
	}

	readError := viperInstance.MergeInConfig()
	if readError == nil {
		return true, nil
	}
	var notFoundError viper.ConfigFileNotFoundError
	if !explicitFile && errors.As(readError, &notFoundError) {
		return false, nil
	}
	return false, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
}

func normalizeSearchPaths(searchPaths []string) []string {
	normalized := make([]string, 0, len(searchPaths))
	seen := make(map[string]struct{}, len(searchPaths))
	for _, searchPath := range searchPaths {
		trimmed := strings.TrimSpace(searchPath)
		if len(trimmed) == 0 {
			continue
		}
		cleaned := filepath.Clean(trimmed)
		if _, duplicate := seen[cleaned]; duplicate {
			continue
		}
		seen[cleaned] = struct{}{}
		normalized = append(normalized, cleaned)
	}
	return normalized
}
