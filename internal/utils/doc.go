// Package utils exposes reusable helpers consumed by the CLI.
//
// ConfigurationLoader layers embedded defaults, configuration files, and
// environment variables through Viper. LoggerFactory builds zap loggers that
// can mirror their output into a lumberjack rotating file.
package utils
