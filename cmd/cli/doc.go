// Package cli constructs the gitfresh command-line interface, wiring the
// Cobra command hierarchy, the Viper-backed configuration loader with its
// embedded defaults, and zap logging. Execute runs the default command set.
package cli
