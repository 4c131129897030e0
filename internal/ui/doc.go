// Package ui turns command and scan events into concise console messages.
//
// Detailed telemetry keeps flowing through structured loggers; these helpers
// are wired in only when the console log format is selected.
package ui
