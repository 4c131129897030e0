// Package freshness ranks the files and directories beneath a base directory by their most recent change.
//
// Service discovers repositories, builds a tracking snapshot for each one, classifies the paths it walks,
// resolves timestamps from commit history or filesystem metadata, and merges every target into one ranked
// result. CommandBuilder exposes the scan as the freshness Cobra command and persists the report.
package freshness
