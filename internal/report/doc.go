// Package report renders ranked freshness records to the console and persists them as JSON or YAML.
package report
