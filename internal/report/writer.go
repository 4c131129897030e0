package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format selects the report serialization.
type Format string

// Supported report formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	yamlAlternateExtensionConstant   = ".yml"
	jsonIndentConstant               = "  "
	temporaryFileNameTemplate        = ".%s.%s.tmp"
	reportDirectoryPermissions       = fs.FileMode(0o755)
	reportFilePermissions            = fs.FileMode(0o644)
	unsupportedFormatErrorTemplate   = "%w: %q"
	encodeReportErrorTemplate        = "encode %s report: %w"
	prepareDirectoryErrorTemplate    = "prepare report directory %s: %w"
	writeTemporaryFileErrorTemplate  = "write temporary report %s: %w"
	replaceReportErrorTemplate       = "replace report %s: %w"
	trailingNewlineConstant          = "\n"
	extensionSeparatorTrimCharacters = "."
)

// ErrUnsupportedFormat indicates a report format other than json or yaml.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ParseFormat normalizes a format name. An empty value falls back to the destination's extension, then to JSON.
func ParseFormat(value string, destinationPath string) (Format, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if len(normalizedValue) == 0 {
		normalizedValue = strings.ToLower(strings.Trim(filepath.Ext(destinationPath), extensionSeparatorTrimCharacters))
		if normalizedValue != string(FormatYAML) && normalizedValue != strings.Trim(yamlAlternateExtensionConstant, extensionSeparatorTrimCharacters) {
			return FormatJSON, nil
		}
	}

	switch normalizedValue {
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), strings.Trim(yamlAlternateExtensionConstant, extensionSeparatorTrimCharacters):
		return FormatYAML, nil
	default:
		return "", fmt.Errorf(unsupportedFormatErrorTemplate, ErrUnsupportedFormat, value)
	}
}

// FileSystem is the filesystem subset needed to persist reports.
type FileSystem interface {
	MkdirAll(path string, permissions fs.FileMode) error
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	Rename(oldPath string, newPath string) error
	Remove(path string) error
}

// Writer persists records atomically: the report is written beside its destination and renamed into place.
type Writer struct {
	fileSystem          FileSystem
	temporarySuffixFunc func() string
}

// NewWriter constructs a Writer backed by the provided filesystem.
func NewWriter(fileSystem FileSystem) *Writer {
	return &Writer{fileSystem: fileSystem, temporarySuffixFunc: uuid.NewString}
}

// Write serializes records in the requested format and replaces destinationPath with the result.
// A failed write leaves any existing report untouched.
func (writer *Writer) Write(destinationPath string, format Format, records []Record) error {
	encodedReport, encodeError := Encode(format, records)
	if encodeError != nil {
		return encodeError
	}

	destinationDirectory := filepath.Dir(destinationPath)
	if mkdirError := writer.fileSystem.MkdirAll(destinationDirectory, reportDirectoryPermissions); mkdirError != nil {
		return fmt.Errorf(prepareDirectoryErrorTemplate, destinationDirectory, mkdirError)
	}

	temporaryPath := filepath.Join(destinationDirectory, fmt.Sprintf(temporaryFileNameTemplate, filepath.Base(destinationPath), writer.temporarySuffixFunc()))
	if writeError := writer.fileSystem.WriteFile(temporaryPath, encodedReport, reportFilePermissions); writeError != nil {
		_ = writer.fileSystem.Remove(temporaryPath)
		return fmt.Errorf(writeTemporaryFileErrorTemplate, temporaryPath, writeError)
	}

	if renameError := writer.fileSystem.Rename(temporaryPath, destinationPath); renameError != nil {
		_ = writer.fileSystem.Remove(temporaryPath)
		return fmt.Errorf(replaceReportErrorTemplate, destinationPath, renameError)
	}
	return nil
}

// Encode renders records in the requested format. An empty record set encodes as an empty list.
func Encode(format Format, records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}

	switch format {
	case FormatJSON:
		encodedReport, marshalError := json.MarshalIndent(records, "", jsonIndentConstant)
		if marshalError != nil {
			return nil, fmt.Errorf(encodeReportErrorTemplate, format, marshalError)
		}
		return append(encodedReport, trailingNewlineConstant...), nil
	case FormatYAML:
		encodedReport, marshalError := yaml.Marshal(records)
		if marshalError != nil {
			return nil, fmt.Errorf(encodeReportErrorTemplate, format, marshalError)
		}
		return encodedReport, nil
	default:
		return nil, fmt.Errorf(unsupportedFormatErrorTemplate, ErrUnsupportedFormat, string(format))
	}
}
