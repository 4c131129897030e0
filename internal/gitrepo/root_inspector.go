package gitrepo

import (
	"io/fs"
	"path/filepath"
	"strings"
)

const (
	gitMetadataEntryNameConstant   = ".git"
	gitHeadFileNameConstant        = "HEAD"
	gitDirectoryPointerPrefix      = "gitdir:"
	symbolicReferencePrefix        = "ref: "
	shortObjectIdentifierLength    = 40
	extendedObjectIdentifierLength = 64
)

// MetadataFileSystem is the filesystem subset needed to inspect repository metadata.
type MetadataFileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// RootInspector decides whether a directory is the root of a git working tree.
type RootInspector struct {
	fileSystem MetadataFileSystem
}

// NewRootInspector constructs an inspector reading metadata through the provided filesystem.
func NewRootInspector(fileSystem MetadataFileSystem) *RootInspector {
	return &RootInspector{fileSystem: fileSystem}
}

// IsRepositoryRoot reports whether directoryPath holds a .git entry whose HEAD is readable and well formed.
// A .git file is followed through its gitdir pointer, which covers worktrees and submodules.
func (inspector *RootInspector) IsRepositoryRoot(directoryPath string) bool {
	metadataPath := filepath.Join(directoryPath, gitMetadataEntryNameConstant)
	metadataInfo, statError := inspector.fileSystem.Stat(metadataPath)
	if statError != nil {
		return false
	}

	metadataDirectory := metadataPath
	if !metadataInfo.IsDir() {
		resolvedDirectory, resolved := inspector.resolveGitDirectoryPointer(directoryPath, metadataPath)
		if !resolved {
			return false
		}
		metadataDirectory = resolvedDirectory
	}

	headContents, readError := inspector.fileSystem.ReadFile(filepath.Join(metadataDirectory, gitHeadFileNameConstant))
	if readError != nil {
		return false
	}
	return isWellFormedHead(string(headContents))
}

func (inspector *RootInspector) resolveGitDirectoryPointer(directoryPath string, pointerPath string) (string, bool) {
	pointerContents, readError := inspector.fileSystem.ReadFile(pointerPath)
	if readError != nil {
		return "", false
	}

	trimmedContents := strings.TrimSpace(string(pointerContents))
	if !strings.HasPrefix(trimmedContents, gitDirectoryPointerPrefix) {
		return "", false
	}

	targetDirectory := strings.TrimSpace(strings.TrimPrefix(trimmedContents, gitDirectoryPointerPrefix))
	if len(targetDirectory) == 0 {
		return "", false
	}
	if !filepath.IsAbs(targetDirectory) {
		targetDirectory = filepath.Join(directoryPath, targetDirectory)
	}
	return targetDirectory, true
}

func isWellFormedHead(headContents string) bool {
	trimmedHead := strings.TrimSpace(headContents)
	if strings.HasPrefix(trimmedHead, symbolicReferencePrefix) {
		return len(strings.TrimSpace(strings.TrimPrefix(trimmedHead, symbolicReferencePrefix))) > 0
	}
	if len(trimmedHead) != shortObjectIdentifierLength && len(trimmedHead) != extendedObjectIdentifierLength {
		return false
	}
	for _, character := range trimmedHead {
		isDigit := character >= '0' && character <= '9'
		isLowerHex := character >= 'a' && character <= 'f'
		if !isDigit && !isLowerHex {
			return false
		}
	}
	return true
}
