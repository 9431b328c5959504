// Package project lists the contents of a project directory one level at a time.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/temirov/promptctx/internal/config"
	"github.com/temirov/promptctx/internal/types"
	"github.com/temirov/promptctx/internal/utils"
)

const (
	// warningReadDirectoryFormat is used when a directory cannot be read.
	warningReadDirectoryFormat = "Warning: unable to read directory %s: %v"
	// warningStatPathFormat is used when file information cannot be retrieved.
	warningStatPathFormat = "Warning: unable to stat %s: %v"
	// warningIgnorePatternsFormat is used when ignore files cannot be loaded.
	warningIgnorePatternsFormat = "Warning: unable to load ignore patterns for %s: %v"
	// errorOutsideRootFormat wraps ErrPathOutsideRoot with the offending path.
	errorOutsideRootFormat = "list %q: %w"
)

// ErrPathOutsideRoot reports a relative path that is absolute or escapes the project root.
var ErrPathOutsideRoot = errors.New("path is outside the project root")

// Lister lists immediate children of directories below RootPath.
// Entries whose names start with a dot are never returned.
type Lister struct {
	RootPath          string
	ExclusionPatterns []string
	UseGitignore      bool
	UseIgnoreFile     bool
	Warn              func(string)
}

// ListDirectory lists rootPath/relativeSubPath without any ignore file handling.
func ListDirectory(rootPath string, relativeSubPath string) (types.DirectoryListing, error) {
	return Lister{RootPath: rootPath}.List(relativeSubPath)
}

// List returns the directories and files directly inside relativeSubPath, each
// group ordered by name. An unreadable directory produces an empty listing.
// The only error is ErrPathOutsideRoot.
func (lister Lister) List(relativeSubPath string) (types.DirectoryListing, error) {
	normalizedSubPath, insideRoot := utils.NormalizeRelativePath(relativeSubPath)
	if !insideRoot {
		return types.DirectoryListing{}, fmt.Errorf(errorOutsideRootFormat, relativeSubPath, ErrPathOutsideRoot)
	}

	listing := types.DirectoryListing{
		Path:        normalizedSubPath,
		Directories: []types.DirectoryEntry{},
		Files:       []types.DirectoryEntry{},
	}

	directoryPath := filepath.Join(lister.RootPath, filepath.FromSlash(normalizedSubPath))
	// os.ReadDir returns entries sorted by filename.
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		lister.warn(fmt.Sprintf(warningReadDirectoryFormat, directoryPath, readDirectoryError))
		return listing, nil
	}

	ignorePatterns := lister.ignorePatterns(normalizedSubPath)

	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		if utils.IsHiddenName(entryName) {
			continue
		}
		childPath := filepath.Join(directoryPath, entryName)
		relativeChildPath := utils.JoinRelativePath(normalizedSubPath, entryName)
		isDirectory := lister.resolvesToDirectory(directoryEntry, childPath)
		if len(ignorePatterns) > 0 && utils.ShouldIgnoreByPath(relativeChildPath, isDirectory, ignorePatterns) {
			continue
		}

		entry := types.DirectoryEntry{
			Name:         entryName,
			RelativePath: relativeChildPath,
			AbsolutePath: childPath,
		}
		if isDirectory {
			entry.Type = types.NodeTypeDirectory
			listing.Directories = append(listing.Directories, entry)
			continue
		}

		entry.Type = types.NodeTypeFile
		if fileInfo, statError := os.Stat(childPath); statError != nil {
			lister.warn(fmt.Sprintf(warningStatPathFormat, childPath, statError))
		} else {
			entry.SizeBytes = fileInfo.Size()
			entry.Size = utils.FormatFileSize(fileInfo.Size())
		}
		listing.Files = append(listing.Files, entry)
	}

	return listing, nil
}

// resolvesToDirectory follows symbolic links so that a link to a directory is listed as one.
func (lister Lister) resolvesToDirectory(directoryEntry fs.DirEntry, childPath string) bool {
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		return directoryEntry.IsDir()
	}
	targetInfo, statError := os.Stat(childPath)
	if statError != nil {
		return false
	}
	return targetInfo.IsDir()
}

func (lister Lister) ignorePatterns(normalizedSubPath string) []string {
	if !lister.UseGitignore && !lister.UseIgnoreFile && len(lister.ExclusionPatterns) == 0 {
		return nil
	}
	patterns, loadError := config.LoadListingIgnorePatterns(lister.RootPath, normalizedSubPath, lister.ExclusionPatterns, lister.UseGitignore, lister.UseIgnoreFile)
	if loadError != nil {
		lister.warn(fmt.Sprintf(warningIgnorePatternsFormat, normalizedSubPath, loadError))
		return lister.ExclusionPatterns
	}
	return patterns
}

func (lister Lister) warn(message string) {
	if lister.Warn != nil {
		lister.Warn(message)
	}
}
