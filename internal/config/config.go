// Package config loads application configuration and parses ignore files into slices of patterns.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/promptctx/internal/utils"
)

const (
	commentPrefix     = "#"
	negationPrefix    = "!"
	pathSeparator     = "/"
	recursiveWildcard = "**"
)

// LoadIgnoreFilePatterns reads a specified ignore file and returns its patterns.
// A missing file yields no patterns. Negated patterns are not supported and are skipped.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) || strings.HasPrefix(trimmedLine, negationPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadDirectoryIgnorePatterns reads the .ignore and/or .gitignore files stored in
// one directory of the project and rewrites their patterns relative to the
// project root, as understood by utils.ShouldIgnoreByPath. A name pattern from a
// nested directory matches at any depth below that directory; a pattern with a
// leading or inner slash stays anchored to it.
func LoadDirectoryIgnorePatterns(rootDirectoryPath string, relativeDirectory string, useGitignore bool, useIgnoreFile bool) ([]string, error) {
	absoluteDirectoryPath := filepath.Join(rootDirectoryPath, filepath.FromSlash(relativeDirectory))
	baseDirectory := escapeGlob(strings.Trim(relativeDirectory, pathSeparator))

	var ignoreFileNames []string
	if useIgnoreFile {
		ignoreFileNames = append(ignoreFileNames, utils.IgnoreFileName)
	}
	if useGitignore {
		ignoreFileNames = append(ignoreFileNames, utils.GitIgnoreFileName)
	}

	var combinedPatterns []string
	for _, ignoreFileName := range ignoreFileNames {
		filePatterns, loadError := LoadIgnoreFilePatterns(filepath.Join(absoluteDirectoryPath, ignoreFileName))
		if loadError != nil {
			return nil, fmt.Errorf("loading %s from %s: %w", ignoreFileName, absoluteDirectoryPath, loadError)
		}
		for _, pattern := range filePatterns {
			combinedPatterns = append(combinedPatterns, rebasePattern(baseDirectory, pattern))
		}
	}
	return utils.DeduplicatePatterns(combinedPatterns), nil
}

// rebasePattern expresses a pattern read from the ignore file of baseDirectory
// relative to the project root.
func rebasePattern(baseDirectory string, pattern string) string {
	body := strings.TrimPrefix(pattern, pathSeparator)
	isAnchored := body != pattern || strings.Contains(strings.TrimSuffix(body, pathSeparator), pathSeparator)
	switch {
	case baseDirectory == "" && isAnchored:
		return pathSeparator + body
	case baseDirectory == "":
		return body
	case isAnchored:
		return pathSeparator + baseDirectory + pathSeparator + body
	default:
		return pathSeparator + baseDirectory + pathSeparator + recursiveWildcard + pathSeparator + body
	}
}

// escapeGlob quotes filepath.Match metacharacters so a directory name is
// matched literally. Windows has no escape character in filepath.Match.
func escapeGlob(literal string) string {
	if filepath.Separator == '\\' {
		return literal
	}
	return globEscaper.Replace(literal)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`)

// LoadListingIgnorePatterns aggregates the ignore patterns that apply when listing
// relativeDirectory: the patterns of the root and of every ancestor directory down
// to relativeDirectory itself, followed by the explicit exclusion patterns.
func LoadListingIgnorePatterns(rootDirectoryPath string, relativeDirectory string, exclusionPatterns []string, useGitignore bool, useIgnoreFile bool) ([]string, error) {
	var aggregatedPatterns []string
	if useGitignore || useIgnoreFile {
		directoryChain := []string{""}
		if relativeDirectory != "" {
			segments := strings.Split(relativeDirectory, pathSeparator)
			for segmentIndex := range segments {
				directoryChain = append(directoryChain, strings.Join(segments[:segmentIndex+1], pathSeparator))
			}
		}
		for _, directory := range directoryChain {
			directoryPatterns, loadError := LoadDirectoryIgnorePatterns(rootDirectoryPath, directory, useGitignore, useIgnoreFile)
			if loadError != nil {
				return nil, loadError
			}
			aggregatedPatterns = append(aggregatedPatterns, directoryPatterns...)
		}
	}

	deduplicatedPatterns := utils.DeduplicatePatterns(aggregatedPatterns)
	for _, pattern := range exclusionPatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if !utils.ContainsString(deduplicatedPatterns, trimmedPattern) {
			deduplicatedPatterns = append(deduplicatedPatterns, trimmedPattern)
		}
	}
	return deduplicatedPatterns, nil
}
