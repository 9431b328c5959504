// Package utils contains general helper functions used across promptctx.
package utils

import (
	"path/filepath"
	"strings"
)

// Ignore file constants used across the project.
const (
	// IgnoreFileName is the name of the project's ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// HiddenEntryPrefix marks entries that are never listed.
	HiddenEntryPrefix = "."
)

const (
	pathSegmentSeparator = "/"
	recursiveWildcard    = "**"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// IsHiddenName reports whether an entry name carries the hidden marker.
func IsHiddenName(entryName string) bool {
	return strings.HasPrefix(entryName, HiddenEntryPrefix)
}

// JoinRelativePath appends a child name to a slash-separated relative path.
// An empty parent denotes the project root.
func JoinRelativePath(parentRelativePath, childName string) string {
	if parentRelativePath == "" {
		return childName
	}
	return strings.TrimSuffix(parentRelativePath, pathSegmentSeparator) + pathSegmentSeparator + childName
}

// NormalizeRelativePath converts a client-supplied relative path to cleaned
// slash form. It returns false when the path is absolute or escapes the root.
// The root itself normalizes to the empty string. A backslash is a separator
// only on Windows; elsewhere it is part of the entry name.
func NormalizeRelativePath(relativePath string) (string, bool) {
	slashed := filepath.ToSlash(relativePath)
	if strings.HasPrefix(slashed, pathSegmentSeparator) || filepath.IsAbs(relativePath) {
		return "", false
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(slashed)))
	if cleaned == "." {
		return "", true
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

// ShouldIgnoreByPath reports whether a slash-separated path relative to the
// project root matches any ignore pattern.
//
// A pattern without a slash, apart from a trailing one, matches an entry name
// at any depth. A pattern with a leading or inner slash is anchored at the root
// and matched segment by segment; a "**" segment spans any number of
// directories. A trailing slash restricts the pattern to directories. A match
// on a directory also covers everything below it.
func ShouldIgnoreByPath(relativePath string, isDirectory bool, ignorePatterns []string) bool {
	pathSegments := strings.Split(filepath.ToSlash(relativePath), pathSegmentSeparator)
	lastIndex := len(pathSegments) - 1

	for _, patternValue := range ignorePatterns {
		normalizedPattern := filepath.ToSlash(patternValue)
		isAnchored := strings.HasPrefix(normalizedPattern, pathSegmentSeparator)
		normalizedPattern = strings.TrimPrefix(normalizedPattern, pathSegmentSeparator)
		isDirectoryPattern := strings.HasSuffix(normalizedPattern, pathSegmentSeparator)
		trimmedPattern := strings.TrimSuffix(normalizedPattern, pathSegmentSeparator)
		if trimmedPattern == "" {
			continue
		}
		patternSegments := strings.Split(trimmedPattern, pathSegmentSeparator)

		if !isAnchored && len(patternSegments) == 1 {
			for segmentIndex, pathSegment := range pathSegments {
				if segmentIndex == lastIndex && isDirectoryPattern && !isDirectory {
					break
				}
				if isMatched, matchError := filepath.Match(patternSegments[0], pathSegment); matchError == nil && isMatched {
					return true
				}
			}
			continue
		}

		for prefixLength := 1; prefixLength <= len(pathSegments); prefixLength++ {
			if !segmentsMatch(pathSegments[:prefixLength], patternSegments) {
				continue
			}
			if prefixLength < len(pathSegments) || !isDirectoryPattern || isDirectory {
				return true
			}
		}
	}

	return false
}

// segmentsMatch reports whether the pattern segments match the whole path
// using filepath.Match per segment, with "**" matching zero or more segments.
func segmentsMatch(pathSegments, patternSegments []string) bool {
	if len(patternSegments) == 0 {
		return len(pathSegments) == 0
	}
	if patternSegments[0] == recursiveWildcard {
		for skipped := 0; skipped <= len(pathSegments); skipped++ {
			if segmentsMatch(pathSegments[skipped:], patternSegments[1:]) {
				return true
			}
		}
		return false
	}
	if len(pathSegments) == 0 {
		return false
	}
	isMatched, matchError := filepath.Match(patternSegments[0], pathSegments[0])
	if matchError != nil || !isMatched {
		return false
	}
	return segmentsMatch(pathSegments[1:], patternSegments[1:])
}
