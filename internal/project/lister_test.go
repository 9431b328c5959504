package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/temirov/promptctx/internal/project"
	"github.com/temirov/promptctx/internal/types"
	"github.com/temirov/promptctx/internal/utils"
)

// createFixture materializes files (with content) and directories under root.
func createFixture(testingHandle *testing.T, root string, files map[string]string, directories []string) {
	testingHandle.Helper()
	for _, directory := range directories {
		if makeDirError := os.MkdirAll(filepath.Join(root, filepath.FromSlash(directory)), 0o755); makeDirError != nil {
			testingHandle.Fatalf("create directory %s: %v", directory, makeDirError)
		}
	}
	for relativePath, content := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
		if makeDirError := os.MkdirAll(filepath.Dir(absolutePath), 0o755); makeDirError != nil {
			testingHandle.Fatalf("create parent of %s: %v", relativePath, makeDirError)
		}
		if writeError := os.WriteFile(absolutePath, []byte(content), 0o644); writeError != nil {
			testingHandle.Fatalf("write %s: %v", relativePath, writeError)
		}
	}
}

func entryNames(entries []types.DirectoryEntry) []string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}

func entryPaths(entries []types.DirectoryEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.RelativePath)
	}
	return paths
}

func TestListDirectory(testingHandle *testing.T) {
	root := testingHandle.TempDir()
	createFixture(testingHandle, root, map[string]string{
		"b.py":            "print(2)",
		"a.py":            "print(1)",
		"Zeta.md":         "# z",
		".env":            "SECRET=1",
		"src/main.go":     "package main",
		"src/.hidden.go":  "package main",
		"src/util/one.go": "package util",
	}, []string{"docs", ".git", "src/util"})

	testCases := []struct {
		name                string
		subPath             string
		expectedDirectories []string
		expectedFiles       []string
		expectedPath        string
	}{
		{
			name:                "root listing",
			subPath:             "",
			expectedDirectories: []string{"docs", "src"},
			expectedFiles:       []string{"Zeta.md", "a.py", "b.py"},
			expectedPath:        "",
		},
		{
			name:                "nested listing",
			subPath:             "src",
			expectedDirectories: []string{"src/util"},
			expectedFiles:       []string{"src/main.go"},
			expectedPath:        "src",
		},
		{
			name:                "deep listing",
			subPath:             "src/util",
			expectedDirectories: []string{},
			expectedFiles:       []string{"src/util/one.go"},
			expectedPath:        "src/util",
		},
		{
			name:                "empty directory",
			subPath:             "docs",
			expectedDirectories: []string{},
			expectedFiles:       []string{},
			expectedPath:        "docs",
		},
		{
			name:                "missing directory yields empty listing",
			subPath:             "absent",
			expectedDirectories: []string{},
			expectedFiles:       []string{},
			expectedPath:        "absent",
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			listing, listError := project.ListDirectory(root, testCase.subPath)
			if listError != nil {
				testingHandle.Fatalf("ListDirectory error: %v", listError)
			}
			if listing.Path != testCase.expectedPath {
				testingHandle.Fatalf("expected path %q, got %q", testCase.expectedPath, listing.Path)
			}
			if directories := entryPaths(listing.Directories); !reflect.DeepEqual(directories, testCase.expectedDirectories) {
				testingHandle.Fatalf("unexpected directories: got %v want %v", directories, testCase.expectedDirectories)
			}
			files := entryPaths(listing.Files)
			if testCase.subPath == "" {
				files = entryNames(listing.Files)
			}
			if !reflect.DeepEqual(files, testCase.expectedFiles) {
				testingHandle.Fatalf("unexpected files: got %v want %v", files, testCase.expectedFiles)
			}
		})
	}
}

func TestListDirectoryEntryFields(testingHandle *testing.T) {
	root := testingHandle.TempDir()
	createFixture(testingHandle, root, map[string]string{"pkg/file.txt": "12345"}, nil)

	listing, listError := project.ListDirectory(root, "pkg")
	if listError != nil {
		testingHandle.Fatalf("ListDirectory error: %v", listError)
	}
	if len(listing.Files) != 1 {
		testingHandle.Fatalf("expected one file, got %d", len(listing.Files))
	}
	expected := types.DirectoryEntry{
		Name:         "file.txt",
		RelativePath: "pkg/file.txt",
		AbsolutePath: filepath.Join(root, "pkg", "file.txt"),
		Type:         types.NodeTypeFile,
		SizeBytes:    5,
		Size:         "5b",
	}
	if listing.Files[0] != expected {
		testingHandle.Fatalf("unexpected entry: got %+v want %+v", listing.Files[0], expected)
	}
}

func TestListDirectoryRejectsEscapingPaths(testingHandle *testing.T) {
	root := testingHandle.TempDir()
	for _, subPath := range []string{"..", "../sibling", "a/../../b", "/etc"} {
		_, listError := project.ListDirectory(root, subPath)
		if !errors.Is(listError, project.ErrPathOutsideRoot) {
			testingHandle.Fatalf("expected ErrPathOutsideRoot for %q, got %v", subPath, listError)
		}
	}
}

func TestListDirectoryFollowsDirectorySymlinks(testingHandle *testing.T) {
	if runtime.GOOS == "windows" {
		testingHandle.Skip("symbolic links require elevated privileges on windows")
	}
	root := testingHandle.TempDir()
	createFixture(testingHandle, root, map[string]string{"real/inner.go": "package real"}, nil)
	if linkError := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linked")); linkError != nil {
		testingHandle.Fatalf("create symlink: %v", linkError)
	}
	if linkError := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")); linkError != nil {
		testingHandle.Fatalf("create dangling symlink: %v", linkError)
	}

	listing, listError := project.ListDirectory(root, "")
	if listError != nil {
		testingHandle.Fatalf("ListDirectory error: %v", listError)
	}
	if directories := entryNames(listing.Directories); !reflect.DeepEqual(directories, []string{"linked", "real"}) {
		testingHandle.Fatalf("unexpected directories: %v", directories)
	}
	if files := entryNames(listing.Files); !reflect.DeepEqual(files, []string{"dangling"}) {
		testingHandle.Fatalf("unexpected files: %v", files)
	}
}

func TestListDirectoryPermissionDenied(testingHandle *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		testingHandle.Skip("permission bits are not enforced for this user")
	}
	root := testingHandle.TempDir()
	createFixture(testingHandle, root, map[string]string{"locked/secret.txt": "x"}, nil)
	lockedPath := filepath.Join(root, "locked")
	if chmodError := os.Chmod(lockedPath, 0o000); chmodError != nil {
		testingHandle.Fatalf("chmod: %v", chmodError)
	}
	testingHandle.Cleanup(func() { _ = os.Chmod(lockedPath, 0o755) })

	var warnings []string
	lister := project.Lister{RootPath: root, Warn: func(message string) { warnings = append(warnings, message) }}
	listing, listError := lister.List("locked")
	if listError != nil {
		testingHandle.Fatalf("expected no error for an unreadable directory, got %v", listError)
	}
	if len(listing.Directories) != 0 || len(listing.Files) != 0 {
		testingHandle.Fatalf("expected empty listing, got %+v", listing)
	}
	if len(warnings) != 1 {
		testingHandle.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestListerIgnoreFiles(testingHandle *testing.T) {
	root := testingHandle.TempDir()
	createFixture(testingHandle, root, map[string]string{
		utils.GitIgnoreFileName:          "dist/\n*.log\n",
		"main.go":                        "package main",
		"debug.log":                      "trace",
		"dist/bundle.js":                 "x",
		"web/app.js":                     "x",
		"web/" + utils.GitIgnoreFileName: "generated.js\n",
		"web/generated.js":               "x",
		"vendor/lib.go":                  "package lib",
	}, nil)

	testCases := []struct {
		name                string
		lister              project.Lister
		subPath             string
		expectedDirectories []string
		expectedFiles       []string
	}{
		{
			name:                "ignore files disabled by default",
			lister:              project.Lister{RootPath: root},
			expectedDirectories: []string{"dist", "vendor", "web"},
			expectedFiles:       []string{"debug.log", "main.go"},
		},
		{
			name:                "gitignore at root",
			lister:              project.Lister{RootPath: root, UseGitignore: true},
			expectedDirectories: []string{"vendor", "web"},
			expectedFiles:       []string{"main.go"},
		},
		{
			name:                "explicit exclusions",
			lister:              project.Lister{RootPath: root, ExclusionPatterns: []string{"vendor/"}},
			expectedDirectories: []string{"dist", "web"},
			expectedFiles:       []string{"debug.log", "main.go"},
		},
		{
			name:                "nested gitignore",
			lister:              project.Lister{RootPath: root, UseGitignore: true},
			subPath:             "web",
			expectedDirectories: []string{},
			expectedFiles:       []string{"app.js"},
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			listing, listError := testCase.lister.List(testCase.subPath)
			if listError != nil {
				testingHandle.Fatalf("List error: %v", listError)
			}
			if directories := entryNames(listing.Directories); !reflect.DeepEqual(directories, testCase.expectedDirectories) {
				testingHandle.Fatalf("unexpected directories: got %v want %v", directories, testCase.expectedDirectories)
			}
			if files := entryNames(listing.Files); !reflect.DeepEqual(files, testCase.expectedFiles) {
				testingHandle.Fatalf("unexpected files: got %v want %v", files, testCase.expectedFiles)
			}
		})
	}
}

func TestListerGitignoreScope(testingHandle *testing.T) {
	root := testingHandle.TempDir()
	createFixture(testingHandle, root, map[string]string{
		utils.GitIgnoreFileName:          "/build\n",
		"build/out.bin":                  "x",
		"sub/" + utils.GitIgnoreFileName: "*.log\n",
		"sub/build/keep.txt":             "x",
		"sub/top.log":                    "x",
		"sub/deep/x.log":                 "x",
		"sub/deep/y.txt":                 "x",
	}, nil)
	lister := project.Lister{RootPath: root, UseGitignore: true}

	testCases := []struct {
		subPath             string
		expectedDirectories []string
		expectedFiles       []string
	}{
		{subPath: "", expectedDirectories: []string{"sub"}, expectedFiles: []string{}},
		{subPath: "sub", expectedDirectories: []string{"build", "deep"}, expectedFiles: []string{}},
		{subPath: "sub/deep", expectedDirectories: []string{}, expectedFiles: []string{"y.txt"}},
	}
	for _, testCase := range testCases {
		listing, listError := lister.List(testCase.subPath)
		if listError != nil {
			testingHandle.Fatalf("List(%q) error: %v", testCase.subPath, listError)
		}
		if directories := entryNames(listing.Directories); !reflect.DeepEqual(directories, testCase.expectedDirectories) {
			testingHandle.Fatalf("List(%q) directories: got %v want %v", testCase.subPath, directories, testCase.expectedDirectories)
		}
		if files := entryNames(listing.Files); !reflect.DeepEqual(files, testCase.expectedFiles) {
			testingHandle.Fatalf("List(%q) files: got %v want %v", testCase.subPath, files, testCase.expectedFiles)
		}
	}
}

func TestListDirectoryBackslashNames(testingHandle *testing.T) {
	if runtime.GOOS == "windows" {
		testingHandle.Skip("backslash is the path separator on windows")
	}
	root := testingHandle.TempDir()
	createFixture(testingHandle, root, map[string]string{
		`a\b.py`:   "print(1)",
		`d\e/f.py`: "x",
	}, nil)

	rootListing, listError := project.ListDirectory(root, "")
	if listError != nil {
		testingHandle.Fatalf("List error: %v", listError)
	}
	if len(rootListing.Directories) != 1 || rootListing.Directories[0].RelativePath != `d\e` {
		testingHandle.Fatalf("unexpected directories %+v", rootListing.Directories)
	}
	if len(rootListing.Files) != 1 || rootListing.Files[0].RelativePath != `a\b.py` {
		testingHandle.Fatalf("unexpected files %+v", rootListing.Files)
	}

	nestedListing, listError := project.ListDirectory(root, rootListing.Directories[0].RelativePath)
	if listError != nil {
		testingHandle.Fatalf("List error: %v", listError)
	}
	if len(nestedListing.Files) != 1 || nestedListing.Files[0].RelativePath != `d\e/f.py` {
		testingHandle.Fatalf("expected the real children of d\\e, got %+v", nestedListing.Files)
	}
}
