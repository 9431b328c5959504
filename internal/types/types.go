// Package types defines every cross-package data structure used by promptctx.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
)

// DirectoryEntry identifies a file or directory relative to the project root.
type DirectoryEntry struct {
	Name         string `json:"name"`
	RelativePath string `json:"path"`
	AbsolutePath string `json:"-"`
	Type         string `json:"type"`
	SizeBytes    int64  `json:"sizeBytes,omitempty"`
	Size         string `json:"size,omitempty"`
}

// DirectoryListing holds the immediate children of one directory,
// partitioned into directories and files and sorted by name.
type DirectoryListing struct {
	Path        string           `json:"path"`
	Directories []DirectoryEntry `json:"directories"`
	Files       []DirectoryEntry `json:"files"`
}

// PromptState is the assembled prompt together with the selection it was built from.
type PromptState struct {
	Prompt     string   `json:"prompt"`
	Selected   []string `json:"selected"`
	Characters int      `json:"characters"`
	Tokens     int      `json:"tokens,omitempty"`
	Model      string   `json:"model,omitempty"`
	Copied     bool     `json:"copiedToHost,omitempty"`
}
