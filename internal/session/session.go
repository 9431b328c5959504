// Package session holds the per-run state behind the browser UI: the project
// root, the ordered selection and the collaborators that turn it into a prompt.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/temirov/promptctx/internal/output"
	"github.com/temirov/promptctx/internal/project"
	"github.com/temirov/promptctx/internal/selection"
	"github.com/temirov/promptctx/internal/services/clipboard"
	"github.com/temirov/promptctx/internal/tokenizer"
	"github.com/temirov/promptctx/internal/types"
	"github.com/temirov/promptctx/internal/utils"
)

const (
	errorNotDirectoryFormat   = "%s: %w"
	errorAbsolutePathFormat   = "resolve absolute path for %s: %w"
	errorNotSelectableFormat  = "select %q: %w"
	warningTokenCountMessage  = "failed to count prompt tokens"
	warningClipboardMessage   = "failed to copy prompt to the host clipboard"
	debugFilesystemWarningKey = "detail"
)

var (
	// ErrNotDirectory reports a project root that is missing or not a directory.
	ErrNotDirectory = errors.New("not a valid directory")
	// ErrNotSelectable reports a path that does not name a visible regular file below the root.
	ErrNotSelectable = errors.New("path is not a selectable file")
)

// Options configures a Session.
type Options struct {
	RootPath          string
	ExclusionPatterns []string
	UseGitignore      bool
	UseIgnoreFile     bool
	TokenCounter      tokenizer.Counter
	TokenModel        string
	Copier            clipboard.Copier
	Logger            *zap.Logger
}

// Session serializes every operation with a mutex so that concurrent HTTP
// requests observe the selection as if events were handled one at a time.
type Session struct {
	mutex        sync.Mutex
	rootPath     string
	lister       project.Lister
	store        *selection.Store
	assembler    output.Assembler
	tokenCounter tokenizer.Counter
	tokenModel   string
	copier       clipboard.Copier
	logger       *zap.Logger
}

// New validates the project root and returns a Session with an empty selection.
func New(options Options) (*Session, error) {
	absoluteRootPath, absoluteError := filepath.Abs(options.RootPath)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, options.RootPath, absoluteError)
	}
	rootInfo, statError := os.Stat(absoluteRootPath)
	if statError != nil || !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorNotDirectoryFormat, absoluteRootPath, ErrNotDirectory)
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debugWarning := func(message string) {
		logger.Debug("filesystem", zap.String(debugFilesystemWarningKey, message))
	}

	return &Session{
		rootPath: absoluteRootPath,
		lister: project.Lister{
			RootPath:          absoluteRootPath,
			ExclusionPatterns: options.ExclusionPatterns,
			UseGitignore:      options.UseGitignore,
			UseIgnoreFile:     options.UseIgnoreFile,
			Warn:              debugWarning,
		},
		store:        selection.NewStore(),
		assembler:    output.Assembler{RootPath: absoluteRootPath, Warn: debugWarning},
		tokenCounter: options.TokenCounter,
		tokenModel:   options.TokenModel,
		copier:       options.Copier,
		logger:       logger,
	}, nil
}

// RootPath returns the absolute project root.
func (session *Session) RootPath() string {
	return session.rootPath
}

// Expand lists the children of relativePath. Listings are never cached, so a
// collapsed and re-expanded directory reflects the current filesystem.
func (session *Session) Expand(relativePath string) (types.DirectoryListing, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.lister.List(relativePath)
}

// OnToggle selects or deselects relativePath and returns the re-assembled prompt.
// Only visible regular files below the root can be selected; deselecting is
// always accepted.
func (session *Session) OnToggle(relativePath string, checked bool) (types.PromptState, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()

	normalizedPath, insideRoot := utils.NormalizeRelativePath(relativePath)
	validPath := insideRoot && normalizedPath != ""
	if !checked {
		// A path that cannot be normalized was never selected.
		if validPath {
			session.store.Deselect(normalizedPath)
		}
		return session.stateLocked(), nil
	}
	if !validPath || !session.isSelectableFile(normalizedPath) {
		return types.PromptState{}, fmt.Errorf(errorNotSelectableFormat, relativePath, ErrNotSelectable)
	}
	session.store.Select(normalizedPath)
	return session.stateLocked(), nil
}

// OnReset clears the selection.
func (session *Session) OnReset() types.PromptState {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.store.Clear()
	return session.stateLocked()
}

// CurrentPrompt assembles the prompt from the current selection.
func (session *Session) CurrentPrompt() string {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.assembler.Assemble(session.store)
}

// State returns the assembled prompt together with the selection it reflects.
func (session *Session) State() types.PromptState {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.stateLocked()
}

// Copy assembles the prompt for the copy action. When a host copier is
// configured the prompt is also written to the host clipboard; a failure there
// is logged and leaves Copied unset.
func (session *Session) Copy() types.PromptState {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	state := session.stateLocked()
	if session.copier != nil {
		if copyError := session.copier.Copy(state.Prompt); copyError != nil {
			session.logger.Warn(warningClipboardMessage, zap.Error(copyError))
		} else {
			state.Copied = true
		}
	}
	return state
}

func (session *Session) stateLocked() types.PromptState {
	prompt := session.assembler.Assemble(session.store)
	state := types.PromptState{
		Prompt:     prompt,
		Selected:   session.store.Entries(),
		Characters: utf8.RuneCountInString(prompt),
	}
	if session.tokenCounter != nil && prompt != "" {
		countResult, countError := tokenizer.CountText(session.tokenCounter, prompt)
		if countError != nil {
			session.logger.Warn(warningTokenCountMessage, zap.Error(countError))
		} else if countResult.Counted {
			state.Tokens = countResult.Tokens
			state.Model = session.tokenModel
		}
	}
	return state
}

func (session *Session) isSelectableFile(normalizedPath string) bool {
	for _, segment := range strings.Split(normalizedPath, "/") {
		if utils.IsHiddenName(segment) {
			return false
		}
	}
	fileInfo, statError := os.Stat(filepath.Join(session.rootPath, filepath.FromSlash(normalizedPath)))
	if statError != nil {
		return false
	}
	return !fileInfo.IsDir()
}
