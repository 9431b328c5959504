// Package output renders selected files into the prompt text format.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/promptctx/internal/utils"
)

const (
	// ReadErrorPrefix starts the placeholder used in place of unreadable file content.
	ReadErrorPrefix = "Error reading file: "
	// codeFence opens and closes a fenced block.
	codeFence = "```"
	// extensionSeparator separates the language tag from the rest of the path.
	extensionSeparator = "."
	// warningReadFileFormat is reported when a selected file cannot be read.
	warningReadFileFormat = "Warning: failed to read file %s: %v"
)

// EntrySource supplies relative paths in the order they should be rendered.
type EntrySource interface {
	Entries() []string
}

// Assembler renders files below RootPath into a single prompt.
type Assembler struct {
	RootPath string
	Warn     func(string)
}

// AssemblePrompt renders every entry of source found below rootPath.
func AssemblePrompt(rootPath string, source EntrySource) string {
	return Assembler{RootPath: rootPath}.Assemble(source)
}

// Assemble reads each entry at call time and concatenates one fenced block per
// entry. A file that cannot be read contributes an inline error message instead
// of its content. An empty source yields an empty string.
func (assembler Assembler) Assemble(source EntrySource) string {
	if source == nil {
		return ""
	}
	var builder strings.Builder
	for _, relativePath := range source.Entries() {
		content, readError := ReadFileText(filepath.Join(assembler.RootPath, filepath.FromSlash(relativePath)))
		if readError != nil {
			if assembler.Warn != nil {
				assembler.Warn(fmt.Sprintf(warningReadFileFormat, relativePath, readError))
			}
			content = ReadErrorPrefix + readError.Error()
		}
		WriteBlock(&builder, relativePath, content)
	}
	return builder.String()
}

// WriteBlock appends one labeled fenced block for relativePath to builder.
func WriteBlock(builder *strings.Builder, relativePath string, content string) {
	builder.WriteString(relativePath)
	builder.WriteString("\n")
	builder.WriteString(codeFence)
	builder.WriteString(LanguageTag(relativePath))
	builder.WriteString("\n")
	builder.WriteString(content)
	builder.WriteString("\n")
	builder.WriteString(codeFence)
	builder.WriteString("\n\n")
}

// LanguageTag returns the text after the last dot of relativePath, or an empty
// string when it contains no dot. The whole path is inspected, not only the
// base name, so a dotted directory can contribute to the tag.
func LanguageTag(relativePath string) string {
	separatorIndex := strings.LastIndex(relativePath, extensionSeparator)
	if separatorIndex < 0 {
		return ""
	}
	return relativePath[separatorIndex+len(extensionSeparator):]
}

// newlineNormalizer turns CRLF and lone CR line endings into LF.
var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ReadFileText returns the content of the file at path decoded as UTF-8 text
// with every line ending converted to "\n".
//
// #nosec G304
func ReadFileText(path string) (string, error) {
	fileBytes, readError := os.ReadFile(path)
	if readError != nil {
		return "", readError
	}
	text, decodeError := utils.DecodeText(fileBytes)
	if decodeError != nil {
		return "", fmt.Errorf("decode %s: %w", path, decodeError)
	}
	return newlineNormalizer.Replace(text), nil
}
