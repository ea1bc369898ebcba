package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// MarkdownRenderer prints model output with syntax highlighting. Inside
// fenced code blocks, added and removed diff lines get ANSI diff colors.
type MarkdownRenderer struct {
	theme       string
	isCodeBlock bool
}

// NewMarkdownRenderer creates a renderer for the given chroma theme.
func NewMarkdownRenderer(theme string) *MarkdownRenderer {
	return &MarkdownRenderer{theme: theme}
}

// RenderChunk prints one streamed chunk. Chunks arrive newline-buffered from
// the providers, so fence tracking per chunk is reliable.
func (renderer *MarkdownRenderer) RenderChunk(chunk string) error {
	if strings.HasPrefix(chunk, "```") {
		renderer.isCodeBlock = !renderer.isCodeBlock
	}

	if strings.HasPrefix(chunk, "+") && renderer.isCodeBlock {
		fmt.Print("\x1b[92m" + chunk + "\x1b[0m")
		return nil
	}
	if strings.HasPrefix(chunk, "-") && renderer.isCodeBlock {
		fmt.Print("\x1b[91m" + chunk + "\x1b[0m")
		return nil
	}

	return quick.Highlight(os.Stdout, chunk, "markdown", "terminal256", renderer.theme)
}
