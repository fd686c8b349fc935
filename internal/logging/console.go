package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Tag prefixes every line the workflow prints to the console.
const Tag = "[EMBED]"

// Console writes tagged, line-oriented progress output for humans.
// Structured diagnostics go through slog; Console is what the user watches.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	tag string
}

// NewConsole returns a Console writing to w with the default Tag.
// A nil w means os.Stdout.
func NewConsole(w io.Writer) *Console {
	return NewTaggedConsole(w, Tag)
}

// NewTaggedConsole is NewConsole with a custom tag.
func NewTaggedConsole(w io.Writer, tag string) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, tag: tag}
}

// Writer returns the underlying writer.
func (c *Console) Writer() io.Writer { return c.w }

// Prefix returns the tag used for every line.
func (c *Console) Prefix() string { return c.tag }

// Printf prints one tagged line. The message follows the tag directly,
// the same way relayed tool output does.
func (c *Console) Printf(format string, args ...any) {
	c.Line(fmt.Sprintf(format, args...))
}

// Errorf prints one tagged "(ERROR)" line.
func (c *Console) Errorf(format string, args ...any) {
	c.Line("(ERROR) " + fmt.Sprintf(format, args...))
}

// Line writes tag+s followed by a newline.
func (c *Console) Line(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s%s\n", c.tag, s)
}
