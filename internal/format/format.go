package format

import (
	"strings"

	"github.com/domodwyer/tlafmt/internal/lexer"
	"github.com/domodwyer/tlafmt/internal/parser"
)

// DefaultWidth is the target line width.
const DefaultWidth = 80

// Options controls formatting style.
type Options struct {
	// MaxWidth is the soft target line width. An atom longer than the
	// remaining space renders overlong rather than being split.
	MaxWidth int

	// CollapseSingleBullets rewrites one-item junction lists as their
	// bare item expression. Off by default: it changes the parse tree
	// shape, which callers comparing syntax trees may care about.
	CollapseSingleBullets bool
}

// DefaultOptions returns the standard style.
func DefaultOptions() Options {
	return Options{MaxWidth: DefaultWidth}
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultWidth
	}
	return o
}

// Format renders a parsed module back to source text. The comments are
// the side-channel returned by the parser for the same source; they are
// re-attached near their original positions. Output always ends with
// exactly one newline.
func Format(m *parser.Module, comments []lexer.Comment, opts Options) string {
	f := &formatter{opts: opts.withDefaults(), comments: comments}
	return f.formatModule(m)
}

// Source formats TLA+ source text end to end: tokenize, parse, render.
func Source(source string, opts Options) (string, error) {
	m, comments, err := parser.ParseSource(source)
	if err != nil {
		return "", err
	}
	return Format(m, comments, opts), nil
}

// moduleHeader centres ` MODULE Name ` in a dash rule of the given
// width, the right side absorbing any odd column.
func moduleHeader(name string, width int) string {
	inner := " MODULE " + name + " "

	dashes := width - len(inner)
	if dashes < 8 {
		dashes = 8
	}

	left := dashes / 2
	return strings.Repeat("-", left) + inner + strings.Repeat("-", dashes-left)
}
