package format

import (
	"fmt"
	"strings"
)

// DiffOptions controls diff rendering.
type DiffOptions struct {
	Context int // context lines around each change
}

// DefaultDiffOptions returns the usual unified-diff settings.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{Context: 3}
}

// LineType classifies a diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// DiffLine is a single line of a hunk.
type DiffLine struct {
	Type    LineType
	Content string
}

// Hunk is a contiguous block of changes with its surrounding context.
type Hunk struct {
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int
	Lines         []DiffLine
}

// Diff is the line-level difference between original and formatted
// source.
type Diff struct {
	Hunks []Hunk
}

// HasChanges reports whether the two inputs differed at all.
func (d *Diff) HasChanges() bool {
	return len(d.Hunks) > 0
}

// NewDiff compares original against formatted source line by line.
func NewDiff(original, formatted string, opts DiffOptions) *Diff {
	a := splitDiffLines(original)
	b := splitDiffLines(formatted)
	return &Diff{Hunks: buildHunks(a, b, opts.Context)}
}

// String renders the diff in unified format, without file headers.
func (d *Diff) String() string {
	var sb strings.Builder
	for _, h := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n",
			h.OriginalStart, h.OriginalCount, h.ModifiedStart, h.ModifiedCount)

		for _, line := range h.Lines {
			switch line.Type {
			case LineAdded:
				sb.WriteByte('+')
			case LineRemoved:
				sb.WriteByte('-')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(line.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Unified renders the diff with `--- / +++` file headers.
func (d *Diff) Unified(filename string) string {
	if !d.HasChanges() {
		return ""
	}
	return fmt.Sprintf("--- %s\n+++ %s (formatted)\n%s", filename, filename, d.String())
}

func splitDiffLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// editOp is one step of the line-level edit script.
type editOp struct {
	del bool // false: insert
	ai  int  // index into the original for deletes
	bi  int  // index into the formatted for inserts
}

// editScript computes a minimal-ish edit script with a greedy
// common-prefix walk. Inputs are whole formatter outputs, where changes
// cluster locally, so a full Myers search buys little here.
func editScript(a, b []string) []editOp {
	var ops []editOp

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] == b[j] {
			i++
			j++
			continue
		}

		// Prefer the interpretation that resynchronises sooner.
		switch {
		case j+1 < len(b) && a[i] == b[j+1]:
			ops = append(ops, editOp{del: false, ai: i, bi: j})
			j++
		case i+1 < len(a) && a[i+1] == b[j]:
			ops = append(ops, editOp{del: true, ai: i, bi: j})
			i++
		default:
			ops = append(ops,
				editOp{del: true, ai: i, bi: j},
				editOp{del: false, ai: i + 1, bi: j})
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		ops = append(ops, editOp{del: true, ai: i, bi: j})
	}
	for ; j < len(b); j++ {
		ops = append(ops, editOp{del: false, ai: i, bi: j})
	}

	return ops
}

func buildHunks(a, b []string, context int) []Hunk {
	ops := editScript(a, b)
	if len(ops) == 0 {
		return nil
	}

	var hunks []Hunk
	var cur *Hunk
	// aPos tracks the next original line to surface as context.
	aPos := 0
	// delta is the running line offset of formatted relative to
	// original, used to place hunk start positions.
	delta := 0

	flush := func(end int) {
		for k := aPos; k < end && k < len(a); k++ {
			cur.Lines = append(cur.Lines, DiffLine{Type: LineContext, Content: a[k]})
			cur.OriginalCount++
			cur.ModifiedCount++
		}
		aPos = min(end, len(a))
	}

	for idx, op := range ops {
		if cur == nil {
			start := max(0, op.ai-context)
			cur = &Hunk{
				OriginalStart: start + 1,
				ModifiedStart: start + 1 + delta,
			}
			aPos = start
		}
		flush(op.ai)

		if op.del {
			cur.Lines = append(cur.Lines, DiffLine{Type: LineRemoved, Content: a[op.ai]})
			cur.OriginalCount++
			aPos = op.ai + 1
			delta--
		} else {
			cur.Lines = append(cur.Lines, DiffLine{Type: LineAdded, Content: b[op.bi]})
			cur.ModifiedCount++
			delta++
		}

		// Close the hunk when the next change is far away.
		gap := len(a) + 1
		if idx+1 < len(ops) {
			gap = ops[idx+1].ai - aPos
		}
		if gap > 2*context {
			flush(aPos + context)
			hunks = append(hunks, *cur)
			cur = nil
		}
	}
	if cur != nil {
		flush(aPos + context)
		hunks = append(hunks, *cur)
	}

	return hunks
}
