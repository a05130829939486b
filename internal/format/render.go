package format

import "strings"

// Render lays out a document within the given width. The width is a
// soft bound: an atom longer than the remaining space renders overlong
// rather than being split.
func Render(d Doc, width int) string {
	r := &renderer{width: width}
	r.render(frame{d: d})
	return r.sb.String()
}

type frame struct {
	d      Doc
	indent int
	flat   bool
}

type renderer struct {
	sb    strings.Builder
	width int
	col   int
}

func (r *renderer) render(f frame) {
	// An explicit stack keeps layout of deep documents off the Go call
	// stack.
	stack := []frame{f}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch d := f.d.(type) {
		case textDoc:
			r.sb.WriteString(d.s)
			r.col += len(d.s)

		case lineDoc:
			if f.flat {
				r.sb.WriteByte(' ')
				r.col++
			} else {
				r.newline(f.indent)
			}

		case breakDoc:
			if !f.flat {
				r.newline(f.indent)
			}

		case hardDoc:
			r.newline(f.indent)

		case blankDoc:
			r.sb.WriteByte('\n')
			r.newline(f.indent)

		case concatDoc:
			for i := len(d.parts) - 1; i >= 0; i-- {
				stack = append(stack, frame{d: d.parts[i], indent: f.indent, flat: f.flat})
			}

		case nestDoc:
			stack = append(stack, frame{d: d.d, indent: f.indent + d.by, flat: f.flat})

		case alignDoc:
			stack = append(stack, frame{d: d.d, indent: r.col, flat: f.flat})

		case groupDoc:
			flat := f.flat
			if !flat {
				switch d.bias {
				case BiasFlat:
					flat = true
				case BiasBroken:
					flat = false
				default:
					flat = r.fits(d.d, r.width-r.col)
				}
			}
			stack = append(stack, frame{d: d.d, indent: f.indent, flat: flat})

		case opaqueDoc:
			r.opaque(d)
		}
	}
}

func (r *renderer) newline(indent int) {
	r.sb.WriteByte('\n')
	r.sb.WriteString(strings.Repeat(" ", indent))
	r.col = indent
}

// opaque writes pre-rendered lines, shifting continuation lines by the
// column displacement of the first line. A shift left never removes
// non-space characters.
func (r *renderer) opaque(d opaqueDoc) {
	shift := r.col - (d.origCol - 1)

	for i, line := range d.lines {
		if i > 0 {
			r.sb.WriteByte('\n')
			line = shiftLine(line, shift)
			r.col = len(line)
			r.sb.WriteString(line)
			continue
		}
		r.sb.WriteString(line)
		r.col += len(line)
	}
}

func shiftLine(line string, by int) string {
	switch {
	case line == "":
		return ""
	case by > 0:
		return strings.Repeat(" ", by) + line
	case by < 0:
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if cut := indent + by; cut > 0 {
			return strings.Repeat(" ", cut) + trimmed
		}
		return trimmed
	default:
		return line
	}
}

// fits reports whether d rendered flat occupies at most w columns. Any
// unconditional break inside means it cannot flatten.
func (r *renderer) fits(d Doc, w int) bool {
	stack := []Doc{d}

	for len(stack) > 0 {
		if w < 0 {
			return false
		}

		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch d := d.(type) {
		case textDoc:
			w -= len(d.s)

		case lineDoc:
			w--

		case breakDoc:
			// Nothing when flat.

		case hardDoc, blankDoc:
			return false

		case concatDoc:
			for i := len(d.parts) - 1; i >= 0; i-- {
				stack = append(stack, d.parts[i])
			}

		case nestDoc:
			stack = append(stack, d.d)

		case alignDoc:
			stack = append(stack, d.d)

		case groupDoc:
			if d.bias == BiasBroken {
				return false
			}
			stack = append(stack, d.d)

		case opaqueDoc:
			if len(d.lines) != 1 {
				return false
			}
			w -= len(d.lines[0])
		}
	}

	return w >= 0
}
