package format

// Doc is the layout intermediate representation produced by lowering.
// A Doc describes all permissible layouts of a syntax fragment; the
// renderer picks one per group based on the available width.
type Doc interface {
	doc()
}

// Bias controls how a group chooses between its flat and broken
// layouts.
type Bias int

const (
	// BiasAuto breaks the group only when its flat layout does not fit
	// the remaining width.
	BiasAuto Bias = iota
	// BiasFlat always renders the group on one line.
	BiasFlat
	// BiasBroken always renders the group in its multi-line layout.
	// Lowering assigns this to groups whose source spanned lines, so
	// deliberate vertical structure survives formatting.
	BiasBroken
)

type textDoc struct{ s string }

// lineDoc is a soft break: a single space when flat, a newline at the
// current indent when broken.
type lineDoc struct{}

// breakDoc is a soft break that vanishes when flat.
type breakDoc struct{}

// hardDoc is an unconditional newline at the current indent. A group
// containing one can never render flat.
type hardDoc struct{}

// blankDoc is a hard break that leaves one empty line.
type blankDoc struct{}

type concatDoc struct{ parts []Doc }

type nestDoc struct {
	by int
	d  Doc
}

// alignDoc sets the indent of its subdocument to the column at which
// it begins, pinning later break targets under the first character.
type alignDoc struct{ d Doc }

type groupDoc struct {
	bias Bias
	d    Doc
}

// opaqueDoc is pre-rendered multi-line text, used for block comments.
// Continuation lines shift horizontally by the difference between the
// column the doc lands on and the column it occupied in the source.
type opaqueDoc struct {
	lines   []string // raw lines, continuation lines keep source indent
	origCol int      // 1-based source column of the first line
}

func (textDoc) doc()   {}
func (lineDoc) doc()   {}
func (breakDoc) doc()  {}
func (hardDoc) doc()   {}
func (blankDoc) doc()  {}
func (concatDoc) doc() {}
func (nestDoc) doc()   {}
func (alignDoc) doc()  {}
func (groupDoc) doc()  {}
func (opaqueDoc) doc() {}

// Text is a literal fragment containing no newlines.
func Text(s string) Doc { return textDoc{s: s} }

// Line is a space when flat, a newline when broken.
func Line() Doc { return lineDoc{} }

// Break is nothing when flat, a newline when broken.
func Break() Doc { return breakDoc{} }

// HardLine always renders as a newline.
func HardLine() Doc { return hardDoc{} }

// BlankLine renders as a newline plus one empty line.
func BlankLine() Doc { return blankDoc{} }

// Concat joins documents in sequence.
func Concat(parts ...Doc) Doc { return concatDoc{parts: parts} }

// Nest increases the indent of breaks within d by n columns.
func Nest(n int, d Doc) Doc { return nestDoc{by: n, d: d} }

// Align sets the indent for breaks within d to the current column.
func Align(d Doc) Doc { return alignDoc{d: d} }

// Group marks a unit of layout choice with the given bias.
func Group(bias Bias, parts ...Doc) Doc {
	return groupDoc{bias: bias, d: concatDoc{parts: parts}}
}

// Opaque embeds pre-rendered lines that shift as a block.
func Opaque(lines []string, origCol int) Doc {
	return opaqueDoc{lines: lines, origCol: origCol}
}
