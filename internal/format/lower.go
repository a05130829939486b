package format

import (
	"strings"

	"github.com/domodwyer/tlafmt/internal/lexer"
	"github.com/domodwyer/tlafmt/internal/parser"
	"github.com/domodwyer/tlafmt/internal/position"
)

// indentBy is the step used when a construct body moves to its own
// line.
const indentBy = 4

// formatter renders one module, threading the comment side-channel
// through in source order.
type formatter struct {
	opts     Options
	comments []lexer.Comment
	next     int

	lines   []string
	srcLine int // source line of the last emitted construct
}

func (f *formatter) formatModule(m *parser.Module) string {
	f.emitCommentsBefore(m.Span.Start.Offset)
	f.lines = append(f.lines, moduleHeader(m.Name, f.opts.MaxWidth))
	f.srcLine = m.Span.Start.Line

	if len(m.Extends) > 0 {
		f.emitCommentsBefore(m.ExtendsSpan.Start.Offset)
		f.blankGap(m.ExtendsSpan.Start.Line)
		f.appendText(Render(extendsDoc(m), f.opts.MaxWidth))
		f.srcLine = m.ExtendsSpan.End.Line
	}

	for _, u := range m.Units {
		f.emitUnit(u)
	}

	f.emitCommentsBefore(m.Span.End.Offset)
	f.blankGap(m.Span.End.Line)
	f.lines = append(f.lines, strings.Repeat("=", f.opts.MaxWidth))
	f.srcLine = m.Span.End.Line

	f.emitRemaining()

	return strings.Join(f.lines, "\n") + "\n"
}

func (f *formatter) emitUnit(u parser.Unit) {
	span := u.GetSpan()
	f.emitCommentsBefore(span.Start.Offset)
	f.blankGap(span.Start.Line)

	if _, ok := u.(*parser.SeparatorUnit); ok {
		f.lines = append(f.lines, strings.Repeat("-", f.opts.MaxWidth))
		f.srcLine = span.End.Line
		return
	}

	f.appendText(Render(f.unitDoc(u), f.opts.MaxWidth))
	f.srcLine = span.End.Line

	// Comments inside the unit that found no slot during lowering land
	// directly after it.
	f.emitCommentsBefore(span.End.Offset)
}

// ====== comment plumbing ======

func (f *formatter) emitCommentsBefore(offset int) {
	for f.next < len(f.comments) && f.comments[f.next].Span.Start.Offset < offset {
		c := f.comments[f.next]
		f.next++
		f.emitComment(c)
	}
}

func (f *formatter) emitRemaining() {
	for f.next < len(f.comments) {
		c := f.comments[f.next]
		f.next++
		f.emitComment(c)
	}
}

// emitComment writes a comment at the top level: appended to the
// previous line when it trailed that line in the source, otherwise on
// its own lines with the original blank-line gap preserved.
func (f *formatter) emitComment(c lexer.Comment) {
	cls := strings.Split(c.Text, "\n")

	if c.Span.Start.Line == f.srcLine && len(f.lines) > 0 && len(cls) == 1 {
		f.lines[len(f.lines)-1] += " " + c.Text
	} else {
		f.blankGap(c.Span.Start.Line)
		f.lines = append(f.lines, cls...)
	}

	f.srcLine = c.Span.End.Line
}

// takeCommentsBefore consumes and returns comments starting before the
// given offset, for attachment inside a construct being lowered.
func (f *formatter) takeCommentsBefore(offset int) []lexer.Comment {
	start := f.next
	for f.next < len(f.comments) && f.comments[f.next].Span.Start.Offset < offset {
		f.next++
	}
	return f.comments[start:f.next]
}

// takeTrailing consumes a single-line comment sitting on the given
// source line before the given offset, if one is pending.
func (f *formatter) takeTrailing(line, before int) (lexer.Comment, bool) {
	if f.next >= len(f.comments) {
		return lexer.Comment{}, false
	}

	c := f.comments[f.next]
	if c.Span.Start.Line != line || c.Span.Start.Offset >= before ||
		strings.Contains(c.Text, "\n") {
		return lexer.Comment{}, false
	}

	f.next++
	return c, true
}

func commentDoc(c lexer.Comment) Doc {
	cls := strings.Split(c.Text, "\n")
	if len(cls) == 1 {
		return Text(c.Text)
	}
	return Opaque(cls, c.Column())
}

// blankGap inserts one empty output line when the source had one or
// more blank lines before the given line. Runs of blanks collapse.
func (f *formatter) blankGap(startLine int) {
	if f.srcLine > 0 && startLine-f.srcLine >= 2 {
		f.lines = append(f.lines, "")
	}
}

func (f *formatter) appendText(text string) {
	f.lines = append(f.lines, strings.Split(text, "\n")...)
}

func biasFor(span position.Span) Bias {
	if span.IsMultiLine() {
		return BiasBroken
	}
	return BiasAuto
}

// ====== module units ======

func extendsDoc(m *parser.Module) Doc {
	var names []Doc
	for i, name := range m.Extends {
		if i > 0 {
			names = append(names, Text(","), Line())
		}
		names = append(names, Text(name))
	}

	return Group(biasFor(m.ExtendsSpan), Text("EXTENDS "), Align(Concat(names...)))
}

func (f *formatter) unitDoc(u parser.Unit) Doc {
	switch u := u.(type) {
	case *parser.ConstantsUnit:
		kw := "CONSTANT"
		if u.Plural {
			kw = "CONSTANTS"
		}
		return declListDoc(kw, u.Decls, u.Span)

	case *parser.VariablesUnit:
		kw := "VARIABLE"
		if u.Plural {
			kw = "VARIABLES"
		}
		var decls []parser.OpDecl
		for _, name := range u.Names {
			decls = append(decls, parser.OpDecl{Name: name})
		}
		return declListDoc(kw, decls, u.Span)

	case *parser.RecursiveUnit:
		return declListDoc("RECURSIVE", u.Decls, u.Span)

	case *parser.AssumeUnit:
		head := "ASSUME "
		if u.Name != "" {
			head += u.Name + " =="
			return Concat(Text(head), f.bodyDoc(u.Expr, u.Span))
		}
		return Concat(Text(head), Align(f.exprDoc(u.Expr)))

	case *parser.OperatorDef:
		return f.defDoc(u)

	case *parser.InstanceUnit:
		return f.instanceDoc(u)

	case *parser.TheoremUnit:
		return f.theoremDoc(u)

	default:
		return Text(u.String())
	}
}

func declListDoc(keyword string, decls []parser.OpDecl, span position.Span) Doc {
	var parts []Doc
	for i, d := range decls {
		if i > 0 {
			parts = append(parts, Text(","), Line())
		}
		parts = append(parts, Text(d.String()))
	}

	return Group(biasFor(span), Text(keyword+" "), Align(Concat(parts...)))
}

func (f *formatter) defDoc(u *parser.OperatorDef) Doc {
	var head strings.Builder
	if u.Local {
		head.WriteString("LOCAL ")
	}
	head.WriteString(u.Name)

	switch {
	case len(u.Params) > 0:
		head.WriteByte('(')
		for i, p := range u.Params {
			if i > 0 {
				head.WriteString(", ")
			}
			head.WriteString(p.String())
		}
		head.WriteByte(')')

	case len(u.FuncBounds) > 0:
		return Concat(
			Text(head.String()+"["),
			f.boundsDoc(u.FuncBounds),
			Text("] =="),
			f.bodyDoc(u.Body, u.Span),
		)
	}

	return Concat(Text(head.String()+" =="), f.bodyDoc(u.Body, u.Span))
}

// bodyDoc places a definition body after `==`: on the same line when it
// fits and the source was single-line, otherwise on its own indented
// line.
func (f *formatter) bodyDoc(body parser.Expr, span position.Span) Doc {
	return Group(biasFor(span), Nest(indentBy, Concat(Line(), f.exprDoc(body))))
}

func (f *formatter) instanceDoc(u *parser.InstanceUnit) Doc {
	var head strings.Builder
	if u.Local {
		head.WriteString("LOCAL ")
	}
	if u.Name != "" {
		head.WriteString(u.Name)
		if len(u.Params) > 0 {
			head.WriteByte('(')
			for i, p := range u.Params {
				if i > 0 {
					head.WriteString(", ")
				}
				head.WriteString(p.String())
			}
			head.WriteByte(')')
		}
		head.WriteString(" == ")
	}
	head.WriteString("INSTANCE " + u.ModuleName)

	if len(u.With) == 0 {
		return Text(head.String())
	}

	var substs []Doc
	for i, s := range u.With {
		if i > 0 {
			substs = append(substs, Text(","), Line())
		}
		substs = append(substs, Text(s.Name+" <- "), f.exprDoc(s.Expr))
	}

	return Group(biasFor(u.Span),
		Text(head.String()+" WITH "),
		Align(Concat(substs...)),
	)
}

func (f *formatter) theoremDoc(u *parser.TheoremUnit) Doc {
	head := u.Keyword + " "
	if u.Name != "" {
		head += u.Name + " == "
	}

	doc := Concat(Text(head), Align(f.exprDoc(u.Statement)))
	if u.Proof != nil {
		doc = Concat(doc, HardLine(), f.proofDoc(u.Proof))
	}
	return doc
}

func (f *formatter) proofDoc(p *parser.Proof) Doc {
	switch p.Kind {
	case parser.ProofObvious:
		return Text("OBVIOUS")

	case parser.ProofOmitted:
		return Text("OMITTED")

	case parser.ProofBy:
		var parts []Doc
		parts = append(parts, Text("BY "))
		for i, fact := range p.By {
			if i > 0 {
				parts = append(parts, Text(","), Line())
			}
			parts = append(parts, f.exprDoc(fact))
		}
		if len(p.Defs) > 0 {
			if len(p.By) > 0 {
				parts = append(parts, Text(" "))
			}
			parts = append(parts, Text("DEF "+strings.Join(p.Defs, ", ")))
		}
		return Group(biasFor(p.Span), Align(Concat(parts...)))

	default: // ProofSteps
		var parts []Doc
		for i, step := range p.Steps {
			if i > 0 {
				parts = append(parts, HardLine())
			}
			for _, c := range f.takeCommentsBefore(step.Span.Start.Offset) {
				parts = append(parts, commentDoc(c), HardLine())
			}
			parts = append(parts, f.stepDoc(step))
		}
		return Concat(parts...)
	}
}

func (f *formatter) stepDoc(step *parser.ProofStep) Doc {
	var parts []Doc
	parts = append(parts, Text(step.Label+" "))

	switch {
	case step.IsQED:
		parts = append(parts, Text("QED"))
	case step.IsCase:
		parts = append(parts, Text("CASE "), Align(f.exprDoc(step.Statement)))
	default:
		parts = append(parts, Align(f.exprDoc(step.Statement)))
	}

	if step.Proof != nil {
		parts = append(parts, Nest(2, Concat(HardLine(), f.proofDoc(step.Proof))))
	}
	return Concat(parts...)
}

// ====== expressions ======

// exprDoc lowers an expression in a full-expression slot, where no
// enclosing operator competes for its operands.
func (f *formatter) exprDoc(e parser.Expr) Doc {
	switch n := e.(type) {
	case *parser.Ident:
		return Text(n.Name)

	case *parser.Numeral:
		return Text(n.Literal)

	case *parser.StringLit:
		return Text(n.Literal)

	case *parser.InfixOp:
		return f.infixDoc(n)

	case *parser.PrefixOp:
		return f.prefixDoc(n)

	case *parser.PostfixOp:
		return f.postfixDoc(n)

	case *parser.Apply:
		return f.applyDoc(n)

	case *parser.FnApply:
		return f.fnApplyDoc(n)

	case *parser.JunctionList:
		return f.junctionDoc(n)

	case *parser.Quantifier:
		return f.quantifierDoc(n)

	case *parser.Choose:
		return f.chooseDoc(n)

	case *parser.SetConstruct:
		return f.setDoc(n)

	case *parser.FunctionConstruct:
		return f.functionDoc(n)

	case *parser.Except:
		return f.exceptDoc(n)

	case *parser.RecordConstruct:
		return f.recordDoc(n)

	case *parser.TupleConstruct:
		return f.tupleDoc(n)

	case *parser.LetIn:
		return f.letDoc(n)

	case *parser.IfThenElse:
		return f.ifDoc(n)

	case *parser.CaseExpr:
		return f.caseDoc(n)

	default:
		return Text(e.String())
	}
}

// exprOpInfo returns the precedence entry for the top-level operator of
// an expression, when it has one.
func exprOpInfo(e parser.Expr) (parser.OpInfo, bool) {
	switch n := e.(type) {
	case *parser.InfixOp:
		return parser.InfixOpInfo(n.Op)
	case *parser.PrefixOp:
		return parser.PrefixOpInfo(n.Op)
	case *parser.PostfixOp:
		return parser.PostfixOpInfo(n.Op)
	default:
		return parser.OpInfo{}, false
	}
}

// openEnded reports whether an expression extends greedily rightward
// and so must be parenthesised whenever it is an operator operand.
func openEnded(e parser.Expr) bool {
	switch e.(type) {
	case *parser.Quantifier, *parser.Choose, *parser.LetIn,
		*parser.IfThenElse, *parser.CaseExpr, *parser.JunctionList:
		return true
	default:
		return false
	}
}

func (f *formatter) parens(e parser.Expr) Doc {
	return Concat(Text("("), f.exprDoc(e), Text(")"))
}

// operandDoc lowers an operand of parent, re-inserting the parentheses
// the parse discarded wherever reparsing the flat text would otherwise
// bind differently or trip the precedence ambiguity check.
func (f *formatter) operandDoc(e parser.Expr, parent parser.OpInfo, parentOp string, left bool) Doc {
	if openEnded(e) {
		return f.parens(e)
	}

	info, ok := exprOpInfo(e)
	if !ok {
		return f.exprDoc(e)
	}

	if info.Lo > parent.Hi {
		return f.exprDoc(e)
	}
	if left {
		if in, isIn := e.(*parser.InfixOp); isIn && in.Op == parentOp && parent.LeftAssoc {
			return f.exprDoc(e)
		}
	}
	return f.parens(e)
}

// tightOps render without surrounding spaces.
var tightOps = map[string]bool{".": true, "..": true}

func (f *formatter) infixDoc(n *parser.InfixOp) Doc {
	info, _ := parser.InfixOpInfo(n.Op)
	leftDoc := f.operandDoc(n.Left, info, n.Op, true)
	rightDoc := f.operandDoc(n.Right, info, n.Op, false)

	op := " " + n.Op + " "
	if tightOps[n.Op] {
		op = n.Op
	}
	return Concat(leftDoc, Text(op), rightDoc)
}

func (f *formatter) prefixDoc(n *parser.PrefixOp) Doc {
	info, _ := parser.PrefixOpInfo(n.Op)

	op := n.Op
	if isWordOp(op) {
		op += " "
	}
	return Concat(Text(op), f.operandDoc(n.Operand, info, n.Op, false))
}

func (f *formatter) postfixDoc(n *parser.PostfixOp) Doc {
	// The operand of a postfix operator must be self-delimiting: `f'`
	// reparses fine, `a + b'` would prime only b.
	operand := f.exprDoc(n.Operand)
	if _, isOp := exprOpInfo(n.Operand); isOp || openEnded(n.Operand) {
		operand = f.parens(n.Operand)
	}
	return Concat(operand, Text(n.Op))
}

func isWordOp(op string) bool {
	c := op[len(op)-1]
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

func (f *formatter) applyDoc(n *parser.Apply) Doc {
	var args []Doc
	for i, a := range n.Args {
		if i > 0 {
			args = append(args, Text(","), Line())
		}
		args = append(args, f.exprDoc(a))
	}

	return Group(biasFor(n.Span),
		Text(n.Name+"("), Align(Concat(args...)), Text(")"),
	)
}

func (f *formatter) fnApplyDoc(n *parser.FnApply) Doc {
	target := f.exprDoc(n.Target)
	if _, isOp := exprOpInfo(n.Target); isOp || openEnded(n.Target) {
		target = f.parens(n.Target)
	}

	var args []Doc
	for i, a := range n.Args {
		if i > 0 {
			args = append(args, Text(", "))
		}
		args = append(args, f.exprDoc(a))
	}
	return Concat(target, Text("["), Concat(args...), Text("]"))
}

// junctionDoc lowers a conjunction or disjunction list. Lists with more
// than one item always break, with every bullet on the same column, so
// the grouping the alignment encodes survives a reparse.
func (f *formatter) junctionDoc(n *parser.JunctionList) Doc {
	if len(n.Items) == 1 && f.opts.CollapseSingleBullets {
		return f.exprDoc(n.Items[0].Expr)
	}

	var parts []Doc
	for i, item := range n.Items {
		if i > 0 {
			parts = append(parts, HardLine())
		}
		for _, c := range f.takeCommentsBefore(item.Span.Start.Offset) {
			parts = append(parts, commentDoc(c), HardLine())
		}
		parts = append(parts, Text(n.Op+" "), Align(f.exprDoc(item.Expr)))

		if i+1 < len(n.Items) {
			limit := n.Items[i+1].Span.Start.Offset
			if c, ok := f.takeTrailing(item.Span.End.Line, limit); ok {
				parts = append(parts, Text(" "+c.Text))
			}
		}
	}
	return Align(Concat(parts...))
}

func (f *formatter) boundsDoc(bounds []parser.Bound) Doc {
	var parts []Doc
	for i, b := range bounds {
		if i > 0 {
			parts = append(parts, Text(", "))
		}
		parts = append(parts, f.boundDoc(b))
	}
	return Concat(parts...)
}

func (f *formatter) boundDoc(b parser.Bound) Doc {
	names := strings.Join(b.Names, ", ")
	if b.Tuple {
		names = "<<" + names + ">>"
	}
	if b.Domain == nil {
		return Text(names)
	}
	return Concat(Text(names+" \\in "), f.exprDoc(b.Domain))
}

func (f *formatter) quantifierDoc(n *parser.Quantifier) Doc {
	return Group(biasFor(n.Span), Align(Concat(
		Text(n.Binder+" "), f.boundsDoc(n.Bounds), Text(" :"),
		Nest(indentBy, Concat(Line(), f.exprDoc(n.Body))),
	)))
}

func (f *formatter) chooseDoc(n *parser.Choose) Doc {
	return Group(biasFor(n.Span), Align(Concat(
		Text("CHOOSE "), f.boundDoc(n.Bound), Text(" :"),
		Nest(indentBy, Concat(Line(), f.exprDoc(n.Body))),
	)))
}

func (f *formatter) setDoc(n *parser.SetConstruct) Doc {
	switch n.Kind {
	case parser.SetFilter:
		return Group(biasFor(n.Span),
			Text("{"), f.boundDoc(n.Bound), Text(" :"),
			Nest(indentBy, Concat(Line(), f.exprDoc(n.Expr))),
			Break(), Text("}"),
		)

	case parser.SetMap:
		return Group(biasFor(n.Span),
			Text("{"), f.exprDoc(n.Expr), Text(" :"),
			Nest(indentBy, Concat(Line(), f.boundsDoc(n.Bounds))),
			Break(), Text("}"),
		)

	default: // SetEnum
		if len(n.Elems) == 0 {
			return Text("{}")
		}

		var elems []Doc
		for i, e := range n.Elems {
			if i > 0 {
				elems = append(elems, Text(","), Line())
			}
			elems = append(elems, f.exprDoc(e))
		}
		return Group(biasFor(n.Span),
			Text("{"),
			Nest(indentBy, Concat(Break(), Concat(elems...))),
			Break(), Text("}"),
		)
	}
}

func (f *formatter) functionDoc(n *parser.FunctionConstruct) Doc {
	if n.Kind == parser.FuncSet {
		return Concat(
			Text("["), f.exprDoc(n.Domain),
			Text(" -> "), f.exprDoc(n.Range), Text("]"),
		)
	}

	return Group(biasFor(n.Span),
		Text("["), f.boundsDoc(n.Bounds), Text(" |->"),
		Nest(indentBy, Concat(Line(), f.exprDoc(n.Body))),
		Break(), Text("]"),
	)
}

func (f *formatter) exceptDoc(n *parser.Except) Doc {
	var updates []Doc
	for i, u := range n.Updates {
		if i > 0 {
			updates = append(updates, Text(","), Line())
		}

		updates = append(updates, Text("!"))
		for _, elem := range u.Path {
			if elem.Name != "" {
				updates = append(updates, Text("."+elem.Name))
				continue
			}
			updates = append(updates, Text("["))
			for j, idx := range elem.Index {
				if j > 0 {
					updates = append(updates, Text(", "))
				}
				updates = append(updates, f.exprDoc(idx))
			}
			updates = append(updates, Text("]"))
		}

		updates = append(updates, Text(" = "), f.exprDoc(u.Value))
	}

	return Group(biasFor(n.Span),
		Text("["), f.exprDoc(n.Target), Text(" EXCEPT"),
		Nest(indentBy, Concat(Line(), Concat(updates...))),
		Break(), Text("]"),
	)
}

func (f *formatter) recordDoc(n *parser.RecordConstruct) Doc {
	sep := " |-> "
	if n.Kind == parser.RecordSet {
		sep = " : "
	}

	var fields []Doc
	for i, field := range n.Fields {
		if i > 0 {
			fields = append(fields, Text(","), Line())
		}
		fields = append(fields, Text(field.Name+sep), f.exprDoc(field.Value))
	}

	return Group(biasFor(n.Span),
		Text("["),
		Nest(indentBy, Concat(Break(), Concat(fields...))),
		Break(), Text("]"),
	)
}

func (f *formatter) tupleDoc(n *parser.TupleConstruct) Doc {
	if len(n.Elems) == 0 {
		return Text("<<>>")
	}

	var elems []Doc
	for i, e := range n.Elems {
		if i > 0 {
			elems = append(elems, Text(","), Line())
		}
		elems = append(elems, f.exprDoc(e))
	}

	return Group(biasFor(n.Span),
		Text("<<"),
		Nest(indentBy, Concat(Break(), Concat(elems...))),
		Break(), Text(">>"),
	)
}

func (f *formatter) letDoc(n *parser.LetIn) Doc {
	var defs []Doc
	for i, def := range n.Defs {
		if i > 0 {
			defs = append(defs, HardLine())
		}
		for _, c := range f.takeCommentsBefore(def.Span.Start.Offset) {
			defs = append(defs, commentDoc(c), HardLine())
		}
		defs = append(defs, f.defDoc(def))
	}

	return Group(biasFor(n.Span), Align(Concat(
		Text("LET "), Align(Concat(defs...)),
		Line(), Text("IN  "), Align(f.exprDoc(n.Body)),
	)))
}

func (f *formatter) ifDoc(n *parser.IfThenElse) Doc {
	return Group(biasFor(n.Span), Align(Concat(
		Text("IF "), f.exprDoc(n.Cond),
		Line(), Text("THEN "), Align(f.exprDoc(n.Then)),
		Line(), Text("ELSE "), Align(f.exprDoc(n.Else)),
	)))
}

func (f *formatter) caseDoc(n *parser.CaseExpr) Doc {
	parts := []Doc{Text("CASE ")}

	var arms []Doc
	for i, arm := range n.Arms {
		armDoc := Concat(f.exprDoc(arm.Guard), Text(" -> "), f.exprDoc(arm.Value))
		if i == 0 {
			parts = append(parts, armDoc)
			continue
		}
		arms = append(arms, Line(), Text("[] "), armDoc)
	}
	if n.Other != nil {
		arms = append(arms, Line(), Text("[] OTHER -> "), f.exprDoc(n.Other))
	}

	if len(arms) > 0 {
		parts = append(parts, Nest(2, Concat(arms...)))
	}
	return Group(biasFor(n.Span), Align(Concat(parts...)))
}
