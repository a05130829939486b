package parser

import (
	"strings"

	"github.com/domodwyer/tlafmt/internal/lexer"
	"github.com/domodwyer/tlafmt/internal/position"
)

// parseExpr parses a full expression.
func (p *Parser) parseExpr() (Expr, error) {
	return p.parseExprPrec(0)
}

// parseExprPrec is the precedence-climbing core: it parses an
// expression consuming only infix operators whose precedence range
// starts at or above lo.
func (p *Parser) parseExprPrec(lo int) (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.cur()
		info, ok := p.infixInfo(tok)
		if !ok {
			break
		}

		// A bullet at or left of the active junction list's alignment
		// column is list structure, not an infix operator.
		if isBullet(tok) && p.junctionTerminates(tok) {
			break
		}

		if info.Lo < lo {
			break
		}
		p.advance()

		right, err := p.parseExprPrec(info.Hi + 1)
		if err != nil {
			return nil, err
		}

		// Detect ambiguous adjacency with the operator that follows:
		// overlapping precedence ranges require explicit parentheses
		// unless this is a left-associative chain of the same symbol.
		next := p.cur()
		if ninfo, nok := p.infixInfo(next); nok && !(isBullet(next) && p.junctionTerminates(next)) {
			if rangesOverlap(info, ninfo) && !(next.Literal == tok.Literal && info.LeftAssoc) {
				return nil, &SyntaxError{
					Kind:  ErrAmbiguousPrecedence,
					Pos:   next.Span.Start,
					Found: next.Literal,
				}
			}
		}

		left = &InfixOp{
			Span:  position.NewSpan(left.GetSpan().Start, p.prevEnd()),
			Op:    info.Symbol,
			Left:  left,
			Right: right,
		}
	}

	return left, nil
}

func isBullet(tok lexer.Token) bool {
	return tok.Type == lexer.TokenAnd || tok.Type == lexer.TokenOr
}

func (p *Parser) infixInfo(tok lexer.Token) (OpInfo, bool) {
	switch tok.Type {
	case lexer.TokenAnd, lexer.TokenOr, lexer.TokenOp:
		return InfixOpInfo(tok.Literal)
	default:
		return OpInfo{}, false
	}
}

func (p *Parser) prefixInfo(tok lexer.Token) (OpInfo, bool) {
	if tok.Type != lexer.TokenOp {
		return OpInfo{}, false
	}
	return PrefixOpInfo(tok.Literal)
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return &SyntaxError{Kind: ErrTooDeeplyNested, Pos: p.cur().Span.Start}
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseUnary parses junction lists, prefix operators and postfix
// chains.
func (p *Parser) parseUnary() (Expr, error) {
	tok := p.cur()

	if isBullet(tok) {
		return p.parseJunctionList()
	}

	if info, ok := p.prefixInfo(tok); ok {
		op := p.advance()

		operand, err := p.parseExprPrec(info.Hi + 1)
		if err != nil {
			return nil, err
		}

		// A prefix operator is subject to the same adjacency rule as
		// infix operators.
		next := p.cur()
		if ninfo, nok := p.infixInfo(next); nok && !(isBullet(next) && p.junctionTerminates(next)) {
			if rangesOverlap(info, ninfo) {
				return nil, &SyntaxError{
					Kind:  ErrAmbiguousPrecedence,
					Pos:   next.Span.Start,
					Found: next.Literal,
				}
			}
		}

		return &PrefixOp{
			Span:    position.NewSpan(op.Span.Start, p.prevEnd()),
			Op:      info.Symbol,
			Operand: operand,
		}, nil
	}

	return p.parsePostfixChain()
}

// parsePostfixChain parses a primary expression followed by any number
// of postfix operators and function applications.
func (p *Parser) parsePostfixChain() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.cur()

		if tok.Type == lexer.TokenOp {
			if info, ok := PostfixOpInfo(tok.Literal); ok {
				p.advance()
				expr = &PostfixOp{
					Span:    position.NewSpan(expr.GetSpan().Start, p.prevEnd()),
					Op:      info.Symbol,
					Operand: expr,
				}
				continue
			}
		}

		// Function application f[e1, e2].
		if tok.Type == lexer.TokenLBracket {
			p.advance()
			args, err := p.parseDelimitedExprList(lexer.TokenRBracket)
			if err != nil {
				return nil, err
			}
			expr = &FnApply{
				Span:   position.NewSpan(expr.GetSpan().Start, p.prevEnd()),
				Target: expr,
				Args:   args,
			}
			continue
		}

		return expr, nil
	}
}

// parseDelimitedExprList parses a comma-separated expression list up to
// and including the closing token, with junction alignment suspended.
func (p *Parser) parseDelimitedExprList(closing lexer.TokenType) ([]Expr, error) {
	p.pushJunction(junctionCtx{barrier: true})
	defer p.popJunction()

	var args []Expr
	if p.cur().Type == closing {
		p.advance()
		return args, nil
	}

	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.cur().Type == lexer.TokenComma {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(closing); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()

	switch tok.Type {
	case lexer.TokenIdent:
		return p.parseIdentOrApply()

	case lexer.TokenNumber:
		p.advance()
		return &Numeral{Span: tok.Span, Literal: tok.Literal}, nil

	case lexer.TokenString:
		p.advance()
		return &StringLit{Span: tok.Span, Literal: tok.Literal}, nil

	case lexer.TokenAt:
		// The previous-value marker inside EXCEPT updates.
		p.advance()
		return &Ident{Span: tok.Span, Name: "@"}, nil

	case lexer.TokenLParen:
		p.advance()
		p.pushJunction(junctionCtx{barrier: true})
		defer p.popJunction()

		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.TokenLBrace:
		return p.parseSetConstruct()

	case lexer.TokenLBracket:
		return p.parseBracketConstruct()

	case lexer.TokenLAngle:
		return p.parseTuple()

	case lexer.TokenIf:
		return p.parseIfThenElse()

	case lexer.TokenCase:
		return p.parseCase()

	case lexer.TokenLet:
		return p.parseLetIn()

	case lexer.TokenChoose:
		return p.parseChoose()

	case lexer.TokenForall, lexer.TokenExists,
		lexer.TokenTemporalForall, lexer.TokenTemporalExists:
		return p.parseQuantifier()

	default:
		return nil, p.errExpected("expression", tok)
	}
}

// parseIdentOrApply parses a name reference, an instance-prefixed
// reference `M!Op`, or an operator application `Op(a, b)`.
func (p *Parser) parseIdentOrApply() (Expr, error) {
	first := p.advance()
	name := first.Literal

	for p.cur().Type == lexer.TokenBang && p.peekAt(1).Type == lexer.TokenIdent {
		p.advance()
		name += "!" + p.advance().Literal
	}

	if p.cur().Type != lexer.TokenLParen {
		return &Ident{
			Span: position.NewSpan(first.Span.Start, p.prevEnd()),
			Name: name,
		}, nil
	}

	p.advance()
	args, err := p.parseDelimitedExprList(lexer.TokenRParen)
	if err != nil {
		return nil, err
	}

	return &Apply{
		Span: position.NewSpan(first.Span.Start, p.prevEnd()),
		Name: name,
		Args: args,
	}, nil
}

// parseJunctionList parses an indentation-aligned conjunction or
// disjunction list starting at the current bullet token.
//
// Continuation bullets normally sit at exactly the column of the first
// bullet. A same-symbol bullet that is under-indented, but still right
// of any enclosing list, is accepted as a continuation so that sloppy
// alignment can be repaired rather than rejected. A mixed bullet at the
// alignment column is malformed.
func (p *Parser) parseJunctionList() (Expr, error) {
	first := p.cur()
	col := first.Column()

	list := &JunctionList{Op: first.Literal}

	encl := p.enclosingJunctionCol()
	p.pushJunction(junctionCtx{tt: first.Type, col: col})
	defer p.popJunction()

	for {
		bullet := p.advance()

		item, err := p.parseExprPrec(0)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, JunctionItem{
			Span:         position.NewSpan(bullet.Span.Start, p.prevEnd()),
			BulletColumn: bullet.Column(),
			Expr:         item,
		})

		next := p.cur()
		if !isBullet(next) || next.Column() > col || next.Column() <= encl {
			break
		}
		if next.Type != first.Type {
			if next.Column() == col {
				return nil, &SyntaxError{
					Kind:  ErrMalformedJunction,
					Pos:   next.Span.Start,
					Found: next.Literal,
				}
			}
			break
		}
	}

	list.Span = position.NewSpan(first.Span.Start, p.prevEnd())
	return list, nil
}

// enclosingJunctionCol returns the alignment column of the nearest
// active junction list, or 0 when none is in effect.
func (p *Parser) enclosingJunctionCol() int {
	for i := len(p.junctions) - 1; i >= 0; i-- {
		if p.junctions[i].barrier {
			return 0
		}
		return p.junctions[i].col
	}
	return 0
}

// ====== bounds ======

// parseBoundList parses comma-separated quantifier bounds.
func (p *Parser) parseBoundList() ([]Bound, error) {
	var bounds []Bound
	for {
		b, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, b)

		if p.cur().Type != lexer.TokenComma {
			return bounds, nil
		}
		p.advance()
	}
}

// parseBound parses one bound: a name group with an optional shared
// domain (`x, y \in S`), the tuple form (`<<x, y>> \in S`), or an
// unbounded name group.
func (p *Parser) parseBound() (Bound, error) {
	start := p.cur()
	b := Bound{}

	if start.Type == lexer.TokenLAngle {
		p.advance()
		b.Tuple = true
		for {
			name, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return Bound{}, err
			}
			b.Names = append(b.Names, name.Literal)

			if p.cur().Type == lexer.TokenComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.TokenRAngle); err != nil {
			return Bound{}, err
		}
	} else {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return Bound{}, err
		}
		b.Names = append(b.Names, name.Literal)

		for p.cur().Type == lexer.TokenComma && p.peekAt(1).Type == lexer.TokenIdent {
			p.advance()
			b.Names = append(b.Names, p.advance().Literal)
		}
	}

	if p.curIsOp("\\in") {
		p.advance()
		domain, err := p.parseExpr()
		if err != nil {
			return Bound{}, err
		}
		b.Domain = domain
	}

	b.Span = position.NewSpan(start.Span.Start, p.prevEnd())
	return b, nil
}

// ====== delimited constructs ======

func (p *Parser) parseSetConstruct() (Expr, error) {
	open := p.advance() // {

	p.pushJunction(junctionCtx{barrier: true})
	defer p.popJunction()

	set := &SetConstruct{Kind: SetEnum}

	if p.cur().Type == lexer.TokenRBrace {
		p.advance()
		set.Span = position.NewSpan(open.Span.Start, p.prevEnd())
		return set, nil
	}

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch p.cur().Type {
	case lexer.TokenColon:
		p.advance()

		if bound, ok := boundFromExpr(first); ok {
			// `{x \in S : p}` set filter.
			set.Kind = SetFilter
			set.Bound = bound

			pred, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			set.Expr = pred
		} else {
			// `{e : x \in S}` set map.
			set.Kind = SetMap
			set.Expr = first

			bounds, err := p.parseBoundList()
			if err != nil {
				return nil, err
			}
			set.Bounds = bounds
		}

	case lexer.TokenComma:
		set.Elems = append(set.Elems, first)
		for p.cur().Type == lexer.TokenComma {
			p.advance()
			elem, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			set.Elems = append(set.Elems, elem)
		}

	default:
		set.Elems = append(set.Elems, first)
	}

	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	set.Span = position.NewSpan(open.Span.Start, p.prevEnd())
	return set, nil
}

// boundFromExpr converts an already-parsed `x \in S` (or
// `<<x, y>> \in S`) expression into a quantifier bound.
func boundFromExpr(e Expr) (Bound, bool) {
	in, ok := e.(*InfixOp)
	if !ok || in.Op != "\\in" {
		return Bound{}, false
	}

	switch lhs := in.Left.(type) {
	case *Ident:
		if strings.Contains(lhs.Name, "!") {
			return Bound{}, false
		}
		return Bound{Span: in.Span, Names: []string{lhs.Name}, Domain: in.Right}, true

	case *TupleConstruct:
		b := Bound{Span: in.Span, Domain: in.Right, Tuple: true}
		for _, elem := range lhs.Elems {
			id, ok := elem.(*Ident)
			if !ok {
				return Bound{}, false
			}
			b.Names = append(b.Names, id.Name)
		}
		return b, true

	default:
		return Bound{}, false
	}
}

// parseBracketConstruct parses the `[` family: function literals,
// function sets, record literals, record sets and EXCEPT updates.
func (p *Parser) parseBracketConstruct() (Expr, error) {
	open := p.advance() // [

	p.pushJunction(junctionCtx{barrier: true})
	defer p.popJunction()

	// Record literal `[a |-> e]` / record set `[a : S]`.
	if p.cur().Type == lexer.TokenIdent {
		switch p.peekAt(1).Type {
		case lexer.TokenMapsTo:
			return p.parseRecordConstruct(open, RecordLit)
		case lexer.TokenColon:
			return p.parseRecordConstruct(open, RecordSet)
		}
	}

	// Function literal `[x \in S |-> e]`, detected by backtracking over
	// a tentative bound list.
	if expr, ok, err := p.tryParseFunctionLiteral(open); err != nil {
		return nil, err
	} else if ok {
		return expr, nil
	}

	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch {
	case p.cur().Type == lexer.TokenExcept:
		return p.parseExcept(open, target)

	case p.curIsOp("->"):
		p.advance()
		rng, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
		return &FunctionConstruct{
			Span:   position.NewSpan(open.Span.Start, p.prevEnd()),
			Kind:   FuncSet,
			Domain: target,
			Range:  rng,
		}, nil

	default:
		return nil, p.errExpected("EXCEPT, |-> or ->", p.cur())
	}
}

// tryParseFunctionLiteral attempts `[bounds |-> body]`, restoring the
// parser state when the bracket body is not a function literal.
func (p *Parser) tryParseFunctionLiteral(open lexer.Token) (Expr, bool, error) {
	savedPos := p.pos
	savedJunctions := len(p.junctions)
	savedDepth := p.depth

	bounds, err := p.parseBoundList()
	if err != nil || p.cur().Type != lexer.TokenMapsTo {
		p.pos = savedPos
		p.junctions = p.junctions[:savedJunctions]
		p.depth = savedDepth
		return nil, false, nil
	}

	// Bounds without domains are bracket expressions, not function
	// literals (e.g. `[S -> T]` scans as a domainless bound).
	for _, b := range bounds {
		if b.Domain == nil {
			p.pos = savedPos
			p.junctions = p.junctions[:savedJunctions]
			p.depth = savedDepth
			return nil, false, nil
		}
	}

	p.advance() // |->
	body, err := p.parseExpr()
	if err != nil {
		return nil, false, err
	}
	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, false, err
	}

	return &FunctionConstruct{
		Span:   position.NewSpan(open.Span.Start, p.prevEnd()),
		Kind:   FuncLambda,
		Bounds: bounds,
		Body:   body,
	}, true, nil
}

func (p *Parser) parseRecordConstruct(open lexer.Token, kind RecordKind) (Expr, error) {
	rec := &RecordConstruct{Kind: kind}

	for {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}

		if kind == RecordLit {
			if _, err := p.expect(lexer.TokenMapsTo); err != nil {
				return nil, err
			}
		} else {
			if _, err := p.expect(lexer.TokenColon); err != nil {
				return nil, err
			}
		}

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, RecordField{Name: name.Literal, Value: value})

		if p.cur().Type == lexer.TokenComma {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	rec.Span = position.NewSpan(open.Span.Start, p.prevEnd())
	return rec, nil
}

func (p *Parser) parseExcept(open lexer.Token, target Expr) (Expr, error) {
	p.advance() // EXCEPT

	except := &Except{Target: target}

	for {
		bang, err := p.expect(lexer.TokenBang)
		if err != nil {
			return nil, err
		}

		update := ExceptUpdate{}
		for {
			if p.curIsOp(".") {
				p.advance()
				name, err := p.expect(lexer.TokenIdent)
				if err != nil {
					return nil, err
				}
				update.Path = append(update.Path, ExceptPathElem{Name: name.Literal})
				continue
			}
			if p.cur().Type == lexer.TokenLBracket {
				p.advance()
				index, err := p.parseDelimitedExprList(lexer.TokenRBracket)
				if err != nil {
					return nil, err
				}
				update.Path = append(update.Path, ExceptPathElem{Index: index})
				continue
			}
			break
		}
		if len(update.Path) == 0 {
			return nil, p.errExpected("!.field or ![index]", p.cur())
		}

		if _, err := p.expectOp("="); err != nil {
			return nil, err
		}

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		update.Value = value
		update.Span = position.NewSpan(bang.Span.Start, p.prevEnd())
		except.Updates = append(except.Updates, update)

		if p.cur().Type == lexer.TokenComma {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	except.Span = position.NewSpan(open.Span.Start, p.prevEnd())
	return except, nil
}

func (p *Parser) parseTuple() (Expr, error) {
	open := p.advance() // <<

	elems, err := p.parseDelimitedExprList(lexer.TokenRAngle)
	if err != nil {
		return nil, err
	}

	return &TupleConstruct{
		Span:  position.NewSpan(open.Span.Start, p.prevEnd()),
		Elems: elems,
	}, nil
}

// ====== keyword constructs ======

func (p *Parser) parseIfThenElse() (Expr, error) {
	kw := p.advance() // IF

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenThen); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenElse); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &IfThenElse{
		Span: position.NewSpan(kw.Span.Start, p.prevEnd()),
		Cond: cond,
		Then: then,
		Else: els,
	}, nil
}

func (p *Parser) parseCase() (Expr, error) {
	kw := p.advance() // CASE

	caseExpr := &CaseExpr{}

	for {
		armStart := p.cur()

		guard, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp("->"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		caseExpr.Arms = append(caseExpr.Arms, CaseArm{
			Span:  position.NewSpan(armStart.Span.Start, p.prevEnd()),
			Guard: guard,
			Value: value,
		})

		if !p.curIsOp("[]") {
			break
		}
		p.advance()

		if p.cur().Type == lexer.TokenOther {
			p.advance()
			if _, err := p.expectOp("->"); err != nil {
				return nil, err
			}
			other, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			caseExpr.Other = other
			break
		}
	}

	caseExpr.Span = position.NewSpan(kw.Span.Start, p.prevEnd())
	return caseExpr, nil
}

func (p *Parser) parseLetIn() (Expr, error) {
	kw := p.advance() // LET

	letIn := &LetIn{}

	for p.cur().Type != lexer.TokenIn {
		if p.cur().Type != lexer.TokenIdent {
			return nil, p.errExpected("definition or IN", p.cur())
		}

		unit, err := p.parseDefinition()
		if err != nil {
			return nil, err
		}
		def, ok := unit.(*OperatorDef)
		if !ok {
			return nil, p.errExpected("operator definition", p.cur())
		}
		letIn.Defs = append(letIn.Defs, def)
	}
	if len(letIn.Defs) == 0 {
		return nil, p.errExpected("definition", p.cur())
	}

	p.advance() // IN

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	letIn.Body = body
	letIn.Span = position.NewSpan(kw.Span.Start, p.prevEnd())
	return letIn, nil
}

func (p *Parser) parseChoose() (Expr, error) {
	kw := p.advance() // CHOOSE

	bound, err := p.parseBound()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenColon); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &Choose{
		Span:  position.NewSpan(kw.Span.Start, p.prevEnd()),
		Bound: bound,
		Body:  body,
	}, nil
}

func (p *Parser) parseQuantifier() (Expr, error) {
	binder := p.advance()

	bounds, err := p.parseBoundList()
	if err != nil {
		return nil, err
	}

	// Temporal quantifiers bind plain (flexible) variables only.
	if binder.Type == lexer.TokenTemporalForall || binder.Type == lexer.TokenTemporalExists {
		for _, b := range bounds {
			if b.Domain != nil {
				return nil, &SyntaxError{
					Kind:     ErrUnexpectedToken,
					Pos:      b.Span.Start,
					Expected: "unbounded variable list",
					Found:    "\\in",
				}
			}
		}
	}

	if _, err := p.expect(lexer.TokenColon); err != nil {
		return nil, err
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &Quantifier{
		Span:   position.NewSpan(binder.Span.Start, p.prevEnd()),
		Binder: binder.Literal,
		Bounds: bounds,
		Body:   body,
	}, nil
}
