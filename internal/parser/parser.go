package parser

import (
	"strconv"
	"strings"

	"github.com/domodwyer/tlafmt/internal/lexer"
	"github.com/domodwyer/tlafmt/internal/position"
)

// maxDepth bounds expression recursion so that adversarial or generated
// input fails with a typed error instead of exhausting the call stack.
const maxDepth = 256

// junctionCtx tracks one active junction list during expression
// parsing. A barrier entry suspends column-based item termination for
// the duration of a delimited construct (parentheses, brackets, etc).
type junctionCtx struct {
	tt      lexer.TokenType
	col     int
	barrier bool
}

// Parser consumes a token stream and produces a Module AST. It is not
// error-recovering: the first syntax error aborts the file.
type Parser struct {
	tokens   []lexer.Token
	pos      int
	comments []lexer.Comment

	depth     int
	junctions []junctionCtx
}

// NewParser creates a parser over the given token stream. The comment
// side-channel is carried through unmodified for later attachment
// during lowering.
func NewParser(tokens []lexer.Token, comments []lexer.Comment) *Parser {
	return &Parser{tokens: tokens, comments: comments}
}

// Parse parses a token stream into a Module.
func Parse(tokens []lexer.Token, comments []lexer.Comment) (*Module, error) {
	return NewParser(tokens, comments).ParseModule()
}

// ParseSource tokenizes and parses source text, returning the module
// and the comment side-channel for the formatter.
func ParseSource(source string) (*Module, []lexer.Comment, error) {
	tokens, comments, err := lexer.Tokenize(source)
	if err != nil {
		return nil, nil, err
	}

	m, err := Parse(tokens, comments)
	if err != nil {
		return nil, nil, err
	}
	return m, comments, nil
}

// ====== token stream helpers ======

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// prevEnd returns the end position of the most recently consumed token.
func (p *Parser) prevEnd() position.Position {
	if p.pos == 0 {
		return position.Position{Line: 1, Column: 1}
	}
	return p.tokens[p.pos-1].Span.End
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.cur()
	if tok.Type != tt {
		return lexer.Token{}, p.errExpected(tt.String(), tok)
	}
	return p.advance(), nil
}

func (p *Parser) errExpected(expected string, found lexer.Token) error {
	return &SyntaxError{
		Kind:     ErrUnexpectedToken,
		Pos:      found.Span.Start,
		Expected: expected,
		Found:    found.Literal,
	}
}

func (p *Parser) curIsOp(symbol string) bool {
	tok := p.cur()
	return tok.Type == lexer.TokenOp && tok.Literal == symbol
}

func (p *Parser) expectOp(symbol string) (lexer.Token, error) {
	if !p.curIsOp(symbol) {
		return lexer.Token{}, p.errExpected(symbol, p.cur())
	}
	return p.advance(), nil
}

// ====== junction context ======

func (p *Parser) pushJunction(ctx junctionCtx) {
	p.junctions = append(p.junctions, ctx)
}

func (p *Parser) popJunction() {
	p.junctions = p.junctions[:len(p.junctions)-1]
}

// topJunction returns the innermost active junction list, or nil when
// none is active (including when a delimiter barrier shields it).
func (p *Parser) topJunction() *junctionCtx {
	if len(p.junctions) == 0 {
		return nil
	}
	top := &p.junctions[len(p.junctions)-1]
	if top.barrier {
		return nil
	}
	return top
}

// junctionTerminates reports whether the bullet token tok ends the
// current junction item rather than acting as an infix operator: a
// bullet at or left of the active list's alignment column belongs to
// the list structure, not the item expression.
func (p *Parser) junctionTerminates(tok lexer.Token) bool {
	ctx := p.topJunction()
	return ctx != nil && tok.Column() <= ctx.col
}

// ====== module level ======

// ParseModule parses `---- MODULE Name ----` through the terminating
// `====` rule.
func (p *Parser) ParseModule() (*Module, error) {
	start, err := p.expect(lexer.TokenSeparator)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenModule); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSeparator); err != nil {
		return nil, err
	}

	m := &Module{Name: name.Literal}

	for {
		tok := p.cur()

		switch tok.Type {
		case lexer.TokenModuleEnd:
			p.advance()
			m.Span = position.NewSpan(start.Span.Start, p.prevEnd())
			return m, nil

		case lexer.TokenEOF:
			return nil, p.errExpected("====", tok)

		case lexer.TokenExtends:
			if err := p.parseExtends(m); err != nil {
				return nil, err
			}

		default:
			unit, err := p.parseUnit()
			if err != nil {
				return nil, err
			}
			m.Units = append(m.Units, unit)
		}
	}
}

func (p *Parser) parseExtends(m *Module) error {
	start := p.advance() // EXTENDS

	for {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return err
		}
		m.Extends = append(m.Extends, name.Literal)

		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.advance()
	}

	m.ExtendsSpan = position.NewSpan(start.Span.Start, p.prevEnd())
	return nil
}

func (p *Parser) parseUnit() (Unit, error) {
	tok := p.cur()

	switch tok.Type {
	case lexer.TokenSeparator:
		p.advance()
		return &SeparatorUnit{Span: tok.Span}, nil

	case lexer.TokenConstant, lexer.TokenConstants:
		return p.parseConstants()

	case lexer.TokenVariable, lexer.TokenVariables:
		return p.parseVariables()

	case lexer.TokenAssume:
		return p.parseAssume()

	case lexer.TokenRecursive:
		return p.parseRecursive()

	case lexer.TokenLocal:
		p.advance()
		unit, err := p.parseUnit()
		if err != nil {
			return nil, err
		}
		switch u := unit.(type) {
		case *OperatorDef:
			u.Local = true
			u.Span.Start = tok.Span.Start
			return u, nil
		case *InstanceUnit:
			u.Local = true
			u.Span.Start = tok.Span.Start
			return u, nil
		default:
			return nil, p.errExpected("definition or INSTANCE after LOCAL", p.cur())
		}

	case lexer.TokenInstance:
		return p.parseInstance(tok.Span.Start, "", nil)

	case lexer.TokenTheorem, lexer.TokenLemma:
		return p.parseTheorem()

	case lexer.TokenIdent:
		return p.parseDefinition()

	default:
		return nil, p.errExpected("module unit", tok)
	}
}

func (p *Parser) parseConstants() (Unit, error) {
	kw := p.advance()

	unit := &ConstantsUnit{Plural: kw.Type == lexer.TokenConstants}
	decls, err := p.parseOpDeclList()
	if err != nil {
		return nil, err
	}

	unit.Decls = decls
	unit.Span = position.NewSpan(kw.Span.Start, p.prevEnd())
	return unit, nil
}

func (p *Parser) parseVariables() (Unit, error) {
	kw := p.advance()

	unit := &VariablesUnit{Plural: kw.Type == lexer.TokenVariables}
	for {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		unit.Names = append(unit.Names, name.Literal)

		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.advance()
	}

	unit.Span = position.NewSpan(kw.Span.Start, p.prevEnd())
	return unit, nil
}

// parseOpDeclList parses a comma-separated list of operator
// declarations, each a plain name or an arity form such as `Op(_, _)`.
func (p *Parser) parseOpDeclList() ([]OpDecl, error) {
	var decls []OpDecl
	for {
		decl, err := p.parseOpDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)

		if p.cur().Type != lexer.TokenComma {
			return decls, nil
		}
		p.advance()
	}
}

func (p *Parser) parseOpDecl() (OpDecl, error) {
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return OpDecl{}, err
	}

	decl := OpDecl{Name: name.Literal}
	if p.cur().Type != lexer.TokenLParen {
		return decl, nil
	}

	p.advance()
	for {
		if _, err := p.expect(lexer.TokenUnderscore); err != nil {
			return OpDecl{}, err
		}
		decl.Arity++

		if p.cur().Type == lexer.TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return OpDecl{}, err
	}
	return decl, nil
}

func (p *Parser) parseAssume() (Unit, error) {
	kw := p.advance()

	unit := &AssumeUnit{}
	if p.cur().Type == lexer.TokenIdent && p.peekAt(1).Type == lexer.TokenDefEq {
		unit.Name = p.advance().Literal
		p.advance() // ==
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	unit.Expr = body
	unit.Span = position.NewSpan(kw.Span.Start, p.prevEnd())
	return unit, nil
}

func (p *Parser) parseRecursive() (Unit, error) {
	kw := p.advance()

	decls, err := p.parseOpDeclList()
	if err != nil {
		return nil, err
	}

	return &RecursiveUnit{
		Span:  position.NewSpan(kw.Span.Start, p.prevEnd()),
		Decls: decls,
	}, nil
}

// parseDefinition parses an operator definition led by an identifier:
// `Op == e`, `Op(a, b) == e`, `f[x \in S] == e`, or a named instance
// `I == INSTANCE M WITH ...`.
func (p *Parser) parseDefinition() (Unit, error) {
	name := p.advance()

	def := &OperatorDef{Name: name.Literal}

	switch p.cur().Type {
	case lexer.TokenLParen:
		p.advance()
		params, err := p.parseOpDeclList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		def.Params = params

	case lexer.TokenLBracket:
		p.advance()
		p.pushJunction(junctionCtx{barrier: true})
		bounds, err := p.parseBoundList()
		p.popJunction()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
		def.FuncBounds = bounds
	}

	if _, err := p.expect(lexer.TokenDefEq); err != nil {
		return nil, err
	}

	if p.cur().Type == lexer.TokenInstance {
		return p.parseInstance(name.Span.Start, name.Literal, def.Params)
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	def.Body = body
	def.Span = position.NewSpan(name.Span.Start, p.prevEnd())
	return def, nil
}

func (p *Parser) parseInstance(start position.Position, name string, params []OpDecl) (Unit, error) {
	if _, err := p.expect(lexer.TokenInstance); err != nil {
		return nil, err
	}

	mod, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}

	unit := &InstanceUnit{Name: name, Params: params, ModuleName: mod.Literal}

	if p.cur().Type == lexer.TokenWith {
		p.advance()
		for {
			sub, err := p.parseSubst()
			if err != nil {
				return nil, err
			}
			unit.With = append(unit.With, sub)

			if p.cur().Type != lexer.TokenComma {
				break
			}
			p.advance()
		}
	}

	unit.Span = position.NewSpan(start, p.prevEnd())
	return unit, nil
}

func (p *Parser) parseSubst() (Subst, error) {
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return Subst{}, err
	}
	if _, err := p.expect(lexer.TokenSubst); err != nil {
		return Subst{}, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return Subst{}, err
	}
	return Subst{Name: name.Literal, Expr: value}, nil
}

func (p *Parser) parseTheorem() (Unit, error) {
	kw := p.advance()

	unit := &TheoremUnit{Keyword: kw.Literal}
	if p.cur().Type == lexer.TokenIdent && p.peekAt(1).Type == lexer.TokenDefEq {
		unit.Name = p.advance().Literal
		p.advance() // ==
	}

	stmt, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	unit.Statement = stmt

	proof, err := p.parseOptionalProof(0)
	if err != nil {
		return nil, err
	}
	unit.Proof = proof

	unit.Span = position.NewSpan(kw.Span.Start, p.prevEnd())
	return unit, nil
}

// parseOptionalProof parses a proof when one follows, or returns nil.
// Structured sub-proofs are only consumed when their step level is
// strictly deeper than minLevel, so a following sibling or ancestor
// step is left for the enclosing step list.
func (p *Parser) parseOptionalProof(minLevel int) (*Proof, error) {
	start := p.cur().Span.Start
	keyword := p.cur().Type == lexer.TokenProof
	if keyword {
		p.advance()
	}

	switch p.cur().Type {
	case lexer.TokenBy:
		return p.parseByProof(start)

	case lexer.TokenObvious:
		p.advance()
		return &Proof{Span: position.NewSpan(start, p.prevEnd()), Kind: ProofObvious}, nil

	case lexer.TokenOmitted:
		p.advance()
		return &Proof{Span: position.NewSpan(start, p.prevEnd()), Kind: ProofOmitted}, nil

	case lexer.TokenProofStepID:
		if level := stepLevel(p.cur().Literal); level > minLevel {
			steps, err := p.parseProofSteps(level)
			if err != nil {
				return nil, err
			}
			return &Proof{
				Span:  position.NewSpan(start, p.prevEnd()),
				Kind:  ProofSteps,
				Steps: steps,
			}, nil
		}
	}

	if keyword {
		return nil, p.errExpected("proof body after PROOF", p.cur())
	}
	return nil, nil
}

func (p *Parser) parseByProof(start position.Position) (*Proof, error) {
	p.advance() // BY

	proof := &Proof{Kind: ProofBy}
	for p.cur().Type != lexer.TokenDef {
		// Facts are expressions or references to earlier proof steps.
		if tok := p.cur(); tok.Type == lexer.TokenProofStepID {
			p.advance()
			proof.By = append(proof.By, &Ident{Span: tok.Span, Name: tok.Literal})
		} else {
			fact, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			proof.By = append(proof.By, fact)
		}

		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.advance()
	}

	if p.cur().Type == lexer.TokenDef {
		p.advance()
		for {
			name, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			proof.Defs = append(proof.Defs, name.Literal)

			if p.cur().Type != lexer.TokenComma {
				break
			}
			p.advance()
		}
	}

	proof.Span = position.NewSpan(start, p.prevEnd())
	return proof, nil
}

// parseProofSteps parses consecutive steps at the given level. Steps at
// a deeper level form the sub-proof of the preceding step.
func (p *Parser) parseProofSteps(level int) ([]*ProofStep, error) {
	var steps []*ProofStep

	for p.cur().Type == lexer.TokenProofStepID && stepLevel(p.cur().Literal) == level {
		label := p.advance()

		step := &ProofStep{Label: label.Literal, Level: level}

		switch p.cur().Type {
		case lexer.TokenQED:
			p.advance()
			step.IsQED = true
		case lexer.TokenCase:
			// A case assumption, not a CASE expression: it takes a
			// single expression with no `->` arms.
			p.advance()
			stmt, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			step.IsCase = true
			step.Statement = stmt
		default:
			stmt, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			step.Statement = stmt
		}

		sub, err := p.parseOptionalProof(level)
		if err != nil {
			return nil, err
		}
		step.Proof = sub

		step.Span = position.NewSpan(label.Span.Start, p.prevEnd())
		steps = append(steps, step)
	}

	if len(steps) == 0 {
		return nil, p.errExpected("proof step", p.cur())
	}
	return steps, nil
}

// stepLevel extracts n from a `<n>label` step label.
func stepLevel(label string) int {
	end := strings.IndexByte(label, '>')
	if end <= 1 {
		return 0
	}
	n, err := strconv.Atoi(label[1:end])
	if err != nil {
		return 0
	}
	return n
}
