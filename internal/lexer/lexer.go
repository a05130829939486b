// Package lexer implements the TLA+ lexical analyzer. It converts raw
// source text into a stream of positioned tokens plus a side-channel of
// comments, which are collected separately so the formatter can
// re-attach them to syntax nodes later.
package lexer

import (
	"fmt"

	"github.com/domodwyer/tlafmt/internal/position"
)

// TokenType represents the type of a token.
type TokenType int

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token types.
const (
	TokenEOF TokenType = iota

	// Literals
	TokenIdent
	TokenNumber
	TokenString

	// Keywords
	TokenModule
	TokenExtends
	TokenConstant
	TokenConstants
	TokenVariable
	TokenVariables
	TokenAssume
	TokenRecursive
	TokenLocal
	TokenInstance
	TokenWith
	TokenLet
	TokenIn
	TokenIf
	TokenThen
	TokenElse
	TokenCase
	TokenOther
	TokenChoose
	TokenExcept
	TokenTheorem
	TokenLemma
	TokenProof
	TokenBy
	TokenDef
	TokenObvious
	TokenOmitted
	TokenQED

	// Structural punctuation
	TokenDefEq      // ==
	TokenComma      // ,
	TokenColon      // :
	TokenLParen     // (
	TokenRParen     // )
	TokenLBracket   // [
	TokenRBracket   // ]
	TokenLBrace     // {
	TokenRBrace     // }
	TokenLAngle     // <<
	TokenRAngle     // >>
	TokenMapsTo     // |->
	TokenSubst      // <-
	TokenBang       // !
	TokenAt         // @
	TokenUnderscore // _

	// Junction bullets (also plain infix operators)
	TokenAnd // /\
	TokenOr  // \/

	// Quantifier binders
	TokenForall         // \A
	TokenExists         // \E
	TokenTemporalForall // \AA
	TokenTemporalExists // \EE

	// Any other operator symbol; Literal carries the symbol text.
	TokenOp

	TokenProofStepID // <n>label step label
	TokenSeparator   // ---- horizontal rule
	TokenModuleEnd   // ====
)

// Position is re-exported so callers of the lexer do not need to import
// the position package for the common case.
type Position = position.Position

// Span is re-exported for the same reason as Position.
type Span = position.Span

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Span    Span
}

// String returns a string representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Pos: %s}", t.Type, t.Literal, t.Span.Start)
}

// Column returns the 1-based source column of the token start.
func (t Token) Column() int {
	return t.Span.Start.Column
}

// CommentKind distinguishes line comments from block comments.
type CommentKind int

const (
	// CommentLine is a `\*` comment running to end of line.
	CommentLine CommentKind = iota
	// CommentBlock is a `(* ... *)` comment; block comments nest.
	CommentBlock
)

// Comment is a comment captured outside the token stream. Text includes
// the comment delimiters.
type Comment struct {
	Kind CommentKind
	Text string
	Span Span
}

// Column returns the 1-based source column at which the comment began.
func (c Comment) Column() int {
	return c.Span.Start.Column
}

// tokenNames provides string representations for token types.
var tokenNames = map[TokenType]string{
	TokenEOF:            "EOF",
	TokenIdent:          "IDENT",
	TokenNumber:         "NUMBER",
	TokenString:         "STRING",
	TokenModule:         "MODULE",
	TokenExtends:        "EXTENDS",
	TokenConstant:       "CONSTANT",
	TokenConstants:      "CONSTANTS",
	TokenVariable:       "VARIABLE",
	TokenVariables:      "VARIABLES",
	TokenAssume:         "ASSUME",
	TokenRecursive:      "RECURSIVE",
	TokenLocal:          "LOCAL",
	TokenInstance:       "INSTANCE",
	TokenWith:           "WITH",
	TokenLet:            "LET",
	TokenIn:             "IN",
	TokenIf:             "IF",
	TokenThen:           "THEN",
	TokenElse:           "ELSE",
	TokenCase:           "CASE",
	TokenOther:          "OTHER",
	TokenChoose:         "CHOOSE",
	TokenExcept:         "EXCEPT",
	TokenTheorem:        "THEOREM",
	TokenLemma:          "LEMMA",
	TokenProof:          "PROOF",
	TokenBy:             "BY",
	TokenDef:            "DEF",
	TokenObvious:        "OBVIOUS",
	TokenOmitted:        "OMITTED",
	TokenQED:            "QED",
	TokenDefEq:          "DEF_EQ",
	TokenComma:          "COMMA",
	TokenColon:          "COLON",
	TokenLParen:         "LPAREN",
	TokenRParen:         "RPAREN",
	TokenLBracket:       "LBRACKET",
	TokenRBracket:       "RBRACKET",
	TokenLBrace:         "LBRACE",
	TokenRBrace:         "RBRACE",
	TokenLAngle:         "LANGLE",
	TokenRAngle:         "RANGLE",
	TokenMapsTo:         "MAPS_TO",
	TokenSubst:          "SUBST",
	TokenBang:           "BANG",
	TokenAt:             "AT",
	TokenUnderscore:     "UNDERSCORE",
	TokenAnd:            "AND",
	TokenOr:             "OR",
	TokenForall:         "FORALL",
	TokenExists:         "EXISTS",
	TokenTemporalForall: "TEMPORAL_FORALL",
	TokenTemporalExists: "TEMPORAL_EXISTS",
	TokenOp:             "OP",
	TokenProofStepID:    "PROOF_STEP_ID",
	TokenSeparator:      "SEPARATOR",
	TokenModuleEnd:      "MODULE_END",
}

// keywords maps reserved words to their token types.
var keywords = map[string]TokenType{
	"MODULE":     TokenModule,
	"EXTENDS":    TokenExtends,
	"CONSTANT":   TokenConstant,
	"CONSTANTS":  TokenConstants,
	"VARIABLE":   TokenVariable,
	"VARIABLES":  TokenVariables,
	"ASSUME":     TokenAssume,
	"ASSUMPTION": TokenAssume,
	"AXIOM":      TokenAssume,
	"RECURSIVE":  TokenRecursive,
	"LOCAL":      TokenLocal,
	"INSTANCE":   TokenInstance,
	"WITH":       TokenWith,
	"LET":        TokenLet,
	"IN":         TokenIn,
	"IF":         TokenIf,
	"THEN":       TokenThen,
	"ELSE":       TokenElse,
	"CASE":       TokenCase,
	"OTHER":      TokenOther,
	"CHOOSE":     TokenChoose,
	"EXCEPT":     TokenExcept,
	"THEOREM":    TokenTheorem,
	"LEMMA":      TokenLemma,
	"PROOF":      TokenProof,
	"BY":         TokenBy,
	"DEF":        TokenDef,
	"OBVIOUS":    TokenObvious,
	"OMITTED":    TokenOmitted,
	"QED":        TokenQED,
}

// prefixKeywordOps are reserved words that act as prefix operators.
// They lex as TokenOp so the parser can treat them uniformly with the
// symbolic operator table.
var prefixKeywordOps = map[string]bool{
	"ENABLED":   true,
	"UNCHANGED": true,
	"DOMAIN":    true,
	"SUBSET":    true,
	"UNION":     true,
}

// LexErrorKind enumerates the lexical failure modes.
type LexErrorKind int

const (
	// ErrUnterminatedString is a string literal missing its closing quote.
	ErrUnterminatedString LexErrorKind = iota
	// ErrUnterminatedComment is a block comment whose nesting never closes.
	ErrUnterminatedComment
	// ErrInvalidCharacter is a byte that starts no valid token.
	ErrInvalidCharacter
)

// String returns a human readable name for the error kind.
func (k LexErrorKind) String() string {
	switch k {
	case ErrUnterminatedString:
		return "unterminated string literal"
	case ErrUnterminatedComment:
		return "unterminated block comment"
	case ErrInvalidCharacter:
		return "invalid character"
	default:
		return fmt.Sprintf("unknown lex error (%d)", int(k))
	}
}

// LexError represents a fatal lexical error with source position.
type LexError struct {
	Kind LexErrorKind
	Pos  Position
	Char byte // offending byte for ErrInvalidCharacter
}

func (e *LexError) Error() string {
	if e.Kind == ErrInvalidCharacter {
		return fmt.Sprintf("lex error at %s: %s %q", e.Pos, e.Kind, string(e.Char))
	}
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Kind)
}

// Lexer scans TLA+ source text.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position (after current char)
	ch           byte // current char under examination
	line         int  // 1-based line of the current char
	column       int  // 1-based column of the current char

	comments []Comment
}

// New creates a lexer over input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Tokenize scans the entire source and returns the token stream plus
// the comment side-channel. Any lexical error is fatal: no partial
// token stream is returned.
func Tokenize(source string) ([]Token, []Comment, error) {
	l := New(source)

	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, nil, err
		}

		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, l.comments, nil
		}
	}
}

// Comments returns the comments collected so far.
func (l *Lexer) Comments() []Comment {
	return l.comments
}

// readChar reads the next character and advances position.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0 // NUL represents EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing position.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// pos returns the position of the current character.
func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// NextToken scans and returns the next token, skipping whitespace and
// capturing comments into the side-channel as they are encountered.
func (l *Lexer) NextToken() (Token, error) {
	for {
		l.skipWhitespace()

		// Comments do not enter the token stream.
		if l.ch == '\\' && l.peekChar() == '*' {
			l.readLineComment()
			continue
		}
		if l.ch == '(' && l.peekChar() == '*' {
			if err := l.readBlockComment(); err != nil {
				return Token{}, err
			}
			continue
		}

		break
	}

	start := l.pos()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Span: position.NewSpan(start, start)}, nil

	case l.ch == '_' && !isLetter(l.peekChar()) && !isDigit(l.peekChar()):
		// A lone `_` is the anonymous-parameter placeholder, not an
		// identifier.
		l.readChar()
		return Token{Type: TokenUnderscore, Literal: "_", Span: position.NewSpan(start, l.pos())}, nil

	case isLetter(l.ch):
		return l.lexIdentifier(start), nil

	case isDigit(l.ch):
		return l.lexNumber(start), nil

	case l.ch == '"':
		return l.lexString(start)

	default:
		return l.lexSymbol(start)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readLineComment consumes a `\*` comment up to (not including) the
// newline.
func (l *Lexer) readLineComment() {
	start := l.pos()
	from := l.position

	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}

	l.comments = append(l.comments, Comment{
		Kind: CommentLine,
		Text: l.input[from:l.position],
		Span: position.NewSpan(start, l.pos()),
	})
}

// readBlockComment consumes a `(* ... *)` comment, honouring nesting:
// every inner `(*` needs a matching `*)` before the outer one closes.
func (l *Lexer) readBlockComment() error {
	start := l.pos()
	from := l.position

	// Consume the opening `(*`.
	l.readChar()
	l.readChar()

	depth := 1
	for depth > 0 {
		switch {
		case l.ch == 0:
			return &LexError{Kind: ErrUnterminatedComment, Pos: start}
		case l.ch == '(' && l.peekChar() == '*':
			depth++
			l.readChar()
			l.readChar()
		case l.ch == '*' && l.peekChar() == ')':
			depth--
			l.readChar()
			l.readChar()
		default:
			l.readChar()
		}
	}

	l.comments = append(l.comments, Comment{
		Kind: CommentBlock,
		Text: l.input[from:l.position],
		Span: position.NewSpan(start, l.pos()),
	})

	return nil
}

func (l *Lexer) lexIdentifier(start Position) Token {
	from := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}

	lit := l.input[from:l.position]
	span := position.NewSpan(start, l.pos())

	if tt, ok := keywords[lit]; ok {
		return Token{Type: tt, Literal: lit, Span: span}
	}
	if prefixKeywordOps[lit] {
		return Token{Type: TokenOp, Literal: lit, Span: span}
	}

	return Token{Type: TokenIdent, Literal: lit, Span: span}
}

func (l *Lexer) lexNumber(start Position) Token {
	from := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	return Token{
		Type:    TokenNumber,
		Literal: l.input[from:l.position],
		Span:    position.NewSpan(start, l.pos()),
	}
}

// lexString scans a double-quoted string literal. Strings cannot span
// lines. The literal text retains its quotes.
func (l *Lexer) lexString(start Position) (Token, error) {
	from := l.position
	l.readChar() // opening quote

	for {
		switch l.ch {
		case '"':
			l.readChar()
			return Token{
				Type:    TokenString,
				Literal: l.input[from:l.position],
				Span:    position.NewSpan(start, l.pos()),
			}, nil
		case '\\':
			// Escape sequence: skip the escaped character.
			l.readChar()
			l.readChar()
		case 0, '\n':
			return Token{}, &LexError{Kind: ErrUnterminatedString, Pos: start}
		default:
			l.readChar()
		}
	}
}

// lexSymbol scans operator and punctuation tokens, longest match first.
func (l *Lexer) lexSymbol(start Position) (Token, error) {
	mk := func(tt TokenType, lit string) Token {
		for range lit {
			l.readChar()
		}
		return Token{Type: tt, Literal: lit, Span: position.NewSpan(start, l.pos())}
	}

	switch l.ch {
	case '-':
		if l.peekChar() == '>' {
			return mk(TokenOp, "->"), nil
		}
		if l.peekChar() == '+' {
			// The `-+->` temporal operator.
			if rest := l.remaining(); len(rest) >= 4 && rest[:4] == "-+->" {
				return mk(TokenOp, "-+->"), nil
			}
		}
		if n := l.runLength('-'); n >= 4 {
			return mk(TokenSeparator, l.remaining()[:n]), nil
		} else if n > 1 {
			return Token{}, &LexError{Kind: ErrInvalidCharacter, Pos: start, Char: '-'}
		}
		return mk(TokenOp, "-"), nil

	case '=':
		switch l.peekChar() {
		case '>':
			return mk(TokenOp, "=>"), nil
		case '<':
			return mk(TokenOp, "=<"), nil
		}
		switch n := l.runLength('='); {
		case n >= 4:
			return mk(TokenModuleEnd, l.remaining()[:n]), nil
		case n == 2:
			return mk(TokenDefEq, "=="), nil
		case n == 1:
			return mk(TokenOp, "="), nil
		default:
			return Token{}, &LexError{Kind: ErrInvalidCharacter, Pos: start, Char: '='}
		}

	case '<':
		switch l.peekChar() {
		case '<':
			return mk(TokenLAngle, "<<"), nil
		case '=':
			if rest := l.remaining(); len(rest) >= 3 && rest[:3] == "<=>" {
				return mk(TokenOp, "<=>"), nil
			}
			return mk(TokenOp, "<="), nil
		case ':':
			return mk(TokenOp, "<:"), nil
		case '>':
			return mk(TokenOp, "<>"), nil
		case '-':
			return mk(TokenSubst, "<-"), nil
		}
		if lit, ok := l.scanProofStepID(); ok {
			return mk(TokenProofStepID, lit), nil
		}
		return mk(TokenOp, "<"), nil

	case '>':
		if l.peekChar() == '>' {
			return mk(TokenRAngle, ">>"), nil
		}
		if l.peekChar() == '=' {
			return mk(TokenOp, ">="), nil
		}
		return mk(TokenOp, ">"), nil

	case '\\':
		if l.peekChar() == '/' {
			return mk(TokenOr, "\\/"), nil
		}
		if isLetter(l.peekChar()) {
			lit := l.scanBackslashOp()
			switch lit {
			case "\\A":
				return mk(TokenForall, lit), nil
			case "\\E":
				return mk(TokenExists, lit), nil
			case "\\AA":
				return mk(TokenTemporalForall, lit), nil
			case "\\EE":
				return mk(TokenTemporalExists, lit), nil
			default:
				return mk(TokenOp, lit), nil
			}
		}
		// A bare backslash is set difference.
		return mk(TokenOp, "\\"), nil

	case '/':
		if l.peekChar() == '\\' {
			return mk(TokenAnd, "/\\"), nil
		}
		if l.peekChar() == '=' {
			return mk(TokenOp, "/="), nil
		}
		return mk(TokenOp, "/"), nil

	case '(':
		return mk(TokenLParen, "("), nil
	case ')':
		return mk(TokenRParen, ")"), nil
	case '[':
		if l.peekChar() == ']' {
			return mk(TokenOp, "[]"), nil
		}
		return mk(TokenLBracket, "["), nil
	case ']':
		return mk(TokenRBracket, "]"), nil
	case '{':
		return mk(TokenLBrace, "{"), nil
	case '}':
		return mk(TokenRBrace, "}"), nil
	case ',':
		return mk(TokenComma, ","), nil

	case ':':
		if l.peekChar() == '>' {
			return mk(TokenOp, ":>"), nil
		}
		if l.peekChar() == ':' {
			return mk(TokenOp, "::"), nil
		}
		return mk(TokenColon, ":"), nil

	case '|':
		if rest := l.remaining(); len(rest) >= 3 && rest[:3] == "|->" {
			return mk(TokenMapsTo, "|->"), nil
		}
		return mk(TokenOp, "|"), nil

	case '.':
		if l.peekChar() == '.' {
			return mk(TokenOp, ".."), nil
		}
		return mk(TokenOp, "."), nil

	case '~':
		if l.peekChar() == '>' {
			return mk(TokenOp, "~>"), nil
		}
		return mk(TokenOp, "~"), nil

	case '^':
		switch l.peekChar() {
		case '+':
			return mk(TokenOp, "^+"), nil
		case '*':
			return mk(TokenOp, "^*"), nil
		case '#':
			return mk(TokenOp, "^#"), nil
		}
		return mk(TokenOp, "^"), nil

	case '@':
		if l.peekChar() == '@' {
			return mk(TokenOp, "@@"), nil
		}
		return mk(TokenAt, "@"), nil

	case '\'':
		return mk(TokenOp, "'"), nil
	case '!':
		return mk(TokenBang, "!"), nil
	case '#':
		return mk(TokenOp, "#"), nil
	case '%':
		return mk(TokenOp, "%"), nil
	case '&':
		if l.peekChar() == '&' {
			return mk(TokenOp, "&&"), nil
		}
		return mk(TokenOp, "&"), nil
	case '+':
		if l.peekChar() == '+' {
			return mk(TokenOp, "++"), nil
		}
		return mk(TokenOp, "+"), nil
	case '*':
		if l.peekChar() == '*' {
			return mk(TokenOp, "**"), nil
		}
		return mk(TokenOp, "*"), nil
	case '$':
		if l.peekChar() == '$' {
			return mk(TokenOp, "$$"), nil
		}
		return mk(TokenOp, "$"), nil
	}

	return Token{}, &LexError{Kind: ErrInvalidCharacter, Pos: start, Char: l.ch}
}

// remaining returns the unread input including the current char.
func (l *Lexer) remaining() string {
	return l.input[l.position:]
}

// runLength counts consecutive occurrences of c starting at the current
// char, without consuming input.
func (l *Lexer) runLength(c byte) int {
	n := 0
	for i := l.position; i < len(l.input) && l.input[i] == c; i++ {
		n++
	}
	return n
}

// scanProofStepID recognises a `<n>label` proof step label (with an
// optional trailing dot) starting at the current `<`. It does not
// consume input; the caller consumes the returned literal.
func (l *Lexer) scanProofStepID() (string, bool) {
	rest := l.remaining()
	if len(rest) < 3 || rest[0] != '<' || !isDigit(rest[1]) {
		return "", false
	}

	i := 1
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	if i >= len(rest) || rest[i] != '>' {
		return "", false
	}
	i++
	for i < len(rest) && (isLetter(rest[i]) || isDigit(rest[i])) {
		i++
	}
	if i < len(rest) && rest[i] == '.' {
		i++
	}
	return rest[:i], true
}

// scanBackslashOp reads a `\name` operator (e.g. \in, \cup, \subseteq)
// without consuming input.
func (l *Lexer) scanBackslashOp() string {
	rest := l.remaining()
	i := 1
	for i < len(rest) && isLetter(rest[i]) {
		i++
	}
	return rest[:i]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
