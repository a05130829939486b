package parser

import (
	"fmt"

	"github.com/domodwyer/tlafmt/internal/position"
)

// SyntaxErrorKind enumerates the parser failure modes.
type SyntaxErrorKind int

const (
	// ErrUnexpectedToken is a token that does not fit the grammar at
	// its position.
	ErrUnexpectedToken SyntaxErrorKind = iota
	// ErrAmbiguousPrecedence is two adjacent operators whose precedence
	// ranges overlap without explicit parenthesisation.
	ErrAmbiguousPrecedence
	// ErrMalformedJunction is a bullet list broken by a mixed bullet
	// symbol at its alignment column.
	ErrMalformedJunction
	// ErrTooDeeplyNested is input exceeding the recursion budget.
	ErrTooDeeplyNested
)

// String returns a human readable name for the error kind.
func (k SyntaxErrorKind) String() string {
	switch k {
	case ErrUnexpectedToken:
		return "unexpected token"
	case ErrAmbiguousPrecedence:
		return "ambiguous operator precedence"
	case ErrMalformedJunction:
		return "malformed junction list"
	case ErrTooDeeplyNested:
		return "expression nesting too deep"
	default:
		return fmt.Sprintf("unknown syntax error (%d)", int(k))
	}
}

// SyntaxError represents a fatal parsing error. The parser does not
// recover: the first error aborts the file.
type SyntaxError struct {
	Kind     SyntaxErrorKind
	Pos      position.Position
	Expected string // what the grammar required, where known
	Found    string // the offending token text
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Expected != "" && e.Found != "":
		return fmt.Sprintf("syntax error at %s: %s: expected %s, found %q", e.Pos, e.Kind, e.Expected, e.Found)
	case e.Found != "":
		return fmt.Sprintf("syntax error at %s: %s: %q", e.Pos, e.Kind, e.Found)
	default:
		return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Kind)
	}
}
