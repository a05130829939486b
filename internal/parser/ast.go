// Package parser implements the TLA+ parser and AST definitions.
package parser

import (
	"fmt"
	"strings"

	"github.com/domodwyer/tlafmt/internal/position"
)

// Node represents the base interface for all AST nodes.
type Node interface {
	// GetSpan returns the source span for this node.
	GetSpan() position.Span
	// String returns a short string representation of the node.
	String() string
}

// Unit represents a top-level module unit.
type Unit interface {
	Node
	unitNode()
}

// Expr represents all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// ====== Module structure ======

// Module is the root of the AST: one TLA+ module.
type Module struct {
	Span        position.Span
	Name        string
	Extends     []string
	ExtendsSpan position.Span
	Units       []Unit
}

func (m *Module) GetSpan() position.Span { return m.Span }
func (m *Module) String() string         { return fmt.Sprintf("MODULE %s", m.Name) }

// OpDecl is a declared operator name with its arity, e.g. `Send(_, _)`.
// Plain identifiers have arity zero.
type OpDecl struct {
	Name  string
	Arity int
}

// String renders the declaration form.
func (d OpDecl) String() string {
	if d.Arity == 0 {
		return d.Name
	}
	ph := make([]string, d.Arity)
	for i := range ph {
		ph[i] = "_"
	}
	return fmt.Sprintf("%s(%s)", d.Name, strings.Join(ph, ", "))
}

// ConstantsUnit is a CONSTANT / CONSTANTS declaration.
type ConstantsUnit struct {
	Span   position.Span
	Decls  []OpDecl
	Plural bool // CONSTANTS rather than CONSTANT
}

func (u *ConstantsUnit) GetSpan() position.Span { return u.Span }
func (u *ConstantsUnit) String() string         { return "CONSTANTS" }
func (u *ConstantsUnit) unitNode()              {}

// VariablesUnit is a VARIABLE / VARIABLES declaration.
type VariablesUnit struct {
	Span   position.Span
	Names  []string
	Plural bool
}

func (u *VariablesUnit) GetSpan() position.Span { return u.Span }
func (u *VariablesUnit) String() string         { return "VARIABLES" }
func (u *VariablesUnit) unitNode()              {}

// AssumeUnit is an ASSUME statement, optionally named.
type AssumeUnit struct {
	Span position.Span
	Name string // empty when anonymous
	Expr Expr
}

func (u *AssumeUnit) GetSpan() position.Span { return u.Span }
func (u *AssumeUnit) String() string         { return "ASSUME" }
func (u *AssumeUnit) unitNode()              {}

// RecursiveUnit is a RECURSIVE declaration enabling self-reference by
// name for the declared operators.
type RecursiveUnit struct {
	Span  position.Span
	Decls []OpDecl
}

func (u *RecursiveUnit) GetSpan() position.Span { return u.Span }
func (u *RecursiveUnit) String() string         { return "RECURSIVE" }
func (u *RecursiveUnit) unitNode()              {}

// Bound is one quantifier bound: a group of names with an optional
// shared domain, e.g. `x, y \in S` or the tuple form `<<x, y>> \in S`.
type Bound struct {
	Span   position.Span
	Names  []string
	Domain Expr // nil for unbounded quantification
	Tuple  bool
}

// OperatorDef is an operator definition unit. Function-form definitions
// (`f[x \in S] == e`) carry their domain bounds in FuncBounds.
type OperatorDef struct {
	Span       position.Span
	Local      bool
	Name       string
	Params     []OpDecl
	FuncBounds []Bound
	Body       Expr
}

func (u *OperatorDef) GetSpan() position.Span { return u.Span }
func (u *OperatorDef) String() string         { return fmt.Sprintf("%s ==", u.Name) }
func (u *OperatorDef) unitNode()              {}

// Subst is one substitution in an INSTANCE ... WITH clause.
type Subst struct {
	Name string
	Expr Expr
}

// InstanceUnit is a module instantiation, either bare
// (`INSTANCE M WITH ...`) or named (`I == INSTANCE M WITH ...`).
type InstanceUnit struct {
	Span       position.Span
	Local      bool
	Name       string // empty for a bare INSTANCE
	Params     []OpDecl
	ModuleName string
	With       []Subst
}

func (u *InstanceUnit) GetSpan() position.Span { return u.Span }
func (u *InstanceUnit) String() string         { return fmt.Sprintf("INSTANCE %s", u.ModuleName) }
func (u *InstanceUnit) unitNode()              {}

// ProofKind describes the shape of a proof.
type ProofKind int

const (
	// ProofBy is a `BY e1, e2 DEF d1, d2` justification.
	ProofBy ProofKind = iota
	// ProofObvious is the OBVIOUS leaf.
	ProofObvious
	// ProofOmitted is the OMITTED leaf.
	ProofOmitted
	// ProofSteps is a structured proof of `<n>label` steps.
	ProofSteps
)

// Proof is a theorem justification, either a leaf or a step tree.
type Proof struct {
	Span  position.Span
	Kind  ProofKind
	By    []Expr
	Defs  []string
	Steps []*ProofStep
}

// ProofStep is a single structured proof step. QED steps carry no
// statement; case-assumption steps (`<2>1. CASE x > 0`) carry the
// assumption as their statement.
type ProofStep struct {
	Span      position.Span
	Label     string // full label text, e.g. `<1>a.`
	Level     int
	IsQED     bool
	IsCase    bool
	Statement Expr
	Proof     *Proof
}

// TheoremUnit is a THEOREM or LEMMA with an optional proof.
type TheoremUnit struct {
	Span      position.Span
	Keyword   string // THEOREM or LEMMA
	Name      string // empty when anonymous
	Statement Expr
	Proof     *Proof
}

func (u *TheoremUnit) GetSpan() position.Span { return u.Span }
func (u *TheoremUnit) String() string         { return u.Keyword }
func (u *TheoremUnit) unitNode()              {}

// SeparatorUnit is a free-standing `----` rule between units.
type SeparatorUnit struct {
	Span position.Span
}

func (u *SeparatorUnit) GetSpan() position.Span { return u.Span }
func (u *SeparatorUnit) String() string         { return "----" }
func (u *SeparatorUnit) unitNode()              {}

// ====== Expressions ======

// Ident is a name reference, including instance-prefixed references
// such as `M!Op`.
type Ident struct {
	Span position.Span
	Name string
}

func (e *Ident) GetSpan() position.Span { return e.Span }
func (e *Ident) String() string         { return e.Name }
func (e *Ident) exprNode()              {}

// Numeral is an integer literal.
type Numeral struct {
	Span    position.Span
	Literal string
}

func (e *Numeral) GetSpan() position.Span { return e.Span }
func (e *Numeral) String() string         { return e.Literal }
func (e *Numeral) exprNode()              {}

// StringLit is a string literal; Literal retains the quotes.
type StringLit struct {
	Span    position.Span
	Literal string
}

func (e *StringLit) GetSpan() position.Span { return e.Span }
func (e *StringLit) String() string         { return e.Literal }
func (e *StringLit) exprNode()              {}

// PrefixOp is a prefix operator application.
type PrefixOp struct {
	Span    position.Span
	Op      string
	Operand Expr
}

func (e *PrefixOp) GetSpan() position.Span { return e.Span }
func (e *PrefixOp) String() string         { return fmt.Sprintf("(%s %s)", e.Op, e.Operand) }
func (e *PrefixOp) exprNode()              {}

// InfixOp is an infix operator application.
type InfixOp struct {
	Span  position.Span
	Op    string
	Left  Expr
	Right Expr
}

func (e *InfixOp) GetSpan() position.Span { return e.Span }
func (e *InfixOp) String() string         { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }
func (e *InfixOp) exprNode()              {}

// PostfixOp is a postfix operator application, e.g. priming.
type PostfixOp struct {
	Span    position.Span
	Op      string
	Operand Expr
}

func (e *PostfixOp) GetSpan() position.Span { return e.Span }
func (e *PostfixOp) String() string         { return fmt.Sprintf("(%s %s)", e.Operand, e.Op) }
func (e *PostfixOp) exprNode()              {}

// Apply is a named operator application `Op(a, b)`.
type Apply struct {
	Span position.Span
	Name string
	Args []Expr
}

func (e *Apply) GetSpan() position.Span { return e.Span }
func (e *Apply) String() string         { return fmt.Sprintf("%s(...)", e.Name) }
func (e *Apply) exprNode()              {}

// FnApply is a function application `f[e1, e2]`.
type FnApply struct {
	Span   position.Span
	Target Expr
	Args   []Expr
}

func (e *FnApply) GetSpan() position.Span { return e.Span }
func (e *FnApply) String() string         { return fmt.Sprintf("%s[...]", e.Target) }
func (e *FnApply) exprNode()              {}

// JunctionItem is a single item of a junction list. BulletColumn
// records the 1-based source column of the item's leading bullet.
type JunctionItem struct {
	Span         position.Span
	BulletColumn int
	Expr         Expr
}

// JunctionList is an indentation-aligned conjunction or disjunction
// list. Op is the bullet symbol, `/\` or `\/`. A list always has at
// least one item; single-item lists are retained so the formatter can
// decide their presentation.
type JunctionList struct {
	Span  position.Span
	Op    string
	Items []JunctionItem
}

func (e *JunctionList) GetSpan() position.Span { return e.Span }
func (e *JunctionList) String() string         { return fmt.Sprintf("%s-list(%d)", e.Op, len(e.Items)) }
func (e *JunctionList) exprNode()              {}

// Quantifier is a bounded or unbounded quantified expression.
type Quantifier struct {
	Span   position.Span
	Binder string // \A, \E, \AA or \EE
	Bounds []Bound
	Body   Expr
}

func (e *Quantifier) GetSpan() position.Span { return e.Span }
func (e *Quantifier) String() string         { return fmt.Sprintf("(%s ... : ...)", e.Binder) }
func (e *Quantifier) exprNode()              {}

// Choose is a CHOOSE expression.
type Choose struct {
	Span  position.Span
	Bound Bound
	Body  Expr
}

func (e *Choose) GetSpan() position.Span { return e.Span }
func (e *Choose) String() string         { return "CHOOSE" }
func (e *Choose) exprNode()              {}

// SetKind discriminates the set constructor forms.
type SetKind int

const (
	// SetEnum is `{a, b, c}`.
	SetEnum SetKind = iota
	// SetFilter is `{x \in S : p}`.
	SetFilter
	// SetMap is `{e : x \in S}`.
	SetMap
)

// SetConstruct is one of the three set constructor forms.
type SetConstruct struct {
	Span   position.Span
	Kind   SetKind
	Elems  []Expr  // SetEnum
	Bound  Bound   // SetFilter
	Bounds []Bound // SetMap
	Expr   Expr    // SetFilter predicate / SetMap body
}

func (e *SetConstruct) GetSpan() position.Span { return e.Span }
func (e *SetConstruct) String() string         { return "{...}" }
func (e *SetConstruct) exprNode()              {}

// FuncKind discriminates the function constructor forms.
type FuncKind int

const (
	// FuncLambda is `[x \in S |-> e]`.
	FuncLambda FuncKind = iota
	// FuncSet is the function-set form `[S -> T]`.
	FuncSet
)

// FunctionConstruct is a function constructor.
type FunctionConstruct struct {
	Span   position.Span
	Kind   FuncKind
	Bounds []Bound // FuncLambda
	Body   Expr    // FuncLambda
	Domain Expr    // FuncSet
	Range  Expr    // FuncSet
}

func (e *FunctionConstruct) GetSpan() position.Span { return e.Span }
func (e *FunctionConstruct) String() string         { return "[...]" }
func (e *FunctionConstruct) exprNode()              {}

// ExceptPathElem is one element of an EXCEPT update path: a field
// access `!.name` or an index `![e1, e2]`.
type ExceptPathElem struct {
	Name  string // field access when non-empty
	Index []Expr // index access otherwise
}

// ExceptUpdate is one `!path = value` clause of an EXCEPT expression.
type ExceptUpdate struct {
	Span  position.Span
	Path  []ExceptPathElem
	Value Expr
}

// Except is a function/record update `[f EXCEPT ![k] = e]`.
type Except struct {
	Span    position.Span
	Target  Expr
	Updates []ExceptUpdate
}

func (e *Except) GetSpan() position.Span { return e.Span }
func (e *Except) String() string         { return "EXCEPT" }
func (e *Except) exprNode()              {}

// RecordKind discriminates record literals from record sets.
type RecordKind int

const (
	// RecordLit is `[f |-> e, g |-> e2]`.
	RecordLit RecordKind = iota
	// RecordSet is `[f : S, g : T]`.
	RecordSet
)

// RecordField is one field of a record constructor.
type RecordField struct {
	Name  string
	Value Expr
}

// RecordConstruct is a record literal or record set.
type RecordConstruct struct {
	Span   position.Span
	Kind   RecordKind
	Fields []RecordField
}

func (e *RecordConstruct) GetSpan() position.Span { return e.Span }
func (e *RecordConstruct) String() string         { return "[record]" }
func (e *RecordConstruct) exprNode()              {}

// TupleConstruct is a tuple `<<a, b>>`.
type TupleConstruct struct {
	Span  position.Span
	Elems []Expr
}

func (e *TupleConstruct) GetSpan() position.Span { return e.Span }
func (e *TupleConstruct) String() string         { return "<<...>>" }
func (e *TupleConstruct) exprNode()              {}

// LetIn is a LET ... IN expression. Local definitions are ordinary
// operator definitions scoped to the body.
type LetIn struct {
	Span position.Span
	Defs []*OperatorDef
	Body Expr
}

func (e *LetIn) GetSpan() position.Span { return e.Span }
func (e *LetIn) String() string         { return "LET ... IN ..." }
func (e *LetIn) exprNode()              {}

// IfThenElse is an IF/THEN/ELSE expression.
type IfThenElse struct {
	Span position.Span
	Cond Expr
	Then Expr
	Else Expr
}

func (e *IfThenElse) GetSpan() position.Span { return e.Span }
func (e *IfThenElse) String() string         { return "IF ... THEN ... ELSE ..." }
func (e *IfThenElse) exprNode()              {}

// CaseArm is one guarded arm of a CASE expression.
type CaseArm struct {
	Span  position.Span
	Guard Expr
	Value Expr
}

// CaseExpr is a CASE expression with optional OTHER arm.
type CaseExpr struct {
	Span  position.Span
	Arms  []CaseArm
	Other Expr // nil when absent
}

func (e *CaseExpr) GetSpan() position.Span { return e.Span }
func (e *CaseExpr) String() string         { return "CASE" }
func (e *CaseExpr) exprNode()              {}
