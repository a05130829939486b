package format

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/domodwyer/tlafmt/internal/lexer"
	"github.com/domodwyer/tlafmt/internal/parser"
)

func formatOrDie(t *testing.T, source string) string {
	t.Helper()

	out, err := Source(source, DefaultOptions())
	if err != nil {
		t.Fatalf("Source failed: %v\ninput:\n%s", err, source)
	}
	return out
}

func TestModuleFrame(t *testing.T) {
	out := formatOrDie(t, "---- MODULE Frame ----\n====")
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}

	header := lines[0]
	if len(header) != DefaultWidth {
		t.Fatalf("header width: got %d, want %d: %q", len(header), DefaultWidth, header)
	}
	if !strings.Contains(header, " MODULE Frame ") {
		t.Fatalf("header missing module name: %q", header)
	}
	if !strings.HasPrefix(header, "----") || !strings.HasSuffix(header, "----") {
		t.Fatalf("header not dash-padded: %q", header)
	}

	if lines[1] != strings.Repeat("=", DefaultWidth) {
		t.Fatalf("terminator: %q", lines[1])
	}

	if !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\n\n") {
		t.Fatalf("output must end with exactly one newline: %q", out)
	}
}

func TestJunctionRealignment(t *testing.T) {
	// The second bullet is under-indented in the input; both end up on
	// one column.
	input := "---- MODULE T ----\nFoo == /\\ a > 0\n   /\\ b > 0\n===="

	out := formatOrDie(t, input)
	want := "Foo ==\n    /\\ a > 0\n    /\\ b > 0\n"
	if !strings.Contains(out, want) {
		t.Fatalf("junction not re-aligned:\n%s", out)
	}
}

func TestSingleLineRetained(t *testing.T) {
	input := "---- MODULE T ----\nFoo == /\\ a > 0 /\\ b > 0\n===="

	out := formatOrDie(t, input)
	if !strings.Contains(out, "Foo == /\\ a > 0 /\\ b > 0\n") {
		t.Fatalf("single-line definition rewritten:\n%s", out)
	}
}

func TestFormatIdempotent(t *testing.T) {
	sources := []string{
		"---- MODULE T ----\nFoo == /\\ a > 0\n   /\\ b > 0\n====",
		"---- MODULE T ----\nEXTENDS Naturals\nVARIABLE x\nInit == x = 0\nNext == x' = x + 1\n====",
		strings.Join([]string{
			"---- MODULE T ----",
			"\\* leading note",
			"CONSTANTS N, Op(_, _)",
			"",
			"S == {x \\in 1..N : x % 2 = 0} \\* evens",
			"R == [a |-> 1, b |-> <<1, 2>>]",
			"F[n \\in Nat] == IF n = 0 THEN 1 ELSE n * F[n - 1]",
			"Q == \\A x, y \\in S : x + y \\in S",
			"====",
		}, "\n"),
		strings.Join([]string{
			"---- MODULE T ----",
			"Pairs == [S -> T]",
			"Sign(n) == CASE n > 0 -> 1 [] n < 0 -> -1 [] OTHER -> 0",
			"Iff == a <=> b",
			"====",
		}, "\n"),
		strings.Join([]string{
			"---- MODULE T ----",
			"THEOREM Spec => []Inv",
			"<1>1. Init => Inv",
			"  BY DEF Init, Inv",
			"<1>2. Inv /\\ Next => Inv",
			"  <2>1. CASE x > 0",
			"    OBVIOUS",
			"  <2>2. QED",
			"    BY <2>1",
			"<1>3. QED",
			"  OMITTED",
			"====",
		}, "\n"),
	}

	for _, src := range sources {
		once := formatOrDie(t, src)
		twice := formatOrDie(t, once)
		if once != twice {
			t.Fatalf("not idempotent.\nfirst:\n%s\nsecond:\n%s", once, twice)
		}
	}
}

func TestWidthBound(t *testing.T) {
	input := strings.Join([]string{
		"---- MODULE T ----",
		"EXTENDS Naturals, Sequences, FiniteSets, Bags, TLC, Reals, Integers, Randomization",
		"Big == [aaaaaaaaaa |-> 1111111111, bbbbbbbbbb |-> 2222222222, cccccccccc |-> 3333333333, dddddddddd |-> 4]",
		"====",
	}, "\n")

	out := formatOrDie(t, input)
	for _, line := range strings.Split(out, "\n") {
		if len(line) > DefaultWidth {
			t.Fatalf("line exceeds %d columns: %q", DefaultWidth, line)
		}
	}
}

func TestBlankLinePreservation(t *testing.T) {
	input := "---- MODULE T ----\nA == 1\n\n\n\nB == 2\n===="

	out := formatOrDie(t, input)
	if !strings.Contains(out, "A == 1\n\nB == 2\n") {
		t.Fatalf("blank run not collapsed to one:\n%s", out)
	}
}

func TestCommentConservation(t *testing.T) {
	input := strings.Join([]string{
		"\\* file header",
		"---- MODULE T ----",
		"(* about Init",
		"   spanning lines *)",
		"Init == x = 0 \\* trailing",
		"Next ==",
		"    \\* first disjunct",
		"    /\\ x' = x + 1 \\* bump",
		"    /\\ TRUE",
		"====",
		"\\* after the end",
	}, "\n")

	out := formatOrDie(t, input)

	if gotIn, gotOut := commentTexts(t, input), commentTexts(t, out); !equalStrings(gotIn, gotOut) {
		t.Fatalf("comments not conserved.\ninput comments: %q\noutput comments: %q\noutput:\n%s",
			gotIn, gotOut, out)
	}

	// Trailing comments stay on their line.
	if !strings.Contains(out, "Init == x = 0 \\* trailing") {
		t.Fatalf("trailing comment detached:\n%s", out)
	}
}

func commentTexts(t *testing.T, source string) []string {
	t.Helper()

	_, comments, err := lexer.Tokenize(source)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	var texts []string
	for _, c := range comments {
		texts = append(texts, c.Text)
	}
	sort.Strings(texts)
	return texts
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStructureRoundTrip(t *testing.T) {
	input := strings.Join([]string{
		"---- MODULE T ----",
		"Next ==",
		"    \\/ /\\ x > 0",
		"       /\\ x' = x - 1",
		"    \\/ x' = x",
		"====",
	}, "\n")

	out := formatOrDie(t, input)

	before, _, err := parser.ParseSource(input)
	if err != nil {
		t.Fatalf("parse input: %v", err)
	}
	after, _, err := parser.ParseSource(out)
	if err != nil {
		t.Fatalf("parse output: %v\noutput:\n%s", err, out)
	}

	// The junction nesting must survive: an outer 2-item disjunction
	// whose first item is a 2-item conjunction.
	check := func(m *parser.Module, label string) {
		def := m.Units[0].(*parser.OperatorDef)
		outer := def.Body.(*parser.JunctionList)
		if outer.Op != "\\/" || len(outer.Items) != 2 {
			t.Fatalf("%s: outer list %q with %d items", label, outer.Op, len(outer.Items))
		}
		inner := outer.Items[0].Expr.(*parser.JunctionList)
		if inner.Op != "/\\" || len(inner.Items) != 2 {
			t.Fatalf("%s: inner list %q with %d items", label, inner.Op, len(inner.Items))
		}
	}
	check(before, "input")
	check(after, "output")
}

func TestCollapseSingleBullets(t *testing.T) {
	input := "---- MODULE T ----\nFoo == /\\ a > 0\n===="

	opts := DefaultOptions()
	opts.CollapseSingleBullets = true

	m, comments, err := parser.ParseSource(input)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}

	out := Format(m, comments, opts)
	if !strings.Contains(out, "Foo == a > 0\n") {
		t.Fatalf("single bullet not collapsed:\n%s", out)
	}
}

func TestParenthesesReinserted(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  string
	}{
		{"right assoc same symbol", "a + (b + c)", "Op == a + (b + c)"},
		{"tighter child unwrapped", "(a * b) + c", "Op == a * b + c"},
		{"open-ended operand", "(IF c THEN a ELSE b) + 1", "Op == (IF c THEN a ELSE b) + 1"},
		{"postfix of infix", "(a + b)'", "Op == (a + b)'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := formatOrDie(t, "---- MODULE T ----\nOp == "+tt.body+"\n====")
			if !strings.Contains(out, tt.want+"\n") {
				t.Fatalf("got:\n%s\nwant line: %q", out, tt.want)
			}
		})
	}
}

func TestSourceErrors(t *testing.T) {
	t.Run("ambiguous precedence", func(t *testing.T) {
		_, err := Source("---- MODULE T ----\nOp == a \\in b \\cup c\n====", DefaultOptions())
		if err == nil {
			t.Fatal("ambiguous input formatted, want error")
		}

		var synErr *parser.SyntaxError
		if !errors.As(err, &synErr) || synErr.Kind != parser.ErrAmbiguousPrecedence {
			t.Fatalf("got %v, want ErrAmbiguousPrecedence", err)
		}
	})

	t.Run("unterminated comment", func(t *testing.T) {
		_, err := Source("---- MODULE T ----\n(* open\n====", DefaultOptions())
		if err == nil {
			t.Fatal("unterminated comment formatted, want error")
		}

		var lexErr *lexer.LexError
		if !errors.As(err, &lexErr) || lexErr.Kind != lexer.ErrUnterminatedComment {
			t.Fatalf("got %v, want ErrUnterminatedComment", err)
		}
	})
}

func TestRenderPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		doc   Doc
		width int
		want  string
	}{
		{
			name:  "flat group",
			doc:   Group(BiasAuto, Text("{"), Text("a"), Line(), Text("b"), Text("}")),
			width: 80,
			want:  "{a b}",
		},
		{
			name:  "broken group",
			doc:   Group(BiasAuto, Text("aaaa"), Nest(2, Concat(Line(), Text("bbbb")))),
			width: 6,
			want:  "aaaa\n  bbbb",
		},
		{
			name:  "forced break ignores width",
			doc:   Group(BiasBroken, Text("a"), Line(), Text("b")),
			width: 80,
			want:  "a\nb",
		},
		{
			name:  "align pins column",
			doc:   Concat(Text("xx "), Align(Concat(Text("a"), HardLine(), Text("b")))),
			width: 80,
			want:  "xx a\n   b",
		},
		{
			name:  "break vanishes when flat",
			doc:   Group(BiasAuto, Text("("), Break(), Text("a"), Break(), Text(")")),
			width: 80,
			want:  "(a)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.doc, tt.width); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpaqueShift(t *testing.T) {
	// A block comment written at column 5 moves with its new home at
	// column 1, continuation lines shifting by the same amount.
	doc := Opaque([]string{"(* one", "       two *)"}, 5)

	got := Render(doc, 80)
	want := "(* one\n   two *)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDiff(t *testing.T) {
	t.Run("no changes", func(t *testing.T) {
		d := NewDiff("a\nb\n", "a\nb\n", DefaultDiffOptions())
		if d.HasChanges() {
			t.Fatalf("identical inputs produced hunks: %+v", d.Hunks)
		}
		if d.Unified("f.tla") != "" {
			t.Fatal("Unified output for identical inputs should be empty")
		}
	})

	t.Run("replacement", func(t *testing.T) {
		d := NewDiff("a\nb\nc\nd\ne\nf\ng\n", "a\nb\nc\nD\ne\nf\ng\n", DefaultDiffOptions())
		if !d.HasChanges() || len(d.Hunks) != 1 {
			t.Fatalf("got %d hunks, want 1", len(d.Hunks))
		}

		out := d.String()
		for _, want := range []string{"@@ -1,7 +1,7 @@", "-d", "+D", " c", " e"} {
			if !strings.Contains(out, want) {
				t.Fatalf("diff missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("append", func(t *testing.T) {
		d := NewDiff("a\n", "a\nb\n", DefaultDiffOptions())
		if !d.HasChanges() {
			t.Fatal("appended line not detected")
		}
		if !strings.Contains(d.String(), "+b") {
			t.Fatalf("diff missing addition:\n%s", d.String())
		}
	})
}
