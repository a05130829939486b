package lexer

import (
	"errors"
	"strings"
	"testing"
)

func TestTokenizeBasics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "module header",
			input: "---- MODULE Test ----\n====",
			want: []TokenType{
				TokenSeparator, TokenModule, TokenIdent, TokenSeparator,
				TokenModuleEnd, TokenEOF,
			},
		},
		{
			name:  "definition",
			input: "Init == x = 0",
			want: []TokenType{
				TokenIdent, TokenDefEq, TokenIdent, TokenOp, TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "junction bullets",
			input: "/\\ a\n\\/ b",
			want: []TokenType{
				TokenAnd, TokenIdent, TokenOr, TokenIdent, TokenEOF,
			},
		},
		{
			name:  "quantifiers",
			input: "\\A x \\in S : \\E y : TRUE",
			want: []TokenType{
				TokenForall, TokenIdent, TokenOp, TokenIdent, TokenColon,
				TokenExists, TokenIdent, TokenColon, TokenIdent, TokenEOF,
			},
		},
		{
			name:  "tuple and mapsto",
			input: "<<a, b>> |-> c",
			want: []TokenType{
				TokenLAngle, TokenIdent, TokenComma, TokenIdent, TokenRAngle,
				TokenMapsTo, TokenIdent, TokenEOF,
			},
		},
		{
			name:  "proof step",
			input: "<1>a. QED",
			want:  []TokenType{TokenProofStepID, TokenQED, TokenEOF},
		},
		{
			name:  "prefix keyword operators",
			input: "UNCHANGED vars",
			want:  []TokenType{TokenOp, TokenIdent, TokenEOF},
		},
		{
			name:  "anonymous arity placeholders",
			input: "CONSTANTS N, Op(_, _)",
			want: []TokenType{
				TokenConstants, TokenIdent, TokenComma, TokenIdent,
				TokenLParen, TokenUnderscore, TokenComma, TokenUnderscore,
				TokenRParen, TokenEOF,
			},
		},
		{
			name:  "underscore-led identifier",
			input: "_tmp == _x1",
			want:  []TokenType{TokenIdent, TokenDefEq, TokenIdent, TokenEOF},
		},
		{
			name:  "string literal",
			input: "s = \"hello\"",
			want:  []TokenType{TokenIdent, TokenOp, TokenString, TokenEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) returned error: %v", tt.input, err)
			}

			var got []TokenType
			for _, tok := range tokens {
				got = append(got, tok.Type)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeOperatorLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a \\in b", "\\in"},
		{"a \\cup b", "\\cup"},
		{"a => b", "=>"},
		{"a <=> b", "<=>"},
		{"[S -> T]", "->"},
		{"x -> y", "->"},
		{"a /= b", "/="},
		{"a # b", "#"},
		{"a .. b", ".."},
		{"a \\o b", "\\o"},
		{"[] p", "[]"},
		{"a @@ b", "@@"},
		{"f ^+ ", "^+"},
		{"-+-> x", "-+->"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			tokens, _, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) returned error: %v", tt.input, err)
			}

			var found bool
			for _, tok := range tokens {
				if tok.Type == TokenOp && tok.Literal == tt.want {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("Tokenize(%q): operator %q not in %v", tt.input, tt.want, tokens)
			}
		})
	}
}

func TestTokenizeComments(t *testing.T) {
	input := "x == 1 \\* trailing note\n(* block (* nested *) still block *)\ny == 2"

	tokens, comments, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}

	// Comments never appear in the token stream.
	for _, tok := range tokens {
		if strings.Contains(tok.Literal, "*") && tok.Type != TokenOp {
			t.Fatalf("comment text leaked into token stream: %v", tok)
		}
	}

	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2: %v", len(comments), comments)
	}
	if comments[0].Kind != CommentLine || comments[0].Text != "\\* trailing note" {
		t.Fatalf("line comment: got %+v", comments[0])
	}
	if comments[1].Kind != CommentBlock {
		t.Fatalf("block comment: got %+v", comments[1])
	}
	if !strings.Contains(comments[1].Text, "(* nested *)") {
		t.Fatalf("nested block comment not preserved: %q", comments[1].Text)
	}
	if comments[1].Span.Start.Line != 2 {
		t.Fatalf("block comment line: got %d, want 2", comments[1].Span.Start.Line)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens, _, err := Tokenize("ab ==\n  /\\ x")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}

	// ab at 1:1, == at 1:4, /\ at 2:3, x at 2:6.
	wantCols := []struct {
		line, col int
	}{{1, 1}, {1, 4}, {2, 3}, {2, 6}}

	for i, want := range wantCols {
		got := tokens[i].Span.Start
		if got.Line != want.line || got.Column != want.col {
			t.Fatalf("token %d (%s): at %d:%d, want %d:%d",
				i, tokens[i].Literal, got.Line, got.Column, want.line, want.col)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  LexErrorKind
	}{
		{"unterminated string", `x == "abc`, ErrUnterminatedString},
		{"string with newline", "x == \"abc\ndef\"", ErrUnterminatedString},
		{"unterminated block comment", "(* no end", ErrUnterminatedComment},
		{"unterminated nested comment", "(* outer (* inner *)", ErrUnterminatedComment},
		{"stray control byte", "x == \x01", ErrInvalidCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Tokenize(tt.input)
			if err == nil {
				t.Fatalf("Tokenize(%q) succeeded, want %v", tt.input, tt.kind)
			}

			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("Tokenize(%q) returned %T, want *LexError", tt.input, err)
			}
			if lexErr.Kind != tt.kind {
				t.Fatalf("got kind %v, want %v", lexErr.Kind, tt.kind)
			}
			if !lexErr.Pos.IsValid() {
				t.Fatalf("error carries invalid position: %+v", lexErr)
			}
		})
	}
}
