package lang

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func name(s string) *Name { return &Name{Ident: s} }

func path(cs ...Component) []Component { return cs }

func TestParse_Trees(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Template
	}{
		{
			name:  "empty",
			input: "",
			want:  &Template{},
		},
		{
			name:  "literal only",
			input: "Hello, World!\n",
			want:  &Template{Items: []Node{&Literal{Text: "Hello, World!\n"}}},
		},
		{
			name:  "escaped marker",
			input: "user@@example.com",
			want: &Template{Items: []Node{
				&Literal{Text: "user"},
				&Literal{Text: "@"},
				&Literal{Text: "example.com"},
			}},
		},
		{
			name:  "simple path",
			input: "@(title)",
			want: &Template{Items: []Node{
				&Expression{Path: path(name("title"))},
			}},
		},
		{
			name:  "dotted and indexed path",
			input: "@(a.b[0].c[12])",
			want: &Template{Items: []Node{
				&Expression{Path: path(
					name("a"), name("b"), &Index{Pos: 0}, name("c"), &Index{Pos: 12},
				)},
			}},
		},
		{
			name:  "identifier characters",
			input: "@(a_1.B2_)",
			want: &Template{Items: []Node{
				&Expression{Path: path(name("a_1"), name("B2_"))},
			}},
		},
		{
			name:  "raw output",
			input: "<div>@((body))</div>",
			want: &Template{Items: []Node{
				&Literal{Text: "<div>"},
				&Expression{Path: path(name("body")), Raw: true},
				&Literal{Text: "</div>"},
			}},
		},
		{
			name:  "helper expression",
			input: "@(each people)",
			want: &Template{Items: []Node{
				&Expression{Helper: name("each"), Path: path(name("people"))},
			}},
		},
		{
			name:  "helper with attributes",
			input: `@(link url title="Home page" n=-1.5e2 ref=page.id)`,
			want: &Template{Items: []Node{
				&Expression{
					Helper: name("link"),
					Path:   path(name("url")),
					Attributes: Attributes{
						"title": "Home page",
						"n":     -150.0,
						"ref":   &Expression{Path: path(name("page"), name("id"))},
					},
				},
			}},
		},
		{
			name:  "attributes only",
			input: "@(a = 1 b= +2.25)",
			want: &Template{Items: []Node{
				&Expression{Attributes: Attributes{"a": 1.0, "b": 2.25}},
			}},
		},
		{
			name:  "empty quoted attribute",
			input: `@(s="")`,
			want: &Template{Items: []Node{
				&Expression{Attributes: Attributes{"s": ""}},
			}},
		},
		{
			name:  "block",
			input: "@if(ok)yes@end",
			want: &Template{Items: []Node{
				&Block{
					Name:       name("if"),
					Expression: &Expression{Path: path(name("ok"))},
					Consequent: &Template{Items: []Node{&Literal{Text: "yes"}}},
				},
			}},
		},
		{
			name:  "block with else",
			input: "@if(ok)yes@else no@end",
			want: &Template{Items: []Node{
				&Block{
					Name:        name("if"),
					Expression:  &Expression{Path: path(name("ok"))},
					Consequent:  &Template{Items: []Node{&Literal{Text: "yes"}}},
					Alternative: &Template{Items: []Node{&Literal{Text: " no"}}},
				},
			}},
		},
		{
			name:  "empty block body",
			input: "@if(ok)@end",
			want: &Template{Items: []Node{
				&Block{
					Name:       name("if"),
					Expression: &Expression{Path: path(name("ok"))},
					Consequent: &Template{},
				},
			}},
		},
		{
			name:  "nested blocks",
			input: "@each(items)@if(ok)[@(name)]@end@end",
			want: &Template{Items: []Node{
				&Block{
					Name:       name("each"),
					Expression: &Expression{Path: path(name("items"))},
					Consequent: &Template{Items: []Node{
						&Block{
							Name:       name("if"),
							Expression: &Expression{Path: path(name("ok"))},
							Consequent: &Template{Items: []Node{
								&Literal{Text: "["},
								&Expression{Path: path(name("name"))},
								&Literal{Text: "]"},
							}},
						},
					}},
				},
			}},
		},
		{
			name:  "block expression with helper",
			input: "@with(lookup users id=7)@(name)@end",
			want: &Template{Items: []Node{
				&Block{
					Name: name("with"),
					Expression: &Expression{
						Helper:     name("lookup"),
						Path:       path(name("users")),
						Attributes: Attributes{"id": 7.0},
					},
					Consequent: &Template{Items: []Node{
						&Expression{Path: path(name("name"))},
					}},
				},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tree mismatch\n got: %s\nwant: %s",
					FormatString(got), FormatString(tt.want))
			}
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		offset  int
		line    int
		column  int
	}{
		{
			name:    "non-numeric index",
			input:   "@(foo[bar])",
			message: `Expected [0-9] but "b" found.`,
			offset:  6,
			line:    1,
			column:  7,
		},
		{
			name:  "unterminated block",
			input: "@if(x)abc",
			message: `Expected "@", "@(", "@((", "@@", "@else", "@end" or ` +
				`<any character other than "@"> but end of input found.`,
			offset: 9,
			line:   1,
			column: 10,
		},
		{
			name:    "unclosed expression",
			input:   "@(",
			message: `Expected [a-zA-Z] but end of input found.`,
			offset:  2,
			line:    1,
			column:  3,
		},
		{
			name:    "bare marker name",
			input:   "a@b",
			message: `Expected "(" or [a-zA-Z0-9_] but end of input found.`,
			offset:  3,
			line:    1,
			column:  4,
		},
		{
			name:    "stray end",
			input:   "abc@end",
			message: `Expected "(" or [a-zA-Z0-9_] but end of input found.`,
			offset:  7,
			line:    1,
			column:  8,
		},
		{
			name:    "unclosed path on second line",
			input:   "line1\n@(x",
			message: `Expected " ", ")", ".", "=", "[" or [a-zA-Z0-9_] but end of input found.`,
			offset:  9,
			line:    2,
			column:  4,
		},
		{
			name:    "lone marker",
			input:   "@",
			message: `Expected [a-zA-Z] but end of input found.`,
			offset:  1,
			line:    1,
			column:  2,
		},
		{
			// The helper group matches "x " and is never retried without it.
			name:    "attributes after bare path",
			input:   "@(x k=1)",
			message: `Expected " ", ")", ".", "[" or [a-zA-Z0-9_] but "=" found.`,
			offset:  5,
			line:    1,
			column:  6,
		},
		{
			name:    "infinite attribute number",
			input:   "@(h x a=1e400)",
			message: `Expected <finite number> but "1" found.`,
			offset:  8,
			line:    1,
			column:  9,
		},
		{
			name:    "infinite negative number",
			input:   "ok @(n=-1e309) more",
			message: `Expected <finite number> but "-" found.`,
			offset:  7,
			line:    1,
			column:  8,
		},
		{
			name:    "crlf line counting",
			input:   "a\r\nb\r\n@(1)",
			message: `Expected [a-zA-Z] but "1" found.`,
			offset:  8,
			line:    3,
			column:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(t.Context(), tt.input)
			if err == nil {
				t.Fatal("expected syntax error")
			}

			if !errors.Is(err, ErrSyntax) {
				t.Errorf("errors.Is(err, ErrSyntax) = false for %T", err)
			}

			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}

			if se.Error() != tt.message {
				t.Errorf("message\n got: %s\nwant: %s", se.Error(), tt.message)
			}

			if se.Offset != tt.offset || se.Line != tt.line || se.Column != tt.column {
				t.Errorf("position = %d (%d:%d), want %d (%d:%d)",
					se.Offset, se.Line, se.Column, tt.offset, tt.line, tt.column)
			}
		})
	}
}

func TestSyntaxError_Snippet(t *testing.T) {
	_, err := Compile(t.Context(), "ok\n@(foo[bar])\n")

	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}

	snippet := se.Snippet()

	if !strings.HasPrefix(snippet, "syntax error at line 2, column 7:\n") {
		t.Errorf("unexpected header: %q", snippet)
	}

	want := "  2 | @(foo[bar])\n" + strings.Repeat(" ", 1+5+6) + "^\n"
	if !strings.HasSuffix(snippet, want) {
		t.Errorf("snippet\n got: %q\nwant suffix: %q", snippet, want)
	}
}

func TestParse_LiteralOnlyIsIdentity(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"multi\nline\r\ntext",
		"<p>markup & entities &amp; stay</p>",
		"unicode: héllo wörld ✓",
	}

	for _, input := range inputs {
		p, err := Compile(t.Context(), input)
		if err != nil {
			t.Fatalf("compile %q: %v", input, err)
		}

		got, err := p.Render(t.Context(), nil)
		if err != nil {
			t.Fatalf("render %q: %v", input, err)
		}

		if got != input {
			t.Errorf("render(%q) = %q", input, got)
		}
	}
}

func TestParse_NumberForms(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"0", 0},
		{"42", 42},
		{"-7", -7},
		{"+3", 3},
		{"3.25", 3.25},
		{"1e3", 1000},
		{"2.5E-2", 0.025},
		{"-1.5e+2", -150},
		{"1e-400", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tmpl, err := Parse(t.Context(), "@(n="+tt.input+")")
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			e, ok := tmpl.Items[0].(*Expression)
			if !ok {
				t.Fatalf("expected *Expression, got %T", tmpl.Items[0])
			}

			if got := e.Attributes["n"]; got != tt.want {
				t.Errorf("n = %v, want %v", got, tt.want)
			}
		})
	}
}
