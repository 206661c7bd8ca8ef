package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes n in canonical source form: markers in literal text doubled,
// attributes sorted by name, and numbers in shortest form. Parsing the output
// yields a tree equal to n.
func Format(w io.Writer, n Node) error {
	var b strings.Builder

	formatNode(&b, n)

	_, err := io.WriteString(w, b.String())

	return err
}

// FormatString returns the canonical source form of n.
func FormatString(n Node) string {
	var b strings.Builder

	formatNode(&b, n)

	return b.String()
}

func formatNode(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Template:
		if n == nil {
			return
		}

		for _, item := range n.Items {
			formatNode(b, item)
		}

	case *Literal:
		b.WriteString(strings.ReplaceAll(n.Text, "@", "@@"))

	case *Expression:
		if n.Raw {
			b.WriteString("@((")
			formatExpression(b, n)
			b.WriteString("))")
		} else {
			b.WriteString("@(")
			formatExpression(b, n)
			b.WriteString(")")
		}

	case *Block:
		b.WriteString("@")
		b.WriteString(n.Name.Ident)
		b.WriteString("(")
		formatExpression(b, n.Expression)
		b.WriteString(")")
		formatNode(b, n.Consequent)

		if n.Alternative != nil {
			b.WriteString("@else")
			formatNode(b, n.Alternative)
		}

		b.WriteString("@end")

	case *Name:
		b.WriteString(n.Ident)

	case *Index:
		b.WriteString(strconv.Itoa(n.Pos))
	}
}

func formatExpression(b *strings.Builder, e *Expression) {
	sep := ""

	if e.Helper != nil && len(e.Path) > 0 {
		b.WriteString(e.Helper.Ident)
		sep = " "
	}

	if len(e.Path) > 0 {
		b.WriteString(sep)
		b.WriteString(e.PathString())
		sep = " "
	}

	for _, k := range e.Attributes.Keys() {
		b.WriteString(sep)
		b.WriteString(k)
		b.WriteByte('=')
		formatAttribute(b, e.Attributes[k])

		sep = " "
	}
}

func formatAttribute(b *strings.Builder, v any) {
	switch v := v.(type) {
	case string:
		b.WriteByte('"')
		b.WriteString(v)
		b.WriteByte('"')
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case *Expression:
		b.WriteString(v.PathString())
	default:
		fmt.Fprint(b, v)
	}
}

// FormatJSON writes the serialized tree of n as JSON. A positive indent
// pretty-prints with that many spaces per level.
func FormatJSON(_ context.Context, w io.Writer, n Node, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(Write(n), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(Write(n))
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the serialized tree of n as YAML. A positive indent uses
// block style with that many spaces per level; otherwise flow style.
func FormatYAML(ctx context.Context, w io.Writer, n Node, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, Write(n), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// Print writes an indented outline of n, one node per line.
func Print(w io.Writer, n Node) error {
	var b strings.Builder

	printNode(&b, n, 0)

	_, err := io.WriteString(w, b.String())

	return err
}

func printNode(b *strings.Builder, n Node, depth int) {
	put := func(depth int, item ...string) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(strings.Join(item, ": "))
		b.WriteByte('\n')
	}

	switch n := n.(type) {
	case *Template:
		if n == nil {
			put(depth, "(none)")

			return
		}

		put(depth, "Template")

		for _, item := range n.Items {
			printNode(b, item, depth+1)
		}

	case *Literal:
		put(depth, "Literal", strconv.Quote(n.Text))

	case *Expression:
		label := "Expression"
		if n.Raw {
			label = "Expression (raw)"
		}

		put(depth, label, FormatString(&Expression{
			Helper: n.Helper, Path: n.Path, Attributes: n.Attributes,
		}))

	case *Block:
		put(depth, "Block", n.Name.Ident)
		printNode(b, n.Expression, depth+1)

		if n.Consequent != nil {
			put(depth+1, "Consequent")
			printNode(b, n.Consequent, depth+2)
		}

		if n.Alternative != nil {
			put(depth+1, "Alternative")
			printNode(b, n.Alternative, depth+2)
		}

	case *Name:
		put(depth, "Name", n.Ident)

	case *Index:
		put(depth, "Index", strconv.Itoa(n.Pos))
	}
}
