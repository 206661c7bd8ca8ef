package lang

import (
	"strconv"
	"strings"
)

// NodeKind identifies the variant of a [Node]. Its string form is the "type"
// tag of the serialized tree.
type NodeKind int

const (
	NodeTemplate   NodeKind = iota // template
	NodeLiteral                    // literal
	NodeExpression                 // expression
	NodeBlock                      // block
	NodeName                       // name
	NodeIndex                      // index
)

// Node is a syntax tree node. The set of implementations is closed: *Template,
// *Literal, *Expression, *Block, *Name and *Index.
type Node interface {
	Kind() NodeKind
	node()
}

// Component is one step of a search path: a *Name or an *Index.
type Component interface {
	Node
	component()
}

// Template is an ordered sequence of literals, expressions and blocks.
type Template struct {
	Items []Node
}

// Literal is a run of text emitted verbatim.
type Literal struct {
	Text string
}

// Name is an identifier, used as a mapping key or a helper name.
type Name struct {
	Ident string
}

// Index is a non-negative sequence position.
type Index struct {
	Pos int
}

// Attributes maps keyword names to values: a string, a float64, or an
// *Expression evaluated at render time.
type Attributes map[string]any

// Expression resolves a search path against the context, optionally passing
// the result to a helper along with its attributes.
//
// Path is empty only for the attributes-only form, e.g. @(a=1), which
// resolves to the context itself.
type Expression struct {
	Helper     *Name
	Attributes Attributes
	Path       []Component
	Raw        bool // emitted without escaping
}

// Block invokes the helper Name with the value of Expression and the
// Consequent and Alternative bodies. Either body may be nil.
type Block struct {
	Name        *Name
	Expression  *Expression
	Consequent  *Template
	Alternative *Template
}

func (*Template) Kind() NodeKind   { return NodeTemplate }
func (*Literal) Kind() NodeKind    { return NodeLiteral }
func (*Expression) Kind() NodeKind { return NodeExpression }
func (*Block) Kind() NodeKind      { return NodeBlock }
func (*Name) Kind() NodeKind       { return NodeName }
func (*Index) Kind() NodeKind      { return NodeIndex }

func (*Template) node()   {}
func (*Literal) node()    {}
func (*Expression) node() {}
func (*Block) node()      {}
func (*Name) node()       {}
func (*Index) node()      {}

func (*Name) component()  {}
func (*Index) component() {}

// String returns the identifier.
func (n *Name) String() string { return n.Ident }

// String returns the position in decimal.
func (i *Index) String() string { return strconv.Itoa(i.Pos) }

// PathString formats the search path as written in source, e.g. a.b[0].c.
func (e *Expression) PathString() string {
	return pathString(e.Path)
}

func pathString(path []Component) string {
	var b strings.Builder

	for i, c := range path {
		switch c := c.(type) {
		case *Name:
			if i > 0 {
				b.WriteByte('.')
			}

			b.WriteString(c.Ident)
		case *Index:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(c.Pos))
			b.WriteByte(']')
		}
	}

	return b.String()
}

// HelperName returns the helper identifier, or "" if there is none.
func (e *Expression) HelperName() string {
	if e.Helper == nil {
		return ""
	}

	return e.Helper.Ident
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string { return sortedKeys(a) }
