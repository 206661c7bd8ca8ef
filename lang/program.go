package lang

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"

	"github.com/ardnew/strudel/log"
)

// Program is a compiled template, ready to render against any number of data
// contexts. A Program is immutable and safe for concurrent use.
type Program struct {
	root     Node
	registry *Registry
	logger   log.Logger
}

// Option configures a [Program].
type Option func(*Program)

// WithRegistry sets the helpers available to the program. Programs use
// [DefaultRegistry] otherwise.
func WithRegistry(r *Registry) Option {
	return func(p *Program) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithLogger sets the logger used while parsing and rendering, and passed to
// helpers. The zero [log.Logger] discards everything.
func WithLogger(l log.Logger) Option {
	return func(p *Program) { p.logger = l }
}

func newProgram(root Node, opts ...Option) *Program {
	p := &Program{root: root}

	for _, opt := range opts {
		opt(p)
	}

	if p.registry == nil {
		p.registry = DefaultRegistry()
	}

	return p
}

// Parse parses source into its syntax tree. Only [WithLogger] affects
// parsing.
func Parse(ctx context.Context, source string, opts ...Option) (*Template, error) {
	p := newProgram(nil, opts...)

	return parse(ctx, source, p.logger)
}

// Compile parses source into a program. A malformed source returns a
// *[SyntaxError].
func Compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	p := newProgram(nil, opts...)

	t, err := parse(ctx, source, p.logger)
	if err != nil {
		return nil, err
	}

	p.root = t

	return p, nil
}

// CompileReader reads all of r and compiles it.
func CompileReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return Compile(ctx, string(data), opts...)
}

// Load reconstructs a program from a serialized tree as produced by
// [Program.Write].
//
// A tree that is not a valid renderable node, such as nil or a corrupted
// record, yields a program that renders nothing. Use [LoadNode] to detect
// that case.
func Load(ctx context.Context, tree any, opts ...Option) *Program {
	p := newProgram(nil, opts...)

	n, err := LoadNode(tree)
	if err == nil && !renderable(n) {
		err = ErrInvalidTree.With(slog.String("type", n.Kind().String()))
	}

	if err != nil {
		p.logger.WarnContext(ctx, "load failed, using empty template",
			slog.Any("error", err))

		n = &Literal{}
	}

	p.root = n

	return p
}

func renderable(n Node) bool {
	switch n.(type) {
	case *Template, *Literal, *Expression, *Block:
		return true
	default:
		return false
	}
}

// Root returns the program's syntax tree.
func (p *Program) Root() Node { return p.root }

// Registry returns the helpers the program renders with.
func (p *Program) Registry() *Registry { return p.registry }

// Render evaluates the program against data.
//
// A search path applied to a value of the wrong kind returns an
// *[EvaluationError]. Errors returned by helpers are returned unchanged.
func (p *Program) Render(ctx context.Context, data any) (string, error) {
	r := &renderer{ctx: ctx, registry: p.registry, logger: p.logger}
	if r.registry == nil {
		r.registry = DefaultRegistry()
	}

	out, err := r.render(p.root, data)
	if err != nil {
		p.logger.DebugContext(ctx, "render failed", slog.Any("error", err))

		return "", err
	}

	p.logger.TraceContext(ctx, "render complete",
		slog.Int("output_bytes", len(out)))

	return string(out), nil
}

// RenderTo evaluates the program against data and writes the output to w.
// Nothing is written if rendering fails.
func (p *Program) RenderTo(ctx context.Context, w io.Writer, data any) error {
	out, err := p.Render(ctx, data)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, out)

	return err
}

// Write returns the serialized tree of the program.
func (p *Program) Write() map[string]any { return Write(p.root) }

// MarshalJSON encodes the serialized tree.
func (p *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Write())
}

// UnmarshalJSON decodes a serialized tree. Unlike [Load], a malformed tree is
// an error.
func (p *Program) UnmarshalJSON(b []byte) error {
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return ErrInvalidTree.Wrap(err)
	}

	n, err := LoadNode(tree)
	if err != nil {
		return err
	}

	if !renderable(n) {
		return ErrInvalidTree.With(slog.String("type", n.Kind().String()))
	}

	p.root = n

	if p.registry == nil {
		p.registry = DefaultRegistry()
	}

	return nil
}
