package lang

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/strudel/log"
)

// renderer walks a tree against data. It holds no per-node state, so one
// renderer serves a whole render call, including nested branch renders.
type renderer struct {
	ctx      context.Context
	registry *Registry
	logger   log.Logger
}

// render returns the rendered form of n against data.
func (r *renderer) render(n Node, data any) (SafeString, error) {
	switch n := n.(type) {
	case *Template:
		return r.template(n, data)
	case *Literal:
		return SafeString(n.Text), nil
	case *Expression:
		return r.expression(n, data)
	case *Block:
		return r.block(n, data)
	case *Name, *Index:
		return "", ErrInvalidNode.With(slog.String("kind", n.Kind().String()))
	default:
		return "", ErrInvalidNode
	}
}

func (r *renderer) template(t *Template, data any) (SafeString, error) {
	if t == nil {
		return "", nil
	}

	var b strings.Builder

	for _, item := range t.Items {
		s, err := r.render(item, data)
		if err != nil {
			return "", err
		}

		b.WriteString(string(s))
	}

	return SafeString(b.String()), nil
}

func (r *renderer) expression(e *Expression, data any) (SafeString, error) {
	v, err := r.evaluate(e, data)
	if err != nil {
		return "", err
	}

	if e.Raw {
		if s, ok := v.(SafeString); ok {
			return s, nil
		}

		return SafeString(text(v)), nil
	}

	return Escape(v), nil
}

// evaluate returns the raw value of e: the value at its path, or the result
// of its helper applied to that value.
func (r *renderer) evaluate(e *Expression, data any) (any, error) {
	inner, err := valueAtPath(e.Path, data)
	if err != nil {
		return nil, err
	}

	if e.Helper == nil {
		return inner, nil
	}

	hash, err := r.hash(e.Attributes, data)
	if err != nil {
		return nil, err
	}

	opts := r.options(e.Helper.Ident, data, hash)

	return r.invoke(e.Helper.Ident, HelperMissing, inner, opts)
}

// block invokes the block's helper with the value at the argument's path and
// the argument's attributes. A helper name written in the argument is not
// called.
func (r *renderer) block(b *Block, data any) (SafeString, error) {
	inner, err := valueAtPath(b.Expression.Path, data)
	if err != nil {
		return "", err
	}

	hash, err := r.hash(b.Expression.Attributes, data)
	if err != nil {
		return "", err
	}

	opts := r.options(b.Name.Ident, data, hash)
	opts.Block = true
	opts.Consequent = r.branch(b.Consequent)
	opts.Alternative = r.branch(b.Alternative)

	out, err := r.invoke(b.Name.Ident, BlockHelperMissing, inner, opts)
	if err != nil {
		return "", err
	}

	return Escape(out), nil
}

func (r *renderer) options(name string, data any, hash map[string]any) *Options {
	return &Options{
		Context:     r.ctx,
		This:        data,
		Hash:        hash,
		Consequent:  emptyBranch,
		Alternative: emptyBranch,
		Logger:      r.logger,
		Name:        name,
	}
}

// branch returns a callback rendering t, or rendering nothing if t is nil.
func (r *renderer) branch(t *Template) Branch {
	if t == nil {
		return emptyBranch
	}

	return func(data any) (SafeString, error) { return r.template(t, data) }
}

// invoke calls the helper bound to name, or the fallback if there is none.
func (r *renderer) invoke(name, fallback string, inner any, opts *Options) (any, error) {
	fn, ok := r.registry.Lookup(name)
	if !ok {
		r.logger.TraceContext(r.ctx, "helper not registered",
			slog.String("helper", name),
			slog.String("fallback", fallback))

		if fn, ok = r.registry.Lookup(fallback); !ok {
			return nil, nil
		}
	}

	return fn(inner, opts)
}

// hash evaluates attributes. Nested expressions are rendered against data;
// strings and numbers pass through.
func (r *renderer) hash(attrs Attributes, data any) (map[string]any, error) {
	if len(attrs) == 0 {
		return nil, nil
	}

	hash := make(map[string]any, len(attrs))

	for k, v := range attrs {
		if e, ok := v.(*Expression); ok {
			s, err := r.expression(e, data)
			if err != nil {
				return nil, err
			}

			hash[k] = string(s)

			continue
		}

		hash[k] = v
	}

	return hash, nil
}

// valueAtPath resolves path against data. A name descends into a mapping and
// an index into a sequence; an absent key or index yields nil. Any other
// combination is an *EvaluationError.
func valueAtPath(path []Component, data any) (any, error) {
	v := data

	for i, c := range path {
		switch c := c.(type) {
		case *Name:
			if Classify(v) != KindMapping {
				return nil, traversalError(path, i, v)
			}

			v = lookupKey(v, c.Ident)

		case *Index:
			if Classify(v) != KindSequence {
				return nil, traversalError(path, i, v)
			}

			v = lookupIndex(v, c.Pos)

		default:
			return nil, traversalError(path, i, v)
		}
	}

	return v, nil
}

func traversalError(path []Component, i int, v any) *EvaluationError {
	e := &EvaluationError{Path: pathString(path), Value: v}
	if c, ok := path[i].(interface{ String() string }); ok {
		e.Component = c.String()
	}

	return e
}
