package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/strudel/log"
)

// Names of the fallback helpers invoked when a name is not registered.
const (
	HelperMissing      = "helperMissing"
	BlockHelperMissing = "blockHelperMissing"
)

// Helper computes the output of a helper expression or block.
//
// inner is the value of the expression's search path. The result is escaped
// on output unless it is a [SafeString]. A returned error aborts the render
// and reaches the caller unchanged.
type Helper func(inner any, opts *Options) (any, error)

// Branch renders one body of a block against the given context.
type Branch func(data any) (SafeString, error)

// Options carries everything a helper receives besides its argument.
type Options struct {
	// Context is the context passed to [Program.Render].
	Context context.Context
	// This is the context value the expression appears in.
	This any
	// Hash holds the evaluated attributes, or nil when there are none. Nested
	// expressions are rendered to strings; literal strings and numbers are
	// passed as is.
	Hash map[string]any
	// Consequent renders the block body, or "" if absent or not a block.
	Consequent Branch
	// Alternative renders the @else body, or "" if absent or not a block.
	Alternative Branch
	// Logger is the program's logger.
	Logger log.Logger
	// Name is the name the helper was invoked as, which differs from the
	// registered name for the missing-helper fallbacks.
	Name string
	// Block reports whether the helper was invoked as a named block.
	Block bool
}

func emptyBranch(any) (SafeString, error) { return "", nil }

type entry struct {
	fn      Helper
	inverse Helper
}

// Registry maps helper names to functions. It is safe for concurrent use,
// though helpers are normally registered before rendering begins.
type Registry struct {
	helpers map[string]entry
	mu      sync.RWMutex
}

// DefaultRegistry returns the process-wide registry used by programs compiled
// without [WithRegistry]. It is created with the built-in helpers on first use.
var DefaultRegistry = sync.OnceValue(NewRegistry)

// NewRegistry returns a registry holding the built-in helpers.
func NewRegistry() *Registry {
	r := &Registry{helpers: make(map[string]entry)}

	r.Register("with", withHelper)
	r.Register("each", eachHelper)
	r.Register("if", ifHelper, unlessHelper)
	r.Register("unless", unlessHelper, ifHelper)
	r.Register("log", logHelper)
	r.Register("expr", exprHelper)
	r.Register(HelperMissing, helperMissing)
	r.Register(BlockHelperMissing, blockHelperMissing)

	return r
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &Registry{helpers: maps.Clone(r.helpers)}
}

// Register binds name to fn, replacing any existing helper. An optional
// inverse is the negated counterpart of fn, as unless is to if.
func (r *Registry) Register(name string, fn Helper, inverse ...Helper) {
	e := entry{fn: fn}
	if len(inverse) > 0 {
		e.inverse = inverse[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.helpers[name] = e
}

// Unregister removes the helper bound to name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.helpers, name)
}

// Lookup returns the helper bound to name.
func (r *Registry) Lookup(name string) (Helper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.helpers[name]

	return e.fn, ok
}

// Inverse returns the inverse registered with the helper bound to name.
func (r *Registry) Inverse(name string) (Helper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.helpers[name]

	return e.inverse, ok && e.inverse != nil
}

// Names returns the registered helper names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.helpers))
}

// safe adapts a branch result to a helper result.
func safe(s SafeString, err error) (any, error) {
	if err != nil {
		return nil, err
	}

	return s, nil
}

// withHelper renders the body against inner when it is truthy.
func withHelper(inner any, opts *Options) (any, error) {
	if IsTruthy(inner) {
		return safe(opts.Consequent(inner))
	}

	return safe(opts.Alternative(opts.This))
}

// eachHelper renders the body once per element of a sequence, or once per
// value of a mapping in key order. A truthy scalar is rendered once.
func eachHelper(inner any, opts *Options) (any, error) {
	if !IsTruthy(inner) {
		return safe(opts.Alternative(opts.This))
	}

	var items []any

	switch Classify(inner) {
	case KindSequence:
		items = sequence(inner)
	case KindMapping:
		m, keys := mapping(inner)
		items = make([]any, len(keys))

		for i, k := range keys {
			items[i] = m[k]
		}
	default:
		items = []any{inner}
	}

	var b strings.Builder

	for _, item := range items {
		s, err := opts.Consequent(item)
		if err != nil {
			return nil, err
		}

		b.WriteString(string(s))
	}

	return SafeString(b.String()), nil
}

// ifHelper renders the body against the enclosing context when inner is
// truthy.
func ifHelper(inner any, opts *Options) (any, error) {
	if IsTruthy(inner) {
		return safe(opts.Consequent(opts.This))
	}

	return safe(opts.Alternative(opts.This))
}

func unlessHelper(inner any, opts *Options) (any, error) {
	swapped := *opts
	swapped.Consequent, swapped.Alternative = opts.Alternative, opts.Consequent

	return ifHelper(inner, &swapped)
}

// logHelper writes inner and the attributes to the program's logger and
// renders nothing.
func logHelper(inner any, opts *Options) (any, error) {
	attrs := make([]slog.Attr, 0, len(opts.Hash)+1)
	attrs = append(attrs, slog.Any("value", inner))

	for _, k := range sortedKeys(opts.Hash) {
		attrs = append(attrs, slog.Any(k, opts.Hash[k]))
	}

	opts.Logger.InfoContext(opts.Context, "template log", attrs...)

	return nil, nil
}

// helperMissing fails a plain expression naming an unknown helper. Blocks and
// expressions with attributes render nothing instead.
func helperMissing(_ any, opts *Options) (any, error) {
	if opts.Block || len(opts.Hash) > 0 {
		return nil, nil
	}

	return nil, ErrHelperMissing.
		reword("Could not find property '" + opts.Name + "'").
		With(slog.String("helper", opts.Name))
}

func blockHelperMissing(any, *Options) (any, error) { return nil, nil }
