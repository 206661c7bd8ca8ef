package lang

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"
)

// programs caches compiled expr-lang programs by source hash.
var programs sync.Map // uint64 -> *vm.Program

// compileExpr returns the compiled program for code, compiling it on first
// use. Variables are resolved at run time, so a program is independent of the
// data it first ran against.
func compileExpr(code string) (*vm.Program, error) {
	key := xxh3.HashString(code)

	if p, ok := programs.Load(key); ok {
		if program, ok := p.(*vm.Program); ok {
			return program, nil
		}
	}

	program, err := expr.Compile(code, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("source", code))
	}

	p, _ := programs.LoadOrStore(key, program)
	program, _ = p.(*vm.Program)

	return program, nil
}

// exprHelper evaluates the expr-lang source in the code attribute.
//
// The environment holds the entries of inner when it is a mapping, inner
// itself as this, the enclosing context as ctx, and every other attribute.
//
//	@(expr cart code="sum(map(items, .price)) * (1 + tax)" tax=0.08)
func exprHelper(inner any, opts *Options) (any, error) {
	code := Stringify(opts.Hash["code"])
	if code == "" {
		return nil, nil
	}

	program, err := compileExpr(code)
	if err != nil {
		return nil, err
	}

	env := make(map[string]any, len(opts.Hash)+2)

	if Classify(inner) == KindMapping {
		m, _ := mapping(inner)
		maps.Copy(env, m)
	}

	env["this"] = inner
	env["ctx"] = opts.This

	for k, v := range opts.Hash {
		if k != "code" {
			env[k] = v
		}
	}

	result, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).
			With(slog.String("source", code))
	}

	opts.Logger.TraceContext(opts.Context, "expr evaluated",
		slog.String("source", code),
		slog.String("result_type", resultTypeName(result)))

	return result, nil
}
