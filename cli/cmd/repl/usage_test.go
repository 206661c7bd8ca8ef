package repl

import (
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/strudel/lang"
)

func TestHelperUsage(t *testing.T) {
	registry := lang.NewRegistry()
	registry.Register("shout", func(inner any, _ *lang.Options) (any, error) {
		return strings.ToUpper(lang.Stringify(inner)), nil
	})

	tests := []struct {
		name     string
		wantForm string
		wantOK   bool
	}{
		{"each", "@each(path)…@else…@end", true},
		{"expr", `@(expr path code="…")`, true},
		{"shout", "@(shout path key=value…)", true},
		{lang.HelperMissing, "", false},
		{lang.BlockHelperMissing, "", false},
		{"nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := helperUsage(registry, tt.name)
			if ok != tt.wantOK || u.form != tt.wantForm {
				t.Errorf("helperUsage(%q) = %q, %v; want %q, %v",
					tt.name, u.form, ok, tt.wantForm, tt.wantOK)
			}
		})
	}
}

func TestCallableHelpers(t *testing.T) {
	names := callableHelpers(lang.NewRegistry())

	for _, hidden := range hiddenHelpers {
		if slices.Contains(names, hidden) {
			t.Errorf("callableHelpers includes %q", hidden)
		}
	}

	for name := range builtinUsage {
		if !slices.Contains(names, name) {
			t.Errorf("built-in %q is not registered", name)
		}
	}
}

func TestRenderUsageHint(t *testing.T) {
	u := builtinUsage["expr"]

	for arg := range 2 {
		got := renderUsageHint("expr", u, arg)

		for _, part := range []string{"expr", "path", `code="…"`, u.desc} {
			if !strings.Contains(got, part) {
				t.Errorf("arg %d: hint %q lacks %q", arg, got, part)
			}
		}
	}

	if got := renderUsageHint("other", u, 0); !strings.Contains(got, u.form) {
		t.Errorf("unmatched name: hint %q lacks form", got)
	}
}
