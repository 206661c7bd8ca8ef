package lang

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/goccy/go-yaml"
)

var roundTripSources = []string{
	"",
	"plain text",
	"a@@b",
	"@(a.b[0].c)",
	"@((raw))",
	"@(each people)",
	`@(link url title="Home" n=-1.5 ref=page.id)`,
	"@(a=1 b=\"two\")",
	"@if(x)shown@end",
	"@if(x)@end",
	"@if(x)shown@else hidden@end",
	"@each(rows)(@each(cells)@((v))@end)@else none@end",
	`@with(lookup users id=7 name="x")@(name)@end`,
	"<p>@(evil)</p>\n@unless(ok)@@@end",
	"@(a.b[99999999999999999999])@(people[9223372036854775807])",
	"@(h x big=1e308 tiny=-1e-400)",
}

func TestWrite_Shape(t *testing.T) {
	tmpl, err := Parse(t.Context(), `@(each people)@if(a=1)x@end`)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"type": "template",
		"expressionList": []any{
			map[string]any{
				"type":       "expression",
				"searchPath": []any{map[string]any{"type": "name", "name": "people"}},
				"helper":     map[string]any{"type": "name", "name": "each"},
			},
			map[string]any{
				"type": "block",
				"name": map[string]any{"type": "name", "name": "if"},
				"expression": map[string]any{
					"type":       "expression",
					"searchPath": []any{},
					"attributes": map[string]any{"a": 1.0},
				},
				"consequent": map[string]any{
					"type": "template",
					"expressionList": []any{
						map[string]any{"type": "literal", "string": "x"},
					},
				},
			},
		},
	}

	if got := Write(tmpl); !reflect.DeepEqual(got, want) {
		t.Errorf("Write mismatch\n got: %#v\nwant: %#v", got, want)
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	data := decode(t, `{
		"x": true, "a": {"b": [{"c": "<c>"}]}, "raw": "<r>", "people": [1],
		"url": "/u", "page": {"id": 3}, "rows": [{"cells": [{"v": "&"}]}],
		"users": {"name": "n"}, "evil": "'", "ok": false
	}`)

	codecs := map[string]func(map[string]any) (any, error){
		"direct": func(m map[string]any) (any, error) { return m, nil },
		"json": func(m map[string]any) (any, error) {
			b, err := json.Marshal(m)
			if err != nil {
				return nil, err
			}

			var v any

			return v, json.Unmarshal(b, &v)
		},
		"yaml": func(m map[string]any) (any, error) {
			b, err := yaml.Marshal(m)
			if err != nil {
				return nil, err
			}

			var v any

			return v, yaml.Unmarshal(b, &v)
		},
	}

	for codec, transcode := range codecs {
		for _, source := range roundTripSources {
			t.Run(codec+"/"+source, func(t *testing.T) {
				tmpl, err := Parse(t.Context(), source)
				if err != nil {
					t.Fatal(err)
				}

				tree, err := transcode(Write(tmpl))
				if err != nil {
					t.Fatal(err)
				}

				loaded, err := LoadNode(tree)
				if err != nil {
					t.Fatalf("LoadNode: %v", err)
				}

				if !reflect.DeepEqual(loaded, Node(tmpl)) {
					t.Fatalf("structure differs\n got: %s\nwant: %s",
						FormatString(loaded), FormatString(tmpl))
				}

				reg := NewRegistry()
				reg.Register("link", blockHelperMissing)
				reg.Register("lookup", func(inner any, _ *Options) (any, error) { return inner, nil })

				want, werr := newProgram(tmpl, WithRegistry(reg)).Render(t.Context(), data)
				got, gerr := newProgram(loaded, WithRegistry(reg)).Render(t.Context(), data)

				if (werr == nil) != (gerr == nil) || got != want {
					t.Errorf("render differs: %q (%v) vs %q (%v)", got, gerr, want, werr)
				}
			})
		}
	}
}

func TestLoadNode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		tree any
	}{
		{"nil", nil},
		{"string", "template"},
		{"number", 3},
		{"sequence", []any{}},
		{"missing type", map[string]any{}},
		{"unknown type", map[string]any{"type": "macro"}},
		{"literal without text", map[string]any{"type": "literal"}},
		{"name without ident", map[string]any{"type": "name", "name": ""}},
		{"negative index", map[string]any{"type": "index", "index": -1}},
		{"fractional index", map[string]any{"type": "index", "index": 1.5}},
		{"items not a list", map[string]any{"type": "template", "expressionList": "x"}},
		{"name inside template", map[string]any{
			"type":           "template",
			"expressionList": []any{map[string]any{"type": "name", "name": "x"}},
		}},
		{"literal inside path", map[string]any{
			"type":       "expression",
			"searchPath": []any{map[string]any{"type": "literal", "string": "x"}},
		}},
		{"bad raw", map[string]any{"type": "expression", "raw": "yes"}},
		{"bad attribute", map[string]any{
			"type":       "expression",
			"attributes": map[string]any{"k": true},
		}},
		{"infinite attribute", map[string]any{
			"type":       "expression",
			"attributes": map[string]any{"k": math.Inf(1)},
		}},
		{"NaN index", map[string]any{"type": "index", "index": math.NaN()}},
		{"block without name", map[string]any{
			"type":       "block",
			"expression": map[string]any{"type": "expression"},
		}},
		{"block with literal body", map[string]any{
			"type":       "block",
			"name":       map[string]any{"type": "name", "name": "if"},
			"expression": map[string]any{"type": "expression"},
			"consequent": map[string]any{"type": "literal", "string": "x"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := LoadNode(tt.tree)
			if err == nil {
				t.Fatalf("expected error, loaded %#v", n)
			}

			if !errors.Is(err, ErrInvalidTree) {
				t.Errorf("errors.Is(err, ErrInvalidTree) = false: %v", err)
			}
		})
	}
}

func TestLoadNode_IndexOverflow(t *testing.T) {
	// JSON cannot hold math.MaxInt exactly; it decodes as 2^63.
	for _, pos := range []any{float64(math.MaxInt), 1e30, uint64(math.MaxUint64)} {
		n, err := LoadNode(map[string]any{"type": "index", "index": pos})
		if err != nil {
			t.Fatalf("LoadNode(%v): %v", pos, err)
		}

		if idx, ok := n.(*Index); !ok || idx.Pos != math.MaxInt {
			t.Errorf("LoadNode(%v) = %#v, want position MaxInt", pos, n)
		}
	}
}

func TestProgram_JSONOverflowingIndex(t *testing.T) {
	p, err := Compile(t.Context(), "[@(x[99999999999999999999])]")
	if err != nil {
		t.Fatal(err)
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Program
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(decoded.Root(), p.Root()) {
		t.Errorf("tree changed: %s", FormatString(decoded.Root()))
	}

	got, err := decoded.Render(t.Context(), map[string]any{"x": []any{1}})
	if err != nil || got != "[]" {
		t.Errorf("render = %q, %v; want []", got, err)
	}
}

func TestLoad_DegradesToEmpty(t *testing.T) {
	trees := []any{
		nil,
		"not a tree",
		42,
		map[string]any{"type": "bogus"},
		map[string]any{"type": "name", "name": "x"},
	}

	for _, tree := range trees {
		p := Load(t.Context(), tree)

		got, err := p.Render(t.Context(), map[string]any{"x": 1})
		if err != nil || got != "" {
			t.Errorf("Load(%#v).Render = %q, %v; want empty", tree, got, err)
		}
	}
}

func TestLoad_AcceptsLooseTypes(t *testing.T) {
	tree := map[string]any{
		"type": "template",
		"expressionList": []map[string]any{
			{"type": "literal", "string": "#"},
			{
				"type": "expression",
				"searchPath": []any{
					map[string]any{"type": "name", "name": "xs"},
					map[string]any{"type": "index", "index": json.Number("1")},
				},
			},
		},
	}

	got, err := Load(t.Context(), tree).Render(t.Context(), decode(t, `{"xs":[1,2]}`))
	if err != nil {
		t.Fatal(err)
	}

	if got != "#2" {
		t.Errorf("render = %q, want #2", got)
	}
}

func TestProgram_JSON(t *testing.T) {
	p, err := Compile(t.Context(), "Hi @(name)!")
	if err != nil {
		t.Fatal(err)
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	var q Program
	if err := json.Unmarshal(b, &q); err != nil {
		t.Fatal(err)
	}

	got, err := q.Render(t.Context(), map[string]any{"name": "Ann"})
	if err != nil {
		t.Fatal(err)
	}

	if got != "Hi Ann!" {
		t.Errorf("render = %q", got)
	}

	if err := json.Unmarshal([]byte(`{"type":"name","name":"x"}`), &q); !errors.Is(err, ErrInvalidTree) {
		t.Errorf("unmarshal of non-renderable tree: %v", err)
	}
}
