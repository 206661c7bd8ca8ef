package lang

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// decode builds a context the way callers do: from JSON text.
func decode(t *testing.T, s string) any {
	t.Helper()

	if s == "" {
		return nil
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad test context %q: %v", s, err)
	}

	return v
}

func render(t *testing.T, source string, data any, opts ...Option) (string, error) {
	t.Helper()

	p, err := Compile(t.Context(), source, opts...)
	if err != nil {
		t.Fatalf("compile %q: %v", source, err)
	}

	return p.Render(t.Context(), data)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		context string
		want    string
	}{
		{
			name:    "paths",
			source:  "@(author.name) is @(author.age) years old.",
			context: `{"author":{"name":"Brendan","age":28}}`,
			want:    "Brendan is 28 years old.",
		},
		{
			name:    "escaping",
			source:  "<p>@(evil)</p>",
			context: `{"evil":"<script type=\"text/javascript\">alert('hi');</script>"}`,
			want: "<p>&lt;script type=&quot;text/javascript&quot;&gt;" +
				"alert(&#39;hi&#39;);&lt;/script&gt;</p>",
		},
		{
			name:    "each",
			source:  "@each(person)[@(name)]@end",
			context: `{"person":[{"name":"Brendan"},{"name":"Matthew"}]}`,
			want:    "[Brendan][Matthew]",
		},
		{
			name:   "escaped marker",
			source: "mail me @@ home",
			want:   "mail me @ home",
		},
		{
			name:    "raw output",
			source:  "<div>@((body))</div>",
			context: `{"body":"<b>bold</b> &amp; co"}`,
			want:    "<div><b>bold</b> &amp; co</div>",
		},
		{
			name:    "raw inside block is not escaped again",
			source:  "@if(show)@((body))@end",
			context: `{"show":true,"body":"<i>x</i>"}`,
			want:    "<i>x</i>",
		},
		{
			name:    "escaped inside block is escaped once",
			source:  "@with(post)@(title)@end",
			context: `{"post":{"title":"Q&A <live>"}}`,
			want:    "Q&amp;A &lt;live&gt;",
		},
		{
			name:    "index path",
			source:  "@(items[1].name)",
			context: `{"items":[{"name":"a"},{"name":"b"}]}`,
			want:    "b",
		},
		{
			name:    "absent key renders empty",
			source:  "[@(missing)][@(a.missing)]",
			context: `{"a":{}}`,
			want:    "[][]",
		},
		{
			name:    "out of range index renders empty",
			source:  "[@(a[9])]",
			context: `{"a":[1]}`,
			want:    "[]",
		},
		{
			name:    "null and false render empty",
			source:  "[@(n)][@(f)][@(z)]",
			context: `{"n":null,"f":false,"z":0}`,
			want:    "[][][0]",
		},
		{
			name:    "sequence value",
			source:  "@(tags)",
			context: `{"tags":["a","b",3]}`,
			want:    "a,b,3",
		},
		{
			name:    "if else",
			source:  "@if(n)yes@else no@end",
			context: `{"n":0}`,
			want:    " no",
		},
		{
			name:    "if truthy",
			source:  "@if(s)yes@else no@end",
			context: `{"s":"0"}`,
			want:    "yes",
		},
		{
			name:    "if without else renders nothing",
			source:  "[@if(s)yes@end]",
			context: `{"s":""}`,
			want:    "[]",
		},
		{
			name:    "if keeps the outer context",
			source:  "@if(user)@(user.name)@end",
			context: `{"user":{"name":"Ann"}}`,
			want:    "Ann",
		},
		{
			name:    "unless",
			source:  "@unless(flag)off@else on@end",
			context: `{"flag":false}`,
			want:    "off",
		},
		{
			name:    "with narrows the context",
			source:  "@with(author)@(name)@end",
			context: `{"author":{"name":"Brendan"}}`,
			want:    "Brendan",
		},
		{
			name:    "with falsy renders else against outer context",
			source:  "@with(nobody)x@else @(fallback)@end",
			context: `{"fallback":"none"}`,
			want:    " none",
		},
		{
			name:    "each over empty sequence renders else",
			source:  "@each(xs)x@else empty@end",
			context: `{"xs":[]}`,
			want:    " empty",
		},
		{
			name:    "each over mapping in key order",
			source:  "@each(m)@(n)@end",
			context: `{"m":{"b":{"n":2},"a":{"n":1},"c":{"n":3}}}`,
			want:    "123",
		},
		{
			name:    "nested each",
			source:  "@each(rows)(@each(cells)@(v)@end)@end",
			context: `{"rows":[{"cells":[{"v":1},{"v":2}]},{"cells":[{"v":3}]}]}`,
			want:    "(12)(3)",
		},
		{
			name:    "helper expression",
			source:  "@(each people)",
			context: `{"people":[]}`,
			want:    "",
		},
		{
			name:    "unknown helper with attributes renders nothing",
			source:  "[@(nope x k=1)]",
			context: `{"x":1}`,
			want:    "[]",
		},
		{
			name:    "unknown block helper renders nothing",
			source:  "[@nope(x)body@else alt@end]",
			context: `{"x":1}`,
			want:    "[]",
		},
		{
			name:    "attributes-only expression resolves the context",
			source:  "@if(a=1)yes@end",
			context: `{}`,
			want:    "",
		},
		{
			name:    "expr helper",
			source:  `@(expr cart code="sum(map(items, .price)) * qty" qty=2)`,
			context: `{"cart":{"items":[{"price":1.5},{"price":2.5}]}}`,
			want:    "8",
		},
		{
			name:    "expr helper sees the enclosing context",
			source:  `@each(xs)@(expr p code="price * ctx.qty")@end`,
			context: `{"xs":[{"p":{"price":2},"qty":3}]}`,
			want:    "6",
		},
		{
			name:    "block argument helper name is ignored",
			source:  `@each(fmt items sep=",")[@(this)]@end`,
			context: `{"items":[{"this":"a"},{"this":"b"}]}`,
			want:    "[a][b]",
		},
		{
			name:    "block argument path is not evaluated by expr",
			source:  `@if(expr flag code="false")yes@else no@end`,
			context: `{"flag":true}`,
			want:    "yes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := render(t, tt.source, decode(t, tt.context))
			if err != nil {
				t.Fatalf("render error: %v", err)
			}

			if got != tt.want {
				t.Errorf("render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_TraversalErrors(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		context   string
		component string
	}{
		{"name against null", "@(foo.bar)", `{"foo":null}`, "bar"},
		{"name against sequence", "@(a.b)", `{"a":[1]}`, "b"},
		{"name against scalar", "@(a.b)", `{"a":"text"}`, "b"},
		{"index against mapping", "@(a[0])", `{"a":{}}`, "0"},
		{"index against scalar", "@(a[0])", `{"a":5}`, "0"},
		{"name against null context", "@(x)", ``, "x"},
		{"inside block", "@each(xs)@(v.w)@end", `{"xs":[{"v":1}]}`, "w"},
		{"in attribute", "@(log x y=a.b)", `{"x":1,"a":3}`, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := render(t, tt.source, decode(t, tt.context))
			if err == nil {
				t.Fatalf("expected error, got output %q", got)
			}

			if got != "" {
				t.Errorf("failed render produced output %q", got)
			}

			if err.Error() != "Could not traverse specified path in given context." {
				t.Errorf("message = %q", err.Error())
			}

			if !errors.Is(err, ErrTraversal) {
				t.Error("errors.Is(err, ErrTraversal) = false")
			}

			var ee *EvaluationError
			if !errors.As(err, &ee) {
				t.Fatalf("expected *EvaluationError, got %T", err)
			}

			if ee.Component != tt.component {
				t.Errorf("component = %q, want %q", ee.Component, tt.component)
			}
		})
	}
}

func TestRender_HelperMissing(t *testing.T) {
	_, err := render(t, "@(nope x)", map[string]any{"x": 1})
	if err == nil {
		t.Fatal("expected error")
	}

	if err.Error() != "Could not find property 'nope'" {
		t.Errorf("message = %q", err.Error())
	}

	if !errors.Is(err, ErrHelperMissing) {
		t.Error("errors.Is(err, ErrHelperMissing) = false")
	}
}

func TestRender_HelperErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("boom")

	reg := NewRegistry()
	reg.Register("fail", func(any, *Options) (any, error) { return nil, boom })

	for _, source := range []string{"@(fail x)", "@fail(x)@end", "@each(xs)@(fail x)@end"} {
		_, err := render(t, source, map[string]any{"x": 1, "xs": []any{1}}, WithRegistry(reg))
		if err != boom {
			t.Errorf("%s: err = %v, want the helper's error", source, err)
		}
	}
}

func TestRender_CustomHelper(t *testing.T) {
	reg := NewRegistry()
	reg.Register("link", func(inner any, opts *Options) (any, error) {
		return SafeString(`<a href="` + string(Escape(inner)) + `">` +
			string(Escape(opts.Hash["title"])) + "</a>"), nil
	})

	data := decode(t, `{"url":"/q?a=1&b=2","page":{"title":"A&B"}}`)

	tests := []struct {
		source string
		want   string
	}{
		{`@(link url title="Home")`, `<a href="/q?a=1&amp;b=2">Home</a>`},
		{`@(link url title=page.title)`, `<a href="/q?a=1&amp;b=2">A&amp;B</a>`},
		{`@(link url title=3.5)`, `<a href="/q?a=1&amp;b=2">3.5</a>`},
	}

	for _, tt := range tests {
		got, err := render(t, tt.source, data, WithRegistry(reg))
		if err != nil {
			t.Fatalf("%s: %v", tt.source, err)
		}

		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestRender_BlockOptions(t *testing.T) {
	var seen *Options

	reg := NewRegistry()
	reg.Register("capture", func(inner any, opts *Options) (any, error) {
		seen = opts

		c, err := opts.Consequent(inner)
		if err != nil {
			return nil, err
		}

		a, err := opts.Alternative(opts.This)
		if err != nil {
			return nil, err
		}

		// A plain string result is escaped by the block.
		return string(c) + "|" + string(a) + "|<", nil
	})

	data := decode(t, `{"x":"out"}`)

	// The attributes-only argument resolves to the context itself.
	got, err := render(t, `@capture(k="a" n=2)@(x)@else@(x)@end`, data, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}

	if want := "out|out|&lt;"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	if !seen.Block || seen.Name != "capture" {
		t.Errorf("Block = %v, Name = %q", seen.Block, seen.Name)
	}

	if seen.Hash["k"] != "a" || seen.Hash["n"] != 2.0 {
		t.Errorf("Hash = %v", seen.Hash)
	}

	if seen.Context == nil {
		t.Error("Context not set")
	}
}

func TestRender_BlockArgument(t *testing.T) {
	var (
		called    bool
		blockArg  any
		blockHash map[string]any
	)

	reg := NewRegistry()
	reg.Register("inner", func(inner any, opts *Options) (any, error) {
		called = true

		return nil, nil
	})
	reg.Register("outer", func(inner any, opts *Options) (any, error) {
		blockArg = inner
		blockHash = opts.Hash

		return opts.Consequent(inner)
	})

	data := decode(t, `{"v":{"w":"ok"},"t":"title"}`)

	got, err := render(t, "@outer(inner v k=1 s=t)@(w)@end", data, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}

	if got != "ok" {
		t.Errorf("render = %q, want ok", got)
	}

	if called {
		t.Error("helper named in the block argument was called")
	}

	if !reflect.DeepEqual(blockArg, map[string]any{"w": "ok"}) {
		t.Errorf("block argument = %v, want the value at v", blockArg)
	}

	if !reflect.DeepEqual(blockHash, map[string]any{"k": 1.0, "s": "title"}) {
		t.Errorf("block hash = %v", blockHash)
	}
}

func TestRender_HashNilWithoutAttributes(t *testing.T) {
	var hashes []map[string]any

	reg := NewRegistry()
	reg.Register("see", func(inner any, opts *Options) (any, error) {
		hashes = append(hashes, opts.Hash)

		return opts.Consequent(inner)
	})

	if _, err := render(t, "@(see x)@see(x)@end", map[string]any{"x": 1}, WithRegistry(reg)); err != nil {
		t.Fatal(err)
	}

	if len(hashes) != 2 || hashes[0] != nil || hashes[1] != nil {
		t.Errorf("hashes = %v, want two nil hashes", hashes)
	}
}

func TestRender_LogHelper(t *testing.T) {
	var buf strings.Builder

	logger := testLogger(&buf)

	got, err := render(t, `[@(log user note="hi")]`, decode(t, `{"user":"ann"}`),
		WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	if got != "[]" {
		t.Errorf("render = %q, want []", got)
	}

	out := buf.String()
	for _, want := range []string{"template log", "ann", "hi"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestRender_ExprErrors(t *testing.T) {
	_, err := render(t, `@(expr x code="1 +")`, map[string]any{"x": 1})
	if !errors.Is(err, ErrExprCompile) {
		t.Errorf("compile error = %v, want ErrExprCompile", err)
	}

	_, err = render(t, `@(expr x code="int(s)" s="abc")`, map[string]any{"x": 1})
	if !errors.Is(err, ErrExprEvaluate) {
		t.Errorf("run error = %v, want ErrExprEvaluate", err)
	}
}

func TestRender_Concurrent(t *testing.T) {
	p, err := Compile(t.Context(), "@each(xs)@(n),@end")
	if err != nil {
		t.Fatal(err)
	}

	data := decode(t, `{"xs":[{"n":1},{"n":2},{"n":3}]}`)

	errs := make(chan error, 32)
	for range 32 {
		go func() {
			out, err := p.Render(t.Context(), data)
			if err == nil && out != "1,2,3," {
				err = errors.New("unexpected output " + out)
			}
			errs <- err
		}()
	}

	for range 32 {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}
