package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/strudel/pkg"
)

func TestSearchPath(t *testing.T) {
	sep := string(os.PathListSeparator)

	tests := []struct {
		name string
		env  string
		dirs []string
		want []string
	}{
		{name: "empty"},
		{name: "flags_only", dirs: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "env_only", env: "x" + sep + "y", want: []string{"x", "y"}},
		{
			name: "flags_before_env",
			env:  "x" + sep + "a",
			dirs: []string{"a", "b"},
			want: []string{"a", "b", "x"},
		},
		{
			name: "skips_empty",
			env:  sep + "x" + sep + sep,
			dirs: []string{"", "a"},
			want: []string{"a", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(pkg.EnvVar("path"), tt.env)

			if got := SearchPath(tt.dirs...); !slices.Equal(got, tt.want) {
				t.Errorf("SearchPath(%q) = %q, want %q", tt.dirs, got, tt.want)
			}
		})
	}
}

func TestFindTemplate(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	greet := writeFile(t, second, "greet"+TemplateExt, "hi")
	both := writeFile(t, first, "both.txt", "first")
	writeFile(t, second, "both.txt", "second")
	nested := writeFile(t, second, filepath.Join("sub", "page"+TemplateExt), "page")
	direct := writeFile(t, t.TempDir(), "direct.tmpl", "direct")

	if err := os.Mkdir(filepath.Join(first, "dir"+TemplateExt), 0o700); err != nil {
		t.Fatal(err)
	}

	ctx := WithSearchPath(t.Context(), []string{first, second})

	tests := []struct {
		name string
		want string
	}{
		{name: direct, want: direct},
		{name: "greet", want: greet},
		{name: "greet" + TemplateExt, want: greet},
		{name: "both.txt", want: both},
		{name: filepath.Join("sub", "page"), want: nested},
		{name: greet[:len(greet)-len(TemplateExt)], want: greet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findTemplate(ctx, tt.name)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("findTemplate(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}

	for _, name := range []string{"missing", "dir", "both"} {
		if _, err := findTemplate(ctx, name); !errors.Is(err, ErrNotFound) {
			t.Errorf("findTemplate(%q) error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page"+TemplateExt, "from file")

	ctx, _, _ := testContext(t, "from stdin")
	ctx = WithSearchPath(ctx, []string{dir})

	got, err := readSource(ctx, stdinSource)
	if err != nil || got != "from stdin" {
		t.Errorf("readSource(stdin) = %q, %v", got, err)
	}

	got, err = readSource(ctx, "page")
	if err != nil || got != "from file" {
		t.Errorf("readSource(page) = %q, %v", got, err)
	}

	if _, err := readSource(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("readSource(absent) error = %v", err)
	}
}
