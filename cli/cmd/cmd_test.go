package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

// testContext returns a command context reading stdin from the given text
// and decoding the given data files, with buffers capturing output and
// diagnostics.
func testContext(t *testing.T, stdin string, data ...string) (context.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errw bytes.Buffer

	ctx := WithStreams(t.Context(), strings.NewReader(stdin), &out, &errw)
	ctx = WithDataFiles(ctx, data)

	return ctx, &out, &errw
}

// writeFile creates a file named name in dir with the given content.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestWithDataFiles_Empty(t *testing.T) {
	for _, sources := range [][]string{nil, {}} {
		files := dataFilesFrom(WithDataFiles(t.Context(), sources))
		if !files.IsZero() {
			t.Errorf("WithDataFiles(%v) = %+v, want zero", sources, files)
		}
	}

	if !dataFilesFrom(t.Context()).IsZero() {
		t.Error("context without data files is not zero")
	}
}

func TestWithDataFiles_Deduplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "a: 1")
	b := writeFile(t, dir, "b.json", `{"b": 2}`)

	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	rel, err := filepath.Rel(wd, b)
	if err != nil {
		rel = b
	}

	files := dataFilesFrom(WithDataFiles(t.Context(), []string{
		"-", a, link, b, rel, "-", a,
	}))

	if !files.Stdin {
		t.Error("stdin not recorded")
	}

	resolvedA, _ := filepath.EvalSymlinks(a)
	resolvedB, _ := filepath.EvalSymlinks(b)

	want := []string{resolvedA, resolvedB}
	if len(files.Paths) != len(want) || files.Paths[0] != want[0] || files.Paths[1] != want[1] {
		t.Errorf("Paths = %v, want %v", files.Paths, want)
	}
}

func TestWithDataFiles_KeepsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	files := dataFilesFrom(WithDataFiles(t.Context(), []string{missing}))
	if len(files.Paths) != 1 || files.Paths[0] != missing {
		t.Errorf("Paths = %v, want the missing file kept for error reporting", files.Paths)
	}
}

func TestStreams_Defaults(t *testing.T) {
	s := streamsFrom(t.Context())
	if s.in != os.Stdin || s.out != os.Stdout || s.err != os.Stderr {
		t.Error("default streams are not the process streams")
	}

	var out bytes.Buffer

	s = streamsFrom(WithStreams(t.Context(), nil, &out, nil))
	if s.out != &out || s.in != os.Stdin || s.err != os.Stderr {
		t.Error("nil streams did not fall back to the process streams")
	}
}

func TestKongVar(t *testing.T) {
	if got := kongVar(t.Context(), CacheIdentifier); got != "" {
		t.Errorf("kongVar without kong context = %q", got)
	}

	var cli struct{}

	parser, err := kong.New(&cli, kong.Vars{CacheIdentifier: "/tmp/cache"})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithContext(t.Context(), ktx)

	if kongContextFrom(ctx) != ktx {
		t.Error("kong context not stored")
	}

	if got := kongVar(ctx, CacheIdentifier); got != "/tmp/cache" {
		t.Errorf("kongVar = %q", got)
	}
}
