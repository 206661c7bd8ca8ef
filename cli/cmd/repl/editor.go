package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/strudel/log"
)

const defaultEditor = "vi"

// editDataCommand implements [tea.ExecCommand] for the data edit-decode-retry
// loop. It writes the current data context as YAML to a temp file, opens the
// user's editor, and decodes the result. On a decode error the user is
// prompted to re-edit; declining exits the program.
type editDataCommand struct {
	data      any
	ctxFunc   func() context.Context
	newData   any
	logger    log.Logger
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	cancelled bool
}

// SetStdin sets the stdin reader for the command.
func (c *editDataCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editDataCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editDataCommand) SetStderr(w io.Writer) { c.stderr = w }

// encodeData renders data as the YAML document shown in the editor.
func encodeData(data any) (string, error) {
	if data == nil {
		return "{}\n", nil
	}

	b, err := yaml.MarshalWithOptions(data, yaml.Indent(2))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// decodeData parses an edited document. An empty document reports ok false.
func decodeData(content []byte) (data any, ok bool, err error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, false, nil
	}

	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, false, err
	}

	return data, true, nil
}

// Run executes the edit-decode-retry loop. If the user declines to re-edit,
// it returns [ErrEditDeclined].
func (c *editDataCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := encodeData(c.data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "strudel-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		edited, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		data, ok, decodeErr := decodeData(edited)
		c.logger.TraceContext(ctx, "editor decode attempt",
			slog.Int("content_length", len(edited)),
			slog.Bool("success", decodeErr == nil))

		if decodeErr == nil {
			c.newData, c.cancelled = data, !ok

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error:\n%s\n", yaml.FormatError(decodeErr, false, true))
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = string(edited)
	}
}

// runEditor launches the user's editor on the given file path and returns
// the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
