package repl

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/strudel/lang"
)

// usage documents how a helper is invoked.
type usage struct {
	form string
	desc string
}

// builtinUsage holds the usage of each helper registered by
// [lang.NewRegistry] that is meant to be called directly.
var builtinUsage = map[string]usage{
	"if":     {"@if(path)…@else…@end", "render the body when path is truthy"},
	"unless": {"@unless(path)…@else…@end", "render the body when path is falsy"},
	"with":   {"@with(path)…@else…@end", "render the body with path as context"},
	"each":   {"@each(path)…@else…@end", "render the body once per element or member of path"},
	"log":    {"@(log path key=value…)", "log path and the attributes at info level"},
	"expr":   {`@(expr path code="…")`, "evaluate code with path and the attributes as environment"},
}

// hiddenHelpers are registry entries that are never called by name.
var hiddenHelpers = []string{lang.HelperMissing, lang.BlockHelperMissing}

// helperUsage returns the usage of the named helper. Helpers registered
// outside the built-in set get a generic form.
func helperUsage(registry *lang.Registry, name string) (usage, bool) {
	if u, ok := builtinUsage[name]; ok {
		return u, true
	}

	if _, ok := registry.Lookup(name); !ok || isHidden(name) {
		return usage{}, false
	}

	return usage{form: "@(" + name + " path key=value…)", desc: "user helper"}, true
}

func isHidden(name string) bool { return slices.Contains(hiddenHelpers, name) }

// callableHelpers returns the registered helper names, omitting the
// missing-helper fallbacks.
func callableHelpers(registry *lang.Registry) []string {
	var names []string

	for _, name := range registry.Names() {
		if !isHidden(name) {
			names = append(names, name)
		}
	}

	return names
}

// Styles for usage hints.
var (
	usageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	usageNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	usageArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)
)

// renderUsageHint renders the usage of name with the name itself styled and
// the part being typed highlighted: the path while arg is 0, the attributes
// after that.
func renderUsageHint(name string, u usage, arg int) string {
	form := u.form

	i := strings.Index(form, name)
	if i < 0 {
		return usageStyle.Render(form + "  " + u.desc)
	}

	var b strings.Builder

	b.WriteString(usageStyle.Render(form[:i]))
	b.WriteString(usageNameStyle.Render(name))

	rest := form[i+len(name):]

	target := "path"
	if arg > 0 {
		target = "key=value…"
		if strings.Contains(rest, "code=") {
			target = `code="…"`
		}
	}

	if j := strings.Index(rest, target); j >= 0 {
		b.WriteString(usageStyle.Render(rest[:j]))
		b.WriteString(usageArgStyle.Render(target))
		b.WriteString(usageStyle.Render(rest[j+len(target):]))
	} else {
		b.WriteString(usageStyle.Render(rest))
	}

	b.WriteString(usageStyle.Render("  " + u.desc))

	return b.String()
}
