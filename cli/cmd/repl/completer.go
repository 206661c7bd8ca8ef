package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/strudel/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "data", "helpers", "edit", "clear", "quit"}

// blockKeywords complete after "@" alongside helper names.
var blockKeywords = []string{"else", "end"}

// isWordBoundary returns true if the rune delimits a word for completion
// purposes: whitespace and the punctuation of the template syntax.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '.', '@', '(', ')', '[', ']', '=', '"':
		return true
	}

	return false
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the search path leading up to the current word when the
// word follows a member-access dot. For input "@(people[0].na" with the word
// "na", the parent path is "people[0]". Returns "" for any other word.
func parentPath(input string, wordStart int) string {
	if wordStart == 0 || input[wordStart-1] != '.' {
		return ""
	}

	end := wordStart - 1
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:pos])
		if r != '.' && r != '[' && r != ']' && !isIdentRune(r) {
			break
		}

		pos -= size
	}

	return input[pos:end]
}

// call is the innermost expression open at the cursor.
type call struct {
	name  string // helper named by "@name(" or the first word of "@("
	open  int    // offset of the opening paren
	arg   int    // 0 while typing the path, 1 after it
	block bool   // opened with "@name("
	ok    bool
}

// openCall scans input up to cursor for an expression that has been opened
// with "@(" or "@name(" and not yet closed. Quoted attribute values are
// skipped.
func openCall(input string, cursor int) call {
	if cursor > len(input) {
		cursor = len(input)
	}

	var (
		stack   []call
		inQuote bool
	)

	for i := 0; i < cursor; i++ {
		c := input[i]

		switch {
		case inQuote:
			inQuote = c != '"'

		case c == '"' && len(stack) > 0:
			inQuote = true

		case c == '@' && i+1 < len(input) && input[i+1] == '@':
			i++

		case c == '@':
			j := i + 1
			for j < cursor && isIdentRune(rune(input[j])) {
				j++
			}

			if j < cursor && input[j] == '(' {
				stack = append(stack, call{
					name:  input[i+1 : j],
					open:  j,
					block: j > i+1,
					ok:    true,
				})
				i = j
			}

		case c == '(' && len(stack) > 0:
			// Inner paren of a raw expression.
			stack = append(stack, call{open: i, ok: true})

		case c == ')' && len(stack) > 0:
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) == 0 {
		return call{}
	}

	// "@((" nests a raw expression; its body is the inner call.
	c := stack[len(stack)-1]
	body := input[c.open+1 : cursor]

	if !c.block {
		if first, _, found := strings.Cut(body, " "); found {
			c.name = first
			body = body[len(first)+1:]
		} else {
			return c
		}
	}

	if strings.ContainsAny(strings.TrimLeft(body, " "), " ") {
		c.arg = 1
	}

	return c
}

// completionCandidates returns the names that complete the word starting at
// wordStart. After "@" the candidates are helper names and block keywords.
// Inside an expression they are the members of the context value at the
// parent path, plus helper names in the leading position of "@(".
func completionCandidates(
	input string,
	cursor, wordStart int,
	data any,
	registry *lang.Registry,
) []string {
	if wordStart > 0 && input[wordStart-1] == '@' &&
		(wordStart < 2 || input[wordStart-2] != '@') {
		return append(callableHelpers(registry), blockKeywords...)
	}

	c := openCall(input, cursor)
	if !c.ok {
		return nil
	}

	parent := parentPath(input, wordStart)
	if parent != "" {
		return membersAt(data, parent)
	}

	if wordStart > 0 && input[wordStart-1] == '[' {
		return nil
	}

	names := lang.Members(data)

	if !c.block && wordStart == c.open+1 {
		names = append(names, callableHelpers(registry)...)
	}

	return names
}

// membersAt returns the member names of the value at path in data.
func membersAt(data any, path string) []string {
	p, err := lang.ParsePath(path)
	if err != nil {
		return nil
	}

	v, err := lang.Lookup(data, p)
	if err != nil {
		return nil
	}

	return lang.Members(v)
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. An empty word yields every candidate only after a member-access
// dot, so the hint line stays visible otherwise.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		candidates = completionCandidates(input, cursor, wordStart, m.data, m.registry)

		if word == "" {
			if parentPath(input, wordStart) == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle, highlightStyle := suggestionStyle, matchStyle
	if selected {
		baseStyle, highlightStyle = selectedStyle, selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}
