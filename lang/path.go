package lang

// ParsePath parses a search path such as "people[0].name". The empty string
// is the empty path, which denotes the context itself.
func ParsePath(s string) ([]Component, error) {
	if s == "" {
		return nil, nil
	}

	p := &parser{input: s}

	path, ok := p.path()
	if ok && p.eof() {
		return path, nil
	}

	if !ok || p.pos >= p.failPos {
		p.fail("end of path")
	}

	return nil, newSyntaxError(s, p.failPos, p.expected)
}

// Lookup resolves path against data with the same rules as a template
// expression: names select mapping members, indexes select sequence
// elements, and a missing member or element yields nil. It fails with an
// [*EvaluationError] when a component meets a value of the wrong kind.
func Lookup(data any, path []Component) (any, error) {
	return valueAtPath(path, data)
}

// Members returns the sorted member names of a mapping, or nil for any other
// value.
func Members(v any) []string {
	if Classify(v) != KindMapping {
		return nil
	}

	_, keys := mapping(v)

	return keys
}
