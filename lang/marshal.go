package lang

import (
	"log/slog"
	"math"
	"reflect"
)

// Field names of the serialized tree.
const (
	fieldType        = "type"
	fieldItems       = "expressionList"
	fieldText        = "string"
	fieldName        = "name"
	fieldIndex       = "index"
	fieldPath        = "searchPath"
	fieldHelper      = "helper"
	fieldAttributes  = "attributes"
	fieldRaw         = "raw"
	fieldExpression  = "expression"
	fieldConsequent  = "consequent"
	fieldAlternative = "alternative"
)

// Write converts n to a plain tree of maps, slices, strings, numbers and
// booleans, suitable for JSON or YAML encoding. The "type" field of each map
// is the [NodeKind] of the node it describes.
func Write(n Node) map[string]any {
	switch n := n.(type) {
	case *Template:
		items := make([]any, 0, len(n.Items))
		for _, item := range n.Items {
			items = append(items, Write(item))
		}

		return map[string]any{fieldType: NodeTemplate.String(), fieldItems: items}

	case *Literal:
		return map[string]any{fieldType: NodeLiteral.String(), fieldText: n.Text}

	case *Name:
		return map[string]any{fieldType: NodeName.String(), fieldName: n.Ident}

	case *Index:
		return map[string]any{fieldType: NodeIndex.String(), fieldIndex: n.Pos}

	case *Expression:
		return writeExpression(n)

	case *Block:
		m := map[string]any{
			fieldType:       NodeBlock.String(),
			fieldName:       Write(n.Name),
			fieldExpression: Write(n.Expression),
		}

		if n.Consequent != nil {
			m[fieldConsequent] = Write(n.Consequent)
		}

		if n.Alternative != nil {
			m[fieldAlternative] = Write(n.Alternative)
		}

		return m
	}

	return nil
}

func writeExpression(e *Expression) map[string]any {
	path := make([]any, 0, len(e.Path))
	for _, c := range e.Path {
		path = append(path, Write(c))
	}

	m := map[string]any{fieldType: NodeExpression.String(), fieldPath: path}

	if e.Helper != nil {
		m[fieldHelper] = Write(e.Helper)
	}

	if len(e.Attributes) > 0 {
		attrs := make(map[string]any, len(e.Attributes))

		for k, v := range e.Attributes {
			if x, ok := v.(*Expression); ok {
				attrs[k] = writeExpression(x)
			} else {
				attrs[k] = v
			}
		}

		m[fieldAttributes] = attrs
	}

	if e.Raw {
		m[fieldRaw] = true
	}

	return m
}

// LoadNode reconstructs the node described by tree, the inverse of [Write].
// Maps with string keys and slices of any element type are accepted, so a
// tree decoded from JSON or YAML loads directly.
func LoadNode(tree any) (Node, error) {
	m, err := asMap(tree)
	if err != nil {
		return nil, err
	}

	kind, _ := m[fieldType].(string)

	switch kind {
	case NodeTemplate.String():
		return loadTemplate(m)

	case NodeLiteral.String():
		s, ok := m[fieldText].(string)
		if !ok {
			return nil, fieldError(kind, fieldText)
		}

		return &Literal{Text: s}, nil

	case NodeName.String():
		return loadName(m)

	case NodeIndex.String():
		return loadIndex(m)

	case NodeExpression.String():
		return loadExpression(m)

	case NodeBlock.String():
		return loadBlock(m)
	}

	return nil, ErrInvalidTree.With(slog.Any(fieldType, m[fieldType]))
}

func fieldError(kind, field string) *Error {
	return ErrInvalidTree.With(
		slog.String(fieldType, kind),
		slog.String("field", field),
	)
}

func loadTemplate(m map[string]any) (*Template, error) {
	list, err := asList(m[fieldItems])
	if err != nil {
		return nil, fieldError(NodeTemplate.String(), fieldItems)
	}

	t := &Template{}

	for _, v := range list {
		n, err := LoadNode(v)
		if err != nil {
			return nil, err
		}

		if !renderable(n) {
			return nil, fieldError(NodeTemplate.String(), fieldItems)
		}

		t.Items = append(t.Items, n)
	}

	return t, nil
}

func loadName(m map[string]any) (*Name, error) {
	s, ok := m[fieldName].(string)
	if !ok || s == "" {
		return nil, fieldError(NodeName.String(), fieldName)
	}

	return &Name{Ident: s}, nil
}

func loadIndex(m map[string]any) (*Index, error) {
	f, ok := asNumber(m[fieldIndex])
	if !ok || f < 0 || f != math.Trunc(f) {
		return nil, fieldError(NodeIndex.String(), fieldIndex)
	}

	// float64(math.MaxInt) rounds up to 2^63, itself out of range for int.
	if f >= math.MaxInt {
		return &Index{Pos: math.MaxInt}, nil
	}

	return &Index{Pos: int(f)}, nil
}

func loadExpression(m map[string]any) (*Expression, error) {
	kind := NodeExpression.String()

	list, err := asList(m[fieldPath])
	if err != nil {
		return nil, fieldError(kind, fieldPath)
	}

	e := &Expression{}

	for _, v := range list {
		n, err := LoadNode(v)
		if err != nil {
			return nil, err
		}

		c, ok := n.(Component)
		if !ok {
			return nil, fieldError(kind, fieldPath)
		}

		e.Path = append(e.Path, c)
	}

	if v, ok := m[fieldHelper]; ok && v != nil {
		hm, err := asMap(v)
		if err != nil {
			return nil, fieldError(kind, fieldHelper)
		}

		if e.Helper, err = loadName(hm); err != nil {
			return nil, err
		}
	}

	if v, ok := m[fieldAttributes]; ok && v != nil {
		if e.Attributes, err = loadAttributes(v); err != nil {
			return nil, err
		}
	}

	if v, ok := m[fieldRaw]; ok && v != nil {
		raw, ok := v.(bool)
		if !ok {
			return nil, fieldError(kind, fieldRaw)
		}

		e.Raw = raw
	}

	return e, nil
}

func loadAttributes(v any) (Attributes, error) {
	kind := NodeExpression.String()

	am, err := asMap(v)
	if err != nil {
		return nil, fieldError(kind, fieldAttributes)
	}

	if len(am) == 0 {
		return nil, nil
	}

	attrs := make(Attributes, len(am))

	for k, v := range am {
		if s, ok := v.(string); ok {
			attrs[k] = s

			continue
		}

		if f, ok := asNumber(v); ok {
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, fieldError(kind, fieldAttributes)
			}

			attrs[k] = f

			continue
		}

		em, err := asMap(v)
		if err != nil {
			return nil, fieldError(kind, fieldAttributes)
		}

		if t, _ := em[fieldType].(string); t != kind {
			return nil, fieldError(kind, fieldAttributes)
		}

		x, err := loadExpression(em)
		if err != nil {
			return nil, err
		}

		attrs[k] = x
	}

	return attrs, nil
}

func loadBlock(m map[string]any) (*Block, error) {
	kind := NodeBlock.String()
	b := &Block{}

	nm, err := asMap(m[fieldName])
	if err != nil {
		return nil, fieldError(kind, fieldName)
	}

	if b.Name, err = loadName(nm); err != nil {
		return nil, err
	}

	em, err := asMap(m[fieldExpression])
	if err != nil {
		return nil, fieldError(kind, fieldExpression)
	}

	if b.Expression, err = loadExpression(em); err != nil {
		return nil, err
	}

	for field, dst := range map[string]**Template{
		fieldConsequent:  &b.Consequent,
		fieldAlternative: &b.Alternative,
	} {
		v, ok := m[field]
		if !ok || v == nil {
			continue
		}

		tm, err := asMap(v)
		if err != nil {
			return nil, fieldError(kind, field)
		}

		if t, _ := tm[fieldType].(string); t != NodeTemplate.String() {
			return nil, fieldError(kind, field)
		}

		if *dst, err = loadTemplate(tm); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// asMap converts any map with string keys to map[string]any.
func asMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}

	rv := indirect(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, ErrInvalidTree.With(slog.String("want", "mapping"),
			slog.String("got", Classify(v).String()))
	}

	m := make(map[string]any, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}

	return m, nil
}

// asList converts any slice or array to []any. A missing list is empty.
func asList(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}

	if l, ok := v.([]any); ok {
		return l, nil
	}

	if Classify(v) != KindSequence {
		return nil, ErrInvalidTree.With(slog.String("want", "sequence"),
			slog.String("got", Classify(v).String()))
	}

	return sequence(v), nil
}

// asNumber converts any number, including json.Number, to float64.
func asNumber(v any) (float64, bool) {
	if Classify(v) != KindNumber {
		return 0, false
	}

	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()

		return f, err == nil
	}

	rv := indirect(v)

	switch {
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	default:
		return rv.Float(), true
	}
}
