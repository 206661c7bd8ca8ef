package lang

//go:generate go tool stringer --linecomment --type Kind,NodeKind --output kind_string.go

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Kind classifies a context value.
type Kind int

const (
	KindNull     Kind = iota // null
	KindBool                 // boolean
	KindNumber               // number
	KindString               // string
	KindSequence             // sequence
	KindMapping              // mapping
	KindOther                // other
)

// SafeString is text that is emitted without further escaping.
type SafeString string

// String returns the wrapped text.
func (s SafeString) String() string { return string(s) }

// Classify reports the kind of v.
//
// Pointers and interfaces are dereferenced; a nil one is null. A map is a
// mapping regardless of its key type, and arrays and slices other than []byte
// are sequences. Structs, funcs and channels are other.
func Classify(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string, SafeString, []byte:
		return KindString
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, json.Number:
		return KindNumber
	case []any:
		return KindSequence
	case map[string]any:
		return KindMapping
	}

	return classifyValue(reflect.ValueOf(v))
}

func classifyValue(rv reflect.Value) Kind {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return KindNull
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr, reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindString
		}

		return KindSequence
	case reflect.Array:
		return KindSequence
	case reflect.Map:
		return KindMapping
	case reflect.Invalid:
		return KindNull
	default:
		return KindOther
	}
}

// indirect strips pointers and interfaces from v.
func indirect(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}

		rv = rv.Elem()
	}

	return rv
}

// IsTruthy reports whether v counts as true in a conditional.
//
// Null, false, zero, NaN, the empty string, and empty sequences and mappings
// are false. Everything else is true.
func IsTruthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case SafeString:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case json.Number:
		f, err := x.Float64()

		return err != nil || (f != 0 && !math.IsNaN(f))
	}

	rv := indirect(v)

	switch classifyValue(rv) {
	case KindNull:
		return false
	case KindBool:
		return rv.Bool()
	case KindNumber:
		switch {
		case rv.CanInt():
			return rv.Int() != 0
		case rv.CanUint():
			return rv.Uint() != 0
		default:
			f := rv.Float()

			return f != 0 && !math.IsNaN(f)
		}
	case KindString, KindSequence, KindMapping:
		return rv.Len() > 0
	default:
		return true
	}
}

const escapeChars = "&<>\"'`"

var (
	// entityPrefix matches an ampersand already opening a named or numeric
	// character reference.
	entityPrefix = regexp.MustCompile(`^&(?:\w+|#[0-9]+|#[xX][0-9a-fA-F]+);`)
)

// Escape renders v as text safe for embedding in HTML.
//
// A SafeString passes through unmodified. Null and false render empty.
// Otherwise the stringified value has &, <, >, ", ' and ` replaced by entities,
// except an & that already starts a character reference.
func Escape(v any) SafeString {
	if s, ok := v.(SafeString); ok {
		return s
	}

	if !IsPresent(v) {
		return ""
	}

	return SafeString(escapeString(Stringify(v)))
}

// IsPresent reports whether v renders as anything at all: it is false only
// for null and boolean false.
func IsPresent(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	}

	rv := indirect(v)

	switch classifyValue(rv) {
	case KindNull:
		return false
	case KindBool:
		return rv.Bool()
	default:
		return true
	}
}

func escapeString(s string) string {
	if !strings.ContainsAny(s, escapeChars) {
		return s
	}

	var b strings.Builder

	b.Grow(len(s) + len(s)/4)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if m := entityPrefix.FindString(s[i:]); m != "" {
				b.WriteString(m)
				i += len(m) - 1

				continue
			}

			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		case '`':
			b.WriteString("&#96;")
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// text is the unescaped rendering of v: empty for null and false, otherwise
// [Stringify].
func text(v any) string {
	if !IsPresent(v) {
		return ""
	}

	return Stringify(v)
}

// Stringify converts v to its output text.
//
// Integers print in base 10. Floats print without exponent when their
// magnitude is in [1e-6, 1e21), and in shortest exponent form otherwise.
// Sequences join their stringified elements with commas. An empty mapping is
// empty; any other mapping prints as JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case SafeString:
		return string(x)
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case int:
		return strconv.Itoa(x)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}

	rv := indirect(v)

	switch classifyValue(rv) {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(rv.Bool())
	case KindNumber:
		switch {
		case rv.CanInt():
			return strconv.FormatInt(rv.Int(), 10)
		case rv.CanUint():
			return strconv.FormatUint(rv.Uint(), 10)
		default:
			return formatFloat(rv.Float())
		}
	case KindString:
		if rv.Kind() == reflect.String {
			return rv.String()
		}

		return string(rv.Bytes())
	case KindSequence:
		part := make([]string, rv.Len())
		for i := range part {
			part[i] = Stringify(rv.Index(i).Interface())
		}

		return strings.Join(part, ",")
	case KindMapping:
		if rv.Len() == 0 {
			return ""
		}

		if b, err := json.Marshal(rv.Interface()); err == nil {
			return string(b)
		}

		return fmt.Sprint(rv.Interface())
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	if a := math.Abs(f); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// lookupKey returns the value stored under key in mapping v, or nil when the
// key is absent.
func lookupKey(v any, key string) any {
	if m, ok := v.(map[string]any); ok {
		return m[key]
	}

	rv := indirect(v)
	if rv.Kind() != reflect.Map {
		return nil
	}

	kt := rv.Type().Key()

	var kv reflect.Value

	switch {
	case kt.Kind() == reflect.String:
		kv = reflect.ValueOf(key).Convert(kt)
	case kt.Kind() == reflect.Interface:
		kv = reflect.ValueOf(key)
	default:
		// Non-string keys (e.g. YAML integer keys) match on their text.
		iter := rv.MapRange()
		for iter.Next() {
			if Stringify(iter.Key().Interface()) == key {
				return iter.Value().Interface()
			}
		}

		return nil
	}

	if e := rv.MapIndex(kv); e.IsValid() {
		return e.Interface()
	}

	return nil
}

// lookupIndex returns element i of sequence v, or nil when i is out of range.
func lookupIndex(v any, i int) any {
	if i < 0 {
		return nil
	}

	if s, ok := v.([]any); ok {
		if i < len(s) {
			return s[i]
		}

		return nil
	}

	rv := indirect(v)
	if i >= rv.Len() {
		return nil
	}

	return rv.Index(i).Interface()
}

// sequence returns the elements of sequence v.
func sequence(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}

	rv := indirect(v)
	out := make([]any, rv.Len())

	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out
}

// mapping returns the entries of mapping v keyed by their text, and the keys
// in sorted order.
func mapping(v any) (map[string]any, []string) {
	m, ok := v.(map[string]any)
	if !ok {
		rv := indirect(v)
		m = make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			m[Stringify(iter.Key().Interface())] = iter.Value().Interface()
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return m, keys
}
