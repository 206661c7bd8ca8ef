package lang

import (
	"maps"
	"reflect"
	"slices"
)

// sortedKeys orders map keys for deterministic output and log attributes.
func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}

func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return reflect.TypeOf(value).String()
}
