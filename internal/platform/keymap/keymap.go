// Package keymap converts provider field names into the local naming
// convention. The schedule provider sends every field in PascalCase
// while stored records use camelCase.
package keymap

import "unicode"

// CamelizeKey lowers only the first character of a key. Keys that are
// already camelCase pass through unchanged.
func CamelizeKey(key string) string {
	if key == "" {
		return key
	}

	runes := []rune(key)
	first := unicode.ToLower(runes[0])
	if first == runes[0] {
		return key
	}
	runes[0] = first
	return string(runes)
}

// CamelizeKeys rewrites every top-level key of a flat record. Values
// are carried over untouched, including nested objects and arrays,
// whose inner keys are deliberately left alone. The result always has
// the same number of entries as the input.
func CamelizeKeys(record map[string]any) map[string]any {
	if record == nil {
		return nil
	}

	out := make(map[string]any, len(record))
	for key, value := range record {
		out[CamelizeKey(key)] = value
	}
	return out
}
