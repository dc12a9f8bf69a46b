package maputil

import (
	"sort"
	"strings"
)

// DefaultSeparator joins path segments in flat keys and dotted paths.
const DefaultSeparator = "."

// Flatten collapses a nested map into a single level whose keys are the
// separator-joined paths to every non-map leaf. Empty nested maps hold no
// leaf and therefore produce no key.
func Flatten(m map[string]any, sep string) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", m, sep)
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any, sep string) {
	for key, value := range m {
		flatKey := key
		if prefix != "" {
			flatKey = prefix + sep + key
		}
		if child, ok := asMap(value); ok {
			flattenInto(out, flatKey, child, sep)
			continue
		}
		out[flatKey] = CloneValue(value)
	}
}

// Unflatten expands separator-joined keys into nested maps. Keys are applied
// in sorted order and the last write wins on conflicting paths: given both
// "a" and "a.b", "a" is written first and then replaced by {"b": ...}.
func Unflatten(flat map[string]any, sep string) map[string]any {
	out := make(map[string]any)
	for _, key := range Keys(flat) {
		Set(out, Path(strings.Split(key, sep)), CloneValue(flat[key]))
	}
	return out
}

// Keys returns the keys of m in ascending order.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
