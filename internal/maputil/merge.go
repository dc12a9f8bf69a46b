package maputil

// Merge returns a new map holding base overlaid with overlay. When both sides
// hold a nested map under the same key the maps are merged recursively;
// otherwise the overlay value replaces the base value entirely. Neither input
// is modified and the result shares no nested map or slice with them.
func Merge(base, overlay map[string]any) map[string]any {
	result := Clone(base)
	for key, value := range overlay {
		baseChild, baseIsMap := asMap(result[key])
		overlayChild, overlayIsMap := asMap(value)
		if baseIsMap && overlayIsMap {
			result[key] = Merge(baseChild, overlayChild)
			continue
		}
		result[key] = CloneValue(value)
	}
	return result
}

// Clone deep-copies a settings tree. A nil map clones to an empty map.
func Clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep-copies maps and slices inside v; other values are returned
// as is.
func CloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return Clone(typed)
	case map[any]any:
		if m, ok := asMap(typed); ok {
			return Clone(m)
		}
		out := make(map[any]any, len(typed))
		for key, value := range typed {
			out[key] = CloneValue(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	case []int:
		return append([]int(nil), typed...)
	default:
		return v
	}
}

// asMap reports whether v is a mapping. YAML decoders occasionally produce
// map[any]any for nested documents; those are converted when every key is a
// string.
func asMap(v any) (map[string]any, bool) {
	switch typed := v.(type) {
	case map[string]any:
		return typed, true
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			s, ok := key.(string)
			if !ok {
				return nil, false
			}
			out[s] = value
		}
		return out, true
	default:
		return nil, false
	}
}
