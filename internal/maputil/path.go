package maputil

import "strings"

// Path is an ordered list of segment names addressing a value in a nested
// settings map.
type Path []string

// ParsePath splits a dotted path such as "scraping.timeout".
func ParsePath(dotted string) Path {
	return Path(strings.Split(dotted, DefaultSeparator))
}

func (p Path) String() string {
	return strings.Join(p, DefaultSeparator)
}

// Lookup descends m one segment at a time. It stops with false as soon as a
// segment is absent or the value reached so far is not a map.
func Lookup(m map[string]any, path Path) (any, bool) {
	var current any = m
	for _, segment := range path {
		node, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set stores value at path, creating intermediate maps and replacing any
// non-map value found along the way. An empty path is a no-op.
func Set(m map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	current := m
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}
