package envoverlay

import (
	"strconv"
	"strings"
)

// Coerce converts a raw environment value. The first matching rule wins:
//   - only ASCII digits: int
//   - "true" or "false" in any case: bool
//   - exactly one "." and only digits otherwise: float64
//   - anything else stays a string
//
// Values that look numeric but do not parse (an int overflow, say) stay
// strings.
func Coerce(raw string) any {
	if isDigits(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}

	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}

	if strings.Count(raw, ".") == 1 && isDigits(strings.Replace(raw, ".", "", 1)) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}

	return raw
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
