package schema

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Map renders the settings as a nested map keyed by the raw setting names,
// the same shape the YAML files use.
func (s *Settings) Map() (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(s, &out); err != nil {
		return nil, fmt.Errorf("render settings: %w", err)
	}
	return normalizeMaps(out).(map[string]any), nil
}

// normalizeMaps turns every string-keyed map into map[string]any so path
// lookups can descend into it.
func normalizeMaps(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return v
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = normalizeMaps(iter.Value().Interface())
	}
	return out
}
