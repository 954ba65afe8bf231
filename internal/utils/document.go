package utils

import "reflect"

// RecordOf accepts any map keyed by string, so decoded BSON (bson.M) and
// JSON documents both work.
func RecordOf(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// AsRecord is RecordOf with an empty map for non-documents.
func AsRecord(v any) map[string]any {
	m, ok := RecordOf(v)
	if !ok {
		return map[string]any{}
	}
	return m
}

// AsList accepts any slice or array (primitive.A included).
func AsList(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
