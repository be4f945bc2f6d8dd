// Package attrs reads values back out of slog-style key-value attribute
// slices, formatted as [key1, value1, key2, value2, ...].
package attrs

// ExtractString returns the string value for key, or "" when the key is
// absent or its value is not a string.
func ExtractString(attrs []any, key string) string {
	v, _ := Extract[string](attrs, key)
	return v
}

// Extract returns the value for key asserted to T. The second return
// reports whether the key was present with a value of that type.
func Extract[T any](attrs []any, key string) (T, bool) {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		if v, ok := attrs[i+1].(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
