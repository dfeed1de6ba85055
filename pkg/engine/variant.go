// # pkg/engine/variant.go
package engine

// AsInt coerces a Variant to int64. Engine integers are 64-bit; smaller Go
// ints show up when hosts build Variants by hand.
func AsInt(v Variant) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// AsFloat coerces a Variant to float64.
func AsFloat(v Variant) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

// AsString coerces a Variant to string.
func AsString(v Variant) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// AsBool coerces a Variant to bool.
func AsBool(v Variant) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
