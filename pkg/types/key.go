package types

import "math"

// NormalizeKey converts a caller-supplied key to the Go type stored in a key
// index for fields of type t. Integer keys of any width are accepted when the
// value fits. It returns false when the key cannot match any record.
func (t FieldType) NormalizeKey(key any) (any, bool) {
	if !t.Keyable() {
		return nil, false
	}
	switch t.Kind {
	case KindString:
		s, ok := key.(string)
		return s, ok
	case KindBool:
		b, ok := key.(bool)
		return b, ok
	}

	n, ok := asInt64(key)
	if !ok {
		return nil, false
	}
	if t.Kind == KindInt32 {
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, false
		}
		return int32(n), true
	}
	return n, true
}

func asInt64(key any) (int64, bool) {
	switch v := key.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
