package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Helpers to coerce host-language values to wire-model types. Canonical
// typed values pass straight through; JSON-ish inputs (float64,
// json.Number, decimal strings) are accepted when they carry the value
// losslessly.

func coerceToInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case json.Number:
		if iv, err := t.Int64(); err == nil {
			return iv, nil
		}
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("non-integer numeric for integer field")
		}
		return int64(f), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integer numeric for integer field")
		}
		return int64(t), nil
	case string:
		if strings.ContainsAny(t, ".eE") {
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return 0, err
			}
			if f != math.Trunc(f) {
				return 0, fmt.Errorf("non-integer numeric for integer field")
			}
			return int64(f), nil
		}
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("expected integer-like, got %T", v)
	}
}

func coerceToUint64(v interface{}) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case uint32:
		return uint64(t), nil
	case int64:
		if t < 0 {
			return 0, fmt.Errorf("negative value for unsigned field")
		}
		return uint64(t), nil
	case int32:
		if t < 0 {
			return 0, fmt.Errorf("negative value for unsigned field")
		}
		return uint64(t), nil
	case int:
		if t < 0 {
			return 0, fmt.Errorf("negative value for unsigned field")
		}
		return uint64(t), nil
	case json.Number:
		if uv, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return uv, nil
		}
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, err
		}
		if f < 0 || f != math.Trunc(f) {
			return 0, fmt.Errorf("non-integer numeric for unsigned field")
		}
		return uint64(f), nil
	case float64:
		if t < 0 || t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integer numeric for unsigned field")
		}
		return uint64(t), nil
	case string:
		if strings.ContainsAny(t, ".eE") {
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return 0, err
			}
			if f < 0 || f != math.Trunc(f) {
				return 0, fmt.Errorf("non-integer numeric for unsigned field")
			}
			return uint64(f), nil
		}
		return strconv.ParseUint(t, 10, 64)
	default:
		return 0, fmt.Errorf("expected unsigned-integer-like, got %T", v)
	}
}

func coerceToFloat64(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case json.Number:
		return strconv.ParseFloat(t.String(), 64)
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("expected number-like, got %T", v)
	}
}

func coerceToBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	default:
		return false, fmt.Errorf("expected bool, got %T", v)
	}
}

func coerceToString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func coerceToBytes(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	default:
		return nil, fmt.Errorf("expected bytes, got %T", v)
	}
}

// toInterfaceSlice normalizes the common typed-slice shapes of repeated
// field values to []interface{}.
func toInterfaceSlice(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case []map[string]interface{}:
		return genericSlice(v), nil
	case []string:
		return genericSlice(v), nil
	case []int32:
		return genericSlice(v), nil
	case []int64:
		return genericSlice(v), nil
	case []uint32:
		return genericSlice(v), nil
	case []uint64:
		return genericSlice(v), nil
	case []bool:
		return genericSlice(v), nil
	case []float32:
		return genericSlice(v), nil
	case []float64:
		return genericSlice(v), nil
	default:
		return nil, fmt.Errorf("repeated field value must be a slice, got %T", value)
	}
}

func genericSlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// toStringKeyedMap normalizes the common typed-map shapes of map field
// values to map[string]interface{}.
func toStringKeyedMap(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	case map[string]string:
		return genericMap(v), nil
	case map[string]int32:
		return genericMap(v), nil
	case map[string]int64:
		return genericMap(v), nil
	case map[string]float64:
		return genericMap(v), nil
	case map[string]bool:
		return genericMap(v), nil
	default:
		return nil, fmt.Errorf("map field value must be string-keyed, got %T", value)
	}
}

func genericMap[T any](in map[string]T) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
