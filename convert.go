package protodyn

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	"github.com/protodyn/protodyn/schema"
)

// EnumMode selects how ToObject renders enum values.
type EnumMode string

const (
	EnumOrdinal EnumMode = "ordinal" // raw int32 ordinal (default)
	EnumName    EnumMode = "name"    // symbolic name, falling back to the ordinal when unknown
)

// LongMode selects how ToObject renders 64-bit integers.
type LongMode string

const (
	LongNative LongMode = "native" // native int64/uint64 (default)
	LongString LongMode = "string" // decimal string, lossless for JSON interop
)

// BytesMode selects how ToObject renders byte fields.
type BytesMode string

const (
	BytesBuffer BytesMode = "buffer" // []byte copy (default)
	BytesArray  BytesMode = "array"  // []int of byte values
	BytesBase64 BytesMode = "base64" // standard base64 string
)

// ConvertOptions parameterizes ToObject. The zero value keeps canonical
// in-memory representations and omits absent fields.
type ConvertOptions struct {
	Defaults bool      // emit every absent field at its zero value
	Arrays   bool      // emit empty slices for absent repeated fields
	Objects  bool      // emit empty maps for absent map fields
	Enums    EnumMode  // ordinal or name
	Longs    LongMode  // native or string
	Bytes    BytesMode // buffer, array or base64
	JSON     bool      // coerce NaN/Infinity to strings for JSON safety
}

// ===== FROM OBJECT =====

// FromObject converts a plain object (JSON-decoded maps, typed slices,
// decimal strings, enum names) into the canonical message map the wire
// encoder expects. It is an identity passthrough for values that are
// already canonical and never mutates its input.
func (p *Protodyn) FromObject(obj map[string]interface{}, messageType string) (map[string]interface{}, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return p.fromObjectMessage(obj, msg, "")
}

func (p *Protodyn) fromObjectMessage(obj map[string]interface{}, msg *schema.Message, path string) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(obj))

	for _, field := range msg.AllFields() {
		value, present := obj[field.Name]
		if !present || value == nil {
			continue
		}
		fieldPath := joinPath(path, field.Name)

		switch {
		case field.Type.Kind == schema.KindMap:
			m, ok := asStringMap(value)
			if !ok {
				return nil, verifyError(fieldPath, "object expected")
			}
			converted := make(map[string]interface{}, len(m))
			for key, entry := range m {
				cv, err := p.fromObjectValue(entry, field.Type.MapValue, joinPath(fieldPath, key))
				if err != nil {
					return nil, err
				}
				converted[key] = cv
			}
			result[field.Name] = converted

		case field.Label == schema.LabelRepeated:
			list, ok := asList(value)
			if !ok {
				return nil, verifyError(fieldPath, "array expected")
			}
			converted := make([]interface{}, len(list))
			for i, element := range list {
				cv, err := p.fromObjectValue(element, &field.Type, joinPath(fieldPath, strconv.Itoa(i)))
				if err != nil {
					return nil, err
				}
				converted[i] = cv
			}
			result[field.Name] = converted

		default:
			cv, err := p.fromObjectValue(value, &field.Type, fieldPath)
			if err != nil {
				return nil, err
			}
			result[field.Name] = cv
		}
	}
	return result, nil
}

func (p *Protodyn) fromObjectValue(v interface{}, fieldType *schema.FieldType, path string) (interface{}, error) {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return fromObjectPrimitive(v, fieldType.PrimitiveType, path)
	case schema.KindEnum:
		return p.fromObjectEnum(v, fieldType.EnumType, path)
	case schema.KindMessage:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, verifyError(path, "object expected")
		}
		msg, err := p.registry.GetMessage(fieldType.MessageType)
		if err != nil {
			return nil, verifyError(path, "unknown message type "+fieldType.MessageType)
		}
		return p.fromObjectMessage(obj, msg, path)
	default:
		return nil, verifyError(path, "unsupported field kind "+string(fieldType.Kind))
	}
}

// fromObjectEnum normalizes a symbolic name or numeric ordinal to the
// ordinal. Unknown numeric input passes through unchanged so numeric
// values from a newer schema survive; unknown names are an error.
func (p *Protodyn) fromObjectEnum(v interface{}, enumType, path string) (interface{}, error) {
	enum, err := p.registry.GetEnum(enumType)
	if err != nil {
		return nil, verifyError(path, "unknown enum type "+enumType)
	}
	if name, ok := v.(string); ok {
		ordinal, ok := enum.ValueByName(name)
		if !ok {
			return nil, verifyError(path, fmt.Sprintf("unknown value %q for enum %s", name, enum.Name))
		}
		return ordinal, nil
	}
	ordinal, ok := asInteger(v)
	if !ok {
		return nil, verifyError(path, "enum value expected")
	}
	return int32(ordinal), nil
}

func fromObjectPrimitive(v interface{}, primitiveType schema.PrimitiveType, path string) (interface{}, error) {
	switch primitiveType {
	case schema.TypeString:
		switch t := v.(type) {
		case string:
			return t, nil
		case bool:
			return strconv.FormatBool(t), nil
		default:
			if f, ok := asFloat(v); ok {
				return strconv.FormatFloat(f, 'g', -1, 64), nil
			}
			return nil, verifyError(path, "string expected")
		}
	case schema.TypeBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(t)
			if err != nil {
				return nil, verifyError(path, "boolean expected")
			}
			return b, nil
		default:
			if iv, ok := asInteger(v); ok {
				return iv != 0, nil
			}
			return nil, verifyError(path, "boolean expected")
		}
	case schema.TypeBytes:
		switch t := v.(type) {
		case []byte:
			return t, nil
		case string:
			data, err := base64.StdEncoding.DecodeString(t)
			if err != nil {
				return nil, verifyError(path, "base64 string expected")
			}
			return data, nil
		case []interface{}:
			data := make([]byte, len(t))
			for i, b := range t {
				iv, ok := asInteger(b)
				if !ok || iv < 0 || iv > 255 {
					return nil, verifyError(path, "byte array expected")
				}
				data[i] = byte(iv)
			}
			return data, nil
		default:
			return nil, verifyError(path, "buffer expected")
		}
	case schema.TypeFloat:
		f, ok := asFloatLoose(v)
		if !ok {
			return nil, verifyError(path, "number expected")
		}
		return float32(f), nil
	case schema.TypeDouble:
		f, ok := asFloatLoose(v)
		if !ok {
			return nil, verifyError(path, "number expected")
		}
		return f, nil
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		iv, ok := asIntegerLoose(v)
		if !ok {
			return nil, verifyError(path, "integer expected")
		}
		return int32(iv), nil
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		iv, ok := asIntegerLoose(v)
		if !ok {
			return nil, verifyError(path, "integer expected")
		}
		return iv, nil
	case schema.TypeUint32, schema.TypeFixed32:
		uv, ok := asUnsignedLoose(v)
		if !ok {
			return nil, verifyError(path, "unsigned integer expected")
		}
		return uint32(uv), nil
	case schema.TypeUint64, schema.TypeFixed64:
		uv, ok := asUnsignedLoose(v)
		if !ok {
			return nil, verifyError(path, "unsigned integer expected")
		}
		return uv, nil
	default:
		return nil, verifyError(path, "unsupported primitive type "+string(primitiveType))
	}
}

// ===== TO OBJECT =====

// ToObject converts a canonical message map into a plain object shaped
// by the given options. The source message is never mutated; byte
// slices are copied.
func (p *Protodyn) ToObject(data map[string]interface{}, messageType string, opts ConvertOptions) (map[string]interface{}, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return p.toObjectMessage(data, msg, opts)
}

func (p *Protodyn) toObjectMessage(data map[string]interface{}, msg *schema.Message, opts ConvertOptions) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, field := range msg.AllFields() {
		value, present := data[field.Name]
		if !present || value == nil {
			p.emitAbsent(result, field, opts)
			continue
		}

		switch {
		case field.Type.Kind == schema.KindMap:
			m, ok := asStringMap(value)
			if !ok {
				return nil, verifyError(field.Name, "object expected")
			}
			converted := make(map[string]interface{}, len(m))
			for key, entry := range m {
				cv, err := p.toObjectValue(entry, field.Type.MapValue, opts)
				if err != nil {
					return nil, verifyError(field.Name, err.Error())
				}
				converted[key] = cv
			}
			result[field.Name] = converted

		case field.Label == schema.LabelRepeated:
			list, ok := asList(value)
			if !ok {
				return nil, verifyError(field.Name, "array expected")
			}
			converted := make([]interface{}, len(list))
			for i, element := range list {
				cv, err := p.toObjectValue(element, &field.Type, opts)
				if err != nil {
					return nil, verifyError(field.Name, err.Error())
				}
				converted[i] = cv
			}
			result[field.Name] = converted

		default:
			cv, err := p.toObjectValue(value, &field.Type, opts)
			if err != nil {
				return nil, verifyError(field.Name, err.Error())
			}
			result[field.Name] = cv
		}
	}
	return result, nil
}

// emitAbsent writes the default representation for an absent field when
// the options ask for it. Absent message fields become explicit nils
// under Defaults; containers get their empty shapes.
func (p *Protodyn) emitAbsent(result map[string]interface{}, field *schema.Field, opts ConvertOptions) {
	switch {
	case field.Type.Kind == schema.KindMap:
		if opts.Objects || opts.Defaults {
			result[field.Name] = map[string]interface{}{}
		}
	case field.Label == schema.LabelRepeated:
		if opts.Arrays || opts.Defaults {
			result[field.Name] = []interface{}{}
		}
	case field.Type.Kind == schema.KindMessage:
		if opts.Defaults {
			result[field.Name] = nil
		}
	case field.Type.Kind == schema.KindEnum:
		if opts.Defaults {
			result[field.Name] = p.renderEnum(int32(0), field.Type.EnumType, opts)
		}
	default:
		if opts.Defaults {
			result[field.Name] = renderZeroPrimitive(field.Type.PrimitiveType, opts)
		}
	}
}

func (p *Protodyn) toObjectValue(v interface{}, fieldType *schema.FieldType, opts ConvertOptions) (interface{}, error) {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return renderPrimitive(v, fieldType.PrimitiveType, opts)
	case schema.KindEnum:
		ordinal, ok := asInteger(v)
		if !ok {
			// tolerate symbolic names already present in the source
			if name, isString := v.(string); isString {
				return name, nil
			}
			return nil, fmt.Errorf("enum value expected")
		}
		return p.renderEnum(int32(ordinal), fieldType.EnumType, opts), nil
	case schema.KindMessage:
		// undecoded submessages stay as raw bytes
		if raw, ok := v.([]byte); ok {
			return append([]byte(nil), raw...), nil
		}
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("object expected")
		}
		msg, err := p.registry.GetMessage(fieldType.MessageType)
		if err != nil {
			return nil, fmt.Errorf("unknown message type %s", fieldType.MessageType)
		}
		return p.toObjectMessage(obj, msg, opts)
	default:
		return nil, fmt.Errorf("unsupported field kind %s", fieldType.Kind)
	}
}

// renderEnum emits the ordinal or, when requested, the symbolic name —
// falling back to the raw ordinal when no name is registered for it.
func (p *Protodyn) renderEnum(ordinal int32, enumType string, opts ConvertOptions) interface{} {
	if opts.Enums != EnumName {
		return ordinal
	}
	enum, err := p.registry.GetEnum(enumType)
	if err != nil {
		return ordinal
	}
	if name, ok := enum.NameByValue(ordinal); ok {
		return name
	}
	return ordinal
}

func renderPrimitive(v interface{}, primitiveType schema.PrimitiveType, opts ConvertOptions) (interface{}, error) {
	switch primitiveType {
	case schema.TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("string expected")
		}
		return s, nil
	case schema.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("boolean expected")
		}
		return b, nil
	case schema.TypeBytes:
		data, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("buffer expected")
		}
		return renderBytes(data, opts), nil
	case schema.TypeFloat:
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("number expected")
		}
		if opts.JSON {
			if special, ok := jsonSpecialFloat(f); ok {
				return special, nil
			}
		}
		return float32(f), nil
	case schema.TypeDouble:
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("number expected")
		}
		if opts.JSON {
			if special, ok := jsonSpecialFloat(f); ok {
				return special, nil
			}
		}
		return f, nil
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		iv, ok := asInteger(v)
		if !ok {
			return nil, fmt.Errorf("integer expected")
		}
		return int32(iv), nil
	case schema.TypeUint32, schema.TypeFixed32:
		iv, ok := asInteger(v)
		if !ok {
			return nil, fmt.Errorf("unsigned integer expected")
		}
		return uint32(iv), nil
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		iv, ok := longFromValue(v)
		if !ok {
			return nil, fmt.Errorf("integer expected")
		}
		if opts.Longs == LongString {
			return strconv.FormatInt(iv, 10), nil
		}
		return iv, nil
	case schema.TypeUint64, schema.TypeFixed64:
		uv, ok := ulongFromValue(v)
		if !ok {
			return nil, fmt.Errorf("unsigned integer expected")
		}
		if opts.Longs == LongString {
			return strconv.FormatUint(uv, 10), nil
		}
		return uv, nil
	default:
		return nil, fmt.Errorf("unsupported primitive type %s", primitiveType)
	}
}

func renderZeroPrimitive(primitiveType schema.PrimitiveType, opts ConvertOptions) interface{} {
	switch primitiveType {
	case schema.TypeString:
		return ""
	case schema.TypeBool:
		return false
	case schema.TypeBytes:
		return renderBytes([]byte{}, opts)
	case schema.TypeFloat:
		return float32(0)
	case schema.TypeDouble:
		return float64(0)
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return int32(0)
	case schema.TypeUint32, schema.TypeFixed32:
		return uint32(0)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		if opts.Longs == LongString {
			return "0"
		}
		return int64(0)
	case schema.TypeUint64, schema.TypeFixed64:
		if opts.Longs == LongString {
			return "0"
		}
		return uint64(0)
	default:
		return nil
	}
}

func renderBytes(data []byte, opts ConvertOptions) interface{} {
	switch opts.Bytes {
	case BytesBase64:
		return base64.StdEncoding.EncodeToString(data)
	case BytesArray:
		out := make([]int, len(data))
		for i, b := range data {
			out[i] = int(b)
		}
		return out
	default:
		return append([]byte(nil), data...)
	}
}

func jsonSpecialFloat(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	default:
		return "", false
	}
}

// VALUE HELPERS

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}

// asFloatLoose additionally accepts decimal strings and the JSON
// special-value strings emitted under ConvertOptions.JSON.
func asFloatLoose(v interface{}) (float64, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// asIntegerLoose additionally accepts decimal strings, the lossless
// JSON-interop form of 64-bit integers.
func asIntegerLoose(v interface{}) (int64, bool) {
	if iv, ok := asInteger(v); ok {
		return iv, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	iv, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return iv, true
}

func asUnsignedLoose(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case uint64:
		return t, true
	case uint32:
		return uint64(t), true
	case string:
		uv, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return uv, true
	default:
		iv, ok := asInteger(v)
		if !ok || iv < 0 {
			return 0, false
		}
		return uint64(iv), true
	}
}

// longFromValue keeps full 64-bit precision, so decimal strings convert
// via ParseInt rather than through a float.
func longFromValue(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case uint64:
		return int64(t), true
	case string:
		iv, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return iv, true
	default:
		return asInteger(v)
	}
}

func ulongFromValue(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case uint64:
		return t, true
	case uint32:
		return uint64(t), true
	case string:
		uv, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return uv, true
	default:
		iv, ok := asInteger(v)
		if !ok || iv < 0 {
			return 0, false
		}
		return uint64(iv), true
	}
}
