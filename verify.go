package protodyn

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/protodyn/protodyn/schema"
)

// Verify structurally checks a plain object against a message schema
// before encoding. It returns nil when the object is valid and an error
// whose message names the failing field by its dot-joined path
// otherwise (e.g. "documents.0.metadata: object expected"). Verify
// never mutates its input and never panics, whatever shape it is given;
// absent fields are always valid.
func (p *Protodyn) Verify(v interface{}, messageType string) error {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return fmt.Errorf("message type not found: %s", messageType)
	}
	return p.verifyMessage(v, msg, "")
}

func (p *Protodyn) verifyMessage(v interface{}, msg *schema.Message, path string) error {
	obj, ok := v.(map[string]interface{})
	if !ok || obj == nil {
		return verifyError(path, "object expected")
	}

	for _, field := range msg.AllFields() {
		value, present := obj[field.Name]
		if !present || value == nil {
			continue
		}
		fieldPath := joinPath(path, field.Name)

		if field.Type.Kind == schema.KindMap {
			m, ok := asStringMap(value)
			if !ok {
				return verifyError(fieldPath, "object expected")
			}
			for key, entry := range m {
				if err := p.verifyValue(entry, field.Type.MapValue, joinPath(fieldPath, key)); err != nil {
					return err
				}
			}
			continue
		}

		if field.Label == schema.LabelRepeated {
			list, ok := asList(value)
			if !ok {
				return verifyError(fieldPath, "array expected")
			}
			for i, element := range list {
				if err := p.verifyValue(element, &field.Type, joinPath(fieldPath, strconv.Itoa(i))); err != nil {
					return err
				}
			}
			continue
		}

		if err := p.verifyValue(value, &field.Type, fieldPath); err != nil {
			return err
		}
	}
	return nil
}

func (p *Protodyn) verifyValue(v interface{}, fieldType *schema.FieldType, path string) error {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return verifyPrimitive(v, fieldType.PrimitiveType, path)
	case schema.KindEnum:
		return p.verifyEnum(v, fieldType.EnumType, path)
	case schema.KindMessage:
		msg, err := p.registry.GetMessage(fieldType.MessageType)
		if err != nil {
			return verifyError(path, "unknown message type "+fieldType.MessageType)
		}
		return p.verifyMessage(v, msg, path)
	default:
		return verifyError(path, "unsupported field kind "+string(fieldType.Kind))
	}
}

func (p *Protodyn) verifyEnum(v interface{}, enumType, path string) error {
	enum, err := p.registry.GetEnum(enumType)
	if err != nil {
		return verifyError(path, "unknown enum type "+enumType)
	}
	ordinal, ok := asInteger(v)
	if !ok {
		return verifyError(path, "enum value expected")
	}
	if _, ok := enum.NameByValue(int32(ordinal)); !ok {
		return verifyError(path, "enum value expected")
	}
	return nil
}

func verifyPrimitive(v interface{}, primitiveType schema.PrimitiveType, path string) error {
	switch primitiveType {
	case schema.TypeString:
		if _, ok := v.(string); !ok {
			return verifyError(path, "string expected")
		}
	case schema.TypeBool:
		if _, ok := v.(bool); !ok {
			return verifyError(path, "boolean expected")
		}
	case schema.TypeBytes:
		switch v.(type) {
		case []byte, string:
		default:
			return verifyError(path, "buffer expected")
		}
	case schema.TypeFloat, schema.TypeDouble:
		if !isNumber(v) {
			return verifyError(path, "number expected")
		}
	default:
		// all remaining scalars are integer kinds
		if _, ok := asInteger(v); !ok {
			return verifyError(path, "integer expected")
		}
	}
	return nil
}

func verifyError(path, reason string) error {
	if path == "" {
		return fmt.Errorf("%s", reason)
	}
	return fmt.Errorf("%s: %s", path, reason)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// SHAPE HELPERS shared with the conversion layer

// asList normalizes slice shapes to []interface{} without copying the
// elements themselves.
func asList(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []map[string]interface{}:
		return genericList(t), true
	case []string:
		return genericList(t), true
	case []int32:
		return genericList(t), true
	case []int64:
		return genericList(t), true
	case []uint32:
		return genericList(t), true
	case []uint64:
		return genericList(t), true
	case []bool:
		return genericList(t), true
	case []float32:
		return genericList(t), true
	case []float64:
		return genericList(t), true
	default:
		return nil, false
	}
}

func genericList[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// asStringMap normalizes map shapes to map[string]interface{}.
func asStringMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[string]string:
		return genericStringMap(t), true
	case map[string]int32:
		return genericStringMap(t), true
	case map[string]int64:
		return genericStringMap(t), true
	case map[string]float64:
		return genericStringMap(t), true
	case map[string]bool:
		return genericStringMap(t), true
	default:
		return nil, false
	}
}

func genericStringMap[T any](in map[string]T) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// asInteger reports whether v carries an integral value, returning it
// as int64. Floats qualify only when they are integral; strings do not
// qualify (verify is stricter than FromObject).
func asInteger(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		iv, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return iv, true
	default:
		return 0, false
	}
}

func isNumber(v interface{}) bool {
	switch t := v.(type) {
	case float32, float64, int, int32, int64, uint32, uint64:
		return true
	case json.Number:
		_, err := t.Float64()
		return err == nil
	default:
		return false
	}
}
