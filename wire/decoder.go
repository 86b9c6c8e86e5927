package wire

import (
	"fmt"

	"github.com/protodyn/protodyn/registry"
	"github.com/protodyn/protodyn/schema"
)

// Decoder handles low-level protobuf wire format decoding. A Decoder
// owns a monotonically-advancing cursor over one buffer for one decode
// call; nested decodes are bounded to the window computed from the
// outer length prefix.
type Decoder struct {
	buf      []byte
	pos      int
	registry *registry.Registry
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf: data,
		pos: 0,
	}
}

// NewDecoderWithRegistry creates a decoder with schema registry
func NewDecoderWithRegistry(data []byte, registry *registry.Registry) *Decoder {
	return &Decoder{
		buf:      data,
		pos:      0,
		registry: registry,
	}
}

// DecodeMessage decodes protobuf bytes using schema - main entry point
func DecodeMessage(data []byte, msg *schema.Message, registry *registry.Registry) (map[string]interface{}, error) {
	decoder := NewDecoderWithRegistry(data, registry)
	return decoder.DecodeWithSchema(msg)
}

// DecodeWithSchema decodes the remaining buffer as one message of the
// given schema. Unknown fields are skipped by wire type; a malformed
// buffer aborts the whole decode.
func (d *Decoder) DecodeWithSchema(msg *schema.Message) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for d.pos < len(d.buf) {
		tag, err := d.DecodeVarint()
		if err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
		}

		fieldNumber, wireType := ParseTag(Tag(tag))

		field := msg.FieldByNumber(int32(fieldNumber))
		if field == nil {
			// Unknown field - skip it using its wire type's length rule
			if err := d.skipField(wireType); err != nil {
				return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
			}
			continue
		}

		if err := d.decodeField(result, field, wireType); err != nil {
			return nil, wrapWithField(err, field.Name)
		}
	}

	return result, nil
}

// decodeField decodes one occurrence of a known field and merges it into
// the result map according to the field's cardinality.
func (d *Decoder) decodeField(result map[string]interface{}, field *schema.Field, wireType WireType) error {
	if field.Type.Kind == schema.KindMap {
		if wireType != WireBytes {
			return fmt.Errorf("map entry must use wire type bytes, got %d", wireType)
		}
		md := NewMapDecoder(d)
		key, value, err := md.DecodeMapEntry(field.Type.MapKey, field.Type.MapValue)
		if err != nil {
			return err
		}
		m, ok := result[field.Name].(map[string]interface{})
		if !ok {
			m = make(map[string]interface{})
			result[field.Name] = m
		}
		// Last writer wins on duplicate keys
		m[key] = value
		return nil
	}

	if field.Label == schema.LabelRepeated {
		list, _ := result[field.Name].([]interface{})
		list, err := d.decodeRepeatedElement(list, &field.Type, wireType)
		if err != nil {
			return err
		}
		result[field.Name] = list
		return nil
	}

	value, err := d.DecodeTypedField(&field.Type, wireType)
	if err != nil {
		return err
	}
	result[field.Name] = value
	return nil
}

// decodeRepeatedElement appends the values carried by one tag occurrence
// of a repeated field. A length-delimited tag on a packed-eligible
// element type introduces a packed run; the element's natural wire type
// introduces a single unpacked legacy value.
func (d *Decoder) decodeRepeatedElement(list []interface{}, fieldType *schema.FieldType, wireType WireType) ([]interface{}, error) {
	packable := fieldType.Kind == schema.KindEnum ||
		(fieldType.Kind == schema.KindPrimitive && schema.IsPackedType(fieldType.PrimitiveType))

	if packable && wireType == WireBytes {
		bd := NewBytesDecoder(d)
		run, err := bd.DecodeBytes()
		if err != nil {
			return nil, fmt.Errorf("failed to decode packed run: %w", err)
		}
		elemWire := wireTypeFor(fieldType)
		sub := NewDecoderWithRegistry(run, d.registry)
		for sub.pos < len(sub.buf) {
			value, err := sub.DecodeTypedField(fieldType, elemWire)
			if err != nil {
				return nil, fmt.Errorf("failed to decode packed element: %w", err)
			}
			list = append(list, value)
		}
		return list, nil
	}

	value, err := d.DecodeTypedField(fieldType, wireType)
	if err != nil {
		return nil, err
	}
	return append(list, value), nil
}

// DecodeTypedField routes to the appropriate decoder based on field type
func (d *Decoder) DecodeTypedField(fieldType *schema.FieldType, wireType WireType) (interface{}, error) {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return d.decodePrimitive(fieldType.PrimitiveType, wireType)
	case schema.KindMessage:
		if wireType != WireBytes {
			return nil, fmt.Errorf("message must use wire type bytes, got %d", wireType)
		}
		md := NewMessageDecoder(d)
		return md.DecodeMessage(fieldType.MessageType)
	case schema.KindEnum:
		if wireType != WireVarint {
			return nil, fmt.Errorf("enum must use wire type varint, got %d", wireType)
		}
		vd := NewVarintDecoder(d)
		return vd.DecodeEnum()
	default:
		return nil, fmt.Errorf("unsupported field kind: %s", fieldType.Kind)
	}
}

// decodePrimitive decodes a primitive value, checking the wire type on
// the tag against the type's natural encoding.
func (d *Decoder) decodePrimitive(primitiveType schema.PrimitiveType, wireType WireType) (interface{}, error) {
	expected := primitiveWireType(primitiveType)
	if wireType != expected {
		return nil, fmt.Errorf("invalid wire type %d for primitive %s", wireType, primitiveType)
	}

	switch wireType {
	case WireVarint:
		vd := NewVarintDecoder(d)
		rawValue, err := vd.DecodeVarint()
		if err != nil {
			return nil, err
		}
		switch primitiveType {
		case schema.TypeInt32:
			return int32(rawValue), nil
		case schema.TypeInt64:
			return int64(rawValue), nil
		case schema.TypeUint32:
			return uint32(rawValue), nil
		case schema.TypeUint64:
			return rawValue, nil
		case schema.TypeSint32:
			return DecodeZigZag32(rawValue), nil
		case schema.TypeSint64:
			return DecodeZigZag64(rawValue), nil
		case schema.TypeBool:
			return rawValue != 0, nil
		default:
			return rawValue, nil
		}
	case WireFixed32:
		fd := NewFixedDecoder(d)
		switch primitiveType {
		case schema.TypeFloat:
			return fd.DecodeFloat32()
		case schema.TypeSfixed32:
			return fd.DecodeSfixed32()
		default:
			return fd.DecodeFixed32()
		}
	case WireFixed64:
		fd := NewFixedDecoder(d)
		switch primitiveType {
		case schema.TypeDouble:
			return fd.DecodeFloat64()
		case schema.TypeSfixed64:
			return fd.DecodeSfixed64()
		default:
			return fd.DecodeFixed64()
		}
	case WireBytes:
		bd := NewBytesDecoder(d)
		rawValue, err := bd.DecodeBytes()
		if err != nil {
			return nil, err
		}
		if primitiveType == schema.TypeString {
			return string(rawValue), nil
		}
		return rawValue, nil
	default:
		return nil, fmt.Errorf("invalid wire type %d for primitive %s", wireType, primitiveType)
	}
}

// skipField skips a field based on wire type
func (d *Decoder) skipField(wireType WireType) error {
	switch wireType {
	case WireVarint:
		vd := NewVarintDecoder(d)
		return vd.SkipVarint()
	case WireFixed64:
		if d.pos+8 > len(d.buf) {
			return ErrUnexpectedEOF
		}
		d.pos += 8
		return nil
	case WireBytes:
		bd := NewBytesDecoder(d)
		return bd.SkipBytes()
	case WireFixed32:
		if d.pos+4 > len(d.buf) {
			return ErrUnexpectedEOF
		}
		d.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}

// DecodeRaw decodes protobuf bytes without schema information, surfacing
// each field occurrence under a "field_N" key with its wire type. Later
// occurrences of the same field number overwrite earlier ones.
func DecodeRaw(data []byte) (map[string]interface{}, error) {
	d := NewDecoder(data)
	result := make(map[string]interface{})

	for d.pos < len(d.buf) {
		tag, err := d.DecodeVarint()
		if err != nil {
			return nil, err
		}
		fieldNumber, wireType := ParseTag(Tag(tag))

		value, err := d.decodeRawValue(wireType)
		if err != nil {
			return nil, err
		}

		result[fmt.Sprintf("field_%d", fieldNumber)] = map[string]interface{}{
			"type":  wireTypeName(wireType),
			"value": value,
		}
	}
	return result, nil
}

// decodeRawValue decodes without type information
func (d *Decoder) decodeRawValue(wireType WireType) (interface{}, error) {
	switch wireType {
	case WireVarint:
		vd := NewVarintDecoder(d)
		return vd.DecodeVarint()
	case WireFixed64:
		fd := NewFixedDecoder(d)
		return fd.DecodeFixed64()
	case WireBytes:
		bd := NewBytesDecoder(d)
		return bd.DecodeBytes()
	case WireFixed32:
		fd := NewFixedDecoder(d)
		return fd.DecodeFixed32()
	default:
		return nil, fmt.Errorf("unknown wire type: %d", wireType)
	}
}

func wireTypeName(wireType WireType) string {
	switch wireType {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireFixed32:
		return "fixed32"
	default:
		return "unknown"
	}
}
