package wire

import (
	"fmt"
	"sort"

	"github.com/protodyn/protodyn/schema"
)

// MessageDecoder handles message decoding operations
type MessageDecoder struct {
	decoder *Decoder
}

// MessageEncoder handles message encoding operations
type MessageEncoder struct {
	encoder *Encoder
}

// NewMessageDecoder creates a new message decoder
func NewMessageDecoder(d *Decoder) *MessageDecoder {
	return &MessageDecoder{decoder: d}
}

// NewMessageEncoder creates a new message encoder
func NewMessageEncoder(e *Encoder) *MessageEncoder {
	return &MessageEncoder{encoder: e}
}

// DECODER METHODS

// DecodeMessage decodes a nested message. The submessage is bounded to
// the byte window announced by its length prefix; a failure inside it
// propagates to the caller.
func (md *MessageDecoder) DecodeMessage(messageType string) (interface{}, error) {
	bd := NewBytesDecoder(md.decoder)
	messageBytes, err := bd.DecodeBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to decode message bytes: %w", err)
	}

	if md.decoder.registry == nil {
		// No registry available, return raw bytes
		return messageBytes, nil
	}

	msg, err := md.decoder.registry.GetMessage(messageType)
	if err != nil {
		// Schema not found, return raw bytes
		return messageBytes, nil
	}

	nestedDecoder := NewDecoderWithRegistry(messageBytes, md.decoder.registry)
	return nestedDecoder.DecodeWithSchema(msg)
}

// ENCODER METHODS

// EncodeMessage encodes a message with the given data. Fields are
// written in ascending field-number order; absent and nil fields are
// omitted from the wire.
func (me *MessageEncoder) EncodeMessage(data map[string]interface{}, msg *schema.Message) error {
	fields := msg.AllFields()
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Number < fields[j].Number
	})

	for _, field := range fields {
		value, present := data[field.Name]
		if !present || value == nil {
			continue
		}

		if err := me.encodeField(value, field); err != nil {
			return wrapWithField(err, field.Name)
		}
	}
	return nil
}

// encodeField writes one field, dispatching on kind and cardinality.
func (me *MessageEncoder) encodeField(value interface{}, field *schema.Field) error {
	if field.Type.Kind == schema.KindMap {
		return me.encodeMapField(value, field)
	}
	if field.Label == schema.LabelRepeated {
		return me.encodeRepeatedField(value, field)
	}

	ve := NewVarintEncoder(me.encoder)
	ve.EncodeTag(FieldNumber(field.Number), wireTypeFor(&field.Type))
	return me.encodeFieldValue(value, &field.Type)
}

// encodeRepeatedField encodes a repeated field. Packed-eligible element
// types are emitted as one length-delimited run; everything else gets
// one tag per element. Decoders must keep accepting the unpacked form,
// but the encoder always emits packed where the format allows it.
func (me *MessageEncoder) encodeRepeatedField(value interface{}, field *schema.Field) error {
	slice, err := toInterfaceSlice(value)
	if err != nil {
		return err
	}
	if len(slice) == 0 {
		return nil
	}

	packable := field.Type.Kind == schema.KindEnum ||
		(field.Type.Kind == schema.KindPrimitive && schema.IsPackedType(field.Type.PrimitiveType))

	ve := NewVarintEncoder(me.encoder)

	if packable {
		run := NewEncoderWithRegistry(me.encoder.registry)
		runME := NewMessageEncoder(run)
		for _, element := range slice {
			if err := runME.encodeFieldValue(element, &field.Type); err != nil {
				return fmt.Errorf("failed to encode packed element: %w", err)
			}
		}
		ve.EncodeTag(FieldNumber(field.Number), WireBytes)
		me.encoder.EncodeBytes(run.Bytes())
		return nil
	}

	wireType := wireTypeFor(&field.Type)
	for _, element := range slice {
		ve.EncodeTag(FieldNumber(field.Number), wireType)
		if err := me.encodeFieldValue(element, &field.Type); err != nil {
			return fmt.Errorf("failed to encode repeated element: %w", err)
		}
	}
	return nil
}

// encodeFieldValue encodes a single value of the given type, without a tag.
func (me *MessageEncoder) encodeFieldValue(value interface{}, fieldType *schema.FieldType) error {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return me.encodePrimitiveField(value, fieldType.PrimitiveType)
	case schema.KindMessage:
		return me.encodeMessageField(value, fieldType.MessageType)
	case schema.KindEnum:
		return me.encodeEnumField(value, fieldType.EnumType)
	default:
		return fmt.Errorf("unsupported field kind: %s", fieldType.Kind)
	}
}

// encodePrimitiveField encodes a primitive field value
func (me *MessageEncoder) encodePrimitiveField(value interface{}, primitiveType schema.PrimitiveType) error {
	switch primitiveType {
	case schema.TypeString:
		s, err := coerceToString(value)
		if err != nil {
			return err
		}
		NewBytesEncoder(me.encoder).EncodeString(s)
	case schema.TypeBytes:
		b, err := coerceToBytes(value)
		if err != nil {
			return err
		}
		NewBytesEncoder(me.encoder).EncodeBytes(b)
	case schema.TypeInt32:
		v, err := coerceToInt64(value)
		if err != nil {
			return err
		}
		NewVarintEncoder(me.encoder).EncodeInt32(int32(v))
	case schema.TypeInt64:
		v, err := coerceToInt64(value)
		if err != nil {
			return err
		}
		NewVarintEncoder(me.encoder).EncodeInt64(v)
	case schema.TypeUint32:
		v, err := coerceToUint64(value)
		if err != nil {
			return err
		}
		NewVarintEncoder(me.encoder).EncodeUint32(uint32(v))
	case schema.TypeUint64:
		v, err := coerceToUint64(value)
		if err != nil {
			return err
		}
		NewVarintEncoder(me.encoder).EncodeUint64(v)
	case schema.TypeSint32:
		v, err := coerceToInt64(value)
		if err != nil {
			return err
		}
		NewVarintEncoder(me.encoder).EncodeSint32(int32(v))
	case schema.TypeSint64:
		v, err := coerceToInt64(value)
		if err != nil {
			return err
		}
		NewVarintEncoder(me.encoder).EncodeSint64(v)
	case schema.TypeBool:
		b, err := coerceToBool(value)
		if err != nil {
			return err
		}
		NewVarintEncoder(me.encoder).EncodeBool(b)
	case schema.TypeFloat:
		f, err := coerceToFloat64(value)
		if err != nil {
			return err
		}
		NewFixedEncoder(me.encoder).EncodeFloat32(float32(f))
	case schema.TypeDouble:
		f, err := coerceToFloat64(value)
		if err != nil {
			return err
		}
		NewFixedEncoder(me.encoder).EncodeFloat64(f)
	case schema.TypeFixed32:
		v, err := coerceToUint64(value)
		if err != nil {
			return err
		}
		NewFixedEncoder(me.encoder).EncodeFixed32(uint32(v))
	case schema.TypeFixed64:
		v, err := coerceToUint64(value)
		if err != nil {
			return err
		}
		NewFixedEncoder(me.encoder).EncodeFixed64(v)
	case schema.TypeSfixed32:
		v, err := coerceToInt64(value)
		if err != nil {
			return err
		}
		NewFixedEncoder(me.encoder).EncodeSfixed32(int32(v))
	case schema.TypeSfixed64:
		v, err := coerceToInt64(value)
		if err != nil {
			return err
		}
		NewFixedEncoder(me.encoder).EncodeSfixed64(v)
	default:
		return fmt.Errorf("unsupported primitive type: %s", primitiveType)
	}
	return nil
}

// encodeMessageField encodes a nested message field by recursively
// encoding into a scoped frame and closing it with a length prefix.
func (me *MessageEncoder) encodeMessageField(value interface{}, messageTypeName string) error {
	// Pre-encoded submessages pass through untouched
	if messageBytes, ok := value.([]byte); ok {
		NewBytesEncoder(me.encoder).EncodeBytes(messageBytes)
		return nil
	}

	messageData, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("message value must be map[string]interface{} or []byte, got %T", value)
	}

	if me.encoder.registry == nil {
		return fmt.Errorf("registry is required to encode message fields")
	}

	messageSchema, err := me.encoder.registry.GetMessage(messageTypeName)
	if err != nil {
		return fmt.Errorf("failed to get message schema for %s: %w", messageTypeName, err)
	}

	nested := NewEncoderWithRegistry(me.encoder.registry)
	if err := NewMessageEncoder(nested).EncodeMessage(messageData, messageSchema); err != nil {
		return err
	}

	NewBytesEncoder(me.encoder).EncodeBytes(nested.Bytes())
	return nil
}

// encodeEnumField encodes an enum field from an ordinal or, when the
// registry knows the enum, from its symbolic name.
func (me *MessageEncoder) encodeEnumField(value interface{}, enumTypeName string) error {
	if name, ok := value.(string); ok {
		if me.encoder.registry == nil {
			return fmt.Errorf("registry is required to resolve enum name %q", name)
		}
		enum, err := me.encoder.registry.GetEnum(enumTypeName)
		if err != nil {
			return err
		}
		ordinal, ok := enum.ValueByName(name)
		if !ok {
			return fmt.Errorf("unknown value %q for enum %s", name, enum.Name)
		}
		NewVarintEncoder(me.encoder).EncodeEnum(ordinal)
		return nil
	}

	ordinal, err := coerceToInt64(value)
	if err != nil {
		return fmt.Errorf("enum value must be an ordinal or name: %w", err)
	}
	NewVarintEncoder(me.encoder).EncodeEnum(int32(ordinal))
	return nil
}

// encodeMapField encodes a map field as repeated synthetic entries
func (me *MessageEncoder) encodeMapField(value interface{}, field *schema.Field) error {
	mapData, err := toStringKeyedMap(value)
	if err != nil {
		return err
	}
	mapEncoder := NewMapEncoder(me.encoder)
	return mapEncoder.EncodeMap(mapData, field.Type.MapKey, field.Type.MapValue, field.Number)
}

// UTILITY METHODS

// wireTypeFor returns the natural wire type for a field type
func wireTypeFor(fieldType *schema.FieldType) WireType {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return primitiveWireType(fieldType.PrimitiveType)
	case schema.KindMessage, schema.KindMap:
		return WireBytes
	case schema.KindEnum:
		return WireVarint
	default:
		return WireVarint
	}
}

// primitiveWireType returns the natural wire type for a scalar type
func primitiveWireType(primitiveType schema.PrimitiveType) WireType {
	switch primitiveType {
	case schema.TypeString, schema.TypeBytes:
		return WireBytes
	case schema.TypeFloat, schema.TypeFixed32, schema.TypeSfixed32:
		return WireFixed32
	case schema.TypeDouble, schema.TypeFixed64, schema.TypeSfixed64:
		return WireFixed64
	default:
		return WireVarint
	}
}

// Convenience methods for direct access

// DecodeMessage - convenience method for main decoder
func (d *Decoder) DecodeMessage(messageType string) (interface{}, error) {
	md := NewMessageDecoder(d)
	return md.DecodeMessage(messageType)
}

// EncodeMessage - convenience method for main encoder
func (e *Encoder) EncodeMessage(data map[string]interface{}, msg *schema.Message) error {
	me := NewMessageEncoder(e)
	return me.EncodeMessage(data, msg)
}
