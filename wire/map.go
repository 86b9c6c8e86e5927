package wire

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/protodyn/protodyn/schema"
)

// MapDecoder handles map decoding operations
type MapDecoder struct {
	decoder *Decoder
}

// MapEncoder handles map encoding operations
type MapEncoder struct {
	encoder *Encoder
}

// NewMapDecoder creates a new map decoder
func NewMapDecoder(d *Decoder) *MapDecoder {
	return &MapDecoder{decoder: d}
}

// NewMapEncoder creates a new map encoder
func NewMapEncoder(e *Encoder) *MapEncoder {
	return &MapEncoder{encoder: e}
}

// DECODER METHODS

// DecodeMapEntry decodes one synthetic map entry (key field 1, value
// field 2). Missing key or value fields yield their zero values. Keys
// are surfaced as strings, matching the plain-object boundary.
func (md *MapDecoder) DecodeMapEntry(keyType, valueType *schema.FieldType) (string, interface{}, error) {
	bd := NewBytesDecoder(md.decoder)
	entryBytes, err := bd.DecodeBytes()
	if err != nil {
		return "", nil, err
	}

	entryDecoder := NewDecoderWithRegistry(entryBytes, md.decoder.registry)

	key := formatMapKey(zeroMapKey(keyType))
	value := zeroMapValue(valueType)

	for entryDecoder.pos < len(entryDecoder.buf) {
		tag, err := entryDecoder.DecodeVarint()
		if err != nil {
			return "", nil, err
		}

		fieldNumber, wireType := ParseTag(Tag(tag))

		switch fieldNumber {
		case 1:
			rawKey, err := entryDecoder.DecodeTypedField(keyType, wireType)
			if err != nil {
				return "", nil, fmt.Errorf("failed to decode map key: %w", err)
			}
			key = formatMapKey(rawKey)
		case 2:
			value, err = entryDecoder.DecodeTypedField(valueType, wireType)
			if err != nil {
				return "", nil, fmt.Errorf("failed to decode map value: %w", err)
			}
		default:
			if err := entryDecoder.skipField(wireType); err != nil {
				return "", nil, err
			}
		}
	}

	return key, value, nil
}

// ENCODER METHODS

// EncodeMap encodes a complete map as one tagged synthetic entry per
// key. Keys are written in sorted order so encoding is deterministic.
func (me *MapEncoder) EncodeMap(mapData map[string]interface{}, keyType, valueType *schema.FieldType, fieldNumber int32) error {
	keys := make([]string, 0, len(mapData))
	for k := range mapData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ve := NewVarintEncoder(me.encoder)
	for _, key := range keys {
		ve.EncodeTag(FieldNumber(fieldNumber), WireBytes)
		if err := me.EncodeMapEntry(key, mapData[key], keyType, valueType); err != nil {
			return err
		}
	}
	return nil
}

// EncodeMapEntry encodes a single key-value pair as a length-delimited
// synthetic submessage.
func (me *MapEncoder) EncodeMapEntry(key string, value interface{}, keyType, valueType *schema.FieldType) error {
	entry := NewEncoderWithRegistry(me.encoder.registry)
	entryME := NewMessageEncoder(entry)

	typedKey, err := parseMapKey(key, keyType)
	if err != nil {
		return fmt.Errorf("failed to encode map key: %w", err)
	}

	ve := NewVarintEncoder(entry)
	ve.EncodeTag(FieldNumber(1), wireTypeFor(keyType))
	if err := entryME.encodeFieldValue(typedKey, keyType); err != nil {
		return fmt.Errorf("failed to encode map key: %w", err)
	}

	ve.EncodeTag(FieldNumber(2), wireTypeFor(valueType))
	if err := entryME.encodeFieldValue(value, valueType); err != nil {
		return fmt.Errorf("failed to encode map value: %w", err)
	}

	NewBytesEncoder(me.encoder).EncodeBytes(entry.Bytes())
	return nil
}

// KEY AND ZERO-VALUE HELPERS

// formatMapKey renders a decoded key value as its string form.
func formatMapKey(key interface{}) string {
	switch k := key.(type) {
	case string:
		return k
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint32:
		return strconv.FormatUint(uint64(k), 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	case bool:
		return strconv.FormatBool(k)
	default:
		return fmt.Sprintf("%v", k)
	}
}

// parseMapKey converts a string key back to the typed value the key
// field expects on the wire.
func parseMapKey(key string, keyType *schema.FieldType) (interface{}, error) {
	if keyType.Kind != schema.KindPrimitive {
		return nil, fmt.Errorf("map key must be a scalar type, got %s", keyType.Kind)
	}
	switch keyType.PrimitiveType {
	case schema.TypeString:
		return key, nil
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		v, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return strconv.ParseInt(key, 10, 64)
	case schema.TypeUint32, schema.TypeFixed32:
		v, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, err
		}
		return uint32(v), nil
	case schema.TypeUint64, schema.TypeFixed64:
		return strconv.ParseUint(key, 10, 64)
	case schema.TypeBool:
		return strconv.ParseBool(key)
	default:
		return nil, fmt.Errorf("unsupported map key type: %s", keyType.PrimitiveType)
	}
}

// zeroMapKey returns the implicit default for an absent key field.
func zeroMapKey(keyType *schema.FieldType) interface{} {
	if keyType.Kind != schema.KindPrimitive {
		return ""
	}
	return zeroPrimitive(keyType.PrimitiveType)
}

// zeroMapValue returns the implicit default for an absent value field.
func zeroMapValue(valueType *schema.FieldType) interface{} {
	switch valueType.Kind {
	case schema.KindPrimitive:
		return zeroPrimitive(valueType.PrimitiveType)
	case schema.KindEnum:
		return int32(0)
	case schema.KindMessage:
		return map[string]interface{}{}
	default:
		return nil
	}
}

// zeroPrimitive returns the proto3 zero value for a scalar type.
func zeroPrimitive(primitiveType schema.PrimitiveType) interface{} {
	switch primitiveType {
	case schema.TypeString:
		return ""
	case schema.TypeBytes:
		return []byte{}
	case schema.TypeBool:
		return false
	case schema.TypeFloat:
		return float32(0)
	case schema.TypeDouble:
		return float64(0)
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return int32(0)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return int64(0)
	case schema.TypeUint32, schema.TypeFixed32:
		return uint32(0)
	case schema.TypeUint64, schema.TypeFixed64:
		return uint64(0)
	default:
		return nil
	}
}
