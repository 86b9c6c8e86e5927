package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/protodyn/protodyn/schema"
)

func scalarMessage() *schema.Message {
	return &schema.Message{
		Name: "ScalarSample",
		Fields: []*schema.Field{
			{Name: "test_int32", Number: 1, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeInt32}},
			{Name: "test_int64", Number: 2, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeInt64}},
			{Name: "test_uint32", Number: 3, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeUint32}},
			{Name: "test_uint64", Number: 4, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeUint64}},
			{Name: "test_sint32", Number: 5, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeSint32}},
			{Name: "test_sint64", Number: 6, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeSint64}},
			{Name: "test_bool", Number: 7, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeBool}},
			{Name: "test_float", Number: 8, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeFloat}},
			{Name: "test_double", Number: 9, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeDouble}},
			{Name: "test_string", Number: 10, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}},
			{Name: "test_bytes", Number: 11, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeBytes}},
			{Name: "test_fixed32", Number: 12, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeFixed32}},
			{Name: "test_fixed64", Number: 13, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeFixed64}},
			{Name: "test_sfixed32", Number: 14, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeSfixed32}},
			{Name: "test_sfixed64", Number: 15, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeSfixed64}},
		},
	}
}

func TestDecoder_AllScalarTypes(t *testing.T) {
	msg := scalarMessage()

	testData := map[string]interface{}{
		"test_int32":    int32(-123),
		"test_int64":    int64(-456789),
		"test_uint32":   uint32(123),
		"test_uint64":   uint64(456789),
		"test_sint32":   int32(-64),
		"test_sint64":   int64(-1 << 40),
		"test_bool":     true,
		"test_float":    float32(3.14),
		"test_double":   float64(2.718281828),
		"test_string":   "Hello, protodyn!",
		"test_bytes":    []byte("binary data"),
		"test_fixed32":  uint32(0xDEADBEEF),
		"test_fixed64":  uint64(0xCAFEBABEDEADBEEF),
		"test_sfixed32": int32(-42),
		"test_sfixed64": int64(-99999999999),
	}

	encoded, err := EncodeMessage(testData, msg, nil)
	if err != nil {
		t.Fatalf("Failed to encode message: %v", err)
	}

	decoded, err := DecodeMessage(encoded, msg, nil)
	if err != nil {
		t.Fatalf("Failed to decode message: %v", err)
	}

	if diff := cmp.Diff(testData, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoder_AbsentFieldsStayAbsent(t *testing.T) {
	msg := scalarMessage()

	testData := map[string]interface{}{
		"test_string": "only me",
	}
	encoded, err := EncodeMessage(testData, msg, nil)
	if err != nil {
		t.Fatalf("Failed to encode message: %v", err)
	}

	decoded, err := DecodeMessage(encoded, msg, nil)
	if err != nil {
		t.Fatalf("Failed to decode message: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("expected 1 field, got %v", decoded)
	}
	if decoded["test_string"] != "only me" {
		t.Errorf("unexpected value: %v", decoded["test_string"])
	}
}

func TestDecoder_SkipsUnknownFields(t *testing.T) {
	msg := scalarMessage()

	testData := map[string]interface{}{
		"test_string": "known",
		"test_int32":  int32(7),
	}
	encoded, err := EncodeMessage(testData, msg, nil)
	if err != nil {
		t.Fatalf("Failed to encode message: %v", err)
	}

	// Append unrecognized field numbers, one per wire type
	extra := NewEncoder()
	ve := NewVarintEncoder(extra)
	ve.EncodeTag(FieldNumber(900), WireVarint)
	ve.EncodeVarint(12345)
	ve.EncodeTag(FieldNumber(901), WireFixed64)
	NewFixedEncoder(extra).EncodeFixed64(0xFFFFFFFFFFFFFFFF)
	ve.EncodeTag(FieldNumber(902), WireBytes)
	NewBytesEncoder(extra).EncodeString("future data")
	ve.EncodeTag(FieldNumber(903), WireFixed32)
	NewFixedEncoder(extra).EncodeFixed32(0xFFFFFFFF)

	decoded, err := DecodeMessage(append(encoded, extra.Bytes()...), msg, nil)
	if err != nil {
		t.Fatalf("Failed to decode message with unknown fields: %v", err)
	}

	want := map[string]interface{}{
		"test_string": "known",
		"test_int32":  int32(7),
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("unknown fields changed known result (-want +got):\n%s", diff)
	}
}

func TestDecoder_TruncatedBuffer(t *testing.T) {
	msg := scalarMessage()

	encoded, err := EncodeMessage(map[string]interface{}{"test_string": "truncate me"}, msg, nil)
	if err != nil {
		t.Fatalf("Failed to encode message: %v", err)
	}

	// Every proper prefix of a string field either cuts the payload or
	// the length prefix; both must fail, never panic.
	for i := 1; i < len(encoded); i++ {
		if _, err := DecodeMessage(encoded[:i], msg, nil); err == nil {
			t.Errorf("expected error decoding %d-byte prefix", i)
		}
	}
}

func TestDecoder_LengthPrefixOverrun(t *testing.T) {
	msg := scalarMessage()

	encoder := NewEncoder()
	ve := NewVarintEncoder(encoder)
	ve.EncodeTag(FieldNumber(10), WireBytes)
	ve.EncodeVarint(1000) // claims 1000 bytes, provides 3
	encoder.buf = append(encoder.buf, 'a', 'b', 'c')

	if _, err := DecodeMessage(encoder.Bytes(), msg, nil); err == nil {
		t.Error("expected error for overrunning length prefix")
	}
}

func TestDecoder_WireTypeMismatch(t *testing.T) {
	msg := scalarMessage()

	// test_int32 declared varint, delivered as fixed32
	encoder := NewEncoder()
	ve := NewVarintEncoder(encoder)
	ve.EncodeTag(FieldNumber(1), WireFixed32)
	NewFixedEncoder(encoder).EncodeFixed32(42)

	if _, err := DecodeMessage(encoder.Bytes(), msg, nil); err == nil {
		t.Error("expected error for mismatched wire type")
	}
}

func TestDecodeRaw(t *testing.T) {
	encoder := NewEncoder()
	ve := NewVarintEncoder(encoder)
	ve.EncodeTag(FieldNumber(1), WireVarint)
	ve.EncodeVarint(123)
	ve.EncodeTag(FieldNumber(2), WireBytes)
	NewBytesEncoder(encoder).EncodeString("hello")

	result, err := DecodeRaw(encoder.Bytes())
	if err != nil {
		t.Fatalf("DecodeRaw failed: %v", err)
	}

	want := map[string]interface{}{
		"field_1": map[string]interface{}{"type": "varint", "value": uint64(123)},
		"field_2": map[string]interface{}{"type": "bytes", "value": []byte("hello")},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("DecodeRaw mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRaw_Empty(t *testing.T) {
	result, err := DecodeRaw(nil)
	if err != nil {
		t.Fatalf("DecodeRaw failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
}
