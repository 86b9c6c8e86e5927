package schema

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name     string     `json:"name"`     // file.proto
	Package  string     `json:"package"`  // package name
	Syntax   string     `json:"syntax"`   // proto2 or proto3
	Imports  []*Import  `json:"imports"`  // imported files
	Messages []*Message `json:"messages"` // message definitions
	Enums    []*Enum    `json:"enums"`    // enum definitions
	Services []*Service `json:"services"` // service definitions
}

// Import represents an import statement
type Import struct {
	Path   string `json:"path"`   // "search/request.proto"
	Public bool   `json:"public"` // public import
	Weak   bool   `json:"weak"`   // weak import
}

// Message represents a protobuf message definition
type Message struct {
	Name        string     `json:"name"`         // "SearchDocsRequest"
	Fields      []*Field   `json:"fields"`       // message fields
	NestedTypes []*Message `json:"nested_types"` // nested messages
	NestedEnums []*Enum    `json:"nested_enums"` // nested enums
	OneofGroups []*Oneof   `json:"oneof_groups"` // oneof groups
	MapEntry    bool       `json:"map_entry"`    // is this a synthetic map entry?
}

// FieldByNumber returns the field with the given wire number, searching
// oneof groups as well, or nil when the number is not part of the schema.
func (m *Message) FieldByNumber(number int32) *Field {
	for _, f := range m.Fields {
		if f.Number == number {
			return f
		}
	}
	for _, group := range m.OneofGroups {
		for _, f := range group.Fields {
			if f.Number == number {
				return f
			}
		}
	}
	return nil
}

// FieldByName returns the field with the given name, searching oneof
// groups as well, or nil when the name is not part of the schema.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	for _, group := range m.OneofGroups {
		for _, f := range group.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// AllFields returns every field of the message including oneof members,
// in declaration order.
func (m *Message) AllFields() []*Field {
	fields := make([]*Field, 0, len(m.Fields))
	fields = append(fields, m.Fields...)
	for _, group := range m.OneofGroups {
		fields = append(fields, group.Fields...)
	}
	return fields
}

// Field represents a message field
type Field struct {
	Name       string     `json:"name"`        // "document_types"
	Number     int32      `json:"number"`      // 1
	Label      FieldLabel `json:"label"`       // optional, repeated
	Type       FieldType  `json:"type"`        // field type information
	JsonName   string     `json:"json_name"`   // JSON field name
	OneofIndex int32      `json:"oneof_index"` // oneof group index (-1 if not in oneof)
}

// Oneof represents a oneof group
type Oneof struct {
	Name   string   `json:"name"`   // "filter"
	Fields []*Field `json:"fields"` // fields in this oneof
}

// FieldLabel represents field labels
type FieldLabel string

const (
	LabelOptional FieldLabel = "optional"
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message, enum, map
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message types: "DocumentSummary"
	EnumType      string        `json:"enum_type,omitempty"`      // for enum types
	MapKey        *FieldType    `json:"map_key,omitempty"`        // for map key type
	MapValue      *FieldType    `json:"map_value,omitempty"`      // for map value type
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindMessage   TypeKind = "message"
	KindEnum      TypeKind = "enum"
	KindMap       TypeKind = "map"
)

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var packedEligible = map[PrimitiveType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPackedType checks and returns if the Primitive type is packed for repeated label
func IsPackedType(t PrimitiveType) bool {
	_, ok := packedEligible[t]
	return ok
}

// IsPrimitiveType reports whether the given type name is a protobuf scalar.
func IsPrimitiveType(name string) bool {
	if _, ok := packedEligible[PrimitiveType(name)]; ok {
		return true
	}
	return name == string(TypeString) || name == string(TypeBytes)
}

// Enum represents an enum definition
type Enum struct {
	Name       string       `json:"name"`        // "DocumentType"
	Values     []*EnumValue `json:"values"`      // enum values
	AllowAlias bool         `json:"allow_alias"` // allow_alias option
}

// ValueByName returns the ordinal for a symbolic name, with ok reporting
// whether the name is part of the enum.
func (e *Enum) ValueByName(name string) (int32, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v.Number, true
		}
	}
	return 0, false
}

// NameByValue returns the symbolic name for an ordinal, with ok reporting
// whether the ordinal is part of the enum. With allow_alias the first
// declared name wins.
func (e *Enum) NameByValue(number int32) (string, bool) {
	for _, v := range e.Values {
		if v.Number == number {
			return v.Name, true
		}
	}
	return "", false
}

// EnumValue represents an enum value
type EnumValue struct {
	Name     string `json:"name"`      // "DOCUMENT_TYPE_PDF"
	Number   int32  `json:"number"`    // 1
	JsonName string `json:"json_name"` // JSON field name
}

// Service represents a service definition
type Service struct {
	Name    string    `json:"name"`    // "SearchService"
	Methods []*Method `json:"methods"` // service methods
}

// Method represents a service method
type Method struct {
	Name            string `json:"name"`             // "SearchDocs"
	InputType       string `json:"input_type"`       // "SearchDocsRequest"
	OutputType      string `json:"output_type"`      // "SearchDocsResponse"
	ClientStreaming bool   `json:"client_streaming"` // stream input
	ServerStreaming bool   `json:"server_streaming"` // stream output
}
