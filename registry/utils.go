package registry

import (
	"fmt"
	"strings"

	"github.com/protodyn/protodyn/schema"
)

/*
resolveTypeName resolves a type reference written in a .proto file to a
fully qualified name. A leading dot forces fully qualified lookup;
otherwise resolution walks outward from the referencing scope, innermost
first, the way protoc resolves names.
Ref - https://github.com/protocolbuffers/protobuf/blob/b7a5772caf08d62a20fd1bca258f501fa4db022c/src/google/protobuf/descriptor.proto#L186-L191
*/
func (r *Registry) resolveTypeName(typeName, scope string) (string, error) {
	if typeName == "" {
		return "", fmt.Errorf("empty type reference")
	}
	if strings.HasPrefix(typeName, ".") {
		candidate := strings.TrimPrefix(typeName, ".")
		if r.hasType(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("unable to resolve fully qualified type name: %s", typeName)
	}

	// Walk the scope outward: pkg.Outer.Inner, pkg.Outer, pkg, then bare.
	parts := strings.Split(scope, ".")
	for len(parts) > 0 {
		candidate := strings.Join(parts, ".") + "." + typeName
		if r.hasType(candidate) {
			return candidate, nil
		}
		parts = parts[:len(parts)-1]
	}
	if r.hasType(typeName) {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", typeName)
}

func (r *Registry) hasType(name string) bool {
	if _, ok := r.messages[name]; ok {
		return true
	}
	_, ok := r.enums[name]
	return ok
}

// MapEntryMessage builds the synthetic entry message a map field is
// encoded as on the wire (key field 1, value field 2).
func MapEntryMessage(mapFieldName string, keyType, valueType *schema.FieldType) *schema.Message {
	return &schema.Message{
		Name:     mapFieldName + "Entry",
		MapEntry: true,
		Fields: []*schema.Field{
			{
				Name:       "key",
				Number:     1,
				Label:      schema.LabelOptional,
				Type:       *keyType,
				OneofIndex: -1,
			},
			{
				Name:       "value",
				Number:     2,
				Label:      schema.LabelOptional,
				Type:       *valueType,
				OneofIndex: -1,
			},
		},
	}
}

// toLowerCamel converts snake_case to lowerCamelCase
func toLowerCamel(s string) string {
	if s == "" {
		return s
	}
	if !strings.ContainsRune(s, '_') {
		if s[0] >= 'A' && s[0] <= 'Z' {
			return string(s[0]-'A'+'a') + s[1:]
		}
		return s
	}
	out := make([]byte, 0, len(s))
	upperNext := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			upperNext = true
			continue
		}
		if len(out) == 0 {
			if c >= 'A' && c <= 'Z' {
				c = c - 'A' + 'a'
			}
			out = append(out, c)
			upperNext = false
			continue
		}
		if upperNext {
			if c >= 'a' && c <= 'z' {
				c = c - 'a' + 'A'
			}
			upperNext = false
		}
		out = append(out, c)
	}
	return string(out)
}
