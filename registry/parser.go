package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	pp "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/protodyn/protodyn/schema"
)

// loadWithImports parses the given file and, depth-first, every file it
// imports, skipping well-known google/protobuf imports and files that
// were already loaded.
func (r *Registry) loadWithImports(protoPath string) error {
	visited := make(map[string]struct{})
	for name := range r.repo.ProtoFiles {
		visited[name] = struct{}{}
	}

	var dfs func(path string) error
	dfs = func(path string) error {
		if _, ok := visited[path]; ok {
			return nil
		}
		visited[path] = struct{}{}

		file, err := parseProtoFile(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		r.repo.ProtoFiles[path] = file

		for _, imp := range file.Imports {
			if strings.HasPrefix(imp.Path, "google/protobuf/") {
				continue
			}
			importPath, err := r.findProtoFile(imp.Path, filepath.Dir(path))
			if err != nil {
				return err
			}
			if err := dfs(importPath); err != nil {
				return err
			}
		}
		return nil
	}

	resolved, err := r.findProtoFile(protoPath, "")
	if err != nil {
		return err
	}
	return dfs(resolved)
}

// findProtoFile locates a .proto path relative to the loading file's
// directory or any registered include root.
func (r *Registry) findProtoFile(protoPath, baseDir string) (string, error) {
	if !strings.HasSuffix(protoPath, ".proto") {
		return "", fmt.Errorf("%s is not a .proto file", protoPath)
	}

	candidates := make([]string, 0, len(r.ProtoDirectories)+2)
	candidates = append(candidates, protoPath)
	if baseDir != "" {
		candidates = append(candidates, filepath.Join(baseDir, protoPath))
	}
	for _, dir := range r.ProtoDirectories {
		candidates = append(candidates, filepath.Join(dir, protoPath))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("proto file not found: %s", protoPath)
}

// parseProtoFile parses one .proto file into the schema model. Type
// references of message and enum fields stay raw until the registry's
// resolution pass qualifies them.
func parseProtoFile(path string) (*schema.ProtoFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := protoparser.Parse(f)
	if err != nil {
		return nil, err
	}

	file := &schema.ProtoFile{
		Name:   path,
		Syntax: "proto3",
	}
	if parsed.Syntax != nil {
		file.Syntax = strings.Trim(parsed.Syntax.ProtobufVersion, `"`)
	}

	for _, visitee := range parsed.ProtoBody {
		switch body := visitee.(type) {
		case *pp.Package:
			file.Package = body.Name
		case *pp.Import:
			file.Imports = append(file.Imports, &schema.Import{
				Path:   strings.Trim(body.Location, `"`),
				Public: body.Modifier == pp.ImportModifierPublic,
				Weak:   body.Modifier == pp.ImportModifierWeak,
			})
		case *pp.Message:
			msg, err := convertMessage(body)
			if err != nil {
				return nil, err
			}
			file.Messages = append(file.Messages, msg)
		case *pp.Enum:
			enum, err := convertEnum(body)
			if err != nil {
				return nil, err
			}
			file.Enums = append(file.Enums, enum)
		case *pp.Service:
			file.Services = append(file.Services, convertService(body))
		}
	}

	return file, nil
}

// convertMessage converts a parsed message body, recursing into nested
// messages and enums.
func convertMessage(src *pp.Message) (*schema.Message, error) {
	msg := &schema.Message{Name: src.MessageName}

	for _, visitee := range src.MessageBody {
		switch body := visitee.(type) {
		case *pp.Field:
			field, err := convertField(body)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", src.MessageName, err)
			}
			msg.Fields = append(msg.Fields, field)
		case *pp.MapField:
			field, err := convertMapField(body)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", src.MessageName, err)
			}
			msg.Fields = append(msg.Fields, field)
		case *pp.Oneof:
			group, err := convertOneof(body, int32(len(msg.OneofGroups)))
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", src.MessageName, err)
			}
			msg.OneofGroups = append(msg.OneofGroups, group)
		case *pp.Message:
			nested, err := convertMessage(body)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *pp.Enum:
			nested, err := convertEnum(body)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, nested)
		}
	}

	return msg, nil
}

func convertField(src *pp.Field) (*schema.Field, error) {
	number, err := strconv.ParseInt(src.FieldNumber, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("field %s: invalid field number %q", src.FieldName, src.FieldNumber)
	}

	label := schema.LabelOptional
	if src.IsRepeated {
		label = schema.LabelRepeated
	} else if src.IsRequired {
		label = schema.LabelRequired
	}

	return &schema.Field{
		Name:       src.FieldName,
		Number:     int32(number),
		Label:      label,
		Type:       rawFieldType(src.Type),
		JsonName:   toLowerCamel(src.FieldName),
		OneofIndex: -1,
	}, nil
}

func convertMapField(src *pp.MapField) (*schema.Field, error) {
	number, err := strconv.ParseInt(src.FieldNumber, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("map field %s: invalid field number %q", src.MapName, src.FieldNumber)
	}

	key := rawFieldType(src.KeyType)
	value := rawFieldType(src.Type)
	return &schema.Field{
		Name:   src.MapName,
		Number: int32(number),
		Label:  schema.LabelOptional,
		Type: schema.FieldType{
			Kind:     schema.KindMap,
			MapKey:   &key,
			MapValue: &value,
		},
		JsonName:   toLowerCamel(src.MapName),
		OneofIndex: -1,
	}, nil
}

func convertOneof(src *pp.Oneof, index int32) (*schema.Oneof, error) {
	group := &schema.Oneof{Name: src.OneofName}
	for _, member := range src.OneofFields {
		number, err := strconv.ParseInt(member.FieldNumber, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("oneof field %s: invalid field number %q", member.FieldName, member.FieldNumber)
		}
		group.Fields = append(group.Fields, &schema.Field{
			Name:       member.FieldName,
			Number:     int32(number),
			Label:      schema.LabelOptional,
			Type:       rawFieldType(member.Type),
			JsonName:   toLowerCamel(member.FieldName),
			OneofIndex: index,
		})
	}
	return group, nil
}

func convertEnum(src *pp.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{Name: src.EnumName}
	for _, visitee := range src.EnumBody {
		switch body := visitee.(type) {
		case *pp.EnumField:
			number, err := strconv.ParseInt(body.Number, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("enum %s: invalid value %q for %s", src.EnumName, body.Number, body.Ident)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{
				Name:     body.Ident,
				Number:   int32(number),
				JsonName: body.Ident,
			})
		case *pp.Option:
			if body.OptionName == "allow_alias" && body.Constant == "true" {
				enum.AllowAlias = true
			}
		}
	}
	return enum, nil
}

func convertService(src *pp.Service) *schema.Service {
	service := &schema.Service{Name: src.ServiceName}
	for _, visitee := range src.ServiceBody {
		rpc, ok := visitee.(*pp.RPC)
		if !ok {
			continue
		}
		method := &schema.Method{Name: rpc.RPCName}
		if rpc.RPCRequest != nil {
			method.InputType = rpc.RPCRequest.MessageType
			method.ClientStreaming = rpc.RPCRequest.IsStream
		}
		if rpc.RPCResponse != nil {
			method.OutputType = rpc.RPCResponse.MessageType
			method.ServerStreaming = rpc.RPCResponse.IsStream
		}
		service.Methods = append(service.Methods, method)
	}
	return service
}

// rawFieldType classifies a parsed type name. Scalars are final;
// anything else carries the raw reference until the resolution pass.
func rawFieldType(typeName string) schema.FieldType {
	if schema.IsPrimitiveType(typeName) {
		return schema.FieldType{
			Kind:          schema.KindPrimitive,
			PrimitiveType: schema.PrimitiveType(typeName),
		}
	}
	return schema.FieldType{MessageType: typeName}
}
