package registry

import (
	"fmt"
	"strings"

	"github.com/protodyn/protodyn/schema"
)

// Registry stores the schemas of known protobuf messages, enums and
// services. It is an explicit value handed to the codec, not process
// state, so independent schema sets can coexist in one process.
type Registry struct {
	// ProtoDirectories lists the include roots searched when resolving
	// .proto imports. The directory of the loaded file is always tried
	// first.
	ProtoDirectories []string

	repo     *schema.ProtoRepo
	messages map[string]*schema.Message // fully qualified name -> message
	enums    map[string]*schema.Enum    // fully qualified name -> enum
	services map[string]*schema.Service // fully qualified name -> service
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		repo:     &schema.ProtoRepo{ProtoFiles: make(map[string]*schema.ProtoFile)},
		messages: make(map[string]*schema.Message),
		enums:    make(map[string]*schema.Enum),
		services: make(map[string]*schema.Service),
	}
}

// LoadSchemaFromFile parses the given .proto file and every file it
// transitively imports, then rebuilds the symbol table.
func (r *Registry) LoadSchemaFromFile(protoPath string) error {
	if err := r.loadWithImports(protoPath); err != nil {
		return err
	}
	return r.buildSymbolTable()
}

// AddFile registers a programmatically built file and rebuilds the
// symbol table. Field type references may be unqualified; they are
// resolved against everything registered so far.
func (r *Registry) AddFile(file *schema.ProtoFile) error {
	if file.Name == "" {
		return fmt.Errorf("proto file must have a name")
	}
	r.repo.ProtoFiles[file.Name] = file
	return r.buildSymbolTable()
}

// buildSymbolTable registers every name and then resolves every field
// type reference across the loaded repository.
func (r *Registry) buildSymbolTable() error {
	r.messages = make(map[string]*schema.Message)
	r.enums = make(map[string]*schema.Enum)
	r.services = make(map[string]*schema.Service)

	// Pass 1: register all message, enum and service names
	for _, protoFile := range r.repo.ProtoFiles {
		r.registerNames(protoFile)
	}

	// Pass 2: resolve all field type references
	for _, protoFile := range r.repo.ProtoFiles {
		pkg := protoFile.Package
		for _, msg := range protoFile.Messages {
			if err := r.resolveMessage(msg, fullName(pkg, msg.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// registerNames registers all message, enum, and service names of a file
func (r *Registry) registerNames(protoFile *schema.ProtoFile) {
	pkg := protoFile.Package
	for _, msg := range protoFile.Messages {
		r.registerMessageNames(fullName(pkg, msg.Name), msg)
	}
	for _, enum := range protoFile.Enums {
		r.enums[fullName(pkg, enum.Name)] = enum
	}
	for _, service := range protoFile.Services {
		r.services[fullName(pkg, service.Name)] = service
	}
}

// registerMessageNames registers a message and its nested types
func (r *Registry) registerMessageNames(name string, msg *schema.Message) {
	r.messages[name] = msg
	for _, nested := range msg.NestedTypes {
		r.registerMessageNames(name+"."+nested.Name, nested)
	}
	for _, nestedEnum := range msg.NestedEnums {
		r.enums[name+"."+nestedEnum.Name] = nestedEnum
	}
}

// resolveMessage resolves the type references of every field of msg,
// whose fully qualified name provides the resolution scope, then
// recurses into nested types.
func (r *Registry) resolveMessage(msg *schema.Message, scope string) error {
	for _, field := range msg.AllFields() {
		if err := r.resolveFieldType(&field.Type, scope); err != nil {
			return fmt.Errorf("field %s.%s: %w", msg.Name, field.Name, err)
		}
	}
	for _, nested := range msg.NestedTypes {
		if err := r.resolveMessage(nested, scope+"."+nested.Name); err != nil {
			return err
		}
	}
	return nil
}

// resolveFieldType fills in the kind and fully qualified type name of a
// field type whose reference may still be raw (as written in the .proto).
func (r *Registry) resolveFieldType(ft *schema.FieldType, scope string) error {
	switch ft.Kind {
	case schema.KindPrimitive:
		return nil
	case schema.KindMap:
		if err := r.resolveFieldType(ft.MapKey, scope); err != nil {
			return err
		}
		return r.resolveFieldType(ft.MapValue, scope)
	}

	// Raw reference carried in MessageType until resolution decides
	// whether it names a message or an enum.
	raw := ft.MessageType
	if raw == "" {
		raw = ft.EnumType
	}
	resolved, err := r.resolveTypeName(raw, scope)
	if err != nil {
		return err
	}
	if _, ok := r.messages[resolved]; ok {
		ft.Kind = schema.KindMessage
		ft.MessageType = resolved
		ft.EnumType = ""
		return nil
	}
	ft.Kind = schema.KindEnum
	ft.EnumType = resolved
	ft.MessageType = ""
	return nil
}

func fullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name. An unqualified
// name falls back to suffix-matching the fully qualified names.
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}
	for fqn, msg := range r.messages {
		if strings.HasSuffix(fqn, "."+name) {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("message not found: %s", name)
}

// GetEnum retrieves an enum definition by name.
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}
	for fqn, enum := range r.enums {
		if strings.HasSuffix(fqn, "."+name) {
			return enum, nil
		}
	}
	return nil, fmt.Errorf("enum not found: %s", name)
}

// GetService retrieves a service definition by name.
func (r *Registry) GetService(name string) (*schema.Service, error) {
	if service, exists := r.services[name]; exists {
		return service, nil
	}
	for fqn, service := range r.services {
		if strings.HasSuffix(fqn, "."+name) {
			return service, nil
		}
	}
	return nil, fmt.Errorf("service not found: %s", name)
}

// ListMessages returns all registered message names
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	return names
}

// ListEnums returns all registered enum names
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	return names
}

// ListServices returns all registered service names
func (r *Registry) ListServices() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	return names
}
