package protodyn

import (
	"fmt"

	"github.com/protodyn/protodyn/registry"
	"github.com/protodyn/protodyn/schema"
	"github.com/protodyn/protodyn/wire"
)

// ===== SCHEMA-AWARE API =====

// Protodyn provides schema-aware protobuf operations without generated
// code: wire encode/decode plus the verify and object conversion layers,
// all driven by a schema registry.
type Protodyn struct {
	registry *registry.Registry
}

// New creates a new Protodyn instance with an empty registry
func New() *Protodyn {
	return &Protodyn{
		registry: registry.NewRegistry(),
	}
}

// NewWithRegistry creates a Protodyn instance over an existing registry.
// Multiple instances may share one registry; the registry is read-only
// during codec operations.
func NewWithRegistry(reg *registry.Registry) *Protodyn {
	return &Protodyn{registry: reg}
}

// LoadSchemaFromFile parses a .proto file (and its imports) into the registry
func (p *Protodyn) LoadSchemaFromFile(protoPath string) error {
	return p.registry.LoadSchemaFromFile(protoPath)
}

// AddFile registers a programmatically built schema file
func (p *Protodyn) AddFile(file *schema.ProtoFile) error {
	return p.registry.AddFile(file)
}

// Marshal encodes a message map to protobuf bytes using schema information
func (p *Protodyn) Marshal(data map[string]interface{}, messageType string) ([]byte, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return wire.EncodeMessage(data, msg, p.registry)
}

// Unmarshal decodes protobuf bytes using the schema-aware decoder
func (p *Protodyn) Unmarshal(data []byte, messageType string) (map[string]interface{}, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return wire.DecodeMessage(data, msg, p.registry)
}

// Inspect decodes protobuf bytes without schema information, surfacing
// raw field numbers and wire types.
func (p *Protodyn) Inspect(data []byte) (map[string]interface{}, error) {
	return wire.DecodeRaw(data)
}

// ===== REGISTRY ACCESS =====

func (p *Protodyn) Registry() *registry.Registry { return p.registry }
func (p *Protodyn) ListMessages() []string       { return p.registry.ListMessages() }
func (p *Protodyn) ListEnums() []string          { return p.registry.ListEnums() }
func (p *Protodyn) ListServices() []string       { return p.registry.ListServices() }
