// Package schema turns a request shape into a JSON Schema document and
// validates caller data against it.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/blackcoderx/apman/pkg/shape"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// Schema is a compiled validation schema for one operation.
type Schema struct {
	doc      *jsonschema.Schema
	raw      []byte
	compiled *gojsonschema.Schema
}

// Build maps a shape to a schema. Every key becomes a required property.
// Nested shapes become closed objects whose fields are all required; the root
// object tolerates unknown properties.
func Build(s shape.Shape) (*Schema, error) {
	doc := object(s)
	doc.Version = draft07

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft7
	loader.AutoDetect = false
	compiled, err := loader.Compile(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{doc: doc, raw: raw, compiled: compiled}, nil
}

func object(s shape.Shape) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	required := make([]string, 0, len(s))
	for _, key := range s.Keys() {
		props.Set(key, node(s[key]))
		required = append(required, key)
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func node(n *shape.Node) *jsonschema.Schema {
	if n.IsLeaf() {
		// any value
		return &jsonschema.Schema{}
	}
	obj := object(n.Fields)
	obj.AdditionalProperties = jsonschema.FalseSchema
	return obj
}

// Doc returns the schema document.
func (s *Schema) Doc() *jsonschema.Schema {
	return s.doc
}

// JSON returns the marshalled schema document.
func (s *Schema) JSON() []byte {
	return s.raw
}
