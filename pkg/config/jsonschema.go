// SPDX-License-Identifier: Apache-2.0
package config

import (
	"encoding/json"
	"strings"
	"time"
)

// durationPattern matches Go duration strings such as "500ms" or "1m30s"
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

const schemaDialect = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema is the document root
type JSONSchema struct {
	Schema      string `json:"$schema"`
	Title       string `json:"title"`
	Description string `json:"description"`
	*SchemaNode
}

// SchemaNode is one object or leaf of the schema
type SchemaNode struct {
	Type                 string                 `json:"type,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Default              interface{}            `json:"default,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	Minimum              *int                   `json:"minimum,omitempty"`
	WriteOnly            bool                   `json:"writeOnly,omitempty"`
	Examples             []string               `json:"examples,omitempty"`
	Properties           map[string]*SchemaNode `json:"properties,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// GenerateJSONSchema describes every key for editor validation of either file
func GenerateJSONSchema() ([]byte, error) {
	return GenerateJSONSchemaForScope(nil)
}

// GenerateJSONSchemaForScope describes the keys allowed in one scope's
// file, or in either file when scope is nil
func GenerateJSONSchemaForScope(scope *ConfigScope) ([]byte, error) {
	doc := JSONSchema{
		Schema:      schemaDialect,
		Title:       "Onboard Configuration",
		Description: "Configuration schema for the onboard setup wizard",
		SchemaNode:  newObject(),
	}
	if scope != nil {
		switch *scope {
		case ScopeUser:
			doc.Title = "Onboard User Configuration"
			doc.Description = "User-specific configuration (" + ScopeUser.Display() + ")"
		default:
			doc.Title = "Onboard Local Configuration"
			doc.Description = "Directory-specific configuration (" + ScopeLocal.Display() + ")"
		}
	}

	for _, def := range ConfigRegistry {
		if scope != nil {
			if c := scopeConstraints(&def, *scope); c != nil && c.Forbidden {
				continue
			}
		}
		doc.insert(strings.Split(def.Key, "."), leaf(def, scope))
	}

	return json.MarshalIndent(doc, "", "  ")
}

func newObject() *SchemaNode {
	closed := false
	return &SchemaNode{Type: "object", Properties: map[string]*SchemaNode{}, AdditionalProperties: &closed}
}

// insert places n at the dotted path, creating the sections above it
func (s *SchemaNode) insert(path []string, n *SchemaNode) {
	if len(path) == 1 {
		s.Properties[path[0]] = n
		return
	}
	child, ok := s.Properties[path[0]]
	if !ok {
		child = newObject()
		s.Properties[path[0]] = child
	}
	child.insert(path[1:], n)
}

// leaf translates a registry entry, applying the scope's overrides
func leaf(def ConfigKeyDefinition, scope *ConfigScope) *SchemaNode {
	n := &SchemaNode{
		Description: def.Description,
		Default:     def.Default,
		WriteOnly:   def.Secret,
	}

	var c *ScopeConstraints
	if scope != nil {
		c = scopeConstraints(&def, *scope)
	}

	switch def.Type {
	case "bool":
		n.Type = "boolean"
	case "int":
		n.Type = "integer"
		one := 1
		n.Minimum = &one
	case "duration":
		n.Type = "string"
		n.Pattern = durationPattern
		if str, ok := def.Default.(string); ok {
			if d, err := time.ParseDuration(str); err == nil {
				n.Examples = []string{str, (d * 2).String()}
			}
		}
	case "enum":
		n.Type = "string"
		n.Enum = def.EnumValues
		if c != nil && c.EnumValues != nil {
			n.Enum = c.EnumValues
		}
	default:
		n.Type = "string"
		n.Pattern = def.Pattern
		if c != nil && c.Pattern != "" {
			n.Pattern = c.Pattern
		}
	}
	return n
}
