package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	return verify(cfg, []byte(embeddedSchema))
}

func verify(cfg *Config, schemaData []byte) error {
	// parse schema
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaData, &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to a generic map, the way it is seen by the schema
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// walk the config from the root definition
	root := resolve(&schema, &schema)
	if root == nil {
		return fmt.Errorf("schema has no root definition")
	}
	if errs := checkObject(&schema, root, configMap, ""); len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// resolve follows a local $ref ("#/$defs/Name") to its definition
func resolve(root, s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil || s.Ref == "" {
		return s
	}
	name := strings.TrimPrefix(s.Ref, "#/$defs/")
	def, ok := root.Definitions[name]
	if !ok {
		return nil
	}
	return def
}

// checkObject checks presence of required properties and the JSON type of every known property
func checkObject(root, s *jsonschema.Schema, obj map[string]any, path string) (errs []string) {
	for _, req := range s.Required {
		if _, ok := obj[req]; !ok {
			errs = append(errs, fmt.Sprintf("%s is required", join(path, req)))
		}
	}
	if s.Properties == nil {
		return errs
	}
	// absent and null values are not type-checked
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		val, ok := obj[pair.Key]
		if !ok || val == nil {
			continue
		}
		errs = append(errs, checkValue(root, resolve(root, pair.Value), val, join(path, pair.Key))...)
	}
	return errs
}

func checkValue(root, s *jsonschema.Schema, val any, path string) []string {
	if s == nil {
		return nil
	}
	switch s.Type {
	case "object":
		m, ok := val.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s must be an object", path)}
		}
		return checkObject(root, s, m, path)
	case "array":
		arr, ok := val.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s must be an array", path)}
		}
		// check every element against the item schema
		var errs []string
		for i, el := range arr {
			errs = append(errs, checkValue(root, resolve(root, s.Items), el, fmt.Sprintf("%s[%d]", path, i))...)
		}
		return errs
	case "string":
		if _, ok := val.(string); !ok {
			return []string{fmt.Sprintf("%s must be a string", path)}
		}
	case "integer", "number":
		if _, ok := val.(float64); !ok {
			return []string{fmt.Sprintf("%s must be a number", path)}
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return []string{fmt.Sprintf("%s must be a boolean", path)}
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
