package api

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const badgeSchemaURL = "https://badgeboard.local/schemas/badge.schema.json"

// badgeSchemaJSON describes the body of POST /badges. Deep checks such as
// the tier vocabulary are left to the service.
const badgeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["trainer", "date"],
  "additionalProperties": false,
  "properties": {
    "trainer":    {"type": "string", "minLength": 1, "maxLength": 100, "pattern": "\\S"},
    "pronouns":   {"type": "string", "maxLength": 40},
    "deck": {
      "anyOf": [
        {"type": "null"},
        {"type": "string", "maxLength": 100},
        {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "id":    {"type": "string", "maxLength": 100},
            "name":  {"type": "string", "maxLength": 100},
            "icons": {"type": "array", "maxItems": 4, "items": {"type": "string"}}
          }
        }
      ]
    },
    "store":      {"type": "string", "maxLength": 200},
    "date":       {"type": "string", "minLength": 1, "maxLength": 64},
    "tier":       {"type": "string", "maxLength": 40},
    "format":     {"type": "string", "maxLength": 40},
    "color":      {"type": "string", "pattern": "^(#[0-9A-Fa-f]{6})?$"},
    "background": {"type": "string", "maxLength": 40}
  }
}`

// badgeSchema is compiled once; the document is static.
var badgeSchema = mustCompileSchema(badgeSchemaURL, badgeSchemaJSON)

func compileSchema(url, doc string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

func mustCompileSchema(url, doc string) *jsonschema.Schema {
	schema, err := compileSchema(url, doc)
	if err != nil {
		panic(err)
	}
	return schema
}

// validateBadgeDocument checks a decoded JSON document against the schema.
func validateBadgeDocument(doc any) error {
	if err := badgeSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}
