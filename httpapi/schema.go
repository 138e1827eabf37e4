package httpapi

import (
	"bytes"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const nodesSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "type"],
    "properties": {
      "id":   {"type": "string", "minLength": 1},
      "name": {"type": "string"},
      "type": {"type": "string", "minLength": 1},
      "position": {
        "type": "object",
        "required": ["x", "y"],
        "properties": {
          "x": {"type": "number"},
          "y": {"type": "number"}
        }
      },
      "config": {"type": ["object", "null"]}
    }
  }
}`

const edgesSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "source", "target"],
    "properties": {
      "id":           {"type": "string", "minLength": 1},
      "source":       {"type": "string", "minLength": 1},
      "target":       {"type": "string", "minLength": 1},
      "sourceHandle": {"type": ["string", "null"]},
      "targetHandle": {"type": ["string", "null"]},
      "data": {
        "type": "object",
        "properties": {
          "name": {"type": "string"}
        }
      }
    }
  }
}`

const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "llm_api_key":        {"type": "string"},
    "model":              {"type": "string"},
    "temperature":        {"type": "number", "minimum": 0, "maximum": 2},
    "web_search_enabled": {"type": "boolean"},
    "serp_api_key":       {"type": "string"},
    "embedding_api_key":  {"type": "string"}
  }
}`

// payloadSchema validates the JSON fields of a workflow update.
// It is safe for concurrent use.
type payloadSchema struct {
	nodes  *jsonschema.Schema
	edges  *jsonschema.Schema
	config *jsonschema.Schema
}

func newPayloadSchema() (*payloadSchema, error) {
	c := jsonschema.NewCompiler()

	compile := func(name, src string) (*jsonschema.Schema, error) {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("unmarshal %s schema: %w", name, err)
		}
		url := "https://meikuraledutech.dev/schemas/workflow/" + name + ".json"
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s schema resource: %w", name, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		return s, nil
	}

	var (
		ps  payloadSchema
		err error
	)
	if ps.nodes, err = compile("nodes", nodesSchemaJSON); err != nil {
		return nil, err
	}
	if ps.edges, err = compile("edges", edgesSchemaJSON); err != nil {
		return nil, err
	}
	if ps.config, err = compile("config", configSchemaJSON); err != nil {
		return nil, err
	}
	return &ps, nil
}

// check validates raw JSON against s.
func check(s *jsonschema.Schema, field string, raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: invalid JSON: %w", field, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
