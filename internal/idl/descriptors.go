package idl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// descriptorDocSchema constrains the JSON documents accepted by
// DecodeDescriptors.
const descriptorDocSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["messages"],
  "additionalProperties": false,
  "properties": {
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "definition"],
        "additionalProperties": false,
        "properties": {
          "name": {
            "type": "string",
            "pattern": "^[a-zA-Z][a-zA-Z0-9_]*/[a-zA-Z][a-zA-Z0-9_]*/[A-Z][a-zA-Z0-9_]*$"
          },
          "definition": {"type": "string"}
        }
      }
    }
  }
}`

var descriptorSchema = jsonschema.MustCompileString("descriptors.schema.json", descriptorDocSchema)

// Descriptor is one entry of a descriptor document: a qualified name and the
// .msg text defining it.
type Descriptor struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

type descriptorDoc struct {
	Messages []Descriptor `json:"messages"`
}

// DecodeDescriptors reads a JSON descriptor document, validates its shape and
// parses every definition in it.
func DecodeDescriptors(r io.Reader) ([]*Schema, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read descriptors: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: descriptor JSON: %v", ErrInvalidSchema, err)
	}
	if err := descriptorSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: descriptor document: %v", ErrInvalidSchema, err)
	}

	var doc descriptorDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: descriptor JSON: %v", ErrInvalidSchema, err)
	}
	out := make([]*Schema, 0, len(doc.Messages))
	for _, d := range doc.Messages {
		s, err := ParseMsg(d.Name, d.Definition)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadDescriptors decodes a descriptor document into c.
func (c *Catalog) LoadDescriptors(r io.Reader) (int, error) {
	schemas, err := DecodeDescriptors(r)
	if err != nil {
		return 0, err
	}
	for _, s := range schemas {
		if err := c.Add(s); err != nil {
			return 0, err
		}
	}
	return len(schemas), nil
}

// LoadDescriptorFile decodes the descriptor document at path into c.
func (c *Catalog) LoadDescriptorFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return c.LoadDescriptors(f)
}
