package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DocumentSchema is a compiled JSON Schema used to guard third-party payloads
// before they are decoded into typed structs.
type DocumentSchema struct {
	schema *gojsonschema.Schema
}

// MustCompileDocumentSchema compiles a JSON Schema literal and panics on error.
// Intended for package-level schema variables.
func MustCompileDocumentSchema(schemaJSON string) *DocumentSchema {
	s, err := CompileDocumentSchema(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

func CompileDocumentSchema(schemaJSON string) (*DocumentSchema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &DocumentSchema{schema: schema}, nil
}

// Validate checks a raw JSON document against the schema.
func (s *DocumentSchema) Validate(document []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
