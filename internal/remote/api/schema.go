package api

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBase = "https://fintrack.local/schemas/"

// recordSchema describes what a stored record must look like. Extra fields
// such as "__v" are tolerated.
const recordSchema = `{
	"type": "object",
	"required": ["_id", "userId", "amount"],
	"properties": {
		"_id": {"type": "string", "minLength": 1},
		"userId": {"type": "string"},
		"date": {"type": "string"},
		"description": {"type": "string"},
		"amount": {"type": "number"},
		"category": {"type": "string"},
		"paymentMethod": {"type": "string"}
	}
}`

type schemas struct {
	record  *jsonschema.Schema
	records *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	sources := map[string]string{
		"record.json":  recordSchema,
		"records.json": `{"type": "array", "items": ` + recordSchema + `}`,
	}
	for name, src := range sources {
		if err := compiler.AddResource(schemaBase+name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	rec, err := compiler.Compile(schemaBase + "record.json")
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	list, err := compiler.Compile(schemaBase + "records.json")
	if err != nil {
		return nil, fmt.Errorf("compile records schema: %w", err)
	}
	return &schemas{record: rec, records: list}, nil
}
