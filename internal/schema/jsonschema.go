package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/contract-extractor/constants"
)

const schemaURL = "contract_record.schema.json"

// JSONSchema returns the contract record shape as a JSON-Schema
// (draft 2020-12 subset) document.
func JSONSchema() map[string]any {
	rateItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"service_category": map[string]any{"type": "string"},
			"cpt_code":         map[string]any{"type": "string"},
			"rate_type":        map[string]any{"type": "string", "enum": constants.RateTypes()},
			"rate_amount":      map[string]any{"type": "number", "exclusiveMinimum": 0},
			"rate_unit":        map[string]any{"type": "string", "minLength": 1},
			"effective_date":   dateProp(),
			"modifier":         map[string]any{"type": "string"},
		},
		"required": []string{"rate_type", "rate_amount", "rate_unit"},
	}

	amendment := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"amendment_id":   map[string]any{"type": "string", "pattern": `^AMD-\d+$`},
			"effective_date": dateProp(),
			"description":    map[string]any{"type": "string", "maxLength": MaxDescriptionLength},
			"amendment_type": map[string]any{"type": "string", "enum": constants.AmendmentTypes()},
			"changes":        map[string]any{"type": "object"},
		},
		"required": []string{"amendment_id", "amendment_type"},
	}

	metadata := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"extracted_at":      map[string]any{"type": "string", "format": "date-time"},
			"confidence_score":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"source_file":       map[string]any{"type": "string"},
			"extractor_version": map[string]any{"type": "string"},
			"parser_method": map[string]any{
				"type": "string",
				"enum": []string{constants.ParserMethodStructured, constants.ParserMethodTextOnly},
			},
			"validation_errors": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"extracted_at", "confidence_score", "source_file", "extractor_version"},
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                "ContractRecord",
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"contract_id":         map[string]any{"type": "string", "minLength": 1},
			"payer_id":            map[string]any{"type": "string"},
			"payer_name":          map[string]any{"type": "string"},
			"provider_npi":        map[string]any{"type": "string", "pattern": `^\d{10}$`},
			"provider_name":       map[string]any{"type": "string"},
			"effective_date":      dateProp(),
			"termination_date":    dateProp(),
			"rate_schedules":      map[string]any{"type": "array", "items": rateItem},
			"amendments":          map[string]any{"type": "array", "items": amendment},
			"extraction_metadata": metadata,
		},
		"required": []string{"contract_id", "effective_date", "rate_schedules", "amendments", "extraction_metadata"},
	}
}

func dateProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
		"format":  "date",
	}
}

// SchemaJSON returns JSONSchema rendered with Encode.
func SchemaJSON() ([]byte, error) {
	return Encode(JSONSchema())
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		b, err := json.Marshal(JSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateJSON checks a serialized record against JSONSchema.
func ValidateJSON(data []byte) error {
	s, err := compiled()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
