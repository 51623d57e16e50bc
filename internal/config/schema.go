package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON Schema the config file is checked against
func Schema() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

// ValidateSchema checks raw YAML config data against the embedded schema
func ValidateSchema(data []byte) error {
	dataJSON, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}

	res, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to run schema validation: %w", err)
	}
	if res.Valid() {
		return nil
	}

	var b strings.Builder
	for _, e := range res.Errors() {
		fmt.Fprintf(&b, "\n- %s: %s", e.Field(), e.Description())
	}
	return errors.New("schema validation failed:" + b.String())
}
