package backend

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/sjson"
)

// markerResponseShape mirrors the wire schema backends that accept
// --output-schema/--json-schema are asked to conform to:
// {"markers":[{"timestamp","label","category"}]}.
type markerResponseShape struct {
	Markers []struct {
		Timestamp float64 `json:"timestamp" jsonschema:"required"`
		Label     string  `json:"label" jsonschema:"required"`
		Category  string  `json:"category" jsonschema:"required,enum=planning,enum=design,enum=implementation,enum=success,enum=failure"`
	} `json:"markers" jsonschema:"required"`
}

var schemaReflector = &jsonschema.Reflector{
	ExpandedStruct: true,
	DoNotReference: true,
}

// MarkerJSONSchema returns the pretty-printed JSON Schema for the marker
// response shape, generated from markerResponseShape rather than
// hand-maintained as a string literal.
func MarkerJSONSchema() ([]byte, error) {
	schema := schemaReflector.Reflect(&markerResponseShape{})
	return json.MarshalIndent(schema, "", "  ")
}

// MinifiedMarkerJSONSchema returns the marker schema as a single-line JSON
// document, for backends that accept the schema inline on the command line
// (e.g. Claude's --json-schema) rather than via a file path. The draft URI
// is stripped to keep the argv short.
func MinifiedMarkerJSONSchema() ([]byte, error) {
	schema := schemaReflector.Reflect(&markerResponseShape{})
	out, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return sjson.DeleteBytes(out, "$schema")
}

// schemaFileName is the temp-directory file name shared across invocations
// so repeated CLI calls within one process reuse the same schema file.
const schemaFileName = "agr_marker_schema.json"

// GetSchemaFilePath writes (if absent) the marker JSON schema to a file in
// the system temp directory and returns its path, for backends (like
// Codex) that take a schema file path rather than inline JSON.
func GetSchemaFilePath() (string, error) {
	path := filepath.Join(os.TempDir(), schemaFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	schema, err := MarkerJSONSchema()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, schema, 0o644); err != nil {
		return "", newIO(err)
	}
	return path, nil
}
