// Package schema generates the JSON Schema of the host configuration file.
package schema

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
)

var durationType = reflect.TypeOf(time.Duration(0))

// durationPattern accepts the time.ParseDuration syntax.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$|^0$`

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12). Property names come
// from yaml tags, and durations are described as strings.
func GenerateSchema(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == durationType {
				return &jsonschema.Schema{
					Type:        "string",
					Pattern:     durationPattern,
					Description: "duration such as 5s or 250ms",
				}
			}
			return nil
		},
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &domainerrors.SchemaError{Type: reflect.TypeOf(v).String(), Err: err}
	}

	return jsonBytes, nil
}

// ConfigSchema returns the JSON schema of entities.Config.
func ConfigSchema() ([]byte, error) {
	return GenerateSchema(entities.Config{})
}
