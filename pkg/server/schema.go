package server

import (
	"reflect"
	"slices"
	"strings"

	"github.com/heartnote/heartnote/pkg/config"
)

// secretFields are never echoed as defaults.
var secretFields = []string{"api_key", "signing_secret", "token"}

// GenerateSchema describes config.Config as a JSON schema. Fields tagged
// omitempty are optional; every other field is listed under "required".
// Scalar defaults come from config.DefaultConfig.
func GenerateSchema() map[string]any {
	return schemaFor(reflect.TypeOf(config.Config{}), reflect.ValueOf(*config.DefaultConfig()))
}

// schemaFor builds the schema of t. v holds the default value and may be
// invalid when no default exists (nil pointers, map elements).
func schemaFor(t reflect.Type, v reflect.Value) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		if v.IsValid() && !v.IsNil() {
			v = v.Elem()
		} else {
			v = reflect.Value{}
		}
	}

	schema := map[string]any{"type": jsonType(t.Kind())}

	switch t.Kind() {
	case reflect.Struct:
		properties := make(map[string]any)
		var required []string
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}

			var fv reflect.Value
			if v.IsValid() {
				fv = v.Field(i)
			}
			if slices.Contains(secretFields, name) {
				fv = reflect.Value{}
			}

			prop := schemaFor(field.Type, fv)
			if slices.Contains(secretFields, name) {
				prop["writeOnly"] = true
			}
			if env := field.Tag.Get("env"); env != "" {
				prop["description"] = "Environment variable: " + env
				if sep := field.Tag.Get("envSeparator"); sep != "" {
					prop["description"] = "Environment variable: " + env + " (" + sep + " separated)"
				}
			}
			properties[name] = prop

			if !strings.Contains(opts, "omitempty") {
				required = append(required, name)
			}
		}
		schema["properties"] = properties
		if len(required) > 0 {
			schema["required"] = required
		}

	case reflect.Slice, reflect.Array:
		schema["items"] = schemaFor(t.Elem(), reflect.Value{})

	case reflect.Map:
		schema["additionalProperties"] = schemaFor(t.Elem(), reflect.Value{})

	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.IsValid() && !v.IsZero() {
			schema["default"] = v.Interface()
		}
	}

	return schema
}

func jsonType(k reflect.Kind) string {
	switch k {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
