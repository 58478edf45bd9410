// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"

	"github.com/swaggest/jsonschema-go"
)

func typeOf(st jsonschema.SimpleType) *jsonschema.Type {
	return &jsonschema.Type{SimpleTypes: &st}
}

func ref(s jsonschema.Schema) jsonschema.SchemaOrBool {
	return jsonschema.SchemaOrBool{TypeObject: &s}
}

// ToJSONSchema renders s as a JSON Schema document.
func ToJSONSchema(s Schema) jsonschema.Schema {
	switch x := s.(type) {
	case StringSchema:
		return jsonschema.Schema{Type: typeOf(jsonschema.String)}
	case NumberSchema:
		if x.integer {
			return jsonschema.Schema{Type: typeOf(jsonschema.Integer)}
		}
		return jsonschema.Schema{Type: typeOf(jsonschema.Number)}
	case BooleanSchema:
		return jsonschema.Schema{Type: typeOf(jsonschema.Boolean)}
	case ArraySchema:
		elem := ref(ToJSONSchema(x.Elem))
		return jsonschema.Schema{
			Type:  typeOf(jsonschema.Array),
			Items: &jsonschema.Items{SchemaOrBool: &elem},
		}
	case ObjectSchema:
		return objectJSONSchema(x)
	case EnumSchema:
		enum := make([]interface{}, len(x.values))
		for i, v := range x.values {
			enum[i] = v
		}
		return jsonschema.Schema{
			Type: typeOf(jsonschema.String),
			Enum: enum,
		}
	case OptionalSchema:
		// optionality is expressed by the enclosing object's required list
		return ToJSONSchema(x.Inner)
	case NullableSchema:
		return jsonschema.Schema{
			AnyOf: []jsonschema.SchemaOrBool{
				ref(ToJSONSchema(x.Inner)),
				ref(jsonschema.Schema{Type: typeOf(jsonschema.Null)}),
			},
		}
	case UnionSchema:
		anyOf := make([]jsonschema.SchemaOrBool, len(x.Options))
		for i, option := range x.Options {
			anyOf[i] = ref(ToJSONSchema(option))
		}
		return jsonschema.Schema{AnyOf: anyOf}
	default:
		panic(fmt.Sprintf("schema: unsupported schema node: %T", s))
	}
}

func objectJSONSchema(s ObjectSchema) jsonschema.Schema {
	props := make(map[string]jsonschema.SchemaOrBool, len(s.fields))
	for _, k := range s.Keys() {
		props[k] = ref(ToJSONSchema(s.fields[k]))
	}

	out := jsonschema.Schema{
		Type:       typeOf(jsonschema.Object),
		Properties: props,
		Required:   s.Required(),
	}
	if s.strict {
		no := false
		out.AdditionalProperties = &jsonschema.SchemaOrBool{TypeBoolean: &no}
	}
	return out
}
