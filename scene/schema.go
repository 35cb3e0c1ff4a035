package scene

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"resolution": {"type": "number", "minimum": 0},
		"meshes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "vertices", "indices"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"vertices": {"type": "array", "items": {"$ref": "#/$defs/vec3"}},
					"indices": {"type": "array", "items": {"type": "integer", "minimum": 0}}
				}
			}
		},
		"placements": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["mesh"],
				"properties": {
					"name": {"type": "string"},
					"mesh": {"type": "string"},
					"position": {"$ref": "#/$defs/vec3"},
					"rotation": {
						"type": "array",
						"items": {"type": "number"},
						"minItems": 4,
						"maxItems": 4
					},
					"scale": {"$ref": "#/$defs/vec3"}
				}
			}
		}
	},
	"$defs": {
		"vec3": {
			"type": "array",
			"items": {"type": "number"},
			"minItems": 3,
			"maxItems": 3
		}
	}
}`

var schema = jsonschema.MustCompileString("scene.json", schemaJSON)
