package catalogs

const itemsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "stack_size"],
    "additionalProperties": false,
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string"},
      "stack_size": {"type": "integer", "minimum": 1},
      "cookable": {
        "type": "object",
        "required": ["cook_time", "low_temp", "high_temp", "becomes"],
        "additionalProperties": false,
        "properties": {
          "cook_time": {"type": "number", "exclusiveMinimum": 0},
          "low_temp": {"type": "number"},
          "high_temp": {"type": "number"},
          "becomes": {"type": "string", "minLength": 1},
          "amount": {"type": "integer", "minimum": 1}
        }
      },
      "burnable": {
        "type": "object",
        "required": ["fuel_amount"],
        "additionalProperties": false,
        "properties": {
          "fuel_amount": {"type": "number", "exclusiveMinimum": 0},
          "byproduct": {"type": "string"},
          "byproduct_amount": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

const ovensSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["kind", "capacity", "temperature", "fuel_item"],
    "additionalProperties": false,
    "properties": {
      "kind": {"type": "string", "minLength": 1},
      "capacity": {"type": "integer", "minimum": 1, "maximum": 64},
      "temperature": {"type": "number", "minimum": 0},
      "fuel_item": {"type": "string", "minLength": 1},
      "allow_byproduct": {"type": "boolean"}
    }
  }
}`
