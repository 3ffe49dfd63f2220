package toolloop

// ParamType is the JSON-Schema type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// Param describes one parameter of a tool's input schema.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool

	// Enum restricts string parameters to a closed value set.
	Enum []string

	// Items describes the element type of array parameters.
	Items *Param

	// Properties describes the fields of object parameters, in order.
	Properties []Param
}

// Schema is a tool's input schema: an ordered parameter list, or a raw
// JSON-Schema document for tools whose schema is derived rather than
// declared (see NewTyped).
type Schema struct {
	Params []Param

	raw map[string]interface{}
}

// NewSchema builds a schema from an ordered parameter list.
func NewSchema(params ...Param) Schema {
	return Schema{Params: params}
}

// SchemaFromMap wraps an existing JSON-Schema document.
func SchemaFromMap(m map[string]interface{}) Schema {
	return Schema{raw: m}
}

// JSONSchema exports the schema as a JSON-Schema object document with
// "type", "properties", and "required" fields.
func (s Schema) JSONSchema() map[string]interface{} {
	if s.raw != nil {
		return s.raw
	}
	properties := make(map[string]interface{}, len(s.Params))
	var required []string
	for _, p := range s.Params {
		properties[p.Name] = p.jsonSchema()
		if p.Required {
			required = append(required, p.Name)
		}
	}
	doc := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func (p Param) jsonSchema() map[string]interface{} {
	doc := map[string]interface{}{
		"type": string(p.Type),
	}
	if p.Description != "" {
		doc["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		vals := make([]interface{}, len(p.Enum))
		for i, v := range p.Enum {
			vals[i] = v
		}
		doc["enum"] = vals
	}
	if p.Type == ParamArray && p.Items != nil {
		doc["items"] = p.Items.jsonSchema()
	}
	if p.Type == ParamObject && len(p.Properties) > 0 {
		props := make(map[string]interface{}, len(p.Properties))
		var required []string
		for _, sub := range p.Properties {
			props[sub.Name] = sub.jsonSchema()
			if sub.Required {
				required = append(required, sub.Name)
			}
		}
		doc["properties"] = props
		if len(required) > 0 {
			doc["required"] = required
		}
	}
	return doc
}
