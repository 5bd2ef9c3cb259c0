package schema

import (
	"encoding/json"
	"fmt"
)

// jsonField mirrors the wire shape of a Field in a `v{N}.metadata.json`
// document.
type jsonField struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Type     json.RawMessage `json:"type"`
	Required bool            `json:"required"`
	Doc      string          `json:"doc,omitempty"`
}

type jsonSchema struct {
	SchemaID int         `json:"schema-id"`
	Type     string      `json:"type"`
	Fields   []jsonField `json:"fields"`
}

// MarshalJSON renders the schema in the exact TableMetadata document shape
// spec §3 describes: `{schema-id, type:"struct", fields:[...]}`.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := jsonSchema{SchemaID: s.SchemaID, Type: "struct"}
	for _, f := range s.Struct.Fields {
		typeJSON, err := marshalType(f.Type)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, jsonField{
			ID: f.ID, Name: f.Name, Type: typeJSON, Required: f.Required, Doc: f.Doc,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses a schema from its TableMetadata document shape.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var in jsonSchema
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.SchemaID = in.SchemaID
	s.Struct = Struct{}
	for _, jf := range in.Fields {
		t, err := unmarshalType(jf.Type)
		if err != nil {
			return fmt.Errorf("field %q: %w", jf.Name, err)
		}
		s.Struct.Fields = append(s.Struct.Fields, Field{
			ID: jf.ID, Name: jf.Name, Type: t, Required: jf.Required, Doc: jf.Doc,
		})
	}
	return nil
}

// jsonListType/jsonMapType/jsonStructType mirror Iceberg's nested-type
// wire shapes (a JSON object with "type":"list"|"map"|"struct").
type jsonListType struct {
	Type            string          `json:"type"`
	ElementID       int             `json:"element-id"`
	Element         json.RawMessage `json:"element"`
	ElementRequired bool            `json:"element-required"`
}

type jsonMapType struct {
	Type          string          `json:"type"`
	KeyID         int             `json:"key-id"`
	Key           json.RawMessage `json:"key"`
	ValueID       int             `json:"value-id"`
	Value         json.RawMessage `json:"value"`
	ValueRequired bool            `json:"value-required"`
}

func marshalType(t Type) (json.RawMessage, error) {
	switch v := t.(type) {
	case Struct:
		fields := make([]jsonField, 0, len(v.Fields))
		for _, f := range v.Fields {
			typeJSON, err := marshalType(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, jsonField{ID: f.ID, Name: f.Name, Type: typeJSON, Required: f.Required, Doc: f.Doc})
		}
		return json.Marshal(struct {
			Type   string      `json:"type"`
			Fields []jsonField `json:"fields"`
		}{"struct", fields})
	case List:
		elemJSON, err := marshalType(v.Element)
		if err != nil {
			return nil, err
		}
		return json.Marshal(jsonListType{
			Type: "list", ElementID: v.ElementID, Element: elemJSON, ElementRequired: v.ElementRequired,
		})
	case Map:
		keyJSON, err := marshalType(v.Key)
		if err != nil {
			return nil, err
		}
		valJSON, err := marshalType(v.Value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(jsonMapType{
			Type: "map", KeyID: v.KeyID, Key: keyJSON, ValueID: v.ValueID, Value: valJSON, ValueRequired: v.ValueRequired,
		})
	default:
		// Primitive, Decimal, Fixed all render as a bare JSON string.
		return json.Marshal(t.String())
	}
}

func unmarshalType(raw json.RawMessage) (Type, error) {
	// Primitive/decimal/fixed types are JSON strings; struct/list/map are
	// JSON objects. Peek at the first non-whitespace byte to tell them
	// apart without a full parse.
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty type")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return ParsePrimitiveOrParameterized(s)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case "struct":
		var js struct {
			Fields []jsonField `json:"fields"`
		}
		if err := json.Unmarshal(raw, &js); err != nil {
			return nil, err
		}
		var fields []Field
		for _, jf := range js.Fields {
			ft, err := unmarshalType(jf.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{ID: jf.ID, Name: jf.Name, Type: ft, Required: jf.Required, Doc: jf.Doc})
		}
		return Struct{Fields: fields}, nil
	case "list":
		var jl jsonListType
		if err := json.Unmarshal(raw, &jl); err != nil {
			return nil, err
		}
		elem, err := unmarshalType(jl.Element)
		if err != nil {
			return nil, err
		}
		return List{ElementID: jl.ElementID, Element: elem, ElementRequired: jl.ElementRequired}, nil
	case "map":
		var jm jsonMapType
		if err := json.Unmarshal(raw, &jm); err != nil {
			return nil, err
		}
		key, err := unmarshalType(jm.Key)
		if err != nil {
			return nil, err
		}
		val, err := unmarshalType(jm.Value)
		if err != nil {
			return nil, err
		}
		return Map{KeyID: jm.KeyID, Key: key, ValueID: jm.ValueID, Value: val, ValueRequired: jm.ValueRequired}, nil
	}
	return nil, fmt.Errorf("unknown complex type %q", head.Type)
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}
