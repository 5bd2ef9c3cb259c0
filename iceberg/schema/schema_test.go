package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func exampleSchema() *Schema {
	return NewBuilder(0).
		Field(1, "id", String, true).
		Field(2, "name", String, false).
		Build()
}

func TestBuilderAndMaxFieldID(t *testing.T) {
	s := exampleSchema()
	require.Equal(t, 2, s.MaxFieldID())

	f, ok := s.FieldByName("id")
	require.True(t, ok)
	require.Equal(t, 1, f.ID)
	require.True(t, f.Required)
}

func TestMaxFieldIDRecursesNested(t *testing.T) {
	s := NewBuilder(0).
		Field(1, "id", Long, true).
		Field(2, "tags", List{ElementID: 10, Element: String, ElementRequired: false}, false).
		Field(3, "attrs", Map{KeyID: 20, Key: String, ValueID: 21, Value: String}, false).
		Build()

	require.Equal(t, 21, s.MaxFieldID())
}

func TestParsePrimitiveOrParameterized(t *testing.T) {
	cases := map[string]Type{
		"boolean":       Boolean,
		"int":           Int,
		"long":          Long,
		"string":        String,
		"decimal(38,9)": Decimal{Precision: 38, Scale: 9},
		"fixed[16]":     Fixed{Length: 16},
	}
	for s, want := range cases {
		got, err := ParsePrimitiveOrParameterized(s)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParsePrimitiveOrParameterized("decimal(4,10)")
	require.Error(t, err)

	_, err = ParsePrimitiveOrParameterized("not-a-type")
	require.Error(t, err)
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	s := NewBuilder(0).
		Field(1, "id", Long, true).
		Field(2, "amount", Decimal{Precision: 38, Scale: 9}, false).
		Field(3, "tags", List{ElementID: 10, Element: String, ElementRequired: true}, false).
		Field(4, "attrs", Map{KeyID: 20, Key: String, ValueID: 21, Value: Long}, false).
		Build()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out Schema
	require.NoError(t, json.Unmarshal(data, &out))

	require.Equal(t, s.SchemaID, out.SchemaID)
	require.Equal(t, s.Struct.Fields, out.Struct.Fields)
}

func TestBuildNameMapping(t *testing.T) {
	s := exampleSchema()
	data, err := BuildNameMapping(s)
	require.NoError(t, err)

	var entries []NameMappingEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Equal(t, []NameMappingEntry{
		{FieldID: 1, Names: []string{"id"}},
		{FieldID: 2, Names: []string{"name"}},
	}, entries)
}
