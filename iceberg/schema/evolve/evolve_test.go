package evolve

import (
	"testing"

	"github.com/gear6io/iceberg-writer/iceberg/schema"
	"github.com/gear6io/iceberg-writer/iceberg/schema/validate"
	"github.com/stretchr/testify/require"
)

func abc() *schema.Schema {
	return schema.NewBuilder(0).
		Field(1, "a", schema.String, true).
		Field(2, "b", schema.String, false).
		Field(3, "c", schema.String, false).
		Build()
}

// TestAddDropReAddYieldsDistinctFieldIDs is property P7: adding, dropping,
// then re-adding a column with the same name yields distinct field ids
// across the three versions.
func TestAddDropReAddYieldsDistinctFieldIDs(t *testing.T) {
	sch := schema.NewBuilder(0).Field(1, "a", schema.String, true).Build()

	ctx := Context{NextFieldID: 2, Mode: validate.Strict, TableEmpty: true}
	r1 := Add(sch, ctx, schema.Field{Name: "x", Type: schema.String, Required: false})
	require.NoError(t, r1.Err)
	f1, ok := r1.Schema.FieldByName("x")
	require.True(t, ok)
	require.Equal(t, 2, f1.ID)

	ctx2 := Context{NextFieldID: 3, Mode: validate.Strict}
	r2 := Drop(r1.Schema, ctx2, "x")
	require.NoError(t, r2.Err)
	_, stillThere := r2.Schema.FieldByName("x")
	require.False(t, stillThere)

	r3 := Add(r2.Schema, ctx2, schema.Field{Name: "x", Type: schema.String, Required: false})
	require.NoError(t, r3.Err)
	f3, ok := r3.Schema.FieldByName("x")
	require.True(t, ok)
	require.Equal(t, 3, f3.ID)

	require.NotEqual(t, f1.ID, f3.ID)
}

// TestDropThenAddPreservesIDDiscipline is scenario 4: starting from
// {1:a,2:b,3:c}, drop "b" then add "d" yields {1:a,3:c,4:d}.
func TestDropThenAddPreservesIDDiscipline(t *testing.T) {
	sch := abc()

	ctx := Context{NextFieldID: 4, Mode: validate.Permissive}
	dropped := Drop(sch, ctx, "b")
	require.NoError(t, dropped.Err)

	added := Add(dropped.Schema, ctx, schema.Field{Name: "d", Type: schema.String, Required: false})
	require.NoError(t, added.Err)

	ids := map[string]int{}
	for _, f := range added.Schema.Struct.Fields {
		ids[f.Name] = f.ID
	}
	require.Equal(t, map[string]int{"a": 1, "c": 3, "d": 4}, ids)
	require.Equal(t, 4, added.Schema.MaxFieldID())
}

func TestRenamePreservesIDAndType(t *testing.T) {
	sch := abc()
	ctx := Context{Mode: validate.Strict}
	r := Rename(sch, ctx, "b", "bee")
	require.NoError(t, r.Err)

	f, ok := r.Schema.FieldByName("bee")
	require.True(t, ok)
	require.Equal(t, 2, f.ID)
	require.Equal(t, schema.String, f.Type)

	_, goneByOldName := r.Schema.FieldByName("b")
	require.False(t, goneByOldName)
}

func TestPromoteTypePreservesIDAndName(t *testing.T) {
	sch := schema.NewBuilder(0).Field(1, "n", schema.Int, true).Build()
	ctx := Context{Mode: validate.Strict}

	r := PromoteType(sch, ctx, "n", schema.Long)
	require.NoError(t, r.Err)
	f, ok := r.Schema.FieldByName("n")
	require.True(t, ok)
	require.Equal(t, 1, f.ID)
	require.Equal(t, schema.Long, f.Type)

	bad := PromoteType(r.Schema, ctx, "n", schema.Int)
	require.Error(t, bad.Err)
}

func TestPromoteRequired(t *testing.T) {
	sch := schema.NewBuilder(0).Field(1, "n", schema.String, false).Build()
	ctx := Context{Mode: validate.Strict}

	r := PromoteRequired(sch, ctx, "n", true)
	require.NoError(t, r.Err)
	f, _ := r.Schema.FieldByName("n")
	require.True(t, f.Required)

	bad := PromoteRequired(r.Schema, ctx, "n", false)
	require.Error(t, bad.Err)

	relaxed := PromoteRequired(r.Schema, Context{Mode: validate.Permissive}, "n", false)
	require.NoError(t, relaxed.Err)
	require.NotEmpty(t, relaxed.Warnings)
}

func TestAddDoesNotMutateOriginalSchema(t *testing.T) {
	sch := abc()
	origLen := len(sch.Struct.Fields)

	ctx := Context{NextFieldID: 4, Mode: validate.Strict, TableEmpty: true}
	_ = Add(sch, ctx, schema.Field{Name: "d", Type: schema.String, Required: false})

	require.Len(t, sch.Struct.Fields, origLen)
}
