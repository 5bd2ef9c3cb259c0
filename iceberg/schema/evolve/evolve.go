// Package evolve implements the pure schema-evolution operations: each
// function takes a schema plus an evolution Context and returns a new
// schema, never mutating its input. Dropped field ids are never returned
// to the pool; new fields always receive the context's next id.
package evolve

import (
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
	"github.com/gear6io/iceberg-writer/iceberg/schema"
	"github.com/gear6io/iceberg-writer/iceberg/schema/validate"
)

// Context carries the state an evolution operation needs beyond the
// schema it's applied to: the next unused field id (metadata's
// last-column-id + 1) and every schema version the table has ever had,
// which Add checks the new field's id against.
type Context struct {
	NextFieldID int
	Historical  []*schema.Schema
	Mode        validate.Mode
	TableEmpty  bool
}

// Result is the outcome of an evolution operation: either a new schema
// (with optional warnings collected along the way) or a failure.
type Result struct {
	Schema   *schema.Schema
	Warnings []string
	Err      error
}

var codeEvolveFailed = ibxerrors.SchemaCode("evolve_failed")

func failResult(err error) Result { return Result{Err: err} }

// Add appends field to sch using ctx.NextFieldID as its id, ignoring
// whatever id the caller set on field (callers pass name/type/required/
// doc; the id is always assigned here so it can never collide).
func Add(sch *schema.Schema, ctx Context, field schema.Field) Result {
	field.ID = ctx.NextFieldID
	if r := validate.ValidateFieldIDNotReused(sch, field.ID, ctx.Historical); !r.OK {
		return failResult(r.Err)
	}
	v := validate.ValidateAddColumn(sch, field, ctx.Mode, ctx.TableEmpty)
	if !v.OK {
		return failResult(v.Err)
	}
	next := sch.Clone()
	next.Struct.Fields = append(next.Struct.Fields, field)
	res := Result{Schema: next}
	if v.Warning != "" {
		res.Warnings = append(res.Warnings, v.Warning)
	}
	return res
}

// Drop removes the field named name from sch. Its id is never reused:
// later Add calls rely solely on ctx.NextFieldID, which the metadata
// state machine derives from last-column-id, not from the post-drop
// field count.
func Drop(sch *schema.Schema, ctx Context, name string) Result {
	v := validate.ValidateDropColumn(sch, name, ctx.Mode)
	if !v.OK {
		return failResult(v.Err)
	}
	next := sch.Clone()
	out := next.Struct.Fields[:0]
	for _, f := range next.Struct.Fields {
		if f.Name != name {
			out = append(out, f)
		}
	}
	next.Struct.Fields = out
	res := Result{Schema: next}
	if v.Warning != "" {
		res.Warnings = append(res.Warnings, v.Warning)
	}
	return res
}

// Rename changes a field's name while preserving its id and type.
func Rename(sch *schema.Schema, ctx Context, oldName, newName string) Result {
	v := validate.ValidateRenameColumn(sch, oldName, newName, ctx.Mode)
	if !v.OK {
		return failResult(v.Err)
	}
	next := sch.Clone()
	for i, f := range next.Struct.Fields {
		if f.Name == oldName {
			next.Struct.Fields[i].Name = newName
			break
		}
	}
	res := Result{Schema: next}
	if v.Warning != "" {
		res.Warnings = append(res.Warnings, v.Warning)
	}
	return res
}

// PromoteType widens the type of the field named name, preserving its
// id and name.
func PromoteType(sch *schema.Schema, ctx Context, name string, newType schema.Type) Result {
	f, exists := sch.FieldByName(name)
	if !exists {
		return failResult(ibxerrors.Newf(codeEvolveFailed, "column %q does not exist", name))
	}
	v := validate.ValidateTypePromotion(f.Type, newType, ctx.Mode)
	if !v.OK {
		return failResult(v.Err)
	}
	next := sch.Clone()
	for i := range next.Struct.Fields {
		if next.Struct.Fields[i].Name == name {
			next.Struct.Fields[i].Type = newType
			break
		}
	}
	res := Result{Schema: next}
	if v.Warning != "" {
		res.Warnings = append(res.Warnings, v.Warning)
	}
	return res
}

// PromoteRequired changes the required-ness of the field named name,
// preserving its id, name and type.
func PromoteRequired(sch *schema.Schema, ctx Context, name string, required bool) Result {
	f, exists := sch.FieldByName(name)
	if !exists {
		return failResult(ibxerrors.Newf(codeEvolveFailed, "column %q does not exist", name))
	}
	v := validate.ValidateRequiredPromotion(f.Required, required, ctx.Mode)
	if !v.OK {
		return failResult(v.Err)
	}
	next := sch.Clone()
	for i := range next.Struct.Fields {
		if next.Struct.Fields[i].Name == name {
			next.Struct.Fields[i].Required = required
			break
		}
	}
	res := Result{Schema: next}
	if v.Warning != "" {
		res.Warnings = append(res.Warnings, v.Warning)
	}
	return res
}
