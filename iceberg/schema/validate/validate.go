// Package validate implements the schema-evolution guard rails: the six
// validate_* checks that decide whether a proposed change to a schema is
// allowed under a given compatibility mode.
package validate

import (
	"fmt"

	"github.com/gear6io/iceberg-writer/iceberg/schema"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

// Mode selects how strictly a change is checked against reader/writer
// compatibility. Strict rejects anything not provably safe; Permissive
// allows a wider set with a warning; None skips the check entirely.
type Mode int

const (
	Strict Mode = iota
	Permissive
	None
)

// Result is the outcome of a validate_* check: OK with an optional
// Warning (Permissive-mode relaxations), or a non-nil Err.
type Result struct {
	OK      bool
	Warning string
	Err     error
}

func ok() Result                { return Result{OK: true} }
func okWith(warn string) Result { return Result{OK: true, Warning: warn} }
func fail(err error) Result     { return Result{OK: false, Err: err} }

var codeInvalidChange = ibxerrors.SchemaCode("invalid_change")

// ValidateAddColumn checks that adding field to schema is allowed under
// mode. A required column may only be added when the table is empty
// (there is no existing data that would be missing the value); under
// None the check is skipped unconditionally.
func ValidateAddColumn(sch *schema.Schema, field schema.Field, mode Mode, tableEmpty bool) Result {
	if mode == None {
		return ok()
	}
	if _, exists := sch.FieldByName(field.Name); exists {
		return fail(ibxerrors.Newf(codeInvalidChange, "column %q already exists", field.Name))
	}
	if field.Required && !tableEmpty {
		if mode == Strict {
			return fail(ibxerrors.Newf(codeInvalidChange, "cannot add required column %q to a non-empty table", field.Name))
		}
		return okWith(fmt.Sprintf("adding required column %q to a non-empty table; existing rows will read as missing", field.Name))
	}
	return ok()
}

// ValidateDropColumn checks that dropping the column named name is
// allowed. Strict mode refuses to drop a required column; Permissive
// allows it with a warning.
func ValidateDropColumn(sch *schema.Schema, name string, mode Mode) Result {
	if mode == None {
		return ok()
	}
	f, exists := sch.FieldByName(name)
	if !exists {
		return fail(ibxerrors.Newf(codeInvalidChange, "column %q does not exist", name))
	}
	if f.Required && mode == Strict {
		return fail(ibxerrors.Newf(codeInvalidChange, "cannot drop required column %q under strict mode", name))
	}
	if f.Required {
		return okWith(fmt.Sprintf("dropping required column %q", name))
	}
	return ok()
}

// ValidateRenameColumn checks that old can be renamed to new: old must
// exist, new must not collide with any other field's current name.
func ValidateRenameColumn(sch *schema.Schema, oldName, newName string, mode Mode) Result {
	if mode == None {
		return ok()
	}
	if _, exists := sch.FieldByName(oldName); !exists {
		return fail(ibxerrors.Newf(codeInvalidChange, "column %q does not exist", oldName))
	}
	if _, clash := sch.FieldByName(newName); clash {
		return fail(ibxerrors.Newf(codeInvalidChange, "column %q already exists", newName))
	}
	return ok()
}

// safePromotions is the set of promotions Iceberg readers can always
// apply without rewriting existing data files.
var safePromotions = map[schema.TypeKind]schema.TypeKind{
	schema.KindInt:   schema.KindLong,
	schema.KindFloat: schema.KindDouble,
}

// ValidateTypePromotion checks whether old can be widened to new.
// Identical types are always ok. Strict mode only allows the safe
// promotion set (int→long, float→double); Permissive allows any
// promotion the underlying storage can still decode, which this system
// does not attempt to prove and so treats as a warning rather than an
// unconditional pass.
func ValidateTypePromotion(old, new schema.Type, mode Mode) Result {
	if mode == None {
		return ok()
	}
	if old.String() == new.String() {
		return ok()
	}
	op, isPrim1 := old.(schema.Primitive)
	np, isPrim2 := new.(schema.Primitive)
	if isPrim1 && isPrim2 {
		if target, has := safePromotions[op.Kind()]; has && target == np.Kind() {
			return ok()
		}
	}
	if mode == Strict {
		return fail(ibxerrors.Newf(codeInvalidChange, "unsafe type promotion %s -> %s under strict mode", old.String(), new.String()))
	}
	return okWith(fmt.Sprintf("unverified type promotion %s -> %s", old.String(), new.String()))
}

// ValidateRequiredPromotion checks optional/required transitions.
// optional->required is always allowed (new writes always populate the
// column going forward); required->optional is only allowed under
// Permissive since it can surprise readers expecting a value.
func ValidateRequiredPromotion(oldRequired, newRequired bool, mode Mode) Result {
	if mode == None {
		return ok()
	}
	if oldRequired == newRequired {
		return ok()
	}
	if !oldRequired && newRequired {
		return ok()
	}
	// required -> optional
	if mode == Strict {
		return fail(ibxerrors.Newf(codeInvalidChange, "cannot relax required to optional under strict mode"))
	}
	return okWith("relaxing required column to optional")
}

// ValidateFieldIDNotReused rejects any id already used in the current
// schema or any historical schema, regardless of mode — field id reuse
// is never safe, so this check ignores mode and always enforces.
func ValidateFieldIDNotReused(sch *schema.Schema, id int, historical []*schema.Schema) Result {
	if _, used := sch.FieldByID(id); used {
		return fail(ibxerrors.Newf(codeInvalidChange, "field id %d already in use in current schema", id))
	}
	for _, h := range historical {
		if h == nil {
			continue
		}
		if _, used := h.FieldByID(id); used {
			return fail(ibxerrors.Newf(codeInvalidChange, "field id %d was used in a prior schema version", id))
		}
	}
	return ok()
}
