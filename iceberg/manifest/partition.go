package manifest

import (
	"fmt"
	"strconv"
	"time"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
	"github.com/gear6io/iceberg-writer/iceberg/partition"
)

var codePartitionDerive = ibxerrors.ManifestCode("partition_derive_failed")

// derivePartitionRecord computes the values of the data_file.partition
// sub-record for one file, given its raw partition-value map (keyed
// either by partition-field name directly, or by hive-style calendar
// components such as "year"/"month"/"day"/"hour" when the field's own
// value was omitted — spec.md §4.5's day-transform fallback, generalized
// here to every calendar transform per SPEC_FULL §5).
func derivePartitionRecord(spec partition.Spec, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(spec.Fields))
	for _, f := range spec.Fields {
		v, err := derivePartitionValue(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func derivePartitionValue(f partition.Field, raw map[string]any) (any, error) {
	// A calendar field named like a hive component ("year"/"month"/"day"/
	// "hour") finds that raw component under its own name, not an epoch
	// value; when a hive "year" key is present, derive from the components.
	_, hiveYear := raw["year"]
	collides := partition.IsCalendarTransform(f.Transform) && partition.IsCalendarTransform(f.Name) && hiveYear
	if v, ok := raw[f.Name]; ok && !collides {
		return coercePartitionValue(f.Transform, v)
	}

	if !partition.IsCalendarTransform(f.Transform) {
		return nil, ibxerrors.Newf(codePartitionDerive, "partition field %q (%s): no value and no hive-path fallback", f.Name, f.Transform)
	}

	y, yOK := hiveInt(raw, "year")
	if !yOK {
		return nil, ibxerrors.Newf(codePartitionDerive, "partition field %q: missing value and no hive \"year\" key", f.Name)
	}

	switch f.Transform {
	case "year":
		return epochYear(y), nil
	case "month":
		m, ok := hiveInt(raw, "month")
		if !ok {
			return nil, ibxerrors.Newf(codePartitionDerive, "partition field %q: missing hive \"month\" key", f.Name)
		}
		return epochMonth(y, m), nil
	case "day":
		m, mOK := hiveInt(raw, "month")
		d, dOK := hiveInt(raw, "day")
		if !mOK || !dOK {
			return nil, ibxerrors.Newf(codePartitionDerive, "partition field %q: missing hive \"month\"/\"day\" keys", f.Name)
		}
		return epochDay(y, m, d), nil
	case "hour":
		m, mOK := hiveInt(raw, "month")
		d, dOK := hiveInt(raw, "day")
		h, hOK := hiveInt(raw, "hour")
		if !mOK || !dOK || !hOK {
			return nil, ibxerrors.Newf(codePartitionDerive, "partition field %q: missing hive \"month\"/\"day\"/\"hour\" keys", f.Name)
		}
		return epochHour(y, m, d, h), nil
	}
	return nil, ibxerrors.Newf(codePartitionDerive, "partition field %q: unhandled calendar transform %q", f.Name, f.Transform)
}

// coercePartitionValue renders an explicitly-supplied partition value as
// the Avro-physical type the transform implies: int64 for the calendar
// and bucket transforms, string for truncate/identity (spec.md §4.5).
func coercePartitionValue(transform string, v any) (any, error) {
	if partition.AvroKindForTransform(transform) == "int" {
		n, ok := toInt64(v)
		if !ok {
			return nil, ibxerrors.Newf(codePartitionDerive, "transform %q: expected integer-like value, got %T", transform, v)
		}
		return n, nil
	}
	return fmt.Sprintf("%v", v), nil
}

func hiveInt(raw map[string]any, key string) (int, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, false
	}
	return int(n), true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// epochDay returns the number of days between 1970-01-01 and y-m-d (both
// UTC midnight), matching scenario 5: {2024,1,15} -> 19737.
func epochDay(y, m, d int) int64 {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Unix() / 86400
}

func epochMonth(y, m int) int64 {
	return int64(y-1970)*12 + int64(m-1)
}

func epochYear(y int) int64 {
	return int64(y - 1970)
}

func epochHour(y, m, d, h int) int64 {
	t := time.Date(y, time.Month(m), d, h, 0, 0, 0, time.UTC)
	return t.Unix() / 3600
}
