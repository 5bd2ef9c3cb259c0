// Package partition holds the PartitionSpec/PartitionField model shared by
// the manifest builder and the table-metadata state machine.
package partition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Field is one partition column: the source schema field it derives from,
// the transform applied, and the partition-field id (assigned from 1000
// upward, distinct from the source schema's field-id space).
type Field struct {
	Name      string
	Transform string
	SourceID  int
	FieldID   int
}

// Spec is an ordered partition specification.
type Spec struct {
	SpecID int
	Fields []Field
}

// FirstPartitionFieldID is where partition-field id assignment starts,
// per spec.md §3 ("Partition-field ids are assigned from 1000 upward").
const FirstPartitionFieldID = 1000

var bucketRe = regexp.MustCompile(`^bucket\[(\d+)\]$`)
var truncateRe = regexp.MustCompile(`^truncate\[(\d+)\]$`)

// IsCalendarTransform reports whether t is one of the epoch-relative
// calendar transforms (year/month/day/hour), which derive an integer
// partition value from a timestamp or date column.
func IsCalendarTransform(t string) bool {
	switch t {
	case "year", "month", "day", "hour":
		return true
	}
	return false
}

// BucketWidth parses "bucket[N]" and returns N; ok is false for any other
// transform string.
func BucketWidth(t string) (int, bool) {
	m := bucketRe.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(m[1])
	return n, true
}

// TruncateWidth parses "truncate[W]" and returns W; ok is false for any
// other transform string.
func TruncateWidth(t string) (int, bool) {
	m := truncateRe.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(m[1])
	return n, true
}

// AvroKindForTransform returns "int" or "string": the physical type the
// manifest builder's partition sub-record uses for a field with this
// transform (spec.md §4.5: day/month/year/hour/bucket -> int;
// truncate/identity default -> string).
func AvroKindForTransform(t string) string {
	if IsCalendarTransform(t) {
		return "int"
	}
	if _, ok := BucketWidth(t); ok {
		return "int"
	}
	return "string"
}

// NextFieldID returns the id the next partition field added to specs
// should use: one past the highest id already assigned across every spec
// version supplied (specs is typically just the current spec, but the
// metadata state machine may pass historical specs too).
func NextFieldID(specs ...Spec) int {
	max := FirstPartitionFieldID - 1
	for _, s := range specs {
		for _, f := range s.Fields {
			if f.FieldID > max {
				max = f.FieldID
			}
		}
	}
	return max + 1
}

func (f Field) String() string {
	return fmt.Sprintf("%d: %s: %s(%d)", f.FieldID, f.Name, f.Transform, f.SourceID)
}

type fieldJSON struct {
	Name      string `json:"name"`
	Transform string `json:"transform"`
	SourceID  int    `json:"source-id"`
	FieldID   int    `json:"field-id"`
}

type specJSON struct {
	SpecID int         `json:"spec-id"`
	Fields []fieldJSON `json:"fields"`
}

// MarshalJSON renders the spec as metadata.json's partition-specs entry
// shape: {"spec-id": N, "fields": [{"name","transform","source-id","field-id"}, ...]}.
func (s Spec) MarshalJSON() ([]byte, error) {
	fields := make([]fieldJSON, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = fieldJSON{Name: f.Name, Transform: f.Transform, SourceID: f.SourceID, FieldID: f.FieldID}
	}
	return json.Marshal(specJSON{SpecID: s.SpecID, Fields: fields})
}

// UnmarshalJSON reads back the shape MarshalJSON produces.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var sj specJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	fields := make([]Field, len(sj.Fields))
	for i, f := range sj.Fields {
		fields[i] = Field{Name: f.Name, Transform: f.Transform, SourceID: f.SourceID, FieldID: f.FieldID}
	}
	s.SpecID = sj.SpecID
	s.Fields = fields
	return nil
}
