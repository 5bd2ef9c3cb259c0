package errors

import (
	"testing"
)

func TestNewCode(t *testing.T) {
	validCodes := []string{
		"avro.block_write_failed",
		"metadata.load_failed",
		"schema.field_id_reused",
		"storage.connection_failed",
		"table.already_exists",
	}

	for _, codeStr := range validCodes {
		code, err := NewCode(codeStr)
		if err != nil {
			t.Errorf("Expected valid code '%s' to succeed, got error: %v", codeStr, err)
		}
		if code.String() != codeStr {
			t.Errorf("Expected code string '%s', got '%s'", codeStr, code.String())
		}
	}

	invalidCodes := []string{
		"invalid",
		"avro.",
		".block_write_failed",
		"Avro.block_write_failed",
		"avro.block-write-failed",
		"avro.block_write_failed.",
		"avro..block_write_failed",
		"error.block_write_failed",
		"err.block_write_failed",
	}

	for _, codeStr := range invalidCodes {
		if _, err := NewCode(codeStr); err == nil {
			t.Errorf("Expected invalid code '%s' to fail, but it succeeded", codeStr)
		}
	}
}

func TestMustNewCode(t *testing.T) {
	code := MustNewCode("metadata.load_failed")
	if code.String() != "metadata.load_failed" {
		t.Errorf("Expected code 'metadata.load_failed', got '%s'", code.String())
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustNewCode to panic with invalid code")
		}
	}()
	MustNewCode("invalid")
}

func TestCodePackageAndName(t *testing.T) {
	code := MustNewCode("metadata.load_failed")

	if code.Package() != "metadata" {
		t.Errorf("Expected package 'metadata', got '%s'", code.Package())
	}

	if code.Name() != "load_failed" {
		t.Errorf("Expected name 'load_failed', got '%s'", code.Name())
	}
}

func TestCodeIsValid(t *testing.T) {
	validCode := MustNewCode("metadata.load_failed")
	if !validCode.IsValid() {
		t.Error("Expected valid code to return true for IsValid()")
	}

	invalidCode := Code{value: "invalid"}
	if invalidCode.IsValid() {
		t.Error("Expected invalid code to return false for IsValid()")
	}
}

func TestCodeEquals(t *testing.T) {
	code1 := MustNewCode("metadata.load_failed")
	code2 := MustNewCode("metadata.load_failed")
	code3 := MustNewCode("avro.block_write_failed")

	if !code1.Equals(code2) {
		t.Error("Expected identical codes to be equal")
	}

	if code1.Equals(code3) {
		t.Error("Expected different codes to not be equal")
	}
}

func TestPackageSpecificCodeConstructors(t *testing.T) {
	if got := AvroCode("block_write_failed").String(); got != "avro.block_write_failed" {
		t.Errorf("Expected 'avro.block_write_failed', got '%s'", got)
	}
	if got := SvCode("unsupported_type").String(); got != "sv.unsupported_type" {
		t.Errorf("Expected 'sv.unsupported_type', got '%s'", got)
	}
	if got := SchemaCode("field_id_reused").String(); got != "schema.field_id_reused" {
		t.Errorf("Expected 'schema.field_id_reused', got '%s'", got)
	}
	if got := ManifestCode("encode_failed").String(); got != "manifest.encode_failed" {
		t.Errorf("Expected 'manifest.encode_failed', got '%s'", got)
	}
	if got := MlistCode("encode_failed").String(); got != "mlist.encode_failed" {
		t.Errorf("Expected 'mlist.encode_failed', got '%s'", got)
	}
	if got := StatsCode("invalid_file_pattern").String(); got != "stats.invalid_file_pattern" {
		t.Errorf("Expected 'stats.invalid_file_pattern', got '%s'", got)
	}
	if got := SnapshotCode("assembly_failed").String(); got != "snapshot.assembly_failed" {
		t.Errorf("Expected 'snapshot.assembly_failed', got '%s'", got)
	}
	if got := MetadataCode("load_failed").String(); got != "metadata.load_failed" {
		t.Errorf("Expected 'metadata.load_failed', got '%s'", got)
	}
	if got := TableCode("already_exists").String(); got != "table.already_exists" {
		t.Errorf("Expected 'table.already_exists', got '%s'", got)
	}
	if got := StorageCode("connection_failed").String(); got != "storage.connection_failed" {
		t.Errorf("Expected 'storage.connection_failed', got '%s'", got)
	}
	if got := ComputeCode("query_failed").String(); got != "compute.query_failed" {
		t.Errorf("Expected 'compute.query_failed', got '%s'", got)
	}
}

func TestPackageCode(t *testing.T) {
	customCode := PackageCode("custom_package", "specific_failure")
	if customCode.String() != "custom_package.specific_failure" {
		t.Errorf("Expected 'custom_package.specific_failure', got '%s'", customCode.String())
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected PackageCode to panic with invalid format")
		}
	}()
	PackageCode("InvalidPackage", "bad")
}

func TestCommonCodes(t *testing.T) {
	commonCodes := []Code{
		CommonInternal,
		CommonNotFound,
		CommonValidation,
		CommonTimeout,
		CommonUnauthorized,
		CommonForbidden,
		CommonConflict,
		CommonUnsupported,
		CommonInvalidInput,
		CommonAlreadyExists,
	}

	for _, code := range commonCodes {
		if !code.IsValid() {
			t.Errorf("Common code '%s' is not valid", code.String())
		}

		if code.Package() != "common" {
			t.Errorf("Expected package 'common' for '%s', got '%s'", code.String(), code.Package())
		}
	}
}
