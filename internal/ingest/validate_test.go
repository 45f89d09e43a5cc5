package ingest

import (
	"strings"
	"testing"
	"time"
)

func employeeTestSchema() EntitySchema {
	return EntitySchema{
		Kind: "employee",
		Fields: []FieldSpec{
			{Name: "firstName", Required: true},
			{Name: "phone", Required: true, Validate: ValidatePhone},
			{Name: "pan", Normalizer: strings.ToUpper, Validate: ValidatePAN},
			{Name: "dateOfBirth", Type: FieldDate},
			{Name: "salary", Type: FieldNumeric},
			{Name: "geolocation", Type: FieldGeo},
		},
	}
}

func TestValidateRow_Success(t *testing.T) {
	v := NewRowValidator(employeeTestSchema())

	rec, errs := v.ValidateRow(RawRow{Index: 1, Cells: map[string]string{
		"firstName":   "Asha",
		"phone":       "9876543210",
		"pan":         "abcde1234f",
		"dateOfBirth": "1990-01-15",
		"salary":      "15,000",
		"geolocation": "10.1234,76.5432",
	}})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if rec.String("firstName") != "Asha" {
		t.Errorf("firstName = %q", rec.String("firstName"))
	}
	// Normalizer uppercases before validation and storage.
	if rec.String("pan") != "ABCDE1234F" {
		t.Errorf("pan = %q, want ABCDE1234F", rec.String("pan"))
	}
	if got, ok := rec["salary"].(float64); !ok || got != 15000 {
		t.Errorf("salary = %v, want 15000", rec["salary"])
	}
	if got, ok := rec["dateOfBirth"].(time.Time); !ok || got.Format("2006-01-02") != "1990-01-15" {
		t.Errorf("dateOfBirth = %v", rec["dateOfBirth"])
	}
	if got, ok := rec["geolocation"].(GeoPoint); !ok || got.Lat != 10.1234 {
		t.Errorf("geolocation = %v", rec["geolocation"])
	}
}

func TestValidateRow_RequiredFieldMessage(t *testing.T) {
	v := NewRowValidator(employeeTestSchema())

	rec, errs := v.ValidateRow(RawRow{Index: 1, Cells: map[string]string{
		"phone": "9876543210",
	}})
	if rec != nil {
		t.Fatal("expected nil record on validation failure")
	}
	if len(errs) != 1 || errs[0] != "firstName is required" {
		t.Errorf("errors = %v, want [firstName is required]", errs)
	}
}

func TestValidateRow_CollectsAllErrors(t *testing.T) {
	v := NewRowValidator(employeeTestSchema())

	// Missing required field, bad phone, bad date, bad geo: all four
	// must be reported, never just the first.
	_, errs := v.ValidateRow(RawRow{Index: 1, Cells: map[string]string{
		"phone":       "12345",
		"dateOfBirth": "not-a-date",
		"geolocation": "95,200",
	}})
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(errs), errs)
	}
}

func TestValidateRow_WhitespaceOnlyRequired(t *testing.T) {
	v := NewRowValidator(employeeTestSchema())

	_, errs := v.ValidateRow(RawRow{Index: 1, Cells: map[string]string{
		"firstName": "   ",
		"phone":     "9876543210",
	}})
	if len(errs) != 1 || errs[0] != "firstName is required" {
		t.Errorf("errors = %v", errs)
	}
}

func TestValidateRow_OptionalFieldsOmitted(t *testing.T) {
	v := NewRowValidator(employeeTestSchema())

	rec, errs := v.ValidateRow(RawRow{Index: 1, Cells: map[string]string{
		"firstName": "Asha",
		"phone":     "9876543210",
	}})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := rec["pan"]; ok {
		t.Error("empty optional field should not appear in the record")
	}
}

func TestValidateRow_ExcelSerialDate(t *testing.T) {
	v := NewRowValidator(employeeTestSchema())

	rec, errs := v.ValidateRow(RawRow{Index: 1, Cells: map[string]string{
		"firstName":   "Asha",
		"phone":       "9876543210",
		"dateOfBirth": "45000",
	}})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := rec["dateOfBirth"].(time.Time)
	if got.Format("2006-01-02") != "2023-03-15" {
		t.Errorf("serial date = %s, want 2023-03-15", got.Format("2006-01-02"))
	}
}

func TestValidateRow_InvalidSerialNamesField(t *testing.T) {
	v := NewRowValidator(employeeTestSchema())

	_, errs := v.ValidateRow(RawRow{Index: 1, Cells: map[string]string{
		"firstName":   "Asha",
		"phone":       "9876543210",
		"dateOfBirth": "99999999",
	}})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if !strings.HasPrefix(errs[0], "dateOfBirth:") {
		t.Errorf("error should name the field: %q", errs[0])
	}
}

// ----------------------------------------------------------------------------
// Format validator tests
// ----------------------------------------------------------------------------

func TestValidatePhone(t *testing.T) {
	valid := []string{"9876543210", "6000000000"}
	invalid := []string{"12345", "98765432101", "abcdefghij", "1234567890", ""}

	for _, s := range valid {
		if err := ValidatePhone(s); err != nil {
			t.Errorf("ValidatePhone(%q) unexpected error: %v", s, err)
		}
	}
	for _, s := range invalid {
		if err := ValidatePhone(s); err == nil {
			t.Errorf("ValidatePhone(%q) expected error", s)
		}
	}
}

func TestValidatePAN(t *testing.T) {
	if err := ValidatePAN("ABCDE1234F"); err != nil {
		t.Errorf("valid PAN rejected: %v", err)
	}
	for _, s := range []string{"ABCD1234F", "ABCDE12345", "1234567890"} {
		if err := ValidatePAN(s); err == nil {
			t.Errorf("ValidatePAN(%q) expected error", s)
		}
	}
}

func TestValidateIFSC(t *testing.T) {
	if err := ValidateIFSC("HDFC0001234"); err != nil {
		t.Errorf("valid IFSC rejected: %v", err)
	}
	for _, s := range []string{"HDFC1001234", "HDFC000123", "hdfc0001234x"} {
		if err := ValidateIFSC(s); err == nil {
			t.Errorf("ValidateIFSC(%q) expected error", s)
		}
	}
}

func TestValidateAadhaar(t *testing.T) {
	if err := ValidateAadhaar("123456789012"); err != nil {
		t.Errorf("valid Aadhaar rejected: %v", err)
	}
	for _, s := range []string{"12345678901", "1234567890123", "12345678901a"} {
		if err := ValidateAadhaar(s); err == nil {
			t.Errorf("ValidateAadhaar(%q) expected error", s)
		}
	}
}
