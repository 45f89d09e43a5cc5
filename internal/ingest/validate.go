package ingest

// validate.go applies the entity field schema to each parsed row.
//
// All errors for a row are collected before deciding its fate: a row with
// three bad fields reports all three, never just the first. A row with any
// accumulated error is excluded from every later stage.

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phoneRegex   = regexp.MustCompile(`^[6-9]\d{9}$`)
	panRegex     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscRegex    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	aadhaarRegex = regexp.MustCompile(`^\d{12}$`)
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidatePhone checks for a 10-digit Indian mobile number.
func ValidatePhone(s string) error {
	if !phoneRegex.MatchString(s) {
		return fmt.Errorf("must be a 10-digit mobile number")
	}
	return nil
}

// ValidatePAN checks the permanent-account-number format (AAAAA9999A).
func ValidatePAN(s string) error {
	if !panRegex.MatchString(strings.ToUpper(s)) {
		return fmt.Errorf("invalid PAN format")
	}
	return nil
}

// ValidateIFSC checks the 11-character bank branch code format.
func ValidateIFSC(s string) error {
	if !ifscRegex.MatchString(strings.ToUpper(s)) {
		return fmt.Errorf("invalid IFSC code")
	}
	return nil
}

// ValidateAadhaar checks for a 12-digit identity number.
func ValidateAadhaar(s string) error {
	if !aadhaarRegex.MatchString(s) {
		return fmt.Errorf("must be a 12-digit number")
	}
	return nil
}

// ValidateEmail checks for a plausible email address.
func ValidateEmail(s string) error {
	if !emailRegex.MatchString(s) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// RowValidator validates rows against an entity schema.
type RowValidator struct {
	schema EntitySchema
}

// NewRowValidator creates a validator for the given entity schema.
func NewRowValidator(schema EntitySchema) *RowValidator {
	return &RowValidator{schema: schema}
}

// ValidateRow checks one raw row against the schema. On success it returns
// the normalized record and an empty error slice; otherwise it returns all
// accumulated field errors and a nil record.
func (v *RowValidator) ValidateRow(row RawRow) (Record, []string) {
	var errs []string

	// Pass 1: presence and format. All problems are collected.
	for _, spec := range v.schema.Fields {
		raw := CleanCell(row.Cells[spec.Name])
		if spec.Normalizer != nil && raw != "" {
			raw = spec.Normalizer(raw)
		}

		if raw == "" {
			if spec.Required {
				errs = append(errs, fmt.Sprintf("%s is required", spec.Name))
			}
			continue
		}

		if err := checkType(raw, spec); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", spec.Name, err))
			continue
		}

		if spec.Validate != nil {
			if err := spec.Validate(raw); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", spec.Name, err))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	// Pass 2: typed transforms. Conversion cannot fail here because the
	// same parse already succeeded in pass 1.
	rec := make(Record, len(v.schema.Fields))
	for _, spec := range v.schema.Fields {
		raw := CleanCell(row.Cells[spec.Name])
		if spec.Normalizer != nil && raw != "" {
			raw = spec.Normalizer(raw)
		}
		if raw == "" {
			continue
		}

		switch spec.Type {
		case FieldNumeric:
			n, _ := ParseNumber(raw)
			rec[spec.Name] = n
		case FieldDate:
			t, _ := ParseDate(raw)
			rec[spec.Name] = t
		case FieldGeo:
			g, _ := ParseGeoPoint(raw)
			rec[spec.Name] = g
		default:
			rec[spec.Name] = raw
		}
	}

	return rec, nil
}

// checkType validates a non-empty cell against its declared field type.
func checkType(value string, spec FieldSpec) error {
	switch spec.Type {
	case FieldNumeric:
		if _, err := ParseNumber(value); err != nil {
			return fmt.Errorf("invalid number %q", value)
		}
	case FieldDate:
		if _, err := ParseDate(value); err != nil {
			return fmt.Errorf("invalid date %q", value)
		}
	case FieldGeo:
		if _, err := ParseGeoPoint(value); err != nil {
			return err
		}
	}
	return nil
}
