// Package schema registers the entity kinds the ingestion service
// accepts. Each registration declares the upload template headers, field
// validation, duplicate-detection key, derived fields, and media rules
// for one kind.
package schema

import (
	"context"
	"strings"

	"github.com/fieldops/ingest/internal/ingest"
)

func init() {
	registerEmployee()
	registerSite()
	registerWorkOrder()
}

// Employee enrollment intentionally has no natural key: the same person
// may be enrolled for multiple engagements, so duplicate detection is
// skipped for this kind.
func registerEmployee() {
	ingest.Register(ingest.EntitySchema{
		Kind:     "employee",
		Label:    "Employee Enrollment",
		KeyField: "employeeId",
		Fields: []ingest.FieldSpec{
			{Name: "firstName", Required: true},
			{Name: "lastName"},
			{Name: "phone", Header: "phone_number", Required: true, Validate: ingest.ValidatePhone},
			{Name: "email", Validate: ingest.ValidateEmail},
			{Name: "dateOfBirth", Header: "dob", Type: ingest.FieldDate},
			{Name: "dateOfJoining", Header: "doj", Type: ingest.FieldDate},
			{Name: "clientName", Header: "client_name", Required: true},
			{Name: "designation"},
			{Name: "pan", Normalizer: strings.ToUpper, Validate: ingest.ValidatePAN},
			{Name: "aadhaar", Header: "aadhar_number", Validate: ingest.ValidateAadhaar},
			{Name: "ifsc", Header: "ifsc_code", Normalizer: strings.ToUpper, Validate: ingest.ValidateIFSC},
			{Name: "bankAccount", Header: "bank_account"},
			{Name: "monthlySalary", Header: "monthly_salary", Type: ingest.FieldNumeric},
			{Name: "address"},
			{Name: "photoData", Header: "photo"},
			{Name: "photoURL", Header: "photo_url"},
			{Name: "idDocumentData", Header: "id_document"},
			{Name: "idDocumentURL", Header: "id_document_url"},
		},
		Derive: []ingest.DeriveFunc{
			deriveEmployeeIdentity,
			deriveEmployeeQR,
		},
		Media: []ingest.MediaSpec{
			{
				Field:          "photoData",
				FallbackField:  "photoURL",
				TargetField:    "photoURL",
				NamespaceField: "phone",
				MaxWidth:       800,
				MaxHeight:      800,
			},
			{
				Field:          "idDocumentData",
				FallbackField:  "idDocumentURL",
				TargetField:    "idDocumentURL",
				NamespaceField: "phone",
				MaxWidth:       1024,
				MaxHeight:      1024,
			},
		},
	})
}

func deriveEmployeeIdentity(ctx context.Context, d *ingest.Deriver, rec ingest.Record, row int) {
	rec["fullName"] = ingest.FullName(rec.String("firstName"), rec.String("lastName"))
	rec["employeeId"] = d.Identifier(ctx, d.OrgPrefix(), rec.String("clientName"), row)
}

// deriveEmployeeQR runs after deriveEmployeeIdentity so the payload can
// include the generated employee ID. When the image cannot be produced
// the plain payload is stored for client-side rendering.
func deriveEmployeeQR(ctx context.Context, d *ingest.Deriver, rec ingest.Record, row int) {
	payload := ingest.QRPayload(rec.String("employeeId"), rec.String("fullName"), rec.String("phone"))
	rec["qrPayload"] = payload

	if url, ok := d.QRImage(ctx, "employee", payload); ok {
		rec["qrURL"] = url
	} else {
		rec["qrURL"] = nil
	}
}
