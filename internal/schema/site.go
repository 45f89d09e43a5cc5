package schema

import "github.com/fieldops/ingest/internal/ingest"

// Site uploads use the client-facing template headers verbatim, including
// the legacy "CITY" column which maps to the district field.
func registerSite() {
	ingest.Register(ingest.EntitySchema{
		Kind:       "site",
		Label:      "Sites",
		KeyField:   "siteId",
		NaturalKey: []string{"clientName", "siteName"},
		Fields: []ingest.FieldSpec{
			{Name: "clientName", Header: "Client Name", Required: true},
			{Name: "siteName", Header: "Site Name", Required: true},
			{Name: "siteId", Header: "Site ID"},
			{Name: "address", Header: "Site Address", Required: true},
			{Name: "geolocation", Header: "Geolocation", Type: ingest.FieldGeo},
			{Name: "district", Header: "CITY"},
			{Name: "state", Header: "State"},
			{Name: "contactName", Header: "Contact Person"},
			{Name: "contactPhone", Header: "Contact Phone", Validate: ingest.ValidatePhone},
			{Name: "sitePhotoData", Header: "Site Photo"},
			{Name: "sitePhotoURL", Header: "Site Photo URL"},
		},
		Media: []ingest.MediaSpec{
			{
				Field:          "sitePhotoData",
				FallbackField:  "sitePhotoURL",
				TargetField:    "sitePhotoURL",
				NamespaceField: "siteId",
				MaxWidth:       1024,
				MaxHeight:      1024,
			},
		},
	})
}
