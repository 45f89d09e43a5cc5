package schema

import (
	"context"

	"github.com/fieldops/ingest/internal/ingest"
)

func registerWorkOrder() {
	ingest.Register(ingest.EntitySchema{
		Kind:       "workorder",
		Label:      "Work Orders",
		KeyField:   "orderId",
		NaturalKey: []string{"clientName", "orderRef"},
		Fields: []ingest.FieldSpec{
			{Name: "clientName", Header: "Client Name", Required: true},
			{Name: "siteName", Header: "Site Name", Required: true},
			{Name: "orderRef", Header: "Order Ref", Required: true},
			{Name: "description", Header: "Description"},
			{Name: "quantity", Header: "Quantity", Type: ingest.FieldNumeric},
			{Name: "rate", Header: "Rate", Type: ingest.FieldNumeric},
			{Name: "startDate", Header: "Start Date", Type: ingest.FieldDate, Required: true},
			{Name: "endDate", Header: "End Date", Type: ingest.FieldDate},
		},
		Derive: []ingest.DeriveFunc{
			deriveWorkOrderID,
		},
	})
}

func deriveWorkOrderID(ctx context.Context, d *ingest.Deriver, rec ingest.Record, row int) {
	rec["orderId"] = d.Identifier(ctx, "WO", rec.String("clientName"), row)
}
