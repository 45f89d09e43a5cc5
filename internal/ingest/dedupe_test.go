package ingest

import (
	"context"
	"testing"
)

func siteKeySchema() EntitySchema {
	return EntitySchema{
		Kind:       "site",
		NaturalKey: []string{"clientName", "siteName"},
	}
}

func TestNaturalKey(t *testing.T) {
	schema := siteKeySchema()

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "lowercased and joined",
			rec:  Record{"clientName": "Acme Corp", "siteName": "Main Gate"},
			want: "acme corp_main gate",
		},
		{
			name: "surrounding whitespace ignored",
			rec:  Record{"clientName": " Acme Corp ", "siteName": "Main Gate"},
			want: "acme corp_main gate",
		},
		{
			name: "missing component stays empty",
			rec:  Record{"clientName": "Acme Corp"},
			want: "acme corp_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NaturalKey(schema, tt.rec); got != tt.want {
				t.Errorf("NaturalKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNaturalKey_NoKeyDeclared(t *testing.T) {
	schema := EntitySchema{Kind: "employee"}
	if got := NaturalKey(schema, Record{"firstName": "Asha"}); got != "" {
		t.Errorf("NaturalKey() = %q, want empty for keyless schema", got)
	}
}

func TestDedupeSet_InJobDuplicates(t *testing.T) {
	set, err := newDedupeSet(context.Background(), nil, "site")
	if err != nil {
		t.Fatal(err)
	}

	if set.claim("acme corp_main gate") {
		t.Error("first claim flagged as duplicate")
	}
	if !set.claim("acme corp_main gate") {
		t.Error("second claim of the same key not flagged")
	}
	if set.claim("acme corp_east wing") {
		t.Error("distinct key flagged as duplicate")
	}
}

func TestDedupeSet_ExistingKeys(t *testing.T) {
	keys := stubKeySource{"acme corp_main gate": {}}

	set, err := newDedupeSet(context.Background(), keys, "site")
	if err != nil {
		t.Fatal(err)
	}

	if !set.claim("acme corp_main gate") {
		t.Error("persisted key not flagged as duplicate")
	}
	if set.claim("acme corp_east wing") {
		t.Error("fresh key flagged as duplicate")
	}
}

type stubKeySource map[string]struct{}

func (s stubKeySource) ExistingKeys(_ context.Context, _ string) (map[string]struct{}, error) {
	return s, nil
}
