package classifier

import (
	"reflect"
	"testing"

	"github.com/embassy-aviation/mailbot/internal/core"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	x, err := NewExtractor(DefaultGrammars())
	if err != nil {
		t.Fatalf("failed to compile grammars: %v", err)
	}
	return x
}

func TestExtractRegistrations(t *testing.T) {
	x := newTestExtractor(t)

	tests := []struct {
		name        string
		text        string
		wantValue   string
		wantCountry string
	}{
		{"us", "Tail N123AB is ready", "N123AB", "US"},
		{"us short", "N1 departed", "N1", "US"},
		{"canada dashed", "C-FABC on stand 4", "C-FABC", "CA"},
		{"canada undashed", "CFABC on stand 4", "CFABC", "CA"},
		{"uk", "G-ABCD inbound", "G-ABCD", "GB"},
		{"germany", "D-EFGH inbound", "D-EFGH", "DE"},
		{"france", "F-HIJK inbound", "F-HIJK", "FR"},
		{"japan", "JA8089 inbound", "JA8089", "JP"},
		{"japan suffixed", "JA8089A inbound", "JA8089A", "JP"},
		{"lowercase is not a registration", "n123ab is ready", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := x.Extract(tt.text)
			if tt.wantValue == "" {
				for _, e := range entities {
					if e.Kind == core.EntityAircraftRegistration {
						t.Fatalf("unexpected registration %q", e.Value)
					}
				}
				return
			}
			if len(entities) != 1 {
				t.Fatalf("got %d entities, want 1: %v", len(entities), entities)
			}
			e := entities[0]
			if e.Kind != core.EntityAircraftRegistration {
				t.Errorf("kind = %s, want %s", e.Kind, core.EntityAircraftRegistration)
			}
			if e.Value != tt.wantValue {
				t.Errorf("value = %q, want %q", e.Value, tt.wantValue)
			}
			if e.Country != tt.wantCountry {
				t.Errorf("country = %q, want %q", e.Country, tt.wantCountry)
			}
		})
	}
}

func TestExtractTicketReferences(t *testing.T) {
	x := newTestExtractor(t)

	entities := x.Extract("Follow-up on EMB-20260830-0001, original quote INV-12345.")
	want := []core.ExtractedEntity{
		{Kind: core.EntityTicketReference, Value: "EMB-20260830-0001"},
		{Kind: core.EntityTicketReference, Value: "INV-12345"},
	}
	if !reflect.DeepEqual(entities, want) {
		t.Errorf("entities = %v, want %v", entities, want)
	}
}

func TestExtractOrderAndDedupe(t *testing.T) {
	x := newTestExtractor(t)

	// Ordered by first occurrence even though the US grammar is scanned
	// first; the repeated registration collapses to one entity.
	entities := x.Extract("C-FABC then N123AB then C-FABC again")
	want := []core.ExtractedEntity{
		{Kind: core.EntityAircraftRegistration, Value: "C-FABC", Country: "CA"},
		{Kind: core.EntityAircraftRegistration, Value: "N123AB", Country: "US"},
	}
	if !reflect.DeepEqual(entities, want) {
		t.Errorf("entities = %v, want %v", entities, want)
	}
}

func TestExtractGrammarOrderPrecedence(t *testing.T) {
	// Two grammars that both claim the same token: the first-registered
	// grammar wins the span.
	x, err := NewExtractor([]CountryGrammar{
		{Country: "XA", Pattern: `\bN[0-9]{3}[A-Z]{2}\b`},
		{Country: "XB", Pattern: `\bN[0-9]{1,5}[A-Z]{0,2}\b`},
	})
	if err != nil {
		t.Fatalf("failed to compile grammars: %v", err)
	}

	entities := x.Extract("registration N123AB confirmed")
	if len(entities) != 1 {
		t.Fatalf("got %d entities, want 1: %v", len(entities), entities)
	}
	if entities[0].Country != "XA" {
		t.Errorf("country = %q, want first grammar XA", entities[0].Country)
	}
}

func TestExtractIdempotent(t *testing.T) {
	x := newTestExtractor(t)

	text := "AOG N789XY at JFK, ref EMB-20260830-0002, also G-ABCD"
	first := x.Extract(text)
	second := x.Extract(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated extraction differs: %v vs %v", second, first)
	}
}

func TestNewExtractorRejectsBadPattern(t *testing.T) {
	_, err := NewExtractor([]CountryGrammar{{Country: "US", Pattern: `[`}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestExtractEmpty(t *testing.T) {
	x := newTestExtractor(t)
	if got := x.Extract(""); len(got) != 0 {
		t.Errorf("entities from empty text = %v, want none", got)
	}
}
