package classifier

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/embassy-aviation/mailbot/internal/core"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultRuleset())
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

func TestClassify(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name         string
		email        *core.Email
		wantCategory core.Category
		wantPriority core.Priority
		wantAircraft string
	}{
		{
			name: "aog emergency",
			email: &core.Email{
				Subject: "URGENT: Aircraft on ground at JFK",
				Body:    "Our aircraft N789XY is AOG with a hydraulic failure. Immediate assistance required.",
			},
			wantCategory: core.CategoryAOG,
			wantPriority: core.PriorityCritical,
			wantAircraft: "N789XY",
		},
		{
			name: "invoice question",
			email: &core.Email{
				Subject: "Question about invoice INV-12345",
				Body:    "I have a question about the payment on invoice INV-12345.",
			},
			wantCategory: core.CategoryInvoice,
			wantPriority: core.PriorityNormal,
		},
		{
			name: "scheduled maintenance",
			email: &core.Email{
				Subject: "Scheduled maintenance for C-FABC",
				Body:    "Please book the routine inspection check for next month.",
			},
			wantCategory: core.CategoryMaintenance,
			wantPriority: core.PriorityNormal,
			wantAircraft: "C-FABC",
		},
		{
			name: "parts expedite",
			email: &core.Email{
				Subject: "Spare parts shipment",
				Body:    "Please expedite the replacement pump, overnight if possible.",
			},
			wantCategory: core.CategoryParts,
			wantPriority: core.PriorityHigh,
		},
		{
			name: "unrelated text falls back to general",
			email: &core.Email{
				Subject: "Hello",
				Body:    "Just saying hi.",
			},
			wantCategory: core.CategoryGeneral,
			wantPriority: core.PriorityNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Classify(tt.email)
			if result.Category != tt.wantCategory {
				t.Errorf("category = %s, want %s", result.Category, tt.wantCategory)
			}
			if result.Priority != tt.wantPriority {
				t.Errorf("priority = %s, want %s", result.Priority, tt.wantPriority)
			}
			if got := result.AircraftRegistration(); got != tt.wantAircraft {
				t.Errorf("aircraft = %q, want %q", got, tt.wantAircraft)
			}
			if result.Confidence < 0 || result.Confidence > 1 {
				t.Errorf("confidence %f out of [0,1]", result.Confidence)
			}
			if result.Reasoning == "" {
				t.Error("reasoning is empty")
			}
		})
	}
}

func TestClassifyConfidenceNormalization(t *testing.T) {
	engine := newTestEngine(t)

	// Score 5 against the maintenance ceiling of 6.
	result := engine.Classify(&core.Email{
		Subject: "Scheduled maintenance",
		Body:    "Routine inspection check for the visit.",
	})
	if result.Category != core.CategoryMaintenance {
		t.Fatalf("category = %s, want %s", result.Category, core.CategoryMaintenance)
	}
	want := 5.0 / 6.0
	if diff := result.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %f, want %f", result.Confidence, want)
	}

	// A heavily loaded AOG email overshoots the ceiling and must cap at 1.
	result = engine.Classify(&core.Email{
		Subject: "URGENT AOG emergency",
		Body:    "Aircraft on ground, grounded, stranded. Critical, immediate, asap.",
	})
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %f, want capped 1.0", result.Confidence)
	}
}

func TestClassifyFallback(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Classify(&core.Email{
		Subject: "Fleet photos from last week",
		Body:    "Attached are the photos of N123AB you asked for.",
	})
	if result.Category != core.CategoryGeneral {
		t.Errorf("category = %s, want %s", result.Category, core.CategoryGeneral)
	}
	if result.Priority != core.PriorityNormal {
		t.Errorf("priority = %s, want %s", result.Priority, core.PriorityNormal)
	}
	if result.Confidence != 0.4 {
		t.Errorf("confidence = %f, want fallback 0.4", result.Confidence)
	}
	// Entities are still extracted on the fallback path.
	if got := result.AircraftRegistration(); got != "N123AB" {
		t.Errorf("aircraft = %q, want N123AB", got)
	}
	if len(result.MatchedRules) != 0 {
		t.Errorf("matched rules = %v, want none", result.MatchedRules)
	}
}

func TestClassifyTotality(t *testing.T) {
	engine := newTestEngine(t)

	emails := []*core.Email{
		{},
		{Subject: "", Body: ""},
		{Body: "   \t\n  "},
		{Subject: "<html><body></body></html>"},
		{Body: string([]byte{0xff, 0xfe, 0x41})},
		{Subject: "日本語のメール", Body: "JA8089 について"},
	}
	for i, email := range emails {
		result := engine.Classify(email)
		if result == nil {
			t.Fatalf("email %d: nil result", i)
		}
		if !result.Category.Valid() {
			t.Errorf("email %d: invalid category %q", i, result.Category)
		}
		if !result.Priority.Valid() {
			t.Errorf("email %d: invalid priority %q", i, result.Priority)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Errorf("email %d: confidence %f out of [0,1]", i, result.Confidence)
		}
	}
}

func TestClassifyDeterminism(t *testing.T) {
	engine := newTestEngine(t)

	email := &core.Email{
		Subject: "AOG N789XY - urgent engine failure",
		Body:    "Aircraft grounded at LHR, need parts shipment expedited. Ref EMB-20260830-0001.",
	}
	first := engine.Classify(email)
	for i := 0; i < 10; i++ {
		if got := engine.Classify(email); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d differs from first: %+v vs %+v", i, got, first)
		}
	}
}

func TestClassifyTieBreakPrefersMoreUrgentCategory(t *testing.T) {
	engine := newTestEngine(t)

	// One invoice keyword and one parts keyword: both categories score 1.0.
	result := engine.Classify(&core.Email{Body: "invoice for the parts"})
	if result.Category != core.CategoryParts {
		t.Errorf("category = %s, want %s on tie", result.Category, core.CategoryParts)
	}
}

func TestClassifyPriorityIsHighestHint(t *testing.T) {
	engine := newTestEngine(t)

	// maintenance-core hints NORMAL, maintenance-systems hints HIGH; the
	// higher hint wins for the winning category.
	result := engine.Classify(&core.Email{Body: "engine maintenance"})
	if result.Category != core.CategoryMaintenance {
		t.Fatalf("category = %s, want %s", result.Category, core.CategoryMaintenance)
	}
	if result.Priority != core.PriorityHigh {
		t.Errorf("priority = %s, want %s", result.Priority, core.PriorityHigh)
	}
}

func TestClassifyConcurrent(t *testing.T) {
	engine := newTestEngine(t)

	emails := make([]*core.Email, 16)
	for i := range emails {
		emails[i] = &core.Email{
			Subject: fmt.Sprintf("AOG report %d", i),
			Body:    "Aircraft N100AB grounded, urgent.",
		}
	}
	want := engine.Classify(emails[0])

	done := make(chan *core.ClassificationResult, len(emails))
	for _, email := range emails {
		go func(e *core.Email) {
			done <- engine.Classify(e)
		}(email)
	}
	for range emails {
		got := <-done
		if got.Category != want.Category || got.Priority != want.Priority || got.Confidence != want.Confidence {
			t.Errorf("concurrent result differs: %+v vs %+v", got, want)
		}
	}
}
