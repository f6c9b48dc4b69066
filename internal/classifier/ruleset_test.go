package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/embassy-aviation/mailbot/internal/core"
)

func TestDefaultRulesetIsValid(t *testing.T) {
	if err := DefaultRuleset().validate(); err != nil {
		t.Fatalf("default ruleset invalid: %v", err)
	}
}

func TestLoadRulesetEmptyPathUsesDefaults(t *testing.T) {
	rs, err := LoadRuleset("")
	if err != nil {
		t.Fatalf("LoadRuleset: %v", err)
	}
	if len(rs.Rules) == 0 {
		t.Fatal("expected built-in rules")
	}
	if len(rs.Grammars) == 0 {
		t.Fatal("expected built-in grammars")
	}
}

func TestLoadRulesetFromFile(t *testing.T) {
	path := writeRules(t, `
version: 1
thresholds:
  min_score: 2.0
  fallback_confidence: 0.3
  default_ceiling: 4.0
  ceilings:
    aog: 10.0
rules:
  - name: aog-test
    category: aog
    priority_hint: critical
    weight: 2.5
    keywords: [" AOG ", grounded]
registrations:
  - country: US
    pattern: '\bN[0-9]{1,5}[A-Z]{0,2}\b'
`)

	rs, err := LoadRuleset(path)
	if err != nil {
		t.Fatalf("LoadRuleset: %v", err)
	}
	if rs.MinScore != 2.0 || rs.FallbackConfidence != 0.3 || rs.DefaultCeiling != 4.0 {
		t.Errorf("thresholds not loaded: %+v", rs)
	}
	if got := rs.Ceiling(core.CategoryAOG); got != 10.0 {
		t.Errorf("aog ceiling = %f, want 10.0", got)
	}
	if got := rs.Ceiling(core.CategoryParts); got != 4.0 {
		t.Errorf("default ceiling = %f, want 4.0", got)
	}
	if len(rs.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rs.Rules))
	}
	rule := rs.Rules[0]
	if rule.Category != core.CategoryAOG {
		t.Errorf("category = %s, want %s", rule.Category, core.CategoryAOG)
	}
	if rule.PriorityHint != core.PriorityCritical {
		t.Errorf("priority hint = %s, want %s", rule.PriorityHint, core.PriorityCritical)
	}
	// Keywords are trimmed and lowercased on load.
	if rule.Keywords[0] != "aog" {
		t.Errorf("keyword = %q, want %q", rule.Keywords[0], "aog")
	}
	if len(rs.Grammars) != 1 || rs.Grammars[0].Country != "US" {
		t.Errorf("grammars = %+v, want single US entry", rs.Grammars)
	}
}

func TestLoadRulesetMissingHintDefaultsToNormal(t *testing.T) {
	path := writeRules(t, `
rules:
  - name: parts-test
    category: parts
    weight: 1.0
    keywords: [spare]
`)
	rs, err := LoadRuleset(path)
	if err != nil {
		t.Fatalf("LoadRuleset: %v", err)
	}
	if rs.Rules[0].PriorityHint != core.PriorityNormal {
		t.Errorf("priority hint = %s, want %s", rs.Rules[0].PriorityHint, core.PriorityNormal)
	}
}

func TestLoadRulesetErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no rules",
			yaml: `thresholds: {min_score: 1.0}`,
		},
		{
			name: "unknown category",
			yaml: `
rules:
  - name: bad
    category: catering
    weight: 1.0
    keywords: [lunch]
`,
		},
		{
			name: "unknown priority hint",
			yaml: `
rules:
  - name: bad
    category: parts
    priority_hint: severe
    weight: 1.0
    keywords: [spare]
`,
		},
		{
			name: "negative weight",
			yaml: `
rules:
  - name: bad
    category: parts
    weight: -1.0
    keywords: [spare]
`,
		},
		{
			name: "no keywords",
			yaml: `
rules:
  - name: bad
    category: parts
    weight: 1.0
    keywords: ["  "]
`,
		},
		{
			name: "unnamed rule",
			yaml: `
rules:
  - category: parts
    weight: 1.0
    keywords: [spare]
`,
		},
		{
			name: "fallback confidence above one",
			yaml: `
thresholds: {fallback_confidence: 1.5}
rules:
  - name: ok
    category: parts
    weight: 1.0
    keywords: [spare]
`,
		},
		{
			name: "ceiling for unknown category",
			yaml: `
thresholds:
  ceilings: {catering: 3.0}
rules:
  - name: ok
    category: parts
    weight: 1.0
    keywords: [spare]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRuleset(writeRules(t, tt.yaml))
			if !errors.Is(err, ErrInvalidRuleset) {
				t.Errorf("err = %v, want ErrInvalidRuleset", err)
			}
		})
	}
}

func TestLoadRulesetUnreadableFileIsFatal(t *testing.T) {
	if _, err := LoadRuleset(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}

func TestLoadRulesetMalformedYAMLIsFatal(t *testing.T) {
	if _, err := LoadRuleset(writeRules(t, "rules: [")); err == nil {
		t.Fatal("expected error for malformed rules file")
	}
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}
