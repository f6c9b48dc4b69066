package classifier

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// ErrInvalidRuleset marks configuration errors in the rule table. These are
// fatal at startup; there are no per-email configuration errors.
var ErrInvalidRuleset = errors.New("invalid ruleset")

// Ruleset is the immutable classification configuration: the ordered rule
// table, scoring thresholds and the registration grammar table. It is built
// once at startup and never mutated afterwards, so classification calls can
// share it across goroutines without locking.
type Ruleset struct {
	Rules              []core.Rule
	MinScore           float64
	FallbackConfidence float64
	DefaultCeiling     float64
	Ceilings           map[core.Category]float64
	Grammars           []CountryGrammar
}

type rulesetFile struct {
	Version    int              `yaml:"version"`
	Thresholds thresholdsFile   `yaml:"thresholds"`
	Rules      []ruleFile       `yaml:"rules"`
	Grammars   []CountryGrammar `yaml:"registrations"`
}

type thresholdsFile struct {
	MinScore           float64            `yaml:"min_score"`
	FallbackConfidence float64            `yaml:"fallback_confidence"`
	DefaultCeiling     float64            `yaml:"default_ceiling"`
	Ceilings           map[string]float64 `yaml:"ceilings"`
}

type ruleFile struct {
	Name         string   `yaml:"name"`
	Category     string   `yaml:"category"`
	PriorityHint string   `yaml:"priority_hint"`
	Weight       float64  `yaml:"weight"`
	Keywords     []string `yaml:"keywords"`
}

// LoadRuleset reads and validates a rule table from a YAML file. An empty
// path selects the compiled-in defaults; an unreadable or malformed file is
// a fatal configuration error, never silently replaced by defaults.
func LoadRuleset(path string) (*Ruleset, error) {
	if path == "" {
		return DefaultRuleset(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var file rulesetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	rs, err := fromFile(&file)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}

func fromFile(file *rulesetFile) (*Ruleset, error) {
	rs := &Ruleset{
		MinScore:           file.Thresholds.MinScore,
		FallbackConfidence: file.Thresholds.FallbackConfidence,
		DefaultCeiling:     file.Thresholds.DefaultCeiling,
		Ceilings:           make(map[core.Category]float64),
		Grammars:           file.Grammars,
	}
	if rs.MinScore == 0 {
		rs.MinScore = 1.0
	}
	if rs.FallbackConfidence == 0 {
		rs.FallbackConfidence = 0.4
	}
	if rs.DefaultCeiling == 0 {
		rs.DefaultCeiling = 5.0
	}
	if len(rs.Grammars) == 0 {
		rs.Grammars = DefaultGrammars()
	}

	for name, ceiling := range file.Thresholds.Ceilings {
		cat := core.Category(strings.ToUpper(name))
		if !cat.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q in ceilings", ErrInvalidRuleset, name)
		}
		rs.Ceilings[cat] = ceiling
	}

	for i, rf := range file.Rules {
		rule := core.Rule{
			Name:         rf.Name,
			Category:     core.Category(strings.ToUpper(rf.Category)),
			Weight:       rf.Weight,
			PriorityHint: core.Priority(strings.ToUpper(rf.PriorityHint)),
		}
		if rule.Name == "" {
			return nil, fmt.Errorf("%w: rule %d has no name", ErrInvalidRuleset, i)
		}
		if rf.PriorityHint == "" {
			rule.PriorityHint = core.PriorityNormal
		}
		for _, kw := range rf.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			rule.Keywords = append(rule.Keywords, kw)
		}
		rs.Rules = append(rs.Rules, rule)
	}

	if err := rs.validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (rs *Ruleset) validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("%w: no rules configured", ErrInvalidRuleset)
	}
	if rs.MinScore <= 0 {
		return fmt.Errorf("%w: min_score must be positive", ErrInvalidRuleset)
	}
	if rs.FallbackConfidence <= 0 || rs.FallbackConfidence > 1 {
		return fmt.Errorf("%w: fallback_confidence must be in (0,1]", ErrInvalidRuleset)
	}
	if rs.DefaultCeiling <= 0 {
		return fmt.Errorf("%w: default_ceiling must be positive", ErrInvalidRuleset)
	}
	for cat, ceiling := range rs.Ceilings {
		if ceiling <= 0 {
			return fmt.Errorf("%w: ceiling for %s must be positive", ErrInvalidRuleset, cat)
		}
	}
	for _, rule := range rs.Rules {
		if !rule.Category.Valid() {
			return fmt.Errorf("%w: rule %q has unknown category %q", ErrInvalidRuleset, rule.Name, rule.Category)
		}
		if !rule.PriorityHint.Valid() {
			return fmt.Errorf("%w: rule %q has unknown priority hint %q", ErrInvalidRuleset, rule.Name, rule.PriorityHint)
		}
		if rule.Weight <= 0 {
			return fmt.Errorf("%w: rule %q has non-positive weight", ErrInvalidRuleset, rule.Name)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("%w: rule %q has no keywords", ErrInvalidRuleset, rule.Name)
		}
	}
	return nil
}

// Ceiling returns the confidence-normalization ceiling for a category.
func (rs *Ruleset) Ceiling(cat core.Category) float64 {
	if c, ok := rs.Ceilings[cat]; ok {
		return c
	}
	return rs.DefaultCeiling
}

// DefaultRuleset returns the compiled-in rule table used when no rules file
// is configured.
func DefaultRuleset() *Ruleset {
	rs := &Ruleset{
		MinScore:           1.0,
		FallbackConfidence: 0.4,
		DefaultCeiling:     5.0,
		Ceilings: map[core.Category]float64{
			core.CategoryAOG:         8.0,
			core.CategoryMaintenance: 6.0,
		},
		Grammars: DefaultGrammars(),
		Rules: []core.Rule{
			{
				Name:         "aog-core",
				Category:     core.CategoryAOG,
				PriorityHint: core.PriorityCritical,
				Weight:       3.0,
				Keywords: []string{
					"aog", "aircraft on ground", "grounded", "emergency",
					"stranded", "stuck", "cannot depart", "unable to fly",
				},
			},
			{
				Name:         "aog-urgency",
				Category:     core.CategoryAOG,
				PriorityHint: core.PriorityCritical,
				Weight:       2.0,
				Keywords:     []string{"urgent", "critical", "immediate", "asap"},
			},
			{
				Name:         "aog-fault",
				Category:     core.CategoryAOG,
				PriorityHint: core.PriorityHigh,
				Weight:       1.0,
				Keywords:     []string{"failure", "malfunction", "broken", "flight delay", "dispatch"},
			},
			{
				Name:         "maintenance-core",
				Category:     core.CategoryMaintenance,
				PriorityHint: core.PriorityNormal,
				Weight:       1.0,
				Keywords: []string{
					"maintenance", "repair", "inspection", "overhaul", "check",
					"scheduled", "routine",
				},
			},
			{
				Name:         "maintenance-systems",
				Category:     core.CategoryMaintenance,
				PriorityHint: core.PriorityHigh,
				Weight:       1.0,
				Keywords:     []string{"engine", "hydraulic", "electrical", "avionics", "mel"},
			},
			{
				Name:         "parts-core",
				Category:     core.CategoryParts,
				PriorityHint: core.PriorityNormal,
				Weight:       1.0,
				Keywords: []string{
					"parts", "spare", "replacement", "shipment", "delivery",
					"inventory", "procurement",
				},
			},
			{
				Name:         "parts-expedite",
				Category:     core.CategoryParts,
				PriorityHint: core.PriorityHigh,
				Weight:       1.5,
				Keywords:     []string{"expedite", "overnight", "next flight out"},
			},
			{
				Name:         "invoice-core",
				Category:     core.CategoryInvoice,
				PriorityHint: core.PriorityNormal,
				Weight:       1.0,
				Keywords: []string{
					"invoice", "billing", "payment", "quote", "estimate",
					"charge", "accounting",
				},
			},
			{
				Name:         "general-inquiry",
				Category:     core.CategoryGeneral,
				PriorityHint: core.PriorityNormal,
				Weight:       1.0,
				Keywords:     []string{"inquiry", "question", "information", "help"},
			},
		},
	}
	return rs
}
