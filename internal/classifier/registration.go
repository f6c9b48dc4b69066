package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// CountryGrammar describes the tail-number shape for one registration
// country. Grammars are configuration, not code: new countries are added by
// appending to the table. Table order is the precedence used to resolve
// overlapping matches.
type CountryGrammar struct {
	Country string `yaml:"country"`
	Pattern string `yaml:"pattern"`
	Example string `yaml:"example"`
}

// DefaultGrammars returns the built-in registration grammars. Patterns are
// intentionally permissive per-country shapes, not ICAO-exact validators.
func DefaultGrammars() []CountryGrammar {
	return []CountryGrammar{
		{Country: "US", Pattern: `\bN[0-9]{1,5}[A-Z]{0,2}\b`, Example: "N123AB"},
		{Country: "CA", Pattern: `\bC-?[FG][A-Z]{3}\b`, Example: "C-FABC"},
		{Country: "GB", Pattern: `\bG-[A-Z]{4}\b`, Example: "G-ABCD"},
		{Country: "DE", Pattern: `\bD-[A-Z]{4}\b`, Example: "D-ABCD"},
		{Country: "FR", Pattern: `\bF-[A-Z]{4}\b`, Example: "F-ABCD"},
		{Country: "JP", Pattern: `\bJA[0-9]{4}[A-Z]?\b`, Example: "JA8089"},
	}
}

// ticketRefPatterns match structured ticket/reference tokens. These are
// informational entities, never gating classification.
var ticketRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bEMB-[0-9]{8}-[0-9]{4}\b`),
	regexp.MustCompile(`\b(?:INV|TKT|REF)-[0-9]{3,8}\b`),
}

type compiledGrammar struct {
	country string
	re      *regexp.Regexp
}

// Extractor pulls aircraft registrations and ticket references out of
// original-case text. It is immutable after construction and safe for
// concurrent use.
type Extractor struct {
	grammars []compiledGrammar
}

// NewExtractor compiles the grammar table. A bad pattern is a configuration
// error and fails construction.
func NewExtractor(grammars []CountryGrammar) (*Extractor, error) {
	compiled := make([]compiledGrammar, 0, len(grammars))
	for _, g := range grammars {
		re, err := regexp.Compile(g.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid registration pattern for %s: %w", g.Country, err)
		}
		compiled = append(compiled, compiledGrammar{country: g.Country, re: re})
	}
	return &Extractor{grammars: compiled}, nil
}

type span struct {
	start, end int
	entity     core.ExtractedEntity
}

func overlaps(a, b span) bool {
	return a.start < b.end && b.start < a.end
}

// Extract returns all entities found in text, ordered by first occurrence,
// duplicates removed keeping the first. When two grammars could claim the
// same span, the first-registered grammar wins; this is a deterministic
// tie-break by configuration order, not a quality heuristic.
func (x *Extractor) Extract(text string) []core.ExtractedEntity {
	var accepted []span

	for _, g := range x.grammars {
		for _, loc := range g.re.FindAllStringIndex(text, -1) {
			candidate := span{
				start: loc[0],
				end:   loc[1],
				entity: core.ExtractedEntity{
					Kind:    core.EntityAircraftRegistration,
					Value:   strings.ToUpper(text[loc[0]:loc[1]]),
					Country: g.country,
				},
			}
			if claimed(accepted, candidate) {
				continue
			}
			accepted = append(accepted, candidate)
		}
	}

	for _, re := range ticketRefPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			candidate := span{
				start: loc[0],
				end:   loc[1],
				entity: core.ExtractedEntity{
					Kind:  core.EntityTicketReference,
					Value: strings.ToUpper(text[loc[0]:loc[1]]),
				},
			}
			if claimed(accepted, candidate) {
				continue
			}
			accepted = append(accepted, candidate)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].start < accepted[j].start
	})

	seen := make(map[string]bool, len(accepted))
	entities := make([]core.ExtractedEntity, 0, len(accepted))
	for _, s := range accepted {
		key := string(s.entity.Kind) + "\x00" + s.entity.Value
		if seen[key] {
			continue
		}
		seen[key] = true
		entities = append(entities, s.entity)
	}
	return entities
}

func claimed(accepted []span, candidate span) bool {
	for _, a := range accepted {
		if overlaps(a, candidate) {
			return true
		}
	}
	return false
}
