package classifier

import (
	"sort"
	"strings"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// CategoryMatch pairs a category's score with the rules that produced it,
// for priority resolution and auditability.
type CategoryMatch struct {
	Score core.CategoryScore
	Rules []core.Rule
}

// Scorer is the swappable scoring strategy: text in, ranked category scores
// out. The weighted-keyword rule engine is the only real implementation; a
// statistical model would implement the same contract so the assembler need
// not change.
type Scorer interface {
	Score(text NormalizedText) []CategoryMatch
}

// RuleScorer scores categories by counting keyword occurrences weighted per
// rule. It holds only the immutable ruleset, so calls are safe concurrently.
type RuleScorer struct {
	ruleset *Ruleset
}

// NewRuleScorer creates a scorer over an already-validated ruleset.
func NewRuleScorer(ruleset *Ruleset) *RuleScorer {
	return &RuleScorer{ruleset: ruleset}
}

// Score evaluates every rule against the lowercase text. A category's total
// is the sum over its rules of occurrences x weight. Categories below the
// minimum score are discarded. The result is sorted descending by score,
// ties broken by the fixed category order (AOG first) for determinism.
func (s *RuleScorer) Score(text NormalizedText) []CategoryMatch {
	byCategory := make(map[core.Category]*CategoryMatch)

	for _, rule := range s.ruleset.Rules {
		ruleHits := 0
		var matched []string
		for _, kw := range rule.Keywords {
			n := strings.Count(text.Lower, kw)
			if n == 0 {
				continue
			}
			ruleHits += n
			matched = append(matched, kw)
		}
		if ruleHits == 0 {
			continue
		}

		m, ok := byCategory[rule.Category]
		if !ok {
			m = &CategoryMatch{Score: core.CategoryScore{Category: rule.Category}}
			byCategory[rule.Category] = m
		}
		m.Score.Score += float64(ruleHits) * rule.Weight
		m.Score.MatchedKeywords = append(m.Score.MatchedKeywords, matched...)
		m.Rules = append(m.Rules, rule)
	}

	matches := make([]CategoryMatch, 0, len(byCategory))
	for _, m := range byCategory {
		if m.Score.Score < s.ruleset.MinScore {
			continue
		}
		matches = append(matches, *m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score.Score != matches[j].Score.Score {
			return matches[i].Score.Score > matches[j].Score.Score
		}
		return matches[i].Score.Category.Rank() > matches[j].Score.Category.Rank()
	})

	return matches
}
