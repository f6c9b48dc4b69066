package classifier

import (
	"fmt"
	"strings"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// Engine is the classification and extraction engine. It is a pure,
// synchronous computation over one email: it reads only the immutable
// ruleset, performs no I/O, and always terminates with a valid result.
// Classification is total: any input, including empty or non-aviation text,
// yields a result and never an error, because downstream ticketing must
// always have something to act on.
type Engine struct {
	ruleset   *Ruleset
	scorer    Scorer
	extractor *Extractor
}

// NewEngine builds an engine from a validated ruleset using the rule-based
// scorer.
func NewEngine(ruleset *Ruleset) (*Engine, error) {
	return NewEngineWithScorer(ruleset, NewRuleScorer(ruleset))
}

// NewEngineWithScorer builds an engine with an explicit scoring strategy.
func NewEngineWithScorer(ruleset *Ruleset, scorer Scorer) (*Engine, error) {
	if err := ruleset.validate(); err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(ruleset.Grammars)
	if err != nil {
		return nil, err
	}
	return &Engine{ruleset: ruleset, scorer: scorer, extractor: extractor}, nil
}

// Classify assigns a category, priority and confidence to the email and
// attaches the extracted entities. Same input always yields the same
// result.
func (e *Engine) Classify(email *core.Email) *core.ClassificationResult {
	text := Normalize(email.Subject, email.Body, email.HTMLBody)

	// Entities are extracted from the original-case text; the lowercase
	// copy would lose registration letters.
	entities := e.extractor.Extract(text.Plain)

	matches := e.scorer.Score(text)
	if len(matches) == 0 {
		return e.fallback(entities)
	}

	top := matches[0]
	priority := resolvePriority(top.Rules)
	confidence := top.Score.Score / e.ruleset.Ceiling(top.Score.Category)
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &core.ClassificationResult{
		Category:     top.Score.Category,
		Priority:     priority,
		Confidence:   confidence,
		Entities:     entities,
		MatchedRules: top.Rules,
		Reasoning: fmt.Sprintf("matched %s rules (score %.2f): %s",
			top.Score.Category, top.Score.Score,
			strings.Join(top.Score.MatchedKeywords, ", ")),
	}
}

// fallback is the result when no category clears the minimum score. The
// confidence constant is low but non-zero: zero would mean "certainly not
// classifiable", which is a distinct, unused state.
func (e *Engine) fallback(entities []core.ExtractedEntity) *core.ClassificationResult {
	return &core.ClassificationResult{
		Category:   core.CategoryGeneral,
		Priority:   core.PriorityNormal,
		Confidence: e.ruleset.FallbackConfidence,
		Entities:   entities,
		Reasoning:  "no category cleared the minimum score",
	}
}

// resolvePriority takes the highest priority hint among the rules matched
// for the winning category. Highest hint wins when hints disagree, so a
// scheduled-maintenance phrase inside an AOG email cannot downgrade it.
// This is a documented policy choice.
func resolvePriority(rules []core.Rule) core.Priority {
	priority := core.PriorityLow
	for _, rule := range rules {
		priority = core.MaxPriority(priority, rule.PriorityHint)
	}
	if !priority.Valid() {
		return core.PriorityNormal
	}
	return priority
}
