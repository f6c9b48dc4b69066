package classifier

import (
	"errors"
	"fmt"
	"os"
)

// ErrModelNotLoaded is returned when the statistical scorer is selected but
// no trained model exists on disk.
var ErrModelNotLoaded = errors.New("classification model not loaded")

// ModelScorer is a placeholder for a trained statistical scorer. It
// implements the same text-to-scores contract as RuleScorer so swapping it
// in requires no assembler change. There is no training pipeline in this
// codebase; until a model file is produced elsewhere, construction fails
// and the rule scorer stays the only usable strategy.
type ModelScorer struct {
	modelPath string
}

// NewModelScorer loads a trained model from disk. It currently fails for
// any path: no model format is defined yet.
func NewModelScorer(modelPath string) (*ModelScorer, error) {
	if modelPath == "" {
		return nil, ErrModelNotLoaded
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, modelPath)
	}
	return nil, fmt.Errorf("%w: no supported model format", ErrModelNotLoaded)
}

// Score is part of the Scorer contract. Unreachable until NewModelScorer
// can succeed.
func (s *ModelScorer) Score(text NormalizedText) []CategoryMatch {
	return nil
}
