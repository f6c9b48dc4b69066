package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/classifier"
	"github.com/embassy-aviation/mailbot/internal/config"
)

// ClassifierFactory builds the classification engine from configuration.
type ClassifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEngine loads the rule table and builds the engine. Configuration
// errors here are fatal: the process cannot serve classification without a
// valid rule table.
func (f *ClassifierFactory) CreateEngine() (*classifier.Engine, error) {
	triage := f.cfg.GetTriage()

	ruleset, err := classifier.LoadRuleset(triage.RulesFile)
	if err != nil {
		return nil, err
	}
	if triage.RulesFile == "" {
		f.logger.Info("No rules file configured, using built-in rule table")
	} else {
		f.logger.Info("Loaded classification rules",
			zap.String("file", triage.RulesFile),
			zap.Int("rules", len(ruleset.Rules)))
	}

	switch triage.Scorer {
	case "", "rules":
		return classifier.NewEngine(ruleset)
	case "model":
		scorer, err := classifier.NewModelScorer(triage.ModelPath)
		if err != nil {
			return nil, err
		}
		return classifier.NewEngineWithScorer(ruleset, scorer)
	default:
		return nil, fmt.Errorf("unsupported scorer type: %s", triage.Scorer)
	}
}
