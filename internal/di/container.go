package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/classifier"
	"github.com/embassy-aviation/mailbot/internal/config"
	"github.com/embassy-aviation/mailbot/internal/core"
	"github.com/embassy-aviation/mailbot/internal/factory"
	"github.com/embassy-aviation/mailbot/internal/logging"
	"github.com/embassy-aviation/mailbot/internal/observability/metrics"
	"github.com/embassy-aviation/mailbot/internal/reports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}

	// Register classification engine
	if err := container.Provide(func(f *factory.ClassifierFactory) (*classifier.Engine, error) {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(e *classifier.Engine) core.Classifier {
		return e
	}); err != nil {
		return nil, err
	}

	// Register ticket store
	if err := container.Provide(func(f *factory.StoreFactory) (core.TicketStore, error) {
		return f.CreateTicketStore()
	}); err != nil {
		return nil, err
	}

	// Register email source
	if err := container.Provide(func(f *factory.SourceFactory) (core.EmailSource, error) {
		return f.CreateEmailSource()
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) core.Notifier {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		c core.Classifier,
		s core.TicketStore,
		n core.Notifier,
		logger *zap.Logger,
		cfg *config.Config,
	) *core.TriageService {
		triage := cfg.GetTriage()
		return core.NewTriageService(c, s, n, logger,
			triage.MinTicketConfidence, triage.AckEnabled, triage.SenderPolicy)
	}); err != nil {
		return nil, err
	}

	// Register report exporter
	if err := container.Provide(func(cfg *config.Config) (*reports.CSVExporter, error) {
		return reports.NewCSVExporter(cfg.GetString("reports.dir"))
	}); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.NewTriageMetrics); err != nil {
		return nil, err
	}

	return container, nil
}
