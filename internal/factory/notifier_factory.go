package factory

import (
	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/adapters/notify"
	"github.com/embassy-aviation/mailbot/internal/config"
	"github.com/embassy-aviation/mailbot/internal/core"
)

// NotifierFactory creates acknowledgement notifiers based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a notifier based on the configuration. When
// acknowledgements are disabled or SMTP is not configured, a logging noop
// notifier is returned.
func (f *NotifierFactory) CreateNotifier() core.Notifier {
	smtpCfg := f.cfg.GetSMTP()
	if !f.cfg.GetBool("triage.ack_enabled") || smtpCfg.Host == "" {
		return notify.NewNoopNotifier(f.logger)
	}
	return notify.NewSMTPNotifier(smtpCfg, f.logger)
}
