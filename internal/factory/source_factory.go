package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/adapters/ingest"
	"github.com/embassy-aviation/mailbot/internal/config"
	"github.com/embassy-aviation/mailbot/internal/core"
)

// SourceFactory creates email sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEmailSource creates an email source based on the configuration
func (f *SourceFactory) CreateEmailSource() (core.EmailSource, error) {
	sourceType := f.cfg.GetString("source.type")

	switch sourceType {
	case "imap":
		imapCfg := f.cfg.GetIMAP()
		if imapCfg.Server == "" {
			return nil, fmt.Errorf("imap source selected but imap.server is empty")
		}
		return ingest.NewIMAPSource(imapCfg, f.logger), nil
	case "maildir":
		return ingest.NewMaildirSource(f.cfg.GetString("source.maildir_path"), f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
