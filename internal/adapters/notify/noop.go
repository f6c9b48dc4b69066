package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// NoopNotifier logs acknowledgements instead of sending them. Used for dry
// runs and the one-shot CLI.
type NoopNotifier struct {
	logger *zap.Logger
}

// NewNoopNotifier creates a notifier that only logs.
func NewNoopNotifier(logger *zap.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

// SendAcknowledgement logs the acknowledgement and succeeds.
func (n *NoopNotifier) SendAcknowledgement(ctx context.Context, ticket *core.Ticket) error {
	n.logger.Info("Acknowledgement suppressed (noop notifier)",
		zap.String("ticket", ticket.Number),
		zap.String("recipient", ticket.CustomerEmail))
	return nil
}
