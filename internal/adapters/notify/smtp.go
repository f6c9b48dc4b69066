package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/config"
	"github.com/embassy-aviation/mailbot/internal/core"
)

// SMTPNotifier sends ticket acknowledgement emails over SMTP.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPNotifier creates an SMTP acknowledgement sender.
func NewSMTPNotifier(cfg config.SMTPConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// SendAcknowledgement emails the customer their ticket number, category,
// priority and response deadline.
func (n *SMTPNotifier) SendAcknowledgement(ctx context.Context, ticket *core.Ticket) error {
	if ticket.CustomerEmail == "" {
		return fmt.Errorf("ticket %s has no customer email", ticket.Number)
	}
	// Header injection guard.
	if strings.ContainsAny(ticket.Title, "\r\n") {
		return fmt.Errorf("ticket title contains invalid characters")
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", n.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", ticket.CustomerEmail))
	msg.WriteString(fmt.Sprintf("Subject: [%s] %s\r\n", ticket.Number, ticket.Title))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf(
		"Thank you for contacting Embassy Aviation.\r\n\r\n"+
			"Your request has been received and ticket %s has been opened.\r\n\r\n"+
			"Category: %s\r\nPriority: %s\r\n"+
			"You can expect a first response by %s.\r\n",
		ticket.Number, ticket.Category, ticket.Priority,
		ticket.ResponseDueAt.Format(time.RFC1123)))

	var auth sasl.Client
	if n.cfg.Username != "" {
		auth = sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{ticket.CustomerEmail}, strings.NewReader(msg.String())); err != nil {
		return fmt.Errorf("failed to send acknowledgement: %w", err)
	}

	n.logger.Info("Acknowledgement sent",
		zap.String("ticket", ticket.Number),
		zap.String("recipient", ticket.CustomerEmail))
	return nil
}
