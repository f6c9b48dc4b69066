package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/config"
	"github.com/embassy-aviation/mailbot/internal/core"
)

// IMAPSource fetches inbound service-request emails from an IMAP mailbox.
type IMAPSource struct {
	cfg    config.IMAPConfig
	logger *zap.Logger
	client *client.Client
}

// NewIMAPSource creates an IMAP email source. The connection is established
// lazily on the first Fetch.
func NewIMAPSource(cfg config.IMAPConfig, logger *zap.Logger) *IMAPSource {
	return &IMAPSource{cfg: cfg, logger: logger}
}

func (s *IMAPSource) connect() error {
	if s.client != nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)
	s.logger.Info("Connecting to IMAP server", zap.String("address", addr))

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	s.client = c
	return nil
}

// Fetch returns the emails matching the configured search window.
func (s *IMAPSource) Fetch(ctx context.Context) ([]*core.Email, error) {
	if err := s.connect(); err != nil {
		return nil, err
	}

	mbox, err := s.client.Select(s.cfg.Folder, false)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", s.cfg.Folder, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	if s.cfg.SinceDays > 0 {
		criteria.Since = time.Now().AddDate(0, 0, -s.cfg.SinceDays)
	}
	if s.cfg.UnseenOnly {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	s.logger.Info("Found messages to fetch",
		zap.Int("count", len(uids)),
		zap.String("folder", s.cfg.Folder))

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var emails []*core.Email
	for msg := range messages {
		email, err := s.parseMessage(msg, section)
		if err != nil {
			s.logger.Warn("Failed to parse message", zap.Error(err))
			continue
		}
		if email != nil {
			emails = append(emails, email)
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return emails, nil
}

// parseMessage converts an IMAP message into a core.Email.
func (s *IMAPSource) parseMessage(msg *imap.Message, section *imap.BodySectionName) (*core.Email, error) {
	if msg == nil || msg.Envelope == nil {
		return nil, nil
	}

	email := &core.Email{
		MessageID:  msg.Envelope.MessageId,
		Subject:    msg.Envelope.Subject,
		ReceivedAt: msg.Envelope.Date,
	}

	if len(msg.Envelope.From) > 0 {
		from := msg.Envelope.From[0]
		email.From = from.Address()
		email.FromName = from.PersonalName
	}
	for _, to := range msg.Envelope.To {
		email.To = append(email.To, to.Address())
	}

	r := msg.GetBody(section)
	if r == nil {
		return email, nil
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		// Keep the envelope even when the body cannot be parsed.
		return email, nil
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			body, _ := io.ReadAll(p.Body)

			if strings.HasPrefix(ct, "text/plain") && email.Body == "" {
				email.Body = string(body)
			} else if strings.HasPrefix(ct, "text/html") && email.HTMLBody == "" {
				email.HTMLBody = string(body)
			}
		}
	}

	return email, nil
}

// Close logs out from the IMAP server.
func (s *IMAPSource) Close() error {
	if s.client != nil {
		return s.client.Logout()
	}
	return nil
}
