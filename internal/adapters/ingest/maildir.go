package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/core"
)

// MaildirSource reads RFC822 messages from .eml files in a directory. It is
// used for offline runs and tests; content-hash de-duplication in the triage
// service keeps repeated fetches of the same directory idempotent.
type MaildirSource struct {
	dir    string
	logger *zap.Logger
}

// NewMaildirSource creates a directory-backed email source.
func NewMaildirSource(dir string, logger *zap.Logger) *MaildirSource {
	return &MaildirSource{dir: dir, logger: logger}
}

// Fetch parses every .eml file in the directory, sorted by name for a
// deterministic order.
func (s *MaildirSource) Fetch(ctx context.Context) ([]*core.Email, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mail directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".eml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var emails []*core.Email
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return emails, err
		}
		email, err := s.readFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("Failed to parse mail file",
				zap.String("file", name),
				zap.Error(err))
			continue
		}
		emails = append(emails, email)
	}
	return emails, nil
}

func (s *MaildirSource) readFile(path string) (*core.Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMessage(f)
}

// ReadMessage parses one RFC822 message into a core.Email. Shared with the
// one-shot CLI, which reads from a file or stdin.
func ReadMessage(r io.Reader) (*core.Email, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	email := &core.Email{
		MessageID: msg.Header.Get("Message-Id"),
		Subject:   msg.Header.Get("Subject"),
		Body:      string(bodyBytes),
	}

	if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		email.From = addr.Address
		email.FromName = addr.Name
	} else {
		email.From = msg.Header.Get("From")
	}

	if to := msg.Header.Get("To"); to != "" {
		for _, part := range strings.Split(to, ",") {
			email.To = append(email.To, strings.TrimSpace(part))
		}
	}

	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date
	}

	ct := msg.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(ct), "text/html") {
		email.HTMLBody = email.Body
		email.Body = ""
	}

	return email, nil
}

// Close is a no-op for the maildir source.
func (s *MaildirSource) Close() error {
	return nil
}
