package mocks

import (
	"context"
	"sync"

	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
)

// MailerMock is a mock implementation of interfaces.Mailer. It records every
// sent mail for later inspection.
type MailerMock struct {
	SendFunc func(ctx context.Context, mail *interfaces.Mail) error

	mu   sync.Mutex
	sent []*interfaces.Mail
}

var _ interfaces.Mailer = (*MailerMock)(nil)

func (m *MailerMock) Send(ctx context.Context, mail *interfaces.Mail) error {
	m.mu.Lock()
	m.sent = append(m.sent, mail)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, mail)
	}
	return nil
}

// Sent returns a copy of all mails passed to Send
func (m *MailerMock) Sent() []*interfaces.Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*interfaces.Mail, len(m.sent))
	copy(out, m.sent)
	return out
}
