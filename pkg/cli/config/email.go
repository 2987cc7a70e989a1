package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/service/email"
)

// Email holds transactional email configuration
type Email struct {
	APIKey string
	From   string
}

// Flags returns CLI flags for Email configuration
func (e *Email) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "email-api-key",
			Usage:       "Transactional email API key",
			Category:    "Email",
			Sources:     cli.EnvVars("WTP_EMAIL_API_KEY"),
			Destination: &e.APIKey,
		},
		&cli.StringFlag{
			Name:        "email-from",
			Usage:       "From address for outgoing email",
			Category:    "Email",
			Value:       "briefing@whatthepack.today",
			Sources:     cli.EnvVars("WTP_EMAIL_FROM"),
			Destination: &e.From,
		},
	}
}

// ConfigureOptional creates a mailer if configured, returns nil if not.
// Briefing delivery is unavailable without one.
func (e *Email) ConfigureOptional(logger *slog.Logger) interfaces.Mailer {
	if !e.IsConfigured() {
		logger.Warn("Email not configured, briefing delivery is disabled")
		return nil
	}

	return email.New(e.APIKey, e.From)
}

// IsConfigured checks if Email is properly configured
func (e *Email) IsConfigured() bool {
	return e.APIKey != ""
}

// LogValue returns structured log value
func (e Email) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("from", e.From),
		slog.Bool("has_api_key", e.APIKey != ""),
	)
}
