package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
)

// IdP holds identity provider configuration. The management credentials
// drive tenant provisioning; the login credentials drive the browser flow.
type IdP struct {
	Domain            string
	ClientID          string
	ClientSecret      string
	LoginClientID     string
	LoginClientSecret string
	Connection        string
}

// Flags returns CLI flags for IdP configuration
func (i *IdP) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "idp-domain",
			Usage:       "Identity provider tenant domain",
			Category:    "IdP",
			Sources:     cli.EnvVars("WTP_IDP_DOMAIN"),
			Destination: &i.Domain,
		},
		&cli.StringFlag{
			Name:        "idp-client-id",
			Usage:       "Management API client ID",
			Category:    "IdP",
			Sources:     cli.EnvVars("WTP_IDP_CLIENT_ID"),
			Destination: &i.ClientID,
		},
		&cli.StringFlag{
			Name:        "idp-client-secret",
			Usage:       "Management API client secret",
			Category:    "IdP",
			Sources:     cli.EnvVars("WTP_IDP_CLIENT_SECRET"),
			Destination: &i.ClientSecret,
		},
		&cli.StringFlag{
			Name:        "idp-login-client-id",
			Usage:       "OAuth login client ID",
			Category:    "IdP",
			Sources:     cli.EnvVars("WTP_IDP_LOGIN_CLIENT_ID"),
			Destination: &i.LoginClientID,
		},
		&cli.StringFlag{
			Name:        "idp-login-client-secret",
			Usage:       "OAuth login client secret",
			Category:    "IdP",
			Sources:     cli.EnvVars("WTP_IDP_LOGIN_CLIENT_SECRET"),
			Destination: &i.LoginClientSecret,
		},
		&cli.StringFlag{
			Name:        "idp-connection",
			Usage:       "Login connection enabled for each tenant organization",
			Category:    "IdP",
			Value:       "store-users",
			Sources:     cli.EnvVars("WTP_IDP_CONNECTION"),
			Destination: &i.Connection,
		},
	}
}

// ConfigureProvisioner creates the tenant provisioner if the management API
// is configured, returns nil if not
func (i *IdP) ConfigureProvisioner(logger *slog.Logger) *idp.Provisioner {
	if !i.IsConfigured() {
		logger.Warn("Identity provider not configured, tenant provisioning is local-only")
		return nil
	}

	client := idp.New(i.Domain, i.ClientID, i.ClientSecret)
	return idp.NewProvisioner(client)
}

// ConfigureOAuth creates the browser login helper if configured, returns
// nil if not
func (i *IdP) ConfigureOAuth(logger *slog.Logger) *idp.OAuth {
	if i.Domain == "" || i.LoginClientID == "" {
		logger.Warn("Login OAuth not configured, login endpoints are disabled")
		return nil
	}

	return idp.NewOAuth(i.Domain, i.LoginClientID, i.LoginClientSecret)
}

// IsConfigured checks if the management API is properly configured
func (i *IdP) IsConfigured() bool {
	return i.Domain != "" && i.ClientID != "" && i.ClientSecret != ""
}

// LogValue returns structured log value. Secrets are elided.
func (i IdP) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("domain", i.Domain),
		slog.String("connection", i.Connection),
		slog.Bool("has_management_credentials", i.ClientID != "" && i.ClientSecret != ""),
		slog.Bool("has_login_credentials", i.LoginClientID != ""),
	)
}
