package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
)

// Gemini holds Gemini configuration
type Gemini struct {
	Project  string
	Location string
	Model    string
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "GCP project ID for Gemini",
			Category:    "Gemini",
			Sources:     cli.EnvVars("WTP_GEMINI_PROJECT"),
			Destination: &g.Project,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Gemini location",
			Category:    "Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("WTP_GEMINI_LOCATION"),
			Destination: &g.Location,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Category:    "Gemini",
			Value:       "gemini-2.0-flash",
			Sources:     cli.EnvVars("WTP_GEMINI_MODEL"),
			Destination: &g.Model,
		},
	}
}

// Configure creates and returns a gollem LLM client
func (g *Gemini) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if !g.IsConfigured() {
		return nil, nil
	}

	client, err := gemini.New(ctx, g.Project, g.Location, gemini.WithModel(g.Model))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	return client, nil
}

// ConfigureOptional creates a gollem LLM client if configured, returns nil
// if not. AI features degrade to fallbacks without a client.
func (g *Gemini) ConfigureOptional(ctx context.Context, logger *slog.Logger) gollem.LLMClient {
	if !g.IsConfigured() {
		logger.Info("Gemini not configured, AI features disabled")
		return nil
	}

	logger.Info("Configuring Gemini LLM",
		slog.String("projectID", g.Project),
		slog.String("location", g.Location),
		slog.String("model", g.Model),
	)

	client, err := g.Configure(ctx)
	if err != nil {
		logger.Warn("Failed to create Gemini client", slog.Any("error", err))
		return nil
	}

	return client
}

// IsConfigured checks if Gemini is properly configured
func (g *Gemini) IsConfigured() bool {
	return g.Project != ""
}

// LogValue returns structured log value
func (g Gemini) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project", g.Project),
		slog.String("location", g.Location),
		slog.String("model", g.Model),
	)
}
