package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/repository"
)

// Firestore holds Firestore configuration
type Firestore struct {
	ProjectID  string
	DatabaseID string
}

// Flags returns CLI flags for Firestore configuration
func (f *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "GCP project ID for Firestore",
			Category:    "Database",
			Sources:     cli.EnvVars("WTP_FIRESTORE_PROJECT"),
			Destination: &f.ProjectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Category:    "Database",
			Value:       "(default)",
			Sources:     cli.EnvVars("WTP_FIRESTORE_DATABASE"),
			Destination: &f.DatabaseID,
		},
	}
}

// IsConfigured checks if Firestore is properly configured
func (f *Firestore) IsConfigured() bool {
	return f.ProjectID != ""
}

// LogValue returns structured log value
func (f Firestore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project", f.ProjectID),
		slog.String("database", f.DatabaseID),
	)
}

// Mongo holds MongoDB configuration
type Mongo struct {
	URI      string
	Database string
}

// Flags returns CLI flags for Mongo configuration
func (m *Mongo) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mongo-uri",
			Usage:       "MongoDB connection URI",
			Category:    "Database",
			Sources:     cli.EnvVars("WTP_MONGO_URI"),
			Destination: &m.URI,
		},
		&cli.StringFlag{
			Name:        "mongo-database",
			Usage:       "MongoDB database name",
			Category:    "Database",
			Value:       "whatthepack",
			Sources:     cli.EnvVars("WTP_MONGO_DATABASE"),
			Destination: &m.Database,
		},
	}
}

// IsConfigured checks if Mongo is properly configured
func (m *Mongo) IsConfigured() bool {
	return m.URI != ""
}

// LogValue returns structured log value
func (m Mongo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("uri", m.URI),
		slog.String("database", m.Database),
	)
}

// ConfigureRepository picks the persistence backend: Firestore when
// configured, then Mongo, otherwise in-memory.
func ConfigureRepository(ctx context.Context, firestore *Firestore, mongo *Mongo) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	if firestore.IsConfigured() {
		repo, err := repository.NewFirestore(ctx, firestore.ProjectID, firestore.DatabaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to init firestore",
				goerr.V("project", firestore.ProjectID),
				goerr.V("database", firestore.DatabaseID),
			)
		}
		return repo, nil
	}

	if mongo.IsConfigured() {
		repo, err := repository.NewMongo(ctx, mongo.URI, mongo.Database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to init mongo",
				goerr.V("database", mongo.Database),
			)
		}
		return repo, nil
	}

	logger.Warn("Using memory database. The data will be removed when shutting down")
	return repository.NewMemory(), nil
}
