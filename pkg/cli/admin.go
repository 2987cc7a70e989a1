package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/whatthepack/whatthepack/pkg/cli/config"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/usecase"
)

func cmdAdmin() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Operator maintenance actions",
		Commands: []*cli.Command{
			cmdProvisionTenant(),
			cmdFixOrgLink(),
			cmdSeedDemo(),
			cmdResendVerification(),
			cmdOrderStats(),
			cmdPurgeOrders(),
		},
	}
}

// newMaintenance builds the maintenance use case from the shared database
// and identity provider configs. The caller must Close the returned repo.
func newMaintenance(ctx context.Context, firestoreCfg *config.Firestore, mongoCfg *config.Mongo, idpCfg *config.IdP) (*usecase.Maintenance, func() error, error) {
	logger := ctxlog.From(ctx)

	repo, err := config.ConfigureRepository(ctx, firestoreCfg, mongoCfg)
	if err != nil {
		return nil, nil, err
	}

	provisioner := idpCfg.ConfigureProvisioner(logger)
	return usecase.NewMaintenance(repo, provisioner, idpCfg.Connection), repo.Close, nil
}

// printJSON writes the result of an admin action to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}

func cmdProvisionTenant() *cli.Command {
	var (
		firestoreCfg config.Firestore
		mongoCfg     config.Mongo
		idpCfg       config.IdP
		storeName    string
		slug         string
		ownerSubject string
		ownerEmail   string
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		mongoCfg.Flags(),
		idpCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "store-name",
				Usage:       "Display name of the store",
				Required:    true,
				Destination: &storeName,
			},
			&cli.StringFlag{
				Name:        "slug",
				Usage:       "Tenant slug (derived from the store name when omitted)",
				Destination: &slug,
			},
			&cli.StringFlag{
				Name:        "owner-subject",
				Usage:       "Identity provider subject of the owner",
				Required:    true,
				Destination: &ownerSubject,
			},
			&cli.StringFlag{
				Name:        "owner-email",
				Usage:       "Email address of the owner",
				Destination: &ownerEmail,
			},
		},
	)

	return &cli.Command{
		Name:  "provision-tenant",
		Usage: "Create a tenant on behalf of a store owner",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeRepo, err := newMaintenance(ctx, &firestoreCfg, &mongoCfg, &idpCfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			result, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
				StoreName:    storeName,
				Slug:         types.Slug(slug),
				OwnerSubject: types.Subject(ownerSubject),
				OwnerEmail:   ownerEmail,
			})
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Tenant provisioned",
				slog.Any("slug", result.Slug),
				slog.Any("orgID", result.OrgID),
			)
			return printJSON(result)
		},
	}
}

func cmdFixOrgLink() *cli.Command {
	var (
		firestoreCfg config.Firestore
		mongoCfg     config.Mongo
		idpCfg       config.IdP
		slug         string
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		mongoCfg.Flags(),
		idpCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "slug",
				Usage:       "Tenant slug to repair",
				Required:    true,
				Destination: &slug,
			},
		},
	)

	return &cli.Command{
		Name:  "fix-org-link",
		Usage: "Repair a tenant's missing remote organization link",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeRepo, err := newMaintenance(ctx, &firestoreCfg, &mongoCfg, &idpCfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			remoteOrgID, err := uc.FixOrgLink(ctx, types.Slug(slug))
			if err != nil {
				return err
			}

			return printJSON(map[string]any{
				"slug":          slug,
				"remote_org_id": remoteOrgID,
			})
		},
	}
}

func cmdSeedDemo() *cli.Command {
	var (
		firestoreCfg config.Firestore
		mongoCfg     config.Mongo
		idpCfg       config.IdP
		slug         string
		seedFile     string
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		mongoCfg.Flags(),
		idpCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "slug",
				Usage:       "Tenant slug to seed",
				Required:    true,
				Destination: &slug,
			},
			&cli.StringFlag{
				Name:        "seed-file",
				Usage:       "YAML file with products to seed (built-in demo catalog when omitted)",
				Sources:     cli.EnvVars("WTP_SEED_FILE"),
				Destination: &seedFile,
			},
		},
	)

	return &cli.Command{
		Name:  "seed-demo",
		Usage: "Fill an empty tenant catalog with demo products",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeRepo, err := newMaintenance(ctx, &firestoreCfg, &mongoCfg, &idpCfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			var products []model.SeedProduct
			if seedFile != "" {
				seedCfg, err := config.LoadSeedFromFile(seedFile)
				if err != nil {
					return err
				}
				products = seedCfg.Products
			}

			seeded, err := uc.SeedDemo(ctx, types.Slug(slug), products)
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Catalog seeded",
				slog.String("slug", slug),
				slog.Int("count", len(seeded)),
			)
			return printJSON(seeded)
		},
	}
}

func cmdResendVerification() *cli.Command {
	var (
		firestoreCfg config.Firestore
		mongoCfg     config.Mongo
		idpCfg       config.IdP
		subject      string
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		mongoCfg.Flags(),
		idpCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "subject",
				Usage:       "Identity provider subject of the user",
				Required:    true,
				Destination: &subject,
			},
		},
	)

	return &cli.Command{
		Name:  "resend-verification",
		Usage: "Trigger a fresh verification email for a user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeRepo, err := newMaintenance(ctx, &firestoreCfg, &mongoCfg, &idpCfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := uc.ResendVerification(ctx, types.Subject(subject)); err != nil {
				return err
			}

			return printJSON(map[string]any{
				"subject": subject,
				"status":  "sent",
			})
		},
	}
}

func cmdOrderStats() *cli.Command {
	var (
		firestoreCfg config.Firestore
		mongoCfg     config.Mongo
		idpCfg       config.IdP
		slug         string
		days         int
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		mongoCfg.Flags(),
		idpCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "slug",
				Usage:       "Tenant slug",
				Required:    true,
				Destination: &slug,
			},
			&cli.IntFlag{
				Name:        "days",
				Usage:       "Window in days to summarize",
				Value:       30,
				Destination: &days,
			},
		},
	)

	return &cli.Command{
		Name:  "order-stats",
		Usage: "Summarize a tenant's orders over a window",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeRepo, err := newMaintenance(ctx, &firestoreCfg, &mongoCfg, &idpCfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			since := time.Now().AddDate(0, 0, -days)
			stats, err := uc.ComputeOrderStats(ctx, types.Slug(slug), since)
			if err != nil {
				return err
			}

			return printJSON(stats)
		},
	}
}

func cmdPurgeOrders() *cli.Command {
	var (
		firestoreCfg config.Firestore
		mongoCfg     config.Mongo
		idpCfg       config.IdP
		slug         string
		confirm      bool
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		mongoCfg.Flags(),
		idpCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "slug",
				Usage:       "Tenant slug",
				Required:    true,
				Destination: &slug,
			},
			&cli.BoolFlag{
				Name:        "confirm",
				Usage:       "Acknowledge that every order of the tenant will be deleted",
				Destination: &confirm,
			},
		},
	)

	return &cli.Command{
		Name:  "purge-orders",
		Usage: "Delete every order of a tenant",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeRepo, err := newMaintenance(ctx, &firestoreCfg, &mongoCfg, &idpCfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			deleted, err := uc.PurgeOrders(ctx, types.Slug(slug), confirm)
			if err != nil {
				return err
			}

			return printJSON(map[string]any{
				"slug":    slug,
				"deleted": deleted,
			})
		},
	}
}
