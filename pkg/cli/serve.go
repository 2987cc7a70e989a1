package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/whatthepack/whatthepack/pkg/cli/config"
	controller "github.com/whatthepack/whatthepack/pkg/controller/http"
	"github.com/whatthepack/whatthepack/pkg/service/llm"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/ratelimit"
	"github.com/whatthepack/whatthepack/pkg/utils/subdomain"
)

const (
	onboardingRateWindow = time.Hour
	onboardingRateMax    = 3
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		firestoreCfg config.Firestore
		mongoCfg     config.Mongo
		geminiCfg    config.Gemini
		idpCfg       config.IdP
		emailCfg     config.Email
	)

	flags := joinFlags(
		serverCfg.Flags(),
		firestoreCfg.Flags(),
		mongoCfg.Flags(),
		geminiCfg.Flags(),
		idpCfg.Flags(),
		emailCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting whatthepack server",
				slog.Any("server", serverCfg),
				slog.Any("firestore", firestoreCfg),
				slog.Any("mongo", mongoCfg),
				slog.Any("gemini", geminiCfg),
				slog.Any("idp", idpCfg),
				slog.Any("email", emailCfg),
			)

			repo, err := config.ConfigureRepository(ctx, &firestoreCfg, &mongoCfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			var llmService *llm.Service
			if gollemClient := geminiCfg.ConfigureOptional(ctx, logger); gollemClient != nil {
				llmService = llm.NewService(gollemClient)
			}

			provisioner := idpCfg.ConfigureProvisioner(logger)
			oauth := idpCfg.ConfigureOAuth(logger)
			mailer := emailCfg.ConfigureOptional(logger)

			resolver := subdomain.NewResolver(serverCfg.BaseDomain)
			limiter := ratelimit.New(onboardingRateWindow, onboardingRateMax)

			ucs := &controller.UseCases{
				Auth:       usecase.NewAuth(repo),
				Onboarding: usecase.NewOnboarding(repo, provisioner, limiter, idpCfg.Connection),
				Navigation: usecase.NewTenantNav(repo, resolver),
				Briefing:   usecase.NewBriefing(repo, llmService, mailer, serverCfg.LowStockThreshold),
				Catalog:    usecase.NewCatalog(repo, serverCfg.LowStockThreshold),
				Orders:     usecase.NewOrders(repo, llmService),
			}

			server := controller.NewServer(ctx, serverCfg.Addr, ucs, oauth)

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
