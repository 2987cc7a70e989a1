package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr              string
	BaseDomain        string
	LowStockThreshold int
}

// Flags returns CLI flags for Server configuration
func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Sources:     cli.EnvVars("WTP_ADDR"),
			Destination: &s.Addr,
		},
		&cli.StringFlag{
			Name:        "base-domain",
			Usage:       "Base domain for tenant subdomains (e.g. whatthepack.today)",
			Value:       "whatthepack.today",
			Sources:     cli.EnvVars("WTP_BASE_DOMAIN"),
			Destination: &s.BaseDomain,
		},
		&cli.IntFlag{
			Name:        "low-stock-threshold",
			Usage:       "Stock level at or below which a product is low stock",
			Value:       5,
			Sources:     cli.EnvVars("WTP_LOW_STOCK_THRESHOLD"),
			Destination: &s.LowStockThreshold,
		},
	}
}

// LogValue returns structured log value
func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", s.Addr),
		slog.String("baseDomain", s.BaseDomain),
		slog.Int("lowStockThreshold", s.LowStockThreshold),
	)
}
