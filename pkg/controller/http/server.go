package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// UseCases bundles everything the HTTP surface needs
type UseCases struct {
	Auth       usecase.AuthUseCase
	Onboarding usecase.OnboardingUseCase
	Navigation usecase.NavigationUseCase
	Briefing   usecase.BriefingUseCase
	Catalog    usecase.CatalogUseCase
	Orders     usecase.OrderUseCase
}

// Server represents the HTTP server
type Server struct {
	*http.Server
	router chi.Router
}

// NewServer creates a new HTTP server. oauth may be nil, which disables the
// login endpoints.
func NewServer(
	ctx context.Context,
	addr string,
	ucs *UseCases,
	oauth *idp.OAuth,
) *Server {
	router := chi.NewRouter()
	authMiddleware := NewMiddleware(ucs.Auth)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(authMiddleware.AuthContext)
	router.Use(middleware.Recoverer)

	authHandler := NewAuthHandler(ucs.Auth, ucs.Navigation, oauth)
	tenantHandler := NewTenantHandler(ucs.Navigation, ucs.Onboarding)
	catalogHandler := NewCatalogHandler(ucs.Catalog)
	orderHandler := NewOrderHandler(ucs.Orders)
	briefingHandler := NewBriefingHandler(ucs.Briefing)

	router.Get("/health", handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", authHandler.HandleLogin)
			r.Get("/callback", authHandler.HandleCallback)
			r.Post("/logout", authHandler.HandleLogout)
		})

		// Drives the client-side routing table; callable unauthenticated
		r.Get("/tenant/resolve", tenantHandler.HandleResolve)
		// Pre-login connection repair; callable unauthenticated
		r.Post("/onboarding/login-ready", tenantHandler.HandleLoginReady)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Get("/user/me", authHandler.HandleUserMe)
			r.Post("/onboarding/complete", tenantHandler.HandleCompleteOnboarding)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", catalogHandler.HandleList)
				r.Post("/", catalogHandler.HandleCreate)
				r.Get("/low-stock", catalogHandler.HandleLowStock)
				r.Patch("/{productID}", catalogHandler.HandleUpdate)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.HandleList)
				r.Post("/", orderHandler.HandleCreate)
				r.Post("/draft", orderHandler.HandleDraft)
				r.Post("/{orderID}/status", orderHandler.HandleStatus)
			})

			r.Route("/briefing", func(r chi.Router) {
				r.Get("/", briefingHandler.HandleGet)
				r.Post("/send", briefingHandler.HandleSend)
			})
		})
	})

	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router: router,
	}
}

// Router exposes the handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "whatthepack",
	})
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(context.Background()).Error("Failed to encode response", "error", err)
	}
}

// writeError maps the error's tag to an HTTP status and writes a JSON body
func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)

	var message string
	if goErr := goerr.Unwrap(err); goErr != nil {
		message = goErr.Error()
	} else {
		message = err.Error()
	}

	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
