package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/api/handlers"
	"github.com/harper/riskhub/internal/api/middleware"
	"github.com/harper/riskhub/internal/auth"
	"github.com/harper/riskhub/pkg/crypto"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Resolver       *access.Resolver
	Encryptor      *crypto.Encryptor
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The scoped store is the only data path resource handlers get.
	store := access.NewStore(cfg.DB)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	orgHandler := handlers.NewOrganizationHandler(store)
	riskHandler := handlers.NewRiskHandler(store)
	swotHandler := handlers.NewSwotHandler(store)
	strategyHandler := handlers.NewStrategyHandler(store)
	objectiveHandler := handlers.NewObjectiveHandler(store, cfg.AsynqClient)
	kpiHandler := handlers.NewKPIHandler(store)
	lossEventHandler := handlers.NewLossEventHandler(store, cfg.Encryptor)
	reviewHandler := handlers.NewReviewHandler(store, cfg.AsynqClient)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService, cfg.Resolver))

			r.Get("/me", authHandler.Me)

			r.Get("/organizations", orgHandler.List)

			// Risk register endpoints
			r.Route("/risks", func(r chi.Router) {
				r.Get("/", riskHandler.List)
				r.Post("/", riskHandler.Create)
				r.Get("/{id}", riskHandler.Get)
				r.Put("/{id}", riskHandler.Update)
				r.Put("/{id}/residual", riskHandler.UpdateResidual)
				r.Delete("/{id}", riskHandler.Delete)
			})

			// SWOT factor endpoints
			r.Route("/swot", func(r chi.Router) {
				r.Get("/", swotHandler.List)
				r.Post("/", swotHandler.Create)
				r.Delete("/{id}", swotHandler.Delete)
			})

			// TOWS strategy catalog endpoints
			r.Route("/strategies", func(r chi.Router) {
				r.Get("/", strategyHandler.List)
				r.Post("/", strategyHandler.Create)
				r.Get("/{id}", strategyHandler.Get)
				r.Delete("/{id}", strategyHandler.Delete)
			})

			// Strategic objective endpoints
			r.Route("/objectives", func(r chi.Router) {
				r.Get("/", objectiveHandler.List)
				r.Post("/", objectiveHandler.Create)
				r.Post("/recorrelate", objectiveHandler.Recorrelate)
				r.Get("/{id}", objectiveHandler.Get)
				r.Put("/{id}", objectiveHandler.Update)
				r.Post("/{id}/correlate", objectiveHandler.Correlate)
				r.Delete("/{id}", objectiveHandler.Delete)
			})

			// KPI endpoints
			r.Route("/kpis", func(r chi.Router) {
				r.Get("/", kpiHandler.List)
				r.Post("/", kpiHandler.Create)
				r.Get("/{id}", kpiHandler.Get)
				r.Put("/{id}/realization", kpiHandler.UpdateRealization)
				r.Delete("/{id}", kpiHandler.Delete)
			})

			// Loss event endpoints
			r.Route("/loss-events", func(r chi.Router) {
				r.Get("/", lossEventHandler.List)
				r.Post("/", lossEventHandler.Create)
				r.Get("/{id}", lossEventHandler.Get)
				r.Delete("/{id}", lossEventHandler.Delete)
			})

			// Scheduled review endpoints
			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", reviewHandler.List)
				r.Post("/", reviewHandler.Create)
				r.Get("/{id}", reviewHandler.Get)
				r.Put("/{id}", reviewHandler.Update)
				r.Delete("/{id}", reviewHandler.Delete)
				r.Post("/{id}/trigger", reviewHandler.Trigger)
			})
		})
	})

	return &Router{r}
}
