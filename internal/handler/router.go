package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	accountHandler "github.com/ubloom/ubloom/backend/internal/handler/account"
	goalHandler "github.com/ubloom/ubloom/backend/internal/handler/goal"
	journalHandler "github.com/ubloom/ubloom/backend/internal/handler/journal"
	reflectionHandler "github.com/ubloom/ubloom/backend/internal/handler/reflection"
	"github.com/ubloom/ubloom/backend/internal/metrics"
	middlewarePkg "github.com/ubloom/ubloom/backend/internal/middleware"
	accountService "github.com/ubloom/ubloom/backend/internal/service/account"
	goalService "github.com/ubloom/ubloom/backend/internal/service/goal"
	journalService "github.com/ubloom/ubloom/backend/internal/service/journal"
	reflectionService "github.com/ubloom/ubloom/backend/internal/service/reflection"
	"github.com/ubloom/ubloom/backend/pkg/utils"
)

// Dependencies are the services exposed over HTTP. Account, journal and goal
// routes are only mounted when Accounts and Sessions are set.
type Dependencies struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	SecureCookie   bool

	Reflection *reflectionService.Service
	Sessions   middlewarePkg.Authenticator
	Accounts   *accountService.Service
	Journals   *journalService.Service
	Goals      *goalService.Service

	// DatabaseCheck reports store health for /healthz.
	DatabaseCheck func(ctx context.Context) error
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if deps.Reflection == nil {
		deps.Reflection = reflectionService.NewService(nil, reflectionService.Options{Logger: logger, Metrics: deps.Metrics})
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger, deps.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", healthHandler(deps))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	reflectHandler := reflectionHandler.New(deps.Reflection, logger, deps.AllowedOrigins)

	r.Route("/api", func(api chi.Router) {
		// The reflection endpoint is anonymous.
		reflectHandler.RegisterRoutes(api)

		if deps.Accounts == nil || deps.Sessions == nil {
			logger.Warn("account routes disabled")
			return
		}

		accounts := accountHandler.New(deps.Accounts, logger, deps.SecureCookie)
		accounts.RegisterPublicRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middlewarePkg.Auth(deps.Sessions))

			accounts.RegisterRoutes(protected)
			if deps.Journals != nil {
				journalHandler.New(deps.Journals, logger).RegisterRoutes(protected)
			}
			if deps.Goals != nil {
				goalHandler.New(deps.Goals, logger).RegisterRoutes(protected)
			}
		})
	})

	return r
}

func healthHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "ok", "ai": "offline"}
		if deps.Reflection.Available() {
			body["ai"] = "active"
		}

		status := http.StatusOK
		if deps.DatabaseCheck != nil {
			body["database"] = "ok"
			if err := deps.DatabaseCheck(r.Context()); err != nil {
				body["status"] = "degraded"
				body["database"] = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}

		utils.RespondJSON(w, status, body)
	}
}
