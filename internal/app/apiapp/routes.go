package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tedex09/portalvd/internal/config"
	"github.com/tedex09/portalvd/internal/domain/enums"
	authsvc "github.com/tedex09/portalvd/internal/services/auth"
	ratesvc "github.com/tedex09/portalvd/internal/services/rate"
	requestssvc "github.com/tedex09/portalvd/internal/services/requests"
	"github.com/tedex09/portalvd/internal/transport/http/handlers"
)

type Dependencies struct {
	RequestService *requestssvc.Service
	RateLimiter    *ratesvc.Limiter
	JWTManager     *authsvc.JWTManager
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	requestsHandler := handlers.NewRequestsHandler(deps.RequestService)
	if deps.RateLimiter != nil {
		requestsHandler.AttachSubmitLimiter(deps.RateLimiter)
	}
	adminRequestsHandler := handlers.NewAdminRequestsHandler(deps.RequestService, handlers.SweepConfig{
		CutoffHours:     deps.Config.Requests.LowDemandHours,
		DemandThreshold: deps.Config.Requests.DemandThreshold,
		Reason:          deps.Config.Requests.LowDemandReason,
	})

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	adminRoleMW := RequireRole(enums.RoleAdmin)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/requests", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", requestsHandler.Submit)
		r.Get("/", requestsHandler.ListOwn)
	})

	r.Route("/admin/requests", func(r chi.Router) {
		r.Use(authMW, adminRoleMW)
		r.Get("/", adminRequestsHandler.List)
		r.Delete("/", adminRequestsHandler.Purge)
		r.Put("/status", adminRequestsHandler.UpdateGroupStatus)
		r.Put("/{id}/status", adminRequestsHandler.UpdateRequestStatus)
		r.Get("/group/users", adminRequestsHandler.GroupUsers)
		r.Post("/sweep", adminRequestsHandler.Sweep)
		r.Post("/cache/clear", adminRequestsHandler.ClearCache)
	})
}
