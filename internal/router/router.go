package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"railroad-api/internal/access"
	"railroad-api/internal/config"
	"railroad-api/internal/handler"
	"railroad-api/internal/metrics"
	"railroad-api/internal/middleware"
)

type Handlers struct {
	Health  *handler.HealthHandler
	User    *handler.UserHandler
	Station *handler.StationHandler
	Train   *handler.TrainHandler
	Ticket  *handler.TicketHandler
}

func New(cfg *config.Config, auth *middleware.AuthMiddleware, h Handlers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	// Entries were checked by Config.Validate; a bad one here only means no proxy is trusted.
	trustedProxies, _ := cfg.TrustedProxyPrefixes()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, trustedProxies...)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(m.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/", h.Health.Root)
	r.Get("/health", h.Health.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	self := middleware.OwnerFromURLParam("id")

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/user", func(users chi.Router) {
			users.Post("/register", h.User.Register)
			users.Post("/login", h.User.Login)

			users.Group(func(authed chi.Router) {
				authed.Use(auth.RequireAuth)
				authed.With(auth.Authorize(access.UserList, nil)).Get("/", h.User.List)
				authed.With(auth.Authorize(access.UserRead, nil)).Get("/{id}", h.User.Get)
				authed.With(auth.Authorize(access.UserUpdate, self)).Put("/{id}", h.User.Update)
				authed.With(auth.Authorize(access.UserDelete, self)).Delete("/{id}", h.User.Delete)
				authed.With(auth.Authorize(access.UserChangeRole, nil)).Put("/{id}/role", h.User.ChangeRole)
			})
		})

		api.Route("/station", func(stations chi.Router) {
			stations.Get("/", h.Station.List)
			stations.Get("/{id}", h.Station.Get)

			stations.Group(func(admin chi.Router) {
				admin.Use(auth.RequireAuth, auth.Authorize(access.StationWrite, nil))
				admin.Post("/create", h.Station.Create)
				admin.Put("/{id}", h.Station.Update)
				admin.Delete("/{id}", h.Station.Delete)
			})
		})

		api.Route("/train", func(trains chi.Router) {
			trains.Get("/", h.Train.List)
			trains.Get("/{id}", h.Train.Get)

			trains.Group(func(admin chi.Router) {
				admin.Use(auth.RequireAuth, auth.Authorize(access.TrainWrite, nil))
				admin.Post("/create", h.Train.Create)
				admin.Put("/{id}", h.Train.Update)
				admin.Delete("/{id}", h.Train.Delete)
			})
		})

		// {id} is a train id for available/booking and a ticket id otherwise.
		api.Route("/ticket", func(tickets chi.Router) {
			tickets.Use(auth.RequireAuth)
			tickets.With(auth.Authorize(access.TicketHistory, nil)).Get("/history", h.Ticket.History)
			tickets.With(auth.Authorize(access.TicketsForTrain, nil)).Get("/{id}/available", h.Ticket.ForTrain)
			tickets.With(auth.Authorize(access.TicketBook, nil)).Post("/{id}/booking", h.Ticket.Book)
			tickets.With(auth.Authorize(access.TicketValidate, nil)).Get("/{id}/validate", h.Ticket.Validate)
			tickets.Get("/{id}", h.Ticket.Get)
		})
	})

	return r
}
