package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nextread/library-service/internal/api/http/handlers"
	"github.com/nextread/library-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Books          *handlers.BooksHandler
	Users          *handlers.UsersHandler
	Reservations   *handlers.ReservationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	books := api.Group("/books")
	books.Get("/", cfg.Books.List)
	books.Post("/", cfg.Books.Create)
	books.Get("/:id", cfg.Books.Get)
	books.Put("/:id", cfg.Books.Update)
	books.Delete("/:id", cfg.Books.Delete)
	books.Get("/:id/queue", cfg.Books.Queue)

	users := api.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)

	reservations := api.Group("/reservations")
	reservations.Get("/", cfg.Reservations.List)
	reservations.Post("/reserve", cfg.Reservations.Reserve)
	reservations.Get("/user/:userId", cfg.Reservations.ListForUser)
	reservations.Get("/:id", cfg.Reservations.Get)
	reservations.Delete("/:id", cfg.Reservations.Cancel)
	reservations.Put("/:id/return", cfg.Reservations.Return)
}
