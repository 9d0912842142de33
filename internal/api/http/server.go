package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nextread/library-service/internal/config"
	"github.com/nextread/library-service/internal/observability"
)

// NewApp builds the fiber application with global middlewares and routes attached.
func NewApp(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.CORS)
	RegisterRoutes(app, routes)
	return app
}
