package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Route intelligence
		api.Post("/routes", handler.GetRoutes)
		api.Post("/routes/by-name", handler.GetRoutesByName)
		api.Post("/routes/from-coords", handler.GetRoutesFromCoords)
		api.Post("/routes/choice", handler.RecordRouteChoice)

		// Asynchronous analysis
		api.Post("/analysis", handler.SubmitAnalysis)
		api.Get("/tasks/:id", handler.GetTask)

		// Community reports
		api.Get("/reports", handler.ListReports)
		api.Post("/reports", handler.CreateReport)
	}
}
