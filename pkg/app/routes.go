package app

import (
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// initDefaultRoutes initializes the applications routes.
//
//	/version  application version
//	/health   runtime and decoder statistics
//	/data     last reading of each channel
//	/metrics  prometheus metrics of the decoder
func (app *App) initDefaultRoutes() {
	if app.config.Webserver.Webservices["version"] {
		app.web.Get("/version", app.HandleVersion())
	}
	if app.config.Webserver.Webservices["health"] {
		app.web.Get("/health", app.HandleHealth())
	}
	if app.config.Webserver.Webservices["data"] {
		app.web.Get("/data", app.HandleData())
	}
	if app.config.Webserver.Webservices["metrics"] {
		app.web.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}
}
