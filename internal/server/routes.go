package server

import (
	"net/http"

	"catalog/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, gatherer prometheus.Gatherer) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, jwtSecret)
}
