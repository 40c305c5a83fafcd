package handlers

import (
	"pv_forecast/internal/logger"
	"pv_forecast/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Site state stream for the map widget, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerSiteRoutes(api)
		h.registerGeocodeRoutes(api)
		h.registerForecastRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerSiteRoutes(api *gin.RouterGroup) {
	site := api.Group("/site")
	{
		site.GET("", h.getSite)
		// Body example: {"lat":45.07,"lon":7.68}
		site.POST("/drag", h.dragSite)
		site.POST("/confirm", h.confirmSite)
		site.POST("/cancel", h.cancelSite)
		site.POST("/manual", h.manualSite)
	}
}

func (h *Handler) registerGeocodeRoutes(api *gin.RouterGroup) {
	geo := api.Group("/geocode")
	{
		geo.GET("/search", h.searchAddress)
		geo.POST("/select", h.selectAddress)
	}
}

func (h *Handler) registerForecastRoutes(api *gin.RouterGroup) {
	fc := api.Group("/forecast")
	{
		fc.POST("", h.submitForecast)
		fc.GET("/latest", h.latestForecast)
		fc.POST("/preview", h.previewLosses)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
