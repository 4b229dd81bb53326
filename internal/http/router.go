package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/hive-fieldops/backend/internal/config"
	"github.com/hive-fieldops/backend/internal/http/handlers"
	"github.com/hive-fieldops/backend/internal/http/middleware"
	"github.com/hive-fieldops/backend/internal/service"

	_ "github.com/hive-fieldops/backend/docs"
)

func Router(cfg config.Config, svc *service.RequestService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "" || cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		for _, origin := range strings.Split(cfg.CORSAllowed, ",") {
			corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, strings.TrimSpace(origin))
		}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Service:   svc,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.AdminKey(cfg.AdminKey))
	{
		api.GET("/requests", h.RequestsList)
		api.POST("/requests", h.RequestSubmit)
		api.GET("/requests/stats", h.RequestStats)
		api.GET("/requests/escalations", h.RequestEscalations)
		api.GET("/requests/:id", h.RequestDetails)
		api.PATCH("/requests/:id", h.RequestEdit)
		api.POST("/requests/:id/events/:event", h.RequestTransition)
		api.POST("/requests/:id/available-dates", h.AvailableDateAdd)
		api.DELETE("/requests/:id/available-dates/:date", h.AvailableDateRemove)
		api.GET("/requests/:id/manager-suggestions", h.ManagerSuggestions)

		api.POST("/requests/:id/invoice", h.InvoiceCreate)
		api.PUT("/requests/:id/invoice", h.InvoiceUpdate)
		api.POST("/requests/:id/invoice/visibility", h.InvoiceToggleVisibility)
		api.DELETE("/requests/:id/invoice", h.InvoiceDelete)
		api.GET("/requests/:id/invoice/client", h.InvoiceClientView)
		api.POST("/requests/:id/photos", h.PhotosAttach)

		api.GET("/managers", h.ManagersList)

		api.GET("/calendar", h.CalendarView)
		api.GET("/calendar.ics", h.CalendarICS)
		api.POST("/events", h.EventCreate)
		api.GET("/events/:id/conflicts", h.EventConflicts)
		api.DELETE("/events/:id", h.EventDelete)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
