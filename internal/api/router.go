package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mesikahq/patient-dashboard/internal/middleware"
)

type Router struct {
	handler   *Handler
	rateLimit rate.Limit
	burst     int
}

// NewRouter wires handler behind a per-client limit of requestsPerSecond
// with the given burst. A non-positive rate disables limiting.
func NewRouter(handler *Handler, requestsPerSecond float64, burst int) *Router {
	return &Router{
		handler:   handler,
		rateLimit: rate.Limit(requestsPerSecond),
		burst:     burst,
	}
}

func (r *Router) SetupRouter(logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.SecurityHeadersMiddleware("https:"),
		middleware.RecoveryMiddleware(logger),
		middleware.LoggerMiddleware(logger),
	)
	if r.rateLimit > 0 {
		router.Use(middleware.RateLimitMiddleware(r.rateLimit, r.burst))
	}

	router.StaticFS("/static", http.FS(StaticFiles()))

	router.GET("/", r.handler.Index)
	router.GET("/patients/:index", r.handler.PatientPage)
	router.GET("/health", r.handler.Health)

	api := router.Group("/api")
	{
		api.GET("/patients", r.handler.APIRoster)
		api.GET("/patients/:index", r.handler.APIPatient)
	}

	router.NoRoute(r.handler.NoRoute)

	return router
}
