package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/r2gate/internal/api/handler"
	"github.com/timmy/r2gate/internal/api/middleware"
	"github.com/timmy/r2gate/internal/config"
	"github.com/timmy/r2gate/internal/logger"
	"github.com/timmy/r2gate/internal/metrics"
	"github.com/timmy/r2gate/internal/service"
)

// SetupRouter configures the Gin router with all routes.
// Parameters:
//   - gateway: storage gateway serving the object routes.
//   - ready: readiness probe target, usually the object storage.
//   - m: metrics collector; nil disables /metrics and the metrics middleware.
//   - cfg: server configuration.
//   - log: base logger for the request middleware.
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(
	gateway *service.StorageGateway,
	ready handler.Pinger,
	m *metrics.Metrics,
	cfg *config.ServerConfig,
	log *logger.Logger,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	if cfg.MaxUploadMB > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes()
	}

	r.Use(gin.Recovery())
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(ready)
	objectHandler := handler.NewObjectHandler(gateway, cfg.MaxUploadBytes())

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	objects := r.Group(cfg.RoutePrefix)
	{
		objects.POST("/upload", objectHandler.Upload)
		objects.GET("/download/*path", objectHandler.Download)
		objects.GET("/file/*path", objectHandler.Display)
		objects.DELETE("/file/*path", objectHandler.Delete)
		objects.GET("/list", objectHandler.List)
		objects.GET("/exists/*path", objectHandler.Exists)
		objects.GET("/presigned-url/*path", objectHandler.PresignedURL)
	}

	return r
}
