package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "s3gateway/docs" // swagger spec registration
	"s3gateway/internal/handler"
	"s3gateway/internal/middleware"
	"s3gateway/internal/port"
)

// Options carries the router settings that do not come from handlers.
type Options struct {
	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string
	// MaxUploadBytes sizes the multipart memory buffer.
	MaxUploadBytes int64
	// Links serves presigned links issued by an in-process backend. May be nil.
	Links port.LinkServer
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Metrics records per-route request counts. May be nil.
	Metrics *middleware.HTTPMetrics
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	objectH *handler.ObjectHandler,
	healthH *handler.HealthHandler,
	opts Options,
) *gin.Engine {
	r := gin.New()

	// Keys may carry encoded slashes. Params stay escaped; handlers unescape
	// them without turning '+' into a space.
	r.UseRawPath = true
	r.UnescapePathValues = false
	r.MaxMultipartMemory = opts.MaxUploadBytes + handler.MultipartOverhead

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Object routes
	r.POST("/upload", objectH.Upload)
	r.GET("/download/*key", objectH.Download)
	r.DELETE("/delete/*key", objectH.Delete)

	if opts.Links != nil {
		links := gin.WrapH(opts.Links)
		r.GET(opts.Links.MountPath()+"/*key", links)
		r.HEAD(opts.Links.MountPath()+"/*key", links)
	}

	r.NoRoute(func(c *gin.Context) {
		handler.RespondError(c, http.StatusNotFound, "NOT_FOUND", "Route not found", "")
	})

	return r
}
