// Package httpapi exposes the sample service over HTTP with gin.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"greenleaf/internal/auth"
	"greenleaf/internal/blob"
	"greenleaf/internal/core"
	"greenleaf/internal/export"
	"greenleaf/internal/observability"
)

// DefaultMaxUploadBytes caps image uploads when Options leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// Options wires the router dependencies. Only Service is required.
type Options struct {
	Service        *core.Service
	Exports        *export.Worker
	Blobs          blob.Store
	Auth           *auth.Authenticator
	Logger         *zap.Logger
	Metrics        *observability.HTTPMetrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server holds the handler dependencies.
type Server struct {
	svc       *core.Service
	exports   *export.Worker
	blobs     blob.Store
	auth      *auth.Authenticator
	logger    *zap.Logger
	metrics   *observability.HTTPMetrics
	gatherer  prometheus.Gatherer
	origins   []string
	maxUpload int64
}

// New builds a Server from opts.
func New(opts Options) *Server {
	s := &Server{
		svc:       opts.Service,
		exports:   opts.Exports,
		blobs:     opts.Blobs,
		auth:      opts.Auth,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		gatherer:  opts.Gatherer,
		origins:   opts.AllowedOrigins,
		maxUpload: opts.MaxUploadBytes,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.blobs == nil && s.svc != nil {
		s.blobs = s.svc.Blobs()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.auth == nil {
		s.logger.Warn("authentication disabled: no auth secret configured")
	}
	return s
}

// Handler returns the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	return s.Router()
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.requestLogger(), s.recovery())
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Location", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/", s.requireAuth())

	samples := api.Group("/leafsamples")
	samples.GET("", s.listSamples)
	samples.POST("", s.createSample)
	samples.GET("/stats/dashboard", s.dashboardStats)
	samples.GET("/map/heatmap", s.heatmap)
	samples.GET("/map/geojson", s.geojson)
	samples.GET("/export", s.exportSamples)
	samples.GET("/:id", s.getSample)
	samples.PUT("/:id", s.replaceSample)
	samples.PATCH("/:id", s.patchSample)
	samples.DELETE("/:id", s.deleteSample)
	samples.POST("/:id/image", s.uploadImage)

	api.POST("/exports", s.createExport)
	api.GET("/exports", s.listExports)
	api.GET("/exports/:id", s.getExport)
	api.GET("/files/*key", s.serveFile)
	api.GET("/dashboard", s.dashboardPage)

	return r
}
