package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/export"
	"github.com/docsift/docsift/internal/pipeline"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	processor   *pipeline.Processor
	exporter    *export.Service
	logger      *slog.Logger
	maxUploadMB int
}

func New(processor *pipeline.Processor, exporter *export.Service, cfg common.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	maxUploadMB := cfg.MaxUploadMB
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &Server{
		processor:   processor,
		exporter:    exporter,
		logger:      logger,
		maxUploadMB: maxUploadMB,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = int64(s.maxUploadMB) << 20

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	v1.POST("/documents/process", s.processDocument)
	v1.POST("/documents/process/export", s.processAndExport)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header("X-Request-ID", reqID)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))

		start := time.Now()
		c.Next()

		s.logger.Info("http.request",
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
