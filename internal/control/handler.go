package control

import (
	"net/http"
	"time"

	"execution-core/internal/events"
	"execution-core/internal/monitor"

	"github.com/gin-gonic/gin"
)

// Server is the local control-plane: health/status/metrics over HTTP, plus
// the {type:"S",...} signal ingestion WebSocket endpoint (§6 "Local
// control-plane interface"). Grounded on the teacher's internal/api
// (handler.go's Server/engine wiring, middleware.go's logging middleware),
// trimmed to the single unauthenticated-by-default local surface this spec
// describes.
type Server struct {
	Bus          *events.Bus
	Metrics      *monitor.SystemMetrics
	JWTSecret    string
	DefaultAsset string

	StateSynced   func() bool
	Authenticated func() bool

	router *gin.Engine
}

// NewServer builds the control-plane router.
func NewServer(bus *events.Bus, metrics *monitor.SystemMetrics, jwtSecret, defaultAsset string) *Server {
	s := &Server{Bus: bus, Metrics: metrics, JWTSecret: jwtSecret, DefaultAsset: defaultAsset}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), requestLogger())

	s.router.GET("/healthz", s.health)

	guarded := s.router.Group("/")
	guarded.Use(authMiddleware(jwtSecret))
	guarded.GET("/status", s.status)
	guarded.GET("/metrics", s.metrics)
	guarded.GET("/signal", s.signalWS)

	return s
}

// Run starts the HTTP server on addr (host:port); it blocks until the
// listener errors or the process exits.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) status(c *gin.Context) {
	synced, auth := false, false
	if s.StateSynced != nil {
		synced = s.StateSynced()
	}
	if s.Authenticated != nil {
		auth = s.Authenticated()
	}
	c.JSON(http.StatusOK, gin.H{
		"state_synced":  synced,
		"authenticated": auth,
	})
}

func (s *Server) metrics(c *gin.Context) {
	if s.Metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.Metrics.GetSnapshot())
}

// requestLogger is a minimal structured access log, matching the teacher's
// plain log.Printf-per-request style rather than pulling in a logging
// middleware library the teacher never used.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logAccess(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
