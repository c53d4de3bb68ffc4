package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"summitclips-server/internal/config"
	"summitclips-server/internal/database"
	"summitclips-server/internal/models"
	"summitclips-server/internal/query"
	"summitclips-server/internal/queue"
	"summitclips-server/internal/session"
)

const (
	serviceName = "summitclips-server"
	version     = "0.1.0"
)

// Analyzer runs the analysis pipeline
type Analyzer interface {
	Process(ctx context.Context, videoPath string) *models.AnalysisResult
	ProcessStreaming(ctx context.Context, videoPath string, events chan<- models.ProgressEvent) *models.AnalysisResult
}

// JobQueue is the async job surface
type JobQueue interface {
	Enqueue(ctx context.Context, videoPath string) (*queue.Job, error)
	GetJob(ctx context.Context, jobID string) (*queue.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*queue.Job, error)
	Health(ctx context.Context) error
}

// Archive is the stored-analysis surface
type Archive interface {
	ListAnalyses(ctx context.Context, limit, offset int) ([]models.Analysis, int64, error)
	GetAnalysisByID(ctx context.Context, id uint) (*models.Analysis, error)
	GetStats(ctx context.Context) (*database.Stats, error)
	Health(ctx context.Context) error
}

// ToolChecker reports whether the media tools are runnable
type ToolChecker interface {
	Check(ctx context.Context) error
}

// Server is the HTTP and WebSocket front end
type Server struct {
	cfg       *config.Config
	pipeline  Analyzer
	jobs      JobQueue
	archive   Archive
	tools     ToolChecker
	textModel query.TextModel
	sessions  *session.Registry
	logger    zerolog.Logger
	upgrader  websocket.Upgrader

	pathTimeout time.Duration
}

// Option customizes the server
type Option func(*Server)

// WithJobQueue enables the /api/v1/jobs endpoints
func WithJobQueue(q JobQueue) Option {
	return func(s *Server) { s.jobs = q }
}

// WithArchive enables the /api/v1/analyses endpoints
func WithArchive(a Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithToolChecker reports media tool availability on /health
func WithToolChecker(t ToolChecker) Option {
	return func(s *Server) { s.tools = t }
}

// WithTextModel backs the tone and weather queries
func WithTextModel(m query.TextModel) Option {
	return func(s *Server) { s.textModel = m }
}

// WithSessions reports in-flight runs on /health
func WithSessions(r *session.Registry) Option {
	return func(s *Server) { s.sessions = r }
}

// WithStreamPathTimeout bounds how long /analyze-stream waits for the video path
func WithStreamPathTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pathTimeout = d
		}
	}
}

// New creates a server
func New(cfg *config.Config, pipeline Analyzer, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		pipeline:    pipeline,
		logger:      logger,
		pathTimeout: wsPathTimeout,
		upgrader:    websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(requestLogger(s.logger))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", s.healthCheck)

	r.POST("/upload", s.uploadVideo)
	r.POST("/analyze", s.analyzeVideo)
	r.GET("/analyze-stream", s.analyzeStream)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/config/ui", s.uiConfig)

		// Async jobs
		v1.POST("/jobs", s.createJob)
		v1.GET("/jobs", s.listJobs)
		v1.GET("/jobs/:id", s.getJob)

		// Archived analyses
		v1.GET("/analyses", s.listAnalyses)
		v1.GET("/analyses/:id", s.getAnalysis)
		v1.GET("/analyses/:id/scene", s.sceneAtTime)
		v1.GET("/analyses/:id/search", s.searchScenes)
		v1.GET("/analyses/:id/scenes/:scene_id/tone", s.emotionalTone)
		v1.GET("/analyses/:id/scenes/:scene_id/weather", s.weatherConditions)
		v1.GET("/stats", s.getStats)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Middleware

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logger.Info()
		if status >= http.StatusInternalServerError {
			ev = logger.Error()
		} else if status >= http.StatusBadRequest {
			ev = logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// respondError maps the error taxonomy onto HTTP status codes
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrModelInvocation):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
