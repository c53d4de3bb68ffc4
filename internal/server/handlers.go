package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"summitclips-server/internal/models"
)

const (
	wsWriteTimeout = 10 * time.Second
	// wsPathTimeout bounds the wait for the client's video path frame
	wsPathTimeout = 30 * time.Second
)

func (s *Server) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	response := gin.H{
		"status":    "ok",
		"service":   serviceName,
		"version":   version,
		"timestamp": time.Now().UTC(),
	}

	if s.tools != nil {
		response["ffmpeg"] = healthString(s.tools.Check(ctx))
	}
	if s.archive != nil {
		response["database"] = healthString(s.archive.Health(ctx))
	}
	if s.jobs != nil {
		response["queue"] = healthString(s.jobs.Health(ctx))
	}
	if s.sessions != nil {
		response["active_sessions"] = s.sessions.Active()
	}

	c.JSON(http.StatusOK, response)
}

func healthString(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func (s *Server) uiConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.UI)
}

// validateExtension checks name against the configured allow-list
func (s *Server) validateExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.cfg.Server.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return models.Invalid("file type %q is not allowed (allowed: %s)", ext, strings.Join(s.cfg.Server.AllowedExtensions, ", "))
}

// requireFile returns a not-found error unless path names a regular file
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return models.NotFound("video file not found: %s", path)
	}
	return nil
}

func (s *Server) uploadVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, "Invalid upload", models.Invalid("%v", err))
		return
	}

	if err := s.validateExtension(file.Filename); err != nil {
		respondError(c, "Invalid file type", err)
		return
	}

	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0o755); err != nil {
		respondError(c, "Failed to prepare upload directory", err)
		return
	}

	name := filepath.Base(file.Filename)
	dest := filepath.Join(s.cfg.Server.UploadDir, uuid.NewString()+"_"+name)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		respondError(c, "Failed to save upload", err)
		return
	}

	s.logger.Info().Str("filename", name).Str("filepath", dest).Int64("size", file.Size).Msg("video uploaded")
	c.JSON(http.StatusOK, gin.H{
		"filename": name,
		"filepath": dest,
	})
}

func (s *Server) analyzeVideo(c *gin.Context) {
	path := c.PostForm("filepath")
	if path == "" {
		respondError(c, "Invalid request", models.Invalid("form field filepath is required"))
		return
	}
	if err := requireFile(path); err != nil {
		respondError(c, "Video not found", err)
		return
	}

	result := s.pipeline.Process(c.Request.Context(), path)
	c.JSON(http.StatusOK, result)
}

// analyzeStream reads one text frame carrying a file path, then streams
// progress events as JSON frames and closes after the result frame.
func (s *Server) analyzeStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(s.pathTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read video path from websocket")
		return
	}
	conn.SetReadDeadline(time.Time{})
	path := strings.TrimSpace(string(msg))

	if err := requireFile(path); err != nil {
		s.writeEvent(conn, models.ProgressEvent{
			Type:      models.EventError,
			Author:    "server",
			Content:   err.Error(),
			Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		})
		s.closeStream(conn)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan models.ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.pipeline.ProcessStreaming(ctx, path, events)
	}()

	for ev := range events {
		if err := s.writeEvent(conn, ev); err != nil {
			s.logger.Warn().Err(err).Msg("websocket client went away, cancelling analysis")
			cancel()
			break
		}
	}
	// drain so the producer never blocks after a failed write
	for range events {
	}
	<-done

	s.closeStream(conn)
}

func (s *Server) writeEvent(conn *websocket.Conn, ev models.ProgressEvent) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(ev)
}

func (s *Server) closeStream(conn *websocket.Conn) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
