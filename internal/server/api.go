package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"summitclips-server/internal/models"
	"summitclips-server/internal/query"
)

// JobCreateRequest is the body of POST /api/v1/jobs
type JobCreateRequest struct {
	Filepath string `json:"filepath" binding:"required"`
}

func (s *Server) requireJobs(c *gin.Context) bool {
	if s.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Job queue disabled",
			"details": "set QUEUE_ENABLED=true to enable asynchronous analysis",
		})
		return false
	}
	return true
}

func (s *Server) requireArchive(c *gin.Context) bool {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Archive disabled",
			"details": "set ARCHIVE_ENABLED=true to enable stored analyses",
		})
		return false
	}
	return true
}

func (s *Server) createJob(c *gin.Context) {
	if !s.requireJobs(c) {
		return
	}

	var req JobCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "Invalid request", models.Invalid("%v", err))
		return
	}
	if err := requireFile(req.Filepath); err != nil {
		respondError(c, "Video not found", err)
		return
	}

	job, err := s.jobs.Enqueue(c.Request.Context(), req.Filepath)
	if err != nil {
		respondError(c, "Failed to enqueue job", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job":     job,
		"message": "Analysis job queued",
	})
}

func (s *Server) listJobs(c *gin.Context) {
	if !s.requireJobs(c) {
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	jobs, err := s.jobs.ListJobs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "Failed to list jobs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (s *Server) getJob(c *gin.Context) {
	if !s.requireJobs(c) {
		return
	}

	job, err := s.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Job not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

func parseLimit(v string) int {
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

func (s *Server) listAnalyses(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	analyses, total, err := s.archive.ListAnalyses(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, "Failed to fetch analyses", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": analyses,
		"pagination": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
			"count":  len(analyses),
		},
	})
}

// loadAnalysis resolves :id to an archived analysis, writing the error response itself
func (s *Server) loadAnalysis(c *gin.Context) (*models.Analysis, bool) {
	if !s.requireArchive(c) {
		return nil, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, "Invalid analysis ID", models.Invalid("analysis id %q is not a number", c.Param("id")))
		return nil, false
	}

	analysis, err := s.archive.GetAnalysisByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, "Analysis not found", err)
		return nil, false
	}
	return analysis, true
}

func (s *Server) engineFor(c *gin.Context) (*query.Engine, bool) {
	analysis, ok := s.loadAnalysis(c)
	if !ok {
		return nil, false
	}
	return query.NewEngine(analysis.Result(), s.textModel, s.cfg.Analysis.ModelTimeout), true
}

func sceneIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("scene_id"))
	if err != nil {
		respondError(c, "Invalid scene ID", models.Invalid("scene id %q is not a number", c.Param("scene_id")))
		return 0, false
	}
	return id, true
}

func (s *Server) getAnalysis(c *gin.Context) {
	analysis, ok := s.loadAnalysis(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
		"result":   analysis.Result(),
	})
}

func (s *Server) sceneAtTime(c *gin.Context) {
	t, err := strconv.ParseFloat(c.Query("t"), 64)
	if err != nil {
		respondError(c, "Invalid time", models.Invalid("query parameter t must be seconds"))
		return
	}

	engine, ok := s.engineFor(c)
	if !ok {
		return
	}

	scene, err := engine.SceneAt(t)
	if err != nil {
		respondError(c, "Scene not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scene": scene})
}

func (s *Server) searchScenes(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		respondError(c, "Invalid search request", models.Invalid("query parameter q is required"))
		return
	}

	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.Search(keyword))
}

func (s *Server) emotionalTone(c *gin.Context) {
	sceneID, ok := sceneIDParam(c)
	if !ok {
		return
	}
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}

	res, err := engine.EmotionalTone(c.Request.Context(), sceneID)
	if err != nil {
		respondError(c, "Failed to analyze emotional tone", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) weatherConditions(c *gin.Context) {
	sceneID, ok := sceneIDParam(c)
	if !ok {
		return
	}
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}

	res, err := engine.Weather(c.Request.Context(), sceneID)
	if err != nil {
		respondError(c, "Failed to extract weather conditions", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getStats(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}

	stats, err := s.archive.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to get statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
