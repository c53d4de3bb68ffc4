package scenedetect

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"summitclips-server/internal/models"
)

// MediaProbe is the subset of the ffmpeg client the detector needs
type MediaProbe interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
	DetectCuts(ctx context.Context, videoPath string, threshold float64) (string, error)
}

// Options tunes scene detection
type Options struct {
	MinSceneLength float64
	Threshold      float64
	Timeout        time.Duration
}

// Detector handles scene detection operations
type Detector struct {
	probe  MediaProbe
	opts   Options
	logger zerolog.Logger
}

// NewDetector creates a new scene detector instance
func NewDetector(probe MediaProbe, opts Options, logger zerolog.Logger) *Detector {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	return &Detector{probe: probe, opts: opts, logger: logger}
}

// DetectScenes detects scenes in a video file using the ffmpeg scene-change filter.
// A failed duration probe is treated as a zero-length video.
func (d *Detector) DetectScenes(ctx context.Context, videoPath string) ([]models.Scene, error) {
	d.logger.Info().Str("video", videoPath).Float64("min_scene_length", d.opts.MinSceneLength).Msg("detecting scenes")

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	output, err := d.probe.DetectCuts(ctx, videoPath, d.opts.Threshold)
	if err != nil {
		return nil, err
	}

	cuts, malformed := ParseCutTimes(output)
	if malformed > 0 {
		d.logger.Warn().Int("lines", malformed).Msg("skipped unparsable cut markers")
	}

	duration, err := d.probe.Duration(ctx, videoPath)
	if err != nil {
		d.logger.Error().Err(err).Str("video", videoPath).Msg("failed to read video duration, using 0")
		duration = 0
	}

	scenes := BuildScenes(cuts, duration, d.opts.MinSceneLength)
	d.logger.Info().Int("cuts", len(cuts)).Int("scenes", len(scenes)).Float64("duration", duration).Msg("scene detection complete")
	return scenes, nil
}

// ParseCutTimes extracts cut timestamps from showinfo diagnostics in the order
// they appear. It also returns how many marker lines could not be parsed.
func ParseCutTimes(output string) ([]float64, int) {
	var cuts []float64
	malformed := 0
	for _, line := range strings.Split(output, "\n") {
		_, rest, ok := strings.Cut(line, "pts_time:")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			malformed++
			continue
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			malformed++
			continue
		}
		cuts = append(cuts, t)
	}
	return cuts, malformed
}

// BuildScenes turns cut times into scene intervals.
//
// With no cuts the whole video is one scene. Otherwise 0 is prepended and
// each bound is paired with the next one (the last with duration). A bound
// keeps the id of its position among the cuts, so dropped candidates leave
// gaps. Cuts earlier than the previous kept bound are ignored. Candidates
// shorter than minSceneLength are dropped.
func BuildScenes(cuts []float64, duration, minSceneLength float64) []models.Scene {
	if len(cuts) == 0 {
		if duration <= 0 {
			return nil
		}
		return []models.Scene{{SceneID: 1, StartTime: 0, EndTime: duration}}
	}

	bounds := make([]float64, 1, len(cuts)+1)
	ids := make([]int, 1, len(cuts)+1)
	bounds[0], ids[0] = 0, 1
	for i, cut := range cuts {
		if cut < bounds[len(bounds)-1] {
			continue
		}
		bounds = append(bounds, cut)
		ids = append(ids, i+2)
	}

	var scenes []models.Scene
	for k, start := range bounds {
		end := duration
		if k < len(bounds)-1 {
			end = bounds[k+1]
		}
		if end > start && end-start >= minSceneLength {
			scenes = append(scenes, models.Scene{SceneID: ids[k], StartTime: start, EndTime: end})
		}
	}
	return scenes
}

// FallbackScenes is the fixed segmentation used when detection fails
func FallbackScenes() []models.Scene {
	return []models.Scene{
		{SceneID: 1, StartTime: 0, EndTime: 30},
		{SceneID: 2, StartTime: 30, EndTime: 60},
		{SceneID: 3, StartTime: 60, EndTime: 90},
	}
}
