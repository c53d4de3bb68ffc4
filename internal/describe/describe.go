// Package describe turns per-scene transcripts and frame analyses into
// descriptions and position-based editing suggestions.
package describe

import (
	"strings"

	"summitclips-server/internal/models"
)

const (
	descriptionPrefix  = "このシーンでは、"
	descriptionSuffix  = "から、山の風景と登山者の様子が確認できます。"
	genericDescription = "このシーンでは、登山の様子が映っています。"
)

// Synthesize returns exactly one description per scene, in scene order
func Synthesize(scenes []models.Scene, transcripts []models.TranscriptSegment, analyses []models.FrameAnalysis) []models.Description {
	descriptions := make([]models.Description, 0, len(scenes))
	for _, scene := range scenes {
		descriptions = append(descriptions, models.Description{
			SceneID: scene.SceneID,
			Text:    Compose(transcriptFor(scene, transcripts), analysisFor(scene, analyses)),
		})
	}
	return descriptions
}

// Compose builds one description from a transcript and a frame analysis, either of which may be empty
func Compose(transcript, analysis string) string {
	analysis = strings.TrimSpace(analysis)
	switch {
	case transcript != "" && analysis != "":
		return descriptionPrefix + transcript + " " + analysis + descriptionSuffix
	case transcript != "":
		return descriptionPrefix + transcript
	case analysis != "":
		return descriptionPrefix + analysis + descriptionSuffix
	default:
		return genericDescription
	}
}

func transcriptFor(scene models.Scene, transcripts []models.TranscriptSegment) string {
	for _, t := range transcripts {
		if t.SceneID == scene.SceneID {
			return t.Text
		}
	}
	return ""
}

// first analysis whose timestamp lies inside the scene
func analysisFor(scene models.Scene, analyses []models.FrameAnalysis) string {
	for _, a := range analyses {
		if scene.Contains(a.Timestamp) {
			return a.Analysis
		}
	}
	return ""
}
