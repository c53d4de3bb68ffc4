package models

// Scene is a contiguous interval of the source video treated as one analysis unit
type Scene struct {
	SceneID   int     `json:"scene_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration returns the scene length in seconds
func (s Scene) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Midpoint returns the timestamp halfway through the scene
func (s Scene) Midpoint() float64 {
	return (s.StartTime + s.EndTime) / 2
}

// Contains reports whether t lies in [StartTime, EndTime]
func (s Scene) Contains(t float64) bool {
	return s.StartTime <= t && t <= s.EndTime
}

// TranscriptSegment is the recognized speech for one scene
type TranscriptSegment struct {
	SceneID   int     `json:"scene_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// FrameAnalysis is the vision model output for a burst of frames around Timestamp
type FrameAnalysis struct {
	Timestamp float64 `json:"timestamp"`
	Analysis  string  `json:"analysis"`
}

// Description is the natural-language summary of one scene
type Description struct {
	SceneID int    `json:"scene_id"`
	Text    string `json:"text"`
}

// EditingSuggestion is the editing advice for one scene
type EditingSuggestion struct {
	SceneID int    `json:"scene_id"`
	Text    string `json:"text"`
}

// AnalysisResult is the payload returned by one pipeline run
type AnalysisResult struct {
	SessionID          string              `json:"session_id,omitempty"`
	VideoPath          string              `json:"video_path,omitempty"`
	Scenes             []Scene             `json:"scenes"`
	Descriptions       []Description       `json:"descriptions"`
	EditingSuggestions []EditingSuggestion `json:"editing_suggestions"`
	Transcriptions     []TranscriptSegment `json:"transcriptions,omitempty"`
	FrameAnalyses      []FrameAnalysis     `json:"frame_analyses,omitempty"`
	Fallback           bool                `json:"fallback"`
}

// DescriptionFor returns the description text for sceneID, or "" if absent
func (r *AnalysisResult) DescriptionFor(sceneID int) string {
	for _, d := range r.Descriptions {
		if d.SceneID == sceneID {
			return d.Text
		}
	}
	return ""
}

// SuggestionFor returns the editing suggestion text for sceneID, or "" if absent
func (r *AnalysisResult) SuggestionFor(sceneID int) string {
	for _, s := range r.EditingSuggestions {
		if s.SceneID == sceneID {
			return s.Text
		}
	}
	return ""
}

// TranscriptFor returns the transcript text for sceneID, or "" if absent
func (r *AnalysisResult) TranscriptFor(sceneID int) string {
	for _, t := range r.Transcriptions {
		if t.SceneID == sceneID {
			return t.Text
		}
	}
	return ""
}

// SceneByID returns the scene with the given id
func (r *AnalysisResult) SceneByID(sceneID int) (Scene, bool) {
	for _, s := range r.Scenes {
		if s.SceneID == sceneID {
			return s, true
		}
	}
	return Scene{}, false
}

// EventType classifies a progress event
type EventType string

const (
	EventMessage  EventType = "message"
	EventPartial  EventType = "partial"
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
)

// ProgressEvent is one notification emitted by the streaming pipeline
type ProgressEvent struct {
	Type      EventType `json:"type"`
	Author    string    `json:"author,omitempty"`
	Content   any       `json:"content"`
	Timestamp float64   `json:"timestamp"`
}

// Stage names a pipeline state
type Stage string

const (
	StageInit         Stage = "init"
	StageSegmenting   Stage = "segmenting"
	StageTranscribing Stage = "transcribing"
	StageAnalyzing    Stage = "analyzing"
	StageSynthesizing Stage = "synthesizing"
	StageSuggesting   Stage = "suggesting"
	StageDone         Stage = "done"
	StageFallback     Stage = "fallback"
)
