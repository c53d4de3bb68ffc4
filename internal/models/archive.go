package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONObject is a custom type for handling JSON objects
type JSONObject map[string]interface{}

// Scan implements the sql.Scanner interface for JSONObject
func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("json object: unsupported scan type %T", value)
	}

	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface for JSONObject
func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Analysis is an archived pipeline result
type Analysis struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	SessionID  string     `json:"session_id" gorm:"size:64;uniqueIndex;not null"`
	VideoPath  string     `json:"video_path" gorm:"size:1024;not null"`
	Fallback   bool       `json:"fallback" gorm:"default:false"`
	SceneCount int        `json:"scene_count" gorm:"default:0"`
	Metadata   JSONObject `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	CreatedAt  time.Time  `json:"created_at"`

	// Relationships
	Scenes []AnalysisScene `json:"scenes,omitempty" gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE"`
}

// AnalysisScene is one scene row of an archived analysis
type AnalysisScene struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	AnalysisID     uint      `json:"analysis_id" gorm:"not null;uniqueIndex:idx_analysis_scene"`
	SceneID        int       `json:"scene_id" gorm:"not null;uniqueIndex:idx_analysis_scene"`
	StartTime      float64   `json:"start_time" gorm:"not null"`
	EndTime        float64   `json:"end_time" gorm:"not null"`
	Transcript     string    `json:"transcript" gorm:"type:text"`
	FrameTimestamp *float64  `json:"frame_timestamp"`
	FrameAnalysis  string    `json:"frame_analysis" gorm:"type:text"`
	Description    string    `json:"description" gorm:"type:text"`
	Suggestion     string    `json:"suggestion" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName methods for custom table names
func (Analysis) TableName() string {
	return "analyses"
}

func (AnalysisScene) TableName() string {
	return "analysis_scenes"
}

// NewAnalysisRecord flattens a result into archive rows
func NewAnalysisRecord(result *AnalysisResult, metadata map[string]interface{}) *Analysis {
	record := &Analysis{
		SessionID:  result.SessionID,
		VideoPath:  result.VideoPath,
		Fallback:   result.Fallback,
		SceneCount: len(result.Scenes),
		Metadata:   JSONObject(metadata),
	}
	for _, scene := range result.Scenes {
		row := AnalysisScene{
			SceneID:     scene.SceneID,
			StartTime:   scene.StartTime,
			EndTime:     scene.EndTime,
			Transcript:  result.TranscriptFor(scene.SceneID),
			Description: result.DescriptionFor(scene.SceneID),
			Suggestion:  result.SuggestionFor(scene.SceneID),
		}
		for _, fa := range result.FrameAnalyses {
			if scene.Contains(fa.Timestamp) {
				ts := fa.Timestamp
				row.FrameTimestamp = &ts
				row.FrameAnalysis = fa.Analysis
				break
			}
		}
		record.Scenes = append(record.Scenes, row)
	}
	return record
}

// Result rebuilds the pipeline result from archive rows
func (a *Analysis) Result() *AnalysisResult {
	result := &AnalysisResult{
		SessionID:          a.SessionID,
		VideoPath:          a.VideoPath,
		Fallback:           a.Fallback,
		Scenes:             []Scene{},
		Descriptions:       []Description{},
		EditingSuggestions: []EditingSuggestion{},
	}
	for _, row := range a.Scenes {
		result.Scenes = append(result.Scenes, Scene{SceneID: row.SceneID, StartTime: row.StartTime, EndTime: row.EndTime})
		result.Descriptions = append(result.Descriptions, Description{SceneID: row.SceneID, Text: row.Description})
		result.EditingSuggestions = append(result.EditingSuggestions, EditingSuggestion{SceneID: row.SceneID, Text: row.Suggestion})
		result.Transcriptions = append(result.Transcriptions, TranscriptSegment{
			SceneID:   row.SceneID,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Text:      row.Transcript,
		})
		if row.FrameTimestamp != nil {
			result.FrameAnalyses = append(result.FrameAnalyses, FrameAnalysis{Timestamp: *row.FrameTimestamp, Analysis: row.FrameAnalysis})
		}
	}
	return result
}
