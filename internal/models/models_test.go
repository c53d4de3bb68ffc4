package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	probe := &ProbeError{Path: "a.mp4", Err: errors.New("exit status 1")}
	extract := &ExtractionError{Op: "extract audio", Path: "a.mp4", Err: errors.New("exit status 1")}
	model := &ModelError{Model: "gemini", Err: errors.New("401")}

	if !errors.Is(fmt.Errorf("wrap: %w", probe), ErrToolInvocation) {
		t.Fatal("probe error should match ErrToolInvocation")
	}
	if !errors.Is(extract, ErrToolInvocation) {
		t.Fatal("extraction error should match ErrToolInvocation")
	}
	if !errors.Is(model, ErrModelInvocation) {
		t.Fatal("model error should match ErrModelInvocation")
	}
	if errors.Is(model, ErrToolInvocation) {
		t.Fatal("model error should not match ErrToolInvocation")
	}
	if !errors.Is(NotFound("file %s", "x"), ErrNotFound) {
		t.Fatal("NotFound should match ErrNotFound")
	}
	if !errors.Is(Invalid("ext %s", ".txt"), ErrValidation) {
		t.Fatal("Invalid should match ErrValidation")
	}
}

func TestSceneHelpers(t *testing.T) {
	s := Scene{SceneID: 1, StartTime: 10, EndTime: 20}
	if s.Duration() != 10 || s.Midpoint() != 15 {
		t.Fatalf("duration=%v midpoint=%v", s.Duration(), s.Midpoint())
	}
	if !s.Contains(10) || !s.Contains(20) || s.Contains(20.01) {
		t.Fatal("Contains should be inclusive on both ends")
	}
}

func TestAnalysisRecordRoundTrip(t *testing.T) {
	result := &AnalysisResult{
		SessionID: "s1",
		VideoPath: "/tmp/v.mp4",
		Scenes: []Scene{
			{SceneID: 1, StartTime: 0, EndTime: 30},
			{SceneID: 3, StartTime: 30, EndTime: 60},
		},
		Descriptions:       []Description{{SceneID: 1, Text: "d1"}, {SceneID: 3, Text: "d3"}},
		EditingSuggestions: []EditingSuggestion{{SceneID: 1, Text: "s1"}, {SceneID: 3, Text: "s3"}},
		Transcriptions:     []TranscriptSegment{{SceneID: 3, StartTime: 30, EndTime: 60, Text: "t3"}},
		FrameAnalyses:      []FrameAnalysis{{Timestamp: 15, Analysis: "a1"}},
	}

	record := NewAnalysisRecord(result, map[string]interface{}{"min_scene_length": 5.0})
	if record.SceneCount != 2 || len(record.Scenes) != 2 {
		t.Fatalf("scene count = %d rows = %d", record.SceneCount, len(record.Scenes))
	}
	first := record.Scenes[0]
	if first.FrameTimestamp == nil || *first.FrameTimestamp != 15 || first.FrameAnalysis != "a1" {
		t.Fatalf("unexpected frame data on first row: %+v", first)
	}
	if record.Scenes[1].FrameTimestamp != nil {
		t.Fatal("second scene has no frame analysis")
	}
	if record.Scenes[1].Transcript != "t3" || record.Scenes[0].Transcript != "" {
		t.Fatal("transcripts not matched by scene id")
	}

	back := record.Result()
	if back.DescriptionFor(3) != "d3" || back.SuggestionFor(1) != "s1" {
		t.Fatal("descriptions or suggestions lost")
	}
	if len(back.FrameAnalyses) != 1 || back.FrameAnalyses[0].Timestamp != 15 {
		t.Fatalf("frame analyses = %+v", back.FrameAnalyses)
	}
}

func TestJSONObjectScan(t *testing.T) {
	var obj JSONObject
	if err := obj.Scan([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if obj["a"].(float64) != 1 {
		t.Fatalf("obj = %v", obj)
	}
	if err := obj.Scan(nil); err != nil || len(obj) != 0 {
		t.Fatalf("scan nil: %v %v", err, obj)
	}
	if err := obj.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
