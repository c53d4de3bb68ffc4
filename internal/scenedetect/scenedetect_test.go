package scenedetect

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"summitclips-server/internal/models"
)

type fakeProbe struct {
	output      string
	cutsErr     error
	duration    float64
	durationErr error
}

func (f *fakeProbe) Duration(ctx context.Context, videoPath string) (float64, error) {
	return f.duration, f.durationErr
}

func (f *fakeProbe) DetectCuts(ctx context.Context, videoPath string, threshold float64) (string, error) {
	return f.output, f.cutsErr
}

func TestParseCutTimes(t *testing.T) {
	output := `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'climb.mp4':
[Parsed_showinfo_1 @ 0x55d] n:   0 pts: 360360 pts_time:12.012  duration:1001 pos: 4218 fmt:yuv420p
[Parsed_showinfo_1 @ 0x55d] n:   1 pts: 900900 pts_time:30.03   duration:1001
[Parsed_showinfo_1 @ 0x55d] n:   2 pts: 0 pts_time:garbage
frame=    3 fps=0.0 q=-0.0 Lsize=N/A time=00:01:35.00`

	cuts, malformed := ParseCutTimes(output)
	if want := []float64{12.012, 30.03}; !reflect.DeepEqual(cuts, want) {
		t.Fatalf("cuts = %v, want %v", cuts, want)
	}
	if malformed != 1 {
		t.Fatalf("malformed = %d, want 1", malformed)
	}
}

func TestBuildScenes(t *testing.T) {
	cases := []struct {
		name     string
		cuts     []float64
		duration float64
		minLen   float64
		want     []models.Scene
	}{
		{
			name:     "no cuts spans whole video",
			duration: 95,
			minLen:   5,
			want:     []models.Scene{{SceneID: 1, StartTime: 0, EndTime: 95}},
		},
		{
			name:     "no cuts and unknown duration",
			duration: 0,
			minLen:   5,
			want:     nil,
		},
		{
			name:     "regular cuts",
			cuts:     []float64{10, 40},
			duration: 60,
			minLen:   5,
			want: []models.Scene{
				{SceneID: 1, StartTime: 0, EndTime: 10},
				{SceneID: 2, StartTime: 10, EndTime: 40},
				{SceneID: 3, StartTime: 40, EndTime: 60},
			},
		},
		{
			name:     "short leading scene leaves id gap",
			cuts:     []float64{2, 20},
			duration: 50,
			minLen:   5,
			want: []models.Scene{
				{SceneID: 2, StartTime: 2, EndTime: 20},
				{SceneID: 3, StartTime: 20, EndTime: 50},
			},
		},
		{
			name:     "short trailing scene dropped",
			cuts:     []float64{30},
			duration: 33,
			minLen:   5,
			want:     []models.Scene{{SceneID: 1, StartTime: 0, EndTime: 30}},
		},
		{
			name:     "failed duration drops final candidate",
			cuts:     []float64{30},
			duration: 0,
			minLen:   5,
			want:     []models.Scene{{SceneID: 1, StartTime: 0, EndTime: 30}},
		},
		{
			name:     "out-of-order cut ignored",
			cuts:     []float64{50, 60, 10, 70},
			duration: 80,
			minLen:   5,
			want: []models.Scene{
				{SceneID: 1, StartTime: 0, EndTime: 50},
				{SceneID: 2, StartTime: 50, EndTime: 60},
				{SceneID: 3, StartTime: 60, EndTime: 70},
				{SceneID: 5, StartTime: 70, EndTime: 80},
			},
		},
		{
			name:     "negative cut ignored",
			cuts:     []float64{-3, 20},
			duration: 40,
			minLen:   5,
			want: []models.Scene{
				{SceneID: 1, StartTime: 0, EndTime: 20},
				{SceneID: 3, StartTime: 20, EndTime: 40},
			},
		},
		{
			name:     "zero-length candidates never emitted",
			cuts:     []float64{0, 20, 20},
			duration: 40,
			minLen:   0,
			want: []models.Scene{
				{SceneID: 2, StartTime: 0, EndTime: 20},
				{SceneID: 4, StartTime: 20, EndTime: 40},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildScenes(tc.cuts, tc.duration, tc.minLen)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("scenes = %+v\nwant     %+v", got, tc.want)
			}
		})
	}
}

func TestBuildScenesInvariants(t *testing.T) {
	cutSets := [][]float64{
		{1, 2, 3, 4, 5},
		{0.5, 7, 7.2, 19, 19.1, 60},
		{4.9, 9.8, 14.7},
		{100},
		{50, 60, 10, 70},
		{30, 5, 40, 35, 90, 2},
	}
	for _, cuts := range cutSets {
		for _, minLen := range []float64{0, 1, 5, 10} {
			scenes := BuildScenes(cuts, 80, minLen)
			prevStart := -1.0
			prevEnd := 0.0
			prevID := 0
			for _, s := range scenes {
				if s.StartTime < prevEnd {
					t.Fatalf("cuts %v: scene %+v overlaps previous end %v", cuts, s, prevEnd)
				}
				if s.EndTime-s.StartTime < minLen {
					t.Fatalf("cuts %v min %v: scene %+v shorter than minimum", cuts, minLen, s)
				}
				if s.EndTime <= s.StartTime {
					t.Fatalf("cuts %v: scene %+v has no extent", cuts, s)
				}
				if s.StartTime < prevStart {
					t.Fatalf("cuts %v: start times not ordered", cuts)
				}
				if s.SceneID <= prevID {
					t.Fatalf("cuts %v: ids not increasing", cuts)
				}
				prevStart, prevEnd, prevID = s.StartTime, s.EndTime, s.SceneID
			}
		}
	}
}

func TestFallbackScenes(t *testing.T) {
	want := []models.Scene{
		{SceneID: 1, StartTime: 0, EndTime: 30},
		{SceneID: 2, StartTime: 30, EndTime: 60},
		{SceneID: 3, StartTime: 60, EndTime: 90},
	}
	if got := FallbackScenes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("fallback = %+v", got)
	}
}

func TestDetectScenes(t *testing.T) {
	probe := &fakeProbe{
		output:   "[Parsed_showinfo_1] n:0 pts:1 pts_time:40.0 duration:1",
		duration: 95,
	}
	d := NewDetector(probe, Options{MinSceneLength: 5}, zerolog.Nop())
	scenes, err := d.DetectScenes(context.Background(), "climb.mp4")
	if err != nil {
		t.Fatalf("DetectScenes returned error: %v", err)
	}
	want := []models.Scene{
		{SceneID: 1, StartTime: 0, EndTime: 40},
		{SceneID: 2, StartTime: 40, EndTime: 95},
	}
	if !reflect.DeepEqual(scenes, want) {
		t.Fatalf("scenes = %+v", scenes)
	}
}

func TestDetectScenesDurationFailureTreatedAsZero(t *testing.T) {
	probe := &fakeProbe{durationErr: errors.New("ffprobe: exit 1")}
	d := NewDetector(probe, Options{MinSceneLength: 5}, zerolog.Nop())
	scenes, err := d.DetectScenes(context.Background(), "climb.mp4")
	if err != nil {
		t.Fatalf("DetectScenes returned error: %v", err)
	}
	if len(scenes) != 0 {
		t.Fatalf("expected no scenes, got %+v", scenes)
	}
}

func TestDetectScenesToolFailure(t *testing.T) {
	probe := &fakeProbe{cutsErr: &models.ProbeError{Path: "climb.mp4", Err: errors.New("exit status 1")}}
	d := NewDetector(probe, Options{MinSceneLength: 5}, zerolog.Nop())
	if _, err := d.DetectScenes(context.Background(), "climb.mp4"); !errors.Is(err, models.ErrToolInvocation) {
		t.Fatalf("expected tool invocation error, got %v", err)
	}
}
