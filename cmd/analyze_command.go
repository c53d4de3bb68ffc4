package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"summitclips-server/internal/ffmpeg"
	"summitclips-server/internal/models"
)

// analyzeOutput is the JSON document written by the analyze command
type analyzeOutput struct {
	Scenes             []models.Scene             `json:"scenes"`
	Descriptions       []models.Description       `json:"descriptions"`
	EditingSuggestions []models.EditingSuggestion `json:"editing_suggestions"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var srtPath string

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Analyze a video once and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoPath := args[0]
			info, err := os.Stat(videoPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("video file not found: %s", videoPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", videoPath)
			}

			svc, err := ctx.buildServices(cmd.Context(), serviceOptions{archive: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			result := svc.pipeline.Process(cmd.Context(), videoPath)

			if srtPath != "" {
				if err := writeSceneSRT(srtPath, result); err != nil {
					return err
				}
				ctx.logger.Info().Str("path", srtPath).Msg("scene subtitles written")
			}

			if outputPath == "" {
				return writeResult(cmd.OutOrStdout(), result)
			}
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			if err := writeResult(f, result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analysis written to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the JSON result to this file")
	cmd.Flags().StringVar(&srtPath, "srt", "", "Also write one subtitle cue per scene to this SRT file")
	return cmd
}

func writeResult(w io.Writer, result *models.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(analyzeOutput{
		Scenes:             result.Scenes,
		Descriptions:       result.Descriptions,
		EditingSuggestions: result.EditingSuggestions,
	})
}

// sceneSubtitles turns each scene into a cue carrying its description
func sceneSubtitles(result *models.AnalysisResult) []ffmpeg.Subtitle {
	subs := make([]ffmpeg.Subtitle, 0, len(result.Scenes))
	for _, scene := range result.Scenes {
		subs = append(subs, ffmpeg.Subtitle{
			Index: scene.SceneID,
			Start: ffmpeg.SecondsToDuration(scene.StartTime),
			End:   ffmpeg.SecondsToDuration(scene.EndTime),
			Text:  result.DescriptionFor(scene.SceneID),
		})
	}
	return subs
}

func writeSceneSRT(path string, result *models.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create SRT file: %w", err)
	}
	defer f.Close()
	return ffmpeg.WriteSRT(f, sceneSubtitles(result))
}
