package vision

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"summitclips-server/internal/models"
)

// GeminiModel sends prompts and JPEG frames to a Gemini model
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGeminiModel connects to the Gemini API. The key must come from the environment.
func NewGeminiModel(ctx context.Context, apiKey, modelName string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, &models.ModelError{Model: modelName, Err: errors.New("GEMINI_API_KEY is not set")}
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &models.ModelError{Model: modelName, Err: err}
	}
	return &GeminiModel{
		client: client,
		model:  client.GenerativeModel(modelName),
		name:   modelName,
	}, nil
}

// Name returns the model name
func (g *GeminiModel) Name() string {
	return g.name
}

// Generate sends prompt followed by the images and returns the concatenated text parts
func (g *GeminiModel) Generate(ctx context.Context, prompt string, images [][]byte) (string, error) {
	parts := []genai.Part{genai.Text(prompt)}
	for _, img := range images {
		parts = append(parts, genai.ImageData("jpeg", img))
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &models.ModelError{Model: g.name, Err: err}
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", &models.ModelError{Model: g.name, Err: errors.New("empty response")}
	}
	return sb.String(), nil
}

// Close releases the underlying client
func (g *GeminiModel) Close() error {
	return g.client.Close()
}
