package fortune

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"saju-backend/internal/logger"
)

type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(req)}},
		},
	}

	logger.ExternalServiceCall("gemini", "GenerateContent", "model", g.model, "analysisType", req.Type.Code)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		logger.ExternalServiceResult("gemini", "GenerateContent", err)
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		logger.ExternalServiceResult("gemini", "GenerateContent", ErrEmptyResult)
		return "", ErrEmptyResult
	}
	logger.ExternalServiceResult("gemini", "GenerateContent", nil, "chars", len(text))
	return text, nil
}
