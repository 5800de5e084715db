package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/reelforge/reelforge-api/internal/config"
	"github.com/reelforge/reelforge-api/internal/generation"
)

const breakdownPromptTemplate = `Analyze the following document and break it
down into a detailed storyboard for video production.

Requirements:
1. Split the content into at most 10 scenes.
2. For every scene provide:
   - a concrete visual description suitable for image generation
   - the narration or dialogue text for speech synthesis
   - a suggested duration between 5 and 30 seconds
   - a scene type (interior / exterior / close-up)
3. Scene numbers must start at 1 and increase without gaps.
4. Keep the total runtime between 3 and 5 minutes.

Document:
{{.Document}}

Return the storyboard as JSON only, in exactly this shape:
{
  "title": "document title",
  "summary": "one-paragraph synopsis",
  "scenes": [
    {
      "scene_number": 1,
      "scene_description": "concrete visual description",
      "dialogue": "narration text",
      "duration": 15,
      "scene_type": "interior"
    }
  ]
}`

const summaryPrompt = `Summarize the following document in a single short
sentence suitable as a video title. Return only the sentence, without
quotes or any explanation.

Document:
%s`

// Analyzer implements generation.ScriptAnalyzer on the Gemini API.
type Analyzer struct {
	logger   *slog.Logger
	client   *genai.Client
	model    string
	cfg      config.LLMConfig
	template *template.Template
}

// NewAnalyzer creates an Analyzer from the LLM configuration.
func NewAnalyzer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	tmpl, err := template.New("breakdown").Parse(breakdownPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse breakdown template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Analyzer{
		logger:   logger,
		client:   client,
		model:    cfg.ModelName,
		cfg:      cfg,
		template: tmpl,
	}, nil
}

// BreakdownScript analyzes the document and returns its storyboard.
func (a *Analyzer) BreakdownScript(ctx context.Context, document string) (*generation.Storyboard, error) {
	if strings.TrimSpace(document) == "" {
		return nil, fmt.Errorf("%w: document is empty", generation.ErrInvalidResponse)
	}

	var buf bytes.Buffer
	if err := a.template.Execute(&buf, struct{ Document string }{Document: document}); err != nil {
		return nil, fmt.Errorf("failed to build breakdown prompt: %w", err)
	}

	text, err := generateWithRetry(ctx, a.logger, a.client, a.model, buf.String(), a.cfg)
	if err != nil {
		return nil, err
	}

	storyboard, err := parseStoryboard(text)
	if err != nil {
		return nil, err
	}

	a.logger.Info("script breakdown produced",
		"title", storyboard.Title,
		"scene_count", len(storyboard.Scenes))
	return storyboard, nil
}

// SummarizeChapter produces a short summary suitable for a video title.
func (a *Analyzer) SummarizeChapter(ctx context.Context, document string) (string, error) {
	text, err := generateWithRetry(ctx, a.logger, a.client, a.model,
		fmt.Sprintf(summaryPrompt, document), a.cfg)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", generation.ErrInvalidResponse)
	}
	return summary, nil
}

// parseStoryboard decodes the model output into a storyboard. Models often
// wrap JSON in prose or code fences, so when direct decoding fails the
// outermost brace pair is extracted and decoded instead.
func parseStoryboard(text string) (*generation.Storyboard, error) {
	var storyboard generation.Storyboard
	if err := json.Unmarshal([]byte(text), &storyboard); err != nil {
		extracted, ok := extractJSONObject(text)
		if !ok {
			return nil, fmt.Errorf("%w: no JSON object in model output: %v",
				generation.ErrInvalidResponse, err)
		}
		if err := json.Unmarshal([]byte(extracted), &storyboard); err != nil {
			return nil, fmt.Errorf("%w: failed to decode storyboard JSON: %v",
				generation.ErrInvalidResponse, err)
		}
	}

	if len(storyboard.Scenes) == 0 {
		return nil, fmt.Errorf("%w: storyboard has no scenes", generation.ErrInvalidResponse)
	}
	return &storyboard, nil
}

// extractJSONObject returns the substring between the first '{' and the
// last '}' of text.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
