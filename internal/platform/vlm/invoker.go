package vlm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/tessellate-ai/extract-api/internal/config"
	"github.com/tessellate-ai/extract-api/internal/extract"
)

// GeminiInvoker implements the extract.Invoker interface using
// Google's Gemini API to pull structured business information out of
// a document.
type GeminiInvoker struct {
	logger *slog.Logger

	config config.ModelConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

var _ extract.Invoker = (*GeminiInvoker)(nil)

// promptData carries the values the prompt template can reference.
type promptData struct {
	PageCount int
}

// NewGeminiInvoker creates a new GeminiInvoker from the model
// configuration. It loads and parses the prompt template and
// initializes the API client.
func NewGeminiInvoker(ctx context.Context, log *slog.Logger, cfg config.ModelConfig) (*GeminiInvoker, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", extract.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", extract.ErrInvalidConfig)
	}

	if cfg.PromptTemplatePath == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", extract.ErrInvalidConfig)
	}

	templateContent, err := os.ReadFile(cfg.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			extract.ErrInvalidConfig, cfg.PromptTemplatePath, err)
	}

	promptTemplate, err := template.New("extraction").Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			extract.ErrInvalidConfig, err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			extract.ErrInvalidConfig, err)
	}

	return &GeminiInvoker{
		logger:         log.With(slog.String("component", "gemini_invoker")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// Invoke implements extract.Invoker. It makes a single API call; the
// caller owns the retry loop and uses the sentinel classification to
// decide whether another attempt is worthwhile.
func (g *GeminiInvoker) Invoke(ctx context.Context, sourceRef string, pageCount int) (extract.RawResult, error) {
	if sourceRef == "" {
		return nil, fmt.Errorf("%w: empty source reference", extract.ErrInvalidConfig)
	}

	prompt, err := g.createPrompt(pageCount)
	if err != nil {
		return nil, err
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	g.logger.InfoContext(ctx, "calling Gemini API",
		slog.String("model", g.model),
		slog.Int("page_count", pageCount))

	content := &genai.Content{
		Parts: []*genai.Part{
			{
				FileData: &genai.FileData{
					MIMEType: "application/pdf",
					FileURI:  sourceRef,
				},
			},
			{
				Text: prompt,
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, nil)
	if err != nil {
		// API-level failures (timeouts, rate limits, resets) are
		// assumed transient.
		g.logger.ErrorContext(ctx, "Gemini API call error", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", extract.ErrTransientFailure, err)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", extract.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", extract.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason safety", extract.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", extract.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}

	result, err := parseResult(text)
	if err != nil {
		g.logger.WarnContext(ctx, "failed to parse model response",
			slog.String("error", err.Error()),
			slog.Int("response_length", len(text)))
		return nil, err
	}

	g.logger.InfoContext(ctx, "Gemini API call successful",
		slog.Int("field_count", len(result)))
	return result, nil
}

func (g *GeminiInvoker) createPrompt(pageCount int) (string, error) {
	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{PageCount: pageCount}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// parseResult decodes the model's response text as a JSON object.
// Models occasionally wrap JSON in a markdown code fence; that fence
// is stripped before decoding.
func parseResult(text string) (extract.RawResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", extract.ErrInvalidResponse)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var result extract.RawResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", extract.ErrInvalidResponse, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", extract.ErrInvalidResponse)
	}

	return result, nil
}
