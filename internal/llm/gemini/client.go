// Package gemini reads identity documents, damage photos and capture categories with Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/classify"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm"
)

// generator is the part of *genai.GenerativeModel we use.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client interacts with the Gemini API using the official SDK.
type Client struct {
	client    *genai.Client
	model     generator
	modelName string
	logger    *slog.Logger
}

// NewClient creates a Gemini client that answers in JSON.
func NewClient(ctx context.Context, apiKey, modelName string, temperature float32, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.ResponseMIMEType = "application/json"

	return &Client{client: client, model: model, modelName: modelName, logger: logger}, nil
}

func newWithGenerator(g generator, modelName string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{model: g, modelName: modelName, logger: logger}
}

// Close closes the client connection.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.modelName }

// ExtractIdentity implements llm.IdentityExtractor.
func (c *Client) ExtractIdentity(ctx context.Context, req llm.IdentityRequest) (llm.IdentityFields, []byte, error) {
	rid := llm.RequestID(ctx)
	start := time.Now()
	if len(req.Front) == 0 {
		return llm.IdentityFields{}, nil, fmt.Errorf("front image is required")
	}
	images := [][]byte{req.Front}
	if len(req.Back) > 0 {
		images = append(images, req.Back)
	}
	c.logger.Info("llm.identity.start", append(llm.LogAttrs(ctx, rid), "model", c.modelName, "country", req.Country.Code, "images", len(images))...)

	schema := llm.BuildIdentityJSONSchema()
	content, err := c.generate(ctx, llm.BuildIdentityPrompt(req.Country, len(images)), schema, images)
	if err != nil {
		c.logger.Error("llm.identity.generate_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.IdentityFields{}, nil, err
	}

	var out llm.IdentityFields
	accepted, err := llm.DecodeValidated(schema, content, llm.SanitizeIdentityFields, &out, c.logger, "req_id", rid)
	if err != nil {
		return llm.IdentityFields{}, accepted, err
	}
	c.logger.Info("llm.identity.ok", "req_id", rid, "has_document_number", out.DocumentNumber != "", "elapsed_ms", time.Since(start).Milliseconds())
	return out, accepted, nil
}

// AnalyzeDamage implements llm.DamageAnalyzer.
func (c *Client) AnalyzeDamage(ctx context.Context, req llm.DamageRequest) (llm.DamageFields, []byte, error) {
	rid := llm.RequestID(ctx)
	start := time.Now()
	if len(req.Image) == 0 {
		return llm.DamageFields{}, nil, fmt.Errorf("image is required")
	}

	schema := llm.BuildDamageJSONSchema()
	content, err := c.generate(ctx, llm.BuildDamagePrompt(req.Description), schema, [][]byte{req.Image})
	if err != nil {
		c.logger.Error("llm.damage.generate_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.DamageFields{}, nil, err
	}

	var out llm.DamageFields
	accepted, err := llm.DecodeValidated(schema, content, llm.SanitizeDamageFields, &out, c.logger, "req_id", rid)
	if err != nil {
		return llm.DamageFields{}, accepted, err
	}
	c.logger.Info("llm.damage.ok", "req_id", rid, "findings", len(out.Findings), "elapsed_ms", time.Since(start).Milliseconds())
	return out, accepted, nil
}

// Analyze implements classify.Analyzer by asking the model for the content category.
func (c *Client) Analyze(ctx context.Context, image []byte) (classify.Analysis, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":   map[string]any{"type": "string"},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"category"},
	}
	prompt := "Classify what this photo shows for an insurance inspection. " +
		"Answer with 'category' set to exactly one of: " + strings.Join(constants.CategoriesAsStrings(), ", ") +
		" and 'confidence' between 0 and 1."
	content, err := c.generate(ctx, prompt, schema, [][]byte{image})
	if err != nil {
		return classify.Analysis{}, err
	}

	var out struct {
		Category   string  `json:"category"`
		Confidence float32 `json:"confidence"`
	}
	if _, err := llm.DecodeValidated(schema, content, nil, &out, c.logger); err != nil {
		return classify.Analysis{}, err
	}
	cat, ok := constants.CanonicalizeCategory(out.Category)
	if !ok {
		return classify.Analysis{Category: constants.CategoryUnknown}, nil
	}
	return classify.Analysis{Category: cat, Confidence: out.Confidence}, nil
}

func (c *Client) generate(ctx context.Context, prompt string, schema map[string]any, images [][]byte) ([]byte, error) {
	parts := []genai.Part{
		genai.Text(prompt),
		genai.Text("Return ONLY JSON that matches this JSON Schema:\n" + schemaJSON(schema)),
	}
	for _, img := range images {
		parts = append(parts, genai.ImageData("jpeg", img))
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return []byte(b.String()), nil
}
