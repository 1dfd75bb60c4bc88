package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm"
)

// ExtractIdentity implements llm.IdentityExtractor with vision chat/completions.
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
	c.logger.Info("llm.identity.start", append(llm.LogAttrs(ctx, rid),
		"model", c.cfg.Model,
		"country", req.Country.Code,
		"images", len(images),
	)...)

	schema := llm.BuildIdentityJSONSchema()
	content, err := c.complete(ctx, rid, llm.BuildIdentityPrompt(req.Country, len(images)), schema, images)
	if err != nil {
		c.logger.Error("llm.identity.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.IdentityFields{}, content, err
	}

	var out llm.IdentityFields
	var sanitize llm.Sanitizer
	if c.cfg.LenientOptional {
		sanitize = llm.SanitizeIdentityFields
	}
	accepted, err := llm.DecodeValidated(schema, content, sanitize, &out, c.logger, "req_id", rid)
	if err != nil {
		return llm.IdentityFields{}, accepted, err
	}

	c.logger.Info("llm.identity.ok",
		"req_id", rid,
		"has_name", out.FullName != "" || out.LastName != "",
		"has_document_number", out.DocumentNumber != "",
		"confidence", out.ModelConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, accepted, nil
}

// AnalyzeDamage implements llm.DamageAnalyzer with vision chat/completions.
func (c *Client) AnalyzeDamage(ctx context.Context, req llm.DamageRequest) (llm.DamageFields, []byte, error) {
	rid := llm.RequestID(ctx)
	start := time.Now()
	if len(req.Image) == 0 {
		return llm.DamageFields{}, nil, fmt.Errorf("image is required")
	}

	schema := llm.BuildDamageJSONSchema()
	content, err := c.complete(ctx, rid, llm.BuildDamagePrompt(req.Description), schema, [][]byte{req.Image})
	if err != nil {
		c.logger.Error("llm.damage.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.DamageFields{}, content, err
	}

	var out llm.DamageFields
	accepted, err := llm.DecodeValidated(schema, content, llm.SanitizeDamageFields, &out, c.logger, "req_id", rid)
	if err != nil {
		return llm.DamageFields{}, accepted, err
	}
	c.logger.Info("llm.damage.ok", "req_id", rid, "findings", len(out.Findings), "elapsed_ms", time.Since(start).Milliseconds())
	return out, accepted, nil
}

// complete sends one system prompt plus images and returns the first choice's content.
func (c *Client) complete(ctx context.Context, rid, system string, schema map[string]any, images [][]byte) ([]byte, error) {
	parts := []map[string]any{
		{"type": "text", "text": "Return ONLY JSON that matches the provided schema."},
	}
	for _, img := range images {
		parts = append(parts, map[string]any{
			"type": "image_url",
			"image_url": map[string]any{
				"url":    imageprep.EncodeDataURL(imageprep.MimeJPEG, img),
				"detail": c.cfg.ImageDetail,
			},
		})
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": parts},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.openai.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.openai.no_choices", "req_id", rid)
		return raw, fmt.Errorf("no choices in openai response")
	}
	return []byte(strings.TrimSpace(cc.Choices[0].Message.Content)), nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
