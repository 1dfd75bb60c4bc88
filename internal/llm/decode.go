package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Sanitizer repairs a model document so it can pass schema validation.
type Sanitizer func(doc []byte) ([]byte, []string, error)

// DecodeValidated validates content against schema and unmarshals it into out.
// When strict validation fails and sanitize is set, the sanitized document is validated once more.
// Returns the JSON that was finally accepted.
func DecodeValidated(schema map[string]any, content []byte, sanitize Sanitizer, out any, logger *slog.Logger, attrs ...any) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	content = StripCodeFence(content)

	if err := ValidateJSONAgainstSchema(schema, content); err != nil {
		if sanitize == nil {
			logger.Error("llm.decode.schema_validation_failed", append(attrs, "error", err)...)
			return content, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := sanitize(content)
		if sErr != nil {
			logger.Error("llm.decode.sanitize_failed", append(attrs, "error", sErr)...)
			return content, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			logger.Error("llm.decode.schema_validation_failed", append(attrs, "error", vErr)...)
			return cleaned, fmt.Errorf("schema validation failed: %w", vErr)
		}
		logger.Warn("llm.decode.lenient_sanitize_applied", append(attrs, "dropped", dropped)...)
		content = cleaned
	}

	if err := json.Unmarshal(content, out); err != nil {
		logger.Error("llm.decode.unmarshal_failed", append(attrs, "error", err)...)
		return content, fmt.Errorf("unmarshal fields: %w", err)
	}
	return content, nil
}

// StripCodeFence removes a surrounding ```json fence some models add despite instructions.
func StripCodeFence(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
