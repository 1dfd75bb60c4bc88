package gemini

import "encoding/json"

func schemaJSON(schema map[string]any) string {
	b, _ := json.Marshal(schema)
	return string(b)
}
